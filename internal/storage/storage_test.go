package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/keshon/connect-router/internal/datastore"
	"github.com/keshon/connect-router/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

// exerciseBackend runs the behaviour every backend must share.
func exerciseBackend(t *testing.T, b policy.Backend) {
	t.Helper()
	ctx := context.Background()

	_, found, err := b.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, found, "fresh backend has no record")

	first := policy.Defaults(7)
	stored, err := b.InsertIfAbsent(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, first, stored)

	second := policy.Defaults(7)
	second.Volume = 0.1
	second.MinSkips = 9
	stored, err = b.InsertIfAbsent(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, policy.DefaultVolume, stored.Volume, "first insert wins")
	assert.Equal(t, policy.DefaultMinSkips, stored.MinSkips)

	prefix := "?"
	updated := stored
	updated.Prefix = &prefix
	updated.IgnoredChannels = []uint64{11, 12}
	require.NoError(t, b.Put(ctx, updated))

	got, found, err := b.Get(ctx, 7)
	require.NoError(t, err)
	require.True(t, found)
	require.NotNil(t, got.Prefix)
	assert.Equal(t, "?", *got.Prefix)
	assert.Equal(t, []uint64{11, 12}, got.IgnoredChannels)
}

func TestMemoryBackend(t *testing.T) {
	exerciseBackend(t, NewMemory())
}

func TestDatastoreBackend(t *testing.T) {
	cfg := datastore.DefaultConfig(filepath.Join(t.TempDir(), "policies.json"))
	cfg.AutoSaveInterval = 0
	ds, err := datastore.NewWithConfig(cfg)
	require.NoError(t, err)

	b := NewDatastore(ds)
	defer b.Close()
	exerciseBackend(t, b)
}

func TestGormSQLiteBackend(t *testing.T) {
	b, err := OpenGorm(sqlite.Open(filepath.Join(t.TempDir(), "policies.db")))
	require.NoError(t, err)
	defer b.Close()
	exerciseBackend(t, b)
}

func TestRedisBackend(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	b, err := OpenRedis(url)
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	require.NoError(t, b.client.Del(ctx, redisKeyPrefix+bucketKey(7)).Err())
	exerciseBackend(t, b)
}

func TestMemoryConcurrentInsertSingleWinner(t *testing.T) {
	m := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.InsertIfAbsent(context.Background(), policy.Defaults(1))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, m.Inserts())
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(Options{Driver: "cassandra"})
	assert.Error(t, err)
}

func TestOpenDatastoreDriver(t *testing.T) {
	b, err := Open(Options{Driver: DriverDatastore, Path: filepath.Join(t.TempDir(), "x.json")})
	require.NoError(t, err)
	assert.IsType(t, &Datastore{}, b)
	require.NoError(t, b.Close())
}
