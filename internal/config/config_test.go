package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/keshon/connect-router/internal/access"
	"github.com/keshon/connect-router/internal/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DISCORD_TOKEN", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "config.yaml", cfg.ConfigPath)
	assert.Equal(t, "datastore", cfg.StorageDriver)
	assert.Equal(t, "datastore.json", cfg.StoragePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.InDelta(t, 5.0, cfg.ReplyRate, 1e-9)

	_, err = New()
	assert.Error(t, err)
}

func TestLoadFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STORAGE_DRIVER=sqlite\nREPLY_RATE=2.5\n"), 0o644))
	t.Setenv("DISCORD_TOKEN", "token")
	// godotenv does not override what is already set
	t.Setenv("LOG_LEVEL", "debug")
	for _, key := range []string{"STORAGE_DRIVER", "REPLY_RATE"} {
		t.Setenv(key, "") // restored after the test
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "token", cfg.DiscordToken)
	assert.Equal(t, "sqlite", cfg.StorageDriver)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.InDelta(t, 2.5, cfg.ReplyRate, 1e-9)
}

func TestLoadRejectsBadRate(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("REPLY_RATE", "0")
	_, err := Load()
	assert.Error(t, err)
}

func TestMissingFileGivesDefaults(t *testing.T) {
	f, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, router.DefaultOptions(), f.RouterOptions())
}

func TestFileOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
bot:
  commands_require_mention: false
  commands_mention_rules:
    role: true
  commands_prefix: "!"
  commands_allow_edit: false
  commands_edit_retrigger: true
access:
  owners: ["1"]
  moderator_roles: ["Helpers"]
`), 0o644))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, router.Options{
		RequireMention: false,
		MentionRules:   router.MentionRules{User: true, Role: true},
		Prefix:         "!",
		AllowEdit:      false,
		EditRetrigger:  true,
	}, f.RouterOptions())

	table := f.AccessTable("dev", "")
	assert.True(t, table.IsOwner("1"))
	assert.True(t, table.IsOwner("dev"))
	assert.False(t, table.IsOwner(""))
	assert.True(t, table.IsModeratorRole("Helpers"))
	assert.Len(t, f.Access.Owners, 1, "extra owners do not leak into the file")
}

func TestBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("access:\n  levels:\n    \"1\": wizard\n"), 0o644))
	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bot:\n  commands_prefix: \"!\"\n"), 0o644))

	var (
		mu     sync.Mutex
		loaded []File
	)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, zap.NewNop(), func(f File) {
			mu.Lock()
			loaded = append(loaded, f)
			mu.Unlock()
		})
	}()
	// give the watcher time to register the directory
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("bot:\n  commands_prefix: \"?\"\naccess:\n  owners: [\"7\"]\n"), 0o644))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(loaded) > 0 && loaded[len(loaded)-1].Bot.Prefix == "?"
	}, 3*time.Second, 20*time.Millisecond)

	mu.Lock()
	last := loaded[len(loaded)-1]
	mu.Unlock()
	holder := access.NewHolder(nil)
	holder.Store(last.AccessTable())
	assert.True(t, holder.Load().IsOwner("7"))

	cancel()
	require.NoError(t, <-done)
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
