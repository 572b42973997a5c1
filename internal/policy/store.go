package policy

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrStoreUnavailable wraps every backend failure. Callers must not route a
// message whose policy could not be read.
var ErrStoreUnavailable = errors.New("policy store unavailable")

// Backend is the persistent table behind the Store.
//
// InsertIfAbsent must be atomic per bucket: when a record already exists it
// is left untouched and returned, otherwise rec is stored and returned. The
// first insert wins.
type Backend interface {
	Get(ctx context.Context, bucket uint64) (Record, bool, error)
	InsertIfAbsent(ctx context.Context, rec Record) (Record, error)
	Put(ctx context.Context, rec Record) error
	Close() error
}

// Store fetches policy records and provisions missing ones lazily.
type Store struct {
	backend Backend
	log     *zap.Logger

	flight singleflight.Group

	mu      sync.Mutex
	writers map[uint64]*sync.Mutex
}

// NewStore wraps a backend.
func NewStore(backend Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		backend: backend,
		log:     log,
		writers: make(map[uint64]*sync.Mutex),
	}
}

// GetOrCreate returns the record of the guild's bucket, persisting the
// defaults on first access.
func (s *Store) GetOrCreate(ctx context.Context, guildID string) (Record, error) {
	bucket, err := BucketOf(guildID)
	if err != nil {
		return Record{}, err
	}
	return s.getOrCreate(ctx, bucket)
}

// getOrCreate shares one backend round trip between concurrent callers of a
// bucket. The shared call ignores cancellation so one caller giving up does
// not fail the others; each caller still stops waiting on its own ctx.
func (s *Store) getOrCreate(ctx context.Context, bucket uint64) (Record, error) {
	flightCtx := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(strconv.FormatUint(bucket, 10), func() (any, error) {
		rec, found, err := s.backend.Get(flightCtx, bucket)
		if err != nil {
			return Record{}, fmt.Errorf("%w: get %d: %w", ErrStoreUnavailable, bucket, err)
		}
		if found {
			return rec, nil
		}

		rec, err = s.backend.InsertIfAbsent(flightCtx, Defaults(bucket))
		if err != nil {
			return Record{}, fmt.Errorf("%w: insert %d: %w", ErrStoreUnavailable, bucket, err)
		}
		s.log.Info("Provisioned default policy", zap.Uint64("bucket", bucket))
		return rec, nil
	})

	select {
	case <-ctx.Done():
		return Record{}, fmt.Errorf("get policy %d: %w", bucket, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return Record{}, res.Err
		}
		// singleflight hands the same value to every waiter
		return res.Val.(Record).Clone(), nil
	}
}

// Update applies a partial update to the guild's record and persists it.
func (s *Store) Update(ctx context.Context, guildID, channelID string, p Patch) (Record, error) {
	bucket, err := BucketOf(guildID)
	if err != nil {
		return Record{}, err
	}
	if err := p.Validate(); err != nil {
		return Record{}, err
	}

	mu := s.writer(bucket)
	mu.Lock()
	defer mu.Unlock()

	current, err := s.getOrCreate(ctx, bucket)
	if err != nil {
		return Record{}, err
	}
	next, err := current.Apply(p, channelID)
	if err != nil {
		return Record{}, err
	}
	if err := s.backend.Put(ctx, next); err != nil {
		return Record{}, fmt.Errorf("%w: put %d: %w", ErrStoreUnavailable, bucket, err)
	}
	s.log.Info("Updated policy", zap.Uint64("bucket", bucket), zap.String("guild", guildID))
	return next, nil
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) writer(bucket uint64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	mu, ok := s.writers[bucket]
	if !ok {
		mu = &sync.Mutex{}
		s.writers[bucket] = mu
	}
	return mu
}
