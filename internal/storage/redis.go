package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/keshon/connect-router/internal/policy"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "connect:policy:"

// Redis keeps each policy record as a JSON string. SETNX decides the winner
// of concurrent first inserts.
type Redis struct {
	client *redis.Client
}

// OpenRedis connects using a redis:// URL.
func OpenRedis(url string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return NewRedis(redis.NewClient(opt)), nil
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, bucket uint64) (policy.Record, bool, error) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+bucketKey(bucket)).Bytes()
	if errors.Is(err, redis.Nil) {
		return policy.Record{}, false, nil
	}
	if err != nil {
		return policy.Record{}, false, err
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		return policy.Record{}, false, err
	}
	return rec, true, nil
}

func (r *Redis) InsertIfAbsent(ctx context.Context, rec policy.Record) (policy.Record, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return policy.Record{}, err
	}
	key := redisKeyPrefix + bucketKey(rec.ID)
	if err := r.client.SetNX(ctx, key, raw, 0).Err(); err != nil {
		return policy.Record{}, err
	}
	stored, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return policy.Record{}, err
	}
	return decodeRecord(stored)
}

func (r *Redis) Put(ctx context.Context, rec policy.Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisKeyPrefix+bucketKey(rec.ID), raw, 0).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
