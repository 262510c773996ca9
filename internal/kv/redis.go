package kv

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	redisDataField    = "d"
	redisVersionField = "v"
)

// RedisStore keeps each entry in a hash holding the payload and its version.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) Name() string { return "redis" }

func (r *RedisStore) key(k string) string {
	return r.prefix + k
}

func (r *RedisStore) Get(ctx context.Context, key string) (Entry, error) {
	return readRedisEntry(ctx, r.client, r.key(key))
}

type hashReader interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

func readRedisEntry(ctx context.Context, c hashReader, key string) (Entry, error) {
	fields, err := c.HGetAll(ctx, key).Result()
	if err != nil {
		return Entry{}, fmt.Errorf("redis get %s: %w", key, err)
	}
	data, ok := fields[redisDataField]
	if !ok {
		return Entry{}, ErrNotFound
	}
	version, err := strconv.ParseInt(fields[redisVersionField], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("redis get %s: bad version: %w", key, err)
	}
	return Entry{Value: []byte(data), Version: version}, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	k := r.key(key)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, redisDataField, value)
		pipe.HIncrBy(ctx, k, redisVersionField, 1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) CompareAndSwap(ctx context.Context, key string, version int64, value []byte) (int64, error) {
	k := r.key(key)
	next := version + 1
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := readRedisEntry(ctx, tx, k)
		switch {
		case errors.Is(err, ErrNotFound):
			if version != 0 {
				return ErrVersionConflict
			}
		case err != nil:
			return err
		case cur.Version != version:
			return ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, k, redisDataField, value, redisVersionField, next)
			return nil
		})
		return err
	}, k)

	if errors.Is(err, redis.TxFailedErr) {
		return 0, ErrVersionConflict
	}
	if err != nil {
		if errors.Is(err, ErrVersionConflict) {
			return 0, err
		}
		return 0, fmt.Errorf("redis cas %s: %w", key, err)
	}
	return next, nil
}
