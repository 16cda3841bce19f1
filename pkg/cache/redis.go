package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores entries as plain Redis strings without TTL.
type RedisBackend struct {
	redis *redis.Client
}

// NewRedisBackend creates a backend on an existing Redis client.
// The backend takes ownership of the client and closes it on Close.
func NewRedisBackend(redisClient *redis.Client) *RedisBackend {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisBackend{redis: redisClient}
}

func (b *RedisBackend) Name() string { return BackendRedis }

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := b.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, data []byte) error {
	// No expiry: the list is replaced, never aged out.
	if err := b.redis.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := b.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (b *RedisBackend) Close() error {
	return b.redis.Close()
}
