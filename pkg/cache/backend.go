package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates the requested key was not found in the backend
	ErrCacheMiss = errors.New("cache miss")

	// ErrUnknownBackend is returned by Open for an unsupported backend name
	ErrUnknownBackend = errors.New("unknown cache backend")
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Backend is a byte-level key/value persistence.
type Backend interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	// Get returns ErrCacheMiss if key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, data []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// Config selects and configures a backend.
type Config struct {
	// Backend is one of memory, bolt, sqlite, redis.
	Backend string

	// Path is the database file for bolt and sqlite.
	Path string

	// Redis connection settings.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open creates the backend described by cfg.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryBackend(), nil

	case BackendBolt:
		return OpenBolt(cfg.Path)

	case BackendSQLite:
		return OpenSQLite(ctx, cfg.Path)

	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return NewRedisBackend(client), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
