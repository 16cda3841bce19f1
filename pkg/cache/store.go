package cache

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Sternrassler/gh-user-sync/pkg/client"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Store is the best-effort cache of the full user list.
type Store struct {
	backend Backend
	key     string
	logger  zerolog.Logger
}

// NewStore creates a store writing under key in backend.
func NewStore(backend Backend, key Key) *Store {
	if backend == nil {
		panic("cache backend cannot be nil")
	}
	return &Store{
		backend: backend,
		key:     key.String(),
		logger: log.With().
			Str("component", "cache").
			Str("backend", backend.Name()).
			Str("key", key.String()).
			Logger(),
	}
}

// Save replaces the cached list with users. Failures are logged and dropped.
func (s *Store) Save(ctx context.Context, users []client.User) {
	if users == nil {
		// Keep "[]" distinct from a missing entry.
		users = []client.User{}
	}

	data, err := json.Marshal(users)
	if err != nil {
		s.swallow("encode", err)
		return
	}

	if err := s.backend.Set(ctx, s.key, data); err != nil {
		s.swallow("save", err)
		return
	}

	CacheSize.WithLabelValues(s.backend.Name()).Set(float64(len(data)))
	s.logger.Debug().Int("count", len(users)).Int("bytes", len(data)).Msg("Saved user list")
}

// Load returns the cached list. ok is false if nothing was saved or the
// stored value cannot be decoded.
func (s *Store) Load(ctx context.Context) (users []client.User, ok bool) {
	data, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			CacheMisses.WithLabelValues(s.backend.Name()).Inc()
			s.logger.Debug().Msg("Cache miss")
			return nil, false
		}
		s.swallow("load", err)
		CacheMisses.WithLabelValues(s.backend.Name()).Inc()
		return nil, false
	}

	if err := json.Unmarshal(data, &users); err != nil || users == nil {
		if err == nil {
			err = errors.New("cached value is not a list")
		}
		s.swallow("decode", err)
		CacheMisses.WithLabelValues(s.backend.Name()).Inc()
		return nil, false
	}

	CacheHits.WithLabelValues(s.backend.Name()).Inc()
	s.logger.Debug().Int("count", len(users)).Msg("Cache hit")
	return users, true
}

// Clear removes the cached list.
func (s *Store) Clear(ctx context.Context) {
	if err := s.backend.Delete(ctx, s.key); err != nil {
		s.swallow("clear", err)
		return
	}
	CacheSize.WithLabelValues(s.backend.Name()).Set(0)
	s.logger.Info().Msg("Cleared user list cache")
}

func (s *Store) swallow(operation string, err error) {
	CacheErrors.WithLabelValues(s.backend.Name(), operation).Inc()
	s.logger.Warn().Err(err).Str("operation", operation).Msg("Cache error ignored")
}
