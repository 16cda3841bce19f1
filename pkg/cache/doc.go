// Package cache persists the synchronized user list between runs.
//
// The cache is strictly best-effort: Store never returns an error from Save,
// Load or Clear. Failures are logged and counted, and a failed Load reads as
// "absent". The list is stored as one JSON array under a single fixed key and
// every Save replaces the previous value wholesale. There is no expiry and no
// versioning.
//
// # Backends
//
// Store delegates byte persistence to a Backend:
//
//   - memory: process-local map (tests, throwaway runs)
//   - bolt:   single-file bbolt database (default on-disk cache)
//   - sqlite: cache_entries table in a SQLite database
//   - redis:  plain SET/GET without TTL
//
// # Basic Usage
//
//	backend, err := cache.Open(ctx, cache.Config{Backend: cache.BackendBolt, Path: "users.db"})
//	if err != nil {
//		return err
//	}
//	defer backend.Close()
//
//	store := cache.NewStore(backend, cache.DefaultKey)
//	store.Save(ctx, users)
//	if users, ok := store.Load(ctx); ok {
//		// hydrate from cache
//	}
//
// # Metrics
//
//   - usersync_cache_hits_total{backend}
//   - usersync_cache_misses_total{backend}
//   - usersync_cache_errors_total{backend, operation}
//   - usersync_cache_size_bytes{backend}
package cache
