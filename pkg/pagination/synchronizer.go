package pagination

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/Sternrassler/gh-user-sync/pkg/client"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StartCursor requests the collection from its beginning.
const StartCursor int64 = 0

// PrefetchDistance is how many rows before the end ShouldPrefetch fires.
const PrefetchDistance = 3

// PageFetcher fetches the page of users after a cursor.
type PageFetcher interface {
	FetchPage(ctx context.Context, since int64) ([]client.User, error)
}

// ListCache persists the full user list. Implementations swallow their own
// errors; a failed Load reports ok == false.
type ListCache interface {
	Save(ctx context.Context, users []client.User)
	Load(ctx context.Context) (users []client.User, ok bool)
	Clear(ctx context.Context)
}

// Phase reports whether a fetch is in flight.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFetching
)

func (p Phase) String() string {
	if p == PhaseFetching {
		return "fetching"
	}
	return "idle"
}

// LoadResult describes one LoadNext call.
type LoadResult struct {
	// Appended is the number of users added to the list.
	Appended int

	// Cursor is the cursor after the call.
	Cursor int64

	// Skipped is true when another fetch was already in flight.
	Skipped bool
}

// Outcome is delivered by LoadNextAsync.
type Outcome struct {
	Result LoadResult
	Err    error
}

// Synchronizer owns the in-memory user list and its pagination cursor.
type Synchronizer struct {
	fetcher PageFetcher
	cache   ListCache
	logger  zerolog.Logger

	// fetching is the single concurrency guard: only the goroutine that flips
	// it to true may mutate items and cursor.
	fetching atomic.Bool

	// mu only makes snapshots safe for readers on other goroutines.
	mu       sync.RWMutex
	items    []client.User
	cursor   int64
	hydrated bool
}

// New creates a Cold, Idle synchronizer with an empty list.
func New(fetcher PageFetcher, cache ListCache) *Synchronizer {
	if fetcher == nil {
		panic("page fetcher cannot be nil")
	}
	if cache == nil {
		panic("list cache cannot be nil")
	}
	return &Synchronizer{
		fetcher: fetcher,
		cache:   cache,
		cursor:  StartCursor,
		logger:  log.With().Str("component", "synchronizer").Logger(),
	}
}

// Initialize hydrates the list from the cache the first time it is called.
// A cache hit replaces the list and moves the cursor to its last ID. It never
// fetches from the network.
func (s *Synchronizer) Initialize(ctx context.Context) {
	s.mu.RLock()
	hydrated := s.hydrated
	s.mu.RUnlock()
	if hydrated {
		return
	}

	users, ok := s.cache.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hydrated {
		return
	}
	s.hydrated = true

	if !ok {
		s.logger.Debug().Msg("No cached user list")
		return
	}

	s.items = users
	s.cursor = lastID(users, StartCursor)
	itemsGauge.Set(float64(len(s.items)))

	s.logger.Info().
		Int("count", len(users)).
		Int64("cursor", s.cursor).
		Msg("Hydrated user list from cache")
}

// LoadInitial hydrates from the cache and then requests the next page.
func (s *Synchronizer) LoadInitial(ctx context.Context) (LoadResult, error) {
	s.Initialize(ctx)
	return s.LoadNext(ctx)
}

// LoadNext fetches the page after the cursor and appends it. It is a no-op
// while another fetch is in flight. On failure the list and cursor are left
// as they were and the fetch error is returned.
func (s *Synchronizer) LoadNext(ctx context.Context) (LoadResult, error) {
	if !s.fetching.CompareAndSwap(false, true) {
		loadSkippedTotal.Inc()
		s.logger.Debug().Msg("Fetch already in flight, skipping")
		return LoadResult{Cursor: s.Cursor(), Skipped: true}, nil
	}
	defer s.fetching.Store(false)

	cursor := s.Cursor()

	users, err := s.fetcher.FetchPage(ctx, cursor)
	if err != nil {
		kind := "unknown"
		var fe *client.FetchError
		if errors.As(err, &fe) {
			kind = string(fe.Kind)
		}
		loadFailuresTotal.WithLabelValues(kind).Inc()

		s.logger.Warn().
			Err(err).
			Int64("cursor", cursor).
			Str("kind", kind).
			Msg("Failed to load next page")
		return LoadResult{Cursor: cursor}, err
	}

	s.mu.Lock()
	s.items = append(s.items, users...)
	s.cursor = lastID(users, s.cursor)
	snapshot := slices.Clone(s.items)
	newCursor := s.cursor
	s.mu.Unlock()

	s.cache.Save(ctx, snapshot)

	pagesLoadedTotal.Inc()
	itemsLoadedTotal.Add(float64(len(users)))
	itemsGauge.Set(float64(len(snapshot)))

	s.logger.Info().
		Int64("since", cursor).
		Int64("cursor", newCursor).
		Int("appended", len(users)).
		Int("count", len(snapshot)).
		Msg("Loaded next page")

	return LoadResult{Appended: len(users), Cursor: newCursor}, nil
}

// LoadNextAsync runs LoadNext on its own goroutine. The returned channel
// receives exactly one Outcome and is then closed.
func (s *Synchronizer) LoadNextAsync(ctx context.Context) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		res, err := s.LoadNext(ctx)
		out <- Outcome{Result: res, Err: err}
	}()
	return out
}

// Items returns a copy of the list at call time.
func (s *Synchronizer) Items() []client.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Len returns the number of users in the list.
func (s *Synchronizer) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Cursor returns the ID the next page will be requested after.
func (s *Synchronizer) Cursor() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor
}

// Hydrated reports whether the cache has been consulted.
func (s *Synchronizer) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

// Phase reports whether a fetch is in flight.
func (s *Synchronizer) Phase() Phase {
	if s.fetching.Load() {
		return PhaseFetching
	}
	return PhaseIdle
}

// ShouldPrefetch reports whether the row at visibleIndex is the one that
// should trigger loading the next page: exactly PrefetchDistance rows before
// the end of the list.
func (s *Synchronizer) ShouldPrefetch(visibleIndex int) bool {
	return visibleIndex == s.Len()-PrefetchDistance
}

// ClearCache removes the cached list. The in-memory list is kept.
func (s *Synchronizer) ClearCache(ctx context.Context) {
	s.cache.Clear(ctx)
}

func lastID(users []client.User, fallback int64) int64 {
	if len(users) == 0 {
		return fallback
	}
	return users[len(users)-1].ID
}
