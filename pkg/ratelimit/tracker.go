package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	rateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "usersync_rate_limit_remaining",
		Help: "Requests remaining in the current GitHub rate limit window",
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usersync_rate_limit_blocks_total",
		Help: "Total number of requests refused locally because the rate limit was exhausted",
	})
)

// Tracker keeps the latest rate limit state seen in GitHub responses.
type Tracker struct {
	mu     sync.RWMutex
	state  State
	logger zerolog.Logger
	now    func() time.Time
}

// NewTracker creates a new rate limit tracker.
func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{
		logger: logger,
		now:    time.Now,
	}
}

// State returns a snapshot of the current state.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// UpdateFromHeaders parses the rate limit headers of a response.
// Responses without rate limit headers leave the state untouched.
func (t *Tracker) UpdateFromHeaders(headers http.Header) error {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil
	}

	remaining, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	resetStr := headers.Get(HeaderReset)
	if resetStr == "" {
		return fmt.Errorf("%s header missing", HeaderReset)
	}
	resetUnix, err := strconv.ParseInt(resetStr, 10, 64)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderReset, err)
	}

	state := State{
		Remaining:  remaining,
		ResetAt:    time.Unix(resetUnix, 0),
		LastUpdate: t.now(),
		Known:      true,
	}

	if v := headers.Get(HeaderLimit); v != "" {
		if state.Limit, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderLimit, err)
		}
	}
	if v := headers.Get(HeaderUsed); v != "" {
		if state.Used, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderUsed, err)
		}
	}

	t.mu.Lock()
	t.state = state
	t.mu.Unlock()

	rateLimitRemaining.Set(float64(remaining))

	if state.NeedsWarning() {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Int("limit", state.Limit).
			Time("reset_at", state.ResetAt).
			Msg("GitHub rate limit running low")
	} else {
		t.logger.Debug().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Msg("GitHub rate limit state updated")
	}

	return nil
}

// ShouldAllowRequest returns false while the quota is exhausted and the window
// has not reset yet.
func (t *Tracker) ShouldAllowRequest() bool {
	state := t.State()
	if !state.Exhausted(t.now()) {
		return true
	}

	t.logger.Error().
		Int("remaining", state.Remaining).
		Dur("wait_duration", state.TimeUntilReset()).
		Msg("GitHub rate limit exhausted - blocking request")

	rateLimitBlocksTotal.Inc()
	return false
}
