// Package ratelimit tracks the GitHub REST API rate limit.
// It reads the X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Used and
// X-RateLimit-Reset response headers so callers can avoid requests that GitHub
// would reject anyway.
package ratelimit

import (
	"errors"
	"time"
)

// ErrRateLimited is wrapped by requests refused locally because the quota is exhausted.
var ErrRateLimited = errors.New("rate limit exhausted")

// Response headers carrying rate limit state.
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderUsed      = "X-RateLimit-Used"
	HeaderReset     = "X-RateLimit-Reset"
)

// ThresholdWarning logs a warning when fewer requests than this remain.
// Unauthenticated clients only get 60 requests per hour.
const ThresholdWarning = 10

// State represents the last observed rate limit window.
type State struct {
	// Limit is the maximum number of requests in the window.
	Limit int `json:"limit"`

	// Remaining is the number of requests left in the window.
	Remaining int `json:"remaining"`

	// Used is the number of requests made in the window.
	Used int `json:"used"`

	// ResetAt is when the window resets.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when the headers were last observed.
	LastUpdate time.Time `json:"last_update"`

	// Known is false until the first response with rate limit headers.
	Known bool `json:"known"`
}

// Exhausted returns true if no request may be made before the window resets.
func (s State) Exhausted(now time.Time) bool {
	return s.Known && s.Remaining <= 0 && now.Before(s.ResetAt)
}

// NeedsWarning returns true if the remaining quota is running low.
func (s State) NeedsWarning() bool {
	return s.Known && s.Remaining < ThresholdWarning
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s State) TimeUntilReset() time.Duration {
	d := time.Until(s.ResetAt)
	if d < 0 {
		return 0
	}
	return d
}
