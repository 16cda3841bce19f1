package ratelimit

import (
	"testing"
	"time"
)

func TestState_Exhausted(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{
			name:     "unknown state",
			state:    State{},
			expected: false,
		},
		{
			name:     "quota left",
			state:    State{Known: true, Remaining: 5, ResetAt: now.Add(time.Hour)},
			expected: false,
		},
		{
			name:     "exhausted before reset",
			state:    State{Known: true, Remaining: 0, ResetAt: now.Add(time.Minute)},
			expected: true,
		},
		{
			name:     "exhausted but window reset",
			state:    State{Known: true, Remaining: 0, ResetAt: now.Add(-time.Second)},
			expected: false,
		},
		{
			name:     "exhausted at reset instant",
			state:    State{Known: true, Remaining: 0, ResetAt: now},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.Exhausted(now); got != tt.expected {
				t.Errorf("Exhausted() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_NeedsWarning(t *testing.T) {
	tests := []struct {
		name      string
		known     bool
		remaining int
		expected  bool
	}{
		{"unknown", false, 0, false},
		{"plenty left", true, 59, false},
		{"at threshold", true, ThresholdWarning, false},
		{"below threshold", true, ThresholdWarning - 1, true},
		{"exhausted", true, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := State{Known: tt.known, Remaining: tt.remaining}
			if got := state.NeedsWarning(); got != tt.expected {
				t.Errorf("NeedsWarning() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_TimeUntilReset(t *testing.T) {
	future := State{ResetAt: time.Now().Add(30 * time.Second)}
	if d := future.TimeUntilReset(); d <= 25*time.Second || d > 30*time.Second {
		t.Errorf("TimeUntilReset() = %v, want ~30s", d)
	}

	past := State{ResetAt: time.Now().Add(-time.Minute)}
	if d := past.TimeUntilReset(); d != 0 {
		t.Errorf("TimeUntilReset() = %v, want 0", d)
	}
}
