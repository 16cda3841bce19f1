package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", config.MaxAttempts)
	}
	if config.InitialBackoff != 1*time.Second {
		t.Errorf("InitialBackoff = %v, want 1s", config.InitialBackoff)
	}
	if config.MaxBackoff != 30*time.Second {
		t.Errorf("MaxBackoff = %v, want 30s", config.MaxBackoff)
	}
	if config.Multiplier != 2.0 {
		t.Errorf("Multiplier = %v, want 2.0", config.Multiplier)
	}
}

func TestDo(t *testing.T) {
	tests := []struct {
		name        string
		attempts    int
		failures    int
		retryable   func(error) bool
		wantCalls   int
		wantErr     bool
		wantExhaust bool
	}{
		{"success first try", 3, 0, nil, 1, false, false},
		{"success after retries", 3, 2, nil, 3, false, false},
		{"exhausted", 3, 5, nil, 3, true, true},
		{"not retryable", 3, 5, func(error) bool { return false }, 1, true, false},
		{"single attempt", 1, 5, nil, 1, true, true},
		{"zero attempts means one", 0, 5, nil, 1, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Do(context.Background(), fastConfig(tt.attempts), func(context.Context) error {
				calls++
				if calls <= tt.failures {
					return errBoom
				}
				return nil
			}, tt.retryable)

			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("Do() error = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, ErrRetryExhausted) != tt.wantExhaust {
				t.Errorf("errors.Is(err, ErrRetryExhausted) = %v, want %v", !tt.wantExhaust, tt.wantExhaust)
			}
			if tt.wantErr && !errors.Is(err, errBoom) {
				t.Errorf("error %v should wrap the last error", err)
			}
		})
	}
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxAttempts: 5, InitialBackoff: time.Hour, MaxBackoff: time.Hour, Multiplier: 1}

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, cfg, func(context.Context) error {
			calls++
			return errBoom
		}, nil)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, ErrContextCancelled) {
			t.Errorf("error = %v, want ErrContextCancelled", err)
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v should wrap context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestConfig_Normalized(t *testing.T) {
	cfg := Config{MaxAttempts: -1, InitialBackoff: 2 * time.Second, MaxBackoff: time.Second, Multiplier: 0}.normalized()

	if cfg.MaxAttempts != 1 {
		t.Errorf("MaxAttempts = %d, want 1", cfg.MaxAttempts)
	}
	if cfg.MaxBackoff != 2*time.Second {
		t.Errorf("MaxBackoff = %v, want 2s", cfg.MaxBackoff)
	}
	if cfg.Multiplier != 1 {
		t.Errorf("Multiplier = %v, want 1", cfg.Multiplier)
	}
}
