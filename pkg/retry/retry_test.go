package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig() *Config {
	return &Config{
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
	}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	result := Do(context.Background(), fastConfig(), func(ctx context.Context) error {
		calls++
		return nil
	})

	if result.Err != nil {
		t.Fatalf("Err = %v, want nil", result.Err)
	}
	if calls != 1 || result.Attempts != 1 {
		t.Errorf("calls = %d, attempts = %d; want 1, 1", calls, result.Attempts)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	result := Do(context.Background(), fastConfig(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if result.Err != nil {
		t.Fatalf("Err = %v, want nil", result.Err)
	}
	if calls != 3 || result.Attempts != 3 {
		t.Errorf("calls = %d, attempts = %d; want 3, 3", calls, result.Attempts)
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	transient := errors.New("still broken")
	calls := 0
	result := Do(context.Background(), fastConfig(), func(ctx context.Context) error {
		calls++
		return transient
	})

	if !errors.Is(result.Err, ErrMaxRetriesExceeded) {
		t.Fatalf("Err = %v, want ErrMaxRetriesExceeded", result.Err)
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4 (initial try plus 3 retries)", calls)
	}
	if !errors.Is(result.LastError, transient) {
		t.Errorf("LastError = %v, want %v", result.LastError, transient)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	fatal := errors.New("bad input")
	calls := 0
	result := Do(context.Background(), fastConfig(), func(ctx context.Context) error {
		calls++
		return Permanent(fatal)
	})

	if !errors.Is(result.Err, fatal) {
		t.Fatalf("Err = %v, want the permanent error", result.Err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	result := Do(ctx, &Config{
		MaxRetries:      10,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     time.Second,
		Multiplier:      2.0,
	}, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})

	if !errors.Is(result.Err, ErrContextCanceled) {
		t.Fatalf("Err = %v, want ErrContextCanceled", result.Err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestPermanentNil(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}

func TestIntervalGrowsAndCaps(t *testing.T) {
	cfg := &Config{
		InitialInterval: time.Second,
		MaxInterval:     4 * time.Second,
		Multiplier:      2.0,
	}

	if got := interval(cfg, 0); got != time.Second {
		t.Errorf("interval(0) = %v, want 1s", got)
	}
	if got := interval(cfg, 1); got != 2*time.Second {
		t.Errorf("interval(1) = %v, want 2s", got)
	}
	if got := interval(cfg, 5); got != 4*time.Second {
		t.Errorf("interval(5) = %v, want the 4s cap", got)
	}
}

func TestIntervalJitterStaysBounded(t *testing.T) {
	cfg := &Config{
		InitialInterval: time.Second,
		MaxInterval:     time.Minute,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}

	for i := 0; i < 100; i++ {
		got := interval(cfg, 0)
		if got < 900*time.Millisecond || got > 1100*time.Millisecond {
			t.Fatalf("jittered interval %v outside [0.9s, 1.1s]", got)
		}
	}
}
