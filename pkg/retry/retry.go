package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

var (
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	ErrContextCanceled    = errors.New("context canceled during retry")
)

// Config contains retry configuration
type Config struct {
	// MaxRetries is the number of retry attempts after the initial one
	MaxRetries int
	// InitialInterval is the first backoff interval
	InitialInterval time.Duration
	// MaxInterval caps the backoff
	MaxInterval time.Duration
	// Multiplier grows the interval after each attempt
	Multiplier float64
	// JitterFactor randomizes the interval by up to this fraction
	JitterFactor float64
}

// DefaultConfig returns exponential backoff: 1s, 2s, 4s, 8s, 16s, capped at 30s
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:      5,
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

// Operation is the function to be retried
type Operation func(ctx context.Context) error

// PermanentError marks an error that must not be retried
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps an error so the retrier gives up immediately
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Result describes how a retried operation ended
type Result struct {
	// Err is nil on success, ErrMaxRetriesExceeded or ErrContextCanceled
	// otherwise (or the permanent error itself)
	Err error
	// Attempts counts every try, the initial one included
	Attempts int
	// LastError is the error from the final attempt
	LastError error
}

// Do executes the operation with exponential backoff
func Do(ctx context.Context, cfg *Config, op Operation) *Result {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	result := &Result{}
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result.Attempts = attempt + 1

		if ctx.Err() != nil {
			result.Err = ErrContextCanceled
			result.LastError = lastErr
			return result
		}

		err := op(ctx)
		if err == nil {
			return result
		}
		lastErr = err

		var permErr *PermanentError
		if errors.As(err, &permErr) {
			result.Err = permErr.Err
			result.LastError = permErr.Err
			return result
		}

		if attempt == cfg.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			result.Err = ErrContextCanceled
			result.LastError = lastErr
			return result
		case <-time.After(interval(cfg, attempt)):
		}
	}

	result.Err = ErrMaxRetriesExceeded
	result.LastError = lastErr
	return result
}

func interval(cfg *Config, attempt int) time.Duration {
	iv := float64(cfg.InitialInterval) * math.Pow(cfg.Multiplier, float64(attempt))

	if cfg.JitterFactor > 0 {
		jitter := iv * cfg.JitterFactor
		iv += (rand.Float64()*2 - 1) * jitter
	}

	if max := float64(cfg.MaxInterval); iv > max {
		iv = max
	}
	if iv < 0 {
		iv = float64(cfg.InitialInterval)
	}
	return time.Duration(iv)
}
