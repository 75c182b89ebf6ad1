package resilience

import (
	"context"
	"errors"
	"time"
)

// RetryConfig controls [Retry]'s backoff schedule.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Default: 3 (matching spec.md §4.4's "up to 3 attempts").
	MaxAttempts int

	// BaseDelay is the delay before the second attempt. Each subsequent
	// attempt doubles the previous delay. Default: 100ms.
	BaseDelay time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 100 * time.Millisecond
	}
	return c
}

// IsTransient, when non-nil, decides whether an error returned by fn is worth
// retrying. A nil IsTransient retries every non-nil error.
type IsTransient func(error) bool

// Retry runs fn up to cfg.MaxAttempts times, doubling the delay between
// attempts starting from cfg.BaseDelay (exponential backoff), matching the
// property-graph adapter's transient-error policy from spec.md §4.4 and §7.
//
// Retry stops early and returns ctx.Err() if ctx is cancelled between
// attempts. It stops early and returns the error unwrapped if isTransient is
// non-nil and returns false for it.
func Retry(ctx context.Context, cfg RetryConfig, isTransient IsTransient, fn func() error) error {
	cfg = cfg.withDefaults()

	var lastErr error
	delay := cfg.BaseDelay
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if isTransient != nil && !isTransient(lastErr) {
			return lastErr
		}
		if attempt == cfg.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return errors.Join(ErrRetriesExhausted, lastErr)
}

// ErrRetriesExhausted wraps the final error returned by [Retry] once
// cfg.MaxAttempts is reached.
var ErrRetriesExhausted = errors.New("resilience: retries exhausted")
