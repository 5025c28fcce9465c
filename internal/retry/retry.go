// Package retry runs an operation repeatedly with exponential backoff until
// it succeeds, fails permanently, or runs out of attempts.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy controls how an operation is retried. Only errors the Transient
// predicate accepts are retried; everything else propagates immediately.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// BaseDelay is the wait after the first failure; it doubles per attempt.
	BaseDelay time.Duration
	// Transient reports whether an error is worth retrying. A nil predicate
	// retries every error.
	Transient func(error) bool
}

// DefaultPolicy matches the cadence used for upload attempts: three tries,
// waiting 1s then 2s between them.
func DefaultPolicy(transient func(error) bool) Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Second, Transient: transient}
}

// Do runs fn under the policy. It returns nil on the first success, the last
// error once attempts are exhausted, a permanent error as soon as it occurs,
// or the context's error if cancelled while waiting.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := p.BaseDelay << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err = fn(ctx); err == nil {
			return nil
		}
		if p.Transient != nil && !p.Transient(err) {
			return err
		}
	}
	return fmt.Errorf("after %d attempts: %w", attempts, err)
}
