package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy is a bounded retry with exponential backoff, used for
// transport-level calls (classifier, storage, messaging gateway).
// Exhausting this budget is an infrastructure failure and has nothing
// to do with the proof verification attempt budget.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultPolicy matches the gateway retry behavior: 3 attempts with
// 300ms base delay doubling each time (300ms, 600ms).
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: 300 * time.Millisecond}
}

// Do runs fn until it succeeds, the attempt budget runs out, or the
// context is cancelled. The delay before attempt n+1 is
// BaseDelay * 2^(n-1).
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt < attempts {
			delay := p.BaseDelay * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", attempts, lastErr)
}
