// Package retry provides a bounded attempt policy for calls to non-deterministic services.
package retry

import (
	"context"
	"time"

	sretry "github.com/sethvargo/go-retry"
)

// DefaultAttempts is the number of attempts used when a Policy leaves it unset.
const DefaultAttempts = 3

// Policy bounds how many times an operation is attempted.
type Policy struct {
	// Attempts is the total number of attempts, including the first.
	Attempts int
	// Delay is the pause between attempts. Zero retries immediately.
	Delay time.Duration
}

// Default returns the fixed three-attempt policy with no delay.
func Default() Policy {
	return Policy{Attempts: DefaultAttempts}
}

// AttemptFunc performs one attempt. attempt starts at 1.
// Returning an error wrapped with Retryable requests another attempt.
type AttemptFunc func(ctx context.Context, attempt int) error

// Retryable marks err as a failed attempt that may be retried.
func Retryable(err error) error {
	return sretry.RetryableError(err)
}

// Do runs fn until it succeeds, returns an error not marked Retryable, or the
// attempts are used up. It returns the number of attempts made and, on
// failure, the last attempt's error with the Retryable marker removed.
func (p Policy) Do(ctx context.Context, fn AttemptFunc) (int, error) {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	var backoff sretry.Backoff
	if p.Delay > 0 {
		backoff = sretry.NewConstant(p.Delay)
	} else {
		backoff = sretry.BackoffFunc(func() (time.Duration, bool) {
			return 0, false
		})
	}
	backoff = sretry.WithMaxRetries(uint64(attempts-1), backoff)

	n := 0
	err := sretry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		n++
		return fn(ctx, n)
	})
	return n, err
}
