package httputil

import (
	"context"
	"errors"
	"time"
)

// DefaultRetryDelay is the wait before the second attempt of a request.
const DefaultRetryDelay = time.Second

// RetryPolicy says how often a request to the release server is attempted.
// Only transport failures and 5xx responses are attempted again; a missing
// archive (404 on HEAD) or manifest fails on the first try.
type RetryPolicy struct {
	Attempts int           // total attempts, at least 1
	Delay    time.Duration // wait before the second attempt, doubled after each one
}

// DefaultRetryPolicy makes a single attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 1, Delay: DefaultRetryDelay}
}

func (p RetryPolicy) normalize() RetryPolicy {
	p.Attempts = max(p.Attempts, 1)
	if p.Delay <= 0 {
		p.Delay = DefaultRetryDelay
	}
	return p
}

// RetryableError marks a failed request as worth attempting again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry calls fn until it succeeds, fails with an error that isn't a
// [RetryableError], or attempts calls have been made. The wait starts at
// delay and doubles after each attempt. Cancelling ctx while waiting returns
// ctx.Err().
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := 0; i < attempts; i++ {
		lastErr = fn()
		if lastErr == nil || !errors.As(lastErr, new(*RetryableError)) {
			return lastErr
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return lastErr
}

// do runs fn under the policy.
func (p RetryPolicy) do(ctx context.Context, fn func() error) error {
	return Retry(ctx, p.Attempts, p.Delay, fn)
}
