// Package retry runs one resolve+fetch sequence under a bounded attempt budget.
package retry

import (
	"context"
	"time"

	"domainlens/internal/registry/providers"
)

const (
	DefaultAttempts       = 3
	DefaultDelay          = time.Second
	DefaultAttemptTimeout = 8 * time.Second
)

// Policy bounds one call site. Attempt counters live inside Do, so two
// callers sharing a Policy never share a budget.
type Policy struct {
	Attempts       int
	Delay          time.Duration
	AttemptTimeout time.Duration

	// OnAttempt, when set, observes every finished attempt (1-based).
	OnAttempt func(attempt int, err error)
}

// DefaultPolicy returns three attempts one second apart with an 8s attempt timeout.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:       DefaultAttempts,
		Delay:          DefaultDelay,
		AttemptTimeout: DefaultAttemptTimeout,
	}
}

func (p Policy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

// Do calls fn until it succeeds, returns a non-retryable error, the budget
// runs out or ctx ends. The last error is returned. Each call gets its own
// deadline derived from ctx.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= p.attempts(); attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return zero, lastErr
			}
			return zero, err
		}

		result, err := call(ctx, p.AttemptTimeout, fn)
		if p.OnAttempt != nil {
			p.OnAttempt(attempt, err)
		}
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !providers.IsRetryable(err) || attempt == p.attempts() {
			break
		}
		if !sleep(ctx, p.Delay) {
			break
		}
	}
	return zero, lastErr
}

func call[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx)
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
