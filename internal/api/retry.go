package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy describes how retryable failures are retried.
//
// The delay before retry k (k >= 1) is min(MinBackoff*Multiplier^(k-1), MaxBackoff).
// MaxAttempts counts every attempt including the first, so a policy with
// MaxAttempts=10 sleeps at most 9 times.
type RetryPolicy struct {
	MinBackoff  time.Duration
	MaxBackoff  time.Duration
	Multiplier  float64
	MaxAttempts int
}

// DefaultRetryPolicy returns the policy used against the public API:
// 5s doubling up to 120s, 10 attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MinBackoff:  5 * time.Second,
		MaxBackoff:  120 * time.Second,
		Multiplier:  2,
		MaxAttempts: 10,
	}
}

// RetryEvent describes one scheduled retry.
type RetryEvent struct {
	// Attempt is the retry number, starting at 1 for the first retry.
	Attempt int

	// Delay is how long the client waits before the retry.
	Delay time.Duration

	// Err is the failure that triggered the retry.
	Err error
}

// Delay returns the wait before retry k. k < 1 is treated as 1.
func (p RetryPolicy) Delay(k int) time.Duration {
	if k < 1 {
		k = 1
	}
	d := float64(p.MinBackoff) * math.Pow(p.Multiplier, float64(k-1))
	if math.IsInf(d, 0) || math.IsNaN(d) || d >= float64(p.MaxBackoff) {
		return p.MaxBackoff
	}
	return time.Duration(d)
}

// Backoff returns a fresh go-retry backoff following the policy.
// notify, when non-nil, is called for every retry the backoff schedules.
// A Backoff carries state; build one per call.
func (p RetryPolicy) Backoff(notify func(RetryEvent)) retry.Backoff {
	attempt := 0
	base := retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		return p.Delay(attempt), false
	})

	maxRetries := uint64(0)
	if p.MaxAttempts > 1 {
		maxRetries = uint64(p.MaxAttempts - 1)
	}
	b := retry.WithMaxRetries(maxRetries, retry.WithCappedDuration(p.MaxBackoff, base))

	if notify == nil {
		return b
	}

	return retry.BackoffFunc(func() (time.Duration, bool) {
		d, stop := b.Next()
		if !stop {
			notify(RetryEvent{Attempt: attempt, Delay: d})
		}
		return d, stop
	})
}

// Do runs op until it succeeds, fails permanently, or the policy runs out.
//
// Only errors wrapped with Transient are retried. When every attempt failed
// transiently, the last failure is returned wrapped in ErrRetriesExhausted.
// Context cancellation during a wait returns ctx.Err().
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error, notify func(RetryEvent)) error {
	var lastErr error
	stopped := false

	inner := p.Backoff(func(ev RetryEvent) {
		ev.Err = lastErr
		if notify != nil {
			notify(ev)
		}
	})
	b := retry.BackoffFunc(func() (time.Duration, bool) {
		d, stop := inner.Next()
		if stop {
			stopped = true
		}
		return d, stop
	})

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		err := op(ctx)
		var te *transientError
		if errors.As(err, &te) {
			lastErr = te.err
			return retry.RetryableError(te.err)
		}
		return err
	})

	if err != nil && stopped {
		return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, p.MaxAttempts, err)
	}
	return err
}

// Transient marks err as retryable for RetryPolicy.Do.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// transientError wraps a failure worth retrying.
type transientError struct {
	err error
}

func (e *transientError) Error() string {
	return e.err.Error()
}

func (e *transientError) Unwrap() error {
	return e.err
}
