package llm

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy governs how a fallible operation is retried.
type RetryPolicy struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	Jitter            float64 // in [0,1]
	BackoffMultiplier float64
	RetryOn           map[Category]bool
}

// DefaultRetryPolicy returns a conservative default: three attempts,
// one-second initial backoff doubling up to thirty seconds, with jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		Jitter:            0.2,
		BackoffMultiplier: 2.0,
		RetryOn: map[Category]bool{
			CategoryNetwork:   true,
			CategoryRateLimit: true,
			CategoryProvider:  true,
		},
	}
}

// retryableFunc is any fallible async operation the retry wrapper can wrap.
type retryableFunc[T any] func(ctx context.Context) (T, error)

// onRetryFunc is invoked before each retry sleep.
type onRetryFunc func(attempt int, delay time.Duration, err error)

// runWithRetry executes fn under policy, retrying classified-retryable
// errors with exponential backoff and jitter, honoring retry_after hints and
// context cancellation between attempts.
func runWithRetry[T any](ctx context.Context, policy RetryPolicy, fn retryableFunc[T], onRetry onRetryFunc) (T, error) {
	var zero T
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		llmErr, _ := AsError(err)
		retryable := llmErr != nil && llmErr.IsRetryable()
		if !retryable || attempt == policy.MaxAttempts {
			return zero, err
		}

		delay := computeBackoff(policy, attempt, llmErr)

		if onRetry != nil {
			onRetry(attempt, delay, err)
		}

		select {
		case <-ctx.Done():
			return zero, NewCancelledError(ctx.Err())
		case <-time.After(delay):
		}
	}

	return zero, nil // unreachable: loop always returns
}

// computeBackoff applies exponential backoff capped at MaxBackoff, jittered,
// then raises the delay to retry_after if the error carries one and it
// exceeds the computed delay.
func computeBackoff(policy RetryPolicy, attempt int, err *Error) time.Duration {
	base := float64(policy.InitialBackoff) * math.Pow(policy.BackoffMultiplier, float64(attempt-1))
	if base > float64(policy.MaxBackoff) {
		base = float64(policy.MaxBackoff)
	}

	if policy.Jitter > 0 {
		lo := 1 - policy.Jitter
		hi := 1 + policy.Jitter
		factor := lo + rand.Float64()*(hi-lo)
		base *= factor
		if base < 0 {
			base = 0
		}
	}

	delay := time.Duration(base)

	if err != nil {
		if retryAfter, ok := err.RetryAfter(); ok && retryAfter > delay {
			delay = retryAfter
		}
	}

	return delay
}
