package llm

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithRetrySucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	result, err := runWithRetry(context.Background(), DefaultRetryPolicy(), func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 1, calls)
}

func TestRunWithRetryRetriesRetryableErrors(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Jitter: 0}

	calls := 0
	result, err := runWithRetry(context.Background(), policy, func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, NewNetworkError(fmt.Errorf("connection reset"))
		}
		return 7, nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 7, result)
	assert.Equal(t, 3, calls)
}

func TestRunWithRetryStopsOnNonRetryableError(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}

	calls := 0
	_, err := runWithRetry(context.Background(), policy, func(ctx context.Context) (int, error) {
		calls++
		return 0, NewValidationError("bad request")
	}, nil)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRunWithRetryGivesUpAfterMaxAttempts(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}

	calls := 0
	_, err := runWithRetry(context.Background(), policy, func(ctx context.Context) (int, error) {
		calls++
		return 0, NewNetworkError(fmt.Errorf("always fails"))
	}, nil)

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRunWithRetryHonorsContextCancellation(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, InitialBackoff: time.Second, MaxBackoff: time.Second}
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := runWithRetry(ctx, policy, func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			cancel()
		}
		return 0, NewNetworkError(fmt.Errorf("transient"))
	}, nil)

	require.Error(t, err)
	assert.Equal(t, 1, calls)

	llmErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CategoryCancelled, llmErr.Category())
	assert.False(t, llmErr.IsRetryable())
}

func TestRunWithRetryHonorsRetryAfterOverride(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, Jitter: 0}

	delay := computeBackoff(policy, 1, NewRateLimitError("openai", 50*time.Millisecond, true))
	assert.GreaterOrEqual(t, delay, 50*time.Millisecond)
}
