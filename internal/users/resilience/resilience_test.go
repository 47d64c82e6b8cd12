package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomshop/pkg/logger"
)

var errBoom = errors.New("boom")

func testContext() context.Context {
	return logger.NewContext(context.Background(), logger.NewNop())
}

func TestCircuitBreaker(t *testing.T) {
	ctx := testContext()
	clock := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	cb := NewCircuitBreaker("redis", CircuitBreakerConfig{ErrorThreshold: 2, Timeout: time.Second, SuccessThreshold: 2})
	cb.now = func() time.Time { return clock }
	failing := func() error { return errBoom }
	ok := func() error { return nil }

	require.ErrorIs(t, cb.Execute(ctx, failing), errBoom)
	assert.Equal(t, StateClosed, cb.State())
	require.ErrorIs(t, cb.Execute(ctx, failing), errBoom)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(ctx, func() error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	clock = clock.Add(2 * time.Second)
	require.NoError(t, cb.Execute(ctx, ok))
	assert.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, cb.Execute(ctx, ok))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	ctx := testContext()
	clock := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	cb := NewCircuitBreaker("redis", CircuitBreakerConfig{ErrorThreshold: 1, Timeout: time.Second, SuccessThreshold: 1})
	cb.now = func() time.Time { return clock }

	require.Error(t, cb.Execute(ctx, func() error { return errBoom }))
	clock = clock.Add(2 * time.Second)
	require.Error(t, cb.Execute(ctx, func() error { return errBoom }))
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreakerSuccessResetsFailures(t *testing.T) {
	ctx := testContext()
	cb := NewCircuitBreaker("redis", CircuitBreakerConfig{ErrorThreshold: 2, Timeout: time.Second, SuccessThreshold: 1})

	_ = cb.Execute(ctx, func() error { return errBoom })
	_ = cb.Execute(ctx, func() error { return nil })
	_ = cb.Execute(ctx, func() error { return errBoom })
	assert.Equal(t, StateClosed, cb.State())
}

func TestRetry(t *testing.T) {
	ctx := testContext()
	config := RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond, BackoffFactor: 2}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		attempts := 0
		err := NewRetry("amqp", config).Execute(ctx, func() error {
			attempts++
			if attempts < 3 {
				return errBoom
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		attempts := 0
		err := NewRetry("amqp", config).Execute(ctx, func() error {
			attempts++
			return errBoom
		})
		require.ErrorIs(t, err, errBoom)
		assert.Equal(t, 3, attempts)
	})

	t.Run("does not retry canceled operations", func(t *testing.T) {
		attempts := 0
		err := NewRetry("amqp", config).Execute(ctx, func() error {
			attempts++
			return context.Canceled
		})
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, attempts)
	})

	t.Run("stops waiting when context is canceled", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		slow := config
		slow.InitialBackoff = time.Hour
		err := NewRetry("amqp", slow).Execute(canceled, func() error { return errBoom })
		require.ErrorIs(t, err, ErrContextCanceled)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestCall(t *testing.T) {
	ctx := testContext()
	guard := NewGuardWithConfig("redis",
		CircuitBreakerConfig{ErrorThreshold: 1, Timeout: time.Hour, SuccessThreshold: 1},
		RetryConfig{MaxAttempts: 1})

	value, err := Call(ctx, guard, func() (string, error) { return "cached", nil })
	require.NoError(t, err)
	assert.Equal(t, "cached", value)

	value, err = Call(ctx, guard, func() (string, error) { return "partial", errBoom })
	require.ErrorIs(t, err, errBoom)
	assert.Empty(t, value)
	assert.Equal(t, StateOpen, guard.State())

	_, err = Call(ctx, guard, func() (string, error) { return "never", nil })
	require.ErrorIs(t, err, ErrCircuitOpen)
}
