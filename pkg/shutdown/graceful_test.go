package shutdown_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomshop/pkg/logger"
	"ecomshop/pkg/shutdown"
)

func testContext() context.Context {
	return logger.NewContext(context.Background(), logger.NewNop())
}

func TestRun(t *testing.T) {
	t.Run("runs every hook", func(t *testing.T) {
		var calls atomic.Int32
		hook := shutdown.Hook{Name: "count", Fn: func(context.Context) error {
			calls.Add(1)
			return nil
		}}

		err := shutdown.Run(testContext(), time.Second, hook, hook, hook)
		require.NoError(t, err)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("collects hook errors", func(t *testing.T) {
		boom := errors.New("boom")

		err := shutdown.Run(testContext(), time.Second,
			shutdown.Hook{Name: "ok", Fn: func(context.Context) error { return nil }},
			shutdown.Hook{Name: "broken", Fn: func(context.Context) error { return boom }},
		)
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "broken")
	})

	t.Run("stops waiting after timeout", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)

		err := shutdown.Run(testContext(), 20*time.Millisecond, shutdown.Hook{Name: "slow", Fn: func(context.Context) error {
			<-release
			return nil
		}})
		require.ErrorIs(t, err, shutdown.ErrTimeout)
	})
}

func TestWaitReturnsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext())

	var called atomic.Bool
	done := make(chan error, 1)
	go func() {
		done <- shutdown.Wait(ctx, time.Second, shutdown.Hook{Name: "flag", Fn: func(hookCtx context.Context) error {
			called.Store(true)
			return hookCtx.Err()
		}})
	}()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
		assert.True(t, called.Load())
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after context cancellation")
	}
}
