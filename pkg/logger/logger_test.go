package logger_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ecomshop/pkg/logger"
)

func TestFromContext(t *testing.T) {
	t.Run("returns the stored logger", func(t *testing.T) {
		log, err := logger.NewLogger(logger.Development, "debug")
		require.NoError(t, err)

		ctx := logger.NewContext(context.Background(), log)

		got, err := logger.FromContext(ctx)
		require.NoError(t, err)
		assert.Same(t, log, got)
	})

	t.Run("survives derived contexts", func(t *testing.T) {
		log, err := logger.NewLogger(logger.Development, "debug")
		require.NoError(t, err)

		type keyType struct{}
		ctx := context.WithValue(logger.NewContext(context.Background(), log), keyType{}, "value")

		got, err := logger.FromContext(ctx)
		require.NoError(t, err)
		assert.Same(t, log, got)
	})

	t.Run("missing logger", func(t *testing.T) {
		got, err := logger.FromContext(context.Background())
		require.Error(t, err)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, logger.ErrLoggerNotFound)
	})
}

func TestLog(t *testing.T) {
	t.Cleanup(func() { logger.SetGlobalLogger(nil) })

	t.Run("prefers context logger", func(t *testing.T) {
		ctxLog, err := logger.NewLogger(logger.Development, "debug")
		require.NoError(t, err)
		global, err := logger.NewLogger(logger.Production, "info")
		require.NoError(t, err)
		logger.SetGlobalLogger(global)

		ctx := logger.NewContext(context.Background(), ctxLog)
		assert.Same(t, ctxLog, logger.Log(ctx))
	})

	t.Run("falls back to global logger", func(t *testing.T) {
		global, err := logger.NewLogger(logger.Production, "info")
		require.NoError(t, err)
		logger.SetGlobalLogger(global)

		assert.Same(t, global, logger.Log(context.Background()))
	})

	t.Run("falls back to built-in logger", func(t *testing.T) {
		logger.SetGlobalLogger(nil)

		log := logger.Log(context.Background())
		require.NotNil(t, log)
		assert.NotPanics(t, func() { log.Warn(context.Background(), "fallback message") })
	})
}

func TestInitGlobalLoggerWithLevel(t *testing.T) {
	logger.SetGlobalLogger(nil)
	t.Cleanup(func() { logger.SetGlobalLogger(nil) })

	require.NoError(t, logger.InitGlobalLoggerWithLevel(logger.Production, "warn"))
	first := logger.Log(context.Background())

	require.NoError(t, logger.InitGlobalLogger(logger.Development))
	assert.Same(t, first, logger.Log(context.Background()), "second init must keep the existing global logger")
}

func TestNewLogger(t *testing.T) {
	levels := []string{"debug", "info", "warn", "warning", "error", "invalid", ""}

	for _, env := range []logger.Environment{logger.Development, logger.Production} {
		for _, level := range levels {
			t.Run(string(env)+"/"+level, func(t *testing.T) {
				log, err := logger.NewLogger(env, level)
				require.NoError(t, err)
				require.NotNil(t, log)
			})
		}
	}
}

func TestParseEnvironment(t *testing.T) {
	assert.Equal(t, logger.Production, logger.ParseEnvironment("production"))
	assert.Equal(t, logger.Production, logger.ParseEnvironment(" PRODUCTION "))
	assert.Equal(t, logger.Development, logger.ParseEnvironment("development"))
	assert.Equal(t, logger.Development, logger.ParseEnvironment("staging"))
}

func TestLoggerMethods(t *testing.T) {
	log, err := logger.NewLogger(logger.Development, "debug")
	require.NoError(t, err)

	t.Run("With returns a new instance", func(t *testing.T) {
		child := log.With(zap.String("key", "value"), zap.Int("count", 1))
		assert.NotSame(t, log, child)
	})

	t.Run("log with and without request id", func(t *testing.T) {
		plain := context.Background()
		withID := logger.NewRequestIDContext(plain, "req-123")

		assert.NotPanics(t, func() {
			for _, ctx := range []context.Context{plain, withID} {
				log.Debug(ctx, "debug message")
				log.Info(ctx, "info message", zap.String("custom", "value"))
				log.Warn(ctx, "warn message")
				log.Error(ctx, "error message")
			}
		})
	})

	t.Run("WithRequestID", func(t *testing.T) {
		ctx := logger.NewRequestIDContext(context.Background(), "req-456")
		assert.NotSame(t, log, log.WithRequestID(ctx))
		assert.Same(t, log, log.WithRequestID(context.Background()))
	})

	t.Run("nop logger", func(t *testing.T) {
		assert.NotPanics(t, func() { logger.NewNop().Info(context.Background(), "dropped") })
	})
}

func TestRequestID(t *testing.T) {
	t.Run("generated ids are unique uuids", func(t *testing.T) {
		first := logger.GenerateRequestID()
		second := logger.GenerateRequestID()

		assert.NotEqual(t, first, second)
		parsed, err := uuid.Parse(first)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(4), parsed.Version())
	})

	t.Run("explicit id is stored", func(t *testing.T) {
		ctx := logger.NewRequestIDContext(context.Background(), "abc")

		id, ok := logger.GetRequestID(ctx)
		assert.True(t, ok)
		assert.Equal(t, "abc", id)
	})

	t.Run("empty id is generated", func(t *testing.T) {
		ctx := logger.NewRequestIDContext(context.Background(), "")

		id, ok := logger.GetRequestID(ctx)
		assert.True(t, ok)
		assert.NotEmpty(t, id)
	})

	t.Run("absent id", func(t *testing.T) {
		_, ok := logger.GetRequestID(context.Background())
		assert.False(t, ok)
	})
}

func TestNormalizeRequestID(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		keepsRaw bool
	}{
		{name: "plain id", raw: "req-123", keepsRaw: true},
		{name: "max length", raw: strings.Repeat("a", logger.MaxRequestIDLength), keepsRaw: true},
		{name: "empty", raw: ""},
		{name: "blank", raw: "   "},
		{name: "too long", raw: strings.Repeat("a", logger.MaxRequestIDLength+1)},
		{name: "control characters", raw: "req\n-forged"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := logger.NormalizeRequestID(tc.raw)
			if tc.keepsRaw {
				assert.Equal(t, tc.raw, got)
				return
			}
			_, err := uuid.Parse(got)
			assert.NoError(t, err)
		})
	}
}
