// Package locker реализует services.Locker на Redis и в памяти процесса.
package locker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ecomshop/internal/users/ports/services"
	"ecomshop/pkg/logger"
)

// Константы для логирования.
const (
	LogLockAcquired    = "lock acquired"
	LogLockReleased    = "lock released"
	ErrorFailedToLock  = "failed to acquire lock"
	ErrorFailedRelease = "failed to release lock"
)

const keyPrefix = "lock:"

// releaseScript удаляет ключ, только если он все еще принадлежит владельцу токена.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// Options задает параметры ожидания блокировки.
type Options struct {
	// TTL - время жизни ключа блокировки на случай падения владельца.
	TTL time.Duration
	// WaitTimeout - сколько ждать освобождения занятой блокировки.
	WaitTimeout time.Duration
	// RetryBackoff - пауза между попытками захвата.
	RetryBackoff time.Duration
}

// RedisLocker - распределенная блокировка на SET NX PX.
type RedisLocker struct {
	client redis.Cmdable
	opts   Options
}

// NewRedisLocker создает блокировку поверх client.
func NewRedisLocker(client redis.Cmdable, opts Options) *RedisLocker {
	return &RedisLocker{client: client, opts: opts}
}

var _ services.Locker = (*RedisLocker)(nil)

// Lock захватывает блокировку key, ожидая не дольше WaitTimeout.
func (l *RedisLocker) Lock(ctx context.Context, key string) (services.Unlock, error) {
	log := logger.Log(ctx).With(zap.String("lock", key))
	redisKey := keyPrefix + key
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.opts.WaitTimeout)
	defer cancel()

	for {
		acquired, err := l.client.SetNX(waitCtx, redisKey, token, l.opts.TTL).Result()
		if err != nil && waitCtx.Err() == nil {
			log.Error(ctx, ErrorFailedToLock, zap.Error(err))
			return nil, fmt.Errorf("%s: %w", ErrorFailedToLock, err)
		}
		if acquired {
			log.Debug(ctx, LogLockAcquired)
			return l.unlockFunc(redisKey, token), nil
		}

		select {
		case <-waitCtx.Done():
			return nil, waitError(ctx)
		case <-time.After(l.opts.RetryBackoff):
		}
	}
}

func (l *RedisLocker) unlockFunc(redisKey, token string) services.Unlock {
	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
			logger.Log(ctx).Warn(ctx, ErrorFailedRelease, zap.String("lock", redisKey), zap.Error(err))
			return fmt.Errorf("%s: %w", ErrorFailedRelease, err)
		}
		logger.Log(ctx).Debug(ctx, LogLockReleased, zap.String("lock", redisKey))
		return nil
	}
}

// waitError отличает отмену вызывающего от истечения WaitTimeout.
func waitError(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Join(services.ErrLockNotAcquired, err)
	}
	return services.ErrLockNotAcquired
}
