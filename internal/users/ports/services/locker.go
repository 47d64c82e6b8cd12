package services

import (
	"context"
	"errors"
)

// ErrLockNotAcquired возвращается, если блокировку не удалось взять до истечения ожидания.
var ErrLockNotAcquired = errors.New("lock not acquired")

// Unlock освобождает ранее взятую блокировку.
type Unlock func(ctx context.Context) error

// Locker сериализует операции над одним ключом.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}
