package locker

import (
	"context"
	"sync"
	"time"

	"ecomshop/internal/users/ports/services"
)

// MemoryLocker - блокировка по ключу в пределах одного процесса.
type MemoryLocker struct {
	waitTimeout time.Duration

	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	slot chan struct{}
	refs int
}

// NewMemoryLocker создает блокировку в памяти.
func NewMemoryLocker(waitTimeout time.Duration) *MemoryLocker {
	return &MemoryLocker{waitTimeout: waitTimeout, locks: make(map[string]*entry)}
}

var _ services.Locker = (*MemoryLocker)(nil)

// Lock захватывает блокировку key, ожидая не дольше waitTimeout.
func (l *MemoryLocker) Lock(ctx context.Context, key string) (services.Unlock, error) {
	e := l.acquire(key)

	waitCtx, cancel := context.WithTimeout(ctx, l.waitTimeout)
	defer cancel()

	select {
	case e.slot <- struct{}{}:
	case <-waitCtx.Done():
		l.release(key, e)
		return nil, waitError(ctx)
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-e.slot
			l.release(key, e)
		})
		return nil
	}, nil
}

func (l *MemoryLocker) acquire(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.locks[key]
	if !ok {
		e = &entry{slot: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	return e
}

func (l *MemoryLocker) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// Size возвращает число ключей, по которым есть владелец или ожидающие.
func (l *MemoryLocker) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
