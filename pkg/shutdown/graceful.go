// Package shutdown предоставляет функциональность для корректного завершения приложения
// путем ожидания сигналов SIGINT и SIGTERM.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ecomshop/pkg/logger"
)

// Константы для сообщений logger.
const (
	LogShutdownStarted  = "shutdown started"
	LogShutdownFinished = "shutdown finished"
	LogHookFailed       = "shutdown hook failed"
	LogHookTimedOut     = "shutdown timed out before all hooks finished"
)

// ErrTimeout возвращается, если хуки не завершились за отведенное время.
var ErrTimeout = errors.New("shutdown timeout exceeded")

// Hook - именованное действие при остановке.
type Hook struct {
	Name string
	Fn   func(context.Context) error
}

// Wait блокирует выполнение до получения SIGINT или SIGTERM либо до отмены ctx,
// затем параллельно выполняет хуки в рамках timeout.
func Wait(ctx context.Context, timeout time.Duration, hooks ...Hook) error {
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	return Run(context.WithoutCancel(ctx), timeout, hooks...)
}

// Run параллельно выполняет хуки и возвращает объединенные ошибки.
func Run(ctx context.Context, timeout time.Duration, hooks ...Hook) error {
	log := logger.Log(ctx)
	log.Info(ctx, LogShutdownStarted, zap.Int("hooks", len(hooks)), zap.Duration("timeout", timeout))

	hookCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, hook := range hooks {
		wg.Add(1)
		go func(h Hook) {
			defer wg.Done()
			if err := h.Fn(hookCtx); err != nil {
				log.Error(ctx, LogHookFailed, zap.String("hook", h.Name), zap.Error(err))
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", h.Name, err))
				mu.Unlock()
			}
		}(hook)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-hookCtx.Done():
		log.Warn(ctx, LogHookTimedOut)
		mu.Lock()
		defer mu.Unlock()
		return errors.Join(append(errs, ErrTimeout)...)
	}

	log.Info(ctx, LogShutdownFinished)
	return errors.Join(errs...)
}
