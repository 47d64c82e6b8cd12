package resilience

import (
	"context"
)

// Guard объединяет выключатель и повторные попытки для одной зависимости.
type Guard struct {
	breaker *CircuitBreaker
	retry   *Retry
}

// NewGuard создает Guard с настройками по умолчанию.
func NewGuard(name string) *Guard {
	return NewGuardWithConfig(name, DefaultCircuitBreakerConfig(), DefaultRetryConfig())
}

// NewGuardWithConfig создает Guard с явными настройками.
func NewGuardWithConfig(name string, cb CircuitBreakerConfig, retry RetryConfig) *Guard {
	return &Guard{
		breaker: NewCircuitBreaker(name, cb),
		retry:   NewRetry(name, retry),
	}
}

// Execute выполняет operation под защитой выключателя, повторяя неудачные попытки.
func (g *Guard) Execute(ctx context.Context, operation func() error) error {
	return g.breaker.Execute(ctx, func() error {
		return g.retry.Execute(ctx, operation)
	})
}

// State возвращает состояние выключателя.
func (g *Guard) State() CircuitState {
	return g.breaker.State()
}

// Call выполняет operation через g и возвращает ее результат.
func Call[T any](ctx context.Context, g *Guard, operation func() (T, error)) (T, error) {
	var result T
	err := g.Execute(ctx, func() error {
		var err error
		result, err = operation()
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
