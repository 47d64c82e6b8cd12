// Package events публикует события пользователей в RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"ecomshop/internal/users/ports/services"
	"ecomshop/internal/users/resilience"
	"ecomshop/pkg/logger"
)

// Константы для логирования.
const (
	LogEventPublished      = "user event published"
	ErrorFailedToDial      = "failed to connect to rabbitmq"
	ErrorFailedToOpen      = "failed to open rabbitmq channel"
	ErrorFailedToDeclare   = "failed to declare exchange"
	ErrorFailedToPublish   = "failed to publish user event"
	ErrorFailedToMarshal   = "failed to marshal user event"
	ErrorFailedToCloseConn = "failed to close rabbitmq connection"
)

// ErrPublisherClosed возвращается при публикации после Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// Channel - часть *amqp.Channel, которая нужна издателю.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher публикует services.UserEvent в topic-обменник.
// Ключ маршрутизации совпадает с типом события.
type AMQPPublisher struct {
	exchange string
	guard    *resilience.Guard
	now      func() time.Time

	mu     sync.Mutex
	ch     Channel
	conn   *amqp.Connection
	closed bool
}

// NewPublisher создает издателя поверх открытого канала.
func NewPublisher(ch Channel, exchange string) *AMQPPublisher {
	retry := resilience.DefaultRetryConfig()
	retry.ShouldRetry = func(err error) bool {
		return !errors.Is(err, ErrPublisherClosed) &&
			!errors.Is(err, context.Canceled) &&
			!errors.Is(err, context.DeadlineExceeded)
	}
	return &AMQPPublisher{
		exchange: exchange,
		guard:    resilience.NewGuardWithConfig("rabbitmq", resilience.DefaultCircuitBreakerConfig(), retry),
		now:      time.Now,
		ch:       ch,
	}
}

// Dial подключается к брокеру, объявляет durable topic-обменник и
// возвращает издателя, владеющего соединением.
func Dial(ctx context.Context, url, exchange string) (*AMQPPublisher, error) {
	log := logger.Log(ctx).With(zap.String("exchange", exchange))

	conn, err := amqp.Dial(url)
	if err != nil {
		log.Error(ctx, ErrorFailedToDial, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrorFailedToDial, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		log.Error(ctx, ErrorFailedToOpen, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrorFailedToOpen, err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		log.Error(ctx, ErrorFailedToDeclare, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrorFailedToDeclare, err)
	}

	p := NewPublisher(ch, exchange)
	p.conn = conn
	log.Info(ctx, "rabbitmq publisher ready")
	return p, nil
}

var _ services.EventPublisher = (*AMQPPublisher)(nil)

// Publish отправляет событие как persistent JSON-сообщение.
func (p *AMQPPublisher) Publish(ctx context.Context, event services.UserEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrorFailedToMarshal, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now().UTC(),
		Type:         string(event.Type),
		Body:         body,
	}
	if requestID, ok := logger.GetRequestID(ctx); ok {
		msg.CorrelationId = requestID
	}

	err = p.guard.Execute(ctx, func() error {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.closed {
			return ErrPublisherClosed
		}
		return p.ch.PublishWithContext(ctx, p.exchange, string(event.Type), false, false, msg)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", ErrorFailedToPublish, err)
	}

	logger.Log(ctx).Debug(ctx, LogEventPublished,
		zap.String("routing_key", string(event.Type)),
		zap.String("public_id", event.PublicID))
	return nil
}

// Close закрывает канал и соединение. Повторный вызов ничего не делает.
func (p *AMQPPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	if err := p.ch.Close(); err != nil {
		errs = append(errs, err)
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		logger.Log(ctx).Warn(ctx, ErrorFailedToCloseConn, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToCloseConn, err)
	}
	return nil
}
