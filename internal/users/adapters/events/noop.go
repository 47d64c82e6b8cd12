package events

import (
	"context"

	"go.uber.org/zap"

	"ecomshop/internal/users/ports/services"
	"ecomshop/pkg/logger"
)

// NoopPublisher только пишет событие в лог. Используется, когда брокер выключен.
type NoopPublisher struct{}

var _ services.EventPublisher = NoopPublisher{}

// Publish логирует событие.
func (NoopPublisher) Publish(ctx context.Context, event services.UserEvent) error {
	logger.Log(ctx).Debug(ctx, "user event dropped, publishing disabled",
		zap.String("event", string(event.Type)),
		zap.String("public_id", event.PublicID))
	return nil
}
