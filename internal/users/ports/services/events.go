package services

import (
	"context"
	"time"
)

// EventType - тип события жизненного цикла пользователя, он же routing key.
type EventType string

const (
	UserCreated EventType = "user.created"
	UserUpdated EventType = "user.updated"
)

// UserEvent - событие об изменении пользователя.
type UserEvent struct {
	Type       EventType `json:"event"`
	PublicID   string    `json:"public_id"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher публикует события пользователей.
type EventPublisher interface {
	Publish(ctx context.Context, event UserEvent) error
}
