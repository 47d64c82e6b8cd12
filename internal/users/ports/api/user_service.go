package api

import (
	"context"

	"ecomshop/internal/users/domain/entities"
	"ecomshop/internal/users/domain/values"
)

// Principal - аутентифицированный субъект: атрибуты токена и роли.
type Principal struct {
	Subject string
	Claims  map[string]any
	Roles   []string
}

// UserUseCase определяет основной порт для пользовательских операций.
type UserUseCase interface {
	// SyncAuthenticatedUser сверяет атрибуты токена с сохраненным пользователем:
	// создает его при первом входе и обновляет профиль при изменениях.
	SyncAuthenticatedUser(ctx context.Context, principal Principal, forceResync bool) (*entities.User, error)

	GetUser(ctx context.Context, publicID string) (*entities.User, error)

	UpdateAuthenticatedUserAddress(ctx context.Context, principal Principal, address values.AddressParams) (*entities.User, error)
}
