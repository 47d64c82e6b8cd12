package repositories

import (
	"context"
	"errors"

	"ecomshop/internal/users/domain/entities"
	"ecomshop/internal/users/domain/values"
)

// Ошибки хранилища. Отсутствие записи сообщается через entities.ErrUserNotFound.
var (
	ErrPersistence = errors.New("persistence failure")
	ErrEmailTaken  = errors.New("email is already registered")
)

// UserRepository определяет порт хранения пользователей.
type UserRepository interface {
	// Save создает или обновляет пользователя вместе с ролями и
	// заполняет dbID и временные метки аудита.
	Save(ctx context.Context, user *entities.User) error

	Get(ctx context.Context, publicID values.PublicID) (*entities.User, error)

	GetOneByEmail(ctx context.Context, email values.Email) (*entities.User, error)

	UpdateAddress(ctx context.Context, patch values.AddressPatch) error
}
