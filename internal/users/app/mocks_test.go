package app_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ecomshop/internal/users/domain/entities"
	"ecomshop/internal/users/domain/values"
	"ecomshop/internal/users/ports/services"
)

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Save(ctx context.Context, user *entities.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) Get(ctx context.Context, publicID values.PublicID) (*entities.User, error) {
	args := m.Called(ctx, publicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *mockUserRepository) GetOneByEmail(ctx context.Context, email values.Email) (*entities.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *mockUserRepository) UpdateAddress(ctx context.Context, patch values.AddressPatch) error {
	args := m.Called(ctx, patch)
	return args.Error(0)
}

type mockLocker struct {
	mock.Mock
	released int
}

func (m *mockLocker) Lock(ctx context.Context, key string) (services.Unlock, error) {
	args := m.Called(ctx, key)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	return func(context.Context) error {
		m.released++
		return nil
	}, nil
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event services.UserEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
