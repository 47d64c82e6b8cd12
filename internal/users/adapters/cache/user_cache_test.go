package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ecomshop/internal/users/adapters/cache"
	"ecomshop/internal/users/domain/entities"
	"ecomshop/internal/users/domain/values"
	"ecomshop/pkg/logger"
)

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Save(ctx context.Context, user *entities.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) Get(ctx context.Context, publicID values.PublicID) (*entities.User, error) {
	args := m.Called(ctx, publicID)
	user, _ := args.Get(0).(*entities.User)
	return user, args.Error(1)
}

func (m *mockUserRepository) GetOneByEmail(ctx context.Context, email values.Email) (*entities.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*entities.User)
	return user, args.Error(1)
}

func (m *mockUserRepository) UpdateAddress(ctx context.Context, patch values.AddressPatch) error {
	return m.Called(ctx, patch).Error(0)
}

var (
	testUUID  = uuid.MustParse("7f1e3c2a-4b5d-4e6f-8a9b-0c1d2e3f4a5b")
	createdAt = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	lastSeen  = time.Date(2025, 4, 30, 8, 0, 0, 0, time.UTC)
)

func ptr[T any](v T) *T { return &v }

func testContext() context.Context {
	return logger.NewContext(context.Background(), logger.NewNop())
}

func storedUser(t *testing.T) *entities.User {
	t.Helper()
	user, err := entities.NewUser(entities.UserParams{
		DBID:             42,
		PublicID:         testUUID,
		Firstname:        ptr("Ada"),
		Lastname:         ptr("Lovelace"),
		Email:            ptr("ada@example.com"),
		ImageURL:         ptr("https://img/ada.png"),
		Address:          &values.AddressParams{Street: "1 Main St", City: "Paris", ZipCode: "75001", Country: "FR"},
		CreatedDate:      createdAt,
		LastModifiedDate: createdAt,
		LastSeen:         lastSeen,
		Authorities:      []string{"USER", "ADMIN"},
	})
	require.NoError(t, err)
	return user
}

func setup(t *testing.T) (*miniredis.Miniredis, *mockUserRepository, *cache.UserCache) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := new(mockUserRepository)
	return server, repo, cache.NewUserCache(repo, client, time.Minute)
}

func TestUserCache_Get(t *testing.T) {
	ctx := testContext()
	publicID, err := values.NewPublicID(testUUID)
	require.NoError(t, err)

	t.Run("miss then hit", func(t *testing.T) {
		server, repo, userCache := setup(t)
		repo.On("Get", mock.Anything, publicID).Return(storedUser(t), nil).Once()

		first, err := userCache.Get(ctx, publicID)
		require.NoError(t, err)
		assert.True(t, server.Exists(cache.Key(publicID)))
		assert.Equal(t, time.Minute, server.TTL(cache.Key(publicID)))

		second, err := userCache.Get(ctx, publicID)
		require.NoError(t, err)

		firstName, _ := second.Firstname()
		assert.Equal(t, "Ada", firstName.Value())
		address, ok := second.Address()
		require.True(t, ok)
		assert.Equal(t, "75001", address.ZipCode())
		assert.Equal(t, first.Authorities().Names(), second.Authorities().Names())
		assert.True(t, lastSeen.Equal(second.LastSeen()))
		dbID, _ := second.DBID()
		assert.Equal(t, int64(42), dbID)
		repo.AssertExpectations(t)
	})

	t.Run("not found is not cached", func(t *testing.T) {
		server, repo, userCache := setup(t)
		repo.On("Get", mock.Anything, publicID).Return(nil, entities.ErrUserNotFound).Twice()

		_, err := userCache.Get(ctx, publicID)
		require.ErrorIs(t, err, entities.ErrUserNotFound)
		_, err = userCache.Get(ctx, publicID)
		require.ErrorIs(t, err, entities.ErrUserNotFound)
		assert.False(t, server.Exists(cache.Key(publicID)))
		repo.AssertExpectations(t)
	})

	t.Run("corrupt entry falls back to storage", func(t *testing.T) {
		server, repo, userCache := setup(t)
		require.NoError(t, server.Set(cache.Key(publicID), "{not json"))
		repo.On("Get", mock.Anything, publicID).Return(storedUser(t), nil).Once()

		user, err := userCache.Get(ctx, publicID)
		require.NoError(t, err)
		assert.NotNil(t, user)
		repo.AssertExpectations(t)
	})

	t.Run("redis unavailable falls back to storage", func(t *testing.T) {
		server, repo, userCache := setup(t)
		server.Close()
		repo.On("Get", mock.Anything, publicID).Return(storedUser(t), nil).Once()

		user, err := userCache.Get(ctx, publicID)
		require.NoError(t, err)
		assert.NotNil(t, user)
		repo.AssertExpectations(t)
	})
}

func TestUserCache_WritesEvict(t *testing.T) {
	ctx := testContext()
	publicID, err := values.NewPublicID(testUUID)
	require.NoError(t, err)

	t.Run("save", func(t *testing.T) {
		server, repo, userCache := setup(t)
		require.NoError(t, server.Set(cache.Key(publicID), "{}"))
		user := storedUser(t)
		repo.On("Save", mock.Anything, user).Return(nil).Once()

		require.NoError(t, userCache.Save(ctx, user))
		assert.False(t, server.Exists(cache.Key(publicID)))
		repo.AssertExpectations(t)
	})

	t.Run("failed save keeps entry", func(t *testing.T) {
		server, repo, userCache := setup(t)
		require.NoError(t, server.Set(cache.Key(publicID), "{}"))
		user := storedUser(t)
		repo.On("Save", mock.Anything, user).Return(assert.AnError).Once()

		require.ErrorIs(t, userCache.Save(ctx, user), assert.AnError)
		assert.True(t, server.Exists(cache.Key(publicID)))
	})

	t.Run("update address", func(t *testing.T) {
		server, repo, userCache := setup(t)
		require.NoError(t, server.Set(cache.Key(publicID), "{}"))

		address, err := values.NewAddress(values.AddressParams{Street: "2 Rue", City: "Lyon", ZipCode: "69001", Country: "FR"})
		require.NoError(t, err)
		patch, err := values.NewAddressPatch(publicID, address)
		require.NoError(t, err)
		repo.On("UpdateAddress", mock.Anything, patch).Return(nil).Once()

		require.NoError(t, userCache.UpdateAddress(ctx, patch))
		assert.False(t, server.Exists(cache.Key(publicID)))
		repo.AssertExpectations(t)
	})
}

func TestUserCache_GetOneByEmailBypassesCache(t *testing.T) {
	ctx := testContext()
	_, repo, userCache := setup(t)

	email, err := values.NewEmail("ada@example.com")
	require.NoError(t, err)
	repo.On("GetOneByEmail", mock.Anything, email).Return(storedUser(t), nil).Twice()

	_, err = userCache.GetOneByEmail(ctx, email)
	require.NoError(t, err)
	_, err = userCache.GetOneByEmail(ctx, email)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
