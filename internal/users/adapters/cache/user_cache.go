// Package cache кэширует пользователей в Redis поверх основного хранилища.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ecomshop/internal/users/domain/entities"
	"ecomshop/internal/users/domain/values"
	"ecomshop/internal/users/ports/repositories"
	"ecomshop/internal/users/resilience"
	"ecomshop/pkg/logger"
)

// Константы для логирования.
const (
	LogCacheHit         = "user cache hit"
	LogCacheMiss        = "user cache miss"
	ErrorFailedToGet    = "failed to get user from redis"
	ErrorFailedToSet    = "failed to set user in redis"
	ErrorFailedToDelete = "failed to delete user from redis"
	ErrorFailedToDecode = "failed to decode cached user"
)

const keyPrefix = "users:public_id:"

// UserCache оборачивает repositories.UserRepository и кэширует результат Get.
// Запись через Save и UpdateAddress сбрасывает запись кэша.
// Ошибки Redis не прерывают запрос: чтение уходит в основное хранилище.
type UserCache struct {
	next   repositories.UserRepository
	client redis.Cmdable
	ttl    time.Duration
	guard  *resilience.Guard
}

// NewUserCache создает кэширующий репозиторий.
func NewUserCache(next repositories.UserRepository, client redis.Cmdable, ttl time.Duration) *UserCache {
	return &UserCache{
		next:   next,
		client: client,
		ttl:    ttl,
		guard: resilience.NewGuardWithConfig("redis-user-cache",
			resilience.DefaultCircuitBreakerConfig(),
			resilience.RetryConfig{MaxAttempts: 1}),
	}
}

var _ repositories.UserRepository = (*UserCache)(nil)

// Key возвращает ключ кэша для publicID.
func Key(publicID values.PublicID) string {
	return keyPrefix + publicID.String()
}

// Get читает пользователя из кэша, при промахе - из хранилища.
func (c *UserCache) Get(ctx context.Context, publicID values.PublicID) (*entities.User, error) {
	log := logger.Log(ctx).With(zap.String("cache", "user"), zap.Stringer("public_id", publicID))
	key := Key(publicID)

	raw, err := resilience.Call(ctx, c.guard, func() ([]byte, error) {
		data, err := c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return data, err
	})
	switch {
	case err != nil:
		log.Warn(ctx, ErrorFailedToGet, zap.Error(err))
	case raw != nil:
		user, decodeErr := decode(raw)
		if decodeErr == nil {
			log.Debug(ctx, LogCacheHit)
			return user, nil
		}
		log.Warn(ctx, ErrorFailedToDecode, zap.Error(decodeErr))
	default:
		log.Debug(ctx, LogCacheMiss)
	}

	user, err := c.next.Get(ctx, publicID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, user)
	return user, nil
}

// GetOneByEmail всегда читает хранилище: синхронизация сравнивает профиль
// с последним сохраненным состоянием.
func (c *UserCache) GetOneByEmail(ctx context.Context, email values.Email) (*entities.User, error) {
	return c.next.GetOneByEmail(ctx, email)
}

// Save сохраняет пользователя и сбрасывает его запись в кэше.
func (c *UserCache) Save(ctx context.Context, user *entities.User) error {
	if err := c.next.Save(ctx, user); err != nil {
		return err
	}
	if publicID, ok := user.PublicID(); ok {
		c.evict(ctx, Key(publicID))
	}
	return nil
}

// UpdateAddress обновляет адрес и сбрасывает запись в кэше.
func (c *UserCache) UpdateAddress(ctx context.Context, patch values.AddressPatch) error {
	if err := c.next.UpdateAddress(ctx, patch); err != nil {
		return err
	}
	c.evict(ctx, Key(patch.PublicID()))
	return nil
}

func (c *UserCache) store(ctx context.Context, key string, user *entities.User) {
	data, err := json.Marshal(snapshotOf(user))
	if err != nil {
		logger.Log(ctx).Warn(ctx, ErrorFailedToSet, zap.Error(err))
		return
	}
	err = c.guard.Execute(ctx, func() error {
		return c.client.Set(ctx, key, data, c.ttl).Err()
	})
	if err != nil {
		logger.Log(ctx).Warn(ctx, ErrorFailedToSet, zap.String("key", key), zap.Error(err))
	}
}

// evict выполняется в обход выключателя.
func (c *UserCache) evict(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		logger.Log(ctx).Warn(ctx, ErrorFailedToDelete, zap.String("key", key), zap.Error(err))
	}
}

// snapshot - JSON-представление пользователя в кэше.
type snapshot struct {
	DBID             int64                 `json:"id"`
	PublicID         uuid.UUID             `json:"public_id"`
	Firstname        *string               `json:"first_name,omitempty"`
	Lastname         *string               `json:"last_name,omitempty"`
	Email            *string               `json:"email,omitempty"`
	ImageURL         *string               `json:"image_url,omitempty"`
	Address          *values.AddressParams `json:"address,omitempty"`
	CreatedDate      time.Time             `json:"created_date"`
	LastModifiedDate time.Time             `json:"last_modified_date"`
	LastSeen         time.Time             `json:"last_seen"`
	Authorities      []string              `json:"authorities"`
}

func snapshotOf(user *entities.User) snapshot {
	dbID, _ := user.DBID()
	publicID, _ := user.PublicID()
	s := snapshot{
		DBID:             dbID,
		PublicID:         publicID.Value(),
		CreatedDate:      user.CreatedDate(),
		LastModifiedDate: user.LastModifiedDate(),
		LastSeen:         user.LastSeen(),
		Authorities:      user.Authorities().Names(),
	}
	if v, ok := user.Firstname(); ok {
		s.Firstname = ptr(v.Value())
	}
	if v, ok := user.Lastname(); ok {
		s.Lastname = ptr(v.Value())
	}
	if v, ok := user.Email(); ok {
		s.Email = ptr(v.Value())
	}
	if v, ok := user.ImageURL(); ok {
		s.ImageURL = ptr(v.Value())
	}
	if a, ok := user.Address(); ok {
		s.Address = &values.AddressParams{Street: a.Street(), City: a.City(), ZipCode: a.ZipCode(), Country: a.Country()}
	}
	return s
}

func decode(raw []byte) (*entities.User, error) {
	var s snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrorFailedToDecode, err)
	}
	if s.Authorities == nil {
		s.Authorities = []string{}
	}
	return entities.NewUser(entities.UserParams{
		DBID:             s.DBID,
		PublicID:         s.PublicID,
		Firstname:        s.Firstname,
		Lastname:         s.Lastname,
		Email:            s.Email,
		ImageURL:         s.ImageURL,
		Address:          s.Address,
		CreatedDate:      s.CreatedDate,
		LastModifiedDate: s.LastModifiedDate,
		LastSeen:         s.LastSeen,
		Authorities:      s.Authorities,
	})
}

func ptr[T any](v T) *T { return &v }
