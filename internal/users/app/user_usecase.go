package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ecomshop/internal/users/domain/entities"
	"ecomshop/internal/users/domain/values"
	"ecomshop/internal/users/ports/api"
	"ecomshop/internal/users/ports/repositories"
	"ecomshop/internal/users/ports/services"
	"ecomshop/pkg/logger"
)

const (
	methodSyncAuthenticatedUser = "SyncAuthenticatedUser"
	methodGetUser               = "GetUser"
	methodUpdateAddress         = "UpdateAuthenticatedUserAddress"

	msgSyncStarted       = "synchronizing authenticated user"
	msgUserCreated       = "user created on first sign-in"
	msgEmailRaceDetected = "email registered concurrently, merging into stored user"
	msgProfileUnchanged  = "stored profile is up to date, skipping write"
	msgProfileUpdated    = "stored profile updated from token claims"
	msgRequestingUser    = "requesting user by public id"
	msgUserRetrieved     = "user successfully retrieved"
	msgAddressUpdated    = "user address updated"

	msgErrInvalidClaims   = "token claims failed validation"
	msgErrLock            = "failed to acquire user lock"
	msgErrUnlock          = "failed to release user lock"
	msgErrLookup          = "failed to look up user"
	msgErrSave            = "failed to save user"
	msgErrPublish         = "failed to publish user event"
	msgErrUpdateAddress   = "failed to update user address"
	msgErrMandatoryFields = "user is missing mandatory fields"

	errCtxParsingClaims     = "parsing token claims"
	errCtxLockingUser       = "locking user"
	errCtxLookingUpByEmail  = "looking up user by email"
	errCtxPreparingSignup   = "preparing signup"
	errCtxCreatingUser      = "creating user"
	errCtxUpdatingUser      = "updating user"
	errCtxValidatingID      = "validating public id"
	errCtxFetchingUser      = "fetching user"
	errCtxValidatingAddress = "validating address"
	errCtxUpdatingAddress   = "updating address"
)

const lockKeyPrefix = "users:sync:"

// UserUseCaseImpl реализует интерфейс UserUseCase.
type UserUseCaseImpl struct {
	userRepo repositories.UserRepository
	locker   services.Locker
	events   services.EventPublisher
	now      func() time.Time
}

// Option настраивает UserUseCaseImpl.
type Option func(*UserUseCaseImpl)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(u *UserUseCaseImpl) {
		u.now = now
	}
}

// NewUserUseCase создает новый экземпляр сервиса пользователя.
func NewUserUseCase(
	userRepo repositories.UserRepository,
	locker services.Locker,
	events services.EventPublisher,
	opts ...Option,
) api.UserUseCase {
	u := &UserUseCaseImpl{
		userRepo: userRepo,
		locker:   locker,
		events:   events,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// SyncAuthenticatedUser сверяет атрибуты токена с сохраненным пользователем.
//
// Обработка одного email сериализуется через Locker. Если вставка все же
// проиграла гонку уникальному индексу, запись перечитывается и сливается.
func (u *UserUseCaseImpl) SyncAuthenticatedUser(ctx context.Context, principal api.Principal, forceResync bool) (*entities.User, error) {
	log := logger.Log(ctx).With(
		zap.String("method", methodSyncAuthenticatedUser),
		zap.String("subject", principal.Subject),
		zap.Bool("forceResync", forceResync),
	)
	log.Debug(ctx, msgSyncStarted)

	incoming, err := entities.FromExternalClaims(principal.Claims, principal.Roles)
	if err != nil {
		log.Warn(ctx, msgErrInvalidClaims, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxParsingClaims, err)
	}

	email, ok := incoming.Email()
	if !ok {
		err = incoming.AssertMandatoryFields()
		log.Error(ctx, msgErrMandatoryFields, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxLookingUpByEmail, err)
	}
	log = log.With(zap.String("email", email.Value()))

	unlock, err := u.locker.Lock(ctx, lockKeyPrefix+email.Value())
	if err != nil {
		log.Error(ctx, msgErrLock, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxLockingUser, err)
	}
	defer func() {
		releaseCtx := context.WithoutCancel(ctx)
		if err := unlock(releaseCtx); err != nil {
			log.Warn(releaseCtx, msgErrUnlock, zap.Error(err))
		}
	}()

	stored, err := u.userRepo.GetOneByEmail(ctx, email)
	switch {
	case errors.Is(err, entities.ErrUserNotFound):
		created, err := u.signup(ctx, log, incoming)
		if !errors.Is(err, repositories.ErrEmailTaken) {
			return created, err
		}
		log.Warn(ctx, msgEmailRaceDetected)
		if stored, err = u.userRepo.GetOneByEmail(ctx, email); err != nil {
			log.Error(ctx, msgErrLookup, zap.Error(err))
			return nil, persistenceError(errCtxLookingUpByEmail, err)
		}
	case err != nil:
		log.Error(ctx, msgErrLookup, zap.Error(err))
		return nil, persistenceError(errCtxLookingUpByEmail, err)
	}

	return u.merge(ctx, log, stored, incoming, forceResync)
}

func (u *UserUseCaseImpl) signup(ctx context.Context, log *logger.Logger, incoming *entities.User) (*entities.User, error) {
	if err := incoming.InitFieldsForSignup(); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxPreparingSignup, err)
	}
	incoming.TouchLastSeen(u.seenAt(incoming))

	if err := incoming.AssertMandatoryFields(); err != nil {
		log.Error(ctx, msgErrMandatoryFields, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxCreatingUser, err)
	}

	if err := u.userRepo.Save(ctx, incoming); err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			return nil, err
		}
		log.Error(ctx, msgErrSave, zap.Error(err))
		return nil, persistenceError(errCtxCreatingUser, err)
	}

	publicID, _ := incoming.PublicID()
	log.Info(ctx, msgUserCreated, zap.String("publicId", publicID.String()))
	u.publish(ctx, log, services.UserCreated, incoming)
	return incoming, nil
}

func (u *UserUseCaseImpl) merge(
	ctx context.Context,
	log *logger.Logger,
	stored, incoming *entities.User,
	forceResync bool,
) (*entities.User, error) {
	seenAt := u.seenAt(incoming)

	if !forceResync && stored.SameProfile(incoming) {
		stored.TouchLastSeen(seenAt)
		log.Debug(ctx, msgProfileUnchanged)
		return stored, nil
	}

	stored.UpdateFromUser(incoming)
	stored.TouchLastSeen(seenAt)
	if err := stored.AssertMandatoryFields(); err != nil {
		log.Error(ctx, msgErrMandatoryFields, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxUpdatingUser, err)
	}

	if err := u.userRepo.Save(ctx, stored); err != nil {
		log.Error(ctx, msgErrSave, zap.Error(err))
		return nil, persistenceError(errCtxUpdatingUser, err)
	}

	log.Info(ctx, msgProfileUpdated)
	u.publish(ctx, log, services.UserUpdated, stored)
	return stored, nil
}

// GetUser возвращает пользователя по публичному идентификатору.
func (u *UserUseCaseImpl) GetUser(ctx context.Context, publicID string) (*entities.User, error) {
	log := logger.Log(ctx).With(zap.String("method", methodGetUser), zap.String("publicId", publicID))
	log.Debug(ctx, msgRequestingUser)

	id, err := values.ParsePublicID(publicID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxValidatingID, err)
	}

	user, err := u.userRepo.Get(ctx, id)
	switch {
	case errors.Is(err, entities.ErrUserNotFound):
		log.Debug(ctx, entities.ErrUserNotFound.Error())
		return nil, fmt.Errorf("%s: %w", errCtxFetchingUser, err)
	case err != nil:
		log.Error(ctx, msgErrLookup, zap.Error(err))
		return nil, persistenceError(errCtxFetchingUser, err)
	}

	log.Info(ctx, msgUserRetrieved)
	return user, nil
}

// UpdateAuthenticatedUserAddress синхронизирует пользователя и заменяет его адрес.
func (u *UserUseCaseImpl) UpdateAuthenticatedUserAddress(
	ctx context.Context,
	principal api.Principal,
	params values.AddressParams,
) (*entities.User, error) {
	log := logger.Log(ctx).With(zap.String("method", methodUpdateAddress), zap.String("subject", principal.Subject))

	address, err := values.NewAddress(params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxValidatingAddress, err)
	}

	user, err := u.SyncAuthenticatedUser(ctx, principal, false)
	if err != nil {
		return nil, err
	}

	publicID, _ := user.PublicID()
	patch, err := values.NewAddressPatch(publicID, address)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxValidatingAddress, err)
	}

	if err := u.userRepo.UpdateAddress(ctx, patch); err != nil {
		log.Error(ctx, msgErrUpdateAddress, zap.Error(err))
		if errors.Is(err, entities.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", errCtxUpdatingAddress, err)
		}
		return nil, persistenceError(errCtxUpdatingAddress, err)
	}

	user.ChangeAddress(address)
	log.Info(ctx, msgAddressUpdated, zap.String("publicId", publicID.String()))
	u.publish(ctx, log, services.UserUpdated, user)
	return user, nil
}

func (u *UserUseCaseImpl) seenAt(incoming *entities.User) time.Time {
	if seen := incoming.LastSeen(); !seen.IsZero() {
		return seen
	}
	return u.now().UTC()
}

func (u *UserUseCaseImpl) publish(ctx context.Context, log *logger.Logger, eventType services.EventType, user *entities.User) {
	publicID, _ := user.PublicID()
	email, _ := user.Email()

	event := services.UserEvent{
		Type:       eventType,
		PublicID:   publicID.String(),
		Email:      email.Value(),
		OccurredAt: u.now().UTC(),
	}
	if err := u.events.Publish(ctx, event); err != nil {
		log.Warn(ctx, msgErrPublish, zap.String("event", string(eventType)), zap.Error(err))
	}
}

func persistenceError(errCtx string, err error) error {
	if errors.Is(err, repositories.ErrPersistence) {
		return fmt.Errorf("%s: %w", errCtx, err)
	}
	return fmt.Errorf("%s: %w: %w", errCtx, repositories.ErrPersistence, err)
}
