// Package postgres реализует хранилище пользователей поверх pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"ecomshop/internal/users/domain/entities"
	"ecomshop/internal/users/domain/values"
	"ecomshop/internal/users/ports/repositories"
	"ecomshop/pkg/logger"
)

// PgxPoolInterface - подмножество *pgxpool.Pool, которое использует репозиторий.
type PgxPoolInterface interface {
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Сообщения об ошибках.
const (
	ErrSaveUser          = "error saving user"
	ErrSaveAuthorities   = "error saving user authorities"
	ErrQueryUser         = "error querying user"
	ErrRehydrateUser     = "error reading stored user"
	ErrUpdateAddress     = "error updating user address"
	ErrBeginTransaction  = "error starting transaction"
	ErrCommitTransaction = "error committing transaction"
)

// ErrMissingPublicID - попытка сохранить пользователя без publicID.
var ErrMissingPublicID = errors.New("user has no public id")

const (
	// uniqueViolation - SQLSTATE нарушения уникальности.
	uniqueViolation = "23505"
	// emailConstraint - уникальный индекс по email.
	emailConstraint = "users_email_key"
)

const (
	insertUserQuery = `
        INSERT INTO users (public_id, first_name, last_name, email, image_url,
                           address_street, address_city, address_zip_code, address_country, last_seen)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id, created_date, last_modified_date
    `

	updateUserQuery = `
        UPDATE users
        SET first_name = $2, last_name = $3, email = $4, image_url = $5,
            address_street = $6, address_city = $7, address_zip_code = $8, address_country = $9,
            last_seen = $10, last_modified_date = NOW()
        WHERE id = $1
        RETURNING id, created_date, last_modified_date
    `

	upsertAuthoritiesQuery = `
        INSERT INTO authorities (name)
        SELECT unnest($1::text[])
        ON CONFLICT DO NOTHING
    `

	deleteUserAuthoritiesQuery = `DELETE FROM user_authorities WHERE user_id = $1`

	insertUserAuthoritiesQuery = `
        INSERT INTO user_authorities (user_id, authority_name)
        SELECT $1, unnest($2::text[])
    `

	selectUserQuery = `
        SELECT u.id, u.public_id, u.first_name, u.last_name, u.email, u.image_url,
               u.address_street, u.address_city, u.address_zip_code, u.address_country,
               u.created_date, u.last_modified_date, u.last_seen,
               COALESCE(array_agg(ua.authority_name ORDER BY ua.authority_name)
                        FILTER (WHERE ua.authority_name IS NOT NULL), '{}') AS authorities
        FROM users u
        LEFT JOIN user_authorities ua ON ua.user_id = u.id
    `

	selectByPublicIDQuery = selectUserQuery + `WHERE u.public_id = $1 GROUP BY u.id`
	selectByEmailQuery    = selectUserQuery + `WHERE u.email = $1 GROUP BY u.id`

	updateAddressQuery = `
        UPDATE users
        SET address_street = $2, address_city = $3, address_zip_code = $4, address_country = $5,
            last_modified_date = NOW()
        WHERE public_id = $1
    `
)

// UserRepository реализует repositories.UserRepository для Postgres.
type UserRepository struct {
	pool PgxPoolInterface
}

// NewUserRepository создает новый экземпляр репозитория пользователей.
func NewUserRepository(pool PgxPoolInterface) *UserRepository {
	return &UserRepository{pool: pool}
}

var _ repositories.UserRepository = (*UserRepository)(nil)

// Save вставляет нового пользователя или обновляет существующего по dbID,
// затем перезаписывает его роли. Все изменения выполняются в одной транзакции.
func (r *UserRepository) Save(ctx context.Context, user *entities.User) error {
	log := logger.Log(ctx).With(zap.String("repository", "user"), zap.String("method", "Save"))

	publicID, ok := user.PublicID()
	if !ok {
		return persistenceError(ErrSaveUser, ErrMissingPublicID)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		log.Error(ctx, ErrBeginTransaction, zap.Error(err))
		return persistenceError(ErrBeginTransaction, err)
	}

	dbID, created, modified, err := r.saveUser(ctx, tx, user, publicID)
	if err == nil {
		err = r.saveAuthorities(ctx, tx, dbID, user.Authorities().Names())
	}
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			log.Warn(ctx, "rollback failed", zap.Error(rbErr))
		}
		if errors.Is(err, repositories.ErrEmailTaken) {
			log.Debug(ctx, "email already registered")
		} else {
			log.Error(ctx, ErrSaveUser, zap.Error(err))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		log.Error(ctx, ErrCommitTransaction, zap.Error(err))
		return persistenceError(ErrCommitTransaction, err)
	}

	user.ApplyPersistence(dbID, created, modified)
	log.Debug(ctx, "user saved", zap.Int64("id", dbID), zap.Stringer("public_id", publicID))
	return nil
}

func (r *UserRepository) saveUser(
	ctx context.Context,
	tx pgx.Tx,
	user *entities.User,
	publicID values.PublicID,
) (int64, time.Time, time.Time, error) {
	row := userRow(user)

	var (
		dbID     int64
		created  time.Time
		modified time.Time
		err      error
	)
	if id, stored := user.DBID(); stored {
		err = tx.QueryRow(ctx, updateUserQuery,
			id, row.firstname, row.lastname, row.email, row.imageURL,
			row.street, row.city, row.zipCode, row.country, row.lastSeen,
		).Scan(&dbID, &created, &modified)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, time.Time{}, time.Time{}, fmt.Errorf("%s: %w", ErrSaveUser, entities.ErrUserNotFound)
		}
	} else {
		err = tx.QueryRow(ctx, insertUserQuery,
			publicID.Value(), row.firstname, row.lastname, row.email, row.imageURL,
			row.street, row.city, row.zipCode, row.country, row.lastSeen,
		).Scan(&dbID, &created, &modified)
	}
	if err != nil {
		if isEmailConflict(err) {
			return 0, time.Time{}, time.Time{}, fmt.Errorf("%s: %w", ErrSaveUser, repositories.ErrEmailTaken)
		}
		return 0, time.Time{}, time.Time{}, persistenceError(ErrSaveUser, err)
	}
	return dbID, created, modified, nil
}

func (r *UserRepository) saveAuthorities(ctx context.Context, tx pgx.Tx, dbID int64, names []string) error {
	if _, err := tx.Exec(ctx, upsertAuthoritiesQuery, names); err != nil {
		return persistenceError(ErrSaveAuthorities, err)
	}
	if _, err := tx.Exec(ctx, deleteUserAuthoritiesQuery, dbID); err != nil {
		return persistenceError(ErrSaveAuthorities, err)
	}
	if _, err := tx.Exec(ctx, insertUserAuthoritiesQuery, dbID, names); err != nil {
		return persistenceError(ErrSaveAuthorities, err)
	}
	return nil
}

// Get находит пользователя по публичному идентификатору.
func (r *UserRepository) Get(ctx context.Context, publicID values.PublicID) (*entities.User, error) {
	log := logger.Log(ctx).With(zap.String("repository", "user"), zap.String("method", "Get"))

	user, err := r.queryOne(ctx, selectByPublicIDQuery, publicID.Value())
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			log.Debug(ctx, "user not found", zap.Stringer("public_id", publicID))
		} else {
			log.Error(ctx, "error finding user by public id", zap.Error(err))
		}
		return nil, err
	}
	return user, nil
}

// GetOneByEmail находит пользователя по email.
func (r *UserRepository) GetOneByEmail(ctx context.Context, email values.Email) (*entities.User, error) {
	log := logger.Log(ctx).With(zap.String("repository", "user"), zap.String("method", "GetOneByEmail"))

	user, err := r.queryOne(ctx, selectByEmailQuery, email.Value())
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			log.Debug(ctx, "user not found by email")
		} else {
			log.Error(ctx, "error finding user by email", zap.Error(err))
		}
		return nil, err
	}
	return user, nil
}

// UpdateAddress заменяет адрес пользователя с заданным publicID.
func (r *UserRepository) UpdateAddress(ctx context.Context, patch values.AddressPatch) error {
	log := logger.Log(ctx).With(zap.String("repository", "user"), zap.String("method", "UpdateAddress"))

	address := patch.Address()
	tag, err := r.pool.Exec(ctx, updateAddressQuery,
		patch.PublicID().Value(),
		address.Street(), address.City(), address.ZipCode(), address.Country(),
	)
	if err != nil {
		log.Error(ctx, ErrUpdateAddress, zap.Error(err))
		return persistenceError(ErrUpdateAddress, err)
	}
	if tag.RowsAffected() == 0 {
		log.Debug(ctx, "user not found", zap.Stringer("public_id", patch.PublicID()))
		return fmt.Errorf("%s: %w", ErrUpdateAddress, entities.ErrUserNotFound)
	}
	return nil
}

func (r *UserRepository) queryOne(ctx context.Context, query string, arg any) (*entities.User, error) {
	var (
		row         storedUser
		publicID    uuid.UUID
		authorities []string
	)
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&row.dbID,
		&publicID,
		&row.firstname,
		&row.lastname,
		&row.email,
		&row.imageURL,
		&row.street,
		&row.city,
		&row.zipCode,
		&row.country,
		&row.createdDate,
		&row.lastModifiedDate,
		&row.lastSeen,
		&authorities,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrUserNotFound
		}
		return nil, persistenceError(ErrQueryUser, err)
	}

	user, err := row.toEntity(publicID, authorities)
	if err != nil {
		return nil, persistenceError(ErrRehydrateUser, err)
	}
	return user, nil
}

// storedUser - строка таблицы users. NULL хранится как nil.
type storedUser struct {
	dbID             int64
	firstname        *string
	lastname         *string
	email            *string
	imageURL         *string
	street           *string
	city             *string
	zipCode          *string
	country          *string
	createdDate      time.Time
	lastModifiedDate time.Time
	lastSeen         *time.Time
}

func userRow(user *entities.User) storedUser {
	var row storedUser
	if v, ok := user.Firstname(); ok {
		row.firstname = ptr(v.Value())
	}
	if v, ok := user.Lastname(); ok {
		row.lastname = ptr(v.Value())
	}
	if v, ok := user.Email(); ok {
		row.email = ptr(v.Value())
	}
	if v, ok := user.ImageURL(); ok {
		row.imageURL = ptr(v.Value())
	}
	if a, ok := user.Address(); ok {
		row.street = ptr(a.Street())
		row.city = ptr(a.City())
		row.zipCode = ptr(a.ZipCode())
		row.country = ptr(a.Country())
	}
	if seen := user.LastSeen(); !seen.IsZero() {
		row.lastSeen = ptr(seen)
	}
	return row
}

func (s storedUser) toEntity(publicID uuid.UUID, authorities []string) (*entities.User, error) {
	params := entities.UserParams{
		DBID:             s.dbID,
		PublicID:         publicID,
		Firstname:        s.firstname,
		Lastname:         s.lastname,
		Email:            s.email,
		ImageURL:         s.imageURL,
		CreatedDate:      s.createdDate,
		LastModifiedDate: s.lastModifiedDate,
		Authorities:      authorities,
	}
	if params.Authorities == nil {
		params.Authorities = []string{}
	}
	if s.lastSeen != nil {
		params.LastSeen = *s.lastSeen
	}
	if s.street != nil && s.city != nil && s.zipCode != nil && s.country != nil {
		params.Address = &values.AddressParams{
			Street:  *s.street,
			City:    *s.city,
			ZipCode: *s.zipCode,
			Country: *s.country,
		}
	}
	return entities.NewUser(params)
}

func isEmailConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == emailConstraint
}

func persistenceError(msg string, err error) error {
	return fmt.Errorf("%w: %s: %w", repositories.ErrPersistence, msg, err)
}

func ptr[T any](v T) *T { return &v }
