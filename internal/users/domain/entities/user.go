// Package entities содержит агрегат пользователя и его роли.
package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"ecomshop/internal/users/domain/values"
)

// User - агрегат пользователя: идентичность, профиль, аудит и роли.
//
// Экземпляр, полученный из токена, транзиентный: у него нет dbID, а
// publicID появляется только при первом сохранении.
type User struct {
	dbID     int64
	publicID values.PublicID

	firstname *values.Firstname
	lastname  *values.Lastname
	email     *values.Email
	imageURL  *values.ImageURL
	address   *values.Address

	createdDate      time.Time
	lastModifiedDate time.Time
	lastSeen         time.Time

	authorities Authorities
}

// UserParams - исходные данные для NewUser. nil в полях-указателях
// означает, что поле не задано.
type UserParams struct {
	DBID             int64
	PublicID         uuid.UUID
	Firstname        *string
	Lastname         *string
	Email            *string
	ImageURL         *string
	Address          *values.AddressParams
	CreatedDate      time.Time
	LastModifiedDate time.Time
	LastSeen         time.Time
	Authorities      []string
}

// NewUser проверяет все поля разом и собирает агрегат. Ошибки всех
// полей объединяются через errors.Join.
func NewUser(p UserParams) (*User, error) {
	u := &User{
		dbID:             p.DBID,
		createdDate:      p.CreatedDate,
		lastModifiedDate: p.LastModifiedDate,
		lastSeen:         p.LastSeen,
	}

	var errs []error
	if p.PublicID != uuid.Nil {
		publicID, err := values.NewPublicID(p.PublicID)
		errs = append(errs, err)
		u.publicID = publicID
	}
	if p.Firstname != nil {
		firstname, err := values.NewFirstname(*p.Firstname)
		errs = append(errs, err)
		u.firstname = &firstname
	}
	if p.Lastname != nil {
		lastname, err := values.NewLastname(*p.Lastname)
		errs = append(errs, err)
		u.lastname = &lastname
	}
	if p.Email != nil {
		email, err := values.NewEmail(*p.Email)
		errs = append(errs, err)
		u.email = &email
	}
	if p.ImageURL != nil {
		imageURL, err := values.NewImageURL(*p.ImageURL)
		errs = append(errs, err)
		u.imageURL = &imageURL
	}
	if p.Address != nil {
		address, err := values.NewAddress(*p.Address)
		errs = append(errs, err)
		u.address = &address
	}
	if p.Authorities != nil {
		authorities, err := NewAuthorities(p.Authorities...)
		errs = append(errs, err)
		u.authorities = authorities
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateFromUser переносит из other email, аватар, имя и фамилию.
// Роли, адрес, publicID и временные метки не меняются.
func (u *User) UpdateFromUser(other *User) {
	u.email = other.email
	u.imageURL = other.imageURL
	u.firstname = other.firstname
	u.lastname = other.lastname
}

// InitFieldsForSignup назначает новый publicID перед первым сохранением.
func (u *User) InitFieldsForSignup() error {
	if u.HasPublicID() {
		return ErrPublicIDAlreadyAssigned
	}
	u.publicID = values.GeneratePublicID()
	return nil
}

// AssertMandatoryFields проверяет поля, обязательные для сохранения.
func (u *User) AssertMandatoryFields() error {
	var errs []error
	if u.firstname == nil {
		errs = append(errs, &InvariantError{Field: "firstname"})
	}
	if u.lastname == nil {
		errs = append(errs, &InvariantError{Field: "lastname"})
	}
	if u.email == nil {
		errs = append(errs, &InvariantError{Field: "email"})
	}
	if u.authorities == nil {
		errs = append(errs, &InvariantError{Field: "authorities"})
	}
	return errors.Join(errs...)
}

// SameProfile сравнивает поля профиля, которые переносит UpdateFromUser.
func (u *User) SameProfile(other *User) bool {
	return equalPtr(u.email, other.email) &&
		equalPtr(u.imageURL, other.imageURL) &&
		equalPtr(u.firstname, other.firstname) &&
		equalPtr(u.lastname, other.lastname)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// TouchLastSeen сдвигает lastSeen вперед и сообщает, изменилось ли значение.
func (u *User) TouchLastSeen(at time.Time) bool {
	if at.IsZero() || !at.After(u.lastSeen) {
		return false
	}
	u.lastSeen = at
	return true
}

// ChangeAddress заменяет адрес пользователя.
func (u *User) ChangeAddress(address values.Address) {
	u.address = &address
}

// ApplyPersistence фиксирует результат сохранения. createdDate
// устанавливается только один раз.
func (u *User) ApplyPersistence(dbID int64, created, modified time.Time) {
	u.dbID = dbID
	if u.createdDate.IsZero() {
		u.createdDate = created
	}
	u.lastModifiedDate = modified
}

// DBID возвращает идентификатор хранилища, если пользователь сохранен.
func (u *User) DBID() (int64, bool) { return u.dbID, u.dbID != 0 }

func (u *User) HasPublicID() bool { return u.publicID != (values.PublicID{}) }

func (u *User) PublicID() (values.PublicID, bool) { return u.publicID, u.HasPublicID() }

func (u *User) Firstname() (values.Firstname, bool) { return deref(u.firstname) }

func (u *User) Lastname() (values.Lastname, bool) { return deref(u.lastname) }

func (u *User) Email() (values.Email, bool) { return deref(u.email) }

func (u *User) ImageURL() (values.ImageURL, bool) { return deref(u.imageURL) }

func (u *User) Address() (values.Address, bool) { return deref(u.address) }

func (u *User) CreatedDate() time.Time { return u.createdDate }

func (u *User) LastModifiedDate() time.Time { return u.lastModifiedDate }

func (u *User) LastSeen() time.Time { return u.lastSeen }

// Authorities возвращает копию множества ролей.
func (u *User) Authorities() Authorities {
	if u.authorities == nil {
		return nil
	}
	out := make(Authorities, len(u.authorities))
	copy(out, u.authorities)
	return out
}

func deref[T any](p *T) (T, bool) {
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}
