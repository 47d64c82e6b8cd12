package values

import (
	"github.com/google/uuid"
)

// Ограничения длины полей профиля.
const (
	NameMaxLength     = 255
	EmailMaxLength    = 255
	ImageURLMaxLength = 1000
	UsernameMaxLength = 100
)

// Firstname - имя пользователя.
type Firstname struct {
	value string
}

// NewFirstname проверяет длину и создает Firstname.
func NewFirstname(value string) (Firstname, error) {
	if err := checkMaxLength("firstname", value, NameMaxLength); err != nil {
		return Firstname{}, err
	}
	return Firstname{value: value}, nil
}

func (f Firstname) Value() string { return f.value }

// Lastname - фамилия пользователя.
type Lastname struct {
	value string
}

// NewLastname проверяет длину и создает Lastname.
func NewLastname(value string) (Lastname, error) {
	if err := checkMaxLength("lastname", value, NameMaxLength); err != nil {
		return Lastname{}, err
	}
	return Lastname{value: value}, nil
}

func (l Lastname) Value() string { return l.value }

// Email - адрес электронной почты, по которому сопоставляются пользователи.
type Email struct {
	value string
}

// NewEmail отклоняет пустые адреса и адреса длиннее EmailMaxLength.
func NewEmail(value string) (Email, error) {
	if err := checkNotBlank("email", value); err != nil {
		return Email{}, err
	}
	if err := checkMaxLength("email", value, EmailMaxLength); err != nil {
		return Email{}, err
	}
	return Email{value: value}, nil
}

func (e Email) Value() string { return e.value }

// ImageURL - ссылка на аватар пользователя.
type ImageURL struct {
	value string
}

func NewImageURL(value string) (ImageURL, error) {
	if err := checkMaxLength("imageUrl", value, ImageURLMaxLength); err != nil {
		return ImageURL{}, err
	}
	return ImageURL{value: value}, nil
}

func (i ImageURL) Value() string { return i.value }

// PublicID - внешний неизменяемый идентификатор пользователя.
type PublicID struct {
	value uuid.UUID
}

// NewPublicID отклоняет uuid.Nil.
func NewPublicID(value uuid.UUID) (PublicID, error) {
	if value == uuid.Nil {
		return PublicID{}, NewFieldError("publicId", msgNilUUID)
	}
	return PublicID{value: value}, nil
}

// ParsePublicID разбирает строковое представление UUID.
func ParsePublicID(value string) (PublicID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return PublicID{}, NewFieldError("publicId", "must be a valid UUID")
	}
	return NewPublicID(id)
}

// GeneratePublicID создает случайный PublicID.
func GeneratePublicID() PublicID {
	return PublicID{value: uuid.New()}
}

func (p PublicID) Value() uuid.UUID { return p.value }

func (p PublicID) String() string { return p.value.String() }

// Username - отображаемое имя аутентифицированного субъекта.
type Username struct {
	value string
}

func NewUsername(value string) (Username, error) {
	if err := checkNotBlank("username", value); err != nil {
		return Username{}, err
	}
	if err := checkMaxLength("username", value, UsernameMaxLength); err != nil {
		return Username{}, err
	}
	return Username{value: value}, nil
}

// UsernameOf возвращает Username только для непустой строки.
func UsernameOf(value string) (Username, bool) {
	username, err := NewUsername(value)
	if err != nil {
		return Username{}, false
	}
	return username, true
}

func (u Username) Value() string { return u.value }
