package entities

import (
	"errors"
	"time"

	"ecomshop/internal/users/domain/values"
)

// Ключи атрибутов токена внешнего провайдера.
const (
	ClaimEmail        = "preferred_email"
	ClaimLastname     = "last_name"
	ClaimFirstname    = "first_name"
	ClaimPicture      = "picture"
	ClaimLastSignedIn = "last_signed_in"
)

// Имена полей в ошибках валидации атрибутов совпадают с именами
// объектов-значений.
const (
	fieldEmail     = "email"
	fieldLastname  = "lastname"
	fieldFirstname = "firstname"
	fieldImageURL  = "imageUrl"
	fieldLastSeen  = "lastSeen"
)

const (
	msgNotString    = "must be a string"
	msgNotAnInstant = "must be an ISO-8601 instant"
)

// FromExternalClaims строит транзиентного пользователя из атрибутов токена.
// Отсутствующий ключ оставляет поле пустым. Ключ со значением nil или
// не строкой - ошибка валидации. Повторяющиеся роли схлопываются.
func FromExternalClaims(claims map[string]any, roles []string) (*User, error) {
	params := UserParams{Authorities: roles}
	if params.Authorities == nil {
		params.Authorities = []string{}
	}

	var errs []error
	params.Email, errs = stringClaim(claims, ClaimEmail, fieldEmail, errs)
	params.Lastname, errs = stringClaim(claims, ClaimLastname, fieldLastname, errs)
	params.Firstname, errs = stringClaim(claims, ClaimFirstname, fieldFirstname, errs)
	params.ImageURL, errs = stringClaim(claims, ClaimPicture, fieldImageURL, errs)

	if raw, ok := claims[ClaimLastSignedIn]; ok {
		lastSeen, err := parseInstant(raw)
		if err != nil {
			errs = append(errs, err)
		}
		params.LastSeen = lastSeen
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return NewUser(params)
}

func stringClaim(claims map[string]any, key, field string, errs []error) (*string, []error) {
	raw, ok := claims[key]
	if !ok {
		return nil, errs
	}
	switch v := raw.(type) {
	case nil:
		return nil, append(errs, values.Required(field))
	case string:
		return &v, errs
	default:
		return nil, append(errs, values.NewFieldError(field, msgNotString))
	}
}

func parseInstant(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, values.Required(fieldLastSeen)
	case time.Time:
		return v.UTC(), nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, values.NewFieldError(fieldLastSeen, msgNotAnInstant)
		}
		return t.UTC(), nil
	default:
		return time.Time{}, values.NewFieldError(fieldLastSeen, msgNotAnInstant)
	}
}
