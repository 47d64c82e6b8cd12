package http

import (
	"time"

	"ecomshop/internal/users/domain/entities"
)

// AddressRequest - тело PUT /api/users/authenticated/address.
type AddressRequest struct {
	Street  string `json:"street" validate:"notblank,max=255"`
	City    string `json:"city" validate:"notblank,max=255"`
	ZipCode string `json:"zip_code" validate:"notblank,max=20"`
	Country string `json:"country" validate:"notblank,max=255"`
}

// RestAddress - адрес в ответе.
type RestAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

// RestUser - пользователь в ответе API.
type RestUser struct {
	PublicID         string       `json:"public_id"`
	FirstName        string       `json:"first_name,omitempty"`
	LastName         string       `json:"last_name,omitempty"`
	Email            string       `json:"email"`
	ImageURL         string       `json:"image_url,omitempty"`
	Address          *RestAddress `json:"address,omitempty"`
	LastSeen         *time.Time   `json:"last_seen,omitempty"`
	CreatedDate      *time.Time   `json:"created_date,omitempty"`
	LastModifiedDate *time.Time   `json:"last_modified_date,omitempty"`
	Authorities      []string     `json:"authorities"`
}

// NewRestUser строит ответ по агрегату.
func NewRestUser(user *entities.User) RestUser {
	out := RestUser{Authorities: user.Authorities().Names()}
	if id, ok := user.PublicID(); ok {
		out.PublicID = id.String()
	}
	if v, ok := user.Firstname(); ok {
		out.FirstName = v.Value()
	}
	if v, ok := user.Lastname(); ok {
		out.LastName = v.Value()
	}
	if v, ok := user.Email(); ok {
		out.Email = v.Value()
	}
	if v, ok := user.ImageURL(); ok {
		out.ImageURL = v.Value()
	}
	if a, ok := user.Address(); ok {
		out.Address = &RestAddress{Street: a.Street(), City: a.City(), ZipCode: a.ZipCode(), Country: a.Country()}
	}
	out.LastSeen = timestamp(user.LastSeen())
	out.CreatedDate = timestamp(user.CreatedDate())
	out.LastModifiedDate = timestamp(user.LastModifiedDate())
	return out
}

// timestamp скрывает незаполненные временные метки.
func timestamp(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
