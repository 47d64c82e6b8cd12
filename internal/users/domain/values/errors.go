// Package values содержит самопроверяющиеся объекты-значения домена пользователей.
package values

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrValidation - базовая ошибка нарушения ограничения поля.
var ErrValidation = errors.New("validation failed")

// Сообщения о нарушениях.
const (
	msgRequired  = "must not be null"
	msgBlank     = "must not be blank"
	msgMaxLength = "length must not exceed %d characters"
	msgNilUUID   = "must not be the nil UUID"
)

// FieldError описывает нарушение ограничения конкретного поля.
type FieldError struct {
	Field   string
	Message string
}

// NewFieldError создает ошибку нарушения для поля field.
func NewFieldError(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap позволяет классифицировать ошибку через errors.Is(err, ErrValidation).
func (e *FieldError) Unwrap() error {
	return ErrValidation
}

// Required возвращает ошибку отсутствующего значения поля.
func Required(field string) error {
	return NewFieldError(field, msgRequired)
}

func checkMaxLength(field, value string, limit int) error {
	if utf8.RuneCountInString(value) > limit {
		return NewFieldError(field, fmt.Sprintf(msgMaxLength, limit))
	}
	return nil
}

func checkNotBlank(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return NewFieldError(field, msgBlank)
	}
	return nil
}

// FieldErrors разворачивает цепочку err, в том числе объединенные через errors.Join
// ошибки, и возвращает все нарушения полей в порядке обхода.
func FieldErrors(err error) []*FieldError {
	switch e := err.(type) {
	case nil:
		return nil
	case *FieldError:
		return []*FieldError{e}
	case interface{ Unwrap() []error }:
		var out []*FieldError
		for _, inner := range e.Unwrap() {
			out = append(out, FieldErrors(inner)...)
		}
		return out
	case interface{ Unwrap() error }:
		return FieldErrors(e.Unwrap())
	default:
		return nil
	}
}
