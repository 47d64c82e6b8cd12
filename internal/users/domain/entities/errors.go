package entities

import (
	"errors"
	"fmt"
)

// Ошибки домена пользователя.
var (
	ErrUserNotFound            = errors.New("user not found")
	ErrDomainInvariant         = errors.New("domain invariant violated")
	ErrPublicIDAlreadyAssigned = errors.New("public id is already assigned")
)

// InvariantError сообщает об отсутствии обязательного поля агрегата.
type InvariantError struct {
	Field string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("mandatory field %q is missing", e.Field)
}

func (e *InvariantError) Unwrap() error {
	return ErrDomainInvariant
}
