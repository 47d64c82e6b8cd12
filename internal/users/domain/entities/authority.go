package entities

import (
	"errors"
	"slices"
	"strings"

	"ecomshop/internal/users/domain/values"
)

// Authority - роль пользователя. Две роли равны, если совпадают имена.
type Authority struct {
	name values.AuthorityName
}

// NewAuthority создает роль с проверенным именем.
func NewAuthority(name string) (Authority, error) {
	authorityName, err := values.NewAuthorityName(name)
	if err != nil {
		return Authority{}, err
	}
	return Authority{name: authorityName}, nil
}

func (a Authority) Name() values.AuthorityName { return a.name }

// Authorities - множество ролей без повторов, упорядоченное по имени.
type Authorities []Authority

// NewAuthorities строит множество из имен ролей, схлопывая повторы.
// Результат не равен nil даже для пустого списка.
func NewAuthorities(names ...string) (Authorities, error) {
	set := make(Authorities, 0, len(names))
	var errs []error
	for _, name := range names {
		authority, err := NewAuthority(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !set.Contains(name) {
			set = append(set, authority)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	slices.SortFunc(set, func(a, b Authority) int {
		return strings.Compare(a.name.Value(), b.name.Value())
	})
	return set, nil
}

// Contains сообщает, есть ли в множестве роль name.
func (a Authorities) Contains(name string) bool {
	return slices.ContainsFunc(a, func(authority Authority) bool {
		return authority.name.Value() == name
	})
}

// Names возвращает имена ролей в порядке множества.
func (a Authorities) Names() []string {
	names := make([]string, len(a))
	for i, authority := range a {
		names[i] = authority.name.Value()
	}
	return names
}
