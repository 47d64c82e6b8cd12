package values

const authorityNameMaxLength = 50

// AuthorityName - идентификатор роли, например ROLE_ADMIN.
type AuthorityName struct {
	value string
}

func NewAuthorityName(value string) (AuthorityName, error) {
	if err := checkNotBlank("authority", value); err != nil {
		return AuthorityName{}, err
	}
	if err := checkMaxLength("authority", value, authorityNameMaxLength); err != nil {
		return AuthorityName{}, err
	}
	return AuthorityName{value: value}, nil
}

func (a AuthorityName) Value() string { return a.value }
