package values

import (
	"errors"
)

const (
	addressPartMaxLength = 255
	zipCodeMaxLength     = 20
)

// Address - почтовый адрес пользователя. Все части обязательны.
type Address struct {
	street  string
	city    string
	zipCode string
	country string
}

// AddressParams - входные данные для NewAddress.
type AddressParams struct {
	Street  string
	City    string
	ZipCode string
	Country string
}

// NewAddress проверяет все части адреса и возвращает все нарушения сразу.
func NewAddress(p AddressParams) (Address, error) {
	err := errors.Join(
		addressPart("street", p.Street, addressPartMaxLength),
		addressPart("city", p.City, addressPartMaxLength),
		addressPart("zipCode", p.ZipCode, zipCodeMaxLength),
		addressPart("country", p.Country, addressPartMaxLength),
	)
	if err != nil {
		return Address{}, err
	}
	return Address{street: p.Street, city: p.City, zipCode: p.ZipCode, country: p.Country}, nil
}

func addressPart(field, value string, limit int) error {
	if err := checkNotBlank(field, value); err != nil {
		return err
	}
	return checkMaxLength(field, value, limit)
}

func (a Address) Street() string  { return a.street }
func (a Address) City() string    { return a.city }
func (a Address) ZipCode() string { return a.zipCode }
func (a Address) Country() string { return a.country }

// AddressPatch - запрос на замену адреса пользователя с данным PublicID.
type AddressPatch struct {
	publicID PublicID
	address  Address
}

func NewAddressPatch(publicID PublicID, address Address) (AddressPatch, error) {
	if publicID == (PublicID{}) {
		return AddressPatch{}, Required("publicId")
	}
	if address == (Address{}) {
		return AddressPatch{}, Required("address")
	}
	return AddressPatch{publicID: publicID, address: address}, nil
}

func (p AddressPatch) PublicID() PublicID { return p.publicID }
func (p AddressPatch) Address() Address   { return p.address }
