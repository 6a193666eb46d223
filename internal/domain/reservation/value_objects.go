package reservation

import (
	"net/mail"
	"strings"

	"mechanic-booking/internal/pkg/errs"
)

type Customer struct {
	Name    string
	Phone   string
	Email   string
	Address string
	Vehicle string
}

func NewCustomer(name, phone, email, address, vehicle string) Customer {
	return Customer{
		Name:    strings.TrimSpace(name),
		Phone:   strings.TrimSpace(phone),
		Email:   strings.TrimSpace(email),
		Address: strings.TrimSpace(address),
		Vehicle: strings.TrimSpace(vehicle),
	}
}

func (c Customer) Validate() []errs.FieldError {
	var out []errs.FieldError
	required := []struct{ field, value string }{
		{"customer.name", c.Name},
		{"customer.phone", c.Phone},
		{"customer.email", c.Email},
		{"customer.address", c.Address},
		{"customer.vehicle", c.Vehicle},
	}
	for _, r := range required {
		if r.value == "" {
			out = append(out, errs.FieldError{Field: r.field, Message: "is required"})
		}
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			out = append(out, errs.FieldError{Field: "customer.email", Message: "is not a valid email address"})
		}
	}
	return out
}
