package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrHashingFailed   = errors.New("password hashing failed")
	ErrMismatch        = errors.New("password does not match")
	ErrInvalidInput    = errors.New("password and hash must not be empty")
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

const DefaultCost = bcrypt.DefaultCost

// Hash produces the value stored in OPERATOR_PASSWORD_HASH.
func Hash(password string) (string, error) {
	if password == "" {
		return "", ErrInvalidInput
	}
	if len(password) > 72 {
		return "", ErrPasswordTooLong
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), DefaultCost)
	if err != nil {
		return "", ErrHashingFailed
	}
	return string(hashedBytes), nil
}

func Verify(hashedPassword, password string) error {
	if hashedPassword == "" || password == "" {
		return ErrInvalidInput
	}

	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatch
		}
		return err
	}
	return nil
}
