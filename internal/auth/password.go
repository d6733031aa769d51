package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordRequired is returned by ValidatePassword for empty passwords.
var ErrPasswordRequired = errors.New("password required")

// ValidatePassword rejects empty passwords. No further policy is enforced.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	return nil
}

// HashPassword returns a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the password matches the stored hash.
func CheckPassword(password, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}
