// Package password wraps bcrypt hashing behind the domain error taxonomy.
package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/wikigo/backend/domain"
)

// Hash derives a bcrypt hash from a plaintext password.
func Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", domain.NewHashingError(err)
	}
	return string(hash), nil
}

// Verify checks a plaintext password against a stored hash. A mismatch is a
// client error; anything else (malformed hash) is a system fault.
func Verify(plain, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return domain.ErrUserInvalidPassword
	}
	return domain.NewHashingError(err)
}
