package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/sharenest/sharenest/internal/common"
)

// HashPassword produces a bcrypt hash for the operator password. Used by
// deployment tooling to mint the configured hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a candidate password against the stored bcrypt
// hash and reports ErrUnauthorized on mismatch.
func CheckPassword(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return common.ErrUnauthorized
	}
	return nil
}
