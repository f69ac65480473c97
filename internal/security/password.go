// Package security hashes the local teacher password and mints random
// secrets for session signing.
package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 12

	// PasswordCost is the bcrypt cost for new hashes; stored hashes below it
	// are treated as weakened and refused.
	PasswordCost = bcrypt.DefaultCost
)

var ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)

// HashPassword returns a bcrypt hash. bcrypt.ErrPasswordTooLong comes back
// for passwords over 72 bytes.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports false for any malformed or weakened hash.
func VerifyPassword(password, encoded string) bool {
	cost, err := bcrypt.Cost([]byte(encoded))
	if err != nil || cost < PasswordCost {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)) == nil
}

// RandomSecret returns n random bytes encoded as unpadded URL-safe base64.
func RandomSecret(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("secret length must be positive")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
