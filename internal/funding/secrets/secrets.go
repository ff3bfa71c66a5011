// Package secrets issues and verifies the per-project instance keys the
// registry hands to escrow engines at creation. Only the bcrypt hash is
// persisted; the plaintext key lives with the engine that presents it when
// reporting donations.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "givepool/pkg/domain-errors"
)

// Generate creates a cryptographically secure random instance key,
// base64-encoded.
func Generate() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate instance key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Hash creates a bcrypt hash of the provided key for persistence.
func Hash(key string) (string, error) {
	if key == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "instance key cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "instance key is too long")
		}
		return "", fmt.Errorf("could not hash instance key: %w", err)
	}
	return string(hashed), nil
}

// Verify checks a plaintext key against its stored bcrypt hash.
func Verify(key, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return dErrors.New(dErrors.CodeUnauthorized, "instance key does not match")
		}
		return fmt.Errorf("could not verify instance key: %w", err)
	}
	return nil
}
