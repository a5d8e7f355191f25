// Package crypto provides cryptographic utilities for RecipeBook.
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// SecretLength is the number of random bytes in a generated signing secret.
const SecretLength = 48

// GenerateSecret returns a random URL-safe secret suitable for auth.jwt_secret.
func GenerateSecret() (string, error) {
	b := make([]byte, SecretLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
