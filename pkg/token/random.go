package token

import (
	"crypto/rand"
	"encoding/base64"
)

// SecretLength is the size of locally generated secrets in bytes.
const SecretLength = 32

// GenerateBytes returns length random bytes from crypto/rand.
func GenerateBytes(length int) ([]byte, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Generate returns a random secret encoded as base64 RawURL.
func Generate() (string, error) {
	b, err := GenerateBytes(SecretLength)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
