package token

import (
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/crypto/sha3"
)

const secretLength = 32 // 256 bits of entropy

// generateSecret generates a random refresh secret. The plaintext value is
// handed to the client exactly once and never persisted.
func generateSecret() (string, error) {
	b := make([]byte, secretLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// hashSecret hashes the secret using SHA-3-256
func hashSecret(secret string) string {
	h := sha3.Sum256([]byte(secret))
	return base64.RawStdEncoding.EncodeToString(h[:])
}
