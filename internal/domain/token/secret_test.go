package token

import (
	"encoding/base64"
	"testing"
)

func TestGenerateSecret(t *testing.T) {
	first, err := generateSecret()
	if err != nil {
		t.Fatalf("generateSecret() unexpected error: %v", err)
	}
	second, err := generateSecret()
	if err != nil {
		t.Fatalf("generateSecret() unexpected error: %v", err)
	}

	if first == second {
		t.Errorf("generateSecret() returned identical secrets")
	}

	raw, err := base64.RawURLEncoding.DecodeString(first)
	if err != nil {
		t.Fatalf("secret is not valid base64url: %v", err)
	}
	if len(raw) != secretLength {
		t.Errorf("secret entropy = %d bytes, want %d", len(raw), secretLength)
	}
}

func TestHashSecret(t *testing.T) {
	secret := "some-refresh-secret"

	if hashSecret(secret) != hashSecret(secret) {
		t.Errorf("hashSecret() must be deterministic")
	}
	if hashSecret(secret) == hashSecret(secret+"x") {
		t.Errorf("hashSecret() collided on different inputs")
	}
	if hashSecret(secret) == secret {
		t.Errorf("hashSecret() must not return the plaintext secret")
	}
}
