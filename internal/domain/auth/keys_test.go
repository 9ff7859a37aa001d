package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestKey(t *testing.T, dir, kid string) *rsa.PrivateKey {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)

	pemData := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	path := filepath.Join(dir, "private-"+kid+".pem")
	require.NoError(t, os.WriteFile(path, pemData, 0o600))

	return priv
}

func loadTestKeyStore(t *testing.T, activeKid string, kids ...string) *KeyStore {
	t.Helper()

	dir := t.TempDir()
	for _, kid := range kids {
		writeTestKey(t, dir, kid)
	}

	ks, err := LoadKeys(dir, activeKid)
	require.NoError(t, err)
	return ks
}

func TestLoadKeys(t *testing.T) {
	ks := loadTestKeyStore(t, "2025-01", "2025-01", "2024-07")

	assert.Equal(t, 2, ks.KeySet.Len())

	key, err := ks.GetActiveKey()
	require.NoError(t, err)

	kid, ok := key.KeyID()
	require.True(t, ok)
	assert.Equal(t, "key-2025-01", kid)
}

func TestLoadKeys_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	writeTestKey(t, dir, "2025-01")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "public-2025-01.pem"), []byte("not a private key"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("keys"), 0o644))

	ks, err := LoadKeys(dir, "2025-01")
	require.NoError(t, err)
	assert.Equal(t, 1, ks.KeySet.Len())
}

func TestLoadKeys_MissingDirectory(t *testing.T) {
	_, err := LoadKeys(filepath.Join(t.TempDir(), "nope"), "2025-01")
	assert.Error(t, err)
}

func TestKeyStore_GetActiveKey_Unknown(t *testing.T) {
	ks := loadTestKeyStore(t, "missing", "2025-01")

	_, err := ks.GetActiveKey()
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestKeyStore_JWKS(t *testing.T) {
	ks := loadTestKeyStore(t, "2025-01", "2025-01")

	public := ks.JWKS()
	require.Equal(t, 1, public.Len())

	key, ok := public.Key(0)
	require.True(t, ok)

	// the published set must not leak private material
	_, isPrivate := key.(jwk.RSAPrivateKey)
	assert.False(t, isPrivate)
}

func TestIssuer_SignVerifyRoundtrip(t *testing.T) {
	ks := loadTestKeyStore(t, "2025-01", "2025-01")
	issuer := NewIssuer(ks, "tokenly-test", time.Minute)

	principalID := uuid.NewString()
	signed, err := issuer.IssueAccessToken(principalID, "student")
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := ks.Verify(signed)
	require.NoError(t, err)

	assert.Equal(t, principalID, claims.Subject())
	assert.Equal(t, "tokenly-test", claims.Issuer())
	assert.Equal(t, "student", claims.Role())
	assert.Equal(t, TokenTypeAccess, claims.TokenType())
	assert.NotEmpty(t, claims.ID())

	assert.NoError(t, claims.Validate("tokenly-test"))
	assert.Error(t, claims.Validate("someone-else"))
}

func TestIssuer_UniqueTokenIDs(t *testing.T) {
	ks := loadTestKeyStore(t, "2025-01", "2025-01")
	issuer := NewIssuer(ks, "tokenly-test", time.Minute)

	first, err := issuer.IssueAccessToken(uuid.NewString(), "student")
	require.NoError(t, err)
	second, err := issuer.IssueAccessToken(uuid.NewString(), "student")
	require.NoError(t, err)

	firstClaims, err := ks.Verify(first)
	require.NoError(t, err)
	secondClaims, err := ks.Verify(second)
	require.NoError(t, err)

	assert.NotEqual(t, firstClaims.ID(), secondClaims.ID())
}

func TestKeyStore_Verify_WrongKey(t *testing.T) {
	signing := loadTestKeyStore(t, "2025-01", "2025-01")
	other := loadTestKeyStore(t, "2025-01", "2025-01")

	issuer := NewIssuer(signing, "tokenly-test", time.Minute)
	signed, err := issuer.IssueAccessToken(uuid.NewString(), "student")
	require.NoError(t, err)

	_, err = other.Verify(signed)
	assert.Error(t, err)
}

func TestAccessTokenClaims_Validate(t *testing.T) {
	buildToken := func(t *testing.T, mutate func(*jwt.Builder) *jwt.Builder) *AccessTokenClaims {
		t.Helper()
		now := time.Now()
		b := jwt.NewBuilder().
			Subject(uuid.NewString()).
			Issuer("tokenly-test").
			IssuedAt(now).
			Expiration(now.Add(time.Minute)).
			Claim("typ", TokenTypeAccess)
		if mutate != nil {
			b = mutate(b)
		}
		tok, err := b.Build()
		require.NoError(t, err)
		return &AccessTokenClaims{Token: tok}
	}

	t.Run("valid token", func(t *testing.T) {
		claims := buildToken(t, nil)
		assert.NoError(t, claims.Validate("tokenly-test"))
	})

	t.Run("expired token", func(t *testing.T) {
		claims := buildToken(t, func(b *jwt.Builder) *jwt.Builder {
			return b.Expiration(time.Now().Add(-time.Minute))
		})
		assert.Error(t, claims.Validate("tokenly-test"))
	})

	t.Run("wrong token type", func(t *testing.T) {
		claims := buildToken(t, func(b *jwt.Builder) *jwt.Builder {
			return b.Claim("typ", "refresh")
		})
		assert.Error(t, claims.Validate("tokenly-test"))
	})

	t.Run("issuer mismatch", func(t *testing.T) {
		claims := buildToken(t, func(b *jwt.Builder) *jwt.Builder {
			return b.Issuer("impostor")
		})
		assert.Error(t, claims.Validate("tokenly-test"))
	})
}
