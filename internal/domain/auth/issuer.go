package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// Issuer mints short-lived stateless access tokens. Nothing it produces is
// ever persisted; revocation of still-valid access tokens is delegated to an
// external denylist fed by the revocation cache.
type Issuer struct {
	keys   *KeyStore
	issuer string
	ttl    time.Duration
}

// NewIssuer creates an access token Issuer.
func NewIssuer(keys *KeyStore, issuer string, ttl time.Duration) *Issuer {
	return &Issuer{keys: keys, issuer: issuer, ttl: ttl}
}

// IssueAccessToken mints a signed access token for the principal.
func (i *Issuer) IssueAccessToken(principalID, role string) (string, error) {
	now := time.Now()

	tok, err := jwt.NewBuilder().
		Subject(principalID).
		Issuer(i.issuer).
		IssuedAt(now).
		Expiration(now.Add(i.ttl)).
		JwtID(uuid.NewString()).
		Claim("role", role).
		Claim("typ", TokenTypeAccess).
		Build()
	if err != nil {
		return "", err
	}

	return i.keys.Sign(&AccessTokenClaims{Token: tok})
}
