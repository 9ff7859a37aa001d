package auth

import (
	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// Verify parses and cryptographically verifies an access token against the
// key set, matching the kid from the token header. Callers still run
// Validate on the returned claims.
func (ks *KeyStore) Verify(tokenString string) (*AccessTokenClaims, error) {
	verifiedToken, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKeySet(ks.KeySet, jws.WithInferAlgorithmFromKey(true)),
	)
	if err != nil {
		return nil, err
	}

	return &AccessTokenClaims{Token: verifiedToken}, nil
}
