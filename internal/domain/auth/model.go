package auth

import (
	"errors"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwt"
)

// TokenTypeAccess is the value of the "typ" claim on access tokens.
const TokenTypeAccess = "access"

// AccessTokenClaims wraps a verified jwt.Token with typed accessors for the
// claims this engine mints.
type AccessTokenClaims struct {
	Token jwt.Token
}

// Subject returns the principal id the token was minted for.
func (c *AccessTokenClaims) Subject() string {
	sub, _ := c.Token.Subject()
	return sub
}

func (c *AccessTokenClaims) Issuer() string {
	iss, _ := c.Token.Issuer()
	return iss
}

func (c *AccessTokenClaims) IssuedAt() time.Time {
	iat, _ := c.Token.IssuedAt()
	return iat
}

func (c *AccessTokenClaims) Expiration() time.Time {
	exp, _ := c.Token.Expiration()
	return exp
}

// ID returns the unique token id (jti claim).
func (c *AccessTokenClaims) ID() string {
	jti, _ := c.Token.JwtID()
	return jti
}

// Role returns the role claim carried over from the principal directory.
func (c *AccessTokenClaims) Role() string {
	return c.stringClaim("role")
}

// TokenType returns the "typ" claim; only "access" tokens pass Validate.
func (c *AccessTokenClaims) TokenType() string {
	return c.stringClaim("typ")
}

func (c *AccessTokenClaims) stringClaim(name string) string {
	var v any
	if c.Token.Get(name, &v) == nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Validate validates standard claims plus the token type.
func (c *AccessTokenClaims) Validate(issuer string) error {
	exp := c.Expiration()
	if exp.IsZero() {
		return errors.New("token missing expiration claim")
	}
	if time.Now().After(exp) {
		return errors.New("token expired")
	}

	if issuer != "" && c.Issuer() != issuer {
		return errors.New("token issuer mismatch")
	}

	if c.TokenType() != TokenTypeAccess {
		return errors.New("token type mismatch")
	}

	return nil
}
