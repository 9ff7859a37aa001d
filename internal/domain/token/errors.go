package token

import "errors"

var (
	// ErrInvalidToken is returned when the presented secret matches no record
	ErrInvalidToken = errors.New("invalid refresh token")

	// ErrExpiredToken is returned when the record's TTL has passed; ordinary
	// expiry is not treated as evidence of compromise
	ErrExpiredToken = errors.New("refresh token expired")

	// ErrReuseDetected is returned when an already-consumed or revoked secret
	// is replayed; the whole family is revoked before this error is returned
	ErrReuseDetected = errors.New("refresh token reuse detected")

	// ErrRotationLimitReached is returned when a chain would exceed the
	// configured rotation ceiling; the family is revoked
	ErrRotationLimitReached = errors.New("rotation limit reached")

	// ErrPrincipalInactive is returned when issuance is attempted for an
	// unknown or deactivated principal
	ErrPrincipalInactive = errors.New("principal inactive")

	// ErrTokenNotFound is the store-level sentinel for a hash miss
	ErrTokenNotFound = errors.New("refresh token not found")
)
