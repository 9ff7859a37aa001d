package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/Anvoria/tokenly/internal/audit"
	"github.com/google/uuid"
)

// Revoke ends the chain the presented secret belongs to ("logout"). Only the
// matching record is revoked; earlier links of the chain are already used and
// other devices' families stay valid. Revoking an already-dead record is a
// no-op success.
func (s *Service) Revoke(secret, reason string) error {
	rec, err := s.store.FindByHash(hashSecret(secret))
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	if reason == "" {
		reason = ReasonLogout
	}

	now := time.Now().UTC()
	ok, err := s.store.Transition(rec.ID, StateActive, StateRevoked, map[string]any{
		"revoked_at":     now,
		"revoked_reason": reason,
	})
	if err != nil {
		return err
	}
	if !ok {
		// already used or revoked; logout is idempotent
		return nil
	}

	s.publishRevocation(rec.FamilyID)
	s.emit(audit.Event{
		Type:        audit.EventTokenRevoked,
		PrincipalID: rec.PrincipalID.String(),
		FamilyID:    rec.FamilyID.String(),
		TokenID:     rec.ID.String(),
		Reason:      reason,
	})

	return nil
}

// RevokeAll revokes every family for the principal ("sign out everywhere",
// password change, compromise flags). Returns the number of records revoked;
// zero is a success, not an error.
func (s *Service) RevokeAll(principalID uuid.UUID, reason string) (int64, error) {
	if reason == "" {
		reason = ReasonLogoutAll
	}

	count, err := s.store.RevokeAllForPrincipal(principalID, reason)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke principal tokens: %w", err)
	}

	if count > 0 {
		s.emit(audit.Event{
			Type:        audit.EventFamilyRevoked,
			PrincipalID: principalID.String(),
			Reason:      reason,
		})
	}

	return count, nil
}

// RevokeFamily revokes one named family, the selective per-device revocation
// behind the session directory. Idempotent.
func (s *Service) RevokeFamily(familyID uuid.UUID, reason string) error {
	if reason == "" {
		reason = ReasonLogout
	}

	if err := s.store.RevokeFamily(familyID, reason); err != nil {
		return fmt.Errorf("failed to revoke family: %w", err)
	}

	s.publishRevocation(familyID)
	s.emit(audit.Event{
		Type:     audit.EventFamilyRevoked,
		FamilyID: familyID.String(),
		Reason:   reason,
	})

	return nil
}
