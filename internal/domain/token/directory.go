package token

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ListSessions returns one entry per live family for the principal: the
// current head of each rotation chain, with the family's creation time and
// the client metadata captured at the last rotation.
func (s *Service) ListSessions(principalID uuid.UUID) ([]Session, error) {
	heads, err := s.store.ListActiveForPrincipal(principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]Session, 0, len(heads))
	for _, head := range heads {
		createdAt := head.IssuedAt
		root, err := s.store.FindFamilyRoot(head.FamilyID)
		if err != nil && !errors.Is(err, ErrTokenNotFound) {
			return nil, fmt.Errorf("failed to resolve family root: %w", err)
		}
		if root != nil {
			createdAt = root.IssuedAt
		}

		sessions = append(sessions, Session{
			FamilyID:    head.FamilyID,
			CreatedAt:   createdAt,
			LastUsedAt:  head.IssuedAt,
			Fingerprint: head.Fingerprint(),
		})
	}

	return sessions, nil
}
