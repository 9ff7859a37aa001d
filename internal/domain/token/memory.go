package token

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a mutex-guarded in-memory Store with the same conditional
// transition semantics as the Postgres store. It backs unit tests and
// single-process embedded deployments.
type MemoryStore struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]*RefreshToken
	byHash map[string]uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[uuid.UUID]*RefreshToken),
		byHash: make(map[string]uuid.UUID),
	}
}

func (s *MemoryStore) Create(rec *RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if _, exists := s.byHash[rec.TokenHash]; exists {
		return fmt.Errorf("duplicate token hash")
	}

	cp := *rec
	s.byID[cp.ID] = &cp
	s.byHash[cp.TokenHash] = cp.ID
	return nil
}

func (s *MemoryStore) FindByHash(hash string) (*RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byHash[hash]
	if !ok {
		return nil, ErrTokenNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *MemoryStore) Transition(id uuid.UUID, expected, next State, extra map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok || rec.State != expected {
		return false, nil
	}

	rec.State = next
	applyExtra(rec, extra)
	return true, nil
}

func (s *MemoryStore) RevokeFamily(familyID uuid.UUID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, rec := range s.byID {
		if rec.FamilyID == familyID && rec.State != StateRevoked {
			rec.State = StateRevoked
			rec.RevokedAt = &now
			rec.RevokedReason = reason
		}
	}
	return nil
}

func (s *MemoryStore) RevokeAllForPrincipal(principalID uuid.UUID, reason string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	var count int64
	for _, rec := range s.byID {
		if rec.PrincipalID == principalID && rec.State != StateRevoked {
			rec.State = StateRevoked
			rec.RevokedAt = &now
			rec.RevokedReason = reason
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) ListActiveForPrincipal(principalID uuid.UUID) ([]RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	var recs []RefreshToken
	for _, rec := range s.byID {
		if rec.PrincipalID == principalID && rec.State == StateActive && rec.ExpiresAt.After(now) {
			recs = append(recs, *rec)
		}
	}
	return recs, nil
}

func (s *MemoryStore) FindFamilyRoot(familyID uuid.UUID) (*RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.byID {
		if rec.FamilyID == familyID && rec.RotationIndex == 0 {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, ErrTokenNotFound
}

func (s *MemoryStore) DeleteExpiredBefore(t time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for id, rec := range s.byID {
		if rec.ExpiresAt.Before(t) {
			delete(s.byHash, rec.TokenHash)
			delete(s.byID, id)
			count++
		}
	}
	return count, nil
}

func applyExtra(rec *RefreshToken, extra map[string]any) {
	for k, v := range extra {
		switch k {
		case "used_at":
			if t, ok := v.(time.Time); ok {
				rec.UsedAt = &t
			}
		case "revoked_at":
			if t, ok := v.(time.Time); ok {
				rec.RevokedAt = &t
			}
		case "revoked_reason":
			if r, ok := v.(string); ok {
				rec.RevokedReason = r
			}
		}
	}
}
