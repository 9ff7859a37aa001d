package token

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is the persistence contract for refresh token records. It is the sole
// source of truth for refresh token validity; Transition is the single atomic
// conditional write every concurrent rotation race is decided by.
type Store interface {
	Create(rec *RefreshToken) error
	FindByHash(hash string) (*RefreshToken, error)
	Transition(id uuid.UUID, expected, next State, extra map[string]any) (bool, error)
	RevokeFamily(familyID uuid.UUID, reason string) error
	RevokeAllForPrincipal(principalID uuid.UUID, reason string) (int64, error)
	ListActiveForPrincipal(principalID uuid.UUID) ([]RefreshToken, error)
	FindFamilyRoot(familyID uuid.UUID) (*RefreshToken, error)
	DeleteExpiredBefore(t time.Time) (int64, error)
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a Postgres-backed Store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db}
}

func (s *gormStore) Create(rec *RefreshToken) error {
	return s.db.Create(rec).Error
}

func (s *gormStore) FindByHash(hash string) (*RefreshToken, error) {
	var rec RefreshToken
	err := s.db.Where("token_hash = ?", hash).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Transition performs the conditional state change in a single round trip.
// It reports false when the record was not in the expected state, which is how
// a lost rotation race surfaces.
func (s *gormStore) Transition(id uuid.UUID, expected, next State, extra map[string]any) (bool, error) {
	updates := map[string]any{"state": next}
	for k, v := range extra {
		updates[k] = v
	}

	res := s.db.Model(&RefreshToken{}).
		Where("id = ? AND state = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected == 1, nil
}

func (s *gormStore) RevokeFamily(familyID uuid.UUID, reason string) error {
	// already-revoked rows keep their original revoked_at and reason
	return s.db.Model(&RefreshToken{}).
		Where("family_id = ? AND state <> ?", familyID, StateRevoked).
		Updates(map[string]any{
			"state":          StateRevoked,
			"revoked_at":     time.Now().UTC(),
			"revoked_reason": reason,
		}).Error
}

func (s *gormStore) RevokeAllForPrincipal(principalID uuid.UUID, reason string) (int64, error) {
	res := s.db.Model(&RefreshToken{}).
		Where("principal_id = ? AND state <> ?", principalID, StateRevoked).
		Updates(map[string]any{
			"state":          StateRevoked,
			"revoked_at":     time.Now().UTC(),
			"revoked_reason": reason,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (s *gormStore) ListActiveForPrincipal(principalID uuid.UUID) ([]RefreshToken, error) {
	var recs []RefreshToken
	err := s.db.
		Where("principal_id = ? AND state = ? AND expires_at > ?", principalID, StateActive, time.Now().UTC()).
		Order("issued_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *gormStore) FindFamilyRoot(familyID uuid.UUID) (*RefreshToken, error) {
	var rec RefreshToken
	err := s.db.Where("family_id = ? AND rotation_index = 0", familyID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// DeleteExpiredBefore is the external housekeeping hook. The engine itself
// never hard-deletes records.
func (s *gormStore) DeleteExpiredBefore(t time.Time) (int64, error) {
	res := s.db.Where("expires_at < ?", t).Delete(&RefreshToken{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
