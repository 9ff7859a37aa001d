package token

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Anvoria/tokenly/internal/audit"
	"github.com/Anvoria/tokenly/internal/cache"
	"github.com/Anvoria/tokenly/internal/config"
	"github.com/Anvoria/tokenly/internal/database"
	"github.com/Anvoria/tokenly/internal/domain/principal"
	"github.com/google/uuid"
)

// AccessTokenSigner mints stateless signed access tokens. Access tokens are
// never persisted; their validity is purely cryptographic plus expiry.
type AccessTokenSigner interface {
	IssueAccessToken(principalID, role string) (string, error)
}

// IssueResult carries everything a client needs after initial issuance. The
// refresh secret is returned exactly once and cannot be recovered later.
type IssueResult struct {
	AccessToken   string    `json:"access_token"`
	RefreshSecret string    `json:"refresh_secret"`
	FamilyID      uuid.UUID `json:"family_id"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// RotateResult carries the replacement token pair after a successful rotation.
type RotateResult struct {
	AccessToken   string    `json:"access_token"`
	RefreshSecret string    `json:"refresh_secret"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Service is the refresh token engine: issuance, rotation with replay
// detection, revocation and the session directory. All correctness under
// concurrency comes from the store's atomic conditional transition; the
// service holds no locks and is safe across replicas sharing one store.
type Service struct {
	store        Store
	principals   principal.Repository
	signer       AccessTokenSigner
	refreshTTL   time.Duration
	maxRotations int
	auditSink    audit.Sink
	revocations  *cache.RevocationCache
}

// NewService creates a token Service without audit or revocation-cache wiring.
func NewService(store Store, principals principal.Repository, signer AccessTokenSigner, cfg *config.TokenConfig) *Service {
	return &Service{
		store:        store,
		principals:   principals,
		signer:       signer,
		refreshTTL:   cfg.RefreshTokenTTL(),
		maxRotations: cfg.RotationCeiling(),
	}
}

// NewServiceWithObservers additionally wires an audit sink and a revocation
// cache. Either may be nil; the service then operates without it.
func NewServiceWithObservers(store Store, principals principal.Repository, signer AccessTokenSigner, cfg *config.TokenConfig, sink audit.Sink, revocations *cache.RevocationCache) *Service {
	s := NewService(store, principals, signer, cfg)
	s.auditSink = sink
	s.revocations = revocations
	return s
}

// Issue mints the first token of a new family for the principal. The
// principal directory is consulted for existence and active status here and
// only here; rotations live and die with the chain itself.
func (s *Service) Issue(principalID uuid.UUID, fp Fingerprint) (*IssueResult, error) {
	p, err := s.principals.FindByID(principalID)
	if err != nil {
		if errors.Is(err, principal.ErrPrincipalNotFound) {
			return nil, ErrPrincipalInactive
		}
		return nil, err
	}
	if !p.IsActive {
		return nil, ErrPrincipalInactive
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh secret: %w", err)
	}

	access, err := s.signer.IssueAccessToken(p.ID.String(), p.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	now := time.Now().UTC()
	rec := &RefreshToken{
		BaseModel:     database.BaseModel{ID: uuid.New()},
		PrincipalID:   principalID,
		TokenHash:     hashSecret(secret),
		FamilyID:      uuid.New(),
		RotationIndex: 0,
		IssuedAt:      now,
		ExpiresAt:     now.Add(s.refreshTTL),
		State:         StateActive,
		IPAddress:     fp.IPAddress,
		UserAgent:     fp.UserAgent,
		Device:        fp.Device,
	}

	if err := s.store.Create(rec); err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	s.emit(audit.Event{
		Type:        audit.EventTokenIssued,
		PrincipalID: principalID.String(),
		FamilyID:    rec.FamilyID.String(),
		TokenID:     rec.ID.String(),
	})

	return &IssueResult{
		AccessToken:   access,
		RefreshSecret: secret,
		FamilyID:      rec.FamilyID,
		ExpiresAt:     rec.ExpiresAt,
	}, nil
}

// Rotate exchanges a valid refresh secret for a new access/refresh pair and
// advances the chain by one link. Replay of a consumed or revoked secret
// revokes the whole family before failing.
func (s *Service) Rotate(secret string, fp Fingerprint) (*RotateResult, error) {
	rec, err := s.store.FindByHash(hashSecret(secret))
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	now := time.Now().UTC()
	if rec.Expired(now) {
		// ordinary expiry is not evidence of compromise; no cascade
		return nil, ErrExpiredToken
	}

	if rec.State != StateActive {
		return nil, s.failReuse(rec)
	}

	if rec.RotationIndex+1 > s.maxRotations {
		if err := s.store.RevokeFamily(rec.FamilyID, ReasonRotationLimit); err != nil {
			return nil, fmt.Errorf("failed to revoke family at rotation ceiling: %w", err)
		}
		s.publishRevocation(rec.FamilyID)
		s.emit(audit.Event{
			Type:        audit.EventRotationCeilingHit,
			PrincipalID: rec.PrincipalID.String(),
			FamilyID:    rec.FamilyID.String(),
			Reason:      ReasonRotationLimit,
		})
		return nil, ErrRotationLimitReached
	}

	nextSecret, err := generateSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh secret: %w", err)
	}

	ok, err := s.store.Transition(rec.ID, StateActive, StateUsed, map[string]any{"used_at": now})
	if err != nil {
		return nil, err
	}
	if !ok {
		// lost the race: another request consumed or revoked this record
		// first, so the loser resolves through the reuse branch, fail closed
		return nil, s.failReuse(rec)
	}

	child := &RefreshToken{
		BaseModel:     database.BaseModel{ID: uuid.New()},
		PrincipalID:   rec.PrincipalID,
		TokenHash:     hashSecret(nextSecret),
		FamilyID:      rec.FamilyID,
		ParentID:      &rec.ID,
		RotationIndex: rec.RotationIndex + 1,
		IssuedAt:      now,
		ExpiresAt:     now.Add(s.refreshTTL),
		State:         StateActive,
		IPAddress:     fp.IPAddress,
		UserAgent:     fp.UserAgent,
		Device:        fp.Device,
	}
	if err := s.store.Create(child); err != nil {
		return nil, fmt.Errorf("failed to persist rotated refresh token: %w", err)
	}

	// the directory is only re-read for the role claim; active enforcement
	// happens at issuance, principal-wide shutdown goes through RevokeAll
	role := ""
	if p, err := s.principals.FindByID(rec.PrincipalID); err == nil {
		role = p.Role
	} else if !errors.Is(err, principal.ErrPrincipalNotFound) {
		return nil, err
	}

	access, err := s.signer.IssueAccessToken(rec.PrincipalID.String(), role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	s.emit(audit.Event{
		Type:        audit.EventTokenRotated,
		PrincipalID: rec.PrincipalID.String(),
		FamilyID:    rec.FamilyID.String(),
		TokenID:     child.ID.String(),
	})

	return &RotateResult{
		AccessToken:   access,
		RefreshSecret: nextSecret,
		ExpiresAt:     child.ExpiresAt,
	}, nil
}

// failReuse revokes the whole family and reports replay. Reached both when a
// consumed secret is presented again and when a conditional transition was
// lost to a concurrent rotation.
func (s *Service) failReuse(rec *RefreshToken) error {
	if err := s.store.RevokeFamily(rec.FamilyID, ReasonTheftSuspected); err != nil {
		return fmt.Errorf("failed to revoke family on reuse: %w", err)
	}
	s.publishRevocation(rec.FamilyID)
	s.emit(audit.Event{
		Type:        audit.EventReuseDetected,
		PrincipalID: rec.PrincipalID.String(),
		FamilyID:    rec.FamilyID.String(),
		TokenID:     rec.ID.String(),
		Reason:      ReasonTheftSuspected,
	})
	return ErrReuseDetected
}

func (s *Service) emit(event audit.Event) {
	if s.auditSink == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	s.auditSink.Emit(context.Background(), event)
}

func (s *Service) publishRevocation(familyID uuid.UUID) {
	if s.revocations == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	horizon := time.Now().UTC().Add(s.refreshTTL)
	if err := s.revocations.MarkFamilyRevoked(ctx, familyID.String(), horizon); err != nil {
		slog.Warn("Failed to publish family revocation", "error", err, "family_id", familyID.String())
	}
}
