package audit

import (
	"context"
	"log/slog"
	"time"
)

// Event types emitted by the token engine after a committed state transition.
const (
	EventTokenIssued        = "token.issued"
	EventTokenRotated       = "token.rotated"
	EventTokenRevoked       = "token.revoked"
	EventReuseDetected      = "token.reuse_detected"
	EventFamilyRevoked      = "family.revoked"
	EventRotationCeilingHit = "family.rotation_ceiling"
)

// Event describes a committed token state transition. Events carry only
// identifiers and reasons, never secrets or hashes.
type Event struct {
	Timestamp   time.Time         `json:"timestamp"`
	Type        string            `json:"type"`
	PrincipalID string            `json:"principal_id,omitempty"`
	FamilyID    string            `json:"family_id,omitempty"`
	TokenID     string            `json:"token_id,omitempty"`
	Reason      string            `json:"reason,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Sink receives committed-transition events for an external observability
// collaborator.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoopSink discards every event.
type NoopSink struct{}

func (NoopSink) Emit(context.Context, Event) {}

// SlogSink writes events through a structured logger.
type SlogSink struct {
	logger *slog.Logger
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Emit(_ context.Context, event Event) {
	s.logger.Info("audit event",
		"type", event.Type,
		"principal_id", event.PrincipalID,
		"family_id", event.FamilyID,
		"token_id", event.TokenID,
		"reason", event.Reason,
	)
}
