package token

import (
	"time"

	"github.com/Anvoria/tokenly/internal/database"
	"github.com/google/uuid"
)

// State is the lifecycle state of a refresh token record.
// Transitions: active -> used -> revoked, with revoked reachable from both.
type State string

const (
	StateActive  State = "active"
	StateUsed    State = "used"
	StateRevoked State = "revoked"
)

// Revocation reasons recorded on refresh token records.
const (
	ReasonLogout         = "logout"
	ReasonLogoutAll      = "logout_all"
	ReasonTheftSuspected = "theft_suspected"
	ReasonRotationLimit  = "rotation_limit"
)

// Fingerprint is audit-only client metadata attached to a record.
// It is never a security boundary.
type Fingerprint struct {
	IPAddress string
	UserAgent string
	Device    string
}

// RefreshToken is one link in a rotation chain. A family groups every record
// descended from a single issuance; parent_id is nil only at the family root
// and rotation_index increases by exactly one along each edge.
type RefreshToken struct {
	database.BaseModel

	PrincipalID   uuid.UUID  `gorm:"column:principal_id;type:uuid;not null;index"`
	TokenHash     string     `gorm:"column:token_hash;uniqueIndex;not null"`
	FamilyID      uuid.UUID  `gorm:"column:family_id;type:uuid;not null;index"`
	ParentID      *uuid.UUID `gorm:"column:parent_id;type:uuid"`
	RotationIndex int        `gorm:"column:rotation_index;not null;default:0"`
	IssuedAt      time.Time  `gorm:"column:issued_at;not null"`
	ExpiresAt     time.Time  `gorm:"column:expires_at;not null;index"`
	UsedAt        *time.Time `gorm:"column:used_at"`
	State         State      `gorm:"column:state;not null;index"`
	RevokedAt     *time.Time `gorm:"column:revoked_at"`
	RevokedReason string     `gorm:"column:revoked_reason"`

	IPAddress string `gorm:"column:ip_address;type:text"`
	UserAgent string `gorm:"column:user_agent;type:text"`
	Device    string `gorm:"column:device;type:text"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// Expired reports whether the record's fixed TTL has passed at t.
func (r *RefreshToken) Expired(t time.Time) bool {
	return t.After(r.ExpiresAt)
}

// Fingerprint returns the client metadata captured with this record.
func (r *RefreshToken) Fingerprint() Fingerprint {
	return Fingerprint{
		IPAddress: r.IPAddress,
		UserAgent: r.UserAgent,
		Device:    r.Device,
	}
}

// Session is the per-family view presented for auditing and selective
// revocation: the current live head of a rotation chain.
type Session struct {
	FamilyID    uuid.UUID   `json:"family_id"`
	CreatedAt   time.Time   `json:"created_at"`
	LastUsedAt  time.Time   `json:"last_used_at"`
	Fingerprint Fingerprint `json:"fingerprint"`
}
