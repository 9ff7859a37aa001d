package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// FamilyRevocationPrefix is the key prefix for revoked token families
	FamilyRevocationPrefix = "revoked:family:"
	// minRevocationTTL keeps entries around briefly even for families that
	// were already past expiry when revoked
	minRevocationTTL = 1 * time.Hour
)

// RevocationCache publishes family revocations for external access-token
// denylist consumers. The database remains the source of truth for refresh
// token validity; this cache is advisory and never consulted by the rotation
// engine itself.
type RevocationCache struct {
	client *redis.Client
}

// NewRevocationCache creates a RevocationCache backed by the provided client.
func NewRevocationCache(client *redis.Client) *RevocationCache {
	return &RevocationCache{client: client}
}

// MarkFamilyRevoked records a revoked family until expiresAt (with a floor of
// one hour so late revocations are still visible to consumers).
func (c *RevocationCache) MarkFamilyRevoked(ctx context.Context, familyID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl < minRevocationTTL {
		ttl = minRevocationTTL
	}

	key := FamilyRevocationPrefix + familyID
	if err := c.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return err
	}

	slog.Debug("Family revocation cached", "family_id", familyID, "ttl", ttl)
	return nil
}

// IsFamilyRevoked reports whether a family revocation has been published.
func (c *RevocationCache) IsFamilyRevoked(ctx context.Context, familyID string) (bool, error) {
	key := FamilyRevocationPrefix + familyID
	if err := c.client.Get(ctx, key).Err(); err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
