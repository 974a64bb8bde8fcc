package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redisclient "github.com/angelmondragon/payflow-checkout/pkg/redis"
)

type revocationStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Key(parts ...string) string
}

// Checker exposes the read-only surface needed by middleware.
type Checker interface {
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// Revocations records logged-out sessions in Redis until their token expires.
type Revocations struct {
	store revocationStore
	clock func() time.Time
}

// NewRevocations constructs a revocation list backed by Redis.
func NewRevocations(client *redisclient.Client) (*Revocations, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &Revocations{store: client, clock: time.Now}, nil
}

// Revoke marks the session as logged out until expiresAt. Already expired
// sessions are not stored.
func (r *Revocations) Revoke(ctx context.Context, sessionID string, expiresAt time.Time) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	ttl := expiresAt.Sub(r.clock())
	if ttl <= 0 {
		return nil
	}
	return r.store.Set(ctx, r.key(sessionID), "1", ttl)
}

// IsRevoked reports whether the session was logged out.
func (r *Revocations) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	_, err := r.store.Get(ctx, r.key(sessionID))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, redisclient.ErrNil) {
		return false, nil
	}
	return false, err
}

func (r *Revocations) key(sessionID string) string {
	return r.store.Key("revoked", sessionID)
}
