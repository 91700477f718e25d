package ports

import (
	"context"
	"time"
)

// SessionStore tracks revoked session ids.
type SessionStore interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}
