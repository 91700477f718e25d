package ports

import (
	"context"
	"time"

	"github.com/aichat/chat-service/internal/core/domain"
)

// Session is what a successful login hands back to the transport layer.
type Session struct {
	Token     string
	ID        string
	ExpiresAt time.Time
	Identity  domain.Identity
}

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*domain.Identity, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	// Logout revokes the session until its natural expiry.
	Logout(ctx context.Context, identity domain.Identity, sessionID string, expiresAt time.Time) error
}
