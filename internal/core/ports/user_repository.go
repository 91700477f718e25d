package ports

import (
	"context"

	"github.com/aichat/chat-service/internal/core/domain"
)

// UserRepository defines persistence for the credential store.
type UserRepository interface {
	// Create stores a new user and returns it with its ID assigned.
	// Returns domain.ErrUserExists when the email is already taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}
