package ports

import (
	"context"

	"github.com/aichat/chat-service/internal/core/domain"
)

// MessageRepository is the append-only message log.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	// ListByUser returns the newest limit messages of a user, oldest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Message, error)
}
