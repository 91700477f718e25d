package ports

import (
	"context"

	"github.com/aichat/chat-service/internal/core/domain"
)

// ChatResult is one persisted exchange.
type ChatResult struct {
	Response         string
	UserMessage      *domain.Message
	AssistantMessage *domain.Message
}

// ChatService defines the chat use cases.
type ChatService interface {
	Send(ctx context.Context, userID, message string) (*ChatResult, error)
	History(ctx context.Context, userID string, limit int) ([]*domain.Message, error)
}

// Responder generates the assistant reply for a user prompt.
type Responder interface {
	Respond(ctx context.Context, userID, prompt string) (string, error)
}
