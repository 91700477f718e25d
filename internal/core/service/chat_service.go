package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aichat/chat-service/internal/api/metrics"
	"github.com/aichat/chat-service/internal/core/domain"
	"github.com/aichat/chat-service/internal/core/ports"
	"github.com/aichat/chat-service/pkg/logger"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

type ChatService struct {
	users     ports.UserRepository
	messages  ports.MessageRepository
	responder ports.Responder
	audit     ports.AuditRecorder
	logger    zerolog.Logger
	now       func() time.Time
}

func NewChatService(
	users ports.UserRepository,
	messages ports.MessageRepository,
	responder ports.Responder,
	audit ports.AuditRecorder,
	logger zerolog.Logger,
) *ChatService {
	return &ChatService{
		users:     users,
		messages:  messages,
		responder: responder,
		audit:     audit,
		logger:    logger,
		now:       time.Now,
	}
}

// Send stores the user's message, asks the responder for a reply and stores
// that as the assistant turn. Nothing is written when validation fails.
func (s *ChatService) Send(ctx context.Context, userID, message string) (*ports.ChatResult, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	content := strings.TrimSpace(message)
	if content == "" {
		return nil, fmt.Errorf("%w: message must not be empty", domain.ErrValidation)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("send: load user: %w", err)
	}

	userMsg := &domain.Message{
		ID:        uuid.NewString(),
		Content:   content,
		Role:      domain.RoleUser,
		UserID:    user.ID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.messages.Create(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("send: save user message: %w", err)
	}
	metrics.ChatMessagesTotal.WithLabelValues(string(domain.RoleUser)).Inc()

	start := time.Now()
	reply, err := s.responder.Respond(ctx, user.ID, content)
	metrics.ResponderDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("send: generate response: %w", err)
	}

	// created_at orders the conversation; the reply must sort after the prompt.
	replyAt := s.now().UTC()
	if !replyAt.After(userMsg.CreatedAt) {
		replyAt = userMsg.CreatedAt.Add(time.Microsecond)
	}

	assistantMsg := &domain.Message{
		ID:        uuid.NewString(),
		Content:   reply,
		Role:      domain.RoleAssistant,
		UserID:    user.ID,
		CreatedAt: replyAt,
	}
	if err := s.messages.Create(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("send: save assistant message: %w", err)
	}
	metrics.ChatMessagesTotal.WithLabelValues(string(domain.RoleAssistant)).Inc()

	s.audit.Record(domain.AuditEvent{
		Type:       domain.AuditChatExchange,
		UserID:     user.ID,
		Email:      user.Email,
		RequestID:  logger.RequestID(ctx),
		OccurredAt: replyAt,
	})

	s.logger.Debug().
		Str("user_id", user.ID).
		Str("user_message_id", userMsg.ID).
		Str("assistant_message_id", assistantMsg.ID).
		Msg("chat exchange stored")

	return &ports.ChatResult{
		Response:         reply,
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
	}, nil
}

// History returns the user's most recent messages, oldest first.
func (s *ChatService) History(ctx context.Context, userID string, limit int) ([]*domain.Message, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	msgs, err := s.messages.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return msgs, nil
}
