package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aichat/chat-service/internal/core/domain"
)

// LogRepository writes audit events to the structured log. It backs the
// dispatcher when no audit database is configured.
type LogRepository struct {
	log zerolog.Logger
}

func NewLogRepository(log zerolog.Logger) *LogRepository {
	return &LogRepository{log: log.With().Str("component", "audit").Logger()}
}

func (r *LogRepository) Insert(_ context.Context, event *domain.AuditEvent) error {
	r.log.Info().
		Str("type", string(event.Type)).
		Str("user_id", event.UserID).
		Str("email", event.Email).
		Str("request_id", event.RequestID).
		Time("occurred_at", event.OccurredAt).
		Msg("audit event")
	return nil
}
