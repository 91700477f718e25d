package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aichat/chat-service/internal/core/domain"
)

// MessageRepository implements ports.MessageRepository on top of GORM.
// Rows are only ever inserted.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts msg. A missing owner surfaces as domain.ErrUserNotFound.
func (r *MessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	if !msg.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", domain.ErrValidation, msg.Role)
	}
	userID, err := uuid.Parse(msg.UserID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	row := messageModel{
		UserID:    userID,
		Role:      string(msg.Role),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
	if msg.ID != "" {
		if row.ID, err = uuid.Parse(msg.ID); err != nil {
			return fmt.Errorf("insert message: bad id %q: %w", msg.ID, err)
		}
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("insert message: %w", err)
	}

	msg.ID = row.ID.String()
	msg.CreatedAt = row.CreatedAt.UTC()
	return nil
}

func (r *MessageRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Message, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return []*domain.Message{}, nil
	}

	var rows []messageModel
	err = r.db.WithContext(ctx).
		Where("user_id = ?", uid).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	out := make([]*domain.Message, len(rows))
	for i := range rows {
		out[len(rows)-1-i] = rows[i].toDomain()
	}
	return out, nil
}
