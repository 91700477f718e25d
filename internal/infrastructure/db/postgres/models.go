package postgres

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aichat/chat-service/internal/core/domain"
)

type userModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"not null;default:''"`
	Email        string    `gorm:"uniqueIndex:idx_users_email;not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`

	Messages []messageModel `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (userModel) TableName() string { return "users" }

func (u *userModel) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *userModel) toDomain() *domain.User {
	return &domain.User{
		ID:           u.ID.String(),
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
}

type messageModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_user_created,priority:1"`
	Role      string    `gorm:"size:16;not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;index:idx_messages_user_created,priority:2"`
}

func (messageModel) TableName() string { return "messages" }

func (m *messageModel) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (m *messageModel) toDomain() *domain.Message {
	return &domain.Message{
		ID:        m.ID.String(),
		Content:   m.Content,
		Role:      domain.MessageRole(m.Role),
		UserID:    m.UserID.String(),
		CreatedAt: m.CreatedAt.UTC(),
	}
}
