package domain

import "time"

// MessageRole identifies who authored a chat turn.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r MessageRole) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is a single, immutable chat turn owned by a user.
type Message struct {
	ID        string      `json:"id"`
	Content   string      `json:"content"`
	Role      MessageRole `json:"role"`
	UserID    string      `json:"userId"`
	CreatedAt time.Time   `json:"createdAt"`
}
