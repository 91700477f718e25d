package domain

import "time"

// AuditEventType names something worth keeping in the audit trail.
type AuditEventType string

const (
	AuditRegister       AuditEventType = "register"
	AuditLoginSucceeded AuditEventType = "login_succeeded"
	AuditLoginFailed    AuditEventType = "login_failed"
	AuditLogout         AuditEventType = "logout"
	AuditChatExchange   AuditEventType = "chat_exchange"
)

// AuditEvent records an auth or chat action. UserID and Email are optional
// because failed logins may not resolve to a user.
type AuditEvent struct {
	Type       AuditEventType
	UserID     string
	Email      string
	RequestID  string
	OccurredAt time.Time
}

// ShardKey returns the key used to keep one actor's events in order.
func (e AuditEvent) ShardKey() string {
	if e.Email != "" {
		return e.Email
	}
	return e.UserID
}
