package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aichat/chat-service/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stubs shared by the service tests
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	byEmail   map[string]*domain.User
	findErr   error // if set, FindByEmail / FindByID return this error
	createErr error // if set, Create returns this error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byEmail: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, exists := r.byEmail[user.Email]; exists {
		return nil, domain.ErrUserExists
	}
	c := cloneUser(user)
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	r.byEmail[c.Email] = cloneUser(c)
	return c, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.byEmail {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

type stubMessageRepo struct {
	mu        sync.Mutex
	saved     []*domain.Message
	createErr func(msg *domain.Message) error
}

func (r *stubMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	if r.createErr != nil {
		if err := r.createErr(msg); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *msg
	r.saved = append(r.saved, &c)
	return nil
}

func (r *stubMessageRepo) ListByUser(_ context.Context, userID string, limit int) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Message
	for _, m := range r.saved {
		if m.UserID == userID {
			c := *m
			out = append(out, &c)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type stubSessions struct {
	revoked   map[string]time.Duration
	revokeErr error
}

func newStubSessions() *stubSessions {
	return &stubSessions{revoked: make(map[string]time.Duration)}
}

func (s *stubSessions) Revoke(_ context.Context, id string, ttl time.Duration) error {
	if s.revokeErr != nil {
		return s.revokeErr
	}
	s.revoked[id] = ttl
	return nil
}

func (s *stubSessions) IsRevoked(_ context.Context, id string) (bool, error) {
	_, ok := s.revoked[id]
	return ok, nil
}

type stubAudit struct {
	events []domain.AuditEvent
}

func (a *stubAudit) Record(e domain.AuditEvent) {
	a.events = append(a.events, e)
}

func (a *stubAudit) types() []domain.AuditEventType {
	out := make([]domain.AuditEventType, len(a.events))
	for i, e := range a.events {
		out[i] = e.Type
	}
	return out
}

type stubResponder struct {
	reply string
	err   error
}

func (r *stubResponder) Respond(context.Context, string, string) (string, error) {
	return r.reply, r.err
}

var errBoom = errors.New("boom")
