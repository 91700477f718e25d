package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/aichat/chat-service/internal/core/domain"
	"github.com/aichat/chat-service/internal/pkg/token"
	"github.com/aichat/chat-service/pkg/logger"
)

func newAuthSvc(repo *stubUserRepo) (*AuthService, *stubSessions, *stubAudit) {
	sessions := newStubSessions()
	audit := &stubAudit{}
	svc := NewAuthService(repo, token.NewIssuer("secret", time.Hour), sessions, audit, bcrypt.MinCost, zerolog.Nop())
	return svc, sessions, audit
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc, _, audit := newAuthSvc(repo)

	ctx := logger.WithRequestID(context.Background(), "req-1")
	identity, err := svc.Register(ctx, " Alice ", " Alice@Example.com ", "pass123")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if identity == nil || identity.ID == "" {
		t.Fatalf("expected identity with id, got %+v", identity)
	}
	if identity.Email != "alice@example.com" || identity.Name != "Alice" {
		t.Fatalf("unexpected identity: %+v", identity)
	}

	stored := repo.byEmail["alice@example.com"]
	if stored == nil {
		t.Fatalf("user not persisted")
	}
	if stored.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	if len(audit.events) != 1 || audit.events[0].Type != domain.AuditRegister {
		t.Fatalf("expected one register audit event, got %+v", audit.events)
	}
	if audit.events[0].RequestID != "req-1" || audit.events[0].UserID != identity.ID {
		t.Fatalf("unexpected audit event: %+v", audit.events[0])
	}
}

func TestAuthService_Register_DefaultCost(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAuthService(repo, token.NewIssuer("secret", time.Hour), newStubSessions(), &stubAudit{}, 0, zerolog.Nop())
	if svc.bcryptCost != DefaultBcryptCost {
		t.Fatalf("expected default cost %d, got %d", DefaultBcryptCost, svc.bcryptCost)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, _, _ := newAuthSvc(newStubUserRepo())

	cases := []struct{ name, email, password string }{
		{"no email", "", "pass"},
		{"blank email", "   ", "pass"},
		{"no password", "bob@example.com", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), "Bob", tc.email, tc.password); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestAuthService_Register_PasswordTooLong(t *testing.T) {
	svc, _, _ := newAuthSvc(newStubUserRepo())

	long := make([]byte, 80)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := svc.Register(context.Background(), "", "long@example.com", string(long)); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAuthService_Register_DuplicateAnyPassword(t *testing.T) {
	repo := newStubUserRepo()
	svc, _, _ := newAuthSvc(repo)

	if _, err := svc.Register(context.Background(), "Bob", "bob@example.com", "pass"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	for _, pw := range []string{"pass", "other", "x"} {
		if _, err := svc.Register(context.Background(), "Bob", "BOB@example.com", pw); !errors.Is(err, domain.ErrUserExists) {
			t.Fatalf("password %q: expected ErrUserExists, got %v", pw, err)
		}
	}
}

func TestAuthService_Register_RaceOnCreate(t *testing.T) {
	repo := newStubUserRepo()
	repo.createErr = domain.ErrUserExists
	svc, _, _ := newAuthSvc(repo)

	if _, err := svc.Register(context.Background(), "", "race@example.com", "pass"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Register_RepoError(t *testing.T) {
	repo := newStubUserRepo()
	repo.findErr = errBoom
	svc, _, _ := newAuthSvc(repo)

	_, err := svc.Register(context.Background(), "", "x@example.com", "pass")
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected wrapped repo error, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc, _, audit := newAuthSvc(repo)

	registered, err := svc.Register(context.Background(), "Carol", "carol@example.com", "s3cret")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	session, err := svc.Login(context.Background(), "Carol@Example.com", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if session.Token == "" || session.ID == "" {
		t.Fatalf("expected token and session id, got %+v", session)
	}
	if session.Identity != *registered {
		t.Fatalf("unexpected identity: %+v", session.Identity)
	}

	claims, err := token.NewIssuer("secret", time.Hour).Parse(session.Token)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.Subject != registered.ID {
		t.Fatalf("expected session tied to %s, got %s", registered.ID, claims.Subject)
	}
	if claims.ID != session.ID {
		t.Fatalf("expected jti %s, got %s", session.ID, claims.ID)
	}

	types := audit.types()
	if types[len(types)-1] != domain.AuditLoginSucceeded {
		t.Fatalf("expected login_succeeded audit, got %v", types)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	repo := newStubUserRepo()
	svc, _, audit := newAuthSvc(repo)

	_, _ = svc.Register(context.Background(), "Dave", "dave@example.com", "goodpass")
	if _, err := svc.Login(context.Background(), "dave@example.com", "badpass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	types := audit.types()
	if types[len(types)-1] != domain.AuditLoginFailed {
		t.Fatalf("expected login_failed audit, got %v", types)
	}
}

func TestAuthService_Login_UserNotFound(t *testing.T) {
	svc, _, audit := newAuthSvc(newStubUserRepo())

	if _, err := svc.Login(context.Background(), "ghost@example.com", "pass"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if len(audit.events) != 1 || audit.events[0].Email != "ghost@example.com" {
		t.Fatalf("expected failed login audit with email, got %+v", audit.events)
	}
}

func TestAuthService_Login_Validation(t *testing.T) {
	svc, _, _ := newAuthSvc(newStubUserRepo())

	if _, err := svc.Login(context.Background(), "", "pass"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "a@example.com", ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAuthService_Logout_RevokesForRemainingLifetime(t *testing.T) {
	svc, sessions, audit := newAuthSvc(newStubUserRepo())
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	identity := domain.Identity{ID: "u1", Email: "u1@example.com"}
	if err := svc.Logout(context.Background(), identity, "sid-1", now.Add(30*time.Minute)); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if ttl := sessions.revoked["sid-1"]; ttl != 30*time.Minute {
		t.Fatalf("expected 30m revocation, got %v", ttl)
	}
	if len(audit.events) != 1 || audit.events[0].Type != domain.AuditLogout {
		t.Fatalf("expected logout audit, got %+v", audit.events)
	}
}

func TestAuthService_Logout_ExpiredSessionSkipsStore(t *testing.T) {
	svc, sessions, _ := newAuthSvc(newStubUserRepo())
	sessions.revokeErr = errBoom

	if err := svc.Logout(context.Background(), domain.Identity{ID: "u1"}, "sid-1", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("expected nil for expired session, got %v", err)
	}
}

func TestAuthService_Logout_StoreError(t *testing.T) {
	svc, sessions, _ := newAuthSvc(newStubUserRepo())
	sessions.revokeErr = errBoom

	if err := svc.Logout(context.Background(), domain.Identity{ID: "u1"}, "sid-1", time.Now().Add(time.Hour)); !errors.Is(err, errBoom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestAuthService_Logout_MissingSession(t *testing.T) {
	svc, _, _ := newAuthSvc(newStubUserRepo())
	if err := svc.Logout(context.Background(), domain.Identity{ID: "u1"}, "", time.Now().Add(time.Hour)); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
