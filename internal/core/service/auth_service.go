package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/aichat/chat-service/internal/api/metrics"
	"github.com/aichat/chat-service/internal/core/domain"
	"github.com/aichat/chat-service/internal/core/ports"
	"github.com/aichat/chat-service/internal/pkg/token"
	"github.com/aichat/chat-service/pkg/logger"
)

// DefaultBcryptCost is the work factor used for new password hashes.
const DefaultBcryptCost = 12

// AuthService implements registration, login and logout.
type AuthService struct {
	repo       ports.UserRepository
	tokens     *token.Issuer
	sessions   ports.SessionStore
	audit      ports.AuditRecorder
	bcryptCost int
	log        zerolog.Logger
	now        func() time.Time
}

func NewAuthService(
	repo ports.UserRepository,
	tokens *token.Issuer,
	sessions ports.SessionStore,
	audit ports.AuditRecorder,
	bcryptCost int,
	log zerolog.Logger,
) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = DefaultBcryptCost
	}
	return &AuthService{
		repo:       repo,
		tokens:     tokens,
		sessions:   sessions,
		audit:      audit,
		bcryptCost: bcryptCost,
		log:        log,
		now:        time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.Identity, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "conflict").Inc()
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: password must be at most 72 bytes", domain.ErrValidation)
		}
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			metrics.AuthAttemptsTotal.WithLabelValues("register", "conflict").Inc()
			return nil, err
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	metrics.AuthAttemptsTotal.WithLabelValues("register", "success").Inc()
	s.record(ctx, domain.AuditRegister, created.ID, created.Email)
	s.log.Info().Str("user_id", created.ID).Msg("user registered")

	identity := created.Identity()
	return &identity, nil
}

// Login checks the credentials and issues a new session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.AuthAttemptsTotal.WithLabelValues("login", "not_found").Inc()
			s.record(ctx, domain.AuditLoginFailed, "", email)
			return nil, err
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid").Inc()
		s.record(ctx, domain.AuditLoginFailed, user.ID, user.Email)
		return nil, domain.ErrInvalidCredentials
	}

	issued, err := s.tokens.Issue(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	metrics.AuthAttemptsTotal.WithLabelValues("login", "success").Inc()
	s.record(ctx, domain.AuditLoginSucceeded, user.ID, user.Email)

	return &ports.Session{
		Token:     issued.Token,
		ID:        issued.SessionID,
		ExpiresAt: issued.ExpiresAt,
		Identity:  user.Identity(),
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, identity domain.Identity, sessionID string, expiresAt time.Time) error {
	if sessionID == "" {
		return domain.ErrUnauthorized
	}

	// Already expired tokens are rejected by signature checks alone.
	if ttl := expiresAt.Sub(s.now()); ttl > 0 {
		if err := s.sessions.Revoke(ctx, sessionID, ttl); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
	}

	s.record(ctx, domain.AuditLogout, identity.ID, identity.Email)
	return nil
}

func (s *AuthService) record(ctx context.Context, typ domain.AuditEventType, userID, email string) {
	s.audit.Record(domain.AuditEvent{
		Type:       typ,
		UserID:     userID,
		Email:      email,
		RequestID:  logger.RequestID(ctx),
		OccurredAt: s.now().UTC(),
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
