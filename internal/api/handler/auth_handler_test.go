package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aichat/chat-service/internal/api/middleware"
	"github.com/aichat/chat-service/internal/core/domain"
	"github.com/aichat/chat-service/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, name, email, password string) (*domain.Identity, error)
	loginFn    func(ctx context.Context, email, password string) (*ports.Session, error)
	logoutFn   func(ctx context.Context, identity domain.Identity, sessionID string, expiresAt time.Time) error
}

func (s *stubAuthService) Register(ctx context.Context, name, email, password string) (*domain.Identity, error) {
	return s.registerFn(ctx, name, email, password)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Logout(ctx context.Context, identity domain.Identity, sessionID string, expiresAt time.Time) error {
	return s.logoutFn(ctx, identity, sessionID, expiresAt)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func authenticate(c echo.Context) {
	c.Set(middleware.KeyUserID, "user-1")
	c.Set(middleware.KeyEmail, "alice@example.com")
	c.Set(middleware.KeyName, "Alice")
	c.Set(middleware.KeySessionID, "sid-1")
	c.Set(middleware.KeySessionExp, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
}

func expectHTTPStatus(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != code {
		t.Fatalf("expected HTTPError %d, got %v", code, err)
	}
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, name, email, password string) (*domain.Identity, error) {
			if name != "Alice" || email != "alice@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s %s", name, email, password)
			}
			return &domain.Identity{ID: "user-1", Name: name, Email: email}, nil
		},
	}
	handler := NewAuthHandler(stub, false)

	req := jsonRequest(http.MethodPost, "/api/auth/register", `{"name":"Alice","email":"alice@example.com","password":"secret"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user in response")
	}
	if user["id"] != "user-1" || user["email"] != "alice@example.com" || user["name"] != "Alice" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if _, leaked := user["password"]; leaked {
		t.Fatalf("password must never be returned")
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Fatalf("response leaks the password: %s", rec.Body.String())
	}
}

func TestAuthHandler_Register_UserExists(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, name, email, password string) (*domain.Identity, error) {
			return nil, domain.ErrUserExists
		},
	}
	handler := NewAuthHandler(stub, false)

	req := jsonRequest(http.MethodPost, "/api/auth/register", `{"email":"bob@example.com","password":"x"}`)
	c := e.NewContext(req, httptest.NewRecorder())

	if err := handler.Register(c); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthHandler_Register_MissingFields(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, name, email, password string) (*domain.Identity, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub, false)

	for _, body := range []string{`{"password":"x"}`, `{"email":"a@example.com"}`, `{"email":"not-an-email","password":"x"}`} {
		c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/register", body), httptest.NewRecorder())
		if err := handler.Register(c); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("body %s: expected ErrValidation, got %v", body, err)
		}
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	e := newEcho()
	handler := NewAuthHandler(&stubAuthService{}, false)

	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/register", "not-json"), httptest.NewRecorder())
	expectHTTPStatus(t, handler.Register(c), http.StatusBadRequest)
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newEcho()
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.Session, error) {
			if email != "alice@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return &ports.Session{
				Token:     "token123",
				ID:        "sid-1",
				ExpiresAt: expires,
				Identity:  domain.Identity{ID: "user-1", Name: "Alice", Email: email},
			}, nil
		},
	}
	handler := NewAuthHandler(stub, true)

	req := jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"alice@example.com","password":"secret"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "token123" {
		t.Fatalf("expected token, got %v", resp["token"])
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["id"] != "user-1" {
		t.Fatalf("unexpected user payload: %+v", user)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected session cookie, got %d cookies", len(cookies))
	}
	ck := cookies[0]
	if ck.Name != middleware.SessionCookie || ck.Value != "token123" || !ck.HttpOnly || !ck.Secure {
		t.Fatalf("unexpected cookie: %+v", ck)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.Session, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	handler := NewAuthHandler(stub, false)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"alice@example.com","password":"bad"}`), rec)

	if err := handler.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("no cookie expected on failed login")
	}
}

func TestAuthHandler_Login_UserNotFound(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.Session, error) {
			return nil, domain.ErrUserNotFound
		},
	}
	handler := NewAuthHandler(stub, false)

	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"ghost@example.com","password":"pwd"}`), httptest.NewRecorder())
	if err := handler.Login(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	e := newEcho()
	handler := NewAuthHandler(&stubAuthService{}, false)

	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/login", "{"), httptest.NewRecorder())
	expectHTTPStatus(t, handler.Login(c), http.StatusBadRequest)
}

func TestAuthHandler_Logout(t *testing.T) {
	e := newEcho()
	var gotSession string
	stub := &stubAuthService{
		logoutFn: func(ctx context.Context, identity domain.Identity, sessionID string, expiresAt time.Time) error {
			if identity.ID != "user-1" {
				t.Fatalf("unexpected identity: %+v", identity)
			}
			gotSession = sessionID
			return nil
		},
	}
	handler := NewAuthHandler(stub, false)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil), rec)
	authenticate(c)

	if err := handler.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if gotSession != "sid-1" {
		t.Fatalf("expected session sid-1 to be revoked, got %q", gotSession)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != "" || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected cleared cookie, got %+v", cookies)
	}
}

func TestAuthHandler_Logout_Unauthenticated(t *testing.T) {
	e := newEcho()
	handler := NewAuthHandler(&stubAuthService{}, false)

	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil), httptest.NewRecorder())
	expectHTTPStatus(t, handler.Logout(c), http.StatusUnauthorized)
}

func TestAuthHandler_Session(t *testing.T) {
	e := newEcho()
	handler := NewAuthHandler(&stubAuthService{}, false)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/auth/session", nil), rec)
	authenticate(c)

	if err := handler.Session(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp struct {
		User      domain.Identity `json:"user"`
		ExpiresAt time.Time       `json:"expiresAt"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.User.ID != "user-1" || resp.User.Email != "alice@example.com" || resp.ExpiresAt.Year() != 2030 {
		t.Fatalf("unexpected session payload: %+v", resp)
	}
}
