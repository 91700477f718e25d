package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/aichat/chat-service/internal/core/ports"
	"github.com/aichat/chat-service/internal/pkg/token"
)

// SessionCookie is the cookie that carries the session token for browser clients.
const SessionCookie = "session_token"

// Context keys set by Auth for downstream handlers.
const (
	KeyUserID     = "user_id"
	KeyEmail      = "email"
	KeyName       = "name"
	KeySessionID  = "session_id"
	KeySessionExp = "session_exp"
)

// Auth validates the session token and injects the caller's identity into
// the context. The token is read from the Authorization header first, then
// from the session cookie. Revoked sessions are rejected; if the revocation
// store cannot be reached the request fails rather than passing unchecked.
func Auth(issuer *token.Issuer, sessions ports.SessionStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := extractToken(c)
			if err != nil {
				return err
			}

			claims, err := issuer.Parse(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
			}

			revoked, err := sessions.IsRevoked(c.Request().Context(), claims.ID)
			if err != nil {
				return fmt.Errorf("check session revocation: %w", err)
			}
			if revoked {
				return echo.NewHTTPError(http.StatusUnauthorized, "session revoked")
			}

			c.Set(KeyUserID, claims.Subject)
			c.Set(KeyEmail, claims.Email)
			c.Set(KeyName, claims.Name)
			c.Set(KeySessionID, claims.ID)
			if claims.ExpiresAt != nil {
				c.Set(KeySessionExp, claims.ExpiresAt.Time)
			}

			return next(c)
		}
	}
}

func extractToken(c echo.Context) (string, error) {
	if authHeader := c.Request().Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
		}
		return strings.TrimSpace(parts[1]), nil
	}

	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	return "", echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
}
