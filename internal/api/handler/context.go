package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aichat/chat-service/internal/api/middleware"
	"github.com/aichat/chat-service/internal/core/domain"
)

// ctxIdentity extracts the identity injected by the Auth middleware and
// fails fast with 401 when it is missing, before any service call.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	id, _ := c.Get(middleware.KeyUserID).(string)
	if id == "" {
		return domain.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	email, _ := c.Get(middleware.KeyEmail).(string)
	name, _ := c.Get(middleware.KeyName).(string)
	return domain.Identity{ID: id, Email: email, Name: name}, nil
}

// ctxSession returns the session id and expiry of the current request.
func ctxSession(c echo.Context) (string, time.Time) {
	sid, _ := c.Get(middleware.KeySessionID).(string)
	exp, _ := c.Get(middleware.KeySessionExp).(time.Time)
	return sid, exp
}
