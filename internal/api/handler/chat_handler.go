package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/aichat/chat-service/internal/core/domain"
	"github.com/aichat/chat-service/internal/core/ports"
)

// ChatHandler handles HTTP requests for chat exchanges.
type ChatHandler struct {
	service ports.ChatService
}

func NewChatHandler(service ports.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// --- Request / Response types ---

type chatRequest struct {
	Message string `json:"message" validate:"required,notblank,max=8000"`
}

type chatResponse struct {
	Response         string          `json:"response"`
	UserMessage      *domain.Message `json:"userMessage"`
	AssistantMessage *domain.Message `json:"assistantMessage"`
}

type historyResponse struct {
	Messages []*domain.Message `json:"messages"`
}

// Send stores the caller's message and the generated reply.
//
// @Summary      Send a chat message
// @Tags         chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      chatRequest  true  "Message to send"
// @Success      200   {object}  chatResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/chat [post]
func (h *ChatHandler) Send(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.service.Send(c.Request().Context(), identity.ID, req.Message)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, chatResponse{
		Response:         result.Response,
		UserMessage:      result.UserMessage,
		AssistantMessage: result.AssistantMessage,
	})
}

// History returns the caller's most recent messages, oldest first.
//
// @Summary      Chat history
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum number of messages (default 50, max 200)"
// @Success      200    {object}  historyResponse
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Router       /api/chat/messages [get]
func (h *ChatHandler) History(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
	}

	messages, err := h.service.History(c.Request().Context(), identity.ID, limit)
	if err != nil {
		return err
	}
	if messages == nil {
		messages = []*domain.Message{}
	}

	return c.JSON(http.StatusOK, historyResponse{Messages: messages})
}
