package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/seatea-inbox/internal/api/middleware"
	"github.com/welldanyogia/seatea-inbox/internal/api/response"
	"github.com/welldanyogia/seatea-inbox/internal/models"
	"github.com/welldanyogia/seatea-inbox/internal/services"
	"github.com/welldanyogia/seatea-inbox/internal/validator"
)

// MessageHandler handles inbox HTTP requests for the authenticated user
type MessageHandler struct {
	service services.MessageService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(service services.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

// MarkReadResponse reports how many messages a mark-read call changed
type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}

// Conversations handles GET /api/messages/conversations
func (h *MessageHandler) Conversations(c echo.Context) error {
	conversations, err := h.service.Conversations(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, conversations)
}

// UnreadCount handles GET /api/messages/unread-count
func (h *MessageHandler) UnreadCount(c echo.Context) error {
	count, err := h.service.UnreadCount(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, models.UnreadCount{UnreadCount: count})
}

// Messages handles GET /api/messages/conversations/:partner_id
func (h *MessageHandler) Messages(c echo.Context) error {
	partnerID, err := parseID(c.Param("partner_id"))
	if err != nil {
		return response.BadRequest(c, "invalid partner ID")
	}

	page, size := 0, validator.DefaultPageSize
	if p := c.QueryParam("page"); p != "" {
		if page, err = strconv.Atoi(p); err != nil || page < 0 {
			return response.BadRequest(c, "page must be a non-negative integer")
		}
	}
	if s := c.QueryParam("size"); s != "" {
		if size, err = strconv.Atoi(s); err != nil || size <= 0 {
			return response.BadRequest(c, "size must be a positive integer")
		}
	}

	result, err := h.service.Messages(c.Request().Context(), middleware.UserID(c), partnerID, page, size)
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, result)
}

// Send handles POST /api/messages
func (h *MessageHandler) Send(c echo.Context) error {
	var req models.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	view, err := h.service.Send(c.Request().Context(), middleware.UserID(c), &req)
	if err != nil {
		return h.fail(c, err)
	}
	return response.Created(c, view)
}

// MarkRead handles PUT /api/messages/conversations/:partner_id/read
func (h *MessageHandler) MarkRead(c echo.Context) error {
	partnerID, err := parseID(c.Param("partner_id"))
	if err != nil {
		return response.BadRequest(c, "invalid partner ID")
	}

	updated, err := h.service.MarkRead(c.Request().Context(), middleware.UserID(c), partnerID)
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, MarkReadResponse{Updated: updated})
}

// fail records err for the logging middleware and writes the envelope
func (h *MessageHandler) fail(c echo.Context, err error) error {
	c.Set(middleware.ContextKeyError, err)
	return response.Error(c, err)
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, strconv.ErrSyntax
	}
	return uint(id), nil
}
