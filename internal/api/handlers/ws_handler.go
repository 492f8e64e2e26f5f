package handlers

import (
	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/seatea-inbox/internal/api/middleware"
	"github.com/welldanyogia/seatea-inbox/internal/api/response"
	"github.com/welldanyogia/seatea-inbox/internal/logger"
	wshub "github.com/welldanyogia/seatea-inbox/internal/websocket"
)

// WSHandler upgrades authenticated connections and attaches them to the hub
type WSHandler struct {
	hub       *wshub.Hub
	tokens    middleware.TokenParser
	upgrader  websocket.Upgrader
	secLogger *logger.SecurityLogger
	logger    *slog.Logger
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(hub *wshub.Hub, tokens middleware.TokenParser, upgrader websocket.Upgrader, secLogger *logger.SecurityLogger, log *slog.Logger) *WSHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WSHandler{
		hub:       hub,
		tokens:    tokens,
		upgrader:  upgrader,
		secLogger: secLogger,
		logger:    log,
	}
}

// Handle handles GET /ws?token=<jwt>. Browsers cannot set headers on a
// websocket handshake, so the token travels in the query string.
func (h *WSHandler) Handle(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return response.Unauthorized(c, "missing token")
	}

	userID, err := h.tokens.Parse(token)
	if err != nil {
		if h.secLogger != nil {
			h.secLogger.TokenRejected(c.RealIP(), c.Path(), err.Error())
		}
		return response.Unauthorized(c, "invalid or expired token")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return nil
	}

	client := wshub.NewClient(h.hub, conn, userID, h.logger)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	h.logger.Debug("websocket connected", slog.Uint64("user_id", uint64(userID)))
	return nil
}
