package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/facultycredits/internal/app/models"
)

// ActorResolver returns the authenticated actor attached to a request.
type ActorResolver func(c *gin.Context) (models.Actor, bool)

// Handler upgrades authenticated requests to notification streams
type Handler struct {
	hub     *Hub
	resolve ActorResolver
	logger  zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, resolve ActorResolver, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:     hub,
		resolve: resolve,
		logger:  logger,
	}
}

// HandleConnection godoc
// @Summary Stream ledger notifications
// @Description Upgrades the connection to a WebSocket that receives notification events addressed to the caller. Admins also receive admin-audience events.
// @Tags notifications, websocket
// @Security BearerAuth
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /notifications/ws [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	actor, ok := h.resolve(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authenticated actor not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Int64("userID", actor.ID).Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		send:   make(chan []byte, 64),
		userID: actor.ID,
		admin:  actor.IsAdmin(),
		logger: h.logger,
	}
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
