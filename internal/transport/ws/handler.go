package ws

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"mirrorwars/internal/app"
)

// Limits bounds how fast a single connection may send messages
type Limits struct {
	MessagesPerSecond float64
	Burst             int
}

// DefaultLimits returns the default per-connection message limits
func DefaultLimits() Limits {
	return Limits{MessagesPerSecond: 10, Burst: 20}
}

// Handler handles WebSocket connections
type Handler struct {
	hub      *app.GameHub
	limits   Limits
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *app.GameHub, limits Limits, logger *slog.Logger) *Handler {
	return &Handler{
		hub:    hub,
		limits: limits,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Allow all origins for development
				// In production, you should validate the origin
				return true
			},
		},
		logger: logger,
	}
}

// ServeHTTP upgrades the connection. The client is not in a room until it
// sends createRoom or joinRoom.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	playerID := app.NewParticipantID()
	limiter := rate.NewLimiter(rate.Limit(h.limits.MessagesPerSecond), h.limits.Burst)
	client := NewClient(conn, h.hub, playerID, limiter, h.logger)

	h.logger.Info("websocket connected", "playerID", playerID, "remoteAddr", r.RemoteAddr)

	client.Send(NewServerMessage(MsgConnected, &ConnectedPayload{PlayerID: playerID}))

	// Start the client
	client.Run()

	h.logger.Info("websocket disconnected", "playerID", client.GetPlayerID())
}
