package handlers

import (
	"net/http"

	"connexa-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler serves the live event feed.
type WebSocketHandler struct {
	hub *services.FeedHub
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.FeedHub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// HandleFeed handles GET /ws. The feed mirrors the public event listing,
// so no authentication is required; subscribers only receive frames.
func (h *WebSocketHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	id := h.hub.Register(conn)
	defer h.hub.Unregister(id)

	// Drain incoming frames until the peer goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("conn_id", id).Msg("Feed connection error")
			}
			return
		}
	}
}
