package services

import (
	"encoding/json"
	"sync"

	"connexa-backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// FeedMessage is a frame pushed to feed subscribers when the event
// listing changes.
type FeedMessage struct {
	Type    string        `json:"type"`
	Event   *models.Event `json:"event,omitempty"`
	EventID string        `json:"event_id,omitempty"`
}

// FeedHub manages the WebSocket subscribers of the live event feed.
// The feed is broadcast-only; subscribers do not send frames.
type FeedHub struct {
	mu    sync.RWMutex
	conns map[string]*websocket.Conn
}

// NewFeedHub creates a new feed hub
func NewFeedHub() *FeedHub {
	return &FeedHub{
		conns: make(map[string]*websocket.Conn),
	}
}

// Register adds a subscriber and returns its connection id.
func (h *FeedHub) Register(conn *websocket.Conn) string {
	id := uuid.New().String()

	h.mu.Lock()
	h.conns[id] = conn
	h.mu.Unlock()

	log.Info().Str("conn_id", id).Msg("Feed subscriber connected")
	return id
}

// Unregister removes and closes a subscriber connection.
func (h *FeedHub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, exists := h.conns[id]; exists {
		conn.Close()
		delete(h.conns, id)
		log.Info().Str("conn_id", id).Msg("Feed subscriber disconnected")
	}
}

// SubscriberCount returns the number of connected subscribers.
func (h *FeedHub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast sends a message to every subscriber. Connections that fail
// to accept the write are evicted.
func (h *FeedHub) Broadcast(msg FeedMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("type", msg.Type).Msg("Failed to marshal feed message")
		return
	}

	h.mu.RLock()
	targets := make(map[string]*websocket.Conn, len(h.conns))
	for id, conn := range h.conns {
		targets[id] = conn
	}
	h.mu.RUnlock()

	var dead []string
	for id, conn := range targets {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Warn().Err(err).Str("conn_id", id).Msg("Feed write failed, dropping subscriber")
			dead = append(dead, id)
		}
	}

	for _, id := range dead {
		h.Unregister(id)
	}
}
