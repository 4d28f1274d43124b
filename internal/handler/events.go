package handler

import (
	"net/http"

	"fedauth/internal/events"
	"fedauth/pkg/logger"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS handled at the middleware layer
	},
}

// EventsHandler exposes the live broker event feed over websocket.
type EventsHandler struct {
	hub    *events.Hub
	logger logger.Logger
}

// NewEventsHandler creates an EventsHandler.
func NewEventsHandler(hub *events.Hub, log logger.Logger) *EventsHandler {
	return &EventsHandler{hub: hub, logger: log}
}

// Stream upgrades the connection and keeps it registered with the hub until
// the client goes away. The read loop only drains control frames; this feed
// is one-way.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}
	defer conn.Close()

	h.hub.Add(conn)
	defer h.hub.Remove(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
