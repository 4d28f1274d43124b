// Package events broadcasts broker lifecycle events to websocket observers.
package events

import (
	"sync"
	"time"

	"fedauth/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// Event is one broker occurrence pushed to observers.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// Hub fans broker events out to connected websocket clients. A client that
// cannot keep up is dropped rather than allowed to stall publishing.
type Hub struct {
	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	logger logger.Logger
}

// NewHub builds an empty Hub.
func NewHub(log logger.Logger) *Hub {
	return &Hub{
		conns:  make(map[*websocket.Conn]struct{}),
		logger: log,
	}
}

// Add registers a client connection for event delivery.
func (h *Hub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("Event observer connected", map[string]interface{}{
		"observers": h.Count(),
	})
}

// Remove deregisters a client connection. The caller closes it.
func (h *Hub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
}

// Count returns the number of connected observers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Publish delivers an event to every connected observer. Implements
// authreq.Publisher.
func (h *Hub) Publish(eventType string, payload map[string]interface{}) {
	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(event); err != nil {
			h.logger.Warn("Dropping slow event observer", map[string]interface{}{
				"error": err.Error(),
			})
			delete(h.conns, conn)
			_ = conn.Close()
		}
	}
}
