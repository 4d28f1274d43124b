package handler

import (
	"net/http"
	"time"

	"fedauth/internal/authreq"
	"fedauth/internal/device"
)

// SystemHandler serves the health endpoint.
type SystemHandler struct {
	registry *device.Registry
	store    *authreq.Store
}

// NewSystemHandler creates a SystemHandler.
func NewSystemHandler(registry *device.Registry, store *authreq.Store) *SystemHandler {
	return &SystemHandler{registry: registry, store: store}
}

// Health reports liveness plus registry and store sizes.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"devices":        h.registry.Len(),
		"activeRequests": h.store.Len(),
	})
}
