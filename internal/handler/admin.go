package handler

import (
	"net/http"

	"fedauth/internal/authreq"
	"fedauth/internal/device"
	"fedauth/internal/domain"
)

// AdminHandler serves the debugging views over the raw registry and store
// contents. Read-only: it never bypasses the state machine.
type AdminHandler struct {
	registry *device.Registry
	store    *authreq.Store
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(registry *device.Registry, store *authreq.Store) *AdminHandler {
	return &AdminHandler{registry: registry, store: store}
}

// Devices lists every registered device.
func (h *AdminHandler) Devices(w http.ResponseWriter, r *http.Request) {
	devices := h.registry.All()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(devices),
		"devices": devices,
	})
}

// adminRequestView is the full-record debugging shape, timestamps in Unix
// milliseconds like the rest of the request wire format.
type adminRequestView struct {
	RequestID   string               `json:"requestId"`
	DeviceID    string               `json:"deviceId"`
	AppName     string               `json:"appName"`
	Action      domain.RequestAction `json:"action"`
	Metadata    domain.Metadata      `json:"metadata,omitempty"`
	Status      domain.RequestStatus `json:"status"`
	Signature   string               `json:"signature,omitempty"`
	Timestamp   int64                `json:"timestamp"`
	RespondedAt *int64               `json:"respondedAt,omitempty"`
}

// Requests lists every stored auth request, any status.
func (h *AdminHandler) Requests(w http.ResponseWriter, r *http.Request) {
	all := h.store.All()
	views := make([]adminRequestView, 0, len(all))
	for _, req := range all {
		view := adminRequestView{
			RequestID: req.RequestID,
			DeviceID:  req.DeviceID,
			AppName:   req.AppName,
			Action:    req.Action,
			Metadata:  req.Metadata,
			Status:    req.Status,
			Signature: req.Signature,
			Timestamp: req.CreatedAt.UnixMilli(),
		}
		if req.RespondedAt != nil {
			ms := req.RespondedAt.UnixMilli()
			view.RespondedAt = &ms
		}
		views = append(views, view)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(views),
		"requests": views,
	})
}
