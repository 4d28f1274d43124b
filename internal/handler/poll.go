package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"fedauth/internal/authreq"
	"fedauth/pkg/errors"
	"fedauth/pkg/logger"

	"github.com/gorilla/mux"
)

// PollHandler handles request polling, both protocol variants.
type PollHandler struct {
	service *authreq.Service
	logger  logger.Logger
}

// NewPollHandler creates a PollHandler.
func NewPollHandler(service *authreq.Service, log logger.Logger) *PollHandler {
	return &PollHandler{service: service, logger: log}
}

// Poll is the modern multi-request variant: GET /api/poll/{deviceId}
// returns every pending request for the device.
func (h *PollHandler) Poll(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["deviceId"]

	pending, err := h.service.Poll(deviceID)
	if err != nil {
		if errors.Is(err, errors.ErrDeviceNotRegistered) {
			respondJSON(w, http.StatusNotFound, map[string]interface{}{
				"error":    "Device not registered",
				"deviceId": deviceID,
			})
			return
		}
		h.logger.Error("Polling failed", map[string]interface{}{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "Polling failed")
		return
	}

	views := make([]requestView, 0, len(pending))
	for _, req := range pending {
		views = append(views, viewOf(req))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"requests": views,
		"polledAt": time.Now().UTC().Format(time.RFC3339),
	})
}

type legacyPollRequest struct {
	DeviceID string `json:"deviceId"`
}

// legacySlotView is the narrow single-request shape of the legacy protocol.
type legacySlotView struct {
	SessionID string `json:"sessionId"`
	Timestamp int64  `json:"timestamp"`
	Details   string `json:"details"`
}

// PollLegacy is the single-slot variant: POST body carries the deviceId and
// the response holds at most one pending request, or an explicit null.
func (h *PollHandler) PollLegacy(w http.ResponseWriter, r *http.Request) {
	var req legacyPollRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.DeviceID == "" {
		respondError(w, http.StatusBadRequest, "Missing deviceId")
		return
	}

	slot, found, err := h.service.PollOne(req.DeviceID)
	if err != nil {
		if errors.Is(err, errors.ErrDeviceNotRegistered) {
			respondJSON(w, http.StatusNotFound, map[string]interface{}{
				"error":    "Device not registered",
				"deviceId": req.DeviceID,
			})
			return
		}
		h.logger.Error("Polling failed", map[string]interface{}{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "Polling failed")
		return
	}

	// The legacy client expects an explicit null when nothing is pending.
	var view *legacySlotView
	if found {
		view = &legacySlotView{
			SessionID: slot.SessionID,
			Timestamp: slot.Timestamp.UnixMilli(),
			Details:   slot.Details,
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"authRequest": view,
	})
}
