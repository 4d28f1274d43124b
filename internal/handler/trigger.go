package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"

	"fedauth/internal/authreq"
	"fedauth/internal/domain"
	"fedauth/pkg/errors"
	"fedauth/pkg/logger"
)

// TriggerHandler lets the test page create an auth request on demand,
// bypassing the demo generator's quiet period.
type TriggerHandler struct {
	service *authreq.Service
	logger  logger.Logger
}

// NewTriggerHandler creates a TriggerHandler.
func NewTriggerHandler(service *authreq.Service, log logger.Logger) *TriggerHandler {
	return &TriggerHandler{service: service, logger: log}
}

type triggerRequest struct {
	DeviceID string               `json:"deviceId"`
	Action   domain.RequestAction `json:"action"`
}

// Trigger creates a manually-initiated request for a device. The metadata
// records the triggering caller and marks test mode explicitly.
func (h *TriggerHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}

	metadata := domain.Metadata{
		"ipAddress": clientIP(r),
		"userAgent": userAgentOr(r, "Test Browser"),
		"location":  "Test Location",
		"testMode":  true,
	}

	created, err := h.service.Trigger(req.DeviceID, req.Action, metadata)
	if err != nil {
		if errors.Is(err, errors.ErrDeviceNotRegistered) {
			respondJSON(w, http.StatusNotFound, map[string]interface{}{
				"success": false,
				"error":   "Device not registered",
			})
			return
		}
		h.logger.Error("Trigger failed", map[string]interface{}{"error": err.Error()})
		respondJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   "Trigger failed",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"requestId": created.RequestID,
		"message":   fmt.Sprintf("Auth request created for %s", created.AppName),
		"action":    created.Action,
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "127.0.0.1"
}

func userAgentOr(r *http.Request, fallback string) string {
	if ua := r.UserAgent(); ua != "" {
		return ua
	}
	return fallback
}
