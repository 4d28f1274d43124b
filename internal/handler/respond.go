package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"fedauth/internal/authreq"
	"fedauth/internal/domain"
	"fedauth/pkg/errors"
	"fedauth/pkg/logger"
	"fedauth/pkg/validator"
)

// RespondHandler handles approve/deny responses, both protocol variants.
type RespondHandler struct {
	service   *authreq.Service
	validator *validator.Validator
	logger    logger.Logger
}

// NewRespondHandler creates a RespondHandler.
func NewRespondHandler(service *authreq.Service, val *validator.Validator, log logger.Logger) *RespondHandler {
	return &RespondHandler{service: service, validator: val, logger: log}
}

type respondRequest struct {
	RequestID string `json:"requestId" validate:"required"`
	DeviceID  string `json:"deviceId" validate:"required"`
	Response  string `json:"response" validate:"required"`
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
}

type legacyRespondRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
	DeviceID  string `json:"deviceId" validate:"required"`
	Action    string `json:"action" validate:"required"`
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
}

// Respond is the modern variant: the body names the terminal status
// explicitly and anything other than approved/denied is a validation error.
func (h *RespondHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var req respondRequest

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if err == io.EOF {
			respondError(w, http.StatusBadRequest, "Request body is required")
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if missing := h.validator.MissingFields(&req); missing != nil {
		respondMissingFields(w, errors.NewValidation(missing...))
		return
	}

	resolved, err := h.service.Respond(req.RequestID, req.DeviceID,
		domain.RequestStatus(req.Response), req.Signature, millisOrZero(req.Timestamp))
	if err != nil {
		h.respondResolveError(w, err, req.RequestID, "requestId")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   fmt.Sprintf("Request %s successfully", resolved.Status),
		"requestId": resolved.RequestID,
		"status":    resolved.Status,
	})
}

// RespondLegacy is the legacy variant: the exact APPROVE token approves and
// every other token denies. Unrecognized tokens are not an error.
func (h *RespondHandler) RespondLegacy(w http.ResponseWriter, r *http.Request) {
	var req legacyRespondRequest

	// The legacy mobile client sends extra fields; decode permissively.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			respondError(w, http.StatusBadRequest, "Request body is required")
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if missing := h.validator.MissingFields(&req); missing != nil {
		respondMissingFields(w, errors.NewValidation(missing...))
		return
	}

	resolved, err := h.service.RespondLegacy(req.SessionID, req.DeviceID,
		req.Action, req.Signature, millisOrZero(req.Timestamp))
	if err != nil {
		h.respondResolveError(w, err, req.SessionID, "sessionId")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   fmt.Sprintf("Request %s successfully", resolved.Status),
		"sessionId": resolved.RequestID,
		"status":    resolved.Status,
	})
}

// respondResolveError maps the store's error taxonomy onto client statuses:
// not-found 404, mismatch 403, already-resolved and bad status tokens 400.
func (h *RespondHandler) respondResolveError(w http.ResponseWriter, err error, requestID, idField string) {
	switch {
	case errors.Is(err, errors.ErrRequestNotFound):
		respondJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": "Auth request not found",
			idField: requestID,
		})
	case errors.Is(err, errors.ErrDeviceMismatch):
		respondJSON(w, http.StatusForbidden, map[string]interface{}{
			"error":   "Device mismatch",
			"message": "This request belongs to a different device",
		})
	case errors.Is(err, errors.ErrAlreadyResolved):
		status := domain.RequestStatus("")
		if req, ok := h.service.Get(requestID); ok {
			status = req.Status
		}
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "Request already processed",
			"status": status,
		})
	case errors.Is(err, errors.ErrInvalidResponse):
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid response",
			"message": err.Error(),
		})
	default:
		h.logger.Error("Response failed", map[string]interface{}{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "Response failed")
	}
}
