// Package handler provides the HTTP endpoints of the auth broker, covering
// both the modern JSON protocol and the legacy field-oriented protocol used
// by the existing mobile client.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"fedauth/internal/domain"
	"fedauth/pkg/errors"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondMissingFields(w http.ResponseWriter, verr *errors.ValidationError) {
	respondJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":    "Missing required fields",
		"required": verr.Fields,
	})
}

// requestView is the wire shape of a pending request in the modern poll
// response. Timestamps ride as Unix milliseconds for mobile-client
// compatibility.
type requestView struct {
	RequestID string               `json:"requestId"`
	AppName   string               `json:"appName"`
	Action    domain.RequestAction `json:"action"`
	Metadata  domain.Metadata      `json:"metadata,omitempty"`
	Timestamp int64                `json:"timestamp"`
}

func viewOf(req domain.AuthRequest) requestView {
	return requestView{
		RequestID: req.RequestID,
		AppName:   req.AppName,
		Action:    req.Action,
		Metadata:  req.Metadata,
		Timestamp: req.CreatedAt.UnixMilli(),
	}
}

// millisOrZero converts an optional client-supplied Unix-millisecond
// timestamp; zero means "not supplied, stamp server time".
func millisOrZero(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
