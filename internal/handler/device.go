package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"fedauth/internal/authreq"
	"fedauth/internal/device"
	"fedauth/internal/domain"
	"fedauth/pkg/errors"
	"fedauth/pkg/logger"
	"fedauth/pkg/validator"
)

// DeviceHandler handles device registration, both protocol variants.
type DeviceHandler struct {
	registry  *device.Registry
	validator *validator.Validator
	events    authreq.Publisher
	logger    logger.Logger
}

// NewDeviceHandler creates a DeviceHandler. events may be nil.
func NewDeviceHandler(registry *device.Registry, val *validator.Validator, events authreq.Publisher, log logger.Logger) *DeviceHandler {
	return &DeviceHandler{
		registry:  registry,
		validator: val,
		events:    events,
		logger:    log,
	}
}

type registerRequest struct {
	DeviceID   string          `json:"deviceId" validate:"required"`
	UserID     string          `json:"userId" validate:"required"`
	AccountID  string          `json:"accountId" validate:"required"`
	AppName    string          `json:"appName"`
	PublicKey  string          `json:"publicKey"`
	DeviceInfo domain.Metadata `json:"deviceInfo"`
}

type legacyRegisterRequest struct {
	DeviceID   string `json:"deviceId" validate:"required"`
	DeviceName string `json:"deviceName" validate:"required"`
	PublicKey  string `json:"publicKey"`
}

// Register handles modern registration: deviceId, userId, and accountId are
// all required. Re-registration overwrites the existing record.
func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest

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

	dev := h.registry.Register(domain.Device{
		DeviceID:   req.DeviceID,
		UserID:     req.UserID,
		AccountID:  req.AccountID,
		AppName:    req.AppName,
		PublicKey:  req.PublicKey,
		DeviceInfo: req.DeviceInfo,
	})

	h.finishRegistration(w, dev)
}

// RegisterLegacy handles the legacy variant: only deviceId and deviceName
// are required, and placeholder user/account identifiers are synthesized.
func (h *DeviceHandler) RegisterLegacy(w http.ResponseWriter, r *http.Request) {
	var req legacyRegisterRequest

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

	dev := h.registry.Register(domain.Device{
		DeviceID:  req.DeviceID,
		UserID:    device.LegacyUserID,
		AccountID: device.LegacyAccountID,
		AppName:   req.DeviceName,
		PublicKey: req.PublicKey,
	})

	h.finishRegistration(w, dev)
}

func (h *DeviceHandler) finishRegistration(w http.ResponseWriter, dev domain.Device) {
	h.logger.Info("Device registered", map[string]interface{}{
		"device_id": dev.DeviceID,
		"app_name":  dev.AppName,
	})
	if h.events != nil {
		h.events.Publish(authreq.EventDeviceRegistered, map[string]interface{}{
			"deviceId": dev.DeviceID,
			"appName":  dev.AppName,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"message":      "Device registered successfully",
		"deviceId":     dev.DeviceID,
		"registeredAt": dev.RegisteredAt.UTC().Format(time.RFC3339),
	})
}
