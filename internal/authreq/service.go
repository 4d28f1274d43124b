package authreq

import (
	"fmt"
	"time"

	"fedauth/internal/device"
	"fedauth/internal/domain"
	"fedauth/pkg/errors"
	"fedauth/pkg/logger"
)

// LegacyApproveToken is the single action token the legacy mobile client
// sends for approval. Every other token, recognized or not, maps to denied.
const LegacyApproveToken = "APPROVE"

// Broker event types published to observers.
const (
	EventDeviceRegistered = "device.registered"
	EventRequestCreated   = "request.created"
	EventRequestResolved  = "request.resolved"
)

// Publisher receives broker lifecycle events, e.g. for the live test-page
// feed. Publish must not block the caller for long.
type Publisher interface {
	Publish(eventType string, payload map[string]interface{})
}

// PendingSlot is the narrow single-request shape returned by the legacy
// polling variant.
type PendingSlot struct {
	SessionID string
	Timestamp time.Time
	Details   string
}

// Service brokers authentication requests between registered devices and
// requesting applications, spanning both the modern JSON protocol and the
// legacy field-oriented one over a single shared state model.
type Service struct {
	devices *device.Registry
	store   *Store
	demo    *DemoGenerator
	events  Publisher
	logger  logger.Logger
}

// NewService wires the broker service. events may be nil when no observer
// feed is attached.
func NewService(devices *device.Registry, store *Store, demo *DemoGenerator, events Publisher, log logger.Logger) *Service {
	return &Service{
		devices: devices,
		store:   store,
		demo:    demo,
		events:  events,
		logger:  log,
	}
}

// Poll returns every pending request for deviceID, oldest first. When the
// pending set is empty the demo generator may append exactly one synthetic
// request. Fails with ErrDeviceNotRegistered for unknown devices.
func (s *Service) Poll(deviceID string) ([]domain.AuthRequest, error) {
	if !s.devices.Exists(deviceID) {
		return nil, errors.ErrDeviceNotRegistered
	}

	pending := s.store.ListPendingForDevice(deviceID)
	if len(pending) == 0 {
		if req, ok := s.maybeGenerateDemo(deviceID); ok {
			pending = append(pending, req)
		}
	}
	return pending, nil
}

// PollOne is the legacy single-slot variant: it returns at most one pending
// request (the oldest inserted), reshaped into a PendingSlot. The second
// return value is false when the device has no pending request and the demo
// generator declined.
func (s *Service) PollOne(deviceID string) (PendingSlot, bool, error) {
	if !s.devices.Exists(deviceID) {
		return PendingSlot{}, false, errors.ErrDeviceNotRegistered
	}

	pending := s.store.ListPendingForDevice(deviceID)
	if len(pending) > 0 {
		return slotView(pending[0]), true, nil
	}

	if req, ok := s.maybeGenerateDemo(deviceID); ok {
		return slotView(req), true, nil
	}
	return PendingSlot{}, false, nil
}

// Get returns a snapshot of a stored request by id.
func (s *Service) Get(requestID string) (domain.AuthRequest, bool) {
	return s.store.Get(requestID)
}

// Respond is the modern response variant: the caller names the terminal
// status explicitly. Anything other than approved or denied is rejected
// before it reaches the state machine.
func (s *Service) Respond(requestID, deviceID string, status domain.RequestStatus, signature string, respondedAt time.Time) (domain.AuthRequest, error) {
	if !TerminalStatus(status) {
		return domain.AuthRequest{}, errors.ErrInvalidResponse
	}
	return s.resolve(requestID, deviceID, status, signature, respondedAt)
}

// RespondLegacy maps the legacy action token onto the state machine: the
// exact APPROVE token approves, every other value denies. Fallback-to-deny
// is deliberate contract, not an error.
func (s *Service) RespondLegacy(sessionID, deviceID, action, signature string, respondedAt time.Time) (domain.AuthRequest, error) {
	status := domain.StatusDenied
	if action == LegacyApproveToken {
		status = domain.StatusApproved
	}
	return s.resolve(sessionID, deviceID, status, signature, respondedAt)
}

// Trigger creates a request manually, bypassing the demo quiet period; used
// by the test page. The action defaults to login.
func (s *Service) Trigger(deviceID string, action domain.RequestAction, metadata domain.Metadata) (domain.AuthRequest, error) {
	dev, ok := s.devices.Get(deviceID)
	if !ok {
		return domain.AuthRequest{}, errors.ErrDeviceNotRegistered
	}
	if action == "" {
		action = domain.ActionLogin
	}

	req := s.store.Create(deviceID, dev.AppName, action, metadata, PrefixTest)

	s.logger.Info("Auth request triggered", map[string]interface{}{
		"request_id": req.RequestID,
		"device_id":  deviceID,
		"action":     string(action),
	})
	s.publish(EventRequestCreated, req)

	return req, nil
}

func (s *Service) resolve(requestID, deviceID string, status domain.RequestStatus, signature string, respondedAt time.Time) (domain.AuthRequest, error) {
	req, err := s.store.Resolve(requestID, deviceID, status, signature, respondedAt)
	if err != nil {
		return domain.AuthRequest{}, err
	}

	s.logger.Info("Auth request resolved", map[string]interface{}{
		"request_id": req.RequestID,
		"device_id":  deviceID,
		"status":     string(req.Status),
	})
	s.publish(EventRequestResolved, req)

	return req, nil
}

func (s *Service) maybeGenerateDemo(deviceID string) (domain.AuthRequest, bool) {
	dev, ok := s.devices.Get(deviceID)
	if !ok {
		return domain.AuthRequest{}, false
	}

	last, hasLast := s.store.MostRecentForDevice(deviceID)
	if !s.demo.ShouldGenerate(last, hasLast) {
		return domain.AuthRequest{}, false
	}

	req := s.store.Create(deviceID, dev.AppName, s.demo.Action(), s.demo.Metadata(), PrefixDemo)

	s.logger.Info("Auto-generated auth request", map[string]interface{}{
		"request_id": req.RequestID,
		"device_id":  deviceID,
		"action":     string(req.Action),
	})
	s.publish(EventRequestCreated, req)

	return req, true
}

func (s *Service) publish(eventType string, req domain.AuthRequest) {
	if s.events == nil {
		return
	}
	s.events.Publish(eventType, map[string]interface{}{
		"requestId": req.RequestID,
		"deviceId":  req.DeviceID,
		"action":    string(req.Action),
		"status":    string(req.Status),
	})
}

func slotView(req domain.AuthRequest) PendingSlot {
	return PendingSlot{
		SessionID: req.RequestID,
		Timestamp: req.CreatedAt,
		Details:   fmt.Sprintf("%s request from %s", req.Action, req.AppName),
	}
}
