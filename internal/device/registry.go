// Package device holds the in-memory registry of client devices.
package device

import (
	"sync"
	"time"

	"fedauth/internal/domain"
)

// Fallbacks for registrations that omit optional or legacy-only fields.
const (
	DefaultAppName  = "Demo App"
	LegacyUserID    = "legacy-user"
	LegacyAccountID = "legacy-account"
)

// Registry stores device records keyed by device id for the lifetime of the
// process. Registration overwrites: last write wins, no merge. Devices are
// never deleted.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]domain.Device
	now     func() time.Time
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		devices: make(map[string]domain.Device),
		now:     time.Now,
	}
}

// WithClock overrides the registry clock; used in tests.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// Register stores or overwrites the record for dev.DeviceID and stamps
// RegisteredAt. AppName falls back to DefaultAppName when empty.
func (r *Registry) Register(dev domain.Device) domain.Device {
	if dev.AppName == "" {
		dev.AppName = DefaultAppName
	}
	dev.RegisteredAt = r.now()

	r.mu.Lock()
	r.devices[dev.DeviceID] = dev
	r.mu.Unlock()

	return dev
}

// Exists reports whether a device is registered.
func (r *Registry) Exists(deviceID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.devices[deviceID]
	return ok
}

// Get returns the record for deviceID, if registered.
func (r *Registry) Get(deviceID string) (domain.Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dev, ok := r.devices[deviceID]
	return dev, ok
}

// All returns every registered device in no particular order.
func (r *Registry) All() []domain.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]domain.Device, 0, len(r.devices))
	for _, dev := range r.devices {
		devices = append(devices, dev)
	}
	return devices
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}
