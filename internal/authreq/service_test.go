package authreq

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"fedauth/internal/device"
	"fedauth/internal/domain"
	"fedauth/pkg/errors"
	"fedauth/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(eventType string, payload map[string]interface{}) {
	p.mu.Lock()
	p.events = append(p.events, eventType)
	p.mu.Unlock()
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

type serviceFixture struct {
	clock    *fakeClock
	registry *device.Registry
	store    *Store
	service  *Service
	events   *recordingPublisher
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	clock := newFakeClock()
	registry := device.NewRegistry().WithClock(clock.Now)
	store := NewStore().WithClock(clock.Now)
	gen := NewDemoGenerator(30 * time.Second).WithClock(clock.Now).
		WithActionPicker(func() domain.RequestAction { return domain.ActionLogin })
	pub := &recordingPublisher{}

	return &serviceFixture{
		clock:    clock,
		registry: registry,
		store:    store,
		service:  NewService(registry, store, gen, pub, logger.NewNop()),
		events:   pub,
	}
}

func (f *serviceFixture) registerDevice(deviceID string) {
	f.registry.Register(domain.Device{
		DeviceID:  deviceID,
		UserID:    "u1",
		AccountID: "a1",
		AppName:   "Demo App",
	})
}

func TestPollUnregisteredDevice(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Poll("ghost")
	assert.ErrorIs(t, err, errors.ErrDeviceNotRegistered)

	_, _, err = f.service.PollOne("ghost")
	assert.ErrorIs(t, err, errors.ErrDeviceNotRegistered)
}

func TestFirstPollSynthesizesDemoRequest(t *testing.T) {
	f := newServiceFixture(t)
	f.registerDevice("d1")

	pending, err := f.service.Poll("d1")
	require.NoError(t, err)
	require.Len(t, pending, 1)

	req := pending[0]
	assert.True(t, strings.HasPrefix(req.RequestID, PrefixDemo))
	assert.Equal(t, domain.ActionLogin, req.Action)
	assert.Equal(t, "Demo App", req.AppName)
	assert.Equal(t, demoIPAddress, req.Metadata["ipAddress"])
	assert.Equal(t, domain.StatusPending, req.Status)
	assert.Equal(t, []string{EventRequestCreated}, f.events.types())
}

func TestSecondPollDoesNotDuplicate(t *testing.T) {
	f := newServiceFixture(t)
	f.registerDevice("d1")

	first, err := f.service.Poll("d1")
	require.NoError(t, err)
	require.Len(t, first, 1)

	f.clock.Advance(5 * time.Second)

	second, err := f.service.Poll("d1")
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].RequestID, second[0].RequestID)
}

func TestPollAfterResolutionStaysQuiet(t *testing.T) {
	f := newServiceFixture(t)
	f.registerDevice("d1")

	pending, err := f.service.Poll("d1")
	require.NoError(t, err)
	requestID := pending[0].RequestID

	_, err = f.service.Respond(requestID, "d1", domain.StatusApproved, "sig", time.Time{})
	require.NoError(t, err)

	// Resolved within the quiet period: nothing pending, nothing new.
	f.clock.Advance(10 * time.Second)
	pending, err = f.service.Poll("d1")
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Once the quiet period has elapsed since creation, a new one appears.
	f.clock.Advance(21 * time.Second)
	pending, err = f.service.Poll("d1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.NotEqual(t, requestID, pending[0].RequestID)
}

func TestPollOneReturnsOldestPending(t *testing.T) {
	f := newServiceFixture(t)
	f.registerDevice("d1")

	first := f.store.Create("d1", "Demo App", domain.ActionLogin, nil, PrefixTest)
	f.store.Create("d1", "Demo App", domain.ActionVerifyIdentity, nil, PrefixTest)

	slot, found, err := f.service.PollOne("d1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, first.RequestID, slot.SessionID)
	assert.Equal(t, "login request from Demo App", slot.Details)
	assert.Equal(t, first.CreatedAt, slot.Timestamp)
}

func TestPollOneDeclinesDuringQuietPeriod(t *testing.T) {
	f := newServiceFixture(t)
	f.registerDevice("d1")

	slot, found, err := f.service.PollOne("d1")
	require.NoError(t, err)
	require.True(t, found, "idle device with no history gets a demo request")

	_, err = f.service.RespondLegacy(slot.SessionID, "d1", LegacyApproveToken, "sig", time.Time{})
	require.NoError(t, err)

	_, found, err = f.service.PollOne("d1")
	require.NoError(t, err)
	assert.False(t, found, "no pending and quiet period not yet elapsed")
}

func TestRespondRejectsUnknownStatus(t *testing.T) {
	f := newServiceFixture(t)
	f.registerDevice("d1")
	req := f.store.Create("d1", "Demo App", domain.ActionLogin, nil, PrefixTest)

	_, err := f.service.Respond(req.RequestID, "d1", domain.RequestStatus("maybe"), "", time.Time{})
	assert.ErrorIs(t, err, errors.ErrInvalidResponse)

	got, _ := f.store.Get(req.RequestID)
	assert.Equal(t, domain.StatusPending, got.Status, "invalid status must not mutate state")
}

func TestRespondLegacyTokenMapping(t *testing.T) {
	cases := []struct {
		token string
		want  domain.RequestStatus
	}{
		{"APPROVE", domain.StatusApproved},
		{"DENY", domain.StatusDenied},
		{"approve", domain.StatusDenied},
		{"APPROVE ", domain.StatusDenied},
		{"", domain.StatusDenied},
		{"garbage", domain.StatusDenied},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("token=%q", tc.token), func(t *testing.T) {
			f := newServiceFixture(t)
			f.registerDevice("d1")
			req := f.store.Create("d1", "Demo App", domain.ActionLogin, nil, PrefixTest)

			resolved, err := f.service.RespondLegacy(req.RequestID, "d1", tc.token, "sig", time.Time{})
			require.NoError(t, err, "unrecognized tokens deny, they do not error")
			assert.Equal(t, tc.want, resolved.Status)
		})
	}
}

func TestRespondDeviceMismatch(t *testing.T) {
	f := newServiceFixture(t)
	f.registerDevice("d1")
	req := f.store.Create("d1", "Demo App", domain.ActionLogin, nil, PrefixTest)

	_, err := f.service.Respond(req.RequestID, "other-device", domain.StatusApproved, "", time.Time{})
	assert.ErrorIs(t, err, errors.ErrDeviceMismatch)

	got, _ := f.store.Get(req.RequestID)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestTrigger(t *testing.T) {
	f := newServiceFixture(t)
	f.registerDevice("d1")

	metadata := domain.Metadata{"testMode": true, "location": "Test Location"}
	req, err := f.service.Trigger("d1", "", metadata)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(req.RequestID, PrefixTest))
	assert.Equal(t, domain.ActionLogin, req.Action, "empty action defaults to login")
	assert.Equal(t, true, req.Metadata["testMode"])

	_, err = f.service.Trigger("ghost", domain.ActionLogin, nil)
	assert.ErrorIs(t, err, errors.ErrDeviceNotRegistered)
}

func TestTriggerBypassesQuietPeriod(t *testing.T) {
	f := newServiceFixture(t)
	f.registerDevice("d1")

	// Demo generator just produced one; a manual trigger still lands.
	pending, err := f.service.Poll("d1")
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = f.service.Trigger("d1", domain.ActionVerifyIdentity, nil)
	require.NoError(t, err)

	pending, err = f.service.Poll("d1")
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

// Full approve flow as a device holder would drive it.
func TestEndToEndApprovalFlow(t *testing.T) {
	f := newServiceFixture(t)
	f.registerDevice("d1")

	// First poll synthesizes r1.
	pending, err := f.service.Poll("d1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	r1 := pending[0]
	assert.Equal(t, domain.StatusPending, r1.Status)

	// Holder approves r1.
	resolved, err := f.service.Respond(r1.RequestID, "d1", domain.StatusApproved, "sig-abc", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, resolved.Status)

	// A second response must fail without changing anything.
	_, err = f.service.Respond(r1.RequestID, "d1", domain.StatusDenied, "sig-xyz", time.Time{})
	assert.ErrorIs(t, err, errors.ErrAlreadyResolved)
	got, _ := f.store.Get(r1.RequestID)
	assert.Equal(t, domain.StatusApproved, got.Status)
	assert.Equal(t, "sig-abc", got.Signature)

	// r1 resolved: polls stay empty until the quiet period elapses …
	pending, err = f.service.Poll("d1")
	require.NoError(t, err)
	assert.Empty(t, pending)

	// … and then r2 appears.
	f.clock.Advance(31 * time.Second)
	pending, err = f.service.Poll("d1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.NotEqual(t, r1.RequestID, pending[0].RequestID)

	assert.Equal(t, []string{
		EventRequestCreated,
		EventRequestResolved,
		EventRequestCreated,
	}, f.events.types())
}
