// Package authreq implements the authentication request broker: the
// in-memory request store, its pending/approved/denied state machine, the
// demo request generator, and the expiry sweeper.
package authreq

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"fedauth/internal/domain"
	"fedauth/pkg/errors"
)

// Request id prefixes. The suffix is always 16 crypto-random hex characters,
// so collisions are negligible within process lifetime.
const (
	PrefixDemo = "demo_"
	PrefixTest = "test_"
)

type record struct {
	// mu serializes the check-then-set in resolve for this request only.
	// Concurrent resolutions of different requests never contend.
	mu  sync.Mutex
	req domain.AuthRequest
}

// Store holds authentication requests in memory, preserving insertion order
// so the legacy single-slot poll picks the oldest pending request
// deterministically rather than by incidental map iteration.
type Store struct {
	mu      sync.RWMutex
	records map[string]*record
	order   []string
	now     func() time.Time
}

// NewStore builds an empty Store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]*record),
		now:     time.Now,
	}
}

// WithClock overrides the store clock; used in tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Create stores a new pending request for deviceID and returns it. The id is
// prefix plus a 16-hex-character crypto-random suffix.
func (s *Store) Create(deviceID, appName string, action domain.RequestAction, metadata domain.Metadata, prefix string) domain.AuthRequest {
	req := domain.AuthRequest{
		DeviceID:  deviceID,
		AppName:   appName,
		Action:    action,
		Metadata:  metadata,
		Status:    domain.StatusPending,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		req.RequestID = prefix + randomHex(8)
		if _, taken := s.records[req.RequestID]; !taken {
			break
		}
	}

	s.records[req.RequestID] = &record{req: req}
	s.order = append(s.order, req.RequestID)

	return req
}

// Get returns a snapshot of the request with the given id.
func (s *Store) Get(requestID string) (domain.AuthRequest, bool) {
	s.mu.RLock()
	rec, ok := s.records[requestID]
	s.mu.RUnlock()
	if !ok {
		return domain.AuthRequest{}, false
	}
	return rec.snapshot(), true
}

// ListPendingForDevice returns snapshots of every pending request addressed
// to deviceID, oldest inserted first.
func (s *Store) ListPendingForDevice(deviceID string) []domain.AuthRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []domain.AuthRequest
	for _, id := range s.order {
		req := s.records[id].snapshot()
		if req.DeviceID == deviceID && req.Pending() {
			pending = append(pending, req)
		}
	}
	return pending
}

// MostRecentForDevice returns the request with the greatest creation
// timestamp among all requests (any status) for deviceID, ties broken by id.
// Used only for timing the demo generator.
func (s *Store) MostRecentForDevice(deviceID string) (domain.AuthRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest domain.AuthRequest
	found := false
	for _, id := range s.order {
		req := s.records[id].snapshot()
		if req.DeviceID != deviceID {
			continue
		}
		if !found || req.CreatedAt.After(latest.CreatedAt) ||
			(req.CreatedAt.Equal(latest.CreatedAt) && req.RequestID > latest.RequestID) {
			latest = req
			found = true
		}
	}
	return latest, found
}

// Resolve atomically transitions the request to status, recording the
// signature and response time. Exactly one of N concurrent Resolve calls on
// the same pending request succeeds; the rest observe the terminal state and
// fail with ErrAlreadyResolved.
func (s *Store) Resolve(requestID, deviceID string, status domain.RequestStatus, signature string, respondedAt time.Time) (domain.AuthRequest, error) {
	s.mu.RLock()
	rec, ok := s.records[requestID]
	s.mu.RUnlock()
	if !ok {
		return domain.AuthRequest{}, errors.ErrRequestNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.req.DeviceID != deviceID {
		return domain.AuthRequest{}, errors.ErrDeviceMismatch
	}
	if !canTransition(rec.req.Status, status) {
		return domain.AuthRequest{}, errors.ErrAlreadyResolved
	}

	if respondedAt.IsZero() {
		respondedAt = s.now()
	}
	rec.req.Status = status
	rec.req.Signature = signature
	rec.req.RespondedAt = &respondedAt

	return rec.req, nil
}

// EvictOlderThan removes every request, regardless of status, created before
// now minus maxAge. Returns the number of requests removed. A resolution
// racing an eviction of the same request is benign: whichever lands last
// wins, and no partially-mutated record is ever observable.
func (s *Store) EvictOlderThan(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	kept := s.order[:0]
	evicted := 0
	for _, id := range s.order {
		if s.records[id].req.CreatedAt.Before(cutoff) {
			delete(s.records, id)
			evicted++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return evicted
}

// All returns snapshots of every stored request, oldest inserted first.
func (s *Store) All() []domain.AuthRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	requests := make([]domain.AuthRequest, 0, len(s.order))
	for _, id := range s.order {
		requests = append(requests, s.records[id].snapshot())
	}
	return requests
}

// Len returns the number of stored requests, any status.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (r *record) snapshot() domain.AuthRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.req
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; treat it as fatal.
		panic(err)
	}
	return hex.EncodeToString(buf)
}
