package domain

import (
	"time"
)

// RequestStatus represents the lifecycle state of an authentication request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusDenied   RequestStatus = "denied"
)

// RequestAction categorizes what the holder is being asked to approve. The
// set is open: callers may supply their own tags.
type RequestAction string

const (
	ActionLogin              RequestAction = "login"
	ActionApproveTransaction RequestAction = "approve_transaction"
	ActionVerifyIdentity     RequestAction = "verify_identity"
)

// Metadata holds arbitrary key-value metadata
type Metadata map[string]interface{}

// Device represents a registered client device capable of polling for and
// resolving authentication requests. Records are immutable after
// registration; re-registering the same device id overwrites the record.
type Device struct {
	DeviceID     string    `json:"deviceId"`
	UserID       string    `json:"userId"`
	AccountID    string    `json:"accountId"`
	AppName      string    `json:"appName"`
	PublicKey    string    `json:"publicKey,omitempty"`
	DeviceInfo   Metadata  `json:"deviceInfo,omitempty"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// AuthRequest represents one "approve or deny action X" unit of work
// addressed to a single device. AppName is copied from the device record at
// creation time, not live-joined. DeviceID never changes after creation.
type AuthRequest struct {
	RequestID   string        `json:"requestId"`
	DeviceID    string        `json:"deviceId"`
	AppName     string        `json:"appName"`
	Action      RequestAction `json:"action"`
	Metadata    Metadata      `json:"metadata,omitempty"`
	Status      RequestStatus `json:"status"`
	Signature   string        `json:"signature,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	RespondedAt *time.Time    `json:"respondedAt,omitempty"`
}

// Pending reports whether the request is still awaiting a response.
func (r *AuthRequest) Pending() bool {
	return r.Status == StatusPending
}

// Resolved reports whether the request has reached a terminal state.
func (r *AuthRequest) Resolved() bool {
	return r.Status == StatusApproved || r.Status == StatusDenied
}
