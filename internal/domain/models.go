// Package domain re-exports core domain types so internal code can import
// `fedauth/internal/domain` while using definitions from `fedauth/pkg/domain`.
package domain

import pkg "fedauth/pkg/domain"

// Device represents a registered client device.
type Device = pkg.Device

// AuthRequest represents an authentication request addressed to a device.
type AuthRequest = pkg.AuthRequest

// RequestStatus represents request lifecycle states.
type RequestStatus = pkg.RequestStatus

// RequestAction represents categories of authentication requests.
type RequestAction = pkg.RequestAction

// Metadata holds arbitrary key-value metadata.
type Metadata = pkg.Metadata

// Re-exported request statuses.
const (
	StatusPending  = pkg.StatusPending
	StatusApproved = pkg.StatusApproved
	StatusDenied   = pkg.StatusDenied
)

// Re-exported request actions.
const (
	ActionLogin              = pkg.ActionLogin
	ActionApproveTransaction = pkg.ActionApproveTransaction
	ActionVerifyIdentity     = pkg.ActionVerifyIdentity
)
