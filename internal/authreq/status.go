package authreq

import (
	"fedauth/internal/domain"
)

// canTransition reports whether a request status may move from -> to. The
// only legal moves are pending -> approved and pending -> denied; terminal
// states never change again.
func canTransition(from, to domain.RequestStatus) bool {
	if from != domain.StatusPending {
		return false
	}
	return to == domain.StatusApproved || to == domain.StatusDenied
}

// TerminalStatus reports whether s is a valid terminal status a caller may
// request. Anything outside approved/denied is rejected before it reaches
// the state machine.
func TerminalStatus(s domain.RequestStatus) bool {
	return s == domain.StatusApproved || s == domain.StatusDenied
}
