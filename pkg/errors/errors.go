// Package errors provides common, reusable error values and helpers.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	// Registry errors
	ErrDeviceNotRegistered = errors.New("device not registered")

	// Request store errors
	ErrRequestNotFound = errors.New("auth request not found")
	ErrDeviceMismatch  = errors.New("request belongs to a different device")
	ErrAlreadyResolved = errors.New("request already processed")

	// Response errors
	ErrInvalidResponse = errors.New("response must be approved or denied")
)

// ValidationError reports required request fields that were missing or
// invalid. Fields carries the wire names so handlers can echo them back
// to the client.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// NewValidation builds a ValidationError for the given wire field names.
func NewValidation(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// AsValidation extracts a ValidationError from err, if present.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
