// Package apperr holds the error kinds surfaced by the auth core. Callers
// classify errors with errors.Is against the sentinels below.
package apperr

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("account already exists")
	ErrAuthentication = errors.New("invalid email or password")
	ErrTokenInvalid   = errors.New("invalid or expired token")
	ErrNotFound       = errors.New("account not found")
	ErrNotification   = errors.New("notification failed")
	ErrForbidden      = errors.New("insufficient authority")
)

// ErrInvalidPhoneNumber is the validation kind reported by the phone
// normalizer. It is a match target for errors.Is; callers that need a
// mutable value use InvalidPhoneNumber.
var ErrInvalidPhoneNumber error = InvalidPhoneNumber()

// InvalidPhoneNumber returns a fresh error matching ErrInvalidPhoneNumber.
func InvalidPhoneNumber() *ValidationError {
	return NewValidationError("phoneNumber", "invalid phone number")
}

// ValidationError lists every violated constraint, keyed by input field.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is makes every ValidationError match ErrValidation, and matches another
// ValidationError when both report the same fields.
func (e *ValidationError) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	var other *ValidationError
	if !errors.As(target, &other) || other == nil {
		return false
	}
	if len(other.Fields) == 0 || len(other.Fields) > len(e.Fields) {
		return false
	}
	for k := range other.Fields {
		if _, ok := e.Fields[k]; !ok {
			return false
		}
	}
	return true
}

// Merge folds the fields of other into e. Existing messages win.
func (e *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	if e.Fields == nil {
		e.Fields = make(map[string]string, len(other.Fields))
	}
	for k, v := range other.Fields {
		if _, ok := e.Fields[k]; !ok {
			e.Fields[k] = v
		}
	}
}

// NotificationError records a failed side effect for a single collaborator.
type NotificationError struct {
	Channel string // "email" or "event"
	Event   string
	Err     error
}

func (e *NotificationError) Error() string {
	return ErrNotification.Error() + ": " + e.Channel + " (" + e.Event + "): " + e.Err.Error()
}

func (e *NotificationError) Unwrap() []error { return []error{ErrNotification, e.Err} }
