// Package apperrors provides typed sentinel errors shared by services and handlers.
package apperrors

import "strings"

// ErrNotFound matches any *NotFoundError via errors.Is.
var ErrNotFound = &NotFoundError{}

// NotFoundError is returned when a requested resource does not exist.
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a NotFoundError with a custom message.
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Resource != "" {
		return e.Resource + " not found"
	}

	return "resource not found"
}

// Is implements the error interface for error comparison.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)

	return ok
}

// ErrValidation matches any *ValidationError via errors.Is.
var ErrValidation = &ValidationError{}

// ValidationError is returned when client input is rejected at the boundary.
// Allowed, when set, lists the accepted values and is appended to the message.
type ValidationError struct {
	Field   string
	Message string
	Allowed []string
}

// NewValidationError creates a ValidationError with a custom message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewInvalidValueError creates a ValidationError for a value outside an enumerated set.
func NewInvalidValueError(field, value string, allowed []string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: "invalid " + field + ": " + value,
		Allowed: allowed,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	msg := e.Message
	if msg == "" {
		if e.Field != "" {
			msg = "validation failed for field: " + e.Field
		} else {
			msg = "validation error"
		}
	}

	if len(e.Allowed) > 0 {
		msg += ". Must be one of: " + strings.Join(e.Allowed, ", ")
	}

	return msg
}

// Is implements the error interface for error comparison.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)

	return ok
}

// ErrUnavailable matches any *UnavailableError via errors.Is.
var ErrUnavailable = &UnavailableError{}

// UnavailableError marks a degraded capability (embedding provider, similarity index).
// Ranking absorbs it; search surfaces it as 503.
type UnavailableError struct {
	Capability string
}

// NewUnavailableError creates an UnavailableError for the named capability.
func NewUnavailableError(capability string) *UnavailableError {
	return &UnavailableError{Capability: capability}
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	if e.Capability != "" {
		return e.Capability + " unavailable"
	}

	return "capability unavailable"
}

// Is implements the error interface for error comparison.
func (e *UnavailableError) Is(target error) bool {
	_, ok := target.(*UnavailableError)

	return ok
}
