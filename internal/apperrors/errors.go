// Package apperrors defines the error taxonomy shared by every service in
// Contestlet. Services never return bare errors across a boundary callers
// care about; they return (or wrap) an *AppError carrying one of the Kinds
// below, which the HTTP layer maps to a status code and JSON envelope.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind is a coarse error category, not a Go type hierarchy. Handlers
// switch on Kind to pick an HTTP status; services never need to know
// about HTTP at all.
type Kind string

const (
	KindUnauthorized          Kind = "unauthorized"
	KindForbidden             Kind = "forbidden"
	KindValidationFailed      Kind = "validation_failed"
	KindNotFound              Kind = "not_found"
	KindConflict              Kind = "conflict"
	KindRateLimited           Kind = "rate_limited"
	KindDependencyUnavailable Kind = "dependency_unavailable"
	KindInternal              Kind = "internal"
)

// AppError is the single error type that crosses a service boundary.
type AppError struct {
	Kind    Kind
	Message string
	// Fields carries per-field validation errors (field name -> message).
	Fields map[string]string
	// RetryAfterSeconds is set for KindRateLimited.
	RetryAfterSeconds int
	// RequestID is attached by the HTTP middleware, not by services.
	RequestID string
	cause     error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.cause }

// New creates an AppError of the given kind.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Wrap attaches a cause to a new AppError, preserving it for errors.Is/As
// chains while keeping the message service-facing.
func Wrap(kind Kind, message string, cause error) *AppError {
	return &AppError{Kind: kind, Message: message, cause: cause}
}

// WithFields attaches per-field validation errors and returns the receiver
// for chaining.
func (e *AppError) WithFields(fields map[string]string) *AppError {
	e.Fields = fields
	return e
}

// WithRetryAfter sets the retry_after hint for rate-limited errors.
func (e *AppError) WithRetryAfter(seconds int) *AppError {
	e.RetryAfterSeconds = seconds
	return e
}

// WithRequestID stamps the error with the inbound request id.
func (e *AppError) WithRequestID(id string) *AppError {
	e.RequestID = id
	return e
}

func Unauthorized(message string) *AppError { return New(KindUnauthorized, message) }
func Forbidden(message string) *AppError    { return New(KindForbidden, message) }
func NotFound(message string) *AppError     { return New(KindNotFound, message) }
func Conflict(message string) *AppError     { return New(KindConflict, message) }
func Internal(message string, cause error) *AppError {
	return Wrap(KindInternal, message, cause)
}
func DependencyUnavailable(message string, cause error) *AppError {
	return Wrap(KindDependencyUnavailable, message, cause)
}
func RateLimited(message string, retryAfterSeconds int) *AppError {
	return New(KindRateLimited, message).WithRetryAfter(retryAfterSeconds)
}
func ValidationFailed(fields map[string]string) *AppError {
	return New(KindValidationFailed, "validation failed").WithFields(fields)
}

// Is reports whether err is an *AppError of the given kind. Safe to call
// on any error, including nil and non-AppError values.
func Is(err error, kind Kind) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// As extracts the *AppError from err, if any.
func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
