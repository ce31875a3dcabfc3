// Package errors provides the error taxonomy shared by the store, the
// mutation service and the HTTP layer.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a machine-readable failure class.
type Kind string

const (
	// KindValidation marks malformed or incomplete input; the caller must
	// resubmit with a corrected request.
	KindValidation Kind = "VALIDATION"
	// KindForbidden marks a role-check failure; not retryable without
	// different credentials.
	KindForbidden Kind = "FORBIDDEN"
	// KindUnauthorized marks an authenticated caller attempting to mutate a
	// resource they do not own.
	KindUnauthorized Kind = "UNAUTHORIZED"
	// KindNotFound marks an absent target id.
	KindNotFound Kind = "NOT_FOUND"
	// KindServer marks a storage or infrastructure failure; the caller may
	// retry.
	KindServer Kind = "SERVER"
)

// Error is the domain error type. Message is safe to return to clients;
// Cause holds the underlying error for logs only.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches errors by kind so callers can use errors.Is with a bare
// New(kind, ...) sentinel.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates a domain error with a kind and client-safe message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a domain error that keeps the underlying cause for logging
// while exposing only message to clients.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the kind from an error chain; unclassified errors report
// KindServer so internal failures are never mistaken for client mistakes.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindServer
}

// ClientMessage returns the client-safe message for an error chain. Internal
// storage errors are never echoed verbatim.
func ClientMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// HTTPStatus maps a failure class to its HTTP status code. Ownership
// failures use 401, matching the gateway's published contract.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
