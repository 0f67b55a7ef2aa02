// Package apierror defines the error taxonomy surfaced by the HTTP API.
// Handlers classify failures into one of six kinds; everything a lower
// layer reports without a kind is treated as internal.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an API failure.
type Kind int

const (
	// KindInternal covers unexpected failures such as store faults.
	KindInternal Kind = iota
	// KindValidation covers malformed or missing client input.
	KindValidation
	// KindUnauthorized covers missing, invalid, or mismatched credentials.
	KindUnauthorized
	// KindNotFound covers absent target entities.
	KindNotFound
	// KindConflict covers uniqueness violations.
	KindConflict
	// KindRateLimited covers throttled requests.
	KindRateLimited
)

// Error carries a failure kind alongside a client-safe message. The wrapped
// cause, if any, is for logs only and never rendered to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.Err }

// Status maps the kind to its HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Validation constructs a client-input error.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Unauthorized constructs a credential error.
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// NotFound constructs an absent-entity error.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict constructs a uniqueness-violation error.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// RateLimited constructs a throttled-request error.
func RateLimited(message string) *Error {
	return &Error{Kind: KindRateLimited, Message: message}
}

// Internal wraps an unexpected failure. The cause is preserved for logging
// but the message is what clients see.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// From extracts the *Error from err, or wraps err as internal when it does
// not carry a kind.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal("Something went wrong. Please try again later.", err)
}

// IsKind reports whether err carries the provided kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}
