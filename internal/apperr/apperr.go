// Package apperr classifies failures of the assessment workflows.
//
// Every remote call result is mapped onto exactly one Kind before it reaches a
// caller, so handlers and state machines can branch with errors.Is.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Failure kinds.
var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrNetworkUnreachable = errors.New("network unreachable")
	ErrServiceRejected    = errors.New("service rejected")
	ErrDecodeFailed       = errors.New("decode failed")
	ErrPersistFailed      = errors.New("persist failed")
	ErrInvalidInput       = errors.New("invalid input")
	ErrServiceOffline     = errors.New("service offline")
	ErrNoFile             = errors.New("no file selected")
	ErrSubmissionInFlight = errors.New("submission in flight")
	ErrNotFound           = errors.New("not found")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// Error carries a kind, a user-facing message and the underlying cause.
type Error struct {
	Kind    error
	Message string
	Cause   error
	// Status is the upstream HTTP status for ServiceRejected, zero otherwise.
	Status int
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// Code is the stable machine-readable name of the kind.
func (e *Error) Code() string {
	return Code(e.Kind)
}

// New builds an Error of the given kind.
func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind around cause.
func Wrap(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Unreachable is a connection-level failure talking to service.
func Unreachable(service string, cause error) *Error {
	return Wrap(ErrNetworkUnreachable, fmt.Sprintf("could not connect to the %s service", service), cause)
}

// Rejected is a well-formed refusal from a reachable service. message is passed through verbatim.
func Rejected(status int, message string) *Error {
	return &Error{Kind: ErrServiceRejected, Message: message, Status: status}
}

// DecodeFailed is a malformed response body.
func DecodeFailed(service string, cause error) *Error {
	return Wrap(ErrDecodeFailed, fmt.Sprintf("malformed response from the %s service", service), cause)
}

var codes = []struct {
	kind   error
	code   string
	status int
}{
	{ErrUnauthenticated, "UNAUTHENTICATED", http.StatusUnauthorized},
	{ErrNetworkUnreachable, "NETWORK_UNREACHABLE", http.StatusBadGateway},
	{ErrServiceRejected, "SERVICE_REJECTED", http.StatusUnprocessableEntity},
	{ErrDecodeFailed, "DECODE_FAILED", http.StatusBadGateway},
	{ErrPersistFailed, "PERSIST_FAILED", http.StatusOK},
	{ErrInvalidInput, "INVALID_INPUT", http.StatusBadRequest},
	{ErrServiceOffline, "SERVICE_OFFLINE", http.StatusServiceUnavailable},
	{ErrNoFile, "NO_FILE", http.StatusBadRequest},
	{ErrSubmissionInFlight, "SUBMISSION_IN_FLIGHT", http.StatusConflict},
	{ErrNotFound, "NOT_FOUND", http.StatusNotFound},
	{ErrStoreUnavailable, "STORE_UNAVAILABLE", http.StatusServiceUnavailable},
}

// Code returns the machine-readable code for err's kind, or INTERNAL_ERROR.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.kind) {
			return c.code
		}
	}
	return "INTERNAL_ERROR"
}

// HTTPStatus returns the response status the API uses for err.
func HTTPStatus(err error) int {
	for _, c := range codes {
		if errors.Is(err, c.kind) {
			return c.status
		}
	}
	return http.StatusInternalServerError
}

// Message returns the user-facing message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
