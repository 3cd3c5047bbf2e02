// Package apperr defines the caller-facing error taxonomy shared by the
// fulfillment engine and the HTTP layer.
package apperr

import (
	"context"
	"errors"
	"net/http"
)

// Kind is a machine-readable error classification.
type Kind string

const (
	KindNotFound                Kind = "NOT_FOUND"
	KindValidation              Kind = "VALIDATION_ERROR"
	KindForbidden               Kind = "FORBIDDEN"
	KindInvalidStatusTransition Kind = "INVALID_STATUS_TRANSITION"
	KindRateLimited             Kind = "RATE_LIMITED"
	KindAuthenticationRequired  Kind = "AUTHENTICATION_REQUIRED"
	KindAuthenticationInvalid   Kind = "AUTHENTICATION_INVALID"
	KindTransactionTimeout      Kind = "TRANSACTION_TIMEOUT"
	KindStorage                 Kind = "STORAGE_ERROR"
	KindMethodNotAllowed        Kind = "METHOD_NOT_ALLOWED"
)

var kindToStatus = map[Kind]int{
	KindNotFound:                http.StatusNotFound,
	KindValidation:              http.StatusBadRequest,
	KindForbidden:               http.StatusForbidden,
	KindInvalidStatusTransition: http.StatusConflict,
	KindRateLimited:             http.StatusTooManyRequests,
	KindAuthenticationRequired:  http.StatusUnauthorized,
	KindAuthenticationInvalid:   http.StatusUnauthorized,
	KindTransactionTimeout:      http.StatusServiceUnavailable,
	KindStorage:                 http.StatusInternalServerError,
	KindMethodNotAllowed:        http.StatusMethodNotAllowed,
}

// Error carries a Kind, a user-safe message and a kind-specific details payload.
// Err holds the internal cause and is never rendered to callers.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, apperr.Forbidden(""))
// style checks work regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Status returns the HTTP status code for the error kind.
func (e *Error) Status() int {
	if s, ok := kindToStatus[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithDetails returns e with details attached.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

func NotFound(message string) *Error   { return New(KindNotFound, message) }
func Validation(message string) *Error { return New(KindValidation, message) }
func Forbidden(message string) *Error  { return New(KindForbidden, message) }
func RateLimited() *Error              { return New(KindRateLimited, "too many requests") }

func MethodNotAllowed(method string) *Error {
	return New(KindMethodNotAllowed, "method "+method+" is not allowed on this route")
}

func AuthenticationRequired() *Error {
	return New(KindAuthenticationRequired, "authentication required")
}

func AuthenticationInvalid() *Error {
	return New(KindAuthenticationInvalid, "invalid or expired credentials")
}

// TransactionTimeout wraps the underlying deadline error.
func TransactionTimeout(err error) *Error {
	return &Error{Kind: KindTransactionTimeout, Message: "the operation timed out and was not applied", Err: err}
}

// Storage wraps an unclassified failure behind a generic message.
func Storage(err error) *Error {
	return &Error{Kind: KindStorage, Message: "internal storage error", Err: err}
}

// InvalidTransition reports an edge missing from the transition table.
func InvalidTransition(current, requested string, allowed []string) *Error {
	if allowed == nil {
		allowed = []string{}
	}
	return &Error{
		Kind:    KindInvalidStatusTransition,
		Message: "cannot change order status from " + current + " to " + requested,
		Details: map[string]any{
			"currentStatus":      current,
			"requestedStatus":    requested,
			"allowedTransitions": allowed,
		},
	}
}

// From classifies any error into an *Error. Context deadline errors become
// TRANSACTION_TIMEOUT, everything unclassified becomes STORAGE_ERROR.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return TransactionTimeout(err)
	}
	return Storage(err)
}

// KindOf returns the classification of err, or "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return From(err).Kind
}

// HTTPStatus maps err to an HTTP status code.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return From(err).Status()
}
