// Package domainerrors defines the error taxonomy shared by every service
// and handler. Services return coded errors; the HTTP boundary maps codes to
// status values and decides which messages are safe to expose.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error. The set is closed: handlers rely on it for
// HTTP status mapping.
type Code string

const (
	// CodeValidation covers malformed or missing input.
	CodeValidation Code = "validation"
	// CodeConflict covers uniqueness violations (duplicate email, event name).
	CodeConflict Code = "conflict"
	// CodeUnauthorized covers missing or invalid credentials and tokens.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden covers authenticated callers lacking role or ownership.
	CodeForbidden Code = "forbidden"
	// CodeNotFound covers lookups of records that do not exist.
	CodeNotFound Code = "not_found"

	// Registration protocol outcomes. All map to 400 like validation errors
	// but carry distinct codes so clients can react to each.
	CodeDeadlinePassed    Code = "deadline_passed"
	CodeCapacityReached   Code = "capacity_reached"
	CodeAlreadyRegistered Code = "already_registered"

	// CodeConfig covers startup misconfiguration surfacing at request time,
	// such as a missing signing secret.
	CodeConfig Code = "config"
	// CodeInternal covers everything unexpected. Details are logged, never
	// returned.
	CodeInternal Code = "internal"
)

// Error is a coded domain error, optionally wrapping a cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is treats two domain errors as equal when code and message match, so tests
// can assert with errors.Is against a freshly constructed error.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code && e.Message == other.Message
}

// New constructs a coded error with a caller-facing message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause. The cause is kept
// for logs and errors.Is/As, not for the response body.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for uncoded
// errors so unexpected failures never leak detail.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

// MessageOf extracts the caller-facing message, empty for uncoded errors.
func MessageOf(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return ""
}
