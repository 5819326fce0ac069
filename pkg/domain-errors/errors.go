// Package domainerrors provides coded domain errors. Services attach a
// stable machine-readable code to every rejection so callers (and the
// HTTP layer) can react by kind without string matching.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies the kind of domain failure. Codes are part of the API
// surface: transports map them to statuses and clients branch on them.
type Code string

const (
	// CodeInvalidArgument marks malformed or out-of-range input: zero
	// wallet, non-positive target or amount, fee rate over cap.
	CodeInvalidArgument Code = "invalid_argument"
	// CodeNotFound marks a reference to a nonexistent charity or donation.
	CodeNotFound Code = "not_found"
	// CodeUnauthorized marks an owner-gated operation attempted by a
	// caller that is not the owner.
	CodeUnauthorized Code = "unauthorized"
	// CodeNotVerified marks a donation against a charity that has not
	// passed the verification gate.
	CodeNotVerified Code = "not_verified"
	// CodeInactive marks a donation against a deactivated charity.
	CodeInactive Code = "inactive"
	// CodeInternal marks infrastructure failures. Descriptions are not
	// exposed to callers.
	CodeInternal Code = "internal_error"
)

// Error is a domain error with a code, a caller-safe message, and an
// optional wrapped cause.
type Error struct {
	code    Code
	message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error { return e.cause }

// Code returns the error's domain code.
func (e *Error) Code() Code { return e.code }

// Message returns the caller-safe description.
func (e *Error) Message() string { return e.message }

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.code == code
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the domain code from err, defaulting to CodeInternal
// for errors that never passed through this package.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.code
	}
	return CodeInternal
}
