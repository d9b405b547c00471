// Package syncerr defines the typed failures surfaced by the synckit primitives.
//
// Failures carry a stable code so callers can match them with errors.Is
// regardless of the message or wrapped cause. Lock contention is never
// reported here; only logically invalid requests are.
package syncerr

import (
	"errors"
	"fmt"
)

// Error is a coded failure returned by a primitive.
type Error struct {
	Code    string // Error code (e.g., "SK-PERMIT-4080")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates an Error with the given code and message.
func New(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *Error) WithDetails(details string) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *Error) WithCause(cause error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Code extracts the code from err if it is an *Error, or "" otherwise.
func Code(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// Has reports whether err is an *Error with the given code.
// An empty code matches any *Error.
func Has(err error, code string) bool {
	var se *Error
	if !errors.As(err, &se) {
		return false
	}
	return code == "" || se.Code == code
}

// ============================================================================
// Permit pool (PERMIT)
// ============================================================================

var (
	// ErrAcquireTimeout indicates no permit became available before the timeout.
	ErrAcquireTimeout = New("SK-PERMIT-4080", "permit acquire timed out")

	// ErrAcquireCanceled indicates the caller's context ended while waiting.
	ErrAcquireCanceled = New("SK-PERMIT-4990", "permit acquire canceled")

	// ErrPermitReleased indicates a permit was released more than once.
	ErrPermitReleased = New("SK-PERMIT-4091", "permit already released")

	// ErrPermitNotHeld indicates the permit was not issued by this limiter.
	ErrPermitNotHeld = New("SK-PERMIT-4092", "permit not held by limiter")

	// ErrInvalidCapacity indicates a non-positive pool capacity.
	ErrInvalidCapacity = New("SK-PERMIT-4001", "capacity must be positive")
)

// ============================================================================
// Account (ACCT)
// ============================================================================

var (
	// ErrInsufficientFunds indicates a withdrawal larger than the balance.
	ErrInsufficientFunds = New("SK-ACCT-4090", "insufficient funds")

	// ErrInvalidAmount indicates a non-positive amount or negative opening balance.
	ErrInvalidAmount = New("SK-ACCT-4001", "invalid amount")

	// ErrNilAccount indicates a transfer to a nil destination.
	ErrNilAccount = New("SK-ACCT-4002", "destination account is nil")
)

// ============================================================================
// Lazy construction (LAZY)
// ============================================================================

var (
	// ErrConstruction wraps a failing singleton constructor.
	ErrConstruction = New("SK-LAZY-5000", "instance construction failed")
)
