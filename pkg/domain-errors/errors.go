// Package domainerrors provides coded errors for the funding domain.
//
// Services construct these at precondition checks and when translating store
// sentinels; handlers map codes onto HTTP statuses. Wrapping preserves the
// cause chain so errors.Is/As keep working across layers.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for programmatic handling.
type Code string

// Generic codes shared by every domain.
const (
	CodeValidation   Code = "validation"
	CodeInvalidInput Code = "invalid_input"
	CodeBadRequest   Code = "bad_request"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	// CodeUnauthorized means the caller lacks the privilege for the operation.
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeInternal     Code = "internal_error"
	// CodeInvariantViolation marks an aggregate-level rule rejection.
	CodeInvariantViolation Code = "invariant_violation"
)

// Funding-specific codes. These mirror the money-accounting failure taxonomy:
// precondition violations fail fast and abort the whole call.
const (
	CodeAlreadyInitialized      Code = "already_initialized"
	CodeNotInitialized          Code = "not_initialized"
	CodeInvalidAmount           Code = "invalid_amount"
	CodeInvalidIdentity         Code = "invalid_identity"
	CodeInvalidStatusTransition Code = "invalid_status_transition"
	CodeGoalNotReached          Code = "goal_not_reached"
	CodeAlreadyReleased         Code = "already_released"
	CodeAssetNotAllowed         Code = "asset_not_allowed"
	CodeNoRecordedDonation      Code = "no_recorded_donation"
	CodeTransferFailure         Code = "transfer_failure"
	CodeUnknownProject          Code = "unknown_project"
	CodeFeeExceedsCeiling       Code = "fee_exceeds_ceiling"
)

// Error is a coded domain error with an optional wrapped cause.
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

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
// Wrapping a nil error returns nil.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Unwrap()
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability in tests.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// GetCode extracts the code from err, or CodeInternal when err carries none.
func GetCode(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
