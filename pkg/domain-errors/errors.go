// Package domerrors defines the coded errors surfaced by domain services.
// Stores return sentinel errors (pkg/platform/sentinel); services translate
// them into these coded errors; transports map codes to wire status.
package domerrors

import (
	"errors"
	"net/http"
)

// Code classifies a domain failure. Codes are stable API; messages are not.
type Code string

const (
	// CodeAccessDenied rejects a caller that is not the recorded vault owner.
	CodeAccessDenied Code = "access_denied"
	// CodeTimeLocked rejects withdrawals and lock changes while a vault's
	// unlock time is in the future.
	CodeTimeLocked Code = "time_locked"
	// CodeInsufficientBalance rejects an exact withdrawal larger than the
	// live balance.
	CodeInsufficientBalance Code = "insufficient_balance"

	CodeInvalidInput Code = "invalid_input"
	CodeUnauthorized Code = "unauthorized"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal"
)

// Error is a coded domain error.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New builds a coded domain error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause. The cause is
// reachable via errors.Unwrap for logging; the code drives wire mapping.
func Wrap(code Code, message string, cause error) error {
	return &wrapped{err: Error{Code: code, Message: message}, cause: cause}
}

type wrapped struct {
	err   Error
	cause error
}

func (w *wrapped) Error() string {
	if w.cause == nil {
		return w.err.Message
	}
	return w.err.Message + ": " + w.cause.Error()
}

func (w *wrapped) Unwrap() error {
	return w.cause
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	var we *wrapped
	if errors.As(err, &we) {
		return we.err.Code == code
	}
	return false
}

// Is is a readable alias for HasCode at call sites.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	var we *wrapped
	if errors.As(err, &we) {
		return we.err.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain code to an HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeAccessDenied:
		return http.StatusForbidden
	case CodeTimeLocked:
		return http.StatusLocked
	case CodeInsufficientBalance:
		return http.StatusConflict
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
