package readinglist

import (
	"errors"
	"fmt"
)

// Application error codes.
const (
	ECONFLICT    = "conflict"
	EINTERNAL    = "internal"
	EINVALID     = "invalid"
	ENOTFOUND    = "not_found"
	ETIMEOUT     = "timeout"
	EUNAVAILABLE = "unavailable"
	EUPSTREAM    = "upstream"
)

// Error represents an application-specific error. Errors carry a
// machine-readable code and a human-readable message safe to surface
// to end users.
type Error struct {
	// Machine-readable error code.
	Code string

	// Human-readable message.
	Message string

	// Status holds the HTTP status returned by an upstream service.
	// Only set for EUPSTREAM errors.
	Status int
}

// Error implements the error interface. Not user friendly; use
// ErrorMessage for user-facing output.
func (e *Error) Error() string {
	return fmt.Sprintf("readinglist error: code=%s message=%s", e.Code, e.Message)
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error.".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// ErrorStatus unwraps an application error and returns its upstream
// HTTP status. Returns zero if the error carries none.
func ErrorStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// Errorf is a helper function to return an Error with a given code and
// formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// UpstreamErrorf is a helper function to return an EUPSTREAM Error
// carrying the HTTP status reported by an external service.
func UpstreamErrorf(status int, format string, args ...any) *Error {
	return &Error{
		Code:    EUPSTREAM,
		Status:  status,
		Message: fmt.Sprintf(format, args...),
	}
}
