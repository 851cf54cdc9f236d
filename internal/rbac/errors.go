package rbac

import (
	"errors"
	"fmt"
)

// Code classifies a role-operation failure.
type Code string

const (
	// CodePermissionDenied means the caller's resolved role fails the
	// SUPER_ADMIN check. Never retried, surfaced verbatim.
	CodePermissionDenied Code = "permission-denied"
	// CodeInvalidArgument means a role outside the closed enumeration or a
	// missing/malformed required field. Never retried, surfaced verbatim.
	CodeInvalidArgument Code = "invalid-argument"
	// CodeInternal means an underlying store operation failed.
	CodeInternal Code = "internal"
	// CodeNotFound means the referenced identity or profile does not exist.
	// A missing profile on first read is not an error; it triggers the
	// self-heal default-profile path instead.
	CodeNotFound Code = "not-found"
)

// Error is the failure type returned by every role assignment and access
// gate operation.
type Error struct {
	Code    Code
	Message string
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// PermissionDenied builds a permission-denied error.
func PermissionDenied(message string) *Error {
	return &Error{Code: CodePermissionDenied, Message: message}
}

// InvalidArgument builds an invalid-argument error.
func InvalidArgument(message string) *Error {
	return &Error{Code: CodeInvalidArgument, Message: message}
}

// Internal wraps an underlying store failure. The cause's message is passed
// through to the caller.
func Internal(message string, cause error) *Error {
	return &Error{Code: CodeInternal, Message: message, cause: cause}
}

// NotFound builds a not-found error.
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

// CodeOf extracts the taxonomy code from err, defaulting to internal for
// unclassified errors.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return CodeInternal
}
