// Package domain defines the core domain models for tokgate.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
// Codes have the form TG-<AREA>-<NNNN>; for request-facing errors the
// first three digits are the HTTP status the error maps to.
type DomainError struct {
	Code    string // Error code (e.g., "TG-SESS-4010")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true // Only check if it's a DomainError
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Session Errors (SESS)
// ============================================================================

var (
	// ErrSessionCapacity indicates the session table is full of live sessions.
	ErrSessionCapacity = NewDomainError("TG-SESS-5030", "session capacity exhausted")

	// ErrSessionInvalid indicates the session token is unknown or expired.
	ErrSessionInvalid = NewDomainError("TG-SESS-4010", "invalid or expired session")
)

// ============================================================================
// CSRF Errors (CSRF)
// ============================================================================

var (
	// ErrCSRFCapacity indicates the CSRF table is full of live tokens.
	ErrCSRFCapacity = NewDomainError("TG-CSRF-5030", "csrf token capacity exhausted")

	// ErrCSRFInvalid indicates the CSRF token is missing, used, expired or
	// bound to another session.
	ErrCSRFInvalid = NewDomainError("TG-CSRF-4030", "invalid csrf token")
)

// ============================================================================
// Authentication Errors (AUTH)
// ============================================================================

var (
	// ErrInvalidCredentials indicates a wrong username or password.
	ErrInvalidCredentials = NewDomainError("TG-AUTH-4010", "invalid credentials")

	// ErrUnauthenticated indicates no usable session was presented.
	ErrUnauthenticated = NewDomainError("TG-AUTH-4011", "authentication required")

	// ErrRateLimited indicates too many attempts from one source.
	ErrRateLimited = NewDomainError("TG-AUTH-4290", "too many attempts, please try again later")
)

// ============================================================================
// User Errors (USER)
// ============================================================================

var (
	// ErrInvalidUsername indicates the username violates the format rules.
	ErrInvalidUsername = NewDomainError("TG-USER-4001", "invalid username format")

	// ErrInvalidPassword indicates the password violates the format rules.
	ErrInvalidPassword = NewDomainError("TG-USER-4002", "invalid password format")

	// ErrUserNotFound indicates the user does not exist.
	ErrUserNotFound = NewDomainError("TG-USER-4040", "user not found")

	// ErrUserExists indicates the username is already taken.
	ErrUserExists = NewDomainError("TG-USER-4090", "username already exists")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("TG-SYS-5000", "internal server error")

	// ErrStorageError indicates a storage layer error.
	ErrStorageError = NewDomainError("TG-SYS-5001", "storage error")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("TG-SYS-4000", "bad request")

	// ErrNotFound indicates no route matched the request.
	ErrNotFound = NewDomainError("TG-SYS-4040", "not found")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("TG-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("TG-ARG-1002", "missing required argument")
)
