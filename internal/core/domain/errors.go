// Package domain defines the core domain models for staffdesk.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a client error with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "SD-AUTH-4010")
	Message string // Human-readable message
	Details string // Optional additional details, usually the backend message
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

// UserMessage returns the text shown to the user: the details when
// present, otherwise the generic message.
func (e *DomainError) UserMessage() string {
	if e.Details != "" {
		return e.Details
	}
	return e.Message
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

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
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
// Session Errors (AUTH)
// ============================================================================

var (
	// ErrTransport indicates a network failure or a non-2xx status.
	ErrTransport = NewDomainError("SD-NET-5000", "transport error")

	// ErrAuthenticationFailure indicates the backend rejected a login or
	// registration attempt.
	ErrAuthenticationFailure = NewDomainError("SD-AUTH-4010", "authentication failed")

	// ErrInvalidServerResponse indicates a 2xx response that omitted
	// required fields such as the token or the user.
	ErrInvalidServerResponse = NewDomainError("SD-AUTH-5020", "Invalid response from server")

	// ErrSessionExpired indicates an authenticated request was answered
	// with 401 and the session was dropped.
	ErrSessionExpired = NewDomainError("SD-AUTH-4011", "session expired")

	// ErrNotAuthenticated indicates a command needs a signed-in user.
	ErrNotAuthenticated = NewDomainError("SD-AUTH-4012", "not logged in")

	// ErrForbidden indicates the signed-in user lacks the required role.
	ErrForbidden = NewDomainError("SD-AUTH-4030", "permission denied")

	// ErrInvalidTransition indicates a session status change that the
	// state table does not allow.
	ErrInvalidTransition = NewDomainError("SD-AUTH-4090", "invalid session transition")
)

// ============================================================================
// Client Errors (CLI)
// ============================================================================

var (
	// ErrValidation indicates local input validation failed.
	ErrValidation = NewDomainError("SD-ARG-4001", "validation failed")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("SD-ARG-4002", "missing required argument")

	// ErrConfigMissing indicates required configuration is absent.
	ErrConfigMissing = NewDomainError("SD-CFG-5001", "missing required configuration")

	// ErrCredentialStore indicates the credential store failed.
	ErrCredentialStore = NewDomainError("SD-SYS-5002", "credential store error")
)
