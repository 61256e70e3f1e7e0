// Package errors provides structured error types for the photostudio editor.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the TUI and the HTTP API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes are grouped by how the editor reacts to them:
//   - Preconditions (NO_SELECTION, MERGE_INCOMPLETE, BUSY, INVALID_*): reported
//     before any work starts, nothing is mutated
//   - Missing entities (LAYER_NOT_FOUND, DOCUMENT_NOT_FOUND)
//   - External failures (SERVICE_FAILURE, NETWORK_ERROR, TIMEOUT, RATE_LIMITED)
//   - INTERNAL_ERROR and UNSUPPORTED
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNoSelection, "select a layer first")
//	if errors.Is(err, errors.ErrCodeNoSelection) {
//	    // Tell the user
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeServiceFailure, origErr, "background removal failed")
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input precondition failures
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidImage     Code = "INVALID_IMAGE"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidPreset    Code = "INVALID_PRESET"
	ErrCodeInvalidColor     Code = "INVALID_COLOR"
	ErrCodeInvalidAnchor    Code = "INVALID_ANCHOR"
	ErrCodeNoActiveDocument Code = "NO_ACTIVE_DOCUMENT"
	ErrCodeNoSelection      Code = "NO_SELECTION"
	ErrCodeMergeIncomplete  Code = "MERGE_INCOMPLETE"
	ErrCodeToolInactive     Code = "TOOL_INACTIVE"
	ErrCodeBusy             Code = "BUSY"

	// Missing entities
	ErrCodeLayerNotFound    Code = "LAYER_NOT_FOUND"
	ErrCodeDocumentNotFound Code = "DOCUMENT_NOT_FOUND"
	ErrCodeSessionNotFound  Code = "SESSION_NOT_FOUND"

	// External service errors
	ErrCodeServiceFailure Code = "SERVICE_FAILURE"
	ErrCodeNetwork        Code = "NETWORK_ERROR"
	ErrCodeTimeout        Code = "TIMEOUT"
	ErrCodeRateLimited    Code = "RATE_LIMITED"
	ErrCodeUnauthorized   Code = "UNAUTHORIZED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsPrecondition reports whether err is an input precondition failure, i.e.
// something the user can fix before retrying and that never reached the
// external service.
func IsPrecondition(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidImage, ErrCodeInvalidFormat,
		ErrCodeInvalidPreset, ErrCodeInvalidColor, ErrCodeInvalidAnchor,
		ErrCodeNoActiveDocument, ErrCodeNoSelection, ErrCodeMergeIncomplete,
		ErrCodeToolInactive, ErrCodeBusy:
		return true
	}
	return false
}

// RateLimitedError provides additional information for rate-limited responses.
type RateLimitedError struct {
	RetryAfter int // Seconds to wait before retrying
	Message    string
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}

// Code returns the error code for this error type.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}
