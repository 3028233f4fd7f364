// Package apperrors defines the error taxonomy shared by the chaptering service and the HTTP layer.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Type is the category of an application error.
type Type string

const (
	// TypeValidation indicates bad input: a missing, oversized, or non-image file, or a bad URL.
	TypeValidation Type = "VALIDATION_ERROR"
	// TypeNotFound indicates a chapter lookup miss.
	TypeNotFound Type = "NOT_FOUND"
	// TypeAnalysis indicates the narrative analyzer failed or timed out.
	TypeAnalysis Type = "ANALYSIS_ERROR"
	// TypeStorage indicates the chapter store failed.
	TypeStorage Type = "STORAGE_ERROR"
	// TypeUnavailable indicates an optional collaborator is not configured.
	TypeUnavailable Type = "UNAVAILABLE"
)

// Error is an application error with a category, a client-facing message, and an optional cause.
type Error struct {
	Type    Type
	Message string
	Details interface{}
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetails attaches client-facing details (a string or a list of field errors).
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// Validation returns a TypeValidation error.
func Validation(message string) *Error {
	return &Error{Type: TypeValidation, Message: message}
}

// Validationf returns a TypeValidation error with a formatted message.
func Validationf(format string, args ...interface{}) *Error {
	return &Error{Type: TypeValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound returns a TypeNotFound error.
func NotFound(message string) *Error {
	return &Error{Type: TypeNotFound, Message: message}
}

// Analysis wraps an analyzer failure.
func Analysis(cause error) *Error {
	return &Error{Type: TypeAnalysis, Message: "Failed to analyze image", Cause: cause}
}

// Storage wraps a chapter store failure.
func Storage(message string, cause error) *Error {
	return &Error{Type: TypeStorage, Message: message, Cause: cause}
}

// Unavailable returns a TypeUnavailable error.
func Unavailable(message string) *Error {
	return &Error{Type: TypeUnavailable, Message: message}
}

// Wrap returns an error of type t carrying cause.
func Wrap(t Type, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Cause: cause}
}

// TypeOf returns the Type of err, or "" when err is not an *Error.
func TypeOf(err error) Type {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ""
}

// Is reports whether err is an *Error of type t.
func Is(err error, t Type) bool {
	return TypeOf(err) == t
}

// StatusCode maps err to an HTTP status code. Unknown errors are 500.
func StatusCode(err error) int {
	switch TypeOf(err) {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
