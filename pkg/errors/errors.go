// Package errors provides structured error types for the atalogics client.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library and the CLI
//   - Machine-readable error codes for programmatic handling
//   - Response context (status, body, method, path) for API failures
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes map onto the failure classes of the API client:
//   - CONFIGURATION, INVALID_TOKEN_PAIR: raised before any network activity
//   - AUTHENTICATION_FAILED: the server rejected the credentials or token
//   - API_ERROR: the server failed (HTTP 500)
//   - GENERIC_ERROR: the server answered with an unexpected status
//   - FAILED_RESPONSE: a Must* helper got a non-200 response
//   - CACHE_CORRUPTION: a cached payload could not be decoded
//
// # Usage
//
//	err := errors.New(errors.ErrCodeConfiguration, "missing client id")
//	if errors.Is(err, errors.ErrCodeConfiguration) {
//	    // Handle configuration error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "request %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Configuration errors
	ErrCodeConfiguration    Code = "CONFIGURATION"
	ErrCodeInvalidTokenPair Code = "INVALID_TOKEN_PAIR"
	ErrCodeInvalidInput     Code = "INVALID_INPUT"

	// Authentication errors
	ErrCodeAuthenticationFailed Code = "AUTHENTICATION_FAILED"

	// Response errors
	ErrCodeAPI            Code = "API_ERROR"
	ErrCodeGeneric        Code = "GENERIC_ERROR"
	ErrCodeFailedResponse Code = "FAILED_RESPONSE"

	// Transport errors
	ErrCodeNetwork Code = "NETWORK_ERROR"

	// Cache errors
	ErrCodeCacheCorruption Code = "CACHE_CORRUPTION"
)

// Error is a structured error with a code and optional cause.
//
// Errors produced from an HTTP response also carry the response status and
// body together with the request method and path, so callers can diagnose
// the failure without access to the raw exchange.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)

	Status int    // HTTP status code (0 if no response)
	Body   []byte // Raw response body (nil if no response)
	Method string // Request method (empty if no request)
	Path   string // Request path (empty if no request)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Method != "" {
		msg += fmt.Sprintf(" (%s %s", e.Method, e.Path)
		if e.Status != 0 {
			msg += fmt.Sprintf(", status %d", e.Status)
		}
		msg += ")"
	}
	if len(e.Body) > 0 {
		msg += ": " + string(e.Body)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
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

// FromResponse creates an Error describing an HTTP exchange.
func FromResponse(code Code, method, path string, status int, body []byte) *Error {
	return &Error{
		Code:    code,
		Message: messages[code],
		Status:  status,
		Body:    body,
		Method:  method,
		Path:    path,
	}
}

var messages = map[Code]string{
	ErrCodeAuthenticationFailed: "authentication failed",
	ErrCodeAPI:                  "api error",
	ErrCodeGeneric:              "unexpected response",
	ErrCodeFailedResponse:       "request failed",
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
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

// Status returns the HTTP status carried by err, or 0.
func Status(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if len(e.Body) > 0 {
			return fmt.Sprintf("%s: %s", e.Message, e.Body)
		}
		return e.Message
	}
	return err.Error()
}
