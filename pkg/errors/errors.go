// Package errors provides structured error types for dsgviz.
//
// This package defines error codes and types that enable:
//   - Consistent recovery policy across builders, orchestrator, and API
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The render core uses four codes, each with a fixed recovery policy:
//   - ATTRIBUTE_KIND_MISMATCH: node attributes accessed as the wrong variant.
//     Recovered with the sentinel color, except for bounding boxes where the
//     single node is skipped.
//   - MISSING_LAYER_CONFIG: the layer is skipped, the pass continues.
//   - INVALID_BOUNDING_BOX_TYPE: the node's box is dropped and logged.
//   - EMPTY_OR_ABSENT_GRAPH: rejected when setting the graph, no state change.
//
// The remaining codes cover configuration, input, and transport failures at
// the edges of the system.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMissingLayerConfig, "no config for layer %d", id)
//	if errors.Is(err, errors.ErrCodeMissingLayerConfig) {
//	    // skip the layer
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeTransport, origErr, "publish %s", channel)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Render core errors
	ErrCodeAttributeKindMismatch  Code = "ATTRIBUTE_KIND_MISMATCH"
	ErrCodeMissingLayerConfig     Code = "MISSING_LAYER_CONFIG"
	ErrCodeInvalidBoundingBoxType Code = "INVALID_BOUNDING_BOX_TYPE"
	ErrCodeEmptyGraph             Code = "EMPTY_OR_ABSENT_GRAPH"
	ErrCodeInvalidEdgeOrientation Code = "INVALID_EDGE_ORIENTATION"

	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidEndpoint Code = "INVALID_ENDPOINT"

	// Resource not found errors
	ErrCodeNotFound      Code = "NOT_FOUND"
	ErrCodeFileNotFound  Code = "FILE_NOT_FOUND"
	ErrCodeGraphNotFound Code = "GRAPH_NOT_FOUND"

	// Transport errors
	ErrCodeTransport Code = "TRANSPORT_ERROR"

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
