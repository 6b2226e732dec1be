// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed error handling with rich context for Courtside.
package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode classifies Courtside errors for monitoring and recovery.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeInvalidInput indicates the request was malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodePermissionDenied indicates the caller's level is below the
	// capability's required permission.
	CodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// CodeCapabilityNotFound indicates no registered agent declares the
	// requested capability. Unknown names are never silently granted.
	CodeCapabilityNotFound ErrorCode = "CAPABILITY_NOT_FOUND"

	// CodeFeatureMismatch indicates a required model feature was absent.
	CodeFeatureMismatch ErrorCode = "FEATURE_MISMATCH"

	// CodeModelNotFound indicates the modelId is not in the registry manifest.
	CodeModelNotFound ErrorCode = "MODEL_NOT_FOUND"

	// CodeModelLoadFailure indicates a model artifact could not be loaded.
	// The model is marked unavailable for the remainder of the process.
	CodeModelLoadFailure ErrorCode = "MODEL_LOAD_FAILURE"

	// CodeNumericOverflow indicates a model produced a non-finite output.
	CodeNumericOverflow ErrorCode = "NUMERIC_OVERFLOW"

	// CodeTimeout indicates an agent invocation exceeded its per-call budget.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeAgentExecution indicates an opaque agent-internal failure.
	CodeAgentExecution ErrorCode = "AGENT_EXECUTION_ERROR"

	// CodeNotFound indicates a resource (game record, agent instance) was
	// not found.
	CodeNotFound ErrorCode = "NOT_FOUND"
)

// CourtsideError is a typed error with structured context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type CourtsideError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]interface{}
	Recoverable bool
}

// Error implements the error interface.
func (e *CourtsideError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *CourtsideError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *CourtsideError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Message     string                 `json:"message"`
		Code        string                 `json:"code"`
		Context     map[string]interface{} `json:"context,omitempty"`
		Recoverable bool                   `json:"recoverable"`
	}{
		Message:     e.Error(),
		Code:        string(e.Code),
		Context:     e.Context,
		Recoverable: e.Recoverable,
	})
}

// New creates a new CourtsideError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *CourtsideError {
	return &CourtsideError{
		Code:    code,
		Message: msg,
		Err:     cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *CourtsideError) WithContext(key string, value interface{}) *CourtsideError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithRecoverable sets whether the error can be recovered from.
// Returns the error for method chaining.
func (e *CourtsideError) WithRecoverable(recoverable bool) *CourtsideError {
	e.Recoverable = recoverable
	return e
}

// AsCourtsideError attempts to convert an error to a CourtsideError.
// Returns the error as CourtsideError if it is one, or wraps it otherwise.
func AsCourtsideError(err error) *CourtsideError {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*CourtsideError); ok {
		return ce
	}
	return New(CodeInternal, "wrapped error", err)
}

// CodeOf returns the error code, or CodeInternal for untyped errors.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if ce, ok := err.(*CourtsideError); ok {
		return ce.Code
	}
	return CodeInternal
}

// RecoverableString returns "true" or "false" as a string for observability.
func (e *CourtsideError) RecoverableString() string {
	if e.Recoverable {
		return "true"
	}
	return "false"
}
