// Package errors defines structured error codes for the query pipeline
// so handlers can map failures to HTTP statuses without string
// matching.
package errors

import (
	"fmt"
)

// ErrorCode identifies a failure class in the question-to-SQL pipeline.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeTenantNotFound indicates an unknown tenant UID.
	ErrCodeTenantNotFound ErrorCode = "TENANT_NOT_FOUND"
	// ErrCodeRateLimitExceeded indicates the client exceeded its rate limit.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeTemporalResolution indicates a temporal phrase could not be resolved.
	ErrCodeTemporalResolution ErrorCode = "TEMPORAL_RESOLUTION_FAILED"
	// ErrCodeGenerationFailed indicates SQL generation failure.
	ErrCodeGenerationFailed ErrorCode = "GENERATION_FAILED"
	// ErrCodeNotReadOnly indicates the statement failed the read-only guardrail.
	ErrCodeNotReadOnly ErrorCode = "NOT_READ_ONLY"
	// ErrCodeExecutionFailed indicates warehouse execution failure.
	ErrCodeExecutionFailed ErrorCode = "EXECUTION_FAILED"
	// ErrCodeLLMUnavailable indicates the LLM provider is not configured.
	ErrCodeLLMUnavailable ErrorCode = "LLM_UNAVAILABLE"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// PipelineError is a structured error carrying a stable code.
type PipelineError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *PipelineError {
	return &PipelineError{Code: ErrCodeInvalidArgument, Message: msg}
}

// TenantNotFound creates a tenant not found error.
func TenantNotFound(uid string) *PipelineError {
	return &PipelineError{
		Code:    ErrCodeTenantNotFound,
		Message: fmt.Sprintf("tenant not found: %s", uid),
	}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *PipelineError {
	return &PipelineError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// LLMUnavailable creates an LLM unavailable error.
func LLMUnavailable(msg string) *PipelineError {
	return &PipelineError{Code: ErrCodeLLMUnavailable, Message: msg}
}

// Wrap wraps an existing error under a code.
func Wrap(cause error, code ErrorCode, msg string) *PipelineError {
	return &PipelineError{Code: code, Message: msg, Cause: cause}
}

// GetCodeFromError extracts the error code from any error, returning
// the provided default when the error carries no code.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	if perr, ok := err.(*PipelineError); ok {
		return perr.Code
	}
	return defaultCode
}
