// Package errors defines error types and classification for agent operations.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Severity classifies how an error should be handled upstream.
type Severity string

const (
	// SeverityRecoverable errors can be retried.
	SeverityRecoverable Severity = "recoverable"
	// SeverityUser errors are caused by caller input and must not be retried.
	SeverityUser Severity = "user"
	// SeverityFatal errors abort the operation permanently.
	SeverityFatal Severity = "fatal"
)

// IsRetryable returns true when a retry may succeed.
func (s Severity) IsRetryable() bool {
	return s == SeverityRecoverable
}

// IsFatal returns true when the operation should be abandoned.
func (s Severity) IsFatal() bool {
	return s == SeverityFatal
}

// AgentError represents a failure in the conversational agent pipeline.
type AgentError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Severity  Severity       `json:"severity"`
	Cause     error          `json:"-"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AgentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AgentError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns true if the error can be retried.
func (e *AgentError) IsRetryable() bool {
	return e.Retryable && e.Severity.IsRetryable()
}

// IsFatal returns true if the operation should be abandoned.
func (e *AgentError) IsFatal() bool {
	return e.Severity.IsFatal()
}

// NewAgentError creates a new agent error.
func NewAgentError(code, message string, severity Severity) *AgentError {
	return &AgentError{
		Code:      code,
		Message:   message,
		Severity:  severity,
		Retryable: severity.IsRetryable(),
	}
}

// WithCause adds an underlying cause to the error.
func (e *AgentError) WithCause(cause error) *AgentError {
	e.Cause = cause
	return e
}

// WithDetails adds additional details to the error.
func (e *AgentError) WithDetails(details map[string]any) *AgentError {
	e.Details = details
	return e
}

// Error codes.
const (
	// Retryable: the external model misbehaved, the call may be repeated.
	ErrCodeExternalModel = "EXTERNAL_MODEL"
	ErrCodeTimeout       = "TIMEOUT"

	// User-caused: surfaced to the caller, never retried.
	ErrCodeIngestionFailed  = "INGESTION_FAILED"
	ErrCodeSchemaIncomplete = "SCHEMA_INCOMPLETE"
	ErrCodeUnsupportedFile  = "UNSUPPORTED_FILE"

	// Fatal: internal invariant broken.
	ErrCodeStorage  = "STORAGE"
	ErrCodeInternal = "INTERNAL"
)

// NewExternalModelError wraps a provider failure as retryable.
func NewExternalModelError(message string, cause error) *AgentError {
	return NewAgentError(ErrCodeExternalModel, message, SeverityRecoverable).WithCause(cause)
}

// NewIngestionError marks an upload as rejected; the caller must fix the file.
func NewIngestionError(message string, cause error) *AgentError {
	return NewAgentError(ErrCodeIngestionFailed, message, SeverityUser).WithCause(cause)
}

// NewSchemaIncompleteError reports which slots block generation.
func NewSchemaIncompleteError(missing []string) *AgentError {
	return NewAgentError(
		ErrCodeSchemaIncomplete,
		fmt.Sprintf("requirements are not complete, missing: %s", strings.Join(missing, ", ")),
		SeverityUser,
	).WithDetails(map[string]any{"missing_slots": missing})
}

// IsSchemaIncomplete reports whether err is a schema-incomplete rejection.
func IsSchemaIncomplete(err error) bool {
	return HasCode(err, ErrCodeSchemaIncomplete)
}

// IsIngestionError reports whether err is an upload rejection.
func IsIngestionError(err error) bool {
	return HasCode(err, ErrCodeIngestionFailed) || HasCode(err, ErrCodeUnsupportedFile)
}

// HasCode checks the error chain for an AgentError with the given code.
func HasCode(err error, code string) bool {
	var agentErr *AgentError
	if errors.As(err, &agentErr) {
		return agentErr.Code == code
	}
	return false
}

// Classify maps an arbitrary error to a severity for retry decisions.
func Classify(err error) Severity {
	if err == nil {
		return SeverityRecoverable
	}
	var agentErr *AgentError
	if errors.As(err, &agentErr) {
		return agentErr.Severity
	}
	return SeverityFatal
}
