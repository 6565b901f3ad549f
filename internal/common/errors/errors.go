// Package errors provides standardized error handling for the triage workers and
// their BPMN workflow integration.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Stage failures. Each of these resolves to the failing stage's fallback value.
const (
	ErrCodeTransportFailure     ErrorCode = "TRANSPORT_FAILURE"
	ErrCodeSchemaViolation      ErrorCode = "SCHEMA_VIOLATION"
	ErrCodeParseFailure         ErrorCode = "PARSE_FAILURE"
	ErrCodeOutOfRangeSelection  ErrorCode = "OUT_OF_RANGE_SELECTION"
	ErrCodePersistenceFailed    ErrorCode = "PERSISTENCE_FAILED"
	ErrCodeNotificationFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeConfigurationMissing ErrorCode = "CONFIGURATION_MISSING"
)

// Caller-contract violations. The only codes allowed to fail a request.
const (
	ErrCodeInvalidIntake ErrorCode = "INVALID_INTAKE"
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches any StandardError carrying the same code, so the sentinels below
// work with errors.Is.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrTransportFailure    = &StandardError{Code: ErrCodeTransportFailure, Message: "transport failure"}
	ErrSchemaViolation     = &StandardError{Code: ErrCodeSchemaViolation, Message: "schema violation"}
	ErrParseFailure        = &StandardError{Code: ErrCodeParseFailure, Message: "parse failure"}
	ErrOutOfRangeSelection = &StandardError{Code: ErrCodeOutOfRangeSelection, Message: "selection out of range"}
	ErrInvalidIntake       = &StandardError{Code: ErrCodeInvalidIntake, Message: "invalid intake"}
)

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewTransportFailureError wraps a network, timeout or non-2xx failure talking to
// an external service.
func NewTransportFailureError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransportFailure,
		Message:   fmt.Sprintf("%s request failed", service),
		Details:   errDetails(err),
		Retryable: true,
		Metadata:  map[string]interface{}{"service": service},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewSchemaViolationError reports well-formed JSON that fails its contract.
func NewSchemaViolationError(contract string, violations []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSchemaViolation,
		Message:   fmt.Sprintf("response does not satisfy %s contract", contract),
		Details:   strings.Join(violations, "; "),
		Retryable: false,
		Metadata:  map[string]interface{}{"contract": contract},
		Timestamp: time.Now().UTC(),
	}
}

// NewParseFailureError reports a response that is not valid JSON.
func NewParseFailureError(contract string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeParseFailure,
		Message:   fmt.Sprintf("response for %s contract is not valid JSON", contract),
		Details:   errDetails(err),
		Retryable: false,
		Metadata:  map[string]interface{}{"contract": contract},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewOutOfRangeSelectionError reports reranker indices outside the candidate list.
func NewOutOfRangeSelectionError(indices []int, candidates int) *StandardError {
	return &StandardError{
		Code:      ErrCodeOutOfRangeSelection,
		Message:   "selection index outside candidate bounds",
		Details:   fmt.Sprintf("indices: %v, candidates: %d", indices, candidates),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidIntakeError creates a non-retryable caller-contract error.
func NewInvalidIntakeError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidIntake,
		Message:   "Intake failed validation",
		Details:   errDetails(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewInvalidInputError reports malformed stage input such as job variables that
// do not match the stage's record types.
func NewInvalidInputError(what string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   fmt.Sprintf("Invalid %s", what),
		Details:   errDetails(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewPersistenceFailedError creates a retryable storage error.
func NewPersistenceFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceFailed,
		Message:   "Assessment persistence failed",
		Details:   errDetails(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationFailed,
		Message:   "Notification send failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, errDetails(err)),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewConfigurationMissingError reports a collaborator that was not configured.
func NewConfigurationMissingError(setting string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigurationMissing,
		Message:   "Required configuration missing",
		Details:   fmt.Sprintf("setting: %s", setting),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodePersistenceFailed, ErrCodeNotificationFailed:
		return 3
	case ErrCodeTransportFailure:
		return 1
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// CodeOf maps any error, wrapped or not, to its ErrorCode. Context deadline and
// cancellation count as transport failures.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return ErrCodeTransportFailure
	}
	return ErrCodeInternal
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeTransportFailure:
		return "TRANSPORT"
	case ErrCodeSchemaViolation, ErrCodeParseFailure, ErrCodeOutOfRangeSelection:
		return "CONTRACT"
	case ErrCodeInvalidIntake, ErrCodeInvalidInput:
		return "VALIDATION"
	case ErrCodePersistenceFailed:
		return "DATABASE"
	case ErrCodeNotificationFailed:
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
