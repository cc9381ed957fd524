package errors

import (
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeInvalidInput             ErrorCode = "INVALID_INPUT"
	ErrCodeProviderUnavailable      ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrCodeNoRouteAvailable         ErrorCode = "NO_ROUTE_AVAILABLE"
	ErrCodeLedgerReadFailed         ErrorCode = "LEDGER_READ_FAILED"
	ErrCodeLedgerAppendFailed       ErrorCode = "LEDGER_APPEND_FAILED"
	ErrCodeExecutionNotApproved     ErrorCode = "EXECUTION_NOT_APPROVED"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeAuditIndexFailed         ErrorCode = "AUDIT_INDEX_FAILED"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// BPMNError is what a worker reports back to the engine.
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

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid input", details, false)
}

func NewProviderUnavailableError(provider string, err error) *StandardError {
	e := newError(ErrCodeProviderUnavailable, "Quote provider unavailable", err.Error(), true)
	e.Metadata = map[string]interface{}{"provider": provider}
	return e
}

func NewNoRouteAvailableError(err error) *StandardError {
	return newError(ErrCodeNoRouteAvailable, "No routes available", err.Error(), false)
}

func NewLedgerReadFailedError(err error) *StandardError {
	return newError(ErrCodeLedgerReadFailed, "Transaction log could not be read", err.Error(), true)
}

func NewLedgerAppendFailedError(err error) *StandardError {
	return newError(ErrCodeLedgerAppendFailed, "Transaction could not be appended", err.Error(), true)
}

func NewExecutionNotApprovedError(details string) *StandardError {
	return newError(ErrCodeExecutionNotApproved, "Execution not approved by gate", details, false)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

func NewAuditIndexFailedError(err error) *StandardError {
	return newError(ErrCodeAuditIndexFailed, "Decision audit could not be indexed", err.Error(), true)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeLedgerReadFailed,
		ErrCodeLedgerAppendFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeAuditIndexFailed:
		return 3

	case ErrCodeProviderUnavailable:
		return 2

	default:
		return 0
	}
}

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

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "PROVIDER") || strings.Contains(codeStr, "ROUTE"):
		return "LOGISTICS"
	case strings.Contains(codeStr, "LEDGER") || strings.Contains(codeStr, "DATABASE"):
		return "DATABASE"
	case strings.Contains(codeStr, "APPROVED"):
		return "POLICY"
	case strings.Contains(codeStr, "AUDIT"):
		return "SEARCH"
	default:
		return "OTHER"
	}
}
