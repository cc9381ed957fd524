package errors

import (
	"context"
	"database/sql/driver"
	"fmt"
	"testing"

	"deal-workers/internal/common/validation"
	"deal-workers/internal/engine/scoring"
	"deal-workers/internal/ledger"
	"deal-workers/internal/logistics"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      ErrorCode
		retryable bool
	}{
		{"invalid opportunity", fmt.Errorf("%w: volume must be positive", scoring.ErrInvalidOpportunity), ErrCodeInvalidInput, false},
		{"invalid record", fmt.Errorf("%w: accountId is required", ledger.ErrInvalidRecord), ErrCodeInvalidInput, false},
		{"schema violation", fmt.Errorf("score-opportunity: %w", validation.ErrSchemaViolation), ErrCodeInvalidInput, false},
		{"no route", logistics.ErrNoRouteAvailable, ErrCodeNoRouteAvailable, false},
		{"not approved", fmt.Errorf("%w: rejected", ledger.ErrNotApproved), ErrCodeExecutionNotApproved, false},
		{"append failed", fmt.Errorf("%w: insert", ledger.ErrAppendFailed), ErrCodeLedgerAppendFailed, true},
		{"read failed", fmt.Errorf("%w: select", ledger.ErrReadFailed), ErrCodeLedgerReadFailed, true},
		{"provider down", fmt.Errorf("%w: carrier", logistics.ErrProviderUnavailable), ErrCodeProviderUnavailable, true},
		{"bad connection", fmt.Errorf("query: %w", driver.ErrBadConn), ErrCodeDatabaseConnectionFailed, true},
		{"unknown", context.Canceled, ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdErr := Classify(tt.err)
			assert.Equal(t, tt.code, stdErr.Code)
			assert.Equal(t, tt.retryable, stdErr.Retryable)
		})
	}
}

func TestClassify_PassesStandardErrorThrough(t *testing.T) {
	original := NewAuditIndexFailedError(fmt.Errorf("index closed"))

	assert.Same(t, original, Classify(fmt.Errorf("wrapped: %w", original)))
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name    string
		err     *StandardError
		retries int
	}{
		{"ledger append retries", NewLedgerAppendFailedError(fmt.Errorf("x")), 3},
		{"provider retries", NewProviderUnavailableError("carrier-a", fmt.Errorf("x")), 2},
		{"gate rejection is thrown", NewExecutionNotApprovedError("rejected"), 0},
		{"no route is thrown", NewNoRouteAvailableError(fmt.Errorf("x")), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmnErr := ConvertToBPMNError(tt.err)
			assert.Equal(t, string(tt.err.Code), bpmnErr.Code)
			assert.Equal(t, tt.retries, bpmnErr.Retries)

			vars := bpmnErr.ToErrorVariables()
			assert.Equal(t, string(tt.err.Code), vars["errorCode"])
			assert.Equal(t, string(tt.err.Code), vars["originalErrorCode"])
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidInput))
	assert.Equal(t, "LOGISTICS", GetErrorCategory(ErrCodeNoRouteAvailable))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeLedgerReadFailed))
	assert.Equal(t, "POLICY", GetErrorCategory(ErrCodeExecutionNotApproved))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeAuditIndexFailed))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}
