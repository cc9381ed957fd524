package errors

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	stderrors "errors"

	"deal-workers/internal/common/validation"
	"deal-workers/internal/engine/cashflow"
	"deal-workers/internal/engine/scoring"
	"deal-workers/internal/ledger"
	"deal-workers/internal/logistics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Classify maps domain sentinels onto a StandardError. Errors that already
// are a StandardError pass through unchanged.
func Classify(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}

	switch {
	case stderrors.Is(err, scoring.ErrInvalidOpportunity),
		stderrors.Is(err, cashflow.ErrInvalidDeal),
		stderrors.Is(err, logistics.ErrInvalidShipment),
		stderrors.Is(err, ledger.ErrInvalidRecord),
		stderrors.Is(err, validation.ErrSchemaViolation):
		return NewInvalidInputError(err.Error())
	case stderrors.Is(err, logistics.ErrNoRouteAvailable):
		return NewNoRouteAvailableError(err)
	case stderrors.Is(err, ledger.ErrNotApproved):
		return NewExecutionNotApprovedError(err.Error())
	case stderrors.Is(err, ledger.ErrAppendFailed):
		return NewLedgerAppendFailedError(err)
	case stderrors.Is(err, ledger.ErrReadFailed):
		return NewLedgerReadFailedError(err)
	case stderrors.Is(err, logistics.ErrProviderUnavailable):
		return NewProviderUnavailableError("", err)
	case stderrors.Is(err, driver.ErrBadConn), stderrors.Is(err, sql.ErrConnDone):
		return NewDatabaseConnectionFailedError(err)
	}
	return NewInternalError(err)
}

// HandleJobError fails the job with retries for transient errors and throws a
// BPMN error for everything else.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) *StandardError {
	stdErr := Classify(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	h.logError(job, stdErr, bpmnErr)

	if bpmnErr.Retries > 0 && job.Retries > 1 {
		h.failJobWithRetries(ctx, client, job, bpmnErr)
	} else {
		h.throwBPMNError(ctx, client, job, bpmnErr)
	}
	return stdErr
}

func (h *ErrorHandler) failJobWithRetries(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	retries := int32(bpmnErr.Retries)
	if job.Retries-1 < retries {
		retries = job.Retries - 1
	}

	_, _ = client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(retries).
		ErrorMessage(bpmnErr.Message).
		Send(ctx)
}

func (h *ErrorHandler) throwBPMNError(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	varsJSON, err := json.Marshal(bpmnErr.ToErrorVariables())
	if err == nil {
		if withVars, err := cmd.VariablesFromString(string(varsJSON)); err == nil {
			_, _ = withVars.Send(ctx)
			return
		}
	}
	_, _ = cmd.Send(ctx)
}

func (h *ErrorHandler) logError(job entities.Job, stdErr *StandardError, bpmnErr *BPMNError) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        string(stdErr.Code),
		"message":          bpmnErr.Message,
		"details":          stdErr.Details,
		"retryable":        stdErr.Retryable,
		"retries":          bpmnErr.Retries,
		"errorCategory":    GetErrorCategory(stdErr.Code),
		"workflowInstance": job.ProcessInstanceKey,
	})
}
