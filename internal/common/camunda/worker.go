// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"encoding/json"
	"time"

	"deal-workers/internal/common/config"
	commonerrors "deal-workers/internal/common/errors"
	"deal-workers/internal/common/logger"
	"deal-workers/internal/common/metrics"
	"deal-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobRecorder receives one call per finished job. observability.Observability
// satisfies it.
type JobRecorder interface {
	RecordJob(ctx context.Context, taskType string, duration time.Duration, status string)
}

// Responder completes or fails jobs on behalf of a handler and records the
// outcome in Prometheus and the optional JobRecorder.
type Responder struct {
	taskType string
	logger   logger.Logger
	errors   *commonerrors.ErrorHandler
	recorder JobRecorder
}

func NewResponder(taskType string, log logger.Logger, recorder JobRecorder) *Responder {
	return &Responder{
		taskType: taskType,
		logger:   log,
		errors:   commonerrors.NewErrorHandler(log),
		recorder: recorder,
	}
}

// Decode validates the job variables against the registry schema for the
// task and unmarshals them into out.
func (r *Responder) Decode(reg *registry.ActivityRegistry, job entities.Job, out interface{}) error {
	return DecodeVariables(reg, r.taskType, []byte(job.Variables), out)
}

func DecodeVariables(reg *registry.ActivityRegistry, taskType string, variables []byte, out interface{}) error {
	if reg != nil {
		if err := reg.ValidateVariables(taskType, variables); err != nil {
			return err
		}
	}
	if err := json.Unmarshal(variables, out); err != nil {
		return commonerrors.NewInvalidInputError("parse variables: " + err.Error())
	}
	return nil
}

func (r *Responder) Complete(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}, started time.Time) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		r.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		r.Fail(ctx, client, job, err, started)
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		r.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	r.observe(ctx, started, "")
	r.logger.Info("job completed", map[string]interface{}{
		"jobKey":     job.Key,
		"durationMs": time.Since(started).Milliseconds(),
	})
}

func (r *Responder) Fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, started time.Time) {
	stdErr := r.errors.HandleJobError(ctx, client, job, err)
	r.observe(ctx, started, string(stdErr.Code))
}

func (r *Responder) observe(ctx context.Context, started time.Time, errorCode string) {
	elapsed := time.Since(started)
	metrics.ObserveJob(r.taskType, elapsed.Seconds(), errorCode)
	if r.recorder == nil {
		return
	}
	status := "completed"
	if errorCode != "" {
		status = "failed"
	}
	r.recorder.RecordJob(ctx, r.taskType, elapsed, status)
}

// StartWorker opens a job worker for taskType unless it is disabled.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler worker.JobHandler, log logger.Logger) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return jobWorker
}
