// internal/workers/deal/validate-deal/handler.go
package validatedeal

import (
	"context"
	"time"

	"deal-workers/internal/common/camunda"
	"deal-workers/internal/common/logger"
	"deal-workers/internal/pipeline"
	"deal-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = registry.TaskValidateDeal
)

type Handler struct {
	config    *Config
	service   *pipeline.Service
	registry  *registry.ActivityRegistry
	responder *camunda.Responder
	logger    logger.Logger
}

func NewHandler(config *Config, service *pipeline.Service, reg *registry.ActivityRegistry, recorder camunda.JobRecorder, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		service:   service,
		registry:  reg,
		responder: camunda.NewResponder(TaskType, log, recorder),
		logger:    log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	started := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := h.responder.Decode(h.registry, job, &input); err != nil {
		h.responder.Fail(ctx, client, job, err, started)
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.responder.Fail(ctx, client, job, err, started)
		return
	}

	h.responder.Complete(ctx, client, job, output, started)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	analysis, risk, err := h.service.ValidateDeal(input.Deal)
	if err != nil {
		return nil, err
	}

	h.logger.Info("deal validated", map[string]interface{}{
		"floatPeriodDays": analysis.FloatPeriodDays,
		"capitalRequired": analysis.CapitalRequired,
		"riskTier":        string(analysis.RiskTier),
		"overallRisk":     risk.OverallRisk,
		"recommendation":  risk.Recommendation,
	})

	return &Output{
		Cashflow:               analysis,
		Risk:                   risk,
		CashPositiveFromDayOne: analysis.CashPositiveFromDayOne,
		Recommendation:         risk.Recommendation,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
