// internal/workers/logistics/optimize-logistics/handler.go
package optimizelogistics

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
	TaskType = registry.TaskOptimizeLogistics
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	route, err := h.service.Optimize(ctx, input.Shipment)
	if err != nil {
		return nil, err
	}

	h.logger.Info("route optimized", map[string]interface{}{
		"origin":      route.Origin,
		"destination": route.Destination,
		"provider":    route.Chosen.Provider,
		"totalCost":   route.TotalCost.String(),
		"options":     len(route.Options),
		"excluded":    len(route.Excluded),
	})

	return &Output{
		Route:       route,
		Provider:    route.Chosen.Provider,
		TotalCost:   route.TotalCost.StringFixed(2),
		TransitDays: route.Chosen.TransitDays,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
