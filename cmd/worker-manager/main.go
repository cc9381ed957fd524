// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"deal-workers/internal/api"
	"deal-workers/internal/audit"
	"deal-workers/internal/common/camunda"
	"deal-workers/internal/common/config"
	"deal-workers/internal/common/database"
	"deal-workers/internal/common/logger"
	"deal-workers/internal/common/observability"
	"deal-workers/internal/ledger"
	"deal-workers/internal/pipeline"
	"deal-workers/pkg/registry"

	vd "deal-workers/internal/workers/deal/validate-deal"
	rt "deal-workers/internal/workers/ledger/record-transaction"
	ol "deal-workers/internal/workers/logistics/optimize-logistics"
	eo "deal-workers/internal/workers/opportunity/evaluate-opportunity"
	so "deal-workers/internal/workers/opportunity/score-opportunity"
	csp "deal-workers/internal/workers/strategy/current-strategy-phase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	log.Info("starting worker manager", map[string]interface{}{
		"environment": cfg.App.Environment,
		"ledger":      cfg.Ledger.Backend,
	})

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx := context.Background()
	checks := map[string]api.ReadinessCheck{}
	var closers []func() error

	// --- Ledger ---
	var store ledger.Store = ledger.NewMemoryStore()
	if cfg.Ledger.Backend == config.LedgerPostgres {
		pgStore, pg, err := database.OpenLedger(ctx, cfg.Database.Postgres, log)
		if err != nil {
			zapLog.Fatal("postgres ledger unavailable", zap.Error(err))
		}
		store = pgStore
		checks["postgres"] = pg.Ping
		closers = append(closers, pg.Close)
	}

	// --- Quote cache ---
	var rdb *redis.Client
	if cfg.Database.Redis.Address != "" {
		rc, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			zapLog.Fatal("redis init failed", zap.Error(err))
		}
		if err := rc.Ping(ctx); err != nil {
			log.Warn("redis unreachable, quotes will not be cached", map[string]interface{}{"error": err.Error()})
			rc.Close()
		} else {
			rdb = rc.Client
			checks["redis"] = rc.Ping
			closers = append(closers, rc.Close)
		}
	}

	// --- Decision audit ---
	var auditor pipeline.Auditor
	if cfg.Database.Elasticsearch.Enabled() {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			zapLog.Fatal("elasticsearch init failed", zap.Error(err))
		}
		auditor = audit.NewIndexer(es.Client, cfg.Database.Elasticsearch.AuditIndex)
		checks["elasticsearch"] = es.Ping
	}

	optimizer := pipeline.BuildOptimizer(cfg.Logistics, rdb, obs, log)
	service := pipeline.NewService(cfg.Engine.BuildGate(), store, optimizer, auditor, log)
	reg := registry.Default()

	// --- Zeebe ---
	zeebe, err := camunda.NewClient(ctx, cfg.Camunda.BrokerAddress, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed", zap.Error(err))
	}
	checks["zeebe"] = zeebe.HealthCheck

	workers := registerWorkers(zeebe, cfg, service, reg, obs, log)
	log.Info("workers registered", map[string]interface{}{"count": len(workers)})

	// --- HTTP API, health and metrics ---
	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           api.NewRouter(service, checks, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("http server listening", map[string]interface{}{"address": cfg.Server.Address})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// --- Graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping workers", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	if err := zeebe.Close(); err != nil {
		log.Error("error closing zeebe client", map[string]interface{}{"error": err.Error()})
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Warn("error closing connection", map[string]interface{}{"error": err.Error()})
		}
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Warn("observability shutdown failed", map[string]interface{}{"error": err.Error()})
	}

	log.Info("worker manager stopped", nil)
}

func registerWorkers(
	zeebe *camunda.Client,
	cfg *config.Config,
	service *pipeline.Service,
	reg *registry.ActivityRegistry,
	recorder camunda.JobRecorder,
	log logger.Logger,
) []worker.JobWorker {
	client := zeebe.GetClient()
	var workers []worker.JobWorker

	start := func(taskType string, handler worker.JobHandler) {
		if w := camunda.StartWorker(client, taskType, config.GetWorkerConfig(cfg, taskType), handler, log); w != nil {
			workers = append(workers, w)
		}
	}

	start(so.TaskType, so.NewHandler(so.LoadConfig(), service, reg, recorder, log).Handle)
	start(vd.TaskType, vd.NewHandler(vd.LoadConfig(), service, reg, recorder, log).Handle)
	start(csp.TaskType, csp.NewHandler(csp.LoadConfig(), service, reg, recorder, log).Handle)
	start(eo.TaskType, eo.NewHandler(eo.LoadConfig(), service, reg, recorder, log).Handle)
	start(ol.TaskType, ol.NewHandler(ol.LoadConfig(), service, reg, recorder, log).Handle)
	start(rt.TaskType, rt.NewHandler(rt.LoadConfig(), service, reg, recorder, log).Handle)

	return workers
}
