package api

import (
	"context"
	"net/http"
	"time"

	"deal-workers/internal/common/logger"
	"deal-workers/internal/pipeline"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessCheck probes one backing dependency.
type ReadinessCheck func(ctx context.Context) error

// NewRouter builds the HTTP surface: health probes, Prometheus metrics and the
// JSON API over the decision pipeline.
func NewRouter(service *pipeline.Service, checks map[string]ReadinessCheck, log logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	h := NewHandler(service, log)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})
	r.GET("/ready", readiness(checks))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/opportunities/score", h.ScoreOpportunity)
		v1.POST("/opportunities/evaluate", h.EvaluateOpportunity)
		v1.GET("/opportunities/:id/decisions", h.RecentDecisions)
		v1.POST("/deals/validate", h.ValidateDeal)
		v1.GET("/accounts/:id/phase", h.CurrentPhase)
		v1.POST("/accounts/:id/transactions", h.RecordTransaction)
		v1.POST("/logistics/optimize", h.OptimizeLogistics)
	}
	return r
}

func readiness(checks map[string]ReadinessCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}

		state := "ready"
		if status != http.StatusOK {
			state = "not ready"
		}
		c.JSON(status, gin.H{
			"status": state,
			"checks": results,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"durationMs": time.Since(started).Milliseconds(),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("request failed", fields)
			return
		}
		log.Debug("request handled", fields)
	}
}
