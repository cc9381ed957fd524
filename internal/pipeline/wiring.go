package pipeline

import (
	"deal-workers/internal/common/config"
	commonhttp "deal-workers/internal/common/http"
	"deal-workers/internal/common/logger"
	"deal-workers/internal/logistics"

	"github.com/redis/go-redis/v9"
)

// BuildOptimizer registers the rate-card carriers and any HTTP carriers from
// configuration. HTTP quotes are cached in Redis when rdb is not nil.
func BuildOptimizer(cfg config.LogisticsConfig, rdb *redis.Client, recorder logistics.QuoteRecorder, log logger.Logger) *logistics.Optimizer {
	providers := logistics.NewRateCardProviders(cfg.RateCards(), cfg.DistanceTable())

	if len(cfg.HTTPCarriers) > 0 {
		client := commonhttp.NewClientWithRetry(cfg.AttemptTimeout(), commonhttp.RetryConfig{
			MaxRetries: cfg.Retries,
			BaseDelay:  config.GetDuration(cfg.BackoffMs),
			MaxDelay:   cfg.Timeout(),
		})
		for _, carrier := range cfg.HTTPCarriers {
			var p logistics.Provider = logistics.NewHTTPProvider(carrier.Name, carrier.Endpoint, client)
			if rdb != nil {
				p = logistics.NewCachedProvider(p, rdb, cfg.CacheTTL(), log)
			}
			providers = append(providers, p)
		}
	}

	optimizer := logistics.NewOptimizer(providers, cfg.TariffTable(), cfg.Timeout(), log).
		WithWeights(cfg.Weights)
	if recorder != nil {
		optimizer = optimizer.WithRecorder(recorder)
	}
	return optimizer
}
