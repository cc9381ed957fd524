package logistics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"deal-workers/internal/common/logger"
	"deal-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

// CachedProvider serves repeated quotes for the same shipment from Redis. Cache failures never fail a quote.
type CachedProvider struct {
	next   Provider
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedProvider(next Provider, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedProvider {
	return &CachedProvider{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"provider": next.Name()}),
	}
}

func (c *CachedProvider) Name() string {
	return c.next.Name()
}

func (c *CachedProvider) Quote(ctx context.Context, req models.ShipmentRequest) (models.LogisticsQuote, error) {
	key := QuoteCacheKey(c.next.Name(), req)

	raw, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var quote models.LogisticsQuote
		if jsonErr := json.Unmarshal([]byte(raw), &quote); jsonErr == nil {
			c.logger.Debug("quote cache hit", map[string]interface{}{"key": key})
			return quote, nil
		}
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("quote cache read failed", map[string]interface{}{"error": err.Error()})
	}

	quote, err := c.next.Quote(ctx, req)
	if err != nil {
		return quote, err
	}

	data, err := json.Marshal(quote)
	if err == nil {
		if setErr := c.client.Set(ctx, key, data, c.ttl).Err(); setErr != nil {
			c.logger.Warn("quote cache write failed", map[string]interface{}{"error": setErr.Error()})
		}
	}
	return quote, nil
}

// QuoteCacheKey covers every field a carrier is quoted on, so two shipments
// share a cached quote only when the carrier would see the same request.
func QuoteCacheKey(provider string, req models.ShipmentRequest) string {
	category := strings.ToLower(strings.TrimSpace(req.ProductCategory))
	if category == "" {
		category = "any"
	}
	return fmt.Sprintf("logistics:quote:%s:%s:%s:%.2f:%.2f:%s",
		provider, normalizeMarket(req.Origin), normalizeMarket(req.Destination), req.WeightKg, req.ValueUSD, category)
}
