// Package logistics prices a shipment across competing carriers and picks
// the best route.
package logistics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"deal-workers/internal/common/logger"
	"deal-workers/internal/common/metrics"
	"deal-workers/internal/models"

	"github.com/shopspring/decimal"
)

// QuoteRecorder observes the latency of each provider call.
type QuoteRecorder interface {
	RecordQuote(ctx context.Context, provider string, duration time.Duration, ok bool)
}

// Weights of the composite route score.
type Weights struct {
	Cost        float64 `mapstructure:"cost"`
	Time        float64 `mapstructure:"time"`
	Reliability float64 `mapstructure:"reliability"`
}

func DefaultWeights() Weights {
	return Weights{Cost: 0.4, Time: 0.3, Reliability: 0.3}
}

type Optimizer struct {
	providers []Provider
	tariffs   *TariffTable
	weights   Weights
	timeout   time.Duration
	recorder  QuoteRecorder
	logger    logger.Logger
}

func NewOptimizer(providers []Provider, tariffs *TariffTable, timeout time.Duration, log logger.Logger) *Optimizer {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Optimizer{
		providers: providers,
		tariffs:   tariffs,
		weights:   DefaultWeights(),
		timeout:   timeout,
		logger:    log.With(map[string]interface{}{"component": "logistics-optimizer"}),
	}
}

func (o *Optimizer) WithWeights(w Weights) *Optimizer {
	o.weights = w
	return o
}

func (o *Optimizer) WithRecorder(r QuoteRecorder) *Optimizer {
	o.recorder = r
	return o
}

func (o *Optimizer) Providers() []string {
	names := make([]string, len(o.providers))
	for i, p := range o.providers {
		names[i] = p.Name()
	}
	return names
}

// ValidateShipment rejects requests that cannot be priced.
func ValidateShipment(req models.ShipmentRequest) error {
	if strings.TrimSpace(req.Origin) == "" {
		return fmt.Errorf("%w: origin is required", ErrInvalidShipment)
	}
	if strings.TrimSpace(req.Destination) == "" {
		return fmt.Errorf("%w: destination is required", ErrInvalidShipment)
	}
	if math.IsNaN(req.WeightKg) || req.WeightKg <= 0 {
		return fmt.Errorf("%w: weightKg must be positive", ErrInvalidShipment)
	}
	if math.IsNaN(req.ValueUSD) || req.ValueUSD < 0 {
		return fmt.Errorf("%w: valueUsd must be non-negative", ErrInvalidShipment)
	}
	return nil
}

type quoteResult struct {
	quote models.LogisticsQuote
	err   error
}

// Optimize quotes every provider concurrently and returns the best costed
// route. Failing providers are excluded; ErrNoRouteAvailable is returned only
// when none succeed.
func (o *Optimizer) Optimize(ctx context.Context, req models.ShipmentRequest) (models.Route, error) {
	if err := ValidateShipment(req); err != nil {
		return models.Route{}, err
	}

	results := o.collect(ctx, req)

	value := decimal.NewFromFloat(req.ValueUSD)
	insurance := o.tariffs.Insurance(req.Destination, value)
	customs := o.tariffs.Customs(req.Destination, value)

	route := models.Route{
		Origin:        req.Origin,
		Destination:   req.Destination,
		Quotes:        []models.LogisticsQuote{},
		InsuranceCost: insurance,
		Customs:       customs,
		Options:       []models.RouteOption{},
	}

	for i, res := range results {
		name := o.providers[i].Name()
		if res.err != nil {
			route.Excluded = append(route.Excluded, models.ProviderFailure{Provider: name, Reason: res.err.Error()})
			fields := map[string]interface{}{
				"provider": name,
				"reason":   res.err.Error(),
			}
			if errors.Is(res.err, ErrNotApplicable) {
				o.logger.Debug("provider not applicable", fields)
				continue
			}
			metrics.RecordProviderFailure(name)
			o.logger.Warn("provider excluded", fields)
			continue
		}
		route.Quotes = append(route.Quotes, res.quote)
		route.Options = append(route.Options, o.score(res.quote, insurance, customs.Total))
	}

	if len(route.Options) == 0 {
		return models.Route{}, fmt.Errorf("%w: %d providers failed for %s to %s",
			ErrNoRouteAvailable, len(results), req.Origin, req.Destination)
	}

	// Stable sort keeps registration order for full ties.
	sort.SliceStable(route.Options, func(i, j int) bool {
		a, b := route.Options[i], route.Options[j]
		if a.CompositeScore != b.CompositeScore {
			return a.CompositeScore > b.CompositeScore
		}
		return a.TotalCost.LessThan(b.TotalCost)
	})

	best := route.Options[0]
	route.Chosen = best.Quote
	route.TotalCost = best.TotalCost
	route.Score = best.CompositeScore

	o.logger.Info("route selected", map[string]interface{}{
		"origin":      req.Origin,
		"destination": req.Destination,
		"provider":    best.Quote.Provider,
		"totalCost":   best.TotalCost.String(),
		"score":       best.CompositeScore,
		"excluded":    len(route.Excluded),
	})

	return route, nil
}

// collect fans out to every provider and returns one result per provider in
// registration order.
func (o *Optimizer) collect(ctx context.Context, req models.ShipmentRequest) []quoteResult {
	results := make([]quoteResult, len(o.providers))

	var wg sync.WaitGroup
	for i, p := range o.providers {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			started := time.Now()
			quote, err := o.quoteWithTimeout(ctx, p, req)
			if o.recorder != nil {
				o.recorder.RecordQuote(ctx, p.Name(), time.Since(started), err == nil)
			}
			results[i] = quoteResult{quote: quote, err: err}
		}(i, p)
	}
	wg.Wait()

	return results
}

func (o *Optimizer) quoteWithTimeout(ctx context.Context, p Provider, req models.ShipmentRequest) (models.LogisticsQuote, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	done := make(chan quoteResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- quoteResult{err: fmt.Errorf("%w: provider panicked: %v", ErrProviderUnavailable, r)}
			}
		}()
		q, err := p.Quote(ctx, req)
		done <- quoteResult{quote: q, err: err}
	}()

	timedOut := fmt.Errorf("%w: %s timed out after %s", ErrProviderUnavailable, p.Name(), o.timeout)
	select {
	case res := <-done:
		if res.err != nil && ctx.Err() != nil {
			return models.LogisticsQuote{}, timedOut
		}
		return res.quote, res.err
	case <-ctx.Done():
		return models.LogisticsQuote{}, timedOut
	}
}

func (o *Optimizer) score(q models.LogisticsQuote, insurance, customs decimal.Decimal) models.RouteOption {
	total := q.Cost.Add(insurance).Add(customs)
	totalF, _ := total.Float64()

	costScore := math.Max(0, 100-totalF/10)
	timeScore := math.Max(0, 100-float64(q.TransitDays)*5)

	return models.RouteOption{
		Quote:          q,
		TotalCost:      total,
		CostScore:      costScore,
		TimeScore:      timeScore,
		CompositeScore: costScore*o.weights.Cost + timeScore*o.weights.Time + q.Reliability*o.weights.Reliability,
	}
}
