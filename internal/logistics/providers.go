package logistics

import (
	"context"
	"errors"
	"fmt"
	"math"

	"deal-workers/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrNotApplicable       = errors.New("provider not applicable to shipment")
	ErrNoRouteAvailable    = errors.New("no routes available")
	ErrInvalidShipment     = errors.New("invalid shipment")
)

// Provider quotes the cost of moving a shipment. Implementations must honor
// ctx cancellation where they block.
type Provider interface {
	Name() string
	Quote(ctx context.Context, req models.ShipmentRequest) (models.LogisticsQuote, error)
}

// BaseTransitDays is the unadjusted transit time of each service class.
var BaseTransitDays = map[models.ServiceClass]float64{
	models.ServiceExpress:  4,
	models.ServiceStandard: 8,
	models.ServiceSea:      35,
}

// RateCard describes a carrier that prices by formula.
type RateCard struct {
	Name        string              `mapstructure:"name"`
	Carrier     string              `mapstructure:"carrier"`
	Service     models.ServiceClass `mapstructure:"service"`
	BaseCost    float64             `mapstructure:"base_cost"`
	PerKgRate   float64             `mapstructure:"per_kg_rate"`
	CostFactor  float64             `mapstructure:"cost_factor"`
	Reliability float64             `mapstructure:"reliability"`
	MinWeightKg float64             `mapstructure:"min_weight_kg"`
}

// DefaultRateCards returns the two express carriers and sea freight, in
// registration order.
func DefaultRateCards() []RateCard {
	return []RateCard{
		{
			Name:        "express-carrier-A",
			Carrier:     "Carrier A Express",
			Service:     models.ServiceExpress,
			BaseCost:    50,
			PerKgRate:   8,
			CostFactor:  1,
			Reliability: 95,
		},
		{
			Name:        "express-carrier-B",
			Carrier:     "Carrier B Economy",
			Service:     models.ServiceStandard,
			BaseCost:    35,
			PerKgRate:   6.5,
			CostFactor:  1,
			Reliability: 88,
		},
		{
			Name:        "sea-freight",
			Carrier:     "Ocean Consolidated",
			Service:     models.ServiceSea,
			BaseCost:    200,
			PerKgRate:   2,
			CostFactor:  0.3,
			Reliability: 80,
			MinWeightKg: 100,
		},
	}
}

type RateCardProvider struct {
	card      RateCard
	distances *Distances
}

func NewRateCardProvider(card RateCard, distances *Distances) *RateCardProvider {
	if card.CostFactor == 0 {
		card.CostFactor = 1
	}
	return &RateCardProvider{card: card, distances: distances}
}

func (p *RateCardProvider) Name() string {
	return p.card.Name
}

func (p *RateCardProvider) Quote(ctx context.Context, req models.ShipmentRequest) (models.LogisticsQuote, error) {
	if err := ctx.Err(); err != nil {
		return models.LogisticsQuote{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if req.WeightKg < p.card.MinWeightKg {
		return models.LogisticsQuote{}, fmt.Errorf("%w: %s requires at least %.0f kg, got %.1f kg",
			ErrNotApplicable, p.card.Name, p.card.MinWeightKg, req.WeightKg)
	}

	days, ok := BaseTransitDays[p.card.Service]
	if !ok {
		return models.LogisticsQuote{}, fmt.Errorf("%w: unknown service class %q", ErrProviderUnavailable, p.card.Service)
	}

	mult := p.distances.Multiplier(req.Origin, req.Destination)
	cost := decimal.NewFromFloat(p.card.BaseCost).
		Add(decimal.NewFromFloat(req.WeightKg).Mul(decimal.NewFromFloat(p.card.PerKgRate))).
		Mul(decimal.NewFromFloat(mult)).
		Mul(decimal.NewFromFloat(p.card.CostFactor)).
		Round(2)

	return models.LogisticsQuote{
		Provider:    p.card.Name,
		Carrier:     p.card.Carrier,
		ServiceType: p.card.Service,
		Cost:        cost,
		TransitDays: int(math.Round(days * mult * 0.5)),
		Reliability: p.card.Reliability,
	}, nil
}

// NewRateCardProviders builds one provider per card, preserving order.
func NewRateCardProviders(cards []RateCard, distances *Distances) []Provider {
	providers := make([]Provider, 0, len(cards))
	for _, card := range cards {
		providers = append(providers, NewRateCardProvider(card, distances))
	}
	return providers
}
