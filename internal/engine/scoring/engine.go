// Package scoring computes the composite desirability score of a trade opportunity.
package scoring

import (
	"errors"
	"fmt"
	"math"

	"deal-workers/internal/models"
)

var ErrInvalidOpportunity = errors.New("invalid opportunity")

// Weights holds every constant of the composite formula. The defaults were
// hand-tuned and are expected to be overridden from configuration.
type Weights struct {
	MarginMultiplier    float64 `mapstructure:"margin_multiplier"`
	BaseCap             float64 `mapstructure:"base_cap"`
	Confidence          float64 `mapstructure:"confidence"`
	SupplyGap           float64 `mapstructure:"supply_gap"`
	Demand              float64 `mapstructure:"demand"`
	UrgencyHorizonHours float64 `mapstructure:"urgency_horizon_hours"`
	Urgency             float64 `mapstructure:"urgency"`
	VolumeUnit          float64 `mapstructure:"volume_unit"`
	VolumeMultiplierCap float64 `mapstructure:"volume_multiplier_cap"`
	Regulatory          float64 `mapstructure:"regulatory"`
	Logistics           float64 `mapstructure:"logistics"`
	Volatility          float64 `mapstructure:"volatility"`
	ReturnFloor         float64 `mapstructure:"return_floor"`
	CriticalScore       float64 `mapstructure:"critical_score"`
	CriticalWindowHours float64 `mapstructure:"critical_window_hours"`
	HighScore           float64 `mapstructure:"high_score"`
	MediumScore         float64 `mapstructure:"medium_score"`
}

func DefaultWeights() Weights {
	return Weights{
		MarginMultiplier:    2,
		BaseCap:             100,
		Confidence:          0.30,
		SupplyGap:           1.50,
		Demand:              0.40,
		UrgencyHorizonHours: 72,
		Urgency:             0.50,
		VolumeUnit:          1000,
		VolumeMultiplierCap: 2.0,
		Regulatory:          0.30,
		Logistics:           0.20,
		Volatility:          0.25,
		ReturnFloor:         0.1,
		CriticalScore:       85,
		CriticalWindowHours: 24,
		HighScore:           75,
		MediumScore:         60,
	}
}

// Engine is stateless apart from its weights and safe for concurrent use.
type Engine struct {
	weights Weights
}

func NewEngine(weights Weights) *Engine {
	if weights.VolumeUnit <= 0 {
		weights.VolumeUnit = DefaultWeights().VolumeUnit
	}
	return &Engine{weights: weights}
}

// Score is deterministic and never fails; out-of-range results are clamped to 0..100.
func (e *Engine) Score(opp models.Opportunity) models.ScoreResult {
	w := e.weights

	b := models.ScoreBreakdown{
		Base:             math.Min(opp.Margin()*w.MarginMultiplier, w.BaseCap),
		ConfidenceTerm:   opp.Confidence * w.Confidence,
		SupplyGapTerm:    opp.SupplyGap * w.SupplyGap,
		DemandTerm:       opp.DemandStrength * w.Demand,
		UrgencyTerm:      math.Max(0, w.UrgencyHorizonHours-opp.TimeWindowHours) * w.Urgency,
		VolumeMultiplier: math.Min(opp.Volume/w.VolumeUnit, w.VolumeMultiplierCap),
		Penalty: opp.RegulatoryComplexity*w.Regulatory +
			opp.LogisticsDifficulty*w.Logistics +
			opp.MarketVolatility*w.Volatility,
	}
	b.Raw = (b.Base+b.ConfidenceTerm+b.SupplyGapTerm+b.DemandTerm+b.UrgencyTerm)*b.VolumeMultiplier - b.Penalty

	score := clamp(b.Raw, 0, 100)
	if opp.Volume <= 0 {
		score = 0
	}

	return models.ScoreResult{
		OpportunityID:      opp.ID,
		Score:              score,
		Priority:           e.priority(score, opp.TimeWindowHours),
		RiskAdjustedReturn: e.riskAdjustedReturn(opp),
		Breakdown:          b,
	}
}

func (e *Engine) priority(score, windowHours float64) models.PriorityTier {
	w := e.weights
	switch {
	case score > w.CriticalScore && windowHours < w.CriticalWindowHours:
		return models.PriorityCritical
	case score > w.HighScore:
		return models.PriorityHigh
	case score > w.MediumScore:
		return models.PriorityMedium
	}
	return models.PriorityLow
}

func (e *Engine) riskAdjustedReturn(opp models.Opportunity) float64 {
	meanRisk := (opp.RegulatoryComplexity + opp.LogisticsDifficulty + opp.MarketVolatility) / 3
	factor := math.Max(e.weights.ReturnFloor, 1-meanRisk/100)
	return (opp.SellPrice - opp.BuyPrice) * opp.Volume * factor
}

// Validate rejects opportunities that cannot be scored meaningfully.
// Scores outside 0..100 and negative quantities are input errors, never clamped.
func Validate(opp models.Opportunity) error {
	if opp.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidOpportunity)
	}
	if opp.BuyPrice < 0 || opp.SellPrice < 0 {
		return fmt.Errorf("%w: prices must not be negative", ErrInvalidOpportunity)
	}
	if opp.Volume < 0 {
		return fmt.Errorf("%w: volume must not be negative", ErrInvalidOpportunity)
	}
	if opp.TimeWindowHours < 0 {
		return fmt.Errorf("%w: timeWindowHours must not be negative", ErrInvalidOpportunity)
	}
	percentages := []struct {
		field string
		value float64
	}{
		{"confidence", opp.Confidence},
		{"supplyGap", opp.SupplyGap},
		{"demandStrength", opp.DemandStrength},
		{"regulatoryComplexity", opp.RegulatoryComplexity},
		{"logisticsDifficulty", opp.LogisticsDifficulty},
		{"marketVolatility", opp.MarketVolatility},
	}
	for _, p := range percentages {
		if math.IsNaN(p.value) || p.value < 0 || p.value > 100 {
			return fmt.Errorf("%w: %s must be within 0..100, got %v", ErrInvalidOpportunity, p.field, p.value)
		}
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
