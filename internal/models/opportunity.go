// internal/models/opportunity.go
package models

// Opportunity is a candidate cross-border trade deal as delivered by the
// ingestion feed. Scores are in 0..100, prices in USD per unit.
type Opportunity struct {
	ID                   string   `json:"id"`
	ProductCategory      string   `json:"productCategory"`
	SourceMarket         string   `json:"sourceMarket"`
	TargetMarket         string   `json:"targetMarket"`
	BuyPrice             float64  `json:"buyPrice"`
	SellPrice            float64  `json:"sellPrice"`
	MarginPct            *float64 `json:"marginPct,omitempty"`
	Volume               float64  `json:"volume"`
	Confidence           float64  `json:"confidence"`
	SupplyGap            float64  `json:"supplyGap"`
	DemandStrength       float64  `json:"demandStrength"`
	RegulatoryComplexity float64  `json:"regulatoryComplexity"`
	LogisticsDifficulty  float64  `json:"logisticsDifficulty"`
	MarketVolatility     float64  `json:"marketVolatility"`
	TimeWindowHours      float64  `json:"timeWindowHours"`
}

// Margin returns the margin in percent. An explicit MarginPct wins; otherwise
// it is derived as markup over the buy price, and 0 when no buy price is known.
func (o Opportunity) Margin() float64 {
	if o.MarginPct != nil {
		return *o.MarginPct
	}
	if o.BuyPrice <= 0 {
		return 0
	}
	return (o.SellPrice - o.BuyPrice) / o.BuyPrice * 100
}

// PurchaseValue is what the supplier has to be paid for the full volume.
func (o Opportunity) PurchaseValue() float64 {
	return o.BuyPrice * o.Volume
}

type PriorityTier string

const (
	PriorityCritical PriorityTier = "critical"
	PriorityHigh     PriorityTier = "high"
	PriorityMedium   PriorityTier = "medium"
	PriorityLow      PriorityTier = "low"
)

type ScoreResult struct {
	OpportunityID      string         `json:"opportunityId"`
	Score              float64        `json:"score"`
	Priority           PriorityTier   `json:"priority"`
	RiskAdjustedReturn float64        `json:"riskAdjustedReturn"`
	Breakdown          ScoreBreakdown `json:"breakdown"`
}

// ScoreBreakdown exposes every term of the composite formula.
type ScoreBreakdown struct {
	Base             float64 `json:"base"`
	ConfidenceTerm   float64 `json:"confidenceTerm"`
	SupplyGapTerm    float64 `json:"supplyGapTerm"`
	DemandTerm       float64 `json:"demandTerm"`
	UrgencyTerm      float64 `json:"urgencyTerm"`
	VolumeMultiplier float64 `json:"volumeMultiplier"`
	Penalty          float64 `json:"penalty"`
	Raw              float64 `json:"raw"`
}
