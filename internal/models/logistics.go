// internal/models/logistics.go
package models

import "github.com/shopspring/decimal"

type ServiceClass string

const (
	ServiceExpress  ServiceClass = "express"
	ServiceStandard ServiceClass = "standard"
	ServiceSea      ServiceClass = "sea"
)

// LogisticsQuote is one carrier's price for moving a shipment.
type LogisticsQuote struct {
	Provider    string          `json:"provider"`
	Carrier     string          `json:"carrier"`
	ServiceType ServiceClass    `json:"serviceType"`
	Cost        decimal.Decimal `json:"cost"`
	TransitDays int             `json:"transitDays"`
	Reliability float64         `json:"reliability"`
}

type ShipmentRequest struct {
	Origin          string  `json:"origin"`
	Destination     string  `json:"destination"`
	WeightKg        float64 `json:"weightKg"`
	ValueUSD        float64 `json:"valueUsd"`
	ProductCategory string  `json:"productCategory,omitempty"`
}

type CustomsEstimate struct {
	Duty        decimal.Decimal `json:"duty"`
	VAT         decimal.Decimal `json:"vat"`
	HandlingFee decimal.Decimal `json:"handlingFee"`
	Total       decimal.Decimal `json:"total"`
}

// RouteOption is a quote costed with insurance and customs, and scored.
type RouteOption struct {
	Quote          LogisticsQuote  `json:"quote"`
	TotalCost      decimal.Decimal `json:"totalCost"`
	CostScore      float64         `json:"costScore"`
	TimeScore      float64         `json:"timeScore"`
	CompositeScore float64         `json:"compositeScore"`
}

type ProviderFailure struct {
	Provider string `json:"provider"`
	Reason   string `json:"reason"`
}

// Route is the recommended logistics plan. TotalCost is the chosen quote's
// cost plus insurance plus customs.
type Route struct {
	Origin        string            `json:"origin"`
	Destination   string            `json:"destination"`
	Quotes        []LogisticsQuote  `json:"quotes"`
	InsuranceCost decimal.Decimal   `json:"insuranceCost"`
	Customs       CustomsEstimate   `json:"customs"`
	TotalCost     decimal.Decimal   `json:"totalCost"`
	Chosen        LogisticsQuote    `json:"chosen"`
	Score         float64           `json:"score"`
	Options       []RouteOption     `json:"options"`
	Excluded      []ProviderFailure `json:"excluded,omitempty"`
}
