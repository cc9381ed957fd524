package logistics

import (
	"strings"

	"deal-workers/internal/models"

	"github.com/shopspring/decimal"
)

// Tariff holds the import charges and cargo insurance rate of a destination.
// Rates are fractions, HandlingFee is in USD.
type Tariff struct {
	DutyRate      float64 `mapstructure:"duty_rate" json:"dutyRate"`
	VATRate       float64 `mapstructure:"vat_rate" json:"vatRate"`
	HandlingFee   float64 `mapstructure:"handling_fee" json:"handlingFee"`
	InsuranceRate float64 `mapstructure:"insurance_rate" json:"insuranceRate"`
}

// UnknownDestinationTariff applies a conservative 10% duty and 0.3% insurance.
var UnknownDestinationTariff = Tariff{
	DutyRate:      0.10,
	VATRate:       0,
	HandlingFee:   50,
	InsuranceRate: 0.003,
}

type TariffTable struct {
	byDestination map[string]Tariff
	fallback      Tariff
}

// NewTariffTable indexes tariffs by upper-cased destination code.
func NewTariffTable(tariffs map[string]Tariff, fallback Tariff) *TariffTable {
	idx := make(map[string]Tariff, len(tariffs))
	for dest, t := range tariffs {
		idx[normalizeMarket(dest)] = t
	}
	return &TariffTable{byDestination: idx, fallback: fallback}
}

func DefaultTariffTable() *TariffTable {
	return NewTariffTable(map[string]Tariff{
		"US": {DutyRate: 0.05, VATRate: 0, HandlingFee: 35, InsuranceRate: 0.0025},
		"CA": {DutyRate: 0.06, VATRate: 0.05, HandlingFee: 35, InsuranceRate: 0.0025},
		"DE": {DutyRate: 0.04, VATRate: 0.19, HandlingFee: 45, InsuranceRate: 0.003},
		"GB": {DutyRate: 0.04, VATRate: 0.20, HandlingFee: 40, InsuranceRate: 0.003},
		"JP": {DutyRate: 0.03, VATRate: 0.10, HandlingFee: 30, InsuranceRate: 0.002},
		"AU": {DutyRate: 0.05, VATRate: 0.10, HandlingFee: 40, InsuranceRate: 0.0035},
		"BR": {DutyRate: 0.16, VATRate: 0.17, HandlingFee: 80, InsuranceRate: 0.006},
	}, UnknownDestinationTariff)
}

// Lookup reports false when the destination fell back to the default tariff.
func (t *TariffTable) Lookup(destination string) (Tariff, bool) {
	tariff, ok := t.byDestination[normalizeMarket(destination)]
	if !ok {
		return t.fallback, false
	}
	return tariff, true
}

func (t *TariffTable) Insurance(destination string, value decimal.Decimal) decimal.Decimal {
	tariff, _ := t.Lookup(destination)
	return value.Mul(decimal.NewFromFloat(tariff.InsuranceRate)).Round(2)
}

// Customs is duty on the goods value, VAT on value plus duty, and a flat
// handling fee.
func (t *TariffTable) Customs(destination string, value decimal.Decimal) models.CustomsEstimate {
	tariff, _ := t.Lookup(destination)
	duty := value.Mul(decimal.NewFromFloat(tariff.DutyRate)).Round(2)
	vat := value.Add(duty).Mul(decimal.NewFromFloat(tariff.VATRate)).Round(2)
	handling := decimal.NewFromFloat(tariff.HandlingFee).Round(2)
	return models.CustomsEstimate{
		Duty:        duty,
		VAT:         vat,
		HandlingFee: handling,
		Total:       duty.Add(vat).Add(handling),
	}
}

// Distances maps an origin/destination lane to the multiplier applied to
// carrier cost and transit time. Lanes are symmetric.
type Distances struct {
	lanes    map[string]float64
	domestic float64
	fallback float64
}

func NewDistances(lanes map[string]float64, domestic, fallback float64) *Distances {
	idx := make(map[string]float64, len(lanes))
	for lane, m := range lanes {
		idx[normalizeMarket(lane)] = m
	}
	return &Distances{lanes: idx, domestic: domestic, fallback: fallback}
}

func DefaultDistances() *Distances {
	return NewDistances(map[string]float64{
		"CN-US": 1.8,
		"CN-CA": 1.8,
		"CN-DE": 1.6,
		"CN-GB": 1.6,
		"CN-JP": 0.8,
		"CN-AU": 1.2,
		"CN-BR": 2.2,
		"US-CA": 0.7,
		"US-DE": 1.3,
		"US-GB": 1.2,
		"US-BR": 1.4,
		"DE-GB": 0.6,
	}, 0.5, 1.5)
}

func (d *Distances) Multiplier(origin, destination string) float64 {
	o, dst := normalizeMarket(origin), normalizeMarket(destination)
	if o == dst {
		return d.domestic
	}
	if m, ok := d.lanes[o+"-"+dst]; ok {
		return m
	}
	if m, ok := d.lanes[dst+"-"+o]; ok {
		return m
	}
	return d.fallback
}

func normalizeMarket(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
