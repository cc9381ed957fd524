// Package cashflow judges whether a deal can be executed without the
// operator's own capital and how risky it is.
package cashflow

import (
	"errors"
	"fmt"
	"math"

	"deal-workers/internal/engine/terms"
	"deal-workers/internal/models"
)

var ErrInvalidDeal = errors.New("invalid deal")

// Thresholds are the tier cutoffs and base risk figures used by the validator.
type Thresholds struct {
	CapitalPeriodDays         float64 `mapstructure:"capital_period_days"`
	LowTierFloatDays          int     `mapstructure:"low_tier_float_days"`
	LowTierCapital            float64 `mapstructure:"low_tier_capital"`
	MediumTierFloatDays       int     `mapstructure:"medium_tier_float_days"`
	MediumTierCapital         float64 `mapstructure:"medium_tier_capital"`
	FinancialRiskNoCapital    float64 `mapstructure:"financial_risk_no_capital"`
	FinancialRiskWithCapital  float64 `mapstructure:"financial_risk_with_capital"`
	FinancialRiskCashPositive float64 `mapstructure:"financial_risk_cash_positive"`
	FinancialRiskSevere       float64 `mapstructure:"financial_risk_severe"`
	SevereFloatDays           int     `mapstructure:"severe_float_days"`
	OperationalRiskBase       float64 `mapstructure:"operational_risk_base"`
	ReliableSupplierDiscount  float64 `mapstructure:"reliable_supplier_discount"`
	HighReliabilityThreshold  float64 `mapstructure:"high_reliability_threshold"`
	ComplianceRiskBase        float64 `mapstructure:"compliance_risk_base"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		CapitalPeriodDays:         30,
		LowTierFloatDays:          -7,
		LowTierCapital:            10000,
		MediumTierFloatDays:       -15,
		MediumTierCapital:         50000,
		FinancialRiskNoCapital:    10,
		FinancialRiskWithCapital:  80,
		FinancialRiskCashPositive: 5,
		FinancialRiskSevere:       95,
		SevereFloatDays:           -30,
		OperationalRiskBase:       20,
		ReliableSupplierDiscount:  10,
		HighReliabilityThreshold:  80,
		ComplianceRiskBase:        15,
	}
}

type Validator struct {
	thresholds Thresholds
}

func NewValidator(thresholds Thresholds) *Validator {
	if thresholds.CapitalPeriodDays <= 0 {
		thresholds.CapitalPeriodDays = DefaultThresholds().CapitalPeriodDays
	}
	return &Validator{thresholds: thresholds}
}

// Validate is pure: it parses both payment terms, sizes the cash gap and
// derives the risk assessment.
func (v *Validator) Validate(deal models.DealInput) (models.CashflowAnalysis, models.RiskAssessment) {
	analysis := v.analyze(deal)
	return analysis, v.assess(deal, analysis)
}

func (v *Validator) analyze(deal models.DealInput) models.CashflowAnalysis {
	customerDays := terms.Parse(deal.CustomerTerms)
	supplierDays := terms.Parse(deal.SupplierTerms)
	floatPeriod := supplierDays - customerDays

	capital := 0.0
	if floatPeriod < 0 {
		capital = math.Abs(float64(floatPeriod)) * deal.Value / v.thresholds.CapitalPeriodDays
	}

	return models.CashflowAnalysis{
		CustomerTerms:          deal.CustomerTerms,
		CustomerDays:           customerDays,
		SupplierTerms:          deal.SupplierTerms,
		SupplierDays:           supplierDays,
		FloatPeriodDays:        floatPeriod,
		CapitalRequired:        capital,
		CashPositiveFromDayOne: floatPeriod >= 0 && customerDays <= 0,
		RiskTier:               v.tier(floatPeriod, capital),
	}
}

func (v *Validator) tier(floatPeriod int, capital float64) models.CashflowRiskTier {
	t := v.thresholds
	switch {
	case floatPeriod >= 0 && capital == 0:
		return models.CashflowRiskZero
	case floatPeriod >= t.LowTierFloatDays && capital < t.LowTierCapital:
		return models.CashflowRiskLow
	case floatPeriod >= t.MediumTierFloatDays && capital < t.MediumTierCapital:
		return models.CashflowRiskMedium
	}
	return models.CashflowRiskHigh
}

func (v *Validator) assess(deal models.DealInput, a models.CashflowAnalysis) models.RiskAssessment {
	t := v.thresholds

	financial := t.FinancialRiskNoCapital
	if a.CapitalRequired > 0 {
		financial = t.FinancialRiskWithCapital
	}
	if a.CashPositiveFromDayOne {
		financial = t.FinancialRiskCashPositive
	}
	if a.FloatPeriodDays < t.SevereFloatDays {
		financial = t.FinancialRiskSevere
	}

	operational := t.OperationalRiskBase
	if deal.SupplierReliability >= t.HighReliabilityThreshold {
		operational -= t.ReliableSupplierDiscount
	}

	risk := models.RiskAssessment{
		FinancialRisk:   financial,
		OperationalRisk: operational,
		ComplianceRisk:  t.ComplianceRiskBase,
		OverallRisk:     (financial + operational + t.ComplianceRiskBase) / 3,
	}
	risk.Recommendation = recommend(a, risk.OverallRisk)
	return risk
}

func recommend(a models.CashflowAnalysis, overall float64) string {
	switch {
	case overall < 30 && a.CashPositiveFromDayOne:
		return models.RecommendationProceed
	case a.CapitalRequired == 0 && overall < 50:
		return models.RecommendationLowRisk
	case a.CapitalRequired > 0:
		return models.RecommendationZeroInvestment
	case overall > 70:
		return models.RecommendationRiskTooHigh
	}
	return models.RecommendationModify
}

// ValidateInput rejects deals whose numbers make no sense. Payment terms are
// never rejected; unreadable terms fall back to the parser default.
func ValidateInput(deal models.DealInput) error {
	if math.IsNaN(deal.Value) || math.IsInf(deal.Value, 0) || deal.Value < 0 {
		return fmt.Errorf("%w: value must be a non-negative number", ErrInvalidDeal)
	}
	if deal.SupplierReliability < 0 || deal.SupplierReliability > 100 {
		return fmt.Errorf("%w: supplierReliability must be within 0..100", ErrInvalidDeal)
	}
	if deal.CustomerCreditworthiness < 0 || deal.CustomerCreditworthiness > 100 {
		return fmt.Errorf("%w: customerCreditworthiness must be within 0..100", ErrInvalidDeal)
	}
	return nil
}
