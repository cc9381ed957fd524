package cashflow

import (
	"errors"
	"testing"

	"deal-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_AdvanceCustomerNet30Supplier(t *testing.T) {
	v := NewValidator(DefaultThresholds())

	analysis, risk := v.Validate(models.DealInput{
		Value:         100000,
		CustomerTerms: "100% advance",
		SupplierTerms: "NET-30",
	})

	assert.Equal(t, 0, analysis.CustomerDays)
	assert.Equal(t, 30, analysis.SupplierDays)
	assert.Equal(t, 30, analysis.FloatPeriodDays)
	assert.Equal(t, 0.0, analysis.CapitalRequired)
	assert.True(t, analysis.CashPositiveFromDayOne)
	assert.Equal(t, models.CashflowRiskZero, analysis.RiskTier)

	assert.Equal(t, 5.0, risk.FinancialRisk)
	assert.Equal(t, 20.0, risk.OperationalRisk)
	assert.Equal(t, 15.0, risk.ComplianceRisk)
	assert.InDelta(t, 40.0/3, risk.OverallRisk, 1e-9)
	assert.Less(t, risk.OverallRisk, 40.0)
	assert.Equal(t, models.RecommendationProceed, risk.Recommendation)
}

func TestValidator_Net30CustomerAdvanceSupplier(t *testing.T) {
	v := NewValidator(DefaultThresholds())

	analysis, risk := v.Validate(models.DealInput{
		Value:         100000,
		CustomerTerms: "NET-30",
		SupplierTerms: "100% advance",
	})

	assert.Equal(t, -30, analysis.FloatPeriodDays)
	assert.InDelta(t, 100000.0, analysis.CapitalRequired, 1e-6)
	assert.False(t, analysis.CashPositiveFromDayOne)
	assert.Equal(t, models.CashflowRiskHigh, analysis.RiskTier)

	// -30 is not beyond the severe cutoff, so the capital figure applies.
	assert.Equal(t, 80.0, risk.FinancialRisk)
	assert.Equal(t, models.RecommendationZeroInvestment, risk.Recommendation)
}

func TestValidator_SevereFloatOverridesFinancialRisk(t *testing.T) {
	v := NewValidator(DefaultThresholds())

	analysis, risk := v.Validate(models.DealInput{
		Value:         60000,
		CustomerTerms: "NET 60",
		SupplierTerms: "prepaid",
	})

	assert.Equal(t, -60, analysis.FloatPeriodDays)
	assert.InDelta(t, 120000.0, analysis.CapitalRequired, 1e-6)
	assert.Equal(t, 95.0, risk.FinancialRisk)
	assert.Equal(t, models.RecommendationZeroInvestment, risk.Recommendation)
}

func TestValidator_RiskTiers(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		customer string
		supplier string
		expected models.CashflowRiskTier
	}{
		{"supplier waits longer", 1000, "NET-15", "NET-30", models.CashflowRiskZero},
		{"matched terms", 1000, "NET-30", "NET-30", models.CashflowRiskZero},
		{"short gap small deal", 10000, "NET-35", "NET-30", models.CashflowRiskLow},
		{"short gap large deal", 90000, "NET-35", "NET-30", models.CashflowRiskMedium},
		{"medium gap", 30000, "NET-45", "NET-30", models.CashflowRiskMedium},
		{"medium gap huge deal", 300000, "NET-45", "NET-30", models.CashflowRiskHigh},
		{"long gap", 1000, "NET-60", "NET-30", models.CashflowRiskHigh},
	}

	v := NewValidator(DefaultThresholds())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis, _ := v.Validate(models.DealInput{
				Value:         tt.value,
				CustomerTerms: tt.customer,
				SupplierTerms: tt.supplier,
			})
			assert.Equal(t, tt.expected, analysis.RiskTier)
		})
	}
}

func TestValidator_CapitalRequiredIsNeverNegative(t *testing.T) {
	v := NewValidator(DefaultThresholds())
	terms := []string{"advance", "COD", "NET-7", "net 15", "NET-30", "NET-90", "LC", "whatever"}

	for _, c := range terms {
		for _, s := range terms {
			analysis, risk := v.Validate(models.DealInput{Value: 5000, CustomerTerms: c, SupplierTerms: s})
			assert.GreaterOrEqual(t, analysis.CapitalRequired, 0.0, "%s/%s", c, s)
			assert.Equal(t, analysis.SupplierDays-analysis.CustomerDays, analysis.FloatPeriodDays)
			if analysis.FloatPeriodDays >= 0 {
				assert.Equal(t, 0.0, analysis.CapitalRequired)
			}
			if analysis.CashPositiveFromDayOne {
				assert.Equal(t, 0.0, analysis.CapitalRequired)
			}
			assert.GreaterOrEqual(t, risk.OverallRisk, 0.0)
			assert.LessOrEqual(t, risk.OverallRisk, 100.0)
		}
	}
}

func TestValidator_ReliableSupplierLowersOperationalRisk(t *testing.T) {
	v := NewValidator(DefaultThresholds())
	deal := models.DealInput{Value: 1000, CustomerTerms: "advance", SupplierTerms: "NET-30"}

	_, base := v.Validate(deal)
	deal.SupplierReliability = 80
	_, reliable := v.Validate(deal)

	assert.Equal(t, 20.0, base.OperationalRisk)
	assert.Equal(t, 10.0, reliable.OperationalRisk)
	assert.Less(t, reliable.OverallRisk, base.OverallRisk)
}

func TestValidator_Recommendations(t *testing.T) {
	tests := []struct {
		name     string
		customer string
		supplier string
		expected string
	}{
		{"cash positive", "advance", "NET-30", models.RecommendationProceed},
		// Customer pays on NET-15, supplier NET-30: no capital but not cash positive.
		{"no capital", "NET-15", "NET-30", models.RecommendationLowRisk},
		{"capital needed", "NET-60", "NET-30", models.RecommendationZeroInvestment},
	}

	v := NewValidator(DefaultThresholds())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, risk := v.Validate(models.DealInput{Value: 10000, CustomerTerms: tt.customer, SupplierTerms: tt.supplier})
			assert.Equal(t, tt.expected, risk.Recommendation)
		})
	}
}

func TestValidator_HighBaseRiskFallsThroughToRiskTooHigh(t *testing.T) {
	th := DefaultThresholds()
	th.OperationalRiskBase = 100
	th.ComplianceRiskBase = 100
	th.ReliableSupplierDiscount = 0
	v := NewValidator(th)

	_, risk := v.Validate(models.DealInput{Value: 10000, CustomerTerms: "NET-15", SupplierTerms: "NET-30"})

	assert.InDelta(t, 70.0, risk.OverallRisk, 1e-9)
	assert.Equal(t, models.RecommendationModify, risk.Recommendation)

	th.FinancialRiskNoCapital = 20
	_, risk = NewValidator(th).Validate(models.DealInput{Value: 10000, CustomerTerms: "NET-15", SupplierTerms: "NET-30"})
	assert.Equal(t, models.RecommendationRiskTooHigh, risk.Recommendation)
}

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name    string
		deal    models.DealInput
		wantErr bool
	}{
		{"valid", models.DealInput{Value: 100, CustomerTerms: "NET-30"}, false},
		{"zero value", models.DealInput{}, false},
		{"negative value", models.DealInput{Value: -1}, true},
		{"reliability above range", models.DealInput{Value: 1, SupplierReliability: 101}, true},
		{"creditworthiness below range", models.DealInput{Value: 1, CustomerCreditworthiness: -5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInput(tt.deal)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidDeal))
				return
			}
			assert.NoError(t, err)
		})
	}
}
