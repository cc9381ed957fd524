// internal/models/deal.go
package models

// DealInput is what the cashflow validator needs to judge a deal.
// SupplierReliability and CustomerCreditworthiness are 0..100.
type DealInput struct {
	Value                    float64 `json:"value"`
	CustomerTerms            string  `json:"customerTerms"`
	SupplierTerms            string  `json:"supplierTerms"`
	CustomerCreditworthiness float64 `json:"customerCreditworthiness,omitempty"`
	SupplierReliability      float64 `json:"supplierReliability,omitempty"`
}

type CashflowRiskTier string

const (
	CashflowRiskZero   CashflowRiskTier = "zero"
	CashflowRiskLow    CashflowRiskTier = "low"
	CashflowRiskMedium CashflowRiskTier = "medium"
	CashflowRiskHigh   CashflowRiskTier = "high"
)

type CashflowAnalysis struct {
	CustomerTerms          string           `json:"customerTerms"`
	CustomerDays           int              `json:"customerDays"`
	SupplierTerms          string           `json:"supplierTerms"`
	SupplierDays           int              `json:"supplierDays"`
	FloatPeriodDays        int              `json:"floatPeriodDays"`
	CapitalRequired        float64          `json:"capitalRequired"`
	CashPositiveFromDayOne bool             `json:"cashPositiveFromDayOne"`
	RiskTier               CashflowRiskTier `json:"riskTier"`
}

const (
	RecommendationProceed        = "approved, proceed"
	RecommendationLowRisk        = "approved, low risk"
	RecommendationZeroInvestment = "rejected, violates zero-investment policy"
	RecommendationRiskTooHigh    = "rejected, risk too high"
	RecommendationModify         = "needs modification"
)

type RiskAssessment struct {
	FinancialRisk   float64 `json:"financialRisk"`
	OperationalRisk float64 `json:"operationalRisk"`
	ComplianceRisk  float64 `json:"complianceRisk"`
	OverallRisk     float64 `json:"overallRisk"`
	Recommendation  string  `json:"recommendation"`
}
