// internal/models/decision.go
package models

type DecisionResult string

const (
	DecisionApproved          DecisionResult = "approved"
	DecisionRejected          DecisionResult = "rejected"
	DecisionNeedsModification DecisionResult = "needs_modification"
)

// ProposedTerms are the contract terms an opportunity would be executed under.
// DealValue defaults to buy price times volume when zero.
type ProposedTerms struct {
	CustomerTerms            string  `json:"customerTerms"`
	SupplierTerms            string  `json:"supplierTerms"`
	DealValue                float64 `json:"dealValue,omitempty"`
	CustomerCreditworthiness float64 `json:"customerCreditworthiness,omitempty"`
	SupplierReliability      float64 `json:"supplierReliability,omitempty"`
}

type Decision struct {
	OpportunityID string           `json:"opportunityId"`
	Result        DecisionResult   `json:"result"`
	Reasons       []string         `json:"reasons"`
	Modifications []string         `json:"modifications"`
	Score         ScoreResult      `json:"score"`
	Cashflow      CashflowAnalysis `json:"cashflow"`
	Risk          RiskAssessment   `json:"risk"`
	Phase         StrategyPhase    `json:"phase"`
}
