// internal/workers/deal/validate-deal/models.go
package validatedeal

import "deal-workers/internal/models"

type Input struct {
	Deal models.DealInput `json:"deal"`
}

// Output flattens the two verdict fields BPMN gateways branch on.
type Output struct {
	Cashflow               models.CashflowAnalysis `json:"cashflow"`
	Risk                   models.RiskAssessment   `json:"risk"`
	CashPositiveFromDayOne bool                    `json:"cashPositiveFromDayOne"`
	Recommendation         string                  `json:"recommendation"`
}
