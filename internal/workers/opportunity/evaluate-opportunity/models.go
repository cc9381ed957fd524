// internal/workers/opportunity/evaluate-opportunity/models.go
package evaluateopportunity

import "deal-workers/internal/models"

type Input struct {
	AccountID   string               `json:"accountId"`
	Opportunity models.Opportunity   `json:"opportunity"`
	Terms       models.ProposedTerms `json:"terms"`
}

type Output struct {
	Decision       models.Decision       `json:"decision"`
	DecisionResult models.DecisionResult `json:"decisionResult"`
	Approved       bool                  `json:"approved"`
}
