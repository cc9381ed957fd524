package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"deal-workers/internal/common/validation"
)

const (
	TaskScoreOpportunity     = "score-opportunity"
	TaskValidateDeal         = "validate-deal"
	TaskCurrentStrategyPhase = "current-strategy-phase"
	TaskEvaluateOpportunity  = "evaluate-opportunity"
	TaskOptimizeLogistics    = "optimize-logistics"
	TaskRecordTransaction    = "record-transaction"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *ActivityRegistry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (r *ActivityRegistry) Lookup(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}

// ValidateVariables checks job variables against the activity's input
// schema. Unknown task types have no schema and always pass.
func (r *ActivityRegistry) ValidateVariables(taskType string, variables []byte) error {
	activity, ok := r.Lookup(taskType)
	if !ok || activity.InputSchema == nil {
		return nil
	}
	if err := validation.Validate(activity.InputSchema, variables); err != nil {
		return fmt.Errorf("%s: %w", taskType, err)
	}
	return nil
}

// Default describes every worker shipped in this repository.
func Default() *ActivityRegistry {
	return &ActivityRegistry{
		Version:     "1.0.0",
		LastUpdated: "2026-10-01",
		Activities: []Activity{
			{
				ID:                   "opportunity.score",
				DisplayName:          "Score Opportunity",
				Description:          "Computes the composite 0-100 desirability score and priority tier of a trade opportunity.",
				Category:             "opportunity",
				Version:              "1.0.0",
				TaskType:             TaskScoreOpportunity,
				ImplementationStatus: "implemented",
				InputSchema:          object([]string{"opportunity"}, schema{"opportunity": opportunitySchema()}),
				ErrorCodes:           []string{"INVALID_INPUT"},
				Timeout:              "5s",
				Tags:                 []string{"scoring"},
			},
			{
				ID:                   "deal.validate",
				DisplayName:          "Validate Deal",
				Description:          "Sizes the cash gap between customer and supplier terms and assesses deal risk.",
				Category:             "deal",
				Version:              "1.0.0",
				TaskType:             TaskValidateDeal,
				ImplementationStatus: "implemented",
				InputSchema:          object([]string{"deal"}, schema{"deal": dealSchema()}),
				ErrorCodes:           []string{"INVALID_INPUT"},
				Timeout:              "5s",
				Tags:                 []string{"cashflow", "risk"},
			},
			{
				ID:                   "strategy.current-phase",
				DisplayName:          "Current Strategy Phase",
				Description:          "Projects the account's operating phase from its transaction log.",
				Category:             "strategy",
				Version:              "1.0.0",
				TaskType:             TaskCurrentStrategyPhase,
				ImplementationStatus: "implemented",
				InputSchema:          object([]string{"accountId"}, schema{"accountId": str()}),
				ErrorCodes:           []string{"INVALID_INPUT", "LEDGER_READ_FAILED"},
				Timeout:              "10s",
				Retries:              3,
				Tags:                 []string{"strategy", "ledger"},
			},
			{
				ID:                   "opportunity.evaluate",
				DisplayName:          "Evaluate Opportunity",
				Description:          "Runs the execution gate: score, cashflow, risk and phase checks.",
				Category:             "opportunity",
				Version:              "1.0.0",
				TaskType:             TaskEvaluateOpportunity,
				ImplementationStatus: "implemented",
				InputSchema: object([]string{"accountId", "opportunity", "terms"}, schema{
					"accountId":   str(),
					"opportunity": opportunitySchema(),
					"terms":       termsSchema(),
				}),
				ErrorCodes: []string{"INVALID_INPUT", "LEDGER_READ_FAILED"},
				Timeout:    "10s",
				Retries:    3,
				Tags:       []string{"gate"},
			},
			{
				ID:                   "logistics.optimize",
				DisplayName:          "Optimize Logistics",
				Description:          "Quotes all carriers concurrently and recommends the best costed route.",
				Category:             "logistics",
				Version:              "1.0.0",
				TaskType:             TaskOptimizeLogistics,
				ImplementationStatus: "implemented",
				InputSchema:          object([]string{"shipment"}, schema{"shipment": shipmentSchema()}),
				ErrorCodes:           []string{"INVALID_INPUT", "NO_ROUTE_AVAILABLE"},
				Timeout:              "15s",
				Tags:                 []string{"logistics"},
			},
			{
				ID:                   "ledger.record-transaction",
				DisplayName:          "Record Transaction",
				Description:          "Re-runs the gate under the account lock and appends the executed deal.",
				Category:             "ledger",
				Version:              "1.0.0",
				TaskType:             TaskRecordTransaction,
				ImplementationStatus: "implemented",
				InputSchema: object([]string{"accountId", "opportunity", "terms", "customerRef", "supplierRef"}, schema{
					"accountId":   str(),
					"opportunity": opportunitySchema(),
					"terms":       termsSchema(),
					"customerRef": str(),
					"supplierRef": str(),
				}),
				ErrorCodes: []string{"INVALID_INPUT", "EXECUTION_NOT_APPROVED", "LEDGER_READ_FAILED", "LEDGER_APPEND_FAILED"},
				Timeout:    "15s",
				Retries:    3,
				Tags:       []string{"ledger"},
			},
		},
	}
}
