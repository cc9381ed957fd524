// Package gate decides whether an opportunity may be executed under the
// proposed payment terms given the account's transaction history.
package gate

import (
	"fmt"
	"strings"

	"deal-workers/internal/engine/cashflow"
	"deal-workers/internal/engine/scoring"
	"deal-workers/internal/engine/strategy"
	"deal-workers/internal/engine/terms"
	"deal-workers/internal/models"
)

const (
	ModRequireAdvance       = "require 100% advance from customer"
	ModLongerSupplierTerms  = "negotiate longer supplier terms (≥NET-30)"
	ModLetterOfCredit       = "require letter of credit or bank guarantee"
	ModVerifySupplier       = "verify supplier reliability / performance bond"
	ModComplianceValidation = "complete compliance verification"
)

// Limits are the risk cutoffs applied after the phase check.
type Limits struct {
	RejectOverallRisk      float64 `mapstructure:"reject_overall_risk"`
	ApproveOverallRisk     float64 `mapstructure:"approve_overall_risk"`
	MinFloatDays           int     `mapstructure:"min_float_days"`
	FinancialRiskCeiling   float64 `mapstructure:"financial_risk_ceiling"`
	OperationalRiskCeiling float64 `mapstructure:"operational_risk_ceiling"`
	ComplianceRiskCeiling  float64 `mapstructure:"compliance_risk_ceiling"`
}

func DefaultLimits() Limits {
	return Limits{
		RejectOverallRisk:      70,
		ApproveOverallRisk:     40,
		MinFloatDays:           15,
		FinancialRiskCeiling:   50,
		OperationalRiskCeiling: 50,
		ComplianceRiskCeiling:  30,
	}
}

type Gate struct {
	scorer    *scoring.Engine
	validator *cashflow.Validator
	machine   *strategy.Machine
	limits    Limits
}

func New(scorer *scoring.Engine, validator *cashflow.Validator, machine *strategy.Machine, limits Limits) *Gate {
	return &Gate{
		scorer:    scorer,
		validator: validator,
		machine:   machine,
		limits:    limits,
	}
}

// NewDefault wires a gate from the default weights, thresholds and limits.
func NewDefault() *Gate {
	return New(
		scoring.NewEngine(scoring.DefaultWeights()),
		cashflow.NewValidator(cashflow.DefaultThresholds()),
		strategy.NewMachine(strategy.DefaultThresholds()),
		DefaultLimits(),
	)
}

func (g *Gate) Machine() *strategy.Machine {
	return g.machine
}

func (g *Gate) Scorer() *scoring.Engine {
	return g.scorer
}

func (g *Gate) Validator() *cashflow.Validator {
	return g.validator
}

// ValidateRequest rejects malformed inputs before they reach Evaluate.
func ValidateRequest(opp models.Opportunity, terms models.ProposedTerms) error {
	if err := scoring.Validate(opp); err != nil {
		return err
	}
	return cashflow.ValidateInput(DealFor(opp, terms))
}

// DealFor builds the cashflow input for an opportunity executed under terms.
func DealFor(opp models.Opportunity, terms models.ProposedTerms) models.DealInput {
	value := terms.DealValue
	if value == 0 {
		value = opp.PurchaseValue()
	}
	return models.DealInput{
		Value:                    value,
		CustomerTerms:            terms.CustomerTerms,
		SupplierTerms:            terms.SupplierTerms,
		CustomerCreditworthiness: terms.CustomerCreditworthiness,
		SupplierReliability:      terms.SupplierReliability,
	}
}

// Evaluate has no side effects. Recording the transaction after a successful
// execution is left to the caller.
func (g *Gate) Evaluate(opp models.Opportunity, proposed models.ProposedTerms, log []models.Transaction) models.Decision {
	score := g.scorer.Score(opp)
	analysis, risk := g.validator.Validate(DealFor(opp, proposed))
	phase := g.machine.CurrentPhase(log)

	decision := models.Decision{
		OpportunityID: opp.ID,
		Reasons:       []string{},
		Modifications: []string{},
		Score:         score,
		Cashflow:      analysis,
		Risk:          risk,
		Phase:         phase,
	}

	if !phase.AllowsTerm(terms.Classify(analysis.CustomerTerms), analysis.CustomerDays) {
		decision.Reasons = append(decision.Reasons, termsReason("customer", analysis.CustomerTerms, phase))
	}
	if !phase.AllowsTerm(terms.Classify(analysis.SupplierTerms), analysis.SupplierDays) {
		decision.Reasons = append(decision.Reasons, termsReason("supplier", analysis.SupplierTerms, phase))
	}
	if len(decision.Reasons) > 0 {
		decision.Result = models.DecisionRejected
		return decision
	}

	if analysis.CapitalRequired > 0 {
		decision.Reasons = append(decision.Reasons,
			fmt.Sprintf("capital required %.2f violates zero-investment policy", analysis.CapitalRequired))
	}
	if risk.OverallRisk > g.limits.RejectOverallRisk {
		decision.Reasons = append(decision.Reasons,
			fmt.Sprintf("overall risk %.1f exceeds %.0f", risk.OverallRisk, g.limits.RejectOverallRisk))
	}
	if len(decision.Reasons) > 0 {
		decision.Result = models.DecisionRejected
		return decision
	}

	if analysis.CashPositiveFromDayOne && risk.OverallRisk < g.limits.ApproveOverallRisk {
		decision.Result = models.DecisionApproved
		decision.Reasons = append(decision.Reasons,
			fmt.Sprintf("cash positive from day one with overall risk %.1f", risk.OverallRisk))
		return decision
	}

	decision.Result = models.DecisionNeedsModification
	if !analysis.CashPositiveFromDayOne {
		decision.Reasons = append(decision.Reasons, "deal is not cash positive from day one")
	} else {
		decision.Reasons = append(decision.Reasons,
			fmt.Sprintf("overall risk %.1f is not below %.0f", risk.OverallRisk, g.limits.ApproveOverallRisk))
	}
	decision.Modifications = g.modifications(analysis, risk)
	return decision
}

func (g *Gate) modifications(a models.CashflowAnalysis, r models.RiskAssessment) []string {
	mods := []string{}
	if !a.CashPositiveFromDayOne {
		mods = append(mods, ModRequireAdvance)
	}
	if a.FloatPeriodDays < g.limits.MinFloatDays {
		mods = append(mods, ModLongerSupplierTerms)
	}
	if r.FinancialRisk > g.limits.FinancialRiskCeiling {
		mods = append(mods, ModLetterOfCredit)
	}
	if r.OperationalRisk > g.limits.OperationalRiskCeiling {
		mods = append(mods, ModVerifySupplier)
	}
	if r.ComplianceRisk > g.limits.ComplianceRiskCeiling {
		mods = append(mods, ModComplianceValidation)
	}
	return mods
}

func termsReason(side, term string, phase models.StrategyPhase) string {
	return fmt.Sprintf("%s terms %q not allowed in phase %s (allowed: %s)",
		side, term, phase.Name, strings.Join(phase.AllowedTerms, ", "))
}
