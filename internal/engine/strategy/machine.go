// Package strategy projects the operating phase of an account from its
// transaction log. The phase is never stored; it is recomputed on every call.
package strategy

import (
	"fmt"

	"deal-workers/internal/models"

	"github.com/shopspring/decimal"
)

// Thresholds are the count and value an account must reach to leave a phase.
type Thresholds struct {
	Net30MinTransactions    int     `mapstructure:"net30_min_transactions"`
	Net30MinValue           float64 `mapstructure:"net30_min_value"`
	AdvancedMinTransactions int     `mapstructure:"advanced_min_transactions"`
	AdvancedMinValue        float64 `mapstructure:"advanced_min_value"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Net30MinTransactions:    5,
		Net30MinValue:           50000,
		AdvancedMinTransactions: 15,
		AdvancedMinValue:        200000,
	}
}

var allTermKinds = []models.TermKind{
	models.TermAdvance,
	models.TermNet,
	models.TermCashOnDelivery,
	models.TermLetterOfCredit,
	models.TermOther,
}

type Machine struct {
	thresholds Thresholds
}

func NewMachine(thresholds Thresholds) *Machine {
	def := DefaultThresholds()
	if thresholds.Net30MinTransactions <= 0 {
		thresholds.Net30MinTransactions = def.Net30MinTransactions
	}
	if thresholds.AdvancedMinTransactions <= 0 {
		thresholds.AdvancedMinTransactions = def.AdvancedMinTransactions
	}
	return &Machine{thresholds: thresholds}
}

func (m *Machine) Thresholds() Thresholds {
	return m.thresholds
}

// CurrentPhase returns the phase implied by the log. Two equal logs always
// yield the same phase.
func (m *Machine) CurrentPhase(log []models.Transaction) models.StrategyPhase {
	total := decimal.Zero
	for _, tx := range log {
		total = total.Add(tx.Value)
	}
	return m.PhaseFor(len(log), total)
}

// PhaseFor evaluates the transition table top-down for n transactions worth
// total in aggregate.
func (m *Machine) PhaseFor(n int, total decimal.Decimal) models.StrategyPhase {
	t := m.thresholds
	net30Value := decimal.NewFromFloat(t.Net30MinValue)
	advancedValue := decimal.NewFromFloat(t.AdvancedMinValue)

	var phase models.StrategyPhase
	switch {
	case n == 0:
		phase = models.StrategyPhase{
			Name:                  models.PhaseDropshipping,
			AllowedTerms:          []string{"100% advance"},
			AllowedKinds:          []models.TermKind{models.TermAdvance},
			MaxTermDays:           0,
			NextPhaseRequirements: []string{"complete the first transaction"},
			RiskLevel:             "zero",
		}
		phase.Progress = &models.PhaseProgress{
			NextPhase:             models.PhaseNet15Testing,
			TransactionsRemaining: 1,
			ValueRemaining:        decimal.Zero,
		}
	case n < t.Net30MinTransactions || total.LessThan(net30Value):
		phase = models.StrategyPhase{
			Name:         models.PhaseNet15Testing,
			AllowedTerms: []string{"100% advance", "NET-15"},
			AllowedKinds: []models.TermKind{models.TermAdvance, models.TermNet},
			MaxTermDays:  15,
			NextPhaseRequirements: []string{
				fmt.Sprintf("complete at least %d transactions", t.Net30MinTransactions),
				fmt.Sprintf("reach total transaction value of %s", net30Value.StringFixed(0)),
			},
			RiskLevel: "minimal",
		}
		phase.Progress = progress(models.PhaseNet30Achieving, n, total, t.Net30MinTransactions, net30Value)
	case n < t.AdvancedMinTransactions || total.LessThan(advancedValue):
		phase = models.StrategyPhase{
			Name:         models.PhaseNet30Achieving,
			AllowedTerms: []string{"100% advance", "NET-15", "NET-30"},
			AllowedKinds: []models.TermKind{models.TermAdvance, models.TermNet},
			MaxTermDays:  30,
			NextPhaseRequirements: []string{
				fmt.Sprintf("complete at least %d transactions", t.AdvancedMinTransactions),
				fmt.Sprintf("reach total transaction value of %s", advancedValue.StringFixed(0)),
			},
			RiskLevel: "low",
		}
		phase.Progress = progress(models.PhaseAdvanced, n, total, t.AdvancedMinTransactions, advancedValue)
	default:
		phase = models.StrategyPhase{
			Name:                  models.PhaseAdvanced,
			AllowedTerms:          []string{"all terms per relationship"},
			AllowedKinds:          allTermKinds,
			MaxTermDays:           models.AnyTermDays,
			NextPhaseRequirements: []string{},
			RiskLevel:             "low",
		}
	}

	phase.TransactionCount = n
	phase.TotalValue = total
	return phase
}

func progress(next models.PhaseName, n int, total decimal.Decimal, needCount int, needValue decimal.Decimal) *models.PhaseProgress {
	remaining := needCount - n
	if remaining < 0 {
		remaining = 0
	}
	value := needValue.Sub(total)
	if value.IsNegative() {
		value = decimal.Zero
	}
	return &models.PhaseProgress{
		NextPhase:             next,
		TransactionsRemaining: remaining,
		ValueRemaining:        value,
	}
}
