// internal/models/strategy.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PhaseName string

const (
	PhaseDropshipping   PhaseName = "dropshipping"
	PhaseNet15Testing   PhaseName = "net15_testing"
	PhaseNet30Achieving PhaseName = "net30_achieving"
	PhaseAdvanced       PhaseName = "advanced"
)

// Rank orders phases from most to least restricted.
func (p PhaseName) Rank() int {
	switch p {
	case PhaseDropshipping:
		return 0
	case PhaseNet15Testing:
		return 1
	case PhaseNet30Achieving:
		return 2
	case PhaseAdvanced:
		return 3
	}
	return -1
}

// AnyTermDays marks a phase that accepts every payment term.
const AnyTermDays = -1

// TermKind is the family a free-form payment term belongs to.
type TermKind string

const (
	TermAdvance        TermKind = "advance"
	TermNet            TermKind = "net"
	TermCashOnDelivery TermKind = "cod"
	TermLetterOfCredit TermKind = "letter_of_credit"
	TermOther          TermKind = "other"
)

// StrategyPhase is derived from the transaction log on every query and never stored.
type StrategyPhase struct {
	Name                  PhaseName       `json:"name"`
	AllowedTerms          []string        `json:"allowedTerms"`
	AllowedKinds          []TermKind      `json:"allowedKinds"`
	MaxTermDays           int             `json:"maxTermDays"`
	NextPhaseRequirements []string        `json:"nextPhaseRequirements"`
	RiskLevel             string          `json:"riskLevel"`
	TransactionCount      int             `json:"transactionCount"`
	TotalValue            decimal.Decimal `json:"totalValue"`
	Progress              *PhaseProgress  `json:"progress,omitempty"`
}

// AllowsTerm reports whether a term of the given kind and length may be used.
// NET periods are capped by MaxTermDays; every other kind must be listed.
func (p StrategyPhase) AllowsTerm(kind TermKind, days int) bool {
	if p.MaxTermDays == AnyTermDays {
		return true
	}
	for _, k := range p.AllowedKinds {
		if k != kind {
			continue
		}
		return kind != TermNet || days <= p.MaxTermDays
	}
	return false
}

// PhaseProgress is the distance to the next phase. Nil once advanced.
type PhaseProgress struct {
	NextPhase             PhaseName       `json:"nextPhase"`
	TransactionsRemaining int             `json:"transactionsRemaining"`
	ValueRemaining        decimal.Decimal `json:"valueRemaining"`
}

// Transaction is an executed deal. The log of transactions is append-only.
type Transaction struct {
	ID            string          `json:"id"`
	AccountID     string          `json:"accountId"`
	Timestamp     time.Time       `json:"timestamp"`
	OpportunityID string          `json:"opportunityId,omitempty"`
	CustomerRef   string          `json:"customerRef"`
	SupplierRef   string          `json:"supplierRef"`
	Value         decimal.Decimal `json:"value"`
	Margin        decimal.Decimal `json:"margin"`
	CustomerTerms string          `json:"customerTerms"`
	SupplierTerms string          `json:"supplierTerms"`
	Phase         PhaseName       `json:"phase"`
}
