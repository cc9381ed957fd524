package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"deal-workers/internal/engine/gate"
	"deal-workers/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotApproved   = errors.New("execution not approved")
	ErrInvalidRecord = errors.New("invalid transaction record")
)

type RecordRequest struct {
	AccountID   string               `json:"accountId"`
	Opportunity models.Opportunity   `json:"opportunity"`
	Terms       models.ProposedTerms `json:"terms"`
	CustomerRef string               `json:"customerRef"`
	SupplierRef string               `json:"supplierRef"`
}

func (r RecordRequest) Validate() error {
	if strings.TrimSpace(r.AccountID) == "" {
		return fmt.Errorf("%w: accountId is required", ErrInvalidRecord)
	}
	if strings.TrimSpace(r.CustomerRef) == "" || strings.TrimSpace(r.SupplierRef) == "" {
		return fmt.Errorf("%w: customerRef and supplierRef are required", ErrInvalidRecord)
	}
	return gate.ValidateRequest(r.Opportunity, r.Terms)
}

// Recorder appends executed deals to the ledger. The gate is re-run against
// the log under the account lock, so two executions can never both be
// approved from the same pre-append phase.
type Recorder struct {
	store Store
	gate  *gate.Gate
	now   func() time.Time
}

func NewRecorder(store Store, g *gate.Gate) *Recorder {
	return &Recorder{
		store: store,
		gate:  g,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Record returns the decision taken under the lock. When it is not approved
// the error wraps ErrNotApproved and nothing is appended.
func (r *Recorder) Record(ctx context.Context, req RecordRequest) (*models.Transaction, models.Decision, error) {
	if err := req.Validate(); err != nil {
		return nil, models.Decision{}, err
	}

	var decision models.Decision
	tx, err := r.store.Execute(ctx, req.AccountID, func(log []models.Transaction) (*models.Transaction, error) {
		decision = r.gate.Evaluate(req.Opportunity, req.Terms, log)
		if decision.Result != models.DecisionApproved {
			return nil, fmt.Errorf("%w: %s (%s)", ErrNotApproved, decision.Result, strings.Join(decision.Reasons, "; "))
		}

		opp := req.Opportunity
		deal := gate.DealFor(opp, req.Terms)
		margin := decimal.NewFromFloat(opp.SellPrice).
			Sub(decimal.NewFromFloat(opp.BuyPrice)).
			Mul(decimal.NewFromFloat(opp.Volume)).
			Round(2)

		return &models.Transaction{
			ID:            uuid.NewString(),
			AccountID:     req.AccountID,
			Timestamp:     r.now(),
			OpportunityID: opp.ID,
			CustomerRef:   req.CustomerRef,
			SupplierRef:   req.SupplierRef,
			Value:         decimal.NewFromFloat(deal.Value).Round(2),
			Margin:        margin,
			CustomerTerms: req.Terms.CustomerTerms,
			SupplierTerms: req.Terms.SupplierTerms,
			Phase:         decision.Phase.Name,
		}, nil
	})
	return tx, decision, err
}

// Phase is the current phase of an account computed from a snapshot.
func (r *Recorder) Phase(ctx context.Context, accountID string) (models.StrategyPhase, error) {
	log, err := r.store.Snapshot(ctx, accountID)
	if err != nil {
		return models.StrategyPhase{}, err
	}
	return r.gate.Machine().CurrentPhase(log), nil
}

// Evaluate runs the gate against a snapshot of the account's log.
func (r *Recorder) Evaluate(ctx context.Context, accountID string, opp models.Opportunity, terms models.ProposedTerms) (models.Decision, error) {
	log, err := r.store.Snapshot(ctx, accountID)
	if err != nil {
		return models.Decision{}, err
	}
	return r.gate.Evaluate(opp, terms, log), nil
}
