package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"deal-workers/internal/audit"
	"deal-workers/internal/common/logger"
	"deal-workers/internal/common/metrics"
	"deal-workers/internal/engine/cashflow"
	"deal-workers/internal/engine/gate"
	"deal-workers/internal/engine/scoring"
	"deal-workers/internal/ledger"
	"deal-workers/internal/logistics"
	"deal-workers/internal/models"
)

var ErrAuditDisabled = errors.New("decision audit is not configured")

// Auditor persists gate decisions. audit.Indexer satisfies it.
type Auditor interface {
	Record(ctx context.Context, accountID string, d models.Decision) error
	Recent(ctx context.Context, opportunityID string, size int) ([]audit.Entry, error)
}

// Service is the single entry point to the decision core shared by the job
// workers, the HTTP API and the CLI.
type Service struct {
	gate      *gate.Gate
	recorder  *ledger.Recorder
	optimizer *logistics.Optimizer
	auditor   Auditor
	logger    logger.Logger
}

// NewService wires the pipeline. optimizer and auditor may be nil.
func NewService(g *gate.Gate, store ledger.Store, optimizer *logistics.Optimizer, auditor Auditor, log logger.Logger) *Service {
	return &Service{
		gate:      g,
		recorder:  ledger.NewRecorder(store, g),
		optimizer: optimizer,
		auditor:   auditor,
		logger:    log,
	}
}

func (s *Service) Score(opp models.Opportunity) (models.ScoreResult, error) {
	if err := scoring.Validate(opp); err != nil {
		return models.ScoreResult{}, err
	}
	return s.gate.Scorer().Score(opp), nil
}

func (s *Service) ValidateDeal(deal models.DealInput) (models.CashflowAnalysis, models.RiskAssessment, error) {
	if err := cashflow.ValidateInput(deal); err != nil {
		return models.CashflowAnalysis{}, models.RiskAssessment{}, err
	}
	analysis, risk := s.gate.Validator().Validate(deal)
	return analysis, risk, nil
}

func (s *Service) Phase(ctx context.Context, accountID string) (models.StrategyPhase, error) {
	if err := requireAccount(accountID); err != nil {
		return models.StrategyPhase{}, err
	}
	return s.recorder.Phase(ctx, accountID)
}

// Evaluate runs the gate against the account's current log. The decision is
// counted and audited; audit failures are logged and never change it.
func (s *Service) Evaluate(ctx context.Context, accountID string, opp models.Opportunity, terms models.ProposedTerms) (models.Decision, error) {
	if err := requireAccount(accountID); err != nil {
		return models.Decision{}, err
	}
	if err := gate.ValidateRequest(opp, terms); err != nil {
		return models.Decision{}, err
	}

	decision, err := s.recorder.Evaluate(ctx, accountID, opp, terms)
	if err != nil {
		return models.Decision{}, err
	}

	metrics.RecordDecision(string(decision.Result))
	s.audit(ctx, accountID, decision)

	s.logger.Info("opportunity evaluated", map[string]interface{}{
		"accountId":     accountID,
		"opportunityId": opp.ID,
		"result":        string(decision.Result),
		"phase":         string(decision.Phase.Name),
		"score":         decision.Score.Score,
		"overallRisk":   decision.Risk.OverallRisk,
	})
	return decision, nil
}

// Record appends an executed deal if the gate still approves it under the
// account lock. The returned decision is the one taken under the lock.
func (s *Service) Record(ctx context.Context, req ledger.RecordRequest) (*models.Transaction, models.Decision, error) {
	tx, decision, err := s.recorder.Record(ctx, req)
	if decision.Result != "" {
		metrics.RecordDecision(string(decision.Result))
		s.audit(ctx, req.AccountID, decision)
	}
	if err != nil {
		return nil, decision, err
	}

	metrics.TransactionsRecorded.Inc()
	s.logger.Info("transaction recorded", map[string]interface{}{
		"accountId":     tx.AccountID,
		"transactionId": tx.ID,
		"value":         tx.Value.String(),
		"phase":         string(tx.Phase),
	})
	return tx, decision, nil
}

func (s *Service) Optimize(ctx context.Context, req models.ShipmentRequest) (models.Route, error) {
	if s.optimizer == nil {
		return models.Route{}, fmt.Errorf("%w: no optimizer configured", logistics.ErrNoRouteAvailable)
	}
	return s.optimizer.Optimize(ctx, req)
}

// Decisions returns the most recent audited decisions for an opportunity.
func (s *Service) Decisions(ctx context.Context, opportunityID string, size int) ([]audit.Entry, error) {
	if s.auditor == nil {
		return nil, ErrAuditDisabled
	}
	return s.auditor.Recent(ctx, opportunityID, size)
}

func (s *Service) audit(ctx context.Context, accountID string, d models.Decision) {
	if s.auditor == nil {
		return
	}
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.auditor.Record(auditCtx, accountID, d); err != nil {
		s.logger.Warn("failed to audit decision", map[string]interface{}{
			"accountId":     accountID,
			"opportunityId": d.OpportunityID,
			"error":         err.Error(),
		})
	}
}

func requireAccount(accountID string) error {
	if strings.TrimSpace(accountID) == "" {
		return fmt.Errorf("%w: accountId is required", ledger.ErrInvalidRecord)
	}
	return nil
}
