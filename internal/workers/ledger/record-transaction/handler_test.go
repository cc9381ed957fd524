// internal/workers/ledger/record-transaction/handler_test.go
package recordtransaction

import (
	"context"
	"sync"
	"testing"

	commonerrors "deal-workers/internal/common/errors"
	"deal-workers/internal/common/logger"
	"deal-workers/internal/engine/gate"
	"deal-workers/internal/ledger"
	"deal-workers/internal/models"
	"deal-workers/internal/pipeline"
	"deal-workers/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, store ledger.Store) *Handler {
	t.Helper()
	log := logger.NewTestLogger(t)
	service := pipeline.NewService(gate.NewDefault(), store, nil, nil, log)
	return NewHandler(LoadConfig(), service, registry.Default(), nil, log)
}

func request(customerTerms, supplierTerms string) *Input {
	return &Input{
		AccountID: "acct-1",
		Opportunity: models.Opportunity{
			ID:              "opp-1",
			BuyPrice:        10,
			SellPrice:       14,
			Volume:          1000,
			Confidence:      70,
			SupplyGap:       30,
			DemandStrength:  60,
			TimeWindowHours: 72,
		},
		Terms:       models.ProposedTerms{CustomerTerms: customerTerms, SupplierTerms: supplierTerms},
		CustomerRef: "cust-1",
		SupplierRef: "supp-1",
	}
}

func TestHandler_Execute_AppendsApprovedDeal(t *testing.T) {
	store := ledger.NewMemoryStore()
	h := newTestHandler(t, store)

	output, err := h.Execute(context.Background(), request("100% advance", "prepaid"))

	require.NoError(t, err)
	assert.NotEmpty(t, output.TransactionID)
	assert.Equal(t, output.TransactionID, output.Transaction.ID)
	assert.Equal(t, models.PhaseDropshipping, output.Phase)
	assert.Equal(t, models.DecisionApproved, output.Decision.Result)
	assert.Equal(t, "10000", output.Transaction.Value.String())
	assert.Equal(t, "4000", output.Transaction.Margin.String())

	log, err := store.Snapshot(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Len(t, log, 1)
}

func TestHandler_Execute_NotApproved(t *testing.T) {
	store := ledger.NewMemoryStore()
	h := newTestHandler(t, store)

	_, err := h.Execute(context.Background(), request("NET-15", "COD"))

	require.Error(t, err)
	stdErr := commonerrors.Classify(err)
	assert.Equal(t, commonerrors.ErrCodeExecutionNotApproved, stdErr.Code)
	assert.False(t, stdErr.Retryable)

	log, err := store.Snapshot(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Empty(t, log)
}

func TestHandler_Execute_MissingReferences(t *testing.T) {
	h := newTestHandler(t, ledger.NewMemoryStore())
	req := request("100% advance", "prepaid")
	req.SupplierRef = ""

	_, err := h.Execute(context.Background(), req)

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeInvalidInput, commonerrors.Classify(err).Code)
}

// Only the first of several concurrent executions on a fresh account can see
// the empty log, so exactly one transaction is recorded as dropshipping.
func TestHandler_Execute_ConcurrentAppendsAreSerialized(t *testing.T) {
	store := ledger.NewMemoryStore()
	h := newTestHandler(t, store)

	var wg sync.WaitGroup
	phases := make(chan models.PhaseName, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			output, err := h.Execute(context.Background(), request("100% advance", "prepaid"))
			if err == nil {
				phases <- output.Phase
			}
		}()
	}
	wg.Wait()
	close(phases)

	dropshipping := 0
	total := 0
	for p := range phases {
		total++
		if p == models.PhaseDropshipping {
			dropshipping++
		}
	}
	assert.Equal(t, 10, total)
	assert.Equal(t, 1, dropshipping)
}
