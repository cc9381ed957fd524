// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deal-workers/internal/audit"
	"deal-workers/internal/common/camunda"
	"deal-workers/internal/common/config"
	"deal-workers/internal/common/database"
	"deal-workers/internal/common/logger"
	"deal-workers/internal/ledger"
	"deal-workers/internal/models"
	"deal-workers/internal/pipeline"
	"deal-workers/pkg/registry"

	validatedeal "deal-workers/internal/workers/deal/validate-deal"
	recordtransaction "deal-workers/internal/workers/ledger/record-transaction"
	optimizelogistics "deal-workers/internal/workers/logistics/optimize-logistics"
	evaluateopportunity "deal-workers/internal/workers/opportunity/evaluate-opportunity"
	scoreopportunity "deal-workers/internal/workers/opportunity/score-opportunity"
	currentstrategyphase "deal-workers/internal/workers/strategy/current-strategy-phase"
)

// ==========================
// Fixtures
// ==========================

type auditSink struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (s *auditSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func newAuditServer(t *testing.T, sink *auditSink) *elasticsearch.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPut || r.Method == http.MethodPost {
			var entry audit.Entry
			if err := json.NewDecoder(r.Body).Decode(&entry); err == nil {
				sink.mu.Lock()
				sink.entries = append(sink.entries, entry)
				sink.mu.Unlock()
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"result":"created"}`))
			return
		}
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return client
}

func newPartnerCarrier(t *testing.T) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"carrier":     "Partner Freight",
			"serviceType": "standard",
			"cost":        "1250.00",
			"transitDays": 9,
			"reliability": 82,
		})
	}))
	t.Cleanup(server.Close)
	return server.URL
}

// processVariables is the variable document a deal process instance carries
// from task to task.
func processVariables(t *testing.T) []byte {
	t.Helper()
	vars := map[string]interface{}{
		"accountId": "acct-e2e",
		"opportunity": models.Opportunity{
			ID:              "opp-e2e",
			ProductCategory: "home",
			SourceMarket:    "CN",
			TargetMarket:    "US",
			BuyPrice:        20,
			SellPrice:       30,
			Volume:          500,
			Confidence:      80,
			SupplyGap:       40,
			DemandStrength:  70,
			TimeWindowHours: 48,
		},
		"terms": models.ProposedTerms{CustomerTerms: "100% advance", SupplierTerms: "prepaid"},
		"deal": models.DealInput{
			Value:         10000,
			CustomerTerms: "100% advance",
			SupplierTerms: "prepaid",
		},
		"shipment": models.ShipmentRequest{
			Origin:      "CN",
			Destination: "US",
			WeightKg:    500,
			ValueUSD:    10000,
		},
		"customerRef": "cust-e2e",
		"supplierRef": "supp-e2e",
	}
	data, err := json.Marshal(vars)
	require.NoError(t, err)
	return data
}

// ==========================
// In-process deal flow
// ==========================

func TestDealFlow(t *testing.T) {
	ctx := context.Background()
	log := logger.NewTestLogger(t)
	reg := registry.Default()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	sink := &auditSink{}
	auditor := audit.NewIndexer(newAuditServer(t, sink), "deal-decisions")

	cfg := config.Defaults()
	cfg.Logistics.HTTPCarriers = []config.HTTPCarrierConfig{{Name: "partner", Endpoint: newPartnerCarrier(t)}}

	optimizer := pipeline.BuildOptimizer(cfg.Logistics, rdb, nil, log)
	store := ledger.NewMemoryStore()
	service := pipeline.NewService(cfg.Engine.BuildGate(), store, optimizer, auditor, log)

	vars := processVariables(t)

	// 1. Score
	var scoreIn scoreopportunity.Input
	require.NoError(t, camunda.DecodeVariables(reg, scoreopportunity.TaskType, vars, &scoreIn))
	scoreOut, err := scoreopportunity.NewHandler(scoreopportunity.LoadConfig(), service, reg, nil, log).Execute(ctx, &scoreIn)
	require.NoError(t, err)
	assert.Equal(t, "opp-e2e", scoreOut.ScoreResult.OpportunityID)
	assert.InDelta(t, scoreOut.ScoreResult.Score, scoreOut.Score, 1e-9)
	t.Logf("score %.2f priority %s", scoreOut.Score, scoreOut.Priority)

	// 2. Validate the deal
	var dealIn validatedeal.Input
	require.NoError(t, camunda.DecodeVariables(reg, validatedeal.TaskType, vars, &dealIn))
	dealOut, err := validatedeal.NewHandler(validatedeal.LoadConfig(), service, reg, nil, log).Execute(ctx, &dealIn)
	require.NoError(t, err)
	assert.True(t, dealOut.CashPositiveFromDayOne)
	assert.Equal(t, 0.0, dealOut.Cashflow.CapitalRequired)

	// 3. Current phase
	var phaseIn currentstrategyphase.Input
	require.NoError(t, camunda.DecodeVariables(reg, currentstrategyphase.TaskType, vars, &phaseIn))
	phaseHandler := currentstrategyphase.NewHandler(currentstrategyphase.LoadConfig(), service, reg, nil, log)
	phaseOut, err := phaseHandler.Execute(ctx, &phaseIn)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseDropshipping, phaseOut.PhaseName)

	// 4. Gate
	var evalIn evaluateopportunity.Input
	require.NoError(t, camunda.DecodeVariables(reg, evaluateopportunity.TaskType, vars, &evalIn))
	evalOut, err := evaluateopportunity.NewHandler(evaluateopportunity.LoadConfig(), service, reg, nil, log).Execute(ctx, &evalIn)
	require.NoError(t, err)
	require.True(t, evalOut.Approved, "reasons: %v", evalOut.Decision.Reasons)
	assert.Equal(t, models.DecisionApproved, evalOut.DecisionResult)

	// 5. Route, quoted twice to hit the cache
	var routeIn optimizelogistics.Input
	require.NoError(t, camunda.DecodeVariables(reg, optimizelogistics.TaskType, vars, &routeIn))
	routeHandler := optimizelogistics.NewHandler(optimizelogistics.LoadConfig(), service, reg, nil, log)
	routeOut, err := routeHandler.Execute(ctx, &routeIn)
	require.NoError(t, err)
	assert.NotEmpty(t, routeOut.Provider)
	assert.Len(t, routeOut.Route.Quotes, 4)
	total, err := decimal.NewFromString(routeOut.TotalCost)
	require.NoError(t, err)
	assert.True(t, total.IsPositive())

	_, err = routeHandler.Execute(ctx, &routeIn)
	require.NoError(t, err)
	assert.Len(t, mr.Keys(), 1)

	// 6. Record
	var recordIn recordtransaction.Input
	require.NoError(t, camunda.DecodeVariables(reg, recordtransaction.TaskType, vars, &recordIn))
	recordOut, err := recordtransaction.NewHandler(recordtransaction.LoadConfig(), service, reg, nil, log).Execute(ctx, &recordIn)
	require.NoError(t, err)
	assert.NotEmpty(t, recordOut.TransactionID)
	assert.Equal(t, "acct-e2e", recordOut.Transaction.AccountID)
	assert.Equal(t, "5000", recordOut.Transaction.Margin.String())

	// 7. The recorded deal advances the account
	phaseOut, err = phaseHandler.Execute(ctx, &phaseIn)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseNet15Testing, phaseOut.PhaseName)
	assert.Equal(t, 1, phaseOut.StrategyPhase.TransactionCount)

	// Evaluate and record each produced one audit document.
	assert.Eventually(t, func() bool { return sink.count() == 2 }, 2*time.Second, 20*time.Millisecond)
}

func TestDealFlow_RejectsUnsafeTerms(t *testing.T) {
	ctx := context.Background()
	log := logger.NewTestLogger(t)
	reg := registry.Default()
	store := ledger.NewMemoryStore()
	service := pipeline.NewService(config.Defaults().Engine.BuildGate(), store, nil, nil, log)

	var vars map[string]interface{}
	require.NoError(t, json.Unmarshal(processVariables(t), &vars))
	vars["terms"] = models.ProposedTerms{CustomerTerms: "NET-30", SupplierTerms: "100% advance"}
	data, err := json.Marshal(vars)
	require.NoError(t, err)

	var recordIn recordtransaction.Input
	require.NoError(t, camunda.DecodeVariables(reg, recordtransaction.TaskType, data, &recordIn))
	_, err = recordtransaction.NewHandler(recordtransaction.LoadConfig(), service, reg, nil, log).Execute(ctx, &recordIn)
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrNotApproved)

	snapshot, err := store.Snapshot(ctx, "acct-e2e")
	require.NoError(t, err)
	assert.Empty(t, snapshot)
}

func TestDealFlow_SchemaRejectsBadVariables(t *testing.T) {
	reg := registry.Default()

	var in optimizelogistics.Input
	err := camunda.DecodeVariables(reg, optimizelogistics.TaskType, []byte(`{"shipment":{"origin":"CN"}}`), &in)

	require.Error(t, err)
}

// ==========================
// Live services
// ==========================

// TestLiveServices checks connectivity against the docker-compose stack.
// Set E2E_LIVE=1 to run it.
func TestLiveServices(t *testing.T) {
	if os.Getenv("E2E_LIVE") == "" {
		t.Skip("E2E_LIVE not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	require.NoError(t, err)
	log := logger.NewTestLogger(t)

	store, pg, err := database.OpenLedger(ctx, cfg.Database.Postgres, log)
	require.NoError(t, err, "postgres ledger")
	defer pg.Close()

	accountID := "e2e-" + strings.ReplaceAll(time.Now().Format(time.RFC3339Nano), ":", "")
	service := pipeline.NewService(cfg.Engine.BuildGate(), store, nil, nil, log)
	_, _, err = service.Record(ctx, ledger.RecordRequest{
		AccountID: accountID,
		Opportunity: models.Opportunity{
			ID: "opp-live", BuyPrice: 20, SellPrice: 30, Volume: 10,
			Confidence: 80, SupplyGap: 40, DemandStrength: 70, TimeWindowHours: 48,
		},
		Terms:       models.ProposedTerms{CustomerTerms: "100% advance", SupplierTerms: "prepaid"},
		CustomerRef: "cust-live",
		SupplierRef: "supp-live",
	})
	require.NoError(t, err)
	snapshot, err := store.Snapshot(ctx, accountID)
	require.NoError(t, err)
	assert.Len(t, snapshot, 1)

	if cfg.Database.Redis.Address != "" {
		rc, err := database.NewRedis(cfg.Database.Redis)
		require.NoError(t, err)
		assert.NoError(t, rc.Ping(ctx), "redis")
		rc.Close()
	}

	if cfg.Database.Elasticsearch.Enabled() {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		require.NoError(t, err)
		assert.NoError(t, es.Ping(ctx), "elasticsearch")
	}

	zeebe, err := camunda.NewClient(ctx, cfg.Camunda.BrokerAddress, log)
	require.NoError(t, err, "zeebe")
	defer zeebe.Close()
	assert.NoError(t, zeebe.HealthCheck(ctx))
}
