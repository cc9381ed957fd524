package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"deal-workers/internal/ledger"
	"deal-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Helpers
// ==========================

func writeFile(t *testing.T, dir, name string, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func opportunity() models.Opportunity {
	return models.Opportunity{
		ID:              "opp-cli",
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
	}
}

// ==========================
// Pipeline commands
// ==========================

func TestScoreCommand(t *testing.T) {
	path := writeFile(t, t.TempDir(), "opp.json", opportunity())

	out, err := run(t, "score", path)
	require.NoError(t, err)

	var result models.ScoreResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "opp-cli", result.OpportunityID)
	assert.GreaterOrEqual(t, result.Score, 0.0)
	assert.LessOrEqual(t, result.Score, 100.0)
}

func TestValidateCommand(t *testing.T) {
	path := writeFile(t, t.TempDir(), "deal.json", models.DealInput{
		Value:         50000,
		CustomerTerms: "NET-60",
		SupplierTerms: "prepaid",
	})

	out, err := run(t, "validate", path)
	require.NoError(t, err)

	var result map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Contains(t, result, "cashflow")
	assert.Contains(t, result, "risk")
}

func TestPhaseCommand_EmptyLedger(t *testing.T) {
	ledgerPath := filepath.Join(t.TempDir(), "ledger.json")

	out, err := run(t, "phase", "--ledger", ledgerPath)
	require.NoError(t, err)

	var phase models.StrategyPhase
	require.NoError(t, json.Unmarshal([]byte(out), &phase))
	assert.Equal(t, models.PhaseDropshipping, phase.Name)
	assert.Equal(t, 0, phase.TransactionCount)
}

func TestRecordThenPhase(t *testing.T) {
	dir := t.TempDir()
	ledgerPath := filepath.Join(dir, "ledger.json")
	evalPath := writeFile(t, dir, "eval.json", evaluateFile{
		Opportunity: opportunity(),
		Terms:       models.ProposedTerms{CustomerTerms: "100% advance", SupplierTerms: "prepaid"},
	})

	_, err := run(t, "record", evalPath, "--ledger", ledgerPath, "--customer", "cust-1", "--supplier", "supp-1")
	require.NoError(t, err)

	data, err := os.ReadFile(ledgerPath)
	require.NoError(t, err)
	var log []models.Transaction
	require.NoError(t, json.Unmarshal(data, &log))
	require.Len(t, log, 1)
	assert.Equal(t, "cust-1", log[0].CustomerRef)

	out, err := run(t, "phase", "--ledger", ledgerPath)
	require.NoError(t, err)
	var phase models.StrategyPhase
	require.NoError(t, json.Unmarshal([]byte(out), &phase))
	assert.Equal(t, models.PhaseNet15Testing, phase.Name)
	assert.Equal(t, 1, phase.TransactionCount)
}

func TestRecordCommand_Rejected(t *testing.T) {
	dir := t.TempDir()
	ledgerPath := filepath.Join(dir, "ledger.json")
	evalPath := writeFile(t, dir, "eval.json", evaluateFile{
		Opportunity: opportunity(),
		Terms:       models.ProposedTerms{CustomerTerms: "NET-30", SupplierTerms: "100% advance"},
	})

	_, err := run(t, "record", evalPath, "--ledger", ledgerPath, "--customer", "cust-1", "--supplier", "supp-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrNotApproved)

	_, statErr := os.Stat(ledgerPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRecordCommand_ConcurrentRunsKeepEveryAppend(t *testing.T) {
	dir := t.TempDir()
	ledgerPath := filepath.Join(dir, "ledger.json")
	evalPath := writeFile(t, dir, "eval.json", evaluateFile{
		Opportunity: opportunity(),
		Terms:       models.ProposedTerms{CustomerTerms: "100% advance", SupplierTerms: "prepaid"},
	})

	const runs = 6
	errs := make([]error, runs)
	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cmd := NewRootCmd()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs([]string{"record", evalPath, "--ledger", ledgerPath, "--customer", "cust", "--supplier", "supp"})
			errs[i] = cmd.Execute()
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	data, err := os.ReadFile(ledgerPath)
	require.NoError(t, err)
	var log []models.Transaction
	require.NoError(t, json.Unmarshal(data, &log))
	assert.Len(t, log, runs)

	ids := map[string]bool{}
	for _, tx := range log {
		ids[tx.ID] = true
	}
	assert.Len(t, ids, runs)
}

func TestConfigFlag_DoesNotNeedBroker(t *testing.T) {
	t.Setenv("ZEEBE_ADDRESS", "")
	dir := t.TempDir()
	configPath := filepath.Join(dir, "dealctl.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("engine:\n  gate:\n    approve_overall_risk: 10\n"), 0o644))
	evalPath := writeFile(t, dir, "eval.json", evaluateFile{
		Opportunity: opportunity(),
		Terms:       models.ProposedTerms{CustomerTerms: "100% advance", SupplierTerms: "prepaid"},
	})

	out, err := run(t, "evaluate", evalPath, "--config", configPath)
	require.NoError(t, err)

	var decision models.Decision
	require.NoError(t, json.Unmarshal([]byte(out), &decision))
	assert.Equal(t, models.DecisionNeedsModification, decision.Result)
}

func TestRecordCommand_RequiresLedger(t *testing.T) {
	evalPath := writeFile(t, t.TempDir(), "eval.json", evaluateFile{Opportunity: opportunity()})

	_, err := run(t, "record", evalPath, "--customer", "c", "--supplier", "s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--ledger")
}

func TestEvaluateCommand(t *testing.T) {
	evalPath := writeFile(t, t.TempDir(), "eval.json", evaluateFile{
		Opportunity: opportunity(),
		Terms:       models.ProposedTerms{CustomerTerms: "100% advance", SupplierTerms: "prepaid"},
	})

	out, err := run(t, "evaluate", evalPath)
	require.NoError(t, err)

	var decision models.Decision
	require.NoError(t, json.Unmarshal([]byte(out), &decision))
	assert.Equal(t, models.DecisionApproved, decision.Result)
	assert.Equal(t, "opp-cli", decision.OpportunityID)
}

func TestRouteCommand(t *testing.T) {
	path := writeFile(t, t.TempDir(), "shipment.json", models.ShipmentRequest{
		Origin:      "CN",
		Destination: "US",
		WeightKg:    500,
		ValueUSD:    10000,
	})

	out, err := run(t, "route", path)
	require.NoError(t, err)

	var route models.Route
	require.NoError(t, json.Unmarshal([]byte(out), &route))
	assert.Len(t, route.Quotes, 3)
	assert.True(t, route.TotalCost.IsPositive())
}

func TestReadJSON_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))

	_, err := run(t, "score", filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read")

	_, err = run(t, "score", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

// ==========================
// Registry commands
// ==========================

func TestRegistryList(t *testing.T) {
	out, err := run(t, "registry", "list")
	require.NoError(t, err)

	lines := strings.Fields(out)
	assert.Len(t, lines, 6)
	assert.Contains(t, lines, "evaluate-opportunity")
	assert.Contains(t, lines, "record-transaction")
}

func TestRegistryCheck(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "vars.json", map[string]interface{}{"weightKg": -1})

	_, err := run(t, "registry", "check", "optimize-logistics", bad)
	require.Error(t, err)

	out, err := run(t, "registry", "check", "unknown-task", bad)
	require.NoError(t, err)
	assert.Contains(t, out, "valid")
}

func TestRegistryExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")

	_, err := run(t, "registry", "export", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "score-opportunity")
}
