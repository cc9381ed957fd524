// Package cli implements dealctl, which runs the evaluation pipeline against
// JSON files without a broker.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"deal-workers/internal/common/config"
	"deal-workers/internal/common/logger"
	"deal-workers/internal/ledger"
	"deal-workers/internal/models"
	"deal-workers/internal/pipeline"
	"deal-workers/pkg/registry"
)

type options struct {
	configPath string
	ledgerPath string
	accountID  string
}

type evaluateFile struct {
	Opportunity models.Opportunity   `json:"opportunity"`
	Terms       models.ProposedTerms `json:"terms"`
}

// NewRootCmd creates the dealctl root command.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "dealctl",
		Short:         "Score, validate and gate trade opportunities",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Configuration file path (defaults are used when empty)")
	rootCmd.PersistentFlags().StringVar(&opts.ledgerPath, "ledger", "", "JSON file holding the account's transaction log")
	rootCmd.PersistentFlags().StringVar(&opts.accountID, "account", "local", "Account the ledger belongs to")

	rootCmd.AddCommand(newScoreCmd(opts))
	rootCmd.AddCommand(newValidateCmd(opts))
	rootCmd.AddCommand(newPhaseCmd(opts))
	rootCmd.AddCommand(newEvaluateCmd(opts))
	rootCmd.AddCommand(newRecordCmd(opts))
	rootCmd.AddCommand(newRouteCmd(opts))
	rootCmd.AddCommand(newRegistryCmd())

	return rootCmd
}

func newScoreCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "score [OPPORTUNITY.json]",
		Short: "Score an opportunity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opp models.Opportunity
			if err := readJSON(args[0], &opp); err != nil {
				return err
			}
			svc, _, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.Score(opp)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [DEAL.json]",
		Short: "Analyse the cashflow and risk of a deal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var deal models.DealInput
			if err := readJSON(args[0], &deal); err != nil {
				return err
			}
			svc, _, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			analysis, risk, err := svc.ValidateDeal(deal)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"cashflow": analysis,
				"risk":     risk,
			})
		},
	}
}

func newPhaseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "phase",
		Short: "Show the account's current strategy phase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			phase, err := svc.Phase(cmd.Context(), opts.accountID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), phase)
		},
	}
}

func newEvaluateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate [EVALUATION.json]",
		Short: "Run the execution gate on an opportunity and proposed terms",
		Long: `Run the execution gate on an opportunity and proposed terms.
The file holds {"opportunity": {...}, "terms": {...}}; the account's phase is
derived from the --ledger file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in evaluateFile
			if err := readJSON(args[0], &in); err != nil {
				return err
			}
			svc, _, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			decision, err := svc.Evaluate(cmd.Context(), opts.accountID, in.Opportunity, in.Terms)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), decision)
		},
	}
}

func newRecordCmd(opts *options) *cobra.Command {
	var customerRef, supplierRef string

	cmd := &cobra.Command{
		Use:   "record [EVALUATION.json]",
		Short: "Record an approved transaction in the --ledger file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.ledgerPath == "" {
				return errors.New("--ledger is required to record a transaction")
			}
			var in evaluateFile
			if err := readJSON(args[0], &in); err != nil {
				return err
			}

			unlock, err := lockLedger(cmd.Context(), opts.ledgerPath)
			if err != nil {
				return err
			}
			defer unlock()

			svc, store, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}

			tx, decision, err := svc.Record(cmd.Context(), ledger.RecordRequest{
				AccountID:   opts.accountID,
				Opportunity: in.Opportunity,
				Terms:       in.Terms,
				CustomerRef: customerRef,
				SupplierRef: supplierRef,
			})
			if errors.Is(err, ledger.ErrNotApproved) {
				writeJSON(cmd.OutOrStdout(), decision)
				return err
			}
			if err != nil {
				return err
			}

			log, err := store.Snapshot(cmd.Context(), opts.accountID)
			if err != nil {
				return err
			}
			if err := saveLedger(opts.ledgerPath, log); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), tx)
		},
	}

	cmd.Flags().StringVar(&customerRef, "customer", "", "Customer reference")
	cmd.Flags().StringVar(&supplierRef, "supplier", "", "Supplier reference")
	cmd.MarkFlagRequired("customer")
	cmd.MarkFlagRequired("supplier")

	return cmd
}

func newRouteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "route [SHIPMENT.json]",
		Short: "Quote carriers and pick the best route for a shipment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req models.ShipmentRequest
			if err := readJSON(args[0], &req); err != nil {
				return err
			}
			svc, _, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			route, err := svc.Optimize(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), route)
		},
	}
}

func newRegistryCmd() *cobra.Command {
	registryCmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the activity registry",
	}

	registryCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the registered task types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := registry.Default()
			taskTypes := make([]string, 0, len(reg.Activities))
			for _, a := range reg.Activities {
				taskTypes = append(taskTypes, a.TaskType)
			}
			sort.Strings(taskTypes)
			for _, taskType := range taskTypes {
				fmt.Fprintln(cmd.OutOrStdout(), taskType)
			}
			return nil
		},
	})

	registryCmd.AddCommand(&cobra.Command{
		Use:   "export [PATH]",
		Short: "Write the activity registry with its input schemas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return registry.Default().Save(args[0])
		},
	})

	registryCmd.AddCommand(&cobra.Command{
		Use:   "check [TASK_TYPE] [VARIABLES.json]",
		Short: "Validate job variables against a task's input schema",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}
			if err := registry.Default().ValidateVariables(args[0], data); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	})

	return registryCmd
}

// service builds a pipeline over an in-memory ledger seeded from the
// --ledger file.
func (o *options) service(ctx context.Context) (*pipeline.Service, *ledger.MemoryStore, error) {
	cfg := config.Defaults()
	if o.configPath != "" {
		loaded, err := config.LoadOfflineFromFile(o.configPath)
		if err != nil {
			return nil, nil, err
		}
		cfg = *loaded
	}

	log := logger.NewStructured("warn", "console")

	store := ledger.NewMemoryStore()
	if o.ledgerPath != "" {
		if err := seedLedger(ctx, store, o.ledgerPath, o.accountID); err != nil {
			return nil, nil, err
		}
	}

	optimizer := pipeline.BuildOptimizer(cfg.Logistics, nil, nil, log)
	return pipeline.NewService(cfg.Engine.BuildGate(), store, optimizer, nil, log), store, nil
}

func seedLedger(ctx context.Context, store *ledger.MemoryStore, path, accountID string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read ledger %s: %w", path, err)
	}

	var log []models.Transaction
	if err := json.Unmarshal(data, &log); err != nil {
		return fmt.Errorf("parse ledger %s: %w", path, err)
	}
	for i := range log {
		tx := log[i]
		_, err := store.Execute(ctx, accountID, func([]models.Transaction) (*models.Transaction, error) {
			return &tx, nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// lockLedger holds an exclusive lock on path.lock so concurrent record runs
// read, gate and rewrite the ledger one at a time.
func lockLedger(ctx context.Context, path string) (func(), error) {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("lock ledger %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("lock ledger %s: not acquired", path)
	}
	return func() { lock.Unlock() }, nil
}

func saveLedger(path string, log []models.Transaction) error {
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return err
	}
	// Readers that skip the lock see either the old file or the new one.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
