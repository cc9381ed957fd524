package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"deal-workers/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS deal_transactions (
    id             UUID PRIMARY KEY,
    account_id     TEXT NOT NULL,
    opportunity_id TEXT,
    customer_ref   TEXT NOT NULL,
    supplier_ref   TEXT NOT NULL,
    value          NUMERIC(18, 2) NOT NULL,
    margin         NUMERIC(18, 2) NOT NULL,
    customer_terms TEXT NOT NULL,
    supplier_terms TEXT NOT NULL,
    phase          TEXT NOT NULL,
    recorded_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_deal_transactions_account ON deal_transactions (account_id, recorded_at);
`

const selectLog = `
SELECT id, account_id, COALESCE(opportunity_id, ''), customer_ref, supplier_ref,
       value, margin, customer_terms, supplier_terms, phase, recorded_at
FROM deal_transactions
WHERE account_id = $1
ORDER BY recorded_at, id`

const insertTransaction = `
INSERT INTO deal_transactions
    (id, account_id, opportunity_id, customer_ref, supplier_ref, value, margin,
     customer_terms, supplier_terms, phase, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// PostgresStore serializes Execute per account with a transaction-scoped
// advisory lock, so concurrent workers on different hosts share one order.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create ledger schema: %w", err)
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func (s *PostgresStore) Snapshot(ctx context.Context, accountID string) ([]models.Transaction, error) {
	return readLog(ctx, s.db, accountID)
}

func (s *PostgresStore) Execute(ctx context.Context, accountID string, decide DecideFunc) (*models.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %v", ErrReadFailed, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", accountID); err != nil {
		return nil, fmt.Errorf("%w: lock account: %v", ErrReadFailed, err)
	}

	log, err := readLog(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}

	record, err := decide(log)
	if err != nil || record == nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, insertTransaction,
		record.ID,
		record.AccountID,
		record.OpportunityID,
		record.CustomerRef,
		record.SupplierRef,
		record.Value,
		record.Margin,
		record.CustomerTerms,
		record.SupplierTerms,
		string(record.Phase),
		record.Timestamp,
	); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAppendFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", ErrAppendFailed, err)
	}
	return record, nil
}

func readLog(ctx context.Context, q queryer, accountID string) ([]models.Transaction, error) {
	rows, err := q.QueryContext(ctx, selectLog, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	defer rows.Close()

	log := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		var phase string
		if err := rows.Scan(
			&t.ID,
			&t.AccountID,
			&t.OpportunityID,
			&t.CustomerRef,
			&t.SupplierRef,
			&t.Value,
			&t.Margin,
			&t.CustomerTerms,
			&t.SupplierTerms,
			&phase,
			&t.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrReadFailed, err)
		}
		t.Phase = models.PhaseName(phase)
		log = append(log, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	return log, nil
}
