package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"deal-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logColumns = []string{
	"id", "account_id", "opportunity_id", "customer_ref", "supplier_ref",
	"value", "margin", "customer_terms", "supplier_terms", "phase", "recorded_at",
}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func TestPostgresStore_Snapshot(t *testing.T) {
	store, mock := newMockStore(t)
	recorded := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, account_id").
		WithArgs("acct-1").
		WillReturnRows(sqlmock.NewRows(logColumns).
			AddRow("11111111-1111-1111-1111-111111111111", "acct-1", "opp-1", "cust", "supp",
				"12500.00", "2500.00", "100% advance", "NET-30", "dropshipping", recorded))

	log, err := store.Snapshot(context.Background(), "acct-1")

	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, "opp-1", log[0].OpportunityID)
	assert.True(t, decimal.RequireFromString("12500").Equal(log[0].Value))
	assert.Equal(t, models.PhaseDropshipping, log[0].Phase)
	assert.Equal(t, recorded, log[0].Timestamp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Execute_LocksReadsAndAppends(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs("acct-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, account_id").
		WithArgs("acct-1").
		WillReturnRows(sqlmock.NewRows(logColumns))
	mock.ExpectExec("INSERT INTO deal_transactions").
		WithArgs(
			"22222222-2222-2222-2222-222222222222", "acct-1", "opp-1", "cust", "supp",
			sqlmock.AnyArg(), sqlmock.AnyArg(), "100% advance", "COD", "dropshipping", sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := store.Execute(context.Background(), "acct-1", func(log []models.Transaction) (*models.Transaction, error) {
		assert.Empty(t, log)
		return &models.Transaction{
			ID:            "22222222-2222-2222-2222-222222222222",
			AccountID:     "acct-1",
			OpportunityID: "opp-1",
			CustomerRef:   "cust",
			SupplierRef:   "supp",
			Value:         decimal.NewFromInt(1000),
			Margin:        decimal.NewFromInt(200),
			CustomerTerms: "100% advance",
			SupplierTerms: "COD",
			Phase:         models.PhaseDropshipping,
			Timestamp:     time.Now().UTC(),
		}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "opp-1", tx.OpportunityID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Execute_RejectedDecisionRollsBack(t *testing.T) {
	store, mock := newMockStore(t)
	rejected := errors.New("rejected")

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs("acct-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, account_id").WithArgs("acct-1").WillReturnRows(sqlmock.NewRows(logColumns))
	mock.ExpectRollback()

	tx, err := store.Execute(context.Background(), "acct-1", func(log []models.Transaction) (*models.Transaction, error) {
		return nil, rejected
	})

	assert.Nil(t, tx)
	assert.ErrorIs(t, err, rejected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Execute_Failures(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(mock sqlmock.Sqlmock)
		expected error
	}{
		{
			name: "begin fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(errors.New("connection refused"))
			},
			expected: ErrReadFailed,
		},
		{
			name: "lock fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("SELECT pg_advisory_xact_lock").WillReturnError(errors.New("lock timeout"))
				mock.ExpectRollback()
			},
			expected: ErrReadFailed,
		},
		{
			name: "read fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("SELECT pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("SELECT id, account_id").WillReturnError(errors.New("relation missing"))
				mock.ExpectRollback()
			},
			expected: ErrReadFailed,
		},
		{
			name: "insert fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("SELECT pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("SELECT id, account_id").WillReturnRows(sqlmock.NewRows(logColumns))
				mock.ExpectExec("INSERT INTO deal_transactions").WillReturnError(errors.New("disk full"))
				mock.ExpectRollback()
			},
			expected: ErrAppendFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			tt.setup(mock)

			_, err := store.Execute(context.Background(), "acct-1", func(log []models.Transaction) (*models.Transaction, error) {
				return &models.Transaction{ID: "33333333-3333-3333-3333-333333333333", Phase: models.PhaseDropshipping}, nil
			})

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.expected), err.Error())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS deal_transactions").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
