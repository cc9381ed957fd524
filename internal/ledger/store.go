// Package ledger keeps the append-only transaction log of each account.
package ledger

import (
	"context"
	"errors"
	"sync"

	"deal-workers/internal/models"
)

var (
	ErrReadFailed   = errors.New("ledger read failed")
	ErrAppendFailed = errors.New("ledger append failed")
)

// DecideFunc inspects an account's log and returns the transaction to append,
// or nil to append nothing.
type DecideFunc func(log []models.Transaction) (*models.Transaction, error)

// Store holds per-account transaction logs.
//
// Execute runs decide and the resulting append as one unit: no other Execute
// for the same account can observe the log between the read and the append.
// Snapshot may return a stale log.
type Store interface {
	Snapshot(ctx context.Context, accountID string) ([]models.Transaction, error)
	Execute(ctx context.Context, accountID string, decide DecideFunc) (*models.Transaction, error)
}

type MemoryStore struct {
	mu       sync.RWMutex
	logs     map[string][]models.Transaction
	accounts map[string]*sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		logs:     make(map[string][]models.Transaction),
		accounts: make(map[string]*sync.Mutex),
	}
}

func (s *MemoryStore) Snapshot(ctx context.Context, accountID string) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyLog(s.logs[accountID]), nil
}

func (s *MemoryStore) Execute(ctx context.Context, accountID string, decide DecideFunc) (*models.Transaction, error) {
	lock := s.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log, _ := s.Snapshot(ctx, accountID)
	tx, err := decide(log)
	if err != nil || tx == nil {
		return nil, err
	}

	s.mu.Lock()
	s.logs[accountID] = append(s.logs[accountID], *tx)
	s.mu.Unlock()

	return tx, nil
}

func (s *MemoryStore) accountLock(accountID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.accounts[accountID]
	if !ok {
		lock = &sync.Mutex{}
		s.accounts[accountID] = lock
	}
	return lock
}

func copyLog(log []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, len(log))
	copy(out, log)
	return out
}
