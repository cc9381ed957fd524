// internal/workers/ledger/record-transaction/models.go
package recordtransaction

import (
	"deal-workers/internal/ledger"
	"deal-workers/internal/models"
)

type Input = ledger.RecordRequest

type Output struct {
	Transaction   models.Transaction `json:"transaction"`
	TransactionID string             `json:"transactionId"`
	Decision      models.Decision    `json:"decision"`
	Phase         models.PhaseName   `json:"phase"`
}
