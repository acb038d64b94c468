package guarda

import (
	"context"

	"github.com/joaopxt/ze-do-bip-backend/internal/domain/guarda"
)

// TransactionScope runs a unit of work in one database transaction.
// If fn returns an error the transaction is rolled back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories bound to the running
// transaction. Reconciliation uses one transaction per receipt and scanning
// one per line item, so a receipt is never left without its lines and a
// line never without its ledger row.
type TransactionalRepositories interface {
	Receipts() guarda.ReceiptRepository
	LineItems() guarda.LineItemRepository
	Partials() guarda.PartialConfirmationRepository
	Backups() guarda.BackupRepository
	MasterData() guarda.MasterData
}

// NoOpTransactionScope runs fn against plain repositories without a
// transaction. Used by tests.
type NoOpTransactionScope struct {
	repos noOpRepos
}

type noOpRepos struct {
	receipts   guarda.ReceiptRepository
	lineItems  guarda.LineItemRepository
	partials   guarda.PartialConfirmationRepository
	backups    guarda.BackupRepository
	masterData guarda.MasterData
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(
	receipts guarda.ReceiptRepository,
	lineItems guarda.LineItemRepository,
	partials guarda.PartialConfirmationRepository,
	backups guarda.BackupRepository,
	masterData guarda.MasterData,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: noOpRepos{
		receipts:   receipts,
		lineItems:  lineItems,
		partials:   partials,
		backups:    backups,
		masterData: masterData,
	}}
}

// Execute implements TransactionScope
func (s *NoOpTransactionScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s.repos)
}

func (r noOpRepos) Receipts() guarda.ReceiptRepository             { return r.receipts }
func (r noOpRepos) LineItems() guarda.LineItemRepository           { return r.lineItems }
func (r noOpRepos) Partials() guarda.PartialConfirmationRepository { return r.partials }
func (r noOpRepos) Backups() guarda.BackupRepository               { return r.backups }
func (r noOpRepos) MasterData() guarda.MasterData                  { return r.masterData }
