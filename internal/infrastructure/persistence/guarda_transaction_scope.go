package persistence

import (
	"context"

	"gorm.io/gorm"

	appguarda "github.com/joaopxt/ze-do-bip-backend/internal/application/guarda"
	"github.com/joaopxt/ze-do-bip-backend/internal/domain/guarda"
)

// GormTransactionScope implements TransactionScope using GORM transactions
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction. If fn returns an error
// the transaction is rolled back, otherwise it is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appguarda.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides repositories bound to one transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Receipts() guarda.ReceiptRepository {
	return NewGormReceiptRepository(r.tx)
}

func (r *gormTransactionalRepositories) LineItems() guarda.LineItemRepository {
	return NewGormLineItemRepository(r.tx)
}

func (r *gormTransactionalRepositories) Partials() guarda.PartialConfirmationRepository {
	return NewGormPartialConfirmationRepository(r.tx)
}

func (r *gormTransactionalRepositories) Backups() guarda.BackupRepository {
	return NewGormBackupRepository(r.tx)
}

func (r *gormTransactionalRepositories) MasterData() guarda.MasterData {
	return NewGormMasterDataRepository(r.tx)
}

var (
	_ appguarda.TransactionScope          = (*GormTransactionScope)(nil)
	_ appguarda.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
