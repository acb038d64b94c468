package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appguarda "github.com/joaopxt/ze-do-bip-backend/internal/application/guarda"
	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/persistence/models"
)

func TestGormTransactionScope(t *testing.T) {
	ctx := context.Background()
	emitted := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	t.Run("commits receipt with its lines", func(t *testing.T) {
		db := setupGuardaTestDB(t)
		scope := NewGormTransactionScope(db)

		err := scope.Execute(ctx, func(repos appguarda.TransactionalRepositories) error {
			receipt := newTestReceipt("700", emitted)
			if err := repos.Receipts().Create(ctx, receipt); err != nil {
				return err
			}
			return repos.LineItems().Create(ctx, newTestLine(receipt.ID, "P1", 2))
		})
		require.NoError(t, err)

		var receiptID int64
		require.NoError(t, db.Model(&models.ReceiptModel{}).
			Select("sq_guarda").Where("sq_guarda_siac = ?", "700").Scan(&receiptID).Error)
		lines, err := NewGormLineItemRepository(db).FindByReceipt(ctx, receiptID)
		require.NoError(t, err)
		assert.Len(t, lines, 1)
	})

	t.Run("rolls back when a line fails", func(t *testing.T) {
		db := setupGuardaTestDB(t)
		scope := NewGormTransactionScope(db)

		err := scope.Execute(ctx, func(repos appguarda.TransactionalRepositories) error {
			receipt := newTestReceipt("701", emitted)
			if err := repos.Receipts().Create(ctx, receipt); err != nil {
				return err
			}
			if err := repos.LineItems().Create(ctx, newTestLine(receipt.ID, "P1", 2)); err != nil {
				return err
			}
			// duplicate product violates the per-receipt unique index
			return repos.LineItems().Create(ctx, newTestLine(receipt.ID, "P1", 3))
		})
		require.Error(t, err)

		exists, err := NewGormReceiptRepository(db).ExistsByLegacyID(ctx, "701")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("scan and ledger share the transaction", func(t *testing.T) {
		db := setupGuardaTestDB(t)
		scope := NewGormTransactionScope(db)
		now := emitted.Add(10 * time.Hour)

		line := newTestLine(1, "P1", 10)
		require.NoError(t, NewGormLineItemRepository(db).Create(ctx, line))

		err := scope.Execute(ctx, func(repos appguarda.TransactionalRepositories) error {
			locked, err := repos.LineItems().FindByIDForUpdate(ctx, line.ID)
			if err != nil {
				return err
			}
			partial, err := locked.ApplyScan(4, 0, "A01010002", now)
			if err != nil {
				return err
			}
			if err := repos.Partials().Append(ctx, partial); err != nil {
				return err
			}
			if err := repos.LineItems().Save(ctx, locked); err != nil {
				return err
			}
			return assert.AnError
		})
		require.ErrorIs(t, err, assert.AnError)

		found, err := NewGormLineItemRepository(db).FindByID(ctx, line.ID)
		require.NoError(t, err)
		assert.Zero(t, found.ScannedQuantity)

		ledger, err := NewGormPartialConfirmationRepository(db).FindByLineItems(ctx, []int64{line.ID})
		require.NoError(t, err)
		assert.Empty(t, ledger[line.ID])
	})

	t.Run("exposes every repository", func(t *testing.T) {
		db := setupGuardaTestDB(t)
		err := NewGormTransactionScope(db).Execute(ctx, func(repos appguarda.TransactionalRepositories) error {
			assert.NotNil(t, repos.Receipts())
			assert.NotNil(t, repos.LineItems())
			assert.NotNil(t, repos.Partials())
			assert.NotNil(t, repos.Backups())
			assert.NotNil(t, repos.MasterData())
			return nil
		})
		require.NoError(t, err)
	})
}
