package guarda

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/joaopxt/ze-do-bip-backend/internal/domain/guarda"
	"github.com/joaopxt/ze-do-bip-backend/internal/domain/shared"
	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/logger"
)

// ReconciliationService mirrors SIAC receipts into the local store. Each run
// removes receipts SIAC no longer lists, then creates the ones missing
// locally. Receipts already mirrored are never modified, so scan progress
// survives every run.
type ReconciliationService struct {
	gateway    guarda.LegacyGateway
	receipts   guarda.ReceiptRepository
	masterData guarda.MasterData
	txScope    TransactionScope
	archive    guarda.BackupArchive
	metrics    Metrics
	storeCode  string
	logger     *zap.Logger
	now        func() time.Time
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	gateway guarda.LegacyGateway,
	receipts guarda.ReceiptRepository,
	masterData guarda.MasterData,
	txScope TransactionScope,
	storeCode string,
	log *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		gateway:    gateway,
		receipts:   receipts,
		masterData: masterData,
		txScope:    txScope,
		metrics:    noopMetrics{},
		storeCode:  storeCode,
		logger:     log.Named("reconciliation"),
		now:        time.Now,
	}
}

// SetBackupArchive sets an off-database archive for receipt backups
func (s *ReconciliationService) SetBackupArchive(a guarda.BackupArchive) {
	s.archive = a
}

// SetMetrics sets the metrics sink
func (s *ReconciliationService) SetMetrics(m Metrics) {
	if m != nil {
		s.metrics = m
	}
}

// Sync runs one reconciliation pass. When SIAC cannot be listed the run
// aborts with zero counts and the gateway error.
func (s *ReconciliationService) Sync(ctx context.Context) (SyncResult, error) {
	start := s.now()
	log := logger.L(ctx, s.logger)
	var result SyncResult

	upstream, err := s.gateway.ListReceipts(ctx, "")
	if err != nil {
		elapsed := s.now().Sub(start)
		result.Duration = formatDuration(elapsed)
		s.metrics.RecordSync(ctx, result, elapsed, err)
		log.Error("SIAC receipt listing failed, run aborted", zap.Error(err))
		return result, err
	}

	authoritative := make(map[string]struct{}, len(upstream))
	for _, r := range upstream {
		authoritative[r.LegacyID] = struct{}{}
	}

	result.Removed, result.Errors = s.removeVanished(ctx, authoritative)
	if result.Removed > 0 {
		log.Info("Receipts removed after vanishing from SIAC", zap.Int("removed", result.Removed))
	}

	for _, src := range upstream {
		exists, err := s.receipts.ExistsByLegacyID(ctx, src.LegacyID)
		if err != nil {
			result.Errors++
			log.Error("Failed to check receipt", zap.String("sq_guarda_siac", src.LegacyID), zap.Error(err))
			continue
		}
		if exists {
			result.Skipped++
			continue
		}
		if src.Unfit != "" {
			result.Skipped++
			log.Warn("SIAC receipt does not fit the local schema",
				zap.String("sq_guarda_siac", src.LegacyID),
				zap.String("reason", src.Unfit),
			)
			continue
		}
		if err := s.createFromLegacy(ctx, src); err != nil {
			result.Errors++
			log.Error("Failed to mirror receipt", zap.String("sq_guarda_siac", src.LegacyID), zap.Error(err))
			continue
		}
		result.Synced++
	}

	elapsed := s.now().Sub(start)
	result.Duration = formatDuration(elapsed)
	s.metrics.RecordSync(ctx, result, elapsed, nil)
	log.Info("SIAC sync finished",
		zap.Int("synced", result.Synced),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", result.Errors),
		zap.Int("removed", result.Removed),
		zap.String("duration", result.Duration),
	)
	return result, nil
}

// removeVanished backs up and deletes every mirrored receipt whose legacy id
// is missing from the authoritative set. Local-only receipts are ignored.
func (s *ReconciliationService) removeVanished(ctx context.Context, authoritative map[string]struct{}) (removed, failed int) {
	log := logger.L(ctx, s.logger)

	local, err := s.receipts.FindLegacy(ctx)
	if err != nil {
		log.Error("Failed to load mirrored receipts", zap.Error(err))
		return 0, 1
	}

	for i := range local {
		r := &local[i]
		if !r.IsLegacy() {
			continue
		}
		if _, ok := authoritative[*r.LegacyID]; ok {
			continue
		}
		err := s.BackupAndDelete(ctx, r)
		if errors.Is(err, guarda.ErrReceiptNotFound) {
			continue
		}
		if err != nil {
			failed++
			log.Error("Failed to remove vanished receipt",
				zap.Int64("sq_guarda", r.ID),
				zap.String("sq_guarda_siac", *r.LegacyID),
				zap.Error(err),
			)
			continue
		}
		removed++
	}
	return removed, failed
}

// BackupAndDelete snapshots a receipt with its line items and ledger, then
// deletes ledger rows, line items, stocker links and the receipt, in that
// order, in the same transaction as the backup insert. The receipt row is
// locked and re-read first so the snapshot carries the latest start and
// finish; a receipt already gone yields ErrReceiptNotFound.
func (s *ReconciliationService) BackupAndDelete(ctx context.Context, target *guarda.Receipt) error {
	var backup *guarda.ReceiptBackup

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, err := repos.Receipts().FindByIDForUpdate(ctx, target.ID)
		if errors.Is(err, shared.ErrNotFound) {
			return guarda.ErrReceiptNotFound
		}
		if err != nil {
			return guarda.WrapPersistence("lock receipt", err)
		}

		items, err := repos.LineItems().FindByReceiptForUpdate(ctx, r.ID)
		if err != nil {
			return guarda.WrapPersistence("load line items", err)
		}
		ids := make([]int64, len(items))
		for i, it := range items {
			ids[i] = it.ID
		}
		partials, err := repos.Partials().FindByLineItems(ctx, ids)
		if err != nil {
			return guarda.WrapPersistence("load partial confirmations", err)
		}

		backup, err = guarda.NewReceiptBackup(r, items, partials, s.now())
		if err != nil {
			return err
		}
		if err := repos.Backups().Create(ctx, backup); err != nil {
			return guarda.WrapPersistence("write backup", err)
		}

		if err := repos.Partials().DeleteByLineItems(ctx, ids); err != nil {
			return guarda.WrapPersistence("delete partial confirmations", err)
		}
		if err := repos.LineItems().DeleteByReceipt(ctx, r.ID); err != nil {
			return guarda.WrapPersistence("delete line items", err)
		}
		if err := repos.Receipts().UnlinkStockers(ctx, r.ID); err != nil {
			return guarda.WrapPersistence("unlink stockers", err)
		}
		if err := repos.Receipts().Delete(ctx, r.ID); err != nil {
			return guarda.WrapPersistence("delete receipt", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.archive != nil {
		if err := s.archive.Archive(ctx, backup); err != nil {
			logger.L(ctx, s.logger).Warn("Failed to archive receipt backup",
				zap.Int64("sq_guarda", target.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// createFromLegacy fetches the receipt detail before opening the
// transaction, so no database connection is held during the SIAC call.
func (s *ReconciliationService) createFromLegacy(ctx context.Context, src guarda.LegacyReceipt) error {
	detail, err := s.gateway.GetReceiptDetail(ctx, src.LegacyID)
	if err != nil {
		return fmt.Errorf("fetch detail: %w", err)
	}

	storeCode := src.StoreCode
	if storeCode == "" {
		storeCode = s.storeCode
	}
	series, err := s.masterData.FindPurchaseSeries(ctx, src.InvoiceNumber, src.SupplierCode, storeCode)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return guarda.WrapPersistence("find purchase", err)
	}

	var stocker *guarda.Stocker
	if src.StockerCode != "" {
		stocker, err = s.masterData.FindStocker(ctx, src.StockerCode)
		if errors.Is(err, shared.ErrNotFound) {
			logger.L(ctx, s.logger).Warn("Unknown stocker on SIAC receipt",
				zap.String("sq_guarda_siac", src.LegacyID),
				zap.String("cd_estoqui", src.StockerCode),
			)
			stocker = nil
		} else if err != nil {
			return guarda.WrapPersistence("find stocker", err)
		}
	}

	receipt := guarda.NewLegacyReceipt(src, series)
	if receipt.StoreCode == "" {
		receipt.StoreCode = s.storeCode
	}
	aggregated := guarda.Aggregate(detail.LineItems)

	return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.Receipts().Create(ctx, receipt); err != nil {
			return guarda.WrapPersistence("create receipt", err)
		}
		if stocker != nil {
			if err := repos.Receipts().LinkStocker(ctx, receipt.ID, stocker.Code); err != nil {
				return guarda.WrapPersistence("link stocker", err)
			}
		}
		for _, agg := range aggregated {
			if err := upsertLineItem(ctx, repos.LineItems(), receipt.ID, agg); err != nil {
				return err
			}
		}
		return nil
	})
}

// upsertLineItem adds the quantity to an existing line for the product or
// creates an unscanned one.
func upsertLineItem(ctx context.Context, repo guarda.LineItemRepository, receiptID int64, agg guarda.AggregatedLineItem) error {
	existing, err := repo.FindByReceiptAndProduct(ctx, receiptID, agg.ProductCode)
	switch {
	case err == nil:
		existing.Quantity += agg.Quantity
		existing.MergedLineIDs = append(existing.MergedLineIDs, agg.LegacyLineID)
		existing.MergedLineIDs = append(existing.MergedLineIDs, agg.MergedLineIDs...)
		return guarda.WrapPersistence("update line item", repo.Save(ctx, existing))
	case errors.Is(err, shared.ErrNotFound):
		return guarda.WrapPersistence("create line item", repo.Create(ctx, guarda.NewLineItemFromAggregate(receiptID, agg)))
	default:
		return guarda.WrapPersistence("find line item", err)
	}
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}
