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

// ScanService applies scan confirmations to line items. Scans of the same
// line item are serialized by the Locker and by a row lock taken inside
// the transaction.
type ScanService struct {
	receipts  guarda.ReceiptRepository
	lineItems guarda.LineItemRepository
	txScope   TransactionScope
	locker    Locker
	metrics   Metrics
	storeCode string
	logger    *zap.Logger
	now       func() time.Time
}

// NewScanService creates a new ScanService
func NewScanService(
	receipts guarda.ReceiptRepository,
	lineItems guarda.LineItemRepository,
	txScope TransactionScope,
	locker Locker,
	storeCode string,
	log *zap.Logger,
) *ScanService {
	return &ScanService{
		receipts:  receipts,
		lineItems: lineItems,
		txScope:   txScope,
		locker:    locker,
		metrics:   noopMetrics{},
		storeCode: storeCode,
		logger:    log.Named("scan"),
		now:       time.Now,
	}
}

// SetMetrics sets the metrics sink
func (s *ScanService) SetMetrics(m Metrics) {
	if m != nil {
		s.metrics = m
	}
}

// Scan confirms quantity of productCode in a receipt at the scanned address
func (s *ScanService) Scan(ctx context.Context, cmd ScanCommand) (*ScanResult, error) {
	if err := s.ensureReceipt(ctx, cmd.ReceiptID); err != nil {
		return nil, err
	}

	line, err := s.lineItems.FindByReceiptAndProduct(ctx, cmd.ReceiptID, cmd.ProductCode)
	if err != nil {
		return nil, lineLookupError(err)
	}

	qty := cmd.Quantity
	return s.confirm(ctx, line.ID, cmd.ReceiptID, &qty, cmd.Address)
}

// ScanLineItem confirms a scan addressed by line item id
func (s *ScanService) ScanLineItem(ctx context.Context, cmd LineScanCommand) (*ScanResult, error) {
	line, err := s.lineItems.FindByID(ctx, cmd.LineItemID)
	if err != nil {
		return nil, lineLookupError(err)
	}

	receiptID := line.ReceiptID
	if cmd.ReceiptID != nil {
		receiptID = *cmd.ReceiptID
	}
	if err := s.ensureReceipt(ctx, receiptID); err != nil {
		return nil, err
	}

	return s.confirm(ctx, line.ID, receiptID, cmd.Quantity, cmd.Address)
}

func (s *ScanService) confirm(ctx context.Context, lineID, receiptID int64, qty *int, address string) (*ScanResult, error) {
	unlock, err := s.locker.Lock(ctx, LineItemLockKey(lineID))
	if err != nil {
		s.metrics.RecordScan(ctx, ScanOutcomeFailed)
		return nil, shared.ErrConflict.WithMessage("Produto em bipagem por outro operador").Wrap(err)
	}
	defer s.release(ctx, unlock, lineID)

	var (
		updated  *guarda.LineItem
		complete bool
	)
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		line, err := repos.LineItems().FindByIDForUpdate(ctx, lineID)
		if err != nil {
			return lineLookupError(err)
		}
		if line.ReceiptID != receiptID {
			return guarda.ErrLineItemMismatch
		}

		prior, err := repos.Partials().SumForCycle(ctx, line.ID, line.ScanCycle)
		if err != nil {
			return guarda.WrapPersistence("sum partial confirmations", err)
		}

		q := line.Remaining()
		if qty != nil {
			q = *qty
		}
		if err := line.CheckScan(q, prior); err != nil {
			return err
		}
		if err := ValidateScanAddress(ctx, repos.MasterData(), s.storeCode, line.ProductCode, address); err != nil {
			return err
		}

		partial, err := line.ApplyScan(q, prior, address, s.now())
		if err != nil {
			return err
		}
		if err := repos.LineItems().Save(ctx, line); err != nil {
			return guarda.WrapPersistence("save line item", err)
		}
		if partial != nil {
			if err := repos.Partials().Append(ctx, partial); err != nil {
				return guarda.WrapPersistence("append partial confirmation", err)
			}
		}

		updated = line
		complete = partial == nil
		return nil
	})
	if err != nil {
		s.recordFailure(ctx, err, lineID)
		return nil, err
	}

	outcome := ScanOutcomePartial
	if complete {
		outcome = ScanOutcomeCompleted
	}
	s.metrics.RecordScan(ctx, outcome)
	logger.L(ctx, s.logger).Info("Line item scanned",
		zap.Int64("line_item_id", updated.ID),
		zap.Int64("sq_guarda", updated.ReceiptID),
		zap.Int("qtde_bipada", updated.ScannedQuantity),
		zap.Int("quantidade", updated.Quantity),
		zap.Bool("bipado", updated.Completed),
	)

	return &ScanResult{
		Success: true,
		Data:    ToLineItemView(updated),
		Message: updated.ScanMessage(),
	}, nil
}

// Reset returns a line item to Pending. Its ledger rows are kept and
// belong to the closed scan cycle.
func (s *ScanService) Reset(ctx context.Context, lineItemID int64) (*ScanResult, error) {
	unlock, err := s.locker.Lock(ctx, LineItemLockKey(lineItemID))
	if err != nil {
		return nil, shared.ErrConflict.WithMessage("Produto em bipagem por outro operador").Wrap(err)
	}
	defer s.release(ctx, unlock, lineItemID)

	var updated *guarda.LineItem
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		line, err := repos.LineItems().FindByIDForUpdate(ctx, lineItemID)
		if err != nil {
			return lineLookupError(err)
		}
		line.Reset()
		if err := repos.LineItems().Save(ctx, line); err != nil {
			return guarda.WrapPersistence("reset line item", err)
		}
		updated = line
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx, s.logger).Info("Line item reset",
		zap.Int64("line_item_id", updated.ID),
		zap.Int("ciclo_bipagem", updated.ScanCycle),
	)
	return &ScanResult{
		Success: true,
		Data:    ToLineItemView(updated),
		Message: "Bipagem resetada com sucesso",
	}, nil
}

// ResetReceipt resets every line item of a receipt in one transaction.
// Rows are locked for update so concurrent scans wait for the reset.
func (s *ScanService) ResetReceipt(ctx context.Context, receiptID int64) (*ResetAllResult, error) {
	if err := s.ensureReceipt(ctx, receiptID); err != nil {
		return nil, err
	}

	result := &ResetAllResult{ReceiptID: receiptID}
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		lines, err := repos.LineItems().FindByReceiptForUpdate(ctx, receiptID)
		if err != nil {
			return guarda.WrapPersistence("load line items", err)
		}
		for i := range lines {
			lines[i].Reset()
			if err := repos.LineItems().Save(ctx, &lines[i]); err != nil {
				return guarda.WrapPersistence("reset line item", err)
			}
		}
		result.Reset = len(lines)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx, s.logger).Info("Receipt line items reset",
		zap.Int64("sq_guarda", receiptID),
		zap.Int("total", result.Reset),
	)
	return result, nil
}

func (s *ScanService) ensureReceipt(ctx context.Context, receiptID int64) error {
	_, err := s.receipts.FindByID(ctx, receiptID)
	if errors.Is(err, shared.ErrNotFound) {
		return guarda.ErrReceiptNotFound
	}
	if err != nil {
		return guarda.WrapPersistence("load receipt", err)
	}
	return nil
}

func (s *ScanService) release(ctx context.Context, unlock Unlock, lineID int64) {
	if err := unlock(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("Failed to release line item lock", zap.Int64("line_item_id", lineID), zap.Error(err))
	}
}

func (s *ScanService) recordFailure(ctx context.Context, err error, lineID int64) {
	var de *shared.DomainError
	if errors.As(err, &de) && !errors.Is(err, guarda.ErrPersistence) {
		s.metrics.RecordScan(ctx, ScanOutcomeRejected)
		logger.L(ctx, s.logger).Info("Scan rejected",
			zap.Int64("line_item_id", lineID),
			zap.String("code", de.Code),
		)
		return
	}
	s.metrics.RecordScan(ctx, ScanOutcomeFailed)
	logger.L(ctx, s.logger).Error("Scan failed", zap.Int64("line_item_id", lineID), zap.Error(err))
}

func lineLookupError(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return guarda.ErrLineItemNotFound
	}
	return guarda.WrapPersistence("load line item", fmt.Errorf("line item lookup: %w", err))
}
