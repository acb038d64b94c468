package guarda

import "context"

// ReceiptFilter narrows receipt listings
type ReceiptFilter struct {
	StockerCode string
}

// ReceiptRepository persists receipts. Lookups that miss return
// shared.ErrNotFound, and so does UpdateProgress when the row is gone.
type ReceiptRepository interface {
	FindByID(ctx context.Context, id int64) (*Receipt, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*Receipt, error)
	ExistsByLegacyID(ctx context.Context, legacyID string) (bool, error)
	FindLegacy(ctx context.Context) ([]Receipt, error)
	FindAll(ctx context.Context, filter ReceiptFilter) ([]Receipt, error)
	Create(ctx context.Context, r *Receipt) error
	UpdateProgress(ctx context.Context, r *Receipt) error
	LinkStocker(ctx context.Context, receiptID int64, stockerCode string) error
	UnlinkStockers(ctx context.Context, receiptID int64) error
	Delete(ctx context.Context, id int64) error
}

// ScanTotals are quantity sums over the lines of a receipt
type ScanTotals struct {
	Expected int
	Scanned  int
	Lines    int
}

// LineItemRepository persists line items. The ForUpdate variants lock the
// row until the surrounding transaction ends.
type LineItemRepository interface {
	FindByID(ctx context.Context, id int64) (*LineItem, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*LineItem, error)
	FindByReceiptAndProduct(ctx context.Context, receiptID int64, productCode string) (*LineItem, error)
	FindByReceipt(ctx context.Context, receiptID int64) ([]LineItem, error)
	FindByReceiptForUpdate(ctx context.Context, receiptID int64) ([]LineItem, error)
	CountByReceipts(ctx context.Context, receiptIDs []int64) (map[int64]int, error)
	Totals(ctx context.Context, receiptID int64) (ScanTotals, error)
	Create(ctx context.Context, item *LineItem) error
	Save(ctx context.Context, item *LineItem) error
	DeleteByReceipt(ctx context.Context, receiptID int64) error
}

// PartialConfirmationRepository is the append-only ledger of partial scans
type PartialConfirmationRepository interface {
	Append(ctx context.Context, c *PartialConfirmation) error
	SumForCycle(ctx context.Context, lineItemID int64, cycle int) (int, error)
	FindByLineItems(ctx context.Context, lineItemIDs []int64) (map[int64][]PartialConfirmation, error)
	DeleteByLineItems(ctx context.Context, lineItemIDs []int64) error
}

// BackupRepository stores receipt backups. Rows are written once.
type BackupRepository interface {
	Create(ctx context.Context, b *ReceiptBackup) error
}

// BackupArchive keeps an off-database copy of receipt backups
type BackupArchive interface {
	Archive(ctx context.Context, b *ReceiptBackup) error
}
