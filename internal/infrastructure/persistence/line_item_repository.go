package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/joaopxt/ze-do-bip-backend/internal/domain/guarda"
	"github.com/joaopxt/ze-do-bip-backend/internal/domain/shared"
	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/persistence/models"
)

// GormLineItemRepository implements LineItemRepository using GORM
type GormLineItemRepository struct {
	db *gorm.DB
}

// NewGormLineItemRepository creates a new GormLineItemRepository
func NewGormLineItemRepository(db *gorm.DB) *GormLineItemRepository {
	return &GormLineItemRepository{db: db}
}

// FindByID finds a line item by id
func (r *GormLineItemRepository) FindByID(ctx context.Context, id int64) (*guarda.LineItem, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

// FindByIDForUpdate finds a line item and locks its row for the rest of
// the transaction
func (r *GormLineItemRepository) FindByIDForUpdate(ctx context.Context, id int64) (*guarda.LineItem, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

// FindByReceiptAndProduct finds the line of a product in a receipt
func (r *GormLineItemRepository) FindByReceiptAndProduct(ctx context.Context, receiptID int64, productCode string) (*guarda.LineItem, error) {
	return r.first(r.db.WithContext(ctx), "sq_guarda = ? AND cd_produto = ?", receiptID, productCode)
}

// FindByReceipt lists the lines of a receipt in insertion order
func (r *GormLineItemRepository) FindByReceipt(ctx context.Context, receiptID int64) ([]guarda.LineItem, error) {
	return r.find(r.db.WithContext(ctx), receiptID)
}

// FindByReceiptForUpdate lists and locks the lines of a receipt
func (r *GormLineItemRepository) FindByReceiptForUpdate(ctx context.Context, receiptID int64) ([]guarda.LineItem, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), receiptID)
}

type lineCountRow struct {
	SqGuarda int64
	Total    int
}

// CountByReceipts counts lines per receipt; receipts without lines are absent
func (r *GormLineItemRepository) CountByReceipts(ctx context.Context, receiptIDs []int64) (map[int64]int, error) {
	out := make(map[int64]int, len(receiptIDs))
	if len(receiptIDs) == 0 {
		return out, nil
	}

	var rows []lineCountRow
	err := r.db.WithContext(ctx).
		Model(&models.LineItemModel{}).
		Select("sq_guarda, COUNT(*) AS total").
		Where("sq_guarda IN ?", receiptIDs).
		Group("sq_guarda").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.SqGuarda] = row.Total
	}
	return out, nil
}

type totalsRow struct {
	Expected int
	Scanned  int
	Lines    int
}

// Totals sums expected and scanned quantities over a receipt
func (r *GormLineItemRepository) Totals(ctx context.Context, receiptID int64) (guarda.ScanTotals, error) {
	var row totalsRow
	err := r.db.WithContext(ctx).
		Model(&models.LineItemModel{}).
		Select("COALESCE(SUM(quantidade), 0) AS expected, COALESCE(SUM(qtde_bipada), 0) AS scanned, COUNT(*) AS lines").
		Where("sq_guarda = ?", receiptID).
		Scan(&row).Error
	if err != nil {
		return guarda.ScanTotals{}, err
	}
	return guarda.ScanTotals{Expected: row.Expected, Scanned: row.Scanned, Lines: row.Lines}, nil
}

// Create inserts a line item and sets its generated id
func (r *GormLineItemRepository) Create(ctx context.Context, item *guarda.LineItem) error {
	m := models.LineItemModelFromDomain(item)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	item.ID = m.ID
	return nil
}

// Save updates every column of an existing line item
func (r *GormLineItemRepository) Save(ctx context.Context, item *guarda.LineItem) error {
	return r.db.WithContext(ctx).Save(models.LineItemModelFromDomain(item)).Error
}

// DeleteByReceipt removes every line of a receipt
func (r *GormLineItemRepository) DeleteByReceipt(ctx context.Context, receiptID int64) error {
	return r.db.WithContext(ctx).
		Where("sq_guarda = ?", receiptID).
		Delete(&models.LineItemModel{}).Error
}

func (r *GormLineItemRepository) first(db *gorm.DB, query string, args ...any) (*guarda.LineItem, error) {
	var m models.LineItemModel
	if err := db.Where(query, args...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

func (r *GormLineItemRepository) find(db *gorm.DB, receiptID int64) ([]guarda.LineItem, error) {
	var ms []models.LineItemModel
	if err := db.Where("sq_guarda = ?", receiptID).Order("id").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]guarda.LineItem, len(ms))
	for i := range ms {
		out[i] = *ms[i].ToDomain()
	}
	return out, nil
}

var _ guarda.LineItemRepository = (*GormLineItemRepository)(nil)
