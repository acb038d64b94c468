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

// GormReceiptRepository implements ReceiptRepository using GORM
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// FindByID finds a receipt with its stockers
func (r *GormReceiptRepository) FindByID(ctx context.Context, id int64) (*guarda.Receipt, error) {
	return r.first(ctx, r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a receipt and locks its row for the rest of the
// transaction
func (r *GormReceiptRepository) FindByIDForUpdate(ctx context.Context, id int64) (*guarda.Receipt, error) {
	return r.first(ctx, r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormReceiptRepository) first(ctx context.Context, query *gorm.DB, id int64) (*guarda.Receipt, error) {
	var m models.ReceiptModel
	if err := query.First(&m, "sq_guarda = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	receipts, err := r.withStockers(ctx, []models.ReceiptModel{m})
	if err != nil {
		return nil, err
	}
	return &receipts[0], nil
}

// ExistsByLegacyID reports whether a SIAC receipt is already mirrored
func (r *GormReceiptRepository) ExistsByLegacyID(ctx context.Context, legacyID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReceiptModel{}).
		Where("sq_guarda_siac = ?", legacyID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindLegacy returns every receipt mirrored from SIAC
func (r *GormReceiptRepository) FindLegacy(ctx context.Context) ([]guarda.Receipt, error) {
	var ms []models.ReceiptModel
	err := r.db.WithContext(ctx).
		Where("sq_guarda_siac IS NOT NULL AND sq_guarda_siac <> ''").
		Order("sq_guarda").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return r.withStockers(ctx, ms)
}

// FindAll returns receipts, newest emission first. A stocker filter keeps
// only receipts linked to that stocker.
func (r *GormReceiptRepository) FindAll(ctx context.Context, filter guarda.ReceiptFilter) ([]guarda.Receipt, error) {
	query := r.db.WithContext(ctx).Model(&models.ReceiptModel{})
	if filter.StockerCode != "" {
		linked := r.db.Model(&models.StockerLinkModel{}).
			Select("sq_guarda").
			Where("codoper = ?", filter.StockerCode)
		query = query.Where("sq_guarda IN (?)", linked)
	}

	var ms []models.ReceiptModel
	if err := query.Order("dt_emissao DESC NULLS LAST").Order("sq_guarda DESC").Find(&ms).Error; err != nil {
		return nil, err
	}
	return r.withStockers(ctx, ms)
}

// Create inserts a receipt and sets its generated id
func (r *GormReceiptRepository) Create(ctx context.Context, receipt *guarda.Receipt) error {
	m := models.ReceiptModelFromDomain(receipt)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	receipt.ID = m.SqGuarda
	return nil
}

// UpdateProgress writes the start and finish columns of an existing receipt.
// It never inserts: a receipt deleted meanwhile yields shared.ErrNotFound.
func (r *GormReceiptRepository) UpdateProgress(ctx context.Context, receipt *guarda.Receipt) error {
	m := models.ReceiptModelFromDomain(receipt)
	res := r.db.WithContext(ctx).
		Model(&models.ReceiptModel{}).
		Where("sq_guarda = ?", receipt.ID).
		Updates(map[string]any{
			"dt_iniguar": m.DtIniguar,
			"hr_iniguar": m.HrIniguar,
			"dt_fimguar": m.DtFimguar,
			"hr_fimguar": m.HrFimguar,
			"in_fimapp":  m.InFimapp,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// LinkStocker links a stocker to a receipt; linking twice is a no-op
func (r *GormReceiptRepository) LinkStocker(ctx context.Context, receiptID int64, stockerCode string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.StockerLinkModel{SqGuarda: receiptID, Codoper: stockerCode}).Error
}

// UnlinkStockers removes every stocker link of a receipt
func (r *GormReceiptRepository) UnlinkStockers(ctx context.Context, receiptID int64) error {
	return r.db.WithContext(ctx).
		Where("sq_guarda = ?", receiptID).
		Delete(&models.StockerLinkModel{}).Error
}

// Delete removes a receipt row
func (r *GormReceiptRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Where("sq_guarda = ?", id).
		Delete(&models.ReceiptModel{}).Error
}

type stockerRow struct {
	SqGuarda int64
	Codoper  string
	Nome     string
}

// withStockers converts models and attaches their linked stockers with one query
func (r *GormReceiptRepository) withStockers(ctx context.Context, ms []models.ReceiptModel) ([]guarda.Receipt, error) {
	out := make([]guarda.Receipt, len(ms))
	if len(ms) == 0 {
		return out, nil
	}

	ids := make([]int64, len(ms))
	index := make(map[int64]int, len(ms))
	for i := range ms {
		out[i] = *ms[i].ToDomain()
		ids[i] = ms[i].SqGuarda
		index[ms[i].SqGuarda] = i
	}

	var rows []stockerRow
	err := r.db.WithContext(ctx).
		Table("guarda_estoquista AS ge").
		Select("ge.sq_guarda, ge.codoper, COALESCE(e.nome, '') AS nome").
		Joins("LEFT JOIN estoquista e ON e.codoper = ge.codoper").
		Where("ge.sq_guarda IN ?", ids).
		Order("ge.codoper").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		i := index[row.SqGuarda]
		out[i].Stockers = append(out[i].Stockers, guarda.Stocker{Code: row.Codoper, Name: row.Nome})
	}
	return out, nil
}

var _ guarda.ReceiptRepository = (*GormReceiptRepository)(nil)
