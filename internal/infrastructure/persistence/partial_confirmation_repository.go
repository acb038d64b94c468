package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/joaopxt/ze-do-bip-backend/internal/domain/guarda"
	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/persistence/models"
)

// GormPartialConfirmationRepository implements the partial scan ledger
type GormPartialConfirmationRepository struct {
	db *gorm.DB
}

// NewGormPartialConfirmationRepository creates a new GormPartialConfirmationRepository
func NewGormPartialConfirmationRepository(db *gorm.DB) *GormPartialConfirmationRepository {
	return &GormPartialConfirmationRepository{db: db}
}

// Append inserts a ledger row and sets its generated id
func (r *GormPartialConfirmationRepository) Append(ctx context.Context, c *guarda.PartialConfirmation) error {
	m := models.PartialConfirmationModelFromDomain(c)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	c.ID = m.ID
	return nil
}

// SumForCycle totals the quantities confirmed for a line in one scan cycle
func (r *GormPartialConfirmationRepository) SumForCycle(ctx context.Context, lineItemID int64, cycle int) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Model(&models.PartialConfirmationModel{}).
		Select("COALESCE(SUM(qtde_bipada), 0)").
		Where("produto_guarda_id = ? AND ciclo_bipagem = ?", lineItemID, cycle).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// FindByLineItems returns the ledger rows of the given lines keyed by line id,
// oldest first
func (r *GormPartialConfirmationRepository) FindByLineItems(ctx context.Context, lineItemIDs []int64) (map[int64][]guarda.PartialConfirmation, error) {
	out := make(map[int64][]guarda.PartialConfirmation, len(lineItemIDs))
	if len(lineItemIDs) == 0 {
		return out, nil
	}

	var ms []models.PartialConfirmationModel
	err := r.db.WithContext(ctx).
		Where("produto_guarda_id IN ?", lineItemIDs).
		Order("produto_guarda_id").
		Order("dt_confirmacao").
		Order("id").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	for i := range ms {
		out[ms[i].ProdutoGuardaID] = append(out[ms[i].ProdutoGuardaID], ms[i].ToDomain())
	}
	return out, nil
}

// DeleteByLineItems removes the ledger rows of the given lines. Only
// receipt removal calls it, after the rows were snapshotted.
func (r *GormPartialConfirmationRepository) DeleteByLineItems(ctx context.Context, lineItemIDs []int64) error {
	if len(lineItemIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("produto_guarda_id IN ?", lineItemIDs).
		Delete(&models.PartialConfirmationModel{}).Error
}

var _ guarda.PartialConfirmationRepository = (*GormPartialConfirmationRepository)(nil)
