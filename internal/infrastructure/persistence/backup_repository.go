package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/joaopxt/ze-do-bip-backend/internal/domain/guarda"
	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/persistence/models"
)

// GormBackupRepository stores receipt backups
type GormBackupRepository struct {
	db *gorm.DB
}

// NewGormBackupRepository creates a new GormBackupRepository
func NewGormBackupRepository(db *gorm.DB) *GormBackupRepository {
	return &GormBackupRepository{db: db}
}

// Create inserts a backup and sets its generated id
func (r *GormBackupRepository) Create(ctx context.Context, b *guarda.ReceiptBackup) error {
	m := models.ReceiptBackupModelFromDomain(b)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	b.ID = m.ID
	return nil
}

var _ guarda.BackupRepository = (*GormBackupRepository)(nil)
