package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/persistence/models"
)

// setupGuardaTestDB creates an in-memory SQLite database with the guarda
// and master data tables
func setupGuardaTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// every pooled connection would open its own empty :memory: database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.GuardaModels()...))
	require.NoError(t, db.AutoMigrate(models.MasterDataModels()...))
	return db
}

func strPtr(s string) *string { return &s }
