//go:build integration

// Package integration runs the guarda flows against a real PostgreSQL
// started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/migration"
	"github.com/joaopxt/ze-do-bip-backend/migrations"
)

// TestDB represents a migrated test database
type TestDB struct {
	DB        *gorm.DB
	SqlDB     *sql.DB
	Container testcontainers.Container
	DSN       string
	t         *testing.T
}

// NewTestDB starts a fresh PostgreSQL container and applies every migration
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("guarda_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("admin123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	db, sqlDB := connectToDatabase(t, dsn)
	runMigrations(t, sqlDB)

	testDB := &TestDB{
		DB:        db,
		SqlDB:     sqlDB,
		Container: container,
		DSN:       dsn,
		t:         t,
	}
	t.Cleanup(testDB.Close)

	return testDB
}

// Close closes the connection and terminates the container
func (tdb *TestDB) Close() {
	if tdb.SqlDB != nil {
		tdb.SqlDB.Close()
	}
	if tdb.Container != nil {
		if err := tdb.Container.Terminate(context.Background()); err != nil {
			tdb.t.Logf("Warning: Failed to terminate container: %v", err)
		}
	}
}

// Exec runs a seed statement and fails the test on error
func (tdb *TestDB) Exec(query string, args ...any) {
	tdb.t.Helper()
	require.NoError(tdb.t, tdb.DB.Exec(query, args...).Error, "seed failed: %s", query)
}

// Count returns the row count of table filtered by where
func (tdb *TestDB) Count(table, where string, args ...any) int64 {
	tdb.t.Helper()
	var n int64
	err := tdb.DB.Raw(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", table, where), args...).Scan(&n).Error
	require.NoError(tdb.t, err)
	return n
}

// SeedMasterData inserts a product placed at compactAddress in store, a
// supplier and a stocker.
func (tdb *TestDB) SeedMasterData(store, productCode, compactAddress, stocker string) {
	tdb.t.Helper()
	tdb.Exec(`INSERT INTO produto (codpro, produto, cod_barra) VALUES (?, ?, ?)`, productCode, "Filtro de óleo", "7891234567890")
	tdb.Exec(`INSERT INTO prd_loja (codpro, cd_loja, localiza) VALUES (?, ?, ?)`, productCode, store, compactAddress)
	tdb.Exec(`INSERT INTO fornecedor (codfor, fornec) VALUES (?, ?)`, "F1", "Bosch")
	tdb.Exec(`INSERT INTO estoquista (codoper, nome) VALUES (?, ?)`, stocker, "Zé")
}

func connectToDatabase(t *testing.T, dsn string) (*gorm.DB, *sql.DB) {
	t.Helper()

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), gormConfig)
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "Failed to get underlying SQL DB")

	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, sqlDB
}

func runMigrations(t *testing.T, sqlDB *sql.DB) {
	t.Helper()

	m, err := migration.NewFromFS(sqlDB, migrations.FS, zaptest.NewLogger(t))
	require.NoError(t, err, "Failed to create migrator")
	require.NoError(t, m.Up(), "Failed to run migrations")
}
