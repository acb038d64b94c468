package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joaopxt/ze-do-bip-backend/migrations"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add backup index", "add_backup_index"},
		{"Add-Backup-Index", "add_backup_index"},
		{"ADD_BACKUP_INDEX", "add_backup_index"},
		{"add__backup__index", "add_backup_index"},
		{"Ciclo Bipagem 2", "ciclo_bipagem_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

// ----------------------------------------------------------------------------
// CreateMigration
// ----------------------------------------------------------------------------

func TestCreateMigration(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")
	now := time.Date(2025, 6, 2, 13, 4, 5, 0, time.FixedZone("BRT", -3*3600))

	mf, err := CreateMigration(dir, "add backup index", "Index backups by store", now)
	require.NoError(t, err)

	assert.Equal(t, "20250602160405", mf.Version)
	assert.Equal(t, filepath.Join(dir, "20250602160405_add_backup_index.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "20250602160405_add_backup_index.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: add backup index")
	assert.Contains(t, string(up), "Index backups by store")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(Rollback)")

	_, err = CreateMigration(dir, "add backup index", "again", now)
	assert.Error(t, err, "same version and name must not overwrite")
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "", time.Now())
	assert.Error(t, err)
}

// ----------------------------------------------------------------------------
// ListMigrations
// ----------------------------------------------------------------------------

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_add_lines.up.sql":   {Data: []byte("--")},
		"000002_add_lines.down.sql": {Data: []byte("--")},
		"000001_init.up.sql":        {Data: []byte("--")},
		"000001_init.down.sql":      {Data: []byte("--")},
		"000003_no_down.up.sql":     {Data: []byte("--")},
		"README.md":                 {Data: []byte("docs")},
		"embed.go":                  {Data: []byte("package migrations")},
		"subdir.up.sql/x":           {Data: []byte("--")},
	}

	got, err := ListMigrations(fsys)
	require.NoError(t, err)

	assert.Equal(t, []Migration{
		{Name: "000001_init", HasDown: true},
		{Name: "000002_add_lines", HasDown: true},
		{Name: "000003_no_down", HasDown: false},
	}, got)
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	got, err := ListMigrations(os.DirFS("/nonexistent/path/to/migrations"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEmbeddedMigrations_ArePaired(t *testing.T) {
	got, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, got)

	for _, m := range got {
		assert.True(t, m.HasDown, "%s has no down migration", m.Name)
	}
	assert.Equal(t, "20250601090100_guarda_tables", got[len(got)-1].Name)
}
