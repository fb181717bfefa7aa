package persistence

import (
	"path/filepath"
	"testing"

	"github.com/erp/importer/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openSQLite(t *testing.T) *Database {
	t.Helper()
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_SQLite(t *testing.T) {
	db := openSQLite(t)

	assert.NoError(t, db.Ping())
	assert.True(t, db.DB.Migrator().HasTable("import_jobs"))
}

func TestOpen_SQLiteFile(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "jobs.db")
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", DSN: dsn}, nil)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	assert.FileExists(t, dsn)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	for _, driver := range []string{"memory", "mysql", ""} {
		_, err := Open(config.DatabaseConfig{Driver: driver}, nil)
		assert.ErrorContains(t, err, "unsupported database driver", driver)
	}
}
