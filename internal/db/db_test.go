package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/labs/assets"
)

func TestMigrate_Idempotent(t *testing.T) {
	db, err := Open(MemoryDSN)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	files, err := assets.Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, files)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(1) FROM _migrations`).Scan(&n))
	assert.Equal(t, len(files), n)

	for _, table := range []string{"users", "games", "daily_results", "wallet_ledger"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}
}

func TestOpen_CreatesDirectory(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "app.db")
	db, err := OpenMigrated(dsn)
	require.NoError(t, err)
	defer db.Close()
	assert.FileExists(t, dsn)
}

func TestMigrations_Sorted(t *testing.T) {
	files, err := assets.Migrations()
	require.NoError(t, err)
	for i := 1; i < len(files); i++ {
		assert.Less(t, files[i-1].Name, files[i].Name)
	}
}
