package di

import (
	"path/filepath"
	"testing"

	"github.com/aristath/appa/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeDatabases(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &config.Config{DataDir: tmpDir}

	container, err := InitializeDatabases(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, container)
	t.Cleanup(func() { _ = container.Close() })

	assert.NotNil(t, container.PortfolioDB)
	assert.NotNil(t, container.LedgerDB)
	assert.NotNil(t, container.CacheDB)
	assert.Len(t, container.Databases(), 3)

	assert.FileExists(t, filepath.Join(tmpDir, "portfolio.db"))
	assert.FileExists(t, filepath.Join(tmpDir, "ledger.db"))
	assert.FileExists(t, filepath.Join(tmpDir, "cache.db"))

	// Schemas applied
	for _, table := range []struct{ db, name string }{
		{"portfolio", "positions"},
		{"ledger", "access_log"},
		{"ledger", "trades"},
		{"cache", "analytics_cache"},
	} {
		var count int
		db := container.PortfolioDB
		switch table.db {
		case "ledger":
			db = container.LedgerDB
		case "cache":
			db = container.CacheDB
		}
		err := db.Conn().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table.name).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, table.name)
	}
}
