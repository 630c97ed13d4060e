// Package di provides dependency injection for database connections.
package di

import (
	"fmt"
	"path/filepath"

	"github.com/aristath/appa/internal/config"
	"github.com/aristath/appa/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the 3 databases and applies schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	specs := []struct {
		name    string
		profile database.DatabaseProfile
		target  **database.DB
	}{
		// portfolio.db - stock reference data, portfolios, positions
		{database.NamePortfolio, database.ProfileStandard, &container.PortfolioDB},
		// ledger.db - append-only access log and executed trades
		{database.NameLedger, database.ProfileLedger, &container.LedgerDB},
		// cache.db - ephemeral analytics results
		{database.NameCache, database.ProfileCache, &container.CacheDB},
	}

	for _, spec := range specs {
		db, err := database.New(database.Config{
			Path:    filepath.Join(cfg.DataDir, spec.name+".db"),
			Profile: spec.profile,
			Name:    spec.name,
		})
		if err != nil {
			_ = container.Close()
			return nil, fmt.Errorf("failed to initialize %s database: %w", spec.name, err)
		}
		*spec.target = db

		if err := db.Migrate(); err != nil {
			_ = container.Close()
			return nil, fmt.Errorf("failed to apply schema to %s: %w", spec.name, err)
		}
	}

	log.Info().Msg("All databases initialized and schemas applied")
	return container, nil
}
