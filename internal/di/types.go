/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to the server for access to services.
 */
package di

import (
	"errors"

	"github.com/aristath/appa/internal/cache"
	"github.com/aristath/appa/internal/clients/alphavantage"
	"github.com/aristath/appa/internal/database"
	"github.com/aristath/appa/internal/events"
	"github.com/aristath/appa/internal/modules/allocation"
	"github.com/aristath/appa/internal/modules/analytics"
	"github.com/aristath/appa/internal/modules/audit"
	"github.com/aristath/appa/internal/modules/marketdata"
	"github.com/aristath/appa/internal/modules/portfolio"
	"github.com/aristath/appa/internal/modules/rebalancing"
	"github.com/aristath/appa/internal/modules/trading"
	"github.com/aristath/appa/internal/modules/universe"
	"github.com/aristath/appa/internal/reliability"
	"github.com/aristath/appa/internal/scheduler"
)

/**
 * Container holds all dependencies for the application.
 *
 * Architecture:
 * - Databases: 3-database architecture (portfolio, ledger, cache)
 * - Clients: Alpha Vantage market data behind the time-series accessor
 * - Repositories: Data access layer (stocks, portfolios and positions, access log, trades, analytics cache)
 * - Services: Business logic layer (universe, portfolio, allocation, analytics, rebalancing, trading, backups)
 */
type Container struct {
	// Databases
	PortfolioDB *database.DB
	LedgerDB    *database.DB
	CacheDB     *database.DB

	// Clients
	AlphaVantageClient *alphavantage.Client
	Accessor           *marketdata.Accessor

	// Repositories
	StockRepo     *universe.Repository
	PortfolioRepo *portfolio.Repository
	AuditRepo     *audit.Repository
	TradeRepo     *trading.TradeRepository
	CacheStore    *cache.Store

	// Services
	SearchIndex      *universe.SearchIndex
	UniverseService  *universe.Service
	PortfolioService *portfolio.PortfolioService
	AllocationEngine *allocation.Engine
	AnalyticsService *analytics.Service
	EventBus         *events.Bus
	Planner          *rebalancing.Planner
	Executor         *trading.Executor
	BackupService    *reliability.BackupService // nil when backups are disabled
}

// Databases returns every open database, in a stable order
func (c *Container) Databases() []*database.DB {
	var dbs []*database.DB
	for _, db := range []*database.DB{c.PortfolioDB, c.LedgerDB, c.CacheDB} {
		if db != nil {
			dbs = append(dbs, db)
		}
	}
	return dbs
}

// Close releases the search index and closes every database
func (c *Container) Close() error {
	var errs []error
	if c.SearchIndex != nil {
		errs = append(errs, c.SearchIndex.Close())
	}
	for _, db := range c.Databases() {
		errs = append(errs, db.Close())
	}
	return errors.Join(errs...)
}

// JobInstances holds the background jobs registered with the scheduler
type JobInstances struct {
	CacheCleanup        scheduler.Job
	CheckCoreDatabases  scheduler.Job
	CheckWALCheckpoints scheduler.Job
	VacuumDatabases     scheduler.Job
	Backup              scheduler.Job // nil when backups are disabled
}
