package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/appa/internal/clients/alphavantage"
	"github.com/aristath/appa/internal/config"
	"github.com/aristath/appa/internal/events"
	"github.com/aristath/appa/internal/modules/allocation"
	"github.com/aristath/appa/internal/modules/analytics"
	"github.com/aristath/appa/internal/modules/marketdata"
	"github.com/aristath/appa/internal/modules/portfolio"
	"github.com/aristath/appa/internal/modules/rebalancing"
	"github.com/aristath/appa/internal/modules/trading"
	"github.com/aristath/appa/internal/modules/universe"
	"github.com/aristath/appa/internal/reliability"
	"github.com/rs/zerolog"
)

// InitializeServices creates clients and services in dependency order:
// market data, universe, portfolio, allocation, analytics, rebalancing, trading
// and, when a bucket is configured, backups.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	opts := []alphavantage.ClientOption{
		alphavantage.WithDailyLimit(cfg.AlphaVantage.DailyLimit),
		alphavantage.WithRequestsPerMinute(cfg.AlphaVantage.RequestsPerMinute),
	}
	if cfg.AlphaVantage.BaseURL != "" {
		opts = append(opts, alphavantage.WithBaseURL(cfg.AlphaVantage.BaseURL))
	}
	if cfg.AlphaVantage.Timeout > 0 {
		opts = append(opts, alphavantage.WithTimeout(cfg.AlphaVantage.Timeout))
	}
	container.AlphaVantageClient = alphavantage.NewClient(cfg.AlphaVantage.APIKey, log, opts...)
	container.Accessor = marketdata.NewAccessor(container.AlphaVantageClient, log)

	index, err := universe.NewSearchIndex()
	if err != nil {
		return fmt.Errorf("failed to create search index: %w", err)
	}
	container.SearchIndex = index
	container.UniverseService = universe.NewService(container.StockRepo, container.Accessor, index, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := container.UniverseService.Warm(ctx); err != nil {
		return fmt.Errorf("failed to index known stocks: %w", err)
	}

	container.PortfolioService = portfolio.NewPortfolioService(
		container.PortfolioRepo,
		container.UniverseService,
		container.Accessor,
		container.AuditRepo,
		cfg.Actor,
		log,
	)

	container.AllocationEngine = allocation.NewEngine(container.PortfolioRepo, container.Accessor, log)

	container.AnalyticsService = analytics.NewService(
		container.Accessor,
		container.AllocationEngine,
		container.CacheStore,
		cfg.Cache.TTL,
		log,
	)

	container.Planner = rebalancing.NewPlanner(container.AllocationEngine, log)

	container.Executor = trading.NewExecutor(
		container.PortfolioRepo,
		container.Accessor,
		container.AuditRepo,
		container.CacheStore,
		container.TradeRepo,
		cfg.Actor,
		log,
	)
	container.EventBus = events.NewBus(log)
	container.Executor.SetPublisher(container.EventBus)

	if cfg.Backup.Enabled() {
		store, err := reliability.NewS3Store(ctx, cfg.Backup, log)
		if err != nil {
			return fmt.Errorf("failed to create backup store: %w", err)
		}
		container.BackupService = reliability.NewBackupService(store, container.Databases(), cfg.DataDir, cfg.Backup.Prefix, log)
	}

	log.Info().Bool("backups", container.BackupService != nil).Msg("Services initialized")
	return nil
}
