package di

import (
	"github.com/aristath/appa/internal/cache"
	"github.com/aristath/appa/internal/modules/audit"
	"github.com/aristath/appa/internal/modules/portfolio"
	"github.com/aristath/appa/internal/modules/trading"
	"github.com/aristath/appa/internal/modules/universe"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates all repositories
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	// portfolio.db
	container.StockRepo = universe.NewRepository(container.PortfolioDB.Conn(), log)
	container.PortfolioRepo = portfolio.NewRepository(container.PortfolioDB.Conn(), log)

	// ledger.db
	container.AuditRepo = audit.NewRepository(container.LedgerDB.Conn(), log)
	container.TradeRepo = trading.NewTradeRepository(container.LedgerDB.Conn(), log)

	// cache.db
	container.CacheStore = cache.NewStore(container.CacheDB.Conn(), log)

	log.Info().Msg("Repositories initialized")
	return nil
}
