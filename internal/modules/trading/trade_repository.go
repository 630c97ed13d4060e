package trading

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Side is the direction of a trade
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Trade is one executed leg as stored in the ledger
type Trade struct {
	ID          string    `json:"id"`
	ExecutionID string    `json:"execution_id"`
	PortfolioID int64     `json:"portfolio_id"`
	Symbol      string    `json:"symbol"`
	Side        Side      `json:"side"`
	Quantity    int64     `json:"quantity"`
	Price       float64   `json:"price"`
	Amount      float64   `json:"amount"`
	ExecutedAt  time.Time `json:"executed_at"`
}

// TradeRepository handles trade database operations
type TradeRepository struct {
	ledgerDB *sql.DB // ledger.db - trades table
	log      zerolog.Logger
}

// tradesColumns must match scanTrade
const tradesColumns = `id, execution_id, portfolio_id, symbol, side, quantity, price, amount, executed_at`

// NewTradeRepository creates a new trade repository
func NewTradeRepository(ledgerDB *sql.DB, log zerolog.Logger) *TradeRepository {
	return &TradeRepository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "trade").Logger(),
	}
}

// Create inserts a trade record. An empty ID is filled with a new UUID.
func (r *TradeRepository) Create(ctx context.Context, trade *Trade) error {
	if trade.ID == "" {
		trade.ID = uuid.NewString()
	}
	if trade.Quantity <= 0 {
		return fmt.Errorf("failed to create trade: quantity must be positive, got %d", trade.Quantity)
	}

	_, err := r.ledgerDB.ExecContext(ctx, `
		INSERT INTO trades (`+tradesColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		trade.ID,
		trade.ExecutionID,
		trade.PortfolioID,
		strings.ToUpper(strings.TrimSpace(trade.Symbol)),
		string(trade.Side),
		trade.Quantity,
		trade.Price,
		trade.Amount,
		trade.ExecutedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}

	r.log.Debug().
		Str("id", trade.ID).
		Str("execution_id", trade.ExecutionID).
		Str("symbol", trade.Symbol).
		Str("side", string(trade.Side)).
		Int64("quantity", trade.Quantity).
		Msg("Trade recorded")
	return nil
}

// GetHistory returns a portfolio's trades, newest first
func (r *TradeRepository) GetHistory(ctx context.Context, portfolioID int64, limit int) ([]Trade, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.query(ctx, `
		SELECT `+tradesColumns+` FROM trades
		WHERE portfolio_id = ?
		ORDER BY executed_at DESC, rowid DESC
		LIMIT ?
	`, portfolioID, limit)
}

// GetByExecution returns the legs of one execution in the order they ran
func (r *TradeRepository) GetByExecution(ctx context.Context, executionID string) ([]Trade, error) {
	return r.query(ctx, `
		SELECT `+tradesColumns+` FROM trades
		WHERE execution_id = ?
		ORDER BY executed_at ASC, rowid ASC
	`, executionID)
}

func (r *TradeRepository) query(ctx context.Context, query string, args ...interface{}) ([]Trade, error) {
	rows, err := r.ledgerDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := []Trade{}
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}
	return trades, nil
}

func scanTrade(rows *sql.Rows) (Trade, error) {
	var t Trade
	var side string
	var executedAt int64
	if err := rows.Scan(&t.ID, &t.ExecutionID, &t.PortfolioID, &t.Symbol, &side,
		&t.Quantity, &t.Price, &t.Amount, &executedAt); err != nil {
		return Trade{}, err
	}
	t.Side = Side(side)
	t.ExecutedAt = time.Unix(0, executedAt).UTC()
	return t, nil
}
