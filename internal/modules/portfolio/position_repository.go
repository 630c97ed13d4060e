package portfolio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/appa/internal/domain"
)

const positionColumns = `p.portfolio_id, p.symbol, p.quantity, p.buy_price, p.buy_date, p.updated_at`

// GetPosition returns the position or nil if the portfolio does not hold the symbol
func (r *Repository) GetPosition(ctx context.Context, portfolioID int64, symbol string) (*domain.Position, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+positionColumns+`
		FROM positions p
		WHERE p.portfolio_id = ? AND p.symbol = ?
	`, portfolioID, normalizeSymbol(symbol))

	pos, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position %s: %w", symbol, err)
	}
	return &pos, nil
}

// GetPositions returns all positions of a portfolio ordered by symbol
func (r *Repository) GetPositions(ctx context.Context, portfolioID int64) ([]domain.Position, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+positionColumns+`
		FROM positions p
		WHERE p.portfolio_id = ?
		ORDER BY p.symbol
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	positions := []domain.Position{}
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, pos)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return positions, nil
}

// GetHoldings returns the portfolio's positions joined with stock reference data
func (r *Repository) GetHoldings(ctx context.Context, portfolioID int64) ([]domain.Holding, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+positionColumns+`,
			s.symbol, s.name, s.sector, s.industry, s.exchange, s.country, s.created_at
		FROM positions p
		JOIN stocks s ON s.symbol = p.symbol
		WHERE p.portfolio_id = ?
		ORDER BY p.symbol
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	holdings := []domain.Holding{}
	for rows.Next() {
		var h domain.Holding
		var buyDate string
		var updatedAt, stockCreatedAt int64
		err := rows.Scan(
			&h.PortfolioID, &h.Symbol, &h.Quantity, &h.BuyPrice, &buyDate, &updatedAt,
			&h.Stock.Symbol, &h.Stock.Name, &h.Stock.Sector, &h.Stock.Industry,
			&h.Stock.Exchange, &h.Stock.Country, &stockCreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		if h.BuyDate, err = time.Parse(domain.DateLayout, buyDate); err != nil {
			return nil, fmt.Errorf("invalid buy date %q for %s: %w", buyDate, h.Symbol, err)
		}
		h.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		h.Stock.CreatedAt = time.Unix(stockCreatedAt, 0).UTC()
		holdings = append(holdings, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

// UpsertPosition inserts the position or replaces quantity, buy price and buy date of the existing one
func (r *Repository) UpsertPosition(ctx context.Context, pos domain.Position) error {
	pos.Symbol = normalizeSymbol(pos.Symbol)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO positions (portfolio_id, symbol, quantity, buy_price, buy_date, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(portfolio_id, symbol) DO UPDATE SET
			quantity = excluded.quantity,
			buy_price = excluded.buy_price,
			buy_date = excluded.buy_date,
			updated_at = excluded.updated_at
	`, pos.PortfolioID, pos.Symbol, pos.Quantity, pos.BuyPrice,
		pos.BuyDate.Format(domain.DateLayout), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert position %s: %w", pos.Symbol, err)
	}

	r.log.Debug().
		Int64("portfolio_id", pos.PortfolioID).
		Str("symbol", pos.Symbol).
		Int64("quantity", pos.Quantity).
		Msg("Position upserted")
	return nil
}

// DeletePosition removes a position; deleting a missing position is not an error
func (r *Repository) DeletePosition(ctx context.Context, portfolioID int64, symbol string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM positions WHERE portfolio_id = ? AND symbol = ?`, portfolioID, normalizeSymbol(symbol))
	if err != nil {
		return fmt.Errorf("failed to delete position %s: %w", symbol, err)
	}

	r.log.Debug().Int64("portfolio_id", portfolioID).Str("symbol", symbol).Msg("Position deleted")
	return nil
}

func scanPosition(row rowScanner) (domain.Position, error) {
	var pos domain.Position
	var buyDate string
	var updatedAt int64
	if err := row.Scan(&pos.PortfolioID, &pos.Symbol, &pos.Quantity, &pos.BuyPrice, &buyDate, &updatedAt); err != nil {
		return domain.Position{}, err
	}

	bd, err := time.Parse(domain.DateLayout, buyDate)
	if err != nil {
		return domain.Position{}, fmt.Errorf("invalid buy date %q: %w", buyDate, err)
	}
	pos.BuyDate = bd
	pos.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return pos, nil
}
