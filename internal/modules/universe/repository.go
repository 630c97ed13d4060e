package universe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/appa/internal/database"
	"github.com/aristath/appa/internal/domain"
	"github.com/rs/zerolog"
)

// Repository handles stock reference data in the portfolio database
type Repository struct {
	db  database.DBTX
	log zerolog.Logger
}

// NewRepository creates a new stock repository
func NewRepository(db database.DBTX, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "stock").Logger(),
	}
}

const stockColumns = `symbol, name, sector, industry, exchange, country, created_at`

// Get returns the stock or nil if it is unknown
func (r *Repository) Get(ctx context.Context, symbol string) (*domain.Stock, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+stockColumns+` FROM stocks WHERE symbol = ?`, strings.ToUpper(symbol))

	stock, err := scanStock(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock %s: %w", symbol, err)
	}
	return &stock, nil
}

// List returns every known stock ordered by symbol
func (r *Repository) List(ctx context.Context) ([]domain.Stock, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+stockColumns+` FROM stocks ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	defer rows.Close()

	stocks := []domain.Stock{}
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stocks = append(stocks, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stocks: %w", err)
	}

	return stocks, nil
}

// Insert stores a stock. Reference data is immutable, so an existing row is left untouched.
func (r *Repository) Insert(ctx context.Context, s domain.Stock) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stocks (`+stockColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO NOTHING
	`, strings.ToUpper(s.Symbol), s.Name, s.Sector, s.Industry, s.Exchange, s.Country, s.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert stock %s: %w", s.Symbol, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStock(row rowScanner) (domain.Stock, error) {
	var s domain.Stock
	var createdAt int64
	if err := row.Scan(&s.Symbol, &s.Name, &s.Sector, &s.Industry, &s.Exchange, &s.Country, &createdAt); err != nil {
		return domain.Stock{}, err
	}
	s.CreatedAt = time.Unix(createdAt, 0).UTC()
	return s, nil
}
