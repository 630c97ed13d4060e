package portfolio

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

// Repository handles portfolio and position persistence in the portfolio database
type Repository struct {
	conn *sql.DB
	db   database.DBTX
	log  zerolog.Logger
}

// NewRepository creates a new portfolio repository
func NewRepository(conn *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		conn: conn,
		db:   conn,
		log:  log.With().Str("repo", "portfolio").Logger(),
	}
}

// InTx runs fn with a repository bound to a single transaction.
// Every write made through the bound repository commits or rolls back together.
func (r *Repository) InTx(ctx context.Context, fn func(tx *Repository) error) error {
	return database.WithTransaction(ctx, r.conn, func(tx *sql.Tx) error {
		return fn(&Repository{conn: r.conn, db: tx, log: r.log})
	})
}

const portfolioColumns = `id, name, owner, remaining_capital, created_at, updated_at`

// CreatePortfolio inserts a portfolio and returns it with its assigned id
func (r *Repository) CreatePortfolio(ctx context.Context, name, owner string, capital float64) (*domain.Portfolio, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO portfolios (name, owner, remaining_capital, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, name, owner, capital, now.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to insert portfolio: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio id: %w", err)
	}

	r.log.Info().Int64("portfolio_id", id).Str("owner", owner).Msg("Portfolio created")
	return r.GetPortfolio(ctx, id)
}

// GetPortfolio returns the portfolio or an EntityNotFound error
func (r *Repository) GetPortfolio(ctx context.Context, id int64) (*domain.Portfolio, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+portfolioColumns+` FROM portfolios WHERE id = ?`, id)

	p, err := scanPortfolio(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Errorf(domain.KindEntityNotFound, nil, "portfolio %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio %d: %w", id, err)
	}
	return &p, nil
}

// ListPortfolios returns the owner's portfolios, or all of them when owner is empty
func (r *Repository) ListPortfolios(ctx context.Context, owner string) ([]domain.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolios`
	var args []interface{}
	if owner != "" {
		query += ` WHERE owner = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	portfolios := []domain.Portfolio{}
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolios: %w", err)
	}

	return portfolios, nil
}

// DeletePortfolio removes a portfolio; its positions cascade
func (r *Repository) DeletePortfolio(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM portfolios WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.Errorf(domain.KindEntityNotFound, nil, "portfolio %d not found", id)
	}

	r.log.Info().Int64("portfolio_id", id).Msg("Portfolio deleted")
	return nil
}

// UpdateCapital sets the portfolio's remaining capital
func (r *Repository) UpdateCapital(ctx context.Context, id int64, capital float64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE portfolios SET remaining_capital = ?, updated_at = ? WHERE id = ?
	`, capital, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update capital of portfolio %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.Errorf(domain.KindEntityNotFound, nil, "portfolio %d not found", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPortfolio(row rowScanner) (domain.Portfolio, error) {
	var p domain.Portfolio
	var createdAt, updatedAt int64
	if err := row.Scan(&p.ID, &p.Name, &p.Owner, &p.RemainingCapital, &createdAt, &updatedAt); err != nil {
		return domain.Portfolio{}, err
	}
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	p.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return p, nil
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
