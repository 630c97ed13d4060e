// Package audit writes the append-only access log in the ledger database.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/appa/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Entry is one access log row
type Entry struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository handles access log database operations
type Repository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
	now      func() time.Time
}

// NewRepository creates a new audit repository
func NewRepository(ledgerDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "audit").Logger(),
		now:      time.Now,
	}
}

var _ domain.AuditRecorder = (*Repository)(nil)

// Record appends an (actor, action) entry
func (r *Repository) Record(ctx context.Context, actor, action string) error {
	id := uuid.NewString()
	_, err := r.ledgerDB.ExecContext(ctx,
		`INSERT INTO access_log (id, actor, action, created_at) VALUES (?, ?, ?, ?)`,
		id, actor, action, r.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to write access log entry: %w", err)
	}

	r.log.Debug().Str("id", id).Str("actor", actor).Str("action", action).Msg("Access log entry recorded")
	return nil
}

// Recent returns the newest entries first, optionally filtered by actor
func (r *Repository) Recent(ctx context.Context, actor string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, actor, action, created_at FROM access_log`
	args := []interface{}{}
	if actor != "" {
		query += ` WHERE actor = ?`
		args = append(args, actor)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.ledgerDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query access log: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan access log entry: %w", err)
		}
		e.CreatedAt = time.Unix(0, createdAt).UTC()
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating access log: %w", err)
	}

	return entries, nil
}
