// Package cache stores computed analytics keyed by (symbol, kind, as-of date)
// in the cache database. Entries expire by TTL and are dropped explicitly when
// a trade touches the symbol.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/appa/internal/domain"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Key identifies one cached computation
type Key struct {
	Symbol string
	Kind   string // e.g. "return:one_week", "volatility:monthly"
	AsOf   string // ISO date the value was computed for
}

func (k Key) String() string {
	return strings.ToUpper(k.Symbol) + "|" + k.Kind + "|" + k.AsOf
}

// Store provides key-value storage with expiration over the cache database
type Store struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

// NewStore creates a new cache store
func NewStore(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With().Str("service", "analytics_cache").Logger(),
		now: time.Now,
	}
}

var _ domain.CacheInvalidator = (*Store)(nil)

// Set stores value under key until now+ttl
func (s *Store) Set(ctx context.Context, key Key, value interface{}, ttl time.Duration) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analytics_cache (key, symbol, value, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at
	`, key.String(), strings.ToUpper(key.Symbol), data, s.now().Add(ttl).Unix())
	if err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	return nil
}

// Get decodes the value under key into dest. Returns false when the key is
// missing or expired.
func (s *Store) Get(ctx context.Context, key Key, dest interface{}) (bool, error) {
	var data []byte
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM analytics_cache WHERE key = ?`, key.String(),
	).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}

	if s.now().Unix() >= expiresAt {
		return false, nil
	}

	if err := msgpack.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}
	return true, nil
}

// InvalidateSymbol removes every entry computed from a symbol's prices
func (s *Store) InvalidateSymbol(ctx context.Context, symbol string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM analytics_cache WHERE symbol = ?`, strings.ToUpper(symbol))
	if err != nil {
		return fmt.Errorf("failed to invalidate cache for %s: %w", symbol, err)
	}
	n, _ := res.RowsAffected()
	s.log.Debug().Str("symbol", symbol).Int64("deleted", n).Msg("Cache invalidated")
	return nil
}

// Clear removes every entry
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM analytics_cache`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}
	return res.RowsAffected()
}

// DeleteExpired removes entries whose TTL has passed
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM analytics_cache WHERE expires_at <= ?`, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}
	return res.RowsAffected()
}
