// Package analytics computes per-stock returns and volatility from closing
// price series, and their portfolio-weighted aggregates.
package analytics

import (
	"context"
	"time"

	"github.com/aristath/appa/internal/cache"
	"github.com/aristath/appa/internal/domain"
	"github.com/aristath/appa/internal/modules/marketdata"
	"github.com/rs/zerolog"
)

// SeriesSource provides quotes and closing-price series
type SeriesSource interface {
	Quote(ctx context.Context, symbol string) (marketdata.Quote, error)
	ClosingSeries(ctx context.Context, symbol string, window marketdata.Window) (marketdata.Series, error)
}

// WeightSource provides each symbol's share of a portfolio's position value
type WeightSource interface {
	StockWeights(ctx context.Context, portfolioID int64) (map[string]float64, error)
}

// ResultCache stores per-symbol results for the day they were computed
type ResultCache interface {
	Get(ctx context.Context, key cache.Key, dest interface{}) (bool, error)
	Set(ctx context.Context, key cache.Key, value interface{}, ttl time.Duration) error
}

// Service computes returns and volatility
type Service struct {
	source  SeriesSource
	weights WeightSource
	cache   ResultCache
	ttl     time.Duration
	now     func() time.Time
	log     zerolog.Logger
}

// NewService creates a new analytics service. cache may be nil.
func NewService(source SeriesSource, weights WeightSource, resultCache ResultCache, ttl time.Duration, log zerolog.Logger) *Service {
	return &Service{
		source:  source,
		weights: weights,
		cache:   resultCache,
		ttl:     ttl,
		now:     time.Now,
		log:     log.With().Str("service", "analytics").Logger(),
	}
}

func (s *Service) today() time.Time {
	return domain.Today(s.now())
}

func (s *Service) cacheKey(symbol, kind string) cache.Key {
	return cache.Key{Symbol: symbol, Kind: kind, AsOf: s.today().Format(domain.DateLayout)}
}

// cached returns the cached value for (symbol, kind, today) or computes and stores it.
// Cache failures are logged and never fail the computation.
func cached[T any](ctx context.Context, s *Service, symbol, kind string, compute func() (T, error)) (T, error) {
	key := s.cacheKey(symbol, kind)
	if s.cache != nil {
		var hit T
		ok, err := s.cache.Get(ctx, key, &hit)
		if err != nil {
			s.log.Warn().Err(err).Str("key", key.String()).Msg("Cache read failed")
		} else if ok {
			return hit, nil
		}
	}

	v, err := compute()
	if err != nil {
		return v, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, v, s.ttl); err != nil {
			s.log.Warn().Err(err).Str("key", key.String()).Msg("Cache write failed")
		}
	}
	return v, nil
}
