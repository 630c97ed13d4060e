// Package universe manages stock reference data: creation on first reference
// from the market-data overview, lookup, and ticker search.
package universe

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/aristath/appa/internal/clients/alphavantage"
	"github.com/aristath/appa/internal/domain"
	"github.com/rs/zerolog"
)

// tickerPattern accepts plain alphabetic tickers only (no exchange suffixes)
var tickerPattern = regexp.MustCompile(`^[A-Za-z]+$`)

// ReferenceSource is the part of the market-data accessor the universe needs
type ReferenceSource interface {
	Overview(ctx context.Context, symbol string) (*alphavantage.CompanyOverview, error)
	Search(ctx context.Context, keywords string) ([]alphavantage.SymbolMatch, error)
}

// SearchResult is one ticker search hit
type SearchResult struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Known  bool   `json:"known"` // already stored in the universe
}

// Service handles stock reference data
type Service struct {
	repo   *Repository
	source ReferenceSource
	index  *SearchIndex
	log    zerolog.Logger
}

// NewService creates a new universe service
func NewService(repo *Repository, source ReferenceSource, index *SearchIndex, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		source: source,
		index:  index,
		log:    log.With().Str("service", "universe").Logger(),
	}
}

// Warm loads every stored stock into the search index
func (s *Service) Warm(ctx context.Context) error {
	stocks, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	if err := s.index.Add(stocks...); err != nil {
		return err
	}
	s.log.Info().Int("stocks", len(stocks)).Msg("Search index warmed")
	return nil
}

// Get returns a stored stock
func (s *Service) Get(ctx context.Context, symbol string) (*domain.Stock, error) {
	stock, err := s.repo.Get(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return nil, domain.Errorf(domain.KindEntityNotFound, nil, "stock %s not found", strings.ToUpper(symbol))
	}
	return stock, nil
}

// List returns every stored stock
func (s *Service) List(ctx context.Context) ([]domain.Stock, error) {
	return s.repo.List(ctx)
}

// EnsureStock returns the stored stock, creating it from the upstream overview
// on first reference
func (s *Service) EnsureStock(ctx context.Context, symbol string) (*domain.Stock, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, domain.Errorf(domain.KindInvalidArgument, nil, "symbol is required")
	}

	existing, err := s.repo.Get(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	overview, err := s.source.Overview(ctx, symbol)
	if err != nil {
		var notFound alphavantage.ErrSymbolNotFound
		if errors.As(err, &notFound) {
			return nil, domain.Errorf(domain.KindEntityNotFound, err, "stock %s not found upstream", symbol)
		}
		return nil, err
	}

	stock := domain.Stock{
		Symbol:    symbol,
		Name:      overview.Name,
		Sector:    overview.Sector,
		Industry:  overview.Industry,
		Exchange:  overview.Exchange,
		Country:   overview.Country,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, stock); err != nil {
		return nil, err
	}
	if err := s.index.Add(stock); err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to index stock")
	}

	s.log.Info().Str("symbol", symbol).Str("sector", stock.Sector).Msg("Stock created from overview")
	return &stock, nil
}

// Search returns known stocks first, then upstream equity tickers not yet stored.
// An upstream failure is tolerated when local results exist.
func (s *Service) Search(ctx context.Context, keywords string) ([]SearchResult, error) {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return nil, domain.Errorf(domain.KindInvalidArgument, nil, "search keywords are required")
	}

	local, err := s.index.Search(keywords, 10)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(local))
	seen := make(map[string]bool, len(local))
	for _, st := range local {
		results = append(results, SearchResult{Symbol: st.Symbol, Name: st.Name, Known: true})
		seen[st.Symbol] = true
	}

	matches, err := s.source.Search(ctx, keywords)
	if err != nil {
		if len(results) > 0 {
			s.log.Warn().Err(err).Str("keywords", keywords).Msg("Upstream search failed, returning local results")
			return results, nil
		}
		return nil, err
	}

	for _, m := range matches {
		if m.Type != "Equity" || !tickerPattern.MatchString(m.Symbol) {
			continue
		}
		symbol := strings.ToUpper(m.Symbol)
		if seen[symbol] {
			continue
		}
		seen[symbol] = true
		results = append(results, SearchResult{Symbol: symbol, Name: m.Name})
	}

	return results, nil
}
