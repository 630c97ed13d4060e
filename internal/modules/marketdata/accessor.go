// Package marketdata is the typed facade over the external market-data source.
// It returns parsed closing-price series and current-price snapshots and
// classifies every upstream failure as DataUnavailable. It does not retry.
package marketdata

import (
	"context"
	"strings"

	"github.com/aristath/appa/internal/clients/alphavantage"
	"github.com/aristath/appa/internal/domain"
	"github.com/rs/zerolog"
)

// Window selects which closing-price series to load
type Window int

const (
	// WindowDailyCompact is roughly the 100 most recent trading days
	WindowDailyCompact Window = iota
	// WindowDailyFull is the full daily history
	WindowDailyFull
	// WindowMonthly is one point per month
	WindowMonthly
)

func (w Window) String() string {
	switch w {
	case WindowDailyCompact:
		return "daily-compact"
	case WindowDailyFull:
		return "daily-full"
	case WindowMonthly:
		return "monthly"
	default:
		return "unknown"
	}
}

// Point is one closing price keyed by ISO date
type Point struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// Series is an ordered closing-price series, newest first
type Series []Point

// Index returns the series as a date -> close map
func (s Series) Index() map[string]float64 {
	idx := make(map[string]float64, len(s))
	for _, p := range s {
		idx[p.Date] = p.Close
	}
	return idx
}

// Chronological returns a copy ordered oldest first
func (s Series) Chronological() Series {
	out := make(Series, len(s))
	for i, p := range s {
		out[len(s)-1-i] = p
	}
	return out
}

// Since returns the points dated on or after the given ISO date, keeping order
func (s Series) Since(date string) Series {
	out := make(Series, 0, len(s))
	for _, p := range s {
		if p.Date >= date {
			out = append(out, p)
		}
	}
	return out
}

// Quote is a current price snapshot
type Quote struct {
	Symbol           string  `json:"symbol"`
	Price            float64 `json:"price"`
	PreviousClose    float64 `json:"previous_close"`
	LatestTradingDay string  `json:"latest_trading_day,omitempty"`
}

// Accessor wraps the market-data source
type Accessor struct {
	source alphavantage.ClientInterface
	log    zerolog.Logger
}

// NewAccessor creates a new accessor
func NewAccessor(source alphavantage.ClientInterface, log zerolog.Logger) *Accessor {
	return &Accessor{
		source: source,
		log:    log.With().Str("service", "marketdata").Logger(),
	}
}

var _ domain.PriceProvider = (*Accessor)(nil)

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Quote returns the current quote for a symbol
func (a *Accessor) Quote(ctx context.Context, symbol string) (Quote, error) {
	symbol = normalize(symbol)
	q, err := a.source.GetGlobalQuote(ctx, symbol)
	if err != nil {
		a.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote unavailable")
		return Quote{}, domain.Errorf(domain.KindDataUnavailable, err, "quote unavailable for %s", symbol)
	}
	if q == nil || q.Price <= 0 {
		return Quote{}, domain.Errorf(domain.KindDataUnavailable, nil, "no current price for %s", symbol)
	}

	out := Quote{
		Symbol:        symbol,
		Price:         q.Price,
		PreviousClose: q.PreviousClose,
	}
	if !q.LatestTradingDay.IsZero() {
		out.LatestTradingDay = q.LatestTradingDay.Format(domain.DateLayout)
	}
	return out, nil
}

// CurrentPrice returns the current price for a symbol
func (a *Accessor) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	q, err := a.Quote(ctx, symbol)
	if err != nil {
		return 0, err
	}
	return q.Price, nil
}

// ClosingSeries returns the closing prices for a window, newest first
func (a *Accessor) ClosingSeries(ctx context.Context, symbol string, window Window) (Series, error) {
	symbol = normalize(symbol)

	var (
		bars []alphavantage.DailyPrice
		err  error
	)
	switch window {
	case WindowDailyCompact:
		bars, err = a.source.GetDailyPrices(ctx, symbol, alphavantage.OutputCompact)
	case WindowDailyFull:
		bars, err = a.source.GetDailyPrices(ctx, symbol, alphavantage.OutputFull)
	case WindowMonthly:
		bars, err = a.source.GetMonthlyPrices(ctx, symbol)
	default:
		return nil, domain.Errorf(domain.KindInvalidArgument, nil, "unsupported series window %d", window)
	}
	if err != nil {
		a.log.Warn().Err(err).Str("symbol", symbol).Str("window", window.String()).Msg("Series unavailable")
		return nil, domain.Errorf(domain.KindDataUnavailable, err, "%s series unavailable for %s", window, symbol)
	}
	if len(bars) == 0 {
		return nil, domain.Errorf(domain.KindDataUnavailable, nil, "%s series empty for %s", window, symbol)
	}

	series := make(Series, 0, len(bars))
	for _, b := range bars {
		series = append(series, Point{Date: b.Date.Format(domain.DateLayout), Close: b.Close})
	}
	return series, nil
}

// Overview returns reference data for a symbol
func (a *Accessor) Overview(ctx context.Context, symbol string) (*alphavantage.CompanyOverview, error) {
	symbol = normalize(symbol)
	o, err := a.source.GetCompanyOverview(ctx, symbol)
	if err != nil {
		return nil, domain.Errorf(domain.KindDataUnavailable, err, "overview unavailable for %s", symbol)
	}
	return o, nil
}

// Search runs a free-text ticker search upstream
func (a *Accessor) Search(ctx context.Context, keywords string) ([]alphavantage.SymbolMatch, error) {
	matches, err := a.source.SymbolSearch(ctx, keywords)
	if err != nil {
		return nil, domain.Errorf(domain.KindDataUnavailable, err, "symbol search failed for %q", keywords)
	}
	return matches, nil
}
