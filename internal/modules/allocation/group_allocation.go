// Package allocation values holdings at current prices and aggregates them
// into weights and group allocations along a chosen dimension.
package allocation

import (
	"context"
	"strings"

	"github.com/aristath/appa/internal/domain"
	"github.com/aristath/appa/internal/modules/marketdata"
	"github.com/rs/zerolog"
)

// Valuation is a portfolio priced once: every holding with its current price and value
type Valuation struct {
	Portfolio domain.Portfolio
	Holdings  []domain.Holding
	Prices    map[string]float64
	Values    map[string]float64
	Total     float64 // sum of position values, excluding cash
}

// StockSnapshot is one holding as seen by the grouping summary
type StockSnapshot struct {
	Quantity     int64   `json:"quantity"`
	CurrentPrice float64 `json:"current_price"`
	Sector       string  `json:"sector"`
	Industry     string  `json:"industry"`
	Exchange     string  `json:"exchange"`
	Country      string  `json:"country"`
}

// GroupAllocation is a group's value and its share of the portfolio total
type GroupAllocation struct {
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

// GroupingSummary is a portfolio's allocation along one dimension, cash included
type GroupingSummary struct {
	PortfolioID int64                      `json:"portfolio_id"`
	Dimension   Dimension                  `json:"dimension"`
	TotalValue  float64                    `json:"total_value"`
	Stocks      map[string]StockSnapshot   `json:"stocks"`
	Groups      map[string]GroupAllocation `json:"groups"`
}

// Engine computes weights and group allocations
type Engine struct {
	holdings domain.HoldingsReader
	prices   domain.PriceProvider
	log      zerolog.Logger
}

// NewEngine creates a new allocation engine
func NewEngine(holdings domain.HoldingsReader, prices domain.PriceProvider, log zerolog.Logger) *Engine {
	return &Engine{
		holdings: holdings,
		prices:   prices,
		log:      log.With().Str("service", "allocation").Logger(),
	}
}

// Valuate prices every holding once. Price lookup errors propagate unchanged.
func (e *Engine) Valuate(ctx context.Context, portfolioID int64) (*Valuation, error) {
	p, err := e.holdings.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	holdings, err := e.holdings.GetHoldings(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	book := marketdata.NewPriceBook(e.prices)
	v := &Valuation{
		Portfolio: *p,
		Holdings:  holdings,
		Values:    make(map[string]float64, len(holdings)),
	}
	for _, h := range holdings {
		price, err := book.Price(ctx, h.Symbol)
		if err != nil {
			return nil, err
		}
		value := float64(h.Quantity) * price
		v.Values[strings.ToUpper(h.Symbol)] = value
		v.Total += value
	}
	v.Prices = book.Snapshot()

	e.log.Debug().
		Int64("portfolio_id", portfolioID).
		Int("holdings", len(holdings)).
		Float64("total", v.Total).
		Msg("Portfolio valuated")
	return v, nil
}

// Weights returns each symbol's share of the position total
func (v *Valuation) Weights() (map[string]float64, error) {
	if v.Total == 0 {
		return nil, domain.Errorf(domain.KindEmptyPortfolio, nil, "portfolio %d has no valued positions", v.Portfolio.ID)
	}
	weights := make(map[string]float64, len(v.Values))
	for symbol, value := range v.Values {
		weights[symbol] = value / v.Total
	}
	return weights, nil
}

// ValueByGroup sums position values by the group groupOf assigns
func (v *Valuation) ValueByGroup(groupOf GroupFunc) map[string]float64 {
	groups := make(map[string]float64)
	for _, h := range v.Holdings {
		groups[groupOf(h.Stock)] += v.Values[strings.ToUpper(h.Symbol)]
	}
	return groups
}

// Summarize builds the grouping summary with the CASH group included
func (v *Valuation) Summarize(dim Dimension) (*GroupingSummary, error) {
	groupOf, err := dim.Grouper()
	if err != nil {
		return nil, err
	}
	values := v.ValueByGroup(groupOf)
	values[domain.CashGroup] += v.Portfolio.RemainingCapital

	total := v.Total + v.Portfolio.RemainingCapital
	groups := make(map[string]GroupAllocation, len(values))
	for name, value := range values {
		pct := 0.0
		if total > 0 {
			pct = value / total * 100
		}
		groups[name] = GroupAllocation{Value: value, Percentage: pct}
	}

	stocks := make(map[string]StockSnapshot, len(v.Holdings))
	for _, h := range v.Holdings {
		symbol := strings.ToUpper(h.Symbol)
		stocks[symbol] = StockSnapshot{
			Quantity:     h.Quantity,
			CurrentPrice: v.Prices[symbol],
			Sector:       h.Stock.Sector,
			Industry:     h.Stock.Industry,
			Exchange:     h.Stock.Exchange,
			Country:      h.Stock.Country,
		}
	}

	return &GroupingSummary{
		PortfolioID: v.Portfolio.ID,
		Dimension:   dim,
		TotalValue:  total,
		Stocks:      stocks,
		Groups:      groups,
	}, nil
}

// StockWeight returns one symbol's share of the portfolio's position value
func (e *Engine) StockWeight(ctx context.Context, portfolioID int64, symbol string) (float64, error) {
	weights, err := e.StockWeights(ctx, portfolioID)
	if err != nil {
		return 0, err
	}
	w, ok := weights[strings.ToUpper(symbol)]
	if !ok {
		return 0, domain.Errorf(domain.KindEntityNotFound, nil, "portfolio %d holds no %s", portfolioID, strings.ToUpper(symbol))
	}
	return w, nil
}

// StockWeights returns every symbol's share of the portfolio's position value
func (e *Engine) StockWeights(ctx context.Context, portfolioID int64) (map[string]float64, error) {
	v, err := e.Valuate(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	return v.Weights()
}

// ValueByGroup sums current position values by group, cash excluded
func (e *Engine) ValueByGroup(ctx context.Context, portfolioID int64, dim Dimension) (map[string]float64, error) {
	dim, err := ParseDimension(string(dim))
	if err != nil {
		return nil, err
	}
	groupOf, err := dim.Grouper()
	if err != nil {
		return nil, err
	}
	v, err := e.Valuate(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	return v.ValueByGroup(groupOf), nil
}

// GroupingSummary returns the portfolio's allocation along dim with cash as its own group
func (e *Engine) GroupingSummary(ctx context.Context, portfolioID int64, dim Dimension) (*GroupingSummary, error) {
	dim, err := ParseDimension(string(dim))
	if err != nil {
		return nil, err
	}
	v, err := e.Valuate(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	return v.Summarize(dim)
}
