package analytics

import (
	"context"
	"strings"

	"github.com/aristath/appa/internal/domain"
	"github.com/aristath/appa/internal/modules/marketdata"
	"github.com/aristath/appa/pkg/formulas"
)

// Volatility is the population standard deviation of consecutive returns
type Volatility struct {
	Symbol string         `json:"symbol" msgpack:"symbol"`
	Kind   VolatilityKind `json:"kind" msgpack:"kind"`
	Value  float64        `json:"value" msgpack:"value"`
	Points int            `json:"points" msgpack:"points"`
}

// PortfolioVolatility is the weight-linear combination of holding volatilities.
// It ignores covariance between holdings.
type PortfolioVolatility struct {
	PortfolioID int64              `json:"portfolio_id"`
	Kind        VolatilityKind     `json:"kind"`
	Value       float64            `json:"value"`
	Components  map[string]float64 `json:"components"`
}

// Volatility dispatches on kind
func (s *Service) Volatility(ctx context.Context, symbol string, kind VolatilityKind) (*Volatility, error) {
	switch kind {
	case VolatilityDaily:
		return s.DailyVolatility(ctx, symbol)
	case VolatilityMonthly:
		return s.MonthlyVolatility(ctx, symbol)
	case VolatilityAnnualized:
		return s.AnnualizedVolatility(ctx, symbol)
	default:
		_, err := ParseVolatilityKind(string(kind))
		return nil, err
	}
}

// DailyVolatility uses the daily closes of the last month
func (s *Service) DailyVolatility(ctx context.Context, symbol string) (*Volatility, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	v, err := cached(ctx, s, symbol, "volatility:daily", func() (Volatility, error) {
		since := s.today().AddDate(0, -1, 0).Format(domain.DateLayout)
		return s.seriesVolatility(ctx, symbol, VolatilityDaily, marketdata.WindowDailyCompact, since)
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// MonthlyVolatility uses the monthly closes of the last year
func (s *Service) MonthlyVolatility(ctx context.Context, symbol string) (*Volatility, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	v, err := cached(ctx, s, symbol, "volatility:monthly", func() (Volatility, error) {
		since := s.today().AddDate(-1, 0, 0).Format(domain.DateLayout)
		return s.seriesVolatility(ctx, symbol, VolatilityMonthly, marketdata.WindowMonthly, since)
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// AnnualizedVolatility scales monthly volatility by sqrt(12)
func (s *Service) AnnualizedVolatility(ctx context.Context, symbol string) (*Volatility, error) {
	m, err := s.MonthlyVolatility(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return &Volatility{
		Symbol: m.Symbol,
		Kind:   VolatilityAnnualized,
		Value:  formulas.Annualize(m.Value),
		Points: m.Points,
	}, nil
}

func (s *Service) seriesVolatility(ctx context.Context, symbol string, kind VolatilityKind, window marketdata.Window, since string) (Volatility, error) {
	series, err := s.source.ClosingSeries(ctx, symbol, window)
	if err != nil {
		return Volatility{}, err
	}

	points := series.Since(since).Chronological()
	if len(points) < 2 {
		return Volatility{}, domain.Errorf(domain.KindInsufficientData, nil,
			"%s volatility for %s needs at least 2 closes since %s, got %d", kind, symbol, since, len(points))
	}

	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = p.Close
	}

	return Volatility{
		Symbol: symbol,
		Kind:   kind,
		Value:  formulas.PopStdDev(formulas.CalculateReturns(closes)),
		Points: len(points),
	}, nil
}

// PortfolioMonthlyVolatility is sum(weight * monthly volatility) over the holdings
func (s *Service) PortfolioMonthlyVolatility(ctx context.Context, portfolioID int64) (*PortfolioVolatility, error) {
	weights, err := s.weights.StockWeights(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	out := &PortfolioVolatility{
		PortfolioID: portfolioID,
		Kind:        VolatilityMonthly,
		Components:  make(map[string]float64, len(weights)),
	}
	for _, symbol := range sortedSymbols(weights) {
		v, err := s.MonthlyVolatility(ctx, symbol)
		if err != nil {
			return nil, err
		}
		out.Components[symbol] = v.Value
		out.Value += weights[symbol] * v.Value
	}

	s.log.Debug().Int64("portfolio_id", portfolioID).Float64("volatility", out.Value).Msg("Portfolio monthly volatility")
	return out, nil
}

// PortfolioAnnualizedVolatility scales the portfolio monthly volatility by sqrt(12)
func (s *Service) PortfolioAnnualizedVolatility(ctx context.Context, portfolioID int64) (*PortfolioVolatility, error) {
	v, err := s.PortfolioMonthlyVolatility(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	v.Kind = VolatilityAnnualized
	v.Value = formulas.Annualize(v.Value)
	return v, nil
}
