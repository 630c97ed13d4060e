package analytics

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/aristath/appa/internal/domain"
	"github.com/aristath/appa/internal/modules/marketdata"
	"github.com/aristath/appa/pkg/formulas"
)

// maxPriceProbes bounds the backward walk of PriceAtDate
const maxPriceProbes = 10

// Reason tags returned by PriceAtDate
const (
	ReasonExactMatch       = "exact_match"
	ReasonTodayUnavailable = "today_unavailable_closest_found"
	ReasonWeekendOrHoliday = "weekend_or_holiday_closest_found"
)

// PeriodReturn is the simple return from an anchor close to the current price
type PeriodReturn struct {
	Symbol     string  `json:"symbol" msgpack:"symbol"`
	Period     Period  `json:"period" msgpack:"period"`
	Current    float64 `json:"current" msgpack:"current"`
	Anchor     float64 `json:"anchor" msgpack:"anchor"`
	AnchorDate string  `json:"anchor_date,omitempty" msgpack:"anchor_date"`
	Return     float64 `json:"return" msgpack:"return"`
}

// DatedPrice is a historical close resolved for a requested date
type DatedPrice struct {
	Symbol        string  `json:"symbol" msgpack:"symbol"`
	RequestedDate string  `json:"requested_date" msgpack:"requested_date"`
	Date          string  `json:"date" msgpack:"date"`
	Close         float64 `json:"close" msgpack:"close"`
	Reason        string  `json:"reason" msgpack:"reason"`
}

// Contribution is one holding's part of a portfolio return
type Contribution struct {
	Weight   float64 `json:"weight"`
	Return   float64 `json:"return"`
	Weighted float64 `json:"weighted"`
}

// PortfolioReturn is the weighted sum of the holdings' period returns
type PortfolioReturn struct {
	PortfolioID   int64                   `json:"portfolio_id"`
	Period        Period                  `json:"period"`
	Return        float64                 `json:"return"`
	Contributions map[string]Contribution `json:"contributions"`
}

// PeriodReturn computes (current - anchor) / anchor where the anchor is the
// close at or before now minus the period.
func (s *Service) PeriodReturn(ctx context.Context, symbol string, period Period) (*PeriodReturn, error) {
	if _, err := ParsePeriod(string(period)); err != nil {
		return nil, err
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	r, err := cached(ctx, s, symbol, "return:"+string(period), func() (PeriodReturn, error) {
		return s.computePeriodReturn(ctx, symbol, period)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Service) computePeriodReturn(ctx context.Context, symbol string, period Period) (PeriodReturn, error) {
	quote, err := s.source.Quote(ctx, symbol)
	if err != nil {
		return PeriodReturn{}, err
	}

	out := PeriodReturn{Symbol: symbol, Period: period, Current: quote.Price}
	today := s.today()

	switch period {
	case PeriodYesterday:
		out.Anchor = quote.PreviousClose

	case PeriodOneWeek:
		series, err := s.source.ClosingSeries(ctx, symbol, marketdata.WindowDailyCompact)
		if err != nil {
			return PeriodReturn{}, err
		}
		target := today.AddDate(0, 0, -7).Format(domain.DateLayout)
		p, ok := firstOnOrBefore(series, target, len(domain.DateLayout))
		if !ok {
			return PeriodReturn{}, domain.Errorf(domain.KindNoDataForPeriod, nil, "no daily close for %s on or before %s", symbol, target)
		}
		out.Anchor, out.AnchorDate = p.Close, p.Date

	case PeriodOneMonth, PeriodOneYear:
		series, err := s.source.ClosingSeries(ctx, symbol, marketdata.WindowMonthly)
		if err != nil {
			return PeriodReturn{}, err
		}
		months := 1
		if period == PeriodOneYear {
			months = 12
		}
		target := monthsBack(today, months)
		p, ok := firstOnOrBefore(series, target, len("2006-01"))
		if !ok {
			return PeriodReturn{}, domain.Errorf(domain.KindNoDataForPeriod, nil, "no monthly close for %s in or before %s", symbol, target)
		}
		out.Anchor, out.AnchorDate = p.Close, p.Date
	}

	if out.Anchor == 0 {
		return PeriodReturn{}, domain.Errorf(domain.KindDivisionByZero, nil, "anchor price for %s %s is zero", symbol, period)
	}
	out.Return = formulas.SimpleReturn(out.Anchor, out.Current)
	return out, nil
}

// firstOnOrBefore scans a newest-first series for the first point whose date
// prefix of the given length is not after target
func firstOnOrBefore(series marketdata.Series, target string, prefix int) (marketdata.Point, bool) {
	for _, p := range series {
		if len(p.Date) < prefix {
			continue
		}
		if p.Date[:prefix] <= target {
			return p, true
		}
	}
	return marketdata.Point{}, false
}

// PriceAtDate finds the close on date or, walking backward at most ten probes,
// the closest earlier trading day. A probe on a Monday jumps straight to the
// preceding Friday.
func (s *Service) PriceAtDate(ctx context.Context, symbol string, date time.Time) (*DatedPrice, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	today := s.today()
	requested := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, today.Location())
	if requested.After(today) {
		return nil, domain.Errorf(domain.KindInvalidArgument, nil,
			"date %s is in the future", requested.Format(domain.DateLayout))
	}
	reqStr := requested.Format(domain.DateLayout)

	p, err := cached(ctx, s, symbol, "price_at:"+reqStr, func() (DatedPrice, error) {
		series, err := s.source.ClosingSeries(ctx, symbol, marketdata.WindowDailyFull)
		if err != nil {
			return DatedPrice{}, err
		}
		closes := series.Index()

		probe := requested
		for i := 0; i < maxPriceProbes; i++ {
			probeStr := probe.Format(domain.DateLayout)
			if c, ok := closes[probeStr]; ok {
				reason := ReasonWeekendOrHoliday
				switch {
				case i == 0:
					reason = ReasonExactMatch
				case probe.Equal(today.AddDate(0, 0, -1)):
					reason = ReasonTodayUnavailable
				}
				return DatedPrice{Symbol: symbol, RequestedDate: reqStr, Date: probeStr, Close: c, Reason: reason}, nil
			}

			if probe.Weekday() == time.Monday {
				probe = probe.AddDate(0, 0, -3)
			} else {
				probe = probe.AddDate(0, 0, -1)
			}
		}
		return DatedPrice{}, domain.Errorf(domain.KindNoPriceFound, nil,
			"no close for %s within %d probes of %s", symbol, maxPriceProbes, reqStr)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PortfolioPeriodReturn weights each holding's period return by its share of position value
func (s *Service) PortfolioPeriodReturn(ctx context.Context, portfolioID int64, period Period) (*PortfolioReturn, error) {
	if _, err := ParsePeriod(string(period)); err != nil {
		return nil, err
	}

	weights, err := s.weights.StockWeights(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	out := &PortfolioReturn{
		PortfolioID:   portfolioID,
		Period:        period,
		Contributions: make(map[string]Contribution, len(weights)),
	}
	for _, symbol := range sortedSymbols(weights) {
		r, err := s.PeriodReturn(ctx, symbol, period)
		if err != nil {
			return nil, err
		}
		c := Contribution{Weight: weights[symbol], Return: r.Return, Weighted: weights[symbol] * r.Return}
		out.Contributions[symbol] = c
		out.Return += c.Weighted
	}
	return out, nil
}

func sortedSymbols(weights map[string]float64) []string {
	symbols := make([]string, 0, len(weights))
	for s := range weights {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
