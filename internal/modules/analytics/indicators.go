package analytics

import (
	"context"
	"fmt"
	"strings"

	"github.com/aristath/appa/internal/domain"
	"github.com/aristath/appa/internal/modules/marketdata"
	"github.com/aristath/appa/pkg/formulas"
)

// Indicator length bounds
const (
	DefaultIndicatorLength = 14
	maxIndicatorLength     = 50
)

// Indicators holds trend indicators computed over recent daily closes
type Indicators struct {
	Symbol    string  `json:"symbol"`
	AsOf      string  `json:"as_of"`
	Length    int     `json:"length"`
	LastClose float64 `json:"last_close"`
	SMA       float64 `json:"sma"`
	EMA       float64 `json:"ema"`
	RSI       float64 `json:"rsi"`
	Points    int     `json:"points"`
}

// Indicators computes SMA, EMA and RSI over the compact daily series
func (s *Service) Indicators(ctx context.Context, symbol string, length int) (*Indicators, error) {
	if length < 2 || length > maxIndicatorLength {
		return nil, domain.Errorf(domain.KindInvalidArgument, nil, "indicator length must be between 2 and %d, got %d", maxIndicatorLength, length)
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	v, err := cached(ctx, s, symbol, fmt.Sprintf("indicators:%d", length), func() (Indicators, error) {
		return s.computeIndicators(ctx, symbol, length)
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Service) computeIndicators(ctx context.Context, symbol string, length int) (Indicators, error) {
	series, err := s.source.ClosingSeries(ctx, symbol, marketdata.WindowDailyCompact)
	if err != nil {
		return Indicators{}, err
	}

	points := series.Chronological()
	if len(points) < length+1 {
		return Indicators{}, domain.Errorf(domain.KindInsufficientData, nil,
			"%d closes for %s, need %d", len(points), symbol, length+1)
	}
	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = p.Close
	}

	out := Indicators{
		Symbol:    symbol,
		AsOf:      points[len(points)-1].Date,
		Length:    length,
		LastClose: closes[len(closes)-1],
		Points:    len(closes),
	}

	var ok bool
	if out.SMA, ok = formulas.SMA(closes, length); !ok {
		return Indicators{}, domain.Errorf(domain.KindInsufficientData, nil, "cannot compute SMA(%d) for %s", length, symbol)
	}
	if out.EMA, ok = formulas.EMA(closes, length); !ok {
		return Indicators{}, domain.Errorf(domain.KindInsufficientData, nil, "cannot compute EMA(%d) for %s", length, symbol)
	}
	if out.RSI, ok = formulas.RSI(closes, length); !ok {
		return Indicators{}, domain.Errorf(domain.KindInsufficientData, nil, "cannot compute RSI(%d) for %s", length, symbol)
	}
	return out, nil
}
