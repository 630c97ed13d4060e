package analytics

import (
	"context"
	"strings"

	"github.com/aristath/appa/internal/domain"
	"github.com/aristath/appa/internal/modules/marketdata"
)

// History returns the window's closes oldest first. The year window uses monthly
// closes, the shorter ones daily closes.
func (s *Service) History(ctx context.Context, symbol string, window HistoryWindow) (marketdata.Series, error) {
	if _, err := ParseHistoryWindow(string(window)); err != nil {
		return nil, err
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	source := marketdata.WindowDailyCompact
	if window == HistoryOneYear {
		source = marketdata.WindowMonthly
	}

	series, err := s.source.ClosingSeries(ctx, symbol, source)
	if err != nil {
		return nil, err
	}

	since := window.start(s.today()).Format(domain.DateLayout)
	points := series.Since(since)
	if len(points) == 0 {
		return nil, domain.Errorf(domain.KindNoDataForPeriod, nil, "no %s closes for %s since %s", window, symbol, since)
	}
	return points.Chronological(), nil
}
