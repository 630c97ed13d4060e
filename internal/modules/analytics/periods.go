package analytics

import (
	"strings"
	"time"

	"github.com/aristath/appa/internal/domain"
)

// Period is a lookback window for a point-to-point return
type Period string

const (
	PeriodYesterday Period = "yesterday"
	PeriodOneWeek   Period = "one_week"
	PeriodOneMonth  Period = "one_month"
	PeriodOneYear   Period = "one_year"
)

// ParsePeriod validates a return period name
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodYesterday, PeriodOneWeek, PeriodOneMonth, PeriodOneYear:
		return p, nil
	default:
		return "", domain.Errorf(domain.KindInvalidArgument, nil,
			"unknown period %q (want yesterday, one_week, one_month or one_year)", s)
	}
}

// VolatilityKind selects the sampling frequency of a volatility figure
type VolatilityKind string

const (
	VolatilityDaily      VolatilityKind = "daily"
	VolatilityMonthly    VolatilityKind = "monthly"
	VolatilityAnnualized VolatilityKind = "annualized"
)

// ParseVolatilityKind validates a volatility kind name
func ParseVolatilityKind(s string) (VolatilityKind, error) {
	switch k := VolatilityKind(strings.ToLower(strings.TrimSpace(s))); k {
	case VolatilityDaily, VolatilityMonthly, VolatilityAnnualized:
		return k, nil
	default:
		return "", domain.Errorf(domain.KindInvalidArgument, nil,
			"unknown volatility kind %q (want daily, monthly or annualized)", s)
	}
}

// HistoryWindow is a closing-price history range
type HistoryWindow string

const (
	HistoryOneWeek    HistoryWindow = "one_week"
	HistoryOneMonth   HistoryWindow = "one_month"
	HistoryOneQuarter HistoryWindow = "one_quarter"
	HistoryOneYear    HistoryWindow = "one_year"
)

// ParseHistoryWindow validates a history window name
func ParseHistoryWindow(s string) (HistoryWindow, error) {
	switch w := HistoryWindow(strings.ToLower(strings.TrimSpace(s))); w {
	case HistoryOneWeek, HistoryOneMonth, HistoryOneQuarter, HistoryOneYear:
		return w, nil
	default:
		return "", domain.Errorf(domain.KindInvalidArgument, nil,
			"unknown history window %q (want one_week, one_month, one_quarter or one_year)", s)
	}
}

// start returns the first date included in the window ending today
func (w HistoryWindow) start(today time.Time) time.Time {
	switch w {
	case HistoryOneWeek:
		return today.AddDate(0, 0, -7)
	case HistoryOneMonth:
		return today.AddDate(0, -1, 0)
	case HistoryOneQuarter:
		return today.AddDate(0, -3, 0)
	default:
		return today.AddDate(-1, 0, 0)
	}
}

// monthsBack returns the YYYY-MM of the first day of the month n months before today
func monthsBack(today time.Time, n int) string {
	return time.Date(today.Year(), today.Month()-time.Month(n), 1, 0, 0, 0, 0, today.Location()).Format("2006-01")
}
