package testing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aristath/appa/internal/clients/alphavantage"
)

// compactSize mirrors the upstream compact window
const compactSize = 100

// FakeMarketData is an in-memory alphavantage.ClientInterface with
// deterministic quotes and series.
type FakeMarketData struct {
	mu        sync.Mutex
	quotes    map[string]*alphavantage.GlobalQuote
	daily     map[string][]alphavantage.DailyPrice
	monthly   map[string][]alphavantage.DailyPrice
	overviews map[string]*alphavantage.CompanyOverview
	matches   map[string][]alphavantage.SymbolMatch
	errs      map[string]error
	calls     map[string]int
}

var _ alphavantage.ClientInterface = (*FakeMarketData)(nil)

// NewFakeMarketData creates an empty fake
func NewFakeMarketData() *FakeMarketData {
	return &FakeMarketData{
		quotes:    make(map[string]*alphavantage.GlobalQuote),
		daily:     make(map[string][]alphavantage.DailyPrice),
		monthly:   make(map[string][]alphavantage.DailyPrice),
		overviews: make(map[string]*alphavantage.CompanyOverview),
		matches:   make(map[string][]alphavantage.SymbolMatch),
		errs:      make(map[string]error),
		calls:     make(map[string]int),
	}
}

// SetPrice sets the current and previous-close price of a symbol
func (f *FakeMarketData) SetPrice(symbol string, price, previousClose float64) *FakeMarketData {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quotes[symbol] = &alphavantage.GlobalQuote{
		Symbol:        symbol,
		Price:         price,
		PreviousClose: previousClose,
	}
	return f
}

// SetDaily sets the full daily series from date -> close
func (f *FakeMarketData) SetDaily(symbol string, closes map[string]float64) *FakeMarketData {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.daily[symbol] = toBars(closes)
	return f
}

// SetMonthly sets the monthly series from date -> close
func (f *FakeMarketData) SetMonthly(symbol string, closes map[string]float64) *FakeMarketData {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.monthly[symbol] = toBars(closes)
	return f
}

// SetOverview sets the reference data of a symbol
func (f *FakeMarketData) SetOverview(symbol, name, sector, industry, exchange, country string) *FakeMarketData {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overviews[symbol] = &alphavantage.CompanyOverview{
		Symbol:   symbol,
		Name:     name,
		Sector:   sector,
		Industry: industry,
		Exchange: exchange,
		Country:  country,
	}
	return f
}

// SetSearch sets the results returned for a keyword
func (f *FakeMarketData) SetSearch(keywords string, matches []alphavantage.SymbolMatch) *FakeMarketData {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matches[strings.ToLower(keywords)] = matches
	return f
}

// FailOn makes every call for symbol return err
func (f *FakeMarketData) FailOn(symbol string, err error) *FakeMarketData {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[symbol] = err
	return f
}

// Calls returns how many times a method was called for a symbol, e.g. Calls("quote", "IBM")
func (f *FakeMarketData) Calls(method, symbol string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method+":"+symbol]
}

func (f *FakeMarketData) record(method, symbol string) error {
	f.calls[method+":"+symbol]++
	return f.errs[symbol]
}

// GetGlobalQuote implements alphavantage.ClientInterface
func (f *FakeMarketData) GetGlobalQuote(ctx context.Context, symbol string) (*alphavantage.GlobalQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("quote", symbol); err != nil {
		return nil, err
	}
	q, ok := f.quotes[symbol]
	if !ok {
		return nil, alphavantage.ErrSymbolNotFound{Symbol: symbol}
	}
	cp := *q
	return &cp, nil
}

// GetDailyPrices implements alphavantage.ClientInterface
func (f *FakeMarketData) GetDailyPrices(ctx context.Context, symbol string, size alphavantage.OutputSize) ([]alphavantage.DailyPrice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("daily", symbol); err != nil {
		return nil, err
	}
	bars, ok := f.daily[symbol]
	if !ok {
		return nil, alphavantage.ErrSymbolNotFound{Symbol: symbol}
	}
	if size != alphavantage.OutputFull && len(bars) > compactSize {
		bars = bars[:compactSize]
	}
	return append([]alphavantage.DailyPrice(nil), bars...), nil
}

// GetMonthlyPrices implements alphavantage.ClientInterface
func (f *FakeMarketData) GetMonthlyPrices(ctx context.Context, symbol string) ([]alphavantage.DailyPrice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("monthly", symbol); err != nil {
		return nil, err
	}
	bars, ok := f.monthly[symbol]
	if !ok {
		return nil, alphavantage.ErrSymbolNotFound{Symbol: symbol}
	}
	return append([]alphavantage.DailyPrice(nil), bars...), nil
}

// GetCompanyOverview implements alphavantage.ClientInterface
func (f *FakeMarketData) GetCompanyOverview(ctx context.Context, symbol string) (*alphavantage.CompanyOverview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("overview", symbol); err != nil {
		return nil, err
	}
	o, ok := f.overviews[symbol]
	if !ok {
		return nil, alphavantage.ErrSymbolNotFound{Symbol: symbol}
	}
	cp := *o
	return &cp, nil
}

// SymbolSearch implements alphavantage.ClientInterface
func (f *FakeMarketData) SymbolSearch(ctx context.Context, keywords string) ([]alphavantage.SymbolMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["search:"+keywords]++
	return f.matches[strings.ToLower(keywords)], nil
}

func toBars(closes map[string]float64) []alphavantage.DailyPrice {
	bars := make([]alphavantage.DailyPrice, 0, len(closes))
	for date, c := range closes {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			panic(fmt.Sprintf("fake market data: bad date %q", date))
		}
		bars = append(bars, alphavantage.DailyPrice{Date: d, Open: c, High: c, Low: c, Close: c})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.After(bars[j].Date) })
	return bars
}

// DailyCloses builds a date -> close map of consecutive calendar days ending at end (inclusive),
// skipping weekends, using closes in chronological order.
func DailyCloses(end time.Time, closes ...float64) map[string]float64 {
	out := make(map[string]float64, len(closes))
	d := end
	for i := len(closes) - 1; i >= 0; {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			out[d.Format("2006-01-02")] = closes[i]
			i--
		}
		d = d.AddDate(0, 0, -1)
	}
	return out
}

// MonthlyCloses builds a month-end date -> close map ending at the month of end,
// using closes in chronological order.
func MonthlyCloses(end time.Time, closes ...float64) map[string]float64 {
	out := make(map[string]float64, len(closes))
	first := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := len(closes) - 1; i >= 0; i-- {
		monthEnd := first.AddDate(0, 1, -1)
		if monthEnd.After(end) {
			monthEnd = end
		}
		out[monthEnd.Format("2006-01-02")] = closes[i]
		first = first.AddDate(0, -1, 0)
	}
	return out
}
