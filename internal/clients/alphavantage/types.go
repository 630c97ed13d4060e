package alphavantage

import (
	"context"
	"time"
)

// OutputSize selects how much daily history TIME_SERIES_DAILY returns
type OutputSize string

const (
	// OutputCompact returns roughly the latest 100 trading days
	OutputCompact OutputSize = "compact"
	// OutputFull returns the full history
	OutputFull OutputSize = "full"
)

// DailyPrice is one bar of a daily or monthly series
type DailyPrice struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// GlobalQuote is the GLOBAL_QUOTE payload
type GlobalQuote struct {
	Symbol           string
	Open             float64
	High             float64
	Low              float64
	Price            float64
	Volume           int64
	LatestTradingDay time.Time
	PreviousClose    float64
	Change           float64
	ChangePercent    float64
}

// SymbolMatch is one SYMBOL_SEARCH result
type SymbolMatch struct {
	Symbol      string
	Name        string
	Type        string
	Region      string
	MarketOpen  string
	MarketClose string
	Timezone    string
	Currency    string
	MatchScore  float64
}

// CompanyOverview is the OVERVIEW payload, reduced to the fields the engine uses
type CompanyOverview struct {
	Symbol               string
	AssetType            string
	Name                 string
	Description          string
	Exchange             string
	Currency             string
	Country              string
	Sector               string
	Industry             string
	MarketCapitalization int64
	PERatio              *float64
	EPS                  *float64
	DividendYield        *float64
	FiftyTwoWeekHigh     *float64
	FiftyTwoWeekLow      *float64
	Beta                 *float64
}

// CacheTTL configures how long responses stay in the in-process cache
type CacheTTL struct {
	Fundamentals time.Duration
	PriceData    time.Duration
	Search       time.Duration
}

// DefaultCacheTTL returns the default TTLs
func DefaultCacheTTL() CacheTTL {
	return CacheTTL{
		Fundamentals: 24 * time.Hour,
		PriceData:    15 * time.Minute,
		Search:       time.Hour,
	}
}

// ClientInterface is the market-data surface the engine consumes
type ClientInterface interface {
	GetGlobalQuote(ctx context.Context, symbol string) (*GlobalQuote, error)
	GetDailyPrices(ctx context.Context, symbol string, size OutputSize) ([]DailyPrice, error)
	GetMonthlyPrices(ctx context.Context, symbol string) ([]DailyPrice, error)
	GetCompanyOverview(ctx context.Context, symbol string) (*CompanyOverview, error)
	SymbolSearch(ctx context.Context, keywords string) ([]SymbolMatch, error)
}
