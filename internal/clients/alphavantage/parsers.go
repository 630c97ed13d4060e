package alphavantage

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	keyDailySeries   = "Time Series (Daily)"
	keyMonthlySeries = "Monthly Time Series"
)

func parseFloat64(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	switch s {
	case "", "None", "null", "-":
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseFloat64Ptr(s string) *float64 {
	switch strings.TrimSpace(s) {
	case "", "None", "null", "-":
		return nil
	}
	v := parseFloat64(s)
	return &v
}

func parseInt64(s string) int64 {
	s = strings.TrimSpace(s)
	switch s {
	case "", "None", "null", "-":
		return 0
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	// Values like "1.5E10" or "123.45"
	return int64(math.Trunc(parseFloat64(s)))
}

func parseDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}

type seriesBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// parseSeries decodes a date-keyed bar object and returns it sorted newest first
func parseSeries(data []byte, key string) ([]DailyPrice, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode series: %w", err)
	}

	body, ok := raw[key]
	if !ok {
		return nil, fmt.Errorf("response has no %q section", key)
	}

	var bars map[string]seriesBar
	if err := json.Unmarshal(body, &bars); err != nil {
		return nil, fmt.Errorf("failed to decode %q: %w", key, err)
	}

	prices := make([]DailyPrice, 0, len(bars))
	for date, bar := range bars {
		d := parseDate(date)
		if d.IsZero() {
			continue
		}
		prices = append(prices, DailyPrice{
			Date:   d,
			Open:   parseFloat64(bar.Open),
			High:   parseFloat64(bar.High),
			Low:    parseFloat64(bar.Low),
			Close:  parseFloat64(bar.Close),
			Volume: parseInt64(bar.Volume),
		})
	}

	sort.Slice(prices, func(i, j int) bool {
		return prices[i].Date.After(prices[j].Date)
	})

	return prices, nil
}

func parseDailyTimeSeries(data []byte) ([]DailyPrice, error) {
	return parseSeries(data, keyDailySeries)
}

func parseMonthlyTimeSeries(data []byte) ([]DailyPrice, error) {
	return parseSeries(data, keyMonthlySeries)
}

func parseGlobalQuote(data []byte) (*GlobalQuote, error) {
	var raw struct {
		Quote map[string]string `json:"Global Quote"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode global quote: %w", err)
	}
	if len(raw.Quote) == 0 {
		return nil, fmt.Errorf("empty global quote")
	}

	q := raw.Quote
	return &GlobalQuote{
		Symbol:           q["01. symbol"],
		Open:             parseFloat64(q["02. open"]),
		High:             parseFloat64(q["03. high"]),
		Low:              parseFloat64(q["04. low"]),
		Price:            parseFloat64(q["05. price"]),
		Volume:           parseInt64(q["06. volume"]),
		LatestTradingDay: parseDate(q["07. latest trading day"]),
		PreviousClose:    parseFloat64(q["08. previous close"]),
		Change:           parseFloat64(q["09. change"]),
		ChangePercent:    parseFloat64(q["10. change percent"]),
	}, nil
}

func parseSymbolSearch(data []byte) ([]SymbolMatch, error) {
	var raw struct {
		BestMatches []map[string]string `json:"bestMatches"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode symbol search: %w", err)
	}

	matches := make([]SymbolMatch, 0, len(raw.BestMatches))
	for _, m := range raw.BestMatches {
		matches = append(matches, SymbolMatch{
			Symbol:      m["1. symbol"],
			Name:        m["2. name"],
			Type:        m["3. type"],
			Region:      m["4. region"],
			MarketOpen:  m["5. marketOpen"],
			MarketClose: m["6. marketClose"],
			Timezone:    m["7. timezone"],
			Currency:    m["8. currency"],
			MatchScore:  parseFloat64(m["9. matchScore"]),
		})
	}
	return matches, nil
}

func parseCompanyOverview(data []byte) (*CompanyOverview, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode company overview: %w", err)
	}
	if raw["Symbol"] == "" {
		return nil, fmt.Errorf("empty company overview")
	}

	return &CompanyOverview{
		Symbol:               raw["Symbol"],
		AssetType:            raw["AssetType"],
		Name:                 raw["Name"],
		Description:          raw["Description"],
		Exchange:             raw["Exchange"],
		Currency:             raw["Currency"],
		Country:              raw["Country"],
		Sector:               raw["Sector"],
		Industry:             raw["Industry"],
		MarketCapitalization: parseInt64(raw["MarketCapitalization"]),
		PERatio:              parseFloat64Ptr(raw["PERatio"]),
		EPS:                  parseFloat64Ptr(raw["EPS"]),
		DividendYield:        parseFloat64Ptr(raw["DividendYield"]),
		FiftyTwoWeekHigh:     parseFloat64Ptr(raw["52WeekHigh"]),
		FiftyTwoWeekLow:      parseFloat64Ptr(raw["52WeekLow"]),
		Beta:                 parseFloat64Ptr(raw["Beta"]),
	}, nil
}
