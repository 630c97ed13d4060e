package domain

import "time"

// CashGroup is the synthetic allocation bucket holding a portfolio's remaining capital
const CashGroup = "CASH"

// DateLayout is the ISO date format used for series keys and buy dates
const DateLayout = "2006-01-02"

// Stock is immutable reference data fetched once from the market-data source
type Stock struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Sector    string    `json:"sector"`
	Industry  string    `json:"industry"`
	Exchange  string    `json:"exchange"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"created_at"`
}

// Portfolio holds a cash balance and a set of positions.
// Market value is never stored; it is recomputed from current prices.
type Portfolio struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Owner            string    `json:"owner"`
	RemainingCapital float64   `json:"remaining_capital"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Position is one portfolio's holding of one stock.
// At most one position exists per (PortfolioID, Symbol).
type Position struct {
	PortfolioID int64     `json:"portfolio_id"`
	Symbol      string    `json:"symbol"`
	Quantity    int64     `json:"quantity"`
	BuyPrice    float64   `json:"buy_price"`
	BuyDate     time.Time `json:"buy_date"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Holding is a position joined with its stock reference data
type Holding struct {
	Position
	Stock Stock `json:"stock"`
}

// Today truncates t to midnight in its own location
func Today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
