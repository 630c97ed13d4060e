package domain

import "context"

// PriceProvider returns the current market price of a symbol
type PriceProvider interface {
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
}

// HoldingsReader loads a portfolio and its positions with stock reference data.
// Implemented by the portfolio repository; consumed by allocation, analytics and rebalancing.
type HoldingsReader interface {
	GetPortfolio(ctx context.Context, id int64) (*Portfolio, error)
	GetHoldings(ctx context.Context, portfolioID int64) ([]Holding, error)
}

// AuditRecorder appends (actor, action) entries to the access log
type AuditRecorder interface {
	Record(ctx context.Context, actor, action string) error
}

// CacheInvalidator drops cached analytics derived from a symbol's prices
type CacheInvalidator interface {
	InvalidateSymbol(ctx context.Context, symbol string) error
}
