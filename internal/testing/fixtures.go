package testing

import (
	"time"

	"github.com/aristath/appa/internal/domain"
)

// NewStockFixtures returns reference data for a small, mixed universe
func NewStockFixtures() []domain.Stock {
	return []domain.Stock{
		{Symbol: "AAPL", Name: "Apple Inc", Sector: "Technology", Industry: "Consumer Electronics", Exchange: "NASDAQ", Country: "USA"},
		{Symbol: "MSFT", Name: "Microsoft Corporation", Sector: "Technology", Industry: "Software", Exchange: "NASDAQ", Country: "USA"},
		{Symbol: "JPM", Name: "JPMorgan Chase & Co", Sector: "Financial Services", Industry: "Banks", Exchange: "NYSE", Country: "USA"},
		{Symbol: "SAP", Name: "SAP SE", Sector: "Technology", Industry: "Software", Exchange: "NYSE", Country: "Germany"},
	}
}

// SeedOverviews registers the fixture stocks as overviews on the fake source
func SeedOverviews(f *FakeMarketData, stocks []domain.Stock) *FakeMarketData {
	for _, s := range stocks {
		f.SetOverview(s.Symbol, s.Name, s.Sector, s.Industry, s.Exchange, s.Country)
	}
	return f
}

// StockFixture returns the fixture stock with the given symbol
func StockFixture(symbol string) domain.Stock {
	for _, s := range NewStockFixtures() {
		if s.Symbol == symbol {
			return s
		}
	}
	return domain.Stock{Symbol: symbol}
}

// NewHolding builds a holding of a fixture stock bought on 2026-01-05
func NewHolding(portfolioID int64, symbol string, quantity int64, buyPrice float64) domain.Holding {
	return domain.Holding{
		Position: domain.Position{
			PortfolioID: portfolioID,
			Symbol:      symbol,
			Quantity:    quantity,
			BuyPrice:    buyPrice,
			BuyDate:     time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		},
		Stock: StockFixture(symbol),
	}
}
