package portfolio

import (
	"context"
	"math"

	"github.com/aristath/appa/internal/domain"
	"github.com/aristath/appa/internal/modules/marketdata"
	"github.com/aristath/appa/pkg/formulas"
)

// PositionSummary is one valued position. Money figures are rounded to cents.
type PositionSummary struct {
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	Sector           string  `json:"sector"`
	Quantity         int64   `json:"quantity"`
	BuyPrice         float64 `json:"buy_price"`
	BuyDate          string  `json:"buy_date"`
	CurrentPrice     float64 `json:"current_price"`
	ActualValue      float64 `json:"actual_value"`
	ReturnValue      float64 `json:"return_value"`
	ReturnPct        float64 `json:"return_pct"`
	Weight           float64 `json:"weight"`
	WeightedReturn   float64 `json:"weighted_return"`
	AnnualisedReturn float64 `json:"annualised_return"`
	DaysHeld         int     `json:"days_held"`
}

// PortfolioSummary values a portfolio at current prices
type PortfolioSummary struct {
	PortfolioID      int64             `json:"portfolio_id"`
	Name             string            `json:"name"`
	Positions        []PositionSummary `json:"positions"`
	Invested         float64           `json:"invested"`
	CurrentValue     float64           `json:"current_value"`
	ReturnValue      float64           `json:"return_value"`
	ReturnPct        float64           `json:"return_pct"`
	RemainingCapital float64           `json:"remaining_capital"`
	TotalValue       float64           `json:"total_value"`
}

// GetPortfolioSummary values every position at its current price.
// An empty portfolio yields zero figures, not an error.
func (s *PortfolioService) GetPortfolioSummary(ctx context.Context, portfolioID int64) (*PortfolioSummary, error) {
	p, err := s.repo.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	holdings, err := s.repo.GetHoldings(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	book := marketdata.NewPriceBook(s.prices)
	prices := make([]float64, len(holdings))
	values := make([]float64, len(holdings))
	var invested, current float64
	for i, h := range holdings {
		price, err := book.Price(ctx, h.Symbol)
		if err != nil {
			return nil, err
		}
		prices[i] = price
		values[i] = price * float64(h.Quantity)
		invested += h.BuyPrice * float64(h.Quantity)
		current += values[i]
	}

	today := domain.Today(s.now())
	positions := make([]PositionSummary, 0, len(holdings))
	for i, h := range holdings {
		cost := h.BuyPrice * float64(h.Quantity)
		returnValue := values[i] - cost
		returnPct := returnValue / cost * 100

		weight := 0.0
		if current > 0 {
			weight = values[i] / current
		}

		days := int(math.Floor(today.Sub(domain.Today(h.BuyDate)).Hours() / 24))
		if days < 1 {
			days = 1
		}

		positions = append(positions, PositionSummary{
			Symbol:           h.Symbol,
			Name:             h.Stock.Name,
			Sector:           h.Stock.Sector,
			Quantity:         h.Quantity,
			BuyPrice:         formulas.RoundMoney(h.BuyPrice),
			BuyDate:          h.BuyDate.Format(domain.DateLayout),
			CurrentPrice:     formulas.RoundMoney(prices[i]),
			ActualValue:      formulas.RoundMoney(values[i]),
			ReturnValue:      formulas.RoundMoney(returnValue),
			ReturnPct:        formulas.RoundMoney(returnPct),
			Weight:           formulas.RoundTo(weight, 4),
			WeightedReturn:   formulas.RoundMoney(weight * returnPct),
			AnnualisedReturn: formulas.RoundMoney(formulas.AnnualisedReturn(h.BuyPrice, prices[i], days)),
			DaysHeld:         days,
		})
	}

	returnValue := current - invested
	returnPct := 0.0
	if invested > 0 {
		returnPct = returnValue / invested * 100
	}

	return &PortfolioSummary{
		PortfolioID:      p.ID,
		Name:             p.Name,
		Positions:        positions,
		Invested:         formulas.RoundMoney(invested),
		CurrentValue:     formulas.RoundMoney(current),
		ReturnValue:      formulas.RoundMoney(returnValue),
		ReturnPct:        formulas.RoundMoney(returnPct),
		RemainingCapital: formulas.RoundMoney(p.RemainingCapital),
		TotalValue:       formulas.RoundMoney(current + p.RemainingCapital),
	}, nil
}
