// Package formulas holds the numeric primitives used by the analytics engine.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// MonthsPerYear scales monthly volatility to an annual figure
const MonthsPerYear = 12

// PopStdDev calculates the population standard deviation (divides by n, not n-1)
func PopStdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.PopStdDev(data, nil)
}

// CalculateReturns converts chronologically ordered prices to percentage returns
// Returns[i] = (Price[i+1] - Price[i]) / Price[i]
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}

// Annualize scales a monthly volatility by sqrt(12)
func Annualize(monthlyVolatility float64) float64 {
	return monthlyVolatility * math.Sqrt(MonthsPerYear)
}

// SimpleReturn is (current - anchor) / anchor. The caller must reject a zero anchor.
func SimpleReturn(anchor, current float64) float64 {
	return (current - anchor) / anchor
}

// AnnualisedReturn compounds the holding-period growth to a yearly rate, in percent
// Formula: ((current / buy) ^ (365 / days) - 1) * 100
func AnnualisedReturn(buyPrice, currentPrice float64, daysHeld int) float64 {
	if buyPrice <= 0 || currentPrice <= 0 {
		return 0
	}
	if daysHeld < 1 {
		daysHeld = 1
	}
	return (math.Pow(currentPrice/buyPrice, 365/float64(daysHeld)) - 1) * 100
}
