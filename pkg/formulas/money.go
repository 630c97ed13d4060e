package formulas

import (
	"github.com/shopspring/decimal"
)

// RoundMoney rounds to cents, half away from zero
func RoundMoney(v float64) float64 {
	return RoundTo(v, 2)
}

// RoundTo rounds to the given number of decimal places, half away from zero
func RoundTo(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// ExactSum adds values in decimal so that e.g. 33.3 + 33.3 + 33.4 is exactly 100
func ExactSum(values ...float64) decimal.Decimal {
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return sum
}
