package trading

import (
	"math"
	"sort"
	"strings"

	"github.com/aristath/appa/internal/domain"
)

// maxShares is 2^63 as a float64; larger deltas cannot be held as int64
const maxShares = float64(1 << 63)

// Leg is one trade the executor will attempt
type Leg struct {
	Symbol string `json:"symbol"`
	Side   Side   `json:"side"`
	Delta  int64  `json:"delta"`
}

// Quantity is the absolute number of shares traded
func (l Leg) Quantity() int64 {
	if l.Delta < 0 {
		return -l.Delta
	}
	return l.Delta
}

// BuildLegs turns share adjustments into an ordered list of legs: every sell
// sorted by symbol, then every buy sorted by symbol. CASH and zero deltas are
// dropped. Non-integer deltas are rejected.
func BuildLegs(adjustments map[string]float64) ([]Leg, error) {
	var sells, buys []Leg
	seen := make(map[string]bool, len(adjustments))

	for raw, delta := range adjustments {
		symbol := strings.ToUpper(strings.TrimSpace(raw))
		if symbol == domain.CashGroup {
			continue
		}
		if symbol == "" {
			return nil, domain.Errorf(domain.KindInvalidArgument, nil, "adjustment with empty symbol")
		}
		if seen[symbol] {
			return nil, domain.Errorf(domain.KindInvalidArgument, nil, "duplicate adjustment for %s", symbol)
		}
		seen[symbol] = true

		if math.IsNaN(delta) || math.IsInf(delta, 0) || delta != math.Trunc(delta) {
			return nil, domain.Errorf(domain.KindInvalidArgument, nil, "adjustment for %s must be a whole number of shares, got %v", symbol, delta)
		}
		if delta == 0 {
			continue
		}
		// int64 conversion is only defined inside (-2^63, 2^63)
		if math.Abs(delta) >= maxShares {
			return nil, domain.Errorf(domain.KindInvalidArgument, nil, "adjustment for %s is out of range: %v", symbol, delta)
		}

		leg := Leg{Symbol: symbol, Delta: int64(delta)}
		if leg.Delta < 0 {
			leg.Side = SideSell
			sells = append(sells, leg)
		} else {
			leg.Side = SideBuy
			buys = append(buys, leg)
		}
	}

	sort.Slice(sells, func(i, j int) bool { return sells[i].Symbol < sells[j].Symbol })
	sort.Slice(buys, func(i, j int) bool { return buys[i].Symbol < buys[j].Symbol })
	return append(sells, buys...), nil
}
