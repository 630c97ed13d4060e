package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// SMA returns the latest simple moving average over length closes.
// ok is false when there are fewer than length closes.
func SMA(closes []float64, length int) (value float64, ok bool) {
	if length < 1 || len(closes) < length {
		return 0, false
	}
	return last(talib.Sma(closes, length))
}

// EMA returns the latest exponential moving average, seeded with the SMA of the
// first length closes.
func EMA(closes []float64, length int) (value float64, ok bool) {
	if length < 1 || len(closes) < length {
		return 0, false
	}
	return last(talib.Ema(closes, length))
}

// RSI returns the latest Relative Strength Index (0-100) using Wilder smoothing.
// It needs at least length+1 closes.
func RSI(closes []float64, length int) (value float64, ok bool) {
	if length < 2 || len(closes) < length+1 {
		return 0, false
	}
	return last(talib.Rsi(closes, length))
}

func last(series []float64) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	v := series[len(series)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
