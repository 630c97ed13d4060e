package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSMA(t *testing.T) {
	v, ok := SMA([]float64{1, 2, 3, 4, 5}, 5)
	assert.True(t, ok)
	assert.InDelta(t, 3.0, v, 1e-9)

	v, ok = SMA([]float64{1, 2, 3, 4, 5}, 2)
	assert.True(t, ok)
	assert.InDelta(t, 4.5, v, 1e-9)

	_, ok = SMA([]float64{1, 2}, 3)
	assert.False(t, ok)
}

func TestEMA_ConstantSeries(t *testing.T) {
	closes := []float64{10, 10, 10, 10, 10, 10, 10, 10}
	v, ok := EMA(closes, 3)
	assert.True(t, ok)
	assert.InDelta(t, 10.0, v, 1e-9)

	_, ok = EMA(closes, 20)
	assert.False(t, ok)
}

func TestRSI(t *testing.T) {
	rising := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	v, ok := RSI(rising, 5)
	assert.True(t, ok)
	assert.InDelta(t, 100.0, v, 1e-9)

	_, ok = RSI(rising, 14)
	assert.False(t, ok)
}
