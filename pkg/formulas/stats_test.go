package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateReturns(t *testing.T) {
	returns := CalculateReturns([]float64{100, 110, 99})

	assert.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-12)
	assert.InDelta(t, -0.10, returns[1], 1e-12)
}

func TestCalculateReturns_TooShort(t *testing.T) {
	assert.Empty(t, CalculateReturns([]float64{100}))
	assert.Empty(t, CalculateReturns(nil))
}

func TestPopStdDev(t *testing.T) {
	// population: sqrt(((1-2)^2 + (3-2)^2) / 2) = 1
	assert.InDelta(t, 1.0, PopStdDev([]float64{1, 3}), 1e-12)
	assert.Equal(t, 0.0, PopStdDev([]float64{5, 5, 5}))
	assert.Equal(t, 0.0, PopStdDev(nil))
}

func TestAnnualize(t *testing.T) {
	assert.InDelta(t, 0.02*math.Sqrt(12), Annualize(0.02), 1e-12)
}

func TestSimpleReturn(t *testing.T) {
	assert.InDelta(t, 0.10, SimpleReturn(100, 110), 1e-12)
	assert.InDelta(t, -0.5, SimpleReturn(20, 10), 1e-12)
}

func TestAnnualisedReturn(t *testing.T) {
	// held exactly one year: annualised equals the simple return
	assert.InDelta(t, 10.0, AnnualisedReturn(100, 110, 365), 1e-9)

	// zero days is treated as one
	assert.InDelta(t, AnnualisedReturn(100, 101, 1), AnnualisedReturn(100, 101, 0), 1e-9)

	assert.Equal(t, 0.0, AnnualisedReturn(0, 110, 10))
}
