package trading

import (
	"errors"
	"math"
	"testing"

	"github.com/aristath/appa/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLegs_SellsThenBuysBySymbol(t *testing.T) {
	legs, err := BuildLegs(map[string]float64{
		"msft": 3,
		"AAPL": 2,
		"JPM":  -4,
		"SAP":  0,
		"CASH": 125.5,
		"BAC":  -1,
	})
	require.NoError(t, err)

	assert.Equal(t, []Leg{
		{Symbol: "BAC", Side: SideSell, Delta: -1},
		{Symbol: "JPM", Side: SideSell, Delta: -4},
		{Symbol: "AAPL", Side: SideBuy, Delta: 2},
		{Symbol: "MSFT", Side: SideBuy, Delta: 3},
	}, legs)
	assert.Equal(t, int64(4), legs[1].Quantity())
}

func TestBuildLegs_RejectsFractionalShares(t *testing.T) {
	_, err := BuildLegs(map[string]float64{"AAPL": 1.5})
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestBuildLegs_Empty(t *testing.T) {
	legs, err := BuildLegs(map[string]float64{"CASH": 10})
	require.NoError(t, err)
	assert.Empty(t, legs)
}

func TestBuildLegs_RejectsOutOfRangeDeltas(t *testing.T) {
	for _, delta := range []float64{1e19, -1e19, math.Ldexp(1, 63), -math.Ldexp(1, 63)} {
		legs, err := BuildLegs(map[string]float64{"AAPL": delta})
		assert.Nil(t, legs, "delta %v", delta)
		assert.True(t, errors.Is(err, domain.ErrInvalidArgument), "delta %v", delta)
	}

	legs, err := BuildLegs(map[string]float64{"AAPL": 1e15})
	require.NoError(t, err)
	assert.Equal(t, []Leg{{Symbol: "AAPL", Side: SideBuy, Delta: 1e15}}, legs)
}
