package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/aristath/appa/internal/domain"
	testingpkg "github.com/aristath/appa/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndicators_RisingSeries(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = float64(100 + i)
	}
	fake := testingpkg.NewFakeMarketData()
	fake.SetDaily("AAPL", testingpkg.DailyCloses(testToday, closes...))
	svc := newTestService(t, fake, nil, nil)

	ind, err := svc.Indicators(context.Background(), "aapl", 5)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", ind.Symbol)
	assert.Equal(t, "2026-10-16", ind.AsOf)
	assert.Equal(t, 129.0, ind.LastClose)
	assert.InDelta(t, 127.0, ind.SMA, 1e-9)
	assert.InDelta(t, 100.0, ind.RSI, 1e-9)
	// on a linear ramp both averages lag by (length-1)/2
	assert.InDelta(t, 127.0, ind.EMA, 1e-6)
	assert.Equal(t, 30, ind.Points)
}

func TestIndicators_Errors(t *testing.T) {
	fake := testingpkg.NewFakeMarketData()
	fake.SetDaily("AAPL", testingpkg.DailyCloses(testToday, 1, 2, 3))
	svc := newTestService(t, fake, nil, nil)
	ctx := context.Background()

	_, err := svc.Indicators(ctx, "AAPL", 14)
	assert.True(t, errors.Is(err, domain.ErrInsufficientData))

	_, err = svc.Indicators(ctx, "AAPL", 1)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))

	_, err = svc.Indicators(ctx, "AAPL", 51)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}
