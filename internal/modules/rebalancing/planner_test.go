package rebalancing

import (
	"context"
	"errors"
	"testing"

	"github.com/aristath/appa/internal/domain"
	"github.com/aristath/appa/internal/modules/allocation"
	testingpkg "github.com/aristath/appa/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlanner(capital float64, prices map[string]float64, holdings ...domain.Holding) *Planner {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	reader := &testingpkg.StaticHoldings{
		Portfolio: domain.Portfolio{ID: 1, Name: "Test", Owner: "alice", RemainingCapital: capital},
		Holdings:  holdings,
	}
	engine := allocation.NewEngine(reader, testingpkg.NewStaticPrices(prices), log)
	return NewPlanner(engine, log)
}

func TestPreview_SingleStockHalfToCash(t *testing.T) {
	planner := newTestPlanner(0,
		map[string]float64{"AAPL": 10},
		testingpkg.NewHolding(1, "AAPL", 100, 8),
	)

	plan, err := planner.Preview(context.Background(), 1, allocation.DimensionSector,
		map[string]float64{"Technology": 50, "CASH": 50})
	require.NoError(t, err)

	assert.Equal(t, -50.0, plan.Adjustments["AAPL"])
	assert.Equal(t, 500.0, plan.Adjustments["CASH"])
	assert.Equal(t, 1000.0, plan.CurrentTotal)
	assert.Equal(t, 1000.0, plan.ProjectedTotal)
	assert.Equal(t, int64(50), plan.FinalQuantities["AAPL"])
	assert.InDelta(t, 50.0, plan.FinalAllocations["Technology"], 1e-9)
	assert.InDelta(t, 50.0, plan.FinalAllocations["CASH"], 1e-9)
	assert.Equal(t, map[string]float64{"AAPL": -50}, plan.Trades())
}

func TestPreview_WithinGroupProportional(t *testing.T) {
	planner := newTestPlanner(0,
		map[string]float64{"AAPL": 100, "MSFT": 300, "JPM": 50},
		testingpkg.NewHolding(1, "AAPL", 10, 90),
		testingpkg.NewHolding(1, "MSFT", 10, 250),
		testingpkg.NewHolding(1, "JPM", 20, 45),
	)

	plan, err := planner.Preview(context.Background(), 1, allocation.DimensionSector,
		map[string]float64{"Technology": 40, "Financial Services": 60})
	require.NoError(t, err)

	assert.Equal(t, -5.0, plan.Adjustments["AAPL"])
	assert.Equal(t, -5.0, plan.Adjustments["MSFT"])
	assert.Equal(t, 40.0, plan.Adjustments["JPM"])
	assert.Equal(t, 0.0, plan.Adjustments["CASH"])
	assert.Equal(t, 5000.0, plan.ProjectedTotal)

	assert.Equal(t, 2000.0, plan.Groups["Technology"].AdjustedValue)
	assert.Equal(t, 3000.0, plan.Groups["Financial Services"].AdjustedValue)
	assert.InDelta(t, 40.0, plan.FinalAllocations["Technology"], 1e-9)
	assert.InDelta(t, 60.0, plan.FinalAllocations["Financial Services"], 1e-9)
	assert.InDelta(t, 0.0, plan.FinalAllocations["CASH"], 1e-9)
}

func TestPreview_RoundsTiesUp(t *testing.T) {
	planner := newTestPlanner(0,
		map[string]float64{"AAPL": 10},
		testingpkg.NewHolding(1, "AAPL", 3, 10),
	)

	plan, err := planner.Preview(context.Background(), 1, allocation.DimensionSector,
		map[string]float64{"Technology": 50, "CASH": 50})
	require.NoError(t, err)

	// target 15 of 30 is -1.5 shares
	assert.Equal(t, -1.0, plan.Adjustments["AAPL"])
	assert.Equal(t, int64(2), plan.FinalQuantities["AAPL"])
	assert.Equal(t, 15.0, plan.Adjustments["CASH"])
	assert.Equal(t, 35.0, plan.ProjectedTotal)
	assert.InDelta(t, 100*20.0/35, plan.FinalAllocations["Technology"], 1e-9)
	assert.InDelta(t, 100*15.0/35, plan.FinalAllocations["CASH"], 1e-9)
}

func TestPreview_RoundsTiesUpForLargerSells(t *testing.T) {
	planner := newTestPlanner(0,
		map[string]float64{"AAPL": 10},
		testingpkg.NewHolding(1, "AAPL", 5, 10),
	)

	plan, err := planner.Preview(context.Background(), 1, allocation.DimensionSector,
		map[string]float64{"Technology": 50, "CASH": 50})
	require.NoError(t, err)

	// target 25 of 50 is -2.5 shares
	assert.Equal(t, -2.0, plan.Adjustments["AAPL"])
	assert.Equal(t, int64(3), plan.FinalQuantities["AAPL"])
}

func TestPreview_UntargetedGroupIsSold(t *testing.T) {
	planner := newTestPlanner(500,
		map[string]float64{"JPM": 50},
		testingpkg.NewHolding(1, "JPM", 10, 50),
	)

	plan, err := planner.Preview(context.Background(), 1, allocation.DimensionSector,
		map[string]float64{"Technology": 100})
	require.NoError(t, err)

	assert.Equal(t, -10.0, plan.Adjustments["JPM"])
	assert.Equal(t, int64(0), plan.FinalQuantities["JPM"])
	assert.Equal(t, 0.0, plan.Groups["Technology"].AdjustedValue)
	assert.Equal(t, 1000.0, plan.Groups["Technology"].TargetValue)
	assert.Equal(t, 500.0, plan.ProjectedTotal)
	assert.InDelta(t, 100.0, plan.FinalAllocations["CASH"], 1e-9)
	assert.InDelta(t, 0.0, plan.FinalAllocations["Technology"], 1e-9)
}

func TestPreview_ZeroPrice(t *testing.T) {
	planner := newTestPlanner(0,
		map[string]float64{"AAPL": 0},
		testingpkg.NewHolding(1, "AAPL", 10, 10),
	)

	_, err := planner.Preview(context.Background(), 1, allocation.DimensionSector,
		map[string]float64{"Technology": 100})
	assert.True(t, errors.Is(err, domain.ErrDivisionByZero))
}

func TestPreview_Validation(t *testing.T) {
	planner := newTestPlanner(0,
		map[string]float64{"AAPL": 10},
		testingpkg.NewHolding(1, "AAPL", 10, 10),
	)
	ctx := context.Background()

	tests := []struct {
		name    string
		dim     allocation.Dimension
		targets map[string]float64
		kind    domain.Kind
	}{
		{"sum 99", allocation.DimensionSector, map[string]float64{"Technology": 49, "CASH": 50}, domain.KindInvalidTargetAllocation},
		{"sum 101", allocation.DimensionSector, map[string]float64{"Technology": 51, "CASH": 50}, domain.KindInvalidTargetAllocation},
		{"negative", allocation.DimensionSector, map[string]float64{"Technology": 110, "CASH": -10}, domain.KindInvalidTargetAllocation},
		{"empty", allocation.DimensionSector, map[string]float64{}, domain.KindInvalidTargetAllocation},
		{"unknown dimension", allocation.Dimension("color"), map[string]float64{"Technology": 100}, domain.KindInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := planner.Preview(ctx, 1, tt.dim, tt.targets)
			require.Error(t, err)
			assert.Equal(t, tt.kind, domain.KindOf(err))
		})
	}
}

func TestValidateTargets(t *testing.T) {
	targets, err := ValidateTargets(map[string]float64{"Technology": 33.3, "Energy": 33.3, "cash": 33.4})
	require.NoError(t, err)
	assert.Equal(t, 33.4, targets["CASH"])

	_, err = ValidateTargets(map[string]float64{"CASH": 50, "cash": 50})
	assert.True(t, errors.Is(err, domain.ErrInvalidTargetAllocation))
}
