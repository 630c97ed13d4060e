package trading

import (
	"context"
	"testing"
	"time"

	testingpkg "github.com/aristath/appa/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradeRepository_CreateAndHistory(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "ledger")
	defer cleanup()
	repo := NewTradeRepository(db.Conn(), zerolog.Nop())
	ctx := context.Background()

	base := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	first := &Trade{ExecutionID: "exec-1", PortfolioID: 1, Symbol: "aapl", Side: SideSell, Quantity: 5, Price: 10, Amount: 50, ExecutedAt: base}
	second := &Trade{ExecutionID: "exec-1", PortfolioID: 1, Symbol: "MSFT", Side: SideBuy, Quantity: 1, Price: 40, Amount: 40, ExecutedAt: base.Add(time.Second)}
	other := &Trade{ExecutionID: "exec-2", PortfolioID: 2, Symbol: "JPM", Side: SideBuy, Quantity: 1, Price: 100, Amount: 100, ExecutedAt: base}

	for _, tr := range []*Trade{first, second, other} {
		require.NoError(t, repo.Create(ctx, tr))
		assert.NotEmpty(t, tr.ID)
	}

	history, err := repo.GetHistory(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "MSFT", history[0].Symbol)
	assert.Equal(t, "AAPL", history[1].Symbol)
	assert.Equal(t, SideSell, history[1].Side)
	assert.True(t, base.Equal(history[1].ExecutedAt))

	legs, err := repo.GetByExecution(ctx, "exec-1")
	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, first.ID, legs[0].ID)
}

func TestTradeRepository_RejectsEmptyQuantity(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "ledger")
	defer cleanup()
	repo := NewTradeRepository(db.Conn(), zerolog.Nop())

	err := repo.Create(context.Background(), &Trade{ExecutionID: "x", Symbol: "AAPL", Side: SideBuy, Price: 1})
	assert.Error(t, err)
}
