package trading

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aristath/appa/internal/domain"
	"github.com/aristath/appa/internal/events"
	"github.com/aristath/appa/internal/modules/portfolio"
	"github.com/aristath/appa/internal/modules/universe"
	testingpkg "github.com/aristath/appa/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 16, 15, 30, 0, 0, time.UTC)

type executorFixture struct {
	exec        *Executor
	repo        *portfolio.Repository
	trades      *TradeRepository
	audit       *testingpkg.AuditLog
	invalidator *testingpkg.RecordingInvalidator
}

func setupExecutor(t *testing.T, prices map[string]float64) executorFixture {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)

	db, cleanup := testingpkg.NewTestDB(t, "portfolio")
	t.Cleanup(cleanup)
	ledger, cleanupLedger := testingpkg.NewTestDB(t, "ledger")
	t.Cleanup(cleanupLedger)

	stocks := universe.NewRepository(db.Conn(), log)
	for _, s := range testingpkg.NewStockFixtures() {
		require.NoError(t, stocks.Insert(context.Background(), s))
	}

	f := executorFixture{
		repo:        portfolio.NewRepository(db.Conn(), log),
		trades:      NewTradeRepository(ledger.Conn(), log),
		audit:       &testingpkg.AuditLog{},
		invalidator: &testingpkg.RecordingInvalidator{},
	}
	f.exec = NewExecutor(f.repo, testingpkg.NewStaticPrices(prices), f.audit, f.invalidator, f.trades, "tester", log)
	f.exec.now = func() time.Time { return testNow }
	return f
}

func (f executorFixture) newPortfolio(t *testing.T, capital float64, positions map[string][2]float64) int64 {
	t.Helper()
	ctx := context.Background()
	p, err := f.repo.CreatePortfolio(ctx, "Test", "alice", capital)
	require.NoError(t, err)
	for symbol, qp := range positions {
		require.NoError(t, f.repo.UpsertPosition(ctx, domain.Position{
			PortfolioID: p.ID,
			Symbol:      symbol,
			Quantity:    int64(qp[0]),
			BuyPrice:    qp[1],
			BuyDate:     time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		}))
	}
	return p.ID
}

func (f executorFixture) position(t *testing.T, id int64, symbol string) *domain.Position {
	t.Helper()
	pos, err := f.repo.GetPosition(context.Background(), id, symbol)
	require.NoError(t, err)
	return pos
}

func (f executorFixture) capital(t *testing.T, id int64) float64 {
	t.Helper()
	p, err := f.repo.GetPortfolio(context.Background(), id)
	require.NoError(t, err)
	return p.RemainingCapital
}

func TestExecute_SellHalfToCash(t *testing.T) {
	f := setupExecutor(t, map[string]float64{"AAPL": 10})
	id := f.newPortfolio(t, 0, map[string][2]float64{"AAPL": {100, 8}})

	result, err := f.exec.Execute(context.Background(), id, map[string]float64{"AAPL": -50, "CASH": 500})
	require.NoError(t, err)

	assert.True(t, result.Complete)
	require.Len(t, result.Legs, 1)
	leg := result.Legs[0]
	assert.Equal(t, SideSell, leg.Side)
	assert.Equal(t, int64(100), leg.PreviousQuantity)
	assert.Equal(t, int64(50), leg.NewQuantity)
	assert.Equal(t, 500.0, leg.Amount)
	assert.Equal(t, 500.0, result.RemainingCapital)

	pos := f.position(t, id, "AAPL")
	require.NotNil(t, pos)
	assert.Equal(t, int64(50), pos.Quantity)
	assert.Equal(t, 10.0, pos.BuyPrice)
	assert.Equal(t, "2026-10-16", pos.BuyDate.Format(domain.DateLayout))
	assert.Equal(t, 500.0, f.capital(t, id))

	require.Equal(t, 1, f.audit.Len())
	assert.Equal(t, "tester", f.audit.Entries[0].Actor)
	assert.Contains(t, f.audit.Entries[0].Action, "SELL 50 AAPL for portfolio")
	assert.Contains(t, f.audit.Entries[0].Action, "price 8.00 -> 10.00, quantity 100 -> 50")
	assert.Equal(t, []string{"AAPL"}, f.invalidator.Symbols)

	trades, err := f.trades.GetByExecution(context.Background(), result.ID)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, leg.TradeID, trades[0].ID)
	assert.Equal(t, int64(50), trades[0].Quantity)
}

func TestExecute_SellsPersistBeforeFailingBuy(t *testing.T) {
	f := setupExecutor(t, map[string]float64{"AAPL": 10, "MSFT": 100})
	id := f.newPortfolio(t, 0, map[string][2]float64{
		"AAPL": {10, 10},
		"MSFT": {5, 100},
	})

	result, err := f.exec.Execute(context.Background(), id, map[string]float64{"MSFT": 20, "AAPL": -5})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientFunds))

	require.NotNil(t, result)
	assert.False(t, result.Complete)
	assert.NotEmpty(t, result.Error)
	require.Len(t, result.Legs, 1)
	assert.Equal(t, "AAPL", result.Legs[0].Symbol)

	assert.Equal(t, int64(5), f.position(t, id, "AAPL").Quantity)
	assert.Equal(t, int64(5), f.position(t, id, "MSFT").Quantity)
	assert.Equal(t, 50.0, f.capital(t, id))
}

func TestExecute_OversellClosesPosition(t *testing.T) {
	f := setupExecutor(t, map[string]float64{"JPM": 20})
	id := f.newPortfolio(t, 0, map[string][2]float64{"JPM": {10, 15}})

	result, err := f.exec.Execute(context.Background(), id, map[string]float64{"JPM": -15})
	require.NoError(t, err)

	require.Len(t, result.Legs, 1)
	assert.True(t, result.Legs[0].Closed)
	assert.Equal(t, 200.0, result.Legs[0].Amount)
	assert.Nil(t, f.position(t, id, "JPM"))
	assert.Equal(t, 200.0, f.capital(t, id))

	trades, err := f.trades.GetHistory(context.Background(), id, 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, int64(10), trades[0].Quantity)
}

func TestExecute_BuyUpdatesPriceAndDate(t *testing.T) {
	f := setupExecutor(t, map[string]float64{"MSFT": 300})
	id := f.newPortfolio(t, 1000, map[string][2]float64{"MSFT": {2, 250}})

	_, err := f.exec.Execute(context.Background(), id, map[string]float64{"MSFT": 3})
	require.NoError(t, err)

	pos := f.position(t, id, "MSFT")
	assert.Equal(t, int64(5), pos.Quantity)
	assert.Equal(t, 300.0, pos.BuyPrice)
	assert.Equal(t, 100.0, f.capital(t, id))
}

func TestExecute_MissingPosition(t *testing.T) {
	f := setupExecutor(t, map[string]float64{"SAP": 100})
	id := f.newPortfolio(t, 1000, nil)

	result, err := f.exec.Execute(context.Background(), id, map[string]float64{"SAP": 1})
	assert.True(t, errors.Is(err, domain.ErrEntityNotFound))
	require.NotNil(t, result)
	assert.Empty(t, result.Legs)
	assert.Equal(t, 1000.0, f.capital(t, id))
}

func TestExecute_UnknownPortfolio(t *testing.T) {
	f := setupExecutor(t, nil)

	result, err := f.exec.Execute(context.Background(), 42, map[string]float64{"AAPL": 1})
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, domain.ErrEntityNotFound))
}

func TestExecute_PriceUnavailable(t *testing.T) {
	f := setupExecutor(t, nil)
	id := f.newPortfolio(t, 0, map[string][2]float64{"AAPL": {1, 10}})

	_, err := f.exec.Execute(context.Background(), id, map[string]float64{"AAPL": -1})
	assert.True(t, errors.Is(err, domain.ErrDataUnavailable))
	assert.Equal(t, int64(1), f.position(t, id, "AAPL").Quantity)
}

func TestExecute_AuditFailureKeepsLeg(t *testing.T) {
	f := setupExecutor(t, map[string]float64{"AAPL": 10})
	f.audit.Err = errors.New("disk full")
	id := f.newPortfolio(t, 0, map[string][2]float64{"AAPL": {4, 10}})

	result, err := f.exec.Execute(context.Background(), id, map[string]float64{"AAPL": -2})
	require.NoError(t, err)
	require.Len(t, result.Legs, 1)
	assert.Equal(t, "disk full", result.Legs[0].AuditError)
	assert.Equal(t, int64(2), f.position(t, id, "AAPL").Quantity)
}

func TestExecute_SerializesPerPortfolio(t *testing.T) {
	f := setupExecutor(t, map[string]float64{"AAPL": 10})
	id := f.newPortfolio(t, 10, map[string][2]float64{"AAPL": {1, 10}})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.exec.Execute(context.Background(), id, map[string]float64{"AAPL": 1})
		}(i)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
			assert.True(t, errors.Is(err, domain.ErrInsufficientFunds))
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, int64(2), f.position(t, id, "AAPL").Quantity)
	assert.Equal(t, 0.0, f.capital(t, id))
}

func TestExecute_PublishesProgress(t *testing.T) {
	f := setupExecutor(t, map[string]float64{"AAPL": 10, "MSFT": 100})
	id := f.newPortfolio(t, 0, map[string][2]float64{"AAPL": {10, 10}, "MSFT": {5, 100}})

	bus := events.NewBus(zerolog.Nop())
	var got []events.EventType
	var trade *events.TradeExecutedData
	for _, et := range events.AllTypes {
		bus.Subscribe(et, func(e *events.Event) {
			got = append(got, e.Type)
			if d, ok := e.Data.(*events.TradeExecutedData); ok {
				trade = d
			}
		})
	}
	f.exec.SetPublisher(bus)

	_, err := f.exec.Execute(context.Background(), id, map[string]float64{"AAPL": -15, "MSFT": 20})
	require.Error(t, err)

	assert.Equal(t, []events.EventType{events.ExecutionStarted, events.TradeExecuted, events.ExecutionFinished}, got)
	require.NotNil(t, trade)
	assert.True(t, trade.Closed)
	assert.Equal(t, int64(10), trade.Quantity)
}

func TestExecute_HugeBuyLeavesPositionUntouched(t *testing.T) {
	f := setupExecutor(t, map[string]float64{"AAPL": 10})
	id := f.newPortfolio(t, 100, map[string][2]float64{"AAPL": {100, 10}})

	result, err := f.exec.Execute(context.Background(), id, map[string]float64{"AAPL": 1e19})
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))

	pos := f.position(t, id, "AAPL")
	require.NotNil(t, pos)
	assert.Equal(t, int64(100), pos.Quantity)
	assert.Equal(t, 100.0, f.capital(t, id))
}
