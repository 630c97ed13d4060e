// Package trading applies rebalancing adjustments to a portfolio, one leg at a time.
package trading

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aristath/appa/internal/domain"
	"github.com/aristath/appa/internal/events"
	"github.com/aristath/appa/internal/modules/portfolio"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TradeRecorder stores executed legs
type TradeRecorder interface {
	Create(ctx context.Context, trade *Trade) error
}

// EventPublisher receives execution progress
type EventPublisher interface {
	Publish(module string, data events.EventData)
}

// LegResult is the outcome of one committed leg
type LegResult struct {
	Leg
	Price            float64   `json:"price"`
	Amount           float64   `json:"amount"`
	PreviousQuantity int64     `json:"previous_quantity"`
	NewQuantity      int64     `json:"new_quantity"`
	PreviousPrice    float64   `json:"previous_buy_price"`
	Closed           bool      `json:"closed"`
	CapitalAfter     float64   `json:"capital_after"`
	ExecutedAt       time.Time `json:"executed_at"`
	TradeID          string    `json:"trade_id,omitempty"`
	AuditError       string    `json:"audit_error,omitempty"`
	TradeError       string    `json:"trade_error,omitempty"`
}

// ExecutionResult reports the legs committed by one execution. When Complete is
// false, Error names the leg that stopped the run; earlier legs stay committed.
type ExecutionResult struct {
	ID               string      `json:"id"`
	PortfolioID      int64       `json:"portfolio_id"`
	Planned          []Leg       `json:"planned"`
	Legs             []LegResult `json:"legs"`
	RemainingCapital float64     `json:"remaining_capital"`
	Complete         bool        `json:"complete"`
	Error            string      `json:"error,omitempty"`
	StartedAt        time.Time   `json:"started_at"`
	FinishedAt       time.Time   `json:"finished_at"`
}

// Executor applies share adjustments to a portfolio: sells first, then buys,
// each leg in its own transaction.
type Executor struct {
	repo   *portfolio.Repository
	prices domain.PriceProvider
	audit  domain.AuditRecorder
	cache  domain.CacheInvalidator
	trades TradeRecorder
	events EventPublisher
	actor  string
	locks  *portfolioLocks
	now    func() time.Time
	log    zerolog.Logger
}

// NewExecutor creates a new transaction executor. trades may be nil.
func NewExecutor(
	repo *portfolio.Repository,
	prices domain.PriceProvider,
	audit domain.AuditRecorder,
	cache domain.CacheInvalidator,
	trades TradeRecorder,
	actor string,
	log zerolog.Logger,
) *Executor {
	return &Executor{
		repo:   repo,
		prices: prices,
		audit:  audit,
		cache:  cache,
		trades: trades,
		actor:  actor,
		locks:  newPortfolioLocks(),
		now:    time.Now,
		log:    log.With().Str("service", "trading").Logger(),
	}
}

// SetPublisher installs the publisher that receives execution progress events
func (e *Executor) SetPublisher(p EventPublisher) {
	e.events = p
}

func (e *Executor) publish(data events.EventData) {
	if e.events != nil {
		e.events.Publish("trading", data)
	}
}

// Execute runs the adjustments against the portfolio. On failure it returns the
// partial result together with the error; committed legs are not rolled back.
func (e *Executor) Execute(ctx context.Context, portfolioID int64, adjustments map[string]float64) (*ExecutionResult, error) {
	legs, err := BuildLegs(adjustments)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.lock(portfolioID)
	defer unlock()

	p, err := e.repo.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	result := &ExecutionResult{
		ID:               uuid.NewString(),
		PortfolioID:      portfolioID,
		Planned:          legs,
		Legs:             make([]LegResult, 0, len(legs)),
		RemainingCapital: p.RemainingCapital,
		StartedAt:        e.now().UTC(),
	}
	log := e.log.With().Str("execution_id", result.ID).Int64("portfolio_id", portfolioID).Logger()
	log.Info().Int("legs", len(legs)).Msg("Starting execution")
	e.publish(&events.ExecutionStartedData{ExecutionID: result.ID, PortfolioID: portfolioID, Legs: len(legs)})

	for _, leg := range legs {
		if err := ctx.Err(); err != nil {
			return e.fail(result, log, leg, err)
		}

		res, err := e.executeLeg(ctx, portfolioID, leg)
		if err != nil {
			return e.fail(result, log, leg, err)
		}

		e.afterLeg(ctx, log, result.ID, portfolioID, res)
		result.Legs = append(result.Legs, *res)
		result.RemainingCapital = res.CapitalAfter
	}

	result.Complete = true
	result.FinishedAt = e.now().UTC()
	e.finished(result)
	log.Info().
		Int("legs", len(result.Legs)).
		Float64("remaining_capital", result.RemainingCapital).
		Msg("Execution complete")
	return result, nil
}

func (e *Executor) fail(result *ExecutionResult, log zerolog.Logger, leg Leg, err error) (*ExecutionResult, error) {
	result.Error = err.Error()
	result.FinishedAt = e.now().UTC()
	e.finished(result)
	log.Error().
		Err(err).
		Str("symbol", leg.Symbol).
		Str("side", string(leg.Side)).
		Int("committed", len(result.Legs)).
		Msg("Execution stopped")
	return result, fmt.Errorf("failed to %s %d %s: %w", leg.Side, leg.Quantity(), leg.Symbol, err)
}

func (e *Executor) finished(result *ExecutionResult) {
	e.publish(&events.ExecutionFinishedData{
		ExecutionID:      result.ID,
		PortfolioID:      result.PortfolioID,
		Complete:         result.Complete,
		Legs:             len(result.Legs),
		RemainingCapital: result.RemainingCapital,
		Error:            result.Error,
	})
}

// executeLeg prices the leg outside the transaction, then applies it atomically
func (e *Executor) executeLeg(ctx context.Context, portfolioID int64, leg Leg) (*LegResult, error) {
	price, err := e.prices.CurrentPrice(ctx, leg.Symbol)
	if err != nil {
		return nil, err
	}
	if price <= 0 {
		return nil, domain.Errorf(domain.KindNoPriceFound, nil, "no usable price for %s", leg.Symbol)
	}

	executedAt := e.now().UTC()
	res := &LegResult{
		Leg:        leg,
		Price:      price,
		Amount:     price * float64(leg.Quantity()),
		ExecutedAt: executedAt,
	}

	err = e.repo.InTx(ctx, func(tx *portfolio.Repository) error {
		p, err := tx.GetPortfolio(ctx, portfolioID)
		if err != nil {
			return err
		}
		pos, err := tx.GetPosition(ctx, portfolioID, leg.Symbol)
		if err != nil {
			return err
		}
		if pos == nil {
			return domain.Errorf(domain.KindEntityNotFound, nil, "portfolio %d holds no %s", portfolioID, leg.Symbol)
		}
		if leg.Side == SideBuy && res.Amount > p.RemainingCapital {
			return domain.Errorf(domain.KindInsufficientFunds, nil,
				"buying %d %s costs %.2f, only %.2f available", leg.Quantity(), leg.Symbol, res.Amount, p.RemainingCapital)
		}

		res.PreviousQuantity = pos.Quantity
		res.PreviousPrice = pos.BuyPrice
		res.NewQuantity = pos.Quantity + leg.Delta

		capital := p.RemainingCapital
		if res.NewQuantity <= 0 {
			// Selling at least everything held closes the position at the held quantity
			res.NewQuantity = 0
			res.Closed = true
			res.Amount = price * float64(pos.Quantity)
			capital += res.Amount
			if err := tx.DeletePosition(ctx, portfolioID, leg.Symbol); err != nil {
				return err
			}
		} else {
			if leg.Side == SideBuy {
				capital -= res.Amount
			} else {
				capital += res.Amount
			}
			pos.Quantity = res.NewQuantity
			pos.BuyPrice = price
			pos.BuyDate = dateOf(executedAt)
			if err := tx.UpsertPosition(ctx, *pos); err != nil {
				return err
			}
		}

		res.CapitalAfter = capital
		return tx.UpdateCapital(ctx, portfolioID, capital)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// afterLeg writes the audit entry and trade record and drops cached analytics.
// None of these change the leg's outcome.
func (e *Executor) afterLeg(ctx context.Context, log zerolog.Logger, executionID string, portfolioID int64, res *LegResult) {
	// a closed position trades what was held, not what was asked for
	traded := res.Quantity()
	if res.Closed {
		traded = res.PreviousQuantity
	}

	log.Info().
		Str("symbol", res.Symbol).
		Str("side", string(res.Side)).
		Int64("quantity", res.Quantity()).
		Float64("price", res.Price).
		Float64("amount", res.Amount).
		Bool("closed", res.Closed).
		Msg("Leg executed")

	if e.audit != nil {
		action := fmt.Sprintf("%s %d %s for portfolio %d on %s: price %.2f -> %.2f, quantity %d -> %d",
			res.Side, res.Quantity(), res.Symbol, portfolioID, res.ExecutedAt.Format(domain.DateLayout),
			res.PreviousPrice, res.Price, res.PreviousQuantity, res.NewQuantity)
		if err := e.audit.Record(ctx, e.actor, action); err != nil {
			log.Warn().Err(err).Str("symbol", res.Symbol).Msg("Failed to record audit entry")
			res.AuditError = err.Error()
		}
	}

	if e.trades != nil {
		trade := &Trade{
			ExecutionID: executionID,
			PortfolioID: portfolioID,
			Symbol:      res.Symbol,
			Side:        res.Side,
			Quantity:    traded,
			Price:       res.Price,
			Amount:      res.Amount,
			ExecutedAt:  res.ExecutedAt,
		}
		if err := e.trades.Create(ctx, trade); err != nil {
			log.Warn().Err(err).Str("symbol", res.Symbol).Msg("Failed to record trade")
			res.TradeError = err.Error()
		} else {
			res.TradeID = trade.ID
		}
	}

	e.publish(&events.TradeExecutedData{
		ExecutionID: executionID,
		PortfolioID: portfolioID,
		Symbol:      res.Symbol,
		Side:        string(res.Side),
		Quantity:    traded,
		Price:       res.Price,
		Amount:      res.Amount,
		Closed:      res.Closed,
	})

	if e.cache != nil {
		if err := e.cache.InvalidateSymbol(ctx, res.Symbol); err != nil {
			log.Warn().Err(err).Str("symbol", res.Symbol).Msg("Failed to invalidate cached analytics")
		}
	}
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// portfolioLocks serializes executions per portfolio
type portfolioLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newPortfolioLocks() *portfolioLocks {
	return &portfolioLocks{locks: make(map[int64]*sync.Mutex)}
}

func (l *portfolioLocks) lock(portfolioID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[portfolioID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[portfolioID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
