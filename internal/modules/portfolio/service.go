// Package portfolio owns portfolios, their cash balance and their positions.
package portfolio

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/appa/internal/domain"
	"github.com/rs/zerolog"
)

// StockEnsurer resolves a symbol to stored reference data, creating it on first reference.
// Implemented by the universe service.
type StockEnsurer interface {
	EnsureStock(ctx context.Context, symbol string) (*domain.Stock, error)
}

// BuyRequest describes a purchase of whole shares
type BuyRequest struct {
	Symbol   string    `json:"symbol"`
	Quantity int64     `json:"quantity"`
	Price    float64   `json:"price"`
	BuyDate  time.Time `json:"buy_date"`
}

// PortfolioService orchestrates portfolio operations: CRUD, position changes
// that move cash, and the valued summary.
type PortfolioService struct {
	repo   *Repository
	stocks StockEnsurer
	prices domain.PriceProvider
	audit  domain.AuditRecorder
	actor  string
	now    func() time.Time
	log    zerolog.Logger
}

// NewPortfolioService creates a new portfolio service
func NewPortfolioService(
	repo *Repository,
	stocks StockEnsurer,
	prices domain.PriceProvider,
	audit domain.AuditRecorder,
	actor string,
	log zerolog.Logger,
) *PortfolioService {
	return &PortfolioService{
		repo:   repo,
		stocks: stocks,
		prices: prices,
		audit:  audit,
		actor:  actor,
		now:    time.Now,
		log:    log.With().Str("service", "portfolio").Logger(),
	}
}

// CreatePortfolio creates an empty portfolio funded with initial capital
func (s *PortfolioService) CreatePortfolio(ctx context.Context, name, owner string, initialCapital float64) (*domain.Portfolio, error) {
	name = strings.TrimSpace(name)
	owner = strings.TrimSpace(owner)
	if name == "" || owner == "" {
		return nil, domain.Errorf(domain.KindInvalidArgument, nil, "portfolio name and owner are required")
	}
	if initialCapital < 0 {
		return nil, domain.Errorf(domain.KindInvalidArgument, nil, "initial capital must not be negative")
	}
	return s.repo.CreatePortfolio(ctx, name, owner, initialCapital)
}

// GetPortfolio returns a portfolio
func (s *PortfolioService) GetPortfolio(ctx context.Context, id int64) (*domain.Portfolio, error) {
	return s.repo.GetPortfolio(ctx, id)
}

// ListPortfolios returns the owner's portfolios (all when owner is empty)
func (s *PortfolioService) ListPortfolios(ctx context.Context, owner string) ([]domain.Portfolio, error) {
	return s.repo.ListPortfolios(ctx, strings.TrimSpace(owner))
}

// DeletePortfolio deletes a portfolio and its positions
func (s *PortfolioService) DeletePortfolio(ctx context.Context, id int64) error {
	if err := s.repo.DeletePortfolio(ctx, id); err != nil {
		return err
	}
	s.record(ctx, fmt.Sprintf("deleted portfolio %d", id))
	return nil
}

// GetHoldings returns the positions of an existing portfolio with stock reference data
func (s *PortfolioService) GetHoldings(ctx context.Context, portfolioID int64) ([]domain.Holding, error) {
	if _, err := s.repo.GetPortfolio(ctx, portfolioID); err != nil {
		return nil, err
	}
	return s.repo.GetHoldings(ctx, portfolioID)
}

// Buy records a purchase. A repeated purchase of a held stock replaces the
// position's quantity and buy price with the new values; the cash paid for the
// old lot is refunded before the new lot is charged.
func (s *PortfolioService) Buy(ctx context.Context, portfolioID int64, req BuyRequest) (*domain.Position, error) {
	symbol := normalizeSymbol(req.Symbol)
	if symbol == "" {
		return nil, domain.Errorf(domain.KindInvalidArgument, nil, "symbol is required")
	}
	if req.Quantity <= 0 {
		return nil, domain.Errorf(domain.KindInvalidArgument, nil, "quantity must be positive")
	}
	if req.Price <= 0 {
		return nil, domain.Errorf(domain.KindInvalidArgument, nil, "price must be positive")
	}

	today := domain.Today(s.now())
	buyDate := req.BuyDate
	if buyDate.IsZero() {
		buyDate = today
	}
	buyDate = domain.Today(buyDate)
	if buyDate.After(today) {
		return nil, domain.Errorf(domain.KindInvalidArgument, nil, "buy date %s is in the future", buyDate.Format(domain.DateLayout))
	}

	if _, err := s.stocks.EnsureStock(ctx, symbol); err != nil {
		return nil, err
	}

	pos := domain.Position{
		PortfolioID: portfolioID,
		Symbol:      symbol,
		Quantity:    req.Quantity,
		BuyPrice:    req.Price,
		BuyDate:     buyDate,
	}
	cost := req.Price * float64(req.Quantity)

	err := s.repo.InTx(ctx, func(tx *Repository) error {
		p, err := tx.GetPortfolio(ctx, portfolioID)
		if err != nil {
			return err
		}

		existing, err := tx.GetPosition(ctx, portfolioID, symbol)
		if err != nil {
			return err
		}

		capital := p.RemainingCapital - cost
		if existing != nil {
			if existing.Quantity == req.Quantity && existing.BuyPrice == req.Price {
				return domain.Errorf(domain.KindInvalidArgument, nil,
					"position %s already holds %d shares at %.2f", symbol, req.Quantity, req.Price)
			}
			capital += existing.BuyPrice * float64(existing.Quantity)
		}
		if capital < 0 {
			return domain.Errorf(domain.KindInsufficientFunds, nil,
				"buying %d %s costs %.2f, available %.2f", req.Quantity, symbol, cost, capital+cost)
		}

		if err := tx.UpsertPosition(ctx, pos); err != nil {
			return err
		}
		return tx.UpdateCapital(ctx, portfolioID, capital)
	})
	if err != nil {
		if domain.KindOf(err) == domain.KindInsufficientFunds {
			s.record(ctx, fmt.Sprintf("insufficient funds to buy %d %s for portfolio %d", req.Quantity, symbol, portfolioID))
		}
		return nil, err
	}

	s.log.Info().
		Int64("portfolio_id", portfolioID).
		Str("symbol", symbol).
		Int64("quantity", req.Quantity).
		Float64("price", req.Price).
		Msg("Position bought")
	s.record(ctx, fmt.Sprintf("bought %d %s at %.2f for portfolio %d on %s",
		req.Quantity, symbol, req.Price, portfolioID, buyDate.Format(domain.DateLayout)))

	return &pos, nil
}

// Sell sells shares at the current market price. The remaining position is
// returned, or nil when every share was sold and the position deleted.
func (s *PortfolioService) Sell(ctx context.Context, portfolioID int64, symbol string, quantity int64) (*domain.Position, error) {
	symbol = normalizeSymbol(symbol)
	if quantity <= 0 {
		return nil, domain.Errorf(domain.KindInvalidArgument, nil, "quantity must be positive")
	}

	checkHeld := func(repo *Repository) (*domain.Position, error) {
		pos, err := repo.GetPosition(ctx, portfolioID, symbol)
		if err != nil {
			return nil, err
		}
		if pos == nil {
			return nil, domain.Errorf(domain.KindEntityNotFound, nil, "portfolio %d holds no %s", portfolioID, symbol)
		}
		if quantity > pos.Quantity {
			return nil, domain.Errorf(domain.KindInsufficientQuantity, nil,
				"cannot sell %d %s, only %d held", quantity, symbol, pos.Quantity)
		}
		return pos, nil
	}

	if _, err := s.repo.GetPortfolio(ctx, portfolioID); err != nil {
		return nil, err
	}
	if _, err := checkHeld(s.repo); err != nil {
		return nil, err
	}

	// Priced outside the transaction so no write lock is held across the upstream call
	price, err := s.prices.CurrentPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}
	proceeds := price * float64(quantity)

	var remaining *domain.Position
	err = s.repo.InTx(ctx, func(tx *Repository) error {
		p, err := tx.GetPortfolio(ctx, portfolioID)
		if err != nil {
			return err
		}
		pos, err := checkHeld(tx)
		if err != nil {
			return err
		}

		if pos.Quantity == quantity {
			if err := tx.DeletePosition(ctx, portfolioID, symbol); err != nil {
				return err
			}
		} else {
			pos.Quantity -= quantity
			if err := tx.UpsertPosition(ctx, *pos); err != nil {
				return err
			}
			remaining = pos
		}
		return tx.UpdateCapital(ctx, portfolioID, p.RemainingCapital+proceeds)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("portfolio_id", portfolioID).
		Str("symbol", symbol).
		Int64("quantity", quantity).
		Float64("proceeds", proceeds).
		Msg("Position sold")
	s.record(ctx, fmt.Sprintf("sold %d %s for %.2f from portfolio %d", quantity, symbol, proceeds, portfolioID))

	return remaining, nil
}

// RemovePosition deletes a position and refunds its purchase cost
func (s *PortfolioService) RemovePosition(ctx context.Context, portfolioID int64, symbol string) error {
	symbol = normalizeSymbol(symbol)

	var refund float64
	err := s.repo.InTx(ctx, func(tx *Repository) error {
		p, err := tx.GetPortfolio(ctx, portfolioID)
		if err != nil {
			return err
		}

		pos, err := tx.GetPosition(ctx, portfolioID, symbol)
		if err != nil {
			return err
		}
		if pos == nil {
			return domain.Errorf(domain.KindEntityNotFound, nil, "portfolio %d holds no %s", portfolioID, symbol)
		}

		refund = pos.BuyPrice * float64(pos.Quantity)
		if err := tx.DeletePosition(ctx, portfolioID, symbol); err != nil {
			return err
		}
		return tx.UpdateCapital(ctx, portfolioID, p.RemainingCapital+refund)
	})
	if err != nil {
		return err
	}

	s.record(ctx, fmt.Sprintf("removed %s from portfolio %d, refunded %.2f", symbol, portfolioID, refund))
	return nil
}

// record appends to the access log; a failure never changes the outcome of the operation
func (s *PortfolioService) record(ctx context.Context, action string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, s.actor, action); err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("Failed to record audit entry")
	}
}
