// Package rebalancing turns target group allocations into per-stock share deltas.
package rebalancing

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/aristath/appa/internal/domain"
	"github.com/aristath/appa/internal/modules/allocation"
	"github.com/aristath/appa/pkg/formulas"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Valuer prices a portfolio's holdings
type Valuer interface {
	Valuate(ctx context.Context, portfolioID int64) (*allocation.Valuation, error)
}

// GroupPlan is one group's value before and after the proposed trades
type GroupPlan struct {
	CurrentValue  float64 `json:"current_value"`
	TargetPercent float64 `json:"target_percent"`
	TargetValue   float64 `json:"target_value"`
	AdjustedValue float64 `json:"adjusted_value"`
}

// Plan is a proposed rebalancing. Adjustments holds share deltas per symbol and
// the cash delta under CASH.
type Plan struct {
	PortfolioID      int64                `json:"portfolio_id"`
	Dimension        allocation.Dimension `json:"dimension"`
	CurrentTotal     float64              `json:"current_total"`
	ProjectedTotal   float64              `json:"projected_total"`
	Adjustments      map[string]float64   `json:"adjustments"`
	FinalAllocations map[string]float64   `json:"final_allocations"`
	FinalQuantities  map[string]int64     `json:"final_quantities"`
	Groups           map[string]GroupPlan `json:"groups"`
}

// Trades returns the non-zero share deltas, CASH excluded
func (p *Plan) Trades() map[string]float64 {
	trades := make(map[string]float64, len(p.Adjustments))
	for symbol, delta := range p.Adjustments {
		if symbol == domain.CashGroup || delta == 0 {
			continue
		}
		trades[symbol] = delta
	}
	return trades
}

// Planner computes rebalancing plans. It never mutates a portfolio.
type Planner struct {
	valuer Valuer
	log    zerolog.Logger
}

// NewPlanner creates a new rebalancing planner
func NewPlanner(valuer Valuer, log zerolog.Logger) *Planner {
	return &Planner{
		valuer: valuer,
		log:    log.With().Str("service", "rebalancing").Logger(),
	}
}

// ValidateTargets checks that targets are non-negative and sum to exactly 100.
// A "cash" key in any case is normalized to CASH.
func ValidateTargets(targets map[string]float64) (map[string]float64, error) {
	if len(targets) == 0 {
		return nil, domain.Errorf(domain.KindInvalidTargetAllocation, nil, "no target allocations given")
	}

	normalized := make(map[string]float64, len(targets))
	values := make([]float64, 0, len(targets))
	for group, pct := range targets {
		name := strings.TrimSpace(group)
		if strings.EqualFold(name, domain.CashGroup) {
			name = domain.CashGroup
		}
		if name == "" {
			return nil, domain.Errorf(domain.KindInvalidTargetAllocation, nil, "target group name is empty")
		}
		if math.IsNaN(pct) || math.IsInf(pct, 0) || pct < 0 {
			return nil, domain.Errorf(domain.KindInvalidTargetAllocation, nil, "target for %s must be a non-negative percentage, got %v", name, pct)
		}
		if _, dup := normalized[name]; dup {
			return nil, domain.Errorf(domain.KindInvalidTargetAllocation, nil, "duplicate target for %s", name)
		}
		normalized[name] = pct
		values = append(values, pct)
	}

	if sum := formulas.ExactSum(values...); !sum.Equal(hundred) {
		return nil, domain.Errorf(domain.KindInvalidTargetAllocation, nil, "target allocations must sum to 100, got %s", sum.String())
	}
	return normalized, nil
}

// Preview plans the trades that move the portfolio toward the target allocation.
//
// Each group's target value is split among its stocks in proportion to their
// current values. Share deltas round half up, so the projected
// total can drift from the current total by up to half a share per stock.
func (p *Planner) Preview(ctx context.Context, portfolioID int64, dim allocation.Dimension, targets map[string]float64) (*Plan, error) {
	dim, err := allocation.ParseDimension(string(dim))
	if err != nil {
		return nil, err
	}
	groupOf, err := dim.Grouper()
	if err != nil {
		return nil, err
	}
	targets, err = ValidateTargets(targets)
	if err != nil {
		return nil, err
	}

	v, err := p.valuer.Valuate(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	cash := v.Portfolio.RemainingCapital
	total := v.Total + cash
	groupValues := v.ValueByGroup(groupOf)

	plan := &Plan{
		PortfolioID:      portfolioID,
		Dimension:        dim,
		CurrentTotal:     total,
		Adjustments:      make(map[string]float64, len(v.Holdings)+1),
		FinalAllocations: make(map[string]float64),
		FinalQuantities:  make(map[string]int64, len(v.Holdings)),
		Groups:           make(map[string]GroupPlan),
	}

	for name, pct := range targets {
		plan.Groups[name] = GroupPlan{TargetPercent: pct, TargetValue: total * pct / 100}
	}
	for name, value := range groupValues {
		g := plan.Groups[name]
		g.CurrentValue = value
		plan.Groups[name] = g
	}

	projected := total
	for _, h := range sortedHoldings(v.Holdings) {
		symbol := strings.ToUpper(h.Symbol)
		group := groupOf(h.Stock)
		g := plan.Groups[group]

		price := v.Prices[symbol]
		current := v.Values[symbol]
		if price == 0 || g.CurrentValue == 0 {
			return nil, domain.Errorf(domain.KindDivisionByZero, nil, "%s has no price to rebalance against", symbol)
		}

		target := g.TargetValue * (current / g.CurrentValue)
		// ties round up: -1.5 sells one share, 1.5 buys two
		delta := math.Floor((target-current)/price + 0.5)

		g.AdjustedValue += current + delta*price
		plan.Groups[group] = g
		plan.Adjustments[symbol] = delta
		plan.FinalQuantities[symbol] = h.Quantity + int64(delta)
		projected += delta * price
	}

	cashGroup := plan.Groups[domain.CashGroup]
	cashGroup.CurrentValue = cash
	cashDelta := 0.0
	if _, ok := targets[domain.CashGroup]; ok {
		cashDelta = cashGroup.TargetValue - cash
	}
	cashGroup.AdjustedValue = cash + cashDelta
	plan.Groups[domain.CashGroup] = cashGroup
	plan.Adjustments[domain.CashGroup] = cashDelta
	projected += cashDelta
	plan.ProjectedTotal = projected

	for name, g := range plan.Groups {
		pct := 0.0
		if projected > 0 {
			pct = g.AdjustedValue / projected * 100
		}
		plan.FinalAllocations[name] = pct
	}

	p.log.Debug().
		Int64("portfolio_id", portfolioID).
		Str("dimension", string(dim)).
		Float64("current_total", total).
		Float64("projected_total", projected).
		Int("trades", len(plan.Trades())).
		Msg("Rebalancing planned")
	return plan, nil
}

func sortedHoldings(holdings []domain.Holding) []domain.Holding {
	out := make([]domain.Holding, len(holdings))
	copy(out, holdings)
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
