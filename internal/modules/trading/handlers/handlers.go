// Package handlers provides HTTP handlers for rebalancing execution and trade history.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aristath/appa/internal/domain"
	"github.com/aristath/appa/internal/httputil"
	"github.com/aristath/appa/internal/modules/allocation"
	"github.com/aristath/appa/internal/modules/rebalancing"
	"github.com/aristath/appa/internal/modules/trading"
	"github.com/rs/zerolog"
)

// Planner previews a rebalancing against target allocations
type Planner interface {
	Preview(ctx context.Context, portfolioID int64, dim allocation.Dimension, targets map[string]float64) (*rebalancing.Plan, error)
}

// TradingHandlers contains HTTP handlers for trading API
type TradingHandlers struct {
	executor *trading.Executor
	planner  Planner
	trades   *trading.TradeRepository
	log      zerolog.Logger
}

// NewTradingHandlers creates a new trading handlers instance
func NewTradingHandlers(executor *trading.Executor, planner Planner, trades *trading.TradeRepository, log zerolog.Logger) *TradingHandlers {
	return &TradingHandlers{
		executor: executor,
		planner:  planner,
		trades:   trades,
		log:      log.With().Str("handler", "trading").Logger(),
	}
}

// ExecuteRequest is the body of POST /api/portfolios/{id}/rebalance/execute.
// Either Adjustments (a previewed plan's adjustments) or Targets is given;
// Targets are planned along Dimension first.
type ExecuteRequest struct {
	Adjustments map[string]float64 `json:"adjustments,omitempty"`
	Dimension   string             `json:"dimension,omitempty"`
	Targets     map[string]float64 `json:"targets,omitempty"`
}

// HandleExecute handles POST /api/portfolios/{id}/rebalance/execute
func (h *TradingHandlers) HandleExecute(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.Int64Param(r, "id")
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}

	var req ExecuteRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}

	adjustments := req.Adjustments
	switch {
	case len(req.Adjustments) > 0 && len(req.Targets) > 0:
		httputil.WriteError(w, h.log, domain.Errorf(domain.KindInvalidArgument, nil, "give either adjustments or targets, not both"))
		return
	case len(req.Targets) > 0:
		if req.Dimension == "" {
			req.Dimension = string(allocation.DimensionSector)
		}
		plan, err := h.planner.Preview(r.Context(), id, allocation.Dimension(req.Dimension), req.Targets)
		if err != nil {
			httputil.WriteError(w, h.log, err)
			return
		}
		adjustments = plan.Adjustments
	case len(req.Adjustments) == 0:
		httputil.WriteError(w, h.log, domain.Errorf(domain.KindInvalidArgument, nil, "adjustments or targets are required"))
		return
	}

	result, err := h.executor.Execute(r.Context(), id, adjustments)
	if err != nil {
		if result != nil {
			httputil.WriteErrorData(w, h.log, err, result)
			return
		}
		httputil.WriteError(w, h.log, err)
		return
	}
	httputil.WriteData(w, h.log, http.StatusOK, result)
}

// HandleGetTrades handles GET /api/portfolios/{id}/trades?limit=
func (h *TradingHandlers) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.Int64Param(r, "id")
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httputil.WriteError(w, h.log, domain.Errorf(domain.KindInvalidArgument, err, "invalid limit %q", raw))
			return
		}
		limit = parsed
	}

	trades, err := h.trades.GetHistory(r.Context(), id, limit)
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	httputil.WriteData(w, h.log, http.StatusOK, trades)
}
