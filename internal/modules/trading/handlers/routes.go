package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers trading routes on the router mounted at /api/portfolios
func (h *TradingHandlers) RegisterRoutes(r chi.Router) {
	r.Post("/{id}/rebalance/execute", h.HandleExecute)
	r.Get("/{id}/trades", h.HandleGetTrades)
}
