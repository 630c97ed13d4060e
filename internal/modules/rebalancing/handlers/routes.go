package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers rebalancing routes on the router mounted at /api/portfolios
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/{id}/rebalance/preview", h.HandlePreview)
}
