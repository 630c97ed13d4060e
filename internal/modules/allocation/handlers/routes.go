package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers allocation routes on the router mounted at /api/portfolios
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/{id}/allocation", h.HandleGetAllocation)
	r.Get("/{id}/weights", h.HandleGetWeights)
}
