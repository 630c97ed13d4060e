package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers portfolio routes on the router mounted at /api/portfolios.
// Patterns are flat so other modules can add /{id}/... routes to the same router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)

	r.Get("/{id}", h.HandleGet)
	r.Delete("/{id}", h.HandleDelete)
	r.Get("/{id}/summary", h.HandleGetSummary)

	r.Get("/{id}/positions", h.HandleGetPositions)
	r.Post("/{id}/positions", h.HandleBuy)
	r.Delete("/{id}/positions/{symbol}", h.HandleRemovePosition)
	r.Post("/{id}/positions/{symbol}/sell", h.HandleSell)
}
