package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers analytics and cache routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Route("/stocks/{symbol}", func(r chi.Router) {
			r.Get("/returns", h.HandleGetReturns)
			r.Get("/volatility", h.HandleGetVolatility)
			r.Get("/price-at", h.HandleGetPriceAt)
			r.Get("/history", h.HandleGetHistory)
			r.Get("/indicators", h.HandleGetIndicators)
		})

		r.Route("/portfolios/{id}", func(r chi.Router) {
			r.Get("/returns", h.HandleGetPortfolioReturns)
			r.Get("/volatility", h.HandleGetPortfolioVolatility)
		})
	})

	r.Delete("/cache", h.HandleClearCache)
}
