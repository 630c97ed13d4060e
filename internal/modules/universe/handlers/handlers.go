// Package handlers provides HTTP handlers for stock reference data.
package handlers

import (
	"net/http"

	"github.com/aristath/appa/internal/httputil"
	"github.com/aristath/appa/internal/modules/universe"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles stock HTTP requests
type Handler struct {
	service *universe.Service
	log     zerolog.Logger
}

// NewHandler creates a new universe handler
func NewHandler(service *universe.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "universe").Logger(),
	}
}

// AddStockRequest is the body of POST /api/stocks
type AddStockRequest struct {
	Symbol string `json:"symbol"`
}

// HandleList handles GET /api/stocks
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	httputil.WriteData(w, h.log, http.StatusOK, stocks)
}

// HandleGet handles GET /api/stocks/{symbol}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	stock, err := h.service.Get(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	httputil.WriteData(w, h.log, http.StatusOK, stock)
}

// HandleAdd handles POST /api/stocks
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req AddStockRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}

	stock, err := h.service.EnsureStock(r.Context(), req.Symbol)
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	httputil.WriteData(w, h.log, http.StatusCreated, stock)
}

// HandleSearch handles GET /api/stocks/search?q=
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	httputil.WriteData(w, h.log, http.StatusOK, results)
}
