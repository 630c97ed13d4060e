// Package handlers provides HTTP handlers for portfolio management.
package handlers

import (
	"net/http"
	"time"

	"github.com/aristath/appa/internal/domain"
	"github.com/aristath/appa/internal/httputil"
	"github.com/aristath/appa/internal/modules/portfolio"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	service *portfolio.PortfolioService
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *portfolio.PortfolioService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// CreatePortfolioRequest is the body of POST /api/portfolios
type CreatePortfolioRequest struct {
	Name           string  `json:"name"`
	Owner          string  `json:"owner"`
	InitialCapital float64 `json:"initial_capital"`
}

// BuyRequest is the body of POST /api/portfolios/{id}/positions.
// BuyDate is an ISO date and defaults to today.
type BuyRequest struct {
	Symbol   string  `json:"symbol"`
	Quantity int64   `json:"quantity"`
	Price    float64 `json:"price"`
	BuyDate  string  `json:"buy_date,omitempty"`
}

// SellRequest is the body of POST /api/portfolios/{id}/positions/{symbol}/sell
type SellRequest struct {
	Quantity int64 `json:"quantity"`
}

// HandleList handles GET /api/portfolios?owner=
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	portfolios, err := h.service.ListPortfolios(r.Context(), r.URL.Query().Get("owner"))
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	httputil.WriteData(w, h.log, http.StatusOK, portfolios)
}

// HandleCreate handles POST /api/portfolios
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreatePortfolioRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}

	p, err := h.service.CreatePortfolio(r.Context(), req.Name, req.Owner, req.InitialCapital)
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	httputil.WriteData(w, h.log, http.StatusCreated, p)
}

// HandleGet handles GET /api/portfolios/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.Int64Param(r, "id")
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}

	p, err := h.service.GetPortfolio(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	httputil.WriteData(w, h.log, http.StatusOK, p)
}

// HandleDelete handles DELETE /api/portfolios/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.Int64Param(r, "id")
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}

	if err := h.service.DeletePortfolio(r.Context(), id); err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetPositions handles GET /api/portfolios/{id}/positions
func (h *Handler) HandleGetPositions(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.Int64Param(r, "id")
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}

	holdings, err := h.service.GetHoldings(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	httputil.WriteData(w, h.log, http.StatusOK, holdings)
}

// HandleBuy handles POST /api/portfolios/{id}/positions
func (h *Handler) HandleBuy(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.Int64Param(r, "id")
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}

	var req BuyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}

	var buyDate time.Time
	if req.BuyDate != "" {
		buyDate, err = time.Parse(domain.DateLayout, req.BuyDate)
		if err != nil {
			httputil.WriteError(w, h.log, domain.Errorf(domain.KindInvalidArgument, err, "invalid buy_date %q", req.BuyDate))
			return
		}
	}

	pos, err := h.service.Buy(r.Context(), id, portfolio.BuyRequest{
		Symbol:   req.Symbol,
		Quantity: req.Quantity,
		Price:    req.Price,
		BuyDate:  buyDate,
	})
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	httputil.WriteData(w, h.log, http.StatusCreated, pos)
}

// HandleSell handles POST /api/portfolios/{id}/positions/{symbol}/sell
func (h *Handler) HandleSell(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.Int64Param(r, "id")
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}

	var req SellRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}

	remaining, err := h.service.Sell(r.Context(), id, chi.URLParam(r, "symbol"), req.Quantity)
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	httputil.WriteData(w, h.log, http.StatusOK, map[string]interface{}{
		"position": remaining,
		"closed":   remaining == nil,
	})
}

// HandleRemovePosition handles DELETE /api/portfolios/{id}/positions/{symbol}
func (h *Handler) HandleRemovePosition(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.Int64Param(r, "id")
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}

	if err := h.service.RemovePosition(r.Context(), id, chi.URLParam(r, "symbol")); err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetSummary handles GET /api/portfolios/{id}/summary
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.Int64Param(r, "id")
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}

	summary, err := h.service.GetPortfolioSummary(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	httputil.WriteData(w, h.log, http.StatusOK, summary)
}
