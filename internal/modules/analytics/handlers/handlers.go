// Package handlers provides HTTP handlers for returns, volatility and price history.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/appa/internal/domain"
	"github.com/aristath/appa/internal/httputil"
	"github.com/aristath/appa/internal/modules/analytics"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// CacheClearer drops every cached analytics result
type CacheClearer interface {
	Clear(ctx context.Context) (int64, error)
}

// Handler handles analytics HTTP requests
type Handler struct {
	service *analytics.Service
	cache   CacheClearer
	log     zerolog.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(service *analytics.Service, cache CacheClearer, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		cache:   cache,
		log:     log.With().Str("handler", "analytics").Logger(),
	}
}

// HandleGetReturns handles GET /api/analytics/stocks/{symbol}/returns?period=
func (h *Handler) HandleGetReturns(w http.ResponseWriter, r *http.Request) {
	period, err := analytics.ParsePeriod(queryOr(r, "period", string(analytics.PeriodOneMonth)))
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}

	result, err := h.service.PeriodReturn(r.Context(), chi.URLParam(r, "symbol"), period)
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	httputil.WriteData(w, h.log, http.StatusOK, result)
}

// HandleGetVolatility handles GET /api/analytics/stocks/{symbol}/volatility?kind=
func (h *Handler) HandleGetVolatility(w http.ResponseWriter, r *http.Request) {
	kind, err := analytics.ParseVolatilityKind(queryOr(r, "kind", string(analytics.VolatilityMonthly)))
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}

	result, err := h.service.Volatility(r.Context(), chi.URLParam(r, "symbol"), kind)
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	httputil.WriteData(w, h.log, http.StatusOK, result)
}

// HandleGetPriceAt handles GET /api/analytics/stocks/{symbol}/price-at?date=YYYY-MM-DD
func (h *Handler) HandleGetPriceAt(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	date, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		httputil.WriteError(w, h.log, domain.Errorf(domain.KindInvalidArgument, err, "invalid date %q", raw))
		return
	}

	result, err := h.service.PriceAtDate(r.Context(), chi.URLParam(r, "symbol"), date)
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	httputil.WriteData(w, h.log, http.StatusOK, result)
}

// HandleGetHistory handles GET /api/analytics/stocks/{symbol}/history?window=
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	window, err := analytics.ParseHistoryWindow(queryOr(r, "window", string(analytics.HistoryOneMonth)))
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}

	series, err := h.service.History(r.Context(), chi.URLParam(r, "symbol"), window)
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	httputil.WriteData(w, h.log, http.StatusOK, series)
}

// HandleGetIndicators handles GET /api/analytics/stocks/{symbol}/indicators?length=
func (h *Handler) HandleGetIndicators(w http.ResponseWriter, r *http.Request) {
	length := analytics.DefaultIndicatorLength
	if raw := r.URL.Query().Get("length"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, h.log, domain.Errorf(domain.KindInvalidArgument, err, "invalid length %q", raw))
			return
		}
		length = v
	}

	result, err := h.service.Indicators(r.Context(), chi.URLParam(r, "symbol"), length)
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	httputil.WriteData(w, h.log, http.StatusOK, result)
}

// HandleGetPortfolioReturns handles GET /api/analytics/portfolios/{id}/returns?period=
func (h *Handler) HandleGetPortfolioReturns(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.Int64Param(r, "id")
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	period, err := analytics.ParsePeriod(queryOr(r, "period", string(analytics.PeriodOneMonth)))
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}

	result, err := h.service.PortfolioPeriodReturn(r.Context(), id, period)
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	httputil.WriteData(w, h.log, http.StatusOK, result)
}

// HandleGetPortfolioVolatility handles GET /api/analytics/portfolios/{id}/volatility?kind=monthly|annualized
func (h *Handler) HandleGetPortfolioVolatility(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.Int64Param(r, "id")
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}

	var result *analytics.PortfolioVolatility
	switch kind := queryOr(r, "kind", string(analytics.VolatilityMonthly)); analytics.VolatilityKind(kind) {
	case analytics.VolatilityMonthly:
		result, err = h.service.PortfolioMonthlyVolatility(r.Context(), id)
	case analytics.VolatilityAnnualized:
		result, err = h.service.PortfolioAnnualizedVolatility(r.Context(), id)
	default:
		err = domain.Errorf(domain.KindInvalidArgument, nil, "portfolio volatility kind must be monthly or annualized, got %q", kind)
	}
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	httputil.WriteData(w, h.log, http.StatusOK, result)
}

// HandleClearCache handles DELETE /api/cache
func (h *Handler) HandleClearCache(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.cache.Clear(r.Context())
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}

	h.log.Info().Int64("deleted", deleted).Msg("Analytics cache cleared")
	httputil.WriteData(w, h.log, http.StatusOK, map[string]interface{}{"deleted": deleted})
}

func queryOr(r *http.Request, key, fallback string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return fallback
}
