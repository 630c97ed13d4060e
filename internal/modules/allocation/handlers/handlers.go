// Package handlers provides HTTP handlers for portfolio weights and group allocation.
package handlers

import (
	"net/http"

	"github.com/aristath/appa/internal/httputil"
	"github.com/aristath/appa/internal/modules/allocation"
	"github.com/rs/zerolog"
)

// Handler handles allocation HTTP requests
type Handler struct {
	engine *allocation.Engine
	log    zerolog.Logger
}

// NewHandler creates a new allocation handler
func NewHandler(engine *allocation.Engine, log zerolog.Logger) *Handler {
	return &Handler{
		engine: engine,
		log:    log.With().Str("handler", "allocation").Logger(),
	}
}

// HandleGetAllocation handles GET /api/portfolios/{id}/allocation?dimension=
func (h *Handler) HandleGetAllocation(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.Int64Param(r, "id")
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}

	raw := r.URL.Query().Get("dimension")
	if raw == "" {
		raw = string(allocation.DimensionSector)
	}
	dim, err := allocation.ParseDimension(raw)
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}

	summary, err := h.engine.GroupingSummary(r.Context(), id, dim)
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	httputil.WriteData(w, h.log, http.StatusOK, summary)
}

// HandleGetWeights handles GET /api/portfolios/{id}/weights
func (h *Handler) HandleGetWeights(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.Int64Param(r, "id")
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}

	weights, err := h.engine.StockWeights(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	httputil.WriteData(w, h.log, http.StatusOK, weights)
}
