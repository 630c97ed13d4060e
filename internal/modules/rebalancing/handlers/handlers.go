// Package handlers provides HTTP handlers for rebalancing previews.
package handlers

import (
	"net/http"

	"github.com/aristath/appa/internal/httputil"
	"github.com/aristath/appa/internal/modules/allocation"
	"github.com/aristath/appa/internal/modules/rebalancing"
	"github.com/rs/zerolog"
)

// Handler handles rebalancing HTTP requests
type Handler struct {
	planner *rebalancing.Planner
	log     zerolog.Logger
}

// NewHandler creates a new rebalancing handler
func NewHandler(planner *rebalancing.Planner, log zerolog.Logger) *Handler {
	return &Handler{
		planner: planner,
		log:     log.With().Str("handler", "rebalancing").Logger(),
	}
}

// PreviewRequest is the body of POST /api/portfolios/{id}/rebalance/preview.
// Dimension defaults to sector.
type PreviewRequest struct {
	Dimension string             `json:"dimension"`
	Targets   map[string]float64 `json:"targets"`
}

// HandlePreview handles POST /api/portfolios/{id}/rebalance/preview
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.Int64Param(r, "id")
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}

	var req PreviewRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	if req.Dimension == "" {
		req.Dimension = string(allocation.DimensionSector)
	}

	plan, err := h.planner.Preview(r.Context(), id, allocation.Dimension(req.Dimension), req.Targets)
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	httputil.WriteData(w, h.log, http.StatusOK, plan)
}
