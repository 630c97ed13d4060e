// Package handlers exposes the access log over HTTP.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/aristath/appa/internal/domain"
	"github.com/aristath/appa/internal/httputil"
	"github.com/aristath/appa/internal/modules/audit"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles access log HTTP requests
type Handler struct {
	repo *audit.Repository
	log  zerolog.Logger
}

// NewHandler creates a new access log handler
func NewHandler(repo *audit.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "audit").Logger(),
	}
}

// HandleRecent handles GET /api/audit?actor=&limit=
func (h *Handler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > 1000 {
			httputil.WriteError(w, h.log, domain.Errorf(domain.KindInvalidArgument, err, "invalid limit %q", raw))
			return
		}
		limit = v
	}

	entries, err := h.repo.Recent(r.Context(), r.URL.Query().Get("actor"), limit)
	if err != nil {
		httputil.WriteError(w, h.log, err)
		return
	}
	httputil.WriteData(w, h.log, http.StatusOK, entries)
}

// RegisterRoutes registers access log routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/audit", h.HandleRecent)
}
