package server

import (
	"net/http"

	"github.com/aristath/appa/internal/httputil"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "appa",
	}

	httputil.WriteJSON(w, s.log, http.StatusOK, response)
}
