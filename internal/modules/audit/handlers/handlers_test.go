package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/appa/internal/modules/audit"
	testingpkg "github.com/aristath/appa/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleRecent(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "ledger")
	defer cleanup()
	repo := audit.NewRepository(db.Conn(), zerolog.Nop())
	require.NoError(t, repo.Record(context.Background(), "alice", "created portfolio 1"))
	require.NoError(t, repo.Record(context.Background(), "bob", "created portfolio 2"))

	r := chi.NewRouter()
	NewHandler(repo, zerolog.Nop()).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/audit?actor=alice", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "created portfolio 1")
	assert.NotContains(t, w.Body.String(), "created portfolio 2")

	req = httptest.NewRequest(http.MethodGet, "/audit?limit=-1", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
