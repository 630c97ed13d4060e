package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aristath/appa/internal/modules/marketdata"
	"github.com/aristath/appa/internal/modules/portfolio"
	"github.com/aristath/appa/internal/modules/universe"
	testingpkg "github.com/aristath/appa/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (chi.Router, *testingpkg.FakeMarketData) {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)

	db, cleanup := testingpkg.NewTestDB(t, "portfolio")
	t.Cleanup(cleanup)

	index, err := universe.NewSearchIndex()
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	fake := testingpkg.SeedOverviews(testingpkg.NewFakeMarketData(), testingpkg.NewStockFixtures())
	accessor := marketdata.NewAccessor(fake, log)
	stocks := universe.NewService(universe.NewRepository(db.Conn(), log), accessor, index, log)
	svc := portfolio.NewPortfolioService(portfolio.NewRepository(db.Conn(), log), stocks, accessor, &testingpkg.AuditLog{}, "tester", log)

	r := chi.NewRouter()
	r.Route("/api/portfolios", NewHandler(svc, log).RegisterRoutes)
	return r, fake
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createPortfolio(t *testing.T, r http.Handler, capital float64) int64 {
	t.Helper()
	w := do(r, http.MethodPost, "/api/portfolios", fmt.Sprintf(`{"name":"Main","owner":"alice","initial_capital":%v}`, capital))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body struct {
		Data struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Data.ID
}

func TestPortfolioLifecycle(t *testing.T) {
	r, fake := setupRouter(t)
	id := createPortfolio(t, r, 1000)
	base := fmt.Sprintf("/api/portfolios/%d", id)

	w := do(r, http.MethodPost, base+"/positions", `{"symbol":"AAPL","quantity":4,"price":100,"buy_date":"2026-01-05"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodGet, base+"/positions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sector":"Technology"`)

	fake.SetPrice("AAPL", 125, 120)
	w = do(r, http.MethodGet, base+"/summary", "")
	require.Equal(t, http.StatusOK, w.Code)

	var summary struct {
		Data portfolio.PortfolioSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 500.0, summary.Data.CurrentValue)
	assert.Equal(t, 600.0, summary.Data.RemainingCapital)

	w = do(r, http.MethodPost, base+"/positions/AAPL/sell", `{"quantity":4}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"closed":true`)

	w = do(r, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleBuy_Errors(t *testing.T) {
	r, _ := setupRouter(t)
	id := createPortfolio(t, r, 100)
	path := fmt.Sprintf("/api/portfolios/%d/positions", id)

	tests := []struct {
		name   string
		body   string
		status int
		kind   string
	}{
		{"insufficient funds", `{"symbol":"AAPL","quantity":10,"price":100}`, http.StatusConflict, "InsufficientFunds"},
		{"bad date", `{"symbol":"AAPL","quantity":1,"price":1,"buy_date":"05/01/2026"}`, http.StatusBadRequest, "InvalidArgument"},
		{"unknown stock", `{"symbol":"ZZZZ","quantity":1,"price":1}`, http.StatusNotFound, "EntityNotFound"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, path, tt.body)
			assert.Equal(t, tt.status, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.kind, body["kind"])
		})
	}
}

func TestHandleGet_InvalidID(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodGet, "/api/portfolios/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleList_ByOwner(t *testing.T) {
	r, _ := setupRouter(t)
	createPortfolio(t, r, 10)

	w := do(r, http.MethodGet, "/api/portfolios?owner=bob", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Data)
}
