package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aristath/appa/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind     domain.Kind
		expected int
	}{
		{domain.KindEntityNotFound, http.StatusNotFound},
		{domain.KindInvalidArgument, http.StatusBadRequest},
		{domain.KindInvalidTargetAllocation, http.StatusBadRequest},
		{domain.KindInsufficientFunds, http.StatusConflict},
		{domain.KindInsufficientQuantity, http.StatusConflict},
		{domain.KindNoPriceFound, http.StatusUnprocessableEntity},
		{domain.KindEmptyPortfolio, http.StatusUnprocessableEntity},
		{domain.KindDataUnavailable, http.StatusBadGateway},
		{domain.KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusFor(tt.kind))
		})
	}
}

func TestWriteError_PreservesCause(t *testing.T) {
	w := httptest.NewRecorder()
	cause := errors.New("upstream timeout")
	err := fmt.Errorf("failed to price: %w",
		domain.Errorf(domain.KindDataUnavailable, cause, "quote unavailable for IBM"))

	WriteError(w, zerolog.Nop(), err)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "DataUnavailable", body["kind"])
	assert.Equal(t, "upstream timeout", body["cause"])
	assert.Contains(t, body["error"], "quote unavailable for IBM")
}

func TestWriteData_Envelope(t *testing.T) {
	w := httptest.NewRecorder()
	WriteData(w, zerolog.Nop(), http.StatusOK, map[string]int{"x": 1})

	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Contains(t, body, "data")
	assert.Contains(t, body, "metadata")
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	var dest struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","extra":1}`))

	err := DecodeJSON(req, &dest)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestInt64Param(t *testing.T) {
	r := chi.NewRouter()
	var got int64
	var gotErr error
	r.Get("/p/{id}", func(w http.ResponseWriter, req *http.Request) {
		got, gotErr = Int64Param(req, "id")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/p/42", nil))
	require.NoError(t, gotErr)
	assert.Equal(t, int64(42), got)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/p/abc", nil))
	assert.True(t, errors.Is(gotErr, domain.ErrInvalidArgument))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/p/0", nil))
	assert.True(t, errors.Is(gotErr, domain.ErrInvalidArgument))
}
