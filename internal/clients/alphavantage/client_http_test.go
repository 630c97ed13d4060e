package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client := NewClient("test-key", zerolog.Nop(),
		WithBaseURL(srv.URL),
		WithRequestsPerMinute(600),
		WithTimeout(5*time.Second),
	)
	return client, &calls
}

func TestGetGlobalQuote_UsesCache(t *testing.T) {
	client, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		assert.Equal(t, "IBM", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		_, _ = w.Write([]byte(`{"Global Quote": {"01. symbol": "IBM", "05. price": "186.20", "08. previous close": "185.00"}}`))
	})
	ctx := context.Background()

	quote, err := client.GetGlobalQuote(ctx, "IBM")
	require.NoError(t, err)
	assert.Equal(t, 186.2, quote.Price)
	assert.Equal(t, 185.0, quote.PreviousClose)

	_, err = client.GetGlobalQuote(ctx, "IBM")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Equal(t, DefaultDailyLimit-1, client.GetRemainingRequests())
}

func TestGetGlobalQuote_EmptyQuoteIsSymbolNotFound(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Global Quote": {}}`))
	})

	_, err := client.GetGlobalQuote(context.Background(), "NOPE")
	require.Error(t, err)
	assert.IsType(t, ErrSymbolNotFound{}, err)
}

func TestGetDailyPrices_PassesOutputSize(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TIME_SERIES_DAILY", r.URL.Query().Get("function"))
		assert.Equal(t, "full", r.URL.Query().Get("outputsize"))
		_, _ = w.Write([]byte(`{"Time Series (Daily)": {
			"2024-01-12": {"4. close": "10.0"},
			"2024-01-15": {"4. close": "11.0"}
		}}`))
	})

	prices, err := client.GetDailyPrices(context.Background(), "IBM", OutputFull)
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, 11.0, prices[0].Close)
	assert.Equal(t, 10.0, prices[1].Close)
}

func TestGetMonthlyPrices(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TIME_SERIES_MONTHLY", r.URL.Query().Get("function"))
		_, _ = w.Write([]byte(`{"Monthly Time Series": {
			"2023-11-30": {"4. close": "140.0"},
			"2023-12-29": {"4. close": "150.0"}
		}}`))
	})

	prices, err := client.GetMonthlyPrices(context.Background(), "IBM")
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, 12, int(prices[0].Date.Month()))
}

func TestFetch_RateLimitNote(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute"}`))
	})

	_, err := client.GetMonthlyPrices(context.Background(), "IBM")
	require.Error(t, err)
	assert.IsType(t, ErrRateLimitExceeded{}, err)
}

func TestFetch_Non200(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.SymbolSearch(context.Background(), "ibm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestFetch_DailyBudgetExhausted(t *testing.T) {
	client, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"bestMatches": []}`))
	})
	client.dailyLimit = 1

	_, err := client.SymbolSearch(context.Background(), "a")
	require.NoError(t, err)

	_, err = client.SymbolSearch(context.Background(), "b")
	require.Error(t, err)
	assert.IsType(t, ErrRateLimitExceeded{}, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestGetCompanyOverview_Empty(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := client.GetCompanyOverview(context.Background(), "XYZ")
	require.Error(t, err)
	assert.Equal(t, ErrSymbolNotFound{Symbol: "XYZ"}, err)
}

func TestParseMonthlyTimeSeries_MissingSection(t *testing.T) {
	_, err := parseMonthlyTimeSeries([]byte(`{"Meta Data": {}}`))
	assert.Error(t, err)
}
