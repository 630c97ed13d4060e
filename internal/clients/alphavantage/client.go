// Package alphavantage provides a client for the Alpha Vantage market-data API.
package alphavantage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL           = "https://www.alphavantage.co/query"
	DefaultTimeout           = 30 * time.Second
	DefaultDailyLimit        = 25
	DefaultRequestsPerMinute = 5
)

type cacheEntry struct {
	data      interface{}
	expiresAt time.Time
}

// Client talks to Alpha Vantage with a daily request budget, a per-minute
// throttle and an in-process response cache.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger

	mu           sync.Mutex
	dailyLimit   int
	requestCount int
	resetAt      time.Time

	cacheMu  sync.RWMutex
	cache    map[string]cacheEntry
	cacheTTL CacheTTL
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithDailyLimit sets the number of requests allowed per UTC day
func WithDailyLimit(limit int) ClientOption {
	return func(c *Client) {
		c.dailyLimit = limit
	}
}

// WithRequestsPerMinute sets the throttle
func WithRequestsPerMinute(rpm int) ClientOption {
	return func(c *Client) {
		if rpm <= 0 {
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)
	}
}

// NewClient creates a new Alpha Vantage client
func NewClient(apiKey string, log zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/DefaultRequestsPerMinute), DefaultRequestsPerMinute),
		log:        log.With().Str("client", "alphavantage").Logger(),
		dailyLimit: DefaultDailyLimit,
		resetAt:    nextMidnightUTC(),
		cache:      make(map[string]cacheEntry),
		cacheTTL:   DefaultCacheTTL(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

var _ ClientInterface = (*Client)(nil)

// GetRemainingRequests returns how many requests are left in today's budget
func (c *Client) GetRemainingRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybeResetLocked()
	return c.dailyLimit - c.requestCount
}

func (c *Client) maybeResetLocked() {
	if time.Now().UTC().After(c.resetAt) {
		c.requestCount = 0
		c.resetAt = nextMidnightUTC()
	}
}

// checkRateLimit consumes one request from the daily budget
func (c *Client) checkRateLimit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybeResetLocked()

	if c.requestCount >= c.dailyLimit {
		return ErrRateLimitExceeded{ResetAt: c.resetAt.Format(time.RFC3339)}
	}
	c.requestCount++
	return nil
}

func (c *Client) setCache(key string, data interface{}, ttl time.Duration) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	c.cache[key] = cacheEntry{data: data, expiresAt: time.Now().Add(ttl)}
}

func (c *Client) getFromCache(key string) (interface{}, bool) {
	c.cacheMu.RLock()
	entry, ok := c.cache[key]
	c.cacheMu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.cacheMu.Lock()
		delete(c.cache, key)
		c.cacheMu.Unlock()
		return nil, false
	}
	return entry.data, true
}

// buildCacheKey renders function and params deterministically, without the API key
func buildCacheKey(function string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "apikey" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(function)
	for _, k := range keys {
		b.WriteString("|")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(params[k])
	}
	return b.String()
}

// checkAPIError inspects a 200 response for Alpha Vantage's in-band errors
func (c *Client) checkAPIError(body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if bytes.Contains(trimmed, []byte("Thank you for using Alpha Vantage")) && !bytes.HasPrefix(trimmed, []byte("{")) {
		return ErrRateLimitExceeded{}
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil
	}

	if _, ok := probe["Note"]; ok {
		return ErrRateLimitExceeded{}
	}
	if raw, ok := probe["Information"]; ok {
		var msg string
		_ = json.Unmarshal(raw, &msg)
		if strings.Contains(strings.ToLower(msg), "api key") && !strings.Contains(strings.ToLower(msg), "rate limit") {
			return ErrInvalidAPIKey{}
		}
		return ErrRateLimitExceeded{}
	}
	if raw, ok := probe["Error Message"]; ok {
		var msg string
		_ = json.Unmarshal(raw, &msg)
		if strings.Contains(strings.ToLower(msg), "apikey") {
			return ErrInvalidAPIKey{}
		}
		return ErrAPI{Message: msg}
	}
	return nil
}

// fetch performs one API call: budget, throttle, request, in-band error check
func (c *Client) fetch(ctx context.Context, function string, params map[string]string) ([]byte, error) {
	if err := c.checkRateLimit(); err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	q := url.Values{}
	q.Set("function", function)
	for k, v := range params {
		q.Set(k, v)
	}
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.log.Error().Err(err).Str("function", function).Dur("elapsed", elapsed).Msg("Alpha Vantage request failed")
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Str("function", function).Int("status", resp.StatusCode).Msg("Alpha Vantage non-OK response")
		return nil, fmt.Errorf("alpha vantage returned status %d", resp.StatusCode)
	}

	if err := c.checkAPIError(body); err != nil {
		return nil, err
	}

	c.log.Debug().
		Str("function", function).
		Dur("elapsed", elapsed).
		Int("bytes", len(body)).
		Msg("Alpha Vantage request completed")

	return body, nil
}

// GetGlobalQuote returns the latest quote for a symbol
func (c *Client) GetGlobalQuote(ctx context.Context, symbol string) (*GlobalQuote, error) {
	params := map[string]string{"symbol": symbol}
	key := buildCacheKey("GLOBAL_QUOTE", params)
	if cached, ok := c.getFromCache(key); ok {
		return cached.(*GlobalQuote), nil
	}

	body, err := c.fetch(ctx, "GLOBAL_QUOTE", params)
	if err != nil {
		return nil, err
	}

	quote, err := parseGlobalQuote(body)
	if err != nil {
		return nil, ErrSymbolNotFound{Symbol: symbol}
	}

	c.setCache(key, quote, c.ttl().PriceData)
	return quote, nil
}

// GetDailyPrices returns daily bars, newest first
func (c *Client) GetDailyPrices(ctx context.Context, symbol string, size OutputSize) ([]DailyPrice, error) {
	if size == "" {
		size = OutputCompact
	}
	params := map[string]string{"symbol": symbol, "outputsize": string(size)}
	key := buildCacheKey("TIME_SERIES_DAILY", params)
	if cached, ok := c.getFromCache(key); ok {
		return cached.([]DailyPrice), nil
	}

	body, err := c.fetch(ctx, "TIME_SERIES_DAILY", params)
	if err != nil {
		return nil, err
	}

	prices, err := parseDailyTimeSeries(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse daily series for %s: %w", symbol, err)
	}

	c.setCache(key, prices, c.ttl().PriceData)
	return prices, nil
}

// GetMonthlyPrices returns month-end bars, newest first
func (c *Client) GetMonthlyPrices(ctx context.Context, symbol string) ([]DailyPrice, error) {
	params := map[string]string{"symbol": symbol}
	key := buildCacheKey("TIME_SERIES_MONTHLY", params)
	if cached, ok := c.getFromCache(key); ok {
		return cached.([]DailyPrice), nil
	}

	body, err := c.fetch(ctx, "TIME_SERIES_MONTHLY", params)
	if err != nil {
		return nil, err
	}

	prices, err := parseMonthlyTimeSeries(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse monthly series for %s: %w", symbol, err)
	}

	c.setCache(key, prices, c.ttl().PriceData)
	return prices, nil
}

// GetCompanyOverview returns reference data for a symbol
func (c *Client) GetCompanyOverview(ctx context.Context, symbol string) (*CompanyOverview, error) {
	params := map[string]string{"symbol": symbol}
	key := buildCacheKey("OVERVIEW", params)
	if cached, ok := c.getFromCache(key); ok {
		return cached.(*CompanyOverview), nil
	}

	body, err := c.fetch(ctx, "OVERVIEW", params)
	if err != nil {
		return nil, err
	}

	overview, err := parseCompanyOverview(body)
	if err != nil {
		return nil, ErrSymbolNotFound{Symbol: symbol}
	}

	c.setCache(key, overview, c.ttl().Fundamentals)
	return overview, nil
}

// SymbolSearch runs a free-text ticker search
func (c *Client) SymbolSearch(ctx context.Context, keywords string) ([]SymbolMatch, error) {
	params := map[string]string{"keywords": keywords}
	key := buildCacheKey("SYMBOL_SEARCH", params)
	if cached, ok := c.getFromCache(key); ok {
		return cached.([]SymbolMatch), nil
	}

	body, err := c.fetch(ctx, "SYMBOL_SEARCH", params)
	if err != nil {
		return nil, err
	}

	matches, err := parseSymbolSearch(body)
	if err != nil {
		return nil, err
	}

	c.setCache(key, matches, c.ttl().Search)
	return matches, nil
}

func (c *Client) ttl() CacheTTL {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()
	return c.cacheTTL
}

func nextMidnightUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
}
