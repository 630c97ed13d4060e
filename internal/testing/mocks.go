package testing

import (
	"context"
	"sync"

	"github.com/aristath/appa/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockAuditRecorder is a testify mock of domain.AuditRecorder
type MockAuditRecorder struct {
	mock.Mock
}

// Record implements domain.AuditRecorder
func (m *MockAuditRecorder) Record(ctx context.Context, actor, action string) error {
	args := m.Called(ctx, actor, action)
	return args.Error(0)
}

// AuditLog is an in-memory domain.AuditRecorder that keeps every entry
type AuditLog struct {
	mu      sync.Mutex
	Entries []AuditEntry
	Err     error
}

// AuditEntry is one recorded (actor, action) pair
type AuditEntry struct {
	Actor  string
	Action string
}

// Record implements domain.AuditRecorder
func (a *AuditLog) Record(ctx context.Context, actor, action string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return a.Err
	}
	a.Entries = append(a.Entries, AuditEntry{Actor: actor, Action: action})
	return nil
}

// Len returns the number of recorded entries
func (a *AuditLog) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.Entries)
}

// RecordingInvalidator is a domain.CacheInvalidator that remembers invalidated symbols
type RecordingInvalidator struct {
	mu      sync.Mutex
	Symbols []string
}

// InvalidateSymbol implements domain.CacheInvalidator
func (r *RecordingInvalidator) InvalidateSymbol(ctx context.Context, symbol string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Symbols = append(r.Symbols, symbol)
	return nil
}

// StaticHoldings is an in-memory domain.HoldingsReader for a single portfolio
type StaticHoldings struct {
	Portfolio domain.Portfolio
	Holdings  []domain.Holding
}

// GetPortfolio implements domain.HoldingsReader
func (s *StaticHoldings) GetPortfolio(ctx context.Context, id int64) (*domain.Portfolio, error) {
	if id != s.Portfolio.ID {
		return nil, domain.Errorf(domain.KindEntityNotFound, nil, "portfolio %d not found", id)
	}
	p := s.Portfolio
	return &p, nil
}

// GetHoldings implements domain.HoldingsReader
func (s *StaticHoldings) GetHoldings(ctx context.Context, portfolioID int64) ([]domain.Holding, error) {
	if portfolioID != s.Portfolio.ID {
		return []domain.Holding{}, nil
	}
	return append([]domain.Holding(nil), s.Holdings...), nil
}

// StaticPrices is a domain.PriceProvider over a fixed price table that counts lookups
type StaticPrices struct {
	mu     sync.Mutex
	Prices map[string]float64
	calls  map[string]int
}

// NewStaticPrices creates a price table
func NewStaticPrices(prices map[string]float64) *StaticPrices {
	return &StaticPrices{Prices: prices, calls: make(map[string]int)}
}

// CurrentPrice implements domain.PriceProvider
func (s *StaticPrices) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[symbol]++
	p, ok := s.Prices[symbol]
	if !ok {
		return 0, domain.Errorf(domain.KindDataUnavailable, nil, "no price for %s", symbol)
	}
	return p, nil
}

// Calls returns how many times symbol was priced
func (s *StaticPrices) Calls(symbol string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[symbol]
}

var (
	_ domain.HoldingsReader   = (*StaticHoldings)(nil)
	_ domain.PriceProvider    = (*StaticPrices)(nil)
	_ domain.AuditRecorder    = (*MockAuditRecorder)(nil)
	_ domain.AuditRecorder    = (*AuditLog)(nil)
	_ domain.CacheInvalidator = (*RecordingInvalidator)(nil)
)
