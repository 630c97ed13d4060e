package marketdata

import (
	"context"
	"strings"
	"sync"

	"github.com/aristath/appa/internal/domain"
)

// PriceBook memoizes current prices for the duration of one computation so
// each symbol is priced once and totals stay stable if prices tick mid-call.
type PriceBook struct {
	provider domain.PriceProvider
	mu       sync.Mutex
	prices   map[string]float64
}

// NewPriceBook creates an empty price book
func NewPriceBook(provider domain.PriceProvider) *PriceBook {
	return &PriceBook{
		provider: provider,
		prices:   make(map[string]float64),
	}
}

// Price returns the memoized price, fetching it on first use
func (b *PriceBook) Price(ctx context.Context, symbol string) (float64, error) {
	symbol = strings.ToUpper(symbol)

	b.mu.Lock()
	p, ok := b.prices[symbol]
	b.mu.Unlock()
	if ok {
		return p, nil
	}

	p, err := b.provider.CurrentPrice(ctx, symbol)
	if err != nil {
		return 0, err
	}

	b.mu.Lock()
	b.prices[symbol] = p
	b.mu.Unlock()
	return p, nil
}

// Snapshot returns a copy of all prices fetched so far
func (b *PriceBook) Snapshot() map[string]float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]float64, len(b.prices))
	for k, v := range b.prices {
		out[k] = v
	}
	return out
}
