package universe

import (
	"fmt"
	"strings"
	"sync"

	"github.com/aristath/appa/internal/domain"
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// SearchIndex is an in-memory full-text index over known stocks
type SearchIndex struct {
	index  bleve.Index
	mu     sync.RWMutex
	stocks map[string]domain.Stock
}

// NewSearchIndex creates an empty in-memory index
func NewSearchIndex() (*SearchIndex, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}
	return &SearchIndex{
		index:  index,
		stocks: make(map[string]domain.Stock),
	}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	stockMapping := bleve.NewDocumentMapping()

	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Store = false
	textFieldMapping.Index = true
	for _, field := range []string{"symbol", "name", "sector", "industry"} {
		stockMapping.AddFieldMappingsAt(field, textFieldMapping)
	}

	indexMapping.DefaultMapping = stockMapping
	return indexMapping
}

// Add indexes stocks, replacing earlier versions with the same symbol
func (s *SearchIndex) Add(stocks ...domain.Stock) error {
	if len(stocks) == 0 {
		return nil
	}

	batch := s.index.NewBatch()
	for _, st := range stocks {
		doc := map[string]interface{}{
			"symbol":   st.Symbol,
			"name":     st.Name,
			"sector":   st.Sector,
			"industry": st.Industry,
		}
		if err := batch.Index(st.Symbol, doc); err != nil {
			return fmt.Errorf("failed to add %s to batch: %w", st.Symbol, err)
		}
	}
	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}

	s.mu.Lock()
	for _, st := range stocks {
		s.stocks[st.Symbol] = st
	}
	s.mu.Unlock()
	return nil
}

// Search ranks known stocks by exact symbol, symbol prefix, then name match
func (s *SearchIndex) Search(query string, limit int) ([]domain.Stock, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []domain.Stock{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	exact := bleve.NewTermQuery(q)
	exact.SetField("symbol")
	exact.SetBoost(10.0)

	prefix := bleve.NewPrefixQuery(q)
	prefix.SetField("symbol")
	prefix.SetBoost(5.0)

	name := bleve.NewMatchQuery(query)
	name.SetField("name")
	name.SetBoost(3.0)

	namePrefix := bleve.NewPrefixQuery(q)
	namePrefix.SetField("name")
	namePrefix.SetBoost(1.5)

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(exact, prefix, name, namePrefix))
	req.Size = limit

	res, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Stock, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if st, ok := s.stocks[hit.ID]; ok {
			out = append(out, st)
		}
	}
	return out, nil
}

// Count returns the number of indexed stocks
func (s *SearchIndex) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stocks)
}

// Close releases the index
func (s *SearchIndex) Close() error {
	return s.index.Close()
}
