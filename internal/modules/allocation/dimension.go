package allocation

import (
	"strings"

	"github.com/aristath/appa/internal/domain"
)

// Dimension is a stock attribute holdings are grouped by
type Dimension string

const (
	DimensionSector   Dimension = "sector"
	DimensionIndustry Dimension = "industry"
	DimensionExchange Dimension = "exchange"
	DimensionCountry  Dimension = "country"
)

// Dimensions lists every supported grouping dimension
var Dimensions = []Dimension{DimensionSector, DimensionIndustry, DimensionExchange, DimensionCountry}

// GroupFunc maps a stock to its group along one dimension
type GroupFunc func(domain.Stock) string

// ParseDimension resolves a dimension name, case-insensitively
func ParseDimension(s string) (Dimension, error) {
	d := Dimension(strings.ToLower(strings.TrimSpace(s)))
	if _, err := d.Grouper(); err != nil {
		return "", err
	}
	return d, nil
}

// Grouper resolves the stock attribute this dimension groups by
func (d Dimension) Grouper() (GroupFunc, error) {
	switch d {
	case DimensionSector:
		return func(s domain.Stock) string { return s.Sector }, nil
	case DimensionIndustry:
		return func(s domain.Stock) string { return s.Industry }, nil
	case DimensionExchange:
		return func(s domain.Stock) string { return s.Exchange }, nil
	case DimensionCountry:
		return func(s domain.Stock) string { return s.Country }, nil
	default:
		return nil, domain.Errorf(domain.KindInvalidArgument, nil,
			"unknown grouping dimension %q (want sector, industry, exchange or country)", string(d))
	}
}
