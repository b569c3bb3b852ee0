package search

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SortMode enumerates the supported result orderings
type SortMode string

const (
	SortRelevance SortMode = "relevance"
	SortPriceAsc  SortMode = "price-asc"
	SortPriceDesc SortMode = "price-desc"
	SortRating    SortMode = "rating"
	SortNewest    SortMode = "newest"
	SortPopular   SortMode = "popular"
)

const (
	// DefaultLimit is the page size used when none is requested
	DefaultLimit = 20
	// MaxLimit bounds the page size a caller can request
	MaxLimit = 100
)

// FilterParams carries raw, unvalidated filter input from the caller
type FilterParams struct {
	Query      string
	CategoryID *uuid.UUID
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	MinRating  int
	InStock    bool
	Featured   bool
	Sort       string
	Page       int
	Limit      int
}

// Filters is an immutable, validated query descriptor
// Construct via NewFilters; no filter value causes an error, invalid
// pagination is clamped rather than rejected
type Filters struct {
	TenantID   uuid.UUID
	Query      string
	CategoryID *uuid.UUID
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	MinRating  int
	InStock    bool
	Featured   bool
	Sort       SortMode
	Page       int
	Limit      int
}

// NewFilters builds a validated filter descriptor for a tenant
func NewFilters(tenantID uuid.UUID, p FilterParams) Filters {
	f := Filters{
		TenantID:   tenantID,
		Query:      strings.TrimSpace(p.Query),
		CategoryID: p.CategoryID,
		InStock:    p.InStock,
		Featured:   p.Featured,
		Sort:       normalizeSort(p.Sort),
		Page:       p.Page,
		Limit:      p.Limit,
	}

	if p.MinPrice != nil && !p.MinPrice.IsNegative() {
		f.MinPrice = p.MinPrice
	}
	if p.MaxPrice != nil && !p.MaxPrice.IsNegative() {
		f.MaxPrice = p.MaxPrice
	}
	if p.MinRating >= 1 && p.MinRating <= 5 {
		f.MinRating = p.MinRating
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}

	return f
}

// Terms returns the free-text query split into lowercase terms
func (f Filters) Terms() []string {
	if f.Query == "" {
		return nil
	}
	return strings.Fields(strings.ToLower(f.Query))
}

// WithoutPagination returns a copy suitable for facet and count queries
func (f Filters) WithoutPagination() Filters {
	f.Page = 0
	f.Limit = 0
	return f
}

// Hash returns a short stable digest of the filter values, used in
// result cache keys (products:{tenantId}:p{page}:{filtersHash})
func (f Filters) Hash() string {
	h := fnv.New64a()
	fmt.Fprintf(h, "q=%s|c=%v|min=%v|max=%v|r=%d|s=%t|ft=%t|o=%s|l=%d",
		strings.ToLower(f.Query), f.CategoryID, f.MinPrice, f.MaxPrice,
		f.MinRating, f.InStock, f.Featured, f.Sort, f.Limit)
	return fmt.Sprintf("%x", h.Sum64())
}

func normalizeSort(s string) SortMode {
	switch SortMode(strings.ToLower(strings.TrimSpace(s))) {
	case SortPriceAsc:
		return SortPriceAsc
	case SortPriceDesc:
		return SortPriceDesc
	case SortRating:
		return SortRating
	case SortNewest:
		return SortNewest
	case SortPopular:
		return SortPopular
	default:
		return SortRelevance
	}
}
