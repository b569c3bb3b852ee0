package search

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/catalog"
)

// ProductHit is a product enriched with computed review data
type ProductHit struct {
	catalog.Product
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int     `json:"reviewCount"`
}

// Pagination describes the page window of a result
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// CategoryCount is a category facet entry
type CategoryCount struct {
	CategoryID uuid.UUID `json:"categoryId"`
	Name       string    `json:"name"`
	Count      int64     `json:"count"`
}

// PriceBucket is a fixed-boundary price range facet entry
// Max is nil for the open-ended top bucket
type PriceBucket struct {
	Label string           `json:"label"`
	Min   decimal.Decimal  `json:"min"`
	Max   *decimal.Decimal `json:"max,omitempty"`
	Count int64            `json:"count"`
}

// RatingBucket is a minimum-rating facet entry
type RatingBucket struct {
	Rating int   `json:"rating"`
	Count  int64 `json:"count"`
}

// Facets groups the filter-UI counts computed alongside a search
type Facets struct {
	Categories  []CategoryCount `json:"categories"`
	PriceRanges []PriceBucket   `json:"priceRanges"`
	Ratings     []RatingBucket  `json:"ratings"`
}

// Result is the complete, ephemeral outcome of one search request
type Result struct {
	Products     []ProductHit `json:"products"`
	Pagination   Pagination   `json:"pagination"`
	Facets       Facets       `json:"facets"`
	Query        string       `json:"query"`
	ResultsFound bool         `json:"resultsFound"`
	// QueryID references the analytics snapshot for this execution and is
	// assigned per request, never served from cache
	QueryID string `json:"queryId,omitempty"`
}

// PriceBuckets returns the five fixed facet boundaries
func PriceBuckets() []PriceBucket {
	d := func(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
	p := func(v int64) *decimal.Decimal { x := d(v); return &x }
	return []PriceBucket{
		{Label: "Under 25", Min: d(0), Max: p(25)},
		{Label: "25 to 50", Min: d(25), Max: p(50)},
		{Label: "50 to 100", Min: d(50), Max: p(100)},
		{Label: "100 to 500", Min: d(100), Max: p(500)},
		{Label: "500 and up", Min: d(500), Max: nil},
	}
}
