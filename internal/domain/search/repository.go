package search

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/catalog"
)

// ProductSearcher reads products for the search engine
// Implementations apply the filter predicate plus sort and pagination;
// the same predicate minus pagination backs the count and facet queries
type ProductSearcher interface {
	Search(ctx context.Context, f Filters) ([]catalog.Product, int64, error)
	CountByCategory(ctx context.Context, f Filters) ([]CategoryCount, error)
	CountPriceRange(ctx context.Context, f Filters, min decimal.Decimal, max *decimal.Decimal) (int64, error)
	SuggestNames(ctx context.Context, tenantID uuid.UUID, prefix string, limit int) ([]Suggestion, error)
}

// CategorySuggester reads category names for autocomplete
type CategorySuggester interface {
	SuggestNames(ctx context.Context, tenantID uuid.UUID, prefix string, limit int) ([]Suggestion, error)
}

// RatingAggregate is the computed review summary for one product
type RatingAggregate struct {
	ProductID uuid.UUID
	Average   float64
	Count     int
}

// ReviewAggregator computes rating data from approved review rows
type ReviewAggregator interface {
	AggregatesFor(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]RatingAggregate, error)
}
