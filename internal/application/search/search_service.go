package search

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/search"
	"github.com/storefront/backend/internal/infrastructure/cache"
)

// resultKeyFmt is the result page cache key: products:{tenantId}:p{page}:{filtersHash}
const resultKeyFmt = "products:%s:p%d:%s"

// Service executes storefront searches: filtering, sorting, pagination,
// facet computation, and review enrichment, with page-level result caching
//
// Search never returns an error to its caller. Storefront search is a
// best-effort surface; any backend failure degrades to an empty result
type Service struct {
	products  search.ProductSearcher
	reviews   search.ReviewAggregator
	cache     cache.Cache
	analytics *AnalyticsService
	resultTTL time.Duration
	logger    *zap.Logger
}

// NewService creates a search service
// analytics may be nil, in which case searches are not tracked
func NewService(
	products search.ProductSearcher,
	reviews search.ReviewAggregator,
	c cache.Cache,
	analytics *AnalyticsService,
	resultTTL time.Duration,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resultTTL <= 0 {
		resultTTL = 5 * time.Minute
	}
	return &Service{
		products:  products,
		reviews:   reviews,
		cache:     c,
		analytics: analytics,
		resultTTL: resultTTL,
		logger:    logger,
	}
}

// Search runs one search request end to end
//
// Identical filters within the cache TTL are served from the cached page;
// the analytics query ID is still minted per request so click tracking
// stays attributable. Equal pages requested twice in a row return the
// same products in the same order
func (s *Service) Search(ctx context.Context, f search.Filters, sessionID string) *search.Result {
	key := fmt.Sprintf(resultKeyFmt, f.TenantID, f.Page, f.Hash())

	if cached := s.fromCache(ctx, key); cached != nil {
		cached.QueryID = s.track(f, sessionID, cached.Pagination.Total)
		return cached
	}

	result, err := s.execute(ctx, f)
	if err != nil {
		s.logger.Error("search failed, returning empty result",
			zap.String("tenant_id", f.TenantID.String()),
			zap.String("query", f.Query),
			zap.Error(err),
		)
		return emptyResult(f)
	}

	s.toCache(ctx, key, result)
	result.QueryID = s.track(f, sessionID, result.Pagination.Total)
	return result
}

// InvalidateTenant drops every cached result page for a tenant
// Called after catalog writes that would make cached pages stale
func (s *Service) InvalidateTenant(ctx context.Context, tenantID uuid.UUID) error {
	return s.cache.DeletePattern(ctx, fmt.Sprintf("products:%s:*", tenantID))
}

func (s *Service) execute(ctx context.Context, f search.Filters) (*search.Result, error) {
	products, total, err := s.products.Search(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("product query: %w", err)
	}

	aggregates := s.ratingAggregates(ctx, f.TenantID, products)
	hits := buildHits(products, aggregates)

	// The rating filter needs computed averages, so it runs after the
	// page fetch. The total then counts the filtered page, not the full
	// match set; an accepted approximation that keeps facet queries cheap
	if f.MinRating > 0 {
		hits = filterByRating(hits, f.MinRating)
		total = int64(len(hits))
	}

	facets := s.computeFacets(ctx, f, aggregates)

	pages := 0
	if f.Limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(f.Limit)))
	}

	return &search.Result{
		Products: hits,
		Pagination: search.Pagination{
			Page:  f.Page,
			Limit: f.Limit,
			Total: total,
			Pages: pages,
		},
		Facets:       facets,
		Query:        f.Query,
		ResultsFound: total > 0,
	}, nil
}

// computeFacets runs the facet counts concurrently
// A failed facet degrades to a zero bucket instead of failing the search
func (s *Service) computeFacets(ctx context.Context, f search.Filters, pageAggregates map[uuid.UUID]search.RatingAggregate) search.Facets {
	unpaged := f.WithoutPagination()
	buckets := search.PriceBuckets()

	var wg sync.WaitGroup
	var mu sync.Mutex
	facets := search.Facets{PriceRanges: buckets}

	wg.Add(1)
	go func() {
		defer wg.Done()
		categories, err := s.products.CountByCategory(ctx, unpaged)
		if err != nil {
			s.logger.Warn("category facet failed", zap.Error(err))
			return
		}
		mu.Lock()
		facets.Categories = categories
		mu.Unlock()
	}()

	for i := range buckets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			count, err := s.products.CountPriceRange(ctx, unpaged, buckets[i].Min, buckets[i].Max)
			if err != nil {
				s.logger.Warn("price facet failed",
					zap.String("bucket", buckets[i].Label),
					zap.Error(err),
				)
				return
			}
			mu.Lock()
			facets.PriceRanges[i].Count = count
			mu.Unlock()
		}(i)
	}

	wg.Wait()

	// Rating buckets come from the current page's aggregates; a full-match
	// rating facet would need review aggregation across every hit
	facets.Ratings = ratingBuckets(pageAggregates)
	return facets
}

func (s *Service) ratingAggregates(ctx context.Context, tenantID uuid.UUID, products []catalog.Product) map[uuid.UUID]search.RatingAggregate {
	if len(products) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	aggregates, err := s.reviews.AggregatesFor(ctx, tenantID, ids)
	if err != nil {
		s.logger.Warn("review aggregation failed, serving unrated hits", zap.Error(err))
		return nil
	}
	return aggregates
}

// track records the search through the analytics service without blocking
// the response. The spawned goroutine gets its own deadline because the
// request context ends when the response is written
func (s *Service) track(f search.Filters, sessionID string, total int64) string {
	if s.analytics == nil {
		return ""
	}
	queryID := uuid.NewString()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.analytics.TrackSearchWithID(ctx, queryID, f.TenantID, sessionID, f.Query, f, total)
	}()
	return queryID
}

func (s *Service) fromCache(ctx context.Context, key string) *search.Result {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("result cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	var result search.Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		s.logger.Warn("corrupt cached result, ignoring", zap.String("key", key), zap.Error(err))
		return nil
	}
	return &result
}

func (s *Service) toCache(ctx context.Context, key string, result *search.Result) {
	data, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn("failed to marshal result for cache", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, string(data), s.resultTTL); err != nil {
		s.logger.Warn("result cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func buildHits(products []catalog.Product, aggregates map[uuid.UUID]search.RatingAggregate) []search.ProductHit {
	hits := make([]search.ProductHit, 0, len(products))
	for i := range products {
		hit := search.ProductHit{Product: products[i]}
		if agg, ok := aggregates[products[i].ID]; ok {
			hit.AverageRating = agg.Average
			hit.ReviewCount = agg.Count
		}
		hits = append(hits, hit)
	}
	return hits
}

func filterByRating(hits []search.ProductHit, minRating int) []search.ProductHit {
	filtered := make([]search.ProductHit, 0, len(hits))
	for _, h := range hits {
		if h.AverageRating >= float64(minRating) {
			filtered = append(filtered, h)
		}
	}
	return filtered
}

func ratingBuckets(aggregates map[uuid.UUID]search.RatingAggregate) []search.RatingBucket {
	buckets := make([]search.RatingBucket, 0, 4)
	for rating := 4; rating >= 1; rating-- {
		var count int64
		for _, agg := range aggregates {
			if agg.Average >= float64(rating) {
				count++
			}
		}
		buckets = append(buckets, search.RatingBucket{Rating: rating, Count: count})
	}
	return buckets
}

func emptyResult(f search.Filters) *search.Result {
	return &search.Result{
		Products: []search.ProductHit{},
		Pagination: search.Pagination{
			Page:  f.Page,
			Limit: f.Limit,
		},
		Facets: search.Facets{PriceRanges: search.PriceBuckets()},
		Query:  f.Query,
	}
}
