package search

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/search"
	"github.com/storefront/backend/internal/infrastructure/cache"
)

// Cache key shapes owned by the analytics service
const (
	analyticsKeyFmt = "search_analytics:%s" // per-query snapshot
	popularKeyFmt   = "popular_searches:%s" // per-tenant popularity counters
	zeroResultsFmt  = "zero_results:%s"     // per-tenant zero-result window
)

// AnalyticsConfig tunes retention and privacy behavior
type AnalyticsConfig struct {
	SnapshotRetention time.Duration // per-query snapshot TTL
	PopularRetention  time.Duration // popularity counter TTL
	ZeroResultWindow  int           // rolling window size for zero-result queries
	AnonymizeQueries  bool          // replace raw query text with a hash before storing
}

// AnalyticsService records search behavior in the cache service
// All data is ephemeral and expires with its cache entries; there is no
// durable analytics store
type AnalyticsService struct {
	cache  cache.Cache
	cfg    AnalyticsConfig
	logger *zap.Logger
}

// NewAnalyticsService creates an analytics service
func NewAnalyticsService(c cache.Cache, cfg AnalyticsConfig, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SnapshotRetention <= 0 {
		cfg.SnapshotRetention = 24 * time.Hour
	}
	if cfg.PopularRetention <= 0 {
		cfg.PopularRetention = 7 * 24 * time.Hour
	}
	if cfg.ZeroResultWindow <= 0 {
		cfg.ZeroResultWindow = 100
	}
	return &AnalyticsService{cache: c, cfg: cfg, logger: logger}
}

// TrackSearch records one executed search and returns its query ID
// The snapshot expires after the retention window; click and conversion
// events arriving after expiry are dropped silently
func (s *AnalyticsService) TrackSearch(ctx context.Context, tenantID uuid.UUID, sessionID, query string, filters search.Filters, resultCount int64) string {
	queryID := uuid.NewString()
	s.TrackSearchWithID(ctx, queryID, tenantID, sessionID, query, filters, resultCount)
	return queryID
}

// TrackSearchWithID records a search under a caller-minted query ID,
// letting the caller hand the ID to the client before the write lands
func (s *AnalyticsService) TrackSearchWithID(ctx context.Context, queryID string, tenantID uuid.UUID, sessionID, query string, filters search.Filters, resultCount int64) {
	record := search.AnalyticsRecord{
		QueryID:     queryID,
		Query:       s.queryRef(query),
		TenantID:    tenantID,
		SessionID:   sessionID,
		ResultCount: resultCount,
		Timestamp:   time.Now(),
		Filters:     filters,
	}

	if err := s.putRecord(ctx, &record, s.cfg.SnapshotRetention); err != nil {
		s.logger.Warn("failed to store search snapshot", zap.Error(err))
	}

	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized != "" {
		stored := s.queryRef(normalized)
		s.bumpPopularity(ctx, tenantID, stored)
		if resultCount == 0 {
			s.recordZeroResult(ctx, tenantID, stored)
		}
	}
}

// TrackClick records a product click against an earlier search
// An expired or unknown query ID is a silent no-op
func (s *AnalyticsService) TrackClick(ctx context.Context, queryID string, productID uuid.UUID) error {
	return s.appendEvent(ctx, queryID, func(r *search.AnalyticsRecord) {
		r.Clicked = append(r.Clicked, productID)
	})
}

// TrackConversion records a purchase originating from an earlier search
// An expired or unknown query ID is a silent no-op
func (s *AnalyticsService) TrackConversion(ctx context.Context, queryID string, productID uuid.UUID) error {
	return s.appendEvent(ctx, queryID, func(r *search.AnalyticsRecord) {
		r.Converted = append(r.Converted, productID)
	})
}

// PopularQueries returns the tenant's most frequent queries, highest first
func (s *AnalyticsService) PopularQueries(ctx context.Context, tenantID uuid.UUID, limit int) ([]search.PopularQuery, error) {
	counts, err := s.loadPopularity(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	queries := make([]search.PopularQuery, 0, len(counts))
	for q, n := range counts {
		queries = append(queries, search.PopularQuery{Query: q, Count: n})
	}
	sort.Slice(queries, func(i, j int) bool {
		if queries[i].Count != queries[j].Count {
			return queries[i].Count > queries[j].Count
		}
		return queries[i].Query < queries[j].Query
	})

	if limit > 0 && len(queries) > limit {
		queries = queries[:limit]
	}
	return queries, nil
}

// MatchingPopular returns popular queries starting with the prefix,
// shaped as autocomplete suggestions
// Hashed queries are not presentable, so anonymized tenants get none
func (s *AnalyticsService) MatchingPopular(ctx context.Context, tenantID uuid.UUID, prefix string, limit int) ([]search.Suggestion, error) {
	if s.cfg.AnonymizeQueries {
		return nil, nil
	}
	popular, err := s.PopularQueries(ctx, tenantID, 0)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(prefix))
	suggestions := make([]search.Suggestion, 0, limit)
	for _, p := range popular {
		if !strings.HasPrefix(p.Query, needle) {
			continue
		}
		suggestions = append(suggestions, search.Suggestion{
			Type: search.SuggestionQuery,
			Text: p.Query,
		})
		if limit > 0 && len(suggestions) >= limit {
			break
		}
	}
	return suggestions, nil
}

// ZeroResultQueries returns the tenant's recent queries that found nothing,
// most recent first
func (s *AnalyticsService) ZeroResultQueries(ctx context.Context, tenantID uuid.UUID) ([]string, error) {
	raw, ok, err := s.cache.Get(ctx, fmt.Sprintf(zeroResultsFmt, tenantID))
	if err != nil || !ok {
		return nil, err
	}
	var queries []string
	if err := json.Unmarshal([]byte(raw), &queries); err != nil {
		return nil, fmt.Errorf("corrupt zero-result window: %w", err)
	}
	return queries, nil
}

// GetRecord returns the stored snapshot for a query ID, or nil after expiry
func (s *AnalyticsService) GetRecord(ctx context.Context, queryID string) (*search.AnalyticsRecord, error) {
	raw, ok, err := s.cache.Get(ctx, fmt.Sprintf(analyticsKeyFmt, queryID))
	if err != nil || !ok {
		return nil, err
	}
	var record search.AnalyticsRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("corrupt analytics snapshot %s: %w", queryID, err)
	}
	return &record, nil
}

func (s *AnalyticsService) appendEvent(ctx context.Context, queryID string, mutate func(*search.AnalyticsRecord)) error {
	record, err := s.GetRecord(ctx, queryID)
	if err != nil {
		return err
	}
	if record == nil {
		return nil // snapshot expired; event intentionally dropped
	}

	mutate(record)
	// Re-storing restarts the retention clock; acceptable drift for
	// ephemeral analytics
	return s.putRecord(ctx, record, s.cfg.SnapshotRetention)
}

func (s *AnalyticsService) putRecord(ctx context.Context, record *search.AnalyticsRecord, ttl time.Duration) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal analytics record: %w", err)
	}
	return s.cache.Set(ctx, fmt.Sprintf(analyticsKeyFmt, record.QueryID), string(data), ttl)
}

// bumpPopularity increments the per-tenant counter for a query
// The read-modify-write is not atomic; concurrent searches may lose a
// count, which is tolerable for trending data
func (s *AnalyticsService) bumpPopularity(ctx context.Context, tenantID uuid.UUID, query string) {
	counts, err := s.loadPopularity(ctx, tenantID)
	if err != nil {
		s.logger.Warn("failed to load popularity counters", zap.Error(err))
		return
	}
	if counts == nil {
		counts = make(map[string]int64)
	}
	counts[query]++

	data, err := json.Marshal(counts)
	if err != nil {
		s.logger.Warn("failed to marshal popularity counters", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, fmt.Sprintf(popularKeyFmt, tenantID), string(data), s.cfg.PopularRetention); err != nil {
		s.logger.Warn("failed to store popularity counters", zap.Error(err))
	}
}

func (s *AnalyticsService) loadPopularity(ctx context.Context, tenantID uuid.UUID) (map[string]int64, error) {
	raw, ok, err := s.cache.Get(ctx, fmt.Sprintf(popularKeyFmt, tenantID))
	if err != nil || !ok {
		return nil, err
	}
	var counts map[string]int64
	if err := json.Unmarshal([]byte(raw), &counts); err != nil {
		return nil, fmt.Errorf("corrupt popularity counters: %w", err)
	}
	return counts, nil
}

// recordZeroResult pushes the query onto the front of the rolling window,
// dropping the oldest entry past the window size. A query already in the
// window moves to the front instead of occupying a second slot
func (s *AnalyticsService) recordZeroResult(ctx context.Context, tenantID uuid.UUID, query string) {
	queries, err := s.ZeroResultQueries(ctx, tenantID)
	if err != nil {
		s.logger.Warn("failed to load zero-result window", zap.Error(err))
		return
	}

	for i, q := range queries {
		if q == query {
			queries = append(queries[:i], queries[i+1:]...)
			break
		}
	}
	queries = append([]string{query}, queries...)
	if len(queries) > s.cfg.ZeroResultWindow {
		queries = queries[:s.cfg.ZeroResultWindow]
	}

	data, err := json.Marshal(queries)
	if err != nil {
		s.logger.Warn("failed to marshal zero-result window", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, fmt.Sprintf(zeroResultsFmt, tenantID), string(data), s.cfg.PopularRetention); err != nil {
		s.logger.Warn("failed to store zero-result window", zap.Error(err))
	}
}

// queryRef returns the stored form of a query
// The hash is non-cryptographic and exists only so that raw text never
// lands in the analytics store; equal queries still aggregate together
func (s *AnalyticsService) queryRef(query string) string {
	if query == "" || !s.cfg.AnonymizeQueries {
		return query
	}
	h := fnv.New64a()
	h.Write([]byte(query))
	return fmt.Sprintf("q-%x", h.Sum64())
}
