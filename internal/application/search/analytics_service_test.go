package search

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/search"
	"github.com/storefront/backend/internal/infrastructure/cache"
)

func newTestAnalytics(cfg AnalyticsConfig) *AnalyticsService {
	return NewAnalyticsService(cache.NewMemoryCache(), cfg, zap.NewNop())
}

func TestAnalytics_TrackSearchStoresSnapshot(t *testing.T) {
	ctx := context.Background()
	svc := newTestAnalytics(AnalyticsConfig{})
	tenantID := uuid.New()

	queryID := svc.TrackSearch(ctx, tenantID, "sess-1", "wireless mouse", search.Filters{TenantID: tenantID}, 7)
	require.NotEmpty(t, queryID)

	record, err := svc.GetRecord(ctx, queryID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "wireless mouse", record.Query)
	assert.Equal(t, int64(7), record.ResultCount)
	assert.Equal(t, tenantID, record.TenantID)
}

func TestAnalytics_QueryAnonymization(t *testing.T) {
	ctx := context.Background()
	svc := newTestAnalytics(AnalyticsConfig{AnonymizeQueries: true})
	tenantID := uuid.New()

	queryID := svc.TrackSearch(ctx, tenantID, "sess-1", "secret query", search.Filters{TenantID: tenantID}, 1)

	record, err := svc.GetRecord(ctx, queryID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.NotEqual(t, "secret query", record.Query)
	assert.NotEmpty(t, record.Query)

	// Equal queries hash to the same reference so they still aggregate
	otherID := svc.TrackSearch(ctx, tenantID, "sess-2", "secret query", search.Filters{TenantID: tenantID}, 1)
	other, err := svc.GetRecord(ctx, otherID)
	require.NoError(t, err)
	assert.Equal(t, record.Query, other.Query)

	popular, err := svc.PopularQueries(ctx, tenantID, 10)
	require.NoError(t, err)
	require.Len(t, popular, 1)
	assert.NotEqual(t, "secret query", popular[0].Query)
	assert.Equal(t, int64(2), popular[0].Count)

	// Hashed entries never surface as autocomplete suggestions
	suggestions, err := svc.MatchingPopular(ctx, tenantID, "secret", 10)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestAnalytics_ClickAndConversion(t *testing.T) {
	ctx := context.Background()
	svc := newTestAnalytics(AnalyticsConfig{})
	tenantID := uuid.New()
	productID := uuid.New()

	queryID := svc.TrackSearch(ctx, tenantID, "", "mouse", search.Filters{TenantID: tenantID}, 3)

	require.NoError(t, svc.TrackClick(ctx, queryID, productID))
	require.NoError(t, svc.TrackConversion(ctx, queryID, productID))

	record, err := svc.GetRecord(ctx, queryID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, []uuid.UUID{productID}, record.Clicked)
	assert.Equal(t, []uuid.UUID{productID}, record.Converted)
}

func TestAnalytics_ClickAfterExpiryIsNoOp(t *testing.T) {
	ctx := context.Background()
	svc := newTestAnalytics(AnalyticsConfig{SnapshotRetention: 10 * time.Millisecond})
	tenantID := uuid.New()

	queryID := svc.TrackSearch(ctx, tenantID, "", "mouse", search.Filters{TenantID: tenantID}, 3)
	time.Sleep(30 * time.Millisecond)

	// Expired snapshot: the event is dropped without error
	require.NoError(t, svc.TrackClick(ctx, queryID, uuid.New()))

	record, err := svc.GetRecord(ctx, queryID)
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestAnalytics_UnknownQueryIDIsNoOp(t *testing.T) {
	svc := newTestAnalytics(AnalyticsConfig{})
	assert.NoError(t, svc.TrackClick(context.Background(), "never-issued", uuid.New()))
}

func TestAnalytics_PopularQueriesOrdering(t *testing.T) {
	ctx := context.Background()
	svc := newTestAnalytics(AnalyticsConfig{})
	tenantID := uuid.New()
	f := search.Filters{TenantID: tenantID}

	for i := 0; i < 3; i++ {
		svc.TrackSearch(ctx, tenantID, "", "mouse", f, 5)
	}
	svc.TrackSearch(ctx, tenantID, "", "keyboard", f, 5)
	svc.TrackSearch(ctx, tenantID, "", "Mouse", f, 5) // case-folds into "mouse"

	popular, err := svc.PopularQueries(ctx, tenantID, 10)
	require.NoError(t, err)
	require.Len(t, popular, 2)
	assert.Equal(t, "mouse", popular[0].Query)
	assert.Equal(t, int64(4), popular[0].Count)
	assert.Equal(t, "keyboard", popular[1].Query)
}

func TestAnalytics_PopularQueriesTenantIsolation(t *testing.T) {
	ctx := context.Background()
	svc := newTestAnalytics(AnalyticsConfig{})
	tenantA := uuid.New()
	tenantB := uuid.New()

	svc.TrackSearch(ctx, tenantA, "", "mouse", search.Filters{TenantID: tenantA}, 5)

	popular, err := svc.PopularQueries(ctx, tenantB, 10)
	require.NoError(t, err)
	assert.Empty(t, popular)
}

func TestAnalytics_ZeroResultWindow(t *testing.T) {
	ctx := context.Background()
	svc := newTestAnalytics(AnalyticsConfig{ZeroResultWindow: 3})
	tenantID := uuid.New()
	f := search.Filters{TenantID: tenantID}

	svc.TrackSearch(ctx, tenantID, "", "first", f, 0)
	svc.TrackSearch(ctx, tenantID, "", "second", f, 0)
	svc.TrackSearch(ctx, tenantID, "", "found", f, 9) // not a zero result
	svc.TrackSearch(ctx, tenantID, "", "third", f, 0)
	svc.TrackSearch(ctx, tenantID, "", "fourth", f, 0)

	queries, err := svc.ZeroResultQueries(ctx, tenantID)
	require.NoError(t, err)

	// Newest first, capped at the window, oldest dropped
	assert.Equal(t, []string{"fourth", "third", "second"}, queries)

	// A repeated miss moves to the front instead of taking a second slot
	svc.TrackSearch(ctx, tenantID, "", "Third", f, 0) // case-folds into "third"
	queries, err = svc.ZeroResultQueries(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "fourth", "second"}, queries)
}

func TestAnalytics_MatchingPopular(t *testing.T) {
	ctx := context.Background()
	svc := newTestAnalytics(AnalyticsConfig{})
	tenantID := uuid.New()
	f := search.Filters{TenantID: tenantID}

	svc.TrackSearch(ctx, tenantID, "", "wireless mouse", f, 5)
	svc.TrackSearch(ctx, tenantID, "", "wired headset", f, 5)

	suggestions, err := svc.MatchingPopular(ctx, tenantID, "wire", 10)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	for _, s := range suggestions {
		assert.Equal(t, search.SuggestionQuery, s.Type)
	}

	none, err := svc.MatchingPopular(ctx, tenantID, "key", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
