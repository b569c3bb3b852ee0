package search

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/search"
	"github.com/storefront/backend/internal/infrastructure/cache"
)

// MockCategorySuggester is a mock of the category suggestion read model
type MockCategorySuggester struct {
	mock.Mock
}

func (m *MockCategorySuggester) SuggestNames(ctx context.Context, tenantID uuid.UUID, prefix string, limit int) ([]search.Suggestion, error) {
	args := m.Called(ctx, tenantID, prefix, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]search.Suggestion), args.Error(1)
}

func productSuggestion(text string) search.Suggestion {
	id := uuid.New()
	return search.Suggestion{Type: search.SuggestionProduct, Text: text, ID: &id}
}

func TestAutocomplete_ShortPrefixShortCircuits(t *testing.T) {
	products := new(MockProductSearcher)
	categories := new(MockCategorySuggester)
	svc := NewAutocompleteService(products, categories, nil, 2, 8, zap.NewNop())

	for _, prefix := range []string{"", "a", " a "} {
		suggestions := svc.Suggest(context.Background(), uuid.New(), prefix)
		assert.Empty(t, suggestions)
	}

	// No backing store was touched
	products.AssertNotCalled(t, "SuggestNames", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	categories.AssertNotCalled(t, "SuggestNames", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAutocomplete_MixesSources(t *testing.T) {
	tenantID := uuid.New()
	products := new(MockProductSearcher)
	categories := new(MockCategorySuggester)

	analytics := NewAnalyticsService(cache.NewMemoryCache(), AnalyticsConfig{}, zap.NewNop())
	analytics.TrackSearch(context.Background(), tenantID, "", "wireless mouse", search.Filters{TenantID: tenantID}, 5)

	products.On("SuggestNames", mock.Anything, tenantID, "wire", mock.Anything).
		Return([]search.Suggestion{
			productSuggestion("Wireless Mouse Pro"),
			productSuggestion("Wired Keyboard"),
		}, nil)
	categories.On("SuggestNames", mock.Anything, tenantID, "wire", mock.Anything).
		Return([]search.Suggestion{
			{Type: search.SuggestionCategory, Text: "Wireless Audio"},
		}, nil)

	svc := NewAutocompleteService(products, categories, analytics, 2, 8, zap.NewNop())
	suggestions := svc.Suggest(context.Background(), tenantID, "wire")

	require.NotEmpty(t, suggestions)
	types := map[search.SuggestionType]int{}
	for _, s := range suggestions {
		types[s.Type]++
	}
	assert.Equal(t, 2, types[search.SuggestionProduct])
	assert.Equal(t, 1, types[search.SuggestionCategory])
	assert.Equal(t, 1, types[search.SuggestionQuery])
}

func TestAutocomplete_CapsAtMax(t *testing.T) {
	tenantID := uuid.New()
	products := new(MockProductSearcher)
	categories := new(MockCategorySuggester)

	many := make([]search.Suggestion, 10)
	for i := range many {
		many[i] = productSuggestion("Widget " + string(rune('A'+i)))
	}
	products.On("SuggestNames", mock.Anything, tenantID, "wid", mock.Anything).Return(many, nil)
	categories.On("SuggestNames", mock.Anything, tenantID, "wid", mock.Anything).
		Return([]search.Suggestion{{Type: search.SuggestionCategory, Text: "Widgets"}}, nil)

	svc := NewAutocompleteService(products, categories, nil, 2, 5, zap.NewNop())
	suggestions := svc.Suggest(context.Background(), tenantID, "wid")

	assert.LessOrEqual(t, len(suggestions), 5)
}

func TestAutocomplete_FailedSourceIsSkipped(t *testing.T) {
	tenantID := uuid.New()
	products := new(MockProductSearcher)
	categories := new(MockCategorySuggester)

	products.On("SuggestNames", mock.Anything, tenantID, "wid", mock.Anything).
		Return(nil, assert.AnError)
	categories.On("SuggestNames", mock.Anything, tenantID, "wid", mock.Anything).
		Return([]search.Suggestion{{Type: search.SuggestionCategory, Text: "Widgets"}}, nil)

	svc := NewAutocompleteService(products, categories, nil, 2, 8, zap.NewNop())
	suggestions := svc.Suggest(context.Background(), tenantID, "wid")

	require.Len(t, suggestions, 1)
	assert.Equal(t, search.SuggestionCategory, suggestions[0].Type)
}

func TestAutocomplete_DedupesByText(t *testing.T) {
	tenantID := uuid.New()
	products := new(MockProductSearcher)
	categories := new(MockCategorySuggester)

	products.On("SuggestNames", mock.Anything, tenantID, "wid", mock.Anything).
		Return([]search.Suggestion{productSuggestion("Widgets")}, nil)
	categories.On("SuggestNames", mock.Anything, tenantID, "wid", mock.Anything).
		Return([]search.Suggestion{{Type: search.SuggestionCategory, Text: "widgets"}}, nil)

	svc := NewAutocompleteService(products, categories, nil, 2, 8, zap.NewNop())
	suggestions := svc.Suggest(context.Background(), tenantID, "wid")

	require.Len(t, suggestions, 1)
	assert.Equal(t, search.SuggestionProduct, suggestions[0].Type)
}
