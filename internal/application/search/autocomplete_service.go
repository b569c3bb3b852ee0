package search

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/search"
)

// AutocompleteService assembles typeahead suggestions from product names,
// category names, and the tenant's popular query history
type AutocompleteService struct {
	products   search.ProductSearcher
	categories search.CategorySuggester
	analytics  *AnalyticsService
	minLength  int
	max        int
	logger     *zap.Logger
}

// NewAutocompleteService creates an autocomplete service
// analytics may be nil, in which case popular-query suggestions are skipped
func NewAutocompleteService(
	products search.ProductSearcher,
	categories search.CategorySuggester,
	analytics *AnalyticsService,
	minLength, max int,
	logger *zap.Logger,
) *AutocompleteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if minLength < 1 {
		minLength = 2
	}
	if max < 1 {
		max = 8
	}
	return &AutocompleteService{
		products:   products,
		categories: categories,
		analytics:  analytics,
		minLength:  minLength,
		max:        max,
		logger:     logger,
	}
}

// Suggest returns up to the configured maximum of suggestions for a prefix
//
// Prefixes shorter than the minimum length return an empty slice without
// touching any backing store. The mix reserves roughly 60% of the budget
// for products and 20% each for categories and popular queries; unused
// quota flows back to products. A failed source is skipped, not fatal
func (s *AutocompleteService) Suggest(ctx context.Context, tenantID uuid.UUID, prefix string) []search.Suggestion {
	needle := strings.TrimSpace(prefix)
	if len([]rune(needle)) < s.minLength {
		return []search.Suggestion{}
	}

	categoryQuota := s.max / 5
	queryQuota := s.max / 5
	productQuota := s.max - categoryQuota - queryQuota

	categories := s.categorySuggestions(ctx, tenantID, needle, categoryQuota)
	queries := s.querySuggestions(ctx, tenantID, needle, queryQuota)

	// Unused category/query quota goes to products
	productQuota += (categoryQuota - len(categories)) + (queryQuota - len(queries))
	products := s.productSuggestions(ctx, tenantID, needle, productQuota)

	suggestions := make([]search.Suggestion, 0, s.max)
	suggestions = append(suggestions, products...)
	suggestions = append(suggestions, categories...)
	suggestions = append(suggestions, queries...)

	suggestions = dedupeSuggestions(suggestions)
	if len(suggestions) > s.max {
		suggestions = suggestions[:s.max]
	}
	return suggestions
}

func (s *AutocompleteService) productSuggestions(ctx context.Context, tenantID uuid.UUID, prefix string, limit int) []search.Suggestion {
	if limit < 1 {
		return nil
	}
	suggestions, err := s.products.SuggestNames(ctx, tenantID, prefix, limit)
	if err != nil {
		s.logger.Warn("product suggestions failed", zap.Error(err))
		return nil
	}
	return suggestions
}

func (s *AutocompleteService) categorySuggestions(ctx context.Context, tenantID uuid.UUID, prefix string, limit int) []search.Suggestion {
	if limit < 1 || s.categories == nil {
		return nil
	}
	suggestions, err := s.categories.SuggestNames(ctx, tenantID, prefix, limit)
	if err != nil {
		s.logger.Warn("category suggestions failed", zap.Error(err))
		return nil
	}
	return suggestions
}

func (s *AutocompleteService) querySuggestions(ctx context.Context, tenantID uuid.UUID, prefix string, limit int) []search.Suggestion {
	if limit < 1 || s.analytics == nil {
		return nil
	}
	suggestions, err := s.analytics.MatchingPopular(ctx, tenantID, prefix, limit)
	if err != nil {
		s.logger.Warn("popular query suggestions failed", zap.Error(err))
		return nil
	}
	return suggestions
}

// dedupeSuggestions drops entries whose display text repeats earlier ones,
// case-insensitively, keeping first occurrence order
func dedupeSuggestions(suggestions []search.Suggestion) []search.Suggestion {
	seen := make(map[string]bool, len(suggestions))
	out := suggestions[:0]
	for _, sg := range suggestions {
		key := strings.ToLower(sg.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, sg)
	}
	return out
}
