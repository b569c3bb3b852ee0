package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/search"
	"github.com/storefront/backend/internal/domain/shared"
)

// CategoryRepository implements category persistence on GORM
type CategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Save persists a category (insert or update)
func (r *CategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

// FindByIDForTenant finds a category by ID scoped to a tenant
func (r *CategoryRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Category, error) {
	var category catalog.Category
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// SuggestNames returns category names matching the prefix or substring
func (r *CategoryRepository) SuggestNames(ctx context.Context, tenantID uuid.UUID, prefix string, limit int) ([]search.Suggestion, error) {
	needle := strings.ToLower(strings.TrimSpace(prefix))
	if needle == "" || limit < 1 {
		return nil, nil
	}

	var categories []catalog.Category
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Where("LOWER(name) LIKE ?", "%"+likeEscape(needle)+"%").
		Order("name ASC").
		Limit(limit).
		Find(&categories).Error
	if err != nil {
		return nil, err
	}

	suggestions := make([]search.Suggestion, 0, len(categories))
	for i := range categories {
		c := categories[i]
		id := c.ID
		suggestions = append(suggestions, search.Suggestion{
			Type: search.SuggestionCategory,
			Text: c.Name,
			ID:   &id,
			Slug: c.Slug,
		})
	}
	return suggestions, nil
}

// Ensure CategoryRepository implements the suggestion read model
var _ search.CategorySuggester = (*CategoryRepository)(nil)
