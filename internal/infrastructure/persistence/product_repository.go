package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/search"
	"github.com/storefront/backend/internal/domain/shared"
)

// effectivePrice is the buyer-facing price expression used by price
// filters, price facets, and price sorts
const effectivePrice = "COALESCE(products.sale_price, products.base_price)"

// ProductRepository implements catalog product persistence and the
// search read model on GORM
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Save persists a product (insert or update)
func (r *ProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// FindByIDForTenant finds a product by ID scoped to a tenant
func (r *ProductRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySKUForTenant finds a product by SKU scoped to a tenant
func (r *ProductRepository) FindBySKUForTenant(ctx context.Context, tenantID uuid.UUID, sku string) (*catalog.Product, error) {
	var product catalog.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND sku = ?", tenantID, strings.ToUpper(sku)).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// IncrementOrderCount bumps the popularity counter after a sale
func (r *ProductRepository) IncrementOrderCount(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&catalog.Product{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		UpdateColumn("order_count", gorm.Expr("order_count + 1")).Error
}

// Search returns one page of matching products plus the total match count
// The total is computed from the same predicate without pagination, so a
// page past the end returns an empty slice with an accurate total
func (r *ProductRepository) Search(ctx context.Context, f search.Filters) ([]catalog.Product, int64, error) {
	base := r.applyFilter(r.db.WithContext(ctx).Model(&catalog.Product{}), f)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []catalog.Product
	query := applySort(base, f.Sort)
	if f.Limit > 0 {
		query = query.Offset((f.Page - 1) * f.Limit).Limit(f.Limit)
	}
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// CountByCategory groups the matching products by category
// Uncategorized products are excluded from the facet
func (r *ProductRepository) CountByCategory(ctx context.Context, f search.Filters) ([]search.CategoryCount, error) {
	var rows []search.CategoryCount
	err := r.applyFilter(r.db.WithContext(ctx).Model(&catalog.Product{}), f.WithoutPagination()).
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Where("products.category_id IS NOT NULL").
		Select("products.category_id AS category_id, categories.name AS name, COUNT(*) AS count").
		Group("products.category_id, categories.name").
		Order("count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountPriceRange counts the matching products whose effective price
// falls in [min, max); a nil max means no upper bound
func (r *ProductRepository) CountPriceRange(ctx context.Context, f search.Filters, min decimal.Decimal, max *decimal.Decimal) (int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&catalog.Product{}), f.WithoutPagination()).
		Where(effectivePrice+" >= ?", min.InexactFloat64())
	if max != nil {
		query = query.Where(effectivePrice+" < ?", max.InexactFloat64())
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SuggestNames returns published product names matching the prefix,
// prefix matches ranked ahead of substring matches
func (r *ProductRepository) SuggestNames(ctx context.Context, tenantID uuid.UUID, prefix string, limit int) ([]search.Suggestion, error) {
	needle := strings.ToLower(strings.TrimSpace(prefix))
	if needle == "" || limit < 1 {
		return nil, nil
	}

	var products []catalog.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND published = ?", tenantID, true).
		Where("LOWER(name) LIKE ?", "%"+likeEscape(needle)+"%").
		Order(fmt.Sprintf("CASE WHEN LOWER(name) LIKE '%s%%' THEN 0 ELSE 1 END, order_count DESC",
			strings.ReplaceAll(likeEscape(needle), "'", "''"))).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	suggestions := make([]search.Suggestion, 0, len(products))
	for i := range products {
		p := products[i]
		id := p.ID
		suggestions = append(suggestions, search.Suggestion{
			Type:  search.SuggestionProduct,
			Text:  p.Name,
			ID:    &id,
			Slug:  p.Slug,
			Image: firstImage(p.Images),
		})
	}
	return suggestions, nil
}

// applyFilter composes the shared search predicate: tenant scope,
// published only, free-text terms, and the structural filters
// The rating filter is applied by the caller after review aggregation
func (r *ProductRepository) applyFilter(query *gorm.DB, f search.Filters) *gorm.DB {
	query = query.Where("products.tenant_id = ?", f.TenantID).
		Where("products.published = ?", true)

	for _, term := range f.Terms() {
		pattern := "%" + likeEscape(term) + "%"
		query = query.Where(
			"(LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ? OR LOWER(products.sku) LIKE ? OR LOWER(products.tags) LIKE ?)",
			pattern, pattern, pattern, pattern,
		)
	}

	if f.CategoryID != nil {
		query = query.Where("products.category_id = ?", *f.CategoryID)
	}
	// Price bounds bind as floats: decimal.Decimal binds as TEXT, which
	// sqlite's numeric affinity will never match against a NUMERIC column
	if f.MinPrice != nil {
		query = query.Where(effectivePrice+" >= ?", f.MinPrice.InexactFloat64())
	}
	if f.MaxPrice != nil {
		query = query.Where(effectivePrice+" <= ?", f.MaxPrice.InexactFloat64())
	}
	if f.InStock {
		query = query.Where("products.stock > ?", 0)
	}
	if f.Featured {
		query = query.Where("products.featured = ?", true)
	}

	return query
}

// applySort maps a sort mode to a deterministic ORDER BY
// Every mode ends with the primary key so equal rows keep a stable order
// across pages
func applySort(query *gorm.DB, sort search.SortMode) *gorm.DB {
	switch sort {
	case search.SortPriceAsc:
		return query.Order(effectivePrice + " ASC, products.id ASC")
	case search.SortPriceDesc:
		return query.Order(effectivePrice + " DESC, products.id ASC")
	case search.SortRating:
		return query.Order(
			"COALESCE((SELECT AVG(rating) FROM reviews WHERE reviews.product_id = products.id AND reviews.status = 'approved'), 0) DESC, products.id ASC")
	case search.SortNewest:
		return query.Order("products.created_at DESC, products.id ASC")
	case search.SortPopular:
		return query.Order("products.order_count DESC, products.created_at DESC, products.id ASC")
	default: // relevance: featured placement first, then recency
		return query.Order("products.featured DESC, products.created_at DESC, products.id ASC")
	}
}

// likeEscape escapes LIKE metacharacters in user input
func likeEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// firstImage extracts the first entry of the JSON image array
func firstImage(images string) string {
	if images == "" {
		return ""
	}
	var urls []string
	if err := json.Unmarshal([]byte(images), &urls); err != nil || len(urls) == 0 {
		return ""
	}
	return urls[0]
}

// Ensure ProductRepository implements the search read model
var _ search.ProductSearcher = (*ProductRepository)(nil)
