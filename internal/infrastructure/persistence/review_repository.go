package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/search"
	"github.com/storefront/backend/internal/domain/shared"
)

// ReviewRepository implements review persistence and rating aggregation
// on GORM
type ReviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Save persists a review (insert or update)
func (r *ReviewRepository) Save(ctx context.Context, review *catalog.Review) error {
	return r.db.WithContext(ctx).Save(review).Error
}

// FindByIDForTenant finds a review by ID scoped to a tenant
func (r *ReviewRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Review, error) {
	var review catalog.Review
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// AggregatesFor computes average rating and review count per product
// from approved reviews only. Products without approved reviews are
// absent from the result map
func (r *ReviewRepository) AggregatesFor(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]search.RatingAggregate, error) {
	if len(productIDs) == 0 {
		return map[uuid.UUID]search.RatingAggregate{}, nil
	}

	var rows []search.RatingAggregate
	err := r.db.WithContext(ctx).Model(&catalog.Review{}).
		Select("product_id, AVG(rating) AS average, COUNT(*) AS count").
		Where("tenant_id = ? AND status = ?", tenantID, catalog.ReviewStatusApproved).
		Where("product_id IN ?", productIDs).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	aggregates := make(map[uuid.UUID]search.RatingAggregate, len(rows))
	for _, row := range rows {
		aggregates[row.ProductID] = row
	}
	return aggregates, nil
}

// Ensure ReviewRepository implements the rating read model
var _ search.ReviewAggregator = (*ReviewRepository)(nil)
