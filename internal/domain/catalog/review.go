package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// ReviewStatus represents the moderation state of a review
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// Review represents a customer product review
// Average rating is always computed from approved review rows, never stored
type Review struct {
	shared.TenantAggregateRoot
	ProductID uuid.UUID    `gorm:"type:uuid;not null;index"`
	Rating    int          `gorm:"not null"`
	Comment   string       `gorm:"type:text"`
	Status    ReviewStatus `gorm:"type:varchar(20);not null;default:'pending'"`
}

// TableName returns the table name for GORM
func (Review) TableName() string {
	return "reviews"
}

// NewReview creates a new pending review
func NewReview(tenantID, productID uuid.UUID, rating int, comment string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, shared.NewDomainError("INVALID_RATING", "Rating must be between 1 and 5")
	}

	return &Review{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ProductID:           productID,
		Rating:              rating,
		Comment:             comment,
		Status:              ReviewStatusPending,
	}, nil
}

// Approve makes the review visible and counted
func (r *Review) Approve() error {
	if r.Status == ReviewStatusApproved {
		return shared.NewDomainError("ALREADY_APPROVED", "Review is already approved")
	}
	r.Status = ReviewStatusApproved
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	return nil
}

// Reject hides the review
func (r *Review) Reject() error {
	if r.Status == ReviewStatusRejected {
		return shared.NewDomainError("ALREADY_REJECTED", "Review is already rejected")
	}
	r.Status = ReviewStatusRejected
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	return nil
}
