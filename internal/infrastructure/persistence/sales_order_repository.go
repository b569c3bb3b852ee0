package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/trade"
)

// SalesOrderRepository implements order persistence on GORM
type SalesOrderRepository struct {
	db *gorm.DB
}

// NewSalesOrderRepository creates a new sales order repository
func NewSalesOrderRepository(db *gorm.DB) *SalesOrderRepository {
	return &SalesOrderRepository{db: db}
}

// FindByIDForTenant finds an order with its notes, scoped to a tenant
func (r *SalesOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.SalesOrder, error) {
	var order trade.SalesOrder
	err := r.db.WithContext(ctx).
		Preload("Notes").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByTrackingNumber finds the order a shipment belongs to
func (r *SalesOrderRepository) FindByTrackingNumber(ctx context.Context, tenantID uuid.UUID, trackingNumber string) (*trade.SalesOrder, error) {
	var order trade.SalesOrder
	err := r.db.WithContext(ctx).
		Preload("Notes").
		Where("tenant_id = ? AND tracking_number = ?", tenantID, trackingNumber).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Save persists the order together with any appended notes
func (r *SalesOrderRepository) Save(ctx context.Context, order *trade.SalesOrder) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(order).Error
}

// Ensure SalesOrderRepository implements the domain port
var _ trade.SalesOrderRepository = (*SalesOrderRepository)(nil)
