package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
)

// OrderStatus represents the lifecycle state of a sales order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// SalesOrder is the slice of the order aggregate the shipping core needs:
// status, notes, and tracking. Checkout and payment own the rest
type SalesOrder struct {
	shared.TenantAggregateRoot
	// Tenant-scoped number uniqueness is enforced by idx_order_tenant_number
	// in the schema migrations
	OrderNumber    string          `gorm:"type:varchar(50);not null;index"`
	Status         OrderStatus     `gorm:"type:varchar(20);not null;default:'pending'"`
	CustomerEmail  string          `gorm:"type:varchar(200)"`
	Total          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Carrier        string          `gorm:"type:varchar(20)"`
	TrackingNumber string          `gorm:"type:varchar(100);index"`
	AdminNotes     string          `gorm:"type:text"`
	Notes          []OrderNote     `gorm:"foreignKey:OrderID"`
}

// TableName returns the table name for GORM
func (SalesOrder) TableName() string {
	return "sales_orders"
}

// OrderNote is an append-only operator-visible note on an order
type OrderNote struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Note      string    `gorm:"type:text;not null"`
	CreatedAt time.Time
}

// TableName returns the table name for GORM
func (OrderNote) TableName() string {
	return "order_notes"
}

// NewSalesOrder creates a new pending order
func NewSalesOrder(tenantID uuid.UUID, orderNumber, customerEmail string, total decimal.Decimal) (*SalesOrder, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if total.IsNegative() {
		return nil, shared.NewDomainError("INVALID_TOTAL", "Order total cannot be negative")
	}

	return &SalesOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderNumber:         orderNumber,
		Status:              OrderStatusPending,
		CustomerEmail:       customerEmail,
		Total:               total,
	}, nil
}

// AddNote appends an operator note to the order
func (o *SalesOrder) AddNote(text string) {
	o.Notes = append(o.Notes, OrderNote{
		ID:        uuid.New(),
		OrderID:   o.ID,
		Note:      text,
		CreatedAt: time.Now(),
	})
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
}

// FlagForAttention appends a flag line to the admin notes
func (o *SalesOrder) FlagForAttention(flag string) {
	if o.AdminNotes != "" {
		o.AdminNotes += "\n"
	}
	o.AdminNotes += flag
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
}

// SetTracking records the shipment created for this order
func (o *SalesOrder) SetTracking(carrier, trackingNumber string) {
	o.Carrier = carrier
	o.TrackingNumber = trackingNumber
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
}

// MarkShipped transitions the order to shipped
func (o *SalesOrder) MarkShipped() error {
	if o.Status != OrderStatusPaid {
		return shared.ErrInvalidState
	}
	o.Status = OrderStatusShipped
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}

// MarkDelivered transitions the order to delivered
func (o *SalesOrder) MarkDelivered() error {
	if o.Status != OrderStatusShipped {
		return shared.ErrInvalidState
	}
	o.Status = OrderStatusDelivered
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}

// Cancel transitions the order to cancelled
// Delivered orders cannot be cancelled; cancelling twice is a no-op error
func (o *SalesOrder) Cancel() error {
	if o.Status == OrderStatusDelivered {
		return shared.NewDomainError("CANNOT_CANCEL", "Delivered orders cannot be cancelled")
	}
	if o.Status == OrderStatusCancelled {
		return shared.NewDomainError("ALREADY_CANCELLED", "Order is already cancelled")
	}
	o.Status = OrderStatusCancelled
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}

// IsCancelled returns true if the order is cancelled
func (o *SalesOrder) IsCancelled() bool {
	return o.Status == OrderStatusCancelled
}

// SalesOrderRepository persists sales orders
type SalesOrderRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*SalesOrder, error)
	FindByTrackingNumber(ctx context.Context, tenantID uuid.UUID, trackingNumber string) (*SalesOrder, error)
	Save(ctx context.Context, order *SalesOrder) error
}
