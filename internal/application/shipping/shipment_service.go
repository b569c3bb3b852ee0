package shipping

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shipping"
	"github.com/storefront/backend/internal/domain/trade"
	infrashipping "github.com/storefront/backend/internal/infrastructure/shipping"
)

// ShipmentService drives the label and tracking lifecycle through the
// carrier registry and ties shipments back to their orders
type ShipmentService struct {
	registry   *infrashipping.Registry
	orders     trade.SalesOrderRepository
	exceptions *ExceptionService
	logger     *zap.Logger
}

// NewShipmentService creates a shipment service
func NewShipmentService(registry *infrashipping.Registry, orders trade.SalesOrderRepository, exceptions *ExceptionService, logger *zap.Logger) *ShipmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShipmentService{
		registry:   registry,
		orders:     orders,
		exceptions: exceptions,
		logger:     logger,
	}
}

// CreateLabel purchases a label for an order and records the tracking
// number on it. An unsupported carrier fails fast before any order read
func (s *ShipmentService) CreateLabel(ctx context.Context, tenantID, orderID uuid.UUID, providerType shipping.ProviderType, fromZip, toZip string, weight decimal.Decimal) (*shipping.Label, error) {
	provider, err := s.registry.Get(providerType)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, fmt.Errorf("find order %s: %w", orderID, err)
	}

	label, err := provider.CreateLabel(ctx, shipping.LabelRequest{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		FromZip:     fromZip,
		ToZip:       toZip,
		Weight:      weight,
	})
	if err != nil {
		return nil, fmt.Errorf("create label with %s: %w", providerType, err)
	}

	order.SetTracking(string(providerType), label.TrackingNumber)
	if label.Degraded {
		order.AddNote(fmt.Sprintf("Label %s issued in degraded mode; verify with %s before handoff",
			label.ID, providerType))
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("save order %s: %w", order.OrderNumber, err)
	}

	s.logger.Info("shipping label created",
		zap.String("order_number", order.OrderNumber),
		zap.String("provider", string(providerType)),
		zap.String("tracking_number", label.TrackingNumber),
		zap.Bool("degraded", label.Degraded),
	)
	return label, nil
}

// GetTracking fetches the current tracking state from the carrier
func (s *ShipmentService) GetTracking(ctx context.Context, providerType shipping.ProviderType, trackingNumber string) (*shipping.TrackingInfo, error) {
	provider, err := s.registry.Get(providerType)
	if err != nil {
		return nil, err
	}
	return provider.GetTracking(ctx, trackingNumber)
}

// CheckShipment polls the carrier and runs exception handling when the
// tracking state warrants it. Returns the detected exception, if any
func (s *ShipmentService) CheckShipment(ctx context.Context, tenantID uuid.UUID, providerType shipping.ProviderType, trackingNumber string) (*shipping.Exception, error) {
	info, err := s.GetTracking(ctx, providerType, trackingNumber)
	if err != nil {
		return nil, err
	}

	exc := shipping.DetectException(info)
	if exc == nil {
		return nil, nil
	}
	if err := s.exceptions.Handle(ctx, tenantID, trackingNumber, exc); err != nil {
		return exc, err
	}
	return exc, nil
}

// CancelLabel voids a label with the carrier
func (s *ShipmentService) CancelLabel(ctx context.Context, providerType shipping.ProviderType, labelID string) error {
	provider, err := s.registry.Get(providerType)
	if err != nil {
		return err
	}
	return provider.CancelLabel(ctx, labelID)
}
