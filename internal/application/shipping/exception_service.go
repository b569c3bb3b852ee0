package shipping

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shipping"
	"github.com/storefront/backend/internal/domain/trade"
)

// ExceptionService reacts to anomalous tracking conditions: it annotates
// the affected order, notifies the right parties, and applies the
// order-state consequences of terminal exceptions
type ExceptionService struct {
	orders   trade.SalesOrderRepository
	notifier Notifier
	logger   *zap.Logger
}

// NewExceptionService creates an exception service
func NewExceptionService(orders trade.SalesOrderRepository, notifier Notifier, logger *zap.Logger) *ExceptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExceptionService{
		orders:   orders,
		notifier: notifier,
		logger:   logger,
	}
}

// Detect classifies a tracking state; nil means nothing anomalous
func (s *ExceptionService) Detect(info *shipping.TrackingInfo) *shipping.Exception {
	return shipping.DetectException(info)
}

// Handle applies an exception to the order owning the tracking number
//
// Every exception leaves exactly one order note naming its type. Beyond
// that, the consequences depend on classification:
//   - RequiresAction exceptions notify the customer
//   - returned, lost, and failed-delivery shipments alert the merchant
//   - RETURNED_TO_SENDER cancels the order (unless already delivered or
//     cancelled, which is logged and skipped)
//   - AT_RISK flags the order for operator attention without customer
//     contact, since most stale shipments recover on their own
func (s *ExceptionService) Handle(ctx context.Context, tenantID uuid.UUID, trackingNumber string, exc *shipping.Exception) error {
	if exc == nil {
		return nil
	}

	order, err := s.orders.FindByTrackingNumber(ctx, tenantID, trackingNumber)
	if err != nil {
		return fmt.Errorf("find order for tracking %s: %w", trackingNumber, err)
	}

	order.AddNote(fmt.Sprintf("Shipping exception %s: %s (suggested: %s)",
		exc.Type, exc.Message, exc.SuggestedAction))

	switch exc.Type {
	case shipping.ExceptionReturnedToSender:
		if err := order.Cancel(); err != nil {
			s.logger.Warn("returned shipment but order not cancellable",
				zap.String("order_number", order.OrderNumber),
				zap.String("status", string(order.Status)),
				zap.Error(err),
			)
		}
	case shipping.ExceptionAtRisk:
		order.FlagForAttention(fmt.Sprintf("AT_RISK: shipment %s stale since %s",
			trackingNumber, exc.Timestamp.Format("2006-01-02")))
	}

	if err := s.orders.Save(ctx, order); err != nil {
		return fmt.Errorf("save order %s: %w", order.OrderNumber, err)
	}

	s.notify(ctx, order, trackingNumber, exc)

	s.logger.Info("shipping exception handled",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("tracking_number", trackingNumber),
		zap.String("type", string(exc.Type)),
	)
	return nil
}

// notify fans the exception out to customer and merchant channels
// Notification failures are logged, never propagated; the order update
// already landed
func (s *ExceptionService) notify(ctx context.Context, order *trade.SalesOrder, trackingNumber string, exc *shipping.Exception) {
	if exc.RequiresAction && order.CustomerEmail != "" {
		subject := fmt.Sprintf("Update on your order %s", order.OrderNumber)
		body := fmt.Sprintf("Your shipment %s needs attention: %s", trackingNumber, exc.Message)
		if err := s.notifier.NotifyCustomer(ctx, order.CustomerEmail, subject, body); err != nil {
			s.logger.Warn("customer notification failed",
				zap.String("order_number", order.OrderNumber),
				zap.Error(err),
			)
		}
	}

	if merchantAlertWorthy(exc.Type) {
		subject := fmt.Sprintf("Shipment %s: %s", trackingNumber, exc.Type)
		body := fmt.Sprintf("Order %s: %s. %s", order.OrderNumber, exc.Message, exc.SuggestedAction)
		if err := s.notifier.AlertMerchant(ctx, order.TenantID, subject, body); err != nil {
			s.logger.Warn("merchant alert failed",
				zap.String("order_number", order.OrderNumber),
				zap.Error(err),
			)
		}
	}
}

// merchantAlertWorthy reports whether an exception type pages the merchant
func merchantAlertWorthy(t shipping.ExceptionType) bool {
	switch t {
	case shipping.ExceptionReturnedToSender, shipping.ExceptionLost, shipping.ExceptionDeliveryFailed:
		return true
	}
	return false
}
