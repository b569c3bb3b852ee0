package shipping

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shipping"
	"github.com/storefront/backend/internal/domain/trade"
)

// MockOrderRepository is a mock of the sales order repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.SalesOrder, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.SalesOrder), args.Error(1)
}

func (m *MockOrderRepository) FindByTrackingNumber(ctx context.Context, tenantID uuid.UUID, trackingNumber string) (*trade.SalesOrder, error) {
	args := m.Called(ctx, tenantID, trackingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.SalesOrder), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, order *trade.SalesOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// MockNotifier is a mock of the notification port
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyCustomer(ctx context.Context, email, subject, body string) error {
	args := m.Called(ctx, email, subject, body)
	return args.Error(0)
}

func (m *MockNotifier) AlertMerchant(ctx context.Context, tenantID uuid.UUID, subject, body string) error {
	args := m.Called(ctx, tenantID, subject, body)
	return args.Error(0)
}

func shippedOrder(t *testing.T, tenantID uuid.UUID, trackingNumber string) *trade.SalesOrder {
	t.Helper()
	order, err := trade.NewSalesOrder(tenantID, "ORD-2001", "buyer@example.com", decimal.NewFromInt(80))
	require.NoError(t, err)
	order.Status = trade.OrderStatusPaid
	order.SetTracking("ups", trackingNumber)
	require.NoError(t, order.MarkShipped())
	return order
}

func returnedException() *shipping.Exception {
	return &shipping.Exception{
		Type:            shipping.ExceptionReturnedToSender,
		Message:         "Package is being returned to sender",
		Timestamp:       time.Now(),
		RequiresAction:  true,
		SuggestedAction: "Contact customer to confirm the address and arrange reshipment or refund",
	}
}

func TestExceptionService_ReturnedToSenderCancelsAndNotes(t *testing.T) {
	tenantID := uuid.New()
	order := shippedOrder(t, tenantID, "1Z999")

	orders := new(MockOrderRepository)
	notifier := new(MockNotifier)
	svc := NewExceptionService(orders, notifier, zap.NewNop())

	orders.On("FindByTrackingNumber", mock.Anything, tenantID, "1Z999").Return(order, nil)
	orders.On("Save", mock.Anything, order).Return(nil)
	notifier.On("NotifyCustomer", mock.Anything, "buyer@example.com", mock.Anything, mock.Anything).Return(nil)
	notifier.On("AlertMerchant", mock.Anything, tenantID, mock.Anything, mock.Anything).Return(nil)

	err := svc.Handle(context.Background(), tenantID, "1Z999", returnedException())
	require.NoError(t, err)

	assert.True(t, order.IsCancelled())

	mentions := 0
	for _, note := range order.Notes {
		if strings.Contains(note.Note, "RETURNED_TO_SENDER") {
			mentions++
		}
	}
	assert.Equal(t, 1, mentions, "exactly one note names the exception type")

	orders.AssertCalled(t, "Save", mock.Anything, order)
	notifier.AssertCalled(t, "NotifyCustomer", mock.Anything, "buyer@example.com", mock.Anything, mock.Anything)
	notifier.AssertCalled(t, "AlertMerchant", mock.Anything, tenantID, mock.Anything, mock.Anything)
}

func TestExceptionService_AtRiskFlagsWithoutCustomerContact(t *testing.T) {
	tenantID := uuid.New()
	order := shippedOrder(t, tenantID, "1Z888")

	orders := new(MockOrderRepository)
	notifier := new(MockNotifier)
	svc := NewExceptionService(orders, notifier, zap.NewNop())

	orders.On("FindByTrackingNumber", mock.Anything, tenantID, "1Z888").Return(order, nil)
	orders.On("Save", mock.Anything, order).Return(nil)

	exc := &shipping.Exception{
		Type:      shipping.ExceptionAtRisk,
		Message:   "No tracking updates for more than 7 days while in transit",
		Timestamp: time.Now().Add(-8 * 24 * time.Hour),
	}
	require.NoError(t, svc.Handle(context.Background(), tenantID, "1Z888", exc))

	assert.False(t, order.IsCancelled())
	assert.Contains(t, order.AdminNotes, "AT_RISK")
	require.Len(t, order.Notes, 1)
	assert.Contains(t, order.Notes[0].Note, "AT_RISK")

	notifier.AssertNotCalled(t, "NotifyCustomer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "AlertMerchant", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExceptionService_ReturnedOnDeliveredOrderDoesNotCancel(t *testing.T) {
	tenantID := uuid.New()
	order := shippedOrder(t, tenantID, "1Z777")
	require.NoError(t, order.MarkDelivered())

	orders := new(MockOrderRepository)
	notifier := new(MockNotifier)
	svc := NewExceptionService(orders, notifier, zap.NewNop())

	orders.On("FindByTrackingNumber", mock.Anything, tenantID, "1Z777").Return(order, nil)
	orders.On("Save", mock.Anything, order).Return(nil)
	notifier.On("NotifyCustomer", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	notifier.On("AlertMerchant", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, svc.Handle(context.Background(), tenantID, "1Z777", returnedException()))

	// The cancel is refused but the note and notifications still land
	assert.False(t, order.IsCancelled())
	require.Len(t, order.Notes, 1)
}

func TestExceptionService_WeatherDelayOnlyNotes(t *testing.T) {
	tenantID := uuid.New()
	order := shippedOrder(t, tenantID, "1Z666")

	orders := new(MockOrderRepository)
	notifier := new(MockNotifier)
	svc := NewExceptionService(orders, notifier, zap.NewNop())

	orders.On("FindByTrackingNumber", mock.Anything, tenantID, "1Z666").Return(order, nil)
	orders.On("Save", mock.Anything, order).Return(nil)

	exc := &shipping.Exception{
		Type:      shipping.ExceptionWeatherDelay,
		Message:   "Delay due to severe weather",
		Timestamp: time.Now(),
	}
	require.NoError(t, svc.Handle(context.Background(), tenantID, "1Z666", exc))

	require.Len(t, order.Notes, 1)
	assert.Contains(t, order.Notes[0].Note, "WEATHER_DELAY")
	notifier.AssertNotCalled(t, "NotifyCustomer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "AlertMerchant", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExceptionService_NilExceptionIsNoOp(t *testing.T) {
	orders := new(MockOrderRepository)
	notifier := new(MockNotifier)
	svc := NewExceptionService(orders, notifier, zap.NewNop())

	require.NoError(t, svc.Handle(context.Background(), uuid.New(), "1Z555", nil))
	orders.AssertNotCalled(t, "FindByTrackingNumber", mock.Anything, mock.Anything, mock.Anything)
}

func TestExceptionService_UnknownTrackingPropagatesError(t *testing.T) {
	tenantID := uuid.New()
	orders := new(MockOrderRepository)
	notifier := new(MockNotifier)
	svc := NewExceptionService(orders, notifier, zap.NewNop())

	orders.On("FindByTrackingNumber", mock.Anything, tenantID, "ghost").Return(nil, assert.AnError)

	err := svc.Handle(context.Background(), tenantID, "ghost", returnedException())
	assert.Error(t, err)
}
