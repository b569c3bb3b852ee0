package shipping

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier delivers exception-driven messages to customers and merchants
type Notifier interface {
	NotifyCustomer(ctx context.Context, email, subject, body string) error
	AlertMerchant(ctx context.Context, tenantID uuid.UUID, subject, body string) error
}

// LogNotifier writes notifications to the structured log
// Stands in until a mail or webhook channel is wired up; keeping it behind
// the Notifier port means the exception flow does not change when one is
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// NotifyCustomer logs a customer-facing notification
func (n *LogNotifier) NotifyCustomer(_ context.Context, email, subject, body string) error {
	n.logger.Info("customer notification",
		zap.String("email", email),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}

// AlertMerchant logs a merchant-facing alert
func (n *LogNotifier) AlertMerchant(_ context.Context, tenantID uuid.UUID, subject, body string) error {
	n.logger.Info("merchant alert",
		zap.String("tenant_id", tenantID.String()),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}

// Ensure LogNotifier implements Notifier
var _ Notifier = (*LogNotifier)(nil)
