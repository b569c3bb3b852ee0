package shipping

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProviderType enumerates the supported carrier integrations
type ProviderType string

const (
	ProviderUPS   ProviderType = "ups"
	ProviderFedEx ProviderType = "fedex"
	ProviderUSPS  ProviderType = "usps"
)

// Shipment status values reported by carriers
const (
	StatusPreTransit = "pre_transit"
	StatusInTransit  = "in_transit"
	StatusDelivered  = "delivered"
	StatusException  = "exception"
)

// LabelRequest carries what a carrier needs to create a shipping label
type LabelRequest struct {
	OrderID     uuid.UUID
	OrderNumber string
	FromZip     string
	ToZip       string
	Weight      decimal.Decimal
}

// Label is a purchased shipping label
type Label struct {
	ID             string          `json:"id"`
	TrackingNumber string          `json:"trackingNumber"`
	Provider       ProviderType    `json:"provider"`
	Cost           decimal.Decimal `json:"cost"`
	LabelURL       string          `json:"labelUrl,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	// Degraded marks a mock response produced after a carrier API failure
	Degraded bool `json:"degraded,omitempty"`
}

// TrackingEvent is one scan/update in a shipment's history
type TrackingEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Location  string    `json:"location,omitempty"`
}

// TrackingInfo is the current state of a shipment
// Events are ordered newest first
type TrackingInfo struct {
	TrackingNumber    string          `json:"trackingNumber"`
	Provider          ProviderType    `json:"provider"`
	Status            string          `json:"status"`
	LastUpdate        time.Time       `json:"lastUpdate"`
	EstimatedDelivery *time.Time      `json:"estimatedDelivery,omitempty"`
	Events            []TrackingEvent `json:"events"`
	Degraded          bool            `json:"degraded,omitempty"`
}

// LatestEvent returns the most recent tracking event, or nil
func (t *TrackingInfo) LatestEvent() *TrackingEvent {
	if len(t.Events) == 0 {
		return nil
	}
	return &t.Events[0]
}

// Rate is a quoted shipping cost
type Rate struct {
	Provider ProviderType    `json:"provider"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Degraded bool            `json:"degraded,omitempty"`
}

// Provider is the uniform carrier interface
// Implementations degrade to mock responses on transport failure instead
// of propagating the error; degraded responses are flagged
type Provider interface {
	Type() ProviderType
	CreateLabel(ctx context.Context, req LabelRequest) (*Label, error)
	GetTracking(ctx context.Context, trackingNumber string) (*TrackingInfo, error)
	CalculateRate(ctx context.Context, fromZip, toZip string, weight decimal.Decimal) (Rate, error)
	CancelLabel(ctx context.Context, labelID string) error
}
