package shipping

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shipping"
)

func TestMockRate_Deterministic(t *testing.T) {
	weight := decimal.NewFromInt(3)

	a := mockRate(shipping.ProviderUPS, "10001", "94105", weight)
	b := mockRate(shipping.ProviderUPS, "10001", "94105", weight)

	assert.True(t, a.Amount.Equal(b.Amount), "same inputs must quote the same amount")
	assert.True(t, a.Degraded)
	assert.Equal(t, "USD", a.Currency)
}

func TestMockRate_VariesByCarrierAndRoute(t *testing.T) {
	weight := decimal.NewFromInt(3)

	ups := mockRate(shipping.ProviderUPS, "10001", "94105", weight)
	usps := mockRate(shipping.ProviderUSPS, "10001", "94105", weight)
	assert.False(t, ups.Amount.Equal(usps.Amount))

	near := mockRate(shipping.ProviderUPS, "10001", "10005", weight)
	far := mockRate(shipping.ProviderUPS, "10001", "94105", weight)
	assert.True(t, near.Amount.LessThan(far.Amount), "closer zones quote cheaper")
}

func TestMockTrackingNumber_CarrierShapes(t *testing.T) {
	ups := mockTrackingNumber(shipping.ProviderUPS, "ORD-1")
	assert.True(t, strings.HasPrefix(ups, "1Z"))

	usps := mockTrackingNumber(shipping.ProviderUSPS, "ORD-1")
	assert.True(t, strings.HasPrefix(usps, "9400"))

	// Stable across calls
	assert.Equal(t, ups, mockTrackingNumber(shipping.ProviderUPS, "ORD-1"))
}

func TestUPSProvider_CalculateRate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rating/v2409/rate", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req upsRateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "10001", req.ShipFromZip)

		json.NewEncoder(w).Encode(upsRateResponse{TotalCharge: "17.25", Currency: "USD"})
	}))
	defer server.Close()

	p := NewUPSProvider(server.URL, "test-key", time.Second, zap.NewNop())
	rate, err := p.CalculateRate(context.Background(), "10001", "94105", decimal.NewFromInt(3))

	require.NoError(t, err)
	assert.Equal(t, shipping.ProviderUPS, rate.Provider)
	assert.True(t, rate.Amount.Equal(decimal.RequireFromString("17.25")))
	assert.False(t, rate.Degraded)
}

func TestUPSProvider_CalculateRate_DegradesWhenUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	p := NewUPSProvider(server.URL, "test-key", 200*time.Millisecond, zap.NewNop())
	rate, err := p.CalculateRate(context.Background(), "10001", "94105", decimal.NewFromInt(3))

	require.NoError(t, err, "transport failure degrades instead of erroring")
	assert.True(t, rate.Degraded)
	assert.True(t, rate.Amount.IsPositive())
}

func TestUPSProvider_CreateLabel_DegradedIsFlagged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	p := NewUPSProvider(server.URL, "test-key", time.Second, zap.NewNop())
	label, err := p.CreateLabel(context.Background(), shipping.LabelRequest{
		OrderNumber: "ORD-1",
		FromZip:     "10001",
		ToZip:       "94105",
		Weight:      decimal.NewFromInt(2),
	})

	require.NoError(t, err)
	assert.True(t, label.Degraded)
	assert.NotEmpty(t, label.TrackingNumber)
	assert.True(t, label.Cost.IsPositive())
}

func TestUPSProvider_CancelLabel_FailurePropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	p := NewUPSProvider(server.URL, "test-key", time.Second, zap.NewNop())
	err := p.CancelLabel(context.Background(), "label-1")
	assert.ErrorIs(t, err, ErrCarrierRejected)
}

func TestFedExProvider_GetTracking_Success(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(fedexTrackResponse{
			TrackingNumber: "794000000000",
			StatusByLocale: "in_transit",
			LastUpdate:     now,
		})
	}))
	defer server.Close()

	p := NewFedExProvider(server.URL, "test-key", time.Second, zap.NewNop())
	info, err := p.GetTracking(context.Background(), "794000000000")

	require.NoError(t, err)
	assert.Equal(t, "in_transit", info.Status)
	assert.False(t, info.Degraded)
}
