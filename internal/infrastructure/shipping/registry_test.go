package shipping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shipping"
	"github.com/storefront/backend/internal/infrastructure/config"
)

func TestRegistry_GetUnknownFailsFast(t *testing.T) {
	r := NewRegistry()
	r.Register(NewUPSProvider("http://localhost:1", "key", time.Second, zap.NewNop()))

	p, err := r.Get(shipping.ProviderUPS)
	require.NoError(t, err)
	assert.Equal(t, shipping.ProviderUPS, p.Type())

	_, err = r.Get("dhl")
	assert.ErrorIs(t, err, shared.ErrUnsupportedProvider)
}

func TestRegistry_FromConfigHonorsEnabledFlags(t *testing.T) {
	cfg := &config.ShippingConfig{
		RequestTimeout: time.Second,
		UPS:            config.CarrierConfig{Enabled: true, BaseURL: "http://ups.local"},
		FedEx:          config.CarrierConfig{Enabled: false, BaseURL: "http://fedex.local"},
		USPS:           config.CarrierConfig{Enabled: true, BaseURL: "http://usps.local"},
	}

	r := NewRegistryFromConfig(cfg, zap.NewNop())

	assert.Equal(t, []shipping.ProviderType{shipping.ProviderUPS, shipping.ProviderUSPS}, r.Types())

	_, err := r.Get(shipping.ProviderFedEx)
	assert.ErrorIs(t, err, shared.ErrUnsupportedProvider)
}

func TestRegistry_AllIsStable(t *testing.T) {
	r := NewRegistry()
	r.Register(NewUSPSProvider("http://a", "k", time.Second, nil))
	r.Register(NewUPSProvider("http://b", "k", time.Second, nil))
	r.Register(NewFedExProvider("http://c", "k", time.Second, nil))

	first := r.Types()
	second := r.Types()
	assert.Equal(t, first, second)
	assert.Len(t, first, 3)
}
