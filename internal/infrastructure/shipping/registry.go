package shipping

import (
	"sort"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shipping"
	"github.com/storefront/backend/internal/infrastructure/config"
)

// Registry holds the configured carrier integrations
// It is assembled once at startup; lookups of a carrier that was not
// registered fail fast instead of silently substituting a mock
type Registry struct {
	providers map[shipping.ProviderType]shipping.Provider
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[shipping.ProviderType]shipping.Provider),
	}
}

// NewRegistryFromConfig builds a registry containing the enabled carriers
func NewRegistryFromConfig(cfg *config.ShippingConfig, logger *zap.Logger) *Registry {
	r := NewRegistry()
	timeout := cfg.RequestTimeout

	if cfg.UPS.Enabled {
		r.Register(NewUPSProvider(cfg.UPS.BaseURL, cfg.UPS.APIKey, timeout, logger))
	}
	if cfg.FedEx.Enabled {
		r.Register(NewFedExProvider(cfg.FedEx.BaseURL, cfg.FedEx.APIKey, timeout, logger))
	}
	if cfg.USPS.Enabled {
		r.Register(NewUSPSProvider(cfg.USPS.BaseURL, cfg.USPS.APIKey, timeout, logger))
	}

	return r
}

// Register adds a provider, replacing any previous one of the same type
func (r *Registry) Register(p shipping.Provider) {
	r.providers[p.Type()] = p
}

// Get returns the provider for a carrier type
func (r *Registry) Get(t shipping.ProviderType) (shipping.Provider, error) {
	p, ok := r.providers[t]
	if !ok {
		return nil, shared.ErrUnsupportedProvider
	}
	return p, nil
}

// All returns the registered providers in stable type order
func (r *Registry) All() []shipping.Provider {
	types := make([]string, 0, len(r.providers))
	for t := range r.providers {
		types = append(types, string(t))
	}
	sort.Strings(types)

	providers := make([]shipping.Provider, 0, len(types))
	for _, t := range types {
		providers = append(providers, r.providers[shipping.ProviderType(t)])
	}
	return providers
}

// Types returns the registered carrier types in stable order
func (r *Registry) Types() []shipping.ProviderType {
	all := r.All()
	types := make([]shipping.ProviderType, 0, len(all))
	for _, p := range all {
		types = append(types, p.Type())
	}
	return types
}
