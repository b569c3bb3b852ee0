package shipping

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shipping"
	"github.com/storefront/backend/internal/infrastructure/cache"
	infrashipping "github.com/storefront/backend/internal/infrastructure/shipping"
)

// rateKeyFmt is the quote cache key: shipping_rate:{provider}:{from}:{to}:{weight}
const rateKeyFmt = "shipping_rate:%s:%s:%s:%s"

// RateService quotes shipping costs with a TTL cache in front of the
// carrier APIs. Within the TTL, a given route and weight hits a carrier
// at most once
type RateService struct {
	registry *infrashipping.Registry
	cache    cache.Cache
	ttl      time.Duration
	logger   *zap.Logger
}

// NewRateService creates a rate service
func NewRateService(registry *infrashipping.Registry, c cache.Cache, ttl time.Duration, logger *zap.Logger) *RateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RateService{
		registry: registry,
		cache:    c,
		ttl:      ttl,
		logger:   logger,
	}
}

// GetRate quotes one carrier for a route and weight, consulting the cache
// first. An unsupported carrier fails fast without touching the cache
func (s *RateService) GetRate(ctx context.Context, providerType shipping.ProviderType, fromZip, toZip string, weight decimal.Decimal) (shipping.Rate, error) {
	provider, err := s.registry.Get(providerType)
	if err != nil {
		return shipping.Rate{}, err
	}

	key := fmt.Sprintf(rateKeyFmt, providerType, fromZip, toZip, weight.String())

	if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var rate shipping.Rate
		if err := json.Unmarshal([]byte(raw), &rate); err == nil {
			return rate, nil
		}
		s.logger.Warn("corrupt cached rate, refetching", zap.String("key", key))
	} else if err != nil {
		s.logger.Warn("rate cache read failed", zap.String("key", key), zap.Error(err))
	}

	rate, err := provider.CalculateRate(ctx, fromZip, toZip, weight)
	if err != nil {
		return shipping.Rate{}, fmt.Errorf("quote %s: %w", providerType, err)
	}

	if data, err := json.Marshal(rate); err == nil {
		if err := s.cache.Set(ctx, key, string(data), s.ttl); err != nil {
			s.logger.Warn("rate cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return rate, nil
}

// CompareRates quotes every registered carrier concurrently and returns
// the successful quotes sorted by ascending cost
//
// One carrier failing drops that carrier from the comparison; the others
// still return. Only an empty comparison surfaces an error
func (s *RateService) CompareRates(ctx context.Context, fromZip, toZip string, weight decimal.Decimal) ([]shipping.Rate, error) {
	types := s.registry.Types()
	if len(types) == 0 {
		return nil, fmt.Errorf("no shipping providers registered")
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	rates := make([]shipping.Rate, 0, len(types))

	for _, t := range types {
		wg.Add(1)
		go func(t shipping.ProviderType) {
			defer wg.Done()
			rate, err := s.GetRate(ctx, t, fromZip, toZip, weight)
			if err != nil {
				s.logger.Warn("carrier dropped from comparison",
					zap.String("provider", string(t)),
					zap.Error(err),
				)
				return
			}
			mu.Lock()
			rates = append(rates, rate)
			mu.Unlock()
		}(t)
	}
	wg.Wait()

	if len(rates) == 0 {
		return nil, fmt.Errorf("all carriers failed to quote %s -> %s", fromZip, toZip)
	}

	sort.Slice(rates, func(i, j int) bool {
		if !rates[i].Amount.Equal(rates[j].Amount) {
			return rates[i].Amount.LessThan(rates[j].Amount)
		}
		return rates[i].Provider < rates[j].Provider
	})
	return rates, nil
}

// SweepExpired evicts expired cache entries on backends that need it
// Intended to run on a timer from the server process
func (s *RateService) SweepExpired(ctx context.Context) int {
	evicted, err := s.cache.Sweep(ctx)
	if err != nil {
		s.logger.Warn("cache sweep failed", zap.Error(err))
		return 0
	}
	if evicted > 0 {
		s.logger.Debug("swept expired cache entries", zap.Int("evicted", evicted))
	}
	return evicted
}
