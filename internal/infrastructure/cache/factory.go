package cache

import (
	"fmt"

	"go.uber.org/zap"
)

// Factory creates the cache service based on configuration
// The cache is constructed once at startup and injected; there is no
// package-level cache state
type Factory struct {
	redisConfig         RedisConfig
	logger              *zap.Logger
	allowMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithMemoryFallback controls whether to fall back to the in-memory cache
// when Redis is unavailable. Default is true
func WithMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowMemoryFallback = allow
	}
}

// NewFactory creates a new cache factory
func NewFactory(cfg RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:         cfg,
		logger:              zap.NewNop(),
		allowMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Create builds a cache service, preferring Redis and falling back to the
// in-memory implementation when Redis is unreachable and fallback is allowed
func (f *Factory) Create() (Cache, error) {
	c, err := NewRedisCache(f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis cache service")
		return c, nil
	}

	if !f.allowMemoryFallback {
		return nil, fmt.Errorf("Redis required for cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory cache. "+
		"Search results, analytics, and shipping rates will not be shared across instances.",
		zap.Error(err),
	)
	return NewMemoryCache(), nil
}
