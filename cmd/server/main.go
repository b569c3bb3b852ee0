package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	searchapp "github.com/storefront/backend/internal/application/search"
	shippingapp "github.com/storefront/backend/internal/application/shipping"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	infrashipping "github.com/storefront/backend/internal/infrastructure/shipping"
	httpiface "github.com/storefront/backend/internal/interfaces/http"
	"github.com/storefront/backend/internal/interfaces/http/handler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting storefront backend",
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := persistence.CloseDatabase(db); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}()

	cacheService, err := cache.NewFactory(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cache.WithLogger(log)).Create()
	if err != nil {
		log.Fatal("failed to create cache service", zap.Error(err))
	}
	defer func() { _ = cacheService.Close() }()

	// Repositories
	productRepo := persistence.NewProductRepository(db)
	reviewRepo := persistence.NewReviewRepository(db)
	categoryRepo := persistence.NewCategoryRepository(db)
	orderRepo := persistence.NewSalesOrderRepository(db)

	// Carrier integrations
	registry := infrashipping.NewRegistryFromConfig(&cfg.Shipping, log)

	// Application services
	analytics := searchapp.NewAnalyticsService(cacheService, searchapp.AnalyticsConfig{
		SnapshotRetention: cfg.Analytics.SnapshotRetention,
		PopularRetention:  cfg.Analytics.PopularRetention,
		ZeroResultWindow:  cfg.Analytics.ZeroResultWindow,
		AnonymizeQueries:  cfg.Analytics.AnonymizeQueries,
	}, log)

	// A disabled analytics config stops tracking but keeps the read
	// endpoints serving whatever data remains in the cache
	tracker := analytics
	if !cfg.Analytics.Enabled {
		tracker = nil
	}

	searchService := searchapp.NewService(productRepo, reviewRepo, cacheService,
		tracker, cfg.Search.ResultCacheTTL, log)
	autocompleteService := searchapp.NewAutocompleteService(productRepo, categoryRepo,
		tracker, cfg.Search.MinQueryLength, cfg.Search.MaxSuggestions, log)

	notifier := shippingapp.NewLogNotifier(log)
	exceptionService := shippingapp.NewExceptionService(orderRepo, notifier, log)
	rateService := shippingapp.NewRateService(registry, cacheService, cfg.Shipping.RateCacheTTL, log)
	shipmentService := shippingapp.NewShipmentService(registry, orderRepo, exceptionService, log)

	// HTTP surface
	router := httpiface.NewRouter(httpiface.RouterConfig{
		Env:              cfg.App.Env,
		CORSAllowOrigins: cfg.HTTP.CORSAllowOrigins,
		TrustedProxies:   cfg.HTTP.TrustedProxies,
		Search:           handler.NewSearchHandler(searchService, autocompleteService, analytics, log),
		Shipping:         handler.NewShippingHandler(rateService, shipmentService, log),
		Logger:           log,
	})

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Background eviction for cache backends without native expiry
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go runSweeper(sweepCtx, rateService, log)

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

// runSweeper evicts expired cache entries on a fixed interval
func runSweeper(ctx context.Context, rates *shippingapp.RateService, log *zap.Logger) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			evicted := rates.SweepExpired(sweepCtx)
			cancel()
			if evicted > 0 {
				log.Info("cache sweep complete", zap.Int("evicted", evicted))
			}
		}
	}
}
