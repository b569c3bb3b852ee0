package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// RouterConfig carries the handlers and cross-cutting settings the router
// needs
type RouterConfig struct {
	Env              string
	CORSAllowOrigins []string
	TrustedProxies   []string
	Search           *handler.SearchHandler
	Shipping         *handler.ShippingHandler
	Logger           *zap.Logger
}

// NewRouter assembles the gin engine with middleware and all routes
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	_ = r.SetTrustedProxies(cfg.TrustedProxies)

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.CORS(cfg.CORSAllowOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.Tenant())
	{
		search := api.Group("/search")
		{
			search.GET("", cfg.Search.Search)
			search.GET("/autocomplete", cfg.Search.Autocomplete)
			search.POST("/events/click", cfg.Search.TrackClick)
			search.POST("/events/conversion", cfg.Search.TrackConversion)
			search.GET("/analytics/popular", cfg.Search.PopularQueries)
			search.GET("/analytics/zero-results", cfg.Search.ZeroResultQueries)
		}

		shipping := api.Group("/shipping")
		{
			shipping.GET("/rates", cfg.Shipping.GetRate)
			shipping.GET("/rates/compare", cfg.Shipping.CompareRates)
			shipping.POST("/labels", cfg.Shipping.CreateLabel)
			shipping.DELETE("/labels/:provider/:id", cfg.Shipping.CancelLabel)
			shipping.GET("/tracking/:provider/:trackingNumber", cfg.Shipping.GetTracking)
			shipping.POST("/shipments/check", cfg.Shipping.CheckShipment)
		}
	}

	return r
}
