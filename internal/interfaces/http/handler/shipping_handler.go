package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	shippingapp "github.com/storefront/backend/internal/application/shipping"
	"github.com/storefront/backend/internal/domain/shipping"
)

// ShippingHandler exposes rate quoting, labels, tracking, and exception
// checks
type ShippingHandler struct {
	BaseHandler
	rates     *shippingapp.RateService
	shipments *shippingapp.ShipmentService
}

// NewShippingHandler creates a shipping handler
func NewShippingHandler(rates *shippingapp.RateService, shipments *shippingapp.ShipmentService, logger *zap.Logger) *ShippingHandler {
	return &ShippingHandler{
		BaseHandler: NewBaseHandler(logger),
		rates:       rates,
		shipments:   shipments,
	}
}

// GetRate handles GET /api/v1/shipping/rates
func (h *ShippingHandler) GetRate(c *gin.Context) {
	provider := shipping.ProviderType(c.Query("provider"))
	fromZip := c.Query("from")
	toZip := c.Query("to")
	weight, err := decimal.NewFromString(c.Query("weight"))
	if err != nil || fromZip == "" || toZip == "" {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "provider, from, to, and a numeric weight are required")
		return
	}

	rate, err := h.rates.GetRate(c.Request.Context(), provider, fromZip, toZip, weight)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rate)
}

// CompareRates handles GET /api/v1/shipping/rates/compare
func (h *ShippingHandler) CompareRates(c *gin.Context) {
	fromZip := c.Query("from")
	toZip := c.Query("to")
	weight, err := decimal.NewFromString(c.Query("weight"))
	if err != nil || fromZip == "" || toZip == "" {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "from, to, and a numeric weight are required")
		return
	}

	rates, err := h.rates.CompareRates(c.Request.Context(), fromZip, toZip, weight)
	if err != nil {
		h.Error(c, http.StatusServiceUnavailable, "NO_RATES", "No carrier could quote this shipment")
		return
	}
	h.Success(c, gin.H{"rates": rates})
}

type createLabelRequest struct {
	OrderID  uuid.UUID `json:"orderId" binding:"required"`
	Provider string    `json:"provider" binding:"required"`
	FromZip  string    `json:"fromZip" binding:"required"`
	ToZip    string    `json:"toZip" binding:"required"`
	Weight   string    `json:"weight" binding:"required"`
}

// CreateLabel handles POST /api/v1/shipping/labels
func (h *ShippingHandler) CreateLabel(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	var req createLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "orderId, provider, fromZip, toZip, and weight are required")
		return
	}
	weight, err := decimal.NewFromString(req.Weight)
	if err != nil || weight.IsNegative() {
		h.Error(c, http.StatusBadRequest, "INVALID_WEIGHT", "weight must be a non-negative number")
		return
	}

	label, err := h.shipments.CreateLabel(c.Request.Context(), tenantID, req.OrderID,
		shipping.ProviderType(req.Provider), req.FromZip, req.ToZip, weight)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, label)
}

// GetTracking handles GET /api/v1/shipping/tracking/:provider/:trackingNumber
func (h *ShippingHandler) GetTracking(c *gin.Context) {
	provider := shipping.ProviderType(c.Param("provider"))
	trackingNumber := c.Param("trackingNumber")

	info, err := h.shipments.GetTracking(c.Request.Context(), provider, trackingNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

type checkShipmentRequest struct {
	Provider       string `json:"provider" binding:"required"`
	TrackingNumber string `json:"trackingNumber" binding:"required"`
}

// CheckShipment handles POST /api/v1/shipping/shipments/check
// Runs exception detection and, when warranted, the full handling flow
func (h *ShippingHandler) CheckShipment(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	var req checkShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "provider and trackingNumber are required")
		return
	}

	exc, err := h.shipments.CheckShipment(c.Request.Context(), tenantID,
		shipping.ProviderType(req.Provider), req.TrackingNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"exception": exc})
}

// CancelLabel handles DELETE /api/v1/shipping/labels/:provider/:id
func (h *ShippingHandler) CancelLabel(c *gin.Context) {
	provider := shipping.ProviderType(c.Param("provider"))
	labelID := c.Param("id")

	if err := h.shipments.CancelLabel(c.Request.Context(), provider, labelID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"cancelled": true})
}
