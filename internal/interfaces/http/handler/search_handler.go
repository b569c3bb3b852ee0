package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	searchapp "github.com/storefront/backend/internal/application/search"
	"github.com/storefront/backend/internal/domain/search"
)

// SessionHeader carries the anonymous storefront session for analytics
const SessionHeader = "X-Session-ID"

// SearchHandler exposes the search, autocomplete, and analytics endpoints
type SearchHandler struct {
	BaseHandler
	search       *searchapp.Service
	autocomplete *searchapp.AutocompleteService
	analytics    *searchapp.AnalyticsService
}

// NewSearchHandler creates a search handler
func NewSearchHandler(svc *searchapp.Service, ac *searchapp.AutocompleteService, an *searchapp.AnalyticsService, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		BaseHandler:  NewBaseHandler(logger),
		search:       svc,
		autocomplete: ac,
		analytics:    an,
	}
}

// Search handles GET /api/v1/search
// Invalid pagination values are clamped, never rejected; the endpoint
// always answers 200 with a (possibly empty) result
func (h *SearchHandler) Search(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	filters := search.NewFilters(tenantID, parseFilterParams(c))
	result := h.search.Search(c.Request.Context(), filters, c.GetHeader(SessionHeader))
	h.Success(c, result)
}

// Autocomplete handles GET /api/v1/search/autocomplete
func (h *SearchHandler) Autocomplete(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	suggestions := h.autocomplete.Suggest(c.Request.Context(), tenantID, c.Query("q"))
	h.Success(c, gin.H{"suggestions": suggestions})
}

type trackEventRequest struct {
	QueryID   string    `json:"queryId" binding:"required"`
	ProductID uuid.UUID `json:"productId" binding:"required"`
}

// TrackClick handles POST /api/v1/search/events/click
// Events referencing an expired query ID are accepted and dropped
func (h *SearchHandler) TrackClick(c *gin.Context) {
	var req trackEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "queryId and productId are required")
		return
	}

	if err := h.analytics.TrackClick(c.Request.Context(), req.QueryID, req.ProductID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"recorded": true})
}

// TrackConversion handles POST /api/v1/search/events/conversion
func (h *SearchHandler) TrackConversion(c *gin.Context) {
	var req trackEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "queryId and productId are required")
		return
	}

	if err := h.analytics.TrackConversion(c.Request.Context(), req.QueryID, req.ProductID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"recorded": true})
}

// PopularQueries handles GET /api/v1/search/analytics/popular
func (h *SearchHandler) PopularQueries(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	popular, err := h.analytics.PopularQueries(c.Request.Context(), tenantID, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"queries": popular})
}

// ZeroResultQueries handles GET /api/v1/search/analytics/zero-results
func (h *SearchHandler) ZeroResultQueries(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	queries, err := h.analytics.ZeroResultQueries(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if queries == nil {
		queries = []string{}
	}
	h.Success(c, gin.H{"queries": queries})
}

// parseFilterParams reads the raw filter inputs off the query string
// Malformed values degrade to their zero value and are cleaned up by
// filter construction
func parseFilterParams(c *gin.Context) search.FilterParams {
	p := search.FilterParams{
		Query: c.Query("q"),
		Sort:  c.Query("sort"),
	}

	if raw := c.Query("category"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			p.CategoryID = &id
		}
	}
	if raw := c.Query("minPrice"); raw != "" {
		if d, err := decimal.NewFromString(raw); err == nil {
			p.MinPrice = &d
		}
	}
	if raw := c.Query("maxPrice"); raw != "" {
		if d, err := decimal.NewFromString(raw); err == nil {
			p.MaxPrice = &d
		}
	}
	p.MinRating, _ = strconv.Atoi(c.Query("minRating"))
	p.InStock = c.Query("inStock") == "true"
	p.Featured = c.Query("featured") == "true"
	p.Page, _ = strconv.Atoi(c.Query("page"))
	p.Limit, _ = strconv.Atoi(c.Query("limit"))

	return p
}
