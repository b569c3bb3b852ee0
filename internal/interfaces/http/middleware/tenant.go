package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TenantHeader carries the storefront tenant on every API request
const TenantHeader = "X-Tenant-ID"

const tenantContextKey = "tenant_id"

// Tenant extracts and validates the tenant header
// Requests without a valid tenant UUID are rejected before any handler runs
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(TenantHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   gin.H{"code": "MISSING_TENANT", "message": "X-Tenant-ID header is required"},
			})
			return
		}

		id, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   gin.H{"code": "INVALID_TENANT", "message": "X-Tenant-ID must be a valid UUID"},
			})
			return
		}

		c.Set(tenantContextKey, id)
		c.Next()
	}
}

// TenantID returns the tenant set by the Tenant middleware
func TenantID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(tenantContextKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
