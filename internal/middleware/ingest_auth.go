package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ScopeHeader names the user on whose behalf the upstream upload service
// pushes rows.
const ScopeHeader = "X-User-Scope"

// IngestAuthMiddleware creates a Gin middleware that validates the X-API-Key
// header against the configured ingest API key and takes the user scope
// from X-User-Scope.
func IngestAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": gin.H{"code": "INGEST_NOT_CONFIGURED", "message": "Ingest endpoints are not configured"}})
			return
		}
		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": gin.H{"code": "INVALID_API_KEY", "message": "Invalid or missing API key"}})
			return
		}
		scope := strings.ToLower(strings.TrimSpace(c.GetHeader(ScopeHeader)))
		if scope == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				gin.H{"error": gin.H{"code": "MISSING_USER_SCOPE", "message": "X-User-Scope header is required"}})
			return
		}
		c.Set(ScopeKey, scope)
		c.Next()
	}
}
