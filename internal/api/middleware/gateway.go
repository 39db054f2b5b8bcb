package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GatewayAuth trusts identity headers set by the cloud gateway, which
// handles token validation and billing before requests reach this service.
//
// When AUTH_MODE=gateway, the API trusts X-User-ID unconditionally. This
// should ONLY be used in the hosted environment with proper network
// isolation.
func GatewayAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"message": "Missing X-User-ID header from gateway",
			})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		if email := c.GetHeader("X-User-Email"); email != "" {
			c.Set("user_email", email)
		}

		c.Next()
	}
}

// OptionalGatewayAuth is like GatewayAuth but doesn't fail if headers are
// missing. Story endpoints work anonymously; the identity only enriches
// logging and error reports when present.
func OptionalGatewayAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := c.GetHeader("X-User-ID"); userID != "" {
			c.Set("user_id", userID)
			if email := c.GetHeader("X-User-Email"); email != "" {
				c.Set("user_email", email)
			}
		}

		c.Next()
	}
}

// GetGatewayUser retrieves the user ID forwarded by the gateway. Returns
// false for anonymous requests.
func GetGatewayUser(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok && id != "" && id != "anonymous"
}
