package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoAuth is the pass-through used when AUTH_MODE=none (self-hosted, local
// dev). Everyone is anonymous; story state is still isolated per session
// cookie.
func NoAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", "anonymous")
		c.Next()
	}
}
