package middleware

import (
	"crypto/subtle"
	"net/http"

	"healthpulse/config"

	"github.com/gin-gonic/gin"
)

// AdminKeyMiddleware guards operator endpoints with the X-Admin-Key header.
func AdminKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := config.AppConfig.AdminAPIKey
		provided := c.GetHeader("X-Admin-Key")
		if expected == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized admin access"})
			return
		}

		c.Set("isAdmin", true)
		c.Next()
	}
}
