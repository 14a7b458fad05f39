package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// clientIP keys rate limits and request logs. The first X-Forwarded-For hop
// wins, then X-Real-IP, then gin's own resolution of RemoteAddr.
func clientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if xri := strings.TrimSpace(c.GetHeader("X-Real-IP")); xri != "" {
		return xri
	}
	return c.ClientIP()
}
