package middleware

import (
	"net/http"
	"strings"

	"healthpulse/utils"

	"github.com/gin-gonic/gin"
)

// ContextUserID is the gin context key holding the authenticated user id.
const ContextUserID = "userID"

// JWTAuthUserMiddleware accepts a bearer token, or a ?token= query parameter
// for browser WebSocket and EventSource clients that cannot set headers.
func JWTAuthUserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		} else {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}

		userID, err := utils.ExtractIDFromToken(tokenString)
		if err != nil || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}

		c.Set(ContextUserID, userID)
		c.Next()
	}
}

// UserID returns the id set by JWTAuthUserMiddleware.
func UserID(c *gin.Context) (string, bool) {
	raw, exists := c.Get(ContextUserID)
	if !exists || raw == nil {
		return "", false
	}
	userID, ok := raw.(string)
	return userID, ok && userID != ""
}
