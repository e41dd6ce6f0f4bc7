package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// RequireUser resolves the caller identity from the X-User-ID header.
// This is the seam where a real session layer would sit; everything
// downstream only sees the resolved user id.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing X-User-ID header",
			})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// GetUserID returns the resolved caller id for the request.
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
