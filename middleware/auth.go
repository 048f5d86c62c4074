package middleware

import (
	"net/http"
	"strings"

	"staycal/services/identity"
	"staycal/utils"

	"github.com/gin-gonic/gin"
)

// JWTAuthMiddleware validates the Bearer token, checks it against the
// user's live session, and injects the validated userID into the
// context. Downstream code never re-validates identity.
func JWTAuthMiddleware(sessions identity.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Recover from unexpected panics.
		defer func() {
			if r := recover(); r != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
					"code":  500,
				})
			}
		}()

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		userID, err := utils.ExtractIDFromToken(tokenString)
		if err != nil || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}

		// A missing or mismatched session hash means the token was
		// revoked or superseded by a newer login.
		if sessions != nil {
			storedHash, err := sessions.Get(c.Request.Context(), userID)
			if err != nil || storedHash == "" || storedHash != utils.HashToken(tokenString) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Session expired or revoked",
					"code":  0,
				})
				return
			}
		}

		c.Set("userID", userID)
		c.Next()
	}
}
