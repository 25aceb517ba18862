package middleware

import (
	"net/http"
	"strings"

	"quizhub/internal/service"

	"github.com/gin-gonic/gin"
)

// ContextUserID is the gin context key holding the authenticated user's id.
const ContextUserID = "userID"

// RequireAuth rejects requests without a valid bearer token and stores the
// token's user id in the context for handlers.
func RequireAuth(jwtService *service.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token, authorization denied"})
			return
		}

		claims, err := jwtService.VerifyToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token is not valid or expired"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Next()
	}
}

// UserID returns the authenticated user id set by RequireAuth.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
