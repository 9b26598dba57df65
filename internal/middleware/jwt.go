package middleware

import (
	"bug_tracker/internal/domain" // Role type
	"bug_tracker/internal/utils"  // JWT utility functions
	"net/http"                    // HTTP status codes
	"strings"                     // String manipulation

	"github.com/gin-gonic/gin" // Gin web framework
)

// Context keys set by JWTAuthMiddleware
const (
	ContextUserID = "userID" // Authenticated user ID
	ContextRole   = "role"   // Role carried by the token
)

// JWTAuthMiddleware validates JWT tokens and extracts user information.
// When allowQuery is set the token may also arrive as ?access_token=,
// for EventSource clients that cannot send headers.
func JWTAuthMiddleware(secret string, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := ""                             // Raw token
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenStr = strings.TrimPrefix(authHeader, "Bearer ") // Extract the token string
		} else if allowQuery {
			tokenStr = c.Query("access_token") // Fall back to the query string
		}
		// Check if a token was supplied at all
		if tokenStr == "" {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header", "code": "unauthorized"})
			return
		}
		claims, err := utils.ParseJWT(tokenStr, secret) // Parse the JWT token
		if err != nil {
			// If parsing fails, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "code": "unauthorized"})
			return
		}
		c.Set(ContextUserID, claims.UserID) // Store userID in context
		c.Set(ContextRole, claims.Role)     // Store role in context
		c.Next()                            // Proceed to the next handler
	}
}

// CurrentUser returns the identity stored by JWTAuthMiddleware
func CurrentUser(c *gin.Context) (string, domain.Role, bool) {
	userID := c.GetString(ContextUserID) // Authenticated user ID
	role, _ := c.Get(ContextRole)        // Role from the token
	r, ok := role.(domain.Role)
	if userID == "" || !ok {
		return "", "", false
	}
	return userID, r, true
}
