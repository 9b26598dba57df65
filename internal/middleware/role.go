package middleware

import (
	"bug_tracker/internal/domain" // Role type
	"net/http"                    // HTTP status codes
	"slices"                      // Role membership

	"github.com/gin-gonic/gin" // Gin web framework
)

// RequireRoles lets the request through only when the token's role is one
// of roles. The role is trusted from the token; the store is not consulted.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, role, ok := CurrentUser(c) // Identity set by the JWT middleware
		// Check the JWT middleware ran first
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "code": "unauthorized"})
			return
		}
		// Check the role is allowed
		if !slices.Contains(roles, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: Insufficient permissions", "code": "forbidden"})
			return
		}
		c.Next() // Proceed to the next handler
	}
}

// AdminOnly restricts a route to administrators
func AdminOnly() gin.HandlerFunc {
	return RequireRoles(domain.RoleAdmin)
}

// WritersOnly restricts a route to roles that may mutate tickets and projects
func WritersOnly() gin.HandlerFunc {
	return RequireRoles(domain.RoleAdmin, domain.RoleDeveloper)
}
