package api

import (
	"bug_tracker/internal/store" // Store adapter
	"bug_tracker/internal/utils" // Utility functions
	"context"                    // Context for the store call
	"net/http"                   // HTTP status codes

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// UserSummary is the assignment dropdown view of a user
type UserSummary struct {
	ID       string `json:"id"`        // User ID
	FullName string `json:"full_name"` // Display name
	Email    string `json:"email"`     // Email
}

// ListUsersHandler returns every user for assignment pickers
func ListUsersHandler(s *store.Store, rdb *redis.Client) gin.HandlerFunc {
	load := func(ctx context.Context) ([]UserSummary, error) {
		users, err := s.ListUsers(ctx)
		if err != nil {
			return nil, err
		}
		resp := make([]UserSummary, len(users))
		// Map users to response format
		for i, u := range users {
			resp[i] = UserSummary{ID: u.ID, FullName: u.FullName, Email: u.Email}
		}
		return resp, nil
	}
	return func(c *gin.Context) {
		users, _, err := utils.Cached(c.Request.Context(), rdb, utils.CacheKeyUsers, utils.ListCacheTTL, load)
		if err != nil {
			respondStoreError(c, err, "")
			return
		}
		c.JSON(http.StatusOK, users)
	}
}
