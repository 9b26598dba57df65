package api

import (
	"bug_tracker/internal/domain"     // Importing domain models
	"bug_tracker/internal/middleware" // Identity helpers
	"bug_tracker/internal/store"      // Store adapter
	"bug_tracker/internal/utils"      // Utility functions
	"context"                         // Context for Redis operations
	"net/http"                        // HTTP status codes
	"strings"                         // String manipulation

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// ProjectRequest represents a project creation request
type ProjectRequest struct {
	Name        string `json:"name" binding:"required"` // Project name
	Description string `json:"description"`             // Optional description
}

// ListProjectsHandler returns every project, newest first
func ListProjectsHandler(s *store.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		projects, _, err := utils.Cached(c.Request.Context(), rdb, utils.CacheKeyProjects, utils.ListCacheTTL, s.ListProjects)
		if err != nil {
			respondStoreError(c, err, "")
			return
		}
		if projects == nil {
			projects = []domain.Project{} // Always answer with a JSON array
		}
		c.JSON(http.StatusOK, projects)
	}
}

// CreateProjectHandler creates a project
func CreateProjectHandler(s *store.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ProjectRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
			respondError(c, http.StatusBadRequest, CodeValidation, "Project name is required")
			return
		}
		project := domain.Project{Name: strings.TrimSpace(req.Name), Description: req.Description}
		if err := s.CreateProject(c.Request.Context(), &project); err != nil {
			respondStoreError(c, err, "")
			return
		}
		_ = utils.DeleteCache(context.Background(), rdb, utils.CacheKeyProjects) // Invalidate projects list
		userID, _, _ := middleware.CurrentUser(c)
		// Log project creation
		logrus.WithFields(logrus.Fields{
			"user_id":    userID,     // Creator
			"project_id": project.ID, // Project ID
		}).Info("Project created")
		c.JSON(http.StatusCreated, project)
	}
}

// DeleteProjectHandler deletes a project and, through the store, its tickets
func DeleteProjectHandler(s *store.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id") // Project ID from the path
		if err := s.DeleteProject(c.Request.Context(), id); err != nil {
			respondStoreError(c, err, "Project not found")
			return
		}
		_ = utils.DeleteCache(context.Background(), rdb, utils.CacheKeyProjects) // Invalidate projects list
		userID, _, _ := middleware.CurrentUser(c)
		// Log project deletion
		logrus.WithFields(logrus.Fields{
			"user_id":    userID, // Admin who deleted it
			"project_id": id,     // Project ID
		}).Info("Project deleted")
		c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
	}
}
