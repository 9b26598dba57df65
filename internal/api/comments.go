package api

import (
	"bug_tracker/internal/domain"     // Importing domain models
	"bug_tracker/internal/middleware" // Identity helpers
	"bug_tracker/internal/store"      // Store adapter
	"net/http"                        // HTTP status codes
	"strings"                         // String manipulation

	"github.com/gin-gonic/gin" // Gin web framework
)

// CommentRequest represents a new comment
type CommentRequest struct {
	Content  string `json:"content" binding:"required"`   // Comment body
	TicketID string `json:"ticket_id" binding:"required"` // Ticket commented on
}

// ListCommentsHandler returns a ticket's comments, oldest first
func ListCommentsHandler(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		comments, err := s.ListComments(c.Request.Context(), c.Param("ticketId"))
		if err != nil {
			respondStoreError(c, err, "")
			return
		}
		if comments == nil {
			comments = []domain.Comment{} // Always answer with a JSON array
		}
		c.JSON(http.StatusOK, comments)
	}
}

// CreateCommentHandler posts a comment as the authenticated user. Any role
// may comment.
func CreateCommentHandler(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CommentRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
			respondError(c, http.StatusBadRequest, CodeValidation, "Content and ticket_id are required")
			return
		}
		userID, _, _ := middleware.CurrentUser(c) // Author from the token
		comment := domain.Comment{Content: strings.TrimSpace(req.Content), TicketID: req.TicketID, UserID: userID}
		if err := s.CreateComment(c.Request.Context(), &comment); err != nil {
			respondStoreError(c, err, "")
			return
		}
		c.JSON(http.StatusCreated, comment)
	}
}
