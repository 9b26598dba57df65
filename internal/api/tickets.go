package api

import (
	"bug_tracker/internal/domain"     // Importing domain models
	"bug_tracker/internal/middleware" // Identity helpers
	"bug_tracker/internal/store"      // Store adapter
	"encoding/json"                   // Nullable field decoding
	"net/http"                        // HTTP status codes
	"strings"                         // String manipulation

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// NullableString records whether a JSON field was present at all, so an
// explicit null can be told apart from an omitted field
type NullableString struct {
	Set   bool    // Field appeared in the body
	Value *string // nil for null or ""
}

// UnmarshalJSON implements json.Unmarshaler
func (n *NullableString) UnmarshalJSON(b []byte) error {
	n.Set = true
	var v *string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v != nil && *v == "" {
		v = nil // An empty selection means unassigned
	}
	n.Value = v
	return nil
}

// CreateTicketRequest represents a ticket creation request
type CreateTicketRequest struct {
	Title       string          `json:"title" binding:"required"`                              // Ticket title
	Status      domain.Status   `json:"status" binding:"omitempty,oneof=todo inprogress done"` // Defaults to todo
	Priority    domain.Priority `json:"priority" binding:"omitempty,oneof=low medium high"`    // Defaults to low
	Description string          `json:"description"`                                           // Optional body
	ProjectID   string          `json:"project_id" binding:"required"`                         // Owning project
}

// UpdateTicketRequest represents a partial ticket update
type UpdateTicketRequest struct {
	Title         *string          `json:"title"`                                                 // New title
	Description   *string          `json:"description"`                                           // New body
	Status        *domain.Status   `json:"status" binding:"omitempty,oneof=todo inprogress done"` // New column
	Priority      *domain.Priority `json:"priority" binding:"omitempty,oneof=low medium high"`    // New priority
	AttachmentURL *string          `json:"attachment_url"`                                        // Uploaded attachment link
	AssigneeID    NullableString   `json:"assignee_id"`                                           // New assignee, null to unassign
}

// ListTicketsHandler returns the tickets of a project
func ListTicketsHandler(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		tickets, err := s.ListTickets(c.Request.Context(), c.Param("projectId"))
		if err != nil {
			respondStoreError(c, err, "")
			return
		}
		if tickets == nil {
			tickets = []domain.Ticket{} // Always answer with a JSON array
		}
		c.JSON(http.StatusOK, tickets)
	}
}

// CreateTicketHandler creates a ticket. The creator is always assigned to
// the new ticket; reassignment goes through UpdateTicketHandler.
func CreateTicketHandler(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, _ := middleware.CurrentUser(c) // Authenticated creator
		var req CreateTicketRequest               // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
			respondError(c, http.StatusBadRequest, CodeValidation, "Title and project_id are required")
			return
		}
		ticket := domain.Ticket{
			Title:       strings.TrimSpace(req.Title), // Ticket title
			Status:      req.Status,                   // Defaulted by the model hook
			Priority:    req.Priority,                 // Defaulted by the model hook
			Description: req.Description,              // Optional body
			ProjectID:   req.ProjectID,                // Owning project
			CreatedBy:   userID,                       // Creator
			AssigneeID:  &userID,                      // Auto-assign to the creator
		}
		if err := s.CreateTicket(c.Request.Context(), &ticket); err != nil {
			respondStoreError(c, err, "")
			return
		}
		// Log ticket creation
		logrus.WithFields(logrus.Fields{
			"user_id":    userID,           // Creator
			"ticket_id":  ticket.ID,        // Ticket ID
			"project_id": ticket.ProjectID, // Project ID
		}).Info("Ticket created")
		c.JSON(http.StatusOK, ticket)
	}
}

// UpdateTicketHandler applies a partial update to a ticket
func UpdateTicketHandler(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateTicketRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, CodeValidation, "Invalid request")
			return
		}
		// A title may change but never become blank
		if req.Title != nil {
			trimmed := strings.TrimSpace(*req.Title)
			if trimmed == "" {
				respondError(c, http.StatusBadRequest, CodeValidation, "Title cannot be empty")
				return
			}
			req.Title = &trimmed
		}
		patch := store.TicketPatch{
			Title:         req.Title,
			Description:   req.Description,
			Status:        req.Status,
			Priority:      req.Priority,
			AttachmentURL: req.AttachmentURL,
			AssigneeSet:   req.AssigneeID.Set,
			AssigneeID:    req.AssigneeID.Value,
		}
		id := c.Param("id") // Ticket ID from the path
		ticket, err := s.UpdateTicket(c.Request.Context(), id, patch)
		if err != nil {
			respondStoreError(c, err, "Ticket not found")
			return
		}
		userID, _, _ := middleware.CurrentUser(c)
		// Log ticket update
		logrus.WithFields(logrus.Fields{
			"user_id":   userID,        // Editor
			"ticket_id": id,            // Ticket ID
			"status":    ticket.Status, // Resulting column
		}).Info("Ticket updated")
		c.JSON(http.StatusOK, ticket)
	}
}

// DeleteTicketHandler deletes a ticket
func DeleteTicketHandler(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id") // Ticket ID from the path
		if err := s.DeleteTicket(c.Request.Context(), id); err != nil {
			respondStoreError(c, err, "Ticket not found")
			return
		}
		userID, _, _ := middleware.CurrentUser(c)
		// Log ticket deletion
		logrus.WithFields(logrus.Fields{
			"user_id":   userID, // Who deleted it
			"ticket_id": id,     // Ticket ID
		}).Info("Ticket deleted")
		c.JSON(http.StatusOK, gin.H{"message": "Ticket deleted"})
	}
}
