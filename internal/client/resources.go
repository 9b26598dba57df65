package client

import (
	"bug_tracker/internal/domain"
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// User is the public identity the API hands out
type User struct {
	ID       string      `json:"id" yaml:"id"`
	FullName string      `json:"full_name" yaml:"full_name"`
	Email    string      `json:"email" yaml:"email"`
	Role     domain.Role `json:"role,omitempty" yaml:"role"`
}

// AuthResult is a successful login
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// NewTicket is the body of a ticket creation. Status and Priority may be
// left empty for the server defaults.
type NewTicket struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Status      domain.Status   `json:"status,omitempty"`
	Priority    domain.Priority `json:"priority,omitempty"`
	ProjectID   string          `json:"project_id"`
}

// TicketUpdate is a partial ticket edit; nil fields are left alone
type TicketUpdate struct {
	Title         *string
	Description   *string
	Status        *domain.Status
	Priority      *domain.Priority
	AttachmentURL *string
	AssigneeID    *string
	Unassign      bool // Clear the assignee; wins over AssigneeID
}

// body renders only the fields being changed
func (u TicketUpdate) body() map[string]any {
	b := map[string]any{}
	if u.Title != nil {
		b["title"] = *u.Title
	}
	if u.Description != nil {
		b["description"] = *u.Description
	}
	if u.Status != nil {
		b["status"] = *u.Status
	}
	if u.Priority != nil {
		b["priority"] = *u.Priority
	}
	if u.AttachmentURL != nil {
		b["attachment_url"] = *u.AttachmentURL
	}
	switch {
	case u.Unassign:
		b["assignee_id"] = nil
	case u.AssigneeID != nil:
		b["assignee_id"] = *u.AssigneeID
	}
	return b
}

// Attachment is an uploaded object
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// required checks name/value pairs and reports the first blank one
func required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return fmt.Errorf("%w: %s is required", ErrValidation, pairs[i])
		}
	}
	return nil
}

// Register creates a developer account
func (c *Client) Register(ctx context.Context, email, password, fullName string) error {
	if err := required("email", email, "password", password, "full name", fullName); err != nil {
		return err
	}
	body := map[string]string{"email": email, "password": password, "full_name": fullName}
	return c.post(ctx, "/api/auth/register", body, nil)
}

// Login exchanges credentials for a token and identity
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if err := required("email", email, "password", password); err != nil {
		return nil, err
	}
	var res AuthResult
	if err := c.post(ctx, "/api/auth/login", map[string]string{"email": email, "password": password}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Projects lists every project, newest first
func (c *Client) Projects(ctx context.Context) ([]domain.Project, error) {
	var out []domain.Project
	return out, c.get(ctx, "/api/projects", &out)
}

// CreateProject adds a project
func (c *Client) CreateProject(ctx context.Context, name, description string) (*domain.Project, error) {
	if err := required("name", name); err != nil {
		return nil, err
	}
	var out domain.Project
	body := map[string]string{"name": name, "description": description}
	if err := c.post(ctx, "/api/projects", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProject removes a project and, through the store, its tickets
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.delete(ctx, "/api/projects/"+url.PathEscape(id))
}

// Tickets lists a project's tickets with creator and assignee names
func (c *Client) Tickets(ctx context.Context, projectID string) ([]domain.Ticket, error) {
	var out []domain.Ticket
	return out, c.get(ctx, "/api/tickets/"+url.PathEscape(projectID), &out)
}

// CreateTicket adds a ticket assigned to the caller
func (c *Client) CreateTicket(ctx context.Context, t NewTicket) (*domain.Ticket, error) {
	if err := required("title", t.Title, "project", t.ProjectID); err != nil {
		return nil, err
	}
	var out domain.Ticket
	if err := c.post(ctx, "/api/tickets", t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTicket applies a partial edit and returns the stored ticket
func (c *Client) UpdateTicket(ctx context.Context, id string, u TicketUpdate) (*domain.Ticket, error) {
	var out domain.Ticket
	if err := c.put(ctx, "/api/tickets/"+url.PathEscape(id), u.body(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTicket removes a ticket
func (c *Client) DeleteTicket(ctx context.Context, id string) error {
	return c.delete(ctx, "/api/tickets/"+url.PathEscape(id))
}

// Users lists the people a ticket can be assigned to
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var out []User
	return out, c.get(ctx, "/api/users", &out)
}

// Comments lists a ticket's comments, oldest first
func (c *Client) Comments(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	var out []domain.Comment
	return out, c.get(ctx, "/api/comments/"+url.PathEscape(ticketID), &out)
}

// CreateComment posts a comment as the logged in user
func (c *Client) CreateComment(ctx context.Context, ticketID, content string) (*domain.Comment, error) {
	if err := required("content", content, "ticket", ticketID); err != nil {
		return nil, err
	}
	var out domain.Comment
	body := map[string]string{"ticket_id": ticketID, "content": content}
	if err := c.post(ctx, "/api/comments", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadAttachment stores r under the server's naming scheme and returns
// its public link
func (c *Client) UploadAttachment(ctx context.Context, filename string, r io.Reader) (*Attachment, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/attachments", &buf)
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var out Attachment
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
