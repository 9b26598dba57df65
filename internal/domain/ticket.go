package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status is the board column a ticket sits in
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "inprogress"
	StatusDone       Status = "done"
)

// Statuses lists the board columns in display order
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// Valid reports whether s names one of the board columns
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Title returns the column heading for s
func (s Status) Title() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	}
	return string(s)
}

// Priority ranks a ticket
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Ticket Model
type Ticket struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`                        // Primary key (UUID)
	Title         string    `gorm:"type:varchar(255);not null" json:"title"`                      // Ticket title
	Description   string    `gorm:"type:text" json:"description"`                                 // Ticket body
	Status        Status    `gorm:"type:varchar(16);not null;default:todo" json:"status"`         // Board column
	Priority      Priority  `gorm:"type:varchar(16);not null;default:low" json:"priority"`        // Priority
	AttachmentURL string    `gorm:"type:varchar(1024)" json:"attachment_url"`                     // Public URL of the attachment, if any
	CreatedBy     string    `gorm:"type:varchar(36);index;not null" json:"created_by"`            // Foreign key to the creating User
	AssigneeID    *string   `gorm:"type:varchar(36);index" json:"assignee_id"`                    // Foreign key to the assigned User, nullable
	ProjectID     string    `gorm:"type:varchar(36);index;not null" json:"project_id"`            // Foreign key to Project
	CreatedAt     time.Time `json:"created_at"`                                                   // Creation time
	Project       *Project  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`       // Owning project, tickets die with it
	Creator       *UserRef  `gorm:"-" json:"creator,omitempty"`                                   // Joined creator display data
	Assignee      *UserRef  `gorm:"-" json:"assignee,omitempty"`                                  // Joined assignee display data
}

// BeforeCreate assigns a UUID and the column/priority defaults
func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if t.Priority == "" {
		t.Priority = PriorityLow
	}
	return nil
}

// Row returns a copy of t without joined display data, as the store holds it
func (t Ticket) Row() Ticket {
	t.Project = nil
	t.Creator = nil
	t.Assignee = nil
	return t
}
