package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment Model, immutable once created
type Comment struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`                  // Primary key (UUID)
	Content   string    `gorm:"type:text;not null" json:"content"`                      // Comment body
	UserID    string    `gorm:"type:varchar(36);index;not null" json:"user_id"`         // Foreign key to the author
	TicketID  string    `gorm:"type:varchar(36);index;not null" json:"ticket_id"`       // Foreign key to Ticket
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                // Creation time, listing order
	Ticket    *Ticket   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // Parent ticket, comments die with it
	Author    *UserRef  `gorm:"-" json:"author,omitempty"`                              // Joined author display data
}

// BeforeCreate assigns a UUID when the caller did not provide one
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
