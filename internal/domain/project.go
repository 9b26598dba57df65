package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project Model
type Project struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`  // Primary key (UUID)
	Name        string    `gorm:"type:varchar(255);not null" json:"name"` // Project name
	Description string    `gorm:"type:text" json:"description"`           // Free-form description
	CreatedAt   time.Time `json:"created_at"`                             // Creation time
}

// BeforeCreate assigns a UUID when the caller did not provide one
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
