package domain

import (
	"time" // Timestamps

	"github.com/google/uuid" // UUID primary keys
	"gorm.io/gorm"           // GORM ORM library
)

// User Model
type User struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`                   // Primary key (UUID)
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`      // Unique email, stored lowercase
	FullName     string    `gorm:"type:varchar(255);not null" json:"full_name"`              // Display name
	PasswordHash string    `gorm:"not null" json:"-"`                                        // bcrypt hash, never serialized
	Role         Role      `gorm:"type:varchar(16);not null;default:developer" json:"role"` // Role: admin, developer or viewer
	CreatedAt    time.Time `json:"created_at"`                                               // Registration time
}

// BeforeCreate assigns a UUID when the caller did not provide one
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleDeveloper // Registration never grants more than developer
	}
	return nil
}

// UserRef is the joined display form of a user carried on tickets and comments
type UserRef struct {
	ID       string `json:"id"`        // User ID
	FullName string `json:"full_name"` // Display name
}

// TableName maps UserRef onto the users table for preloads
func (UserRef) TableName() string {
	return "users"
}
