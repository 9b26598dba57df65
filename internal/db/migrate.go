package db

import (
	"bug_tracker/internal/domain" // Importing domain models
	"fmt"                         // Error wrapping
	"strings"                     // Email normalisation

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	err := db.AutoMigrate(&domain.User{}, &domain.Project{}, &domain.Ticket{}, &domain.Comment{})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logrus.Info("Migration completed.") // Log successful migration
	return nil
}

// PromoteUser sets the role of the user registered under email.
// This is the only path that changes a role after registration.
func PromoteUser(db *gorm.DB, email string, role domain.Role) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	res := db.Model(&domain.User{}).Where("email = ?", strings.ToLower(email)).Update("role", role)
	if res.Error != nil {
		return fmt.Errorf("failed to update role: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("no user registered as %s", email)
	}
	logrus.WithFields(logrus.Fields{
		"email": email, // Promoted user
		"role":  role,  // New role
	}).Info("User role updated")
	return nil
}
