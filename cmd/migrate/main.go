package main

import (
	"bug_tracker/internal/config" // Custom import path (Config)
	"bug_tracker/internal/db"     // Custom import path (Database)
	"bug_tracker/internal/domain" // Role values

	"github.com/sirupsen/logrus" // Logrus for structured logging
	flag "github.com/spf13/pflag"
)

// Main entry point for migration
func main() {
	admin := flag.String("admin", "", "email of a registered user to promote after migrating")
	role := flag.String("role", string(domain.RoleAdmin), "role given to --admin (admin, developer, viewer)")
	flag.Parse()

	cfg := config.LoadConfig() // Load configuration

	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatal(err)
	}

	if *admin == "" {
		return
	}
	if err := db.PromoteUser(gdb, *admin, domain.Role(*role)); err != nil {
		logrus.Fatal(err)
	}
}
