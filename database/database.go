package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// ConnectDatabase opens the single-file SQLite store and applies pending
// schema migrations. Foreign keys are enforced on every connection.
func ConnectDatabase(path string, debug bool) error {
	logMode := logger.Silent
	if debug {
		logMode = logger.Info
	}

	var err error
	DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})
	if err != nil {
		return fmt.Errorf("unable to open database %s: %w", path, err)
	}

	if err := DB.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return fmt.Errorf("unable to enable foreign keys: %w", err)
	}

	if err := Migrate(DB); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	log.Println("✅ Database successfully initialized:", path)
	return nil
}

// GetDB returns the shared database handle.
func GetDB() *gorm.DB {
	return DB
}
