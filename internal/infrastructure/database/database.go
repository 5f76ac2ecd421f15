package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/you/cookbookauth/internal/infrastructure/repositories"
)

// Open creates a database connection for the configured driver
func Open(driver, dsn string) (*gorm.DB, error) {
	config := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}

	switch driver {
	case "postgres":
		return gorm.Open(postgres.Open(dsn), config)
	case "sqlite":
		return gorm.Open(sqlite.Open(dsn), config)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// AutoMigrate creates the credential store and session token tables
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&repositories.DBUser{}); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}
	if err := db.AutoMigrate(&repositories.DBLoginAttempt{}); err != nil {
		return fmt.Errorf("failed to migrate login_attempts table: %w", err)
	}
	if err := db.AutoMigrate(&repositories.DBSessionToken{}); err != nil {
		return fmt.Errorf("failed to migrate session_tokens table: %w", err)
	}
	return nil
}
