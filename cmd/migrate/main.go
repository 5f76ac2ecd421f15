package main

import (
	"fmt"
	"log"

	"github.com/you/cookbookauth/internal/config"
	"github.com/you/cookbookauth/internal/infrastructure/database"
)

// Creates or updates the credential store tables and reports row counts
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	fmt.Printf("Connecting to %s database\n", cfg.DBDriver)

	db, err := database.Open(cfg.DBDriver, cfg.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying sql.DB: %v", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	fmt.Println("Database connection successful")

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run auto-migration: %v", err)
	}
	fmt.Println("AutoMigrate completed successfully")

	for _, table := range []string{"users", "login_attempts", "session_tokens"} {
		var count int64
		if err := db.Table(table).Count(&count).Error; err != nil {
			log.Fatalf("Failed to query %s table: %v", table, err)
		}
		fmt.Printf("  %s: %d row(s)\n", table, count)
	}
}
