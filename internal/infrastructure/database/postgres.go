package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open creates a database handle without failing the process when the
// database is unreachable: the credential store re-probes connectivity on
// every operation and falls back to the in-memory store, so a dead database
// at startup is not fatal.
func Open(dsn string) (*gorm.DB, error) {
	config := &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Warn),
		DisableAutomaticPing: true,
	}

	return gorm.Open(postgres.Open(dsn), config)
}

// AutoMigrate creates or updates the users table. An error here is reported
// but non-fatal for the same fallback reason as Open.
func AutoMigrate(db *gorm.DB, models ...interface{}) error {
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}
	return nil
}
