package store

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/ifuryst/postpilot/internal/models"
)

// Migrate creates or updates every table the stores and the error log use.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Post{},
		&models.RescheduleEntry{},
		&models.Engager{},
		&models.EngagementProfile{},
		&models.SavedSearchURL{},
		&models.ErrorLog{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
