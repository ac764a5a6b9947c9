package postgres

import (
	"fmt"

	"github.com/SAP-F-2025/lesson-progress-service/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the tables owned by the service
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Lesson{}, &models.Exercise{}, &models.Progress{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
