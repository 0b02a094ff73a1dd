package database

import (
	"gorm.io/gorm"

	"github.com/noah-isme/academia-api/internal/models"
)

// Migrate creates or updates the schema for every persisted model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Faculty{},
		&models.Course{},
		&models.Student{},
		&models.Grade{},
		&models.Enrollment{},
		&models.EnrollmentSnapshot{},
		&models.ActivityLog{},
	)
}
