// Package database owns the GORM connection lifecycle, schema migration
// and first-run seeding.
package database

import (
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" // PostgreSQL dialect
	_ "github.com/jinzhu/gorm/dialects/sqlite"   // SQLite dialect
	"golang.org/x/crypto/bcrypt"

	"storekeep/internal/models"
)

// Open initializes the database connection for the configured dialect.
func Open(driver, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates and updates all required tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Item{},
		&models.HistoryEntry{},
		&models.Task{},
		&models.TaskItem{},
		&models.Employee{},
	).Error
}

// Seed ensures a default admin account exists so a fresh install is
// reachable. The password must be rotated after first login.
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Employee{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.Employee{
		ID:           uuid.New().String(),
		Name:         "Administrator",
		Email:        "admin@storekeep.local",
		Role:         models.RoleAdmin,
		PasswordHash: string(hash),
	}
	return db.Create(&admin).Error
}

// Close closes the database connection.
func Close(db *gorm.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
