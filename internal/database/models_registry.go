package database

import "vinoteca/internal/models"

// PersistentModels lists every GORM model whose table is schema-managed.
// Order matters for AutoMigrate: referenced tables come first.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Wine{},
		&models.Review{},
		&models.Comment{},
	}
}
