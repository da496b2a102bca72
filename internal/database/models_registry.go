package database

import "tours/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []any {
	return []any{
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
	}
}
