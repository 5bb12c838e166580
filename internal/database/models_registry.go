package database

import "stories/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Order matters for AutoMigrate: parents before the rows that reference them.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Story{},
		&models.StoryLike{},
	}
}
