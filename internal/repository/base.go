package repository

import (
	"stories/internal/database"

	"gorm.io/gorm"
)

// readDB returns the replica when one is configured. Only the feed reads
// from it; anything a user just wrote goes through the primary.
func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

func dialect(db *gorm.DB) string {
	return db.Dialector.Name()
}
