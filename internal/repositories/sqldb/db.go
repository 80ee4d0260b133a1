package sqldb

import (
	"github.com/yoockh/convolens/internal/models"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates every table the repositories use.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Conversation{},
		&models.Analysis{},
		&models.DailyTrend{},
	)
}
