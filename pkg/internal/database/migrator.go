package database

import (
	"git.solsynth.dev/hypernet/ponder/pkg/internal/models"
	"gorm.io/gorm"
)

var AutoMaintainRange = []any{
	&models.Poll{},
	&models.Prediction{},
	&models.UserStats{},
	&models.Payout{},
}

func RunMigration(source *gorm.DB) error {
	if err := source.AutoMigrate(AutoMaintainRange...); err != nil {
		return err
	}

	return nil
}
