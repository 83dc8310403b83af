package database

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var C *gorm.DB

func NewGorm() error {
	dialector := postgres.Open(viper.GetString("database.dsn"))

	var err error
	C, err = gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix: viper.GetString("database.prefix"),
		},
		Logger: logger.New(&log.Logger, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			Colorful:                  true,
			IgnoreRecordNotFoundError: true,
			LogLevel:                  logger.Warn,
		}),
	})

	return err
}
