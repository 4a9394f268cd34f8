package database

import (
	"membership-app/internal/domain/affiliate"
	"membership-app/internal/domain/billing"
	"membership-app/internal/domain/booking"
	"membership-app/internal/domain/courses"
	"membership-app/internal/domain/notifications"
	"membership-app/internal/domain/plans"
	"membership-app/internal/domain/users"
	"membership-app/internal/infra/logging"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(dsn string) {
	if dsn == "" {
		logging.Log.Fatal().Msg("DB_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		logging.Log.Fatal().Err(err).Msg("failed to connect to database")
	}

	DB = db

	if err := DB.AutoMigrate(
		// core
		&users.User{},
		&plans.Plan{},
		&billing.Payment{},

		// catalog
		&courses.CourseAccessConfig{},

		// affiliate
		&affiliate.Sale{},
		&affiliate.Commission{},

		// expert sessions
		&booking.ExpertSlot{},

		&notifications.Notification{},
	); err != nil {
		logging.Log.Fatal().Err(err).Msg("auto-migrate failed")
	}

	logging.Log.Info().Msg("database connected and migrated")
}
