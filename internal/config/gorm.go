package config

import (
	"log/slog"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"NovaTalkAPI/internal/entity"
)

// InitGorm opens the database and optionally runs schema migration.
// TranslateError is on so duplicate-key violations surface as
// gorm.ErrDuplicatedKey, which the services map to conflicts.
func InitGorm(cfg *AppConfig) *gorm.DB {
	logLevel := logger.Warn
	if cfg.AppEnv == "development" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DBConnectionString()), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logLevel),
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Failed to access database pool", "error", err)
		os.Exit(1)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if cfg.DBMigrate {
		if err := entity.Migrate(db); err != nil {
			slog.Error("Failed to migrate database schema", "error", err)
			os.Exit(1)
		}
		slog.Info("Database schema migrated")
	}

	return db
}
