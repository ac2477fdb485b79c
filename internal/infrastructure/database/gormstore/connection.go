package gormstore

import (
	"fmt"
	"log/slog"

	"customer-api/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func NewConnection(cfg config.DatabaseConfig, logger *slog.Logger) (*gorm.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is empty in configuration")
	}

	db, err := gorm.Open(postgres.Open(cfg.URL), &gorm.Config{
		// Needed so unique-constraint violations surface as ErrDuplicatedKey.
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm connection: %w", err)
	}

	logger.Info("Successfully connected to PostgreSQL database via gorm.")
	return db, nil
}
