package database

import (
	"context"
	"fmt"

	"github.com/AhmedHarera/HeartFailure/internal/config"
	logging "github.com/AhmedHarera/HeartFailure/internal/logging"
	"github.com/AhmedHarera/HeartFailure/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to Postgres and brings the schema up to date.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logging.NewGormZapLogger(log, cfg.SlowThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully.")

	if err := Migrate(db, log); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the tables this service reads and writes.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	// AutoMigrate creates tables, columns and the indexes declared in struct tags.
	if err := db.AutoMigrate(&models.User{}, &models.Prediction{}); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	log.Info("Database migrations completed successfully.")

	recentIndex := `CREATE INDEX IF NOT EXISTS idx_predictions_user_recent ON predictions (user_id, created_at DESC);`
	if err := db.Exec(recentIndex).Error; err != nil {
		return fmt.Errorf("failed to create custom index on predictions table: %w", err)
	}
	log.Info("Custom indexes ensured successfully.")
	return nil
}

// Ping checks that the connection pool can reach the server.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
