package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gatehouse-backend/config"
	"gatehouse-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// Migrate runs the schema migrations. Split out of Init so tests can apply
// the same schema to an in-memory database.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Occupant{},
		&model.Vehicle{},
		&model.Checkout{},
		&model.CheckIn{},
		&model.DamageReport{},
		&model.PushSubscription{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}

	// At most one open checkout per vehicle, enforced structurally on top
	// of the row-lock protocol. Partial unique indexes work on both
	// postgres and sqlite.
	if err := db.Exec(`
	  CREATE UNIQUE INDEX IF NOT EXISTS checkouts_one_open_per_vehicle
	  ON checkouts (vehicle_id)
	  WHERE closed_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("open-checkout index failed: %w", err)
	}

	return nil
}
