package database

import (
	"errors"
	"fmt"

	"github.com/sangkips/atelier-api/internal/config"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/pkg/logger"
	"github.com/sangkips/atelier-api/pkg/payroll"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig, debug bool, log *logger.Logger) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if debug {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB to set connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)

	log.Info("connected to PostgreSQL", "host", cfg.Host, "database", cfg.Name)
	return db, nil
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		// Stock
		&entity.Unit{},
		&entity.Material{},
		&entity.StockTransaction{},

		// Production
		&entity.Product{},
		&entity.BOMEntry{},
		&entity.ProductionBatch{},
		&entity.CustomOrder{},

		// Payroll
		&entity.PayrollConfig{},
		&entity.SalaryDefinition{},

		// System
		&entity.IdempotencyKey{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// DefaultUnits are the units of measure every workshop starts with
var DefaultUnits = []entity.Unit{
	{Name: "Piece", ShortCode: "pc"},
	{Name: "Metre", ShortCode: "m"},
	{Name: "Square metre", ShortCode: "m2"},
	{Name: "Kilogram", ShortCode: "kg"},
	{Name: "Litre", ShortCode: "l"},
}

// SeedDefaultData inserts the default units and the first payroll configuration when absent.
// It is safe to run on every start.
func SeedDefaultData(db *gorm.DB, log *logger.Logger) error {
	for i := range DefaultUnits {
		unit := DefaultUnits[i]
		var existing entity.Unit
		err := db.Where("short_code = ?", unit.ShortCode).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up unit %s: %w", unit.ShortCode, err)
		}
		if err := db.Create(&unit).Error; err != nil {
			return fmt.Errorf("failed to create unit %s: %w", unit.ShortCode, err)
		}
		log.Info("seeded unit", "short_code", unit.ShortCode)
	}

	var count int64
	if err := db.Model(&entity.PayrollConfig{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count payroll configs: %w", err)
	}
	if count == 0 {
		cfg := payroll.DefaultConfig()
		if err := db.Create(entity.NewPayrollConfig(cfg)).Error; err != nil {
			return fmt.Errorf("failed to create default payroll config: %w", err)
		}
		log.Info("seeded payroll config", "version", cfg.Version, "effective_from", cfg.EffectiveFrom)
	}

	return nil
}
