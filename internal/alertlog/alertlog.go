// Package alertlog persists raised alerts and the decisions that followed
// them, and stores push subscriptions. It is a side channel: failures here
// never interrupt monitoring.
package alertlog

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"growthai-backend/internal/model"
)

// DatabaseConfig selects and tunes the backing database.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // "sqlite" or "postgres"
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Open connects to the configured database and runs migrations.
func Open(cfg DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "alerts.db"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	log.Println("Running database migrations...")
	if err := db.AutoMigrate(&model.AlertEntry{}, &model.PushSubscription{}); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}
	return db, nil
}

// Log records alerts and decisions.
type Log struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Log {
	return &Log{db: db}
}

// Record stores one alert and, when present, its decision. Errors are logged
// and swallowed.
func (l *Log) Record(alert model.AlertRecord, decision *model.Decision) {
	if l == nil || l.db == nil {
		return
	}
	entry := model.AlertEntry{
		Type:       alert.Type,
		Severity:   alert.Severity,
		GardenID:   alert.GardenID,
		GardenName: alert.GardenName,
		PlantID:    alert.PlantID,
		PlantName:  alert.PlantName,
		Moisture:   alert.Moisture,
		Message:    alert.Message,
	}
	if decision != nil {
		raw, err := json.Marshal(decision)
		if err != nil {
			log.Printf("alertlog: marshal decision: %v", err)
		} else {
			entry.Decision = string(raw)
		}
	}
	if err := l.db.Create(&entry).Error; err != nil {
		log.Printf("alertlog: record alert for %s/%s: %v", alert.GardenID, alert.PlantID, err)
	}
}

// Recent returns the newest entries, capped at limit.
func (l *Log) Recent(limit int) ([]model.AlertEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var entries []model.AlertEntry
	err := l.db.Order("created_at DESC, id DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
