package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"maintenance-service/internal/config"
	"maintenance-service/internal/model"
)

// Models lists every table owned by the service, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Vehicle{},
		&model.PreventivePlan{},
		&model.Part{},
		&model.PartMovement{},
		&model.WorkOrder{},
		&model.Task{},
		&model.PartUsage{},
		&model.WorkOrderStatusLog{},
		&model.Alert{},
	}
}

// New connects to postgres, applies the pool settings and runs the schema migrations.
func New(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	database, err := Open(postgres.Open(cfg.DB.DSN), NewLogger(log, cfg.Environment))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	if cfg.DB.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	}
	if cfg.DB.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	}
	if cfg.DB.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)
	}

	if err := runMigrations(database); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return database, nil
}

// Open opens a gorm handle over any dialector with driver errors translated,
// so unique violations surface as gorm.ErrDuplicatedKey.
func Open(dialector gorm.Dialector, log gormlogger.Interface) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger:         log,
		TranslateError: true,
	})
}

// NewLogger bridges gorm's logger onto zerolog.
func NewLogger(log zerolog.Logger, env string) gormlogger.Interface {
	level := gormlogger.Warn
	if env == "development" {
		level = gormlogger.Info
	}
	return gormlogger.New(
		zerologWriter{logger: log.With().Str("component", "gorm").Logger()},
		gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			IgnoreRecordNotFoundError: true,
			LogLevel:                  level,
		},
	)
}

func HealthCheck(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

type zerologWriter struct {
	logger zerolog.Logger
}

func (w zerologWriter) Printf(msg string, args ...interface{}) {
	w.logger.Info().Msgf(msg, args...)
}
