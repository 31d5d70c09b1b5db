package database

import (
	"context"
	"fmt"
	"time"

	"estatehub/internal/config"
	"estatehub/internal/logger"
	"estatehub/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var log = logger.New("DATABASE")

const connectAttempts = 5

// NewConnection opens the connection pool, retrying while the database
// comes up, and migrates the schema.
func NewConnection(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	backoff := time.Second
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err = open(ctx, cfg)
		if err == nil {
			break
		}
		log.Warn("connect attempt %d/%d failed: %v", attempt, connectAttempts, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if err != nil {
		return nil, log.Error("database unreachable", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func open(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the uuid extension and brings every table up to date.
func Migrate(db *gorm.DB) error {
	// gen_random_uuid() is built in from Postgres 13; older servers need pgcrypto
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS pgcrypto").Error; err != nil {
		log.Warn("pgcrypto extension not created: %v", err)
	}

	err := db.AutoMigrate(
		&model.User{},
		&model.Admin{},
		&model.AdminSession{},
		&model.AdminActivity{},
		&model.PropertyListing{},
		&model.Appointment{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	log.Success("schema migrated")
	return nil
}
