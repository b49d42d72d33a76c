package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pageza/chef-next-door/backend/config"
)

// Open connects to the relational database selected by cfg.Backend.
func Open(cfg *config.Config, log logrus.FieldLogger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// Profiles may be owned by the hosted auth schema, so recipes do not
		// carry a hard foreign key to them.
		DisableForeignKeyConstraintWhenMigrating: true,
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Backend {
	case config.BackendPostgres:
		log.WithFields(logrus.Fields{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"user": cfg.Database.User,
		}).Info("connecting to postgres")
		db, err = gorm.Open(postgres.Open(cfg.Database.DSN()), gormCfg)
	case config.BackendSQLite:
		log.WithField("path", cfg.Database.SQLitePath).Info("opening sqlite database")
		db, err = gorm.Open(sqlite.Open(cfg.Database.SQLitePath+"?_foreign_keys=on&_busy_timeout=5000"), gormCfg)
	default:
		return nil, fmt.Errorf("backend %q has no direct database connection", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("error getting database handle: %w", err)
	}

	// Set connection pool settings
	if cfg.Backend == config.BackendSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(25)
	}
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	log.Info("successfully connected to database")
	return db, nil
}

// HealthCheck checks if the database is accessible
func HealthCheck(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
