package store

import (
	"database/sql"
	"fmt"
	"time"

	driver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"hr_notify/internal/config"
	"hr_notify/internal/db"
	"hr_notify/internal/repository"
	"hr_notify/internal/store/memory"
	"hr_notify/internal/store/mysql"
)

func NewStore(cfg *config.Config, logger *zap.Logger) (repository.Store, error) {
	if cfg.MySQLDSN == "" {
		logger.Warn("MYSQL_DSN not set, notifications are kept in memory")
		return memory.New(logger), nil
	}
	dsn, err := normalizeDSN(cfg.MySQLDSN)
	if err != nil {
		logger.Error("mysql dsn invalid", zap.Error(err))
		return nil, err
	}
	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		logger.Error("mysql open failed", zap.Error(err))
		return nil, err
	}
	sqlDB.SetConnMaxLifetime(3 * time.Minute)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	if err := sqlDB.Ping(); err != nil {
		logger.Error("mysql ping failed", zap.Error(err))
		return nil, err
	}
	return mysql.New(db.New(sqlDB), logger), nil
}

// normalizeDSN forces the settings the store depends on: DATETIME columns
// scan into time.Time and are read as UTC.
func normalizeDSN(dsn string) (string, error) {
	parsed, err := driver.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse MYSQL_DSN: %w", err)
	}
	parsed.ParseTime = true
	parsed.Loc = time.UTC
	return parsed.FormatDSN(), nil
}

func NotificationRepository(s repository.Store) repository.NotificationRepository {
	return s
}

func PushSubscriptionRepository(s repository.Store) repository.PushSubscriptionRepository {
	return s
}
