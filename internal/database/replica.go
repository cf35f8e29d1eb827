package database

import (
	"fmt"
	"log/slog"
	"sync"

	"vinoteca/internal/config"
	"vinoteca/internal/observability"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	readDB   *gorm.DB
	readDBMu sync.RWMutex
)

// ConnectReadReplica opens the optional read replica. With DB_READ_HOST
// unset it is a no-op and reads stay on the primary.
func ConnectReadReplica(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DBReadHost == "" {
		return nil, nil
	}

	dsn := buildDSN(cfg.DBReadHost, cfg.DBReadPort, cfg.DBReadUser, cfg.DBReadPassword, cfg.DBName, cfg.DBSSLMode)
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to read replica: %w", err)
	}
	if err := configurePool(db, cfg); err != nil {
		return nil, err
	}
	if err := observability.InstrumentGorm(db); err != nil {
		return nil, fmt.Errorf("failed to register replica query metrics: %w", err)
	}

	observability.GlobalLogger.Info("Read replica connected", slog.String("host", cfg.DBReadHost))
	SetReadDB(db)
	return db, nil
}

// GetReadDB returns the replica connection, or nil when none is configured.
func GetReadDB() *gorm.DB {
	readDBMu.RLock()
	defer readDBMu.RUnlock()
	return readDB
}

// SetReadDB overrides the replica connection. Passing nil routes reads back
// to the primary.
func SetReadDB(db *gorm.DB) {
	readDBMu.Lock()
	readDB = db
	readDBMu.Unlock()
}
