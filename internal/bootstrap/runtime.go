// Package bootstrap wires the process-level dependencies shared by the API
// server and the CLI: database, optional read replica, Redis and schema.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"vinoteca/internal/cache"
	"vinoteca/internal/config"
	"vinoteca/internal/database"
	"vinoteca/internal/observability"
	"vinoteca/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// Redis connects to cfg.RedisURL. A failed connection is logged and the
	// runtime continues without Redis.
	Redis bool
	// ApplySchema runs the configured schema policy.
	ApplySchema bool
	// SeedCatalog inserts missing catalog wines after the schema is in place.
	SeedCatalog bool
}

// InitRuntime connects to the database and, per opts, Redis, then prepares
// the schema.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	if _, err := database.ConnectReadReplica(cfg); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "read replica unavailable, using primary", slog.String("error", err.Error()))
	}

	var rdb *redis.Client
	if opts.Redis && cfg.RedisURL != "" {
		rdb, err = cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			observability.GlobalLogger.WarnContext(ctx, "redis unavailable", slog.String("error", err.Error()))
			rdb = nil
		}
	}

	if err := Prepare(ctx, db, cfg, opts); err != nil {
		return nil, nil, err
	}
	return db, rdb, nil
}

// Prepare applies the schema and seeds the catalog as opts ask.
func Prepare(ctx context.Context, db *gorm.DB, cfg *config.Config, opts Options) error {
	if opts.ApplySchema {
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	if opts.SeedCatalog {
		created, err := seed.Wines(ctx, db)
		if err != nil {
			return fmt.Errorf("seed wine catalog: %w", err)
		}
		if created > 0 {
			observability.GlobalLogger.InfoContext(ctx, "wine catalog seeded", slog.Int("wines", created))
		}
	}
	return nil
}
