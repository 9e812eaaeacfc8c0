// Package database opens the configured food item store and the Redis
// client.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pageza/homefoods/backend/config"
	"github.com/pageza/homefoods/backend/internal/store"
	"github.com/pageza/homefoods/backend/internal/store/mongostore"
	"github.com/pageza/homefoods/backend/internal/store/sqlstore"
	"gorm.io/gorm/logger"
)

// Open connects to the store named by cfg.StoreDriver and pings it.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.StoreDriver {
	case store.DriverMongo:
		log.Info("connecting to mongodb", "database", cfg.MongoDatabase)
		st, err = mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case store.DriverPostgres:
		// Log connection details without the password
		log.Info("connecting to postgres", "host", cfg.DBHost, "port", cfg.DBPort, "user", cfg.DBUser)
		st, err = sqlstore.OpenPostgres(cfg.PostgresDSN(), sqlstore.Options{LogLevel: GormLogLevel(cfg.LogLevel)})
	case store.DriverSQLite:
		log.Info("opening sqlite", "path", cfg.SQLitePath)
		st, err = sqlstore.OpenSQLite(cfg.SQLitePath, sqlstore.Options{LogLevel: GormLogLevel(cfg.LogLevel)})
	default:
		return nil, fmt.Errorf("%w: %q", store.ErrUnsupportedDriver, cfg.StoreDriver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Ping(ctx); err != nil {
		st.Close(ctx)
		return nil, fmt.Errorf("error connecting to the %s store: %w", cfg.StoreDriver, err)
	}
	log.Info("connected to store", "driver", cfg.StoreDriver)
	return st, nil
}

// GormLogLevel maps the application log level onto gorm's. SQL statements
// are only logged at debug.
func GormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.Info
	case "error":
		return logger.Error
	default:
		return logger.Warn
	}
}
