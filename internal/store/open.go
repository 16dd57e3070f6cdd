package store

import (
	"context"
	"fmt"

	"github.com/titto/titto-backend/internal/config"
	"github.com/titto/titto-backend/internal/database"
	"github.com/titto/titto-backend/internal/qna"
	"github.com/titto/titto-backend/internal/users"
	"github.com/titto/titto-backend/pkg/logger"
)

// Backend is a qna.Store with lifecycle hooks and a non-transactional user
// repository for identity resolution.
type Backend interface {
	qna.Store
	Users() users.Repository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

var (
	_ Backend = (*Memory)(nil)
	_ Backend = (*Mongo)(nil)
	_ Backend = (*Gorm)(nil)
)

const mongoConnectAttempts = 5

// Open builds the backend selected by cfg.Storage.Driver.
func Open(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory, "":
		logger.Warn("using in-memory storage; data is lost on restart")
		return NewMemory(), nil
	case config.DriverMongo:
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, mongoConnectAttempts)
		if err != nil {
			return nil, err
		}
		m := NewMongo(client, cfg.MongoDB.Database)
		if err := m.EnsureIndexes(ctx); err != nil {
			_ = m.Close(ctx)
			return nil, err
		}
		logger.Infof("using MongoDB storage (database=%s)", cfg.MongoDB.Database)
		return m, nil
	case config.DriverPostgres, config.DriverSQLite:
		dsn := cfg.Postgres.DSN
		if cfg.Storage.Driver == config.DriverSQLite {
			dsn = cfg.SQLite.Path
		}
		db, err := database.OpenGorm(cfg.Storage.Driver, dsn)
		if err != nil {
			return nil, err
		}
		g := NewGorm(db)
		if err := g.Migrate(); err != nil {
			_ = g.Close(ctx)
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Infof("using %s storage", cfg.Storage.Driver)
		return g, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
