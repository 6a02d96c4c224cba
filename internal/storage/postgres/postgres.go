// Package postgres stores match history in PostgreSQL/PostGIS through the
// shared GORM backend.
package postgres

import (
	"fmt"
	"log/slog"

	"github.com/OCAP2/royale/internal/config"
	"github.com/OCAP2/royale/internal/database"
	gormstorage "github.com/OCAP2/royale/internal/storage/gorm"
	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the Postgres storage backend.
// DB may be injected, otherwise Init connects using Config.
type Dependencies struct {
	Config  config.DBConfig
	DB      *gorm.DB
	Logger  *slog.Logger
	Session string
	Version string
}

// Backend wraps the GORM backend with connection management.
type Backend struct {
	*gormstorage.Backend
	deps  Dependencies
	owned bool
}

// New creates a new Postgres storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Backend{deps: deps}
}

// Init connects if needed, then migrates and starts the writer.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		db, err := database.GetPostgresDB(b.deps.Config)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to access sql interface: %w", err)
		}
		if err = sqlDB.Ping(); err != nil {
			return fmt.Errorf("failed to validate connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(10)
		b.deps.DB = db
		b.owned = true
		b.deps.Logger.Info("Connected to database", "host", b.deps.Config.Host, "database", b.deps.Config.Database)
	}

	b.Backend = gormstorage.New(gormstorage.Dependencies{
		DB:      b.deps.DB,
		Logger:  b.deps.Logger,
		Session: b.deps.Session,
		Version: b.deps.Version,
	})
	return b.Backend.Init()
}

// Close flushes pending rows and closes a connection opened by Init.
func (b *Backend) Close() error {
	if b.Backend != nil {
		if err := b.Backend.Close(); err != nil {
			return err
		}
	}
	if !b.owned {
		return nil
	}
	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
