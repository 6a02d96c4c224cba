package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/OCAP2/royale/internal/config"
	"github.com/OCAP2/royale/internal/database"
	"github.com/OCAP2/royale/internal/logging"
	"github.com/OCAP2/royale/internal/monitor"
	"github.com/OCAP2/royale/internal/storage"
	"github.com/OCAP2/royale/internal/storage/memory"
	pgstorage "github.com/OCAP2/royale/internal/storage/postgres"
	sqlitestorage "github.com/OCAP2/royale/internal/storage/sqlite"
	"github.com/spf13/viper"
)

// historyStore is an initialised storage backend plus what the monitor can
// read from it.
type historyStore struct {
	backend storage.Backend
	queues  interface {
		monitor.QueueReporter
		monitor.PerformanceWriter
	}
	db *database.Manager
}

func (s *historyStore) close() {
	if err := s.backend.Close(); err != nil {
		Logger.Error("Failed to close storage backend", "error", err)
	}
	if s.db == nil {
		return
	}
	if s.db.IsLocal {
		if err := s.db.Dump(); err != nil {
			Logger.Error("Failed to dump local database", "error", err)
		}
	}
	if err := s.db.Close(); err != nil {
		Logger.Error("Failed to close database", "error", err)
	}
}

func createStorageBackend(storageCfg config.StorageConfig) (*historyStore, error) {
	store := &historyStore{}
	if storageCfg.Type != "memory" {
		if err := os.MkdirAll(storageCfg.SQLite.DumpDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create dump dir: %w", err)
		}
	}

	switch storageCfg.Type {
	case "postgres":
		// Postgres falls back to an in-memory sqlite database that is dumped
		// next to the sqlite backend's files on shutdown.
		dbm := database.NewManager(logging.NewZerolog(componentLog(), viper.GetString("logLevel"), "database"))
		if err := dbm.Connect(config.GetDBConfig()); err != nil {
			return nil, err
		}
		if dbm.IsLocal {
			dbm.DumpPath = filepath.Join(storageCfg.SQLite.DumpDir, fmt.Sprintf("%s_%s.db", ServerName, sessionID()))
		}
		backend := pgstorage.New(pgstorage.Dependencies{
			DB:      dbm.DB,
			Logger:  Logger,
			Session: sessionID(),
			Version: CurrentServerVersion,
		})
		store.backend = backend
		store.db = dbm
		if err := backend.Init(); err != nil {
			_ = dbm.Close()
			return nil, fmt.Errorf("failed to initialize postgres storage: %w", err)
		}
		store.queues = backend
		Logger.Info("Postgres storage backend initialized", "local", dbm.IsLocal)

	case "sqlite":
		backend, err := sqlitestorage.New(
			sqlitestorage.ConfigFrom(storageCfg.SQLite, sessionID()),
			Logger, sessionID(), CurrentServerVersion,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		if err := backend.Init(); err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
		}
		store.backend = backend
		store.queues = backend
		Logger.Info("SQLite storage backend initialized")

	default:
		backend := memory.New(storageCfg.Memory, CurrentServerVersion)
		if err := backend.Init(); err != nil {
			return nil, fmt.Errorf("failed to initialize memory storage: %w", err)
		}
		store.backend = backend
		Logger.Info("Memory storage backend initialized", "outputDir", storageCfg.Memory.OutputDir)
	}
	return store, nil
}
