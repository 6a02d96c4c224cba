// Package sqlitestorage keeps match history in an in-memory SQLite database
// and periodically snapshots it to disk with VACUUM INTO.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/OCAP2/royale/internal/config"
	"github.com/OCAP2/royale/internal/database"
	gormstorage "github.com/OCAP2/royale/internal/storage/gorm"
	"gorm.io/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	DumpInterval time.Duration
	DumpPath     string
	MemoryName   string
}

// ConfigFrom derives the backend config from the storage settings. Each
// session dumps to its own file.
func ConfigFrom(sc config.SQLiteConfig, session string) Config {
	return Config{
		DumpInterval: sc.DumpInterval,
		DumpPath:     filepath.Join(sc.DumpDir, fmt.Sprintf("royale_%s.db", session)),
		MemoryName:   "royale_" + session,
	}
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db       *gorm.DB
	cfg      Config
	log      *slog.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// New creates the in-memory database and the wrapped GORM backend.
func New(cfg Config, logger *slog.Logger, session, version string) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MemoryName == "" {
		cfg.MemoryName = database.MemoryName
	}
	db, err := database.GetSqliteDB(database.MemoryDSN(cfg.MemoryName))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:      db,
			Logger:  logger,
			Session: session,
			Version: version,
		}),
		db:       db,
		cfg:      cfg,
		log:      logger,
		stopChan: make(chan struct{}),
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		b.wg.Add(1)
		go b.dumpLoop()
	}
	return nil
}

// Close stops the dump loop, flushes the writer and takes a last snapshot.
func (b *Backend) Close() error {
	var err error
	b.once.Do(func() {
		close(b.stopChan)
		b.wg.Wait()
		if err = b.Backend.Close(); err != nil {
			return
		}
		if b.cfg.DumpPath != "" {
			err = b.dump()
		}
		if sqlDB, dbErr := b.db.DB(); dbErr == nil {
			sqlDB.Close()
		}
	})
	return err
}

func (b *Backend) dump() error {
	start := time.Now()
	if err := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); err != nil {
		return err
	}
	b.log.Debug("Dumped to disk", "path", b.cfg.DumpPath, "duration", time.Since(start))
	return nil
}

// dumpLoop periodically dumps the in-memory database. VACUUM INTO takes a
// point-in-time snapshot so writers are not paused.
func (b *Backend) dumpLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.dump(); err != nil {
				b.log.Error("Error dumping to disk", "error", err)
			}
		}
	}
}
