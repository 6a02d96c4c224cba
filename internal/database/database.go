package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/OCAP2/royale/internal/config"
	"github.com/OCAP2/royale/internal/model"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNoDumpPath is returned when an in-memory database has nowhere to go.
var ErrNoDumpPath = errors.New("sqlite file path not set")

// MemoryName is the shared in-memory sqlite database used when no file is given.
const MemoryName = "royale"

var sqlitePragmas = []string{
	"PRAGMA user_version = 1;",
	"PRAGMA journal_mode = MEMORY;",
	"PRAGMA synchronous = OFF;",
	"PRAGMA cache_size = -32000;",
	"PRAGMA temp_store = MEMORY;",
	"PRAGMA page_size = 32768;",
	"PRAGMA mmap_size = 30000000000;",
}

// Manager owns the match history connection.
type Manager struct {
	DB         *gorm.DB
	SqlDB      *sql.DB
	IsValid    bool
	IsLocal    bool
	DumpPath   string
	Logger     zerolog.Logger
	memoryName string
}

// NewManager creates a new database manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{Logger: log, memoryName: MemoryName}
}

// Connect opens Postgres and falls back to an in-memory sqlite database
// when Postgres is unreachable.
func (m *Manager) Connect(cfg config.DBConfig) error {
	db, err := GetPostgresDB(cfg)
	if err == nil {
		m.SqlDB, err = db.DB()
		if err == nil {
			err = m.SqlDB.Ping()
		}
	}
	if err != nil {
		m.Logger.Error().Err(err).Msg("Failed to connect to Postgres DB, trying SQLite")
		return m.connectLocal()
	}

	m.DB = db
	m.SqlDB.SetMaxOpenConns(10)
	m.IsValid = true
	m.Logger.Info().Str("host", cfg.Host).Msg("Connected to database")
	return nil
}

func (m *Manager) connectLocal() error {
	db, err := GetSqliteDB(MemoryDSN(m.memoryName))
	if err != nil {
		m.IsValid = false
		return fmt.Errorf("failed to get local SQLite DB: %w", err)
	}
	m.DB = db
	m.IsLocal = true
	m.IsValid = true
	if m.SqlDB, err = db.DB(); err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	m.Logger.Info().Msg("Using local SQLite DB in memory with periodic disk dump")
	return nil
}

// Setup migrates the schema and registers the session.
func (m *Manager) Setup(session, version string) error {
	if err := Setup(m.DB, session, version); err != nil {
		m.IsValid = false
		return err
	}
	m.Logger.Info().Str("session", session).Msg("Database setup complete")
	return nil
}

// Dump writes the in-memory database to DumpPath.
func (m *Manager) Dump() error {
	start := time.Now()
	if err := DumpMemoryDBToDisk(m.DB, m.DumpPath); err != nil {
		return err
	}
	m.Logger.Debug().Dur("duration", time.Since(start)).Str("path", m.DumpPath).Msg("Dumped memory DB to disk")
	return nil
}

// Close releases the underlying connection pool.
func (m *Manager) Close() error {
	if m.SqlDB == nil {
		return nil
	}
	return m.SqlDB.Close()
}

// PostgresDSN renders the connection string for cfg.
func PostgresDSN(cfg config.DBConfig) string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database)
}

// GetPostgresDB opens a connection to the Postgres database.
func GetPostgresDB(cfg config.DBConfig) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  PostgresDSN(cfg),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        10000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
}

// MemoryDSN names a shared-cache in-memory sqlite database. Connections
// using the same name see the same data.
func MemoryDSN(name string) string {
	return "file:" + name + "?mode=memory&cache=shared"
}

// GetSqliteDB opens a sqlite database file or DSN and applies the
// write-throughput pragmas.
func GetSqliteDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	for _, pragma := range sqlitePragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}
	return db, nil
}

// Setup migrates every table and records the session in server_infos.
// On Postgres it also makes sure PostGIS is installed.
func Setup(db *gorm.DB, session, version string) error {
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS postgis;`).Error; err != nil {
			return fmt.Errorf("failed to create PostGIS Extension: %w", err)
		}
	}

	if err := db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	info := model.ServerInfo{Session: session, Version: version, StartedAt: time.Now()}
	if err := db.Where(model.ServerInfo{Session: session}).FirstOrCreate(&info).Error; err != nil {
		return fmt.Errorf("failed to create server_info entry: %w", err)
	}
	return nil
}

// DumpMemoryDBToDisk vacuums the in-memory database into a file,
// replacing any previous dump.
func DumpMemoryDBToDisk(db *gorm.DB, path string) error {
	if path == "" {
		return ErrNoDumpPath
	}

	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("error removing existing DB file: %w", err)
		}
	}

	if err := db.Exec("VACUUM INTO 'file:" + strings.ReplaceAll(path, "'", "''") + "';").Error; err != nil {
		return fmt.Errorf("error dumping memory DB to disk: %w", err)
	}
	return nil
}

// GetBackupDBPaths lists the .db dumps in dir.
func GetBackupDBPaths(dir string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".db") {
			paths = append(paths, filepath.Join(dir, file.Name()))
		}
	}
	return paths, nil
}
