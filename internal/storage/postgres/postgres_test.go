package postgres

import (
	"testing"
	"time"

	"github.com/OCAP2/royale/internal/config"
	"github.com/OCAP2/royale/internal/database"
	"github.com/OCAP2/royale/internal/model"
	"github.com/OCAP2/royale/internal/storage"
	"github.com/OCAP2/royale/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

func TestInit_UnreachableServer(t *testing.T) {
	b := New(Dependencies{Config: config.DBConfig{
		Host: "127.0.0.1", Port: "1", Username: "u", Password: "p", Database: "royale",
	}})

	err := b.Init()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
	assert.NoError(t, b.Close())
}

func TestInjectedDB(t *testing.T) {
	db, err := database.GetSqliteDB(database.MemoryDSN(t.Name()))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	b := New(Dependencies{DB: db, Session: "pg-test"})
	require.NoError(t, b.Init())

	require.NoError(t, b.StartMatch(core.MatchInfo{ID: "m-1", StartedAt: time.Now()}))
	require.NoError(t, b.EndMatch(core.MatchResult{
		MatchID: "m-1",
		Reason:  core.EndTimeout,
		EndedAt: time.Now(),
		Players: []core.PlayerResult{{PlayerID: "a", Placement: 1}},
	}))
	require.NoError(t, b.Close())

	var players int64
	require.NoError(t, db.Model(&model.MatchPlayer{}).Count(&players).Error)
	assert.Equal(t, int64(1), players)
	assert.NoError(t, sqlDB.Ping(), "an injected connection stays open")
}
