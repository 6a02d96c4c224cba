package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/OCAP2/royale/internal/config"
	"github.com/OCAP2/royale/internal/database"
	"github.com/OCAP2/royale/internal/dispatcher"
	"github.com/OCAP2/royale/internal/match"
	"github.com/OCAP2/royale/internal/model"
	"github.com/OCAP2/royale/internal/parser"
	gormstorage "github.com/OCAP2/royale/internal/storage/gorm"
	"github.com/OCAP2/royale/internal/worker"
	"github.com/OCAP2/royale/pkg/core"
	"github.com/OCAP2/royale/pkg/streaming"

	"github.com/vmihailenco/msgpack/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	demoMatchID     = "demo"
	demoPlayers     = 8
	demoEngageRange = 150.0
)

// runDemo plays one match between bots in-process, without a gateway. Bots
// drive the match through the same dispatcher handlers gateway clients use.
func runDemo(args []string) error {
	players := demoPlayers
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 2 {
			return fmt.Errorf("invalid player count %q", args[0])
		}
		players = n
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	matchCfg, err := config.GetMatchConfig()
	if err != nil {
		return err
	}
	store, err := createStorageBackend(config.GetStorageConfig())
	if err != nil {
		return err
	}
	defer store.close()

	workerManager, eventDispatcher, err := newWorker(worker.Dependencies{
		MatchConfig: matchCfg,
		Parser:      parser.NewParser(Logger, matchCfg.MaxPlayers),
		Storage:     store.backend,
		Logger:      Logger,
	})
	if err != nil {
		return err
	}
	defer workerManager.Close()
	defer eventDispatcher.Close()

	roster := make([]string, players)
	for i := range roster {
		roster[i] = fmt.Sprintf("bot-%d", i+1)
	}
	Logger.Info("Starting demo match", "players", players)

	payload, err := msgpack.Marshal(streaming.CreateMatchPayload{Players: roster})
	if err != nil {
		return err
	}
	if _, err := eventDispatcher.Dispatch(dispatcher.Event{
		Command:   streaming.TypeCreateMatch,
		MatchID:   demoMatchID,
		Payload:   payload,
		Timestamp: time.Now(),
	}); err != nil {
		return fmt.Errorf("failed to create demo match: %w", err)
	}

	mt, ok := workerManager.Matches().Get(demoMatchID)
	if !ok {
		return errors.New("demo match ended before the first tick")
	}

	bots := newBotDriver(mt, eventDispatcher, roster)
	ticker := time.NewTicker(mt.TickInterval())
	defer ticker.Stop()

	for workerManager.Matches().Active() > 0 {
		select {
		case <-ctx.Done():
			Logger.Info("Demo interrupted")
			return workerManager.Matches().Stop(demoMatchID)
		case <-ticker.C:
			bots.step()
		}
	}

	res, ok := mt.Result()
	if !ok {
		return errors.New("demo match has no result")
	}
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	Logger.Info("Demo match finished", "reason", res.Reason, "duration", res.Duration)
	return nil
}

// botDriver sends one input per living bot each tick.
type botDriver struct {
	match    *match.Match
	dispatch *dispatcher.Dispatcher
	roster   []string
	seq      map[string]uint64
}

func newBotDriver(mt *match.Match, d *dispatcher.Dispatcher, roster []string) *botDriver {
	return &botDriver{match: mt, dispatch: d, roster: roster, seq: make(map[string]uint64)}
}

func (b *botDriver) step() {
	gs := b.match.GameState()
	states := make(map[string]core.PlayerState, len(b.roster))
	for _, id := range b.roster {
		if ps, ok := b.match.PlayerState(id); ok {
			states[id] = ps
		}
	}

	for id, ps := range states {
		if ps.Status != core.StatusUp {
			continue
		}
		action := b.decide(ps, gs, states)
		if action == nil {
			continue
		}
		b.seq[id]++
		payload, err := streaming.EncodeInput(b.seq[id], action)
		if err != nil {
			Logger.Warn("Failed to encode bot input", "player", id, "error", err)
			continue
		}
		_, err = b.dispatch.Dispatch(dispatcher.Event{
			Command:   streaming.TypeInput,
			MatchID:   b.match.ID(),
			PlayerID:  id,
			Payload:   payload,
			Timestamp: time.Now(),
		})
		if err != nil {
			Logger.Debug("Bot input dropped", "player", id, "error", err)
		}
	}
}

func (b *botDriver) decide(self core.PlayerState, gs core.GameState, states map[string]core.PlayerState) core.Action {
	switch self.DropState {
	case core.DropAboard:
		// Spread the jumps out over the flight.
		if rand.IntN(20) != 0 {
			return nil
		}
		return core.JumpAction{}
	case core.DropParachuting:
		return nil
	}

	if target, ok := nearestEnemy(self, states); ok && self.Position.Dist2D(target.Position) <= demoEngageRange {
		return core.AttackAction{TargetID: target.ID, WeaponSlot: self.ActiveSlot}
	}

	dir := gs.Zone.TargetCenter.Sub(self.Position)
	dir.Z = 0
	if dir.Len2D() < gs.Zone.TargetRadius/2 {
		dir = core.V(rand.Float64()*2-1, rand.Float64()*2-1, 0)
	}
	return core.MoveAction{Direction: dir.Normalize(), Magnitude: 1, Sprint: rand.IntN(3) == 0}
}

func nearestEnemy(self core.PlayerState, states map[string]core.PlayerState) (core.PlayerState, bool) {
	var (
		best  core.PlayerState
		found bool
	)
	for _, ps := range states {
		if ps.TeamID == self.TeamID || ps.Status == core.StatusEliminated || ps.DropState != core.DropLanded {
			continue
		}
		if !found || self.Position.Dist2D(ps.Position) < self.Position.Dist2D(best.Position) {
			best, found = ps, true
		}
	}
	return best, found
}

// migrateBackupsSqlite copies every sqlite dump into Postgres and marks the
// file as migrated.
func migrateBackupsSqlite() error {
	sqlitePaths, err := database.GetBackupDBPaths(config.GetStorageConfig().SQLite.DumpDir)
	if err != nil {
		return fmt.Errorf("error getting backup database paths: %w", err)
	}
	if len(sqlitePaths) == 0 {
		Logger.Info("No sqlite backups to migrate")
		return nil
	}

	postgresDB, err := database.GetPostgresDB(config.GetDBConfig())
	if err != nil {
		return fmt.Errorf("error getting postgres database: %w", err)
	}
	if err := database.Setup(postgresDB, sessionID(), CurrentServerVersion); err != nil {
		return err
	}

	migrated := 0
	for _, sqlitePath := range sqlitePaths {
		if err := migrateBackup(sqlitePath, postgresDB); err != nil {
			Logger.Error("Failed to migrate backup", "path", sqlitePath, "error", err)
			continue
		}
		if err := os.Rename(sqlitePath, sqlitePath+".migrated"); err != nil {
			Logger.Warn("Failed to rename migrated backup", "path", sqlitePath, "error", err)
		}
		migrated++
		Logger.Info("Migrated backup", "path", sqlitePath)
	}

	Logger.Info("Finished migrating backups", "migrated", migrated, "total", len(sqlitePaths))
	return nil
}

func migrateBackup(path string, postgresDB *gorm.DB) error {
	sqliteDB, err := database.GetSqliteDB(path)
	if err != nil {
		return fmt.Errorf("error opening sqlite database: %w", err)
	}
	defer func() {
		if sqlDB, err := sqliteDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	// One transaction per file so a partial copy rolls back.
	return postgresDB.Transaction(func(tx *gorm.DB) error {
		if err := migrateTable[model.ServerInfo](sqliteDB, tx); err != nil {
			return err
		}
		if err := migrateTable[model.Match](sqliteDB, tx); err != nil {
			return err
		}
		if err := migrateTable[model.MatchPlayer](sqliteDB, tx); err != nil {
			return err
		}
		if err := migrateTable[model.KillEvent](sqliteDB, tx); err != nil {
			return err
		}
		if err := migrateTable[model.MatchEvent](sqliteDB, tx); err != nil {
			return err
		}
		return migrateTable[model.ServerPerformance](sqliteDB, tx)
	})
}

// migrateTable copies every row of T, skipping rows whose key already exists.
func migrateTable[T any](sqliteDB, tx *gorm.DB) error {
	var rows []T
	if err := sqliteDB.Find(&rows).Error; err != nil {
		return fmt.Errorf("error reading %T rows: %w", rows, err)
	}
	if len(rows) == 0 {
		return nil
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&rows, 1000).Error; err != nil {
		return fmt.Errorf("error writing %T rows: %w", rows, err)
	}
	return nil
}

// printResults prints the stored result and kill feed of each match as JSON.
func printResults(matchIDs []string) error {
	if len(matchIDs) == 0 {
		return errors.New("no match IDs provided")
	}

	db, err := database.GetPostgresDB(config.GetDBConfig())
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	history := gormstorage.New(gormstorage.Dependencies{DB: db, Logger: Logger})

	for _, id := range matchIDs {
		res, err := history.Result(id)
		if err != nil {
			return fmt.Errorf("match %s: %w", id, err)
		}
		feed, err := history.KillFeed(id)
		if err != nil {
			return fmt.Errorf("match %s kill feed: %w", id, err)
		}

		out, err := json.MarshalIndent(struct {
			Result   core.MatchResult     `json:"result"`
			KillFeed []core.KillFeedEntry `json:"killFeed"`
		}{res, feed}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	}
	return nil
}
