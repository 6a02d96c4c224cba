// Package gormstorage records match history through GORM. Match rows are
// created synchronously so their ids are known, everything else goes
// through in-memory queues drained by a background writer.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OCAP2/royale/internal/database"
	"github.com/OCAP2/royale/internal/model"
	"github.com/OCAP2/royale/internal/model/convert"
	"github.com/OCAP2/royale/internal/queue"
	"github.com/OCAP2/royale/internal/storage"
	"github.com/OCAP2/royale/pkg/core"
	"gorm.io/gorm"
)

// DefaultWriteInterval is how often queued rows are flushed.
const DefaultWriteInterval = 2 * time.Second

var ErrNoDatabase = errors.New("no database connection")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	Session       string
	Version       string
	WriteInterval time.Duration
}

type queues struct {
	MatchPlayers *queue.Queue[model.MatchPlayer]
	KillEvents   *queue.Queue[model.KillEvent]
	MatchEvents  *queue.Queue[model.MatchEvent]
}

func newQueues() *queues {
	return &queues{
		MatchPlayers: queue.New[model.MatchPlayer](),
		KillEvents:   queue.New[model.KillEvent](),
		MatchEvents:  queue.New[model.MatchEvent](),
	}
}

// Backend implements storage.Backend on any GORM dialect.
type Backend struct {
	deps   Dependencies
	queues *queues

	mu      sync.Mutex
	matches map[string]*model.Match

	lastWrite atomic.Int64
	stopChan  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.WriteInterval <= 0 {
		deps.WriteInterval = DefaultWriteInterval
	}
	return &Backend{
		deps:    deps,
		queues:  newQueues(),
		matches: make(map[string]*model.Match),
	}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init migrates the schema and starts the writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return ErrNoDatabase
	}
	if err := database.Setup(b.deps.DB, b.deps.Session, b.deps.Version); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	go b.writeLoop()
	return nil
}

// Close stops the writer after a final flush.
func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		if b.stopChan == nil {
			return
		}
		close(b.stopChan)
		<-b.done
	})
	return nil
}

// StartMatch creates the match row.
func (b *Backend) StartMatch(info core.MatchInfo) error {
	m := convert.CoreToMatch(info)
	if err := b.deps.DB.Create(&m).Error; err != nil {
		return fmt.Errorf("creating match %s: %w", info.ID, err)
	}

	b.mu.Lock()
	b.matches[info.ID] = &m
	b.mu.Unlock()

	b.deps.Logger.Debug("Match row created", "matchId", info.ID, "id", m.ID)
	return nil
}

func (b *Backend) match(matchID string) (*model.Match, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.matches[matchID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrUnknownMatch, matchID)
	}
	return m, nil
}

// RecordEvents queues a tick's events. Eliminations go to kill_events,
// game ticks are dropped and everything else lands in match_events.
func (b *Backend) RecordEvents(matchID string, events []core.Event) error {
	m, err := b.match(matchID)
	if err != nil {
		return err
	}

	now := time.Now()
	var errs []error
	for _, ev := range events {
		switch ev.Type {
		case core.EventGameTick:
			continue
		case core.EventPlayerEliminated:
			if e, ok := eliminated(ev.Data); ok {
				b.queues.KillEvents.Push(convert.CoreToKillEvent(m.ID, now, ev, e))
				continue
			}
		}

		me, err := convert.CoreToMatchEvent(m.ID, now, ev)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		b.queues.MatchEvents.Push(me)
	}
	return errors.Join(errs...)
}

func eliminated(data any) (core.PlayerEliminated, bool) {
	switch e := data.(type) {
	case core.PlayerEliminated:
		return e, true
	case *core.PlayerEliminated:
		if e != nil {
			return *e, true
		}
	}
	return core.PlayerEliminated{}, false
}

// EndMatch writes the outcome onto the match row and queues the player
// records.
func (b *Backend) EndMatch(result core.MatchResult) error {
	m, err := b.match(result.MatchID)
	if err != nil {
		return err
	}

	convert.ApplyResult(m, result)
	err = b.deps.DB.Model(m).
		Select("EndedAt", "WinnerTeam", "Winners", "EndReason", "DurationMs").
		Updates(m).Error
	if err != nil {
		return fmt.Errorf("updating match %s: %w", result.MatchID, err)
	}

	players := make([]model.MatchPlayer, 0, len(result.Players))
	for _, p := range result.Players {
		players = append(players, convert.CoreToMatchPlayer(m.ID, p))
	}
	b.queues.MatchPlayers.Push(players...)

	b.mu.Lock()
	delete(b.matches, result.MatchID)
	b.mu.Unlock()
	return nil
}

// WritePerformance stores one monitor sample.
func (b *Backend) WritePerformance(p model.ServerPerformance) error {
	return b.deps.DB.Create(&p).Error
}

// WriteQueueLengths reports the writer backlog. Matches counts the
// matches that are started but not yet ended.
func (b *Backend) WriteQueueLengths() model.WriteQueueLengths {
	b.mu.Lock()
	open := len(b.matches)
	b.mu.Unlock()
	return model.WriteQueueLengths{
		Matches:      uint16(open),
		MatchPlayers: uint16(b.queues.MatchPlayers.Len()),
		KillEvents:   uint16(b.queues.KillEvents.Len()),
		MatchEvents:  uint16(b.queues.MatchEvents.Len()),
	}
}

// LastWriteDuration is how long the most recent flush took.
func (b *Backend) LastWriteDuration() time.Duration {
	return time.Duration(b.lastWrite.Load())
}

// KillFeed reads back the stored eliminations of a match in tick order.
func (b *Backend) KillFeed(matchID string) ([]core.KillFeedEntry, error) {
	var rows []model.KillEvent
	err := b.deps.DB.
		Select("kill_events.victim", "kill_events.killer", "kill_events.source", "kill_events.weapon",
			"kill_events.headshot", "kill_events.distance", "kill_events.game_ms",
			"kill_events.position", "kill_events.elevation").
		Joins("JOIN matches ON matches.id = kill_events.match_id").
		Where("matches.match_id = ?", matchID).
		Order("kill_events.tick, kill_events.id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]core.KillFeedEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, convert.KillEventToCore(r))
	}
	return out, nil
}

// Result reads back a finished match. EndedAt is not restored.
func (b *Backend) Result(matchID string) (core.MatchResult, error) {
	var m model.Match
	err := b.deps.DB.
		Select("id", "match_id", "winner_team", "winners", "end_reason", "duration_ms").
		Where("match_id = ? AND end_reason <> ''", matchID).
		Order("id DESC").
		Take(&m).Error
	if err != nil {
		return core.MatchResult{}, err
	}

	var players []model.MatchPlayer
	err = b.deps.DB.
		Where("match_id = ?", m.ID).
		Order("placement, id").
		Find(&players).Error
	if err != nil {
		return core.MatchResult{}, err
	}
	return convert.MatchToResult(m, players), nil
}

// writeQueue writes all items from a queue in one transaction. When the
// batch fails each item is retried on its own and rows that still fail are
// dropped, so one bad row never blocks the queue.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log *slog.Logger) {
	if q.Empty() {
		return
	}

	items := q.GetAndEmpty()
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Match").Create(&items).Error
	})
	if err == nil {
		return
	}
	log.Warn("Batch write failed, retrying row by row", "table", name, "error", err, "count", len(items))

	dropped := 0
	for i := range items {
		if err := db.Omit("Match").Create(&items[i]).Error; err != nil {
			log.Error("Dropping "+name+" row", "error", err)
			dropped++
		}
	}
	if dropped > 0 {
		log.Error("Error writing "+name, "dropped", dropped, "count", len(items))
	}
}

func (b *Backend) flush() {
	start := time.Now()
	db := b.deps.DB
	log := b.deps.Logger

	writeQueue(db, b.queues.MatchPlayers, "match players", log)
	writeQueue(db, b.queues.KillEvents, "kill events", log)
	writeQueue(db, b.queues.MatchEvents, "match events", log)

	b.lastWrite.Store(int64(time.Since(start)))
}

func (b *Backend) writeLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.deps.WriteInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			b.flush()
			return
		case <-ticker.C:
			b.flush()
		}
	}
}
