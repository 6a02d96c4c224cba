// Package memory keeps running matches in memory and writes one replay
// file per finished match.
package memory

import (
	"fmt"
	"sync"

	"github.com/OCAP2/royale/internal/config"
	"github.com/OCAP2/royale/internal/storage"
	"github.com/OCAP2/royale/pkg/core"
)

// MatchRecord groups a running match with everything recorded so far.
type MatchRecord struct {
	Info    core.MatchInfo
	EndTick uint64
	Events  []core.Event
	Kills   []core.KillFeedEntry
}

// Backend stores match data in memory and exports to JSON
type Backend struct {
	cfg     config.MemoryConfig
	version string

	matches  map[string]*MatchRecord
	exported []string
	mu       sync.RWMutex
}

// New creates a new memory backend. version is stamped into every export.
func New(cfg config.MemoryConfig, version string) *Backend {
	return &Backend{
		cfg:     cfg,
		version: version,
		matches: make(map[string]*MatchRecord),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close drops matches that never ended.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.matches = make(map[string]*MatchRecord)
	return nil
}

// StartMatch begins recording a new match. Starting an id again resets it.
func (b *Backend) StartMatch(info core.MatchInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.matches[info.ID] = &MatchRecord{
		Info:   info,
		Events: make([]core.Event, 0),
		Kills:  make([]core.KillFeedEntry, 0),
	}
	return nil
}

// RecordEvents appends a tick's events. Game ticks only advance EndTick.
func (b *Backend) RecordEvents(matchID string, events []core.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	record, ok := b.matches[matchID]
	if !ok {
		return fmt.Errorf("%w: %s", storage.ErrUnknownMatch, matchID)
	}

	for _, ev := range events {
		if ev.Tick > record.EndTick {
			record.EndTick = ev.Tick
		}
		switch e := ev.Data.(type) {
		case core.PlayerEliminated:
			record.Kills = append(record.Kills, e.Kill)
		case *core.PlayerEliminated:
			record.Kills = append(record.Kills, e.Kill)
		}
		if ev.Type != core.EventGameTick {
			record.Events = append(record.Events, ev)
		}
	}
	return nil
}

// EndMatch exports the match and forgets it.
func (b *Backend) EndMatch(result core.MatchResult) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	record, ok := b.matches[result.MatchID]
	if !ok {
		return fmt.Errorf("%w: %s", storage.ErrUnknownMatch, result.MatchID)
	}
	delete(b.matches, result.MatchID)

	path, err := b.exportJSON(record, result)
	if err != nil {
		return err
	}
	b.exported = append(b.exported, path)
	return nil
}

// GetMatch returns a copy of a running match's record.
func (b *Backend) GetMatch(matchID string) (MatchRecord, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	record, ok := b.matches[matchID]
	if !ok {
		return MatchRecord{}, false
	}
	return MatchRecord{
		Info:    record.Info,
		EndTick: record.EndTick,
		Events:  append([]core.Event(nil), record.Events...),
		Kills:   append([]core.KillFeedEntry(nil), record.Kills...),
	}, true
}

// ExportedFiles lists the replay files written so far.
func (b *Backend) ExportedFiles() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.exported...)
}
