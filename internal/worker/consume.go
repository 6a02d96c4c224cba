package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/OCAP2/royale/internal/influx"
	"github.com/OCAP2/royale/internal/storage"
	"github.com/OCAP2/royale/pkg/core"
)

func (m *Manager) consume() {
	defer close(m.done)
	for b := range m.bus.Receive() {
		m.handleBatch(b)
	}
}

// handleBatch fans one batch out in order: clients first, then history,
// then telemetry. Settlement of a finished match runs in the background.
func (m *Manager) handleBatch(b batch) {
	log := m.log.With("match", b.matchID)

	m.broadcastMu.RLock()
	bc := m.broadcaster
	m.broadcastMu.RUnlock()
	if bc != nil {
		bc.Broadcast(b.matchID, b.events)
	}

	if s := m.deps.Storage; s != nil {
		if b.info != nil {
			if err := s.StartMatch(*b.info); err != nil {
				log.Error("Failed to record match start", "error", err)
			}
		}
		if err := s.RecordEvents(b.matchID, b.events); err != nil {
			log.Warn("Failed to record events", "events", len(b.events), "error", err)
		}
	}

	if t := m.deps.Telemetry; t != nil {
		now := time.Now()
		for _, ev := range b.events {
			p := influx.PointFromEvent(b.matchID, ev, now)
			if p == nil {
				continue
			}
			if err := t.WritePoint(influx.BucketMatchData, p); err != nil {
				log.Warn("Failed to write match point", "event", ev.Type, "error", err)
				break
			}
		}
	}

	if b.result != nil {
		m.finish(*b.result, log)
	}
}

// finish closes the match in storage and settles it. Replays exported by
// the storage backend are uploaded once settlement succeeds.
func (m *Manager) finish(res core.MatchResult, log *slog.Logger) {
	var replays []string
	if s := m.deps.Storage; s != nil {
		if err := s.EndMatch(res); err != nil {
			log.Error("Failed to record match end", "error", err)
		}
		if exp, ok := s.(storage.Exporter); ok {
			files := exp.ExportedFiles()
			if len(files) > m.uploaded {
				replays = files[m.uploaded:]
				m.uploaded = len(files)
			}
		}
	}

	winner := ""
	if res.Winner != nil {
		winner = res.Winner.TeamID
	}
	log.Info("Match finished", "reason", res.Reason, "winner", winner, "duration", res.Duration)

	if m.deps.Settler == nil {
		return
	}
	m.settling.Add(1)
	go func() {
		defer m.settling.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.deps.SettleWait)
		defer cancel()

		if err := m.deps.Settler.Settle(ctx, res); err != nil {
			log.Error("Failed to settle match", "error", err)
			return
		}
		log.Info("Match settled", "players", len(res.Players))

		up, ok := m.deps.Settler.(ReplayUploader)
		if !ok {
			return
		}
		for _, path := range replays {
			if err := up.UploadReplay(ctx, path, res.MatchID); err != nil {
				log.Error("Failed to upload replay", "file", path, "error", err)
				continue
			}
			log.Info("Replay uploaded", "file", path)
		}
	}()
}
