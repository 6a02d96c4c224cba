// Package worker connects the match engine to everything around it: inbound
// gateway commands go through the dispatcher to the match manager, and every
// tick's events travel over an internal bus to the gateway, storage,
// telemetry and reward settlement.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/OCAP2/royale/internal/channel"
	"github.com/OCAP2/royale/internal/influx"
	"github.com/OCAP2/royale/internal/match"
	"github.com/OCAP2/royale/internal/parser"
	"github.com/OCAP2/royale/internal/storage"
	"github.com/OCAP2/royale/pkg/core"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
)

const (
	DefaultBusSize    = 4096
	DefaultSettleWait = 10 * time.Second
)

// Broadcaster forwards a tick's events to connected clients.
type Broadcaster interface {
	Broadcast(matchID string, events []core.Event)
}

// Settler pays out a finished match.
type Settler interface {
	Settle(ctx context.Context, res core.MatchResult) error
}

// ReplayUploader is an optional Settler extension for backends that export
// files.
type ReplayUploader interface {
	UploadReplay(ctx context.Context, filePath, matchID string) error
}

// PointWriter is the telemetry sink for match points and rejected inputs.
type PointWriter interface {
	WritePoint(bucket string, point *influxdb2_write.Point) error
}

// Dependencies holds all dependencies for the worker manager. Everything but
// MatchConfig is optional.
type Dependencies struct {
	MatchConfig match.Config
	Parser      *parser.Parser
	Storage     storage.Backend
	Settler     Settler
	Telemetry   PointWriter
	Logger      *slog.Logger
	BusSize     int
	SettleWait  time.Duration
}

// batch is one tick's events. info and result are attached on the runner
// goroutine when the batch starts or ends the match.
type batch struct {
	matchID string
	events  []core.Event
	info    *core.MatchInfo
	result  *core.MatchResult
}

// Manager owns the match manager and the event bus consumer.
type Manager struct {
	deps    Dependencies
	log     *slog.Logger
	parser  *parser.Parser
	matches *match.Manager

	bus    channel.Channel[batch]
	busMu  sync.RWMutex
	closed bool
	done   chan struct{}

	broadcastMu sync.RWMutex
	broadcaster Broadcaster

	settling sync.WaitGroup
	uploaded int
}

// NewManager creates the worker and its match manager. The event bus
// consumer starts immediately.
func NewManager(deps Dependencies) (*Manager, error) {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.BusSize <= 0 {
		deps.BusSize = DefaultBusSize
	}
	if deps.SettleWait <= 0 {
		deps.SettleWait = DefaultSettleWait
	}
	p := deps.Parser
	if p == nil {
		p = parser.NewParser(deps.Logger, deps.MatchConfig.MaxPlayers)
	}

	m := &Manager{
		deps:   deps,
		log:    deps.Logger,
		parser: p,
		bus:    channel.New[batch](deps.BusSize),
		done:   make(chan struct{}),
	}

	matches, err := match.NewManager(match.ManagerConfig{
		Match:      deps.MatchConfig,
		Sink:       m,
		Rejections: m,
		Logger:     deps.Logger,
	})
	if err != nil {
		return nil, err
	}
	m.matches = matches

	go m.consume()
	return m, nil
}

// Matches exposes the match manager for status reporting.
func (m *Manager) Matches() *match.Manager {
	return m.matches
}

// SetBroadcaster installs the gateway. Batches consumed before it is set
// are only stored.
func (m *Manager) SetBroadcaster(b Broadcaster) {
	m.broadcastMu.Lock()
	m.broadcaster = b
	m.broadcastMu.Unlock()
}

// Publish implements match.EventSink. It runs on the runner goroutine, so
// the match is still registered when its first and last batches arrive.
func (m *Manager) Publish(matchID string, events []core.Event) {
	b := batch{matchID: matchID, events: events}
	if started, ended := lifecycle(events); started || ended {
		if mt, ok := m.matches.Get(matchID); ok {
			if started {
				info := mt.Info()
				b.info = &info
			}
			if ended {
				if res, ok := mt.Result(); ok {
					b.result = &res
				}
			}
		} else {
			m.log.Warn("Lifecycle batch for unknown match", "match", matchID)
		}
	}

	m.busMu.RLock()
	defer m.busMu.RUnlock()
	if m.closed {
		m.log.Warn("Event bus closed, dropping batch", "match", matchID, "events", len(events))
		return
	}
	m.bus.Send(b)
}

func lifecycle(events []core.Event) (started, ended bool) {
	for _, ev := range events {
		switch ev.Type {
		case core.EventMatchStarted:
			started = true
		case core.EventMatchEnded:
			ended = true
		}
	}
	return started, ended
}

// RecordRejection implements match.RejectionSink.
func (m *Manager) RecordRejection(matchID, playerID string, reason match.RejectReason, seq uint64) {
	m.log.Debug("Input rejected", "match", matchID, "player", playerID, "reason", reason, "seq", seq)
	if m.deps.Telemetry == nil {
		return
	}
	p := influx.RejectionPoint(matchID, playerID, string(reason), seq, time.Now())
	if err := m.deps.Telemetry.WritePoint(influx.BucketAntiCheat, p); err != nil {
		m.log.Warn("Failed to write rejection point", "error", err)
	}
}

// QueueLength reports batches waiting on the bus.
func (m *Manager) QueueLength() int {
	return m.bus.Len()
}

// Close stops every match, drains the bus and waits for pending
// settlements.
func (m *Manager) Close() {
	m.matches.StopAll()

	m.busMu.Lock()
	if m.closed {
		m.busMu.Unlock()
		<-m.done
		return
	}
	m.closed = true
	m.bus.Close()
	m.busMu.Unlock()

	<-m.done
	m.settling.Wait()
}
