package match

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/OCAP2/royale/pkg/core"
)

var (
	ErrMatchExists   = errors.New("match already exists")
	ErrMatchNotFound = errors.New("match not found")
)

// ManagerConfig holds the dependencies shared by every match a Manager runs.
type ManagerConfig struct {
	Match      Config
	Sink       EventSink
	Rejections RejectionSink
	Logger     *slog.Logger
	// OnEnded is called after a match's final tick, once it has been
	// removed from the manager.
	OnEnded func(*Match)
}

// Manager runs any number of independent matches keyed by id.
type Manager struct {
	cfg     ManagerConfig
	log     *slog.Logger
	metrics *Metrics

	mu      sync.RWMutex
	runners map[string]*Runner
}

// NewManager creates a manager and registers its metrics on the global meter.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	mt, err := NewMetrics()
	if err != nil {
		return nil, err
	}
	mgr := &Manager{
		cfg:     cfg,
		log:     cfg.Logger,
		metrics: mt,
		runners: make(map[string]*Runner),
	}
	if mgr.log == nil {
		mgr.log = slog.New(slog.DiscardHandler)
	}
	if err := registerActiveGauge(mgr.Active); err != nil {
		return nil, err
	}
	return mgr, nil
}

// CreateOption adjusts the rule set of a single match.
type CreateOption func(*Config)

// WithSeed fixes the world seed of one match.
func WithSeed(seed int64) CreateOption {
	return func(c *Config) {
		c.Seed = seed
	}
}

// Create builds a match for the roster and starts its runner.
func (mgr *Manager) Create(id string, roster []string, opts ...CreateOption) (*Match, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	if _, ok := mgr.runners[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrMatchExists, id)
	}

	cfg := mgr.cfg.Match
	for _, opt := range opts {
		opt(&cfg)
	}

	m, err := New(id, roster, cfg,
		WithLogger(mgr.log),
		WithRejectionSink(rejectionFanout{mgr.metrics, mgr.cfg.Rejections}),
	)
	if err != nil {
		return nil, fmt.Errorf("creating match %s: %w", id, err)
	}

	r := NewRunner(m, mgr.cfg.Sink,
		WithRunnerLogger(mgr.log),
		WithMetrics(mgr.metrics),
		OnEnded(mgr.ended),
	)
	if err := r.Run(); err != nil {
		return nil, fmt.Errorf("starting match %s: %w", id, err)
	}
	mgr.runners[id] = r
	mgr.log.Info("Match created", "match", id, "players", len(roster))
	return m, nil
}

func (mgr *Manager) ended(m *Match) {
	mgr.mu.Lock()
	if r, ok := mgr.runners[m.ID()]; ok && r.Match() == m {
		delete(mgr.runners, m.ID())
	}
	mgr.mu.Unlock()

	if mgr.cfg.OnEnded != nil {
		mgr.cfg.OnEnded(m)
	}
}

// Get returns a running match.
func (mgr *Manager) Get(id string) (*Match, bool) {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	r, ok := mgr.runners[id]
	if !ok {
		return nil, false
	}
	return r.Match(), true
}

// State returns the latest snapshot of a running match.
func (mgr *Manager) State(id string) (core.GameState, bool) {
	mgr.mu.RLock()
	r, ok := mgr.runners[id]
	mgr.mu.RUnlock()
	if !ok {
		return core.GameState{}, false
	}
	return r.State(), true
}

// SubmitInput routes an input to its match. An unknown match is a rejection.
func (mgr *Manager) SubmitInput(matchID, playerID string, in core.Input) bool {
	m, ok := mgr.Get(matchID)
	if !ok {
		return false
	}
	return m.SubmitInput(playerID, in)
}

// Stop halts a match's runner and forgets it.
func (mgr *Manager) Stop(id string) error {
	mgr.mu.Lock()
	r, ok := mgr.runners[id]
	delete(mgr.runners, id)
	mgr.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, id)
	}
	r.Stop()
	mgr.log.Info("Match stopped", "match", id)
	return nil
}

// StopAll halts every running match.
func (mgr *Manager) StopAll() {
	for _, id := range mgr.IDs() {
		_ = mgr.Stop(id)
	}
}

// Active returns the number of running matches.
func (mgr *Manager) Active() int {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	return len(mgr.runners)
}

// IDs returns the running match ids, sorted.
func (mgr *Manager) IDs() []string {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	ids := make([]string, 0, len(mgr.runners))
	for id := range mgr.runners {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
