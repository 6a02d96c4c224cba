// Package match runs one battle royale match: the phase state machine, the
// fixed-step tick that fans out to every subsystem, input application and
// win evaluation. A Match is driven by a Runner; Tick and the queries may
// also be called directly.
package match

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OCAP2/royale/internal/combat"
	"github.com/OCAP2/royale/internal/loot"
	"github.com/OCAP2/royale/internal/player"
	"github.com/OCAP2/royale/internal/world"
	"github.com/OCAP2/royale/internal/zone"
	"github.com/OCAP2/royale/pkg/core"
)

var (
	ErrEmptyRoster     = errors.New("roster is empty")
	ErrRosterTooLarge  = errors.New("roster exceeds the player cap")
	ErrDuplicatePlayer = errors.New("player appears twice in the roster")
	ErrNotInLobby      = errors.New("match is not in the lobby")
)

// RejectReason explains why SubmitInput refused an input.
type RejectReason string

const (
	RejectUnknownPlayer RejectReason = "unknown_player"
	RejectMatchEnded    RejectReason = "match_ended"
	RejectInvalidInput  RejectReason = "invalid_input"
	RejectStaleSequence RejectReason = "stale_sequence"
)

// RejectionSink receives every refused input, for anti-cheat telemetry.
// It is called from the submitting goroutine and must not block.
type RejectionSink interface {
	RecordRejection(matchID, playerID string, reason RejectReason, seq uint64)
}

// Option configures a Match.
type Option func(*Match)

func WithLogger(l *slog.Logger) Option {
	return func(m *Match) {
		if l != nil {
			m.log = l
		}
	}
}

func WithRejectionSink(s RejectionSink) Option {
	return func(m *Match) {
		m.rejections = s
	}
}

// WithClock sets the wall clock used for start and end timestamps and for
// picking a seed when the config has none.
func WithClock(now func() time.Time) Option {
	return func(m *Match) {
		if now != nil {
			m.now = now
		}
	}
}

// Match is the root aggregate of one match. All state below mu is mutated
// only by Start and Tick.
type Match struct {
	id         string
	cfg        Config
	log        *slog.Logger
	rejections RejectionSink
	now        func() time.Time
	seed       int64

	inbox   *inbox
	ticking atomic.Bool
	ended   atomic.Bool

	// players and roster are fixed at construction and safe to read without mu.
	players map[string]*player.Player
	roster  []*player.Player

	mu        sync.RWMutex
	rng       *rand.Rand
	phase     core.Phase
	tick      uint64
	clock     time.Duration
	startedAt time.Time
	endedAt   time.Time

	teams     map[string][]*player.Player
	teamOrder []string
	teamOut   map[string]bool
	alive     map[string]*player.Player

	world  *world.World
	zone   *zone.Controller
	combat *combat.System

	dropPath     [2]core.Vec3
	dropship     core.Vec3
	dropshipLive bool

	killFeed       []core.KillFeedEntry
	lastEliminated *player.Player
	winner         *core.Winner
	reason         core.EndReason
	result         *core.MatchResult

	pending []core.Event
}

// New creates a match in the lobby. Teams are filled in roster order,
// cfg.TeamSize players each, and the world is generated from the seed.
func New(id string, roster []string, cfg Config, opts ...Option) (*Match, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid match config: %w", err)
	}
	if len(roster) == 0 {
		return nil, ErrEmptyRoster
	}
	if len(roster) > cfg.MaxPlayers {
		return nil, fmt.Errorf("%w: %d > %d", ErrRosterTooLarge, len(roster), cfg.MaxPlayers)
	}

	m := &Match{
		id:      id,
		cfg:     cfg,
		log:     slog.New(slog.DiscardHandler),
		now:     time.Now,
		inbox:   newInbox(),
		players: make(map[string]*player.Player, len(roster)),
		teams:   make(map[string][]*player.Player),
		teamOut: make(map[string]bool),
		alive:   make(map[string]*player.Player, len(roster)),
		phase:   core.PhaseLobby,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With("match", id)

	for i, pid := range roster {
		if _, dup := m.players[pid]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlayer, pid)
		}
		teamID := fmt.Sprintf("team-%d", i/cfg.TeamSize+1)
		p := player.New(pid, teamID, &m.cfg.Player)
		m.players[pid] = p
		m.roster = append(m.roster, p)
		m.alive[pid] = p
		if _, ok := m.teams[teamID]; !ok {
			m.teamOrder = append(m.teamOrder, teamID)
		}
		m.teams[teamID] = append(m.teams[teamID], p)
	}

	m.seed = cfg.Seed
	if m.seed == 0 {
		m.seed = m.now().UnixNano()
	}
	m.rng = rand.New(rand.NewSource(m.seed))

	gen := loot.NewGenerator(m.rng)
	registry := loot.NewRegistry(cfg.Loot, gen)
	m.world = world.Generate(cfg.World, &m.cfg.Vehicle, registry, gen, m.rng)
	m.zone = zone.NewController(cfg.Zone, cfg.FinalCirclePhase)
	m.combat = combat.NewSystem(cfg.Combat)

	for _, p := range m.roster {
		p.Position = m.world.Bounds.Center()
	}
	return m, nil
}

func (m *Match) ID() string {
	return m.id
}

// TickInterval is the fixed step a Runner should call Tick at.
func (m *Match) TickInterval() time.Duration {
	return m.cfg.TickInterval()
}

// Start moves the match from the lobby to the drop phase: loot is seeded,
// the dropship path is chosen and every player boards. The match_started
// event is returned by the next Tick.
func (m *Match) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != core.PhaseLobby {
		return ErrNotInLobby
	}
	m.startedAt = m.now()

	m.world.Loot.SeedBuildings(m.clock)
	m.world.Loot.SeedRandom(m.world.RandomOpenGround(m.cfg.World, m.cfg.World.LooseLoot, m.rng), m.clock)

	m.planDropPath()
	for _, p := range m.roster {
		p.Drop = core.DropAboard
		p.Position = m.dropship
	}
	m.phase = core.PhaseDrop

	m.emit(core.EventMatchStarted, core.MatchStarted{
		MatchID:  m.id,
		Players:  len(m.roster),
		Teams:    len(m.teamOrder),
		DropPath: m.dropPath[:],
	})
	m.log.Info("Match started",
		"players", len(m.roster),
		"teams", len(m.teamOrder),
		"seed", m.seed,
		"loot", m.world.Loot.Len(),
		"vehicles", len(m.world.Vehicles()),
	)
	return nil
}

// SubmitInput queues an input for the next tick. It returns false, and
// reports the rejection, when the player is unknown, the match has ended,
// the input is malformed or its sequence is not newer than the highest one
// already seen for the player.
func (m *Match) SubmitInput(playerID string, in core.Input) bool {
	if _, ok := m.players[playerID]; !ok {
		m.reject(playerID, RejectUnknownPlayer, in.Seq)
		return false
	}
	if m.ended.Load() {
		m.reject(playerID, RejectMatchEnded, in.Seq)
		return false
	}
	if !in.Valid() {
		m.reject(playerID, RejectInvalidInput, in.Seq)
		return false
	}
	if !m.inbox.submit(playerID, in) {
		m.reject(playerID, RejectStaleSequence, in.Seq)
		return false
	}
	return true
}

func (m *Match) reject(playerID string, reason RejectReason, seq uint64) {
	m.log.Debug("Input rejected", "player", playerID, "reason", reason, "seq", seq)
	if m.rejections != nil {
		m.rejections.RecordRejection(m.id, playerID, reason, seq)
	}
}

// Tick advances the match by one fixed step and returns the events it
// produced, in order. A call that overlaps another Tick returns nil without
// doing anything. Outside the drop and playing phases only events queued by
// Start are flushed.
func (m *Match) Tick() []core.Event {
	if !m.ticking.CompareAndSwap(false, true) {
		return nil
	}
	defer m.ticking.Store(false)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase == core.PhaseLobby || m.phase == core.PhaseEnded {
		return m.flush()
	}

	dt := m.cfg.TickInterval()
	m.tick++
	m.clock += dt

	m.applyInputs()

	switch m.phase {
	case core.PhaseDrop:
		m.advanceDropship(dt)
		m.advanceParachutes(dt)
		m.movePlayers(dt)
		if m.aboard() == 0 {
			m.beginPlaying()
		}
	case core.PhasePlaying, core.PhaseFinalCircle:
		m.advanceParachutes(dt)
		m.movePlayers(dt)
		m.separatePlayers()
		m.resolveCollisions()
		m.ageDowned(dt)
	}

	combat.CompleteReloads(m.roster, m.clock)
	m.advanceProjectiles(dt)
	m.updateZone(dt)
	m.updateLoot()
	m.updateVehicles(dt)
	m.checkEnd()

	m.emit(core.EventGameTick, core.GameTick{
		Tick:         m.tick,
		GameTime:     m.clock,
		PlayersAlive: len(m.alive),
	})
	return m.flush()
}

func (m *Match) flush() []core.Event {
	out := m.pending
	m.pending = nil
	return out
}

func (m *Match) emit(t core.EventType, data any) {
	m.pending = append(m.pending, core.Event{
		Type:     t,
		Tick:     m.tick,
		GameTime: m.clock,
		Data:     data,
	})
}

// Ended reports whether the match has reached its terminal phase.
func (m *Match) Ended() bool {
	return m.ended.Load()
}

// Result returns the final record once the match has ended.
func (m *Match) Result() (core.MatchResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.result == nil {
		return core.MatchResult{}, false
	}
	return *m.result, true
}

// Info describes the match for history sinks. It is complete once Start has run.
func (m *Match) Info() core.MatchInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info := core.MatchInfo{
		ID:        m.id,
		StartedAt: m.startedAt,
		Seed:      m.seed,
		TeamSize:  m.cfg.TeamSize,
		MapSize:   m.cfg.World.MapSize,
		Roster:    make([]core.RosterEntry, 0, len(m.roster)),
	}
	if m.phase != core.PhaseLobby {
		info.DropPath = []core.Vec3{m.dropPath[0], m.dropPath[1]}
	}
	for _, p := range m.roster {
		info.Roster = append(info.Roster, core.RosterEntry{PlayerID: p.ID, TeamID: p.TeamID})
	}
	return info
}

// GameState returns a read-only snapshot of the match.
func (m *Match) GameState() core.GameState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := core.GameState{
		MatchID:      m.id,
		Phase:        m.phase,
		Tick:         m.tick,
		GameTime:     m.clock,
		PlayersAlive: len(m.alive),
		TeamsAlive:   m.teamsAlive(),
		Zone:         m.zone.State(m.clock),
		KillFeed:     append([]core.KillFeedEntry(nil), m.killFeed...),
	}
	if m.dropshipLive {
		pos := m.dropship
		s.Dropship = &pos
	}
	if m.winner != nil {
		w := *m.winner
		w.PlayerIDs = append([]string(nil), m.winner.PlayerIDs...)
		s.Winner = &w
	}
	return s
}

// PlayerState returns a read-only view of one player.
func (m *Match) PlayerState(id string) (core.PlayerState, bool) {
	p, ok := m.players[id]
	if !ok {
		return core.PlayerState{}, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return p.State(), true
}

func (m *Match) teamsAlive() int {
	n := 0
	for _, id := range m.teamOrder {
		if m.teamAlive(id) {
			n++
		}
	}
	return n
}

func (m *Match) teamAlive(teamID string) bool {
	for _, p := range m.teams[teamID] {
		if p.Alive() {
			return true
		}
	}
	return false
}

// checkEnd declares a winner when at most one team has members left, or a
// draw when the clock passes the hard cap.
func (m *Match) checkEnd() {
	if m.phase == core.PhaseEnded {
		return
	}
	if m.clock > m.cfg.MaxDuration {
		m.end("", core.EndTimeout)
		return
	}

	if len(m.alive) == 0 {
		winner := ""
		if m.lastEliminated != nil {
			winner = m.lastEliminated.TeamID
		}
		m.end(winner, core.EndLastTeamStanding)
		return
	}
	if m.teamsAlive() > 1 {
		return
	}
	for _, id := range m.teamOrder {
		if m.teamAlive(id) {
			m.end(id, core.EndLastTeamStanding)
			return
		}
	}
}

func (m *Match) end(winnerTeam string, reason core.EndReason) {
	if winnerTeam != "" {
		w := &core.Winner{TeamID: winnerTeam}
		for _, p := range m.teams[winnerTeam] {
			w.PlayerIDs = append(w.PlayerIDs, p.ID)
		}
		m.winner = w
		for _, p := range m.alive {
			p.Stats.Placement = 1
		}
	}

	m.phase = core.PhaseEnded
	m.reason = reason
	m.endedAt = m.now()
	m.dropshipLive = false
	m.ended.Store(true)

	res := core.MatchResult{
		MatchID:  m.id,
		Winner:   m.winner,
		Reason:   reason,
		Duration: m.clock,
		EndedAt:  m.endedAt,
		Players:  make([]core.PlayerResult, 0, len(m.roster)),
	}
	for _, p := range m.roster {
		res.Players = append(res.Players, core.PlayerResult{
			PlayerID:     p.ID,
			TeamID:       p.TeamID,
			Placement:    p.Stats.Placement,
			Stats:        p.Stats,
			EliminatedAt: p.EliminatedAt,
		})
	}
	m.result = &res

	m.emit(core.EventMatchEnded, core.MatchEnded{
		MatchID:  m.id,
		Winner:   m.winner,
		Reason:   reason,
		Duration: m.clock,
		Stats:    res.Players,
	})
	m.log.Info("Match ended",
		"tick", m.tick,
		"reason", reason,
		"winner", winnerTeam,
		"duration", m.clock,
	)
}
