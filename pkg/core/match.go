// pkg/core/match.go
package core

import "time"

// Phase is the match's top-level lifecycle state.
type Phase string

const (
	PhaseLobby       Phase = "lobby"
	PhaseDrop        Phase = "drop_phase"
	PhasePlaying     Phase = "playing"
	PhaseFinalCircle Phase = "final_circle"
	PhaseEnded       Phase = "ended"
)

// EndReason explains why a match ended.
type EndReason string

const (
	EndLastTeamStanding EndReason = "last_team_standing"
	EndTimeout          EndReason = "timeout"
)

// Winner identifies the winning team. Nil on a timeout draw.
type Winner struct {
	TeamID    string   `json:"teamId" msgpack:"teamId"`
	PlayerIDs []string `json:"playerIds" msgpack:"playerIds"`
}

// KillFeedEntry describes one elimination. KillerID is empty when the
// elimination has no attributable player, in which case Source says why.
type KillFeedEntry struct {
	KillerID string        `json:"killerId,omitempty" msgpack:"killerId,omitempty"`
	Source   DamageSource  `json:"source" msgpack:"source"`
	VictimID string        `json:"victimId" msgpack:"victimId"`
	Weapon   string        `json:"weapon,omitempty" msgpack:"weapon,omitempty"`
	Headshot bool          `json:"headshot" msgpack:"headshot"`
	Distance float64       `json:"distance" msgpack:"distance"`
	Position Vec3          `json:"position" msgpack:"position"`
	GameTime time.Duration `json:"gameTime" msgpack:"gameTime"`
}

// RosterEntry pairs a player with the team assigned at match creation.
type RosterEntry struct {
	PlayerID string `json:"playerId" msgpack:"playerId"`
	TeamID   string `json:"teamId" msgpack:"teamId"`
}

// MatchInfo is what history sinks receive when a match starts.
type MatchInfo struct {
	ID        string        `json:"id" msgpack:"id"`
	StartedAt time.Time     `json:"startedAt" msgpack:"startedAt"`
	Seed      int64         `json:"seed" msgpack:"seed"`
	TeamSize  int           `json:"teamSize" msgpack:"teamSize"`
	MapSize   float64       `json:"mapSize" msgpack:"mapSize"`
	Roster    []RosterEntry `json:"roster" msgpack:"roster"`
	DropPath  []Vec3        `json:"dropPath" msgpack:"dropPath"`
}

// PlayerResult is a player's final record.
type PlayerResult struct {
	PlayerID     string        `json:"playerId" msgpack:"playerId"`
	TeamID       string        `json:"teamId" msgpack:"teamId"`
	Placement    int           `json:"placement" msgpack:"placement"`
	Stats        PlayerStats   `json:"stats" msgpack:"stats"`
	EliminatedAt time.Duration `json:"eliminatedAt,omitempty" msgpack:"eliminatedAt,omitempty"`
}

// MatchResult is handed to history sinks and reward settlement.
type MatchResult struct {
	MatchID  string         `json:"matchId" msgpack:"matchId"`
	Winner   *Winner        `json:"winner" msgpack:"winner"`
	Reason   EndReason      `json:"reason" msgpack:"reason"`
	Duration time.Duration  `json:"duration" msgpack:"duration"`
	EndedAt  time.Time      `json:"endedAt" msgpack:"endedAt"`
	Players  []PlayerResult `json:"players" msgpack:"players"`
}
