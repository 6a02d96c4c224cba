// Package v1 contains the v1 replay format for finished matches.
package v1

import "time"

// FormatVersion is written into every export.
const FormatVersion = "1"

// Export is the root JSON structure for one match.
type Export struct {
	FormatVersion string      `json:"formatVersion"`
	ServerVersion string      `json:"serverVersion"`
	MatchID       string      `json:"matchId"`
	StartedAt     time.Time   `json:"startedAt"`
	EndedAt       time.Time   `json:"endedAt"`
	Seed          int64       `json:"seed"`
	TeamSize      int         `json:"teamSize"`
	MapSize       float64     `json:"mapSize"`
	EndTick       uint64      `json:"endTick"`
	DropPath      [][]float64 `json:"dropPath"`
	Teams         []Team      `json:"teams"`
	Winner        *Team       `json:"winner"`
	EndReason     string      `json:"endReason"`
	DurationMs    int64       `json:"durationMs"`
	Players       []Player    `json:"players"`

	// KillFeed rows are [gameMs, victim, [killer, weapon], source, distance, headshot].
	KillFeed [][]any `json:"killFeed"`
	// Events rows are [tick, type, data].
	Events [][]any `json:"events"`
}

// Team lists the players assigned to one team.
type Team struct {
	ID      string   `json:"id"`
	Players []string `json:"players"`
}

// Player is a player's final record.
type Player struct {
	ID             string  `json:"id"`
	Team           string  `json:"team"`
	Placement      int     `json:"placement"`
	Kills          int     `json:"kills"`
	Knockdowns     int     `json:"knockdowns"`
	Revives        int     `json:"revives"`
	ShotsFired     int     `json:"shotsFired"`
	Headshots      int     `json:"headshots"`
	DamageDealt    float64 `json:"damageDealt"`
	DamageTaken    float64 `json:"damageTaken"`
	EliminatedAtMs int64   `json:"eliminatedAtMs,omitempty"`
}
