package model

import (
	"database/sql"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels lists every table, in migration order.
var DatabaseModels = []any{
	&ServerInfo{},
	&Match{},
	&MatchPlayer{},
	&KillEvent{},
	&MatchEvent{},
	&ServerPerformance{},
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// ServerInfo records each server session that wrote to this database.
type ServerInfo struct {
	gorm.Model
	Session   string    `json:"session" gorm:"size:64;uniqueIndex"`
	Version   string    `json:"version" gorm:"size:32"`
	StartedAt time.Time `json:"startedAt"`
}

func (*ServerInfo) TableName() string {
	return "server_infos"
}

// ServerPerformance is one monitor sample.
type ServerPerformance struct {
	Time                time.Time         `json:"time" gorm:"index:idx_serverperf_time"`
	Session             string            `json:"session" gorm:"size:64;index:idx_serverperf_session"`
	ActiveMatches       uint16            `json:"activeMatches"`
	PlayersAlive        uint16            `json:"playersAlive"`
	Goroutines          uint32            `json:"goroutines"`
	HeapAllocMB         float32           `json:"heapAllocMB"`
	WriteQueueLengths   WriteQueueLengths `json:"writeQueueLengths" gorm:"embedded;embeddedPrefix:writequeue_"`
	LastWriteDurationMs float32           `json:"lastWriteDurationMs"`
}

func (*ServerPerformance) TableName() string {
	return "server_performances"
}

// WriteQueueLengths is the backlog of each database writer.
type WriteQueueLengths struct {
	Matches      uint16 `json:"matches"`
	MatchPlayers uint16 `json:"matchPlayers"`
	KillEvents   uint16 `json:"killEvents"`
	MatchEvents  uint16 `json:"matchEvents"`
}

////////////////////////
// MATCH MODELS
////////////////////////

// Match is one simulated match. MatchID is the id clients used.
type Match struct {
	gorm.Model
	MatchID     string       `json:"matchId" gorm:"size:64;index:idx_match_match_id"`
	StartedAt   time.Time    `json:"startedAt" gorm:"index:idx_match_started_at"`
	EndedAt     sql.NullTime `json:"endedAt"`
	Seed        int64        `json:"seed"`
	TeamSize    uint8        `json:"teamSize"`
	MapSize     float32      `json:"mapSize"`
	PlayerCount uint16       `json:"playerCount"`

	// DropPath is the dropship's straight flight line across the map.
	DropPath geom.LineString `json:"dropPath"`

	WinnerTeam string         `json:"winnerTeam" gorm:"size:32"`
	Winners    datatypes.JSON `json:"winners"`
	EndReason  string         `json:"endReason" gorm:"size:32"`
	DurationMs int64          `json:"durationMs"`
}

func (*Match) TableName() string {
	return "matches"
}

// MatchPlayer is a roster entry, completed with stats when the match ends.
type MatchPlayer struct {
	ID      uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	MatchID uint   `json:"matchId" gorm:"index:idx_matchplayer_match_id"`
	Match   Match  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MatchID;"`
	Player  string `json:"playerId" gorm:"size:64;index:idx_matchplayer_player"`
	TeamID  string `json:"teamId" gorm:"size:32"`

	Placement      uint16  `json:"placement"`
	Kills          uint16  `json:"kills"`
	Knockdowns     uint16  `json:"knockdowns"`
	Revives        uint16  `json:"revives"`
	ShotsFired     uint32  `json:"shotsFired"`
	Headshots      uint16  `json:"headshots"`
	DamageDealt    float32 `json:"damageDealt"`
	DamageTaken    float32 `json:"damageTaken"`
	EliminatedAtMs int64   `json:"eliminatedAtMs"` // game time, 0 if never eliminated
}

func (*MatchPlayer) TableName() string {
	return "match_players"
}

// KillEvent is one kill feed entry. Killer is NULL when nobody is credited,
// in which case Source explains the elimination.
type KillEvent struct {
	ID   uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time time.Time `json:"time"`

	MatchID uint  `json:"matchId" gorm:"index:idx_killevent_match_id"`
	Match   Match `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MatchID;"`
	Tick    uint  `json:"tick" gorm:"index:idx_killevent_tick;"`

	Victim    string         `json:"victim" gorm:"size:64;index:idx_killevent_victim"`
	Killer    sql.NullString `json:"killer" gorm:"size:64;index:idx_killevent_killer"`
	Source    string         `json:"source" gorm:"size:32"`
	Weapon    string         `json:"weapon" gorm:"size:64"`
	Headshot  bool           `json:"headshot"`
	Distance  float32        `json:"distance"`
	Placement uint16         `json:"placement"`
	GameMs    int64          `json:"gameMs"`

	Position  geom.Point `json:"position"`
	Elevation float32    `json:"elevation"`
}

func (*KillEvent) TableName() string {
	return "kill_events"
}

// MatchEvent stores every other outbound event as JSON. game_tick events
// are not persisted.
type MatchEvent struct {
	ID      uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	Time    time.Time      `json:"time"`
	MatchID uint           `json:"matchId" gorm:"index:idx_matchevent_match_id"`
	Match   Match          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MatchID;"`
	Tick    uint           `json:"tick" gorm:"index:idx_matchevent_tick;"`
	GameMs  int64          `json:"gameMs"`
	Type    string         `json:"type" gorm:"size:32;index:idx_matchevent_type"`
	Data    datatypes.JSON `json:"data"`
}

func (*MatchEvent) TableName() string {
	return "match_events"
}
