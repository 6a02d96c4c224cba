// pkg/core/state.go
package core

import "time"

// PlayerStatus is the player's lifecycle state.
type PlayerStatus string

const (
	StatusUp         PlayerStatus = "up"
	StatusDown       PlayerStatus = "down"
	StatusEliminated PlayerStatus = "eliminated"
)

// DropState tracks a player's progress from the dropship to the ground.
type DropState string

const (
	DropAboard      DropState = "aboard"
	DropParachuting DropState = "parachuting"
	DropLanded      DropState = "landed"
)

// ZoneStage is what the zone is currently doing within its phase.
type ZoneStage string

const (
	ZoneIdle      ZoneStage = "idle"
	ZoneWaiting   ZoneStage = "waiting"
	ZoneShrinking ZoneStage = "shrinking"
	ZoneClosed    ZoneStage = "closed"
)

// PlayerStats accumulates over a match.
type PlayerStats struct {
	Kills       int     `json:"kills" msgpack:"kills"`
	Knockdowns  int     `json:"knockdowns" msgpack:"knockdowns"`
	Revives     int     `json:"revives" msgpack:"revives"`
	ShotsFired  int     `json:"shotsFired" msgpack:"shotsFired"`
	Headshots   int     `json:"headshots" msgpack:"headshots"`
	DamageDealt float64 `json:"damageDealt" msgpack:"damageDealt"`
	DamageTaken float64 `json:"damageTaken" msgpack:"damageTaken"`
	Placement   int     `json:"placement" msgpack:"placement"`
}

type ZoneState struct {
	Phase           int           `json:"phase" msgpack:"phase"`
	Stage           ZoneStage     `json:"stage" msgpack:"stage"`
	Center          Vec3          `json:"center" msgpack:"center"`
	Radius          float64       `json:"radius" msgpack:"radius"`
	TargetCenter    Vec3          `json:"targetCenter" msgpack:"targetCenter"`
	TargetRadius    float64       `json:"targetRadius" msgpack:"targetRadius"`
	StageRemaining  time.Duration `json:"stageRemaining" msgpack:"stageRemaining"`
	DamagePerSecond float64       `json:"damagePerSecond" msgpack:"damagePerSecond"`
}

// GameState is a read-only snapshot of a match.
type GameState struct {
	MatchID      string          `json:"matchId" msgpack:"matchId"`
	Phase        Phase           `json:"phase" msgpack:"phase"`
	Tick         uint64          `json:"tick" msgpack:"tick"`
	GameTime     time.Duration   `json:"gameTime" msgpack:"gameTime"`
	PlayersAlive int             `json:"playersAlive" msgpack:"playersAlive"`
	TeamsAlive   int             `json:"teamsAlive" msgpack:"teamsAlive"`
	Zone         ZoneState       `json:"zone" msgpack:"zone"`
	Dropship     *Vec3           `json:"dropship,omitempty" msgpack:"dropship,omitempty"`
	KillFeed     []KillFeedEntry `json:"killFeed" msgpack:"killFeed"`
	Winner       *Winner         `json:"winner,omitempty" msgpack:"winner,omitempty"`
}

type WeaponState struct {
	ID          string   `json:"id" msgpack:"id"`
	Name        string   `json:"name" msgpack:"name"`
	Class       string   `json:"class" msgpack:"class"`
	Rarity      string   `json:"rarity" msgpack:"rarity"`
	Ammo        int      `json:"ammo" msgpack:"ammo"`
	Reserve     int      `json:"reserve" msgpack:"reserve"`
	Magazine    int      `json:"magazine" msgpack:"magazine"`
	Reloading   bool     `json:"reloading" msgpack:"reloading"`
	Attachments []string `json:"attachments,omitempty" msgpack:"attachments,omitempty"`
}

type ArmorState struct {
	ID            string  `json:"id" msgpack:"id"`
	Name          string  `json:"name" msgpack:"name"`
	Rarity        string  `json:"rarity" msgpack:"rarity"`
	Protection    float64 `json:"protection" msgpack:"protection"`
	Durability    float64 `json:"durability" msgpack:"durability"`
	MaxDurability float64 `json:"maxDurability" msgpack:"maxDurability"`
}

type ConsumableStack struct {
	ID    string `json:"id" msgpack:"id"`
	Kind  string `json:"kind" msgpack:"kind"`
	Count int    `json:"count" msgpack:"count"`
}

// PlayerState is a read-only view of one player.
type PlayerState struct {
	ID             string            `json:"id" msgpack:"id"`
	TeamID         string            `json:"teamId" msgpack:"teamId"`
	Position       Vec3              `json:"position" msgpack:"position"`
	Heading        float64           `json:"heading" msgpack:"heading"`
	Health         float64           `json:"health" msgpack:"health"`
	MaxHealth      float64           `json:"maxHealth" msgpack:"maxHealth"`
	Shield         float64           `json:"shield" msgpack:"shield"`
	MaxShield      float64           `json:"maxShield" msgpack:"maxShield"`
	Status         PlayerStatus      `json:"status" msgpack:"status"`
	ReviveProgress float64           `json:"reviveProgress" msgpack:"reviveProgress"`
	DropState      DropState         `json:"dropState" msgpack:"dropState"`
	ActiveSlot     int               `json:"activeSlot" msgpack:"activeSlot"`
	Weapons        [2]*WeaponState   `json:"weapons" msgpack:"weapons"`
	Armor          *ArmorState       `json:"armor,omitempty" msgpack:"armor,omitempty"`
	Consumables    []ConsumableStack `json:"consumables" msgpack:"consumables"`
	Stats          PlayerStats       `json:"stats" msgpack:"stats"`
	InZone         bool              `json:"inZone" msgpack:"inZone"`
	VehicleID      string            `json:"vehicleId,omitempty" msgpack:"vehicleId,omitempty"`
	Spectating     string            `json:"spectating,omitempty" msgpack:"spectating,omitempty"`
}
