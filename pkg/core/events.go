// pkg/core/events.go
package core

import "time"

// EventType names an outbound domain event.
type EventType string

const (
	EventMatchStarted        EventType = "match_started"
	EventGameTick            EventType = "game_tick"
	EventZoneShrinkStarted   EventType = "zone_shrink_started"
	EventZoneShrinkCompleted EventType = "zone_shrink_completed"
	EventFinalCircle         EventType = "final_circle"
	EventPlayerLanded        EventType = "player_landed"
	EventPlayerKnockedDown   EventType = "player_knocked_down"
	EventPlayerRevived       EventType = "player_revived"
	EventPlayerEliminated    EventType = "player_eliminated"
	EventTeamEliminated      EventType = "team_eliminated"
	EventWeaponFired         EventType = "weapon_fired"
	EventPlayerHit           EventType = "player_hit"
	EventExplosion           EventType = "explosion"
	EventLootPickedUp        EventType = "loot_picked_up"
	EventItemDropped         EventType = "item_dropped"
	EventVehicleEntered      EventType = "vehicle_entered"
	EventVehicleExited       EventType = "vehicle_exited"
	EventVehicleDestroyed    EventType = "vehicle_destroyed"
	EventVehicleHorn         EventType = "vehicle_horn"
	EventDoorToggled         EventType = "door_toggled"
	EventMatchEnded          EventType = "match_ended"
)

// DamageSource tags damage that is not attributed to a weapon, or explains
// how an elimination happened.
type DamageSource string

const (
	SourceWeapon           DamageSource = "weapon"
	SourceZone             DamageSource = "zone"
	SourceBleedOut         DamageSource = "bleed_out"
	SourceVehicleCollision DamageSource = "vehicle_collision"
	SourceVehicleExplosion DamageSource = "vehicle_explosion"
	SourceTeamWipe         DamageSource = "team_wipe"
)

// Event is one entry in a tick's ordered output queue.
type Event struct {
	Type     EventType     `json:"type" msgpack:"type"`
	Tick     uint64        `json:"tick" msgpack:"tick"`
	GameTime time.Duration `json:"gameTime" msgpack:"gameTime"`
	Data     any           `json:"data,omitempty" msgpack:"data,omitempty"`
}

type MatchStarted struct {
	MatchID  string `json:"matchId" msgpack:"matchId"`
	Players  int    `json:"players" msgpack:"players"`
	Teams    int    `json:"teams" msgpack:"teams"`
	DropPath []Vec3 `json:"dropPath" msgpack:"dropPath"`
}

type GameTick struct {
	Tick         uint64        `json:"tick" msgpack:"tick"`
	GameTime     time.Duration `json:"gameTime" msgpack:"gameTime"`
	PlayersAlive int           `json:"playersAlive" msgpack:"playersAlive"`
}

type ZoneShrink struct {
	Phase        int           `json:"phase" msgpack:"phase"`
	Center       Vec3          `json:"center" msgpack:"center"`
	Radius       float64       `json:"radius" msgpack:"radius"`
	TargetCenter Vec3          `json:"targetCenter" msgpack:"targetCenter"`
	TargetRadius float64       `json:"targetRadius" msgpack:"targetRadius"`
	Duration     time.Duration `json:"duration" msgpack:"duration"`
}

type FinalCircle struct {
	Phase int `json:"phase" msgpack:"phase"`
}

type PlayerLanded struct {
	PlayerID string `json:"playerId" msgpack:"playerId"`
	Position Vec3   `json:"position" msgpack:"position"`
}

type PlayerKnockedDown struct {
	PlayerID   string       `json:"playerId" msgpack:"playerId"`
	AttackerID string       `json:"attackerId,omitempty" msgpack:"attackerId,omitempty"`
	Source     DamageSource `json:"source" msgpack:"source"`
}

type PlayerRevived struct {
	PlayerID  string `json:"playerId" msgpack:"playerId"`
	ReviverID string `json:"reviverId" msgpack:"reviverId"`
}

type PlayerEliminated struct {
	PlayerID  string        `json:"playerId" msgpack:"playerId"`
	Placement int           `json:"placement" msgpack:"placement"`
	Kill      KillFeedEntry `json:"kill" msgpack:"kill"`
}

type TeamEliminated struct {
	TeamID    string `json:"teamId" msgpack:"teamId"`
	Placement int    `json:"placement" msgpack:"placement"`
}

type WeaponFired struct {
	PlayerID     string `json:"playerId" msgpack:"playerId"`
	Weapon       string `json:"weapon" msgpack:"weapon"`
	Slot         int    `json:"slot" msgpack:"slot"`
	ProjectileID string `json:"projectileId" msgpack:"projectileId"`
	Origin       Vec3   `json:"origin" msgpack:"origin"`
	Direction    Vec3   `json:"direction" msgpack:"direction"`
	Ammo         int    `json:"ammo" msgpack:"ammo"`
}

type PlayerHit struct {
	TargetID   string  `json:"targetId" msgpack:"targetId"`
	AttackerID string  `json:"attackerId" msgpack:"attackerId"`
	Weapon     string  `json:"weapon" msgpack:"weapon"`
	Damage     float64 `json:"damage" msgpack:"damage"`
	Headshot   bool    `json:"headshot" msgpack:"headshot"`
	Shield     float64 `json:"shield" msgpack:"shield"`
	Health     float64 `json:"health" msgpack:"health"`
}

type Explosion struct {
	ProjectileID string  `json:"projectileId" msgpack:"projectileId"`
	OwnerID      string  `json:"ownerId" msgpack:"ownerId"`
	Weapon       string  `json:"weapon" msgpack:"weapon"`
	Position     Vec3    `json:"position" msgpack:"position"`
	Radius       float64 `json:"radius" msgpack:"radius"`
}

type LootPickedUp struct {
	PlayerID string `json:"playerId" msgpack:"playerId"`
	ItemID   string `json:"itemId" msgpack:"itemId"`
	Category string `json:"category" msgpack:"category"`
	Name     string `json:"name" msgpack:"name"`
	Rarity   string `json:"rarity" msgpack:"rarity"`
}

type ItemDropped struct {
	PlayerID string `json:"playerId" msgpack:"playerId"`
	ItemID   string `json:"itemId" msgpack:"itemId"`
	Category string `json:"category" msgpack:"category"`
	Name     string `json:"name" msgpack:"name"`
	Position Vec3   `json:"position" msgpack:"position"`
}

type VehicleSeat struct {
	VehicleID string `json:"vehicleId" msgpack:"vehicleId"`
	PlayerID  string `json:"playerId" msgpack:"playerId"`
	Seat      string `json:"seat" msgpack:"seat"`
}

type VehicleDestroyed struct {
	VehicleID  string `json:"vehicleId" msgpack:"vehicleId"`
	AttackerID string `json:"attackerId,omitempty" msgpack:"attackerId,omitempty"`
	Position   Vec3   `json:"position" msgpack:"position"`
}

type VehicleHornSounded struct {
	VehicleID string `json:"vehicleId" msgpack:"vehicleId"`
	PlayerID  string `json:"playerId" msgpack:"playerId"`
}

type DoorToggled struct {
	DoorID   string `json:"doorId" msgpack:"doorId"`
	PlayerID string `json:"playerId" msgpack:"playerId"`
	Open     bool   `json:"open" msgpack:"open"`
}

type MatchEnded struct {
	MatchID  string         `json:"matchId" msgpack:"matchId"`
	Winner   *Winner        `json:"winner" msgpack:"winner"`
	Reason   EndReason      `json:"reason" msgpack:"reason"`
	Duration time.Duration  `json:"duration" msgpack:"duration"`
	Stats    []PlayerResult `json:"stats" msgpack:"stats"`
}
