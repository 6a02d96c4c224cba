// Package player holds per-player state: health and shield, the knockdown
// and revive lifecycle, movement and inventory rules.
package player

import (
	"math"
	"time"

	"github.com/OCAP2/royale/internal/geo"
	"github.com/OCAP2/royale/internal/loot"
	"github.com/OCAP2/royale/pkg/core"
)

// Config holds the lifecycle and movement constants shared by every player in a match.
type Config struct {
	MaxHealth    float64
	MaxShield    float64
	DownHealth   float64
	ReviveHealth float64

	BleedOut       time.Duration
	ReviveRadius   float64
	ReviveDuration time.Duration
	ReviveDecay    float64 // progress lost per second when nobody is reviving

	ConsumableSlots int
	InteractRange   float64

	WalkSpeed        float64
	SprintMultiplier float64
	CrouchMultiplier float64
	DownedMultiplier float64
}

// DefaultConfig returns the standard rule set.
func DefaultConfig() Config {
	return Config{
		MaxHealth:        100,
		MaxShield:        100,
		DownHealth:       30,
		ReviveHealth:     30,
		BleedOut:         30 * time.Second,
		ReviveRadius:     150,
		ReviveDuration:   5 * time.Second,
		ReviveDecay:      0.5,
		ConsumableSlots:  6,
		InteractRange:    150,
		WalkSpeed:        350,
		SprintMultiplier: 1.5,
		CrouchMultiplier: 0.5,
		DownedMultiplier: 0.25,
	}
}

// Player is one roster entry. It is owned by the match and mutated only
// from within a tick.
type Player struct {
	cfg *Config

	ID     string
	TeamID string

	Position core.Vec3
	Heading  float64
	Velocity core.Vec3

	Health float64
	Shield float64
	Status core.PlayerStatus

	DownedAt       time.Duration
	KnockedBy      string
	KnockedWeapon  string
	ReviveProgress float64
	RevivingTarget string

	Weapons     [2]*loot.Weapon
	ActiveSlot  int
	Armor       *loot.Armor
	Consumables []*loot.Consumable

	Stats   core.PlayerStats
	LastSeq uint64

	InZone        bool
	ZoneEnteredAt time.Duration
	ZoneExitedAt  time.Duration
	ZoneDamageAcc float64

	VehicleID string
	Seat      string

	Drop       core.DropState
	DropTarget *core.Vec3

	Spectating   string
	EliminatedAt time.Duration
}

// New creates a player at full health, waiting in the lobby.
func New(id, teamID string, cfg *Config) *Player {
	return &Player{
		cfg:    cfg,
		ID:     id,
		TeamID: teamID,
		Health: cfg.MaxHealth,
		Status: core.StatusUp,
		Drop:   core.DropLanded,
		InZone: true,
	}
}

// Config returns the rule set the player was created with.
func (p *Player) Config() *Config {
	return p.cfg
}

// Alive reports whether the player is still in the match (up or down).
func (p *Player) Alive() bool {
	return p.Status != core.StatusEliminated
}

func (p *Player) Up() bool {
	return p.Status == core.StatusUp
}

func (p *Player) Down() bool {
	return p.Status == core.StatusDown
}

// Grounded reports whether the player has landed and is not riding a vehicle.
func (p *Player) Grounded() bool {
	return p.Drop == core.DropLanded && p.VehicleID == ""
}

// DamageResult describes where incoming damage went.
type DamageResult struct {
	Absorbed    float64 // removed by armor protection
	ToShield    float64
	ToHealth    float64
	Lethal      bool
	ArmorBroken *loot.Armor
}

// Applied is the damage that reached shield or health.
func (r DamageResult) Applied() float64 {
	return r.ToShield + r.ToHealth
}

// ApplyDamage runs the armor, shield, health pipeline. Armor durability drops
// by the unreduced amount and the armor is discarded when it reaches zero.
func (p *Player) ApplyDamage(amount float64) DamageResult {
	var res DamageResult
	if amount <= 0 || !p.Alive() {
		return res
	}

	remaining := amount
	if p.Armor != nil {
		res.Absorbed = amount * p.Armor.Protection / 100
		remaining -= res.Absorbed
		p.Armor.Durability = math.Max(0, p.Armor.Durability-amount)
		if p.Armor.Durability == 0 {
			res.ArmorBroken = p.Armor
			p.Armor = nil
		}
	}

	res.ToShield = math.Min(p.Shield, remaining)
	p.Shield -= res.ToShield
	remaining -= res.ToShield

	return p.hitHealth(remaining, res)
}

// ApplyTrueDamage bypasses armor and shield.
func (p *Player) ApplyTrueDamage(amount float64) DamageResult {
	if amount <= 0 || !p.Alive() {
		return DamageResult{}
	}
	return p.hitHealth(amount, DamageResult{})
}

func (p *Player) hitHealth(amount float64, res DamageResult) DamageResult {
	res.ToHealth = math.Min(p.Health, amount)
	p.Health -= res.ToHealth
	res.Lethal = p.Health <= 0
	if res.Lethal {
		p.Health = 0
	}
	p.Stats.DamageTaken += res.Applied()
	return res
}

// Knock puts the player in the downed state.
func (p *Player) Knock(now time.Duration, by, weapon string) {
	p.Status = core.StatusDown
	p.Health = p.cfg.DownHealth
	p.ReviveProgress = 0
	p.DownedAt = now
	p.KnockedBy = by
	p.KnockedWeapon = weapon
	p.RevivingTarget = ""
	p.Velocity = core.Vec3{}
}

// Revive returns a downed player to the up state with partial health.
func (p *Player) Revive() {
	p.Status = core.StatusUp
	p.Health = p.cfg.ReviveHealth
	p.ReviveProgress = 0
	p.DownedAt = 0
	p.KnockedBy = ""
	p.KnockedWeapon = ""
}

// Eliminate freezes the player with the given placement.
func (p *Player) Eliminate(now time.Duration, placement int) {
	p.Status = core.StatusEliminated
	p.Health = 0
	p.Shield = 0
	p.ReviveProgress = 0
	p.RevivingTarget = ""
	p.Velocity = core.Vec3{}
	p.Stats.Placement = placement
	p.EliminatedAt = now
}

// BledOut reports whether a downed player has exceeded the bleed-out timeout.
func (p *Player) BledOut(now time.Duration) bool {
	return p.Down() && now-p.DownedAt >= p.cfg.BleedOut
}

// AdvanceRevive moves revive progress forward while a teammate is reviving,
// and decays it otherwise. It reports whether the revive completed.
func (p *Player) AdvanceRevive(dt time.Duration, beingRevived bool) bool {
	if !p.Down() {
		return false
	}
	if beingRevived {
		p.ReviveProgress += dt.Seconds() / p.cfg.ReviveDuration.Seconds()
	} else {
		p.ReviveProgress = math.Max(0, p.ReviveProgress-p.cfg.ReviveDecay*dt.Seconds())
	}
	if p.ReviveProgress >= 1 {
		p.ReviveProgress = 1
		return true
	}
	return false
}

// SetMove sets the ground velocity from a move input.
func (p *Player) SetMove(dir core.Vec3, magnitude float64, sprint, crouch bool) {
	d := dir.Flat().Normalize()
	speed := p.cfg.WalkSpeed * magnitude
	switch {
	case p.Down():
		speed *= p.cfg.DownedMultiplier
	case crouch:
		speed *= p.cfg.CrouchMultiplier
	case sprint:
		speed *= p.cfg.SprintMultiplier
	}
	p.Velocity = d.Scale(speed)
	if speed > 0 {
		p.Heading = d.Heading()
	}
}

// Integrate advances the position by the current velocity and keeps it in bounds.
func (p *Player) Integrate(dt time.Duration, bounds geo.Bounds) {
	if p.Velocity == (core.Vec3{}) {
		return
	}
	p.Position = bounds.Clamp(p.Position.Add(p.Velocity.Scale(dt.Seconds())))
}

// Heal restores health and shield within their bounds.
func (p *Player) Heal(health, healthCap, shield float64) {
	if healthCap <= 0 || healthCap > p.cfg.MaxHealth {
		healthCap = p.cfg.MaxHealth
	}
	if health > 0 && p.Health < healthCap {
		p.Health = math.Min(healthCap, p.Health+health)
	}
	if shield > 0 {
		p.Shield = math.Min(p.cfg.MaxShield, p.Shield+shield)
	}
}

// State returns a read-only snapshot.
func (p *Player) State() core.PlayerState {
	s := core.PlayerState{
		ID:             p.ID,
		TeamID:         p.TeamID,
		Position:       p.Position,
		Heading:        p.Heading,
		Health:         p.Health,
		MaxHealth:      p.cfg.MaxHealth,
		Shield:         p.Shield,
		MaxShield:      p.cfg.MaxShield,
		Status:         p.Status,
		ReviveProgress: p.ReviveProgress,
		DropState:      p.Drop,
		ActiveSlot:     p.ActiveSlot,
		Stats:          p.Stats,
		InZone:         p.InZone,
		VehicleID:      p.VehicleID,
		Spectating:     p.Spectating,
		Consumables:    make([]core.ConsumableStack, 0, len(p.Consumables)),
	}
	for i, w := range p.Weapons {
		if w == nil {
			continue
		}
		s.Weapons[i] = &core.WeaponState{
			ID:          w.ID,
			Name:        w.Name,
			Class:       w.Stats.Class.String(),
			Rarity:      w.Rarity.String(),
			Ammo:        w.Ammo,
			Reserve:     w.Reserve,
			Magazine:    w.Effective().Magazine,
			Reloading:   w.Reloading,
			Attachments: w.AttachmentNames(),
		}
	}
	if p.Armor != nil {
		s.Armor = &core.ArmorState{
			ID:            p.Armor.ID,
			Name:          p.Armor.Name,
			Rarity:        p.Armor.Rarity.String(),
			Protection:    p.Armor.Protection,
			Durability:    p.Armor.Durability,
			MaxDurability: p.Armor.MaxDurability,
		}
	}
	for _, c := range p.Consumables {
		s.Consumables = append(s.Consumables, core.ConsumableStack{ID: c.ID, Kind: string(c.Kind), Count: c.Count})
	}
	return s
}
