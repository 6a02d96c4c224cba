package loot

import (
	"math"
	"sort"
	"time"
)

// WeaponClass is the closed set of weapon kinds. Behaviour that differs per
// class is decided by exhaustive switches on this type.
type WeaponClass int

const (
	AssaultRifle WeaponClass = iota
	SMG
	Shotgun
	Sniper
	Pistol
	Launcher
)

func (c WeaponClass) String() string {
	switch c {
	case AssaultRifle:
		return "assault_rifle"
	case SMG:
		return "smg"
	case Shotgun:
		return "shotgun"
	case Sniper:
		return "sniper"
	case Pistol:
		return "pistol"
	case Launcher:
		return "launcher"
	}
	return "unknown"
}

// Piercing reports whether projectiles of this class continue after a hit.
func (c WeaponClass) Piercing() bool {
	switch c {
	case Sniper:
		return true
	case AssaultRifle, SMG, Shotgun, Pistol, Launcher:
		return false
	}
	return false
}

// Explosive reports whether projectiles of this class detonate with area damage.
func (c WeaponClass) Explosive() bool {
	switch c {
	case Launcher:
		return true
	case AssaultRifle, SMG, Shotgun, Sniper, Pistol:
		return false
	}
	return false
}

// Archetype is the unscaled template of a weapon.
type Archetype struct {
	Name               string
	Class              WeaponClass
	Damage             float64
	FireRate           float64 // shots per second
	Range              float64
	Magazine           int
	ReloadTime         time.Duration
	Accuracy           float64 // 0..1, 1 is perfectly accurate
	ProjectileSpeed    float64
	HeadshotMultiplier float64
	ExplosionRadius    float64
}

var Archetypes = []Archetype{
	{Name: "AR-15", Class: AssaultRifle, Damage: 20, FireRate: 8, Range: 3000, Magazine: 30, ReloadTime: 2200 * time.Millisecond, Accuracy: 0.85, ProjectileSpeed: 9000, HeadshotMultiplier: 2},
	{Name: "Vector", Class: SMG, Damage: 14, FireRate: 12, Range: 1500, Magazine: 25, ReloadTime: 1800 * time.Millisecond, Accuracy: 0.75, ProjectileSpeed: 7000, HeadshotMultiplier: 1.75},
	{Name: "Pump", Class: Shotgun, Damage: 70, FireRate: 1, Range: 600, Magazine: 5, ReloadTime: 3 * time.Second, Accuracy: 0.6, ProjectileSpeed: 6000, HeadshotMultiplier: 1.5},
	{Name: "Longbow", Class: Sniper, Damage: 90, FireRate: 0.8, Range: 8000, Magazine: 5, ReloadTime: 3500 * time.Millisecond, Accuracy: 0.97, ProjectileSpeed: 15000, HeadshotMultiplier: 2.5},
	{Name: "P92", Class: Pistol, Damage: 18, FireRate: 4, Range: 1200, Magazine: 12, ReloadTime: 1500 * time.Millisecond, Accuracy: 0.8, ProjectileSpeed: 6000, HeadshotMultiplier: 2},
	{Name: "RPG", Class: Launcher, Damage: 110, FireRate: 0.5, Range: 2500, Magazine: 1, ReloadTime: 4 * time.Second, Accuracy: 0.9, ProjectileSpeed: 3000, HeadshotMultiplier: 1, ExplosionRadius: 300},
}

// Weapon is an instantiated archetype with its runtime ammunition state.
type Weapon struct {
	Base
	Stats   Archetype
	Ammo    int
	Reserve int

	LastFired   time.Duration
	HasFired    bool
	Reloading   bool
	ReloadStart time.Duration

	Attachments map[AttachmentKind]*Attachment
}

func (*Weapon) Category() Category { return CategoryWeapon }

// ReserveMagazines is how many full magazines of reserve a new weapon carries.
const ReserveMagazines = 3

// NewWeapon instantiates an archetype at the given rarity with a full magazine.
func NewWeapon(id string, a Archetype, r Rarity) *Weapon {
	m := r.Multiplier()
	stats := a
	stats.Damage = math.Round(a.Damage*m*10) / 10
	stats.Accuracy = math.Min(0.99, a.Accuracy*(1+(m-1)/2))
	stats.Magazine = int(math.Round(float64(a.Magazine) * (1 + (m-1)/2)))
	if stats.Magazine < 1 {
		stats.Magazine = 1
	}

	return &Weapon{
		Base:        Base{ID: id, Name: a.Name, Rarity: r},
		Stats:       stats,
		Ammo:        stats.Magazine,
		Reserve:     stats.Magazine * ReserveMagazines,
		Attachments: make(map[AttachmentKind]*Attachment),
	}
}

// Effective returns the weapon's stats with attachments applied.
func (w *Weapon) Effective() Archetype {
	s := w.Stats
	for kind, a := range w.Attachments {
		switch kind {
		case ExtendedMag:
			s.Magazine = int(math.Round(float64(s.Magazine) * (1 + a.Bonus)))
		case Stabilizer:
			s.Accuracy = math.Min(0.99, s.Accuracy+a.Bonus/2)
		case Scope:
			s.Range *= 1 + a.Bonus
		}
	}
	return s
}

// Cooldown is the minimum time between two shots.
func (w *Weapon) Cooldown() time.Duration {
	if w.Stats.FireRate <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / w.Stats.FireRate)
}

// Ready reports whether the fire-rate cooldown has elapsed at now.
func (w *Weapon) Ready(now time.Duration) bool {
	return !w.HasFired || now-w.LastFired >= w.Cooldown()
}

// Attach fits an attachment when the weapon's slot for that kind is free.
func (w *Weapon) Attach(a *Attachment) bool {
	if w.Attachments == nil {
		w.Attachments = make(map[AttachmentKind]*Attachment)
	}
	if _, taken := w.Attachments[a.Kind]; taken {
		return false
	}
	w.Attachments[a.Kind] = a
	return true
}

// AttachmentNames lists fitted attachments in a stable order.
func (w *Weapon) AttachmentNames() []string {
	names := make([]string, 0, len(w.Attachments))
	for kind := range w.Attachments {
		names = append(names, string(kind))
	}
	sort.Strings(names)
	return names
}

// StartReload begins a timed reload. It fails when already reloading, when
// the magazine is full or when there is no reserve.
func (w *Weapon) StartReload(now time.Duration) bool {
	if w.Reloading || w.Reserve <= 0 || w.Ammo >= w.Effective().Magazine {
		return false
	}
	w.Reloading = true
	w.ReloadStart = now
	return true
}

// CancelReload abandons a reload in progress. The magazine is unchanged.
func (w *Weapon) CancelReload() {
	w.Reloading = false
	w.ReloadStart = 0
}

// CompleteReload finishes a reload whose duration has elapsed, moving
// min(deficit, reserve) rounds into the magazine.
func (w *Weapon) CompleteReload(now time.Duration) bool {
	if !w.Reloading || now-w.ReloadStart < w.Stats.ReloadTime {
		return false
	}
	deficit := w.Effective().Magazine - w.Ammo
	moved := min(deficit, w.Reserve)
	if moved > 0 {
		w.Ammo += moved
		w.Reserve -= moved
	}
	w.Reloading = false
	return true
}
