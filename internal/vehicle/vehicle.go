// Package vehicle implements drivable vehicles: seating, driving, fuel,
// idle decay, damage and run-over collisions.
package vehicle

import (
	"math"
	"time"

	"github.com/OCAP2/royale/internal/geo"
	"github.com/OCAP2/royale/pkg/core"
)

// Kind is the vehicle model.
type Kind string

const (
	Buggy Kind = "buggy"
	Jeep  Kind = "jeep"
	Truck Kind = "truck"
)

// Seat names.
const (
	SeatDriver    = "driver"
	SeatPassenger = "passenger"
	SeatGunner    = "gunner"
)

// Spec is the fixed data of a vehicle kind.
type Spec struct {
	Seats     []string
	MaxHealth float64
	MaxFuel   float64
	Speed     float64
	Radius    float64
}

var Specs = map[Kind]Spec{
	Buggy: {
		Seats:     []string{SeatDriver, SeatPassenger},
		MaxHealth: 600, MaxFuel: 100, Speed: 1800, Radius: 150,
	},
	Jeep: {
		Seats:     []string{SeatDriver, SeatPassenger, SeatGunner, SeatPassenger},
		MaxHealth: 1000, MaxFuel: 100, Speed: 1500, Radius: 200,
	},
	Truck: {
		Seats:     []string{SeatDriver, SeatPassenger, SeatPassenger, SeatPassenger, SeatPassenger, SeatPassenger},
		MaxHealth: 1600, MaxFuel: 100, Speed: 1100, Radius: 300,
	},
}

// Kinds lists the kinds in placement order.
var Kinds = []Kind{Buggy, Jeep, Truck}

// Config holds the rules shared by every vehicle in a match.
type Config struct {
	EnterRange        float64
	FuelPerSecond     float64 // burned at full throttle
	IdleThreshold     time.Duration
	IdleDecay         float64 // health lost per second once idle
	CollisionFactor   float64
	CollisionMinSpeed float64
	CollisionCooldown time.Duration
	DestroyDamage     float64 // dealt to each occupant on destruction
}

func DefaultConfig() Config {
	return Config{
		EnterRange:        150,
		FuelPerSecond:     0.5,
		IdleThreshold:     time.Minute,
		IdleDecay:         5,
		CollisionFactor:   0.05,
		CollisionMinSpeed: 200,
		CollisionCooldown: time.Second,
		DestroyDamage:     40,
	}
}

// Vehicle is one vehicle in the world. It is mutated only from the match tick.
type Vehicle struct {
	cfg  *Config
	spec Spec

	ID       string
	Kind     Kind
	Position core.Vec3
	Velocity core.Vec3
	Heading  float64
	Throttle float64

	Health    float64
	Fuel      float64
	Destroyed bool

	seats        []string
	lastOccupied time.Duration
	lastHit      map[string]time.Duration
}

// New creates a full, empty vehicle.
func New(id string, kind Kind, pos core.Vec3, cfg *Config) *Vehicle {
	spec, ok := Specs[kind]
	if !ok {
		kind, spec = Buggy, Specs[Buggy]
	}
	return &Vehicle{
		cfg:      cfg,
		spec:     spec,
		ID:       id,
		Kind:     kind,
		Position: pos,
		Health:   spec.MaxHealth,
		Fuel:     spec.MaxFuel,
		seats:    make([]string, len(spec.Seats)),
		lastHit:  make(map[string]time.Duration),
	}
}

func (v *Vehicle) Spec() Spec {
	return v.spec
}

// Occupants returns the seated players in seat order.
func (v *Vehicle) Occupants() []string {
	var out []string
	for _, p := range v.seats {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (v *Vehicle) Occupied() bool {
	for _, p := range v.seats {
		if p != "" {
			return true
		}
	}
	return false
}

// Driver returns the player in the driver seat, or "".
func (v *Vehicle) Driver() string {
	return v.seats[0]
}

// SeatOf returns the seat index a player occupies.
func (v *Vehicle) SeatOf(playerID string) (int, bool) {
	for i, p := range v.seats {
		if p == playerID {
			return i, true
		}
	}
	return -1, false
}

// SeatName returns the name of seat i.
func (v *Vehicle) SeatName(i int) string {
	if i < 0 || i >= len(v.spec.Seats) {
		return ""
	}
	return v.spec.Seats[i]
}

// Enter seats a player who stands within range. The driver seat is taken
// when free, otherwise the first free seat.
func (v *Vehicle) Enter(playerID string, pos core.Vec3, now time.Duration) (int, bool) {
	if v.Destroyed || pos.Dist2D(v.Position) > v.cfg.EnterRange+v.spec.Radius {
		return -1, false
	}
	if _, seated := v.SeatOf(playerID); seated {
		return -1, false
	}
	for i, p := range v.seats {
		if p == "" {
			v.seats[i] = playerID
			v.lastOccupied = now
			return i, true
		}
	}
	return -1, false
}

// Exit removes a player and returns where they are placed: beside the
// vehicle, clear of its radius, clamped to bounds.
func (v *Vehicle) Exit(playerID string, bounds geo.Bounds, now time.Duration) (core.Vec3, bool) {
	i, ok := v.SeatOf(playerID)
	if !ok {
		return core.Vec3{}, false
	}
	v.seats[i] = ""
	v.lastOccupied = now
	if i == 0 {
		v.Throttle = 0
		v.Velocity = core.Vec3{}
	}
	return v.ejectPosition(i, bounds), true
}

// EjectAll empties every seat and returns the placement of each occupant.
func (v *Vehicle) EjectAll(bounds geo.Bounds) map[string]core.Vec3 {
	out := make(map[string]core.Vec3)
	for i, p := range v.seats {
		if p == "" {
			continue
		}
		out[p] = v.ejectPosition(i, bounds)
		v.seats[i] = ""
	}
	v.Throttle = 0
	v.Velocity = core.Vec3{}
	return out
}

func (v *Vehicle) ejectPosition(seat int, bounds geo.Bounds) core.Vec3 {
	side := 1.0
	if seat%2 == 1 {
		side = -1
	}
	offset := v.spec.Radius + 50
	// Perpendicular to the heading on the ground plane.
	dir := core.V(-math.Sin(v.Heading), math.Cos(v.Heading), 0).Scale(side * offset)
	pos := v.Position.Add(dir)
	pos.Z = 0
	return bounds.Clamp(pos)
}

// Drive sets the throttle and direction. Only the driver may drive and the
// vehicle does not move without fuel.
func (v *Vehicle) Drive(playerID string, dir core.Vec3, magnitude float64) bool {
	if v.Destroyed || v.Driver() != playerID || playerID == "" {
		return false
	}
	if v.Fuel <= 0 || magnitude < 0 || magnitude > 1 {
		return false
	}
	d := dir.Flat().Normalize()
	v.Throttle = magnitude
	v.Velocity = d.Scale(v.spec.Speed * magnitude)
	if magnitude > 0 && d != (core.Vec3{}) {
		v.Heading = d.Heading()
	}
	return true
}

// Horn reports whether playerID may sound the horn.
func (v *Vehicle) Horn(playerID string) bool {
	_, ok := v.SeatOf(playerID)
	return ok && !v.Destroyed
}

// Update integrates motion, burns fuel and applies idle decay. It reports
// whether the vehicle was destroyed by decay during this step.
func (v *Vehicle) Update(now, dt time.Duration, bounds geo.Bounds) bool {
	if v.Destroyed {
		return false
	}
	secs := dt.Seconds()

	if v.Fuel <= 0 {
		v.Throttle = 0
		v.Velocity = core.Vec3{}
	}
	if v.Velocity != (core.Vec3{}) {
		v.Position = bounds.Clamp(v.Position.Add(v.Velocity.Scale(secs)))
		v.Fuel = math.Max(0, v.Fuel-v.cfg.FuelPerSecond*v.Throttle*secs)
	}

	if v.Occupied() {
		v.lastOccupied = now
		return false
	}
	if now-v.lastOccupied > v.cfg.IdleThreshold {
		return v.Damage(v.cfg.IdleDecay * secs)
	}
	return false
}

// Damage lowers health and reports whether this call destroyed the vehicle.
func (v *Vehicle) Damage(amount float64) bool {
	if v.Destroyed || amount <= 0 {
		return false
	}
	v.Health = math.Max(0, v.Health-amount)
	if v.Health == 0 {
		v.Destroyed = true
		return true
	}
	return false
}

// Speed is the ground speed.
func (v *Vehicle) Speed() float64 {
	return v.Velocity.Len2D()
}

// Collide checks a run-over against a player who is not in this vehicle. It
// returns the damage to apply, honouring the per-player cooldown.
func (v *Vehicle) Collide(playerID string, pos core.Vec3, now time.Duration) (float64, bool) {
	speed := v.Speed()
	if v.Destroyed || speed < v.cfg.CollisionMinSpeed {
		return 0, false
	}
	if _, seated := v.SeatOf(playerID); seated {
		return 0, false
	}
	if pos.Dist2D(v.Position) > v.spec.Radius {
		return 0, false
	}
	if last, ok := v.lastHit[playerID]; ok && now-last < v.cfg.CollisionCooldown {
		return 0, false
	}
	v.lastHit[playerID] = now
	return speed * v.cfg.CollisionFactor, true
}
