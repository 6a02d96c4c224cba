// Package combat fires weapons and resolves projectile flight, hits and
// explosions. It reports impacts; applying damage is the caller's job.
package combat

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/OCAP2/royale/internal/geo"
	"github.com/OCAP2/royale/internal/loot"
	"github.com/OCAP2/royale/internal/player"
	"github.com/OCAP2/royale/internal/vehicle"
	"github.com/OCAP2/royale/pkg/core"
)

// Config holds the hit model constants.
type Config struct {
	MuzzleHeight   float64
	AimHeight      float64 // centre mass above the feet
	HitRadius      float64
	HeadshotMargin float64
	MaxSpread      float64 // radians at zero accuracy
	FriendlyFire   bool
}

func DefaultConfig() Config {
	return Config{
		MuzzleHeight:   40,
		AimHeight:      40,
		HitRadius:      50,
		HeadshotMargin: 50,
		MaxSpread:      0.15,
	}
}

// FireStatus is the outcome of a fire attempt.
type FireStatus int

const (
	Fired FireStatus = iota
	NoWeapon
	Reloading
	CoolingDown
	OutOfAmmo
	AutoReload
	OutOfRange
)

func (s FireStatus) String() string {
	switch s {
	case Fired:
		return "fired"
	case NoWeapon:
		return "no_weapon"
	case Reloading:
		return "reloading"
	case CoolingDown:
		return "cooling_down"
	case OutOfAmmo:
		return "out_of_ammo"
	case AutoReload:
		return "auto_reload"
	case OutOfRange:
		return "out_of_range"
	}
	return "unknown"
}

// Projectile is a shot in flight.
type Projectile struct {
	ID           string
	OwnerID      string
	OwnerTeam    string
	OwnerVehicle string // the gunner's own vehicle is never hit
	Weapon       string
	Class        loot.WeaponClass

	Origin    core.Vec3
	Position  core.Vec3
	Velocity  core.Vec3
	Travelled float64
	Range     float64

	Damage             float64
	HeadshotMultiplier float64
	ExplosionRadius    float64

	hit map[string]bool
}

// Hit is damage dealt to one player or vehicle.
type Hit struct {
	ProjectileID string
	AttackerID   string
	Weapon       string
	TargetID     string
	Vehicle      bool
	Damage       float64
	Headshot     bool
	Position     core.Vec3
	Distance     float64 // from the muzzle
}

// Blast is a detonated explosive and everything it reached.
type Blast struct {
	ProjectileID string
	OwnerID      string
	Weapon       string
	Position     core.Vec3
	Radius       float64
	Hits         []Hit
}

// Result collects the impacts of one Advance.
type Result struct {
	Hits       []Hit
	Explosions []Blast
	Expired    []string
	Orphaned   []string
}

// System owns the live projectile set of one match.
type System struct {
	cfg         Config
	projectiles map[string]*Projectile
	order       []string
	next        uint64
}

func NewSystem(cfg Config) *System {
	return &System{
		cfg:         cfg,
		projectiles: make(map[string]*Projectile),
	}
}

// Len returns the number of projectiles in flight.
func (s *System) Len() int {
	return len(s.projectiles)
}

// Projectiles returns the live projectiles in creation order.
func (s *System) Projectiles() []*Projectile {
	out := make([]*Projectile, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.projectiles[id])
	}
	return out
}

// Fire attempts one shot from the given slot toward aim. An empty magazine
// starts a reload when reserve ammunition is left.
func (s *System) Fire(p *player.Player, slot int, aim core.Vec3, now time.Duration, rng *rand.Rand) (*Projectile, FireStatus) {
	w := p.Weapon(slot)
	if w == nil {
		return nil, NoWeapon
	}
	if w.Reloading {
		return nil, Reloading
	}
	if !w.Ready(now) {
		return nil, CoolingDown
	}
	if w.Ammo <= 0 {
		if w.StartReload(now) {
			return nil, AutoReload
		}
		return nil, OutOfAmmo
	}

	eff := w.Effective()
	origin := p.Position.Add(core.V(0, 0, s.cfg.MuzzleHeight))
	if origin.Dist(aim) > eff.Range {
		return nil, OutOfRange
	}

	dir := aim.Sub(origin).Normalize()
	if dir == (core.Vec3{}) {
		dir = core.V(1, 0, 0)
	}
	dir = geo.Spread(dir, (1-eff.Accuracy)*s.cfg.MaxSpread, rng)

	w.Ammo--
	w.LastFired = now
	w.HasFired = true
	p.ActiveSlot = slot
	p.Stats.ShotsFired++

	s.next++
	proj := &Projectile{
		ID:                 fmt.Sprintf("proj-%d", s.next),
		OwnerID:            p.ID,
		OwnerTeam:          p.TeamID,
		OwnerVehicle:       p.VehicleID,
		Weapon:             w.Name,
		Class:              eff.Class,
		Origin:             origin,
		Position:           origin,
		Velocity:           dir.Scale(eff.ProjectileSpeed),
		Range:              eff.Range,
		Damage:             eff.Damage,
		HeadshotMultiplier: eff.HeadshotMultiplier,
		ExplosionRadius:    eff.ExplosionRadius,
		hit:                make(map[string]bool),
	}
	s.projectiles[proj.ID] = proj
	s.order = append(s.order, proj.ID)
	return proj, Fired
}

// StartReload begins a manual reload of the weapon in slot.
func (s *System) StartReload(p *player.Player, slot int, now time.Duration) bool {
	w := p.Weapon(slot)
	if w == nil {
		return false
	}
	return w.StartReload(now)
}

// CompleteReloads finishes every reload whose duration has elapsed.
func CompleteReloads(players []*player.Player, now time.Duration) int {
	done := 0
	for _, p := range players {
		for _, w := range p.Weapons {
			if w != nil && w.CompleteReload(now) {
				done++
			}
		}
	}
	return done
}

// Falloff is the explosion damage factor at distance d from a blast of radius r.
func Falloff(d, r float64) float64 {
	if r <= 0 || d > r {
		return 0
	}
	return max(0.2, 1-d/r)
}

type candidate struct {
	t       float64
	player  *player.Player
	vehicle *vehicle.Vehicle
}

func (c candidate) id() string {
	if c.vehicle != nil {
		return c.vehicle.ID
	}
	return c.player.ID
}

// Advance moves every projectile by dt and resolves what it touches. players
// must contain every roster member; a projectile whose owner is missing is
// dropped without effect. Shots from eliminated owners stay in flight.
func (s *System) Advance(dt time.Duration, players []*player.Player, vehicles []*vehicle.Vehicle, bounds geo.Bounds) Result {
	var res Result
	byID := make(map[string]*player.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	alive := s.order[:0]
	for _, id := range s.order {
		proj := s.projectiles[id]
		if _, ok := byID[proj.OwnerID]; !ok {
			res.Orphaned = append(res.Orphaned, id)
			delete(s.projectiles, id)
			continue
		}
		if s.step(proj, dt, players, vehicles, bounds, &res) {
			alive = append(alive, id)
			continue
		}
		delete(s.projectiles, id)
	}
	s.order = alive
	return res
}

// step advances one projectile and reports whether it is still in flight.
func (s *System) step(proj *Projectile, dt time.Duration, players []*player.Player, vehicles []*vehicle.Vehicle, bounds geo.Bounds, res *Result) bool {
	speed := proj.Velocity.Len()
	seg := speed * dt.Seconds()
	remaining := proj.Range - proj.Travelled
	if seg > remaining {
		seg = remaining
	}
	start := proj.Position
	end := start
	if speed > 0 {
		end = start.Add(proj.Velocity.Scale(seg / speed))
	}

	for _, c := range s.candidates(proj, start, end, players, vehicles) {
		if proj.hit[c.id()] {
			continue
		}
		at := start.Lerp(end, c.t)

		if proj.Class.Explosive() {
			res.Explosions = append(res.Explosions, s.detonate(proj, at, players, vehicles))
			return false
		}

		proj.hit[c.id()] = true
		res.Hits = append(res.Hits, s.directHit(proj, c, at))
		if !proj.Class.Piercing() {
			return false
		}
	}

	proj.Position = end
	proj.Travelled += seg

	grounded := end.Z <= 0
	spent := proj.Travelled >= proj.Range-1e-9 || speed == 0
	if grounded || spent {
		if proj.Class.Explosive() {
			if grounded {
				end.Z = 0
			}
			res.Explosions = append(res.Explosions, s.detonate(proj, end, players, vehicles))
			return false
		}
		res.Expired = append(res.Expired, proj.ID)
		return false
	}
	if !bounds.Contains(end) {
		res.Expired = append(res.Expired, proj.ID)
		return false
	}
	return true
}

func (s *System) targetable(proj *Projectile, p *player.Player) bool {
	if !p.Alive() || p.ID == proj.OwnerID || p.Drop == core.DropAboard {
		return false
	}
	if !s.cfg.FriendlyFire && p.TeamID == proj.OwnerTeam {
		return false
	}
	// Occupied vehicles take hits for the players inside them.
	return p.VehicleID == ""
}

// candidates returns everything the segment passes close to, nearest first.
func (s *System) candidates(proj *Projectile, start, end core.Vec3, players []*player.Player, vehicles []*vehicle.Vehicle) []candidate {
	var out []candidate
	for _, p := range players {
		if !s.targetable(proj, p) {
			continue
		}
		centre := s.centreMass(p.Position)
		if d, t := geo.SegmentPointDistance(start, end, centre); d <= s.cfg.HitRadius {
			out = append(out, candidate{t: t, player: p})
		}
	}
	for _, v := range vehicles {
		if v.Destroyed || v.ID == proj.OwnerVehicle {
			continue
		}
		centre := s.centreMass(v.Position)
		if d, t := geo.SegmentPointDistance(start, end, centre); d <= v.Spec().Radius {
			out = append(out, candidate{t: t, vehicle: v})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].t < out[j].t })
	return out
}

func (s *System) directHit(proj *Projectile, c candidate, at core.Vec3) Hit {
	h := Hit{
		ProjectileID: proj.ID,
		AttackerID:   proj.OwnerID,
		Weapon:       proj.Weapon,
		TargetID:     c.id(),
		Damage:       proj.Damage,
		Position:     at,
		Distance:     proj.Origin.Dist(at),
	}
	if c.vehicle != nil {
		h.Vehicle = true
		return h
	}
	// Vertical margin over the target's feet stands in for a head hitbox.
	if at.Z > c.player.Position.Z+s.cfg.HeadshotMargin {
		h.Headshot = true
		if proj.HeadshotMultiplier > 0 {
			h.Damage *= proj.HeadshotMultiplier
		}
	}
	return h
}

func (s *System) detonate(proj *Projectile, at core.Vec3, players []*player.Player, vehicles []*vehicle.Vehicle) Blast {
	b := Blast{
		ProjectileID: proj.ID,
		OwnerID:      proj.OwnerID,
		Weapon:       proj.Weapon,
		Position:     at,
		Radius:       proj.ExplosionRadius,
	}
	for _, p := range players {
		if !p.Alive() || p.VehicleID != "" || p.Drop == core.DropAboard {
			continue
		}
		if !s.cfg.FriendlyFire && p.TeamID == proj.OwnerTeam {
			continue
		}
		if f := Falloff(at.Dist(s.centreMass(p.Position)), proj.ExplosionRadius); f > 0 {
			b.Hits = append(b.Hits, s.blastHit(proj, p.ID, false, proj.Damage*f, at))
		}
	}
	for _, v := range vehicles {
		if v.Destroyed || v.ID == proj.OwnerVehicle {
			continue
		}
		if f := Falloff(at.Dist(s.centreMass(v.Position)), proj.ExplosionRadius); f > 0 {
			b.Hits = append(b.Hits, s.blastHit(proj, v.ID, true, proj.Damage*f, at))
		}
	}
	return b
}

func (s *System) centreMass(feet core.Vec3) core.Vec3 {
	return feet.Add(core.V(0, 0, s.cfg.AimHeight))
}

func (s *System) blastHit(proj *Projectile, target string, isVehicle bool, dmg float64, at core.Vec3) Hit {
	return Hit{
		ProjectileID: proj.ID,
		AttackerID:   proj.OwnerID,
		Weapon:       proj.Weapon,
		TargetID:     target,
		Vehicle:      isVehicle,
		Damage:       dmg,
		Position:     at,
		Distance:     proj.Origin.Dist(at),
	}
}
