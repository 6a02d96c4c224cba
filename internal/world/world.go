// Package world generates the match map: buildings with doors and loot
// spawn points, and vehicles parked on open ground.
package world

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/OCAP2/royale/internal/geo"
	"github.com/OCAP2/royale/internal/loot"
	"github.com/OCAP2/royale/internal/vehicle"
	"github.com/OCAP2/royale/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Config controls map generation.
type Config struct {
	MapSize         float64
	Buildings       int
	BuildingMinSize float64
	BuildingMaxSize float64
	BuildingGap     float64
	Vehicles        int
	LooseLoot       int
	MaxAttempts     int // per building or vehicle
	InteractRange   float64
}

func DefaultConfig() Config {
	return Config{
		MapSize:         16000,
		Buildings:       120,
		BuildingMinSize: 300,
		BuildingMaxSize: 900,
		BuildingGap:     100,
		Vehicles:        24,
		LooseLoot:       150,
		MaxAttempts:     50,
		InteractRange:   150,
	}
}

// Door is a toggleable opening in a building wall.
type Door struct {
	ID         string
	BuildingID string
	Position   core.Vec3
	Open       bool
}

// Building is a rectangular footprint.
type Building struct {
	ID          string
	Bounds      geo.Bounds
	Doors       []*Door
	SpawnPoints []*loot.SpawnPoint

	envelope geom.Envelope
}

// World is the static layout plus the mutable vehicles, doors and loot.
type World struct {
	Bounds    geo.Bounds
	Buildings []*Building
	Loot      *loot.Registry

	doors         map[string]*Door
	vehicles      map[string]*vehicle.Vehicle
	interactRange float64
}

// Generate builds a world. Buildings are rejection sampled so footprints
// never overlap; a building or vehicle that cannot be placed within
// MaxAttempts is skipped.
func Generate(cfg Config, vcfg *vehicle.Config, registry *loot.Registry, gen *loot.Generator, rng *rand.Rand) *World {
	w := &World{
		Bounds:        geo.Square(cfg.MapSize),
		Loot:          registry,
		doors:         make(map[string]*Door),
		vehicles:      make(map[string]*vehicle.Vehicle),
		interactRange: cfg.InteractRange,
	}

	for i := 0; i < cfg.Buildings; i++ {
		b, ok := w.placeBuilding(cfg, fmt.Sprintf("bld-%d", i+1), rng)
		if !ok {
			continue
		}
		w.addDoors(b, rng)
		w.addSpawnPoints(b, gen, rng)
		w.Buildings = append(w.Buildings, b)
	}

	for i := 0; i < cfg.Vehicles; i++ {
		kind := vehicle.Kinds[rng.Intn(len(vehicle.Kinds))]
		pos, ok := w.openGround(cfg, vehicle.Specs[kind].Radius, rng)
		if !ok {
			continue
		}
		v := vehicle.New(fmt.Sprintf("veh-%d", i+1), kind, pos, vcfg)
		v.Heading = rng.Float64() * 2 * math.Pi
		w.vehicles[v.ID] = v
	}
	return w
}

func (w *World) placeBuilding(cfg Config, id string, rng *rand.Rand) (*Building, bool) {
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		width := cfg.BuildingMinSize + rng.Float64()*(cfg.BuildingMaxSize-cfg.BuildingMinSize)
		depth := cfg.BuildingMinSize + rng.Float64()*(cfg.BuildingMaxSize-cfg.BuildingMinSize)
		if width > cfg.MapSize || depth > cfg.MapSize {
			return nil, false
		}
		x := rng.Float64() * (cfg.MapSize - width)
		y := rng.Float64() * (cfg.MapSize - depth)
		bounds := geo.Bounds{Min: core.V(x, y, 0), Max: core.V(x+width, y+depth, 0)}
		padded, err := geo.Bounds{
			Min: core.V(x-cfg.BuildingGap, y-cfg.BuildingGap, 0),
			Max: core.V(x+width+cfg.BuildingGap, y+depth+cfg.BuildingGap, 0),
		}.Envelope()
		if err != nil || w.overlaps(padded) {
			continue
		}
		env, err := bounds.Envelope()
		if err != nil {
			continue
		}
		return &Building{ID: id, Bounds: bounds, envelope: env}, true
	}
	return nil, false
}

func (w *World) overlaps(env geom.Envelope) bool {
	for _, b := range w.Buildings {
		if b.envelope.Intersects(env) {
			return true
		}
	}
	return false
}

func (w *World) addDoors(b *Building, rng *rand.Rand) {
	n := 1 + rng.Intn(2)
	walls := rng.Perm(4)
	c := b.Bounds.Center()
	for i := 0; i < n; i++ {
		var pos core.Vec3
		switch walls[i] {
		case 0:
			pos = core.V(c.X, b.Bounds.Min.Y, 0)
		case 1:
			pos = core.V(b.Bounds.Max.X, c.Y, 0)
		case 2:
			pos = core.V(c.X, b.Bounds.Max.Y, 0)
		default:
			pos = core.V(b.Bounds.Min.X, c.Y, 0)
		}
		d := &Door{ID: fmt.Sprintf("%s-door-%d", b.ID, i+1), BuildingID: b.ID, Position: pos}
		b.Doors = append(b.Doors, d)
		w.doors[d.ID] = d
	}
}

func (w *World) addSpawnPoints(b *Building, gen *loot.Generator, rng *rand.Rand) {
	n := 2 + rng.Intn(4)
	for i := 0; i < n; i++ {
		sp := &loot.SpawnPoint{
			ID:         fmt.Sprintf("%s-sp-%d", b.ID, i+1),
			BuildingID: b.ID,
			Position: core.V(
				b.Bounds.Min.X+rng.Float64()*b.Bounds.Width(),
				b.Bounds.Min.Y+rng.Float64()*b.Bounds.Height(),
				0,
			),
			Category: gen.RandomCategory(),
			Nominal:  loot.RollRarity(rng),
		}
		b.SpawnPoints = append(b.SpawnPoints, sp)
		w.Loot.AddSpawnPoint(sp)
	}
}

// openGround finds a point whose clearance circle misses every building.
func (w *World) openGround(cfg Config, clearance float64, rng *rand.Rand) (core.Vec3, bool) {
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		p := core.V(
			clearance+rng.Float64()*(cfg.MapSize-2*clearance),
			clearance+rng.Float64()*(cfg.MapSize-2*clearance),
			0,
		)
		env, err := geo.Bounds{
			Min: core.V(p.X-clearance, p.Y-clearance, 0),
			Max: core.V(p.X+clearance, p.Y+clearance, 0),
		}.Envelope()
		if err == nil && !w.overlaps(env) {
			return p, true
		}
	}
	return core.Vec3{}, false
}

// RandomOpenGround returns n points on open ground, for loose loot.
func (w *World) RandomOpenGround(cfg Config, n int, rng *rand.Rand) []core.Vec3 {
	out := make([]core.Vec3, 0, n)
	for i := 0; i < n; i++ {
		if p, ok := w.openGround(cfg, 10, rng); ok {
			out = append(out, p)
		}
	}
	return out
}

// Indoors reports whether p lies inside any building footprint.
func (w *World) Indoors(p core.Vec3) bool {
	for _, b := range w.Buildings {
		if b.Bounds.Contains(p) {
			return true
		}
	}
	return false
}

// Door returns a door by id.
func (w *World) Door(id string) (*Door, bool) {
	d, ok := w.doors[id]
	return d, ok
}

// OpenDoor toggles a door when pos is within interact range of it.
func (w *World) OpenDoor(pos core.Vec3, doorID string) (*Door, bool) {
	d, ok := w.doors[doorID]
	if !ok || pos.Dist2D(d.Position) > w.interactRange {
		return nil, false
	}
	d.Open = !d.Open
	return d, true
}

// Vehicle returns a live vehicle by id.
func (w *World) Vehicle(id string) (*vehicle.Vehicle, bool) {
	v, ok := w.vehicles[id]
	return v, ok
}

// AddVehicle places a vehicle, replacing any with the same id.
func (w *World) AddVehicle(v *vehicle.Vehicle) {
	w.vehicles[v.ID] = v
}

// RemoveVehicle deletes a destroyed vehicle.
func (w *World) RemoveVehicle(id string) {
	delete(w.vehicles, id)
}

// Vehicles returns live vehicles sorted by id.
func (w *World) Vehicles() []*vehicle.Vehicle {
	out := make([]*vehicle.Vehicle, 0, len(w.vehicles))
	for _, v := range w.vehicles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
