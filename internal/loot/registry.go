package loot

import (
	"sort"
	"time"

	"github.com/OCAP2/royale/pkg/core"
)

// SpawnPoint is a building-embedded location that keeps producing loot of
// its declared category.
type SpawnPoint struct {
	ID         string
	BuildingID string
	Position   core.Vec3
	Category   Category
	Nominal    Rarity

	ItemID    string // current item, empty when claimed or despawned
	RespawnAt time.Duration
}

// WorldItem is an item lying in the world.
type WorldItem struct {
	Item       Item
	Position   core.Vec3
	SpawnedAt  time.Duration
	DespawnAt  time.Duration
	SpawnPoint string
}

// RegistryConfig holds the loot timers.
type RegistryConfig struct {
	Despawn         time.Duration
	RespawnCooldown time.Duration
}

// Registry owns every item in the world. It is not safe for concurrent use;
// the match tick is its only caller.
type Registry struct {
	cfg    RegistryConfig
	gen    *Generator
	items  map[string]*WorldItem
	points []*SpawnPoint
	byID   map[string]*SpawnPoint
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg RegistryConfig, gen *Generator) *Registry {
	return &Registry{
		cfg:   cfg,
		gen:   gen,
		items: make(map[string]*WorldItem),
		byID:  make(map[string]*SpawnPoint),
	}
}

// AddSpawnPoint registers a spawn point. It stays empty until SeedBuildings or a respawn.
func (r *Registry) AddSpawnPoint(sp *SpawnPoint) {
	r.points = append(r.points, sp)
	r.byID[sp.ID] = sp
}

// SpawnPoints returns the registered spawn points in registration order.
func (r *Registry) SpawnPoints() []*SpawnPoint {
	return r.points
}

// SeedBuildings places one rolled item of the declared category at every spawn point.
func (r *Registry) SeedBuildings(now time.Duration) {
	for _, sp := range r.points {
		r.spawnAt(sp, now)
	}
}

// SeedRandom places n items of random category at the given positions.
func (r *Registry) SeedRandom(positions []core.Vec3, now time.Duration) {
	for _, pos := range positions {
		r.Drop(r.gen.Roll(r.gen.RandomCategory()), pos, now)
	}
}

func (r *Registry) spawnAt(sp *SpawnPoint, now time.Duration) *WorldItem {
	item := r.gen.Roll(sp.Category)
	wi := &WorldItem{
		Item:       item,
		Position:   sp.Position,
		SpawnedAt:  now,
		DespawnAt:  now + r.cfg.Despawn,
		SpawnPoint: sp.ID,
	}
	r.items[item.Meta().ID] = wi
	sp.ItemID = item.Meta().ID
	return wi
}

// Drop places an item loose in the world.
func (r *Registry) Drop(item Item, pos core.Vec3, now time.Duration) *WorldItem {
	pos.Z = 0
	if w, ok := item.(*Weapon); ok {
		w.CancelReload()
	}
	wi := &WorldItem{
		Item:      item,
		Position:  pos,
		SpawnedAt: now,
		DespawnAt: now + r.cfg.Despawn,
	}
	r.items[item.Meta().ID] = wi
	return wi
}

// Get looks up a world item without removing it.
func (r *Registry) Get(id string) (*WorldItem, bool) {
	wi, ok := r.items[id]
	return wi, ok
}

// Take removes an item from the world. If it came from a spawn point, the
// point's respawn cooldown starts at now.
func (r *Registry) Take(id string, now time.Duration) (*WorldItem, bool) {
	wi, ok := r.items[id]
	if !ok {
		return nil, false
	}
	delete(r.items, id)
	r.release(wi, now)
	return wi, true
}

func (r *Registry) release(wi *WorldItem, now time.Duration) {
	if wi.SpawnPoint == "" {
		return
	}
	if sp, ok := r.byID[wi.SpawnPoint]; ok && sp.ItemID == wi.Item.Meta().ID {
		sp.ItemID = ""
		sp.RespawnAt = now + r.cfg.RespawnCooldown
	}
}

// Tick despawns expired items and respawns spawn points whose cooldown has
// elapsed. Returned slices are in a stable order.
func (r *Registry) Tick(now time.Duration) (despawned []string, spawned []*WorldItem) {
	for id, wi := range r.items {
		if r.cfg.Despawn > 0 && now >= wi.DespawnAt {
			despawned = append(despawned, id)
		}
	}
	sort.Strings(despawned)
	for _, id := range despawned {
		wi := r.items[id]
		delete(r.items, id)
		r.release(wi, now)
	}

	for _, sp := range r.points {
		if sp.ItemID == "" && now >= sp.RespawnAt {
			spawned = append(spawned, r.spawnAt(sp, now))
		}
	}
	return despawned, spawned
}

// Len returns the number of items in the world.
func (r *Registry) Len() int {
	return len(r.items)
}

// Items returns world items sorted by id.
func (r *Registry) Items() []*WorldItem {
	out := make([]*WorldItem, 0, len(r.items))
	for _, wi := range r.items {
		out = append(out, wi)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Item.Meta().ID < out[j].Item.Meta().ID
	})
	return out
}
