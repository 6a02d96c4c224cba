package world

import (
	"math/rand"
	"testing"
	"time"

	"github.com/OCAP2/royale/internal/loot"
	"github.com/OCAP2/royale/internal/vehicle"
	"github.com/OCAP2/royale/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generate(t *testing.T, cfg Config, seed int64) *World {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	gen := loot.NewGenerator(rng)
	reg := loot.NewRegistry(loot.RegistryConfig{Despawn: 5 * time.Minute, RespawnCooldown: time.Minute}, gen)
	vcfg := vehicle.DefaultConfig()
	return Generate(cfg, &vcfg, reg, gen, rng)
}

func TestGenerate_BuildingsDoNotOverlap(t *testing.T) {
	w := generate(t, DefaultConfig(), 1)

	require.NotEmpty(t, w.Buildings)
	for i, a := range w.Buildings {
		assert.True(t, w.Bounds.Contains(a.Bounds.Min))
		assert.True(t, w.Bounds.Contains(a.Bounds.Max))
		for _, b := range w.Buildings[i+1:] {
			overlapX := a.Bounds.Min.X < b.Bounds.Max.X && b.Bounds.Min.X < a.Bounds.Max.X
			overlapY := a.Bounds.Min.Y < b.Bounds.Max.Y && b.Bounds.Min.Y < a.Bounds.Max.Y
			assert.False(t, overlapX && overlapY, "%s overlaps %s", a.ID, b.ID)
		}
	}
}

func TestGenerate_BuildingContents(t *testing.T) {
	w := generate(t, DefaultConfig(), 2)

	total := 0
	for _, b := range w.Buildings {
		assert.GreaterOrEqual(t, len(b.SpawnPoints), 2)
		assert.LessOrEqual(t, len(b.SpawnPoints), 5)
		assert.GreaterOrEqual(t, len(b.Doors), 1)
		assert.LessOrEqual(t, len(b.Doors), 2)
		for _, sp := range b.SpawnPoints {
			assert.True(t, b.Bounds.Contains(sp.Position))
			assert.Equal(t, b.ID, sp.BuildingID)
		}
		total += len(b.SpawnPoints)
	}
	assert.Len(t, w.Loot.SpawnPoints(), total)
}

func TestGenerate_VehiclesOnOpenGround(t *testing.T) {
	w := generate(t, DefaultConfig(), 3)

	vehicles := w.Vehicles()
	require.NotEmpty(t, vehicles)
	for _, v := range vehicles {
		assert.False(t, w.Indoors(v.Position), "%s parked inside a building", v.ID)
		assert.True(t, w.Bounds.Contains(v.Position))
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a := generate(t, DefaultConfig(), 9)
	b := generate(t, DefaultConfig(), 9)

	require.Equal(t, len(a.Buildings), len(b.Buildings))
	for i := range a.Buildings {
		assert.Equal(t, a.Buildings[i].Bounds, b.Buildings[i].Bounds)
	}
}

func TestGenerate_CrowdedMapSkipsBuildings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MapSize = 2000
	cfg.Buildings = 500
	cfg.Vehicles = 0

	w := generate(t, cfg, 4)

	assert.Less(t, len(w.Buildings), 500)
	assert.NotEmpty(t, w.Buildings)
}

func TestOpenDoor(t *testing.T) {
	w := generate(t, DefaultConfig(), 5)
	require.NotEmpty(t, w.Buildings)
	door := w.Buildings[0].Doors[0]

	_, ok := w.OpenDoor(door.Position.Add(core.V(1000, 0, 0)), door.ID)
	assert.False(t, ok, "too far")
	assert.False(t, door.Open)

	d, ok := w.OpenDoor(door.Position.Add(core.V(100, 0, 0)), door.ID)
	require.True(t, ok)
	assert.True(t, d.Open)

	d, ok = w.OpenDoor(door.Position, door.ID)
	require.True(t, ok)
	assert.False(t, d.Open, "interacting again closes it")

	_, ok = w.OpenDoor(door.Position, "missing")
	assert.False(t, ok)
}

func TestVehicles_AddRemove(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Buildings, cfg.Vehicles = 0, 0
	w := generate(t, cfg, 6)
	vcfg := vehicle.DefaultConfig()

	w.AddVehicle(vehicle.New("b", vehicle.Jeep, core.V(1, 1, 0), &vcfg))
	w.AddVehicle(vehicle.New("a", vehicle.Buggy, core.V(2, 2, 0), &vcfg))

	vs := w.Vehicles()
	require.Len(t, vs, 2)
	assert.Equal(t, "a", vs[0].ID)

	w.RemoveVehicle("a")
	_, ok := w.Vehicle("a")
	assert.False(t, ok)
}
