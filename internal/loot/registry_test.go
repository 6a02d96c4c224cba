package loot

import (
	"math/rand"
	"testing"
	"time"

	"github.com/OCAP2/royale/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	return NewRegistry(RegistryConfig{
		Despawn:         5 * time.Minute,
		RespawnCooldown: time.Minute,
	}, NewGenerator(rand.New(rand.NewSource(1))))
}

func TestRegistry_SeedBuildings(t *testing.T) {
	r := newTestRegistry()
	r.AddSpawnPoint(&SpawnPoint{ID: "sp-1", Position: core.V(10, 10, 0), Category: CategoryWeapon})
	r.AddSpawnPoint(&SpawnPoint{ID: "sp-2", Position: core.V(20, 10, 0), Category: CategoryArmor, Nominal: Epic})

	r.SeedBuildings(0)

	require.Equal(t, 2, r.Len())
	for _, sp := range r.SpawnPoints() {
		require.NotEmpty(t, sp.ItemID)
		wi, ok := r.Get(sp.ItemID)
		require.True(t, ok)
		assert.Equal(t, sp.Category, wi.Item.Category())
		assert.Equal(t, sp.Position, wi.Position)
	}
}

func TestRegistry_TakeStartsRespawnCooldown(t *testing.T) {
	r := newTestRegistry()
	sp := &SpawnPoint{ID: "sp-1", Position: core.V(10, 10, 0), Category: CategoryConsumable}
	r.AddSpawnPoint(sp)
	r.SeedBuildings(0)
	first := sp.ItemID

	wi, ok := r.Take(first, 10*time.Second)
	require.True(t, ok)
	assert.Equal(t, first, wi.Item.Meta().ID)
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, sp.ItemID)

	_, ok = r.Take(first, 10*time.Second)
	assert.False(t, ok, "an item can only be taken once")

	_, spawned := r.Tick(69 * time.Second)
	assert.Empty(t, spawned)

	_, spawned = r.Tick(70 * time.Second)
	require.Len(t, spawned, 1)
	assert.NotEqual(t, first, spawned[0].Item.Meta().ID)
	assert.Equal(t, spawned[0].Item.Meta().ID, sp.ItemID)
}

func TestRegistry_DespawnLooseLoot(t *testing.T) {
	r := newTestRegistry()
	item := NewConsumable("loose", Bandage, Common)
	r.Drop(item, core.V(5, 5, 100), time.Minute)

	wi, ok := r.Get("loose")
	require.True(t, ok)
	assert.Equal(t, 0.0, wi.Position.Z, "dropped loot rests on the ground")

	despawned, _ := r.Tick(5*time.Minute + 59*time.Second)
	assert.Empty(t, despawned)

	despawned, _ = r.Tick(6 * time.Minute)
	assert.Equal(t, []string{"loose"}, despawned)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_DespawnedSpawnPointRespawns(t *testing.T) {
	r := newTestRegistry()
	sp := &SpawnPoint{ID: "sp-1", Category: CategoryAttachment}
	r.AddSpawnPoint(sp)
	r.SeedBuildings(0)

	despawned, spawned := r.Tick(5 * time.Minute)
	require.Len(t, despawned, 1)
	assert.Empty(t, spawned)
	assert.Equal(t, 5*time.Minute+time.Minute, sp.RespawnAt)

	_, spawned = r.Tick(6 * time.Minute)
	require.Len(t, spawned, 1)
}

func TestRegistry_SeedRandom(t *testing.T) {
	r := newTestRegistry()
	r.SeedRandom([]core.Vec3{core.V(1, 1, 0), core.V(2, 2, 0), core.V(3, 3, 0)}, 0)
	assert.Equal(t, 3, r.Len())
	assert.Len(t, r.Items(), 3)
}

func TestRegistry_DropCancelsReload(t *testing.T) {
	r := newTestRegistry()
	w := NewWeapon("w", Archetype{Name: "Test", Magazine: 4, ReloadTime: time.Second}, Common)
	w.Ammo, w.Reserve = 1, 10
	require.True(t, w.StartReload(30*time.Second))

	r.Drop(w, core.V(5, 5, 3), 31*time.Second)

	assert.False(t, w.Reloading)
	assert.Zero(t, w.ReloadStart)
	assert.Equal(t, 1, w.Ammo)
	assert.True(t, w.StartReload(time.Minute), "the next holder starts a fresh reload")
	assert.False(t, w.CompleteReload(time.Minute+999*time.Millisecond))
}
