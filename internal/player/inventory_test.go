package player

import (
	"testing"

	"github.com/OCAP2/royale/internal/loot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickupWeapon_FillsSlotsThenDisplacesPrimary(t *testing.T) {
	p := newTestPlayer()
	w1 := loot.NewWeapon("w1", loot.Archetypes[0], loot.Common)
	w2 := loot.NewWeapon("w2", loot.Archetypes[1], loot.Common)
	w3 := loot.NewWeapon("w3", loot.Archetypes[2], loot.Common)

	assert.Nil(t, p.PickupWeapon(w1))
	assert.Nil(t, p.PickupWeapon(w2))
	assert.Same(t, w1, p.PickupWeapon(w3))

	assert.Same(t, w3, p.Weapons[0])
	assert.Same(t, w2, p.Weapons[1])
	assert.Same(t, w3, p.ActiveWeapon())
	assert.Nil(t, p.Weapon(2))
	assert.Nil(t, p.Weapon(-1))
}

func TestPickupArmor_OnlyStrictUpgrade(t *testing.T) {
	p := newTestPlayer()
	tactical := loot.NewArmor("a1", loot.ArmorArchetypes[1], loot.Common)
	sameTier := loot.NewArmor("a2", loot.ArmorArchetypes[1], loot.Common)
	heavy := loot.NewArmor("a3", loot.ArmorArchetypes[2], loot.Common)

	displaced, ok := p.PickupArmor(tactical)
	require.True(t, ok)
	assert.Nil(t, displaced)

	_, ok = p.PickupArmor(sameTier)
	assert.False(t, ok)
	assert.Same(t, tactical, p.Armor)

	displaced, ok = p.PickupArmor(heavy)
	require.True(t, ok)
	assert.Same(t, tactical, displaced)
	assert.Same(t, heavy, p.Armor)
}

func TestPickupConsumable_MergesStacks(t *testing.T) {
	p := newTestPlayer()

	require.True(t, p.PickupConsumable(&loot.Consumable{Base: loot.Base{ID: "c1"}, Kind: loot.ShieldCell, Count: 4}))
	require.True(t, p.PickupConsumable(&loot.Consumable{Base: loot.Base{ID: "c2"}, Kind: loot.ShieldCell, Count: 4}))

	require.Len(t, p.Consumables, 2)
	assert.Equal(t, "c1", p.Consumables[0].ID)
	assert.Equal(t, 6, p.Consumables[0].Count)
	assert.Equal(t, "c2", p.Consumables[1].ID)
	assert.Equal(t, 2, p.Consumables[1].Count)
}

func TestPickupConsumable_FullInventoryIsAtomic(t *testing.T) {
	p := newTestPlayer()
	for i := 0; i < p.Config().ConsumableSlots; i++ {
		require.True(t, p.PickupConsumable(&loot.Consumable{Base: loot.Base{ID: string(rune('a' + i))}, Kind: loot.Medkit, Count: 3}))
	}

	ok := p.PickupConsumable(&loot.Consumable{Base: loot.Base{ID: "x"}, Kind: loot.Bandage, Count: 1})

	assert.False(t, ok)
	assert.Len(t, p.Consumables, p.Config().ConsumableSlots)
}

func TestPickupAttachment(t *testing.T) {
	p := newTestPlayer()
	assert.False(t, p.PickupAttachment(loot.NewAttachment("x1", loot.Scope, loot.Common)), "no weapon to fit")

	p.PickupWeapon(loot.NewWeapon("w1", loot.Archetypes[0], loot.Common))
	p.PickupWeapon(loot.NewWeapon("w2", loot.Archetypes[1], loot.Common))

	require.True(t, p.PickupAttachment(loot.NewAttachment("x1", loot.Scope, loot.Common)))
	require.True(t, p.PickupAttachment(loot.NewAttachment("x2", loot.Scope, loot.Common)))
	assert.False(t, p.PickupAttachment(loot.NewAttachment("x3", loot.Scope, loot.Common)))

	assert.Contains(t, p.Weapons[0].Attachments, loot.Scope)
	assert.Contains(t, p.Weapons[1].Attachments, loot.Scope)
}

func TestConsume(t *testing.T) {
	tests := []struct {
		name       string
		kind       loot.ConsumableKind
		health     float64
		shield     float64
		ok         bool
		wantHealth float64
		wantShield float64
	}{
		{"bandage heals", loot.Bandage, 50, 0, true, 65, 0},
		{"bandage capped", loot.Bandage, 70, 0, true, 75, 0},
		{"bandage above cap", loot.Bandage, 80, 0, false, 80, 0},
		{"medkit to full", loot.Medkit, 10, 0, true, 100, 0},
		{"medkit at full health", loot.Medkit, 100, 0, false, 100, 0},
		{"shield cell", loot.ShieldCell, 100, 90, true, 100, 100},
		{"shield battery at full", loot.ShieldBattery, 100, 100, false, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPlayer()
			p.Health = tt.health
			p.Shield = tt.shield
			require.True(t, p.PickupConsumable(&loot.Consumable{Base: loot.Base{ID: "c"}, Kind: tt.kind, Count: 1}))

			assert.Equal(t, tt.ok, p.Consume("c"))
			assert.Equal(t, tt.wantHealth, p.Health)
			assert.Equal(t, tt.wantShield, p.Shield)
			if tt.ok {
				assert.Empty(t, p.Consumables, "empty stack is removed")
			} else {
				assert.Len(t, p.Consumables, 1)
			}
		})
	}
}

func TestConsume_UnknownStack(t *testing.T) {
	p := newTestPlayer()
	assert.False(t, p.Consume("missing"))
}

func TestDropAll(t *testing.T) {
	p := newTestPlayer()
	p.PickupWeapon(loot.NewWeapon("w1", loot.Archetypes[0], loot.Common))
	p.PickupArmor(loot.NewArmor("a1", loot.ArmorArchetypes[0], loot.Common))
	p.PickupConsumable(loot.NewConsumable("c1", loot.Bandage, loot.Common))

	items := p.DropAll()

	assert.Len(t, items, 3)
	assert.Nil(t, p.Weapons[0])
	assert.Nil(t, p.Armor)
	assert.Empty(t, p.Consumables)
}
