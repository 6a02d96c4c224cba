package player

import (
	"testing"
	"time"

	"github.com/OCAP2/royale/internal/geo"
	"github.com/OCAP2/royale/internal/loot"
	"github.com/OCAP2/royale/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlayer() *Player {
	cfg := DefaultConfig()
	return New("p1", "t1", &cfg)
}

func TestApplyDamage_ArmorShieldHealth(t *testing.T) {
	p := newTestPlayer()
	p.Shield = 50
	p.Armor = &loot.Armor{Base: loot.Base{ID: "a"}, Protection: 50, Durability: 100, MaxDurability: 100}

	res := p.ApplyDamage(80)

	assert.Equal(t, 40.0, res.Absorbed)
	assert.Equal(t, 40.0, res.ToShield)
	assert.Equal(t, 0.0, res.ToHealth)
	assert.Equal(t, 10.0, p.Shield)
	assert.Equal(t, 100.0, p.Health)
	assert.Equal(t, 20.0, p.Armor.Durability, "durability drops by the unreduced amount")
	assert.False(t, res.Lethal)
}

func TestApplyDamage_OverflowIntoHealth(t *testing.T) {
	p := newTestPlayer()
	p.Shield = 10

	res := p.ApplyDamage(40)

	assert.Equal(t, 10.0, res.ToShield)
	assert.Equal(t, 30.0, res.ToHealth)
	assert.Equal(t, 0.0, p.Shield)
	assert.Equal(t, 70.0, p.Health)
	assert.Equal(t, 40.0, p.Stats.DamageTaken)
}

func TestApplyDamage_ArmorBreaks(t *testing.T) {
	p := newTestPlayer()
	armor := &loot.Armor{Base: loot.Base{ID: "a"}, Protection: 20, Durability: 10, MaxDurability: 80}
	p.Armor = armor

	res := p.ApplyDamage(50)

	assert.Same(t, armor, res.ArmorBroken)
	assert.Nil(t, p.Armor)
	assert.Equal(t, 40.0, res.ToHealth)
}

func TestApplyDamage_LethalClampsAtZero(t *testing.T) {
	p := newTestPlayer()

	res := p.ApplyDamage(500)

	assert.True(t, res.Lethal)
	assert.Equal(t, 0.0, p.Health)
	assert.Equal(t, 100.0, res.ToHealth)
}

func TestApplyTrueDamage_BypassesShieldAndArmor(t *testing.T) {
	p := newTestPlayer()
	p.Shield = 100
	p.Armor = &loot.Armor{Protection: 75, Durability: 100}

	res := p.ApplyTrueDamage(25)

	assert.Equal(t, 25.0, res.ToHealth)
	assert.Equal(t, 100.0, p.Shield)
	assert.Equal(t, 100.0, p.Armor.Durability)
	assert.Equal(t, 75.0, p.Health)
}

func TestKnockReviveLifecycle(t *testing.T) {
	p := newTestPlayer()
	p.Velocity = core.V(100, 0, 0)

	p.Knock(10*time.Second, "killer", "AR-15")
	require.True(t, p.Down())
	assert.Equal(t, 30.0, p.Health)
	assert.Equal(t, core.Vec3{}, p.Velocity)
	assert.Equal(t, "killer", p.KnockedBy)

	assert.False(t, p.BledOut(39*time.Second))
	assert.True(t, p.BledOut(40*time.Second))

	step := 50 * time.Millisecond
	done := false
	for i := 0; i < 120 && !done; i++ {
		done = p.AdvanceRevive(step, true)
	}
	require.True(t, done, "five seconds of reviving completes")

	p.Revive()
	assert.True(t, p.Up())
	assert.Equal(t, 30.0, p.Health)
	assert.Equal(t, 0.0, p.ReviveProgress)
}

func TestAdvanceRevive_DecaysWithoutReviver(t *testing.T) {
	p := newTestPlayer()
	p.Knock(0, "", "")

	p.AdvanceRevive(2*time.Second, true)
	assert.InDelta(t, 0.4, p.ReviveProgress, 1e-9)

	p.AdvanceRevive(time.Second, false)
	assert.InDelta(t, 0.0, p.ReviveProgress, 1e-9)
	assert.GreaterOrEqual(t, p.ReviveProgress, 0.0)
}

func TestEliminate(t *testing.T) {
	p := newTestPlayer()
	p.Shield = 40

	p.Eliminate(time.Minute, 7)

	assert.False(t, p.Alive())
	assert.Equal(t, 0.0, p.Health)
	assert.Equal(t, 0.0, p.Shield)
	assert.Equal(t, 7, p.Stats.Placement)
	assert.Equal(t, time.Minute, p.EliminatedAt)

	res := p.ApplyDamage(10)
	assert.Equal(t, 0.0, res.Applied(), "eliminated players take no damage")
}

func TestSetMove_Speeds(t *testing.T) {
	tests := []struct {
		name   string
		sprint bool
		crouch bool
		down   bool
		want   float64
	}{
		{"walk", false, false, false, 350},
		{"sprint", true, false, false, 525},
		{"crouch", false, true, false, 175},
		{"downed crawl", true, false, true, 87.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPlayer()
			if tt.down {
				p.Knock(0, "", "")
			}
			p.SetMove(core.V(0, 5, 3), 1, tt.sprint, tt.crouch)
			assert.InDelta(t, tt.want, p.Velocity.Len(), 1e-9)
			assert.Equal(t, 0.0, p.Velocity.Z)
		})
	}
}

func TestIntegrate_ClampsToBounds(t *testing.T) {
	p := newTestPlayer()
	p.Position = core.V(990, 500, 0)
	p.SetMove(core.V(1, 0, 0), 1, false, false)

	p.Integrate(time.Second, geo.Square(1000))

	assert.Equal(t, 1000.0, p.Position.X)
	assert.Equal(t, 500.0, p.Position.Y)
}

func TestState_Snapshot(t *testing.T) {
	p := newTestPlayer()
	p.PickupWeapon(loot.NewWeapon("w1", loot.Archetypes[0], loot.Rare))
	p.PickupArmor(loot.NewArmor("a1", loot.ArmorArchetypes[0], loot.Common))
	require.True(t, p.PickupConsumable(loot.NewConsumable("c1", loot.Medkit, loot.Common)))

	s := p.State()

	require.NotNil(t, s.Weapons[0])
	assert.Nil(t, s.Weapons[1])
	assert.Equal(t, "assault_rifle", s.Weapons[0].Class)
	assert.Equal(t, "rare", s.Weapons[0].Rarity)
	require.NotNil(t, s.Armor)
	assert.Equal(t, 20.0, s.Armor.Protection)
	require.Len(t, s.Consumables, 1)
	assert.Equal(t, "medkit", s.Consumables[0].Kind)
	assert.Equal(t, 100.0, s.MaxHealth)
}
