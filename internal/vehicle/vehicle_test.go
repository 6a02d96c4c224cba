package vehicle

import (
	"testing"
	"time"

	"github.com/OCAP2/royale/internal/geo"
	"github.com/OCAP2/royale/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVehicle(kind Kind) *Vehicle {
	cfg := DefaultConfig()
	return New("v1", kind, core.V(1000, 1000, 0), &cfg)
}

func TestEnter_DriverFirstThenFreeSeats(t *testing.T) {
	v := newTestVehicle(Buggy)
	near := core.V(1100, 1000, 0)

	seat, ok := v.Enter("a", near, 0)
	require.True(t, ok)
	assert.Equal(t, 0, seat)
	assert.Equal(t, SeatDriver, v.SeatName(seat))

	seat, ok = v.Enter("b", near, 0)
	require.True(t, ok)
	assert.Equal(t, SeatPassenger, v.SeatName(seat))

	_, ok = v.Enter("c", near, 0)
	assert.False(t, ok, "buggy has two seats")

	_, ok = v.Enter("a", near, 0)
	assert.False(t, ok, "already seated")
}

func TestEnter_RequiresProximity(t *testing.T) {
	v := newTestVehicle(Truck)
	_, ok := v.Enter("a", core.V(5000, 5000, 0), 0)
	assert.False(t, ok)
	assert.Len(t, v.Spec().Seats, 6)
}

func TestExit_PlacesBesideVehicleInBounds(t *testing.T) {
	cfg := DefaultConfig()
	v := New("v1", Jeep, core.V(10, 10, 0), &cfg)
	bounds := geo.Square(16000)

	_, ok := v.Enter("a", core.V(10, 10, 0), 0)
	require.True(t, ok)
	require.True(t, v.Drive("a", core.V(1, 0, 0), 1))

	pos, ok := v.Exit("a", bounds, time.Second)
	require.True(t, ok)
	assert.True(t, bounds.Contains(pos))
	assert.Equal(t, core.Vec3{}, v.Velocity, "driver leaving stops the vehicle")
	assert.False(t, v.Occupied())

	_, ok = v.Exit("a", bounds, time.Second)
	assert.False(t, ok)
}

func TestDrive_OnlyDriverWithFuel(t *testing.T) {
	v := newTestVehicle(Jeep)
	v.Enter("driver", v.Position, 0)
	v.Enter("passenger", v.Position, 0)

	assert.False(t, v.Drive("passenger", core.V(1, 0, 0), 1))
	assert.False(t, v.Drive("driver", core.V(1, 0, 0), 1.5))
	require.True(t, v.Drive("driver", core.V(1, 0, 0), 0.5))
	assert.InDelta(t, 750, v.Speed(), 1e-9)

	v.Fuel = 0
	assert.False(t, v.Drive("driver", core.V(1, 0, 0), 1))
}

func TestUpdate_MovesAndBurnsFuel(t *testing.T) {
	v := newTestVehicle(Buggy)
	v.Enter("a", v.Position, 0)
	require.True(t, v.Drive("a", core.V(0, 1, 0), 1))

	destroyed := v.Update(time.Second, time.Second, geo.Square(16000))

	assert.False(t, destroyed)
	assert.InDelta(t, 2800, v.Position.Y, 1e-9)
	assert.InDelta(t, 99.5, v.Fuel, 1e-9)
}

func TestUpdate_RunsOutOfFuel(t *testing.T) {
	v := newTestVehicle(Buggy)
	v.Enter("a", v.Position, 0)
	v.Fuel = 0.01
	require.True(t, v.Drive("a", core.V(1, 0, 0), 1))

	v.Update(time.Second, time.Second, geo.Square(16000))
	assert.Equal(t, 0.0, v.Fuel)

	v.Update(2*time.Second, time.Second, geo.Square(16000))
	assert.Equal(t, 0.0, v.Speed())
}

func TestUpdate_IdleDecayDestroys(t *testing.T) {
	v := newTestVehicle(Buggy)
	v.Health = 5
	bounds := geo.Square(16000)

	assert.False(t, v.Update(time.Minute, time.Second, bounds), "not idle past the threshold yet")
	assert.Equal(t, 5.0, v.Health)

	assert.True(t, v.Update(time.Minute+time.Second, time.Second, bounds))
	assert.True(t, v.Destroyed)
	assert.False(t, v.Update(time.Minute+2*time.Second, time.Second, bounds), "destroyed only once")
}

func TestDamage_DestroysAndEjects(t *testing.T) {
	v := newTestVehicle(Truck)
	v.Enter("a", v.Position, 0)
	v.Enter("b", v.Position, 0)

	assert.False(t, v.Damage(1000))
	assert.True(t, v.Damage(1000))
	assert.False(t, v.Damage(1000))

	ejected := v.EjectAll(geo.Square(16000))
	assert.Len(t, ejected, 2)
	assert.NotEqual(t, ejected["a"], ejected["b"])
	assert.False(t, v.Occupied())
}

func TestCollide_CooldownAndOccupants(t *testing.T) {
	v := newTestVehicle(Buggy)
	v.Enter("driver", v.Position, 0)
	require.True(t, v.Drive("driver", core.V(1, 0, 0), 1))

	dmg, ok := v.Collide("victim", v.Position.Add(core.V(50, 0, 0)), time.Second)
	require.True(t, ok)
	assert.InDelta(t, 90, dmg, 1e-9)

	_, ok = v.Collide("victim", v.Position, time.Second+500*time.Millisecond)
	assert.False(t, ok, "per-player cooldown")

	_, ok = v.Collide("victim", v.Position, 2*time.Second)
	assert.True(t, ok)

	_, ok = v.Collide("driver", v.Position, 5*time.Second)
	assert.False(t, ok, "occupants are not run over")

	_, ok = v.Collide("far", v.Position.Add(core.V(1000, 0, 0)), 5*time.Second)
	assert.False(t, ok)
}

func TestHorn(t *testing.T) {
	v := newTestVehicle(Jeep)
	assert.False(t, v.Horn("a"))
	v.Enter("a", v.Position, 0)
	assert.True(t, v.Horn("a"))
}
