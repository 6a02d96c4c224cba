package zone

import (
	"math/rand"
	"testing"
	"time"

	"github.com/OCAP2/royale/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_InterpolatesAtHalfShrink(t *testing.T) {
	c := NewController(Schedule{
		{Wait: 0, Shrink: 60 * time.Second, DamagePerSecond: 5, FinalRadius: 1000},
	}, -1)
	c.Start(0, core.V(5000, 5000, 0), 2000)

	tr := c.Update(0, []core.Vec3{core.V(5200, 5000, 0)}, rand.New(rand.NewSource(1)))
	require.Len(t, tr, 1)
	assert.Equal(t, core.EventZoneShrinkStarted, tr[0].Type)

	center, radius := c.Current(30 * time.Second)
	assert.InDelta(t, 1500, radius, 1e-9)

	start := core.V(5000, 5000, 0)
	target := tr[0].Shrink.TargetCenter
	assert.InDelta(t, (start.X+target.X)/2, center.X, 1e-9)
	assert.InDelta(t, (start.Y+target.Y)/2, center.Y, 1e-9)

	player := center.Add(core.V(1600, 0, 0))
	assert.False(t, c.Contains(30*time.Second, player))
	assert.Equal(t, 5.0, c.DamagePerSecond())
}

func TestController_NextCenterStaysInsideOldCircle(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		c := NewController(Schedule{{Shrink: time.Second, FinalRadius: 400}}, -1)
		c.Start(0, core.V(0, 0, 0), 1000)

		// Players clustered far outside pull the centroid hard.
		tr := c.Update(0, []core.Vec3{core.V(9000, 9000, 0)}, rng)
		require.NotEmpty(t, tr)

		s := tr[0].Shrink
		assert.LessOrEqual(t, s.TargetCenter.Dist2D(s.Center), s.Radius-s.TargetRadius+1e-9)
	}
}

func TestController_RadiusNeverIncreases(t *testing.T) {
	c := NewController(Schedule{
		{Wait: time.Second, Shrink: 2 * time.Second, FinalRadius: 800},
		{Wait: time.Second, Shrink: 2 * time.Second, FinalRadius: 1200},
		{Wait: time.Second, Shrink: 2 * time.Second, FinalRadius: 300},
	}, 2)
	c.Start(0, core.V(0, 0, 0), 1000)
	rng := rand.New(rand.NewSource(3))

	prev := 1000.0
	var types []core.EventType
	for now := time.Duration(0); now <= 12*time.Second; now += 50 * time.Millisecond {
		for _, tr := range c.Update(now, nil, rng) {
			types = append(types, tr.Type)
		}
		_, r := c.Current(now)
		assert.LessOrEqual(t, r, prev+1e-9)
		prev = r
	}

	assert.InDelta(t, 300, prev, 1e-9)
	assert.Contains(t, types, core.EventFinalCircle)
	assert.Equal(t, core.ZoneClosed, c.State(12*time.Second).Stage)
}

func TestController_LiveRadiusBetweenPhaseBounds(t *testing.T) {
	c := NewController(Schedule{{Wait: 0, Shrink: 10 * time.Second, FinalRadius: 500}}, -1)
	c.Start(0, core.V(0, 0, 0), 1500)
	c.Update(0, nil, nil)

	for now := time.Duration(0); now <= 10*time.Second; now += 250 * time.Millisecond {
		_, r := c.Current(now)
		assert.GreaterOrEqual(t, r, 500.0)
		assert.LessOrEqual(t, r, 1500.0)
	}
}

func TestController_SkipsSeveralStagesInOneUpdate(t *testing.T) {
	c := NewController(Schedule{
		{Wait: time.Second, Shrink: time.Second, FinalRadius: 500},
		{Wait: time.Second, Shrink: time.Second, FinalRadius: 200},
	}, -1)
	c.Start(0, core.V(0, 0, 0), 1000)

	tr := c.Update(5*time.Second, nil, nil)

	require.Len(t, tr, 4)
	assert.Equal(t, core.EventZoneShrinkStarted, tr[0].Type)
	assert.Equal(t, core.EventZoneShrinkCompleted, tr[1].Type)
	assert.Equal(t, core.EventZoneShrinkStarted, tr[2].Type)
	assert.Equal(t, core.EventZoneShrinkCompleted, tr[3].Type)
	assert.Equal(t, 1, c.Phase())
}

func TestController_IdleBeforeStart(t *testing.T) {
	c := NewController(DefaultSchedule(), 4)
	assert.True(t, c.Contains(0, core.V(1e9, 1e9, 0)))
	assert.Equal(t, 0.0, c.DamagePerSecond())
	assert.Empty(t, c.Update(time.Hour, nil, nil))
}

func TestAccrueDamage(t *testing.T) {
	acc := 0.0
	total := 0
	for i := 0; i < 20; i++ {
		var whole int
		whole, acc = AccrueDamage(acc, 1.5, 50*time.Millisecond)
		total += whole
	}

	assert.Equal(t, 1, total)
	assert.InDelta(t, 0.5, acc, 1e-9)

	whole, rest := AccrueDamage(0.25, 10, 500*time.Millisecond)
	assert.Equal(t, 5, whole)
	assert.InDelta(t, 0.25, rest, 1e-9)
}

func TestSchedule_Validate(t *testing.T) {
	assert.NoError(t, DefaultSchedule().Validate())
	assert.ErrorIs(t, Schedule{}.Validate(), ErrEmptySchedule)
	assert.Error(t, Schedule{{Wait: -time.Second}}.Validate())
	assert.Equal(t, 720*time.Second, DefaultSchedule().Duration())
}
