package zone

import (
	"math"
	"math/rand"
	"time"

	"github.com/OCAP2/royale/internal/geo"
	"github.com/OCAP2/royale/pkg/core"
)

const (
	centroidWeight = 0.7
	jitterFraction = 0.25
)

// Transition is a stage change produced by Update.
type Transition struct {
	Type   core.EventType
	Shrink core.ZoneShrink
}

// Controller advances through a Schedule. It reads the schedule forward only
// and never grows the circle.
type Controller struct {
	schedule   Schedule
	finalPhase int

	phase      int
	stage      core.ZoneStage
	stageStart time.Duration

	center       core.Vec3
	radius       float64
	targetCenter core.Vec3
	targetRadius float64
}

// NewController creates an idle controller. finalPhase is the schedule index
// whose shrink signals the final circle; a negative value disables it.
func NewController(s Schedule, finalPhase int) *Controller {
	return &Controller{
		schedule:   s,
		finalPhase: finalPhase,
		stage:      core.ZoneIdle,
	}
}

// Start begins the first wait period at now with the given circle.
func (c *Controller) Start(now time.Duration, center core.Vec3, radius float64) {
	c.phase = 0
	c.stage = core.ZoneWaiting
	c.stageStart = now
	c.center = center.Flat()
	c.radius = radius
	c.targetCenter = c.center
	c.targetRadius = radius
	if len(c.schedule) == 0 {
		c.stage = core.ZoneClosed
	}
}

// Started reports whether Start has been called.
func (c *Controller) Started() bool {
	return c.stage != core.ZoneIdle
}

// Phase returns the current schedule index.
func (c *Controller) Phase() int {
	return c.phase
}

// Update advances the controller to now. alive is used to bias the next
// center toward the surviving players. Several transitions are returned when
// now skips past more than one stage boundary.
func (c *Controller) Update(now time.Duration, alive []core.Vec3, rng *rand.Rand) []Transition {
	var out []Transition
	for {
		switch c.stage {
		case core.ZoneWaiting:
			p := c.schedule[c.phase]
			if now-c.stageStart < p.Wait {
				return out
			}
			c.stageStart += p.Wait
			c.targetRadius = math.Min(p.FinalRadius, c.radius)
			c.targetCenter = c.nextCenter(alive, rng)
			c.stage = core.ZoneShrinking
			out = append(out, Transition{Type: core.EventZoneShrinkStarted, Shrink: c.shrinkInfo()})
			if c.phase == c.finalPhase {
				out = append(out, Transition{Type: core.EventFinalCircle, Shrink: c.shrinkInfo()})
			}

		case core.ZoneShrinking:
			p := c.schedule[c.phase]
			if now-c.stageStart < p.Shrink {
				return out
			}
			c.stageStart += p.Shrink
			c.center = c.targetCenter
			c.radius = c.targetRadius
			out = append(out, Transition{Type: core.EventZoneShrinkCompleted, Shrink: c.shrinkInfo()})
			if c.phase+1 >= len(c.schedule) {
				c.stage = core.ZoneClosed
				return out
			}
			c.phase++
			c.stage = core.ZoneWaiting

		default:
			return out
		}
	}
}

func (c *Controller) shrinkInfo() core.ZoneShrink {
	return core.ZoneShrink{
		Phase:        c.phase,
		Center:       c.center,
		Radius:       c.radius,
		TargetCenter: c.targetCenter,
		TargetRadius: c.targetRadius,
		Duration:     c.schedule[c.phase].Shrink,
	}
}

// nextCenter blends the alive centroid with the current center, adds bounded
// jitter and keeps the new circle inside the old one.
func (c *Controller) nextCenter(alive []core.Vec3, rng *rand.Rand) core.Vec3 {
	maxShift := c.radius - c.targetRadius
	if maxShift <= 0 {
		return c.center
	}
	centroid := geo.Centroid(alive, c.center).Flat()
	blend := centroid.Scale(centroidWeight).Add(c.center.Scale(1 - centroidWeight))
	if rng != nil {
		blend = geo.RandomInCircle(blend, jitterFraction*maxShift, rng)
	}
	return geo.ClampToCircle(blend, c.center, maxShift).Flat()
}

// Current returns the live circle at now, interpolated during a shrink.
func (c *Controller) Current(now time.Duration) (core.Vec3, float64) {
	if c.stage != core.ZoneShrinking {
		return c.center, c.radius
	}
	t := 1.0
	if d := c.schedule[c.phase].Shrink; d > 0 {
		t = math.Min(1, math.Max(0, float64(now-c.stageStart)/float64(d)))
	}
	return c.center.Lerp(c.targetCenter, t), c.radius + (c.targetRadius-c.radius)*t
}

// Contains tests p against the live circle on the ground plane.
func (c *Controller) Contains(now time.Duration, p core.Vec3) bool {
	if !c.Started() {
		return true
	}
	center, radius := c.Current(now)
	return p.Dist2D(center) <= radius
}

// DamagePerSecond is the rate applied outside the circle. It is zero before Start.
func (c *Controller) DamagePerSecond() float64 {
	if !c.Started() || len(c.schedule) == 0 {
		return 0
	}
	return c.schedule[c.phase].DamagePerSecond
}

// State returns the zone snapshot at now.
func (c *Controller) State(now time.Duration) core.ZoneState {
	center, radius := c.Current(now)
	s := core.ZoneState{
		Phase:           c.phase,
		Stage:           c.stage,
		Center:          center,
		Radius:          radius,
		TargetCenter:    c.targetCenter,
		TargetRadius:    c.targetRadius,
		DamagePerSecond: c.DamagePerSecond(),
	}
	switch c.stage {
	case core.ZoneWaiting:
		s.StageRemaining = max(0, c.schedule[c.phase].Wait-(now-c.stageStart))
	case core.ZoneShrinking:
		s.StageRemaining = max(0, c.schedule[c.phase].Shrink-(now-c.stageStart))
	}
	return s
}

// AccrueDamage adds dps over dt to the accumulator and splits off whole units.
func AccrueDamage(acc, dps float64, dt time.Duration) (whole int, rest float64) {
	acc += dps * dt.Seconds()
	if acc < 1 {
		return 0, acc
	}
	w := math.Floor(acc)
	return int(w), acc - w
}
