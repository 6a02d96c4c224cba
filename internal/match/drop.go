package match

import (
	"math"
	"time"

	"github.com/OCAP2/royale/internal/geo"
	"github.com/OCAP2/royale/internal/player"
	"github.com/OCAP2/royale/pkg/core"
)

// planDropPath picks a straight flight line that crosses the map through a
// point near the centre, entering and leaving at the map edge.
func (m *Match) planDropPath() {
	b := m.world.Bounds
	through := geo.RandomInCircle(b.Center(), b.Width()/4, m.rng)
	angle := m.rng.Float64() * 2 * math.Pi
	dir := core.V(math.Cos(angle), math.Sin(angle), 0)

	enter, exit := crossing(b, through, dir)
	enter.Z = m.cfg.Drop.Altitude
	exit.Z = m.cfg.Drop.Altitude

	m.dropPath = [2]core.Vec3{enter, exit}
	m.dropship = enter
	m.dropshipLive = true
}

// crossing returns where the line through p along dir meets the bounds.
func crossing(b geo.Bounds, p, dir core.Vec3) (core.Vec3, core.Vec3) {
	tMin, tMax := math.Inf(-1), math.Inf(1)
	origin := [2]float64{p.X, p.Y}
	d := [2]float64{dir.X, dir.Y}
	lo := [2]float64{b.Min.X, b.Min.Y}
	hi := [2]float64{b.Max.X, b.Max.Y}
	for i := range origin {
		if math.Abs(d[i]) < 1e-9 {
			continue
		}
		t1, t2 := (lo[i]-origin[i])/d[i], (hi[i]-origin[i])/d[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
	}
	return b.Clamp(p.Add(dir.Scale(tMin))), b.Clamp(p.Add(dir.Scale(tMax)))
}

// advanceDropship flies the dropship along its path. Everyone still aboard
// is released when it reaches the far edge.
func (m *Match) advanceDropship(dt time.Duration) {
	if !m.dropshipLive {
		return
	}
	end := m.dropPath[1]
	step := m.cfg.Drop.Speed * dt.Seconds()
	if remaining := m.dropship.Dist2D(end); step >= remaining {
		m.dropship = end
		m.dropshipLive = false
	} else {
		dir := end.Sub(m.dropship).Flat().Normalize()
		m.dropship = m.dropship.Add(dir.Scale(step))
	}

	for _, p := range m.roster {
		if p.Drop != core.DropAboard {
			continue
		}
		p.Position = m.dropship
		if !m.dropshipLive {
			m.jump(p, nil)
		}
	}
	if !m.dropshipLive {
		m.log.Debug("Dropship reached the end of its path", "tick", m.tick)
	}
}

// jump releases a player from the dropship. A target steers the parachute,
// otherwise the player falls straight down.
func (m *Match) jump(p *player.Player, target *core.Vec3) {
	p.Drop = core.DropParachuting
	p.Position = m.dropship
	p.DropTarget = nil
	if target != nil {
		t := m.world.Bounds.Clamp(target.Flat())
		p.DropTarget = &t
	}
}

// advanceParachutes descends every parachuting player and glides them
// toward their target.
func (m *Match) advanceParachutes(dt time.Duration) {
	secs := dt.Seconds()
	for _, p := range m.roster {
		if p.Drop != core.DropParachuting || !p.Alive() {
			continue
		}
		if p.DropTarget != nil {
			to := p.DropTarget.Sub(p.Position).Flat()
			if d := to.Len2D(); d > 0 {
				step := math.Min(d, m.cfg.Drop.GlideSpeed*secs)
				p.Position = p.Position.Add(to.Scale(step / d))
				p.Heading = to.Heading()
			}
		}
		p.Position.Z -= m.cfg.Drop.FallSpeed * secs
		if p.Position.Z > 0 {
			continue
		}
		p.Position.Z = 0
		p.Position = m.world.Bounds.Clamp(p.Position)
		p.Drop = core.DropLanded
		p.DropTarget = nil
		m.emit(core.EventPlayerLanded, core.PlayerLanded{PlayerID: p.ID, Position: p.Position})
	}
}

func (m *Match) aboard() int {
	n := 0
	for _, p := range m.roster {
		if p.Drop == core.DropAboard {
			n++
		}
	}
	return n
}

// beginPlaying starts the zone once the dropship is empty. Players still
// under canopy keep descending during play.
func (m *Match) beginPlaying() {
	m.phase = core.PhasePlaying
	m.dropshipLive = false
	m.zone.Start(m.clock, m.world.Bounds.Center(), m.cfg.zoneRadius())
	m.log.Info("Drop phase over", "tick", m.tick, "alive", len(m.alive))
}
