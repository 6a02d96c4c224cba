package match

import (
	"time"

	"github.com/OCAP2/royale/internal/player"
	"github.com/OCAP2/royale/internal/zone"
	"github.com/OCAP2/royale/pkg/core"
)

func (m *Match) movePlayers(dt time.Duration) {
	for _, p := range m.roster {
		if p.Alive() && p.Grounded() {
			p.Integrate(dt, m.world.Bounds)
		}
	}
}

// separatePlayers pushes overlapping players on foot apart, half the
// overlap each.
func (m *Match) separatePlayers() {
	r := m.cfg.SeparationRadius
	if r <= 0 {
		return
	}
	for i, a := range m.roster {
		if !a.Alive() || !a.Grounded() {
			continue
		}
		for _, b := range m.roster[i+1:] {
			if !b.Alive() || !b.Grounded() {
				continue
			}
			d := a.Position.Dist2D(b.Position)
			if d >= r {
				continue
			}
			dir := b.Position.Sub(a.Position).Flat().Normalize()
			if d == 0 {
				dir = core.V(1, 0, 0)
			}
			push := dir.Scale((r - d) / 2)
			a.Position = m.world.Bounds.Clamp(a.Position.Sub(push))
			b.Position = m.world.Bounds.Clamp(b.Position.Add(push))
		}
	}
}

// resolveCollisions runs moving vehicles over players on foot. Damage is
// credited to the driver and teammates of the driver are spared.
func (m *Match) resolveCollisions() {
	for _, v := range m.world.Vehicles() {
		driverID := v.Driver()
		if driverID == "" {
			continue
		}
		driver := m.players[driverID]
		for _, p := range m.roster {
			if !p.Alive() || !p.Grounded() {
				continue
			}
			if driver != nil && !m.cfg.Combat.FriendlyFire && p.TeamID == driver.TeamID {
				continue
			}
			dmg, hit := v.Collide(p.ID, p.Position, m.clock)
			if !hit {
				continue
			}
			m.damagePlayer(p, dmg, hitSource{
				attacker: driverID,
				weapon:   string(v.Kind),
				source:   core.SourceVehicleCollision,
			}, false)
		}
	}
}

// ageDowned bleeds out downed players past the timeout and advances revive
// progress for those with a teammate working on them.
func (m *Match) ageDowned(dt time.Duration) {
	for _, p := range m.roster {
		if !p.Down() {
			continue
		}
		if p.BledOut(m.clock) {
			m.eliminate(p, hitSource{
				attacker: p.KnockedBy,
				weapon:   p.KnockedWeapon,
				source:   core.SourceBleedOut,
			})
			continue
		}

		reviver := m.reviverOf(p)
		if !p.AdvanceRevive(dt, reviver != nil) {
			continue
		}
		p.Revive()
		reviver.RevivingTarget = ""
		reviver.Stats.Revives++
		m.emit(core.EventPlayerRevived, core.PlayerRevived{PlayerID: p.ID, ReviverID: reviver.ID})
	}

	for _, p := range m.roster {
		if p.RevivingTarget == "" {
			continue
		}
		if t, ok := m.players[p.RevivingTarget]; !ok || !t.Down() || !p.Up() {
			p.RevivingTarget = ""
		}
	}
}

// reviverOf returns an up teammate on foot, within range, who is reviving p.
func (m *Match) reviverOf(p *player.Player) *player.Player {
	for _, mate := range m.teams[p.TeamID] {
		if mate == p || !mate.Up() || !mate.Grounded() || mate.RevivingTarget != p.ID {
			continue
		}
		if mate.Position.Dist2D(p.Position) <= m.cfg.Player.ReviveRadius {
			return mate
		}
	}
	return nil
}

func (m *Match) advanceProjectiles(dt time.Duration) {
	if m.combat.Len() == 0 {
		return
	}
	res := m.combat.Advance(dt, m.roster, m.world.Vehicles(), m.world.Bounds)
	for _, h := range res.Hits {
		m.applyHit(h)
	}
	for _, b := range res.Explosions {
		m.emit(core.EventExplosion, core.Explosion{
			ProjectileID: b.ProjectileID,
			OwnerID:      b.OwnerID,
			Weapon:       b.Weapon,
			Position:     b.Position,
			Radius:       b.Radius,
		})
		for _, h := range b.Hits {
			m.applyHit(h)
		}
	}
	if len(res.Orphaned) > 0 {
		m.log.Debug("Discarded orphaned projectiles", "tick", m.tick, "count", len(res.Orphaned))
	}
}

// updateZone advances the circle and applies out-of-zone damage against the
// live interpolated boundary. Vehicle occupants are not sheltered.
func (m *Match) updateZone(dt time.Duration) {
	if !m.zone.Started() {
		return
	}
	for _, tr := range m.zone.Update(m.clock, m.alivePositions(), m.rng) {
		switch tr.Type {
		case core.EventFinalCircle:
			m.emit(tr.Type, core.FinalCircle{Phase: tr.Shrink.Phase})
			if m.phase == core.PhasePlaying {
				m.phase = core.PhaseFinalCircle
				m.log.Info("Final circle", "tick", m.tick, "zonePhase", tr.Shrink.Phase)
			}
		default:
			m.emit(tr.Type, tr.Shrink)
		}
	}

	dps := m.zone.DamagePerSecond()
	for _, p := range m.roster {
		if !p.Alive() || p.Drop != core.DropLanded {
			continue
		}
		inside := m.zone.Contains(m.clock, p.Position)
		if inside != p.InZone {
			p.InZone = inside
			if inside {
				p.ZoneEnteredAt = m.clock
			} else {
				p.ZoneExitedAt = m.clock
			}
		}
		if inside {
			continue
		}
		whole, rest := zone.AccrueDamage(p.ZoneDamageAcc, dps, dt)
		p.ZoneDamageAcc = rest
		if whole > 0 {
			m.damagePlayer(p, float64(whole), hitSource{source: core.SourceZone}, true)
		}
	}
}

func (m *Match) alivePositions() []core.Vec3 {
	out := make([]core.Vec3, 0, len(m.alive))
	for _, p := range m.roster {
		if p.Alive() {
			out = append(out, p.Position)
		}
	}
	return out
}

func (m *Match) updateLoot() {
	despawned, spawned := m.world.Loot.Tick(m.clock)
	if len(despawned) > 0 || len(spawned) > 0 {
		m.log.Debug("Loot refreshed", "tick", m.tick, "despawned", len(despawned), "spawned", len(spawned))
	}
}

// updateVehicles moves vehicles, burns fuel, applies idle decay and carries
// occupants along.
func (m *Match) updateVehicles(dt time.Duration) {
	for _, v := range m.world.Vehicles() {
		if v.Update(m.clock, dt, m.world.Bounds) {
			m.destroyVehicle(v, "", "")
			continue
		}
		for _, id := range v.Occupants() {
			if p, ok := m.players[id]; ok {
				p.Position = v.Position
				p.Heading = v.Heading
			}
		}
	}
}
