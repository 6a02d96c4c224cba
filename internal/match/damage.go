package match

import (
	"sort"

	"github.com/OCAP2/royale/internal/combat"
	"github.com/OCAP2/royale/internal/loot"
	"github.com/OCAP2/royale/internal/player"
	"github.com/OCAP2/royale/internal/vehicle"
	"github.com/OCAP2/royale/pkg/core"
)

// hitSource attributes a piece of damage.
type hitSource struct {
	attacker string
	weapon   string
	source   core.DamageSource
	headshot bool
	distance float64
}

// damagePlayer runs damage through the player's pipeline and arbitrates a
// lethal result. True damage skips armor and shield.
func (m *Match) damagePlayer(p *player.Player, amount float64, src hitSource, trueDamage bool) player.DamageResult {
	if p == nil || !p.Alive() || amount <= 0 {
		return player.DamageResult{}
	}

	var res player.DamageResult
	if trueDamage {
		res = p.ApplyTrueDamage(amount)
	} else {
		res = p.ApplyDamage(amount)
	}

	if attacker, ok := m.players[src.attacker]; ok && attacker != p {
		attacker.Stats.DamageDealt += res.Applied()
		if src.headshot {
			attacker.Stats.Headshots++
		}
	}
	if src.source == core.SourceWeapon {
		m.emit(core.EventPlayerHit, core.PlayerHit{
			TargetID:   p.ID,
			AttackerID: src.attacker,
			Weapon:     src.weapon,
			Damage:     res.Applied(),
			Headshot:   src.headshot,
			Shield:     p.Shield,
			Health:     p.Health,
		})
	}

	if res.Lethal {
		m.resolveLethal(p, src)
	}
	return res
}

// resolveLethal knocks a player down while a teammate is still up, and
// eliminates them otherwise. A downed player reaching zero is eliminated.
func (m *Match) resolveLethal(p *player.Player, src hitSource) {
	if p.Up() && m.hasUpTeammate(p) {
		m.knock(p, src)
		return
	}
	m.eliminate(p, src)
}

func (m *Match) hasUpTeammate(p *player.Player) bool {
	for _, mate := range m.teams[p.TeamID] {
		if mate != p && mate.Up() {
			return true
		}
	}
	return false
}

func (m *Match) knock(p *player.Player, src hitSource) {
	m.leaveVehicle(p, true)
	p.Knock(m.clock, src.attacker, src.weapon)
	if attacker, ok := m.players[src.attacker]; ok && attacker != p {
		attacker.Stats.Knockdowns++
	}
	m.emit(core.EventPlayerKnockedDown, core.PlayerKnockedDown{
		PlayerID:   p.ID,
		AttackerID: src.attacker,
		Source:     src.source,
	})
}

// eliminate removes a player from the alive set and, when that leaves the
// team without anyone up, finishes off downed teammates.
func (m *Match) eliminate(p *player.Player, src hitSource) {
	m.eliminateOne(p, src)
	m.settleTeam(p.TeamID)
}

func (m *Match) eliminateOne(p *player.Player, src hitSource) {
	if !p.Alive() {
		return
	}
	placement := len(m.alive)
	delete(m.alive, p.ID)

	m.leaveVehicle(p, false)
	p.Eliminate(m.clock, placement)

	killerID := src.attacker
	if killerID == p.ID {
		killerID = ""
	}
	if killer, ok := m.players[killerID]; ok {
		killer.Stats.Kills++
	}

	entry := core.KillFeedEntry{
		KillerID: killerID,
		Source:   src.source,
		VictimID: p.ID,
		Weapon:   src.weapon,
		Headshot: src.headshot,
		Distance: src.distance,
		Position: p.Position,
		GameTime: m.clock,
	}
	m.killFeed = append(m.killFeed, entry)
	if n := m.cfg.KillFeedSize; n > 0 && len(m.killFeed) > n {
		m.killFeed = append(m.killFeed[:0:0], m.killFeed[len(m.killFeed)-n:]...)
	}
	m.lastEliminated = p

	m.emit(core.EventPlayerEliminated, core.PlayerEliminated{
		PlayerID:  p.ID,
		Placement: placement,
		Kill:      entry,
	})
	m.log.Debug("Player eliminated",
		"tick", m.tick,
		"player", p.ID,
		"placement", placement,
		"killer", killerID,
		"source", src.source,
	)

	m.dropInventory(p)
	m.spectateFor(p, killerID)
	for _, q := range m.roster {
		if !q.Alive() && q.Spectating == p.ID {
			m.spectateFor(q, killerID)
		}
	}
}

// settleTeam cascades a team wipe once nobody on the team is up, and
// announces the team's elimination once nobody is alive.
func (m *Match) settleTeam(teamID string) {
	members := m.teams[teamID]
	for _, mate := range members {
		if mate.Up() {
			return
		}
	}
	for _, mate := range members {
		if mate.Down() {
			m.eliminateOne(mate, hitSource{
				attacker: mate.KnockedBy,
				weapon:   mate.KnockedWeapon,
				source:   core.SourceTeamWipe,
			})
		}
	}
	if m.teamOut[teamID] {
		return
	}
	m.teamOut[teamID] = true
	m.emit(core.EventTeamEliminated, core.TeamEliminated{
		TeamID:    teamID,
		Placement: m.teamsAlive() + 1,
	})
}

// dropInventory spills an eliminated player's items where they fell.
func (m *Match) dropInventory(p *player.Player) {
	for _, item := range p.DropAll() {
		m.dropItem(p, item)
	}
}

func (m *Match) dropItem(p *player.Player, item loot.Item) {
	wi := m.world.Loot.Drop(item, p.Position, m.clock)
	meta := item.Meta()
	m.emit(core.EventItemDropped, core.ItemDropped{
		PlayerID: p.ID,
		ItemID:   meta.ID,
		Category: string(item.Category()),
		Name:     meta.Name,
		Position: wi.Position,
	})
}

// spectateFor points an eliminated player's camera at a teammate, else the
// killer, else the first player still alive in roster order.
func (m *Match) spectateFor(p *player.Player, killerID string) {
	p.Spectating = ""
	for _, mate := range m.teams[p.TeamID] {
		if mate != p && mate.Alive() {
			p.Spectating = mate.ID
			return
		}
	}
	if killer, ok := m.players[killerID]; ok && killer.Alive() {
		p.Spectating = killer.ID
		return
	}
	for _, q := range m.roster {
		if q.Alive() {
			p.Spectating = q.ID
			return
		}
	}
}

// leaveVehicle takes a player out of their seat. A knocked player is
// placed beside the vehicle and the exit is announced.
func (m *Match) leaveVehicle(p *player.Player, announce bool) {
	if p.VehicleID == "" {
		return
	}
	vehicleID := p.VehicleID
	if v, ok := m.world.Vehicle(vehicleID); ok {
		if pos, ok := v.Exit(p.ID, m.world.Bounds, m.clock); ok {
			p.Position = pos
		}
	}
	p.VehicleID = ""
	p.Seat = ""
	if announce {
		m.emit(core.EventVehicleExited, core.VehicleSeat{VehicleID: vehicleID, PlayerID: p.ID})
	}
}

func (m *Match) applyHit(h combat.Hit) {
	if h.Vehicle {
		if v, ok := m.world.Vehicle(h.TargetID); ok {
			m.damageVehicle(v, h.Damage, h.AttackerID, h.Weapon)
		}
		return
	}
	m.damagePlayer(m.players[h.TargetID], h.Damage, hitSource{
		attacker: h.AttackerID,
		weapon:   h.Weapon,
		source:   core.SourceWeapon,
		headshot: h.Headshot,
		distance: h.Distance,
	}, false)
}

func (m *Match) damageVehicle(v *vehicle.Vehicle, amount float64, attacker, weapon string) {
	if shooter, ok := m.players[attacker]; ok {
		shooter.Stats.DamageDealt += min(amount, v.Health)
	}
	if v.Damage(amount) {
		m.destroyVehicle(v, attacker, weapon)
	}
}

// destroyVehicle ejects every occupant, damages them and removes the wreck.
func (m *Match) destroyVehicle(v *vehicle.Vehicle, attacker, weapon string) {
	ejected := v.EjectAll(m.world.Bounds)
	m.world.RemoveVehicle(v.ID)
	m.emit(core.EventVehicleDestroyed, core.VehicleDestroyed{
		VehicleID:  v.ID,
		AttackerID: attacker,
		Position:   v.Position,
	})

	ids := make([]string, 0, len(ejected))
	for id := range ejected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		p, ok := m.players[id]
		if !ok {
			continue
		}
		p.Position = ejected[id]
		p.VehicleID = ""
		p.Seat = ""
		m.emit(core.EventVehicleExited, core.VehicleSeat{VehicleID: v.ID, PlayerID: id})
		m.damagePlayer(p, m.cfg.Vehicle.DestroyDamage, hitSource{
			attacker: attacker,
			weapon:   weapon,
			source:   core.SourceVehicleExplosion,
		}, false)
	}
	m.log.Debug("Vehicle destroyed", "tick", m.tick, "vehicle", v.ID, "occupants", len(ids))
}
