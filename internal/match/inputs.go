package match

import (
	"github.com/OCAP2/royale/internal/combat"
	"github.com/OCAP2/royale/internal/loot"
	"github.com/OCAP2/royale/internal/player"
	"github.com/OCAP2/royale/internal/vehicle"
	"github.com/OCAP2/royale/pkg/core"
)

// applyInputs drains the inbox and applies each input against the state at
// the start of the tick. A failed precondition leaves the state untouched.
func (m *Match) applyInputs() {
	for _, pi := range m.inbox.drain() {
		p, ok := m.players[pi.PlayerID]
		if !ok {
			continue
		}
		p.LastSeq = pi.Input.Seq
		if !m.apply(p, pi.Input.Action) {
			m.log.Debug("Input had no effect",
				"tick", m.tick,
				"player", p.ID,
				"action", pi.Input.Action.Kind(),
				"seq", pi.Input.Seq,
			)
		}
	}
}

func (m *Match) apply(p *player.Player, action core.Action) bool {
	if !p.Alive() {
		if a, ok := action.(core.SpectateAction); ok {
			return m.spectate(p, a)
		}
		return false
	}

	switch a := action.(type) {
	case core.MoveAction:
		return m.move(p, a)
	case core.JumpAction:
		return m.jumpInput(p, a)
	case core.AttackAction:
		return m.attack(p, a)
	case core.ReloadAction:
		return p.Up() && m.combat.StartReload(p, a.WeaponSlot, m.clock)
	case core.InteractAction:
		return m.interact(p, a)
	case core.ConsumeAction:
		return p.Up() && p.Consume(a.ItemID)
	case core.VehicleAction:
		return m.vehicleInput(p, a)
	case core.ReviveAction:
		return m.startRevive(p, a)
	}
	return false
}

func (m *Match) move(p *player.Player, a core.MoveAction) bool {
	if !p.Grounded() {
		return false
	}
	if p.Up() {
		p.RevivingTarget = ""
	}
	p.SetMove(a.Direction, a.Magnitude, a.Sprint, a.Crouch)
	return true
}

func (m *Match) jumpInput(p *player.Player, a core.JumpAction) bool {
	if m.phase != core.PhaseDrop || p.Drop != core.DropAboard {
		return false
	}
	m.jump(p, a.Target)
	return true
}

func (m *Match) attack(p *player.Player, a core.AttackAction) bool {
	if !p.Up() || p.Drop != core.DropLanded {
		return false
	}
	if p.VehicleID != "" {
		v, ok := m.world.Vehicle(p.VehicleID)
		if !ok {
			return false
		}
		if seat, ok := v.SeatOf(p.ID); !ok || v.SeatName(seat) != vehicle.SeatGunner {
			return false
		}
	}

	var aim core.Vec3
	if a.TargetID != "" {
		target, ok := m.players[a.TargetID]
		if !ok || !target.Alive() || target == p {
			return false
		}
		aim = target.Position.Add(core.V(0, 0, m.cfg.Combat.AimHeight))
	} else {
		aim = *a.Position
	}

	proj, status := m.combat.Fire(p, a.WeaponSlot, aim, m.clock, m.rng)
	if status != combat.Fired {
		m.log.Debug("Shot not fired", "tick", m.tick, "player", p.ID, "status", status.String())
		return false
	}
	p.RevivingTarget = ""
	m.emit(core.EventWeaponFired, core.WeaponFired{
		PlayerID:     p.ID,
		Weapon:       proj.Weapon,
		Slot:         a.WeaponSlot,
		ProjectileID: proj.ID,
		Origin:       proj.Origin,
		Direction:    proj.Velocity.Normalize(),
		Ammo:         p.Weapon(a.WeaponSlot).Ammo,
	})
	return true
}

func (m *Match) interact(p *player.Player, a core.InteractAction) bool {
	switch a.Action {
	case core.InteractPickupLoot:
		return m.pickup(p, a.TargetID)
	case core.InteractEnterVehicle:
		return m.enterVehicle(p, a.TargetID)
	case core.InteractExitVehicle:
		if p.VehicleID == "" {
			return false
		}
		m.leaveVehicle(p, true)
		return true
	case core.InteractOpenDoor:
		if !p.Up() || !p.Grounded() {
			return false
		}
		d, ok := m.world.OpenDoor(p.Position, a.TargetID)
		if !ok {
			return false
		}
		m.emit(core.EventDoorToggled, core.DoorToggled{DoorID: d.ID, PlayerID: p.ID, Open: d.Open})
		return true
	}
	return false
}

// pickup moves a world item into the inventory. Anything the item displaces
// is dropped at the player's feet within the same step.
func (m *Match) pickup(p *player.Player, itemID string) bool {
	if !p.Up() || !p.Grounded() {
		return false
	}
	wi, ok := m.world.Loot.Get(itemID)
	if !ok || p.Position.Dist2D(wi.Position) > m.cfg.Player.InteractRange {
		return false
	}

	var displaced loot.Item
	switch it := wi.Item.(type) {
	case *loot.Weapon:
		if old := p.PickupWeapon(it); old != nil {
			displaced = old
		}
	case *loot.Armor:
		old, ok := p.PickupArmor(it)
		if !ok {
			return false
		}
		if old != nil {
			displaced = old
		}
	case *loot.Consumable:
		if !p.PickupConsumable(it) {
			return false
		}
	case *loot.Attachment:
		if !p.PickupAttachment(it) {
			return false
		}
	default:
		return false
	}

	m.world.Loot.Take(itemID, m.clock)
	meta := wi.Item.Meta()
	m.emit(core.EventLootPickedUp, core.LootPickedUp{
		PlayerID: p.ID,
		ItemID:   meta.ID,
		Category: string(wi.Item.Category()),
		Name:     meta.Name,
		Rarity:   meta.Rarity.String(),
	})
	if displaced != nil {
		m.dropItem(p, displaced)
	}
	return true
}

func (m *Match) enterVehicle(p *player.Player, vehicleID string) bool {
	if !p.Up() || !p.Grounded() {
		return false
	}
	v, ok := m.world.Vehicle(vehicleID)
	if !ok {
		return false
	}
	seat, ok := v.Enter(p.ID, p.Position, m.clock)
	if !ok {
		return false
	}
	p.VehicleID = v.ID
	p.Seat = v.SeatName(seat)
	p.Velocity = core.Vec3{}
	p.RevivingTarget = ""
	p.Position = v.Position
	m.emit(core.EventVehicleEntered, core.VehicleSeat{VehicleID: v.ID, PlayerID: p.ID, Seat: p.Seat})
	return true
}

func (m *Match) vehicleInput(p *player.Player, a core.VehicleAction) bool {
	if !p.Up() || p.VehicleID == "" {
		return false
	}
	v, ok := m.world.Vehicle(p.VehicleID)
	if !ok {
		return false
	}
	switch a.Action {
	case core.VehicleDrive:
		return v.Drive(p.ID, a.Direction, a.Magnitude)
	case core.VehicleHorn:
		if !v.Horn(p.ID) {
			return false
		}
		m.emit(core.EventVehicleHorn, core.VehicleHornSounded{VehicleID: v.ID, PlayerID: p.ID})
		return true
	}
	return false
}

// startRevive marks p as reviving a downed teammate in range. Progress is
// advanced each tick while the reviver stays close and up.
func (m *Match) startRevive(p *player.Player, a core.ReviveAction) bool {
	if !p.Up() || !p.Grounded() {
		return false
	}
	target, ok := m.players[a.TargetID]
	if !ok || target == p || target.TeamID != p.TeamID || !target.Down() {
		return false
	}
	if p.Position.Dist2D(target.Position) > m.cfg.Player.ReviveRadius {
		return false
	}
	p.RevivingTarget = target.ID
	p.Velocity = core.Vec3{}
	return true
}

func (m *Match) spectate(p *player.Player, a core.SpectateAction) bool {
	if a.TargetID == "" {
		m.spectateFor(p, m.killerOf(p.ID))
		return p.Spectating != ""
	}
	target, ok := m.players[a.TargetID]
	if !ok || !target.Alive() {
		return false
	}
	p.Spectating = target.ID
	return true
}

// killerOf looks the victim up in the recent kill feed.
func (m *Match) killerOf(victimID string) string {
	for i := len(m.killFeed) - 1; i >= 0; i-- {
		if m.killFeed[i].VictimID == victimID {
			return m.killFeed[i].KillerID
		}
	}
	return ""
}
