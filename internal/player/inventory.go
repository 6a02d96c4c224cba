package player

import (
	"github.com/OCAP2/royale/internal/loot"
)

// ActiveWeapon returns the weapon in the active slot, or nil.
func (p *Player) ActiveWeapon() *loot.Weapon {
	return p.Weapon(p.ActiveSlot)
}

// Weapon returns the weapon in the given slot, or nil for an empty or invalid slot.
func (p *Player) Weapon(slot int) *loot.Weapon {
	if slot < 0 || slot >= len(p.Weapons) {
		return nil
	}
	return p.Weapons[slot]
}

// PickupWeapon fills the first empty slot. With both slots taken the primary
// is displaced and returned so the caller can drop it.
func (p *Player) PickupWeapon(w *loot.Weapon) (displaced *loot.Weapon) {
	for i := range p.Weapons {
		if p.Weapons[i] == nil {
			p.Weapons[i] = w
			return nil
		}
	}
	displaced = p.Weapons[0]
	p.Weapons[0] = w
	return displaced
}

// PickupArmor equips armor with strictly higher protection than the current
// piece. The replaced piece, if any, is returned.
func (p *Player) PickupArmor(a *loot.Armor) (displaced *loot.Armor, ok bool) {
	if p.Armor != nil && a.Protection <= p.Armor.Protection {
		return nil, false
	}
	displaced = p.Armor
	p.Armor = a
	return displaced, true
}

// PickupConsumable merges the stack into existing stacks of the same kind and
// opens new slots for the rest. It is all or nothing: if the full count does
// not fit, the inventory is left untouched.
func (p *Player) PickupConsumable(c *loot.Consumable) bool {
	spec := c.Spec()
	if spec.StackCap <= 0 || c.Count <= 0 {
		return false
	}

	room := 0
	for _, s := range p.Consumables {
		if s.Kind == c.Kind {
			room += spec.StackCap - s.Count
		}
	}
	room += (p.cfg.ConsumableSlots - len(p.Consumables)) * spec.StackCap
	if c.Count > room {
		return false
	}

	left := c.Count
	for _, s := range p.Consumables {
		if left == 0 {
			break
		}
		if s.Kind != c.Kind || s.Count >= spec.StackCap {
			continue
		}
		n := min(left, spec.StackCap-s.Count)
		s.Count += n
		left -= n
	}
	// World stacks never exceed the cap, so the remainder fits one new slot.
	if left > 0 {
		p.Consumables = append(p.Consumables, &loot.Consumable{Base: c.Base, Kind: c.Kind, Count: left})
	}
	return true
}

// PickupAttachment fits the attachment to the active weapon, falling back to
// the other slot. It fails when neither weapon has the slot free.
func (p *Player) PickupAttachment(a *loot.Attachment) bool {
	order := []int{p.ActiveSlot, 1 - p.ActiveSlot}
	for _, slot := range order {
		if w := p.Weapon(slot); w != nil && w.Attach(a) {
			return true
		}
	}
	return false
}

// Consume uses one item from the stack with the given id. It fails when the
// stack is unknown or the item would have no effect.
func (p *Player) Consume(itemID string) bool {
	idx := -1
	for i, s := range p.Consumables {
		if s.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	stack := p.Consumables[idx]
	spec := stack.Spec()
	healthCap := spec.HealthCap
	if healthCap <= 0 {
		healthCap = p.cfg.MaxHealth
	}
	heals := spec.Health > 0 && p.Health < healthCap
	shields := spec.Shield > 0 && p.Shield < p.cfg.MaxShield
	if !heals && !shields {
		return false
	}

	p.Heal(spec.Health, spec.HealthCap, spec.Shield)
	stack.Count--
	if stack.Count <= 0 {
		p.Consumables = append(p.Consumables[:idx], p.Consumables[idx+1:]...)
	}
	return true
}

// DropAll empties the inventory and returns every item, for death drops.
func (p *Player) DropAll() []loot.Item {
	var items []loot.Item
	for i, w := range p.Weapons {
		if w != nil {
			w.Reloading = false
			items = append(items, w)
			p.Weapons[i] = nil
		}
	}
	if p.Armor != nil {
		items = append(items, p.Armor)
		p.Armor = nil
	}
	for _, c := range p.Consumables {
		items = append(items, c)
	}
	p.Consumables = nil
	return items
}
