// Package loot models equipment, its rarity scaling and the world loot registry.
package loot

import (
	"math"
	"math/rand"
)

// Rarity scales an item's stats.
type Rarity int

const (
	Common Rarity = iota
	Rare
	Epic
	Legendary
)

var rarityNames = [...]string{"common", "rare", "epic", "legendary"}

// Roll weights per rarity, in the same order as the constants.
var rarityWeights = [...]int{60, 25, 12, 3}

var rarityMultipliers = [...]float64{1.0, 1.15, 1.3, 1.5}

func (r Rarity) String() string {
	if r < Common || r > Legendary {
		return "unknown"
	}
	return rarityNames[r]
}

// Multiplier is applied to an archetype's base stats.
func (r Rarity) Multiplier() float64 {
	if r < Common || r > Legendary {
		return 1
	}
	return rarityMultipliers[r]
}

// ParseRarity returns the rarity with the given name.
func ParseRarity(s string) (Rarity, bool) {
	for i, name := range rarityNames {
		if name == s {
			return Rarity(i), true
		}
	}
	return Common, false
}

// RollRarity draws a rarity from the weighted table.
func RollRarity(rng *rand.Rand) Rarity {
	total := 0
	for _, w := range rarityWeights {
		total += w
	}
	n := rng.Intn(total)
	for i, w := range rarityWeights {
		if n < w {
			return Rarity(i)
		}
		n -= w
	}
	return Common
}

// Category groups items by inventory rule.
type Category string

const (
	CategoryWeapon     Category = "weapon"
	CategoryArmor      Category = "armor"
	CategoryConsumable Category = "consumable"
	CategoryAttachment Category = "attachment"
)

// Categories lists every category, in roll order.
var Categories = []Category{CategoryWeapon, CategoryArmor, CategoryConsumable, CategoryAttachment}

// Base holds the fields every item carries.
type Base struct {
	ID     string
	Name   string
	Rarity Rarity
}

// Meta returns the shared item fields.
func (b Base) Meta() Base {
	return b
}

// Item is one of *Weapon, *Armor, *Consumable or *Attachment.
type Item interface {
	Meta() Base
	Category() Category
}

// Armor reduces incoming damage by Protection percent while it has durability.
type Armor struct {
	Base
	Protection    float64
	Durability    float64
	MaxDurability float64
}

func (*Armor) Category() Category { return CategoryArmor }

// ArmorArchetype is the unscaled template of an armor piece.
type ArmorArchetype struct {
	Name       string
	Protection float64
	Durability float64
}

// MaxProtection caps scaled protection.
const MaxProtection = 75

var ArmorArchetypes = []ArmorArchetype{
	{Name: "Light Vest", Protection: 20, Durability: 80},
	{Name: "Tactical Vest", Protection: 30, Durability: 100},
	{Name: "Heavy Plate", Protection: 40, Durability: 150},
}

// NewArmor instantiates an armor archetype at the given rarity.
func NewArmor(id string, a ArmorArchetype, r Rarity) *Armor {
	m := r.Multiplier()
	durability := math.Round(a.Durability * m)
	return &Armor{
		Base:          Base{ID: id, Name: a.Name, Rarity: r},
		Protection:    math.Min(MaxProtection, math.Round(a.Protection*m)),
		Durability:    durability,
		MaxDurability: durability,
	}
}

// ConsumableKind identifies what a consumable restores.
type ConsumableKind string

const (
	Bandage       ConsumableKind = "bandage"
	Medkit        ConsumableKind = "medkit"
	ShieldCell    ConsumableKind = "shield_cell"
	ShieldBattery ConsumableKind = "shield_battery"
)

// ConsumableSpec is the fixed behaviour of a consumable kind.
type ConsumableSpec struct {
	Health    float64
	HealthCap float64 // bandages cannot heal past this; zero means max health
	Shield    float64
	StackCap  int
	SpawnSize int
}

var ConsumableSpecs = map[ConsumableKind]ConsumableSpec{
	Bandage:       {Health: 15, HealthCap: 75, StackCap: 10, SpawnSize: 3},
	Medkit:        {Health: 100, StackCap: 3, SpawnSize: 1},
	ShieldCell:    {Shield: 25, StackCap: 6, SpawnSize: 2},
	ShieldBattery: {Shield: 100, StackCap: 2, SpawnSize: 1},
}

// ConsumableKinds lists the kinds in roll order.
var ConsumableKinds = []ConsumableKind{Bandage, Medkit, ShieldCell, ShieldBattery}

// Consumable is a stack of identical single-use items.
type Consumable struct {
	Base
	Kind  ConsumableKind
	Count int
}

func (*Consumable) Category() Category { return CategoryConsumable }

// Spec returns the fixed behaviour of this consumable's kind.
func (c *Consumable) Spec() ConsumableSpec {
	return ConsumableSpecs[c.Kind]
}

// NewConsumable creates a stack sized by rarity.
func NewConsumable(id string, kind ConsumableKind, r Rarity) *Consumable {
	spec := ConsumableSpecs[kind]
	count := int(math.Round(float64(spec.SpawnSize) * r.Multiplier()))
	if count < 1 {
		count = 1
	}
	if count > spec.StackCap {
		count = spec.StackCap
	}
	return &Consumable{
		Base:  Base{ID: id, Name: string(kind), Rarity: r},
		Kind:  kind,
		Count: count,
	}
}

// AttachmentKind is the weapon slot an attachment occupies.
type AttachmentKind string

const (
	ExtendedMag AttachmentKind = "extended_mag"
	Stabilizer  AttachmentKind = "stabilizer"
	Scope       AttachmentKind = "scope"
)

var AttachmentKinds = []AttachmentKind{ExtendedMag, Stabilizer, Scope}

// Attachment modifies the effective stats of the weapon it is fitted to.
// Bonus is a fraction: magazine and range grow by it, accuracy gains half of it.
type Attachment struct {
	Base
	Kind  AttachmentKind
	Bonus float64
}

func (*Attachment) Category() Category { return CategoryAttachment }

// NewAttachment creates an attachment with a rarity-scaled bonus.
func NewAttachment(id string, kind AttachmentKind, r Rarity) *Attachment {
	return &Attachment{
		Base:  Base{ID: id, Name: string(kind), Rarity: r},
		Kind:  kind,
		Bonus: 0.2 * r.Multiplier(),
	}
}
