package loot

import (
	"fmt"
	"math/rand"
)

// Generator rolls items and hands out match-unique ids.
type Generator struct {
	rng  *rand.Rand
	next uint64
}

// NewGenerator creates a generator drawing from rng.
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// NextID returns a new id with the given prefix.
func (g *Generator) NextID(prefix string) string {
	g.next++
	return fmt.Sprintf("%s-%d", prefix, g.next)
}

// RandomCategory picks a category uniformly.
func (g *Generator) RandomCategory() Category {
	return Categories[g.rng.Intn(len(Categories))]
}

// Roll creates one item of the category with a freshly rolled rarity.
func (g *Generator) Roll(c Category) Item {
	r := RollRarity(g.rng)
	id := g.NextID("item")

	switch c {
	case CategoryWeapon:
		return NewWeapon(id, Archetypes[g.rng.Intn(len(Archetypes))], r)
	case CategoryArmor:
		return NewArmor(id, ArmorArchetypes[g.rng.Intn(len(ArmorArchetypes))], r)
	case CategoryConsumable:
		return NewConsumable(id, ConsumableKinds[g.rng.Intn(len(ConsumableKinds))], r)
	case CategoryAttachment:
		return NewAttachment(id, AttachmentKinds[g.rng.Intn(len(AttachmentKinds))], r)
	}
	return NewConsumable(id, Bandage, r)
}
