package calc

import (
	"github.com/cory-johannsen/dungeon/internal/game/formula"
	"github.com/cory-johannsen/dungeon/internal/game/inventory"
	"github.com/cory-johannsen/dungeon/internal/game/masterdata"
	"github.com/cory-johannsen/dungeon/internal/game/stat"
)

// MaxLevelBonus caps the per-attribute bonus granted by level.
const MaxLevelBonus = 10

// Accumulator builds core attributes stage by stage.
// The zero value is ready to use.
type Accumulator struct {
	attrs stat.CoreAttributes
}

// ApplyRaceBase resets the attributes to base.
func (a *Accumulator) ApplyRaceBase(base stat.CoreAttributes) {
	a.attrs = base
}

// ApplyLevelBonus adds min(level/5, 10) to every attribute.
func (a *Accumulator) ApplyLevelBonus(level int) {
	a.attrs.AddAll(min(max(level, 0)/5, MaxLevelBonus))
}

// ApplyPersonality adds the personality's deltas. A nil personality is ignored.
func (a *Accumulator) ApplyPersonality(p *masterdata.Personality) {
	if p == nil {
		return
	}
	for _, c := range stat.AllCores {
		a.attrs.Add(c, p.Deltas[c])
	}
}

// ApplyEquipment adds the core-attribute bonuses of every equipped stack.
// Stack bonuses are multiplied by quantity; socket bonuses count once per stack.
//
// Precondition: l must not be nil; categoryMultiplier must not be nil.
func (a *Accumulator) ApplyEquipment(l *inventory.Loadout, categoryMultiplier func(inventory.Category) float64) {
	for _, e := range l.Entries {
		mult := categoryMultiplier(e.Item.Category)
		for _, c := range stat.AllCores {
			a.attrs.Add(c, e.StatBonus(c, mult, formula.Truncate)*e.Quantity())
			a.attrs.Add(c, e.SocketStatBonus(c, formula.Truncate))
		}
	}
}

// Result returns the accumulated attributes clamped to >= 0.
func (a *Accumulator) Result() stat.CoreAttributes {
	out := a.attrs
	out.ClampNonNegative()
	return out
}
