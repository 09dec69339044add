package character

import (
	"github.com/cory-johannsen/dungeon/internal/game/masterdata"
)

// Spellbook lists the spells a character can cast and their charge limits.
// The zero value is an empty spellbook.
type Spellbook struct {
	spells     []*masterdata.Spell
	maxCharges map[int]int
}

// NewSpellbook resolves ids against p, skipping unknown and duplicate ids.
// Every spell gets max(1, spell.Charges + chargeBonus) charges.
func NewSpellbook(p masterdata.Provider, ids []int, chargeBonus int) Spellbook {
	b := Spellbook{maxCharges: make(map[int]int)}
	for _, id := range ids {
		if _, dup := b.maxCharges[id]; dup {
			continue
		}
		sp, ok := p.Spell(id)
		if !ok {
			continue
		}
		b.spells = append(b.spells, sp)
		b.maxCharges[id] = max(1, sp.Charges+chargeBonus)
	}
	return b
}

// Spells returns the known spells in learn order.
func (b Spellbook) Spells() []*masterdata.Spell {
	return append([]*masterdata.Spell(nil), b.spells...)
}

// MaxCharges returns the charge limit for spell id, 0 when unknown.
func (b Spellbook) MaxCharges(id int) int { return b.maxCharges[id] }

// Knows reports whether the spellbook holds any spell of school.
func (b Spellbook) Knows(school masterdata.SpellSchool) bool {
	for _, s := range b.spells {
		if s.School == school {
			return true
		}
	}
	return false
}

// Len returns the number of known spells.
func (b Spellbook) Len() int { return len(b.spells) }
