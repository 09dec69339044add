package inventory

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/dungeon/internal/game/stat"
)

// ErrItemNotFound is returned when an equipped stack references an unknown item.
var ErrItemNotFound = errors.New("equipped item definition not found")

// Entry is one equipped stack with its master data resolved.
type Entry struct {
	Stack          Stack
	Item           *ItemDef
	Title          *TitleDef
	SuperRareTitle *SuperRareTitleDef
	SocketItem     *ItemDef
	SocketTitle    *TitleDef
	// CombatBonuses are pre-scaled by title, super-rare, quantity, socket title and
	// socket boon. Only the category and per-stat item multipliers remain to apply.
	CombatBonuses map[stat.CombatStat]float64
}

// Loadout is the resolved equipment cache of one character.
// Invariant: Entries preserve the order of the stacks they were built from.
type Loadout struct {
	Entries []Entry
}

// BuildLoadout resolves stacks against catalog and pre-scales combat bonuses.
// Unknown or zero title ids resolve to no title.
//
// Precondition: catalog must not be nil.
// Postcondition: Returns a Loadout with len(Entries) == len(stacks), or an
// error wrapping ErrItemNotFound for an unknown item or socket item.
func BuildLoadout(stacks []Stack, catalog Catalog) (*Loadout, error) {
	l := &Loadout{Entries: make([]Entry, 0, len(stacks))}
	for i, s := range stacks {
		item, ok := catalog.Item(s.ItemID)
		if !ok {
			return nil, fmt.Errorf("stack %d: item %d: %w", i, s.ItemID, ErrItemNotFound)
		}
		e := Entry{Stack: s, Item: item}
		if t, ok := catalog.Title(s.TitleID); ok {
			e.Title = t
		}
		if t, ok := catalog.SuperRareTitle(s.SuperRareTitleID); ok {
			e.SuperRareTitle = t
		}
		if s.SocketItemID != 0 {
			gem, ok := catalog.Item(s.SocketItemID)
			if !ok {
				return nil, fmt.Errorf("stack %d: socket item %d: %w", i, s.SocketItemID, ErrItemNotFound)
			}
			e.SocketItem = gem
			if t, ok := catalog.Title(s.SocketTitleID); ok {
				e.SocketTitle = t
			}
		}
		e.CombatBonuses = e.scaledCombatBonuses()
		l.Entries = append(l.Entries, e)
	}
	return l, nil
}

// superRareMultiplier is 2 when a super-rare title is present, otherwise 1.
func (e Entry) superRareMultiplier() float64 {
	if e.SuperRareTitle != nil {
		return SuperRareMultiplier
	}
	return 1
}

func (e Entry) scaledCombatBonuses() map[stat.CombatStat]float64 {
	out := make(map[stat.CombatStat]float64)
	q := float64(e.Stack.quantity())
	for s, v := range e.Item.CombatBonuses {
		out[s] += v * e.Title.Multiplier(v) * e.superRareMultiplier() * q
	}
	if e.SocketItem != nil {
		boon := e.Item.socketBoon()
		for s, v := range e.SocketItem.CombatBonuses {
			out[s] += v * e.SocketTitle.Multiplier(v) * boon
		}
	}
	return out
}

// StatBonus returns the parent item's contribution to core attribute c, before
// quantity: trunc(base × category × title(sign) × super-rare).
func (e Entry) StatBonus(c stat.Core, categoryMultiplier float64, trunc func(float64) int) int {
	base := float64(e.Item.StatBonuses[c])
	if base == 0 {
		return 0
	}
	return trunc(base * categoryMultiplier * e.Title.Multiplier(base) * e.superRareMultiplier())
}

// SocketStatBonus returns the socketed gem's contribution to core attribute c,
// using the gem's own title. It does not scale with the parent's quantity.
func (e Entry) SocketStatBonus(c stat.Core, trunc func(float64) int) int {
	if e.SocketItem == nil {
		return 0
	}
	base := float64(e.SocketItem.StatBonuses[c])
	if base == 0 {
		return 0
	}
	return trunc(base * e.SocketTitle.Multiplier(base))
}

// Quantity returns the effective stack size.
func (e Entry) Quantity() int { return e.Stack.quantity() }

// UsedSlots returns the number of equipment slots the loadout occupies.
//
// Postcondition: Returns the sum of effective stack quantities.
func (l *Loadout) UsedSlots() int {
	n := 0
	for _, e := range l.Entries {
		n += e.Quantity()
	}
	return n
}

// GrantsPositive reports whether any equipped item (or socketed gem) grants a
// positive bonus for s.
func (l *Loadout) GrantsPositive(s stat.CombatStat) bool {
	for _, e := range l.Entries {
		if e.Item.GrantsPositive(s) {
			return true
		}
		if e.SocketItem != nil && e.SocketItem.GrantsPositive(s) {
			return true
		}
	}
	return false
}

// GrantedSkillIDs returns skill ids granted by equipped items in equipment
// order, followed by those granted by super-rare titles. Duplicates are preserved.
func (l *Loadout) GrantedSkillIDs() []int {
	var ids []int
	for _, e := range l.Entries {
		ids = append(ids, e.Item.GrantedSkillIDs...)
	}
	for _, e := range l.Entries {
		if e.SuperRareTitle != nil {
			ids = append(ids, e.SuperRareTitle.SkillIDs...)
		}
	}
	return ids
}
