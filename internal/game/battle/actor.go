package battle

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/character"
	"github.com/cory-johannsen/dungeon/internal/game/condition"
	"github.com/cory-johannsen/dungeon/internal/game/effect"
	"github.com/cory-johannsen/dungeon/internal/game/masterdata"
	"github.com/cory-johannsen/dungeon/internal/game/stat"
)

// Handle addresses an actor in a State's arena.
type Handle int

// NoHandle marks an absent actor or target.
const NoHandle Handle = -1

// Side is the roster an actor fights for.
type Side int

// Side constants. Players act before enemies on initiative ties.
const (
	SidePlayer Side = iota
	SideEnemy
)

// String returns "player" or "enemy".
func (s Side) String() string {
	if s == SidePlayer {
		return "player"
	}
	return "enemy"
}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SidePlayer {
		return SideEnemy
	}
	return SidePlayer
}

// TimedBuff is a temporary modifier set on an actor.
type TimedBuff struct {
	ID           int
	BaseDuration int
	Remaining    int
	Modifiers    []effect.Modifier
	// SourceSkillID is the spell or skill that granted the buff.
	SourceSkillID int
}

// Actor is the mutable battle projection of a Character.
type Actor struct {
	Handle     Handle
	Side       Side
	Name       string
	Source     *character.Character
	Combat     stat.Combat
	Attributes stat.CoreAttributes
	Effects    effect.Bundle
	Weights    masterdata.ActionWeights

	HP    int
	MaxHP int
	// BaseMaxHP is MaxHP before degradation.
	BaseMaxHP int

	Statuses *condition.ActiveSet
	Buffs    []TimedBuff
	Spells   []*masterdata.Spell
	Charges  map[int]int
	// EnemySkills are the resolved special skills, in definition order.
	EnemySkills []*masterdata.EnemySkill
	SkillUses   map[int]int
	Barriers    map[effect.School]int
	Guarding    bool
	Initiative  int
	// Script names the Lua action policy of an enemy, if any.
	Script string

	endOfTurnRevived bool
	raisedOnTurn     int
}

func newActor(h Handle, side Side, c *character.Character, p masterdata.Provider, logger *zap.Logger) *Actor {
	a := &Actor{
		Handle:     h,
		Side:       side,
		Name:       c.Name,
		Source:     c,
		Combat:     c.Combat,
		Attributes: c.Attributes,
		Effects:    c.Effects,
		Weights:    c.Weights(),
		HP:         c.CurrentHP,
		MaxHP:      c.Combat.MaxHP,
		BaseMaxHP:  c.Combat.MaxHP,
		Statuses:   condition.NewActiveSet(),
		Spells:     c.Spellbook.Spells(),
		Charges:    make(map[int]int),
		SkillUses:  make(map[int]int),
		Barriers:   make(map[effect.School]int),
	}
	w := a.Weights
	if w.Physical+w.Priest+w.Mage+w.Breath+w.Special <= 0 {
		a.Weights.Physical = 1
	}
	for _, sp := range a.Spells {
		a.Charges[sp.ID] = c.Spellbook.MaxCharges(sp.ID)
	}
	for school, n := range c.Effects.Combat.Barriers {
		a.Barriers[school] = n
	}
	if c.Enemy != nil {
		a.Script = c.Enemy.Script
		for _, id := range c.Enemy.EnemySkillIDs {
			s, ok := p.EnemySkill(id)
			if !ok {
				logger.Debug("enemy skill not found", zap.String("actor", a.Name), zap.Int("id", id))
				continue
			}
			a.EnemySkills = append(a.EnemySkills, s)
		}
	}
	return a
}

// IsAlive reports whether the actor has hit points left.
func (a *Actor) IsAlive() bool { return a.HP > 0 }

// HPRatio returns HP / MaxHP.
func (a *Actor) HPRatio() float64 { return float64(a.HP) / float64(max(a.MaxHP, 1)) }

// MaxCharges returns the charge limit of spell id.
func (a *Actor) MaxCharges(id int) int { return a.Source.Spellbook.MaxCharges(id) }

// UpsertBuff applies b.
// A longer base duration replaces a shorter one. An equal base duration keeps the
// larger remaining time and takes the new modifiers. A shorter one is ignored.
//
// Postcondition: Returns true if the actor's buffs changed.
func (a *Actor) UpsertBuff(b TimedBuff) bool {
	b.Modifiers = effect.Normalize(b.Modifiers)
	for i := range a.Buffs {
		cur := &a.Buffs[i]
		if cur.ID != b.ID {
			continue
		}
		switch {
		case b.BaseDuration > cur.BaseDuration:
			*cur = b
		case b.BaseDuration == cur.BaseDuration:
			cur.Remaining = max(cur.Remaining, b.Remaining)
			cur.Modifiers = b.Modifiers
			cur.SourceSkillID = b.SourceSkillID
		default:
			return false
		}
		return true
	}
	a.Buffs = append(a.Buffs, b)
	return true
}

// Buff returns the active buff with id.
func (a *Actor) Buff(id int) (TimedBuff, bool) {
	for _, b := range a.Buffs {
		if b.ID == id {
			return b, true
		}
	}
	return TimedBuff{}, false
}

func (a *Actor) eachModifier(fn func(effect.Modifier)) {
	for _, b := range a.Buffs {
		for _, m := range b.Modifiers {
			fn(m)
		}
	}
}

// Stat returns combat stat s including timed-buff percentages.
func (a *Actor) Stat(s stat.CombatStat) float64 {
	pct := 0.0
	a.eachModifier(func(m effect.Modifier) {
		if sp, ok := m.(effect.StatPercent); ok && sp.Stat == s {
			pct += sp.Value
		}
	})
	return a.Combat.Get(s) * max(0, 1+pct/100)
}

// CriticalChance returns the critical chance in percent including buffs, capped at 100.
func (a *Actor) CriticalChance() float64 {
	v := a.Stat(stat.CriticalChance)
	a.eachModifier(func(m effect.Modifier) {
		if c, ok := m.(effect.CriticalChanceFlat); ok {
			v += c.Value
		}
	})
	return min(max(v, 0), stat.MaxCriticalChance)
}

// DealtMultiplier returns the outgoing damage multiplier for school.
func (a *Actor) DealtMultiplier(school effect.School) float64 {
	v := a.Effects.Combat.DealtMultiplier(school)
	a.eachModifier(func(m effect.Modifier) {
		if d, ok := m.(effect.SchoolDamageMultiplier); ok && d.School == school {
			v *= d.Value
		}
	})
	return v
}

// TakenMultiplier returns the incoming damage multiplier for school.
func (a *Actor) TakenMultiplier(school effect.School) float64 {
	v := a.Effects.Combat.TakenMultiplier(school)
	a.eachModifier(func(m effect.Modifier) {
		if d, ok := m.(effect.DamageTakenPercent); ok {
			v *= max(0, 1+d.Value/100)
		}
	})
	return v
}

// SpellMultiplier returns the power multiplier buffs grant to spell id.
func (a *Actor) SpellMultiplier(id int) float64 {
	v := 1.0
	a.eachModifier(func(m effect.Modifier) {
		if s, ok := m.(effect.SpellSpecificMultiplier); ok && s.SpellID == id {
			v *= s.Value
		}
	})
	return v
}

// consumeBarrier spends one barrier charge against school.
func (a *Actor) consumeBarrier(school effect.School) bool {
	if a.Barriers[school] <= 0 {
		return false
	}
	a.Barriers[school]--
	return true
}
