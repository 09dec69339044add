package effect

import (
	"github.com/cory-johannsen/dungeon/internal/game/inventory"
	"github.com/cory-johannsen/dungeon/internal/game/stat"
)

// Critical tunes the critical-chance stage of the combat accumulator.
type Critical struct {
	// FlatBonus is added after the formula stage, in percentage points.
	FlatBonus float64 `yaml:"flat_bonus"`
	// Cap replaces the default cap of 100 when > 0.
	Cap float64 `yaml:"cap"`
	// CapDelta shifts the cap; the effective cap never exceeds 100.
	CapDelta float64 `yaml:"cap_delta"`
}

// EffectiveCap returns min(100, cap + CapDelta), where cap defaults to 100.
func (c Critical) EffectiveCap() float64 {
	limit := c.Cap
	if limit <= 0 {
		limit = stat.MaxCriticalChance
	}
	limit += c.CapDelta
	if limit > stat.MaxCriticalChance {
		return stat.MaxCriticalChance
	}
	if limit < 0 {
		return 0
	}
	return limit
}

// Martial is the unarmed physical-attack bonus applied to martial-eligible characters.
type Martial struct {
	Percent    float64 `yaml:"percent"`
	Multiplier float64 `yaml:"multiplier"`
}

// Apply returns v raised by Percent and then scaled by Multiplier (0 means 1).
func (m Martial) Apply(v float64) float64 {
	v *= 1 + m.Percent/100
	if m.Multiplier != 0 {
		v *= m.Multiplier
	}
	return v
}

// Stats carries the stat-shaping portion of a bundle.
type Stats struct {
	Talents             map[stat.CombatStat]float64    `yaml:"talents"`
	Passives            map[stat.CombatStat]float64    `yaml:"passives"`
	Additives           map[stat.CombatStat]float64    `yaml:"additives"`
	Critical            Critical                       `yaml:"critical"`
	Martial             Martial                        `yaml:"martial"`
	CategoryMultipliers map[inventory.Category]float64 `yaml:"category_multipliers"`
	ItemStatMultipliers map[stat.CombatStat]float64    `yaml:"item_stat_multipliers"`
	Conversions         []stat.Conversion              `yaml:"conversions"`
	ForcedToOne         []stat.CombatStat              `yaml:"forced_to_one"`
}

// Talent returns the talent multiplier for s, 1 when absent.
func (s Stats) Talent(c stat.CombatStat) float64 { return multiplier(s.Talents, c) }

// Passive returns the passive multiplier for s, 1 when absent.
func (s Stats) Passive(c stat.CombatStat) float64 { return multiplier(s.Passives, c) }

// Additive returns the flat additive for s, 0 when absent.
func (s Stats) Additive(c stat.CombatStat) float64 { return s.Additives[c] }

// CategoryMultiplier returns the multiplier for equipment of category cat, 1 when absent.
func (s Stats) CategoryMultiplier(cat inventory.Category) float64 {
	return multiplier(s.CategoryMultipliers, cat)
}

// ItemStatMultiplier returns the multiplier for equipment combat bonuses to c, 1 when absent.
func (s Stats) ItemStatMultiplier(c stat.CombatStat) float64 {
	return multiplier(s.ItemStatMultipliers, c)
}

// IsForcedToOne reports whether c is pinned to 1 after the bonus stage.
func (s Stats) IsForcedToOne(c stat.CombatStat) bool {
	for _, f := range s.ForcedToOne {
		if f == c {
			return true
		}
	}
	return false
}

func multiplier[K comparable](m map[K]float64, k K) float64 {
	if v, ok := m[k]; ok {
		return v
	}
	return 1
}

// Slots modifies equipment capacity.
type Slots struct {
	Multiplier float64 `yaml:"multiplier"`
	Additive   int     `yaml:"additive"`
}

// EffectiveMultiplier returns Multiplier, or 1 when unset.
func (s Slots) EffectiveMultiplier() float64 {
	if s.Multiplier == 0 {
		return 1
	}
	return s.Multiplier
}

// Resurrection describes the revival abilities a bundle grants.
type Resurrection struct {
	// BetweenFloors revives a fallen character when it is loaded.
	BetweenFloors bool `yaml:"between_floors"`
	// BetweenFloorsChancePercent gates BetweenFloors; 0 means always.
	BetweenFloorsChancePercent int `yaml:"between_floors_chance"`
	// EndOfTurnHPPercent > 0 revives the holder once per battle at end of turn.
	EndOfTurnHPPercent int `yaml:"end_of_turn_hp_percent"`
	// NecromancerInterval > 0 lets the holder raise one fallen ally on turns 2, 2+N, ...
	NecromancerInterval int `yaml:"necromancer_interval"`
	// RescueChancePercent is the chance to revive an ally the moment it falls.
	RescueChancePercent int `yaml:"rescue_chance"`
	// RescueHPPercent is the share of max HP restored by a rescue; 0 means 1 HP.
	RescueHPPercent int `yaml:"rescue_hp_percent"`
}

// SpellRegen restores Amount charges of every spell of Tier (0 = all tiers) every EveryTurns turns.
type SpellRegen struct {
	Tier       int `yaml:"tier"`
	EveryTurns int `yaml:"every_turns"`
	Amount     int `yaml:"amount"`
}

// Trigger selects when a scheduled buff fires.
type Trigger struct {
	// AtTurn > 0 fires once on that turn.
	AtTurn int `yaml:"at_turn"`
	// EveryTurn fires at the end of every turn.
	EveryTurn bool `yaml:"every_turn"`
}

// Fires reports whether the trigger fires at the end of turn.
func (t Trigger) Fires(turn int) bool {
	if t.EveryTurn {
		return true
	}
	return t.AtTurn > 0 && t.AtTurn == turn
}

// BuffSpec is the template of a timed buff.
type BuffSpec struct {
	ID        int          `yaml:"id"`
	Duration  int          `yaml:"duration"`
	Modifiers ModifierList `yaml:"modifiers"`
}

// ScheduledBuff applies Buff to its holder, or to every living ally when Party is set.
type ScheduledBuff struct {
	Trigger Trigger  `yaml:"trigger"`
	Buff    BuffSpec `yaml:"buff"`
	Party   bool     `yaml:"party"`
}

// Periodic groups the effects processed during the end-of-turn phase.
type Periodic struct {
	// PartyHealPercent heals every living ally by that share of their max HP.
	PartyHealPercent int `yaml:"party_heal_percent"`
	// SelfHPPercent is a signed per-turn regeneration (positive) or degeneration (negative).
	SelfHPPercent int `yaml:"self_hp_percent"`
	// RepairPercent restores that share of lost max HP caused by degradation.
	RepairPercent int          `yaml:"repair_percent"`
	SpellRegen    []SpellRegen `yaml:"spell_regen"`
	// SpellRecoveryChancePercent restores one charge of a random spent spell.
	SpellRecoveryChancePercent int             `yaml:"spell_recovery_chance"`
	ScheduledBuffs             []ScheduledBuff `yaml:"scheduled_buffs"`
}

// Combat groups in-battle reaction and damage effects.
type Combat struct {
	DamageDealt map[School]float64 `yaml:"damage_dealt"`
	DamageTaken map[School]float64 `yaml:"damage_taken"`
	// CounterChancePercent is the chance to strike back after being hit.
	CounterChancePercent int `yaml:"counter_chance"`
	// FollowUpChancePercent is the chance to attack an ally's target again.
	FollowUpChancePercent int `yaml:"follow_up_chance"`
	// RetaliatePercent deals that share of the holder's max HP to its killer.
	RetaliatePercent int `yaml:"retaliate_percent"`
	// StatusResistance maps status id to resistance percent.
	StatusResistance map[int]float64 `yaml:"status_resistance"`
	// Barriers grants charges that cut damage of a school to a third.
	Barriers map[School]int `yaml:"barriers"`
	// AttacksAllies makes the holder pick targets from its own side.
	AttacksAllies bool `yaml:"attacks_allies"`
}

// DealtMultiplier returns the outgoing damage multiplier for school, 1 when absent.
func (c Combat) DealtMultiplier(s School) float64 { return multiplier(c.DamageDealt, s) }

// TakenMultiplier returns the incoming damage multiplier for school, 1 when absent.
func (c Combat) TakenMultiplier(s School) float64 { return multiplier(c.DamageTaken, s) }

// Resistance returns the resistance to statusID clamped to [0, 100].
func (c Combat) Resistance(statusID int) float64 {
	r := c.StatusResistance[statusID]
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return r
}

// Spells lists spell grants.
type Spells struct {
	Granted     []int `yaml:"granted"`
	ChargeBonus int   `yaml:"charge_bonus"`
}

// Bundle is the compiled effect of a set of skills.
// The zero value is the identity bundle.
type Bundle struct {
	Stats        Stats        `yaml:"stats"`
	Slots        Slots        `yaml:"slots"`
	Resurrection Resurrection `yaml:"resurrection"`
	Periodic     Periodic     `yaml:"periodic"`
	Combat       Combat       `yaml:"combat"`
	Spells       Spells       `yaml:"spells"`
}
