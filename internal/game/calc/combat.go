package calc

import (
	"math"

	"github.com/cory-johannsen/dungeon/internal/game/effect"
	"github.com/cory-johannsen/dungeon/internal/game/formula"
	"github.com/cory-johannsen/dungeon/internal/game/inventory"
	"github.com/cory-johannsen/dungeon/internal/game/stat"
)

// HitScoreBase is added to every hit score after the formula stage.
const HitScoreBase = 50

// Formula coefficients applied after level growth.
const (
	maxHPCoefficient            = 10.0
	additionalDamageCoefficient = 0.1
	criticalCoefficient         = 0.15
	criticalOffset              = 45
)

// JobCoefficients resolves a job's growth coefficient per stat.
type JobCoefficients interface {
	Coefficient(s stat.CombatStat) float64
}

// CombatInput is everything the combat accumulator reads.
type CombatInput struct {
	Attributes stat.CoreAttributes
	// LevelFactor is LevelDependentValue(category, level) × job growth multiplier.
	LevelFactor     float64
	Job             JobCoefficients
	Effects         effect.Bundle
	MartialEligible bool
	// Loadout may be nil when nothing is equipped.
	Loadout *inventory.Loadout
}

// CombatAccumulator derives combat statistics from core attributes.
type CombatAccumulator struct {
	in     CombatInput
	values map[stat.CombatStat]float64
}

// NewCombatAccumulator runs the formula stage for every stat.
//
// Precondition: in.Job must not be nil.
func NewCombatAccumulator(in CombatInput) *CombatAccumulator {
	a := &CombatAccumulator{in: in, values: make(map[stat.CombatStat]float64, len(stat.AllCombatStats))}
	for _, s := range stat.AllCombatStats {
		a.values[s] = a.formulaStage(s)
	}
	return a
}

// Value returns the current working value of s.
func (a *CombatAccumulator) Value(s stat.CombatStat) float64 { return a.values[s] }

func (a *CombatAccumulator) primary(s stat.CombatStat) float64 {
	at := a.in.Attributes
	avg := func(x, y int) float64 { return float64(x+y) / 2 }
	switch s {
	case stat.MaxHP, stat.PhysicalDefense:
		return float64(at.Vitality)
	case stat.PhysicalAttack:
		return float64(at.Strength)
	case stat.MagicalAttack, stat.BreathDamage:
		return float64(at.Wisdom)
	case stat.MagicalDefense, stat.MagicalHealing:
		return float64(at.Spirit)
	case stat.HitScore:
		return avg(at.Strength, at.Agility)
	case stat.EvasionScore, stat.TrapRemoval:
		return avg(at.Agility, at.Luck)
	case stat.AdditionalDamage:
		return formula.StrengthDependency(at.Strength)
	case stat.CriticalChance:
		return math.Max(float64(at.Agility+2*at.Luck-criticalOffset), 0)
	default:
		return 0
	}
}

func (a *CombatAccumulator) formulaStage(s stat.CombatStat) float64 {
	fx := a.in.Effects.Stats
	lf := a.in.LevelFactor

	switch s {
	case stat.AttackCount:
		return float64(formula.FinalAttackCount(float64(a.in.Attributes.Agility), lf,
			a.in.Job.Coefficient(stat.AttackCount), fx.Talent(s), fx.Passive(s), fx.Additive(s)))
	case stat.CriticalChance:
		v := a.primary(s) * criticalCoefficient * fx.Talent(s)
		v = v*fx.Passive(s) + fx.Additive(s) + fx.Critical.FlatBonus
		return math.Min(v, fx.Critical.EffectiveCap())
	}

	coef := a.in.Job.Coefficient(s)
	growth := 1 + lf*coef
	formulaCoef := 1.0
	switch s {
	case stat.MaxHP:
		formulaCoef = maxHPCoefficient
	case stat.AdditionalDamage:
		formulaCoef = additionalDamageCoefficient
		growth = 1 + lf*coef*0.5
	case stat.BreathDamage:
		// Breath grows with the job's magical attack coefficient.
		growth = 1 + lf*a.in.Job.Coefficient(stat.MagicalAttack)
	}

	v := a.primary(s) * growth * formulaCoef * fx.Talent(s)
	if s == stat.HitScore {
		v += HitScoreBase
	}
	v *= fx.Passive(s)
	if s == stat.PhysicalAttack && a.in.MartialEligible {
		v = fx.Martial.Apply(v)
	}
	return v + fx.Additive(s)
}

// ApplyConversions runs g over the working values.
func (a *CombatAccumulator) ApplyConversions(g *ConversionGraph) {
	g.Apply(a.values)
}

// ApplyHighStatBonuses scales stats driven by attributes above 20.
// Defenses are divided by the resistance factor: a lower factor is a stronger defense.
func (a *CombatAccumulator) ApplyHighStatBonuses() {
	at := a.in.Attributes
	str := formula.StatBonusMultiplier(at.Strength)
	wis := formula.StatBonusMultiplier(at.Wisdom)
	a.values[stat.PhysicalAttack] *= str
	a.values[stat.AdditionalDamage] *= str
	a.values[stat.MagicalAttack] *= wis
	a.values[stat.MagicalHealing] *= wis
	a.values[stat.BreathDamage] *= wis
	a.values[stat.MagicalDefense] /= formula.ResistancePercent(at.Spirit)
	a.values[stat.PhysicalDefense] /= formula.ResistancePercent(at.Vitality)
	crit := a.values[stat.CriticalChance] * formula.StatBonusMultiplier(at.Luck)
	a.values[stat.CriticalChance] = math.Min(crit, a.in.Effects.Stats.Critical.EffectiveCap())
}

// ApplyForcedToOne pins every forced stat to 1.
func (a *CombatAccumulator) ApplyForcedToOne() {
	for _, s := range stat.AllCombatStats {
		if a.in.Effects.Stats.IsForcedToOne(s) {
			a.values[s] = 1
		}
	}
}

// Clamp enforces the combat invariants on the working values.
// Every stat is >= 0; MaxHP and AttackCount are >= 1; critical chance is <= 100.
func (a *CombatAccumulator) Clamp() {
	for s, v := range a.values {
		if v < 0 {
			a.values[s] = 0
		}
	}
	a.values[stat.MaxHP] = math.Max(a.values[stat.MaxHP], 1)
	a.values[stat.AttackCount] = math.Max(a.values[stat.AttackCount], 1)
	a.values[stat.CriticalChance] = math.Min(a.values[stat.CriticalChance], stat.MaxCriticalChance)
}

// ApplyEquipmentOverlay adds equipment combat bonuses scaled by the category
// and item-stat multipliers of the effect bundle.
func (a *CombatAccumulator) ApplyEquipmentOverlay() {
	if a.in.Loadout == nil {
		return
	}
	fx := a.in.Effects.Stats
	for _, e := range a.in.Loadout.Entries {
		cat := fx.CategoryMultiplier(e.Item.Category)
		for s, bonus := range e.CombatBonuses {
			a.values[s] += bonus * cat * fx.ItemStatMultiplier(s)
		}
	}
}

// Result converts the working values into a clamped stat.Combat.
//
// Postcondition: The returned Combat satisfies Validate.
func (a *CombatAccumulator) Result() stat.Combat {
	var c stat.Combat
	for _, s := range stat.AllCombatStats {
		c.Set(s, a.values[s], formula.Truncate)
	}
	c.IsMartialEligible = a.in.MartialEligible
	for _, s := range stat.AllCombatStats {
		if c.Get(s) < 0 {
			c.Set(s, 0, formula.Truncate)
		}
	}
	c.Clamp()
	return c
}
