package battle

import (
	"math"

	"github.com/cory-johannsen/dungeon/internal/game/formula"
)

// Damage model constants.
const (
	HitChanceScale       = 1.5
	MaxHitChance         = 0.99
	DefenseFactor        = 0.5
	CriticalMultiplier   = 1.5
	GuardMultiplier      = 0.5
	BarrierMultiplier    = 1.0 / 3.0
	PhysicalVariance     = 0.1
	MinimumDamageOnHit   = 1
	initiativeDivisor    = 4
	initiativeBaseSpread = 5
)

// HitChance returns the probability in [0, 1] that an attack lands.
// The floor is 1 - EvasionLimit(targetAgility)/100 so even a perfect evader can be hit.
func HitChance(hitScore, evasionScore float64, targetAgility int) float64 {
	floor := 1 - formula.EvasionLimit(targetAgility)/100
	if hitScore+evasionScore <= 0 {
		return MaxHitChance
	}
	c := hitScore / (hitScore + evasionScore) * HitChanceScale
	return math.Min(math.Max(c, floor), MaxHitChance)
}

// Modifiers are the multiplicative adjustments applied to a damage roll.
type Modifiers struct {
	Critical bool
	Dealt    float64
	Taken    float64
	Guarding bool
	Barrier  bool
}

func (m Modifiers) apply(v float64) float64 {
	if m.Critical {
		v *= CriticalMultiplier
	}
	v *= m.Dealt * m.Taken
	if m.Guarding {
		v *= GuardMultiplier
	}
	if m.Barrier {
		v *= BarrierMultiplier
	}
	return v
}

// PhysicalDamage computes one physical hit.
// variance is the roll in [-1, 1] scaled by PhysicalVariance.
//
// Postcondition: Returns >= MinimumDamageOnHit.
func PhysicalDamage(attack, defense, variance float64, m Modifiers, additional float64) int {
	raw := math.Max(attack*(1+variance*PhysicalVariance)-defense*DefenseFactor, 0)
	return max(formula.Truncate(m.apply(raw)+additional), MinimumDamageOnHit)
}

// MagicalDamage computes one damaging spell against one target.
//
// Postcondition: Returns >= MinimumDamageOnHit.
func MagicalDamage(magicalAttack, power, magicalDefense float64, m Modifiers) int {
	raw := math.Max(magicalAttack*power-magicalDefense*DefenseFactor, 0)
	return max(formula.Truncate(m.apply(raw)), MinimumDamageOnHit)
}

// BreathDamage computes breath damage against one target. The target's spirit
// reduces it through the resistance factor; breath ignores defense.
//
// Postcondition: Returns >= MinimumDamageOnHit.
func BreathDamage(breath, power float64, targetSpirit int, m Modifiers) int {
	raw := breath * power * formula.ResistancePercent(targetSpirit)
	return max(formula.Truncate(m.apply(raw)), MinimumDamageOnHit)
}

// HealAmount returns the HP restored by a heal of power.
func HealAmount(magicalHealing, power float64) int {
	return max(formula.Truncate(magicalHealing*power), 1)
}

// PercentOf returns trunc(v × pct / 100), at least 1 when pct > 0.
func PercentOf(v int, pct float64) int {
	if pct <= 0 {
		return 0
	}
	return max(formula.Truncate(float64(v)*pct/100), 1)
}
