package stat

import "fmt"

// MaxCriticalChance is the ceiling for CriticalChancePercent.
const MaxCriticalChance = 100

// Combat holds the derived combat statistics of a build.
//
// Invariant (after Clamp): MaxHP >= 1, AttackCount >= 1,
// 0 <= CriticalChancePercent <= 100.
type Combat struct {
	MaxHP                 int     `json:"maxHP"`
	PhysicalAttack        int     `json:"physicalAttack"`
	MagicalAttack         int     `json:"magicalAttack"`
	PhysicalDefense       int     `json:"physicalDefense"`
	MagicalDefense        int     `json:"magicalDefense"`
	HitScore              int     `json:"hitScore"`
	EvasionScore          int     `json:"evasionScore"`
	CriticalChancePercent int     `json:"criticalChancePercent"`
	AttackCount           float64 `json:"attackCount"`
	MagicalHealing        int     `json:"magicalHealing"`
	TrapRemoval           int     `json:"trapRemoval"`
	AdditionalDamage      int     `json:"additionalDamage"`
	BreathDamage          int     `json:"breathDamage"`
	IsMartialEligible     bool    `json:"isMartialEligible"`
}

// Get returns the value of s as a float64.
func (c Combat) Get(s CombatStat) float64 {
	switch s {
	case MaxHP:
		return float64(c.MaxHP)
	case PhysicalAttack:
		return float64(c.PhysicalAttack)
	case MagicalAttack:
		return float64(c.MagicalAttack)
	case PhysicalDefense:
		return float64(c.PhysicalDefense)
	case MagicalDefense:
		return float64(c.MagicalDefense)
	case HitScore:
		return float64(c.HitScore)
	case EvasionScore:
		return float64(c.EvasionScore)
	case CriticalChance:
		return float64(c.CriticalChancePercent)
	case AttackCount:
		return c.AttackCount
	case MagicalHealing:
		return float64(c.MagicalHealing)
	case TrapRemoval:
		return float64(c.TrapRemoval)
	case AdditionalDamage:
		return float64(c.AdditionalDamage)
	case BreathDamage:
		return float64(c.BreathDamage)
	default:
		return 0
	}
}

// Set stores v into s. Integer stats receive v converted by toInt.
func (c *Combat) Set(s CombatStat, v float64, toInt func(float64) int) {
	switch s {
	case MaxHP:
		c.MaxHP = toInt(v)
	case PhysicalAttack:
		c.PhysicalAttack = toInt(v)
	case MagicalAttack:
		c.MagicalAttack = toInt(v)
	case PhysicalDefense:
		c.PhysicalDefense = toInt(v)
	case MagicalDefense:
		c.MagicalDefense = toInt(v)
	case HitScore:
		c.HitScore = toInt(v)
	case EvasionScore:
		c.EvasionScore = toInt(v)
	case CriticalChance:
		c.CriticalChancePercent = toInt(v)
	case AttackCount:
		c.AttackCount = v
	case MagicalHealing:
		c.MagicalHealing = toInt(v)
	case TrapRemoval:
		c.TrapRemoval = toInt(v)
	case AdditionalDamage:
		c.AdditionalDamage = toInt(v)
	case BreathDamage:
		c.BreathDamage = toInt(v)
	}
}

// Clamp enforces the Combat invariants in place.
//
// Postcondition: MaxHP >= 1, AttackCount >= 1, 0 <= CriticalChancePercent <= 100.
func (c *Combat) Clamp() {
	if c.MaxHP < 1 {
		c.MaxHP = 1
	}
	if c.AttackCount < 1 {
		c.AttackCount = 1
	}
	if c.CriticalChancePercent < 0 {
		c.CriticalChancePercent = 0
	}
	if c.CriticalChancePercent > MaxCriticalChance {
		c.CriticalChancePercent = MaxCriticalChance
	}
}

// Validate reports the first violated Combat invariant.
func (c Combat) Validate() error {
	switch {
	case c.MaxHP < 1:
		return fmt.Errorf("maxHP %d < 1", c.MaxHP)
	case c.AttackCount < 1:
		return fmt.Errorf("attackCount %v < 1", c.AttackCount)
	case c.CriticalChancePercent < 0 || c.CriticalChancePercent > MaxCriticalChance:
		return fmt.Errorf("criticalChancePercent %d outside [0, 100]", c.CriticalChancePercent)
	}
	return nil
}

// Conversion adds Ratio times the Source stat to the Target stat.
type Conversion struct {
	Source CombatStat `yaml:"source" json:"source"`
	Target CombatStat `yaml:"target" json:"target"`
	Ratio  float64    `yaml:"ratio" json:"ratio"`
}
