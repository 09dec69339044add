// Package stat defines the core attribute and combat statistic identifiers and
// the value types that carry them.
package stat

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Core identifies one of the six core attributes.
// The zero value (CoreUnknown) is intentionally invalid.
type Core int

const (
	CoreUnknown Core = iota
	Strength
	Wisdom
	Spirit
	Vitality
	Agility
	Luck
)

// AllCores lists the six valid core attributes in canonical order.
var AllCores = []Core{Strength, Wisdom, Spirit, Vitality, Agility, Luck}

var coreNames = map[Core]string{
	Strength: "strength",
	Wisdom:   "wisdom",
	Spirit:   "spirit",
	Vitality: "vitality",
	Agility:  "agility",
	Luck:     "luck",
}

// coreLegacyCodes maps the integer codes used by older save data.
var coreLegacyCodes = map[int]Core{
	1: Strength,
	2: Wisdom,
	3: Spirit,
	4: Vitality,
	5: Agility,
	6: Luck,
}

// String returns the canonical identifier, or "unknown".
func (c Core) String() string {
	if n, ok := coreNames[c]; ok {
		return n
	}
	return "unknown"
}

// ParseCore converts a canonical string identifier.
//
// Postcondition: Returns a valid Core or a non-nil error.
func ParseCore(s string) (Core, error) {
	for c, n := range coreNames {
		if n == s {
			return c, nil
		}
	}
	return CoreUnknown, fmt.Errorf("unknown core attribute %q", s)
}

// CoreFromLegacyCode converts a legacy integer code.
//
// Postcondition: Returns a valid Core or a non-nil error.
func CoreFromLegacyCode(code int) (Core, error) {
	if c, ok := coreLegacyCodes[code]; ok {
		return c, nil
	}
	return CoreUnknown, fmt.Errorf("unknown core attribute code %d", code)
}

// UnmarshalYAML accepts either the string identifier or the legacy integer code.
func (c *Core) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := decodeIdentifier(node, ParseCore, CoreFromLegacyCode)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalYAML encodes the canonical string identifier.
func (c Core) MarshalYAML() (interface{}, error) { return c.String(), nil }

// UnmarshalText accepts the string identifier; used for JSON map keys.
func (c *Core) UnmarshalText(b []byte) error {
	parsed, err := ParseCore(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalText encodes the canonical string identifier.
func (c Core) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// CombatStat identifies one derived combat statistic.
// The zero value (CombatUnknown) is intentionally invalid.
type CombatStat int

const (
	CombatUnknown CombatStat = iota
	MaxHP
	PhysicalAttack
	MagicalAttack
	PhysicalDefense
	MagicalDefense
	HitScore
	EvasionScore
	CriticalChance
	AttackCount
	MagicalHealing
	TrapRemoval
	AdditionalDamage
	BreathDamage
)

// AllCombatStats lists every valid combat statistic in canonical order.
var AllCombatStats = []CombatStat{
	MaxHP, PhysicalAttack, MagicalAttack, PhysicalDefense, MagicalDefense,
	HitScore, EvasionScore, CriticalChance, AttackCount,
	MagicalHealing, TrapRemoval, AdditionalDamage, BreathDamage,
}

var combatNames = map[CombatStat]string{
	MaxHP:            "maxHP",
	PhysicalAttack:   "physicalAttack",
	MagicalAttack:    "magicalAttack",
	PhysicalDefense:  "physicalDefense",
	MagicalDefense:   "magicalDefense",
	HitScore:         "hitScore",
	EvasionScore:     "evasionScore",
	CriticalChance:   "criticalChance",
	AttackCount:      "attackCount",
	MagicalHealing:   "magicalHealing",
	TrapRemoval:      "trapRemoval",
	AdditionalDamage: "additionalDamage",
	BreathDamage:     "breathDamage",
}

// combatAliases are older string spellings still found in content files.
var combatAliases = map[string]CombatStat{
	"hp":                    MaxHP,
	"attack":                PhysicalAttack,
	"magicAttack":           MagicalAttack,
	"defense":               PhysicalDefense,
	"magicDefense":          MagicalDefense,
	"accuracy":              HitScore,
	"evasion":               EvasionScore,
	"evasionRate":           EvasionScore,
	"criticalRate":          CriticalChance,
	"numberOfAttacks":       AttackCount,
	"magicalHealingScore":   MagicalHealing,
	"trapRemovalScore":      TrapRemoval,
	"additionalDamageScore": AdditionalDamage,
	"breathDamageScore":     BreathDamage,
}

var combatLegacyCodes = map[int]CombatStat{
	10: MaxHP,
	11: PhysicalAttack,
	12: MagicalAttack,
	13: PhysicalDefense,
	14: MagicalDefense,
	15: HitScore,
	16: EvasionScore,
	17: CriticalChance,
	18: AttackCount,
	19: MagicalHealing,
	20: TrapRemoval,
	21: AdditionalDamage,
	22: BreathDamage,
}

// String returns the canonical identifier, or "unknown".
func (s CombatStat) String() string {
	if n, ok := combatNames[s]; ok {
		return n
	}
	return "unknown"
}

// ParseCombatStat converts a canonical or legacy string identifier.
//
// Postcondition: Returns a valid CombatStat or a non-nil error.
func ParseCombatStat(s string) (CombatStat, error) {
	for c, n := range combatNames {
		if n == s {
			return c, nil
		}
	}
	if c, ok := combatAliases[s]; ok {
		return c, nil
	}
	return CombatUnknown, fmt.Errorf("unknown combat stat %q", s)
}

// CombatStatFromLegacyCode converts a legacy integer code.
//
// Postcondition: Returns a valid CombatStat or a non-nil error.
func CombatStatFromLegacyCode(code int) (CombatStat, error) {
	if c, ok := combatLegacyCodes[code]; ok {
		return c, nil
	}
	return CombatUnknown, fmt.Errorf("unknown combat stat code %d", code)
}

// UnmarshalYAML accepts either the string identifier or the legacy integer code.
func (s *CombatStat) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := decodeIdentifier(node, ParseCombatStat, CombatStatFromLegacyCode)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalYAML encodes the canonical string identifier.
func (s CombatStat) MarshalYAML() (interface{}, error) { return s.String(), nil }

// UnmarshalText accepts the string identifier; used for JSON map keys.
func (s *CombatStat) UnmarshalText(b []byte) error {
	parsed, err := ParseCombatStat(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalText encodes the canonical string identifier.
func (s CombatStat) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func decodeIdentifier[T any](node *yaml.Node, byName func(string) (T, error), byCode func(int) (T, error)) (T, error) {
	var zero T
	if node.Kind != yaml.ScalarNode {
		return zero, fmt.Errorf("line %d: stat identifier must be a scalar", node.Line)
	}
	if node.ShortTag() == "!!int" {
		var code int
		if err := node.Decode(&code); err != nil {
			return zero, fmt.Errorf("line %d: %w", node.Line, err)
		}
		v, err := byCode(code)
		if err != nil {
			return zero, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return v, nil
	}
	v, err := byName(node.Value)
	if err != nil {
		return zero, fmt.Errorf("line %d: %w", node.Line, err)
	}
	return v, nil
}
