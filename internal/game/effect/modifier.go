package effect

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/dungeon/internal/game/stat"
)

// School is the damage school an attack belongs to.
type School string

// School constants.
const (
	Physical School = "physical"
	Magical  School = "magical"
	Breath   School = "breath"
)

// AllSchools lists every damage school in canonical order.
var AllSchools = []School{Physical, Magical, Breath}

// Modifier is one named effect carried by a timed buff.
// The set of implementations is closed.
type Modifier interface {
	isModifier()
}

// DamageDealtPercent raises outgoing damage of every school by Value percent.
// Normalize expands it into one SchoolDamageMultiplier per school.
type DamageDealtPercent struct{ Value float64 }

// SchoolDamageMultiplier multiplies outgoing damage of one school.
type SchoolDamageMultiplier struct {
	School School
	Value  float64
}

// StatPercent raises one combat stat by Value percent.
type StatPercent struct {
	Stat  stat.CombatStat
	Value float64
}

// DamageTakenPercent changes incoming damage by Value percent (negative reduces).
type DamageTakenPercent struct{ Value float64 }

// SpellSpecificMultiplier multiplies the power of a single spell.
type SpellSpecificMultiplier struct {
	SpellID int
	Value   float64
}

// CriticalChanceFlat adds Value percentage points of critical chance.
type CriticalChanceFlat struct{ Value float64 }

func (DamageDealtPercent) isModifier()      {}
func (SchoolDamageMultiplier) isModifier()  {}
func (StatPercent) isModifier()             {}
func (DamageTakenPercent) isModifier()      {}
func (SpellSpecificMultiplier) isModifier() {}
func (CriticalChanceFlat) isModifier()      {}

// AttackPercent is StatPercent on physical attack.
func AttackPercent(v float64) StatPercent { return StatPercent{Stat: stat.PhysicalAttack, Value: v} }

// Normalize returns mods with every DamageDealtPercent expanded into the three
// per-school multipliers. Order is otherwise preserved.
func Normalize(mods []Modifier) []Modifier {
	out := make([]Modifier, 0, len(mods))
	for _, m := range mods {
		if d, ok := m.(DamageDealtPercent); ok {
			factor := 1 + d.Value/100
			for _, s := range AllSchools {
				out = append(out, SchoolDamageMultiplier{School: s, Value: factor})
			}
			continue
		}
		out = append(out, m)
	}
	return out
}

// ParseLegacyModifier converts the string-keyed modifier encoding used by older
// content ("damageDealtPercent", "attackPercent", "spellSpecificMultiplier.12").
//
// Postcondition: Returns a Modifier or a non-nil error for an unknown key.
func ParseLegacyModifier(key string, value float64) (Modifier, error) {
	switch key {
	case "damageDealtPercent":
		return DamageDealtPercent{Value: value}, nil
	case "damageTakenPercent":
		return DamageTakenPercent{Value: value}, nil
	case "criticalChanceFlat", "criticalRateBoost":
		return CriticalChanceFlat{Value: value}, nil
	case "physicalDamageMultiplier":
		return SchoolDamageMultiplier{School: Physical, Value: value}, nil
	case "magicalDamageMultiplier":
		return SchoolDamageMultiplier{School: Magical, Value: value}, nil
	case "breathDamageMultiplier":
		return SchoolDamageMultiplier{School: Breath, Value: value}, nil
	}
	if rest, ok := strings.CutPrefix(key, "spellSpecificMultiplier."); ok {
		id, err := strconv.Atoi(rest)
		if err != nil {
			return nil, fmt.Errorf("modifier %q: invalid spell id: %w", key, err)
		}
		return SpellSpecificMultiplier{SpellID: id, Value: value}, nil
	}
	if name, ok := strings.CutSuffix(key, "Percent"); ok {
		s, err := stat.ParseCombatStat(name)
		if err == nil {
			return StatPercent{Stat: s, Value: value}, nil
		}
	}
	return nil, fmt.Errorf("unknown modifier key %q", key)
}

// ModifierList is a YAML-decodable list of modifiers.
//
// Each entry is either {kind: <kind>, value: <v>, stat: <stat>, school: <school>, spell: <id>}
// or a single-key legacy mapping {<legacyKey>: <v>}.
type ModifierList []Modifier

type rawModifier struct {
	Kind   string          `yaml:"kind"`
	Value  float64         `yaml:"value"`
	Stat   stat.CombatStat `yaml:"stat"`
	School School          `yaml:"school"`
	Spell  int             `yaml:"spell"`
}

// UnmarshalYAML decodes the list, converting each entry into its variant.
func (l *ModifierList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: modifiers must be a sequence", node.Line)
	}
	out := make(ModifierList, 0, len(node.Content))
	for _, n := range node.Content {
		m, err := decodeModifier(n)
		if err != nil {
			return err
		}
		out = append(out, m)
	}
	*l = out
	return nil
}

func decodeModifier(n *yaml.Node) (Modifier, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: modifier must be a mapping", n.Line)
	}
	if len(n.Content) == 2 && n.Content[0].Value != "kind" {
		var v float64
		if err := n.Content[1].Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		m, err := ParseLegacyModifier(n.Content[0].Value, v)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return m, nil
	}
	var raw rawModifier
	if err := n.Decode(&raw); err != nil {
		return nil, fmt.Errorf("line %d: %w", n.Line, err)
	}
	switch raw.Kind {
	case "damageDealtPercent":
		return DamageDealtPercent{Value: raw.Value}, nil
	case "schoolDamageMultiplier":
		if raw.School == "" {
			return nil, fmt.Errorf("line %d: schoolDamageMultiplier requires school", n.Line)
		}
		return SchoolDamageMultiplier{School: raw.School, Value: raw.Value}, nil
	case "statPercent":
		if raw.Stat == stat.CombatUnknown {
			return nil, fmt.Errorf("line %d: statPercent requires stat", n.Line)
		}
		return StatPercent{Stat: raw.Stat, Value: raw.Value}, nil
	case "damageTakenPercent":
		return DamageTakenPercent{Value: raw.Value}, nil
	case "spellSpecificMultiplier":
		return SpellSpecificMultiplier{SpellID: raw.Spell, Value: raw.Value}, nil
	case "criticalChanceFlat":
		return CriticalChanceFlat{Value: raw.Value}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown modifier kind %q", n.Line, raw.Kind)
	}
}
