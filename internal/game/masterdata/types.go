package masterdata

import (
	"fmt"
	"slices"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/effect"
	"github.com/cory-johannsen/dungeon/internal/game/formula"
	"github.com/cory-johannsen/dungeon/internal/game/inventory"
	"github.com/cory-johannsen/dungeon/internal/game/stat"
)

// LevelUnlock grants ID once the owner reaches Level.
type LevelUnlock struct {
	Level int `yaml:"level"`
	ID    int `yaml:"id"`
}

// UnlockedAt returns the IDs of unlocks whose level is <= level, in declaration order.
func UnlockedAt(unlocks []LevelUnlock, level int) []int {
	var out []int
	for _, u := range unlocks {
		if level >= u.Level {
			out = append(out, u.ID)
		}
	}
	return out
}

// Race is a playable or enemy race.
type Race struct {
	ID              int                  `yaml:"id"`
	Name            string               `yaml:"name"`
	Category        formula.RaceCategory `yaml:"category"`
	BaseAttributes  stat.CoreAttributes  `yaml:"base_attributes"`
	PassiveSkillIDs []int                `yaml:"passive_skills"`
	SkillUnlocks    []LevelUnlock        `yaml:"skill_unlocks"`
}

// Job is a character class. Coefficients scale level growth per combat stat.
type Job struct {
	ID               int                         `yaml:"id"`
	Name             string                      `yaml:"name"`
	Coefficients     map[stat.CombatStat]float64 `yaml:"coefficients"`
	GrowthMultiplier float64                     `yaml:"growth_multiplier"`
	PassiveSkillIDs  []int                       `yaml:"passive_skills"`
	SkillUnlocks     []LevelUnlock               `yaml:"skill_unlocks"`
	SpellUnlocks     []LevelUnlock               `yaml:"spell_unlocks"`
	// MartialEligible marks jobs that fight unarmed (monk-style).
	MartialEligible bool `yaml:"martial_eligible"`
}

// Coefficient returns the growth coefficient for s, 0 when absent.
func (j *Job) Coefficient(s stat.CombatStat) float64 { return j.Coefficients[s] }

// Growth returns GrowthMultiplier, or 1 when unset.
func (j *Job) Growth() float64 {
	if j.GrowthMultiplier == 0 {
		return 1
	}
	return j.GrowthMultiplier
}

// Personality shifts core attributes by fixed deltas.
type Personality struct {
	ID     int               `yaml:"id"`
	Name   string            `yaml:"name"`
	Deltas map[stat.Core]int `yaml:"deltas"`
}

// Skill is a learned or passive ability. Its only in-engine content is its effect bundle.
type Skill struct {
	ID          int           `yaml:"id"`
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Effects     effect.Bundle `yaml:"effects"`
}

// SpellSchool is the casting discipline of a spell.
type SpellSchool string

// SpellSchool constants.
const (
	PriestSchool SpellSchool = "priest"
	MageSchool   SpellSchool = "mage"
)

// ActionKind is what a spell or enemy skill does.
type ActionKind string

// ActionKind constants.
const (
	KindDamage ActionKind = "damage"
	KindBreath ActionKind = "breath"
	KindHeal   ActionKind = "heal"
	KindBuff   ActionKind = "buff"
	KindStatus ActionKind = "status"
	KindRevive ActionKind = "revive"
	// KindDegrade lowers the target's max HP by Power percent until repaired.
	KindDegrade ActionKind = "degrade"
)

// TargetKind selects who an action affects.
type TargetKind string

// TargetKind constants.
const (
	TargetEnemy   TargetKind = "enemy"
	TargetEnemies TargetKind = "enemies"
	TargetAlly    TargetKind = "ally"
	TargetAllies  TargetKind = "allies"
	TargetSelf    TargetKind = "self"
	TargetFallen  TargetKind = "fallen_ally"
	// TargetRandom strikes a freshly drawn opponent on each hit.
	TargetRandom TargetKind = "random"
)

// Spell is a castable spell. Charges are tracked per spell and refilled per tier.
type Spell struct {
	ID     int         `yaml:"id"`
	Name   string      `yaml:"name"`
	School SpellSchool `yaml:"school"`
	Tier   int         `yaml:"tier"`
	Kind   ActionKind  `yaml:"kind"`
	Target TargetKind  `yaml:"target"`
	// Power scales the caster's magical attack (damage) or magical healing (heal).
	Power        float64          `yaml:"power"`
	Charges      int              `yaml:"charges"`
	StatusID     int              `yaml:"status"`
	StatusChance int              `yaml:"status_chance"`
	Buff         *effect.BuffSpec `yaml:"buff"`
}

// Validate reports definition errors.
func (s *Spell) Validate() error {
	if s.ID <= 0 || s.Name == "" {
		return fmt.Errorf("spell %d: id and name are required", s.ID)
	}
	if s.School != PriestSchool && s.School != MageSchool {
		return fmt.Errorf("spell %d: unknown school %q", s.ID, s.School)
	}
	if s.Charges < 0 || s.Tier < 0 {
		return fmt.Errorf("spell %d: charges and tier must be >= 0", s.ID)
	}
	return validateAction(s.ID, s.Kind, s.Target, s.Buff)
}

// EnemySkill is a special action available only to enemies.
type EnemySkill struct {
	ID            int              `yaml:"id"`
	Name          string           `yaml:"name"`
	Kind          ActionKind       `yaml:"kind"`
	Target        TargetKind       `yaml:"target"`
	Power         float64          `yaml:"power"`
	StatusID      int              `yaml:"status"`
	StatusChance  int              `yaml:"status_chance"`
	Buff          *effect.BuffSpec `yaml:"buff"`
	UsesPerBattle int              `yaml:"uses_per_battle"` // 0 = unlimited
	// BonusDamage is an optional dice expression added to each damaging hit, e.g. "2d6+3".
	BonusDamage string `yaml:"bonus_damage"`
	// School selects the attack/defense pair, barrier and multipliers of a damaging skill.
	// Empty means breath for breath skills and physical otherwise.
	School effect.School `yaml:"school"`
	// Hits is the number of targets drawn by a random-target skill; 0 means 1.
	Hits int `yaml:"hits"`
}

// DamageSchool returns School, or the default school for Kind when unset.
func (s *EnemySkill) DamageSchool() effect.School {
	switch {
	case s.School != "":
		return s.School
	case s.Kind == KindBreath:
		return effect.Breath
	default:
		return effect.Physical
	}
}

// BonusDice returns the parsed BonusDamage expression, or false when unset.
func (s *EnemySkill) BonusDice() (dice.Expression, bool) {
	if s.BonusDamage == "" {
		return dice.Expression{}, false
	}
	e, err := dice.Parse(s.BonusDamage)
	return e, err == nil
}

// Validate reports definition errors.
func (s *EnemySkill) Validate() error {
	if s.ID <= 0 || s.Name == "" {
		return fmt.Errorf("enemy skill %d: id and name are required", s.ID)
	}
	if s.BonusDamage != "" {
		if _, err := dice.Parse(s.BonusDamage); err != nil {
			return fmt.Errorf("enemy skill %d: %w", s.ID, err)
		}
	}
	if s.School != "" && !slices.Contains(effect.AllSchools, s.School) {
		return fmt.Errorf("enemy skill %d: unknown school %q", s.ID, s.School)
	}
	if s.Hits < 0 {
		return fmt.Errorf("enemy skill %d: hits must be >= 0", s.ID)
	}
	return validateAction(s.ID, s.Kind, s.Target, s.Buff)
}

func validateAction(id int, kind ActionKind, target TargetKind, buff *effect.BuffSpec) error {
	switch kind {
	case KindDamage, KindBreath, KindHeal, KindStatus, KindRevive, KindDegrade:
	case KindBuff:
		if buff == nil {
			return fmt.Errorf("action %d: buff kind requires a buff", id)
		}
	default:
		return fmt.Errorf("action %d: unknown kind %q", id, kind)
	}
	switch target {
	case TargetEnemy, TargetEnemies, TargetAlly, TargetAllies, TargetSelf, TargetFallen, TargetRandom:
		return nil
	default:
		return fmt.Errorf("action %d: unknown target %q", id, target)
	}
}

// ActionWeights are the relative odds of each action category.
type ActionWeights struct {
	Physical int `yaml:"physical" json:"physical"`
	Priest   int `yaml:"priest" json:"priest"`
	Mage     int `yaml:"mage" json:"mage"`
	Breath   int `yaml:"breath" json:"breath"`
	Special  int `yaml:"special" json:"special"`
}

// Enemy is an encounter participant built through the same stat pipeline as characters.
type Enemy struct {
	ID             int                 `yaml:"id"`
	Name           string              `yaml:"name"`
	RaceID         int                 `yaml:"race"`
	JobID          int                 `yaml:"job"`
	Level          int                 `yaml:"level"`
	BaseAttributes stat.CoreAttributes `yaml:"base_attributes"`
	SkillIDs       []int               `yaml:"skills"`
	SpellIDs       []int               `yaml:"spells"`
	EnemySkillIDs  []int               `yaml:"enemy_skills"`
	Equipment      []inventory.Stack   `yaml:"equipment"`
	Weights        ActionWeights       `yaml:"weights"`
	// Script names an optional Lua action policy.
	Script string `yaml:"script"`
}

// Validate reports definition errors.
func (e *Enemy) Validate() error {
	if e.ID <= 0 || e.Name == "" {
		return fmt.Errorf("enemy %d: id and name are required", e.ID)
	}
	if e.Level < 1 {
		return fmt.Errorf("enemy %d: level must be >= 1", e.ID)
	}
	return nil
}
