// Package character defines the persisted character record and the compiled
// combat-ready Character built from it.
package character

import (
	"time"

	"github.com/cory-johannsen/dungeon/internal/game/effect"
	"github.com/cory-johannsen/dungeon/internal/game/inventory"
	"github.com/cory-johannsen/dungeon/internal/game/masterdata"
	"github.com/cory-johannsen/dungeon/internal/game/stat"
)

// ActionRates are the player-chosen relative odds of each action category.
type ActionRates struct {
	Physical int `yaml:"physical" json:"physical"`
	Priest   int `yaml:"priest" json:"priest"`
	Mage     int `yaml:"mage" json:"mage"`
	Breath   int `yaml:"breath" json:"breath"`
}

// Record is the persisted state of a character.
//
// ID is set by the persistence layer; zero indicates an unsaved character.
type Record struct {
	ID                     int64             `yaml:"id" json:"id"`
	Name                   string            `yaml:"name" json:"name"`
	RaceID                 int               `yaml:"race" json:"race"`
	JobID                  int               `yaml:"job" json:"job"`
	PreviousJobID          int               `yaml:"previous_job" json:"previousJob"`
	AvatarID               int               `yaml:"avatar" json:"avatar"`
	Level                  int               `yaml:"level" json:"level"`
	Experience             int64             `yaml:"experience" json:"experience"`
	CurrentHP              int               `yaml:"current_hp" json:"currentHP"`
	Equipment              []inventory.Stack `yaml:"equipment" json:"equipment"`
	PrimaryPersonalityID   int               `yaml:"primary_personality" json:"primaryPersonality"`
	SecondaryPersonalityID int               `yaml:"secondary_personality" json:"secondaryPersonality"`
	ActionRates            ActionRates       `yaml:"action_rates" json:"actionRates"`
	DisplayOrder           int               `yaml:"display_order" json:"displayOrder"`
	UpdatedAt              time.Time         `yaml:"updated_at" json:"updatedAt"`
}

// Character is a fully compiled build.
//
// Invariant: CurrentHP <= Combat.MaxHP; Loadout.UsedSlots() <= Capacity.
type Character struct {
	Record

	Race          *masterdata.Race // nil for enemies without a race
	Job           *masterdata.Job
	PreviousJob   *masterdata.Job
	Personalities []*masterdata.Personality
	Skills        []*masterdata.Skill
	Loadout       *inventory.Loadout
	Spellbook     Spellbook
	Effects       effect.Bundle

	Attributes stat.CoreAttributes
	Combat     stat.Combat
	Capacity   int

	// Enemy is set when the character was built from an enemy definition.
	Enemy *masterdata.Enemy
}

// MaxHP returns the computed maximum hit points.
func (c *Character) MaxHP() int { return c.Combat.MaxHP }

// IsAlive reports whether the character has hit points left.
func (c *Character) IsAlive() bool { return c.CurrentHP > 0 }

// Weights returns the action-category weights of the character.
// Enemies use their definition; players use their action rates.
func (c *Character) Weights() masterdata.ActionWeights {
	if c.Enemy != nil {
		return c.Enemy.Weights
	}
	r := c.ActionRates
	return masterdata.ActionWeights{Physical: r.Physical, Priest: r.Priest, Mage: r.Mage, Breath: r.Breath}
}

// SkillIDs returns the IDs of the resolved skills in compile order.
func (c *Character) SkillIDs() []int {
	ids := make([]int, len(c.Skills))
	for i, s := range c.Skills {
		ids[i] = s.ID
	}
	return ids
}
