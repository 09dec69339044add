// Package inventory defines equipment definitions, equipped stacks, and the
// resolved loadout cache consumed by the stat pipeline.
package inventory

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/dungeon/internal/game/stat"
)

// Category groups items for skill-driven category multipliers.
type Category string

// Category constants for ItemDef.Category.
const (
	CategorySword     Category = "sword"
	CategoryKatana    Category = "katana"
	CategoryAxe       Category = "axe"
	CategorySpear     Category = "spear"
	CategoryBow       Category = "bow"
	CategoryWand      Category = "wand"
	CategoryRod       Category = "rod"
	CategoryShield    Category = "shield"
	CategoryArmor     Category = "armor"
	CategoryRobe      Category = "robe"
	CategoryHelmet    Category = "helmet"
	CategoryGauntlet  Category = "gauntlet"
	CategoryBoots     Category = "boots"
	CategoryAccessory Category = "accessory"
	CategoryGem       Category = "gem"
)

// validCategories is the set of valid ItemDef categories.
var validCategories = map[Category]bool{
	CategorySword: true, CategoryKatana: true, CategoryAxe: true, CategorySpear: true,
	CategoryBow: true, CategoryWand: true, CategoryRod: true, CategoryShield: true,
	CategoryArmor: true, CategoryRobe: true, CategoryHelmet: true, CategoryGauntlet: true,
	CategoryBoots: true, CategoryAccessory: true, CategoryGem: true,
}

// ItemDef defines the static properties of an equippable item.
type ItemDef struct {
	ID              int                         `yaml:"id"`
	Name            string                      `yaml:"name"`
	Category        Category                    `yaml:"category"`
	Rarity          int                         `yaml:"rarity"`
	StatBonuses     map[stat.Core]int           `yaml:"stat_bonuses"`
	CombatBonuses   map[stat.CombatStat]float64 `yaml:"combat_bonuses"`
	GrantedSkillIDs []int                       `yaml:"granted_skills"`
	// SocketBoon scales the combat bonuses of a gem socketed into this item. 0 means 1.
	SocketBoon float64 `yaml:"socket_boon"`
}

// Validate checks that the ItemDef satisfies its invariants.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (d *ItemDef) Validate() error {
	var errs []error
	if d.ID <= 0 {
		errs = append(errs, errors.New("ID must be > 0"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if !validCategories[d.Category] {
		errs = append(errs, fmt.Errorf("Category %q is not a known category", d.Category))
	}
	if d.SocketBoon < 0 {
		errs = append(errs, errors.New("SocketBoon must be >= 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("item %d validation failed: %v", d.ID, errs)
	}
	return nil
}

// GrantsPositive reports whether the item carries a positive bonus for s.
func (d *ItemDef) GrantsPositive(s stat.CombatStat) bool {
	return d.CombatBonuses[s] > 0
}

func (d *ItemDef) socketBoon() float64 {
	if d.SocketBoon == 0 {
		return 1
	}
	return d.SocketBoon
}

// TitleDef is a normal title that scales an item's bonuses by sign.
type TitleDef struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
	// StatMultiplier scales positive bonuses. 0 means 1.
	StatMultiplier float64 `yaml:"stat_multiplier"`
	// NegativeMultiplier scales negative bonuses. 0 means 1.
	NegativeMultiplier float64 `yaml:"negative_multiplier"`
}

// Multiplier returns the factor applied to a bonus of the given value.
// A nil title is the identity.
func (t *TitleDef) Multiplier(value float64) float64 {
	if t == nil {
		return 1
	}
	m := t.StatMultiplier
	if value < 0 {
		m = t.NegativeMultiplier
	}
	if m == 0 {
		return 1
	}
	return m
}

// SuperRareTitleDef doubles an item's bonuses and may grant skills.
type SuperRareTitleDef struct {
	ID       int    `yaml:"id"`
	Name     string `yaml:"name"`
	SkillIDs []int  `yaml:"skills"`
}

// SuperRareMultiplier is the bonus factor of any super-rare title.
const SuperRareMultiplier = 2.0

// Stack is one persisted equipment entry.
type Stack struct {
	ItemID           int `yaml:"item" json:"item"`
	Quantity         int `yaml:"quantity" json:"quantity"`
	TitleID          int `yaml:"title,omitempty" json:"title,omitempty"`
	SuperRareTitleID int `yaml:"super_rare_title,omitempty" json:"super_rare_title,omitempty"`
	SocketItemID     int `yaml:"socket_item,omitempty" json:"socket_item,omitempty"`
	SocketTitleID    int `yaml:"socket_title,omitempty" json:"socket_title,omitempty"`
}

// quantity returns the effective stack size; 0 is treated as 1.
func (s Stack) quantity() int {
	if s.Quantity < 1 {
		return 1
	}
	return s.Quantity
}
