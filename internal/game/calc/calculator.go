package calc

import (
	"errors"

	"github.com/cory-johannsen/dungeon/internal/game/effect"
	"github.com/cory-johannsen/dungeon/internal/game/formula"
	"github.com/cory-johannsen/dungeon/internal/game/inventory"
	"github.com/cory-johannsen/dungeon/internal/game/masterdata"
	"github.com/cory-johannsen/dungeon/internal/game/stat"
)

// Context is the resolved input of one stat calculation.
type Context struct {
	Category       formula.RaceCategory
	BaseAttributes stat.CoreAttributes
	Level          int
	Job            *masterdata.Job
	Personalities  []*masterdata.Personality
	// Loadout is used when non-nil; otherwise Equipment is resolved through Catalog.
	Loadout   *inventory.Loadout
	Equipment []inventory.Stack
	Catalog   inventory.Catalog
	Effects   effect.Bundle
	// MartialEligible is the final martial eligibility of the build.
	MartialEligible bool
	// CurrentHP is the persisted hit points, capped to the computed maximum.
	CurrentHP int
}

// HitPoints is the computed HP pool.
type HitPoints struct {
	Max     int
	Current int
}

// Result is the output of a stat calculation.
type Result struct {
	Attributes stat.CoreAttributes
	HitPoints  HitPoints
	Combat     stat.Combat
}

// Calculator runs the full attribute and combat pipeline. It is stateless.
type Calculator struct{}

// Calculate compiles ctx.
//
// Precondition: ctx.Job must not be nil.
// Postcondition: Returns a *ConfigError when an equipped item is undefined or the
// effect conversions form a cycle; otherwise Result.Combat satisfies its invariants and
// 0 <= HitPoints.Current <= HitPoints.Max when ctx.CurrentHP >= 0.
func (Calculator) Calculate(ctx Context) (Result, error) {
	loadout := ctx.Loadout
	if loadout == nil {
		l, err := inventory.BuildLoadout(ctx.Equipment, ctx.Catalog)
		if err != nil {
			return Result{}, &ConfigError{Op: "equipment", Err: err}
		}
		loadout = l
	}
	graph, err := NewConversionGraph(ctx.Effects.Stats.Conversions)
	if err != nil {
		var cfg *ConfigError
		if errors.As(err, &cfg) {
			return Result{}, cfg
		}
		return Result{}, &ConfigError{Op: "conversions", Err: err}
	}

	var acc Accumulator
	acc.ApplyRaceBase(ctx.BaseAttributes)
	acc.ApplyLevelBonus(ctx.Level)
	for _, p := range ctx.Personalities {
		acc.ApplyPersonality(p)
	}
	acc.ApplyEquipment(loadout, ctx.Effects.Stats.CategoryMultiplier)
	attrs := acc.Result()

	combat := NewCombatAccumulator(CombatInput{
		Attributes:      attrs,
		LevelFactor:     formula.LevelDependentValue(ctx.Category, ctx.Level) * ctx.Job.Growth(),
		Job:             ctx.Job,
		Effects:         ctx.Effects,
		MartialEligible: ctx.MartialEligible,
		Loadout:         loadout,
	})
	combat.ApplyConversions(graph)
	combat.ApplyHighStatBonuses()
	combat.ApplyForcedToOne()
	combat.Clamp()
	combat.ApplyEquipmentOverlay()
	c := combat.Result()

	hp := HitPoints{Max: max(1, c.MaxHP)}
	hp.Current = min(ctx.CurrentHP, hp.Max)
	return Result{Attributes: attrs, HitPoints: hp, Combat: c}, nil
}
