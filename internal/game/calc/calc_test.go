package calc_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeon/internal/game/calc"
	"github.com/cory-johannsen/dungeon/internal/game/effect"
	"github.com/cory-johannsen/dungeon/internal/game/inventory"
	"github.com/cory-johannsen/dungeon/internal/game/masterdata"
	"github.com/cory-johannsen/dungeon/internal/game/stat"
)

func flatJob() *masterdata.Job {
	return &masterdata.Job{ID: 1, Name: "Commoner"}
}

func attrs(v int) stat.CoreAttributes {
	return stat.CoreAttributes{Strength: v, Wisdom: v, Spirit: v, Vitality: v, Agility: v, Luck: v}
}

func TestCalculate_Level50Vitality30MaxHP(t *testing.T) {
	job := &masterdata.Job{ID: 1, Name: "Knight", Coefficients: map[stat.CombatStat]float64{stat.MaxHP: 1.2}}
	res, err := calc.Calculator{}.Calculate(calc.Context{
		BaseAttributes: stat.CoreAttributes{Vitality: 20},
		Level:          50,
		Job:            job,
		CurrentHP:      99999,
	})
	require.NoError(t, err)
	assert.Equal(t, 30, res.Attributes.Vitality)
	assert.Equal(t, 2460, res.Combat.MaxHP)
	assert.Equal(t, calc.HitPoints{Max: 2460, Current: 2460}, res.HitPoints)
}

func TestCalculate_ConversionCycle(t *testing.T) {
	_, err := calc.Calculator{}.Calculate(calc.Context{
		Level: 1,
		Job:   flatJob(),
		Effects: effect.Bundle{Stats: effect.Stats{Conversions: []stat.Conversion{
			{Source: stat.PhysicalAttack, Target: stat.MagicalAttack, Ratio: 0.5},
			{Source: stat.MagicalAttack, Target: stat.PhysicalAttack, Ratio: 0.5},
		}}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, calc.ErrConversionCycle))
	var cfg *calc.ConfigError
	assert.True(t, errors.As(err, &cfg))
}

func TestCalculate_MissingItem(t *testing.T) {
	_, err := calc.Calculator{}.Calculate(calc.Context{
		Level:     1,
		Job:       flatJob(),
		Equipment: []inventory.Stack{{ItemID: 42, Quantity: 1}},
		Catalog:   inventory.NewRegistry(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, calc.ErrItemNotFound))
	var cfg *calc.ConfigError
	assert.True(t, errors.As(err, &cfg))
}

func TestCalculate_BreathUsesMagicalAttackCoefficient(t *testing.T) {
	job := &masterdata.Job{ID: 1, Name: "Dragoon", Coefficients: map[stat.CombatStat]float64{
		stat.MagicalAttack: 1.0,
		stat.BreathDamage:  5.0,
	}}
	res, err := calc.Calculator{}.Calculate(calc.Context{BaseAttributes: attrs(10), Level: 10, Job: job})
	require.NoError(t, err)
	assert.Equal(t, 24, res.Combat.MagicalAttack)
	assert.Equal(t, res.Combat.MagicalAttack, res.Combat.BreathDamage)
}

func TestCalculate_HitScoreAndCritical(t *testing.T) {
	res, err := calc.Calculator{}.Calculate(calc.Context{BaseAttributes: attrs(10), Level: 1, Job: flatJob()})
	require.NoError(t, err)
	assert.Equal(t, 60, res.Combat.HitScore)
	assert.Equal(t, 0, res.Combat.CriticalChancePercent)

	base := stat.CoreAttributes{Agility: 20, Luck: 20}
	res, err = calc.Calculator{}.Calculate(calc.Context{BaseAttributes: base, Level: 1, Job: flatJob()})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Combat.CriticalChancePercent)

	fx := effect.Bundle{Stats: effect.Stats{Critical: effect.Critical{FlatBonus: 10}}}
	res, err = calc.Calculator{}.Calculate(calc.Context{BaseAttributes: base, Level: 1, Job: flatJob(), Effects: fx})
	require.NoError(t, err)
	assert.Equal(t, 12, res.Combat.CriticalChancePercent)

	fx.Stats.Critical.Cap = 5
	res, err = calc.Calculator{}.Calculate(calc.Context{BaseAttributes: base, Level: 1, Job: flatJob(), Effects: fx})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Combat.CriticalChancePercent)
}

func TestCalculate_AttackCountAgility25(t *testing.T) {
	res, err := calc.Calculator{}.Calculate(calc.Context{BaseAttributes: stat.CoreAttributes{Agility: 25}, Level: 1, Job: flatJob()})
	require.NoError(t, err)
	assert.InDelta(t, 2, res.Combat.AttackCount, 1e-9)
}

func TestCalculate_ConversionChainUsesConvertedSource(t *testing.T) {
	fx := effect.Bundle{Stats: effect.Stats{Conversions: []stat.Conversion{
		{Source: stat.PhysicalAttack, Target: stat.HitScore, Ratio: 1},
		{Source: stat.MagicalAttack, Target: stat.PhysicalAttack, Ratio: 0.5},
	}}}
	res, err := calc.Calculator{}.Calculate(calc.Context{BaseAttributes: attrs(10), Level: 1, Job: flatJob(), Effects: fx})
	require.NoError(t, err)
	assert.Equal(t, 15, res.Combat.PhysicalAttack)
	assert.Equal(t, 75, res.Combat.HitScore)
}

func TestConversionGraph_Order(t *testing.T) {
	g, err := calc.NewConversionGraph([]stat.Conversion{
		{Source: stat.PhysicalAttack, Target: stat.HitScore, Ratio: 1},
		{Source: stat.MagicalAttack, Target: stat.PhysicalAttack, Ratio: 0.5},
	})
	require.NoError(t, err)
	assert.Equal(t, []stat.CombatStat{stat.MagicalAttack, stat.PhysicalAttack, stat.HitScore}, g.Order())

	_, err = calc.NewConversionGraph([]stat.Conversion{{Source: stat.MaxHP, Target: stat.MaxHP, Ratio: 1}})
	assert.ErrorIs(t, err, calc.ErrConversionCycle)
}

func TestCalculate_HighStatDefense(t *testing.T) {
	res, err := calc.Calculator{}.Calculate(calc.Context{BaseAttributes: stat.CoreAttributes{Vitality: 30}, Level: 1, Job: flatJob()})
	require.NoError(t, err)
	want := int(30 / math.Pow(0.96, 10))
	assert.Equal(t, want, res.Combat.PhysicalDefense)
	assert.Equal(t, 45, res.Combat.PhysicalDefense)
}

func TestCalculate_EquipmentOverlayAndAttributes(t *testing.T) {
	reg := inventory.NewRegistry()
	require.NoError(t, reg.RegisterItem(&inventory.ItemDef{
		ID: 1, Name: "Long Sword", Category: inventory.CategorySword,
		StatBonuses:   map[stat.Core]int{stat.Strength: 2},
		CombatBonuses: map[stat.CombatStat]float64{stat.PhysicalAttack: 12},
	}))
	fx := effect.Bundle{Stats: effect.Stats{
		CategoryMultipliers: map[inventory.Category]float64{inventory.CategorySword: 1.5},
		ItemStatMultipliers: map[stat.CombatStat]float64{stat.PhysicalAttack: 2},
	}}
	res, err := calc.Calculator{}.Calculate(calc.Context{
		BaseAttributes: attrs(10),
		Level:          1,
		Job:            flatJob(),
		Equipment:      []inventory.Stack{{ItemID: 1, Quantity: 1}},
		Catalog:        reg,
		Effects:        fx,
	})
	require.NoError(t, err)
	assert.Equal(t, 13, res.Attributes.Strength)
	assert.Equal(t, 13+36, res.Combat.PhysicalAttack)
}

func TestCalculate_ForcedToOneAndMartial(t *testing.T) {
	fx := effect.Bundle{Stats: effect.Stats{
		ForcedToOne: []stat.CombatStat{stat.BreathDamage},
		Martial:     effect.Martial{Percent: 50},
	}}
	res, err := calc.Calculator{}.Calculate(calc.Context{
		BaseAttributes: attrs(10), Level: 1, Job: flatJob(), Effects: fx, MartialEligible: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Combat.BreathDamage)
	assert.Equal(t, 15, res.Combat.PhysicalAttack)
	assert.True(t, res.Combat.IsMartialEligible)
}

func TestAccumulator_Stages(t *testing.T) {
	var acc calc.Accumulator
	acc.ApplyRaceBase(attrs(5))
	acc.ApplyLevelBonus(99)
	acc.ApplyPersonality(&masterdata.Personality{Deltas: map[stat.Core]int{stat.Luck: -30}})
	acc.ApplyPersonality(nil)
	got := acc.Result()
	assert.Equal(t, 15, got.Strength)
	assert.Equal(t, 0, got.Luck)
}

func TestCalculate_InvariantsProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		base := stat.CoreAttributes{
			Strength: rapid.IntRange(0, 200).Draw(rt, "str"),
			Wisdom:   rapid.IntRange(0, 200).Draw(rt, "wis"),
			Spirit:   rapid.IntRange(0, 200).Draw(rt, "spi"),
			Vitality: rapid.IntRange(0, 200).Draw(rt, "vit"),
			Agility:  rapid.IntRange(0, 200).Draw(rt, "agi"),
			Luck:     rapid.IntRange(0, 200).Draw(rt, "luck"),
		}
		job := &masterdata.Job{ID: 1, Name: "J", Coefficients: map[stat.CombatStat]float64{
			stat.MaxHP:          rapid.Float64Range(0, 3).Draw(rt, "hpCoef"),
			stat.PhysicalAttack: rapid.Float64Range(0, 3).Draw(rt, "atkCoef"),
		}}
		fx := effect.Bundle{Stats: effect.Stats{Additives: map[stat.CombatStat]float64{
			stat.MaxHP: rapid.Float64Range(-5000, 100).Draw(rt, "hpAdd"),
		}}}
		current := rapid.IntRange(0, 100000).Draw(rt, "current")
		res, err := calc.Calculator{}.Calculate(calc.Context{
			BaseAttributes: base,
			Level:          rapid.IntRange(1, 250).Draw(rt, "level"),
			Job:            job,
			Effects:        fx,
			CurrentHP:      current,
		})
		require.NoError(rt, err)
		require.NoError(rt, res.Combat.Validate())
		assert.LessOrEqual(rt, res.HitPoints.Current, res.HitPoints.Max)
		assert.GreaterOrEqual(rt, res.HitPoints.Max, 1)
	})
}
