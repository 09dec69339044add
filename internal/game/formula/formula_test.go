package formula_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeon/internal/game/formula"
)

const elf formula.RaceCategory = "elf"

func TestLevelDependentValue_BandEdges(t *testing.T) {
	cases := []struct {
		level    int
		human    float64
		nonHuman float64
	}{
		{30, 3.0, 3.0},
		{31, 3.15, 3.15},
		{50, 6.0, 6.0},
		{60, 7.5, 7.5},
		{61, 7.6, 7.6},
		{80, 9.5, 9.5},
		{81, 9.6, 9.575},
		{100, 11.5, 11.0},
		{101, 11.58, 11.05},
		{150, 15.5, 13.5},
		{151, 15.56, 13.53},
		{180, 17.3, 14.4},
		{181, 17.34, 14.42},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.human, formula.LevelDependentValue(formula.CategoryHuman, tc.level), 1e-9, "human level %d", tc.level)
		assert.InDelta(t, tc.nonHuman, formula.LevelDependentValue(elf, tc.level), 1e-9, "non-human level %d", tc.level)
	}
}

func TestLevelDependentValue_BranchesCoincideUpToEighty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		level := rapid.IntRange(1, 80).Draw(rt, "level")
		assert.Equal(rt, formula.LevelDependentValue(formula.CategoryHuman, level), formula.LevelDependentValue(elf, level))
	})
}

func TestLevelDependentValue_HumanOutgrowsOthersPastEighty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		level := rapid.IntRange(81, 400).Draw(rt, "level")
		assert.Greater(rt, formula.LevelDependentValue(formula.CategoryHuman, level), formula.LevelDependentValue(elf, level))
	})
}

func TestLevelDependentValue_NonDecreasing(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		level := rapid.IntRange(1, 399).Draw(rt, "level")
		for _, c := range []formula.RaceCategory{formula.CategoryHuman, elf} {
			assert.LessOrEqual(rt, formula.LevelDependentValue(c, level), formula.LevelDependentValue(c, level+1))
		}
	})
}

func TestStatBonusMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, formula.StatBonusMultiplier(0))
	assert.Equal(t, 1.0, formula.StatBonusMultiplier(20))
	assert.InDelta(t, 1.04, formula.StatBonusMultiplier(21), 1e-12)
	assert.InDelta(t, 1.0816, formula.StatBonusMultiplier(22), 1e-12)
}

func TestStatBonusMultiplier_MonotonicAboveTwenty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := rapid.IntRange(20, 200).Draw(rt, "value")
		assert.Less(rt, formula.StatBonusMultiplier(v), formula.StatBonusMultiplier(v+1))
	})
}

func TestResistancePercent(t *testing.T) {
	assert.Equal(t, 1.0, formula.ResistancePercent(20))
	assert.InDelta(t, 0.96, formula.ResistancePercent(21), 1e-12)
	rapid.Check(t, func(rt *rapid.T) {
		v := rapid.IntRange(20, 200).Draw(rt, "value")
		assert.Greater(rt, formula.ResistancePercent(v), formula.ResistancePercent(v+1))
	})
}

func TestStrengthDependency(t *testing.T) {
	assert.Equal(t, 0.0, formula.StrengthDependency(0))
	assert.InDelta(t, 25.0, formula.StrengthDependency(20), 1e-9)
	assert.InDelta(t, 100.0, formula.StrengthDependency(35), 1e-9)
	assert.InDelta(t, 156.25, formula.StrengthDependency(50), 1e-9)
	assert.InDelta(t, 250.0, formula.StrengthDependency(100), 1e-9)
	assert.InDelta(t, 253.125, formula.StrengthDependency(105), 1e-9)
}

func TestStrengthDependency_Continuous(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := rapid.IntRange(1, 300).Draw(rt, "value")
		assert.LessOrEqual(rt, formula.StrengthDependency(v-1), formula.StrengthDependency(v))
		assert.Less(rt, formula.StrengthDependency(v)-formula.StrengthDependency(v-1), 5.01)
	})
}

func TestAgilityDependency_ControlPoints(t *testing.T) {
	assert.Equal(t, 20.0, formula.AgilityDependency(0))
	assert.Equal(t, 20.0, formula.AgilityDependency(20))
	assert.InDelta(t, 20.84, formula.AgilityDependency(21), 1e-9)
	assert.InDelta(t, 25.00, formula.AgilityDependency(25), 1e-9)
	assert.InDelta(t, 45.52, formula.AgilityDependency(34), 1e-9)
	assert.InDelta(t, 50.00, formula.AgilityDependency(35), 1e-9)
	assert.InDelta(t, 50.00+4.48, formula.AgilityDependency(36), 1e-9)
	assert.InDelta(t, 50.00+4.48*5, formula.AgilityDependency(40), 1e-9)
}

func TestAgilityDependency_Interpolates(t *testing.T) {
	assert.InDelta(t, (25.00+26.38)/2, formula.AgilityDependency(25.5), 1e-9)
	assert.InDelta(t, 20.42, formula.AgilityDependency(20.5), 1e-9)
}

func TestEvasionLimit(t *testing.T) {
	assert.Equal(t, 95.0, formula.EvasionLimit(20))
	assert.InDelta(t, 100-5*0.88, formula.EvasionLimit(21), 1e-9)
	rapid.Check(t, func(rt *rapid.T) {
		v := rapid.IntRange(21, 300).Draw(rt, "value")
		limit := formula.EvasionLimit(v)
		assert.Greater(rt, limit, 95.0)
		assert.Less(rt, limit, 100.0+1e-9)
	})
}

func TestFinalAttackCount_AgilityTwentyFiveHalfRoundsDown(t *testing.T) {
	// 25.00/10 = 2.5; round(2.6)+round(2.2) = 5; 5/2 = 2.5; exact half rounds down.
	assert.Equal(t, 2, formula.FinalAttackCount(25, 0, 1, 1, 1, 0))
}

func TestFinalAttackCount_RoundsToNearestOtherwise(t *testing.T) {
	// 20/10 = 2.0; round(2.1)+round(1.7) = 4; 2.0 * 1.4 = 2.8 -> 3.
	assert.Equal(t, 3, formula.FinalAttackCount(20, 0, 1, 1, 1.4, 0))
	// additive pushes past the half: 2.0 + 0.6 = 2.6 -> 3.
	assert.Equal(t, 3, formula.FinalAttackCount(20, 0, 1, 1, 1, 0.6))
}

func TestFinalAttackCount_LevelScaling(t *testing.T) {
	// 2.0 * (1 + 6*0.5) = 8.0; round(8.1)+round(7.7) = 16; 8.
	assert.Equal(t, 8, formula.FinalAttackCount(20, 6, 0.5, 1, 1, 0))
}

func TestFinalAttackCount_NeverBelowOne(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		agi := rapid.Float64Range(0, 200).Draw(rt, "agility")
		passive := rapid.Float64Range(0, 3).Draw(rt, "passive")
		additive := rapid.Float64Range(-10, 10).Draw(rt, "additive")
		assert.GreaterOrEqual(rt, formula.FinalAttackCount(agi, 0, 1, 1, passive, additive), 1)
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, 2460, formula.Truncate(2459.9999999999995))
	assert.Equal(t, 12, formula.Truncate(12.9))
	assert.Equal(t, -12, formula.Truncate(-12.9))
	assert.Equal(t, 0, formula.Truncate(0))
}

func TestBaseEquipmentCapacity(t *testing.T) {
	assert.Equal(t, 1, formula.BaseEquipmentCapacity(1))
	assert.Equal(t, 1, formula.BaseEquipmentCapacity(0))
	// sqrt(1.5*10+0.3)=3.911; (3.911-0.5)/0.7 = 4.87 -> 4
	assert.Equal(t, 4, formula.BaseEquipmentCapacity(10))
}

func TestEquipmentCapacity_IdentityModifiers(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		level := rapid.IntRange(1, 500).Draw(rt, "level")
		assert.Equal(rt, formula.BaseEquipmentCapacity(level), formula.EquipmentCapacity(level, 1, 0))
	})
}

func TestEquipmentCapacity_Modifiers(t *testing.T) {
	assert.Equal(t, 7, formula.EquipmentCapacity(10, 1.5, 1))
	assert.Equal(t, 1, formula.EquipmentCapacity(10, 0, -3))
}
