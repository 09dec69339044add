package stat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeon/internal/game/stat"
)

func TestParseCore_RoundTrip(t *testing.T) {
	for _, c := range stat.AllCores {
		parsed, err := stat.ParseCore(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
}

func TestParseCore_Unknown(t *testing.T) {
	_, err := stat.ParseCore("charisma")
	assert.Error(t, err)
	assert.Equal(t, "unknown", stat.CoreUnknown.String())
}

func TestCoreFromLegacyCode(t *testing.T) {
	c, err := stat.CoreFromLegacyCode(5)
	require.NoError(t, err)
	assert.Equal(t, stat.Agility, c)
	_, err = stat.CoreFromLegacyCode(0)
	assert.Error(t, err)
}

func TestParseCombatStat_CanonicalAndAlias(t *testing.T) {
	for _, s := range stat.AllCombatStats {
		parsed, err := stat.ParseCombatStat(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	s, err := stat.ParseCombatStat("evasionRate")
	require.NoError(t, err)
	assert.Equal(t, stat.EvasionScore, s)
}

func TestCombatStatFromLegacyCode(t *testing.T) {
	s, err := stat.CombatStatFromLegacyCode(22)
	require.NoError(t, err)
	assert.Equal(t, stat.BreathDamage, s)
	_, err = stat.CombatStatFromLegacyCode(99)
	assert.Error(t, err)
}

func TestCombatStat_YAMLAcceptsNameAndLegacyCode(t *testing.T) {
	var doc struct {
		Talents map[stat.CombatStat]float64 `yaml:"talents"`
		Core    []stat.Core                 `yaml:"core"`
	}
	err := yaml.Unmarshal([]byte(`
talents:
  physicalAttack: 1.5
  12: 1.2
core: [strength, 6]
`), &doc)
	require.NoError(t, err)
	assert.Equal(t, 1.5, doc.Talents[stat.PhysicalAttack])
	assert.Equal(t, 1.2, doc.Talents[stat.MagicalAttack])
	assert.Equal(t, []stat.Core{stat.Strength, stat.Luck}, doc.Core)
}

func TestCombatStat_YAMLRejectsUnknown(t *testing.T) {
	var doc struct {
		Stat stat.CombatStat `yaml:"stat"`
	}
	err := yaml.Unmarshal([]byte("stat: charm\n"), &doc)
	assert.Error(t, err)
}

func TestCombat_ClampInvariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := stat.Combat{
			MaxHP:                 rapid.IntRange(-100, 100).Draw(rt, "maxHP"),
			AttackCount:           rapid.Float64Range(-5, 5).Draw(rt, "attackCount"),
			CriticalChancePercent: rapid.IntRange(-200, 200).Draw(rt, "crit"),
		}
		c.Clamp()
		assert.NoError(rt, c.Validate())
	})
}

func TestCoreAttributes_ClampNonNegative(t *testing.T) {
	a := stat.CoreAttributes{Strength: -3, Wisdom: 4, Luck: -1}
	a.ClampNonNegative()
	assert.Equal(t, stat.CoreAttributes{Wisdom: 4}, a)
}

func TestCoreAttributes_GetAdd(t *testing.T) {
	var a stat.CoreAttributes
	a.Add(stat.Spirit, 3)
	a.AddAll(2)
	assert.Equal(t, 5, a.Get(stat.Spirit))
	assert.Equal(t, 2, a.Get(stat.Vitality))
	assert.Equal(t, 0, a.Get(stat.CoreUnknown))
}
