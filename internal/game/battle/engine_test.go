package battle_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeon/internal/game/battle"
	"github.com/cory-johannsen/dungeon/internal/game/character"
	"github.com/cory-johannsen/dungeon/internal/game/condition"
	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/effect"
	"github.com/cory-johannsen/dungeon/internal/game/masterdata"
	"github.com/cory-johannsen/dungeon/internal/game/stat"
)

const (
	healSpellID   = 1
	flameSpellID  = 2
	sleepStatusID = 1
	stunStatusID  = 2
	degradeID     = 1
)

var stun = &condition.StatusDef{ID: stunStatusID, Name: "Stun", BlocksAction: true}

func newRegistry(t *testing.T) *masterdata.Registry {
	t.Helper()
	reg := masterdata.NewRegistry()
	require.NoError(t, reg.RegisterStatus(&condition.StatusDef{ID: sleepStatusID, Name: "Sleep", Duration: 2, BlocksAction: true, BreaksOnDamage: true}))
	require.NoError(t, reg.RegisterStatus(stun))
	require.NoError(t, reg.RegisterSpell(&masterdata.Spell{
		ID: healSpellID, Name: "Heal", School: masterdata.PriestSchool, Tier: 1,
		Kind: masterdata.KindHeal, Target: masterdata.TargetAlly, Power: 1, Charges: 3,
	}))
	require.NoError(t, reg.RegisterSpell(&masterdata.Spell{
		ID: flameSpellID, Name: "Flame", School: masterdata.MageSchool, Tier: 1,
		Kind: masterdata.KindDamage, Target: masterdata.TargetEnemies, Power: 2, Charges: 2,
		StatusID: sleepStatusID, StatusChance: 50,
	}))
	require.NoError(t, reg.RegisterEnemySkill(&masterdata.EnemySkill{
		ID: degradeID, Name: "Corrode", Kind: masterdata.KindDegrade, Target: masterdata.TargetEnemy,
		Power: 20, UsesPerBattle: 1,
	}))
	return reg
}

func combatant(name string, hp int) *character.Character {
	return &character.Character{
		Record: character.Record{Name: name, CurrentHP: hp, ActionRates: character.ActionRates{Physical: 1}},
		Attributes: stat.CoreAttributes{
			Strength: 10, Wisdom: 10, Spirit: 10, Vitality: 10, Agility: 10, Luck: 10,
		},
		Combat: stat.Combat{
			MaxHP: hp, PhysicalAttack: 20, PhysicalDefense: 4, MagicalAttack: 10, MagicalDefense: 4,
			HitScore: 1000, EvasionScore: 0, AttackCount: 1, MagicalHealing: 30,
		},
	}
}

func foe(name string, hp int, w masterdata.ActionWeights) *character.Character {
	c := combatant(name, hp)
	c.Enemy = &masterdata.Enemy{ID: 1, Name: name, Level: 1, Weights: w}
	return c
}

func newState(t *testing.T, reg *masterdata.Registry, seed uint64, players, enemies []*character.Character) *battle.State {
	t.Helper()
	s, err := battle.NewState(reg, players, enemies, dice.NewSeededSource(seed), nil)
	require.NoError(t, err)
	return s
}

func stunAll(t *testing.T, s *battle.State) {
	t.Helper()
	for _, a := range s.Actors() {
		require.NoError(t, a.Statuses.Apply(stun, 1, 0))
	}
}

func entriesWhere(s *battle.State, keep func(battle.Entry) bool) []battle.Entry {
	var out []battle.Entry
	for _, e := range s.Log().Entries() {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func TestNewState_EmptyRoster(t *testing.T) {
	_, err := battle.NewState(newRegistry(t), nil, []*character.Character{combatant("a", 10)}, dice.NewSeededSource(1), nil)
	assert.ErrorIs(t, err, battle.ErrEmptyRoster)
}

func TestTurn_BlockedActorsOnlyRunEndOfTurn(t *testing.T) {
	reg := newRegistry(t)
	s := newState(t, reg, 1, []*character.Character{combatant("hero", 100)}, []*character.Character{foe("slime", 100, masterdata.ActionWeights{Physical: 1})})
	stunAll(t, s)

	report, err := battle.NewEngine(reg).Turn(s)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Turn)
	require.Len(t, report.Entries, 2)
	for _, e := range report.Entries {
		assert.Equal(t, battle.ActionBlocked, e.Action)
		assert.Equal(t, stunStatusID, e.StatusID)
	}
}

func TestPartyHeal_AggregatedAndAppliedOnceByBestHealer(t *testing.T) {
	reg := newRegistry(t)
	strong, weak, plain := combatant("cleric", 100), combatant("acolyte", 100), combatant("knight", 100)
	strong.Effects.Periodic.PartyHealPercent = 20
	weak.Effects.Periodic.PartyHealPercent = 10
	for _, c := range []*character.Character{strong, weak, plain} {
		c.CurrentHP = 50
	}
	s := newState(t, reg, 1, []*character.Character{weak, strong, plain}, []*character.Character{foe("slime", 100, masterdata.ActionWeights{Physical: 1})})
	stunAll(t, s)

	_, err := battle.NewEngine(reg).Turn(s)
	require.NoError(t, err)

	heals := entriesWhere(s, func(e battle.Entry) bool { return e.Effect == battle.EffectHeal })
	require.Len(t, heals, 3)
	for _, e := range heals {
		assert.Equal(t, s.Players[1], e.Actor)
		assert.Equal(t, 30, e.Value)
	}
	for _, h := range s.Players {
		assert.Equal(t, 80, s.Actor(h).HP)
	}
}

func TestNecromancer_Schedule(t *testing.T) {
	reg := newRegistry(t)
	necro, dead := combatant("necromancer", 100), combatant("fallen", 100)
	necro.Effects.Resurrection.NecromancerInterval = 3
	dead.CurrentHP = 0
	s := newState(t, reg, 1, []*character.Character{necro, dead}, []*character.Character{foe("slime", 100, masterdata.ActionWeights{Physical: 1})})
	stunAll(t, s)
	e := battle.NewEngine(reg)
	target := s.Actor(s.Players[1])

	var raised []int
	for turn := 1; turn <= 8; turn++ {
		_, err := e.Turn(s)
		require.NoError(t, err)
		if target.IsAlive() {
			assert.Equal(t, 25, target.HP)
			raised = append(raised, turn)
			target.HP = 0
		}
	}
	assert.Equal(t, []int{2, 5, 8}, raised)
}

func TestEndOfTurn_PoisonRegenAndDegen(t *testing.T) {
	reg := newRegistry(t)
	regen, degen := combatant("troll", 100), combatant("ghoul", 10)
	regen.CurrentHP = 50
	regen.Effects.Periodic.SelfHPPercent = 10
	degen.Effects.Periodic.SelfHPPercent = -50
	s := newState(t, reg, 1, []*character.Character{regen, degen}, []*character.Character{foe("slime", 100, masterdata.ActionWeights{Physical: 1})})
	stunAll(t, s)
	poison := &condition.StatusDef{ID: 9, Name: "Poison", Duration: 2, PoisonPercent: 5}
	require.NoError(t, s.Actor(s.Enemies[0]).Statuses.Apply(poison, 1, 0))
	e := battle.NewEngine(reg)

	for i := 0; i < 3; i++ {
		_, err := e.Turn(s)
		require.NoError(t, err)
	}
	assert.Equal(t, 80, s.Actor(s.Players[0]).HP)
	assert.Equal(t, 1, s.Actor(s.Players[1]).HP, "degeneration never kills")
	assert.Equal(t, 90, s.Actor(s.Enemies[0]).HP, "poison lasts two turns")
	assert.Len(t, entriesWhere(s, func(e battle.Entry) bool { return e.Effect == battle.EffectStatusExpired }), 1)
}

func TestEndOfTurn_ResurrectionOncePerBattle(t *testing.T) {
	reg := newRegistry(t)
	phoenix := combatant("phoenix", 100)
	phoenix.CurrentHP = 0
	phoenix.Effects.Resurrection.EndOfTurnHPPercent = 30
	s := newState(t, reg, 1, []*character.Character{combatant("hero", 100), phoenix}, []*character.Character{foe("slime", 100, masterdata.ActionWeights{Physical: 1})})
	stunAll(t, s)
	e := battle.NewEngine(reg)
	a := s.Actor(s.Players[1])

	_, err := e.Turn(s)
	require.NoError(t, err)
	assert.Equal(t, 30, a.HP)
	a.HP = 0
	_, err = e.Turn(s)
	require.NoError(t, err)
	assert.False(t, a.IsAlive())
}

func TestScheduledBuff_AtTurn(t *testing.T) {
	reg := newRegistry(t)
	bard := combatant("bard", 100)
	bard.Effects.Periodic.ScheduledBuffs = []effect.ScheduledBuff{{
		Trigger: effect.Trigger{AtTurn: 2},
		Buff:    effect.BuffSpec{ID: 5, Duration: 3, Modifiers: effect.ModifierList{effect.AttackPercent(10)}},
		Party:   true,
	}}
	s := newState(t, reg, 1, []*character.Character{bard, combatant("hero", 100)}, []*character.Character{foe("slime", 100, masterdata.ActionWeights{Physical: 1})})
	stunAll(t, s)
	e := battle.NewEngine(reg)

	_, err := e.Turn(s)
	require.NoError(t, err)
	_, ok := s.Actor(s.Players[1]).Buff(5)
	assert.False(t, ok)

	_, err = e.Turn(s)
	require.NoError(t, err)
	for _, h := range s.Players {
		b, ok := s.Actor(h).Buff(5)
		require.True(t, ok)
		assert.Equal(t, 3, b.Remaining)
	}
	assert.Empty(t, s.Actor(s.Enemies[0]).Buffs)
}

func TestTurn_DrawAtTurnLimit(t *testing.T) {
	reg := newRegistry(t)
	s := newState(t, reg, 3, []*character.Character{combatant("hero", 100000)}, []*character.Character{foe("wall", 100000, masterdata.ActionWeights{Physical: 1})})
	e := battle.NewEngine(reg, battle.WithMaxTurns(3))

	outcome, err := e.Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, battle.Draw, outcome)
	assert.Equal(t, 3, s.Turn)

	_, err = e.Turn(s)
	assert.ErrorIs(t, err, battle.ErrBattleOver)

	entries := s.Log().Entries()
	last := entries[len(entries)-1]
	assert.Equal(t, battle.ActionOutcome, last.Action)
	assert.Equal(t, battle.EffectDraw, last.Effect)
}

func TestRun_Victory(t *testing.T) {
	reg := newRegistry(t)
	hero := combatant("hero", 1000)
	hero.Combat.PhysicalAttack = 500
	s := newState(t, reg, 9, []*character.Character{hero}, []*character.Character{foe("rat", 10, masterdata.ActionWeights{Physical: 1})})

	outcome, err := battle.NewEngine(reg).Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, battle.Victory, outcome)
	assert.NotEmpty(t, entriesWhere(s, func(e battle.Entry) bool { return e.Effect == battle.EffectDefeat }))
}

func TestRun_Cancelled(t *testing.T) {
	reg := newRegistry(t)
	s := newState(t, reg, 1, []*character.Character{combatant("hero", 100)}, []*character.Character{foe("rat", 100, masterdata.ActionWeights{Physical: 1})})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := battle.NewEngine(reg).Run(ctx, s)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, s.Turn)
}

func TestCounterAttacks_RespectDepth(t *testing.T) {
	reg := newRegistry(t)
	run := func(depth int) []battle.Entry {
		hero := combatant("duelist", 100000)
		hero.Effects.Combat.CounterChancePercent = 100
		s := newState(t, reg, 5, []*character.Character{hero}, []*character.Character{foe("brute", 100000, masterdata.ActionWeights{Physical: 1})})
		e := battle.NewEngine(reg, battle.WithMaxTurns(10), battle.WithMaxReactionDepth(depth))
		_, err := e.Run(context.Background(), s)
		require.NoError(t, err)
		return entriesWhere(s, func(e battle.Entry) bool { return e.Action == battle.ActionCounter })
	}
	assert.Empty(t, run(0))
	counters := run(battle.DefaultMaxReactionDepth)
	require.NotEmpty(t, counters)
	for _, c := range counters {
		assert.Equal(t, battle.Handle(0), c.Actor)
	}
}

func TestRetaliation_HitsKiller(t *testing.T) {
	reg := newRegistry(t)
	hero := combatant("hero", 1000)
	hero.Combat.PhysicalAttack = 500
	bomb := foe("bomb", 10, masterdata.ActionWeights{Physical: 1})
	bomb.Effects.Combat.RetaliatePercent = 50
	s := newState(t, reg, 11, []*character.Character{hero}, []*character.Character{bomb})

	_, err := battle.NewEngine(reg).Run(context.Background(), s)
	require.NoError(t, err)
	ret := entriesWhere(s, func(e battle.Entry) bool { return e.Action == battle.ActionRetaliate })
	require.Len(t, ret, 1)
	assert.Equal(t, s.Enemies[0], ret[0].Actor)
	assert.Equal(t, s.Players[0], ret[0].Target)
	assert.Equal(t, 5, ret[0].Value)
}

func TestRescue_RevivesFallenAlly(t *testing.T) {
	reg := newRegistry(t)
	frail, medic := combatant("frail", 1), combatant("medic", 10000000)
	frail.Combat.MaxHP = 100
	medic.Effects.Resurrection.RescueChancePercent = 100
	medic.Effects.Resurrection.RescueHPPercent = 50
	brute := foe("brute", 100000, masterdata.ActionWeights{Physical: 1})
	brute.Combat.PhysicalAttack = 100000
	s := newState(t, reg, 13, []*character.Character{frail, medic}, []*character.Character{brute})

	_, err := battle.NewEngine(reg, battle.WithMaxTurns(30)).Run(context.Background(), s)
	require.NoError(t, err)
	rescues := entriesWhere(s, func(e battle.Entry) bool { return e.Action == battle.ActionRescue })
	require.NotEmpty(t, rescues)
	for _, r := range rescues {
		assert.Equal(t, s.Players[1], r.Actor)
		assert.Equal(t, s.Players[0], r.Target)
		assert.Equal(t, 50, r.Value)
	}
}

func TestPriestHeal_TargetsMostWoundedAlly(t *testing.T) {
	reg := newRegistry(t)
	priest := combatant("priest", 100)
	priest.ActionRates = character.ActionRates{Priest: 1}
	priest.Spellbook = character.NewSpellbook(reg, []int{healSpellID}, 0)
	hurt := combatant("hurt", 100)
	hurt.CurrentHP = 40
	bystander := combatant("scratched", 100)
	bystander.CurrentHP = 90
	s := newState(t, reg, 2, []*character.Character{priest, hurt, bystander}, []*character.Character{foe("rat", 1000, masterdata.ActionWeights{})})
	for _, h := range []battle.Handle{s.Players[1], s.Players[2], s.Enemies[0]} {
		require.NoError(t, s.Actor(h).Statuses.Apply(stun, 1, 0))
	}

	_, err := battle.NewEngine(reg).Turn(s)
	require.NoError(t, err)
	heals := entriesWhere(s, func(e battle.Entry) bool { return e.Action == battle.ActionCast && e.Effect == battle.EffectHeal })
	require.Len(t, heals, 1)
	assert.Equal(t, s.Players[1], heals[0].Target)
	assert.Equal(t, 30, heals[0].Value)
	assert.Equal(t, 2, s.Actor(s.Players[0]).Charges[healSpellID])
}

func TestEnemySkill_DegradeUsesPerBattle(t *testing.T) {
	reg := newRegistry(t)
	rust := foe("rust monster", 1000, masterdata.ActionWeights{Special: 1})
	rust.Enemy.EnemySkillIDs = []int{degradeID}
	s := newState(t, reg, 4, []*character.Character{combatant("knight", 100)}, []*character.Character{rust})
	require.NoError(t, s.Actor(s.Players[0]).Statuses.Apply(stun, 1, 0))
	e := battle.NewEngine(reg)

	_, err := e.Turn(s)
	require.NoError(t, err)
	knight := s.Actor(s.Players[0])
	assert.Equal(t, 80, knight.MaxHP)
	assert.Equal(t, 80, knight.HP)

	report, err := e.Turn(s)
	require.NoError(t, err)
	guards := 0
	for _, en := range report.Entries {
		if en.Action == battle.ActionGuard {
			guards++
		}
	}
	assert.Equal(t, 1, guards, "exhausted skill leaves only a zero-weight fallback")
}

type fixedPolicy struct {
	category battle.Category
	calls    int
}

func (p *fixedPolicy) Choose(_ string, view battle.PolicyView) (battle.Category, bool) {
	p.calls++
	_ = view.Random(3)
	return p.category, true
}

func TestActionPolicy_OverridesScriptedActors(t *testing.T) {
	reg := newRegistry(t)
	imp := foe("imp", 1000, masterdata.ActionWeights{Physical: 1})
	imp.Enemy.Script = "cautious.lua"
	s := newState(t, reg, 6, []*character.Character{combatant("hero", 1000)}, []*character.Character{imp})
	require.NoError(t, s.Actor(s.Players[0]).Statuses.Apply(stun, 1, 0))
	policy := &fixedPolicy{category: battle.CategoryGuard}

	_, err := battle.NewEngine(reg, battle.WithPolicy(policy)).Turn(s)
	require.NoError(t, err)
	assert.Equal(t, 1, policy.calls)
	assert.Len(t, entriesWhere(s, func(e battle.Entry) bool { return e.Action == battle.ActionGuard }), 1)

	policy.category = battle.CategoryMage
	_, err = battle.NewEngine(reg, battle.WithPolicy(policy)).Turn(s)
	require.NoError(t, err)
	assert.NotEmpty(t, entriesWhere(s, func(e battle.Entry) bool { return e.Action == battle.ActionAttack }), "unavailable choice falls back to weights")
}

func TestStatus_FullResistance(t *testing.T) {
	reg := newRegistry(t)
	landed := 0
	for seed := uint64(1); seed <= 10; seed++ {
		mage := foe("witch", 1000, masterdata.ActionWeights{Mage: 1})
		mage.Spellbook = character.NewSpellbook(reg, []int{flameSpellID}, 0)
		hero := combatant("paladin", 100000)
		hero.Effects.Combat.StatusResistance = map[int]float64{sleepStatusID: 100}
		s := newState(t, reg, seed, []*character.Character{hero}, []*character.Character{mage})
		require.NoError(t, s.Actor(s.Players[0]).Statuses.Apply(stun, 1, 0))

		_, err := battle.NewEngine(reg).Turn(s)
		require.NoError(t, err)
		hits := entriesWhere(s, func(e battle.Entry) bool { return e.Action == battle.ActionCast && e.Effect == battle.EffectDamage })
		resisted := entriesWhere(s, func(e battle.Entry) bool { return e.Effect == battle.EffectStatusResisted })
		landed += len(hits)
		assert.Len(t, resisted, len(hits), "seed %d: every landed flame rolls the rider and is resisted", seed)
		assert.False(t, s.Actor(s.Players[0]).Statuses.Has(sleepStatusID))
		assert.Equal(t, 1, s.Actor(s.Enemies[0]).Charges[flameSpellID])
	}
	assert.Positive(t, landed)
}

const (
	bashSkillID   = 10
	hexSkillID    = 11
	scorchSkillID = 12
	thrashSkillID = 13
)

func registerStrikes(t *testing.T, reg *masterdata.Registry) {
	t.Helper()
	for _, sk := range []*masterdata.EnemySkill{
		{ID: bashSkillID, Name: "Bash", Kind: masterdata.KindDamage, Target: masterdata.TargetEnemy, Power: 1},
		{ID: hexSkillID, Name: "Hex", Kind: masterdata.KindDamage, Target: masterdata.TargetEnemy, School: effect.Magical, Power: 1},
		{ID: scorchSkillID, Name: "Scorch", Kind: masterdata.KindBreath, Target: masterdata.TargetEnemy, Power: 1},
		{ID: thrashSkillID, Name: "Thrash", Kind: masterdata.KindDamage, Target: masterdata.TargetRandom, Power: 1, Hits: 3},
	} {
		require.NoError(t, reg.RegisterEnemySkill(sk))
	}
}

func striker(skillID int) *character.Character {
	c := foe("brute", 1000, masterdata.ActionWeights{Special: 1})
	c.Enemy.EnemySkillIDs = []int{skillID}
	c.Combat.PhysicalAttack = 300
	c.Combat.MagicalAttack = 600
	c.Combat.BreathDamage = 900
	return c
}

func warded(name string) *character.Character {
	c := combatant(name, 100000)
	c.Effects.Combat.Barriers = map[effect.School]int{effect.Physical: 1, effect.Magical: 1, effect.Breath: 1}
	return c
}

func TestEnemySkill_SchoolSelectsFormulaAndBarrier(t *testing.T) {
	barrier := battle.Modifiers{Dealt: 1, Taken: 1, Barrier: true}
	cases := []struct {
		name    string
		skillID int
		school  effect.School
		want    int
	}{
		{name: "physical", skillID: bashSkillID, school: effect.Physical, want: battle.PhysicalDamage(300, 4, 0, barrier, 0)},
		{name: "magical", skillID: hexSkillID, school: effect.Magical, want: battle.MagicalDamage(600, 1, 4, barrier)},
		{name: "breath", skillID: scorchSkillID, school: effect.Breath, want: battle.BreathDamage(900, 1, 10, barrier)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reg := newRegistry(t)
			registerStrikes(t, reg)
			landed := false
			for seed := uint64(1); seed <= 20 && !landed; seed++ {
				s := newState(t, reg, seed, []*character.Character{warded("knight")}, []*character.Character{striker(tc.skillID)})
				require.NoError(t, s.Actor(s.Players[0]).Statuses.Apply(stun, 1, 0))
				_, err := battle.NewEngine(reg).Turn(s)
				require.NoError(t, err)

				dealt := entriesWhere(s, func(e battle.Entry) bool { return e.Action == battle.ActionSkill && e.Effect == battle.EffectDamage })
				if len(dealt) == 0 {
					continue
				}
				landed = true
				require.Len(t, dealt, 1)
				assert.Equal(t, tc.want, dealt[0].Value)

				barriers := entriesWhere(s, func(e battle.Entry) bool { return e.Effect == battle.EffectBarrier })
				require.Len(t, barriers, 1)
				assert.Less(t, barriers[0].Seq, dealt[0].Seq)
				for _, school := range effect.AllSchools {
					want := 1
					if school == tc.school {
						want = 0
					}
					assert.Equal(t, want, s.Actor(s.Players[0]).Barriers[school], "barrier %s", school)
				}
			}
			assert.True(t, landed, "no seed landed the skill")
		})
	}
}

func TestEnemySkill_EvadedHitsKeepBarriers(t *testing.T) {
	reg := newRegistry(t)
	registerStrikes(t, reg)
	for _, id := range []int{bashSkillID, hexSkillID, scorchSkillID} {
		for seed := uint64(1); seed <= 20; seed++ {
			brute := striker(id)
			brute.Combat.HitScore = 1
			knight := warded("knight")
			knight.Attributes.Agility = 200
			knight.Combat.EvasionScore = 1_000_000
			s := newState(t, reg, seed, []*character.Character{knight}, []*character.Character{brute})
			require.NoError(t, s.Actor(s.Players[0]).Statuses.Apply(stun, 1, 0))

			_, err := battle.NewEngine(reg).Turn(s)
			require.NoError(t, err)
			assert.Empty(t, entriesWhere(s, func(e battle.Entry) bool { return e.Effect == battle.EffectDamage }))
			assert.Empty(t, entriesWhere(s, func(e battle.Entry) bool { return e.Effect == battle.EffectBarrier }))
			assert.Len(t, entriesWhere(s, func(e battle.Entry) bool { return e.Action == battle.ActionSkill && e.Effect == battle.EffectMiss }), 1)
			assert.Equal(t, 100000, s.Actor(s.Players[0]).HP)
			for _, school := range effect.AllSchools {
				assert.Equal(t, 1, s.Actor(s.Players[0]).Barriers[school])
			}
		}
	}
}

func TestEnemySkill_RandomTargetDrawsPerHit(t *testing.T) {
	reg := newRegistry(t)
	registerStrikes(t, reg)
	struck := map[battle.Handle]bool{}
	for seed := uint64(1); seed <= 20; seed++ {
		party := []*character.Character{combatant("a", 100000), combatant("b", 100000), combatant("c", 100000)}
		s := newState(t, reg, seed, party, []*character.Character{striker(thrashSkillID)})
		for _, h := range s.Players {
			require.NoError(t, s.Actor(h).Statuses.Apply(stun, 1, 0))
		}
		_, err := battle.NewEngine(reg).Turn(s)
		require.NoError(t, err)

		swings := entriesWhere(s, func(e battle.Entry) bool {
			return e.Action == battle.ActionSkill && (e.Effect == battle.EffectDamage || e.Effect == battle.EffectMiss)
		})
		require.Len(t, swings, 3, "seed %d", seed)
		for _, e := range swings {
			assert.Equal(t, battle.SidePlayer, s.Actor(e.Target).Side)
			struck[e.Target] = true
		}
	}
	assert.Len(t, struck, 3, "every opponent is drawn at some point")
}

func TestEnemySkill_RandomTargetStopsWhenOpponentsFall(t *testing.T) {
	reg := newRegistry(t)
	registerStrikes(t, reg)
	for seed := uint64(1); seed <= 20; seed++ {
		s := newState(t, reg, seed, []*character.Character{combatant("squire", 1)}, []*character.Character{striker(thrashSkillID)})
		require.NoError(t, s.Actor(s.Players[0]).Statuses.Apply(stun, 1, 0))
		_, err := battle.NewEngine(reg).Turn(s)
		require.NoError(t, err)

		dealt := entriesWhere(s, func(e battle.Entry) bool { return e.Action == battle.ActionSkill && e.Effect == battle.EffectDamage })
		assert.LessOrEqual(t, len(dealt), 1, "seed %d: a fallen target is not struck again", seed)
	}
}

func TestNewState_LogsUnknownEnemySkill(t *testing.T) {
	reg := newRegistry(t)
	core, logs := observer.New(zap.DebugLevel)
	brute := foe("brute", 100, masterdata.ActionWeights{Special: 1})
	brute.Enemy.EnemySkillIDs = []int{degradeID, 999}

	s, err := battle.NewState(reg, []*character.Character{combatant("knight", 100)}, []*character.Character{brute}, dice.NewSeededSource(1), zap.New(core))
	require.NoError(t, err)
	require.Len(t, s.Actor(s.Enemies[0]).EnemySkills, 1)

	missing := logs.FilterMessage("enemy skill not found").All()
	require.Len(t, missing, 1)
	assert.Equal(t, int64(999), missing[0].ContextMap()["id"])
}

func skirmish(t require.TestingT, reg *masterdata.Registry, seed uint64) *battle.State {
	priest := combatant("priest", 300)
	priest.ActionRates = character.ActionRates{Physical: 1, Priest: 2}
	priest.Spellbook = character.NewSpellbook(reg, []int{healSpellID}, 0)
	fighter := combatant("fighter", 400)
	fighter.Combat.AttackCount = 2
	fighter.Effects.Combat.CounterChancePercent = 30
	witch := foe("witch", 300, masterdata.ActionWeights{Physical: 1, Mage: 3})
	witch.Spellbook = character.NewSpellbook(reg, []int{flameSpellID}, 0)
	ogre := foe("ogre", 500, masterdata.ActionWeights{Physical: 2, Special: 1})
	ogre.Enemy.EnemySkillIDs = []int{degradeID}
	ogre.Effects.Combat.Barriers = map[effect.School]int{effect.Physical: 2}

	s, err := battle.NewState(reg, []*character.Character{priest, fighter}, []*character.Character{witch, ogre}, dice.NewSeededSource(seed), nil)
	require.NoError(t, err)
	_, err = battle.NewEngine(reg, battle.WithMaxTurns(40)).Run(context.Background(), s)
	require.NoError(t, err)
	return s
}

func TestDeterminism_SameSeedSameLog(t *testing.T) {
	reg := newRegistry(t)
	a, b := skirmish(t, reg, 42), skirmish(t, reg, 42)
	assert.Equal(t, a.Log().Entries(), b.Log().Entries())
	assert.Equal(t, a.Outcome, b.Outcome)
}

func TestBattle_Invariants(t *testing.T) {
	reg := newRegistry(t)
	rapid.Check(t, func(rt *rapid.T) {
		s := skirmish(rt, reg, rapid.Uint64().Draw(rt, "seed"))
		assert.NotEqual(rt, battle.OutcomeNone, s.Outcome)
		for i, e := range s.Log().Entries() {
			assert.Equal(rt, i, e.Seq)
			assert.GreaterOrEqual(rt, e.Value, 0)
		}
		for _, a := range s.Actors() {
			assert.GreaterOrEqual(rt, a.HP, 0)
			assert.LessOrEqual(rt, a.HP, a.MaxHP)
			assert.LessOrEqual(rt, a.MaxHP, a.BaseMaxHP)
		}
	})
}

func TestDescribe(t *testing.T) {
	reg := newRegistry(t)
	s := newState(t, reg, 1, []*character.Character{combatant("hero", 10)}, []*character.Character{foe("rat", 10, masterdata.ActionWeights{Physical: 1})})
	line := battle.Describe(s, battle.Entry{Turn: 2, Actor: 0, Target: 1, Action: battle.ActionAttack, Effect: battle.EffectDamage, Value: 7})
	assert.Equal(t, "[turn 2] hero's attack hits rat for 7", line)
	assert.Equal(t, "[turn 1] hero cannot act (status 2)", battle.Describe(s, battle.Entry{Turn: 1, Actor: 0, Target: battle.NoHandle, Action: battle.ActionBlocked, Effect: battle.EffectNone, StatusID: 2}))
}

func TestEnemySkill_BonusDiceLogged(t *testing.T) {
	reg := newRegistry(t)
	require.NoError(t, reg.RegisterEnemySkill(&masterdata.EnemySkill{
		ID: bashSkillID, Name: "Maul", Kind: masterdata.KindDamage, Target: masterdata.TargetEnemy, Power: 1, BonusDamage: "2d6",
	}))
	core, logs := observer.New(zap.DebugLevel)
	for seed := uint64(1); seed <= 20 && logs.FilterMessage("bonus damage").Len() == 0; seed++ {
		s := newState(t, reg, seed, []*character.Character{combatant("knight", 100000)}, []*character.Character{striker(bashSkillID)})
		require.NoError(t, s.Actor(s.Players[0]).Statuses.Apply(stun, 1, 0))
		_, err := battle.NewEngine(reg, battle.WithLogger(zap.New(core))).Turn(s)
		require.NoError(t, err)
	}
	rolls := logs.FilterMessage("bonus damage").All()
	require.NotEmpty(t, rolls)
	assert.Contains(t, rolls[0].ContextMap()["roll"], "2d6 → [")
}
