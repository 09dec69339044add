package character

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/calc"
	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/effect"
	"github.com/cory-johannsen/dungeon/internal/game/formula"
	"github.com/cory-johannsen/dungeon/internal/game/inventory"
	"github.com/cory-johannsen/dungeon/internal/game/masterdata"
	"github.com/cory-johannsen/dungeon/internal/game/stat"
)

// Factory compiles records into Characters. It holds no mutable state and is
// safe for concurrent use when its Provider and random source are.
type Factory struct {
	provider masterdata.Provider
	compiler effect.Compiler
	random   dice.Source
	logger   *zap.Logger
}

// Option configures a Factory.
type Option func(*Factory)

// WithCompiler replaces the default effect.MergeCompiler.
func WithCompiler(c effect.Compiler) Option { return func(f *Factory) { f.compiler = c } }

// WithRandom enables chance-gated revival on load.
func WithRandom(src dice.Source) Option { return func(f *Factory) { f.random = src } }

// WithLogger sets the logger used for skipped definitions.
func WithLogger(l *zap.Logger) Option { return func(f *Factory) { f.logger = l } }

// NewFactory returns a Factory resolving definitions through p.
//
// Precondition: p must not be nil.
func NewFactory(p masterdata.Provider, opts ...Option) *Factory {
	f := &Factory{provider: p, compiler: effect.MergeCompiler{}, logger: zap.NewNop()}
	for _, o := range opts {
		o(f)
	}
	if f.logger == nil {
		f.logger = zap.NewNop()
	}
	return f
}

// resolved holds the master-data references of a build.
type resolved struct {
	race          *masterdata.Race
	category      formula.RaceCategory
	base          stat.CoreAttributes
	job           *masterdata.Job
	previousJob   *masterdata.Job
	personalities []*masterdata.Personality
	enemy         *masterdata.Enemy
}

// Build compiles rec from scratch.
//
// Postcondition: Returns a *ConfigError wrapping ErrRaceNotFound, ErrJobNotFound,
// ErrPreviousJobNotFound, ErrItemNotFound or ErrEquipmentOverCapacity, or a Character
// whose CurrentHP is capped to its max HP. A fallen character with a between-floors
// revival effect is revived with 1 HP.
func (f *Factory) Build(rec Record) (*Character, error) {
	race, ok := f.provider.Race(rec.RaceID)
	if !ok {
		return nil, &ConfigError{Op: "build", Err: fmt.Errorf("race %d: %w", rec.RaceID, ErrRaceNotFound)}
	}
	job, ok := f.provider.Job(rec.JobID)
	if !ok {
		return nil, &ConfigError{Op: "build", Err: fmt.Errorf("job %d: %w", rec.JobID, ErrJobNotFound)}
	}
	r := resolved{race: race, category: race.Category, base: race.BaseAttributes, job: job}
	if rec.PreviousJobID != 0 {
		prev, ok := f.provider.Job(rec.PreviousJobID)
		if !ok {
			return nil, &ConfigError{Op: "build", Err: fmt.Errorf("job %d: %w", rec.PreviousJobID, ErrPreviousJobNotFound)}
		}
		r.previousJob = prev
	}
	for _, id := range []int{rec.PrimaryPersonalityID, rec.SecondaryPersonalityID} {
		if id == 0 {
			continue
		}
		if p, ok := f.provider.Personality(id); ok {
			r.personalities = append(r.personalities, p)
		} else {
			f.logger.Debug("personality not found", zap.Int("personality", id), zap.String("character", rec.Name))
		}
	}

	c, err := f.assemble(rec, r)
	if err != nil {
		return nil, err
	}
	if c.CurrentHP <= 0 && f.revivesBetweenFloors(c.Effects.Resurrection) {
		f.logger.Debug("revived between floors", zap.String("character", rec.Name))
		c.CurrentHP = 1
	}
	return c, nil
}

// RebuildForEquipment recompiles existing with new equipment, reusing its resolved
// race, jobs and personalities. It never revives.
//
// Precondition: existing must come from Build.
// Postcondition: Rebuilding with existing.Equipment yields an equal Character.
func (f *Factory) RebuildForEquipment(existing *Character, stacks []inventory.Stack) (*Character, error) {
	rec := existing.Record
	rec.Equipment = append([]inventory.Stack(nil), stacks...)
	r := resolved{
		race:          existing.Race,
		job:           existing.Job,
		previousJob:   existing.PreviousJob,
		personalities: existing.Personalities,
		enemy:         existing.Enemy,
	}
	switch {
	case existing.Enemy != nil:
		r.base = existing.Enemy.BaseAttributes
		if existing.Race != nil {
			r.category = existing.Race.Category
		}
	default:
		r.base = existing.Race.BaseAttributes
		r.category = existing.Race.Category
	}
	return f.assemble(rec, r)
}

// BuildEnemy compiles an enemy definition through the character pipeline.
// The enemy's own base attributes replace its race's.
//
// Precondition: e must not be nil.
// Postcondition: The enemy starts at full HP.
func (f *Factory) BuildEnemy(e *masterdata.Enemy) (*Character, error) {
	job, ok := f.provider.Job(e.JobID)
	if !ok {
		return nil, &ConfigError{Op: "build enemy", Err: fmt.Errorf("enemy %d: job %d: %w", e.ID, e.JobID, ErrJobNotFound)}
	}
	r := resolved{base: e.BaseAttributes, job: job, enemy: e}
	if e.RaceID != 0 {
		race, ok := f.provider.Race(e.RaceID)
		if !ok {
			return nil, &ConfigError{Op: "build enemy", Err: fmt.Errorf("enemy %d: race %d: %w", e.ID, e.RaceID, ErrRaceNotFound)}
		}
		r.race = race
		r.category = race.Category
	}
	rec := Record{
		Name:      e.Name,
		RaceID:    e.RaceID,
		JobID:     e.JobID,
		Level:     e.Level,
		Equipment: append([]inventory.Stack(nil), e.Equipment...),
	}
	c, err := f.assemble(rec, r)
	if err != nil {
		return nil, err
	}
	c.CurrentHP = c.Combat.MaxHP
	return c, nil
}

func (f *Factory) assemble(rec Record, r resolved) (*Character, error) {
	loadout, err := inventory.BuildLoadout(rec.Equipment, f.provider)
	if err != nil {
		return nil, &ConfigError{Op: "equipment", Err: err}
	}

	skills := f.resolveSkills(f.skillIDs(rec.Level, r, loadout))
	bundles := make([]effect.Bundle, len(skills))
	for i, s := range skills {
		bundles[i] = s.Effects
	}
	fx, err := f.compiler.Compile(bundles)
	if err != nil {
		return nil, &ConfigError{Op: "effects", Err: err}
	}

	capacity := formula.EquipmentCapacity(rec.Level, fx.Slots.EffectiveMultiplier(), fx.Slots.Additive)
	if used := loadout.UsedSlots(); used > capacity {
		return nil, &ConfigError{Op: "equipment", Err: fmt.Errorf("%d slots used of %d: %w", used, capacity, ErrEquipmentOverCapacity)}
	}

	spellIDs := masterdata.UnlockedAt(r.job.SpellUnlocks, rec.Level)
	if r.enemy != nil {
		spellIDs = append(spellIDs, r.enemy.SpellIDs...)
	}
	spellIDs = append(spellIDs, fx.Spells.Granted...)

	martial := r.job.MartialEligible || !loadout.GrantsPositive(stat.PhysicalAttack)
	res, err := calc.Calculator{}.Calculate(calc.Context{
		Category:        r.category,
		BaseAttributes:  r.base,
		Level:           rec.Level,
		Job:             r.job,
		Personalities:   r.personalities,
		Loadout:         loadout,
		Effects:         fx,
		MartialEligible: martial,
		CurrentHP:       rec.CurrentHP,
	})
	if err != nil {
		var cfg *calc.ConfigError
		if errors.As(err, &cfg) {
			return nil, &ConfigError{Op: "stats", Err: err}
		}
		return nil, err
	}
	if !r.job.MartialEligible && res.Combat.PhysicalAttack <= 0 {
		res.Combat.IsMartialEligible = false
	}

	rec.CurrentHP = res.HitPoints.Current
	return &Character{
		Record:        rec,
		Race:          r.race,
		Job:           r.job,
		PreviousJob:   r.previousJob,
		Personalities: r.personalities,
		Skills:        skills,
		Loadout:       loadout,
		Spellbook:     NewSpellbook(f.provider, spellIDs, fx.Spells.ChargeBonus),
		Effects:       fx,
		Attributes:    res.Attributes,
		Combat:        res.Combat,
		Capacity:      capacity,
		Enemy:         r.enemy,
	}, nil
}

// skillIDs lists skill sources in priority order: previous-job passives, job passives,
// race passives, job level unlocks, race level unlocks, enemy skills, item grants,
// super-rare title grants.
func (f *Factory) skillIDs(level int, r resolved, l *inventory.Loadout) []int {
	var ids []int
	if r.previousJob != nil {
		ids = append(ids, r.previousJob.PassiveSkillIDs...)
	}
	ids = append(ids, r.job.PassiveSkillIDs...)
	if r.race != nil {
		ids = append(ids, r.race.PassiveSkillIDs...)
	}
	ids = append(ids, masterdata.UnlockedAt(r.job.SkillUnlocks, level)...)
	if r.race != nil {
		ids = append(ids, masterdata.UnlockedAt(r.race.SkillUnlocks, level)...)
	}
	if r.enemy != nil {
		ids = append(ids, r.enemy.SkillIDs...)
	}
	return append(ids, l.GrantedSkillIDs()...)
}

// resolveSkills deduplicates ids in first-seen order and drops unknown ids.
func (f *Factory) resolveSkills(ids []int) []*masterdata.Skill {
	seen := make(map[int]bool, len(ids))
	var out []*masterdata.Skill
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		s, ok := f.provider.Skill(id)
		if !ok {
			f.logger.Debug("skill not found", zap.Int("skill", id))
			continue
		}
		out = append(out, s)
	}
	return out
}

func (f *Factory) revivesBetweenFloors(r effect.Resurrection) bool {
	if !r.BetweenFloors {
		return false
	}
	if r.BetweenFloorsChancePercent <= 0 {
		return true
	}
	if f.random == nil {
		return false
	}
	return f.random.Intn(100) < r.BetweenFloorsChancePercent
}
