package masterdata

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cory-johannsen/dungeon/internal/game/condition"
	"github.com/cory-johannsen/dungeon/internal/game/inventory"
)

// Provider resolves master-data definitions by ID.
// Implementations must be safe for concurrent reads.
type Provider interface {
	inventory.Catalog
	Race(id int) (*Race, bool)
	Job(id int) (*Job, bool)
	Personality(id int) (*Personality, bool)
	Skill(id int) (*Skill, bool)
	Spell(id int) (*Spell, bool)
	EnemySkill(id int) (*EnemySkill, bool)
	StatusEffect(id int) (*condition.StatusDef, bool)
	Enemy(id int) (*Enemy, bool)
}

// Registry is the in-memory Provider. It is populated once and read-only afterwards.
type Registry struct {
	*inventory.Registry
	statuses      *condition.Registry
	races         map[int]*Race
	jobs          map[int]*Job
	personalities map[int]*Personality
	skills        map[int]*Skill
	spells        map[int]*Spell
	enemySkills   map[int]*EnemySkill
	enemies       map[int]*Enemy
}

// NewRegistry returns an empty Registry.
//
// Postcondition: Returns a non-nil *Registry ready to accept registrations.
func NewRegistry() *Registry {
	return &Registry{
		Registry:      inventory.NewRegistry(),
		statuses:      condition.NewRegistry(),
		races:         make(map[int]*Race),
		jobs:          make(map[int]*Job),
		personalities: make(map[int]*Personality),
		skills:        make(map[int]*Skill),
		spells:        make(map[int]*Spell),
		enemySkills:   make(map[int]*EnemySkill),
		enemies:       make(map[int]*Enemy),
	}
}

func register[T any](m map[int]*T, kind string, id int, v *T) error {
	if id <= 0 {
		return fmt.Errorf("%s: id must be positive, got %d", kind, id)
	}
	if _, dup := m[id]; dup {
		return fmt.Errorf("%s %d registered twice", kind, id)
	}
	m[id] = v
	return nil
}

func lookup[T any](m map[int]*T, id int) (*T, bool) {
	v, ok := m[id]
	return v, ok
}

// RegisterRace adds r.
func (r *Registry) RegisterRace(v *Race) error { return register(r.races, "race", v.ID, v) }

// RegisterJob adds j.
func (r *Registry) RegisterJob(v *Job) error { return register(r.jobs, "job", v.ID, v) }

// RegisterPersonality adds p.
func (r *Registry) RegisterPersonality(v *Personality) error {
	return register(r.personalities, "personality", v.ID, v)
}

// RegisterSkill adds s.
func (r *Registry) RegisterSkill(v *Skill) error { return register(r.skills, "skill", v.ID, v) }

// RegisterSpell validates and adds s.
func (r *Registry) RegisterSpell(v *Spell) error {
	if err := v.Validate(); err != nil {
		return err
	}
	return register(r.spells, "spell", v.ID, v)
}

// RegisterEnemySkill validates and adds s.
func (r *Registry) RegisterEnemySkill(v *EnemySkill) error {
	if err := v.Validate(); err != nil {
		return err
	}
	return register(r.enemySkills, "enemy skill", v.ID, v)
}

// RegisterStatus validates and adds d.
func (r *Registry) RegisterStatus(v *condition.StatusDef) error { return r.statuses.Register(v) }

// RegisterEnemy validates and adds e.
func (r *Registry) RegisterEnemy(v *Enemy) error {
	if err := v.Validate(); err != nil {
		return err
	}
	return register(r.enemies, "enemy", v.ID, v)
}

// Race implements Provider.
func (r *Registry) Race(id int) (*Race, bool) { return lookup(r.races, id) }

// Job implements Provider.
func (r *Registry) Job(id int) (*Job, bool) { return lookup(r.jobs, id) }

// Personality implements Provider.
func (r *Registry) Personality(id int) (*Personality, bool) { return lookup(r.personalities, id) }

// Skill implements Provider.
func (r *Registry) Skill(id int) (*Skill, bool) { return lookup(r.skills, id) }

// Spell implements Provider.
func (r *Registry) Spell(id int) (*Spell, bool) { return lookup(r.spells, id) }

// EnemySkill implements Provider.
func (r *Registry) EnemySkill(id int) (*EnemySkill, bool) { return lookup(r.enemySkills, id) }

// StatusEffect implements Provider.
func (r *Registry) StatusEffect(id int) (*condition.StatusDef, bool) { return r.statuses.Get(id) }

// Enemy implements Provider.
func (r *Registry) Enemy(id int) (*Enemy, bool) { return lookup(r.enemies, id) }

// Enemies returns every enemy ordered by ID.
func (r *Registry) Enemies() []*Enemy {
	out := make([]*Enemy, 0, len(r.enemies))
	for _, e := range r.enemies {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CheckReferences reports every dangling cross reference.
// The engine tolerates most of them, so callers usually log the result instead of failing.
//
// Postcondition: Returns nil when every reference resolves.
func (r *Registry) CheckReferences() error {
	var errs []error
	skill := func(owner string, id int) {
		if _, ok := r.skills[id]; !ok {
			errs = append(errs, fmt.Errorf("%s: unknown skill %d", owner, id))
		}
	}
	for _, race := range r.races {
		owner := fmt.Sprintf("race %d", race.ID)
		for _, id := range race.PassiveSkillIDs {
			skill(owner, id)
		}
		for _, u := range race.SkillUnlocks {
			skill(owner, u.ID)
		}
	}
	for _, job := range r.jobs {
		owner := fmt.Sprintf("job %d", job.ID)
		for _, id := range job.PassiveSkillIDs {
			skill(owner, id)
		}
		for _, u := range job.SkillUnlocks {
			skill(owner, u.ID)
		}
		for _, u := range job.SpellUnlocks {
			if _, ok := r.spells[u.ID]; !ok {
				errs = append(errs, fmt.Errorf("%s: unknown spell %d", owner, u.ID))
			}
		}
	}
	for _, e := range r.Enemies() {
		owner := fmt.Sprintf("enemy %d", e.ID)
		if _, ok := r.jobs[e.JobID]; !ok {
			errs = append(errs, fmt.Errorf("%s: unknown job %d", owner, e.JobID))
		}
		if _, ok := r.races[e.RaceID]; e.RaceID != 0 && !ok {
			errs = append(errs, fmt.Errorf("%s: unknown race %d", owner, e.RaceID))
		}
		for _, id := range e.SkillIDs {
			skill(owner, id)
		}
		for _, id := range e.EnemySkillIDs {
			if _, ok := r.enemySkills[id]; !ok {
				errs = append(errs, fmt.Errorf("%s: unknown enemy skill %d", owner, id))
			}
		}
	}
	for _, s := range r.spells {
		if _, ok := r.statuses.Get(s.StatusID); s.StatusID != 0 && !ok {
			errs = append(errs, fmt.Errorf("spell %d: unknown status %d", s.ID, s.StatusID))
		}
	}
	return errors.Join(errs...)
}
