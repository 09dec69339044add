package masterdata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/dungeon/internal/game/condition"
	"github.com/cory-johannsen/dungeon/internal/game/inventory"
)

// Content is the on-disk shape of a master-data file. Any file may carry any subset of sections.
type Content struct {
	Races           []*Race                        `yaml:"races"`
	Jobs            []*Job                         `yaml:"jobs"`
	Personalities   []*Personality                 `yaml:"personalities"`
	Items           []*inventory.ItemDef           `yaml:"items"`
	Titles          []*inventory.TitleDef          `yaml:"titles"`
	SuperRareTitles []*inventory.SuperRareTitleDef `yaml:"super_rare_titles"`
	Skills          []*Skill                       `yaml:"skills"`
	Spells          []*Spell                       `yaml:"spells"`
	EnemySkills     []*EnemySkill                  `yaml:"enemy_skills"`
	Statuses        []*condition.StatusDef         `yaml:"statuses"`
	Enemies         []*Enemy                       `yaml:"enemies"`
}

// Decode parses one YAML document into a Content, rejecting unknown fields.
//
// Postcondition: Returns the parsed content or a non-nil error.
func Decode(r io.Reader) (*Content, error) {
	var c Content
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &c, nil
}

// Add registers every definition in c.
//
// Postcondition: Returns the first registration error, wrapped with its section.
func (r *Registry) Add(c *Content) error {
	steps := []func() error{
		func() error { return each(c.Races, r.RegisterRace) },
		func() error { return each(c.Jobs, r.RegisterJob) },
		func() error { return each(c.Personalities, r.RegisterPersonality) },
		func() error { return each(c.Items, r.RegisterItem) },
		func() error { return each(c.Titles, r.RegisterTitle) },
		func() error { return each(c.SuperRareTitles, r.RegisterSuperRareTitle) },
		func() error { return each(c.Skills, r.RegisterSkill) },
		func() error { return each(c.Spells, r.RegisterSpell) },
		func() error { return each(c.EnemySkills, r.RegisterEnemySkill) },
		func() error { return each(c.Statuses, r.RegisterStatus) },
		func() error { return each(c.Enemies, r.RegisterEnemy) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func each[T any](vs []*T, fn func(*T) error) error {
	for _, v := range vs {
		if v == nil {
			continue
		}
		if err := fn(v); err != nil {
			return err
		}
	}
	return nil
}

// LoadDirectory reads every *.yaml file in dir (sorted by name) into a new Registry.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a populated Registry or an error naming the offending file.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading content dir %q: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	reg := NewRegistry()
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		c, err := Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := reg.Add(c); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return reg, nil
}
