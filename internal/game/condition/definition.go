package condition

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// StatusDef is the static definition of a battle status effect, loaded from YAML.
type StatusDef struct {
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Duration is the default number of turns; 0 lasts until removed.
	Duration  int `yaml:"duration"`
	MaxStacks int `yaml:"max_stacks"` // 0 = unstackable
	// BlocksAction skips the holder's action (stun, paralysis, sleep).
	BlocksAction bool `yaml:"blocks_action"`
	// Silences forbids spell casting.
	Silences bool `yaml:"silences"`
	// BreaksOnDamage removes the status when the holder takes damage.
	BreaksOnDamage bool `yaml:"breaks_on_damage"`
	// PoisonPercent is the share of max HP lost per stack at end of turn.
	PoisonPercent float64 `yaml:"poison_percent"`
}

// Validate reports definition errors.
func (d *StatusDef) Validate() error {
	switch {
	case d.ID <= 0:
		return fmt.Errorf("status %q: id must be positive", d.Name)
	case d.Name == "":
		return fmt.Errorf("status %d: name must be non-empty", d.ID)
	case d.Duration < 0 || d.MaxStacks < 0 || d.PoisonPercent < 0:
		return fmt.Errorf("status %d: duration, max_stacks and poison_percent must be >= 0", d.ID)
	}
	return nil
}

// Registry holds all known StatusDefs keyed by ID.
type Registry struct {
	defs map[int]*StatusDef
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[int]*StatusDef)}
}

// Register adds def to the registry.
//
// Precondition: def must not be nil.
// Postcondition: Returns an error if def is invalid or its ID is already registered.
func (r *Registry) Register(def *StatusDef) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if _, dup := r.defs[def.ID]; dup {
		return fmt.Errorf("status %d registered twice", def.ID)
	}
	r.defs[def.ID] = def
	return nil
}

// Get returns the StatusDef for id, or (nil, false) if not found.
func (r *Registry) Get(id int) (*StatusDef, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns all registered StatusDefs ordered by ID.
func (r *Registry) All() []*StatusDef {
	out := make([]*StatusDef, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadDirectory reads every *.yaml file in dir. Each file holds a list of StatusDefs.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error if any file fails to parse or validate.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading status dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var defs []*StatusDef
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&defs); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		for _, def := range defs {
			if err := reg.Register(def); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
	}
	return reg, nil
}
