package inventory

import (
	"fmt"
	"sort"
)

// Catalog resolves equipment master data by id.
//
// Lookups of id 0 or unknown ids return (nil, false); that is a normal outcome.
type Catalog interface {
	Item(id int) (*ItemDef, bool)
	Title(id int) (*TitleDef, bool)
	SuperRareTitle(id int) (*SuperRareTitleDef, bool)
}

// Registry holds all loaded item and title definitions indexed by ID.
type Registry struct {
	items      map[int]*ItemDef
	titles     map[int]*TitleDef
	superRares map[int]*SuperRareTitleDef
}

// NewRegistry returns an empty Registry.
//
// Postcondition: all internal maps are initialised.
func NewRegistry() *Registry {
	return &Registry{
		items:      make(map[int]*ItemDef),
		titles:     make(map[int]*TitleDef),
		superRares: make(map[int]*SuperRareTitleDef),
	}
}

// RegisterItem adds d to the registry.
//
// Precondition:  d must not be nil.
// Postcondition: Item(d.ID) returns (d, true); returns error if d is invalid or d.ID already registered.
func (r *Registry) RegisterItem(d *ItemDef) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if _, exists := r.items[d.ID]; exists {
		return fmt.Errorf("inventory: Registry.RegisterItem: item ID %d already registered", d.ID)
	}
	r.items[d.ID] = d
	return nil
}

// RegisterTitle adds t to the registry.
//
// Precondition:  t must not be nil and t.ID > 0.
// Postcondition: Title(t.ID) returns (t, true); returns error if t.ID already registered.
func (r *Registry) RegisterTitle(t *TitleDef) error {
	if t.ID <= 0 {
		return fmt.Errorf("inventory: Registry.RegisterTitle: title ID must be > 0, got %d", t.ID)
	}
	if _, exists := r.titles[t.ID]; exists {
		return fmt.Errorf("inventory: Registry.RegisterTitle: title ID %d already registered", t.ID)
	}
	r.titles[t.ID] = t
	return nil
}

// RegisterSuperRareTitle adds t to the registry.
//
// Precondition:  t must not be nil and t.ID > 0.
// Postcondition: SuperRareTitle(t.ID) returns (t, true); returns error if t.ID already registered.
func (r *Registry) RegisterSuperRareTitle(t *SuperRareTitleDef) error {
	if t.ID <= 0 {
		return fmt.Errorf("inventory: Registry.RegisterSuperRareTitle: title ID must be > 0, got %d", t.ID)
	}
	if _, exists := r.superRares[t.ID]; exists {
		return fmt.Errorf("inventory: Registry.RegisterSuperRareTitle: title ID %d already registered", t.ID)
	}
	r.superRares[t.ID] = t
	return nil
}

// Item returns the ItemDef for the given id and whether it was found.
func (r *Registry) Item(id int) (*ItemDef, bool) {
	d, ok := r.items[id]
	return d, ok
}

// Title returns the TitleDef for the given id and whether it was found.
func (r *Registry) Title(id int) (*TitleDef, bool) {
	t, ok := r.titles[id]
	return t, ok
}

// SuperRareTitle returns the SuperRareTitleDef for the given id and whether it was found.
func (r *Registry) SuperRareTitle(id int) (*SuperRareTitleDef, bool) {
	t, ok := r.superRares[id]
	return t, ok
}

// AllItems returns all registered ItemDefs ordered by ID.
//
// Postcondition: len(result) == number of registered items.
func (r *Registry) AllItems() []*ItemDef {
	out := make([]*ItemDef, 0, len(r.items))
	for _, d := range r.items {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
