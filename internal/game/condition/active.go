package condition

import (
	"fmt"
	"sort"
)

// Active tracks one applied status on an actor.
type Active struct {
	Def       *StatusDef
	Stacks    int
	Remaining int // -1 = until removed
}

// ActiveSet tracks all statuses currently applied to one actor.
// Iteration is always in ascending status ID so battle logs stay reproducible.
// It is not safe for concurrent use; the caller must serialise access.
type ActiveSet struct {
	statuses map[int]*Active
}

// NewActiveSet creates an empty ActiveSet.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{statuses: make(map[int]*Active)}
}

// Apply adds or refreshes a status.
// A duration <= 0 uses def.Duration, and a def.Duration of 0 means "until removed".
//
// Precondition: def must not be nil.
// Postcondition: Has(def.ID) is true; stacks are incremented on re-apply (capped at MaxStacks);
// Remaining is updated to max(existing, duration) on re-apply.
func (s *ActiveSet) Apply(def *StatusDef, stacks, duration int) error {
	if def == nil {
		return fmt.Errorf("Apply: def must not be nil")
	}
	if duration <= 0 {
		duration = def.Duration
	}
	if duration <= 0 {
		duration = -1
	}
	if stacks < 1 || def.MaxStacks == 0 {
		stacks = 1
	}

	if existing, ok := s.statuses[def.ID]; ok {
		if def.MaxStacks > 0 {
			existing.Stacks = min(existing.Stacks+stacks, def.MaxStacks)
		}
		if existing.Remaining >= 0 && (duration < 0 || duration > existing.Remaining) {
			existing.Remaining = duration
		}
		return nil
	}
	if def.MaxStacks > 0 {
		stacks = min(stacks, def.MaxStacks)
	}
	s.statuses[def.ID] = &Active{Def: def, Stacks: stacks, Remaining: duration}
	return nil
}

// Remove deletes the status with the given ID. Removing an absent status is a no-op.
//
// Postcondition: Has(id) is false.
func (s *ActiveSet) Remove(id int) {
	delete(s.statuses, id)
}

// Clear removes every status.
func (s *ActiveSet) Clear() {
	clear(s.statuses)
}

// Tick decrements Remaining of every timed status and removes those that reach 0.
//
// Postcondition: Returns the expired IDs in ascending order; Has(id) is false for each.
func (s *ActiveSet) Tick() []int {
	var expired []int
	for _, a := range s.All() {
		if a.Remaining < 0 {
			continue
		}
		a.Remaining--
		if a.Remaining <= 0 {
			expired = append(expired, a.Def.ID)
			delete(s.statuses, a.Def.ID)
		}
	}
	return expired
}

// Has reports whether the status with id is currently active.
func (s *ActiveSet) Has(id int) bool {
	_, ok := s.statuses[id]
	return ok
}

// Stacks returns the current stack count for status id, or 0 if not present.
func (s *ActiveSet) Stacks(id int) int {
	if a, ok := s.statuses[id]; ok {
		return a.Stacks
	}
	return 0
}

// Len returns the number of active statuses.
func (s *ActiveSet) Len() int { return len(s.statuses) }

// All returns the active statuses ordered by ID.
// The pointed-to values are shared; callers must not modify them.
func (s *ActiveSet) All() []*Active {
	out := make([]*Active, 0, len(s.statuses))
	for _, a := range s.statuses {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Def.ID < out[j].Def.ID })
	return out
}
