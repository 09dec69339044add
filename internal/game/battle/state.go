package battle

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/character"
	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/masterdata"
)

// Outcome is the result of a battle.
type Outcome int

// Outcome constants.
const (
	OutcomeNone Outcome = iota
	Victory
	Defeat
	Draw
)

// String returns a human-readable outcome label.
func (o Outcome) String() string {
	switch o {
	case Victory:
		return "victory"
	case Defeat:
		return "defeat"
	case Draw:
		return "draw"
	default:
		return "undecided"
	}
}

// ErrEmptyRoster is returned when either side has no actors.
var ErrEmptyRoster = errors.New("battle: roster is empty")

// State is the live state of one battle. It is not safe for concurrent use.
type State struct {
	Turn    int
	Outcome Outcome
	// Players and Enemies hold the rosters in formation order.
	Players []Handle
	Enemies []Handle

	actors    []*Actor
	roller    *dice.Roller
	log       Log
	reactions []reaction
}

// NewState places players and enemies in a fresh arena.
// Fallen players enter the battle fallen.
//
// Precondition: both rosters must be non-empty; src must be non-nil.
// Postcondition: Handles are assigned in order, players first.
func NewState(p masterdata.Provider, players, enemies []*character.Character, src dice.Source, logger *zap.Logger) (*State, error) {
	if len(players) == 0 || len(enemies) == 0 {
		return nil, ErrEmptyRoster
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &State{roller: dice.NewLoggedRoller(src, logger)}
	add := func(side Side, c *character.Character) (Handle, error) {
		if c == nil {
			return NoHandle, fmt.Errorf("battle: nil %s character", side)
		}
		h := Handle(len(s.actors))
		s.actors = append(s.actors, newActor(h, side, c, p, logger))
		return h, nil
	}
	for _, c := range players {
		h, err := add(SidePlayer, c)
		if err != nil {
			return nil, err
		}
		s.Players = append(s.Players, h)
	}
	for _, c := range enemies {
		h, err := add(SideEnemy, c)
		if err != nil {
			return nil, err
		}
		s.Enemies = append(s.Enemies, h)
	}
	return s, nil
}

// Actor returns the actor stored at h, or nil.
func (s *State) Actor(h Handle) *Actor {
	if h < 0 || int(h) >= len(s.actors) {
		return nil
	}
	return s.actors[h]
}

// Actors returns every actor in handle order.
func (s *State) Actors() []*Actor {
	return append([]*Actor(nil), s.actors...)
}

// Log returns the battle log.
func (s *State) Log() *Log { return &s.log }

// Roster returns the handles of side in formation order.
func (s *State) Roster(side Side) []Handle {
	if side == SidePlayer {
		return s.Players
	}
	return s.Enemies
}

// Living returns the living actors of side in formation order.
func (s *State) Living(side Side) []*Actor {
	var out []*Actor
	for _, h := range s.Roster(side) {
		if a := s.actors[h]; a.IsAlive() {
			out = append(out, a)
		}
	}
	return out
}

// Fallen returns the defeated actors of side in formation order.
func (s *State) Fallen(side Side) []*Actor {
	var out []*Actor
	for _, h := range s.Roster(side) {
		if a := s.actors[h]; !a.IsAlive() {
			out = append(out, a)
		}
	}
	return out
}

// Name returns the name of h, or "" for NoHandle.
func (s *State) Name(h Handle) string {
	if a := s.Actor(h); a != nil {
		return a.Name
	}
	return ""
}

func (s *State) record(e Entry) Entry {
	e.Turn = s.Turn
	return s.log.Append(e)
}

func (s *State) decide() Outcome {
	players, enemies := len(s.Living(SidePlayer)), len(s.Living(SideEnemy))
	switch {
	case players == 0:
		return Defeat
	case enemies == 0:
		return Victory
	default:
		return OutcomeNone
	}
}

// pick returns a random element of actors.
func (s *State) pick(label string, actors []*Actor) *Actor {
	if len(actors) == 0 {
		return nil
	}
	return actors[s.roller.Intn(label, len(actors))]
}
