// Package battle runs deterministic turn-based battles between a player party
// and an enemy roster, recording every state change in an append-only log.
package battle

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/masterdata"
)

// Engine defaults.
const (
	DefaultMaxTurns         = 50
	DefaultMaxReactionDepth = 3
)

// ErrBattleOver is returned by Turn once an outcome is decided.
var ErrBattleOver = errors.New("battle: outcome already decided")

// TurnReport summarises one turn.
type TurnReport struct {
	Turn    int
	Entries []Entry
	Outcome Outcome
}

// Engine resolves turns. It holds no battle state and is safe for concurrent use
// when its Provider and ActionPolicy are.
type Engine struct {
	provider         masterdata.Provider
	logger           *zap.Logger
	policy           ActionPolicy
	maxTurns         int
	maxReactionDepth int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithPolicy installs an action policy for actors that name a script.
func WithPolicy(p ActionPolicy) EngineOption { return func(e *Engine) { e.policy = p } }

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) EngineOption { return func(e *Engine) { e.logger = l } }

// WithMaxTurns sets the turn limit after which the battle is a draw.
func WithMaxTurns(n int) EngineOption { return func(e *Engine) { e.maxTurns = n } }

// WithMaxReactionDepth bounds chains of counter-attacks and other reactions.
func WithMaxReactionDepth(n int) EngineOption { return func(e *Engine) { e.maxReactionDepth = n } }

// NewEngine creates an Engine resolving status definitions through p.
//
// Precondition: p must not be nil.
func NewEngine(p masterdata.Provider, opts ...EngineOption) *Engine {
	e := &Engine{provider: p, maxTurns: DefaultMaxTurns, maxReactionDepth: DefaultMaxReactionDepth}
	for _, o := range opts {
		o(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.maxTurns <= 0 {
		e.maxTurns = DefaultMaxTurns
	}
	if e.maxReactionDepth < 0 {
		e.maxReactionDepth = 0
	}
	return e
}

// Turn resolves one full turn: every living actor acts in initiative order, then
// the end-of-turn phase runs.
//
// Precondition: s must come from NewState.
// Postcondition: Returns ErrBattleOver if s already has an outcome; otherwise the
// entries appended during the turn and the outcome, if decided.
func (e *Engine) Turn(s *State) (TurnReport, error) {
	if s.Outcome != OutcomeNone {
		return TurnReport{Turn: s.Turn, Outcome: s.Outcome}, ErrBattleOver
	}
	s.Turn++
	start := s.log.Len()
	e.logger.Debug("turn start", zap.Int("turn", s.Turn))

	for _, a := range e.initiative(s) {
		if s.decide() != OutcomeNone {
			break
		}
		if !a.IsAlive() {
			continue
		}
		e.act(s, a)
		e.drainReactions(s)
	}
	e.endOfTurn(s)

	outcome := s.decide()
	if outcome == OutcomeNone && s.Turn >= e.maxTurns {
		outcome = Draw
	}
	if outcome != OutcomeNone {
		s.Outcome = outcome
		s.record(Entry{Actor: NoHandle, Target: NoHandle, Action: ActionOutcome, Effect: outcomeEffect(outcome)})
		e.logger.Debug("battle decided", zap.Int("turn", s.Turn), zap.Stringer("outcome", outcome))
	}
	return TurnReport{Turn: s.Turn, Entries: s.log.Since(start), Outcome: outcome}, nil
}

// Run resolves turns until an outcome is decided. ctx is checked between turns only.
//
// Postcondition: Returns the outcome, or ctx.Err() if cancelled first.
func (e *Engine) Run(ctx context.Context, s *State) (Outcome, error) {
	for s.Outcome == OutcomeNone {
		if err := ctx.Err(); err != nil {
			return OutcomeNone, err
		}
		if _, err := e.Turn(s); err != nil {
			return OutcomeNone, err
		}
	}
	return s.Outcome, nil
}

func outcomeEffect(o Outcome) Effect {
	switch o {
	case Victory:
		return EffectVictory
	case Defeat:
		return EffectDefeated
	default:
		return EffectDraw
	}
}

// initiative rolls agility + Intn(agility/4 + 5) for every living actor.
// Ties go to players, then to the lower handle.
func (e *Engine) initiative(s *State) []*Actor {
	var order []*Actor
	for _, a := range s.actors {
		if !a.IsAlive() {
			continue
		}
		agi := a.Attributes.Agility
		a.Initiative = agi + s.roller.Intn("initiative", agi/initiativeDivisor+initiativeBaseSpread)
		order = append(order, a)
	}
	sort.SliceStable(order, func(i, j int) bool {
		x, y := order[i], order[j]
		if x.Initiative != y.Initiative {
			return x.Initiative > y.Initiative
		}
		if x.Side != y.Side {
			return x.Side < y.Side
		}
		return x.Handle < y.Handle
	})
	return order
}

// opponents returns the actors a attacks. Party-hostile actors strike their own side
// while anyone else is standing there.
func (e *Engine) opponents(s *State, a *Actor) []*Actor {
	if a.Effects.Combat.AttacksAllies {
		var others []*Actor
		for _, x := range s.Living(a.Side) {
			if x != a {
				others = append(others, x)
			}
		}
		if len(others) > 0 {
			return others
		}
	}
	return s.Living(a.Side.Opponent())
}
