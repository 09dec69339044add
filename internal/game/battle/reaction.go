package battle

import "github.com/cory-johannsen/dungeon/internal/game/condition"

// reaction is a deferred response to an event. Reactions run depth-first: the most
// recently queued one resolves first.
type reaction struct {
	action Action
	actor  Handle
	target Handle
	depth  int
}

// enqueue queues r unless it would exceed the reaction depth bound.
func (e *Engine) enqueue(s *State, r reaction) bool {
	if r.depth > e.maxReactionDepth {
		return false
	}
	s.reactions = append(s.reactions, r)
	return true
}

// drainReactions resolves queued reactions until none remain.
func (e *Engine) drainReactions(s *State) {
	for n := len(s.reactions); n > 0; n = len(s.reactions) {
		r := s.reactions[n-1]
		s.reactions = s.reactions[:n-1]
		e.react(s, r)
	}
}

func (e *Engine) react(s *State, r reaction) {
	actor, target := s.Actor(r.actor), s.Actor(r.target)
	if actor == nil || target == nil {
		return
	}
	switch r.action {
	case ActionCounter, ActionFollowUp:
		if !actor.IsAlive() || !target.IsAlive() || condition.BlocksAction(actor.Statuses) != 0 {
			return
		}
		pct := actor.Effects.Combat.CounterChancePercent
		if r.action == ActionFollowUp {
			pct = actor.Effects.Combat.FollowUpChancePercent
		}
		if !s.roller.Chance(string(r.action), float64(pct)) {
			return
		}
		e.strike(s, actor, target, r.action, r.depth)
	case ActionRetaliate:
		if !target.IsAlive() {
			return
		}
		dmg := PercentOf(actor.MaxHP, float64(actor.Effects.Combat.RetaliatePercent))
		e.damage(s, actor, target, ActionRetaliate, EffectDamage, dmg, false, r.depth)
	case ActionRescue:
		e.rescue(s, target)
	}
}

// rescue lets the first willing living ally revive fallen t.
func (e *Engine) rescue(s *State, t *Actor) {
	if t.IsAlive() {
		return
	}
	for _, ally := range s.Living(t.Side) {
		res := ally.Effects.Resurrection
		if res.RescueChancePercent <= 0 || condition.BlocksAction(ally.Statuses) != 0 {
			continue
		}
		if !s.roller.Chance("rescue", float64(res.RescueChancePercent)) {
			continue
		}
		t.HP = min(max(PercentOf(t.MaxHP, float64(res.RescueHPPercent)), 1), t.MaxHP)
		s.record(Entry{Actor: ally.Handle, Target: t.Handle, Action: ActionRescue, Effect: EffectRevive, Value: t.HP})
		return
	}
}
