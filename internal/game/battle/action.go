package battle

import (
	"slices"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/condition"
	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/effect"
	"github.com/cory-johannsen/dungeon/internal/game/masterdata"
	"github.com/cory-johannsen/dungeon/internal/game/stat"
)

// move is the common shape of spells, enemy skills and breath.
type move struct {
	action       Action
	id           int
	kind         masterdata.ActionKind
	target       masterdata.TargetKind
	power        float64
	statusID     int
	statusChance int
	buff         *effect.BuffSpec
	school       effect.School
	bonus        *dice.Expression
	hits         int
}

func spellMove(sp *masterdata.Spell, multiplier float64) move {
	school := effect.Magical
	if sp.Kind == masterdata.KindBreath {
		school = effect.Breath
	}
	return move{
		action: ActionCast, id: sp.ID, kind: sp.Kind, target: sp.Target,
		power: sp.Power * multiplier, statusID: sp.StatusID, statusChance: sp.StatusChance,
		buff: sp.Buff, school: school,
	}
}

func skillMove(sk *masterdata.EnemySkill) move {
	sp := move{
		action: ActionSkill, id: sk.ID, kind: sk.Kind, target: sk.Target,
		power: sk.Power, statusID: sk.StatusID, statusChance: sk.StatusChance,
		buff: sk.Buff, school: sk.DamageSchool(), hits: sk.Hits,
	}
	if expr, ok := sk.BonusDice(); ok {
		sp.bonus = &expr
	}
	return sp
}

func breathMove() move {
	return move{action: ActionBreath, kind: masterdata.KindBreath, target: masterdata.TargetEnemies, power: 1, school: effect.Breath}
}

func (a *Actor) weight(c Category) int {
	switch c {
	case CategoryPhysical:
		return a.Weights.Physical
	case CategoryPriest:
		return a.Weights.Priest
	case CategoryMage:
		return a.Weights.Mage
	case CategoryBreath:
		return a.Weights.Breath
	case CategorySpecial:
		return a.Weights.Special
	default:
		return 0
	}
}

func schoolOf(c Category) masterdata.SpellSchool {
	if c == CategoryPriest {
		return masterdata.PriestSchool
	}
	return masterdata.MageSchool
}

// act resolves the main action of a.
func (e *Engine) act(s *State, a *Actor) {
	a.Guarding = false
	if id := condition.BlocksAction(a.Statuses); id != 0 {
		s.record(Entry{Actor: a.Handle, Target: NoHandle, Action: ActionBlocked, Effect: EffectNone, StatusID: id})
		return
	}
	c := e.choose(s, a, e.available(s, a))
	e.logger.Debug("action chosen", zap.Int("turn", s.Turn), zap.String("actor", a.Name), zap.Stringer("category", c))
	switch c {
	case CategoryPhysical:
		e.physical(s, a)
	case CategoryPriest, CategoryMage:
		e.cast(s, a, schoolOf(c))
	case CategoryBreath:
		sp := breathMove()
		e.perform(s, a, sp, e.candidates(s, a, sp))
	case CategorySpecial:
		e.special(s, a)
	default:
		a.Guarding = true
		s.record(Entry{Actor: a.Handle, Target: a.Handle, Action: ActionGuard, Effect: EffectGuard})
	}
}

// available lists the categories a can use right now, in canonical order.
// Guard is always available.
func (e *Engine) available(s *State, a *Actor) []Category {
	var out []Category
	if len(e.opponents(s, a)) > 0 {
		out = append(out, CategoryPhysical)
	}
	if !condition.IsSilenced(a.Statuses) {
		for _, c := range []Category{CategoryPriest, CategoryMage} {
			if a.Source.Spellbook.Knows(schoolOf(c)) && len(e.castable(s, a, schoolOf(c))) > 0 {
				out = append(out, c)
			}
		}
	}
	if a.Stat(stat.BreathDamage) > 0 && len(e.opponents(s, a)) > 0 {
		out = append(out, CategoryBreath)
	}
	if len(e.usableSkills(s, a)) > 0 {
		out = append(out, CategorySpecial)
	}
	return append(out, CategoryGuard)
}

// choose asks the policy for scripted actors, then falls back to a weighted draw
// over the available categories.
func (e *Engine) choose(s *State, a *Actor, avail []Category) Category {
	if e.policy != nil && a.Script != "" {
		view := PolicyView{
			Turn: s.Turn, Actor: a.Name, HP: a.HP, MaxHP: a.MaxHP,
			Available:     avail,
			AllyHPRatios:  ratios(s.Living(a.Side)),
			EnemyHPRatios: ratios(s.Living(a.Side.Opponent())),
			Random:        func(n int) int { return s.roller.Intn("script", max(n, 1)) },
		}
		if c, ok := e.policy.Choose(a.Script, view); ok && slices.Contains(avail, c) {
			return c
		}
	}
	total := 0
	for _, c := range avail {
		total += max(a.weight(c), 0)
	}
	if total == 0 {
		return CategoryGuard
	}
	r := s.roller.Intn("category", total)
	for _, c := range avail {
		w := max(a.weight(c), 0)
		if r < w {
			return c
		}
		r -= w
	}
	return CategoryGuard
}

// physical performs AttackCount strikes, retargeting when the target falls.
func (e *Engine) physical(s *State, a *Actor) {
	first := s.pick("target", e.opponents(s, a))
	target := first
	for i := 0; i < max(int(a.Combat.AttackCount), 1) && target != nil && a.IsAlive(); i++ {
		e.strike(s, a, target, ActionAttack, 0)
		if !target.IsAlive() {
			target = s.pick("target", e.opponents(s, a))
		}
	}
	if first == nil || !first.IsAlive() || !a.IsAlive() {
		return
	}
	allies := s.Living(a.Side)
	for i := len(allies) - 1; i >= 0; i-- {
		ally := allies[i]
		if ally == a || ally.Effects.Combat.FollowUpChancePercent <= 0 {
			continue
		}
		e.enqueue(s, reaction{action: ActionFollowUp, actor: ally.Handle, target: first.Handle, depth: 1})
	}
}

// lands rolls a's hit chance against t and records a miss.
func (e *Engine) lands(s *State, a, t *Actor, action Action) bool {
	chance := HitChance(a.Stat(stat.HitScore), t.Stat(stat.EvasionScore), t.Attributes.Agility)
	if s.roller.Float64("hit") >= chance {
		s.record(Entry{Actor: a.Handle, Target: t.Handle, Action: action, Effect: EffectMiss})
		return false
	}
	return true
}

// strike resolves one physical hit of a against t.
func (e *Engine) strike(s *State, a, t *Actor, action Action, depth int) {
	if !e.lands(s, a, t, action) {
		return
	}
	crit := s.roller.Chance("critical", a.CriticalChance())
	variance := s.roller.Float64("variance")*2 - 1
	m := e.modifiers(s, a, t, action, effect.Physical, crit)
	dmg := PhysicalDamage(a.Stat(stat.PhysicalAttack), t.Stat(stat.PhysicalDefense), variance, m, a.Stat(stat.AdditionalDamage))
	eff := EffectDamage
	if crit {
		eff = EffectCritical
	}
	e.damage(s, a, t, action, eff, dmg, true, depth)
}

func (e *Engine) modifiers(s *State, a, t *Actor, action Action, school effect.School, crit bool) Modifiers {
	m := Modifiers{Critical: crit, Dealt: a.DealtMultiplier(school), Taken: t.TakenMultiplier(school), Guarding: t.Guarding}
	if t.consumeBarrier(school) {
		m.Barrier = true
		s.record(Entry{Actor: a.Handle, Target: t.Handle, Action: action, Effect: EffectBarrier, Value: t.Barriers[school]})
	}
	return m
}

// damage subtracts amount from t and queues the reactions it provokes.
func (e *Engine) damage(s *State, src, t *Actor, action Action, eff Effect, amount int, counterable bool, depth int) {
	t.HP = max(t.HP-amount, 0)
	s.record(Entry{Actor: src.Handle, Target: t.Handle, Action: action, Effect: eff, Value: amount})
	for _, id := range condition.BreakOnDamage(t.Statuses) {
		s.record(Entry{Actor: src.Handle, Target: t.Handle, Action: action, Effect: EffectStatusBroken, StatusID: id})
	}
	if !t.IsAlive() {
		e.defeat(s, src, t, action, depth)
		return
	}
	if counterable && src.IsAlive() && src.Side != t.Side && t.Effects.Combat.CounterChancePercent > 0 {
		e.enqueue(s, reaction{action: ActionCounter, actor: t.Handle, target: src.Handle, depth: depth + 1})
	}
}

// defeat records a fallen actor. Its statuses and timed buffs end.
func (e *Engine) defeat(s *State, src, t *Actor, action Action, depth int) {
	t.Statuses.Clear()
	t.Buffs = nil
	t.Guarding = false
	s.record(Entry{Actor: src.Handle, Target: t.Handle, Action: action, Effect: EffectDefeat})
	for _, ally := range s.Living(t.Side) {
		if ally.Effects.Resurrection.RescueChancePercent > 0 {
			e.enqueue(s, reaction{action: ActionRescue, actor: t.Handle, target: t.Handle, depth: depth + 1})
			break
		}
	}
	if t.Effects.Combat.RetaliatePercent > 0 {
		if killer, ok := s.log.LastAttacker(t.Handle); ok {
			e.enqueue(s, reaction{action: ActionRetaliate, actor: t.Handle, target: killer, depth: depth + 1})
		}
	}
}

// castable returns the spells of school a can cast now, in spellbook order.
func (e *Engine) castable(s *State, a *Actor, school masterdata.SpellSchool) []*masterdata.Spell {
	var out []*masterdata.Spell
	for _, sp := range a.Spells {
		if sp.School != school || a.Charges[sp.ID] <= 0 {
			continue
		}
		if len(e.candidates(s, a, spellMove(sp, 1))) > 0 {
			out = append(out, sp)
		}
	}
	return out
}

func (e *Engine) cast(s *State, a *Actor, school masterdata.SpellSchool) {
	spells := e.castable(s, a, school)
	if len(spells) == 0 {
		return
	}
	sp := spells[s.roller.Intn("spell", len(spells))]
	a.Charges[sp.ID]--
	p := spellMove(sp, a.SpellMultiplier(sp.ID))
	e.perform(s, a, p, e.candidates(s, a, p))
}

// usableSkills returns the enemy skills with uses left and at least one target.
func (e *Engine) usableSkills(s *State, a *Actor) []*masterdata.EnemySkill {
	var out []*masterdata.EnemySkill
	for _, sk := range a.EnemySkills {
		if sk.UsesPerBattle > 0 && a.SkillUses[sk.ID] >= sk.UsesPerBattle {
			continue
		}
		if len(e.candidates(s, a, skillMove(sk))) > 0 {
			out = append(out, sk)
		}
	}
	return out
}

func (e *Engine) special(s *State, a *Actor) {
	skills := e.usableSkills(s, a)
	if len(skills) == 0 {
		return
	}
	sk := skills[s.roller.Intn("skill", len(skills))]
	a.SkillUses[sk.ID]++
	p := skillMove(sk)
	e.perform(s, a, p, e.candidates(s, a, p))
}

// candidates returns every actor p may affect.
func (e *Engine) candidates(s *State, a *Actor, p move) []*Actor {
	if p.kind == masterdata.KindRevive || p.target == masterdata.TargetFallen {
		return s.Fallen(a.Side)
	}
	var pool []*Actor
	switch p.target {
	case masterdata.TargetEnemy, masterdata.TargetEnemies, masterdata.TargetRandom:
		pool = e.opponents(s, a)
	case masterdata.TargetAlly, masterdata.TargetAllies:
		pool = s.Living(a.Side)
	case masterdata.TargetSelf:
		pool = []*Actor{a}
	}
	var out []*Actor
	for _, t := range pool {
		switch {
		case p.kind == masterdata.KindHeal && t.HP >= t.MaxHP:
		case p.kind == masterdata.KindStatus && t.Statuses.Has(p.statusID):
		default:
			out = append(out, t)
		}
	}
	return out
}

// narrow selects the final targets from the candidates.
func (e *Engine) narrow(s *State, p move, cands []*Actor) []*Actor {
	if len(cands) == 0 {
		return nil
	}
	switch p.target {
	case masterdata.TargetEnemy:
		return []*Actor{s.pick("target", cands)}
	case masterdata.TargetAlly:
		if p.kind != masterdata.KindHeal {
			return []*Actor{s.pick("target", cands)}
		}
		lowest := cands[0]
		for _, t := range cands[1:] {
			if t.HPRatio() < lowest.HPRatio() {
				lowest = t
			}
		}
		return []*Actor{lowest}
	case masterdata.TargetFallen:
		return cands[:1]
	default:
		return cands
	}
}

// perform applies p to its targets. A random-target move draws a fresh living
// candidate for each of its hits.
func (e *Engine) perform(s *State, a *Actor, p move, cands []*Actor) {
	if p.target == masterdata.TargetRandom {
		for i := 0; i < max(p.hits, 1); i++ {
			t := s.pick("target", cands)
			if t == nil {
				if i == 0 {
					e.logger.Debug("action has no target", zap.String("actor", a.Name), zap.String("action", string(p.action)), zap.Int("id", p.id))
				}
				return
			}
			e.apply(s, a, p, t)
			cands = e.candidates(s, a, p)
		}
		return
	}
	targets := e.narrow(s, p, cands)
	if len(targets) == 0 {
		e.logger.Debug("action has no target", zap.String("actor", a.Name), zap.String("action", string(p.action)), zap.Int("id", p.id))
		return
	}
	for _, t := range targets {
		e.apply(s, a, p, t)
	}
}

// apply resolves p against one target. Damaging moves roll to hit first; a miss
// consumes no barrier and inflicts no rider status.
func (e *Engine) apply(s *State, a *Actor, p move, t *Actor) {
	switch p.kind {
	case masterdata.KindDamage, masterdata.KindBreath:
		if !t.IsAlive() || !e.lands(s, a, t, p.action) {
			return
		}
		e.damage(s, a, t, p.action, EffectDamage, e.hitFor(s, a, t, p), false, 0)
		if p.statusID > 0 && p.statusChance > 0 && t.IsAlive() {
			e.inflict(s, a, t, p.action, p.statusID, p.statusChance)
		}
	case masterdata.KindHeal:
		if !t.IsAlive() {
			return
		}
		amount := min(HealAmount(a.Stat(stat.MagicalHealing), p.power), t.MaxHP-t.HP)
		t.HP += amount
		s.record(Entry{Actor: a.Handle, Target: t.Handle, Action: p.action, Effect: EffectHeal, Value: amount, Extra: p.id})
	case masterdata.KindRevive:
		if t.IsAlive() {
			return
		}
		t.HP = min(max(PercentOf(t.MaxHP, p.power*100), 1), t.MaxHP)
		s.record(Entry{Actor: a.Handle, Target: t.Handle, Action: p.action, Effect: EffectRevive, Value: t.HP, Extra: p.id})
	case masterdata.KindBuff:
		if p.buff == nil || !t.IsAlive() {
			return
		}
		b := TimedBuff{ID: p.buff.ID, BaseDuration: p.buff.Duration, Remaining: p.buff.Duration, Modifiers: p.buff.Modifiers, SourceSkillID: p.id}
		if t.UpsertBuff(b) {
			s.record(Entry{Actor: a.Handle, Target: t.Handle, Action: p.action, Effect: EffectBuff, Value: b.Remaining, Extra: b.ID})
		}
	case masterdata.KindStatus:
		chance := p.statusChance
		if chance <= 0 {
			chance = 100
		}
		e.inflict(s, a, t, p.action, p.statusID, chance)
	case masterdata.KindDegrade:
		if !t.IsAlive() {
			return
		}
		lost := min(PercentOf(t.BaseMaxHP, p.power), t.MaxHP-1)
		t.MaxHP -= lost
		t.HP = min(t.HP, t.MaxHP)
		s.record(Entry{Actor: a.Handle, Target: t.Handle, Action: p.action, Effect: EffectDegrade, Value: lost, Extra: p.id})
	}
}

// hitFor computes the damage of a damaging spell, skill or breath against t.
// The move's school picks the attack/defense pair, barrier and multipliers.
func (e *Engine) hitFor(s *State, a, t *Actor, p move) int {
	m := e.modifiers(s, a, t, p.action, p.school, false)
	power := p.power
	if power <= 0 {
		power = 1
	}
	bonus := 0
	if p.bonus != nil {
		r := s.roller.Roll(*p.bonus)
		e.logger.Debug("bonus damage", zap.String("actor", a.Name), zap.Int("id", p.id), zap.Stringer("roll", r))
		bonus = r.Total()
	}
	switch p.school {
	case effect.Breath:
		return BreathDamage(a.Stat(stat.BreathDamage), max(power, 1), t.Attributes.Spirit, m) + bonus
	case effect.Magical:
		return MagicalDamage(a.Stat(stat.MagicalAttack), power, t.Stat(stat.MagicalDefense), m) + bonus
	default:
		return PhysicalDamage(a.Stat(stat.PhysicalAttack)*power, t.Stat(stat.PhysicalDefense), 0, m, float64(bonus))
	}
}

// inflict tries to apply status id to t. Resistance scales the chance down.
// Unknown statuses are skipped.
func (e *Engine) inflict(s *State, a, t *Actor, action Action, id, chance int) {
	def, ok := e.provider.StatusEffect(id)
	if !ok {
		e.logger.Debug("unknown status skipped", zap.Int("status", id))
		return
	}
	effective := float64(chance) * (1 - t.Effects.Combat.Resistance(id)/100)
	if !s.roller.Chance("status", effective) {
		s.record(Entry{Actor: a.Handle, Target: t.Handle, Action: action, Effect: EffectStatusResisted, StatusID: id})
		return
	}
	if err := t.Statuses.Apply(def, 1, 0); err != nil {
		e.logger.Warn("status apply failed", zap.Int("status", id), zap.Error(err))
		return
	}
	s.record(Entry{Actor: a.Handle, Target: t.Handle, Action: action, Effect: EffectStatus, StatusID: id, Value: t.Statuses.Stacks(id)})
}
