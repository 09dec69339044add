package battle

import "github.com/cory-johannsen/dungeon/internal/game/condition"

// endOfTurn runs the periodic effects of every actor in handle order, one phase at
// a time.
func (e *Engine) endOfTurn(s *State) {
	for _, a := range s.actors {
		a.Guarding = false
	}
	e.poisonAndExpiry(s)
	e.repair(s)
	e.spellRegen(s)
	e.tickBuffs(s)
	e.selfHP(s)
	e.endOfTurnRevive(s)
	e.partyHeal(s, SidePlayer)
	e.partyHeal(s, SideEnemy)
	e.necromancy(s)
	e.scheduledBuffs(s)
	e.spellRecovery(s)
}

func (s *State) endEntry(a, t *Actor, eff Effect, value int) Entry {
	return s.record(Entry{Actor: a.Handle, Target: t.Handle, Action: ActionEndOfTurn, Effect: eff, Value: value})
}

func (e *Engine) poisonAndExpiry(s *State) {
	for _, a := range s.actors {
		if !a.IsAlive() {
			continue
		}
		if pct := condition.PoisonPercent(a.Statuses); pct > 0 {
			dmg := PercentOf(a.MaxHP, pct)
			a.HP = max(a.HP-dmg, 0)
			s.endEntry(a, a, EffectPoison, dmg)
			if !a.IsAlive() {
				a.Statuses.Clear()
				a.Buffs = nil
				s.endEntry(a, a, EffectDefeat, 0)
				continue
			}
		}
		for _, id := range a.Statuses.Tick() {
			s.record(Entry{Actor: a.Handle, Target: a.Handle, Action: ActionEndOfTurn, Effect: EffectStatusExpired, StatusID: id})
		}
	}
}

// repair restores a share of the max HP lost to degradation.
func (e *Engine) repair(s *State) {
	for _, a := range s.actors {
		pct := a.Effects.Periodic.RepairPercent
		if !a.IsAlive() || pct <= 0 || a.MaxHP >= a.BaseMaxHP {
			continue
		}
		restored := min(PercentOf(a.BaseMaxHP-a.MaxHP, float64(pct)), a.BaseMaxHP-a.MaxHP)
		a.MaxHP += restored
		s.endEntry(a, a, EffectRepair, restored)
	}
}

func (e *Engine) spellRegen(s *State) {
	for _, a := range s.actors {
		if !a.IsAlive() {
			continue
		}
		for _, r := range a.Effects.Periodic.SpellRegen {
			if r.EveryTurns <= 0 || r.Amount <= 0 || s.Turn%r.EveryTurns != 0 {
				continue
			}
			for _, sp := range a.Spells {
				if r.Tier != 0 && sp.Tier != r.Tier {
					continue
				}
				gained := min(a.Charges[sp.ID]+r.Amount, a.MaxCharges(sp.ID)) - a.Charges[sp.ID]
				if gained <= 0 {
					continue
				}
				a.Charges[sp.ID] += gained
				s.record(Entry{Actor: a.Handle, Target: a.Handle, Action: ActionEndOfTurn, Effect: EffectCharge, Value: gained, Extra: sp.ID})
			}
		}
	}
}

// tickBuffs counts down timed buffs. Buffs granted with no duration last the battle.
func (e *Engine) tickBuffs(s *State) {
	for _, a := range s.actors {
		kept := a.Buffs[:0]
		for _, b := range a.Buffs {
			if b.Remaining > 0 {
				b.Remaining--
				if b.Remaining == 0 {
					s.record(Entry{Actor: a.Handle, Target: a.Handle, Action: ActionEndOfTurn, Effect: EffectBuffExpired, Extra: b.ID})
					continue
				}
			}
			kept = append(kept, b)
		}
		a.Buffs = kept
	}
}

// selfHP applies regeneration or degeneration. Degeneration never kills.
func (e *Engine) selfHP(s *State) {
	for _, a := range s.actors {
		pct := a.Effects.Periodic.SelfHPPercent
		if !a.IsAlive() || pct == 0 {
			continue
		}
		if pct > 0 {
			if gained := min(PercentOf(a.MaxHP, float64(pct)), a.MaxHP-a.HP); gained > 0 {
				a.HP += gained
				s.endEntry(a, a, EffectRegen, gained)
			}
			continue
		}
		if lost := min(PercentOf(a.MaxHP, float64(-pct)), a.HP-1); lost > 0 {
			a.HP -= lost
			s.endEntry(a, a, EffectDegen, lost)
		}
	}
}

// endOfTurnRevive revives each holder once per battle.
func (e *Engine) endOfTurnRevive(s *State) {
	for _, a := range s.actors {
		pct := a.Effects.Resurrection.EndOfTurnHPPercent
		if a.IsAlive() || pct <= 0 || a.endOfTurnRevived {
			continue
		}
		a.endOfTurnRevived = true
		a.HP = min(max(PercentOf(a.MaxHP, float64(pct)), 1), a.MaxHP)
		s.endEntry(a, a, EffectRevive, a.HP)
	}
}

// partyHeal sums the heal percent of every living healer on side. The strongest
// healer, lowest handle first on ties, applies the total once to each living ally.
func (e *Engine) partyHeal(s *State, side Side) {
	living := s.Living(side)
	var healer *Actor
	total := 0
	for _, a := range living {
		pct := a.Effects.Periodic.PartyHealPercent
		if pct <= 0 {
			continue
		}
		total += pct
		if healer == nil || pct > healer.Effects.Periodic.PartyHealPercent {
			healer = a
		}
	}
	if healer == nil {
		return
	}
	for _, t := range living {
		if gained := min(PercentOf(t.MaxHP, float64(total)), t.MaxHP-t.HP); gained > 0 {
			t.HP += gained
			s.endEntry(healer, t, EffectHeal, gained)
		}
	}
}

// necromancy raises the first fallen ally on turns 2, 2+N, 2+2N and so on.
func (e *Engine) necromancy(s *State) {
	for _, a := range s.actors {
		n := a.Effects.Resurrection.NecromancerInterval
		if !a.IsAlive() || n <= 0 || s.Turn < 2 || (s.Turn-2)%n != 0 || a.raisedOnTurn == s.Turn {
			continue
		}
		fallen := s.Fallen(a.Side)
		if len(fallen) == 0 {
			continue
		}
		a.raisedOnTurn = s.Turn
		t := fallen[0]
		t.HP = max(t.MaxHP/4, 1)
		s.endEntry(a, t, EffectRevive, t.HP)
	}
}

func (e *Engine) scheduledBuffs(s *State) {
	for _, a := range s.actors {
		if !a.IsAlive() {
			continue
		}
		for _, sb := range a.Effects.Periodic.ScheduledBuffs {
			if !sb.Trigger.Fires(s.Turn) {
				continue
			}
			targets := []*Actor{a}
			if sb.Party {
				targets = s.Living(a.Side)
			}
			for _, t := range targets {
				b := TimedBuff{ID: sb.Buff.ID, BaseDuration: sb.Buff.Duration, Remaining: sb.Buff.Duration, Modifiers: sb.Buff.Modifiers}
				if t.UpsertBuff(b) {
					s.record(Entry{Actor: a.Handle, Target: t.Handle, Action: ActionEndOfTurn, Effect: EffectBuff, Value: b.Remaining, Extra: b.ID})
				}
			}
		}
	}
}

// spellRecovery restores one charge of a random spent spell.
func (e *Engine) spellRecovery(s *State) {
	for _, a := range s.actors {
		pct := a.Effects.Periodic.SpellRecoveryChancePercent
		if !a.IsAlive() || pct <= 0 {
			continue
		}
		if !s.roller.Chance("spell recovery", float64(pct)) {
			continue
		}
		var spent []int
		for _, sp := range a.Spells {
			if a.Charges[sp.ID] < a.MaxCharges(sp.ID) {
				spent = append(spent, sp.ID)
			}
		}
		if len(spent) == 0 {
			continue
		}
		id := spent[s.roller.Intn("spell recovery", len(spent))]
		a.Charges[id]++
		s.record(Entry{Actor: a.Handle, Target: a.Handle, Action: ActionEndOfTurn, Effect: EffectCharge, Value: 1, Extra: id})
	}
}
