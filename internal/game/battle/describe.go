package battle

import "fmt"

// Describe renders e as one line of narration using the actor names of s.
func Describe(s *State, e Entry) string {
	actor, target := s.Name(e.Actor), s.Name(e.Target)
	prefix := fmt.Sprintf("[turn %d] ", e.Turn)
	switch e.Effect {
	case EffectMiss:
		return prefix + fmt.Sprintf("%s's %s misses %s", actor, e.Action, target)
	case EffectDamage:
		return prefix + fmt.Sprintf("%s's %s hits %s for %d", actor, e.Action, target, e.Value)
	case EffectCritical:
		return prefix + fmt.Sprintf("%s lands a critical %s on %s for %d", actor, e.Action, target, e.Value)
	case EffectBarrier:
		return prefix + fmt.Sprintf("%s's barrier absorbs the blow (%d left)", target, e.Value)
	case EffectHeal:
		return prefix + fmt.Sprintf("%s heals %s for %d", actor, target, e.Value)
	case EffectRevive:
		return prefix + fmt.Sprintf("%s revives %s with %d HP", actor, target, e.Value)
	case EffectDefeat:
		return prefix + fmt.Sprintf("%s falls", target)
	case EffectBuff:
		return prefix + fmt.Sprintf("%s gains buff %d for %d turns", target, e.Extra, e.Value)
	case EffectBuffExpired:
		return prefix + fmt.Sprintf("buff %d on %s wears off", e.Extra, target)
	case EffectStatus:
		return prefix + fmt.Sprintf("%s afflicts %s with status %d", actor, target, e.StatusID)
	case EffectStatusResisted:
		return prefix + fmt.Sprintf("%s resists status %d", target, e.StatusID)
	case EffectStatusExpired:
		return prefix + fmt.Sprintf("status %d on %s expires", e.StatusID, target)
	case EffectStatusBroken:
		return prefix + fmt.Sprintf("%s snaps out of status %d", target, e.StatusID)
	case EffectPoison:
		return prefix + fmt.Sprintf("%s takes %d poison damage", target, e.Value)
	case EffectDegrade:
		return prefix + fmt.Sprintf("%s degrades %s's max HP by %d", actor, target, e.Value)
	case EffectRepair:
		return prefix + fmt.Sprintf("%s repairs %d max HP", target, e.Value)
	case EffectRegen:
		return prefix + fmt.Sprintf("%s regenerates %d HP", target, e.Value)
	case EffectDegen:
		return prefix + fmt.Sprintf("%s loses %d HP", target, e.Value)
	case EffectCharge:
		return prefix + fmt.Sprintf("%s recovers %d charge(s) of spell %d", target, e.Value, e.Extra)
	case EffectGuard:
		return prefix + fmt.Sprintf("%s guards", actor)
	case EffectVictory, EffectDefeated, EffectDraw:
		return prefix + fmt.Sprintf("battle ends: %s", e.Effect)
	}
	if e.Action == ActionBlocked {
		return prefix + fmt.Sprintf("%s cannot act (status %d)", actor, e.StatusID)
	}
	return prefix + fmt.Sprintf("%s: %s", actor, e.Action)
}
