package battle

// Action names what an actor was doing when an entry was recorded.
type Action string

// Action constants.
const (
	ActionAttack    Action = "attack"
	ActionCast      Action = "cast"
	ActionBreath    Action = "breath"
	ActionSkill     Action = "skill"
	ActionGuard     Action = "guard"
	ActionBlocked   Action = "blocked"
	ActionCounter   Action = "counter"
	ActionFollowUp  Action = "follow_up"
	ActionRetaliate Action = "retaliate"
	ActionRescue    Action = "rescue"
	ActionEndOfTurn Action = "end_of_turn"
	ActionOutcome   Action = "outcome"
)

// Effect names the state change an entry records.
type Effect string

// Effect constants.
const (
	EffectDamage         Effect = "damage"
	EffectCritical       Effect = "critical"
	EffectMiss           Effect = "miss"
	EffectBarrier        Effect = "barrier"
	EffectHeal           Effect = "heal"
	EffectRevive         Effect = "revive"
	EffectDefeat         Effect = "defeat"
	EffectBuff           Effect = "buff"
	EffectBuffExpired    Effect = "buff_expired"
	EffectStatus         Effect = "status"
	EffectStatusResisted Effect = "status_resisted"
	EffectStatusExpired  Effect = "status_expired"
	EffectStatusBroken   Effect = "status_broken"
	EffectPoison         Effect = "poison"
	EffectDegrade        Effect = "degrade"
	EffectRepair         Effect = "repair"
	EffectRegen          Effect = "regen"
	EffectDegen          Effect = "degen"
	EffectCharge         Effect = "charge"
	EffectGuard          Effect = "guard"
	EffectNone           Effect = "none"
	EffectVictory        Effect = "victory"
	EffectDefeated       Effect = "defeated"
	EffectDraw           Effect = "draw"
)

// Entry is one immutable log record.
//
// Extra carries the spell, skill or buff ID involved, when any.
type Entry struct {
	Seq      int    `json:"seq"`
	Turn     int    `json:"turn"`
	Actor    Handle `json:"actor"`
	Target   Handle `json:"target"`
	Action   Action `json:"action"`
	Effect   Effect `json:"effect"`
	Value    int    `json:"value"`
	Extra    int    `json:"extra,omitempty"`
	StatusID int    `json:"status,omitempty"`
}

// Log is the append-only record of a battle.
type Log struct {
	entries []Entry
}

// Append records e, assigning its sequence number.
//
// Postcondition: Returns the stored entry; Len() grows by one.
func (l *Log) Append(e Entry) Entry {
	e.Seq = len(l.entries)
	l.entries = append(l.entries, e)
	return e
}

// Len returns the number of entries.
func (l *Log) Len() int { return len(l.entries) }

// Entries returns a copy of all entries.
func (l *Log) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

// Since returns a copy of the entries with Seq >= seq.
func (l *Log) Since(seq int) []Entry {
	if seq >= len(l.entries) {
		return nil
	}
	return append([]Entry(nil), l.entries[max(seq, 0):]...)
}

// LastAttacker returns the actor of the most recent damaging entry against target.
func (l *Log) LastAttacker(target Handle) (Handle, bool) {
	for i := len(l.entries) - 1; i >= 0; i-- {
		e := l.entries[i]
		if e.Target == target && e.Actor != target && (e.Effect == EffectDamage || e.Effect == EffectCritical) {
			return e.Actor, true
		}
	}
	return NoHandle, false
}
