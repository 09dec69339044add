package effect

// Compiler turns the effect bundles of a character's learned skills into one bundle.
type Compiler interface {
	// Compile merges bundles in order.
	//
	// Postcondition: Returns the merged bundle or a non-nil error.
	Compile(bundles []Bundle) (Bundle, error)
}

// MergeCompiler is the default Compiler. It folds bundles with Merge.
type MergeCompiler struct{}

// Compile implements Compiler.
func (MergeCompiler) Compile(bundles []Bundle) (Bundle, error) {
	var out Bundle
	for _, b := range bundles {
		out = Merge(out, b)
	}
	return out, nil
}

// Merge combines two bundles.
//
// Multipliers multiply, additives and percentages of the same pool add,
// chances take the maximum, flags are OR-ed, and lists concatenate.
// The necromancer interval keeps the shortest positive value.
//
// Postcondition: Neither a nor b is modified.
func Merge(a, b Bundle) Bundle {
	var out Bundle

	out.Stats.Talents = mergeProduct(a.Stats.Talents, b.Stats.Talents)
	out.Stats.Passives = mergeProduct(a.Stats.Passives, b.Stats.Passives)
	out.Stats.Additives = mergeSum(a.Stats.Additives, b.Stats.Additives)
	out.Stats.CategoryMultipliers = mergeProduct(a.Stats.CategoryMultipliers, b.Stats.CategoryMultipliers)
	out.Stats.ItemStatMultipliers = mergeProduct(a.Stats.ItemStatMultipliers, b.Stats.ItemStatMultipliers)
	out.Stats.Critical = Critical{
		FlatBonus: a.Stats.Critical.FlatBonus + b.Stats.Critical.FlatBonus,
		Cap:       minPositive(a.Stats.Critical.Cap, b.Stats.Critical.Cap),
		CapDelta:  a.Stats.Critical.CapDelta + b.Stats.Critical.CapDelta,
	}
	out.Stats.Martial = Martial{
		Percent:    a.Stats.Martial.Percent + b.Stats.Martial.Percent,
		Multiplier: productOrZero(a.Stats.Martial.Multiplier, b.Stats.Martial.Multiplier),
	}
	out.Stats.Conversions = concat(a.Stats.Conversions, b.Stats.Conversions)
	out.Stats.ForcedToOne = union(a.Stats.ForcedToOne, b.Stats.ForcedToOne)

	out.Slots = Slots{
		Multiplier: productOrZero(a.Slots.Multiplier, b.Slots.Multiplier),
		Additive:   a.Slots.Additive + b.Slots.Additive,
	}

	ra, rb := a.Resurrection, b.Resurrection
	out.Resurrection = Resurrection{
		BetweenFloors:              ra.BetweenFloors || rb.BetweenFloors,
		BetweenFloorsChancePercent: betweenFloorsChance(ra, rb),
		EndOfTurnHPPercent:         max(ra.EndOfTurnHPPercent, rb.EndOfTurnHPPercent),
		NecromancerInterval:        int(minPositive(float64(ra.NecromancerInterval), float64(rb.NecromancerInterval))),
		RescueChancePercent:        max(ra.RescueChancePercent, rb.RescueChancePercent),
		RescueHPPercent:            max(ra.RescueHPPercent, rb.RescueHPPercent),
	}

	pa, pb := a.Periodic, b.Periodic
	out.Periodic = Periodic{
		PartyHealPercent:           pa.PartyHealPercent + pb.PartyHealPercent,
		SelfHPPercent:              pa.SelfHPPercent + pb.SelfHPPercent,
		RepairPercent:              pa.RepairPercent + pb.RepairPercent,
		SpellRegen:                 concat(pa.SpellRegen, pb.SpellRegen),
		SpellRecoveryChancePercent: max(pa.SpellRecoveryChancePercent, pb.SpellRecoveryChancePercent),
		ScheduledBuffs:             concat(pa.ScheduledBuffs, pb.ScheduledBuffs),
	}

	ca, cb := a.Combat, b.Combat
	out.Combat = Combat{
		DamageDealt:           mergeProduct(ca.DamageDealt, cb.DamageDealt),
		DamageTaken:           mergeProduct(ca.DamageTaken, cb.DamageTaken),
		CounterChancePercent:  max(ca.CounterChancePercent, cb.CounterChancePercent),
		FollowUpChancePercent: max(ca.FollowUpChancePercent, cb.FollowUpChancePercent),
		RetaliatePercent:      max(ca.RetaliatePercent, cb.RetaliatePercent),
		StatusResistance:      mergeSum(ca.StatusResistance, cb.StatusResistance),
		Barriers:              mergeSum(ca.Barriers, cb.Barriers),
		AttacksAllies:         ca.AttacksAllies || cb.AttacksAllies,
	}

	out.Spells = Spells{
		Granted:     union(a.Spells.Granted, b.Spells.Granted),
		ChargeBonus: a.Spells.ChargeBonus + b.Spells.ChargeBonus,
	}
	return out
}

// betweenFloorsChance keeps an ungated grant ungated: 0 means "always".
func betweenFloorsChance(a, b Resurrection) int {
	switch {
	case a.BetweenFloors && a.BetweenFloorsChancePercent == 0,
		b.BetweenFloors && b.BetweenFloorsChancePercent == 0:
		return 0
	default:
		return max(a.BetweenFloorsChancePercent, b.BetweenFloorsChancePercent)
	}
}

func mergeProduct[K comparable](a, b map[K]float64) map[K]float64 {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[K]float64, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if cur, ok := out[k]; ok {
			out[k] = cur * v
		} else {
			out[k] = v
		}
	}
	return out
}

func mergeSum[K comparable, V int | float64](a, b map[K]V) map[K]V {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[K]V, len(a)+len(b))
	for k, v := range a {
		out[k] += v
	}
	for k, v := range b {
		out[k] += v
	}
	return out
}

func concat[T any](a, b []T) []T {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]T, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func union[T comparable](a, b []T) []T {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[T]bool, len(a)+len(b))
	var out []T
	for _, list := range [][]T{a, b} {
		for _, v := range list {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// productOrZero treats 0 as "unset" (identity 1) and keeps 0 when both are unset.
func productOrZero(a, b float64) float64 {
	switch {
	case a == 0:
		return b
	case b == 0:
		return a
	default:
		return a * b
	}
}

func minPositive(a, b float64) float64 {
	switch {
	case a <= 0:
		return b
	case b <= 0:
		return a
	default:
		return min(a, b)
	}
}
