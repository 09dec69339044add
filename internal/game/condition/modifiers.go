package condition

// BlocksAction reports whether any active status prevents the holder from acting.
// It returns the blocking status ID, or 0.
func BlocksAction(s *ActiveSet) int {
	for _, a := range s.All() {
		if a.Def.BlocksAction {
			return a.Def.ID
		}
	}
	return 0
}

// IsSilenced reports whether any active status forbids spell casting.
func IsSilenced(s *ActiveSet) bool {
	for _, a := range s.All() {
		if a.Def.Silences {
			return true
		}
	}
	return false
}

// PoisonPercent returns the total share of max HP lost at end of turn.
// Each stack counts separately.
//
// Postcondition: Returns >= 0.
func PoisonPercent(s *ActiveSet) float64 {
	total := 0.0
	for _, a := range s.All() {
		total += a.Def.PoisonPercent * float64(a.Stacks)
	}
	return total
}

// BreakOnDamage removes every status that ends when the holder is hurt.
//
// Postcondition: Returns the removed IDs in ascending order.
func BreakOnDamage(s *ActiveSet) []int {
	var broken []int
	for _, a := range s.All() {
		if a.Def.BreaksOnDamage {
			broken = append(broken, a.Def.ID)
			s.Remove(a.Def.ID)
		}
	}
	return broken
}
