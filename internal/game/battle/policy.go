package battle

import "fmt"

// Category is the kind of action an actor takes on its turn.
type Category int

// Category constants in canonical order.
const (
	CategoryPhysical Category = iota
	CategoryPriest
	CategoryMage
	CategoryBreath
	CategorySpecial
	CategoryGuard
)

var categoryNames = [...]string{"physical", "priest", "mage", "breath", "special", "guard"}

// String returns the lower-case category name.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// ParseCategory resolves a category name.
func ParseCategory(s string) (Category, error) {
	for i, n := range categoryNames {
		if n == s {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("battle: unknown action category %q", s)
}

// PolicyView is the read-only snapshot handed to an ActionPolicy.
type PolicyView struct {
	Turn      int
	Actor     string
	HP        int
	MaxHP     int
	Available []Category
	// AllyHPRatios and EnemyHPRatios list living actors in formation order.
	AllyHPRatios  []float64
	EnemyHPRatios []float64
	// Random draws from the battle's random source; it returns a value in [0, n).
	Random func(n int) int
}

// ActionPolicy overrides the weighted category choice of scripted actors.
type ActionPolicy interface {
	// Choose returns the category for the actor running script. ok=false, or a
	// category not in view.Available, falls back to the weighted choice.
	Choose(script string, view PolicyView) (c Category, ok bool)
}

func ratios(actors []*Actor) []float64 {
	out := make([]float64, 0, len(actors))
	for _, a := range actors {
		out = append(out, a.HPRatio())
	}
	return out
}
