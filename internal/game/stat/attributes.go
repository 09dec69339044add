package stat

// CoreAttributes are the six non-negative base attributes of a build.
type CoreAttributes struct {
	Strength int `yaml:"strength" json:"strength"`
	Wisdom   int `yaml:"wisdom" json:"wisdom"`
	Spirit   int `yaml:"spirit" json:"spirit"`
	Vitality int `yaml:"vitality" json:"vitality"`
	Agility  int `yaml:"agility" json:"agility"`
	Luck     int `yaml:"luck" json:"luck"`
}

// Get returns the value of attribute c, or 0 for an unknown attribute.
func (a CoreAttributes) Get(c Core) int {
	switch c {
	case Strength:
		return a.Strength
	case Wisdom:
		return a.Wisdom
	case Spirit:
		return a.Spirit
	case Vitality:
		return a.Vitality
	case Agility:
		return a.Agility
	case Luck:
		return a.Luck
	default:
		return 0
	}
}

// Add adds delta to attribute c. Unknown attributes are ignored.
func (a *CoreAttributes) Add(c Core, delta int) {
	switch c {
	case Strength:
		a.Strength += delta
	case Wisdom:
		a.Wisdom += delta
	case Spirit:
		a.Spirit += delta
	case Vitality:
		a.Vitality += delta
	case Agility:
		a.Agility += delta
	case Luck:
		a.Luck += delta
	}
}

// AddAll adds delta to every attribute.
func (a *CoreAttributes) AddAll(delta int) {
	for _, c := range AllCores {
		a.Add(c, delta)
	}
}

// ClampNonNegative raises every negative attribute to zero.
//
// Postcondition: every attribute is >= 0.
func (a *CoreAttributes) ClampNonNegative() {
	for _, c := range AllCores {
		if v := a.Get(c); v < 0 {
			a.Add(c, -v)
		}
	}
}
