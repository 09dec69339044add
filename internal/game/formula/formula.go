// Package formula holds the stateless numeric curves shared by the stat
// pipeline and the battle engine.
//
// Every function is pure and safe for concurrent use.
package formula

import "math"

// RaceCategory groups races that share a level growth curve.
type RaceCategory string

// CategoryHuman is the race category that keeps the steeper growth slope past level 80.
const CategoryHuman RaceCategory = "human"

// IsHuman reports whether c is the designated human category.
func (c RaceCategory) IsHuman() bool { return c == CategoryHuman }

// growthBand is one linear segment of the level curve, valid for levels <= upTo.
type growthBand struct {
	upTo  int
	slope float64
}

// anchorLevel and anchorValue mark where the human and non-human curves fork.
const (
	anchorLevel = 80
	anchorValue = 9.5
)

var (
	humanBands = []growthBand{
		{upTo: 100, slope: 0.10},
		{upTo: 150, slope: 0.08},
		{upTo: 180, slope: 0.06},
		{upTo: math.MaxInt, slope: 0.04},
	}
	nonHumanBands = []growthBand{
		{upTo: 100, slope: 0.075},
		{upTo: 150, slope: 0.05},
		{upTo: 180, slope: 0.03},
		{upTo: math.MaxInt, slope: 0.02},
	}
)

// LevelDependentValue returns the level growth factor for a race category.
//
// Levels 1-80 share one curve; from level 81 onward the human category keeps a
// steeper slope than every other category.
//
// Postcondition: Returns >= 0 for level >= 0 and is non-decreasing in level.
func LevelDependentValue(category RaceCategory, level int) float64 {
	l := float64(level)
	switch {
	case level <= 30:
		return 0.1 * l
	case level <= 60:
		return 0.15*l - 1.5
	case level <= anchorLevel:
		return 0.1*l + 1.5
	}

	bands := nonHumanBands
	if category.IsHuman() {
		bands = humanBands
	}
	value := anchorValue
	prev := anchorLevel
	for _, b := range bands {
		top := level
		if b.upTo < top {
			top = b.upTo
		}
		value += float64(top-prev) * b.slope
		if level <= b.upTo {
			break
		}
		prev = b.upTo
	}
	return value
}

// StatBonusMultiplier is the 21+ bonus curve: 1 below 21, 1.04^(v-20) above.
func StatBonusMultiplier(value int) float64 {
	if value < 21 {
		return 1
	}
	return math.Pow(1.04, float64(value-20))
}

// ResistancePercent is the 21+ damage-reduction factor: 1 below 21, 0.96^(v-20) above.
// The result is a multiplicative factor, not a percent literal.
func ResistancePercent(value int) float64 {
	if value < 21 {
		return 1
	}
	return math.Pow(0.96, float64(value-20))
}

type strengthBand struct {
	from, to   float64
	base, rate float64
}

var strengthBands = []strengthBand{
	{from: 0, to: 20, base: 0, rate: 0.01},
	{from: 20, to: 35, base: 0.2, rate: 0.04},
	{from: 35, to: 50, base: 0.8, rate: 0.03},
	{from: 50, to: 75, base: 1.25, rate: 0.02},
	{from: 75, to: 100, base: 1.75, rate: 0.01},
	{from: 100, to: math.Inf(1), base: 2.0, rate: 0.005},
}

// strengthScale converts the strength curve into additional-damage points.
const strengthScale = 125

// StrengthDependency returns the strength curve feeding additional damage.
//
// Postcondition: Returns 0 for value <= 0; non-decreasing otherwise.
func StrengthDependency(value int) float64 {
	if value <= 0 {
		return 0
	}
	v := float64(value)
	for _, b := range strengthBands {
		if v <= b.to {
			return strengthScale * (b.base + (v-b.from)*b.rate)
		}
	}
	return 0
}

// agilityTable holds the dependency values for agility 21 through 35.
var agilityTable = [...]float64{
	20.84, 21.74, 22.78, 23.85, 25.00,
	26.38, 27.92, 29.68, 31.64, 33.84,
	36.26, 38.96, 42.02, 45.52, 50.00,
}

const (
	agilityFloor     = 20.0
	agilityTableFrom = 21
	agilityTableTo   = float64(agilityTableFrom + len(agilityTable) - 1)
)

// AgilityDependency returns the agility curve used by the attack-count formula.
//
// Values up to 20 return 20. Values 21..35 interpolate the control table;
// above 35 the curve continues with the slope of the last two control points.
func AgilityDependency(value float64) float64 {
	if value <= agilityFloor {
		return agilityFloor
	}
	if value < agilityTableFrom {
		return agilityFloor + (value-agilityFloor)*(agilityTable[0]-agilityFloor)
	}
	last := len(agilityTable) - 1
	if value >= agilityTableTo {
		slope := agilityTable[last] - agilityTable[last-1]
		return agilityTable[last] + slope*(value-agilityTableTo)
	}
	offset := value - agilityTableFrom
	i := int(offset)
	frac := offset - float64(i)
	return agilityTable[i] + (agilityTable[i+1]-agilityTable[i])*frac
}

// EvasionLimit is the highest evasion percent an actor with the given agility may reach.
func EvasionLimit(value int) float64 {
	if value < 21 {
		return 95
	}
	return 100 - 5*math.Pow(0.88, float64(value-20))
}

// roundingEpsilon absorbs binary representation error of decimal coefficients.
const roundingEpsilon = 1e-6

// FinalAttackCount resolves the integer attack count.
//
// The agility curve is scaled by the level, job and talent factors, then the
// scaled value is rounded twice at offsets +0.1 and -0.3, summed and halved.
// The passive multiplier and additive apply last. A result whose fractional
// part is exactly one half rounds down; anything else rounds to nearest.
//
// Postcondition: Returns >= 1.
func FinalAttackCount(agility, levelFactor, jobCoefficient, talentMultiplier, passiveMultiplier, additive float64) int {
	scaled := AgilityDependency(agility) / 10 * (1 + levelFactor*jobCoefficient) * talentMultiplier
	paired := math.Round(scaled+0.1) + math.Round(scaled-0.3)
	value := paired/2*passiveMultiplier + additive

	floor := math.Floor(value)
	var result int
	if math.Abs(value-floor-0.5) < roundingEpsilon {
		result = int(floor)
	} else {
		result = int(math.Round(value))
	}
	if result < 1 {
		return 1
	}
	return result
}

// Truncate converts v to an int toward zero, tolerating representation error
// so that 2459.9999999 resolves to 2460.
func Truncate(v float64) int {
	if v >= 0 {
		return int(v + roundingEpsilon)
	}
	return int(v - roundingEpsilon)
}

// BaseEquipmentCapacity is the number of equipment slots granted by level alone.
//
// Postcondition: Returns >= 1.
func BaseEquipmentCapacity(level int) int {
	if level < 1 {
		return 1
	}
	v := int(math.Floor((math.Sqrt(1.5*float64(level)+0.3) - 0.5) / 0.7))
	if v < 1 {
		return 1
	}
	return v
}

// EquipmentCapacity applies skill slot modifiers to the base capacity.
//
// Postcondition: Returns >= 1; equals BaseEquipmentCapacity(level) for multiplier 1 and additive 0.
func EquipmentCapacity(level int, multiplier float64, additive int) int {
	v := int(math.Round(float64(BaseEquipmentCapacity(level))*multiplier)) + additive
	if v < 1 {
		return 1
	}
	return v
}
