package dice

import "go.uber.org/zap"

// Roller wraps a Source and logs every draw at debug level.
// A nil *Roller is not usable; build one with NewLoggedRoller.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs to logger.
//
// Precondition: src must be non-nil. A nil logger disables logging.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Roller{src: src, logger: logger}
}

// Roll evaluates expr and logs the result.
func (r *Roller) Roll(expr Expression) RollResult {
	result := Roll(expr, r.src)
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result
}

// Intn draws an int in [0, n) and logs it under label.
//
// Precondition: n > 0.
func (r *Roller) Intn(label string, n int) int {
	v := r.src.Intn(n)
	r.logger.Debug("dice draw", zap.String("label", label), zap.Int("n", n), zap.Int("value", v))
	return v
}

// Float64 draws a float in [0, 1) and logs it under label.
func (r *Roller) Float64(label string) float64 {
	v := r.src.Float64()
	r.logger.Debug("dice draw", zap.String("label", label), zap.Float64("value", v))
	return v
}

// Chance reports whether a percent-chance check succeeds.
// percent <= 0 never succeeds and percent >= 100 always succeeds, without consuming randomness.
func (r *Roller) Chance(label string, percent float64) bool {
	if percent <= 0 {
		return false
	}
	if percent >= 100 {
		return true
	}
	return r.Float64(label)*100 < percent
}
