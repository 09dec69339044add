// Package calc compiles a build (race, level, personality, equipment, skill effects)
// into core attributes and combat statistics.
package calc

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/dungeon/internal/game/inventory"
)

// ErrConversionCycle is returned when stat conversions form a cycle.
var ErrConversionCycle = errors.New("stat conversion cycle")

// ErrItemNotFound is returned when an equipped item has no definition.
var ErrItemNotFound = inventory.ErrItemNotFound

// ConfigError reports master-data or build configuration that cannot be compiled.
type ConfigError struct {
	Op  string
	Err error
}

func (e *ConfigError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *ConfigError) Unwrap() error { return e.Err }
