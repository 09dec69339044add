package character

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/dungeon/internal/game/inventory"
)

// Sentinel errors returned (wrapped in *ConfigError) by the Factory.
var (
	ErrRaceNotFound          = errors.New("race not found")
	ErrJobNotFound           = errors.New("job not found")
	ErrPreviousJobNotFound   = errors.New("previous job not found")
	ErrEquipmentOverCapacity = errors.New("equipment over capacity")
	ErrItemNotFound          = inventory.ErrItemNotFound
)

// ConfigError reports a record that cannot be built against the master data.
type ConfigError struct {
	Op  string
	Err error
}

func (e *ConfigError) Error() string { return fmt.Sprintf("character %s: %v", e.Op, e.Err) }

func (e *ConfigError) Unwrap() error { return e.Err }
