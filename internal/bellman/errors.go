package bellman

import (
	"errors"
	"fmt"
)

// Domain errors for solver operations.
var (
	// ErrInvalidConfig indicates an unusable state space, action space or discount.
	ErrInvalidConfig = errors.New("bellman: invalid solver configuration")

	// ErrInvalidDistribution indicates a transition distribution that does not sum to one.
	ErrInvalidDistribution = errors.New("bellman: transition distribution does not sum to 1")

	// ErrInvalidTransitions indicates a malformed sparse transition structure.
	ErrInvalidTransitions = errors.New("bellman: malformed sparse transitions")

	// ErrOutOfRange indicates a state index outside [0, nS).
	ErrOutOfRange = errors.New("bellman: state index out of range")

	// ErrMalformedSolution indicates a solution table that cannot be parsed.
	ErrMalformedSolution = errors.New("bellman: malformed solution table")
)

// ConfigError reports which construction parameter was rejected.
type ConfigError struct {
	Field string
	Value any
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s = %v", ErrInvalidConfig.Error(), e.Field, e.Value)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// DistributionError identifies the state-action pair whose successor
// distribution failed validation.
type DistributionError struct {
	State  int
	Action int
	Sum    float64
	// Next is set when a single negative probability caused the failure.
	Next int
}

func (e *DistributionError) Error() string {
	if e.Next >= 0 {
		return fmt.Sprintf("%s: s=%d a=%d has negative probability for s1=%d",
			ErrInvalidDistribution.Error(), e.State, e.Action, e.Next)
	}
	return fmt.Sprintf("%s: s=%d a=%d sums to %.9g",
		ErrInvalidDistribution.Error(), e.State, e.Action, e.Sum)
}

func (e *DistributionError) Unwrap() error {
	return ErrInvalidDistribution
}

// RangeError reports an accessor call with an invalid state index.
type RangeError struct {
	Index int
	Size  int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: %d not in [0, %d)", ErrOutOfRange.Error(), e.Index, e.Size)
}

func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}
