// Package config holds the tunable knobs that change how pkg/interp
// evaluates a method: exception-raising policy, synchronization handling,
// dead-variable identification, and the evaluation budget. Every knob maps
// directly to one of spec.md §5's configuration parameters.
package config

import (
	"time"

	"github.com/pkg/errors"
)

// Configuration controls one interpreter run. The zero value is not valid;
// use Default() and override only the fields a caller cares about.
type Configuration struct {
	// ThrowAllPotentialExceptions makes the interpreter schedule an
	// exception-handler edge for every VM exception a domain reports as
	// possible for an instruction (pkg/domain's PossibleVMExceptions).
	// When it is false, only an explicit athrow reaches a handler; no
	// domain is asked whether an instruction is certain to raise.
	ThrowAllPotentialExceptions bool

	// IgnoreSynchronization makes monitorenter/monitorexit no-ops for
	// control-flow purposes (they never raise, and are never recorded as
	// def/use sites beyond their operand).
	IgnoreSynchronization bool

	// IdentifyDeadVariables is carried into pkg/batch's cache key and read
	// nowhere else: no package in this module performs liveness analysis,
	// and setting it does not change what pkg/interp or pkg/tac produce.
	IdentifyDeadVariables bool

	// MaxEvaluationFactor bounds the worklist's total step count as a
	// multiple of the method's instruction count, guarding against
	// pathological joins that never stabilize.
	MaxEvaluationFactor float64

	// MaxEvaluationTimeMs bounds wall-clock time for one method's
	// evaluation; 0 means no deadline (the caller's ctx, if any, still
	// applies).
	MaxEvaluationTimeMs int
}

// Default returns the configuration used when a caller has no specific
// requirements: conservative exception handling off (only an explicit
// athrow reaches a handler), synchronization honored, dead-variable
// identification on, and a generous but finite budget.
func Default() Configuration {
	return Configuration{
		ThrowAllPotentialExceptions: false,
		IgnoreSynchronization:       false,
		IdentifyDeadVariables:       true,
		MaxEvaluationFactor:         1000,
		MaxEvaluationTimeMs:         5000,
	}
}

// Validate reports whether c is usable, catching the mistakes a caller who
// hand-builds a Configuration is most likely to make.
func (c Configuration) Validate() error {
	if c.MaxEvaluationFactor <= 0 {
		return errors.New("config: MaxEvaluationFactor must be positive")
	}
	if c.MaxEvaluationTimeMs < 0 {
		return errors.New("config: MaxEvaluationTimeMs must not be negative")
	}
	return nil
}

// Budget computes the absolute worklist-step ceiling for a method with the
// given instruction count.
func (c Configuration) Budget(instructionCount int) int {
	budget := float64(instructionCount) * c.MaxEvaluationFactor
	if budget < 1 {
		return 1
	}
	return int(budget)
}

// Deadline returns the wall-clock deadline implied by MaxEvaluationTimeMs
// relative to now, and false if no deadline is configured.
func (c Configuration) Deadline(now time.Time) (time.Time, bool) {
	if c.MaxEvaluationTimeMs <= 0 {
		return time.Time{}, false
	}
	return now.Add(time.Duration(c.MaxEvaluationTimeMs) * time.Millisecond), true
}
