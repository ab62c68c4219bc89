package interp

import "github.com/pkg/errors"

// ErrBudgetExceeded is returned when the worklist consumes more steps than
// config.Configuration.Budget allows for the method being evaluated.
var ErrBudgetExceeded = errors.New("interp: evaluation budget exceeded")

// ErrDeadlineExceeded is returned when config.Configuration.MaxEvaluationTimeMs
// elapses before the fixpoint converges. Cancellation or expiry of the
// caller's ctx makes Run return ctx.Err() instead.
var ErrDeadlineExceeded = errors.New("interp: evaluation deadline exceeded")

// ErrStackUnderflow signals an instruction popped more values than the
// operand stack held — a verifier-level invariant violation in the input
// bytecode, not a condition real JVM bytecode can trigger.
var ErrStackUnderflow = errors.New("interp: operand stack underflow")

// ErrUninitializedLocal signals a LoadLocal (or Ret, or IncLocal) read a
// local slot the entry state never marked live.
var ErrUninitializedLocal = errors.New("interp: read of a local variable that is not live on this path")
