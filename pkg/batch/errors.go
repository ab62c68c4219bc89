package batch

import (
	pkgerrors "github.com/pkg/errors"

	"github.com/bytecodeflow/jvmtac/pkg/cfg"
	"github.com/bytecodeflow/jvmtac/pkg/defuse"
	"github.com/bytecodeflow/jvmtac/pkg/interp"
)

// Kind names the failure taxonomy a single method's run through the
// pipeline can fall into. Every value here has a concrete source elsewhere
// in the module; Kind only gives a caller a way to branch on it without
// string-matching an error message.
type Kind int

const (
	// KindUnknown wraps any error none of the recognized sentinels
	// underlie — still surfaced, just not classifiable further.
	KindUnknown Kind = iota
	BytecodeProcessingFailure
	InterpretationTimeout
	InterpretationBudgetExhausted
	InconsistentDefUse
	CFGInconsistency
	ControlDependenceTimeout
	SubroutineNotSupported
)

func (k Kind) String() string {
	switch k {
	case BytecodeProcessingFailure:
		return "BytecodeProcessingFailure"
	case InterpretationTimeout:
		return "InterpretationTimeout"
	case InterpretationBudgetExhausted:
		return "InterpretationBudgetExhausted"
	case InconsistentDefUse:
		return "InconsistentDefUse"
	case CFGInconsistency:
		return "CFGInconsistency"
	case ControlDependenceTimeout:
		return "ControlDependenceTimeout"
	case SubroutineNotSupported:
		return "SubroutineNotSupported"
	default:
		return "Unknown"
	}
}

// ErrSubroutineNotSupported is the sentinel for the SubroutineNotSupported
// kind: classify maps any error wrapping it to that kind. No stage in this
// module returns it; pkg/interp resolves jsr/ret round trips itself.
var ErrSubroutineNotSupported = pkgerrors.New("batch: method uses a subroutine shape this pipeline cannot resolve")

// ClassifiedError pairs a taxonomy Kind with the underlying error a stage
// of the pipeline (pkg/interp, pkg/defuse, pkg/cfg, pkg/tac) actually
// returned, so both errors.Is/As against the cause and a coarse switch on
// Kind are available to callers.
type ClassifiedError struct {
	Kind  Kind
	Cause error
}

func (e *ClassifiedError) Error() string { return e.Kind.String() + ": " + e.Cause.Error() }
func (e *ClassifiedError) Unwrap() error { return e.Cause }

func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case pkgerrors.Is(err, interp.ErrDeadlineExceeded):
		return &ClassifiedError{Kind: InterpretationTimeout, Cause: err}
	case pkgerrors.Is(err, interp.ErrBudgetExceeded):
		return &ClassifiedError{Kind: InterpretationBudgetExhausted, Cause: err}
	case pkgerrors.Is(err, defuse.ErrInconsistentDefUse):
		return &ClassifiedError{Kind: InconsistentDefUse, Cause: err}
	case pkgerrors.Is(err, cfg.ErrControlDependenceTimeout):
		return &ClassifiedError{Kind: ControlDependenceTimeout, Cause: err}
	case pkgerrors.Is(err, ErrSubroutineNotSupported):
		return &ClassifiedError{Kind: SubroutineNotSupported, Cause: err}
	case pkgerrors.Is(err, interp.ErrStackUnderflow), pkgerrors.Is(err, interp.ErrUninitializedLocal):
		return &ClassifiedError{Kind: BytecodeProcessingFailure, Cause: err}
	default:
		return &ClassifiedError{Kind: KindUnknown, Cause: err}
	}
}

// checkCFGSymmetry is the CFGInconsistency source: every predecessor edge
// must have a matching successor edge and vice versa (spec.md's I-CFG
// invariants), checked once per method after the AI-based graph is built.
func checkCFGSymmetry(g *cfg.CFG) error {
	if from, to, violated := g.CheckEdgeSymmetry(); violated {
		return &ClassifiedError{
			Kind:  CFGInconsistency,
			Cause: pkgerrors.Errorf("cfg: edge %d->%d is not recorded symmetrically", from, to),
		}
	}
	return nil
}
