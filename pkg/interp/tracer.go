package interp

import (
	"go.uber.org/zap"

	"github.com/bytecodeflow/jvmtac/pkg/bytecode"
	"github.com/bytecodeflow/jvmtac/pkg/domain"
)

// Tracer observes worklist progress without influencing it; it is the
// resolution of spec.md's Open Question about debug output — routed
// through a structured logger instead of println, adapted from
// kristofer-smog's interactive Debugger into a passive observer (the
// worklist has no interactive pause/resume concept to preserve).
type Tracer interface {
	OnStep(pc int, instr bytecode.Instruction)
	OnJoin(pc int, kind domain.JoinKind)
	OnException(pc int, excType string, handlerPC int)
	OnConverged(steps int)
}

// NoopTracer discards every event; it is the default when a caller passes
// no tracer.
type NoopTracer struct{}

func (NoopTracer) OnStep(int, bytecode.Instruction)  {}
func (NoopTracer) OnJoin(int, domain.JoinKind)        {}
func (NoopTracer) OnException(int, string, int)       {}
func (NoopTracer) OnConverged(int)                    {}

// ZapTracer logs every event at Debug level through a zap.SugaredLogger,
// matching the ambient logging stack the rest of this module uses.
type ZapTracer struct {
	log *zap.SugaredLogger
}

// NewZapTracer wraps log (pass zap.NewNop().Sugar() to silence it without
// switching back to NoopTracer).
func NewZapTracer(log *zap.SugaredLogger) *ZapTracer {
	return &ZapTracer{log: log}
}

func (t *ZapTracer) OnStep(pc int, instr bytecode.Instruction) {
	t.log.Debugw("interp.step", "pc", pc, "opcode", instr.Opcode().String())
}

func (t *ZapTracer) OnJoin(pc int, kind domain.JoinKind) {
	t.log.Debugw("interp.join", "pc", pc, "kind", joinKindString(kind))
}

func (t *ZapTracer) OnException(pc int, excType string, handlerPC int) {
	t.log.Debugw("interp.exception", "pc", pc, "type", excType, "handlerPC", handlerPC)
}

func (t *ZapTracer) OnConverged(steps int) {
	t.log.Debugw("interp.converged", "steps", steps)
}

func joinKindString(k domain.JoinKind) string {
	switch k {
	case domain.NoUpdate:
		return "no-update"
	case domain.MetaUpdate:
		return "meta-update"
	case domain.StructuralUpdate:
		return "structural-update"
	default:
		return "unknown"
	}
}
