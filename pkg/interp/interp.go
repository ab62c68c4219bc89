// Package interp implements the abstract interpreter: a worklist fixpoint
// over a method's bytecode that threads an operand-stack/locals frame
// through every reachable instruction, asking a domain.Domain to compute
// transfer functions and recording every definition and use it observes
// along the way. The control-flow edges the worklist actually traverses
// are simultaneously fed into a cfg.Recorder, so the resulting CFG is
// restricted to pcs the fixpoint reached (the "AI-based" graph), as
// opposed to the purely syntactic "BR-based" one pkg/cfg can also build
// from a decoded Code alone.
package interp

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bits-and-blooms/bitset"
	pkgerrors "github.com/pkg/errors"

	"github.com/bytecodeflow/jvmtac/pkg/bytecode"
	"github.com/bytecodeflow/jvmtac/pkg/cfg"
	"github.com/bytecodeflow/jvmtac/pkg/config"
	"github.com/bytecodeflow/jvmtac/pkg/defuse"
	"github.com/bytecodeflow/jvmtac/pkg/domain"
	"github.com/bytecodeflow/jvmtac/pkg/hierarchy"
)

// MethodInput describes the method being evaluated: its decoded bytecode
// plus the parts of its signature the interpreter needs to lay out the
// entry frame (the rest of the signature — name, owning class — is the
// caller's business, not the interpreter's).
type MethodInput struct {
	Code       *bytecode.Code
	MaxLocals  int
	IsStatic   bool
	ParamTypes []bytecode.ComputationalType
}

// Result is everything the worklist produced: the def/use graph, the
// AI-based control-flow graph, and per-pc frame snapshots queryable by
// later pipeline stages (principally the TAC lifter).
type Result struct {
	DefUse  *defuse.Recorder
	CFG     *cfg.CFG
	Steps   int
	Returns []ReturnValue

	entryStates map[int]*frame
}

// ReturnValue records one Return/ReturnValue instruction the fixpoint
// reached, together with the value (if any) it hands back to the caller.
type ReturnValue struct {
	PC       int
	Value    domain.Value
	HasValue bool
	Origins  defuse.OriginSet
}

// Visited reports whether pc's entry frame was ever recorded — i.e.
// whether the fixpoint reached pc at all.
func (r *Result) Visited(pc int) bool { _, ok := r.entryStates[pc]; return ok }

// EvaluatedPCs returns every pc the fixpoint reached, in ascending order —
// the "reachable pcs only, in pc order" set pkg/tac's core rewrite walks.
func (r *Result) EvaluatedPCs() []int {
	out := make([]int, 0, len(r.entryStates))
	for pc := range r.entryStates {
		out = append(out, pc)
	}
	sort.Ints(out)
	return out
}

// StackAt returns the entry operand stack at pc, bottom first.
func (r *Result) StackAt(pc int) []domain.Value {
	f, ok := r.entryStates[pc]
	if !ok {
		return nil
	}
	return f.stack
}

// StackOriginsAt returns the origin set of every entry-stack slot at pc,
// aligned with StackAt's result.
func (r *Result) StackOriginsAt(pc int) []defuse.OriginSet {
	f, ok := r.entryStates[pc]
	if !ok {
		return nil
	}
	return f.stackOrigins
}

// LocalAt returns the entry value of local slot at pc, or ok=false if
// that slot was never live on any path reaching pc.
func (r *Result) LocalAt(pc, slot int) (domain.Value, bool) {
	f, ok := r.entryStates[pc]
	if !ok || slot < 0 || slot >= len(f.locals) || !f.localLive[slot] {
		return nil, false
	}
	return f.locals[slot], true
}

// LocalOriginAt mirrors LocalAt for the slot's origin set.
func (r *Result) LocalOriginAt(pc, slot int) (defuse.OriginSet, bool) {
	f, ok := r.entryStates[pc]
	if !ok || slot < 0 || slot >= len(f.locals) || !f.localLive[slot] {
		return nil, false
	}
	return f.localOrigins[slot], true
}

func errUnhandledInstruction(instr bytecode.Instruction) error {
	return pkgerrors.Errorf("interp: no transfer function for %T at pc %d", instr, instr.PC())
}

// initialLocals lays out the entry frame: the receiver (if any) occupies
// slot 0 with origin -1, then declared parameters follow starting at
// origin -2 and counting down, each wide (category-2) parameter consuming
// two consecutive local slots the way javac's local-variable allocator
// does.
func initialLocals(dom domain.Domain, maxLocals int, isStatic bool, paramTypes []bytecode.ComputationalType) *frame {
	f := newFrame(maxLocals)
	slot := 0
	nextOrigin := bytecode.Origin(-2)

	if !isStatic {
		v := dom.Parameter(-1, bytecode.TReference)
		f.setLocal(slot, v, defuse.Single(-1))
		slot++
	}

	for _, t := range paramTypes {
		origin := nextOrigin
		nextOrigin--
		v := dom.Parameter(origin, t)
		f.setLocal(slot, v, defuse.Single(origin))
		slot++
		if t.IsCategory2() {
			f.setLocal(slot, dom.Illegal(), defuse.Single(origin))
			slot++
		}
	}

	return f
}

// Run evaluates in to a fixpoint, honoring conf's budget and deadline and
// reporting progress to tracer (pass NoopTracer{} for none). ctx cancels
// the worklist cooperatively, checked once per scheduled pc.
func Run(ctx context.Context, dom domain.Domain, h hierarchy.Hierarchy, in MethodInput, conf config.Configuration, tracer Tracer) (*Result, error) {
	if tracer == nil {
		tracer = NoopTracer{}
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	code := in.Code
	du := defuse.NewRecorder()
	cfgRec := cfg.NewRecorder()

	entryStates := map[int]*frame{0: initialLocals(dom, in.MaxLocals, in.IsStatic, in.ParamTypes)}
	queue := []int{0}
	queued := bitset.New(uint(code.CodeSize() + 1))
	queued.Set(0)
	cfgRec.MarkReachable(0)

	budget := conf.Budget(len(code.AllPCs()))
	var deadline time.Time
	var hasDeadline bool
	if dl, ok := conf.Deadline(time.Now()); ok {
		deadline = dl
		hasDeadline = true
	}

	var returns []ReturnValue
	steps := 0

	schedule := func(target int, incoming *frame) {
		existing := entryStates[target]
		merged, kind := joinFrames(dom, existing, incoming)
		tracer.OnJoin(target, kind)
		if kind == domain.NoUpdate {
			return
		}
		entryStates[target] = merged
		if !queued.Test(uint(target)) {
			queue = append(queue, target)
			queued.Set(uint(target))
		}
	}

	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if hasDeadline && time.Now().After(deadline) {
			return nil, ErrDeadlineExceeded
		}
		steps++
		if steps > budget {
			return nil, ErrBudgetExceeded
		}

		pc := queue[0]
		queue = queue[1:]
		queued.Clear(uint(pc))

		instr := code.InstructionAt(pc)
		entry := entryStates[pc]
		tracer.OnStep(pc, instr)

		du.RecordStackEntry(pc, entry.stackOrigins)
		du.RecordLocalsEntry(pc, liveLocalsOf(entry))

		step, err := applyInstruction(dom, h, code, conf, du, pc, instr, entry)
		if err != nil {
			return nil, fmt.Errorf("interp: pc %d: %w", pc, err)
		}

		if step.ret != nil {
			returns = append(returns, ReturnValue{
				PC:       step.ret.pc,
				Value:    step.ret.value,
				HasValue: step.ret.hasValue,
				Origins:  step.ret.origins,
			})
		}

		if _, isJsr := instr.(*bytecode.Jsr); isJsr {
			for _, t := range step.regularTargets {
				cfgRec.MarkSubroutineStart(t)
			}
		}

		for _, target := range step.regularTargets {
			cfgRec.RecordEdge(pc, target)
			schedule(target, step.out)
		}
		for _, ex := range step.excTargets {
			tracer.OnException(pc, ex.excType, ex.pc)
			du.RecordDef(bytecode.Origin(ex.pc))
			cfgRec.MarkHandlerEntry(ex.pc)
			cfgRec.RecordEdge(pc, ex.pc)
			schedule(ex.pc, ex.frame)
		}
	}

	tracer.OnConverged(steps)
	if err := du.CheckInvariants(); err != nil {
		return nil, err
	}

	return &Result{
		DefUse:      du,
		CFG:         cfgRec.Finish(),
		Steps:       steps,
		Returns:     returns,
		entryStates: entryStates,
	}, nil
}

func liveLocalsOf(f *frame) map[int]defuse.OriginSet {
	out := make(map[int]defuse.OriginSet)
	for i, live := range f.localLive {
		if live {
			out[i] = f.localOrigins[i]
		}
	}
	return out
}
