package interp

import (
	"github.com/bytecodeflow/jvmtac/pkg/bytecode"
	"github.com/bytecodeflow/jvmtac/pkg/defuse"
	"github.com/bytecodeflow/jvmtac/pkg/domain"
)

// frame is the abstract state the worklist threads through the fixpoint:
// an operand stack and a local-variable table, each value paired with the
// set of origins that could have produced it.
type frame struct {
	stack        []domain.Value
	stackOrigins []defuse.OriginSet

	locals       []domain.Value
	localOrigins []defuse.OriginSet
	localLive    []bool
}

func newFrame(maxLocals int) *frame {
	return &frame{
		locals:       make([]domain.Value, maxLocals),
		localOrigins: make([]defuse.OriginSet, maxLocals),
		localLive:    make([]bool, maxLocals),
	}
}

func (f *frame) clone() *frame {
	cp := &frame{
		stack:        append([]domain.Value(nil), f.stack...),
		stackOrigins: append([]defuse.OriginSet(nil), f.stackOrigins...),
		locals:       append([]domain.Value(nil), f.locals...),
		localOrigins: append([]defuse.OriginSet(nil), f.localOrigins...),
		localLive:    append([]bool(nil), f.localLive...),
	}
	return cp
}

func (f *frame) push(v domain.Value, origin defuse.OriginSet) {
	f.stack = append(f.stack, v)
	f.stackOrigins = append(f.stackOrigins, origin)
}

func (f *frame) pop() (domain.Value, defuse.OriginSet, error) {
	n := len(f.stack)
	if n == 0 {
		return nil, nil, ErrStackUnderflow
	}
	v, o := f.stack[n-1], f.stackOrigins[n-1]
	f.stack = f.stack[:n-1]
	f.stackOrigins = f.stackOrigins[:n-1]
	return v, o, nil
}

func (f *frame) popN(n int) ([]domain.Value, []defuse.OriginSet, error) {
	if len(f.stack) < n {
		return nil, nil, ErrStackUnderflow
	}
	start := len(f.stack) - n
	vals := append([]domain.Value(nil), f.stack[start:]...)
	origs := append([]defuse.OriginSet(nil), f.stackOrigins[start:]...)
	f.stack = f.stack[:start]
	f.stackOrigins = f.stackOrigins[:start]
	return vals, origs, nil
}

func (f *frame) setLocal(slot int, v domain.Value, origin defuse.OriginSet) {
	f.locals[slot] = v
	f.localOrigins[slot] = origin
	f.localLive[slot] = true
}

func (f *frame) getLocal(slot int) (domain.Value, defuse.OriginSet, error) {
	if slot < 0 || slot >= len(f.locals) || !f.localLive[slot] {
		return nil, nil, ErrUninitializedLocal
	}
	return f.locals[slot], f.localOrigins[slot], nil
}

// joinSeverity orders the three JoinResult kinds so the overall outcome of
// joining a whole frame is the worst (most-must-reschedule) severity seen
// across any slot.
func joinSeverity(k domain.JoinKind) int {
	switch k {
	case domain.NoUpdate:
		return 0
	case domain.MetaUpdate:
		return 1
	default:
		return 2
	}
}

func worseSeverity(a, b domain.JoinKind) domain.JoinKind {
	if joinSeverity(b) > joinSeverity(a) {
		return b
	}
	return a
}

// joinFrames merges incoming into existing (which may be nil, meaning pc
// has never been visited) and returns the merged frame plus the overall
// join outcome. existing is never mutated; a fresh frame is returned
// whenever the result differs.
func joinFrames(dom domain.Domain, existing, incoming *frame) (*frame, domain.JoinKind) {
	if existing == nil {
		return incoming.clone(), domain.StructuralUpdate
	}

	merged := existing.clone()
	overall := domain.NoUpdate

	for i := range merged.stack {
		v, kind := joinSlot(dom, merged.stack[i], merged.stackOrigins[i], incoming.stack[i], incoming.stackOrigins[i])
		if kind != domain.NoUpdate {
			merged.stack[i] = v
			overall = worseSeverity(overall, kind)
		}
		mergedOrigins := defuse.Union(merged.stackOrigins[i], incoming.stackOrigins[i])
		if !mergedOrigins.Equal(merged.stackOrigins[i]) {
			merged.stackOrigins[i] = mergedOrigins
			overall = worseSeverity(overall, domain.MetaUpdate)
		}
	}

	for i := range merged.locals {
		if !incoming.localLive[i] {
			continue
		}
		if !merged.localLive[i] {
			merged.localLive[i] = true
			merged.locals[i] = incoming.locals[i]
			merged.localOrigins[i] = incoming.localOrigins[i]
			overall = domain.StructuralUpdate
			continue
		}
		v, kind := joinSlot(dom, merged.locals[i], merged.localOrigins[i], incoming.locals[i], incoming.localOrigins[i])
		if kind != domain.NoUpdate {
			merged.locals[i] = v
			overall = worseSeverity(overall, kind)
		}
		mergedOrigins := defuse.Union(merged.localOrigins[i], incoming.localOrigins[i])
		if !mergedOrigins.Equal(merged.localOrigins[i]) {
			merged.localOrigins[i] = mergedOrigins
			overall = worseSeverity(overall, domain.MetaUpdate)
		}
	}

	return merged, overall
}

func joinSlot(dom domain.Domain, a domain.Value, _ defuse.OriginSet, b domain.Value, _ defuse.OriginSet) (domain.Value, domain.JoinKind) {
	res := dom.Join(a, b)
	if res.Kind == domain.NoUpdate {
		return a, domain.NoUpdate
	}
	return res.Value, res.Kind
}

// exceptionFrame builds the one-element entry state a handler sees:
// locals carried over unchanged, stack cleared to just the thrown value.
func exceptionFrame(locals *frame, thrown domain.Value, origin bytecode.Origin) *frame {
	f := locals.clone()
	f.stack = nil
	f.stackOrigins = nil
	f.push(thrown, defuse.Single(origin))
	return f
}
