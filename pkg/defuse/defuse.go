// Package defuse accumulates definition/use information while pkg/interp
// runs its worklist fixpoint: which origin(s) could have produced every
// operand-stack and local-variable slot at every pc the interpreter
// (re)evaluated, and which pcs subsequently read each origin. A slot holds
// a *set* of origins rather than one, because a control-flow merge can
// bring together values from more than one definition site without the
// interpreter materializing a phi node — pkg/tac is the layer that turns
// such sets into explicit use-variables with multiple def sites.
package defuse

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/bytecodeflow/jvmtac/pkg/bytecode"
)

// ErrInconsistentDefUse is the sentinel CheckInvariants wraps every
// violation in, so a caller can classify the failure (errors.Is) without
// parsing the message for an invariant tag.
var ErrInconsistentDefUse = errors.New("defuse: recorded def/use graph is inconsistent")

// OriginSet is a small sorted, deduplicated set of origins.
type OriginSet []bytecode.Origin

// Union returns the sorted union of a and b without mutating either.
func Union(a, b OriginSet) OriginSet {
	seen := make(map[bytecode.Origin]bool, len(a)+len(b))
	for _, o := range a {
		seen[o] = true
	}
	grew := false
	for _, o := range b {
		if !seen[o] {
			seen[o] = true
			grew = true
		}
	}
	if !grew && len(a) == len(seen) {
		return a
	}
	out := make(OriginSet, 0, len(seen))
	for o := range seen {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s OriginSet) Equal(other OriginSet) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

func (s OriginSet) Contains(o bytecode.Origin) bool {
	for _, x := range s {
		if x == o {
			return true
		}
	}
	return false
}

// Single builds a one-element OriginSet.
func Single(o bytecode.Origin) OriginSet { return OriginSet{o} }

// Recorder is the "Def/Use Recording Domain" capability. Like cfg.Recorder,
// it is a separate value that interp.Run creates per run and feeds
// alongside the domain, not a domain itself.
type Recorder struct {
	operandEntry map[int][]OriginSet       // pc -> stack origin-sets at entry, bottom to top
	localEntry   map[int]map[int]OriginSet // pc -> local slot -> origin-set
	usedBy       map[bytecode.Origin]map[int]bool
	defined      map[bytecode.Origin]bool
}

// NewRecorder creates an empty def/use recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		operandEntry: make(map[int][]OriginSet),
		localEntry:   make(map[int]map[int]OriginSet),
		usedBy:       make(map[bytecode.Origin]map[int]bool),
		defined:      make(map[bytecode.Origin]bool),
	}
}

// RecordDef marks origin as a value that has actually been produced
// (a defining instruction's result, a parameter/receiver, or a
// VM-synthesized thrown value). Idempotent.
func (r *Recorder) RecordDef(origin bytecode.Origin) {
	r.defined[origin] = true
}

// IsDefined reports whether origin has ever been recorded as a def.
// Parameter, receiver, and VM-level origins are always considered
// defined even without an explicit RecordDef call, since they originate
// outside the method body.
func (r *Recorder) IsDefined(origin bytecode.Origin) bool {
	if bytecode.IsParameterOrigin(origin) || bytecode.IsReceiverOrigin(origin) || bytecode.IsVMLevelValue(origin) {
		return true
	}
	return r.defined[origin]
}

// RecordStackEntry snapshots the operand-stack origin-sets present when pc
// was last (re)evaluated, overwriting any prior snapshot for pc. sets is
// bottom-to-top, matching the interpreter's Push order.
func (r *Recorder) RecordStackEntry(pc int, sets []OriginSet) {
	cp := make([]OriginSet, len(sets))
	copy(cp, sets)
	r.operandEntry[pc] = cp
}

// RecordLocalsEntry snapshots which origin-set occupies each live local
// slot when pc was last (re)evaluated.
func (r *Recorder) RecordLocalsEntry(pc int, locals map[int]OriginSet) {
	cp := make(map[int]OriginSet, len(locals))
	for k, v := range locals {
		cp[k] = v
	}
	r.localEntry[pc] = cp
}

// RecordUse registers that the instruction at pc reads origin (from the
// stack or a local slot). Call once per origin in a consumed OriginSet.
func (r *Recorder) RecordUse(origin bytecode.Origin, atPC int) {
	set, ok := r.usedBy[origin]
	if !ok {
		set = make(map[int]bool)
		r.usedBy[origin] = set
	}
	set[atPC] = true
}

// RecordUseSet is RecordUse applied to every origin in s.
func (r *Recorder) RecordUseSet(s OriginSet, atPC int) {
	for _, o := range s {
		r.RecordUse(o, atPC)
	}
}

// UsedBy returns the sorted, deduplicated set of pcs that read origin.
func (r *Recorder) UsedBy(origin bytecode.Origin) []int {
	set := r.usedBy[origin]
	out := make([]int, 0, len(set))
	for pc := range set {
		out = append(out, pc)
	}
	sort.Ints(out)
	return out
}

// OperandOriginsAt returns the operand-stack origin-set snapshot recorded
// for pc, or nil if pc was never evaluated.
func (r *Recorder) OperandOriginsAt(pc int) []OriginSet { return r.operandEntry[pc] }

// LocalOriginAt returns the origin-set occupying local slot at pc.
func (r *Recorder) LocalOriginAt(pc, slot int) (OriginSet, bool) {
	locals, ok := r.localEntry[pc]
	if !ok {
		return nil, false
	}
	o, ok := locals[slot]
	return o, ok
}

// AllOrigins returns every origin this recorder has observed, either as a
// def or as a use, for callers (pkg/tac) that need to enumerate variables.
func (r *Recorder) AllOrigins() []bytecode.Origin {
	seen := make(map[bytecode.Origin]bool)
	for o := range r.defined {
		seen[o] = true
	}
	for o := range r.usedBy {
		seen[o] = true
	}
	out := make([]bytecode.Origin, 0, len(seen))
	for o := range seen {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CheckInvariants verifies the recorder's internal self-consistency
// (spec.md's I-DU1/I-DU2/I-DU3):
//
//   - I-DU1: every origin that has a recorded use was, at some point,
//     recorded as defined (a real instruction produced it, or it is a
//     parameter/receiver/VM-level origin).
//   - I-DU2: every origin in an entry snapshot's origin-sets has been
//     recorded as defined by the time CheckInvariants runs — nothing
//     flows through the stack or locals without a def.
//   - I-DU3: a use recorded at pc for origin o is only credible if o
//     actually appears in pc's own entry snapshot (stack or locals) —
//     RecordUse must never be called for an origin pc cannot see.
func (r *Recorder) CheckInvariants() error {
	for origin := range r.usedBy {
		if !r.IsDefined(origin) {
			return errors.Wrapf(ErrInconsistentDefUse, "origin %d has recorded uses but was never defined (I-DU1)", origin)
		}
	}
	for pc, sets := range r.operandEntry {
		for _, set := range sets {
			for _, o := range set {
				if !r.IsDefined(o) {
					return errors.Wrapf(ErrInconsistentDefUse, "pc %d's operand stack snapshot contains undefined origin %d (I-DU2)", pc, o)
				}
			}
		}
	}
	for pc, locals := range r.localEntry {
		for slot, set := range locals {
			for _, o := range set {
				if !r.IsDefined(o) {
					return errors.Wrapf(ErrInconsistentDefUse, "pc %d local %d snapshot contains undefined origin %d (I-DU2)", pc, slot, o)
				}
			}
		}
	}
	for origin, uses := range r.usedBy {
		for pc := range uses {
			if !r.originVisibleAt(origin, pc) {
				return errors.Wrapf(ErrInconsistentDefUse, "origin %d recorded as used at pc %d but is not visible in that pc's entry snapshot (I-DU3)", origin, pc)
			}
		}
	}
	return nil
}

func (r *Recorder) originVisibleAt(origin bytecode.Origin, pc int) bool {
	for _, set := range r.operandEntry[pc] {
		if set.Contains(origin) {
			return true
		}
	}
	for _, set := range r.localEntry[pc] {
		if set.Contains(origin) {
			return true
		}
	}
	return false
}
