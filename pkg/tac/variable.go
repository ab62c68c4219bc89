package tac

import (
	"github.com/bytecodeflow/jvmtac/pkg/bytecode"
	"github.com/bytecodeflow/jvmtac/pkg/domain"
)

// Variable is the sum type of the two ways a TAC value gets a name: a
// definition (DVar) or a use (UVar). Both carry the domain value observed
// at that point so a reader never has to re-run the interpreter to know a
// variable's abstract type.
type Variable interface {
	Expression
	variableNode()
}

// DVar is a definition: the unique statement that produces this value.
// Origin starts life as the defining pc and is rewritten to the final
// statement index the moment the statement is appended — no deferred
// remap is needed for it, since a statement's array position is known as
// soon as it exists. UseSites and ObsoleteUseSites, by contrast, name
// other (possibly not-yet-emitted) pcs and are only translated to
// statement indices by the final remap pass.
type DVar struct {
	Origin int
	Value  domain.Value

	// UseSites are the statement indices (pcs until remap) that read this
	// definition.
	UseSites []int

	// ObsoleteUseSites holds use sites a degenerate-conditional collapse
	// made moot (spec.md's "obsolete use site" pruning is enqueued here
	// but never actually pruned from UseSites — see DESIGN.md's Open
	// Questions resolution).
	ObsoleteUseSites []int
}

func (d *DVar) variableNode() {}
func (d *DVar) exprNode()     {}
func (d *DVar) ComputationalType() bytecode.ComputationalType { return d.Value.ComputationalType() }
func (d *DVar) String() string { return d.Value.String() }

// UVar is a use: a reference to a value whose definition(s) are named by
// DefSites. More than one def site means this use sits at a control-flow
// merge that combined values from distinct definitions without the
// interpreter ever materializing a phi node (spec.md §4.4's "origin
// sets"). DefSites entries are pcs (parameter origins stay negative,
// VM-level origins keep their distinguished encoding) until the final
// remap pass rewrites instruction-origin entries to statement indices.
type UVar struct {
	Value    domain.Value
	DefSites []int
}

func (u *UVar) variableNode() {}
func (u *UVar) exprNode()     {}
func (u *UVar) ComputationalType() bytecode.ComputationalType { return u.Value.ComputationalType() }
func (u *UVar) String() string { return u.Value.String() }
