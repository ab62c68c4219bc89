package tac

import "github.com/bytecodeflow/jvmtac/pkg/bytecode"

// Statement is the sum type of every TAC instruction. Control-flow
// statements (If/Goto/Switch/JumpToSubroutine/Ret) carry pcs until the
// final remap pass rewrites them to statement indices.
type Statement interface {
	stmtNode()
}

// Nop is emitted for a stack-management/local-load-store instruction that
// starts its basic block (preserving the block boundary), and for any
// side-effect-free, def-producing instruction whose result is never used.
type Nop struct{}

func (Nop) stmtNode() {}

// Assignment is `lhs := rhs`: the one shape that introduces a DVar.
type Assignment struct {
	LHS *DVar
	RHS Expression
}

func (*Assignment) stmtNode() {}

// ExprStmt evaluates Expr for its side effect (a call whose return value
// nobody reads).
type ExprStmt struct {
	Expr Expression
}

func (*ExprStmt) stmtNode() {}

// FailingExpr wraps an expression whose successor pc was never reached —
// the instruction's side effect (e.g. a division that actually raises
// ArithmeticException) may still occur, but no value escapes it.
type FailingExpr struct {
	Expr Expression
}

func (*FailingExpr) stmtNode() {}

// PutField/PutStatic/ArrayStore are the three write-only field/array
// statements.
type PutField struct {
	Field             bytecode.FieldRef
	Receiver, Value   Expression
}

func (*PutField) stmtNode() {}

type PutStatic struct {
	Field bytecode.FieldRef
	Value Expression
}

func (*PutStatic) stmtNode() {}

type ArrayStore struct {
	ElementType        bytecode.ComputationalType
	Array, Index, Value Expression
}

func (*ArrayStore) stmtNode() {}

// Checkcast passes its operand through unchanged (not a def site) but is
// still modeled as a statement because it can raise ClassCastException.
type Checkcast struct {
	TargetType string
	Operand    Expression
}

func (*Checkcast) stmtNode() {}

type MonitorEnter struct{ Operand Expression }
type MonitorExit struct{ Operand Expression }

func (*MonitorEnter) stmtNode() {}
func (*MonitorExit) stmtNode() {}

type Throw struct{ Operand Expression }

func (*Throw) stmtNode() {}

type Return struct{}
type ReturnValue struct{ Operand Expression }

func (Return) stmtNode()       {}
func (*ReturnValue) stmtNode() {}

// If is every conditional-branch family collapsed to one shape (mirroring
// bytecode.If): RHS is nil for the unary (compare-against-zero/null)
// forms. Target starts as a pc and is rewritten to a statement index
// by the final remap pass.
type If struct {
	LHS, RHS Expression
	Cond     bytecode.IfCondition
	Unary    bool
	Target   int
}

func (*If) stmtNode() {}

// Goto unconditionally transfers to Target (a pc until remap).
type Goto struct {
	Target int
}

func (*Goto) stmtNode() {}

// SwitchCase is one (value, target) arm of a Switch; Target is a pc until
// remap.
type SwitchCase struct {
	Value  int32
	Target int
}

// Switch is tableswitch/lookupswitch collapsed to one shape.
type Switch struct {
	Key     Expression
	Cases   []SwitchCase
	Default int
}

func (*Switch) stmtNode() {}

// StaticMethodCall/VirtualMethodCall/NonVirtualMethodCall are the
// void-returning invocation shapes.
type StaticMethodCall struct {
	Method bytecode.MethodRef
	Args   []Expression
}

func (*StaticMethodCall) stmtNode() {}

type VirtualMethodCall struct {
	Method   bytecode.MethodRef
	Receiver Expression
	Args     []Expression
}

func (*VirtualMethodCall) stmtNode() {}

type NonVirtualMethodCall struct {
	Method   bytecode.MethodRef
	Receiver Expression
	Args     []Expression
}

func (*NonVirtualMethodCall) stmtNode() {}

// InvokedynamicStmt is invokedynamic with no return value.
type InvokedynamicStmt struct {
	BootstrapName string
	Args          []Expression
}

func (*InvokedynamicStmt) stmtNode() {}

// JumpToSubroutine is jsr/jsr_w: Target is a pc until remap.
type JumpToSubroutine struct {
	Target int
}

func (*JumpToSubroutine) stmtNode() {}

// Ret is a subroutine return; SuccPCs are the dynamically-resolved
// successor pcs the abstract interpreter recorded (one per jsr whose
// return address reached this ret), rewritten to statement indices by the
// final remap pass.
type Ret struct {
	SuccPCs []int
}

func (*Ret) stmtNode() {}

// CaughtException is the synthetic statement inserted immediately before
// a handler's first real statement: it is the def site for the caught
// throwable (spec.md §4.4/§4.6). Its presence is also recorded in the
// lifter's handlerSynthetic map (handler pc -> statement index) so a
// previously-singleton basic block can expand correctly during CFG remap.
type CaughtException struct {
	DVar *DVar
}

func (*CaughtException) stmtNode() {}
