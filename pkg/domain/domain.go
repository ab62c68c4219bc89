// Package domain declares the abstract-domain capability set the
// interpreter (pkg/interp) drives (spec.md §4.2): value factories, joins,
// one transfer function per opcode family, exception-raising
// classification, and optional reference refinement. The domain is
// intentionally polymorphic — this package only declares interfaces; a
// concrete lattice lives in pkg/domain/typeonly.
package domain

import (
	"github.com/bytecodeflow/jvmtac/pkg/bytecode"
)

// Value is an abstract representation of one JVM runtime value. Every
// concrete domain's value type satisfies this minimal surface; anything
// domain-specific (intervals, points-to sets, constant folding, ...) is
// opaque to the interpreter and lifter, which only ever compare, join, and
// re-attach values — they never inspect a Value's internals.
type Value interface {
	ComputationalType() bytecode.ComputationalType
	String() string
}

// JoinKind tags the three possible outcomes of joining two values at a
// control-flow merge (spec.md §3/§4.2).
type JoinKind int

const (
	// NoUpdate means the existing slot value already subsumes the
	// incoming one; the successor need not be re-scheduled.
	NoUpdate JoinKind = iota
	// StructuralUpdate means the join produced a strictly more general
	// value and the successor must be re-scheduled.
	StructuralUpdate
	// MetaUpdate means bookkeeping on the existing value changed (e.g. a
	// use-site set grew) without requiring the successor to be
	// re-evaluated.
	MetaUpdate
)

// JoinResult is the outcome of joining two values at a merge point.
// Value is meaningful only for StructuralUpdate and MetaUpdate.
type JoinResult struct {
	Kind  JoinKind
	Value Value
}

// FieldRef and MethodRef are re-exported from pkg/bytecode purely so
// domain implementations do not need to import it just for these two
// small structs; see bytecode.FieldRef / bytecode.MethodRef.
type FieldRef = bytecode.FieldRef
type MethodRef = bytecode.MethodRef

// Domain is the capability set the interpreter requires. Implementations
// are expected to be pure functions of their inputs (no hidden global
// state — spec.md §9 explicitly calls this out) so that two interpreter
// runs over the same method produce equal results (the Idempotence law,
// spec.md §8).
type Domain interface {
	// --- factories ---

	// Parameter produces the initial value for a method parameter or
	// receiver at the given (negative) origin.
	Parameter(origin bytecode.Origin, t bytecode.ComputationalType) Value
	// Illegal produces the distinguished value occupying the second slot
	// of a category-2 local or stack position.
	Illegal() Value
	// Thrown produces the value pushed onto a handler's one-element
	// entry stack: a throwable of (possibly unknown) exceptionType,
	// originating at origin (spec.md §4.3: "marked as VM-level when
	// raised by the VM, marked as the athrow pc when raised by user
	// code").
	Thrown(origin bytecode.Origin, exceptionType string) Value

	IntConst(v int32) Value
	LongConst(v int64) Value
	FloatConst(v float32) Value
	DoubleConst(v float64) Value
	StringConst(v string) Value
	ClassConst(internalName string) Value
	NullConst() Value
	MethodHandleConst() Value
	MethodTypeConst() Value

	// --- join ---

	Join(a, b Value) JoinResult

	// --- transfer functions, one per opcode family (spec.md §4.2) ---

	BinaryArith(op bytecode.BinaryOp, t bytecode.ComputationalType, a, b Value) (Value, error)
	UnaryArith(t bytecode.ComputationalType, a Value) (Value, error)
	Convert(from, to bytecode.ComputationalType, v Value) (Value, error)
	Compare(op bytecode.CompareOp, a, b Value) (Value, error)

	ArrayLoad(arrayRef, index Value, elemType bytecode.ComputationalType) (Value, error)
	ArrayStore(arrayRef, index, val Value) error
	ArrayLength(arrayRef Value) (Value, error)

	NewObject(className string) (Value, error)
	NewArray(lengths []Value, className string, dims int) (Value, error)

	GetField(receiver Value, f FieldRef) (Value, error)
	PutField(receiver, val Value, f FieldRef) error
	GetStatic(f FieldRef) (Value, error)
	PutStatic(val Value, f FieldRef) error

	// Invoke models static/virtual/special/interface dispatch. hasResult
	// is false for a void callee; result is meaningless in that case.
	Invoke(shape bytecode.InvokeShape, receiver Value, args []Value, m MethodRef) (result Value, hasResult bool, err error)
	InvokeDynamic(args []Value, d *bytecode.InvokeDynamic) (result Value, hasResult bool, err error)

	Checkcast(v Value, targetType string) (Value, error)
	InstanceOf(v Value, targetType string) (Value, error)

	MonitorEnter(v Value) error
	MonitorExit(v Value) error
	Throw(v Value) error

	// --- exception classification (spec.md §4.2, §6) ---

	// PossibleVMExceptions lists the internal class names of exceptions
	// instr could raise at the VM level. An empty result means the
	// instruction can never fail on its own (stack management, constant
	// pushes, arithmetic that cannot divide by zero, ...).
	PossibleVMExceptions(instr bytecode.Instruction) []string

	// --- reference refinement (optional) ---

	// RefineNonNull narrows v at a point where it is known not to be
	// null (e.g. the non-null arm of an ifnull/ifnonnull). Domains that
	// do not track nullability may return v unchanged.
	RefineNonNull(v Value) Value
	// RefineType narrows v's static type after a successful checkcast.
	RefineType(v Value, typeName string) Value
}
