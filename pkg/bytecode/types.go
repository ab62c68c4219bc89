// Package bytecode defines the immutable JVM instruction model: the tagged
// union of opcodes, the value-origin encoding values carry through the rest
// of the pipeline, and the Code bundle (instruction array, exception
// handler table, optional line numbers) that a class-file reader hands to
// the interpreter.
//
// Everything in this package is a leaf: it has no notion of control flow,
// dataflow, or abstract values. It only decodes and names.
package bytecode

// ComputationalType is the JVM's coarsened runtime type used to size stack
// slots and local-variable slots. Every Instruction, domain value, and TAC
// expression carries one of these.
type ComputationalType int

const (
	TInt ComputationalType = iota
	TLong
	TFloat
	TDouble
	TReference
	TReturnAddress
)

func (t ComputationalType) String() string {
	switch t {
	case TInt:
		return "int"
	case TLong:
		return "long"
	case TFloat:
		return "float"
	case TDouble:
		return "double"
	case TReference:
		return "reference"
	case TReturnAddress:
		return "returnAddress"
	default:
		return "unknown"
	}
}

// OperandSize returns the number of stack/local slots a value of this
// computational type occupies: 2 for the wide categories (long, double),
// 1 otherwise.
func (t ComputationalType) OperandSize() int {
	if t == TLong || t == TDouble {
		return 2
	}
	return 1
}

// IsCategory2 reports whether a value of this type occupies two consecutive
// local slots / two stack words, per the JVM spec's category-2 rule.
func (t ComputationalType) IsCategory2() bool {
	return t == TLong || t == TDouble
}
