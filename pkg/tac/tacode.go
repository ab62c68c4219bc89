package tac

import (
	"github.com/bytecodeflow/jvmtac/pkg/bytecode"
	"github.com/bytecodeflow/jvmtac/pkg/domain"
)

// Parameter is one entry of the Parameters block: a declared parameter
// (or, for instance methods, the receiver) together with the statement
// indices that use it.
type Parameter struct {
	Origin   int // -1 for the receiver, -2, -3, ... for declared parameters
	Value    domain.Value
	Type     bytecode.ComputationalType
	UseSites []int
}

// Parameters is the TAC's entry block: one Parameter per declared
// parameter plus, for instance methods, a receiver at origin -1.
type Parameters struct {
	Entries []Parameter
}

// ExceptionHandler mirrors bytecode.ExceptionHandler with its three pcs
// rewritten to statement indices.
type ExceptionHandler struct {
	StartStmt, EndStmt, HandlerStmt int
	CatchType                       string
}

// Block is one basic block of the by-index CFG: StartStmt/EndStmt bound
// an inclusive statement-index range, mirroring cfg.BasicBlock but in
// statement-index space instead of pc space.
type Block struct {
	StartStmt, EndStmt int
	IsHandlerEntry     bool
	Predecessors       []int
	Successors         []int
}

// CFG is the control-flow graph remapped into statement-index space (the
// result of spec.md §4.6's "CFG/handler remap" over the AI-based CFG
// pkg/interp produced).
type CFG struct {
	Blocks []Block
}

// TACode is the lifter's output: the entry Parameters block, the
// statement array, the by-index CFG and exception-handler table, and an
// optional source line-number table (consulted only for diagnostics).
type TACode struct {
	Parameters        Parameters
	Statements        []Statement
	CFG               CFG
	ExceptionHandlers []ExceptionHandler
	LineNumberTable   []bytecode.LineNumberEntry
}
