package interp

import (
	"github.com/bytecodeflow/jvmtac/pkg/bytecode"
	"github.com/bytecodeflow/jvmtac/pkg/hierarchy"
)

// exceptionEdge is one handler this instruction's exceptional control flow
// could reach, together with the (possibly unknown) exception type that
// would reach it.
type exceptionEdge struct {
	handler bytecode.ExceptionHandler
	excType string // "" if unknown (conservative catch-all match)
}

// possiblyRaisedTypes lists the exception types instr might raise,
// honoring the ThrowAllPotentialExceptions knob: Athrow always raises
// (its thrown value's static type if the domain can supply one, else
// unknown), everything else only raises when the caller opted into
// pessimistic VM-exception classification.
func possiblyRaisedTypes(instr bytecode.Instruction, thrownType string, throwAll bool, possibleVM []string) []string {
	if _, ok := instr.(*bytecode.Athrow); ok {
		if thrownType != "" {
			return []string{thrownType}
		}
		return []string{""}
	}
	if !throwAll {
		return nil
	}
	return possibleVM
}

// matchingHandlers resolves, for one raised exception type, the first
// handler covering pc whose catch type could apply — mirroring the JVM's
// "first matching entry in table order" handler-selection rule. An empty
// excType (unknown dynamic type) conservatively matches every handler
// covering pc.
func matchingHandlers(code *bytecode.Code, pc int, excType string, h hierarchy.Hierarchy) []bytecode.ExceptionHandler {
	var out []bytecode.ExceptionHandler
	for _, handler := range code.HandlersCovering(pc) {
		if handler.CatchType == "" {
			out = append(out, handler)
			break
		}
		if excType == "" {
			out = append(out, handler)
			continue
		}
		if h == nil {
			out = append(out, handler)
			continue
		}
		if excType == handler.CatchType || h.IsSubtype(excType, handler.CatchType) {
			out = append(out, handler)
			break
		}
	}
	return out
}

// exceptionEdgesFor computes every (handler, excType) pair instr's
// exceptional control flow could reach from pc.
func exceptionEdgesFor(code *bytecode.Code, pc int, instr bytecode.Instruction, thrownType string, throwAll bool, possibleVM []string, h hierarchy.Hierarchy) []exceptionEdge {
	var edges []exceptionEdge
	for _, t := range possiblyRaisedTypes(instr, thrownType, throwAll, possibleVM) {
		for _, handler := range matchingHandlers(code, pc, t, h) {
			edges = append(edges, exceptionEdge{handler: handler, excType: t})
		}
	}
	return edges
}
