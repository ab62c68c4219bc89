package cfg

import (
	"sort"

	"github.com/bytecodeflow/jvmtac/pkg/bytecode"
	"github.com/bytecodeflow/jvmtac/pkg/hierarchy"
)

// virtual pc values for the synthetic start/exit nodes, chosen well below
// any real pc (which is always >= 0) so they can share the same
// int-indexed maps as real pcs without collision.
const (
	startPCSentinel = -1_000_000
	exitPCSentinel  = -2_000_000
)

// Build constructs the "BR-based" CFG (spec.md §4.1): the graph implied by
// the instruction structure and exception-handler table alone, with no
// regard to which pcs an interpreter run actually reaches. throwAll
// mirrors Configuration.ThrowAllPotentialExceptions (spec.md §6): when
// true, every instruction capable of raising a VM-level exception also
// gets edges to every handler whose range covers it and whose catch type
// is a supertype of (or equal to) that exception, per hierarchy h.
func Build(code *bytecode.Code, h hierarchy.Hierarchy, throwAll bool) *CFG {
	pcs := code.AllPCs()
	succPC := make(map[int][]int, len(pcs))
	predPC := make(map[int][]int, len(pcs))

	leaders := map[int]bool{}
	if len(pcs) > 0 {
		leaders[pcs[0]] = true
	}
	handlerEntries := map[int]bool{}
	for _, hnd := range code.ExceptionHandlers() {
		handlerEntries[hnd.HandlerPC] = true
		leaders[hnd.HandlerPC] = true
	}

	addEdge := func(from, to int) {
		succPC[from] = append(succPC[from], to)
		predPC[to] = append(predPC[to], from)
	}

	for _, pc := range pcs {
		instr := code.InstructionAt(pc)
		nextPC := code.PCOfNextInstruction(pc)
		regular := instr.RegularSuccessors(nextPC)
		if len(regular) != 1 || regular[0] != nextPC {
			for _, s := range regular {
				leaders[s] = true
			}
			if nextPC < code.CodeSize() {
				leaders[nextPC] = true
			}
		}
		for _, s := range regular {
			addEdge(pc, s)
		}
		if mayRaiseVMException(instr) {
			for _, hnd := range code.HandlersCovering(pc) {
				if throwAll || exceptionMatchesUnconditionally(instr) {
					if hnd.CatchType == "" || h == nil || h.IsSubtype(raisedExceptionTypeHint(instr), hnd.CatchType) {
						addEdge(pc, hnd.HandlerPC)
					}
				}
			}
		}
	}

	return buildFromEdges(pcs, succPC, predPC, leaders, handlerEntries, nil)
}

// exceptionMatchesUnconditionally reports whether pc's exceptional edge
// should be added regardless of the throwAll switch: athrow always
// transfers to a matching handler, since it is the user explicitly
// raising an exception rather than a VM-synthesized one (spec.md §4.3:
// "Otherwise only explicit athrow ... generate those edges").
func exceptionMatchesUnconditionally(instr bytecode.Instruction) bool {
	_, ok := instr.(*bytecode.Athrow)
	return ok
}

// mayRaiseVMException classifies, per instruction family, whether the
// instruction could raise a VM-level exception at all. This is the
// "ThrowAllPotentialExceptionsConfiguration vs none" switch spec.md §4.2
// delegates to the domain; here it is a static, conservative
// classification good enough to drive CFG edge construction without
// consulting the domain (the domain's own transfer functions make the
// authoritative call during interpretation — see recording.go).
func mayRaiseVMException(instr bytecode.Instruction) bool {
	switch instr.(type) {
	case *bytecode.Athrow, *bytecode.ArrayLoad, *bytecode.ArrayStore, *bytecode.ArrayLength,
		*bytecode.NewArray, *bytecode.FieldAccess, *bytecode.Invoke, *bytecode.InvokeDynamic,
		*bytecode.New, *bytecode.Checkcast, *bytecode.Monitor:
		return true
	case *bytecode.BinaryArith:
		b := instr.(*bytecode.BinaryArith)
		return b.Op == bytecode.BinDiv || b.Op == bytecode.BinRem
	default:
		return false
	}
}

// raisedExceptionTypeHint is the best static guess at the runtime type of
// the VM-level exception an instruction might raise, used only to narrow
// which handler catches it when a hierarchy is supplied. "" (matched by
// IsSubtype against any catch type trivially in the zero-hierarchy case)
// is returned when no single type is a good hint, e.g. for athrow, whose
// exact thrown type is only known to the domain at interpretation time.
func raisedExceptionTypeHint(instr bytecode.Instruction) string {
	switch v := instr.(type) {
	case *bytecode.ArrayLoad, *bytecode.ArrayStore, *bytecode.ArrayLength:
		return "java/lang/NullPointerException"
	case *bytecode.FieldAccess:
		_ = v
		return "java/lang/NullPointerException"
	case *bytecode.Invoke:
		_ = v
		return "java/lang/NullPointerException"
	case *bytecode.NewArray:
		return "java/lang/NegativeArraySizeException"
	case *bytecode.Checkcast:
		return "java/lang/ClassCastException"
	case *bytecode.BinaryArith:
		return "java/lang/ArithmeticException"
	case *bytecode.Monitor:
		return "java/lang/IllegalMonitorStateException"
	default:
		return ""
	}
}

// buildFromEdges is shared by Build (static) and the live recorder
// (recording.go): given the full edge set already computed, partition
// into basic blocks and attach the synthetic start/exit nodes.
func buildFromEdges(pcs []int, succPC, predPC map[int][]int, leaders, handlerEntries map[int]bool, subroutineStarts map[int]bool) *CFG {
	sort.Ints(pcs)
	pcIndex := make(map[int]int, len(pcs))
	for i, pc := range pcs {
		pcIndex[pc] = i
	}

	var blocks []*BasicBlock
	blockOfPC := make(map[int]BlockID, len(pcs))

	for i := 0; i < len(pcs); {
		start := pcs[i]
		j := i
		for j+1 < len(pcs) && !leaders[pcs[j+1]] && fallsThroughSingly(succPC[pcs[j]], pcs[j+1]) {
			j++
		}
		id := BlockID(len(blocks))
		blk := &BasicBlock{
			ID:                  id,
			StartPC:             start,
			EndPC:               pcs[j],
			IsHandlerEntry:      handlerEntries[start],
			IsStartOfSubroutine: subroutineStarts != nil && subroutineStarts[start],
		}
		blocks = append(blocks, blk)
		for k := i; k <= j; k++ {
			blockOfPC[pcs[k]] = id
		}
		i = j + 1
	}

	startBlock := BlockID(len(blocks))
	blocks = append(blocks, &BasicBlock{ID: startBlock, StartPC: startPCSentinel, EndPC: startPCSentinel})
	exitBlock := BlockID(len(blocks))
	blocks = append(blocks, &BasicBlock{ID: exitBlock, StartPC: exitPCSentinel, EndPC: exitPCSentinel, IsSyntheticExit: true})

	addBlockEdge := func(from, to BlockID) {
		if !containsBlock(blocks[from].Successors, to) {
			blocks[from].Successors = append(blocks[from].Successors, to)
		}
		if !containsBlock(blocks[to].Predecessors, from) {
			blocks[to].Predecessors = append(blocks[to].Predecessors, from)
		}
	}

	if len(pcs) > 0 {
		addBlockEdge(startBlock, blockOfPC[pcs[0]])
	} else {
		addBlockEdge(startBlock, exitBlock)
	}

	for _, blk := range blocks[:len(blocks)-2] {
		succs := succPC[blk.EndPC]
		if len(succs) == 0 {
			addBlockEdge(blk.ID, exitBlock)
			continue
		}
		for _, s := range succs {
			if sid, ok := blockOfPC[s]; ok {
				addBlockEdge(blk.ID, sid)
			}
		}
	}

	return &CFG{
		blocks:     blocks,
		blockOfPC:  blockOfPC,
		succPC:     succPC,
		predPC:     predPC,
		startBlock: startBlock,
		exitBlock:  exitBlock,
	}
}

func fallsThroughSingly(succs []int, nextPC int) bool {
	return len(succs) == 1 && succs[0] == nextPC
}
