package tac

import (
	"github.com/bytecodeflow/jvmtac/pkg/bytecode"
	"github.com/bytecodeflow/jvmtac/pkg/cfg"
	"github.com/bytecodeflow/jvmtac/pkg/domain"
)

// buildParameters constructs the entry Parameters block from the method
// descriptor, laying out origins exactly as interp.initialLocals does: the
// receiver (if any) at -1, then declared parameters counting down from -2,
// a wide parameter consuming two consecutive local slots but only one
// Parameters entry.
func (l *lifter) buildParameters(in Input) Parameters {
	var entries []Parameter
	slot := 0

	if !in.IsStatic {
		v, _ := l.ai.LocalAt(0, slot)
		entries = append(entries, l.paramEntry(-1, v, bytecode.TReference))
		slot++
	}

	origin := -2
	for _, p := range in.Descriptor.Params {
		t := p.ComputationalType()
		v, _ := l.ai.LocalAt(0, slot)
		entries = append(entries, l.paramEntry(origin, v, t))
		slot++
		if t.IsCategory2() {
			slot++
		}
		origin--
	}

	return Parameters{Entries: entries}
}

func (l *lifter) paramEntry(origin int, v domain.Value, t bytecode.ComputationalType) Parameter {
	uses := l.du.UsedBy(bytecode.Origin(origin))
	sites := make([]int, len(uses))
	for i, pc := range uses {
		sites[i] = l.pcToIndex[pc]
	}
	return Parameter{Origin: origin, Value: v, Type: t, UseSites: sites}
}

// remap is the final pass (spec.md §4.6): every DVar.UseSites/
// ObsoleteUseSites entry, every UVar.DefSites entry, and every control-flow
// statement's pc-valued target field is rewritten from pc space into
// statement-index space now that pcToIndex is complete.
func (l *lifter) remap() {
	for _, d := range l.allDVars {
		d.UseSites = l.remapUseSites(d.UseSites, d.Origin)
		d.ObsoleteUseSites = l.remapPCs(d.ObsoleteUseSites)
	}
	for _, u := range l.allUVars {
		sites := make([]int, len(u.DefSites))
		for i, o := range u.DefSites {
			sites[i] = l.remapOrigin(o)
		}
		u.DefSites = sites
	}
	for _, stmt := range l.statements {
		l.remapTargets(stmt)
	}
}

func (l *lifter) remapPCs(pcs []int) []int {
	out := make([]int, len(pcs))
	for i, pc := range pcs {
		out[i] = l.pcToIndex[pc]
	}
	return out
}

// remapUseSites translates use-site pcs to statement indices, applying the
// self-use +1 special case: a handler-entry DVar whose CaughtException
// statement immediately consumes its own value (the def and the use are
// the very same pc) would otherwise alias its own Origin index.
func (l *lifter) remapUseSites(pcs []int, origin int) []int {
	out := make([]int, len(pcs))
	for i, pc := range pcs {
		idx := l.pcToIndex[pc]
		if idx == origin {
			idx++
		}
		out[i] = idx
	}
	return out
}

// remapOrigin translates one UVar def-site entry: a VM-level origin keeps
// its distinguished encoding but has its causing pc rewritten; a parameter
// or receiver origin passes through unchanged (parameter-origin
// normalisation is a no-op in this implementation, since origins are
// already plain consecutive negative integers); anything else is a real
// instruction pc and is looked up directly.
func (l *lifter) remapOrigin(o int) int {
	origin := bytecode.Origin(o)
	if bytecode.IsVMLevelValue(origin) {
		causing := bytecode.PCOfVMLevelValue(origin)
		return int(bytecode.EncodeVMLevelValue(l.pcToIndex[causing]))
	}
	if bytecode.IsParameterOrigin(origin) {
		return o
	}
	return l.pcToIndex[o]
}

func (l *lifter) remapTargets(stmt Statement) {
	switch s := stmt.(type) {
	case *If:
		s.Target = l.pcToIndex[s.Target]
	case *Goto:
		s.Target = l.pcToIndex[s.Target]
	case *Switch:
		for i := range s.Cases {
			s.Cases[i].Target = l.pcToIndex[s.Cases[i].Target]
		}
		s.Default = l.pcToIndex[s.Default]
	case *JumpToSubroutine:
		s.Target = l.pcToIndex[s.Target]
	case *Ret:
		out := make([]int, len(s.SuccPCs))
		for i, pc := range s.SuccPCs {
			out[i] = l.pcToIndex[pc]
		}
		s.SuccPCs = out
	}
}

// buildExceptionHandlers translates the method's handler table from pc
// space to statement-index space.
func (l *lifter) buildExceptionHandlers() []ExceptionHandler {
	src := l.code.ExceptionHandlers()
	out := make([]ExceptionHandler, len(src))
	for i, h := range src {
		out[i] = ExceptionHandler{
			StartStmt:   l.pcToIndex[h.StartPC],
			EndStmt:     l.pcToIndex[h.EndPC],
			HandlerStmt: l.handlerEntryIndex(h.HandlerPC),
			CatchType:   h.CatchType,
		}
	}
	return out
}

func (l *lifter) handlerEntryIndex(pc int) int {
	if idx, ok := l.handlerSynthetic[pc]; ok {
		return idx
	}
	return l.pcToIndex[pc]
}

// buildCFG translates the AI-based CFG's blocks into statement-index
// space. A handler-entry block that gained a synthetic CaughtException
// statement expands to include it: its StartStmt becomes the synthetic
// statement's index rather than the block's first real statement's, so
// the block's statement range still bounds every statement physically
// inside it.
func (l *lifter) buildCFG() CFG {
	src := l.g
	blockIndex := make(map[int]int)
	var blocks []*cfg.BasicBlock

	for _, b := range src.Blocks() {
		if b.ID == src.StartBlock() || b.ID == src.ExitBlock() {
			continue
		}
		blockIndex[int(b.ID)] = len(blocks)
		blocks = append(blocks, b)
	}

	out := CFG{Blocks: make([]Block, len(blocks))}
	for i, b := range blocks {
		start := l.pcToIndex[b.StartPC]
		if b.IsHandlerEntry {
			start = l.handlerEntryIndex(b.StartPC)
		}
		out.Blocks[i] = Block{
			StartStmt:      start,
			EndStmt:        l.pcToIndex[b.EndPC],
			IsHandlerEntry: b.IsHandlerEntry,
		}
	}

	for _, b := range blocks {
		myIdx := blockIndex[int(b.ID)]
		for _, s := range b.Successors {
			if si, ok := blockIndex[int(s)]; ok {
				out.Blocks[myIdx].Successors = append(out.Blocks[myIdx].Successors, si)
			}
		}
		for _, p := range b.Predecessors {
			if pi, ok := blockIndex[int(p)]; ok {
				out.Blocks[myIdx].Predecessors = append(out.Blocks[myIdx].Predecessors, pi)
			}
		}
	}
	return out
}
