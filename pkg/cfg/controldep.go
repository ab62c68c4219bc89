package cfg

import (
	"context"

	"github.com/pkg/errors"
)

// ErrControlDependenceTimeout is returned by ControlDependence when ctx
// expires before the post-dominance-frontier construction completes.
// spec.md §5/§7 confine this to the control-dependence builder alone: it
// must never invalidate the AI result or block a TAC lift, which does not
// need control dependence at all.
var ErrControlDependenceTimeout = errors.New("cfg: control dependence construction timed out")

// pollEvery bounds how often the builder checks ctx for cancellation;
// checking on every node would dominate the cost of an otherwise-cheap
// frontier computation, checking too rarely would blow through the
// caller's budget before noticing.
const pollEvery = 64

// ControlDependence is the control-dependence relation derived from the
// post-dominance frontier (spec.md §4.1): block Y is control-dependent on
// block X iff X appears in Y's post-dominance frontier.
type ControlDependence struct {
	controllers map[BlockID][]BlockID
}

// ControllingBlocks returns, for block b, every block whose branch outcome
// controls whether b executes.
func (cd *ControlDependence) ControllingBlocks(b BlockID) []BlockID {
	return cd.controllers[b]
}

// ControlDependence builds the control-dependence relation for g,
// respecting ctx's deadline (spec.md §5: "a per-invocation timeout
// (milliseconds); on timeout it raises an interruption error"). The
// caller is responsible for attaching that deadline to ctx — this
// function only polls it.
func (g *CFG) ControlDependence(ctx context.Context) (*ControlDependence, error) {
	postDom := g.PostDominators()
	pdf, err := postDominanceFrontier(ctx, g, postDom)
	if err != nil {
		return nil, err
	}
	controllers := make(map[BlockID][]BlockID)
	for y, frontier := range pdf {
		for _, x := range frontier {
			controllers[y] = append(controllers[y], x)
		}
	}
	return &ControlDependence{controllers: controllers}, nil
}

// ControllingPCs enumerates the pcs of every instruction whose branch
// outcome controls whether pc executes — the lazy "xIsControlDependentOn"
// query spec.md §4.1 describes, expressed as a plain slice rather than a
// visitor callback (spec.md §9's design notes: "Replace with explicit
// iterators over integer ranges returning indices").
func (g *CFG) ControllingPCs(cd *ControlDependence, pc int) []int {
	blk := g.Block(pc)
	if blk == nil {
		return nil
	}
	var out []int
	for _, c := range cd.ControllingBlocks(blk.ID) {
		out = append(out, g.blocks[c].EndPC)
	}
	return out
}

// postDominanceFrontier computes, for every block b, the set of blocks in
// b's post-dominance frontier: blocks y such that b post-dominates some
// CFG-successor of y but does not strictly post-dominate y itself. This
// is the standard Cytron-et-al. dominance-frontier construction run over
// the post-dominator tree with the CFG's edges reversed.
func postDominanceFrontier(ctx context.Context, g *CFG, postDom *DomTree) (map[BlockID][]BlockID, error) {
	children := childrenOf(postDom)
	frontier := make(map[BlockID][]BlockID)

	visited := make(map[BlockID]bool)
	var checked int
	var visit func(BlockID) error
	visit = func(b BlockID) error {
		checked++
		if checked%pollEvery == 0 {
			select {
			case <-ctx.Done():
				return ErrControlDependenceTimeout
			default:
			}
		}
		if visited[b] {
			return nil
		}
		visited[b] = true

		var local []BlockID
		for _, pred := range g.blocks[b].Predecessors { // reversed: CFG predecessors play the "successors" role
			if idom, ok := postDom.IDom(pred); !ok || idom != b {
				local = append(local, pred)
			}
		}

		for _, c := range children[b] {
			if err := visit(c); err != nil {
				return err
			}
			for _, w := range frontier[c] {
				if idom, ok := postDom.IDom(w); !ok || idom != b {
					local = append(local, w)
				}
			}
		}
		frontier[b] = dedupBlocks(local)
		return nil
	}

	for _, blk := range g.blocks {
		if err := visit(blk.ID); err != nil {
			return nil, err
		}
	}
	return frontier, nil
}

func childrenOf(t *DomTree) map[BlockID][]BlockID {
	children := make(map[BlockID][]BlockID)
	for node, parent := range t.idom {
		children[parent] = append(children[parent], node)
	}
	return children
}

func dedupBlocks(in []BlockID) []BlockID {
	seen := make(map[BlockID]bool, len(in))
	out := in[:0:0]
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
