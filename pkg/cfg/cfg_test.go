package cfg_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bytecodeflow/jvmtac/pkg/bytecode"
	"github.com/bytecodeflow/jvmtac/pkg/cfg"
)

// diamondCode builds:
//
//	0: if (unary) goto 3
//	1: nop              ; then-branch
//	2: goto 4
//	3: nop              ; else-branch (the if's jump target)
//	4: return
func diamondCode(t *testing.T) *bytecode.Code {
	t.Helper()
	instrs := []bytecode.Instruction{
		bytecode.NewIf(0, bytecode.IfEQ, true, 3),
		bytecode.NewStackOp(1, bytecode.OpNop),
		bytecode.NewGoto(2, 4),
		bytecode.NewStackOp(3, bytecode.OpNop),
		bytecode.NewReturn(4),
	}
	return bytecode.NewCode(instrs, 5, nil, nil)
}

func TestBuildProducesExpectedBlockPartition(t *testing.T) {
	code := diamondCode(t)
	g := cfg.Build(code, nil, false)

	require.NotNil(t, g.Block(0))
	require.NotNil(t, g.Block(4))
	require.Equal(t, g.Block(1).ID, g.Block(2).ID, "pc 1 and 2 fall through into the same block")
	require.NotEqual(t, g.Block(0).ID, g.Block(1).ID)
	require.NotEqual(t, g.Block(3).ID, g.Block(4).ID)

	from, to, violated := g.CheckEdgeSymmetry()
	require.Falsef(t, violated, "edge %d->%d broke I-CFG2 symmetry", from, to)
}

func TestDiamondMergeIsDominatedByBranch(t *testing.T) {
	code := diamondCode(t)
	g := cfg.Build(code, nil, false)
	dom := g.Dominators()

	branch := g.Block(0).ID
	merge := g.Block(4).ID
	require.True(t, dom.Dominates(branch, merge))
	require.False(t, dom.Dominates(g.Block(1).ID, merge), "the then-branch alone must not dominate the merge point")
}

func TestDiamondMergePostDominatesBothBranches(t *testing.T) {
	code := diamondCode(t)
	g := cfg.Build(code, nil, false)
	post := g.PostDominators()

	merge := g.Block(4).ID
	require.True(t, post.Dominates(merge, g.Block(1).ID))
	require.True(t, post.Dominates(merge, g.Block(3).ID))
}

func TestControlDependenceMarksBranchesInsideTheDiamond(t *testing.T) {
	code := diamondCode(t)
	g := cfg.Build(code, nil, false)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	cd, err := g.ControlDependence(ctx)
	require.NoError(t, err)

	thenBlock := g.Block(1).ID
	controllers := cd.ControllingBlocks(thenBlock)
	require.Contains(t, controllers, g.Block(0).ID, "the then-branch is control dependent on the if")

	mergeBlock := g.Block(4).ID
	require.NotContains(t, cd.ControllingBlocks(mergeBlock), g.Block(0).ID, "both arms reach the merge, so it is not control dependent on the if")
}

func TestRecorderFinishBuildsAIBasedCFGOverReachedPCsOnly(t *testing.T) {
	r := cfg.NewRecorder()
	r.MarkReachable(0)
	r.RecordEdge(0, 1)
	r.RecordEdge(1, 4) // pretend the else branch (pc 3) was never reached
	r.RecordEdge(4, 4) // self-loop at pc 4

	g := r.Finish()
	require.NotNil(t, g.Block(0))
	require.NotNil(t, g.Block(1))
	require.Nil(t, g.Block(3), "pc 3 was never recorded as reached")
}
