package bytecode_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bytecodeflow/jvmtac/pkg/bytecode"
)

func identityMethodCode() *bytecode.Code {
	instrs := []bytecode.Instruction{
		bytecode.NewLoadLocal(0, 0, bytecode.TInt),
		bytecode.NewReturnValue(1, bytecode.TInt),
	}
	return bytecode.NewCode(instrs, 2, nil, nil)
}

func TestCodeNavigation(t *testing.T) {
	c := identityMethodCode()
	require.Equal(t, 2, c.CodeSize())
	require.Equal(t, []int{0, 1}, c.AllPCs())
	require.Equal(t, 1, c.PCOfNextInstruction(0))
	require.Equal(t, 2, c.PCOfNextInstruction(1))
	require.NotNil(t, c.InstructionAt(0))
	require.Nil(t, c.InstructionAt(5))
}

func TestHandlersCoveringPreservesOrder(t *testing.T) {
	handlers := []bytecode.ExceptionHandler{
		{StartPC: 0, EndPC: 10, HandlerPC: 20, CatchType: "java/io/IOException"},
		{StartPC: 0, EndPC: 10, HandlerPC: 30, CatchType: ""},
	}
	c := bytecode.NewCode(nil, 40, handlers, nil)
	got := c.HandlersCovering(5)
	require.Len(t, got, 2)
	require.Equal(t, 20, got[0].HandlerPC)
	require.Equal(t, 30, got[1].HandlerPC)
	require.Empty(t, c.HandlersCovering(15))
}

func TestLineOf(t *testing.T) {
	lines := []bytecode.LineNumberEntry{{StartPC: 0, Line: 10}, {StartPC: 4, Line: 11}}
	c := bytecode.NewCode(nil, 10, nil, lines)
	require.Equal(t, 10, c.LineOf(0))
	require.Equal(t, 10, c.LineOf(3))
	require.Equal(t, 11, c.LineOf(4))
	require.Equal(t, 0, c.LineOf(100))
}

func TestIfRegularSuccessorsCollapsesWhenTargetIsFallthrough(t *testing.T) {
	deg := bytecode.NewIf(0, bytecode.IfEQ, true, 1)
	require.Equal(t, []int{1}, deg.RegularSuccessors(1))

	live := bytecode.NewIf(0, bytecode.IfEQ, true, 5)
	require.ElementsMatch(t, []int{1, 5}, live.RegularSuccessors(1))
}
