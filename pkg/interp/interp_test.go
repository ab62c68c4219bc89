package interp_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytecodeflow/jvmtac/pkg/bytecode"
	"github.com/bytecodeflow/jvmtac/pkg/config"
	"github.com/bytecodeflow/jvmtac/pkg/domain/typeonly"
	"github.com/bytecodeflow/jvmtac/pkg/interp"
)

// divideMethod builds:
//
//	0: iload_1
//	1: iload_2
//	2: idiv        (may raise ArithmeticException, caught by the handler)
//	3: ireturn
//	4: iconst_m1   (handler: push -1)
//	5: ireturn
//
// int divide(int a, int b) { try { return a / b; } catch (ArithmeticException e) { return -1; } }
func divideMethod() *bytecode.Code {
	instrs := []bytecode.Instruction{
		bytecode.NewLoadLocal(0, 1, bytecode.TInt),
		bytecode.NewLoadLocal(1, 2, bytecode.TInt),
		bytecode.NewBinaryArith(2, bytecode.OpDiv, bytecode.BinDiv, bytecode.TInt),
		bytecode.NewReturnValue(3, bytecode.TInt),
		bytecode.NewPushConst(4, bytecode.OpIntConst, int32(-1), bytecode.TInt),
		bytecode.NewReturnValue(5, bytecode.TInt),
	}
	handlers := []bytecode.ExceptionHandler{
		{StartPC: 0, EndPC: 4, HandlerPC: 4, CatchType: "java/lang/ArithmeticException"},
	}
	return bytecode.NewCode(instrs, 6, handlers, nil)
}

func TestRunConvergesAndRecordsBothReturnPaths(t *testing.T) {
	dom := typeonly.New()
	conf := config.Default()
	conf.ThrowAllPotentialExceptions = true

	in := interp.MethodInput{
		Code:       divideMethod(),
		MaxLocals:  3,
		IsStatic:   false,
		ParamTypes: []bytecode.ComputationalType{bytecode.TInt, bytecode.TInt},
	}

	result, err := interp.Run(context.Background(), dom, nil, in, conf, nil)
	require.NoError(t, err)

	require.True(t, result.Visited(0))
	require.True(t, result.Visited(4), "handler entry must be reached since ThrowAllPotentialExceptions is set")

	require.Len(t, result.Returns, 2)
	pcs := map[int]bool{}
	for _, r := range result.Returns {
		pcs[r.PC] = true
		assert.True(t, r.HasValue)
	}
	assert.True(t, pcs[3])
	assert.True(t, pcs[5])

	assert.NoError(t, result.DefUse.CheckInvariants())

	handlerLocals, ok := result.LocalAt(4, 1)
	require.True(t, ok)
	assert.Equal(t, bytecode.TInt, handlerLocals.ComputationalType())
}

func TestRunWithoutThrowAllNeverReachesHandler(t *testing.T) {
	dom := typeonly.New()
	conf := config.Default()
	conf.ThrowAllPotentialExceptions = false

	in := interp.MethodInput{
		Code:       divideMethod(),
		MaxLocals:  3,
		IsStatic:   false,
		ParamTypes: []bytecode.ComputationalType{bytecode.TInt, bytecode.TInt},
	}

	result, err := interp.Run(context.Background(), dom, nil, in, conf, nil)
	require.NoError(t, err)

	assert.False(t, result.Visited(4))
	require.Len(t, result.Returns, 1)
	assert.Equal(t, 3, result.Returns[0].PC)
}

// jsrRetMethod builds a minimal subroutine round trip:
//
//	0: jsr 3
//	1: iconst_0
//	2: ireturn
//	3: astore_0   (store return address)
//	4: ret 0
func jsrRetMethod() *bytecode.Code {
	instrs := []bytecode.Instruction{
		bytecode.NewJsr(0, 3),
		bytecode.NewPushConst(1, bytecode.OpIntConst, int32(0), bytecode.TInt),
		bytecode.NewReturnValue(2, bytecode.TInt),
		bytecode.NewStoreLocal(3, 0, bytecode.TReturnAddress),
		bytecode.NewRet(4, 0),
	}
	return bytecode.NewCode(instrs, 5, nil, nil)
}

func TestRunResolvesRetSuccessorFromOriginSet(t *testing.T) {
	dom := typeonly.New()
	conf := config.Default()

	in := interp.MethodInput{
		Code:      jsrRetMethod(),
		MaxLocals: 1,
		IsStatic:  true,
	}

	result, err := interp.Run(context.Background(), dom, nil, in, conf, nil)
	require.NoError(t, err)

	require.True(t, result.Visited(3))
	require.True(t, result.Visited(1), "ret at pc 4 must resolve back to pc 1 (jsr's next instruction)")
	assert.NoError(t, result.DefUse.CheckInvariants())
}
