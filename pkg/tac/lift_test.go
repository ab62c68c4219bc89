package tac_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytecodeflow/jvmtac/pkg/bytecode"
	"github.com/bytecodeflow/jvmtac/pkg/config"
	"github.com/bytecodeflow/jvmtac/pkg/descriptor"
	"github.com/bytecodeflow/jvmtac/pkg/domain/typeonly"
	"github.com/bytecodeflow/jvmtac/pkg/interp"
	"github.com/bytecodeflow/jvmtac/pkg/tac"
)

func runAndLift(t *testing.T, code *bytecode.Code, maxLocals int, isStatic bool, paramTypes []bytecode.ComputationalType, desc string) *tac.TACode {
	t.Helper()
	dom := typeonly.New()
	conf := config.Default()
	conf.ThrowAllPotentialExceptions = true

	result, err := interp.Run(context.Background(), dom, nil, interp.MethodInput{
		Code:       code,
		MaxLocals:  maxLocals,
		IsStatic:   isStatic,
		ParamTypes: paramTypes,
	}, conf, nil)
	require.NoError(t, err)

	md, err := descriptor.ParseMethodDescriptor(desc)
	require.NoError(t, err)

	out, err := tac.Lift(tac.Input{Code: code, Descriptor: md, IsStatic: isStatic, AI: result})
	require.NoError(t, err)
	return out
}

// identityMethod is `static int id(int a) { return a; }`.
func identityMethod() *bytecode.Code {
	instrs := []bytecode.Instruction{
		bytecode.NewLoadLocal(0, 0, bytecode.TInt),
		bytecode.NewReturnValue(1, bytecode.TInt),
	}
	return bytecode.NewCode(instrs, 2, nil, nil)
}

func TestLiftIdentityMethodParametersAndReturn(t *testing.T) {
	out := runAndLift(t, identityMethod(), 1, true, []bytecode.ComputationalType{bytecode.TInt}, "(I)I")

	require.Len(t, out.Parameters.Entries, 1)
	assert.Equal(t, -2, out.Parameters.Entries[0].Origin)

	require.NotEmpty(t, out.Statements)
	last, ok := out.Statements[len(out.Statements)-1].(*tac.ReturnValue)
	require.True(t, ok, "last statement should be a ReturnValue")
	uvar, ok := last.Operand.(*tac.UVar)
	require.True(t, ok, "return operand should reference the parameter directly")
	require.Len(t, uvar.DefSites, 1)
	assert.Equal(t, -2, uvar.DefSites[0])
}

// divideWithHandler is:
//
//	0: iload_0
//	1: iload_1
//	2: idiv
//	3: ireturn
//	4: astore_2   (handler: store the caught exception into local 2)
//	5: iconst_m1
//	6: ireturn
//
// static int divide(int a, int b) { try { return a/b; } catch (ArithmeticException e) { return -1; } }
func divideWithHandler() *bytecode.Code {
	instrs := []bytecode.Instruction{
		bytecode.NewLoadLocal(0, 0, bytecode.TInt),
		bytecode.NewLoadLocal(1, 1, bytecode.TInt),
		bytecode.NewBinaryArith(2, bytecode.OpDiv, bytecode.BinDiv, bytecode.TInt),
		bytecode.NewReturnValue(3, bytecode.TInt),
		bytecode.NewStoreLocal(4, 2, bytecode.TReference),
		bytecode.NewPushConst(5, bytecode.OpIntConst, int32(-1), bytecode.TInt),
		bytecode.NewReturnValue(6, bytecode.TInt),
	}
	handlers := []bytecode.ExceptionHandler{
		{StartPC: 0, EndPC: 4, HandlerPC: 4, CatchType: "java/lang/ArithmeticException"},
	}
	return bytecode.NewCode(instrs, 7, handlers, nil)
}

func TestLiftCaughtExceptionEntrySynthesizesDefSite(t *testing.T) {
	out := runAndLift(t, divideWithHandler(), 3, true, []bytecode.ComputationalType{bytecode.TInt, bytecode.TInt}, "(II)I")

	require.Len(t, out.ExceptionHandlers, 1)
	h := out.ExceptionHandlers[0]

	caught, ok := out.Statements[h.HandlerStmt].(*tac.CaughtException)
	require.True(t, ok, "the handler's statement-index entry must be the synthetic CaughtException")
	assert.Equal(t, h.HandlerStmt, caught.DVar.Origin)

	// the astore immediately following collapses into its own statement
	// (it is the handler's block start), so it must land strictly after
	// the synthetic def and be recorded as one of its use sites.
	require.NotEmpty(t, caught.DVar.UseSites)
	for _, site := range caught.DVar.UseSites {
		assert.Greater(t, site, h.HandlerStmt)
	}
}

// deadBranchMethod is:
//
//	0: goto 3        (unconditional; pcs 1-2 are never a jump target and
//	                  Goto's RegularSuccessors ignores fallthrough, so the
//	                  worklist never schedules them)
//	1: iconst_1       <- dead
//	2: ireturn        <- dead
//	3: iconst_2
//	4: ireturn
func deadBranchMethod() *bytecode.Code {
	instrs := []bytecode.Instruction{
		bytecode.NewGoto(0, 3),
		bytecode.NewPushConst(1, bytecode.OpIntConst, int32(1), bytecode.TInt),
		bytecode.NewReturnValue(2, bytecode.TInt),
		bytecode.NewPushConst(3, bytecode.OpIntConst, int32(2), bytecode.TInt),
		bytecode.NewReturnValue(4, bytecode.TInt),
	}
	return bytecode.NewCode(instrs, 5, nil, nil)
}

func TestLiftReachesOnlyTakenBranch(t *testing.T) {
	out := runAndLift(t, deadBranchMethod(), 0, true, nil, "()I")

	// pcs 1/2 are never reached by the fixpoint (the unconditional goto at
	// pc 0 only ever schedules pc 3), so no statement should originate
	// from the dead iconst_1/ireturn pair.
	assert.False(t, contains(out.Statements, func(s tac.Statement) bool {
		if rv, ok := s.(*tac.ReturnValue); ok {
			if ic, ok := rv.Operand.(*tac.IntConst); ok {
				return ic.Value == 1
			}
		}
		return false
	}))
}

func contains(stmts []tac.Statement, pred func(tac.Statement) bool) bool {
	for _, s := range stmts {
		if pred(s) {
			return true
		}
	}
	return false
}
