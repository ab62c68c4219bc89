package batch_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytecodeflow/jvmtac/pkg/batch"
	"github.com/bytecodeflow/jvmtac/pkg/bytecode"
	"github.com/bytecodeflow/jvmtac/pkg/config"
	"github.com/bytecodeflow/jvmtac/pkg/descriptor"
	"github.com/bytecodeflow/jvmtac/pkg/domain/typeonly"
)

// identityMethod is `static int id(int a) { return a; }`, matching
// pkg/tac's own fixture of the same shape.
func identityMethod() *bytecode.Code {
	instrs := []bytecode.Instruction{
		bytecode.NewLoadLocal(0, 0, bytecode.TInt),
		bytecode.NewReturnValue(1, bytecode.TInt),
	}
	return bytecode.NewCode(instrs, 2, nil, nil)
}

// brokenMethod pops a value that was never pushed: a single ireturn with
// an empty entry stack, triggering interp.ErrStackUnderflow.
func brokenMethod() *bytecode.Code {
	instrs := []bytecode.Instruction{
		bytecode.NewReturnValue(0, bytecode.TInt),
	}
	return bytecode.NewCode(instrs, 1, nil, nil)
}

func mustDescriptor(t *testing.T, src string) *descriptor.MethodDescriptor {
	t.Helper()
	md, err := descriptor.ParseMethodDescriptor(src)
	require.NoError(t, err)
	return md
}

func TestDriverRunSucceedsAndMemoizesTACode(t *testing.T) {
	d, err := batch.NewDriver()
	require.NoError(t, err)

	job := batch.MethodJob{
		ID:         "Example.id(I)I",
		Code:       identityMethod(),
		Descriptor: mustDescriptor(t, "(I)I"),
		IsStatic:   true,
		MaxLocals:  1,
		ParamTypes: []bytecode.ComputationalType{bytecode.TInt},
		Domain:     typeonly.New(),
	}

	result, err := d.Run(context.Background(), config.Default(), []batch.MethodJob{job})
	require.NoError(t, err)
	require.Empty(t, result.Failures)
	require.Len(t, result.Successes, 1)
	assert.NotEmpty(t, result.Successes[0].TAC.Statements)
	assert.NotEqual(t, uuid.Nil, result.Successes[0].RunID)

	// a second run of the same job under the same configuration must hit
	// the memoization cache rather than re-running the interpreter; we
	// can't observe that directly here, but the TACode returned must
	// still be a complete, valid result.
	result2, err := d.Run(context.Background(), config.Default(), []batch.MethodJob{job})
	require.NoError(t, err)
	require.Len(t, result2.Successes, 1)
	assert.NotEmpty(t, result2.Successes[0].TAC.Statements)
}

func TestDriverIsolatesFailuresFromSuccesses(t *testing.T) {
	d, err := batch.NewDriver()
	require.NoError(t, err)

	good := batch.MethodJob{
		ID:         "Example.id(I)I",
		Code:       identityMethod(),
		Descriptor: mustDescriptor(t, "(I)I"),
		IsStatic:   true,
		MaxLocals:  1,
		ParamTypes: []bytecode.ComputationalType{bytecode.TInt},
		Domain:     typeonly.New(),
	}
	bad := batch.MethodJob{
		ID:         "Example.broken()I",
		Code:       brokenMethod(),
		Descriptor: mustDescriptor(t, "()I"),
		IsStatic:   true,
		Domain:     typeonly.New(),
	}

	result, err := d.Run(context.Background(), config.Default(), []batch.MethodJob{good, bad})
	require.Error(t, err, "a single failing method must still surface as a combined error")

	require.Len(t, result.Successes, 1)
	assert.Equal(t, good.ID, result.Successes[0].JobID)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, bad.ID, result.Failures[0].JobID)
}
