package descriptor_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bytecodeflow/jvmtac/pkg/bytecode"
	"github.com/bytecodeflow/jvmtac/pkg/descriptor"
)

func TestParseSimpleIntIdentity(t *testing.T) {
	md, err := descriptor.ParseMethodDescriptor("(I)I")
	require.NoError(t, err)
	require.Len(t, md.Params, 1)
	require.Equal(t, bytecode.TInt, md.Params[0].ComputationalType())
	require.True(t, md.HasReturnValue())
	require.Equal(t, bytecode.TInt, md.Return.ComputationalType())
}

func TestParseWideAndReferenceParams(t *testing.T) {
	md, err := descriptor.ParseMethodDescriptor("(JLjava/lang/String;[I)V")
	require.NoError(t, err)
	require.Len(t, md.Params, 3)
	require.Equal(t, bytecode.TLong, md.Params[0].ComputationalType())
	require.Equal(t, 2, md.ParamOperandSize(0))
	require.Equal(t, bytecode.TReference, md.Params[1].ComputationalType())
	require.IsType(t, descriptor.Object{}, md.Params[1])
	require.Equal(t, "java/lang/String", md.Params[1].(descriptor.Object).ClassName)
	require.IsType(t, descriptor.Array{}, md.Params[2])
	require.False(t, md.HasReturnValue())
}

func TestRenderRoundTrips(t *testing.T) {
	const src = "(JLjava/lang/String;[I)V"
	md, err := descriptor.ParseMethodDescriptor(src)
	require.NoError(t, err)
	require.Equal(t, src, descriptor.Render(md))
}

func TestMalformedDescriptorsError(t *testing.T) {
	_, err := descriptor.ParseMethodDescriptor("(I")
	require.Error(t, err)
	_, err = descriptor.ParseMethodDescriptor("(Ljava/lang/String)V")
	require.Error(t, err)
	_, err = descriptor.ParseMethodDescriptor("(I)Vextra")
	require.Error(t, err)
}
