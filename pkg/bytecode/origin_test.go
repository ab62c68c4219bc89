package bytecode_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bytecodeflow/jvmtac/pkg/bytecode"
)

func TestParameterAndReceiverOrigins(t *testing.T) {
	require.True(t, bytecode.IsReceiverOrigin(-1))
	require.True(t, bytecode.IsParameterOrigin(-1))
	require.True(t, bytecode.IsParameterOrigin(-2))
	require.False(t, bytecode.IsParameterOrigin(0))
	require.False(t, bytecode.IsVMLevelValue(-2))
}

func TestVMLevelValueRoundTrip(t *testing.T) {
	o := bytecode.EncodeVMLevelValue(42)
	require.True(t, bytecode.IsVMLevelValue(o))
	require.False(t, bytecode.IsParameterOrigin(o))
	require.Equal(t, 42, bytecode.PCOfVMLevelValue(o))
}

func TestPCOfVMLevelValuePanicsOnNonVMLevelOrigin(t *testing.T) {
	require.Panics(t, func() { bytecode.PCOfVMLevelValue(-2) })
}

func TestInstructionOriginPC(t *testing.T) {
	var o bytecode.Origin = 7
	require.True(t, bytecode.IsInstructionOrigin(o))
	require.Equal(t, 7, o.PC())
	require.Panics(t, func() { bytecode.Origin(-1).PC() })
}
