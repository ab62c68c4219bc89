package typeonly_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bytecodeflow/jvmtac/pkg/bytecode"
	"github.com/bytecodeflow/jvmtac/pkg/domain"
	"github.com/bytecodeflow/jvmtac/pkg/domain/typeonly"
)

func TestJoinOfEqualValuesIsNoUpdate(t *testing.T) {
	d := typeonly.New()
	a := d.IntConst(1)
	b := d.IntConst(2)
	res := d.Join(a, b)
	require.Equal(t, domain.NoUpdate, res.Kind, "typeonly ignores constant values, only the computational type matters")
}

func TestJoinOfDifferentReferenceTypesWidensToObject(t *testing.T) {
	d := typeonly.New()
	a, err := d.NewObject("java/lang/String")
	require.NoError(t, err)
	b, err := d.NewObject("java/lang/Integer")
	require.NoError(t, err)

	res := d.Join(a, b)
	require.Equal(t, domain.StructuralUpdate, res.Kind)
	require.Equal(t, "java/lang/Object", res.Value.(typeonly.Val).TypeName)
}

func TestDivisionFamilyReportsArithmeticException(t *testing.T) {
	d := typeonly.New()
	instr := bytecode.NewBinaryArith(3, bytecode.OpDiv, bytecode.BinDiv, bytecode.TInt)
	excs := d.PossibleVMExceptions(instr)
	require.Contains(t, excs, "java/lang/ArithmeticException")
}

func TestCheckcastNarrowsTypeNameWithoutChangingNullability(t *testing.T) {
	d := typeonly.New()
	v, err := d.NewObject("java/lang/Object")
	require.NoError(t, err)
	narrowed, err := d.Checkcast(v, "java/lang/String")
	require.NoError(t, err)
	require.Equal(t, "java/lang/String", narrowed.(typeonly.Val).TypeName)
}
