// Package typeonly is the minimal concrete domain.Domain implementation:
// it tracks nothing beyond a value's computational type, an optional
// reference type name, and nullability. It exists to exercise pkg/interp
// and pkg/tac end to end and to serve as the reference domain in tests and
// cmd/tacdump, the way kristofer-smog's interpreter shipped one concrete
// virtual machine rather than a family of abstract ones.
package typeonly

import (
	"fmt"

	"github.com/bytecodeflow/jvmtac/pkg/bytecode"
	"github.com/bytecodeflow/jvmtac/pkg/domain"
)

// Val is typeonly's Value: a computational type plus, for references, a
// static type name and a tri-state nullability flag.
type Val struct {
	T        bytecode.ComputationalType
	TypeName string // only meaningful when T == TReference
	Null     nullState
}

type nullState int

const (
	maybeNull nullState = iota
	isNull
	nonNull
)

func (v Val) ComputationalType() bytecode.ComputationalType { return v.T }

// ReferenceClassName exposes v's static type name to callers that know to
// ask for it (pkg/interp's exception dispatch, resolving an Athrow's
// thrown type against the handler table) without widening domain.Value
// itself to carry a method every domain would have to implement.
func (v Val) ReferenceClassName() string { return v.TypeName }

func (v Val) String() string {
	if v.T != bytecode.TReference {
		return v.T.String()
	}
	switch v.Null {
	case isNull:
		return "null"
	case nonNull:
		return fmt.Sprintf("%s(nonnull)", v.TypeName)
	default:
		return v.TypeName
	}
}

// Domain is the stateless typeonly implementation of domain.Domain.
type Domain struct{}

// New returns a ready-to-use typeonly domain.
func New() *Domain { return &Domain{} }

var _ domain.Domain = (*Domain)(nil)

func (d *Domain) Parameter(_ bytecode.Origin, t bytecode.ComputationalType) domain.Value {
	if t == bytecode.TReference {
		return Val{T: t, TypeName: "java/lang/Object"}
	}
	return Val{T: t}
}

func (d *Domain) Illegal() domain.Value { return Val{T: bytecode.TInt, TypeName: "<illegal>"} }

func (d *Domain) Thrown(_ bytecode.Origin, exceptionType string) domain.Value {
	return Val{T: bytecode.TReference, TypeName: exceptionType, Null: nonNull}
}

func (d *Domain) IntConst(int32) domain.Value      { return Val{T: bytecode.TInt} }
func (d *Domain) LongConst(int64) domain.Value     { return Val{T: bytecode.TLong} }
func (d *Domain) FloatConst(float32) domain.Value  { return Val{T: bytecode.TFloat} }
func (d *Domain) DoubleConst(float64) domain.Value { return Val{T: bytecode.TDouble} }
func (d *Domain) StringConst(string) domain.Value {
	return Val{T: bytecode.TReference, TypeName: "java/lang/String", Null: nonNull}
}
func (d *Domain) ClassConst(string) domain.Value {
	return Val{T: bytecode.TReference, TypeName: "java/lang/Class", Null: nonNull}
}
func (d *Domain) NullConst() domain.Value {
	return Val{T: bytecode.TReference, TypeName: "<null>", Null: isNull}
}
func (d *Domain) MethodHandleConst() domain.Value {
	return Val{T: bytecode.TReference, TypeName: "java/lang/invoke/MethodHandle", Null: nonNull}
}
func (d *Domain) MethodTypeConst() domain.Value {
	return Val{T: bytecode.TReference, TypeName: "java/lang/invoke/MethodType", Null: nonNull}
}

// Join merges two values at a control-flow merge point. typeonly values
// are joined purely structurally: equal values need no update, values of
// different computational types join to Illegal, two primitives of the
// same computational type need no update, and two references join to the
// wider nullability and, if their type names differ, to java/lang/Object
// (a structural update unless the result equals a).
func (d *Domain) Join(a, b domain.Value) domain.JoinResult {
	av, bv := a.(Val), b.(Val)
	if av == bv {
		return domain.JoinResult{Kind: domain.NoUpdate}
	}
	if av.T != bv.T {
		// Shouldn't happen for verified bytecode, but merge to Illegal
		// rather than panicking — the interpreter surfaces the anomaly.
		return domain.JoinResult{Kind: domain.StructuralUpdate, Value: d.Illegal()}
	}
	if av.T != bytecode.TReference {
		return domain.JoinResult{Kind: domain.NoUpdate}
	}
	merged := av
	if av.Null != bv.Null {
		merged.Null = maybeNull
	}
	if av.TypeName != bv.TypeName {
		merged.TypeName = "java/lang/Object"
	}
	if merged == av {
		return domain.JoinResult{Kind: domain.NoUpdate}
	}
	return domain.JoinResult{Kind: domain.StructuralUpdate, Value: merged}
}

func (d *Domain) BinaryArith(_ bytecode.BinaryOp, t bytecode.ComputationalType, _, _ domain.Value) (domain.Value, error) {
	return Val{T: t}, nil
}

func (d *Domain) UnaryArith(t bytecode.ComputationalType, _ domain.Value) (domain.Value, error) {
	return Val{T: t}, nil
}

func (d *Domain) Convert(_, to bytecode.ComputationalType, _ domain.Value) (domain.Value, error) {
	return Val{T: to}, nil
}

func (d *Domain) Compare(_ bytecode.CompareOp, _, _ domain.Value) (domain.Value, error) {
	return Val{T: bytecode.TInt}, nil
}

func (d *Domain) ArrayLoad(_, _ domain.Value, elemType bytecode.ComputationalType) (domain.Value, error) {
	if elemType == bytecode.TReference {
		return Val{T: elemType, TypeName: "java/lang/Object"}, nil
	}
	return Val{T: elemType}, nil
}

func (d *Domain) ArrayStore(_, _, _ domain.Value) error { return nil }

func (d *Domain) ArrayLength(_ domain.Value) (domain.Value, error) { return Val{T: bytecode.TInt}, nil }

func (d *Domain) NewObject(className string) (domain.Value, error) {
	return Val{T: bytecode.TReference, TypeName: className, Null: nonNull}, nil
}

func (d *Domain) NewArray(_ []domain.Value, className string, dims int) (domain.Value, error) {
	name := className
	for i := 0; i < dims; i++ {
		name = "[" + name
	}
	return Val{T: bytecode.TReference, TypeName: name, Null: nonNull}, nil
}

func (d *Domain) GetField(_ domain.Value, f domain.FieldRef) (domain.Value, error) {
	return fieldTypeValue(f), nil
}

func (d *Domain) PutField(_, _ domain.Value, _ domain.FieldRef) error { return nil }

func (d *Domain) GetStatic(f domain.FieldRef) (domain.Value, error) { return fieldTypeValue(f), nil }

func (d *Domain) PutStatic(_ domain.Value, _ domain.FieldRef) error { return nil }

func fieldTypeValue(f domain.FieldRef) domain.Value {
	if f.Type == bytecode.TReference {
		return Val{T: bytecode.TReference, TypeName: "java/lang/Object", Null: maybeNull}
	}
	return Val{T: f.Type}
}

func (d *Domain) Invoke(_ bytecode.InvokeShape, _ domain.Value, _ []domain.Value, m domain.MethodRef) (domain.Value, bool, error) {
	if !m.HasReturn {
		return nil, false, nil
	}
	if m.ReturnType == bytecode.TReference {
		return Val{T: bytecode.TReference, TypeName: "java/lang/Object", Null: maybeNull}, true, nil
	}
	return Val{T: m.ReturnType}, true, nil
}

func (d *Domain) InvokeDynamic(_ []domain.Value, dyn *bytecode.InvokeDynamic) (domain.Value, bool, error) {
	if !dyn.HasReturn {
		return nil, false, nil
	}
	if dyn.ReturnType == bytecode.TReference {
		return Val{T: bytecode.TReference, TypeName: "java/lang/Object", Null: maybeNull}, true, nil
	}
	return Val{T: dyn.ReturnType}, true, nil
}

func (d *Domain) Checkcast(v domain.Value, targetType string) (domain.Value, error) {
	val := v.(Val)
	val.TypeName = targetType
	return val, nil
}

func (d *Domain) InstanceOf(_ domain.Value, _ string) (domain.Value, error) {
	return Val{T: bytecode.TInt}, nil
}

func (d *Domain) MonitorEnter(domain.Value) error { return nil }
func (d *Domain) MonitorExit(domain.Value) error  { return nil }
func (d *Domain) Throw(domain.Value) error        { return nil }

// PossibleVMExceptions gives a conservative, family-based classification
// (spec.md §4.2/§6): it is not required to be precise, only sound enough
// to exercise the ThrowAllPotentialExceptions configuration knob.
func (d *Domain) PossibleVMExceptions(instr bytecode.Instruction) []string {
	switch instr.(type) {
	case *bytecode.ArrayLoad, *bytecode.ArrayStore, *bytecode.ArrayLength:
		return []string{"java/lang/NullPointerException", "java/lang/ArrayIndexOutOfBoundsException"}
	case *bytecode.NewArray:
		return []string{"java/lang/NegativeArraySizeException"}
	case *bytecode.FieldAccess:
		return []string{"java/lang/NullPointerException"}
	case *bytecode.Invoke:
		return []string{"java/lang/NullPointerException"}
	case *bytecode.Checkcast:
		return []string{"java/lang/ClassCastException"}
	case *bytecode.Monitor:
		return []string{"java/lang/NullPointerException"}
	case *bytecode.Athrow:
		return []string{"java/lang/NullPointerException"}
	case *bytecode.BinaryArith:
		ba := instr.(*bytecode.BinaryArith)
		if (ba.Op == bytecode.BinDiv || ba.Op == bytecode.BinRem) && (ba.Type == bytecode.TInt || ba.Type == bytecode.TLong) {
			return []string{"java/lang/ArithmeticException"}
		}
		return nil
	default:
		return nil
	}
}

func (d *Domain) RefineNonNull(v domain.Value) domain.Value {
	val := v.(Val)
	if val.T == bytecode.TReference {
		val.Null = nonNull
	}
	return val
}

func (d *Domain) RefineType(v domain.Value, typeName string) domain.Value {
	val := v.(Val)
	val.TypeName = typeName
	return val
}
