package tac

import "github.com/bytecodeflow/jvmtac/pkg/bytecode"

// Expression is the sum type of every value-producing TAC node: constant
// literals, a UVar/DVar reference, and every operator the bytecode core
// exposes transfer functions for. Statements hold Expressions; Expressions
// never hold Statements (FailingExpr is the one exception, and it is
// itself a Statement, not an Expression, since a failing evaluation
// produces no value anyone can reference).
type Expression interface {
	ComputationalType() bytecode.ComputationalType
	exprNode()
}

type constExpr struct{ t bytecode.ComputationalType }

func (c constExpr) ComputationalType() bytecode.ComputationalType { return c.t }

// IntConst/LongConst/FloatConst/DoubleConst are the wide literal-pushing
// families; StringConst/ClassConst/MethodHandleConst/MethodTypeConst are
// the ldc-family reference constants; NullExpr is aconst_null.
type IntConst struct {
	constExpr
	Value int32
}

func NewIntConst(v int32) *IntConst { return &IntConst{constExpr{bytecode.TInt}, v} }
func (c *IntConst) exprNode()       {}

type LongConst struct {
	constExpr
	Value int64
}

func NewLongConst(v int64) *LongConst { return &LongConst{constExpr{bytecode.TLong}, v} }
func (c *LongConst) exprNode()        {}

type FloatConst struct {
	constExpr
	Value float32
}

func NewFloatConst(v float32) *FloatConst { return &FloatConst{constExpr{bytecode.TFloat}, v} }
func (c *FloatConst) exprNode()           {}

type DoubleConst struct {
	constExpr
	Value float64
}

func NewDoubleConst(v float64) *DoubleConst { return &DoubleConst{constExpr{bytecode.TDouble}, v} }
func (c *DoubleConst) exprNode()            {}

type StringConst struct {
	constExpr
	Value string
}

func NewStringConst(v string) *StringConst {
	return &StringConst{constExpr{bytecode.TReference}, v}
}
func (c *StringConst) exprNode() {}

type ClassConst struct {
	constExpr
	Name string
}

func NewClassConst(name string) *ClassConst {
	return &ClassConst{constExpr{bytecode.TReference}, name}
}
func (c *ClassConst) exprNode() {}

type MethodHandleConst struct{ constExpr }

func NewMethodHandleConst() *MethodHandleConst {
	return &MethodHandleConst{constExpr{bytecode.TReference}}
}
func (c *MethodHandleConst) exprNode() {}

type MethodTypeConst struct{ constExpr }

func NewMethodTypeConst() *MethodTypeConst {
	return &MethodTypeConst{constExpr{bytecode.TReference}}
}
func (c *MethodTypeConst) exprNode() {}

type NullExpr struct{ constExpr }

func NewNullExpr() *NullExpr  { return &NullExpr{constExpr{bytecode.TReference}} }
func (c *NullExpr) exprNode() {}

// BinaryExpr covers add/sub/mul/div/rem/shl/shr/ushr/and/or/xor.
type BinaryExpr struct {
	Op       bytecode.BinaryOp
	Type     bytecode.ComputationalType
	LHS, RHS Expression
}

func (e *BinaryExpr) ComputationalType() bytecode.ComputationalType { return e.Type }
func (e *BinaryExpr) exprNode()                                    {}

// PrefixExpr is the neg family: the one unary arithmetic operator.
type PrefixExpr struct {
	Type    bytecode.ComputationalType
	Operand Expression
}

func (e *PrefixExpr) ComputationalType() bytecode.ComputationalType { return e.Type }
func (e *PrefixExpr) exprNode()                                    {}

// ConvertExpr is a primitive widening/narrowing cast (i2l, d2f, i2b, ...).
type ConvertExpr struct {
	From, To bytecode.ComputationalType
	Operand  Expression
}

func (e *ConvertExpr) ComputationalType() bytecode.ComputationalType { return e.To }
func (e *ConvertExpr) exprNode()                                    {}

// Compare is the lcmp/fcmpl/fcmpg/dcmpl/dcmpg family: always produces an
// int.
type Compare struct {
	Op       bytecode.CompareOp
	LHS, RHS Expression
}

func (e *Compare) ComputationalType() bytecode.ComputationalType { return bytecode.TInt }
func (e *Compare) exprNode()                                    {}

// GetField/GetStatic read a field; Field names the target.
type GetField struct {
	Field    bytecode.FieldRef
	Receiver Expression
}

func (e *GetField) ComputationalType() bytecode.ComputationalType { return e.Field.Type }
func (e *GetField) exprNode()                                    {}

type GetStatic struct {
	Field bytecode.FieldRef
}

func (e *GetStatic) ComputationalType() bytecode.ComputationalType { return e.Field.Type }
func (e *GetStatic) exprNode()                                    {}

// New/NewArray mirror the bytecode.New/NewArray allocation instructions.
type New struct {
	ClassName string
}

func (e *New) ComputationalType() bytecode.ComputationalType { return bytecode.TReference }
func (e *New) exprNode()                                    {}

type NewArray struct {
	ClassName string // "" for a primitive element type
	Dims      int
	Lengths   []Expression
}

func (e *NewArray) ComputationalType() bytecode.ComputationalType { return bytecode.TReference }
func (e *NewArray) exprNode()                                    {}

// ArrayLoad/ArrayLength read from an array reference.
type ArrayLoad struct {
	ElementType  bytecode.ComputationalType
	Array, Index Expression
}

func (e *ArrayLoad) ComputationalType() bytecode.ComputationalType { return e.ElementType }
func (e *ArrayLoad) exprNode()                                    {}

type ArrayLength struct {
	Array Expression
}

func (e *ArrayLength) ComputationalType() bytecode.ComputationalType { return bytecode.TInt }
func (e *ArrayLength) exprNode()                                    {}

// InstanceOf is a def site, unlike Checkcast (a statement — see stmt.go).
type InstanceOf struct {
	TargetType string
	Operand    Expression
}

func (e *InstanceOf) ComputationalType() bytecode.ComputationalType { return bytecode.TInt }
func (e *InstanceOf) exprNode()                                    {}

// StaticFunctionCall/VirtualFunctionCall/NonVirtualFunctionCall are the
// value-returning invocation shapes; the void-returning shapes are
// statements (StaticMethodCall and friends, see stmt.go).
type StaticFunctionCall struct {
	Method bytecode.MethodRef
	Args   []Expression
}

func (e *StaticFunctionCall) ComputationalType() bytecode.ComputationalType {
	return e.Method.ReturnType
}
func (e *StaticFunctionCall) exprNode() {}

type VirtualFunctionCall struct {
	Method   bytecode.MethodRef
	Receiver Expression
	Args     []Expression
}

func (e *VirtualFunctionCall) ComputationalType() bytecode.ComputationalType {
	return e.Method.ReturnType
}
func (e *VirtualFunctionCall) exprNode() {}

// NonVirtualFunctionCall is invokespecial with a return value
// (constructors, private methods, super calls).
type NonVirtualFunctionCall struct {
	Method   bytecode.MethodRef
	Receiver Expression
	Args     []Expression
}

func (e *NonVirtualFunctionCall) ComputationalType() bytecode.ComputationalType {
	return e.Method.ReturnType
}
func (e *NonVirtualFunctionCall) exprNode() {}

// Invokedynamic is invokedynamic with a return value.
type Invokedynamic struct {
	BootstrapName string
	Args          []Expression
	ReturnType    bytecode.ComputationalType
}

func (e *Invokedynamic) ComputationalType() bytecode.ComputationalType { return e.ReturnType }
func (e *Invokedynamic) exprNode()                                    {}
