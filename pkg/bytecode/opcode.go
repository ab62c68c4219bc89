package bytecode

// Opcode identifies the operation an Instruction performs. The constants
// below are grouped by family — the same grouping the abstract domain
// (pkg/domain) and the lifter (pkg/tac) switch over — rather than by their
// real JVM numeric encoding, since this core never serializes to or from a
// class file.
type Opcode int

const (
	// --- stack management: never def sites, see Instruction.IsStackManagement ---
	OpNop Opcode = iota
	OpPop
	OpPop2
	OpDup
	OpDupX1
	OpDupX2
	OpDup2
	OpDup2X1
	OpDup2X2
	OpSwap

	// --- constants ---
	OpIntConst
	OpLongConst
	OpFloatConst
	OpDoubleConst
	OpStringConst
	OpClassConst
	OpMethodTypeConst
	OpMethodHandleConst
	OpNullConst

	// --- locals ---
	OpLoad  // ILOAD/LLOAD/FLOAD/DLOAD/ALOAD, distinguished by ComputationalType
	OpStore // ISTORE/LSTORE/FSTORE/DSTORE/ASTORE
	OpIinc

	// --- arrays ---
	OpArrayLoad
	OpArrayStore
	OpArrayLength
	OpNewArray
	OpANewArray
	OpMultiANewArray

	// --- arithmetic / bitwise (family covers int/long/float/double as applicable) ---
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpNeg
	OpShl
	OpShr
	OpUshr
	OpAnd
	OpOr
	OpXor

	// --- conversions ---
	OpConvert

	// --- comparisons ---
	OpCompare // lcmp, fcmpl/g, dcmpl/g

	// --- control flow ---
	OpIf // all if*/if_icmp*/if_acmp*/ifnull/ifnonnull collapse to one family
	OpGoto
	OpJsr
	OpRet
	OpTableSwitch
	OpLookupSwitch

	// --- returns ---
	OpReturn
	OpReturnValue

	// --- fields ---
	OpGetField
	OpPutField
	OpGetStatic
	OpPutStatic

	// --- objects / invocation ---
	OpNew
	OpInvokeStatic
	OpInvokeVirtual
	OpInvokeSpecial
	OpInvokeInterface
	OpInvokeDynamic

	// --- misc ---
	OpCheckcast
	OpInstanceOf
	OpMonitorEnter
	OpMonitorExit
	OpAthrow
)

var opcodeNames = map[Opcode]string{
	OpNop: "nop", OpPop: "pop", OpPop2: "pop2", OpDup: "dup", OpDupX1: "dup_x1",
	OpDupX2: "dup_x2", OpDup2: "dup2", OpDup2X1: "dup2_x1", OpDup2X2: "dup2_x2",
	OpSwap: "swap", OpIntConst: "iconst", OpLongConst: "lconst",
	OpFloatConst: "fconst", OpDoubleConst: "dconst", OpStringConst: "ldc_str",
	OpClassConst: "ldc_class", OpMethodTypeConst: "ldc_methodtype",
	OpMethodHandleConst: "ldc_methodhandle", OpNullConst: "aconst_null",
	OpLoad: "load", OpStore: "store", OpIinc: "iinc", OpArrayLoad: "aload",
	OpArrayStore: "astore", OpArrayLength: "arraylength", OpNewArray: "newarray",
	OpANewArray: "anewarray", OpMultiANewArray: "multianewarray", OpAdd: "add",
	OpSub: "sub", OpMul: "mul", OpDiv: "div", OpRem: "rem", OpNeg: "neg",
	OpShl: "shl", OpShr: "shr", OpUshr: "ushr", OpAnd: "and", OpOr: "or",
	OpXor: "xor", OpConvert: "convert", OpCompare: "compare", OpIf: "if",
	OpGoto: "goto", OpJsr: "jsr", OpRet: "ret", OpTableSwitch: "tableswitch",
	OpLookupSwitch: "lookupswitch", OpReturn: "return", OpReturnValue: "returnvalue",
	OpGetField: "getfield", OpPutField: "putfield", OpGetStatic: "getstatic",
	OpPutStatic: "putstatic", OpNew: "new", OpInvokeStatic: "invokestatic",
	OpInvokeVirtual: "invokevirtual", OpInvokeSpecial: "invokespecial",
	OpInvokeInterface: "invokeinterface", OpInvokeDynamic: "invokedynamic",
	OpCheckcast: "checkcast", OpInstanceOf: "instanceof",
	OpMonitorEnter: "monitorenter", OpMonitorExit: "monitorexit", OpAthrow: "athrow",
}

func (op Opcode) String() string {
	if s, ok := opcodeNames[op]; ok {
		return s
	}
	return "unknown"
}

// BinaryOp / CompareOp distinguish the concrete operator within the
// OpAdd/.../OpXor and OpCompare families; the lifter maps these directly
// onto tac.BinaryExpr operators.
type BinaryOp int

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinRem
	BinShl
	BinShr
	BinUshr
	BinAnd
	BinOr
	BinXor
)

// CompareOp names the flavor of a long/float/double three-way compare.
type CompareOp int

const (
	CmpLong CompareOp = iota
	CmpFloatL                 // fcmpl: NaN compares as -1
	CmpFloatG                 // fcmpg: NaN compares as +1
	CmpDoubleL
	CmpDoubleG
)

// IfCondition names the relational test an OpIf instruction performs
// against either (a) a single operand and zero, or (b) two operands.
type IfCondition int

const (
	IfEQ IfCondition = iota
	IfNE
	IfLT
	IfGE
	IfGT
	IfLE
	IfNull
	IfNonNull
)

// InvokeShape distinguishes static/virtual/special/interface dispatch,
// which the lifter needs to choose the right TAC call-expression shape.
type InvokeShape int

const (
	InvokeStatic InvokeShape = iota
	InvokeVirtual
	InvokeSpecial
	InvokeInterface
)
