package bytecode

// Instruction is the closed tagged-union every concrete opcode family
// implements. The interpreter, def/use recorder, and lifter all switch
// over the concrete type (never over Opcode() alone); a family with no case
// reaches the switch's default, which returns an unhandled-instruction
// error.
//
// Instruction carries decoded operands and its own pc; it has no notion of
// the values flowing through it (that is the domain's job) and no notion
// of exceptional control flow (that is the CFG's job, since it depends on
// the exception-handler table and — for "throw all potential exceptions"
// — on domain configuration).
type Instruction interface {
	PC() int
	Opcode() Opcode

	// RegularSuccessors returns the non-exceptional control-flow successors
	// of this instruction. pcOfNext is the pc of the instruction
	// immediately following this one in program order (ignored by
	// instructions, such as returns, that fall through to nothing).
	RegularSuccessors(pcOfNext int) []int

	// IsStackManagement reports whether this instruction only rearranges
	// already-live values (dup*/pop*/swap) and therefore is never a def
	// site for the def/use recorder.
	IsStackManagement() bool

	// IsStoreLocal/IsLoadLocal/ReadsLocal classify local-variable traffic;
	// the def/use recorder and the lifter's collapse rules both need
	// these.
	IsStoreLocal() bool
	IsLoadLocal() bool
	ReadsLocal() (index int, ok bool)
}

// base is embedded by every concrete instruction type and supplies the
// identity methods and the conservative (false/none) defaults for the
// categorical predicates; only the families that actually touch locals or
// the stack override them.
type base struct {
	pc int
	op Opcode
}

func (b base) PC() int                         { return b.pc }
func (b base) Opcode() Opcode                  { return b.op }
func (b base) IsStackManagement() bool         { return false }
func (b base) IsStoreLocal() bool              { return false }
func (b base) IsLoadLocal() bool               { return false }
func (b base) ReadsLocal() (index int, ok bool) { return 0, false }

func fallsThrough(pcOfNext int) []int { return []int{pcOfNext} }

// --- stack management -------------------------------------------------

// StackOp covers nop/pop/pop2/dup*/swap: instructions that rearrange the
// operand stack without creating a new value.
type StackOp struct {
	base
}

func NewStackOp(pc int, op Opcode) *StackOp { return &StackOp{base{pc, op}} }

func (i *StackOp) RegularSuccessors(pcOfNext int) []int { return fallsThrough(pcOfNext) }
func (i *StackOp) IsStackManagement() bool              { return true }

// --- constants ----------------------------------------------------------

// PushConst covers every constant-pushing opcode family (int/long/float/
// double/string/class/methodtype/methodhandle/null); Value is the decoded
// literal, typed per Opcode (int64, float64, string, ...).
type PushConst struct {
	base
	Value any
	Type  ComputationalType
}

func NewPushConst(pc int, op Opcode, value any, t ComputationalType) *PushConst {
	return &PushConst{base{pc, op}, value, t}
}

func (i *PushConst) RegularSuccessors(pcOfNext int) []int { return fallsThrough(pcOfNext) }

// --- locals ---------------------------------------------------------------

// LoadLocal reads local slot Index onto the stack (ILOAD/LLOAD/FLOAD/
// DLOAD/ALOAD).
type LoadLocal struct {
	base
	Index int
	Type  ComputationalType
}

func NewLoadLocal(pc, index int, t ComputationalType) *LoadLocal {
	return &LoadLocal{base{pc, OpLoad}, index, t}
}

func (i *LoadLocal) RegularSuccessors(pcOfNext int) []int { return fallsThrough(pcOfNext) }
func (i *LoadLocal) IsLoadLocal() bool                    { return true }
func (i *LoadLocal) ReadsLocal() (int, bool)              { return i.Index, true }

// StoreLocal pops the top of stack into local slot Index (ISTORE/LSTORE/
// FSTORE/DSTORE/ASTORE).
type StoreLocal struct {
	base
	Index int
	Type  ComputationalType
}

func NewStoreLocal(pc, index int, t ComputationalType) *StoreLocal {
	return &StoreLocal{base{pc, OpStore}, index, t}
}

func (i *StoreLocal) RegularSuccessors(pcOfNext int) []int { return fallsThrough(pcOfNext) }
func (i *StoreLocal) IsStoreLocal() bool                   { return true }

// IncLocal is IINC: reads, adds a constant, and writes back local slot
// Index in a single instruction. It is both a load and a store.
type IncLocal struct {
	base
	Index int
	Const int32
}

func NewIncLocal(pc, index int, c int32) *IncLocal {
	return &IncLocal{base{pc, OpIinc}, index, c}
}

func (i *IncLocal) RegularSuccessors(pcOfNext int) []int { return fallsThrough(pcOfNext) }
func (i *IncLocal) IsLoadLocal() bool                    { return true }
func (i *IncLocal) IsStoreLocal() bool                   { return true }
func (i *IncLocal) ReadsLocal() (int, bool)              { return i.Index, true }

// --- arrays -----------------------------------------------------------

// ArrayLoad is *ALOAD: pops (arrayref, index), pushes the element.
type ArrayLoad struct {
	base
	ElementType ComputationalType
}

func NewArrayLoad(pc int, t ComputationalType) *ArrayLoad {
	return &ArrayLoad{base{pc, OpArrayLoad}, t}
}
func (i *ArrayLoad) RegularSuccessors(pcOfNext int) []int { return fallsThrough(pcOfNext) }

// ArrayStore is *ASTORE: pops (arrayref, index, value).
type ArrayStore struct {
	base
	ElementType ComputationalType
}

func NewArrayStore(pc int, t ComputationalType) *ArrayStore {
	return &ArrayStore{base{pc, OpArrayStore}, t}
}
func (i *ArrayStore) RegularSuccessors(pcOfNext int) []int { return fallsThrough(pcOfNext) }

// ArrayLength is ARRAYLENGTH: pops arrayref, pushes its length.
type ArrayLength struct{ base }

func NewArrayLength(pc int) *ArrayLength { return &ArrayLength{base{pc, OpArrayLength}} }
func (i *ArrayLength) RegularSuccessors(pcOfNext int) []int { return fallsThrough(pcOfNext) }

// NewArray covers NEWARRAY (primitive), ANEWARRAY (reference), and
// MULTIANEWARRAY (Dims > 1); ClassName describes the array's element kind.
type NewArray struct {
	base
	ClassName string // element class for ANEWARRAY/MULTIANEWARRAY; "" for a primitive NEWARRAY
	Dims      int    // 1 for NEWARRAY/ANEWARRAY, >1 for MULTIANEWARRAY
}

func NewNewArray(pc int, op Opcode, className string, dims int) *NewArray {
	return &NewArray{base{pc, op}, className, dims}
}
func (i *NewArray) RegularSuccessors(pcOfNext int) []int { return fallsThrough(pcOfNext) }

// --- arithmetic / bitwise ----------------------------------------------

// BinaryArith covers the add/sub/mul/div/rem/shl/shr/ushr/and/or/xor
// families across every applicable computational type.
type BinaryArith struct {
	base
	Op   BinaryOp
	Type ComputationalType
}

func NewBinaryArith(pc int, family Opcode, op BinaryOp, t ComputationalType) *BinaryArith {
	return &BinaryArith{base{pc, family}, op, t}
}
func (i *BinaryArith) RegularSuccessors(pcOfNext int) []int { return fallsThrough(pcOfNext) }

// UnaryArith is the neg family (INEG/LNEG/FNEG/DNEG).
type UnaryArith struct {
	base
	Type ComputationalType
}

func NewUnaryArith(pc int, t ComputationalType) *UnaryArith {
	return &UnaryArith{base{pc, OpNeg}, t}
}
func (i *UnaryArith) RegularSuccessors(pcOfNext int) []int { return fallsThrough(pcOfNext) }

// Convert is a primitive-widening/narrowing cast (I2L, D2F, I2B, ...).
type Convert struct {
	base
	From, To ComputationalType
}

func NewConvert(pc int, from, to ComputationalType) *Convert {
	return &Convert{base{pc, OpConvert}, from, to}
}
func (i *Convert) RegularSuccessors(pcOfNext int) []int { return fallsThrough(pcOfNext) }

// Compare is the lcmp/fcmpl/fcmpg/dcmpl/dcmpg family: pops two values,
// pushes -1/0/1.
type Compare struct {
	base
	Op CompareOp
}

func NewCompare(pc int, op CompareOp) *Compare { return &Compare{base{pc, OpCompare}, op} }
func (i *Compare) RegularSuccessors(pcOfNext int) []int { return fallsThrough(pcOfNext) }

// --- control flow -------------------------------------------------------

// If is every conditional branch family (if*, if_icmp*, if_acmp*, ifnull,
// ifnonnull) collapsed to one shape: Unary is true for the single-operand
// forms (compare against zero/null), false for the two-operand forms.
type If struct {
	base
	Cond    IfCondition
	Unary   bool
	TargetPC int
}

func NewIf(pc int, cond IfCondition, unary bool, target int) *If {
	return &If{base{pc, OpIf}, cond, unary, target}
}

func (i *If) RegularSuccessors(pcOfNext int) []int {
	if i.TargetPC == pcOfNext {
		return []int{pcOfNext}
	}
	return []int{pcOfNext, i.TargetPC}
}

// Goto is GOTO/GOTO_W.
type Goto struct {
	base
	TargetPC int
}

func NewGoto(pc, target int) *Goto { return &Goto{base{pc, OpGoto}, target} }
func (i *Goto) RegularSuccessors(pcOfNext int) []int { return []int{i.TargetPC} }

// Jsr is JSR/JSR_W: pushes a return address and jumps to a subroutine.
type Jsr struct {
	base
	TargetPC int
}

func NewJsr(pc, target int) *Jsr { return &Jsr{base{pc, OpJsr}, target} }
func (i *Jsr) RegularSuccessors(pcOfNext int) []int { return []int{i.TargetPC} }

// Ret returns from a subroutine to the pc following whichever jsr invoked
// it; ReturnAddressLocal names the local slot holding the return address.
// Its successors are not static — the interpreter computes them from the
// set of jsrs whose return address reaches this ret (spec.md §4.3) — so
// RegularSuccessors returns nil and callers must consult the interpreter's
// per-pc successor record instead.
type Ret struct {
	base
	ReturnAddressLocal int
}

func NewRet(pc, local int) *Ret { return &Ret{base{pc, OpRet}, local} }
func (i *Ret) RegularSuccessors(pcOfNext int) []int { return nil }
func (i *Ret) IsLoadLocal() bool                    { return true }
func (i *Ret) ReadsLocal() (int, bool)              { return i.ReturnAddressLocal, true }

// SwitchCase is one (value, targetPC) arm of a TableSwitch/LookupSwitch.
type SwitchCase struct {
	Value    int32
	TargetPC int
}

// TableSwitch is TABLESWITCH: a dense jump table from Low to High.
type TableSwitch struct {
	base
	Low, High int32
	Targets   []int // len == High-Low+1, indexed by value-Low
	DefaultPC int
}

func NewTableSwitch(pc int, low, high int32, targets []int, def int) *TableSwitch {
	return &TableSwitch{base{pc, OpTableSwitch}, low, high, targets, def}
}

func (i *TableSwitch) RegularSuccessors(pcOfNext int) []int {
	out := make([]int, 0, len(i.Targets)+1)
	out = append(out, i.DefaultPC)
	out = append(out, i.Targets...)
	return dedupInts(out)
}

// LookupSwitch is LOOKUPSWITCH: a sparse (value, target) table.
type LookupSwitch struct {
	base
	Cases     []SwitchCase
	DefaultPC int
}

func NewLookupSwitch(pc int, cases []SwitchCase, def int) *LookupSwitch {
	return &LookupSwitch{base{pc, OpLookupSwitch}, cases, def}
}

func (i *LookupSwitch) RegularSuccessors(pcOfNext int) []int {
	out := make([]int, 0, len(i.Cases)+1)
	out = append(out, i.DefaultPC)
	for _, c := range i.Cases {
		out = append(out, c.TargetPC)
	}
	return dedupInts(out)
}

func dedupInts(in []int) []int {
	seen := make(map[int]bool, len(in))
	out := in[:0:0]
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// --- returns -----------------------------------------------------------

// Return is RETURN (void).
type Return struct{ base }

func NewReturn(pc int) *Return { return &Return{base{pc, OpReturn}} }
func (i *Return) RegularSuccessors(pcOfNext int) []int { return nil }

// ReturnValue is IRETURN/LRETURN/FRETURN/DRETURN/ARETURN.
type ReturnValue struct {
	base
	Type ComputationalType
}

func NewReturnValue(pc int, t ComputationalType) *ReturnValue {
	return &ReturnValue{base{pc, OpReturnValue}, t}
}
func (i *ReturnValue) RegularSuccessors(pcOfNext int) []int { return nil }

// --- fields --------------------------------------------------------------

// FieldRef names the (DeclaringClass, Name, Type) triple a field accessor
// targets.
type FieldRef struct {
	DeclaringClass string
	Name           string
	Type           ComputationalType
}

// GetField/PutField/GetStatic/PutStatic are the four field-access opcodes.
type FieldAccess struct {
	base
	Field FieldRef
}

func NewFieldAccess(pc int, op Opcode, f FieldRef) *FieldAccess {
	return &FieldAccess{base{pc, op}, f}
}
func (i *FieldAccess) RegularSuccessors(pcOfNext int) []int { return fallsThrough(pcOfNext) }

// --- objects / invocation -------------------------------------------------

// New is NEW: allocates an uninitialized instance.
type New struct {
	base
	ClassName string
}

func NewNewObject(pc int, className string) *New { return &New{base{pc, OpNew}, className} }
func (i *New) RegularSuccessors(pcOfNext int) []int { return fallsThrough(pcOfNext) }

// MethodRef names a resolvable method signature.
type MethodRef struct {
	DeclaringClass string
	IsInterface    bool
	Name           string
	ParamTypes     []ComputationalType
	ReturnType     ComputationalType
	HasReturn      bool
}

// Invoke covers invokestatic/invokevirtual/invokespecial/invokeinterface.
type Invoke struct {
	base
	Shape  InvokeShape
	Method MethodRef
}

func NewInvoke(pc int, op Opcode, shape InvokeShape, m MethodRef) *Invoke {
	return &Invoke{base{pc, op}, shape, m}
}
func (i *Invoke) RegularSuccessors(pcOfNext int) []int { return fallsThrough(pcOfNext) }

// InvokeDynamic is INVOKEDYNAMIC: a call-site resolved via a bootstrap
// method; BootstrapName/ParamTypes/ReturnType describe the synthesized
// call-site's method type.
type InvokeDynamic struct {
	base
	BootstrapName string
	ParamTypes    []ComputationalType
	ReturnType    ComputationalType
	HasReturn     bool
}

func NewInvokeDynamic(pc int, name string, params []ComputationalType, ret ComputationalType, hasReturn bool) *InvokeDynamic {
	return &InvokeDynamic{base{pc, OpInvokeDynamic}, name, params, ret, hasReturn}
}
func (i *InvokeDynamic) RegularSuccessors(pcOfNext int) []int { return fallsThrough(pcOfNext) }

// --- misc ----------------------------------------------------------------

// Checkcast pops and re-pushes a reference after a dynamic type check; it
// is not a def site (the value passes through unchanged).
type Checkcast struct {
	base
	TargetType string
}

func NewCheckcast(pc int, targetType string) *Checkcast {
	return &Checkcast{base{pc, OpCheckcast}, targetType}
}
func (i *Checkcast) RegularSuccessors(pcOfNext int) []int { return fallsThrough(pcOfNext) }

// InstanceOf pops a reference and pushes an int (0 or 1); unlike
// Checkcast, this *is* a def site.
type InstanceOf struct {
	base
	TargetType string
}

func NewInstanceOf(pc int, targetType string) *InstanceOf {
	return &InstanceOf{base{pc, OpInstanceOf}, targetType}
}
func (i *InstanceOf) RegularSuccessors(pcOfNext int) []int { return fallsThrough(pcOfNext) }

// Monitor is MONITORENTER/MONITOREXIT.
type Monitor struct{ base }

func NewMonitor(pc int, op Opcode) *Monitor { return &Monitor{base{pc, op}} }
func (i *Monitor) RegularSuccessors(pcOfNext int) []int { return fallsThrough(pcOfNext) }

// Athrow pops a throwable and transfers exclusively to exception
// successors; it has no regular successor.
type Athrow struct{ base }

func NewAthrow(pc int) *Athrow { return &Athrow{base{pc, OpAthrow}} }
func (i *Athrow) RegularSuccessors(pcOfNext int) []int { return nil }
