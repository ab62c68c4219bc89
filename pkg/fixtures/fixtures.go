// Package fixtures builds in-memory bytecode.Code values for a handful of
// worked method shapes, so tests and cmd/tacdump don't each hand-roll their
// own instruction lists. Every scenario is built with the same small
// emit-style builder: append one instruction at a time, let the builder
// track the next pc, and hand the finished list to bytecode.NewCode.
package fixtures

import "github.com/bytecodeflow/jvmtac/pkg/bytecode"

// Scenario bundles a Code value with everything interp.Run and tac.Lift
// need to process it: the method's static/instance-ness, declared
// parameter types, local-variable table size, and a descriptor string
// for pkg/descriptor.ParseMethodDescriptor.
type Scenario struct {
	Name       string
	Descriptor string
	Code       *bytecode.Code
	IsStatic   bool
	MaxLocals  int
	ParamTypes []bytecode.ComputationalType
}

// builder appends instructions one at a time, tracking pc as the running
// instruction count — the in-memory equivalent of an assembler's location
// counter.
type builder struct {
	instrs []bytecode.Instruction
}

// pc returns the program counter the next emitted instruction will occupy.
func (b *builder) pc() int { return len(b.instrs) }

func (b *builder) emit(instr bytecode.Instruction) { b.instrs = append(b.instrs, instr) }

func (b *builder) code(handlers []bytecode.ExceptionHandler) *bytecode.Code {
	return bytecode.NewCode(b.instrs, len(b.instrs), handlers, nil)
}

// All returns every named scenario, in the order they appear below.
func All() []Scenario {
	return []Scenario{
		Identity(),
		DivisionByZero(),
		CaughtExceptionRethrow(),
		DeadConditionalBranch(),
		WideParameter(),
		TableSwitch(),
	}
}

// Identity is `static int id(int a) { return a; }`: ILOAD_0; IRETURN. The
// parameter flows straight through LoadLocal's origin pass-through to the
// return, so its TAC operand keeps the parameter's own origin unchanged.
func Identity() Scenario {
	b := &builder{}
	b.emit(bytecode.NewLoadLocal(b.pc(), 0, bytecode.TInt))
	b.emit(bytecode.NewReturnValue(b.pc(), bytecode.TInt))
	return Scenario{
		Name:       "identity",
		Descriptor: "(I)I",
		Code:       b.code(nil),
		IsStatic:   true,
		MaxLocals:  1,
		ParamTypes: []bytecode.ComputationalType{bytecode.TInt},
	}
}

// DivisionByZero is `static int divByZero() { return 1 / 0; }`:
// iconst_1; iconst_0; idiv; ireturn, with no handler. Under the type-only
// domain this module runs on, the divide's exceptional edge and its
// regular fallthrough are both reachable — the domain has no notion of
// "this constant is literally zero", so it cannot prove the ireturn dead
// the way a value-precise domain could.
func DivisionByZero() Scenario {
	b := &builder{}
	b.emit(bytecode.NewPushConst(b.pc(), bytecode.OpIntConst, int32(1), bytecode.TInt))
	b.emit(bytecode.NewPushConst(b.pc(), bytecode.OpIntConst, int32(0), bytecode.TInt))
	b.emit(bytecode.NewBinaryArith(b.pc(), bytecode.OpDiv, bytecode.BinDiv, bytecode.TInt))
	b.emit(bytecode.NewReturnValue(b.pc(), bytecode.TInt))
	return Scenario{
		Name:       "division-by-zero",
		Descriptor: "()I",
		Code:       b.code(nil),
		IsStatic:   true,
		MaxLocals:  0,
	}
}

// CaughtExceptionRethrow is:
//
//	static void tryFoo() {
//	    try { Foo.foo(); } catch (IOException e) { throw e; }
//	}
//
// The handler's only statement is an athrow consuming the caught value
// directly, so its lifted TAC is a synthetic CaughtException immediately
// followed by a Throw that uses it — no astore/aload round trip to collapse.
func CaughtExceptionRethrow() Scenario {
	b := &builder{}
	b.emit(bytecode.NewInvoke(b.pc(), bytecode.OpInvokeStatic, bytecode.InvokeStatic, bytecode.MethodRef{
		DeclaringClass: "Foo",
		Name:           "foo",
	}))
	b.emit(bytecode.NewReturn(b.pc()))
	handlerPC := b.pc()
	b.emit(bytecode.NewAthrow(b.pc()))

	handlers := []bytecode.ExceptionHandler{
		{StartPC: 0, EndPC: handlerPC, HandlerPC: handlerPC, CatchType: "java/io/IOException"},
	}
	return Scenario{
		Name:       "caught-exception-rethrow",
		Descriptor: "()V",
		Code:       b.code(handlers),
		IsStatic:   true,
		MaxLocals:  0,
	}
}

// DeadConditionalBranch is `if_icmpeq L1; goto L1;` where L1 is the
// instruction right after the goto: the if's target coincides with its own
// fallthrough (both are the goto's pc), so it collapses to a Nop; its
// popped operands are the two parameters, which have no DVar, so no
// obsolete use site is recorded for them; the goto's own target then
// coincides with its fallthrough too, so it collapses the same way.
//
//	static int dead(int a, int b) {
//	    0: iload_0
//	    1: iload_1
//	    2: if_icmpeq 3   // target == pc 3, its own next instruction
//	    3: goto 4        // target == pc 4, its own next instruction
//	    4: iconst_0
//	    5: ireturn
//	}
func DeadConditionalBranch() Scenario {
	b := &builder{}
	b.emit(bytecode.NewLoadLocal(b.pc(), 0, bytecode.TInt))
	b.emit(bytecode.NewLoadLocal(b.pc(), 1, bytecode.TInt))
	b.emit(bytecode.NewIf(b.pc(), bytecode.IfEQ, false, b.pc()+1))
	b.emit(bytecode.NewGoto(b.pc(), b.pc()+1))
	b.emit(bytecode.NewPushConst(b.pc(), bytecode.OpIntConst, int32(0), bytecode.TInt))
	b.emit(bytecode.NewReturnValue(b.pc(), bytecode.TInt))
	return Scenario{
		Name:       "dead-conditional-branch",
		Descriptor: "(II)I",
		Code:       b.code(nil),
		IsStatic:   true,
		MaxLocals:  2,
		ParamTypes: []bytecode.ComputationalType{bytecode.TInt, bytecode.TInt},
	}
}

// WideParameter is `static long doubleIt(long x) { return x * 2; }`:
// LLOAD_0; LCONST_2; LMUL; LRETURN. x occupies locals 0-1 (category-2), so
// the next free slot and the AI's wide-skip bookkeeping both have to agree
// on slot width for the multiply's operands to line up.
func WideParameter() Scenario {
	b := &builder{}
	b.emit(bytecode.NewLoadLocal(b.pc(), 0, bytecode.TLong))
	b.emit(bytecode.NewPushConst(b.pc(), bytecode.OpLongConst, int64(2), bytecode.TLong))
	b.emit(bytecode.NewBinaryArith(b.pc(), bytecode.OpMul, bytecode.BinMul, bytecode.TLong))
	b.emit(bytecode.NewReturnValue(b.pc(), bytecode.TLong))
	return Scenario{
		Name:       "wide-parameter",
		Descriptor: "(J)J",
		Code:       b.code(nil),
		IsStatic:   true,
		MaxLocals:  2,
		ParamTypes: []bytecode.ComputationalType{bytecode.TLong},
	}
}

// TableSwitch is:
//
//	static int classify(int k) {
//	    switch (k) {
//	    case 0: return 10;
//	    case 1: return 20;
//	    default: return -1;
//	    }
//	}
//
// built as iload_0; tableswitch(low=0, high=1, targets={case0,case1},
// default=defaultCase); two case bodies; a default body.
func TableSwitch() Scenario {
	b := &builder{}
	b.emit(bytecode.NewLoadLocal(b.pc(), 0, bytecode.TInt))

	switchPC := b.pc()
	case0 := switchPC + 1
	case1 := case0 + 2
	defaultCase := case1 + 2
	b.emit(bytecode.NewTableSwitch(switchPC, 0, 1, []int{case0, case1}, defaultCase))

	b.emit(bytecode.NewPushConst(b.pc(), bytecode.OpIntConst, int32(10), bytecode.TInt))
	b.emit(bytecode.NewReturnValue(b.pc(), bytecode.TInt))
	b.emit(bytecode.NewPushConst(b.pc(), bytecode.OpIntConst, int32(20), bytecode.TInt))
	b.emit(bytecode.NewReturnValue(b.pc(), bytecode.TInt))
	b.emit(bytecode.NewPushConst(b.pc(), bytecode.OpIntConst, int32(-1), bytecode.TInt))
	b.emit(bytecode.NewReturnValue(b.pc(), bytecode.TInt))

	return Scenario{
		Name:       "table-switch",
		Descriptor: "(I)I",
		Code:       b.code(nil),
		IsStatic:   true,
		MaxLocals:  1,
		ParamTypes: []bytecode.ComputationalType{bytecode.TInt},
	}
}
