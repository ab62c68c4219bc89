package interp

import (
	"fmt"

	"github.com/bytecodeflow/jvmtac/pkg/bytecode"
	"github.com/bytecodeflow/jvmtac/pkg/config"
	"github.com/bytecodeflow/jvmtac/pkg/defuse"
	"github.com/bytecodeflow/jvmtac/pkg/domain"
	"github.com/bytecodeflow/jvmtac/pkg/hierarchy"
)

// returnAddressValue is the lone value kind the interpreter manufactures
// itself rather than asking the domain for: a jsr's return address is VM
// bookkeeping, not a value any abstract domain needs an opinion about.
type returnAddressValue struct{ jsrPC int }

func (r returnAddressValue) ComputationalType() bytecode.ComputationalType { return bytecode.TReturnAddress }
func (r returnAddressValue) String() string                               { return fmt.Sprintf("retaddr(%d)", r.jsrPC) }

// referenceClassNameOf asks v for its concrete reference type, if the
// concrete domain value happens to expose one; returns "" (unknown) for
// domains that don't track it, in which case exception matching falls
// back to "matches every covering handler".
func referenceClassNameOf(v domain.Value) string {
	if tr, ok := v.(interface{ ReferenceClassName() string }); ok {
		return tr.ReferenceClassName()
	}
	return ""
}

type excTargetResult struct {
	pc      int
	excType string
	frame   *frame
}

type returnResult struct {
	pc      int
	value   domain.Value
	hasValue bool
	origins defuse.OriginSet
}

// stepResult is everything one worklist iteration needs to schedule
// successors and record the outcome.
type stepResult struct {
	out            *frame
	regularTargets []int
	excTargets     []excTargetResult
	ret            *returnResult
}

// applyInstruction executes instr's transfer function against entry,
// recording every def/use it produces into du, and returns the
// post-instruction frame together with every control-flow edge it
// generates (regular and exceptional).
func applyInstruction(dom domain.Domain, h hierarchy.Hierarchy, code *bytecode.Code, conf config.Configuration, du *defuse.Recorder, pc int, instr bytecode.Instruction, entry *frame) (*stepResult, error) {
	out := entry.clone()
	res := &stepResult{out: out}

	pcOfNext := code.PCOfNextInstruction(pc)
	defSite := defuse.Single(bytecode.Origin(pc))

	use := func(o defuse.OriginSet) { du.RecordUseSet(o, pc) }
	def := func() { du.RecordDef(bytecode.Origin(pc)) }

	raiseVM := func() {
		if conf.IgnoreSynchronization {
			if _, isMonitor := instr.(*bytecode.Monitor); isMonitor {
				return
			}
		}
		possibleVM := dom.PossibleVMExceptions(instr)
		for _, edge := range exceptionEdgesFor(code, pc, instr, "", conf.ThrowAllPotentialExceptions, possibleVM, h) {
			vmOrigin := bytecode.EncodeVMLevelValue(pc)
			thrown := dom.Thrown(vmOrigin, edge.excType)
			res.excTargets = append(res.excTargets, excTargetResult{
				pc:      edge.handler.HandlerPC,
				excType: edge.excType,
				frame:   exceptionFrame(entry, thrown, bytecode.Origin(edge.handler.HandlerPC)),
			})
		}
	}

	switch i := instr.(type) {
	case *bytecode.StackOp:
		applyStackOp(out, i.Opcode())

	case *bytecode.PushConst:
		v := pushConstValue(dom, i)
		out.push(v, defSite)
		def()

	case *bytecode.LoadLocal:
		v, o, err := out.getLocal(i.Index)
		if err != nil {
			return nil, err
		}
		use(o)
		out.push(v, o)

	case *bytecode.StoreLocal:
		v, o, err := out.pop()
		if err != nil {
			return nil, err
		}
		use(o)
		out.setLocal(i.Index, v, o)
		if i.Type.IsCategory2() {
			out.setLocal(i.Index+1, dom.Illegal(), o)
		}

	case *bytecode.IncLocal:
		v, o, err := out.getLocal(i.Index)
		if err != nil {
			return nil, err
		}
		use(o)
		result, err := dom.BinaryArith(bytecode.BinAdd, bytecode.TInt, v, dom.IntConst(i.Const))
		if err != nil {
			return nil, err
		}
		out.setLocal(i.Index, result, defSite)
		def()

	case *bytecode.ArrayLoad:
		idx, idxO, err := out.pop()
		if err != nil {
			return nil, err
		}
		arr, arrO, err := out.pop()
		if err != nil {
			return nil, err
		}
		use(idxO)
		use(arrO)
		raiseVM()
		result, err := dom.ArrayLoad(arr, idx, i.ElementType)
		if err != nil {
			return nil, err
		}
		out.push(result, defSite)
		def()

	case *bytecode.ArrayStore:
		val, valO, err := out.pop()
		if err != nil {
			return nil, err
		}
		idx, idxO, err := out.pop()
		if err != nil {
			return nil, err
		}
		arr, arrO, err := out.pop()
		if err != nil {
			return nil, err
		}
		use(valO)
		use(idxO)
		use(arrO)
		raiseVM()
		if err := dom.ArrayStore(arr, idx, val); err != nil {
			return nil, err
		}

	case *bytecode.ArrayLength:
		arr, arrO, err := out.pop()
		if err != nil {
			return nil, err
		}
		use(arrO)
		raiseVM()
		result, err := dom.ArrayLength(arr)
		if err != nil {
			return nil, err
		}
		out.push(result, defSite)
		def()

	case *bytecode.NewArray:
		lengths, origins, err := out.popN(i.Dims)
		if err != nil {
			return nil, err
		}
		for _, o := range origins {
			use(o)
		}
		raiseVM()
		result, err := dom.NewArray(lengths, i.ClassName, i.Dims)
		if err != nil {
			return nil, err
		}
		out.push(result, defSite)
		def()

	case *bytecode.BinaryArith:
		b, bo, err := out.pop()
		if err != nil {
			return nil, err
		}
		a, ao, err := out.pop()
		if err != nil {
			return nil, err
		}
		use(ao)
		use(bo)
		raiseVM()
		result, err := dom.BinaryArith(i.Op, i.Type, a, b)
		if err != nil {
			return nil, err
		}
		out.push(result, defSite)
		def()

	case *bytecode.UnaryArith:
		a, ao, err := out.pop()
		if err != nil {
			return nil, err
		}
		use(ao)
		result, err := dom.UnaryArith(i.Type, a)
		if err != nil {
			return nil, err
		}
		out.push(result, defSite)
		def()

	case *bytecode.Convert:
		v, vo, err := out.pop()
		if err != nil {
			return nil, err
		}
		use(vo)
		result, err := dom.Convert(i.From, i.To, v)
		if err != nil {
			return nil, err
		}
		out.push(result, defSite)
		def()

	case *bytecode.Compare:
		b, bo, err := out.pop()
		if err != nil {
			return nil, err
		}
		a, ao, err := out.pop()
		if err != nil {
			return nil, err
		}
		use(ao)
		use(bo)
		result, err := dom.Compare(i.Op, a, b)
		if err != nil {
			return nil, err
		}
		out.push(result, defSite)
		def()

	case *bytecode.If:
		if i.Unary {
			_, o, err := out.pop()
			if err != nil {
				return nil, err
			}
			use(o)
		} else {
			_, bo, err := out.pop()
			if err != nil {
				return nil, err
			}
			_, ao, err := out.pop()
			if err != nil {
				return nil, err
			}
			use(ao)
			use(bo)
		}
		res.regularTargets = i.RegularSuccessors(pcOfNext)

	case *bytecode.Goto:
		res.regularTargets = i.RegularSuccessors(pcOfNext)

	case *bytecode.Jsr:
		out.push(returnAddressValue{jsrPC: pc}, defSite)
		def()
		res.regularTargets = i.RegularSuccessors(pcOfNext)

	case *bytecode.Ret:
		_, o, err := out.getLocal(i.ReturnAddressLocal)
		if err != nil {
			return nil, err
		}
		use(o)
		seen := map[int]bool{}
		for _, origin := range o {
			if !bytecode.IsInstructionOrigin(origin) {
				continue
			}
			target := code.PCOfNextInstruction(origin.PC())
			if !seen[target] {
				seen[target] = true
				res.regularTargets = append(res.regularTargets, target)
			}
		}

	case *bytecode.TableSwitch:
		_, o, err := out.pop()
		if err != nil {
			return nil, err
		}
		use(o)
		res.regularTargets = i.RegularSuccessors(pcOfNext)

	case *bytecode.LookupSwitch:
		_, o, err := out.pop()
		if err != nil {
			return nil, err
		}
		use(o)
		res.regularTargets = i.RegularSuccessors(pcOfNext)

	case *bytecode.Return:
		res.ret = &returnResult{pc: pc}

	case *bytecode.ReturnValue:
		v, o, err := out.pop()
		if err != nil {
			return nil, err
		}
		use(o)
		res.ret = &returnResult{pc: pc, value: v, hasValue: true, origins: o}

	case *bytecode.FieldAccess:
		if err := applyFieldAccess(dom, out, i, pc, defSite, use, def); err != nil {
			return nil, err
		}
		raiseVM()

	case *bytecode.New:
		result, err := dom.NewObject(i.ClassName)
		if err != nil {
			return nil, err
		}
		out.push(result, defSite)
		def()

	case *bytecode.Invoke:
		args, argOrigins, err := out.popN(len(i.Method.ParamTypes))
		if err != nil {
			return nil, err
		}
		for _, o := range argOrigins {
			use(o)
		}
		var receiver domain.Value
		if i.Shape != bytecode.InvokeStatic {
			recv, ro, err := out.pop()
			if err != nil {
				return nil, err
			}
			use(ro)
			receiver = recv
		}
		raiseVM()
		result, hasResult, err := dom.Invoke(i.Shape, receiver, args, i.Method)
		if err != nil {
			return nil, err
		}
		if hasResult {
			out.push(result, defSite)
			def()
		}

	case *bytecode.InvokeDynamic:
		args, argOrigins, err := out.popN(len(i.ParamTypes))
		if err != nil {
			return nil, err
		}
		for _, o := range argOrigins {
			use(o)
		}
		result, hasResult, err := dom.InvokeDynamic(args, i)
		if err != nil {
			return nil, err
		}
		if hasResult {
			out.push(result, defSite)
			def()
		}

	case *bytecode.Checkcast:
		v, o, err := out.pop()
		if err != nil {
			return nil, err
		}
		use(o)
		raiseVM()
		result, err := dom.Checkcast(v, i.TargetType)
		if err != nil {
			return nil, err
		}
		out.push(result, o) // passes through: not a def site

	case *bytecode.InstanceOf:
		v, o, err := out.pop()
		if err != nil {
			return nil, err
		}
		use(o)
		result, err := dom.InstanceOf(v, i.TargetType)
		if err != nil {
			return nil, err
		}
		out.push(result, defSite)
		def()

	case *bytecode.Monitor:
		v, o, err := out.pop()
		if err != nil {
			return nil, err
		}
		use(o)
		raiseVM()
		if i.Opcode() == bytecode.OpMonitorEnter {
			err = dom.MonitorEnter(v)
		} else {
			err = dom.MonitorExit(v)
		}
		if err != nil {
			return nil, err
		}

	case *bytecode.Athrow:
		v, o, err := out.pop()
		if err != nil {
			return nil, err
		}
		use(o)
		excType := referenceClassNameOf(v)
		for _, edge := range exceptionEdgesFor(code, pc, instr, excType, conf.ThrowAllPotentialExceptions, nil, h) {
			res.excTargets = append(res.excTargets, excTargetResult{
				pc:      edge.handler.HandlerPC,
				excType: edge.excType,
				frame:   exceptionFrame(entry, v, bytecode.Origin(edge.handler.HandlerPC)),
			})
		}

	default:
		return nil, errUnhandledInstruction(instr)
	}

	// Every case above that ends a method (Return/ReturnValue) or throws
	// unconditionally (Athrow) already left res.ret set or res.regularTargets
	// nil-and-correct; every case that resolved its own control flow
	// (If/Goto/switches/Jsr/Ret) already populated res.regularTargets. What
	// remains is the ordinary fall-through path, which every Instruction
	// implements identically through RegularSuccessors.
	if res.ret == nil && res.regularTargets == nil {
		res.regularTargets = instr.RegularSuccessors(pcOfNext)
	}

	return res, nil
}

func applyFieldAccess(dom domain.Domain, out *frame, i *bytecode.FieldAccess, pc int, defSite defuse.OriginSet, use func(defuse.OriginSet), def func()) error {
	switch i.Opcode() {
	case bytecode.OpGetField:
		recv, ro, err := out.pop()
		if err != nil {
			return err
		}
		use(ro)
		result, err := dom.GetField(recv, i.Field)
		if err != nil {
			return err
		}
		out.push(result, defSite)
		def()
	case bytecode.OpPutField:
		val, vo, err := out.pop()
		if err != nil {
			return err
		}
		recv, ro, err := out.pop()
		if err != nil {
			return err
		}
		use(vo)
		use(ro)
		return dom.PutField(recv, val, i.Field)
	case bytecode.OpGetStatic:
		result, err := dom.GetStatic(i.Field)
		if err != nil {
			return err
		}
		out.push(result, defSite)
		def()
	case bytecode.OpPutStatic:
		val, vo, err := out.pop()
		if err != nil {
			return err
		}
		use(vo)
		return dom.PutStatic(val, i.Field)
	}
	return nil
}

func pushConstValue(dom domain.Domain, i *bytecode.PushConst) domain.Value {
	switch i.Opcode() {
	case bytecode.OpIntConst:
		return dom.IntConst(i.Value.(int32))
	case bytecode.OpLongConst:
		return dom.LongConst(i.Value.(int64))
	case bytecode.OpFloatConst:
		return dom.FloatConst(i.Value.(float32))
	case bytecode.OpDoubleConst:
		return dom.DoubleConst(i.Value.(float64))
	case bytecode.OpStringConst:
		return dom.StringConst(i.Value.(string))
	case bytecode.OpClassConst:
		return dom.ClassConst(i.Value.(string))
	case bytecode.OpMethodTypeConst:
		return dom.MethodTypeConst()
	case bytecode.OpMethodHandleConst:
		return dom.MethodHandleConst()
	default:
		return dom.NullConst()
	}
}

// applyStackOp implements dup/pop/swap at value granularity, consulting
// each value's own category (1 or 2 words) the way the JVM's verifier
// would have resolved the polymorphic dup2/dup2_x1/dup2_x2 forms ahead of
// time — see the JVM spec's table for these opcodes.
func applyStackOp(f *frame, op bytecode.Opcode) {
	width := func(v domain.Value) int {
		if v.ComputationalType().IsCategory2() {
			return 2
		}
		return 1
	}
	switch op {
	case bytecode.OpNop:
	case bytecode.OpPop:
		f.pop()
	case bytecode.OpPop2:
		v1, _, _ := f.pop()
		if width(v1) != 2 {
			f.pop()
		}
	case bytecode.OpDup:
		v1, o1, _ := f.pop()
		f.push(v1, o1)
		f.push(v1, o1)
	case bytecode.OpDupX1:
		v1, o1, _ := f.pop()
		v2, o2, _ := f.pop()
		f.push(v1, o1)
		f.push(v2, o2)
		f.push(v1, o1)
	case bytecode.OpDupX2:
		v1, o1, _ := f.pop()
		v2, o2, _ := f.pop()
		if width(v2) == 2 {
			f.push(v1, o1)
			f.push(v2, o2)
			f.push(v1, o1)
		} else {
			v3, o3, _ := f.pop()
			f.push(v1, o1)
			f.push(v3, o3)
			f.push(v2, o2)
			f.push(v1, o1)
		}
	case bytecode.OpDup2:
		v1, o1, _ := f.pop()
		if width(v1) == 2 {
			f.push(v1, o1)
			f.push(v1, o1)
		} else {
			v2, o2, _ := f.pop()
			f.push(v2, o2)
			f.push(v1, o1)
			f.push(v2, o2)
			f.push(v1, o1)
		}
	case bytecode.OpDup2X1:
		v1, o1, _ := f.pop()
		if width(v1) == 2 {
			v2, o2, _ := f.pop()
			f.push(v1, o1)
			f.push(v2, o2)
			f.push(v1, o1)
		} else {
			v2, o2, _ := f.pop()
			v3, o3, _ := f.pop()
			f.push(v2, o2)
			f.push(v1, o1)
			f.push(v3, o3)
			f.push(v2, o2)
			f.push(v1, o1)
		}
	case bytecode.OpDup2X2:
		v1, o1, _ := f.pop()
		if width(v1) == 2 {
			v2, o2, _ := f.pop()
			if width(v2) == 2 {
				f.push(v1, o1)
				f.push(v2, o2)
				f.push(v1, o1)
			} else {
				v3, o3, _ := f.pop()
				f.push(v1, o1)
				f.push(v3, o3)
				f.push(v2, o2)
				f.push(v1, o1)
			}
		} else {
			v2, o2, _ := f.pop()
			v3, o3, _ := f.pop()
			if width(v3) == 2 {
				f.push(v2, o2)
				f.push(v1, o1)
				f.push(v3, o3)
				f.push(v2, o2)
				f.push(v1, o1)
			} else {
				v4, o4, _ := f.pop()
				f.push(v2, o2)
				f.push(v1, o1)
				f.push(v4, o4)
				f.push(v3, o3)
				f.push(v2, o2)
				f.push(v1, o1)
			}
		}
	case bytecode.OpSwap:
		v1, o1, _ := f.pop()
		v2, o2, _ := f.pop()
		f.push(v1, o1)
		f.push(v2, o2)
	}
}
