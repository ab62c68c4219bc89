// Package tac lifts one method's abstract-interpretation result into
// three-address code: a flat statement array in static single assignment
// form, where every value either flows from a DVar's unique definition or
// a UVar naming the (possibly several, at a control-flow merge) def sites
// that could have produced it.
package tac

import (
	pkgerrors "github.com/pkg/errors"

	"github.com/bytecodeflow/jvmtac/pkg/bytecode"
	"github.com/bytecodeflow/jvmtac/pkg/cfg"
	"github.com/bytecodeflow/jvmtac/pkg/defuse"
	"github.com/bytecodeflow/jvmtac/pkg/descriptor"
	"github.com/bytecodeflow/jvmtac/pkg/domain"
	"github.com/bytecodeflow/jvmtac/pkg/interp"
)

// Input bundles everything Lift needs beyond the abstract interpreter's
// own result: the method's descriptor (for the Parameters block) and
// whether it is an instance method (for the receiver slot).
type Input struct {
	Code       *bytecode.Code
	Descriptor *descriptor.MethodDescriptor
	IsStatic   bool
	AI         *interp.Result
}

// lifter carries the mutable state one Lift call threads through the
// forward emission pass and the deferred remap pass that follows it.
type lifter struct {
	code *bytecode.Code
	ai   *interp.Result
	du   *defuse.Recorder
	g    *cfg.CFG

	statements []Statement
	pcToIndex  []int

	// handlerSynthetic maps a handler's entry pc to the statement index of
	// its synthesized CaughtException, for the ones actually inserted —
	// the only handler entries that need it are the ones the fixpoint
	// actually reached and that start their own basic block.
	handlerSynthetic map[int]int

	dvarByOriginPC map[int]*DVar
	allDVars       []*DVar
	allUVars       []*UVar
}

// Lift runs the core rewrite (spec.md §4.6) over in.AI's reachable pcs, in
// pc order, and returns the finished, fully remapped TACode.
func Lift(in Input) (*TACode, error) {
	ai := in.AI
	code := in.Code
	pcs := ai.EvaluatedPCs()

	l := &lifter{
		code:              code,
		ai:                ai,
		du:                ai.DefUse,
		g:                 ai.CFG,
		pcToIndex:        make([]int, code.CodeSize()+1),
		handlerSynthetic: make(map[int]int),
		dvarByOriginPC:   make(map[int]*DVar),
	}
	for i := range l.pcToIndex {
		l.pcToIndex[i] = -1
	}

	for _, pc := range pcs {
		if l.isHandlerEntry(pc) && l.isBlockStart(pc) {
			l.emitCaughtException(pc)
		}
		if err := l.liftOne(pc); err != nil {
			return nil, err
		}
	}
	l.pcToIndex[code.CodeSize()] = len(l.statements)

	l.remap()

	return &TACode{
		Parameters:        l.buildParameters(in),
		Statements:        l.statements,
		CFG:               l.buildCFG(),
		ExceptionHandlers: l.buildExceptionHandlers(),
		LineNumberTable:   code.Lines(),
	}, nil
}

func (l *lifter) isBlockStart(pc int) bool {
	b := l.g.Block(pc)
	return b != nil && b.StartPC == pc
}

func (l *lifter) isHandlerEntry(pc int) bool {
	b := l.g.Block(pc)
	return b != nil && b.IsHandlerEntry && b.StartPC == pc
}

func (l *lifter) deadNext(pc int) bool {
	return !l.ai.Visited(l.code.PCOfNextInstruction(pc))
}

func (l *lifter) append(stmt Statement) int {
	idx := len(l.statements)
	l.statements = append(l.statements, stmt)
	return idx
}

// emit appends stmt and records pc's final translation as stmt's index.
func (l *lifter) emit(pc int, stmt Statement) int {
	idx := l.append(stmt)
	l.pcToIndex[pc] = idx
	return idx
}

// collapse folds pc into whichever statement was emitted immediately
// before it — the "stack management / local load-store" collapse rule
// (spec.md §4.6).
func (l *lifter) collapse(pc int) {
	if len(l.statements) == 0 {
		l.emit(pc, Nop{})
		return
	}
	l.pcToIndex[pc] = len(l.statements) - 1
}

func (l *lifter) newDVar(value domain.Value, useSites []int) *DVar {
	d := &DVar{Value: value, UseSites: append([]int(nil), useSites...)}
	l.allDVars = append(l.allDVars, d)
	return d
}

func (l *lifter) newUVar(value domain.Value, defSites defuse.OriginSet) *UVar {
	ds := make([]int, len(defSites))
	for i, o := range defSites {
		ds[i] = int(o)
	}
	u := &UVar{Value: value, DefSites: ds}
	l.allUVars = append(l.allUVars, u)
	return u
}

// operand builds the UVar for operand stack slot pc's entry stack holds at
// depthFromTop (0 = top).
func (l *lifter) operand(pc, depthFromTop int) Expression {
	vals := l.ai.StackAt(pc)
	origins := l.ai.StackOriginsAt(pc)
	idx := len(vals) - 1 - depthFromTop
	return l.newUVar(vals[idx], origins[idx])
}

// operands returns the n topmost entry-stack operands, left to right in
// the order the instruction's own fields declare them (bottom-most of the
// n first).
func (l *lifter) operands(pc, n int) []Expression {
	out := make([]Expression, n)
	for i := 0; i < n; i++ {
		out[i] = l.operand(pc, n-1-i)
	}
	return out
}

func (l *lifter) localOperand(pc, slot int) Expression {
	val, _ := l.ai.LocalAt(pc, slot)
	origin, _ := l.ai.LocalOriginAt(pc, slot)
	return l.newUVar(val, origin)
}

func (l *lifter) stackTopAtNext(pc int) domain.Value {
	next := l.code.PCOfNextInstruction(pc)
	vals := l.ai.StackAt(next)
	if len(vals) == 0 {
		return nil
	}
	return vals[len(vals)-1]
}

func (l *lifter) localAtNext(pc, slot int) domain.Value {
	next := l.code.PCOfNextInstruction(pc)
	v, _ := l.ai.LocalAt(next, slot)
	return v
}

// emitDef is the general "variables produced" rule (spec.md §4.6): emit an
// Assignment when the def site is used, collapse to Nop when it is
// side-effect-free and unused, or emit an ExprStmt when it is
// side-effecting and unused. If the next pc was never reached, the whole
// evaluation (value included) is wrapped in a FailingExpr instead.
func (l *lifter) emitDef(pc int, expr Expression, sideEffecting bool, valueFn func() domain.Value) {
	if l.deadNext(pc) {
		l.emit(pc, &FailingExpr{Expr: expr})
		return
	}
	uses := l.du.UsedBy(bytecode.Origin(pc))
	if len(uses) > 0 {
		dvar := l.newDVar(valueFn(), uses)
		idx := l.emit(pc, &Assignment{LHS: dvar, RHS: expr})
		dvar.Origin = idx
		l.dvarByOriginPC[pc] = dvar
		return
	}
	if sideEffecting {
		l.emit(pc, &ExprStmt{Expr: expr})
		return
	}
	l.emit(pc, Nop{})
}

// markObsolete records pc as an obsolete use of whatever DVar originated
// from the defining instruction origin, if one was built (a degenerate
// conditional's popped operand no longer flows anywhere useful — spec.md
// §4.6's "obsolete use sites", collected but never pruned per DESIGN.md).
func (l *lifter) markObsolete(origins defuse.OriginSet, pc int) {
	for _, o := range origins {
		if d, ok := l.dvarByOriginPC[int(o)]; ok {
			d.ObsoleteUseSites = append(d.ObsoleteUseSites, pc)
		}
	}
}

func (l *lifter) emitCaughtException(pc int) {
	vals := l.ai.StackAt(pc)
	if len(vals) == 0 {
		return
	}
	dvar := l.newDVar(vals[len(vals)-1], l.du.UsedBy(bytecode.Origin(pc)))
	idx := l.append(&CaughtException{DVar: dvar})
	dvar.Origin = idx
	l.dvarByOriginPC[pc] = dvar
	l.handlerSynthetic[pc] = idx
}

func (l *lifter) liftOne(pc int) error {
	instr := l.code.InstructionAt(pc)
	nextPC := l.code.PCOfNextInstruction(pc)

	switch i := instr.(type) {
	case *bytecode.StackOp:
		if l.isBlockStart(pc) {
			l.emit(pc, Nop{})
		} else {
			l.collapse(pc)
		}

	case *bytecode.LoadLocal:
		if l.isBlockStart(pc) {
			l.emit(pc, Nop{})
		} else {
			l.collapse(pc)
		}

	case *bytecode.StoreLocal:
		if l.isBlockStart(pc) {
			l.emit(pc, Nop{})
		} else {
			l.collapse(pc)
		}

	case *bytecode.IncLocal:
		expr := &BinaryExpr{Op: bytecode.BinAdd, Type: bytecode.TInt, LHS: l.localOperand(pc, i.Index), RHS: NewIntConst(i.Const)}
		l.emitDef(pc, expr, false, func() domain.Value { return l.localAtNext(pc, i.Index) })

	case *bytecode.PushConst:
		l.emitDef(pc, pushConstExpr(i), false, func() domain.Value { return l.stackTopAtNext(pc) })

	case *bytecode.ArrayLoad:
		ops := l.operands(pc, 2)
		expr := &ArrayLoad{ElementType: i.ElementType, Array: ops[0], Index: ops[1]}
		l.emitDef(pc, expr, false, func() domain.Value { return l.stackTopAtNext(pc) })

	case *bytecode.ArrayStore:
		ops := l.operands(pc, 3)
		if l.deadNext(pc) {
			l.emit(pc, &FailingExpr{Expr: ops[2]})
			break
		}
		l.emit(pc, &ArrayStore{ElementType: i.ElementType, Array: ops[0], Index: ops[1], Value: ops[2]})

	case *bytecode.ArrayLength:
		ops := l.operands(pc, 1)
		expr := &ArrayLength{Array: ops[0]}
		l.emitDef(pc, expr, false, func() domain.Value { return l.stackTopAtNext(pc) })

	case *bytecode.NewArray:
		ops := l.operands(pc, i.Dims)
		expr := &NewArray{ClassName: i.ClassName, Dims: i.Dims, Lengths: ops}
		l.emitDef(pc, expr, true, func() domain.Value { return l.stackTopAtNext(pc) })

	case *bytecode.BinaryArith:
		ops := l.operands(pc, 2)
		expr := &BinaryExpr{Op: i.Op, Type: i.Type, LHS: ops[0], RHS: ops[1]}
		l.emitDef(pc, expr, false, func() domain.Value { return l.stackTopAtNext(pc) })

	case *bytecode.UnaryArith:
		ops := l.operands(pc, 1)
		expr := &PrefixExpr{Type: i.Type, Operand: ops[0]}
		l.emitDef(pc, expr, false, func() domain.Value { return l.stackTopAtNext(pc) })

	case *bytecode.Convert:
		ops := l.operands(pc, 1)
		expr := &ConvertExpr{From: i.From, To: i.To, Operand: ops[0]}
		l.emitDef(pc, expr, false, func() domain.Value { return l.stackTopAtNext(pc) })

	case *bytecode.Compare:
		ops := l.operands(pc, 2)
		expr := &Compare{Op: i.Op, LHS: ops[0], RHS: ops[1]}
		l.emitDef(pc, expr, false, func() domain.Value { return l.stackTopAtNext(pc) })

	case *bytecode.If:
		n := 2
		if i.Unary {
			n = 1
		}
		ops := l.operands(pc, n)
		origins := l.du.OperandOriginsAt(pc)
		poppedOrigins := origins[len(origins)-n:]

		succs := dedupInts(l.g.Successors(pc))
		if len(succs) == 1 {
			for _, o := range poppedOrigins {
				l.markObsolete(o, pc)
			}
			if succs[0] == nextPC {
				l.emit(pc, Nop{})
			} else {
				l.emit(pc, &Goto{Target: succs[0]})
			}
			break
		}
		stmt := &If{Cond: i.Cond, Unary: i.Unary, Target: i.TargetPC}
		if i.Unary {
			stmt.LHS = ops[0]
		} else {
			stmt.LHS, stmt.RHS = ops[0], ops[1]
		}
		l.emit(pc, stmt)

	case *bytecode.Goto:
		if i.TargetPC == nextPC {
			l.emit(pc, Nop{})
			break
		}
		l.emit(pc, &Goto{Target: i.TargetPC})

	case *bytecode.Jsr:
		l.emit(pc, &JumpToSubroutine{Target: i.TargetPC})

	case *bytecode.Ret:
		succs := l.g.Successors(pc)
		l.emit(pc, &Ret{SuccPCs: append([]int(nil), succs...)})

	case *bytecode.TableSwitch:
		key := l.operands(pc, 1)[0]
		cases := make([]SwitchCase, len(i.Targets))
		for k, t := range i.Targets {
			cases[k] = SwitchCase{Value: i.Low + int32(k), Target: t}
		}
		l.emit(pc, &Switch{Key: key, Cases: cases, Default: i.DefaultPC})

	case *bytecode.LookupSwitch:
		key := l.operands(pc, 1)[0]
		cases := make([]SwitchCase, len(i.Cases))
		for k, c := range i.Cases {
			cases[k] = SwitchCase{Value: c.Value, Target: c.TargetPC}
		}
		l.emit(pc, &Switch{Key: key, Cases: cases, Default: i.DefaultPC})

	case *bytecode.Return:
		l.emit(pc, Return{})

	case *bytecode.ReturnValue:
		l.emit(pc, &ReturnValue{Operand: l.operands(pc, 1)[0]})

	case *bytecode.FieldAccess:
		l.liftFieldAccess(pc, i)

	case *bytecode.New:
		expr := &New{ClassName: i.ClassName}
		l.emitDef(pc, expr, true, func() domain.Value { return l.stackTopAtNext(pc) })

	case *bytecode.Invoke:
		l.liftInvoke(pc, i)

	case *bytecode.InvokeDynamic:
		args := l.operands(pc, len(i.ParamTypes))
		if i.HasReturn {
			expr := &Invokedynamic{BootstrapName: i.BootstrapName, Args: args, ReturnType: i.ReturnType}
			l.emitDef(pc, expr, true, func() domain.Value { return l.stackTopAtNext(pc) })
			break
		}
		if l.deadNext(pc) {
			l.emit(pc, &FailingExpr{Expr: &Invokedynamic{BootstrapName: i.BootstrapName, Args: args}})
			break
		}
		l.emit(pc, &InvokedynamicStmt{BootstrapName: i.BootstrapName, Args: args})

	case *bytecode.Checkcast:
		operand := l.operands(pc, 1)[0]
		if l.deadNext(pc) {
			l.emit(pc, &FailingExpr{Expr: &Checkcast{TargetType: i.TargetType, Operand: operand}})
			break
		}
		l.emit(pc, &Checkcast{TargetType: i.TargetType, Operand: operand})

	case *bytecode.InstanceOf:
		operand := l.operands(pc, 1)[0]
		expr := &InstanceOf{TargetType: i.TargetType, Operand: operand}
		l.emitDef(pc, expr, false, func() domain.Value { return l.stackTopAtNext(pc) })

	case *bytecode.Monitor:
		operand := l.operands(pc, 1)[0]
		if i.Opcode() == bytecode.OpMonitorEnter {
			l.emit(pc, &MonitorEnter{Operand: operand})
		} else {
			l.emit(pc, &MonitorExit{Operand: operand})
		}

	case *bytecode.Athrow:
		operand := l.operands(pc, 1)[0]
		l.emit(pc, &Throw{Operand: operand})

	default:
		return errUnhandledInstruction(instr)
	}
	return nil
}

func (l *lifter) liftFieldAccess(pc int, i *bytecode.FieldAccess) {
	switch i.Opcode() {
	case bytecode.OpGetField:
		recv := l.operands(pc, 1)[0]
		expr := &GetField{Field: i.Field, Receiver: recv}
		l.emitDef(pc, expr, false, func() domain.Value { return l.stackTopAtNext(pc) })
	case bytecode.OpGetStatic:
		expr := &GetStatic{Field: i.Field}
		l.emitDef(pc, expr, false, func() domain.Value { return l.stackTopAtNext(pc) })
	case bytecode.OpPutField:
		ops := l.operands(pc, 2)
		if l.deadNext(pc) {
			l.emit(pc, &FailingExpr{Expr: &PutField{Field: i.Field, Receiver: ops[0], Value: ops[1]}})
			return
		}
		l.emit(pc, &PutField{Field: i.Field, Receiver: ops[0], Value: ops[1]})
	case bytecode.OpPutStatic:
		val := l.operands(pc, 1)[0]
		if l.deadNext(pc) {
			l.emit(pc, &FailingExpr{Expr: &PutStatic{Field: i.Field, Value: val}})
			return
		}
		l.emit(pc, &PutStatic{Field: i.Field, Value: val})
	}
}

func (l *lifter) liftInvoke(pc int, i *bytecode.Invoke) {
	n := len(i.Method.ParamTypes)
	if i.Shape != bytecode.InvokeStatic {
		n++
	}
	ops := l.operands(pc, n)
	var receiver Expression
	args := ops
	if i.Shape != bytecode.InvokeStatic {
		receiver, args = ops[0], ops[1:]
	}

	if i.Method.HasReturn {
		var expr Expression
		switch i.Shape {
		case bytecode.InvokeStatic:
			expr = &StaticFunctionCall{Method: i.Method, Args: args}
		case bytecode.InvokeSpecial:
			expr = &NonVirtualFunctionCall{Method: i.Method, Receiver: receiver, Args: args}
		default:
			expr = &VirtualFunctionCall{Method: i.Method, Receiver: receiver, Args: args}
		}
		l.emitDef(pc, expr, true, func() domain.Value { return l.stackTopAtNext(pc) })
		return
	}

	if l.deadNext(pc) {
		var expr Expression
		switch i.Shape {
		case bytecode.InvokeStatic:
			expr = &StaticFunctionCall{Method: i.Method, Args: args}
		default:
			expr = &VirtualFunctionCall{Method: i.Method, Receiver: receiver, Args: args}
		}
		l.emit(pc, &FailingExpr{Expr: expr})
		return
	}

	switch i.Shape {
	case bytecode.InvokeStatic:
		l.emit(pc, &StaticMethodCall{Method: i.Method, Args: args})
	case bytecode.InvokeSpecial:
		l.emit(pc, &NonVirtualMethodCall{Method: i.Method, Receiver: receiver, Args: args})
	default:
		l.emit(pc, &VirtualMethodCall{Method: i.Method, Receiver: receiver, Args: args})
	}
}

func pushConstExpr(i *bytecode.PushConst) Expression {
	switch i.Opcode() {
	case bytecode.OpIntConst:
		return NewIntConst(i.Value.(int32))
	case bytecode.OpLongConst:
		return NewLongConst(i.Value.(int64))
	case bytecode.OpFloatConst:
		return NewFloatConst(i.Value.(float32))
	case bytecode.OpDoubleConst:
		return NewDoubleConst(i.Value.(float64))
	case bytecode.OpStringConst:
		return NewStringConst(i.Value.(string))
	case bytecode.OpClassConst:
		return NewClassConst(i.Value.(string))
	case bytecode.OpMethodHandleConst:
		return NewMethodHandleConst()
	case bytecode.OpMethodTypeConst:
		return NewMethodTypeConst()
	case bytecode.OpNullConst:
		return NewNullExpr()
	default:
		return NewNullExpr()
	}
}

func dedupInts(in []int) []int {
	seen := make(map[int]bool, len(in))
	out := make([]int, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func errUnhandledInstruction(instr bytecode.Instruction) error {
	return pkgerrors.Errorf("tac: no lift rule for %T at pc %d", instr, instr.PC())
}
