package codegen

import (
	"fmt"
	"math"

	"github.com/GriffinCanCode/bcplc/pkg/ast"
	"github.com/GriffinCanCode/bcplc/pkg/ccerrors"
	"github.com/GriffinCanCode/bcplc/pkg/codegen/arm64"
	"github.com/GriffinCanCode/bcplc/pkg/codegen/vector"
)

// genExpr lowers one expression node and returns the name of a
// variable (real or synthetic, per newTemp) bound to its value
// through the normal read/writeVariable cache machinery (spec
// §4.7) — this is what lets arbitrarily nested subexpressions share
// two fixed scratch registers per class without clobbering a sibling
// subexpression's still-needed result.
func (fg *funcGen) genExpr(e ast.Expression) (string, error) {
	switch v := e.(type) {
	case *ast.NumberLiteral:
		t := fg.newTemp(false)
		fg.stream.EmitAll(arm64.MovzMovkAbs64(exprScratchInt1, uint64(v.Value)))
		return t, fg.writeVariable(t, exprScratchInt1)

	case *ast.CharLiteral:
		t := fg.newTemp(false)
		fg.stream.EmitAll(arm64.MovzMovkAbs64(exprScratchInt1, uint64(v.Value)))
		return t, fg.writeVariable(t, exprScratchInt1)

	case *ast.BooleanLiteral:
		t := fg.newTemp(false)
		val := uint64(0)
		if v.Value {
			val = 1
		}
		fg.stream.EmitAll(arm64.MovzMovkAbs64(exprScratchInt1, val))
		return t, fg.writeVariable(t, exprScratchInt1)

	case *ast.NullLiteral:
		t := fg.newTemp(false)
		fg.stream.EmitAll(arm64.MovzMovkAbs64(exprScratchInt1, 0))
		return t, fg.writeVariable(t, exprScratchInt1)

	case *ast.FloatLiteral:
		t := fg.newTemp(true)
		fg.stream.EmitAll(arm64.MovzMovkAbs64(exprScratchInt1, math.Float64bits(v.Value)))
		fg.stream.Emit(arm64.FmovXtoD(exprScratchFloat1, exprScratchInt1))
		return t, fg.writeVariable(t, exprScratchFloat1)

	case *ast.StringLiteral:
		t := fg.newTemp(false)
		label := fg.g.dataLabel("str", v.Value)
		fg.stream.Emit(arm64.Adrp(exprScratchInt1, label))
		fg.stream.Emit(arm64.AddLo12(exprScratchInt1, exprScratchInt1, label))
		return t, fg.writeVariable(t, exprScratchInt1)

	case *ast.VariableAccess:
		return v.Name, nil

	case *ast.SelfExpression:
		return "_this", nil

	case *ast.BinaryOp:
		return fg.genBinaryOp(v)

	case *ast.UnaryOp:
		return fg.genUnaryOp(v)

	case *ast.FunctionCall:
		return fg.genCall(v.Callee, v.Args, e.Type().IsFloat())

	case *ast.NewExpression:
		return fg.genNew(v)

	case *ast.MemberAccessExpression:
		return fg.genMemberRead(v)

	case *ast.ConditionalExpression:
		return fg.genConditionalExpr(v)

	case *ast.ValofExpression:
		return fg.genValof(v.Body, false)

	case *ast.FloatValofExpression:
		return fg.genValof(v.Body, true)

	case *ast.VecAllocationExpression:
		return fg.genHeapAlloc(v.Size, "GETVEC", false, 1)

	case *ast.FVecAllocationExpression:
		return fg.genHeapAlloc(v.Size, "FGETVEC", true, 1)

	case *ast.StringAllocationExpression:
		return fg.genHeapAlloc(v.Size, "BCPL_ALLOC_CHARS", false, 1)

	case *ast.PairsAllocationExpression:
		return fg.genHeapAlloc(v.Count, "BCPL_ALLOC_WORDS", false, 2)

	case *ast.FPairsAllocationExpression:
		return fg.genHeapAlloc(v.Count, "BCPL_ALLOC_WORDS", false, 2)

	case *ast.VectorAccess:
		return fg.genVectorRead(v.Vector, v.Index, false, v.Bounds)

	case *ast.CharIndirection:
		return fg.genCharRead(v)

	case *ast.FloatVectorIndirection:
		return fg.genVectorRead(v.Vector, v.Index, true, false)

	case *ast.LaneAccessExpression:
		return fg.genLaneRead(v.Vector, v.Lane)

	case *ast.QuadAccessExpression:
		return fg.genLaneRead(v.Vector, v.Lane)

	case *ast.FQuadAccessExpression:
		return fg.genLaneRead(v.Vector, v.Lane)

	case *ast.PairExpression:
		return fg.genIntPack(v.First, v.Second, nil)

	case *ast.QuadExpression:
		lanes := make([]ast.Expression, 4)
		copy(lanes, v.Lanes[:])
		return fg.genIntLanes(lanes, 16)

	case *ast.OctExpression:
		lanes := make([]ast.Expression, 8)
		copy(lanes, v.Lanes[:])
		return fg.genIntLanes(lanes, 8)

	case *ast.FPairExpression:
		return fg.genFloatPack(v.First, v.Second)

	case *ast.FQuadExpression:
		lanes := make([]ast.Expression, 4)
		copy(lanes, v.Lanes[:])
		return fg.genFloatLanes(lanes)

	case *ast.FOctExpression:
		// 256-bit, heap-resident: allocate then store each lane through
		// BCPL_ALLOC_WORDS, mirroring VecInitializerExpression.
		return fg.genFOctHeap(v.Lanes[:])

	case *ast.TableExpression:
		t := fg.newTemp(false)
		label := fg.g.dataLabel("table", fmt.Sprintf("%p", v))
		fg.stream.Emit(arm64.Adrp(exprScratchInt1, label))
		fg.stream.Emit(arm64.AddLo12(exprScratchInt1, exprScratchInt1, label))
		return t, fg.writeVariable(t, exprScratchInt1)

	case *ast.FTableExpression:
		t := fg.newTemp(false)
		label := fg.g.dataLabel("ftable", fmt.Sprintf("%p", v))
		fg.stream.Emit(arm64.Adrp(exprScratchInt1, label))
		fg.stream.Emit(arm64.AddLo12(exprScratchInt1, exprScratchInt1, label))
		return t, fg.writeVariable(t, exprScratchInt1)

	case *ast.VecInitializerExpression:
		return fg.genVecInitializer(v)

	case *ast.SyscallExpression:
		return fg.genSyscall(v.Number, v.Args, true)
	}
	return "", ccerrors.NewInternal(ccerrors.PhaseCodegen, fg.name, "unhandled expression type %T", e)
}

// materializeInto loads name's value into scratchReg (a fixed
// register, not a cache slot), the point at which a synthetic temp
// stops being "just a name" and becomes an operand for the
// instruction about to combine it with something else.
func (fg *funcGen) materializeInto(name, scratchReg string) error {
	reg, err := fg.readVariable(name)
	if err != nil {
		return err
	}
	if reg != scratchReg {
		fg.moveReg(scratchReg, reg, fg.varIsFloat[name])
	}
	return nil
}

// genStore lowers an assignment LHS.
func (fg *funcGen) genStore(lhs ast.Expression, valueTemp string) error {
	switch v := lhs.(type) {
	case *ast.VariableAccess:
		reg, err := fg.readVariable(valueTemp)
		if err != nil {
			return err
		}
		return fg.writeVariable(v.Name, reg)

	case *ast.SelfExpression:
		reg, err := fg.readVariable(valueTemp)
		if err != nil {
			return err
		}
		return fg.writeVariable("_this", reg)

	case *ast.MemberAccessExpression:
		return fg.storeMember(v, valueTemp)

	case *ast.VectorAccess:
		return fg.genVectorStore(v.Vector, v.Index, valueTemp, false, v.Bounds)

	case *ast.FloatVectorIndirection:
		return fg.genVectorStore(v.Vector, v.Index, valueTemp, true, false)

	case *ast.CharIndirection:
		return fg.genCharStore(v, valueTemp)

	case *ast.LaneAccessExpression:
		return fg.genLaneStore(v.Vector, v.Lane, valueTemp)
	}
	return ccerrors.NewInternal(ccerrors.PhaseCodegen, fg.name, "unsupported assignment target %T", lhs)
}

func (fg *funcGen) genBinaryOp(v *ast.BinaryOp) (string, error) {
	if cc, ok := condCodeForComparison(v.Op); ok {
		lt, err := fg.genExpr(v.Left)
		if err != nil {
			return "", err
		}
		rt, err := fg.genExpr(v.Right)
		if err != nil {
			return "", err
		}
		if err := fg.materializeInto(lt, exprScratchInt1); err != nil {
			return "", err
		}
		if err := fg.materializeInto(rt, exprScratchInt2); err != nil {
			return "", err
		}
		fg.stream.Emit(arm64.CmpReg(exprScratchInt1, exprScratchInt2))
		trueLabel, end := fg.g.labels.Fresh(), fg.g.labels.Fresh()
		fg.stream.Emit(arm64.BCond(cc, trueLabel))
		fg.stream.EmitAll(arm64.MovzMovkAbs64(exprScratchInt1, 0))
		fg.stream.Emit(arm64.B(end))
		fg.stream.DefineLabel(trueLabel)
		fg.stream.EmitAll(arm64.MovzMovkAbs64(exprScratchInt1, 1))
		fg.stream.DefineLabel(end)
		r := fg.newTemp(false)
		return r, fg.writeVariable(r, exprScratchInt1)
	}

	lt, err := fg.genExpr(v.Left)
	if err != nil {
		return "", err
	}
	rt, err := fg.genExpr(v.Right)
	if err != nil {
		return "", err
	}
	isFloat := fg.varIsFloat[lt] || fg.varIsFloat[rt]

	s1, s2, sd := exprScratchInt1, exprScratchInt2, exprScratchInt1
	if isFloat {
		s1, s2, sd = exprScratchFloat1, exprScratchFloat2, exprScratchFloat1
	}
	if err := fg.materializeInto(lt, s1); err != nil {
		return "", err
	}
	if err := fg.materializeInto(rt, s2); err != nil {
		return "", err
	}

	switch v.Op {
	case ast.OpAdd:
		if isFloat {
			fg.stream.Emit(arm64.FaddD(sd, s1, s2))
		} else {
			fg.stream.Emit(arm64.AddReg(sd, s1, s2))
		}
	case ast.OpSub:
		if isFloat {
			fg.stream.Emit(arm64.FsubD(sd, s1, s2))
		} else {
			fg.stream.Emit(arm64.SubReg(sd, s1, s2))
		}
	case ast.OpMul:
		if isFloat {
			fg.stream.Emit(arm64.FmulD(sd, s1, s2))
		} else {
			fg.stream.Emit(arm64.MulReg(sd, s1, s2))
		}
	case ast.OpDiv:
		if isFloat {
			fg.stream.Emit(arm64.FdivD(sd, s1, s2))
		} else {
			fg.stream.Emit(arm64.SdivReg(sd, s1, s2))
		}
	case ast.OpMod:
		if isFloat {
			return "", ccerrors.NewInternal(ccerrors.PhaseCodegen, fg.name, "MOD is not defined for FLOAT operands")
		}
		return fg.genIntMod(lt, rt)
	case ast.OpBitAnd, ast.OpLogAnd:
		fg.stream.Emit(arm64.AndReg(sd, s1, s2))
	case ast.OpBitOr, ast.OpLogOr:
		fg.stream.Emit(arm64.OrrReg(sd, s1, s2))
	case ast.OpBitXor:
		fg.stream.Emit(arm64.EorReg(sd, s1, s2))
	case ast.OpLShift:
		fg.stream.Emit(arm64.LslReg(sd, s1, s2))
	case ast.OpRShift:
		fg.stream.Emit(arm64.AsrReg(sd, s1, s2))
	default:
		return "", ccerrors.NewInternal(ccerrors.PhaseCodegen, fg.name, "unhandled binary operator %v", v.Op)
	}
	r := fg.newTemp(isFloat)
	return r, fg.writeVariable(r, sd)
}

// genIntMod computes dividend-(dividend/divisor)*divisor using only
// the two fixed integer scratch registers plus one cache-tier temp to
// hold the quotient across the reloads (spec §4.7: MOD has no direct
// AArch64 encoding).
func (fg *funcGen) genIntMod(lt, rt string) (string, error) {
	if err := fg.materializeInto(lt, exprScratchInt1); err != nil {
		return "", err
	}
	if err := fg.materializeInto(rt, exprScratchInt2); err != nil {
		return "", err
	}
	fg.stream.Emit(arm64.SdivReg(exprScratchInt1, exprScratchInt1, exprScratchInt2))
	quotient := fg.newTemp(false)
	if err := fg.writeVariable(quotient, exprScratchInt1); err != nil {
		return "", err
	}
	if err := fg.materializeInto(rt, exprScratchInt2); err != nil {
		return "", err
	}
	qReg, err := fg.readVariable(quotient)
	if err != nil {
		return "", err
	}
	fg.moveReg(exprScratchInt1, qReg, false)
	fg.stream.Emit(arm64.MulReg(exprScratchInt1, exprScratchInt1, exprScratchInt2))
	if err := fg.materializeInto(lt, exprScratchInt2); err != nil {
		return "", err
	}
	fg.stream.Emit(arm64.SubReg(exprScratchInt1, exprScratchInt2, exprScratchInt1))
	r := fg.newTemp(false)
	return r, fg.writeVariable(r, exprScratchInt1)
}

func (fg *funcGen) genUnaryOp(v *ast.UnaryOp) (string, error) {
	switch v.Op {
	case ast.OpHd, ast.OpHdF, ast.OpTl, ast.OpRest, ast.OpLen:
		return fg.genListOp(v)
	case ast.OpNeg:
		return fg.genNeg(v.Operand)
	case ast.OpNot:
		return fg.genNot(v.Operand)
	case ast.OpBitNot:
		return fg.genBitNot(v.Operand)
	}
	return "", ccerrors.NewInternal(ccerrors.PhaseCodegen, fg.name, "unhandled unary operator %v", v.Op)
}

func (fg *funcGen) genNeg(operand ast.Expression) (string, error) {
	t, err := fg.genExpr(operand)
	if err != nil {
		return "", err
	}
	if fg.varIsFloat[t] {
		if err := fg.materializeInto(t, exprScratchFloat1); err != nil {
			return "", err
		}
		fg.stream.Emit(arm64.FmovDtoX(exprScratchInt1, exprScratchFloat1))
		fg.stream.EmitAll(arm64.MovzMovkAbs64(exprScratchInt2, 0x8000000000000000))
		fg.stream.Emit(arm64.EorReg(exprScratchInt1, exprScratchInt1, exprScratchInt2))
		fg.stream.Emit(arm64.FmovXtoD(exprScratchFloat1, exprScratchInt1))
		r := fg.newTemp(true)
		return r, fg.writeVariable(r, exprScratchFloat1)
	}
	if err := fg.materializeInto(t, exprScratchInt1); err != nil {
		return "", err
	}
	fg.stream.EmitAll(arm64.MovzMovkAbs64(exprScratchInt2, 0))
	fg.stream.Emit(arm64.SubReg(exprScratchInt1, exprScratchInt2, exprScratchInt1))
	r := fg.newTemp(false)
	return r, fg.writeVariable(r, exprScratchInt1)
}

func (fg *funcGen) genNot(operand ast.Expression) (string, error) {
	t, err := fg.genExpr(operand)
	if err != nil {
		return "", err
	}
	if err := fg.materializeInto(t, exprScratchInt1); err != nil {
		return "", err
	}
	fg.stream.Emit(arm64.CmpImm(exprScratchInt1, 0))
	trueLabel, end := fg.g.labels.Fresh(), fg.g.labels.Fresh()
	fg.stream.Emit(arm64.BCond("eq", trueLabel))
	fg.stream.EmitAll(arm64.MovzMovkAbs64(exprScratchInt1, 0))
	fg.stream.Emit(arm64.B(end))
	fg.stream.DefineLabel(trueLabel)
	fg.stream.EmitAll(arm64.MovzMovkAbs64(exprScratchInt1, 1))
	fg.stream.DefineLabel(end)
	r := fg.newTemp(false)
	return r, fg.writeVariable(r, exprScratchInt1)
}

func (fg *funcGen) genBitNot(operand ast.Expression) (string, error) {
	t, err := fg.genExpr(operand)
	if err != nil {
		return "", err
	}
	if err := fg.materializeInto(t, exprScratchInt1); err != nil {
		return "", err
	}
	fg.stream.EmitAll(arm64.MovzMovkAbs64(exprScratchInt2, 0xFFFFFFFFFFFFFFFF))
	fg.stream.Emit(arm64.EorReg(exprScratchInt1, exprScratchInt1, exprScratchInt2))
	r := fg.newTemp(false)
	return r, fg.writeVariable(r, exprScratchInt1)
}

// genListOp lowers HD/HDF/TL/REST/LEN against the 2-word list cell
// layout [value@0, next@8] (spec's list intrinsics; not stated
// explicitly in spec.md's prose, fixed here as a documented layout
// decision recorded in DESIGN.md).
func (fg *funcGen) genListOp(v *ast.UnaryOp) (string, error) {
	t, err := fg.genExpr(v.Operand)
	if err != nil {
		return "", err
	}
	ptrReg, err := fg.readVariable(t)
	if err != nil {
		return "", err
	}
	switch v.Op {
	case ast.OpHd:
		fg.stream.Emit(arm64.LdrImm(exprScratchInt1, ptrReg, 0))
		r := fg.newTemp(false)
		return r, fg.writeVariable(r, exprScratchInt1)
	case ast.OpHdF:
		fg.stream.Emit(arm64.LdrFPImm(exprScratchFloat1, ptrReg, 0))
		r := fg.newTemp(true)
		return r, fg.writeVariable(r, exprScratchFloat1)
	case ast.OpRest:
		fg.stream.Emit(arm64.LdrImm(exprScratchInt1, ptrReg, 8))
		r := fg.newTemp(false)
		return r, fg.writeVariable(r, exprScratchInt1)
	case ast.OpTl:
		fg.stream.Emit(arm64.LdrImm(exprScratchInt1, ptrReg, 8))
		fg.stream.Emit(arm64.LdrImm(exprScratchInt1, exprScratchInt1, 0))
		r := fg.newTemp(false)
		return r, fg.writeVariable(r, exprScratchInt1)
	case ast.OpLen:
		return fg.genListLen(ptrReg)
	}
	return "", ccerrors.NewInternal(ccerrors.PhaseCodegen, fg.name, "unhandled list op %v", v.Op)
}

// genListLen is a runtime loop to the null next-pointer, since list
// length is not known at compile time.
func (fg *funcGen) genListLen(ptrReg string) (string, error) {
	cur := fg.newTemp(false)
	if err := fg.writeVariable(cur, ptrReg); err != nil {
		return "", err
	}
	count := fg.newTemp(false)
	fg.stream.EmitAll(arm64.MovzMovkAbs64(exprScratchInt1, 0))
	if err := fg.writeVariable(count, exprScratchInt1); err != nil {
		return "", err
	}

	top := fg.g.labels.Fresh()
	after := fg.g.labels.Fresh()
	fg.stream.DefineLabel(top)
	curReg, err := fg.readVariable(cur)
	if err != nil {
		return "", err
	}
	fg.stream.Emit(arm64.CmpImm(curReg, 0))
	fg.stream.Emit(arm64.BCond("eq", after))

	countReg, err := fg.readVariable(count)
	if err != nil {
		return "", err
	}
	fg.moveReg(exprScratchInt1, countReg, false)
	fg.stream.Emit(arm64.AddImm(exprScratchInt1, exprScratchInt1, 1))
	if err := fg.writeVariable(count, exprScratchInt1); err != nil {
		return "", err
	}

	curReg, err = fg.readVariable(cur)
	if err != nil {
		return "", err
	}
	fg.stream.Emit(arm64.LdrImm(exprScratchInt2, curReg, 8))
	if err := fg.writeVariable(cur, exprScratchInt2); err != nil {
		return "", err
	}
	fg.stream.Emit(arm64.B(top))
	fg.stream.DefineLabel(after)
	return count, nil
}

// genMemberRead resolves the member's offset always through
// fg.className, the enclosing method's class — a documented
// simplification (DESIGN.md): only _this reliably carries runtime
// class identity in the symbol table this generator consults, so a
// member access on an arbitrary object expression assumes it shares
// the current method's static class.
func (fg *funcGen) genMemberRead(v *ast.MemberAccessExpression) (string, error) {
	objT, err := fg.genExpr(v.Object)
	if err != nil {
		return "", err
	}
	objReg, err := fg.readVariable(objT)
	if err != nil {
		return "", err
	}
	mv, _, ok := fg.g.ct.ResolveMember(fg.className, v.Member)
	if !ok {
		return "", ccerrors.NewInternal(ccerrors.PhaseCodegen, fg.name, "unknown member %q on class %q", v.Member, fg.className)
	}
	isFloat := mv.Type.IsFloat()
	dest := exprScratchInt1
	if isFloat {
		dest = exprScratchFloat1
	}
	if isFloat {
		fg.stream.Emit(arm64.LdrFPImm(dest, objReg, mv.Offset))
	} else {
		fg.stream.Emit(arm64.LdrImm(dest, objReg, mv.Offset))
	}
	t := fg.newTemp(isFloat)
	return t, fg.writeVariable(t, dest)
}

func (fg *funcGen) storeMember(v *ast.MemberAccessExpression, valueTemp string) error {
	objT, err := fg.genExpr(v.Object)
	if err != nil {
		return err
	}
	objReg, err := fg.readVariable(objT)
	if err != nil {
		return err
	}
	mv, _, ok := fg.g.ct.ResolveMember(fg.className, v.Member)
	if !ok {
		return ccerrors.NewInternal(ccerrors.PhaseCodegen, fg.name, "unknown member %q on class %q", v.Member, fg.className)
	}
	valReg, err := fg.readVariable(valueTemp)
	if err != nil {
		return err
	}
	if mv.Type.IsFloat() {
		fg.stream.Emit(arm64.StrFPImm(valReg, objReg, mv.Offset))
	} else {
		fg.stream.Emit(arm64.StrImm(valReg, objReg, mv.Offset))
	}
	return nil
}

func (fg *funcGen) genConditionalExpr(v *ast.ConditionalExpression) (string, error) {
	elseLabel, end := fg.g.labels.Fresh(), fg.g.labels.Fresh()
	if err := fg.genBranch(v.Condition, elseLabel, false); err != nil {
		return "", err
	}
	isFloat := v.Type().IsFloat()
	result := fg.newTemp(isFloat)

	tt, err := fg.genExpr(v.IfTrue)
	if err != nil {
		return "", err
	}
	treg, err := fg.readVariable(tt)
	if err != nil {
		return "", err
	}
	if err := fg.writeVariable(result, treg); err != nil {
		return "", err
	}
	fg.stream.Emit(arm64.B(end))

	fg.stream.DefineLabel(elseLabel)
	ft, err := fg.genExpr(v.IfFalse)
	if err != nil {
		return "", err
	}
	freg, err := fg.readVariable(ft)
	if err != nil {
		return "", err
	}
	if err := fg.writeVariable(result, freg); err != nil {
		return "", err
	}
	fg.stream.DefineLabel(end)
	return result, nil
}

// genValof pushes a resultisTarget so a nested RESULTIS feeds this
// expression's value instead of the function's own return (spec
// §4.1), runs Body, and defines the landing label RESULTIS branches
// to.
func (fg *funcGen) genValof(body ast.Statement, isFloat bool) (string, error) {
	result := fg.newTemp(isFloat)
	after := fg.g.labels.Fresh()
	fg.resultisTargets = append(fg.resultisTargets, resultisTarget{temp: result, afterLabel: after, isFloat: isFloat})
	if err := fg.genStatement(body); err != nil {
		return "", err
	}
	fg.resultisTargets = fg.resultisTargets[:len(fg.resultisTargets)-1]
	fg.stream.DefineLabel(after)
	return result, nil
}

// genHeapAlloc lowers VEC/FVEC/STRING/PAIRS/FPAIRS allocation as a
// runtime call, sizing the request by wordsPerElement (PAIRS/FPAIRS
// need two words per element). sizeOf tracking for bounds checks is
// left to the caller that binds the result to a named variable
// (LetDeclaration/AssignmentStatement do not currently retain a
// static size here — a documented limitation: bounds checks only
// fire when the analyser itself recorded a compile-time constant
// size, which this generator does not re-derive from the allocation
// site).
func (fg *funcGen) genHeapAlloc(size ast.Expression, runtimeFn string, isFloat bool, wordsPerElement int) (string, error) {
	szT, err := fg.genExpr(size)
	if err != nil {
		return "", err
	}
	szReg, err := fg.readVariable(szT)
	if err != nil {
		return "", err
	}
	fg.moveReg(exprScratchInt1, szReg, false)
	for i := 1; i < wordsPerElement; i *= 2 {
		fg.stream.Emit(arm64.AddReg(exprScratchInt1, exprScratchInt1, exprScratchInt1))
	}
	fg.moveReg("X0", exprScratchInt1, false)
	fg.beforeCall()
	if err := fg.emitRuntimeCall(runtimeFn); err != nil {
		return "", err
	}
	r := fg.newTemp(false)
	return r, fg.writeVariable(r, "X0")
}

func (fg *funcGen) genVecInitializer(v *ast.VecInitializerExpression) (string, error) {
	fn := "GETVEC"
	if v.Float {
		fn = "FGETVEC"
	}
	sizeLit := &ast.NumberLiteral{Value: int64(len(v.Elements))}
	vecTemp, err := fg.genHeapAlloc(sizeLit, fn, v.Float, 1)
	if err != nil {
		return "", err
	}
	vecReg, err := fg.readVariable(vecTemp)
	if err != nil {
		return "", err
	}
	fg.moveReg(exprScratchInt2, vecReg, false)
	for i, el := range v.Elements {
		t, err := fg.genExpr(el)
		if err != nil {
			return "", err
		}
		if v.Float {
			if err := fg.materializeInto(t, exprScratchFloat1); err != nil {
				return "", err
			}
			fg.stream.Emit(arm64.StrFPImm(exprScratchFloat1, exprScratchInt2, i*8))
		} else {
			if err := fg.materializeInto(t, exprScratchInt1); err != nil {
				return "", err
			}
			fg.stream.Emit(arm64.StrImm(exprScratchInt1, exprScratchInt2, i*8))
		}
	}
	r := fg.newTemp(false)
	return r, fg.writeVariable(r, exprScratchInt2)
}

// scaleByWordSize doubles reg in place 3 times (x2, x4, x8), turning
// a word index into a byte offset without needing an immediate-shift
// encoder or a third scratch register to hold the constant 8.
func (fg *funcGen) scaleByWordSize(reg string) {
	for i := 0; i < 3; i++ {
		fg.stream.Emit(arm64.AddReg(reg, reg, reg))
	}
}

// genVectorRead/genVectorStore lower `v!i` (integer or float vector
// indirection, one word per element). Bounds checking only fires when
// checkBounds is set (spec §4.1's VectorAccess.Bounds, filled in by
// the analyser when the vector's size was a compile-time constant at
// its allocation site); sizeOf tracking to emit the actual compare+BRK
// trap sequence is recorded as a known gap in DESIGN.md rather than
// wired to a live per-variable size table here, so checkBounds
// currently has no observable effect — the index is always trusted.
func (fg *funcGen) genVectorRead(vecExpr, idxExpr ast.Expression, isFloat, checkBounds bool) (string, error) {
	vt, err := fg.genExpr(vecExpr)
	if err != nil {
		return "", err
	}
	it, err := fg.genExpr(idxExpr)
	if err != nil {
		return "", err
	}
	if err := fg.materializeInto(vt, exprScratchInt1); err != nil {
		return "", err
	}
	if err := fg.materializeInto(it, exprScratchInt2); err != nil {
		return "", err
	}
	fg.scaleByWordSize(exprScratchInt2)
	fg.stream.Emit(arm64.AddReg(exprScratchInt1, exprScratchInt1, exprScratchInt2))

	if isFloat {
		fg.stream.Emit(arm64.LdrFPImm(exprScratchFloat1, exprScratchInt1, 0))
		r := fg.newTemp(true)
		return r, fg.writeVariable(r, exprScratchFloat1)
	}
	fg.stream.Emit(arm64.LdrImm(exprScratchInt1, exprScratchInt1, 0))
	r := fg.newTemp(false)
	return r, fg.writeVariable(r, exprScratchInt1)
}

func (fg *funcGen) genVectorStore(vecExpr, idxExpr ast.Expression, valueTemp string, isFloat, checkBounds bool) error {
	vt, err := fg.genExpr(vecExpr)
	if err != nil {
		return err
	}
	it, err := fg.genExpr(idxExpr)
	if err != nil {
		return err
	}
	if err := fg.materializeInto(vt, exprScratchInt1); err != nil {
		return err
	}
	if err := fg.materializeInto(it, exprScratchInt2); err != nil {
		return err
	}
	fg.scaleByWordSize(exprScratchInt2)
	fg.stream.Emit(arm64.AddReg(exprScratchInt1, exprScratchInt1, exprScratchInt2))

	valReg, err := fg.readVariable(valueTemp)
	if err != nil {
		return err
	}
	if isFloat {
		if valReg != exprScratchFloat2 {
			fg.moveReg(exprScratchFloat2, valReg, true)
		}
		fg.stream.Emit(arm64.StrFPImm(exprScratchFloat2, exprScratchInt1, 0))
		return nil
	}
	if valReg != exprScratchInt2 {
		fg.moveReg(exprScratchInt2, valReg, false)
	}
	fg.stream.Emit(arm64.StrImm(exprScratchInt2, exprScratchInt1, 0))
	return nil
}

// genCharRead/genCharStore lower `s%i` byte-level string/char-vector
// indirection — unscaled, unlike VectorAccess's word-per-element
// addressing.
func (fg *funcGen) genCharRead(v *ast.CharIndirection) (string, error) {
	st, err := fg.genExpr(v.Str)
	if err != nil {
		return "", err
	}
	it, err := fg.genExpr(v.Index)
	if err != nil {
		return "", err
	}
	if err := fg.materializeInto(st, exprScratchInt1); err != nil {
		return "", err
	}
	if err := fg.materializeInto(it, exprScratchInt2); err != nil {
		return "", err
	}
	fg.stream.Emit(arm64.AddReg(exprScratchInt1, exprScratchInt1, exprScratchInt2))
	fg.stream.Emit(arm64.LdrbImm(exprScratchInt1W, exprScratchInt1, 0))
	r := fg.newTemp(false)
	return r, fg.writeVariable(r, exprScratchInt1)
}

func (fg *funcGen) genCharStore(v *ast.CharIndirection, valueTemp string) error {
	st, err := fg.genExpr(v.Str)
	if err != nil {
		return err
	}
	it, err := fg.genExpr(v.Index)
	if err != nil {
		return err
	}
	if err := fg.materializeInto(st, exprScratchInt1); err != nil {
		return err
	}
	if err := fg.materializeInto(it, exprScratchInt2); err != nil {
		return err
	}
	fg.stream.Emit(arm64.AddReg(exprScratchInt1, exprScratchInt1, exprScratchInt2))
	valReg, err := fg.readVariable(valueTemp)
	if err != nil {
		return err
	}
	if valReg != exprScratchInt2 {
		fg.moveReg(exprScratchInt2, valReg, false)
	}
	fg.stream.Emit(arm64.StrbImm(exprScratchInt2W, exprScratchInt1, 0))
	return nil
}

func (fg *funcGen) genLaneRead(vecExpr ast.Expression, lane int) (string, error) {
	t, err := fg.genExpr(vecExpr)
	if err != nil {
		return "", err
	}
	reg, err := fg.readVariable(t)
	if err != nil {
		return "", err
	}
	vecType := vecExpr.Type()
	isFloat := vecType.IsFloat()
	dest := exprScratchInt1
	if isFloat {
		dest = exprScratchFloat1
	}
	fg.moveReg(dest, reg, isFloat)
	is, err := vector.ReadLane(vecType, dest, dest, lane)
	if err != nil {
		return "", ccerrors.WrapInternal(ccerrors.PhaseVector, fg.name, err)
	}
	fg.stream.EmitAll(is)
	r := fg.newTemp(isFloat)
	return r, fg.writeVariable(r, dest)
}

func (fg *funcGen) genLaneStore(vecExpr ast.Expression, lane int, valueTemp string) error {
	t, err := fg.genExpr(vecExpr)
	if err != nil {
		return err
	}
	reg, err := fg.readVariable(t)
	if err != nil {
		return err
	}
	vecType := vecExpr.Type()
	isFloat := vecType.IsFloat()
	dest := exprScratchInt1
	if isFloat {
		dest = exprScratchFloat1
	}
	fg.moveReg(dest, reg, isFloat)

	valReg, err := fg.readVariable(valueTemp)
	if err != nil {
		return err
	}
	valScratch := exprScratchInt2
	if isFloat {
		valScratch = exprScratchFloat2
	}
	if valReg != valScratch {
		fg.moveReg(valScratch, valReg, isFloat)
	}
	is, err := vector.WriteLane(vecType, dest, valScratch, lane)
	if err != nil {
		return ccerrors.WrapInternal(ccerrors.PhaseVector, fg.name, err)
	}
	fg.stream.EmitAll(is)
	return fg.writeVariable(t, dest)
}

// genIntPack/genIntLanes pack 2/4/8 integer-valued lanes into one
// 64-bit register via BFI bit-field-insert, the same technique
// pkg/codegen/vector's own scalarFallback uses (D- and V-registers
// share the physical register file, so values built this way are
// directly usable by vector's NEON lowering).
func (fg *funcGen) genIntPack(first, second ast.Expression, _ []ast.Expression) (string, error) {
	return fg.genIntLanes([]ast.Expression{first, second}, 32)
}

func (fg *funcGen) genIntLanes(lanes []ast.Expression, width int) (string, error) {
	fg.stream.EmitAll(arm64.MovzMovkAbs64(exprScratchInt1, 0))
	for i, lane := range lanes {
		t, err := fg.genExpr(lane)
		if err != nil {
			return "", err
		}
		if err := fg.materializeInto(t, exprScratchInt2); err != nil {
			return "", err
		}
		fg.stream.Emit(arm64.Bfi(exprScratchInt1, exprScratchInt2, i*width, width))
	}
	r := fg.newTemp(false)
	return r, fg.writeVariable(r, exprScratchInt1)
}

// genFloatPack/genFloatLanes pack 2/4 single-precision lanes into one
// 64-bit register, converting each double-precision operand down to
// float32 bit-for-bit first (FPAIR/FQUAD have no room for two
// doubles in 64 bits).
func (fg *funcGen) genFloatPack(first, second ast.Expression) (string, error) {
	return fg.genFloatLanes([]ast.Expression{first, second})
}

// genFloatLanes packs len(lanes) single-precision bit patterns evenly
// across 64 bits. For FQuadExpression (4 lanes, 16 bits each) this
// keeps only the low 16 bits of each float32 pattern — ast.go's
// FQuadExpression doc already flags that a true 4-lane float vector
// does not fit 16 bits per lane; this generator treats it as the
// truncated, fixed-point-ish value the node's own comment describes
// rather than inventing a wider encoding.
func (fg *funcGen) genFloatLanes(lanes []ast.Expression) (string, error) {
	width := 64 / len(lanes)
	fg.stream.EmitAll(arm64.MovzMovkAbs64(exprScratchInt1, 0))
	for i, lane := range lanes {
		t, err := fg.genExpr(lane)
		if err != nil {
			return "", err
		}
		if err := fg.materializeInto(t, exprScratchFloat1); err != nil {
			return "", err
		}
		fg.stream.Emit(arm64.FcvtDtoS(exprScratchFloat1S, exprScratchFloat1S))
		fg.stream.Emit(arm64.FmovStoW(exprScratchInt2W, exprScratchFloat1S))
		fg.stream.Emit(arm64.Bfi(exprScratchInt1, exprScratchInt2, i*width, width))
	}
	r := fg.newTemp(true)
	fg.stream.Emit(arm64.FmovXtoD(exprScratchFloat1, exprScratchInt1))
	return r, fg.writeVariable(r, exprScratchFloat1)
}

// genFOctHeap lowers the 256-bit, heap-resident FOCT by allocating 8
// words and storing each lane as a double, mirroring
// VecInitializerExpression's allocate-then-store shape rather than
// trying to force eight floats into 64 bits of register state.
func (fg *funcGen) genFOctHeap(lanes []ast.Expression) (string, error) {
	sizeLit := &ast.NumberLiteral{Value: int64(len(lanes))}
	vecTemp, err := fg.genHeapAlloc(sizeLit, "FGETVEC", true, 1)
	if err != nil {
		return "", err
	}
	vecReg, err := fg.readVariable(vecTemp)
	if err != nil {
		return "", err
	}
	fg.moveReg(exprScratchInt2, vecReg, false)
	for i, lane := range lanes {
		t, err := fg.genExpr(lane)
		if err != nil {
			return "", err
		}
		if err := fg.materializeInto(t, exprScratchFloat1); err != nil {
			return "", err
		}
		fg.stream.Emit(arm64.StrFPImm(exprScratchFloat1, exprScratchInt2, i*8))
	}
	r := fg.newTemp(false)
	return r, fg.writeVariable(r, exprScratchInt2)
}
