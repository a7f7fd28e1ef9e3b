package codegen

import (
	"fmt"

	"github.com/GriffinCanCode/bcplc/pkg/ast"
	"github.com/GriffinCanCode/bcplc/pkg/ccerrors"
	"github.com/GriffinCanCode/bcplc/pkg/codegen/arm64"
)

// genCall lowers a call expression/statement: argument evaluation,
// AAPCS64 register shuffling, a beforeCall() cache flush, and the
// actual branch — direct BL, veneer trampoline, JIT runtime-table
// load, function-pointer BLR, or virtual dispatch through the class's
// vtable (spec §4.7).
func (fg *funcGen) genCall(callee ast.Expression, args []ast.Expression, resultIsFloat bool) (string, error) {
	if m, ok := callee.(*ast.MemberAccessExpression); ok {
		return fg.genMethodCall(m, args, resultIsFloat)
	}
	return fg.genPlainCall(callee, args, resultIsFloat)
}

func calleeName(e ast.Expression) (string, bool) {
	if v, ok := e.(*ast.VariableAccess); ok {
		return v.Name, true
	}
	return "", false
}

func (fg *funcGen) genPlainCall(callee ast.Expression, args []ast.Expression, resultIsFloat bool) (string, error) {
	argTemps := make([]string, len(args))
	for i, a := range args {
		t, err := fg.genExpr(a)
		if err != nil {
			return "", err
		}
		argTemps[i] = t
	}
	if err := fg.placeArgs(argTemps, 0); err != nil {
		return "", err
	}

	fg.beforeCall()

	if name, ok := calleeName(callee); ok {
		if err := fg.emitRuntimeCall(name); err != nil {
			return "", err
		}
	} else {
		t, err := fg.genExpr(callee)
		if err != nil {
			return "", err
		}
		reg, err := fg.readVariable(t)
		if err != nil {
			return "", err
		}
		fg.moveReg("X16", reg, false)
		fg.stream.Emit(arm64.BLR("X16"))
	}

	return fg.bindCallResult(resultIsFloat)
}

// genMethodCall resolves the method always against fg.className (the
// enclosing method's static class — the same simplification
// genMemberRead documents), dispatching through the vtable when the
// method is virtual and not final, or a direct BL otherwise.
func (fg *funcGen) genMethodCall(c *ast.MemberAccessExpression, args []ast.Expression, resultIsFloat bool) (string, error) {
	objT, err := fg.genExpr(c.Object)
	if err != nil {
		return "", err
	}
	argTemps := make([]string, len(args))
	for i, a := range args {
		t, err := fg.genExpr(a)
		if err != nil {
			return "", err
		}
		argTemps[i] = t
	}

	thisReg, err := fg.readVariable(objT)
	if err != nil {
		return "", err
	}
	fg.moveReg("X0", thisReg, false)
	if err := fg.placeArgs(argTemps, 1); err != nil {
		return "", err
	}

	method, ok := fg.g.ct.ResolveMethod(fg.className, c.Member)
	if !ok {
		return "", ccerrors.NewInternal(ccerrors.PhaseCodegen, fg.name, "cannot resolve method %q on class %q", c.Member, fg.className)
	}

	fg.beforeCall()
	if method.IsVirtual && !method.IsFinal {
		fg.stream.Emit(arm64.LdrImm(exprScratchInt1, "X0", 0))
		fg.stream.Emit(arm64.LdrImm(exprScratchInt2, exprScratchInt1, method.VtableSlot*8))
		fg.stream.Emit(arm64.BLR(exprScratchInt2))
	} else {
		fg.stream.Emit(arm64.BL(method.QualifiedName))
	}

	return fg.bindCallResult(resultIsFloat)
}

// genNew allocates a class instance and dispatches its CREATE method
// (a constructor), if one is declared; the allocation always reserves
// one extra word for the vtable-pointer slot the symbol table's
// MemberVariable offsets already account for.
func (fg *funcGen) genNew(v *ast.NewExpression) (string, error) {
	cls, ok := fg.g.ct.GetClass(v.ClassName)
	if !ok {
		return "", ccerrors.NewInternal(ccerrors.PhaseCodegen, fg.name, "unknown class %q", v.ClassName)
	}
	words := len(cls.MemberVariables) + 1
	fg.stream.EmitAll(arm64.MovzMovkAbs64("X0", uint64(words)))
	fg.beforeCall()
	if err := fg.emitRuntimeCall("GETVEC"); err != nil {
		return "", err
	}
	objTemp := fg.newTemp(false)
	if err := fg.writeVariable(objTemp, "X0"); err != nil {
		return "", err
	}

	m, ok := fg.g.ct.ResolveMethod(v.ClassName, "CREATE")
	if !ok {
		return objTemp, nil
	}

	objReg, err := fg.readVariable(objTemp)
	if err != nil {
		return "", err
	}
	fg.moveReg("X0", objReg, false)
	argTemps := make([]string, len(v.Args))
	for i, a := range v.Args {
		t, err := fg.genExpr(a)
		if err != nil {
			return "", err
		}
		argTemps[i] = t
	}
	if err := fg.placeArgs(argTemps, 1); err != nil {
		return "", err
	}
	fg.beforeCall()
	fg.stream.Emit(arm64.BL(m.QualifiedName))
	return objTemp, nil
}

// placeArgs moves each evaluated argument temp into its AAPCS64
// register, starting the integer class count at intStart (1 when X0
// is already reserved for an implicit "this"). Argument registers
// X0-X7/D0-D7 are outside both cache pools, so materializing them in
// order is safe: no later move can clobber an earlier one.
func (fg *funcGen) placeArgs(argTemps []string, intStart int) error {
	intIdx, floatIdx := intStart, 0
	for _, t := range argTemps {
		isFloat := fg.varIsFloat[t]
		reg, err := fg.readVariable(t)
		if err != nil {
			return err
		}
		var dst string
		if isFloat {
			if floatIdx > 7 {
				return ccerrors.NewInternal(ccerrors.PhaseCodegen, fg.name, "call exceeds the 8 available float argument registers")
			}
			dst = fmt.Sprintf("D%d", floatIdx)
			floatIdx++
		} else {
			if intIdx > 7 {
				return ccerrors.NewInternal(ccerrors.PhaseCodegen, fg.name, "call exceeds the 8 available integer argument registers")
			}
			dst = fmt.Sprintf("X%d", intIdx)
			intIdx++
		}
		if reg != dst {
			fg.moveReg(dst, reg, isFloat)
		}
	}
	return nil
}

func (fg *funcGen) bindCallResult(isFloat bool) (string, error) {
	result := fg.newTemp(isFloat)
	retReg := "X0"
	if isFloat {
		retReg = "D0"
	}
	return result, fg.writeVariable(result, retReg)
}
