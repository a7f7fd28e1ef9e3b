// Package supercall implements the SUPER-call desugaring pass (spec
// §4.2, component C): rewrites `SUPER.m(args)` into a direct call to
// `ParentClass::m(_this, args)` before liveness analysis runs, so
// every downstream pass sees an ordinary function-pointer-free call.
//
// Design: a pure AST-rewriting visitor, grounded on the teacher's
// pattern of small single-purpose passes over its IR (pkg/ir's
// rewrite helpers) rather than folding the rewrite into the analyser
// itself — spec §4.2 calls this out as its own transformer stage.
package supercall

import (
	"github.com/GriffinCanCode/bcplc/pkg/ast"
	"github.com/GriffinCanCode/bcplc/pkg/ccerrors"
	"github.com/GriffinCanCode/bcplc/pkg/symbols"
)

// Transform rewrites SUPER calls in place in every function, routine,
// and class method or routine of prog. Within a body it searches
// blocks, IF/UNLESS/WHILE/UNTIL conditions and bodies, FOR bodies,
// routine-call statements, assignment right-hand sides and RESULTIS
// values, descending through binary, unary and conditional
// expressions; SUPER calls in other statement or expression forms
// (TEST, REPEAT, SWITCHON, LET, VALOF, another call's arguments, ...)
// are left as they are.
// classTable resolves the parent of the class currently being visited;
// diagnostics accumulates a recoverable error for a SUPER call that
// appears outside any class method or whose class has no parent.
func Transform(prog *ast.Program, classTable *symbols.ClassTable, diags *ccerrors.Diagnostics) {
	for _, fn := range prog.Functions {
		className := fn.ClassName
		transformStmt(fn.Body, className, classTable, diags, fn.Name)
	}
	for _, rt := range prog.Routines {
		transformStmt(rt.Body, rt.ClassName, classTable, diags, rt.Name)
	}
	for _, cls := range prog.Classes {
		for _, m := range cls.Methods {
			transformStmt(m.Body, cls.Name, classTable, diags, m.Name)
		}
		for _, r := range cls.Routines {
			transformStmt(r.Body, cls.Name, classTable, diags, r.Name)
		}
	}
}

func transformStmt(s ast.Statement, className string, ct *symbols.ClassTable, diags *ccerrors.Diagnostics, fnName string) {
	if s == nil {
		return
	}
	switch st := s.(type) {
	case *ast.BlockStatement:
		for _, inner := range st.Statements {
			transformStmt(inner, className, ct, diags, fnName)
		}
	case *ast.CompoundStatement:
		for _, inner := range st.Statements {
			transformStmt(inner, className, ct, diags, fnName)
		}
	case *ast.IfStatement:
		transformExprInPlace(&st.Condition, className, ct, diags, fnName)
		transformStmt(st.Then, className, ct, diags, fnName)
	case *ast.UnlessStatement:
		transformExprInPlace(&st.Condition, className, ct, diags, fnName)
		transformStmt(st.Then, className, ct, diags, fnName)
	case *ast.WhileStatement:
		transformExprInPlace(&st.Condition, className, ct, diags, fnName)
		transformStmt(st.Body, className, ct, diags, fnName)
	case *ast.UntilStatement:
		transformExprInPlace(&st.Condition, className, ct, diags, fnName)
		transformStmt(st.Body, className, ct, diags, fnName)
	case *ast.ForStatement:
		transformStmt(st.Body, className, ct, diags, fnName)
	case *ast.RoutineCallStatement:
		rewriteSuperCallee(&st.Callee, &st.Args, className, ct, diags, fnName)
	case *ast.AssignmentStatement:
		for i := range st.RHS {
			transformExprInPlace(&st.RHS[i], className, ct, diags, fnName)
		}
	case *ast.ResultisStatement:
		if st.Value != nil {
			transformExprInPlace(&st.Value, className, ct, diags, fnName)
		}
	}
}

// transformExprInPlace descends into an expression looking for a
// FunctionCall whose callee is a SuperMethodAccessExpression.
func transformExprInPlace(e *ast.Expression, className string, ct *symbols.ClassTable, diags *ccerrors.Diagnostics, fnName string) {
	if e == nil || *e == nil {
		return
	}
	switch v := (*e).(type) {
	case *ast.FunctionCall:
		rewriteSuperCallee(&v.Callee, &v.Args, className, ct, diags, fnName)
	case *ast.BinaryOp:
		transformExprInPlace(&v.Left, className, ct, diags, fnName)
		transformExprInPlace(&v.Right, className, ct, diags, fnName)
	case *ast.UnaryOp:
		transformExprInPlace(&v.Operand, className, ct, diags, fnName)
	case *ast.ConditionalExpression:
		transformExprInPlace(&v.Condition, className, ct, diags, fnName)
		transformExprInPlace(&v.IfTrue, className, ct, diags, fnName)
		transformExprInPlace(&v.IfFalse, className, ct, diags, fnName)
	}
}

// rewriteSuperCallee checks whether callee is a
// SuperMethodAccessExpression and, if so, replaces it with a
// VariableAccess naming the mangled "ParentClass::method" symbol and
// prepends a `_this` VariableAccess to args.
func rewriteSuperCallee(callee *ast.Expression, args *[]ast.Expression, className string, ct *symbols.ClassTable, diags *ccerrors.Diagnostics, fnName string) {
	sup, ok := (*callee).(*ast.SuperMethodAccessExpression)
	if !ok {
		return
	}
	if className == "" {
		diags.Add(ccerrors.PhaseSuperCall, fnName, "SUPER call outside any class method")
		return
	}
	entry, found := ct.GetClass(className)
	if !found || entry.ParentName == "" {
		diags.Add(ccerrors.PhaseSuperCall, fnName, "class %q has no parent for SUPER.%s", className, sup.Method)
		return
	}
	mangled := entry.ParentName + "::" + sup.Method
	*callee = &ast.VariableAccess{Name: mangled}
	newArgs := make([]ast.Expression, 0, len(*args)+1)
	newArgs = append(newArgs, &ast.VariableAccess{Name: "_this"})
	newArgs = append(newArgs, *args...)
	*args = newArgs
}
