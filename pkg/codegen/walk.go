package codegen

import "github.com/GriffinCanCode/bcplc/pkg/ast"

// collectVariableNames deep-walks body (unlike pkg/cfg.Build's
// shallow flatten, which deliberately does not descend into
// If/While/etc. bodies) so the spill area can be conservatively sized
// before the prologue is sealed — frame.Manager.ReserveSpillArea must
// run before GeneratePrologue, but pkg/regmgr only assigns slots
// lazily as spills happen during emission.
func collectVariableNames(s ast.Statement) map[string]bool {
	out := map[string]bool{}
	walkStmtVars(s, out)
	return out
}

func walkStmtVars(s ast.Statement, out map[string]bool) {
	if s == nil {
		return
	}
	switch st := s.(type) {
	case *ast.BlockStatement:
		for _, c := range st.Statements {
			walkStmtVars(c, out)
		}
	case *ast.CompoundStatement:
		for _, c := range st.Statements {
			walkStmtVars(c, out)
		}
	case *ast.LetDeclaration:
		for _, n := range st.Names {
			out[n] = true
		}
		for _, e := range st.Initializers {
			walkExprVars(e, out)
		}
	case *ast.StaticDeclaration:
		out[st.Name] = true
		walkExprVars(st.Initializer, out)
	case *ast.AssignmentStatement:
		for _, e := range st.LHS {
			walkExprVars(e, out)
		}
		for _, e := range st.RHS {
			walkExprVars(e, out)
		}
	case *ast.IfStatement:
		walkExprVars(st.Condition, out)
		walkStmtVars(st.Then, out)
	case *ast.UnlessStatement:
		walkExprVars(st.Condition, out)
		walkStmtVars(st.Then, out)
	case *ast.TestStatement:
		walkExprVars(st.Condition, out)
		walkStmtVars(st.Then, out)
		walkStmtVars(st.Else, out)
	case *ast.WhileStatement:
		walkExprVars(st.Condition, out)
		walkStmtVars(st.Body, out)
	case *ast.UntilStatement:
		walkExprVars(st.Condition, out)
		walkStmtVars(st.Body, out)
	case *ast.RepeatStatement:
		walkExprVars(st.Condition, out)
		walkStmtVars(st.Body, out)
	case *ast.ForStatement:
		if st.UniqueVarName != "" {
			out[st.UniqueVarName] = true
		} else {
			out[st.LoopVar] = true
		}
		if st.UniqueEndVarName != "" {
			out[st.UniqueEndVarName] = true
		}
		if st.UniqueStepVarName != "" {
			out[st.UniqueStepVarName] = true
		}
		walkExprVars(st.Start, out)
		walkExprVars(st.End, out)
		walkExprVars(st.Step, out)
		walkStmtVars(st.Body, out)
	case *ast.SwitchonStatement:
		walkExprVars(st.Selector, out)
		for _, c := range st.Cases {
			walkStmtVars(c.Body, out)
		}
		if st.Default != nil {
			walkStmtVars(st.Default.Body, out)
		}
	case *ast.ResultisStatement:
		walkExprVars(st.Value, out)
	case *ast.RoutineCallStatement:
		walkExprVars(st.Callee, out)
		for _, a := range st.Args {
			walkExprVars(a, out)
		}
	case *ast.FreeStatement:
		walkExprVars(st.Target, out)
	case *ast.StringStatement:
		for _, a := range st.Args {
			walkExprVars(a, out)
		}
	case *ast.ConditionalBranchStatement:
		walkExprVars(st.Condition, out)
	case *ast.SyscallStatement:
		for _, a := range st.Args {
			walkExprVars(a, out)
		}
	}
}

func walkExprVars(e ast.Expression, out map[string]bool) {
	if e == nil {
		return
	}
	switch v := e.(type) {
	case *ast.VariableAccess:
		out[v.Name] = true
	case *ast.BinaryOp:
		walkExprVars(v.Left, out)
		walkExprVars(v.Right, out)
	case *ast.UnaryOp:
		walkExprVars(v.Operand, out)
	case *ast.FunctionCall:
		walkExprVars(v.Callee, out)
		for _, a := range v.Args {
			walkExprVars(a, out)
		}
	case *ast.MemberAccessExpression:
		walkExprVars(v.Object, out)
	case *ast.NewExpression:
		for _, a := range v.Args {
			walkExprVars(a, out)
		}
	case *ast.ConditionalExpression:
		walkExprVars(v.Condition, out)
		walkExprVars(v.IfTrue, out)
		walkExprVars(v.IfFalse, out)
	case *ast.ValofExpression:
		walkStmtVars(v.Body, out)
	case *ast.FloatValofExpression:
		walkStmtVars(v.Body, out)
	case *ast.VecAllocationExpression:
		walkExprVars(v.Size, out)
	case *ast.FVecAllocationExpression:
		walkExprVars(v.Size, out)
	case *ast.StringAllocationExpression:
		walkExprVars(v.Size, out)
	case *ast.PairsAllocationExpression:
		walkExprVars(v.Count, out)
	case *ast.FPairsAllocationExpression:
		walkExprVars(v.Count, out)
	case *ast.VectorAccess:
		walkExprVars(v.Vector, out)
		walkExprVars(v.Index, out)
	case *ast.CharIndirection:
		walkExprVars(v.Str, out)
		walkExprVars(v.Index, out)
	case *ast.FloatVectorIndirection:
		walkExprVars(v.Vector, out)
		walkExprVars(v.Index, out)
	case *ast.LaneAccessExpression:
		walkExprVars(v.Vector, out)
	case *ast.PairExpression:
		walkExprVars(v.First, out)
		walkExprVars(v.Second, out)
	case *ast.FPairExpression:
		walkExprVars(v.First, out)
		walkExprVars(v.Second, out)
	case *ast.QuadExpression:
		for _, l := range v.Lanes {
			walkExprVars(l, out)
		}
	case *ast.FQuadExpression:
		for _, l := range v.Lanes {
			walkExprVars(l, out)
		}
	case *ast.QuadAccessExpression:
		walkExprVars(v.Vector, out)
	case *ast.FQuadAccessExpression:
		walkExprVars(v.Vector, out)
	case *ast.OctExpression:
		for _, l := range v.Lanes {
			walkExprVars(l, out)
		}
	case *ast.FOctExpression:
		for _, l := range v.Lanes {
			walkExprVars(l, out)
		}
	case *ast.TableExpression:
		for _, el := range v.Elements {
			walkExprVars(el, out)
		}
	case *ast.FTableExpression:
		for _, el := range v.Elements {
			walkExprVars(el, out)
		}
	case *ast.VecInitializerExpression:
		for _, el := range v.Elements {
			walkExprVars(el, out)
		}
	case *ast.SyscallExpression:
		for _, a := range v.Args {
			walkExprVars(a, out)
		}
	}
}

// statementContainsCall reports whether s itself (not nested control
// structures) performs a call — used to approximate regalloc call
// sites so the promotion tier prefers callee-saved homes for variables
// that live across a call.
func statementContainsCall(s ast.Statement) bool {
	switch st := s.(type) {
	case *ast.RoutineCallStatement:
		return true
	case *ast.AssignmentStatement:
		for _, e := range st.RHS {
			if exprContainsCall(e) {
				return true
			}
		}
	case *ast.ResultisStatement:
		return exprContainsCall(st.Value)
	case *ast.LetDeclaration:
		for _, e := range st.Initializers {
			if exprContainsCall(e) {
				return true
			}
		}
	case *ast.IfStatement:
		return exprContainsCall(st.Condition)
	case *ast.WhileStatement:
		return exprContainsCall(st.Condition)
	case *ast.UntilStatement:
		return exprContainsCall(st.Condition)
	}
	return false
}

func exprContainsCall(e ast.Expression) bool {
	switch v := e.(type) {
	case nil:
		return false
	case *ast.FunctionCall:
		return true
	case *ast.NewExpression:
		return true
	case *ast.BinaryOp:
		return exprContainsCall(v.Left) || exprContainsCall(v.Right)
	case *ast.UnaryOp:
		return exprContainsCall(v.Operand)
	case *ast.ConditionalExpression:
		return exprContainsCall(v.Condition) || exprContainsCall(v.IfTrue) || exprContainsCall(v.IfFalse)
	case *ast.MemberAccessExpression:
		return exprContainsCall(v.Object)
	}
	return false
}

// maxExprDepth upper-bounds the number of synthetic expression temps
// live at once anywhere in body, so the spill area pkg/codegen
// reserves before sealing the prologue has room for temps that don't
// exist yet at variable-collection time.
func maxExprDepth(s ast.Statement) int {
	max := 0
	var visitStmt func(ast.Statement)
	var visitExpr func(ast.Expression) int

	visitExpr = func(e ast.Expression) int {
		switch v := e.(type) {
		case nil:
			return 0
		case *ast.BinaryOp:
			l, r := visitExpr(v.Left), visitExpr(v.Right)
			if r > l {
				l = r
			}
			return l + 1
		case *ast.UnaryOp:
			return visitExpr(v.Operand) + 1
		case *ast.FunctionCall:
			d := 0
			for _, a := range v.Args {
				if n := visitExpr(a); n > d {
					d = n
				}
			}
			return d + 1
		case *ast.ConditionalExpression:
			d := visitExpr(v.Condition)
			if n := visitExpr(v.IfTrue); n > d {
				d = n
			}
			if n := visitExpr(v.IfFalse); n > d {
				d = n
			}
			return d + 1
		case *ast.MemberAccessExpression:
			return visitExpr(v.Object) + 1
		case *ast.NewExpression:
			d := 0
			for _, a := range v.Args {
				if n := visitExpr(a); n > d {
					d = n
				}
			}
			return d + 1
		case *ast.PairExpression:
			l, r := visitExpr(v.First), visitExpr(v.Second)
			if r > l {
				l = r
			}
			return l + 1
		case *ast.VectorAccess:
			d := visitExpr(v.Vector)
			if n := visitExpr(v.Index); n > d {
				d = n
			}
			return d + 1
		case *ast.ValofExpression:
			visitStmt(v.Body)
			return 2
		case *ast.FloatValofExpression:
			visitStmt(v.Body)
			return 2
		}
		return 1
	}

	visitStmt = func(s ast.Statement) {
		if s == nil {
			return
		}
		switch st := s.(type) {
		case *ast.BlockStatement:
			for _, c := range st.Statements {
				visitStmt(c)
			}
		case *ast.CompoundStatement:
			for _, c := range st.Statements {
				visitStmt(c)
			}
		case *ast.AssignmentStatement:
			for _, e := range append(append([]ast.Expression{}, st.LHS...), st.RHS...) {
				if n := visitExpr(e); n > max {
					max = n
				}
			}
		case *ast.LetDeclaration:
			for _, e := range st.Initializers {
				if n := visitExpr(e); n > max {
					max = n
				}
			}
		case *ast.IfStatement:
			if n := visitExpr(st.Condition); n > max {
				max = n
			}
			visitStmt(st.Then)
		case *ast.UnlessStatement:
			if n := visitExpr(st.Condition); n > max {
				max = n
			}
			visitStmt(st.Then)
		case *ast.TestStatement:
			if n := visitExpr(st.Condition); n > max {
				max = n
			}
			visitStmt(st.Then)
			visitStmt(st.Else)
		case *ast.WhileStatement:
			if n := visitExpr(st.Condition); n > max {
				max = n
			}
			visitStmt(st.Body)
		case *ast.UntilStatement:
			if n := visitExpr(st.Condition); n > max {
				max = n
			}
			visitStmt(st.Body)
		case *ast.RepeatStatement:
			if n := visitExpr(st.Condition); n > max {
				max = n
			}
			visitStmt(st.Body)
		case *ast.ForStatement:
			visitStmt(st.Body)
		case *ast.SwitchonStatement:
			if n := visitExpr(st.Selector); n > max {
				max = n
			}
			for _, c := range st.Cases {
				visitStmt(c.Body)
			}
			if st.Default != nil {
				visitStmt(st.Default.Body)
			}
		case *ast.ResultisStatement:
			if n := visitExpr(st.Value); n > max {
				max = n
			}
		}
	}

	visitStmt(s)
	if max < 2 {
		max = 2
	}
	return max
}
