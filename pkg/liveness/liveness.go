// Package liveness computes per-block use/def sets and the live-in/
// live-out fixed point over a cfg.Graph (spec §E), feeding the
// LiveInterval construction in pkg/regalloc.
//
// Design: classic iterative backward data-flow to a fixed point,
// mirroring the teacher's pkg/codegen/regalloc liveness pass (the
// Allocator there recomputes live sets per block in the same style)
// rather than reaching for an off-the-shelf data-flow framework — none
// of the retrieval pack uses one for this.
package liveness

import (
	"github.com/GriffinCanCode/bcplc/pkg/ast"
	"github.com/GriffinCanCode/bcplc/pkg/cfg"
)

// BlockInfo carries the use/def/in/out variable-name sets for one
// basic block.
type BlockInfo struct {
	Use, Def, In, Out map[string]bool
}

// Result maps each basic block to its liveness sets.
type Result struct {
	Blocks map[*cfg.BasicBlock]*BlockInfo
}

// IsLiveIn reports whether name is live entering block.
func (r *Result) IsLiveIn(block *cfg.BasicBlock, name string) bool {
	bi := r.Blocks[block]
	return bi != nil && bi.In[name]
}

// IsLiveOut reports whether name is live leaving block.
func (r *Result) IsLiveOut(block *cfg.BasicBlock, name string) bool {
	bi := r.Blocks[block]
	return bi != nil && bi.Out[name]
}

// Analyze runs the use/def fixed-point to completion. Re-running
// Analyze on the same graph always yields the same Result (spec §8
// P8, idempotence) since the algorithm is a monotone fixed point over
// a finite lattice with no external state.
func Analyze(g *cfg.Graph) *Result {
	res := &Result{Blocks: make(map[*cfg.BasicBlock]*BlockInfo)}
	for _, b := range g.Blocks {
		use, def := useDef(b.Statements)
		res.Blocks[b] = &BlockInfo{Use: use, Def: def, In: map[string]bool{}, Out: map[string]bool{}}
	}
	changed := true
	for changed {
		changed = false
		for i := len(g.Blocks) - 1; i >= 0; i-- {
			b := g.Blocks[i]
			bi := res.Blocks[b]
			newOut := map[string]bool{}
			for _, succ := range b.Succs {
				for name := range res.Blocks[succ].In {
					newOut[name] = true
				}
			}
			newIn := map[string]bool{}
			for name := range bi.Use {
				newIn[name] = true
			}
			for name := range newOut {
				if !bi.Def[name] {
					newIn[name] = true
				}
			}
			if !equalSets(newIn, bi.In) || !equalSets(newOut, bi.Out) {
				bi.In, bi.Out = newIn, newOut
				changed = true
			}
		}
	}
	return res
}

func equalSets(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// useDef walks one block's statements computing the variables read
// before being written (Use) and variables written (Def), in
// left-to-right statement order.
func useDef(stmts []ast.Statement) (use, def map[string]bool) {
	use, def = map[string]bool{}, map[string]bool{}
	markUse := func(name string) {
		if !def[name] {
			use[name] = true
		}
	}
	var visitExpr func(e ast.Expression)
	visitExpr = func(e ast.Expression) {
		switch v := e.(type) {
		case *ast.VariableAccess:
			markUse(v.Name)
		case *ast.BinaryOp:
			visitExpr(v.Left)
			visitExpr(v.Right)
		case *ast.UnaryOp:
			visitExpr(v.Operand)
		case *ast.FunctionCall:
			visitExpr(v.Callee)
			for _, a := range v.Args {
				visitExpr(a)
			}
		case *ast.MemberAccessExpression:
			visitExpr(v.Object)
		case *ast.VectorAccess:
			visitExpr(v.Vector)
			visitExpr(v.Index)
		case *ast.ConditionalExpression:
			visitExpr(v.Condition)
			visitExpr(v.IfTrue)
			visitExpr(v.IfFalse)
		case *ast.LaneAccessExpression:
			visitExpr(v.Vector)
		case *ast.NewExpression:
			for _, a := range v.Args {
				visitExpr(a)
			}
		}
	}
	for _, s := range stmts {
		switch st := s.(type) {
		case *ast.AssignmentStatement:
			for _, rhs := range st.RHS {
				visitExpr(rhs)
			}
			for _, lhs := range st.LHS {
				if va, ok := lhs.(*ast.VariableAccess); ok {
					def[va.Name] = true
				} else {
					visitExpr(lhs)
				}
			}
		case *ast.LetDeclaration:
			for _, init := range st.Initializers {
				if init != nil {
					visitExpr(init)
				}
			}
			for _, name := range st.Names {
				def[name] = true
			}
		case *ast.ResultisStatement:
			if st.Value != nil {
				visitExpr(st.Value)
			}
		case *ast.RoutineCallStatement:
			visitExpr(st.Callee)
			for _, a := range st.Args {
				visitExpr(a)
			}
		case *ast.IfStatement:
			visitExpr(st.Condition)
		case *ast.WhileStatement:
			visitExpr(st.Condition)
		case *ast.UntilStatement:
			visitExpr(st.Condition)
		case *ast.ForStatement:
			visitExpr(st.Start)
			visitExpr(st.End)
			def[st.UniqueVarName] = true
		}
	}
	return use, def
}
