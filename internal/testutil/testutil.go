// Package testutil holds small fixture builders shared by this
// module's tests and by cmd/bcplc's demonstration pipeline: a
// symbol/class table pair and a couple of representative
// ast.Program values, in the same hand-built style
// pkg/analysis/analysis_test.go and pkg/symbols/symbols_test.go
// already construct fixtures in, collected here once instead of
// repeated per package.
package testutil

import (
	"github.com/GriffinCanCode/bcplc/pkg/ast"
	"github.com/GriffinCanCode/bcplc/pkg/ccerrors"
	"github.com/GriffinCanCode/bcplc/pkg/symbols"
	"github.com/GriffinCanCode/bcplc/pkg/types"
)

// NewDiagnostics returns an empty diagnostics sink for a test/demo run.
func NewDiagnostics() *ccerrors.Diagnostics {
	return &ccerrors.Diagnostics{}
}

// ShapeClassHierarchy returns a two-class table (a base Shape with a
// virtual draw method, and a Circle subclass overriding it) — the
// same shape pkg/symbols/symbols_test.go's
// TestClassTableMemberInheritance builds by hand, reused here so
// every caller that needs "a small virtual-dispatch hierarchy" gets
// the identical fixture.
func ShapeClassHierarchy() *symbols.ClassTable {
	ct := symbols.NewClassTable()
	ct.AddClass(&symbols.ClassEntry{
		Name: "Shape",
		MemberVariables: map[string]*symbols.MemberVariable{
			"color": {Name: "color", Offset: 8, Type: types.INTEGER},
		},
		MemberMethods: map[string]*symbols.MethodInfo{
			"Shape::draw": {Name: "draw", QualifiedName: "Shape::draw", VtableSlot: 0, IsVirtual: true, ReturnType: types.INTEGER},
		},
		VtableBlueprint: []string{"Shape::draw"},
	})
	ct.AddClass(&symbols.ClassEntry{
		Name:       "Circle",
		ParentName: "Shape",
		MemberVariables: map[string]*symbols.MemberVariable{
			"radius": {Name: "radius", Offset: 16, Type: types.FLOAT},
		},
		MemberMethods: map[string]*symbols.MethodInfo{
			"Circle::draw": {Name: "draw", QualifiedName: "Circle::draw", VtableSlot: 0, IsVirtual: true, IsFinal: true, ReturnType: types.INTEGER},
			"Circle::CREATE": {Name: "CREATE", QualifiedName: "Circle::CREATE", VtableSlot: -1,
				Parameters: []symbols.Parameter{{Name: "r", Type: types.FLOAT}}},
		},
		VtableBlueprint: []string{"Circle::draw"},
	})
	return ct
}

// SquareProgram returns a minimal, leaf, non-allocating function (the
// same shape TestLeafFunctionDetection builds): RESULTIS n*n.
func SquareProgram() *ast.Program {
	return &ast.Program{
		Functions: []*ast.FunctionDeclaration{
			{
				Name:       "square",
				Parameters: []*ast.ParamDecl{{Name: "n", Type: types.INTEGER}},
				ReturnType: types.INTEGER,
				Body: &ast.ResultisStatement{Value: &ast.BinaryOp{
					Op:    ast.OpMul,
					Left:  &ast.VariableAccess{Name: "n"},
					Right: &ast.VariableAccess{Name: "n"},
				}},
			},
		},
	}
}

// CountdownProgram returns a small FOR-loop-and-accumulator function
// exercising control flow, assignment, and a closing RESULTIS —
// enough surface for cmd/bcplc's demo pipeline to produce more than a
// single basic block.
func CountdownProgram() *ast.Program {
	return &ast.Program{
		Functions: []*ast.FunctionDeclaration{
			{
				Name:       "sumTo",
				Parameters: []*ast.ParamDecl{{Name: "n", Type: types.INTEGER}},
				ReturnType: types.INTEGER,
				Body: &ast.BlockStatement{Statements: []ast.Statement{
					&ast.LetDeclaration{
						Names:        []string{"total"},
						Types:        []types.VarType{types.INTEGER},
						Initializers: []ast.Expression{&ast.NumberLiteral{Value: 0}},
					},
					&ast.ForStatement{
						LoopVar: "i",
						Start:   &ast.NumberLiteral{Value: 1},
						End:     &ast.VariableAccess{Name: "n"},
						Body: &ast.AssignmentStatement{
							LHS: []ast.Expression{&ast.VariableAccess{Name: "total"}},
							RHS: []ast.Expression{&ast.BinaryOp{
								Op:    ast.OpAdd,
								Left:  &ast.VariableAccess{Name: "total"},
								Right: &ast.VariableAccess{Name: "i"},
							}},
						},
					},
					&ast.ResultisStatement{Value: &ast.VariableAccess{Name: "total"}},
				}},
			},
		},
	}
}
