package supercall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/bcplc/pkg/ast"
	"github.com/GriffinCanCode/bcplc/pkg/ccerrors"
	"github.com/GriffinCanCode/bcplc/pkg/symbols"
)

func classTableWithParent() *symbols.ClassTable {
	ct := symbols.NewClassTable()
	ct.AddClass(&symbols.ClassEntry{Name: "Shape"})
	ct.AddClass(&symbols.ClassEntry{Name: "Circle", ParentName: "Shape"})
	return ct
}

func TestTransformRewritesSuperCallInAssignment(t *testing.T) {
	ct := classTableWithParent()
	diags := &ccerrors.Diagnostics{}

	call := &ast.FunctionCall{
		Callee: &ast.SuperMethodAccessExpression{Method: "draw"},
		Args:   []ast.Expression{&ast.NumberLiteral{Value: 1}},
	}
	fn := &ast.FunctionDeclaration{
		Name:      "Circle::draw",
		ClassName: "Circle",
		Body: &ast.BlockStatement{Statements: []ast.Statement{
			&ast.AssignmentStatement{
				LHS: []ast.Expression{&ast.VariableAccess{Name: "ignored"}},
				RHS: []ast.Expression{call},
			},
		}},
	}
	prog := &ast.Program{Functions: []*ast.FunctionDeclaration{fn}}

	Transform(prog, ct, diags)

	require.False(t, diags.HasErrors())
	callee, ok := call.Callee.(*ast.VariableAccess)
	require.True(t, ok, "SUPER callee must be rewritten to a plain VariableAccess")
	assert.Equal(t, "Shape::draw", callee.Name)
	require.Len(t, call.Args, 2)
	this, ok := call.Args[0].(*ast.VariableAccess)
	require.True(t, ok)
	assert.Equal(t, "_this", this.Name)
}

func TestTransformRewritesSuperCallInRoutineCallStatement(t *testing.T) {
	ct := classTableWithParent()
	diags := &ccerrors.Diagnostics{}

	stmt := &ast.RoutineCallStatement{
		Callee: &ast.SuperMethodAccessExpression{Method: "draw"},
		Args:   nil,
	}
	fn := &ast.FunctionDeclaration{
		Name:      "Circle::draw",
		ClassName: "Circle",
		Body: &ast.BlockStatement{Statements: []ast.Statement{stmt}},
	}
	prog := &ast.Program{Functions: []*ast.FunctionDeclaration{fn}}

	Transform(prog, ct, diags)

	require.False(t, diags.HasErrors())
	callee, ok := stmt.Callee.(*ast.VariableAccess)
	require.True(t, ok)
	assert.Equal(t, "Shape::draw", callee.Name)
	require.Len(t, stmt.Args, 1)
}

func TestTransformFlagsSuperCallOutsideClassMethod(t *testing.T) {
	ct := classTableWithParent()
	diags := &ccerrors.Diagnostics{}

	stmt := &ast.RoutineCallStatement{
		Callee: &ast.SuperMethodAccessExpression{Method: "draw"},
	}
	fn := &ast.FunctionDeclaration{
		Name: "freeFunction",
		Body: &ast.BlockStatement{Statements: []ast.Statement{stmt}},
	}
	prog := &ast.Program{Functions: []*ast.FunctionDeclaration{fn}}

	Transform(prog, ct, diags)

	assert.True(t, diags.HasErrors())
}

func TestTransformFlagsSuperCallWithNoParentClass(t *testing.T) {
	ct := classTableWithParent()
	diags := &ccerrors.Diagnostics{}

	stmt := &ast.RoutineCallStatement{
		Callee: &ast.SuperMethodAccessExpression{Method: "draw"},
	}
	fn := &ast.FunctionDeclaration{
		Name:      "Shape::draw",
		ClassName: "Shape",
		Body:      &ast.BlockStatement{Statements: []ast.Statement{stmt}},
	}
	prog := &ast.Program{Functions: []*ast.FunctionDeclaration{fn}}

	Transform(prog, ct, diags)

	assert.True(t, diags.HasErrors(), "Shape has no parent, so SUPER inside it must be flagged")
}

func TestTransformLeavesOrdinaryCallsUntouched(t *testing.T) {
	ct := classTableWithParent()
	diags := &ccerrors.Diagnostics{}

	call := &ast.FunctionCall{Callee: &ast.VariableAccess{Name: "plainFn"}}
	fn := &ast.FunctionDeclaration{
		Name:      "Circle::draw",
		ClassName: "Circle",
		Body: &ast.BlockStatement{Statements: []ast.Statement{
			&ast.AssignmentStatement{
				LHS: []ast.Expression{&ast.VariableAccess{Name: "x"}},
				RHS: []ast.Expression{call},
			},
		}},
	}
	prog := &ast.Program{Functions: []*ast.FunctionDeclaration{fn}}

	Transform(prog, ct, diags)

	require.False(t, diags.HasErrors())
	callee, ok := call.Callee.(*ast.VariableAccess)
	require.True(t, ok)
	assert.Equal(t, "plainFn", callee.Name)
	assert.Empty(t, call.Args)
}
