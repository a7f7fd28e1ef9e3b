package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/bcplc/pkg/ast"
	"github.com/GriffinCanCode/bcplc/pkg/ccerrors"
	"github.com/GriffinCanCode/bcplc/pkg/symbols"
	"github.com/GriffinCanCode/bcplc/pkg/types"
)

func newTestAnalyzer() (*Analyzer, *ccerrors.Diagnostics) {
	diags := &ccerrors.Diagnostics{}
	a := New(symbols.NewSymbolTable(), symbols.NewClassTable(), diags)
	return a, diags
}

func TestLeafFunctionDetection(t *testing.T) {
	a, _ := newTestAnalyzer()
	prog := &ast.Program{
		Functions: []*ast.FunctionDeclaration{
			{Name: "square", Parameters: []*ast.ParamDecl{{Name: "n", Type: types.INTEGER}},
				Body: &ast.ResultisStatement{Value: &ast.BinaryOp{Op: ast.OpMul, Left: &ast.VariableAccess{Name: "n"}, Right: &ast.VariableAccess{Name: "n"}}}},
			{Name: "caller", Parameters: nil,
				Body: &ast.ResultisStatement{Value: &ast.FunctionCall{Callee: &ast.VariableAccess{Name: "square"}, Args: []ast.Expression{&ast.NumberLiteral{Value: 2}}}}},
		},
	}
	a.Analyze(prog)
	assert.True(t, a.IsLeafFunction("square"))
	assert.False(t, a.IsLeafFunction("caller"))
}

func TestHeapAllocationPropagation(t *testing.T) {
	a, _ := newTestAnalyzer()
	prog := &ast.Program{
		Functions: []*ast.FunctionDeclaration{
			{Name: "alloc", Body: &ast.ResultisStatement{Value: &ast.VecAllocationExpression{Size: &ast.NumberLiteral{Value: 4}}}},
			{Name: "wrapsAlloc", Body: &ast.ResultisStatement{Value: &ast.FunctionCall{Callee: &ast.VariableAccess{Name: "alloc"}}}},
			{Name: "noAlloc", Body: &ast.ResultisStatement{Value: &ast.NumberLiteral{Value: 1}}},
		},
	}
	metrics := a.Analyze(prog)
	assert.True(t, metrics["alloc"].PerformsHeapAllocation)
	assert.True(t, metrics["wrapsAlloc"].PerformsHeapAllocation, "heap allocation must propagate transitively through the call graph")
	assert.False(t, metrics["noAlloc"].PerformsHeapAllocation)
}

func TestForLoopVariableUniquification(t *testing.T) {
	a, _ := newTestAnalyzer()
	inner := &ast.ForStatement{
		LoopVar: "I", Start: &ast.NumberLiteral{Value: 0}, End: &ast.NumberLiteral{Value: 10},
		Body: &ast.ResultisStatement{Value: &ast.VariableAccess{Name: "I"}},
	}
	outer := &ast.ForStatement{
		LoopVar: "I", Start: &ast.NumberLiteral{Value: 0}, End: &ast.NumberLiteral{Value: 5},
		Body: &ast.BlockStatement{Statements: []ast.Statement{inner}},
	}
	prog := &ast.Program{Functions: []*ast.FunctionDeclaration{{Name: "nested", Body: outer}}}
	a.Analyze(prog)

	require.NotEmpty(t, outer.UniqueVarName)
	require.NotEmpty(t, inner.UniqueVarName)
	assert.NotEqual(t, outer.UniqueVarName, inner.UniqueVarName, "nested FOR I must not collide with the outer FOR I's unique name")

	rs := inner.Body.(*ast.ResultisStatement)
	va := rs.Value.(*ast.VariableAccess)
	assert.Equal(t, inner.UniqueVarName, va.Name, "a reference inside the inner loop body must resolve to the inner loop's unique name")

	assert.True(t, outer.IsEndConstant)
	assert.Equal(t, int64(5), outer.ConstantEnd)
	assert.Empty(t, outer.UniqueEndVarName, "a constant END expression must not allocate a backing variable")
}

func TestSelfRewrittenToThis(t *testing.T) {
	a, _ := newTestAnalyzer()
	ct := symbols.NewClassTable()
	ct.AddClass(&symbols.ClassEntry{
		Name:            "Counter",
		MemberVariables: map[string]*symbols.MemberVariable{"count": {Name: "count", Type: types.INTEGER}},
	})
	a.ct = ct

	body := &ast.ResultisStatement{Value: &ast.MemberAccessExpression{Object: &ast.SelfExpression{}, Member: "count"}}
	prog := &ast.Program{Functions: []*ast.FunctionDeclaration{{Name: "get", ClassName: "Counter", IsMethod: true, Body: body}}}
	metrics := a.Analyze(prog)

	ma := body.Value.(*ast.MemberAccessExpression)
	va, ok := ma.Object.(*ast.VariableAccess)
	require.True(t, ok, "SelfExpression must be rewritten to a VariableAccess")
	assert.Equal(t, "_this", va.Name)

	m := metrics["Counter::get"]
	require.NotNil(t, m)
	assert.True(t, m.IsTrivialAccessor)
	assert.Equal(t, "count", m.AccessedMemberName)
}

func TestTrivialSetterDetection(t *testing.T) {
	a, _ := newTestAnalyzer()
	ct := symbols.NewClassTable()
	ct.AddClass(&symbols.ClassEntry{
		Name:            "Counter",
		MemberVariables: map[string]*symbols.MemberVariable{"count": {Name: "count", Type: types.INTEGER}},
	})
	a.ct = ct

	body := &ast.AssignmentStatement{
		LHS: []ast.Expression{&ast.MemberAccessExpression{Object: &ast.VariableAccess{Name: "_this"}, Member: "count"}},
		RHS: []ast.Expression{&ast.VariableAccess{Name: "v"}},
	}
	prog := &ast.Program{Routines: []*ast.RoutineDeclaration{
		{Name: "setCount", ClassName: "Counter", IsMethod: true,
			Parameters: []*ast.ParamDecl{{Name: "v", Type: types.INTEGER}}, Body: body},
	}}
	metrics := a.Analyze(prog)

	m := metrics["Counter::setCount"]
	require.NotNil(t, m)
	assert.True(t, m.IsTrivialSetter)
	assert.Equal(t, "count", m.AccessedMemberName)
}

func TestWritefFormatMismatchReportsDiagnostic(t *testing.T) {
	a, diags := newTestAnalyzer()
	prog := &ast.Program{Functions: []*ast.FunctionDeclaration{
		{Name: "report", Body: &ast.BlockStatement{Statements: []ast.Statement{
			&ast.StringStatement{Format: "value = %N, other = %N", Args: []ast.Expression{&ast.NumberLiteral{Value: 1}}},
		}}},
	}}
	a.Analyze(prog)
	require.True(t, diags.HasErrors())
}

func TestWritefFormatMatchIsSilent(t *testing.T) {
	a, diags := newTestAnalyzer()
	prog := &ast.Program{Functions: []*ast.FunctionDeclaration{
		{Name: "report", Body: &ast.BlockStatement{Statements: []ast.Statement{
			&ast.StringStatement{Format: "literal %% then %N", Args: []ast.Expression{&ast.NumberLiteral{Value: 1}}},
		}}},
	}}
	a.Analyze(prog)
	assert.False(t, diags.HasErrors(), "%%%% must be treated as a literal percent, not a missing-argument specifier")
}

func TestGlobalAccessMarksMetric(t *testing.T) {
	a, _ := newTestAnalyzer()
	prog := &ast.Program{
		Globals: []*ast.GlobalDeclaration{{Names: []string{"COUNTER"}, Slots: []int{0}, Types: []types.VarType{types.INTEGER}}},
		Functions: []*ast.FunctionDeclaration{
			{Name: "bump", Body: &ast.ResultisStatement{Value: &ast.VariableAccess{Name: "COUNTER"}}},
		},
	}
	metrics := a.Analyze(prog)
	assert.True(t, metrics["bump"].AccessesGlobals)
}
