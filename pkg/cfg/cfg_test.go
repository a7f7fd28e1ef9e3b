package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/bcplc/pkg/ast"
)

func TestBuildStraightLineBlockIsSingleBlock(t *testing.T) {
	body := &ast.BlockStatement{Statements: []ast.Statement{
		&ast.LetDeclaration{Names: []string{"x"}, Initializers: []ast.Expression{&ast.NumberLiteral{Value: 1}}},
		&ast.AssignmentStatement{
			LHS: []ast.Expression{&ast.VariableAccess{Name: "x"}},
			RHS: []ast.Expression{&ast.NumberLiteral{Value: 2}},
		},
		&ast.ReturnStatement{},
	}}

	g := Build(body)
	require.Len(t, g.Blocks, 1)
	assert.Same(t, g.Entry, g.Blocks[0])
	assert.Len(t, g.Entry.Succs, 0)
}

func TestBuildIfStatementSplitsIntoTwoBlocks(t *testing.T) {
	body := &ast.BlockStatement{Statements: []ast.Statement{
		&ast.IfStatement{
			Condition: &ast.VariableAccess{Name: "cond"},
			Then:      &ast.AssignmentStatement{LHS: []ast.Expression{&ast.VariableAccess{Name: "x"}}, RHS: []ast.Expression{&ast.NumberLiteral{Value: 1}}},
		},
		&ast.ReturnStatement{},
	}}

	g := Build(body)
	require.Len(t, g.Blocks, 2)
	assert.Equal(t, 0, g.Blocks[0].ID)
	assert.Equal(t, 1, g.Blocks[1].ID)
}

func TestBuildLabelAndConditionalBranchWiresBackEdge(t *testing.T) {
	body := &ast.BlockStatement{Statements: []ast.Statement{
		&ast.LabelTargetStatement{Name: "loop"},
		&ast.AssignmentStatement{LHS: []ast.Expression{&ast.VariableAccess{Name: "x"}}, RHS: []ast.Expression{&ast.NumberLiteral{Value: 1}}},
		&ast.ConditionalBranchStatement{Condition: &ast.VariableAccess{Name: "x"}, Target: "loop"},
		&ast.ReturnStatement{},
	}}

	g := Build(body)
	require.GreaterOrEqual(t, len(g.Blocks), 2)

	var loopHeader *BasicBlock
	for _, b := range g.Blocks {
		if b.Label == "loop" {
			loopHeader = b
		}
	}
	require.NotNil(t, loopHeader)

	var branchBlock *BasicBlock
	for _, b := range g.Blocks {
		for _, s := range b.Statements {
			if _, ok := s.(*ast.ConditionalBranchStatement); ok {
				branchBlock = b
			}
		}
	}
	require.NotNil(t, branchBlock)

	foundBackEdge := false
	for _, succ := range branchBlock.Succs {
		if succ == loopHeader {
			foundBackEdge = true
		}
	}
	assert.True(t, foundBackEdge, "conditional branch to a label must link back to that label's block")
}

func TestBuildFlattensNestedBlockStatements(t *testing.T) {
	inner := &ast.BlockStatement{Statements: []ast.Statement{
		&ast.AssignmentStatement{LHS: []ast.Expression{&ast.VariableAccess{Name: "x"}}, RHS: []ast.Expression{&ast.NumberLiteral{Value: 1}}},
	}}
	body := &ast.BlockStatement{Statements: []ast.Statement{inner, &ast.ReturnStatement{}}}

	g := Build(body)
	require.Len(t, g.Blocks, 1)
	assert.Len(t, g.Blocks[0].Statements, 2)
}

func TestBuildReturnHasNoFallthroughSuccessor(t *testing.T) {
	body := &ast.BlockStatement{Statements: []ast.Statement{
		&ast.IfStatement{Condition: &ast.VariableAccess{Name: "cond"}},
		&ast.ReturnStatement{},
		&ast.AssignmentStatement{LHS: []ast.Expression{&ast.VariableAccess{Name: "x"}}, RHS: []ast.Expression{&ast.NumberLiteral{Value: 1}}},
	}}

	g := Build(body)
	var returnBlock *BasicBlock
	for _, b := range g.Blocks {
		for _, s := range b.Statements {
			if _, ok := s.(*ast.ReturnStatement); ok {
				returnBlock = b
			}
		}
	}
	require.NotNil(t, returnBlock)
	assert.Empty(t, returnBlock.Succs)
}
