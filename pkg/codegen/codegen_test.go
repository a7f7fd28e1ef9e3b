package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/bcplc/internal/testutil"
	"github.com/GriffinCanCode/bcplc/pkg/ast"
	"github.com/GriffinCanCode/bcplc/pkg/ccerrors"
	"github.com/GriffinCanCode/bcplc/pkg/codegen/arm64"
	"github.com/GriffinCanCode/bcplc/pkg/config"
	"github.com/GriffinCanCode/bcplc/pkg/symbols"
)

func newGenerator(cfg config.Config) *Generator {
	return New(cfg, symbols.NewSymbolTable(), symbols.NewClassTable(), map[string]*symbols.FunctionMetrics{}, &ccerrors.Diagnostics{})
}

func TestMangledNameIncludesClassOnlyWhenPresent(t *testing.T) {
	assert.Equal(t, "foo", mangledName("", "foo"))
	assert.Equal(t, "Shape::draw", mangledName("Shape", "draw"))
}

func TestAsBlockWrapsBareStatement(t *testing.T) {
	s := &ast.ReturnStatement{}
	b := asBlock(s)
	require.Len(t, b.Statements, 1)
	assert.Same(t, s, b.Statements[0])
}

func TestAsBlockPassesThroughExistingBlock(t *testing.T) {
	b := &ast.BlockStatement{Statements: []ast.Statement{&ast.ReturnStatement{}}}
	out := asBlock(b)
	assert.Same(t, b, out)
}

func TestPromotionPoolExcludesCacheAndScratchRegisters(t *testing.T) {
	pool := promotionPool()
	reserved := map[string]bool{
		"X12": true, "X13": true, "X14": true, "X15": true, "X19": true,
		"D9": true, "D10": true, "D11": true, "D12": true, "D13": true,
	}
	for _, r := range pool.CalleeSavedInt {
		assert.False(t, reserved[r], "promotion pool must not claim a cache/scratch register: %s", r)
	}
	for _, r := range pool.CalleeSavedFloat {
		assert.False(t, reserved[r], "promotion pool must not claim a cache/scratch register: %s", r)
	}
}

func TestGenerateFunctionLikeEmitsPrologueAndEpilogue(t *testing.T) {
	g := newGenerator(config.Default())
	prog := testutil.SquareProgram()
	fn := prog.Functions[0]

	stream, err := g.GenerateFunctionLike(fn.Name, fn.ClassName, fn.Parameters, fn.Body, fn.ReturnType, true)
	require.NoError(t, err)
	require.NotNil(t, stream)

	instrs := stream.Instructions()
	require.NotEmpty(t, instrs)

	foundRet := false
	for _, ins := range instrs {
		if ins.SemanticOp == "ret" {
			foundRet = true
		}
	}
	assert.True(t, foundRet, "every compiled function must end in a RET")
}

func TestGenerateProgramCompilesEveryFunction(t *testing.T) {
	g := newGenerator(config.Default())
	compiled, err := g.GenerateProgram(testutil.SquareProgram())
	require.NoError(t, err)
	require.Len(t, compiled, 1)
	assert.Equal(t, "square", compiled[0].Name)
	assert.Greater(t, compiled[0].Stream.Len(), 0)
}

func TestGenerateProgramHandlesControlFlow(t *testing.T) {
	g := newGenerator(config.Default())
	compiled, err := g.GenerateProgram(testutil.CountdownProgram())
	require.NoError(t, err)
	require.Len(t, compiled, 1)
	assert.Equal(t, "sumTo", compiled[0].Name)
	assert.Greater(t, compiled[0].Stream.Len(), 0)
}

func TestGenerateProgramMethodNamesAreMangledWithClass(t *testing.T) {
	g := newGenerator(config.Default())
	prog := &ast.Program{
		Classes: []*ast.ClassDeclaration{{
			Name: "Shape",
			Methods: []*ast.FunctionDeclaration{{
				Name:       "area",
				ClassName:  "Shape",
				ReturnType: 0,
				Body:       &ast.ResultisStatement{Value: &ast.NumberLiteral{Value: 0}},
			}},
		}},
	}
	compiled, err := g.GenerateProgram(prog)
	require.NoError(t, err)
	require.Len(t, compiled, 1)
	assert.Equal(t, "Shape::area", compiled[0].Name)
}

func TestGenerateFunctionLikeResultingStreamPassesValidation(t *testing.T) {
	g := newGenerator(config.Default())
	prog := testutil.CountdownProgram()
	fn := prog.Functions[0]

	stream, err := g.GenerateFunctionLike(fn.Name, fn.ClassName, fn.Parameters, fn.Body, fn.ReturnType, true)
	require.NoError(t, err)

	// GenerateFunctionLike already runs arm64.ValidateStream internally
	// before returning; a second independent pass here just confirms
	// the peephole-optimized stream it hands back stays self-consistent.
	instrs := stream.Instructions()
	require.NotEmpty(t, instrs)
	require.NoError(t, arm64.ValidateStream(instrs))
}
