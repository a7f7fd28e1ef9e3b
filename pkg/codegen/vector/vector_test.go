package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/bcplc/pkg/config"
	"github.com/GriffinCanCode/bcplc/pkg/types"
)

func TestAddRejectsNonVectorType(t *testing.T) {
	_, err := Add(config.Default(), types.INTEGER, "V0", "V1", "V2")
	assert.Error(t, err)
}

func TestAddRejectsHeapVectorDirectly(t *testing.T) {
	_, err := Add(config.Default(), types.POINTER_TO|types.PAIRS, "V0", "V1", "V2")
	assert.Error(t, err)
}

func TestAddUsesNeonEncodingWhenEnabled(t *testing.T) {
	cfg := config.Default()
	cfg.UseNEON = true
	instrs, err := Add(cfg, types.INTEGER|types.PAIR, "V0", "V1", "V2")
	require.NoError(t, err)
	require.Len(t, instrs, 1)
	assert.Equal(t, "vec.add", instrs[0].SemanticOp)
	assert.NotZero(t, instrs[0].Encoding)
}

func TestAddFallsBackToScalarWhenNeonDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.UseNEON = false
	instrs, err := Add(cfg, types.INTEGER|types.PAIR, "X0", "X1", "X2")
	require.NoError(t, err)
	assert.Greater(t, len(instrs), 1, "scalar fallback must expand into a per-lane instruction sequence")
}

func TestAddWithNoNEONFallbackForbiddenErrors(t *testing.T) {
	cfg := config.Default()
	cfg.UseNEON = false
	cfg.NoNEONFallback = true
	_, err := Add(cfg, types.INTEGER|types.PAIR, "X0", "X1", "X2")
	assert.Error(t, err)
}

func TestDivAlwaysUsesScalarPathEvenWithNeonEnabled(t *testing.T) {
	cfg := config.Default()
	cfg.UseNEON = true
	instrs, err := Div(types.FLOAT|types.FPAIR, "X0", "X1", "X2")
	require.NoError(t, err)
	assert.NotEmpty(t, instrs, "NEON has no vector FDIV, so Div must always take the scalar lane loop")
}

func TestDivRejectsIntegerVector(t *testing.T) {
	_, err := Div(types.INTEGER|types.PAIR, "X0", "X1", "X2")
	assert.Error(t, err)
}

func TestReadLaneRejectsOutOfRangeIndex(t *testing.T) {
	_, err := ReadLane(types.INTEGER|types.PAIR, "X0", "V1", 5)
	assert.Error(t, err)
}

func TestReadLaneIntegerUsesSignedBitfieldExtract(t *testing.T) {
	instrs, err := ReadLane(types.INTEGER|types.PAIR, "X0", "V1", 0)
	require.NoError(t, err)
	require.Len(t, instrs, 1)
	assert.Equal(t, "sbfx", instrs[0].SemanticOp)
}

func TestWriteLaneRejectsOutOfRangeIndex(t *testing.T) {
	_, err := WriteLane(types.INTEGER|types.PAIR, "V0", "X1", -1)
	assert.Error(t, err)
}

func TestDupRejectsUnsupportedVectorForm(t *testing.T) {
	_, err := Dup(types.FLOAT|types.FOCT, "V0", "X1")
	assert.Error(t, err)
}

func TestDupBroadcastsIntoPairLanes(t *testing.T) {
	i, err := Dup(types.INTEGER|types.PAIR, "V0", "X1")
	require.NoError(t, err)
	assert.Equal(t, "dup", i.SemanticOp)
}

func TestHeapArithIntegerOps(t *testing.T) {
	for _, op := range []string{"add", "sub", "mul"} {
		out := HeapArith(false, "X0", "X1", "X2", op)
		assert.Len(t, out, 1, "op %s", op)
	}
}

func TestHeapArithFloatOps(t *testing.T) {
	for _, op := range []string{"add", "sub", "mul", "div"} {
		out := HeapArith(true, "D0", "D1", "D2", op)
		assert.Len(t, out, 1, "op %s", op)
	}
}

func TestHeapArithUnknownOpReturnsNil(t *testing.T) {
	out := HeapArith(false, "X0", "X1", "X2", "xor")
	assert.Nil(t, out)
}
