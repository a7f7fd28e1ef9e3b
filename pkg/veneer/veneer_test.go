package veneer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreshLabelsAreUniqueWithinOneManager(t *testing.T) {
	lm := NewLabelManager()
	a := lm.Fresh()
	b := lm.Fresh()
	assert.NotEqual(t, a, b)
}

func TestFreshLabelsDoNotCollideAcrossManagers(t *testing.T) {
	lm1 := NewLabelManager()
	lm2 := NewLabelManager()
	a := lm1.Fresh()
	b := lm2.Fresh()
	assert.NotEqual(t, a, b, "two compilation units' label counters must not produce colliding names")
}

func TestIsRuntimeFunctionRecognisesKnownSymbols(t *testing.T) {
	lm := NewLabelManager()
	assert.True(t, lm.IsRuntimeFunction("GETVEC"))
	assert.True(t, lm.IsRuntimeFunction("WRITEF"))
	assert.False(t, lm.IsRuntimeFunction("not_a_runtime_symbol"))
}

func TestRecordAndReadOffset(t *testing.T) {
	lm := NewLabelManager()
	label := lm.Fresh()
	_, ok := lm.Offset(label)
	assert.False(t, ok)

	lm.RecordOffset(label, 0x1000)
	off, ok := lm.Offset(label)
	require.True(t, ok)
	assert.Equal(t, 0x1000, off)
}

func TestVeneerLabelNaming(t *testing.T) {
	assert.Equal(t, "GETVEC_veneer", VeneerLabel("GETVEC"))
}

func TestEmitTrampolineRequiresResolvedAddress(t *testing.T) {
	lm := NewLabelManager()
	vm := NewVeneerManager(lm)
	_, err := vm.EmitTrampoline("GETVEC")
	assert.Error(t, err)
}

func TestEmitTrampolinePublishesOnce(t *testing.T) {
	lm := NewLabelManager()
	vm := NewVeneerManager(lm)
	vm.SetSymbolAddress("GETVEC", 0x4000)

	assert.False(t, vm.IsPublished("GETVEC"))
	instrs, err := vm.EmitTrampoline("GETVEC")
	require.NoError(t, err)
	assert.NotEmpty(t, instrs)
	assert.True(t, vm.IsPublished("GETVEC"))

	first := instrs[0]
	assert.True(t, first.IsLabelDefinition)
	assert.Equal(t, VeneerLabel("GETVEC"), first.TargetLabel)
}

func TestResolveCallTargetPrefersVeneerWhenAvailable(t *testing.T) {
	lm := NewLabelManager()
	vm := NewVeneerManager(lm)
	label, loadFromTable, _ := vm.ResolveCallTarget("GETVEC", 0x20, true)
	assert.Equal(t, VeneerLabel("GETVEC"), label)
	assert.False(t, loadFromTable)
}

func TestResolveCallTargetFallsBackToRuntimeTable(t *testing.T) {
	lm := NewLabelManager()
	vm := NewVeneerManager(lm)
	label, loadFromTable, offset := vm.ResolveCallTarget("GETVEC", 0x20, false)
	assert.Empty(t, label)
	assert.True(t, loadFromTable)
	assert.Equal(t, 0x20, offset)
}
