package regmgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/bcplc/pkg/config"
	"github.com/GriffinCanCode/bcplc/pkg/frame"
)

func newTestFrame(t *testing.T, slots int) *frame.Manager {
	t.Helper()
	fm := frame.NewManager(config.Default(), "f")
	fm.ReserveSpillArea(slots)
	_, err := fm.GeneratePrologue()
	require.NoError(t, err)
	return fm
}

func TestAcquireForVariableCacheHit(t *testing.T) {
	fm := newTestFrame(t, 4)
	m := NewManager([]string{"X14", "X15"}, fm)

	reg1, hit1, spill1 := m.AcquireForVariable("x")
	assert.False(t, hit1)
	assert.Nil(t, spill1)

	reg2, hit2, spill2 := m.AcquireForVariable("x")
	assert.Equal(t, reg1, reg2)
	assert.True(t, hit2)
	assert.Nil(t, spill2)
}

func TestAcquireForVariableEvictsLRUWithSpill(t *testing.T) {
	fm := newTestFrame(t, 4)
	m := NewManager([]string{"X14", "X15"}, fm)

	r1, _, _ := m.AcquireForVariable("a")
	_, _, _ = m.AcquireForVariable("b")
	m.MarkDirty(r1, true)

	// pool exhausted (2 vars, 2 regs): acquiring a third evicts the LRU ("a").
	_, hit, spill := m.AcquireForVariable("c")
	assert.False(t, hit)
	require.NotNil(t, spill, "evicting a dirty variable must emit a spill store")
	assert.True(t, m.IsSpilled("a"))
}

func TestAcquireForVariableEvictsLRUWithoutSpillWhenClean(t *testing.T) {
	fm := newTestFrame(t, 4)
	m := NewManager([]string{"X14", "X15"}, fm)

	_, _, _ = m.AcquireForVariable("a")
	_, _, _ = m.AcquireForVariable("b")

	_, _, spill := m.AcquireForVariable("c")
	assert.Nil(t, spill, "evicting a clean variable needs no spill store")
}

func TestPinnedRegisterIsExcludedFromFreeAssignment(t *testing.T) {
	fm := newTestFrame(t, 4)
	m := NewManager([]string{"X14", "X15"}, fm)

	m.PinRegister("X14")
	reg, hit, _ := m.AcquireForVariable("a")
	assert.False(t, hit)
	assert.Equal(t, "X15", reg, "findFree must skip a pinned register when assigning a fresh binding")
}

func TestUnpinRegisterReadmitsToAllocation(t *testing.T) {
	fm := newTestFrame(t, 4)
	m := NewManager([]string{"X14"}, fm)

	m.PinRegister("X14")
	assert.True(t, m.IsPinned("X14"))
	m.UnpinRegister("X14")
	assert.False(t, m.IsPinned("X14"))

	reg, hit, _ := m.AcquireForVariable("a")
	assert.False(t, hit)
	assert.Equal(t, "X14", reg)
}

func TestInvalidateCallerSavedRegistersClearsAllBindings(t *testing.T) {
	fm := newTestFrame(t, 4)
	m := NewManager([]string{"X14", "X15"}, fm)
	m.AcquireForVariable("a")
	m.AcquireForVariable("b")

	m.InvalidateCallerSavedRegisters()

	_, hitA, _ := m.AcquireForVariable("a")
	_, hitB, _ := m.AcquireForVariable("b")
	assert.False(t, hitA)
	assert.False(t, hitB)
}

func TestFlushDirtyWritesBackWithoutEvicting(t *testing.T) {
	fm := newTestFrame(t, 4)
	m := NewManager([]string{"X14", "X15"}, fm)
	reg, _, _ := m.AcquireForVariable("a")
	m.MarkDirty(reg, true)

	spills := m.FlushDirty()
	require.Len(t, spills, 1)
	assert.False(t, m.IsDirty(reg), "FlushDirty must clear the dirty bit once written back")

	// binding survives the flush (only InvalidateCallerSavedRegisters drops it)
	_, hit, _ := m.AcquireForVariable("a")
	assert.True(t, hit)
}

func TestReleaseRegisterSeversBindingWithoutSpilling(t *testing.T) {
	fm := newTestFrame(t, 4)
	m := NewManager([]string{"X14", "X15"}, fm)
	reg, _, _ := m.AcquireForVariable("a")
	m.MarkDirty(reg, true)

	m.ReleaseRegister(reg)

	_, hit, _ := m.AcquireForVariable("a")
	assert.False(t, hit, "a's binding must be gone after an explicit release")
}

func TestSlotOffsetUnsetUntilFirstSpill(t *testing.T) {
	fm := newTestFrame(t, 4)
	m := NewManager([]string{"X14", "X15"}, fm)
	_, ok := m.SlotOffset("never-spilled")
	assert.False(t, ok)
}

func TestNewManagerWithSlotBaseKeepsSpillSlotsDisjoint(t *testing.T) {
	fm := newTestFrame(t, 4)
	intMgr := NewManagerWithSlotBase([]string{"X14"}, fm, 0)
	floatMgr := NewManagerWithSlotBase([]string{"D12"}, fm, 2)

	ri, _, _ := intMgr.AcquireForVariable("i")
	intMgr.MarkDirty(ri, true)
	_, _, spillI := intMgr.AcquireForVariable("j") // evicts i, forces its spill slot assignment
	require.NotNil(t, spillI)

	rf, _, _ := floatMgr.AcquireForVariable("f")
	floatMgr.MarkDirty(rf, true)
	_, _, spillF := floatMgr.AcquireForVariable("g")
	require.NotNil(t, spillF)

	offI, okI := intMgr.SlotOffset("i")
	offF, okF := floatMgr.SlotOffset("f")
	require.True(t, okI)
	require.True(t, okF)
	assert.NotEqual(t, offI, offF, "disjoint slot bases must map to disjoint frame offsets")
}
