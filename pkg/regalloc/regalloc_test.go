package regalloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPoolHasNoOverlap(t *testing.T) {
	pool := DefaultPool()
	seen := map[string]bool{}
	for _, lists := range [][]string{pool.CallerSavedInt, pool.CalleeSavedInt, pool.CallerSavedFloat, pool.CalleeSavedFloat} {
		for _, r := range lists {
			require.False(t, seen[r], "register %s listed in more than one pool", r)
			seen[r] = true
		}
	}
}

func TestAllocateAssignsDisjointRegistersToNonOverlappingIntervals(t *testing.T) {
	a := NewAllocator(DefaultPool())
	intervals := []*LiveInterval{
		{Name: "a", Start: 0, End: 5, SpillSlot: -1},
		{Name: "b", Start: 6, End: 10, SpillSlot: -1},
	}
	a.Allocate(intervals)

	require.NotEmpty(t, intervals[0].Reg)
	require.NotEmpty(t, intervals[1].Reg)
	assert.False(t, intervals[0].Spilled)
	assert.False(t, intervals[1].Spilled)
}

func TestAllocateReusesRegisterAfterIntervalExpires(t *testing.T) {
	pool := Pool{CallerSavedInt: []string{"X9"}}
	a := NewAllocator(pool)
	intervals := []*LiveInterval{
		{Name: "a", Start: 0, End: 5, SpillSlot: -1},
		{Name: "b", Start: 6, End: 10, SpillSlot: -1},
	}
	a.Allocate(intervals)

	require.Equal(t, "X9", intervals[0].Reg)
	require.Equal(t, "X9", intervals[1].Reg, "b starts after a's interval ends, so it should reuse X9 rather than spill")
	assert.False(t, intervals[1].Spilled)
}

func TestAllocateSpillsWhenPoolExhausted(t *testing.T) {
	pool := Pool{CallerSavedInt: []string{"X9"}}
	a := NewAllocator(pool)
	intervals := []*LiveInterval{
		{Name: "a", Start: 0, End: 10, SpillSlot: -1},
		{Name: "b", Start: 1, End: 5, SpillSlot: -1},
	}
	a.Allocate(intervals)

	spilledCount := 0
	for _, iv := range intervals {
		if iv.Spilled {
			spilledCount++
		}
	}
	assert.Equal(t, 1, spilledCount, "exactly one of two overlapping intervals must spill with only one register available")
	assert.Equal(t, 1, a.SpillSlotCount())
}

func TestAllocatePrefersCalleeSavedForIntervalsCrossingCalls(t *testing.T) {
	pool := Pool{
		CallerSavedInt: []string{"X9"},
		CalleeSavedInt: []string{"X19"},
	}
	a := NewAllocator(pool)
	intervals := []*LiveInterval{
		{Name: "a", Start: 0, End: 10, SpillSlot: -1, CallSites: []int{5}},
	}
	a.Allocate(intervals)
	assert.Equal(t, "X19", intervals[0].Reg, "an interval spanning a call site should prefer a callee-saved register")
}

func TestAllocateKeepsFloatAndIntPoolsSeparate(t *testing.T) {
	pool := Pool{
		CallerSavedInt:   []string{"X9"},
		CallerSavedFloat: []string{"D0"},
	}
	a := NewAllocator(pool)
	intervals := []*LiveInterval{
		{Name: "i", Start: 0, End: 5, IsFloat: false, SpillSlot: -1},
		{Name: "f", Start: 0, End: 5, IsFloat: true, SpillSlot: -1},
	}
	a.Allocate(intervals)
	assert.Equal(t, "X9", intervals[0].Reg)
	assert.Equal(t, "D0", intervals[1].Reg)
}
