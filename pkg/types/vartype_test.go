package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompositeTypeEquality(t *testing.T) {
	a := POINTER_TO | LIST | INTEGER
	b := POINTER_TO | LIST | INTEGER
	require.Equal(t, a, b)
	require.NotEqual(t, a, POINTER_TO|LIST|FLOAT)
}

func TestSizeScalarsAndVectors(t *testing.T) {
	require.Equal(t, 8, INTEGER.Size())
	require.Equal(t, 8, FLOAT.Size())
	require.Equal(t, 8, (PAIR | INTEGER).Size())
	require.Equal(t, 8, (QUAD | INTEGER).Size())
	require.Equal(t, 32, (FOCT | FLOAT).Size())
}

func TestLanesAndWidth(t *testing.T) {
	cases := []struct {
		t     VarType
		lanes int
		width int
	}{
		{PAIR | INTEGER, 2, 32},
		{FPAIR | FLOAT, 2, 32},
		{QUAD | INTEGER, 4, 16},
		{OCT | INTEGER, 8, 8},
		{FOCT | FLOAT, 8, 32},
		{INTEGER, 1, 64},
	}
	for _, c := range cases {
		require.Equal(t, c.lanes, c.t.Lanes(), "lanes for %s", c.t)
		require.Equal(t, c.width, c.t.LaneWidthBits(), "width for %s", c.t)
	}
}

func TestIsFloatPreservesSIMDTag(t *testing.T) {
	require.True(t, (FPAIR | FLOAT).IsFloat())
	require.True(t, (FOCT | FLOAT).IsFloat())
	require.False(t, (PAIR | INTEGER).IsFloat())
}

func TestPointerToIntList(t *testing.T) {
	pil := PointerToIntList()
	require.True(t, pil.Has(POINTER_TO))
	require.True(t, pil.Has(LIST))
	require.True(t, pil.Has(INTEGER))
}
