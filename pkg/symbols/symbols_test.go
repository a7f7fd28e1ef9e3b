package symbols

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/bcplc/pkg/types"
)

func TestScopedLookupShadowing(t *testing.T) {
	st := NewSymbolTable()
	st.AddSymbol(&Symbol{Name: "x", Kind: GLOBAL_VAR, Type: types.INTEGER})

	st.EnterScope()
	st.AddSymbol(&Symbol{Name: "x", Kind: LOCAL_VAR, Type: types.FLOAT})

	sym, ok := st.Lookup("x")
	require.True(t, ok)
	require.Equal(t, LOCAL_VAR, sym.Kind)

	st.ExitScope()
	sym, ok = st.Lookup("x")
	require.True(t, ok)
	require.Equal(t, GLOBAL_VAR, sym.Kind)
}

func TestExitScopeOnGlobalPanics(t *testing.T) {
	st := NewSymbolTable()
	require.Panics(t, func() { st.ExitScope() })
}

func TestClassTableMemberInheritance(t *testing.T) {
	ct := NewClassTable()
	ct.AddClass(&ClassEntry{
		Name: "Shape",
		MemberVariables: map[string]*MemberVariable{
			"color": {Name: "color", Offset: 8, Type: types.INTEGER},
		},
		MemberMethods:   map[string]*MethodInfo{},
		VtableBlueprint: []string{"Shape::draw"},
	})
	ct.AddClass(&ClassEntry{
		Name:       "Circle",
		ParentName: "Shape",
		MemberVariables: map[string]*MemberVariable{
			"radius": {Name: "radius", Offset: 16, Type: types.FLOAT},
		},
		MemberMethods: map[string]*MethodInfo{
			"Circle::draw": {Name: "draw", QualifiedName: "Circle::draw", VtableSlot: 0, IsVirtual: true},
		},
	})

	mv, owner, ok := ct.ResolveMember("Circle", "color")
	require.True(t, ok)
	require.Equal(t, "Shape", owner)
	require.Equal(t, 8, mv.Offset)

	mv, owner, ok = ct.ResolveMember("Circle", "radius")
	require.True(t, ok)
	require.Equal(t, "Circle", owner)
	require.Equal(t, 16, mv.Offset)

	require.True(t, ct.IsSubclassOf("Circle", "Shape"))
	require.False(t, ct.IsSubclassOf("Shape", "Circle"))

	m, ok := ct.ResolveMethod("Circle", "draw")
	require.True(t, ok)
	require.Equal(t, 0, m.VtableSlot)
}
