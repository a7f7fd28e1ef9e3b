// Package symbols implements the lexical-scope symbol table, the
// class table, and the per-function metrics record that the analyser
// (pkg/analysis) populates and the code generator (pkg/codegen)
// consumes read-only.
//
// Design: plain structs behind a small map-of-maps scope stack, in
// the spirit of the teacher's ir package — data first, behavior
// second, no interfaces where a struct suffices.
package symbols

import "github.com/GriffinCanCode/bcplc/pkg/types"

// SymbolKind distinguishes the role a name plays in a scope.
type SymbolKind int

const (
	LOCAL_VAR SymbolKind = iota
	PARAMETER
	GLOBAL_VAR
	FUNCTION
	ROUTINE
	MANIFEST
	LABEL
)

func (k SymbolKind) String() string {
	switch k {
	case LOCAL_VAR:
		return "LOCAL_VAR"
	case PARAMETER:
		return "PARAMETER"
	case GLOBAL_VAR:
		return "GLOBAL_VAR"
	case FUNCTION:
		return "FUNCTION"
	case ROUTINE:
		return "ROUTINE"
	case MANIFEST:
		return "MANIFEST"
	case LABEL:
		return "LABEL"
	default:
		return "UNKNOWN"
	}
}

// Symbol is a single name binding, as described in spec §3.
type Symbol struct {
	Name            string
	Kind            SymbolKind
	Type            types.VarType
	ScopeLevel      int
	OwningFunction  string // empty for globals
	Location        int    // stack-offset index or data-section index
	ClassName       string // set for `_this` parameters
	OwnsHeapMemory  bool
	Parameters      []Parameter // for FUNCTION/ROUTINE symbols
}

// Parameter names and types a function's formal parameter.
type Parameter struct {
	Name string
	Type types.VarType
}

// FunctionMetrics is produced by the AST analyser, one per function
// name, and consumed read-only downstream (spec §3).
type FunctionMetrics struct {
	Name                  string
	NumParameters         int
	NumIntegerLocals      int
	NumFloatLocals        int
	ParamIndex            map[string]int
	VarTypes              map[string]types.VarType
	AccessesGlobals       bool
	HasVectorAllocations  bool
	PerformsHeapAllocation bool
	IsLeaf                bool
	IsTrivialAccessor     bool
	IsTrivialSetter       bool
	AccessedMemberName    string
	MaxLiveVariables      int
	RequiredCalleeSavedTemps int
	RequiredCalleeSavedRegs map[string]bool
	CallSiteInstructionIdx []int
	Callees               map[string]bool
}

// NewFunctionMetrics returns a zero-value FunctionMetrics with its
// maps initialised, ready for the analyser to fill in.
func NewFunctionMetrics(name string) *FunctionMetrics {
	return &FunctionMetrics{
		Name:                   name,
		ParamIndex:             make(map[string]int),
		VarTypes:               make(map[string]types.VarType),
		RequiredCalleeSavedRegs: make(map[string]bool),
		Callees:                make(map[string]bool),
	}
}

// SymbolTable implements lexical scoping: a stack of name->Symbol
// maps. enterScope pushes, exitScope pops; lookup walks from the
// innermost scope outward.
type SymbolTable struct {
	scopes []map[string]*Symbol
}

// NewSymbolTable returns a table with a single (global) scope open.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{scopes: []map[string]*Symbol{make(map[string]*Symbol)}}
}

// EnterScope pushes a new, empty lexical scope.
func (t *SymbolTable) EnterScope() {
	t.scopes = append(t.scopes, make(map[string]*Symbol))
}

// ExitScope pops the innermost lexical scope. Calling this on the
// global scope is a bug in the caller and panics.
func (t *SymbolTable) ExitScope() {
	if len(t.scopes) <= 1 {
		panic("symbols: ExitScope called with no scope to pop")
	}
	t.scopes = t.scopes[:len(t.scopes)-1]
}

// CurrentScopeLevel returns 0 for the global scope, increasing with
// nesting depth.
func (t *SymbolTable) CurrentScopeLevel() int { return len(t.scopes) - 1 }

// AddSymbol binds name in the current scope.
func (t *SymbolTable) AddSymbol(s *Symbol) {
	s.ScopeLevel = t.CurrentScopeLevel()
	t.scopes[len(t.scopes)-1][s.Name] = s
}

// UpdateSymbol mutates an existing binding in place via fn; it is a
// no-op if name is unbound anywhere in scope.
func (t *SymbolTable) UpdateSymbol(name string, fn func(*Symbol)) {
	if s, ok := t.Lookup(name); ok {
		fn(s)
	}
}

// Lookup searches from the innermost scope outward.
func (t *SymbolTable) Lookup(name string) (*Symbol, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if s, ok := t.scopes[i][name]; ok {
			return s, true
		}
	}
	return nil, false
}

// LookupAtScope looks up name starting at a specific scope level and
// walking outward from there (used when resolving a name as it was
// visible at a recorded scope level rather than the current one).
func (t *SymbolTable) LookupAtScope(name string, level int) (*Symbol, bool) {
	if level >= len(t.scopes) {
		level = len(t.scopes) - 1
	}
	for i := level; i >= 0; i-- {
		if s, ok := t.scopes[i][name]; ok {
			return s, true
		}
	}
	return nil, false
}

// GetSymbolsInScope returns every symbol bound directly in the scope
// at the given level (not walking outward). The code generator does
// not call it and has no end-of-block cleanup sweep.
func (t *SymbolTable) GetSymbolsInScope(level int) []*Symbol {
	if level < 0 || level >= len(t.scopes) {
		return nil
	}
	out := make([]*Symbol, 0, len(t.scopes[level]))
	for _, s := range t.scopes[level] {
		out = append(out, s)
	}
	return out
}

// Visibility controls cross-class member access.
type Visibility int

const (
	Public Visibility = iota
	Private
	Protected
)

// MemberVariable describes one field of a class's instance layout.
type MemberVariable struct {
	Name       string
	Offset     int
	Type       types.VarType
	Visibility Visibility
}

// MethodInfo describes one entry in a class's method table.
type MethodInfo struct {
	Name          string
	QualifiedName string // "ClassName::method"
	VtableSlot    int
	IsVirtual     bool
	IsFinal       bool
	Parameters    []Parameter
	ReturnType    types.VarType
}

// ClassEntry is one class's compile-time layout description.
type ClassEntry struct {
	Name             string
	ParentName       string // empty for a root class
	MemberVariables  map[string]*MemberVariable
	MemberMethods    map[string]*MethodInfo // keyed by qualified name
	VtableBlueprint  []string               // ordered qualified-names, slot = index
}

// ClassTable maps class name to its ClassEntry.
type ClassTable struct {
	classes map[string]*ClassEntry
}

// NewClassTable returns an empty class table.
func NewClassTable() *ClassTable {
	return &ClassTable{classes: make(map[string]*ClassEntry)}
}

// AddClass registers a class entry.
func (c *ClassTable) AddClass(e *ClassEntry) { c.classes[e.Name] = e }

// GetClass looks up a class by name.
func (c *ClassTable) GetClass(name string) (*ClassEntry, bool) {
	e, ok := c.classes[name]
	return e, ok
}

// ResolveMember walks the parent chain to find a member variable,
// returning the owning class name alongside it (the offset is
// relative to that class's layout, which by construction is a prefix
// of every subclass's layout).
func (c *ClassTable) ResolveMember(className, memberName string) (*MemberVariable, string, bool) {
	for cls := className; cls != ""; {
		entry, ok := c.classes[cls]
		if !ok {
			return nil, "", false
		}
		if mv, ok := entry.MemberVariables[memberName]; ok {
			return mv, cls, true
		}
		cls = entry.ParentName
	}
	return nil, "", false
}

// ResolveMethod walks the parent chain to find a method by bare name,
// returning its MethodInfo (qualified to the class that defines it).
func (c *ClassTable) ResolveMethod(className, methodName string) (*MethodInfo, bool) {
	for cls := className; cls != ""; {
		entry, ok := c.classes[cls]
		if !ok {
			return nil, false
		}
		for _, m := range entry.MemberMethods {
			if m.Name == methodName {
				return m, true
			}
		}
		cls = entry.ParentName
	}
	return nil, false
}

// IsSubclassOf reports whether className is cand or a (possibly
// transitive) subclass of cand.
func (c *ClassTable) IsSubclassOf(className, cand string) bool {
	for cls := className; cls != ""; {
		if cls == cand {
			return true
		}
		entry, ok := c.classes[cls]
		if !ok {
			return false
		}
		cls = entry.ParentName
	}
	return false
}
