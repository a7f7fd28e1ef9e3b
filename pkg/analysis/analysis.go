// Package analysis implements the AST analyser (spec §4.1, component
// B): function discovery, type propagation into the symbol table,
// per-function metrics, FOR-loop variable uniquification, the
// SELF->_this rewrite, WRITEF format validation, and call-graph-wide
// heap-allocation propagation.
//
// Design: grounded on the teacher's original ASTAnalyzer (a single
// stateful visitor over the whole program, run once per compilation),
// ported from az_impl/az_analyze.cpp's two-pass shape (discover, then
// walk) into a single Go struct with explicit pointer-threaded
// rewrites in place of the original's mutate-through-accept() visitor
// dispatch — the same pattern pkg/supercall already uses for AST
// rewrites that must survive into later passes.
package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/bcplc/pkg/ast"
	"github.com/GriffinCanCode/bcplc/pkg/ccerrors"
	"github.com/GriffinCanCode/bcplc/pkg/symbols"
	"github.com/GriffinCanCode/bcplc/pkg/types"
)

// Analyzer carries the state of one analysis pass over a Program. A
// fresh Analyzer must be constructed per compilation unit; it is not
// safe to reuse across programs (mirrors az_reset_state.cpp's
// justification for a dedicated reset rather than relying on a
// default-constructed instance).
type Analyzer struct {
	st    *symbols.SymbolTable
	ct    *symbols.ClassTable
	diags *ccerrors.Diagnostics

	metrics map[string]*symbols.FunctionMetrics

	globals map[string]bool // names bound by a GlobalDeclaration anywhere in the program

	currentFunctionScope string
	currentClassName     string

	forLoopCounter  int
	forAliases      map[string]string   // original loop-var name -> unique name, persists for the whole function
	activeForScopes []map[string]string // stack of {original -> unique}, innermost last

	localFunctionNames map[string]bool
	localRoutineNames  map[string]bool
	floatFunctionNames map[string]bool
}

// New returns an analyzer that will populate st/ct and record
// diagnostics into diags.
func New(st *symbols.SymbolTable, ct *symbols.ClassTable, diags *ccerrors.Diagnostics) *Analyzer {
	return &Analyzer{
		st:                 st,
		ct:                 ct,
		diags:              diags,
		metrics:            map[string]*symbols.FunctionMetrics{},
		globals:            map[string]bool{},
		forAliases:         map[string]string{},
		localFunctionNames: map[string]bool{},
		localRoutineNames:  map[string]bool{},
		floatFunctionNames: map[string]bool{},
	}
}

// Analyze runs the full pass over prog: function discovery, type
// propagation, metrics, FOR-loop renaming, SELF rewriting, WRITEF
// validation, and call-graph heap-allocation propagation. Returns the
// per-function metrics map, keyed by mangled name for methods
// ("Class::method") and bare name otherwise (spec §4.1, §3).
func (a *Analyzer) Analyze(prog *ast.Program) map[string]*symbols.FunctionMetrics {
	a.discoverGlobals(prog)
	a.discoverFunctions(prog)

	for _, fn := range prog.Functions {
		a.analyzeFunctionLike(fn.Name, fn.ClassName, fn.Parameters, fn.Body, true)
	}
	for _, rt := range prog.Routines {
		a.analyzeFunctionLike(rt.Name, rt.ClassName, rt.Parameters, rt.Body, false)
	}
	for _, cls := range prog.Classes {
		for _, m := range cls.Methods {
			a.analyzeFunctionLike(m.Name, cls.Name, m.Parameters, m.Body, true)
		}
		for _, r := range cls.Routines {
			a.analyzeFunctionLike(r.Name, cls.Name, r.Parameters, r.Body, false)
		}
	}

	a.propagateHeapAllocation()
	return a.metrics
}

func mangle(className, name string) string {
	if className == "" {
		return name
	}
	return className + "::" + name
}

func (a *Analyzer) discoverGlobals(prog *ast.Program) {
	for _, g := range prog.Globals {
		for _, n := range g.Names {
			a.globals[n] = true
		}
	}
}

// discoverFunctions pre-registers every function/routine/method so
// that forward references and call-site recording can resolve a
// callee name before that callee's own body has been visited (spec
// §4.1; ported from az_process_class_methods.cpp's
// "always initialize metrics for the method" guarantee, extended to
// free functions and routines too).
func (a *Analyzer) discoverFunctions(prog *ast.Program) {
	for _, fn := range prog.Functions {
		name := mangle(fn.ClassName, fn.Name)
		a.localFunctionNames[name] = true
		if fn.ReturnType.IsFloat() {
			a.floatFunctionNames[name] = true
		}
		a.metrics[name] = symbols.NewFunctionMetrics(name)
	}
	for _, rt := range prog.Routines {
		name := mangle(rt.ClassName, rt.Name)
		a.localRoutineNames[name] = true
		a.metrics[name] = symbols.NewFunctionMetrics(name)
	}
	for _, cls := range prog.Classes {
		for _, m := range cls.Methods {
			name := mangle(cls.Name, m.Name)
			a.localFunctionNames[name] = true
			if m.ReturnType.IsFloat() {
				a.floatFunctionNames[name] = true
			}
			a.metrics[name] = symbols.NewFunctionMetrics(name)
		}
		for _, r := range cls.Routines {
			name := mangle(cls.Name, r.Name)
			a.localRoutineNames[name] = true
			a.metrics[name] = symbols.NewFunctionMetrics(name)
		}
	}
}

// analyzeFunctionLike visits one function/routine/method body,
// injecting the implicit _this parameter for methods (spec §4.2) and
// resetting the per-function FOR-loop state (az_visit_FunctionDeclaration.cpp's
// "reset FOR loop state for the new function scope" fix).
func (a *Analyzer) analyzeFunctionLike(name, className string, params []*ast.ParamDecl, body ast.Statement, isLeafCandidate bool) {
	mangled := mangle(className, name)
	m := a.metrics[mangled]
	if m == nil {
		m = symbols.NewFunctionMetrics(mangled)
		a.metrics[mangled] = m
	}
	m.IsLeaf = true // provisionally; any call site encountered below flips this false

	previousScope, previousClass := a.currentFunctionScope, a.currentClassName
	a.currentFunctionScope = mangled
	a.currentClassName = className
	a.forAliases = map[string]string{}
	a.activeForScopes = nil

	a.st.EnterScope()

	effectiveParams := params
	if className != "" {
		hasThis := false
		for _, p := range params {
			if p.Name == "_this" {
				hasThis = true
				break
			}
		}
		if !hasThis {
			thisParam := &ast.ParamDecl{Name: "_this", Type: types.OBJECT}
			effectiveParams = append([]*ast.ParamDecl{thisParam}, params...)
		}
	}

	m.NumParameters = len(effectiveParams)
	for i, p := range effectiveParams {
		m.ParamIndex[p.Name] = i
		pt := p.Type
		if p.Name == "_this" && className != "" {
			pt = types.OBJECT
		}
		m.VarTypes[p.Name] = pt
		sym := &symbols.Symbol{Name: p.Name, Kind: symbols.PARAMETER, Type: pt, OwningFunction: mangled}
		if p.Name == "_this" {
			sym.ClassName = className
		}
		a.st.AddSymbol(sym)
	}

	a.walkStatement(body, m)

	if className != "" && m.IsLeaf {
		if member, ok := a.identifyTrivialAccessor(body); ok {
			m.IsTrivialAccessor = true
			m.AccessedMemberName = member
		} else if member, ok := a.identifyTrivialSetter(body, effectiveParams); ok {
			m.IsTrivialSetter = true
			m.AccessedMemberName = member
		}
	}

	a.st.ExitScope()
	a.currentFunctionScope, a.currentClassName = previousScope, previousClass
}

// identifyTrivialAccessor recognises a method body that is exactly
// `= _this.member` (spec §4.1 trivial-accessor optimization hook).
func (a *Analyzer) identifyTrivialAccessor(body ast.Statement) (string, bool) {
	stmt := singleStatement(body)
	rs, ok := stmt.(*ast.ResultisStatement)
	if !ok {
		return "", false
	}
	ma, ok := rs.Value.(*ast.MemberAccessExpression)
	if !ok {
		return "", false
	}
	va, ok := ma.Object.(*ast.VariableAccess)
	if !ok || va.Name != "_this" {
		return "", false
	}
	return ma.Member, true
}

// identifyTrivialSetter recognises a routine body that is exactly
// `_this.member := p` where p is the method's sole non-_this
// parameter.
func (a *Analyzer) identifyTrivialSetter(body ast.Statement, params []*ast.ParamDecl) (string, bool) {
	if len(params) != 2 { // _this + one value parameter
		return "", false
	}
	valueParam := params[1].Name
	stmt := singleStatement(body)
	as, ok := stmt.(*ast.AssignmentStatement)
	if !ok || len(as.LHS) != 1 || len(as.RHS) != 1 {
		return "", false
	}
	ma, ok := as.LHS[0].(*ast.MemberAccessExpression)
	if !ok {
		return "", false
	}
	va, ok := ma.Object.(*ast.VariableAccess)
	if !ok || va.Name != "_this" {
		return "", false
	}
	rhs, ok := as.RHS[0].(*ast.VariableAccess)
	if !ok || rhs.Name != valueParam {
		return "", false
	}
	return ma.Member, true
}

// singleStatement unwraps a BlockStatement/CompoundStatement holding
// exactly one inner statement, returning stmt unchanged otherwise.
func singleStatement(stmt ast.Statement) ast.Statement {
	switch s := stmt.(type) {
	case *ast.BlockStatement:
		if len(s.Statements) == 1 {
			return singleStatement(s.Statements[0])
		}
	case *ast.CompoundStatement:
		if len(s.Statements) == 1 {
			return singleStatement(s.Statements[0])
		}
	}
	return stmt
}

// walkStatement recurses through a statement, updating m in place and
// rewriting SELF/FOR-loop-variable references as it goes.
func (a *Analyzer) walkStatement(stmt ast.Statement, m *symbols.FunctionMetrics) {
	if stmt == nil {
		return
	}
	switch s := stmt.(type) {
	case *ast.BlockStatement:
		for _, inner := range s.Statements {
			a.walkStatement(inner, m)
		}
	case *ast.CompoundStatement:
		for _, inner := range s.Statements {
			a.walkStatement(inner, m)
		}
	case *ast.LetDeclaration:
		for i, init := range s.Initializers {
			a.walkExpr(&s.Initializers[i], m)
			if i < len(s.Types) {
				m.VarTypes[s.Names[i]] = s.Types[i]
			}
			_ = init
		}
		if m.Name != "" {
			m.NumIntegerLocals += len(s.Names)
		}
	case *ast.AssignmentStatement:
		for i := range s.LHS {
			a.walkExpr(&s.LHS[i], m)
		}
		for i := range s.RHS {
			a.walkExpr(&s.RHS[i], m)
		}
	case *ast.IfStatement:
		a.walkExpr(&s.Condition, m)
		a.walkStatement(s.Then, m)
	case *ast.UnlessStatement:
		a.walkExpr(&s.Condition, m)
		a.walkStatement(s.Then, m)
	case *ast.TestStatement:
		a.walkExpr(&s.Condition, m)
		a.walkStatement(s.Then, m)
		a.walkStatement(s.Else, m)
	case *ast.WhileStatement:
		a.walkExpr(&s.Condition, m)
		a.walkStatement(s.Body, m)
	case *ast.UntilStatement:
		a.walkExpr(&s.Condition, m)
		a.walkStatement(s.Body, m)
	case *ast.RepeatStatement:
		a.walkStatement(s.Body, m)
		if s.Condition != nil {
			a.walkExpr(&s.Condition, m)
		}
	case *ast.ForStatement:
		a.walkForStatement(s, m)
	case *ast.SwitchonStatement:
		a.walkExpr(&s.Selector, m)
		for _, c := range s.Cases {
			a.walkStatement(c.Body, m)
		}
		if s.Default != nil {
			a.walkStatement(s.Default.Body, m)
		}
	case *ast.ResultisStatement:
		if s.Value != nil {
			a.walkExpr(&s.Value, m)
		}
	case *ast.RoutineCallStatement:
		a.walkExpr(&s.Callee, m)
		for i := range s.Args {
			a.walkExpr(&s.Args[i], m)
		}
		m.IsLeaf = false
		a.recordCallSite(s.Callee, m)
	case *ast.FreeStatement:
		a.walkExpr(&s.Target, m)
	case *ast.StringStatement:
		a.validateWritef(s, m)
		for i := range s.Args {
			a.walkExpr(&s.Args[i], m)
		}
	case *ast.SyscallStatement:
		for i := range s.Args {
			a.walkExpr(&s.Args[i], m)
		}
	}
}

// walkForStatement implements the FOR-loop variable uniquification
// algorithm ported from az_visit_ForStatement.cpp: a persistent
// original-name -> unique-name alias, an active-scope stack so nested
// `FOR I` shadows an outer `FOR I` only within its own body, and
// skip-the-backing-variable when End/Step are themselves already
// constant (spec §4.1 edge case).
func (a *Analyzer) walkForStatement(s *ast.ForStatement, m *symbols.FunctionMetrics) {
	unique := s.LoopVar + "_for_var_" + strconv.Itoa(a.forLoopCounter)
	a.forLoopCounter++
	if _, seen := a.forAliases[s.LoopVar]; !seen {
		a.forAliases[s.LoopVar] = unique
	}
	if a.currentFunctionScope != "" {
		m.VarTypes[unique] = types.INTEGER
		m.NumIntegerLocals++
	}
	s.UniqueVarName = unique
	a.st.AddSymbol(&symbols.Symbol{Name: unique, Kind: symbols.LOCAL_VAR, Type: types.INTEGER, OwningFunction: a.currentFunctionScope})

	endVal, endIsConst := evalConstExpr(s.End)
	s.IsEndConstant = endIsConst
	s.ConstantEnd = endVal

	stepIsConst := true
	var stepVal int64 = 1
	if s.Step != nil {
		stepVal, stepIsConst = evalConstExpr(s.Step)
	}
	s.IsStepConstant = stepIsConst
	s.ConstantStep = stepVal

	instanceSuffix := strconv.Itoa(a.forLoopCounter)
	if !stepIsConst {
		s.UniqueStepVarName = unique + "_step_inst_" + instanceSuffix
		m.VarTypes[s.UniqueStepVarName] = types.INTEGER
		m.NumIntegerLocals++
	} else {
		s.UniqueStepVarName = ""
	}
	if !endIsConst {
		s.UniqueEndVarName = unique + "_end_inst_" + instanceSuffix
		m.VarTypes[s.UniqueEndVarName] = types.INTEGER
		m.NumIntegerLocals++
	} else {
		s.UniqueEndVarName = ""
	}

	a.activeForScopes = append(a.activeForScopes, map[string]string{s.LoopVar: unique})

	a.walkExpr(&s.Start, m)
	if s.End != nil && !endIsConst {
		a.walkExpr(&s.End, m)
	}
	if s.Step != nil && !stepIsConst {
		a.walkExpr(&s.Step, m)
	}
	a.walkStatement(s.Body, m)

	a.activeForScopes = a.activeForScopes[:len(a.activeForScopes)-1]
}

// evalConstExpr folds the trivial constant-expression cases the
// original evaluates for FOR-loop bound optimization: a bare integer
// literal, or unary negation of one. Anything else is reported
// non-constant — leaving the conservative backing-variable path
// intact rather than risking a wrong fold (spec §4.1 edge case).
func evalConstExpr(e ast.Expression) (val int64, ok bool) {
	switch n := e.(type) {
	case *ast.NumberLiteral:
		return n.Value, true
	case *ast.UnaryOp:
		if n.Op == ast.OpNeg {
			if v, ok := evalConstExpr(n.Operand); ok {
				return -v, true
			}
		}
	}
	return 0, false
}

// effectiveVariableName resolves FOR-loop renaming the way
// az_get_effective_variable_name.cpp does: innermost active scope
// first, then the persistent alias map, then the name unchanged.
func (a *Analyzer) effectiveVariableName(name string) string {
	for i := len(a.activeForScopes) - 1; i >= 0; i-- {
		if u, ok := a.activeForScopes[i][name]; ok {
			return u
		}
	}
	if u, ok := a.forAliases[name]; ok {
		return u
	}
	return name
}

// walkExpr recurses through an expression in place, applying the
// SELF->_this rewrite, FOR-loop renaming, global-access/heap-allocation
// metrics, and call-site recording.
func (a *Analyzer) walkExpr(e *ast.Expression, m *symbols.FunctionMetrics) {
	if e == nil || *e == nil {
		return
	}
	switch v := (*e).(type) {
	case *ast.SelfExpression:
		*e = &ast.VariableAccess{Name: "_this"}
	case *ast.VariableAccess:
		a.visitVariableAccess(v, m)
	case *ast.BinaryOp:
		a.walkExpr(&v.Left, m)
		a.walkExpr(&v.Right, m)
	case *ast.UnaryOp:
		a.walkExpr(&v.Operand, m)
	case *ast.FunctionCall:
		a.walkExpr(&v.Callee, m)
		for i := range v.Args {
			a.walkExpr(&v.Args[i], m)
		}
		m.IsLeaf = false
		a.recordCallSite(v.Callee, m)
	case *ast.MemberAccessExpression:
		a.walkExpr(&v.Object, m)
	case *ast.NewExpression:
		m.PerformsHeapAllocation = true
		m.AccessesGlobals = true
		m.IsLeaf = false
		for i := range v.Args {
			a.walkExpr(&v.Args[i], m)
		}
	case *ast.ConditionalExpression:
		a.walkExpr(&v.Condition, m)
		a.walkExpr(&v.IfTrue, m)
		a.walkExpr(&v.IfFalse, m)
	case *ast.ValofExpression:
		a.walkStatement(v.Body, m)
	case *ast.FloatValofExpression:
		a.walkStatement(v.Body, m)
	case *ast.VecAllocationExpression:
		m.PerformsHeapAllocation = true
		m.HasVectorAllocations = true
		a.walkExpr(&v.Size, m)
	case *ast.FVecAllocationExpression:
		m.PerformsHeapAllocation = true
		m.HasVectorAllocations = true
		a.walkExpr(&v.Size, m)
	case *ast.StringAllocationExpression:
		m.PerformsHeapAllocation = true
		a.walkExpr(&v.Size, m)
	case *ast.PairsAllocationExpression:
		m.PerformsHeapAllocation = true
		m.HasVectorAllocations = true
		a.walkExpr(&v.Count, m)
	case *ast.FPairsAllocationExpression:
		m.PerformsHeapAllocation = true
		m.HasVectorAllocations = true
		a.walkExpr(&v.Count, m)
	case *ast.VecInitializerExpression:
		m.PerformsHeapAllocation = true
		m.HasVectorAllocations = true
		for i := range v.Elements {
			a.walkExpr(&v.Elements[i], m)
		}
	case *ast.VectorAccess:
		a.walkExpr(&v.Vector, m)
		a.walkExpr(&v.Index, m)
	case *ast.CharIndirection:
		a.walkExpr(&v.Str, m)
		a.walkExpr(&v.Index, m)
	case *ast.FloatVectorIndirection:
		a.walkExpr(&v.Vector, m)
		a.walkExpr(&v.Index, m)
	case *ast.LaneAccessExpression:
		a.walkExpr(&v.Vector, m)
	case *ast.PairExpression:
		a.walkExpr(&v.First, m)
		a.walkExpr(&v.Second, m)
	case *ast.FPairExpression:
		a.walkExpr(&v.First, m)
		a.walkExpr(&v.Second, m)
	case *ast.QuadExpression:
		for i := range v.Lanes {
			a.walkExpr(&v.Lanes[i], m)
		}
	case *ast.FQuadExpression:
		for i := range v.Lanes {
			a.walkExpr(&v.Lanes[i], m)
		}
	case *ast.OctExpression:
		for i := range v.Lanes {
			a.walkExpr(&v.Lanes[i], m)
		}
	case *ast.FOctExpression:
		for i := range v.Lanes {
			a.walkExpr(&v.Lanes[i], m)
		}
	case *ast.QuadAccessExpression:
		a.walkExpr(&v.Vector, m)
	case *ast.FQuadAccessExpression:
		a.walkExpr(&v.Vector, m)
	case *ast.TableExpression:
		for i := range v.Elements {
			a.walkExpr(&v.Elements[i], m)
		}
	case *ast.FTableExpression:
		for i := range v.Elements {
			a.walkExpr(&v.Elements[i], m)
		}
	case *ast.SyscallExpression:
		for i := range v.Args {
			a.walkExpr(&v.Args[i], m)
		}
	}
}

// visitVariableAccess ports az_visit_VariableAccess.cpp: rewrite
// SELF (handled earlier via SelfExpression, kept here too since a
// parser may also hand back a bare VariableAccess{"SELF"}), apply
// FOR-loop renaming, skip class-member names (those live in the
// object, not the stack frame), and mark global accesses.
func (a *Analyzer) visitVariableAccess(v *ast.VariableAccess, m *symbols.FunctionMetrics) {
	if v.Name == "SELF" && a.currentClassName != "" {
		v.Name = "_this"
	}
	v.Name = a.effectiveVariableName(v.Name)

	if a.currentClassName != "" && a.ct != nil {
		if entry, ok := a.ct.GetClass(a.currentClassName); ok {
			if _, isMember := entry.MemberVariables[v.Name]; isMember {
				return
			}
		}
	}

	if a.globals[v.Name] {
		m.AccessesGlobals = true
		return
	}
	if _, ok := m.VarTypes[v.Name]; !ok {
		m.VarTypes[v.Name] = types.ANY
		m.NumIntegerLocals++
	}
}

// recordCallSite resolves callee to a local function/routine name and
// records it in m.Callees, building the call graph that
// propagateHeapAllocation later closes over (spec §4.1).
func (a *Analyzer) recordCallSite(callee ast.Expression, m *symbols.FunctionMetrics) {
	var name string
	switch c := callee.(type) {
	case *ast.VariableAccess:
		name = c.Name
	case *ast.MemberAccessExpression:
		return // dynamic dispatch: not resolvable to a single static callee
	default:
		return
	}
	if a.localFunctionNames[name] || a.localRoutineNames[name] {
		m.Callees[name] = true
	}
}

// validateWritef checks a WRITEF-style format string's `%` specifier
// count against the supplied argument list (spec §4.1 "validates
// WRITEF format strings"), recording a diagnostic on mismatch rather
// than failing the whole analysis — a malformed format string is a
// user program bug the compiler should report, not a compiler crash.
func (a *Analyzer) validateWritef(s *ast.StringStatement, m *symbols.FunctionMetrics) {
	n := countFormatSpecifiers(s.Format)
	if n != len(s.Args) {
		a.diags.Add(ccerrors.PhaseAnalysis, a.currentFunctionScope,
			"WRITEF format %q expects %d argument(s), got %d", s.Format, n, len(s.Args))
	}
}

// countFormatSpecifiers counts `%x`-style conversions in format,
// treating `%%` as a literal percent rather than a specifier.
func countFormatSpecifiers(format string) int {
	count := 0
	runes := []rune(format)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '%' {
			continue
		}
		if i+1 < len(runes) && runes[i+1] == '%' {
			i++
			continue
		}
		count++
	}
	return count
}

// propagateHeapAllocation lifts PerformsHeapAllocation up the call
// graph to a fixed point: if f calls g and g performs heap allocation
// (directly or transitively), f does too (spec §4.1: "a fixed-point
// propagation lifts performs_heap_allocation up the call graph").
func (a *Analyzer) propagateHeapAllocation() {
	for changed := true; changed; {
		changed = false
		for _, m := range a.metrics {
			if m.PerformsHeapAllocation {
				continue
			}
			for callee := range m.Callees {
				if cm, ok := a.metrics[callee]; ok && cm.PerformsHeapAllocation {
					m.PerformsHeapAllocation = true
					changed = true
					break
				}
			}
		}
	}
}

// Metrics returns the metrics collected so far for name (mangled as
// "Class::method" for methods), or nil if name is unknown.
func (a *Analyzer) Metrics(name string) *symbols.FunctionMetrics { return a.metrics[name] }

// IsLeafFunction reports whether name was determined to make no calls
// (spec §4.1; ported from az_is_leaf_function.cpp's safe-default
// behavior of treating an unknown name as non-leaf).
func (a *Analyzer) IsLeafFunction(name string) bool {
	m, ok := a.metrics[name]
	return ok && m.IsLeaf
}

// FunctionAccessesGlobals reports whether name was determined to read
// or write a global-vector-bound name (spec §4.1; ported from
// az_function_accesses_globals.cpp).
func (a *Analyzer) FunctionAccessesGlobals(name string) bool {
	m, ok := a.metrics[name]
	return ok && m.AccessesGlobals
}

// Report renders a short human-readable summary of every function's
// metrics, grounded on az_print_report.cpp's diagnostic dump — useful
// for `--trace-analysis`-style CLI output (spec §4.1 ambient tooling).
func (a *Analyzer) Report() string {
	var b strings.Builder
	for name, m := range a.metrics {
		fmt.Fprintf(&b, "%s: leaf=%v globals=%v heap=%v vectors=%v params=%d\n",
			name, m.IsLeaf, m.AccessesGlobals, m.PerformsHeapAllocation, m.HasVectorAllocations, m.NumParameters)
	}
	return b.String()
}
