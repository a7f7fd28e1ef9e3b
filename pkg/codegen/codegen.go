// Package codegen is the code generator's main dispatcher (spec
// §4.7): the pass that walks one function/routine/method body at a
// time and emits a binary instruction.Stream, driving pkg/cfg,
// pkg/liveness, pkg/regalloc, pkg/frame, pkg/regmgr, pkg/veneer and
// pkg/codegen/vector in concert.
//
// Design: grounded on the teacher's per-backend Generator (one
// function body at a time, driven by a single recursive
// statement/expression dispatcher) and on
// original_source/cg_generate_function_like_code.cpp's dispatch
// shape, retargeted at a binary instruction.Stream and the
// AAPCS64-aware two-tier allocation pipeline spec §F/§J describe: a
// linear-scan "promotion" tier gives hot variables a dedicated
// callee-saved register for the whole function body, and an LRU
// "cache" tier (pkg/regmgr) handles everything else through a small
// caller-saved pool backed by pkg/frame's spill area.
package codegen

import (
	"fmt"

	"github.com/GriffinCanCode/bcplc/pkg/ast"
	"github.com/GriffinCanCode/bcplc/pkg/ccerrors"
	"github.com/GriffinCanCode/bcplc/pkg/cfg"
	"github.com/GriffinCanCode/bcplc/pkg/codegen/arm64"
	"github.com/GriffinCanCode/bcplc/pkg/config"
	"github.com/GriffinCanCode/bcplc/pkg/frame"
	"github.com/GriffinCanCode/bcplc/pkg/instruction"
	"github.com/GriffinCanCode/bcplc/pkg/liveness"
	"github.com/GriffinCanCode/bcplc/pkg/regalloc"
	"github.com/GriffinCanCode/bcplc/pkg/regmgr"
	"github.com/GriffinCanCode/bcplc/pkg/symbols"
	"github.com/GriffinCanCode/bcplc/pkg/types"
	"github.com/GriffinCanCode/bcplc/pkg/veneer"
)

// Registers never touched by the variable promotion/cache tiers,
// because something else in the tree already hardcodes them:
// X9/X10/D9 are pkg/frame's and pkg/codegen/vector's own transient
// scratch, X11 is the epilogue canary-check scratch, X16/X17 are
// pkg/veneer's trampoline registers (AAPCS64 IP0/IP1), and X19 is
// reserved as the JIT runtime-function-table base pointer
// (pkg/veneer.ResolveCallTarget's X19-relative load).
const (
	exprScratchInt1   = "X12"
	exprScratchInt2   = "X13"
	exprScratchFloat1 = "D10"
	exprScratchFloat2 = "D11"
	runtimeTableReg   = "X19"

	// 32-bit views of the same physical registers above, for the
	// single-precision bit-twiddling FPAIR/FQUAD/FOCT construction
	// needs (pkg/codegen/arm64.regNum parses W/S/D/X by numeric suffix
	// uniformly, so these name the identical register).
	exprScratchInt1W    = "W12"
	exprScratchInt2W    = "W13"
	exprScratchFloat1S  = "S10"
)

var (
	varCacheInt   = []string{"X14", "X15"}
	varCacheFloat = []string{"D12", "D13"}
)

// promotionPool restricts linear-scan allocation to the callee-saved
// registers the cache tier and the scratch registers above never
// touch, so a promoted variable's register survives across calls
// without save/restore bookkeeping of its own (spec §F).
func promotionPool() regalloc.Pool {
	return regalloc.Pool{
		CalleeSavedInt:   []string{"X20", "X21", "X22", "X23", "X24", "X25", "X26", "X27", "X28"},
		CalleeSavedFloat: []string{"D8", "D14", "D15"},
	}
}

// Generator holds the state shared across every function body it
// compiles for one program.
type Generator struct {
	cfg     config.Config
	st      *symbols.SymbolTable
	ct      *symbols.ClassTable
	metrics map[string]*symbols.FunctionMetrics
	diags   *ccerrors.Diagnostics

	labels  *veneer.LabelManager
	veneers *veneer.VeneerManager

	runtimeTableSlot   map[string]int
	nextRuntimeTableOff int

	stringLabels map[string]string // literal text -> data label, deduplicated
	nextDataLabel int
}

// New returns a Generator ready to compile a program already through
// pkg/analysis and pkg/supercall.
func New(cfg config.Config, st *symbols.SymbolTable, ct *symbols.ClassTable, metrics map[string]*symbols.FunctionMetrics, diags *ccerrors.Diagnostics) *Generator {
	lm := veneer.NewLabelManager()
	return &Generator{
		cfg: cfg, st: st, ct: ct, metrics: metrics, diags: diags,
		labels: lm, veneers: veneer.NewVeneerManager(lm),
		runtimeTableSlot: map[string]int{},
		stringLabels:     map[string]string{},
	}
}

// CompiledFunction is one function/routine/method's emitted code under
// its mangled name. String/table literals the code references are
// reached through ADRP/ADD to data labels; their bytes are not part of
// this record and are not emitted by this package.
type CompiledFunction struct {
	Name   string
	Stream *instruction.Stream
}

// GenerateProgram compiles every function, routine, and class method
// or routine in prog (spec §4.7).
func (g *Generator) GenerateProgram(prog *ast.Program) ([]*CompiledFunction, error) {
	var out []*CompiledFunction
	emit := func(name, className string, params []*ast.ParamDecl, body ast.Statement, rt types.VarType, isFunction bool) error {
		s, err := g.GenerateFunctionLike(name, className, params, body, rt, isFunction)
		if err != nil {
			return err
		}
		out = append(out, &CompiledFunction{Name: mangledName(className, name), Stream: s})
		return nil
	}

	for _, fn := range prog.Functions {
		if err := emit(fn.Name, fn.ClassName, fn.Parameters, fn.Body, fn.ReturnType, true); err != nil {
			return nil, err
		}
	}
	for _, rt := range prog.Routines {
		if err := emit(rt.Name, rt.ClassName, rt.Parameters, rt.Body, types.INTEGER, false); err != nil {
			return nil, err
		}
	}
	for _, cls := range prog.Classes {
		for _, m := range cls.Methods {
			if err := emit(m.Name, cls.Name, m.Parameters, m.Body, m.ReturnType, true); err != nil {
				return nil, err
			}
		}
		for _, r := range cls.Routines {
			if err := emit(r.Name, cls.Name, r.Parameters, r.Body, types.INTEGER, false); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func mangledName(className, name string) string {
	if className == "" {
		return name
	}
	return className + "::" + name
}

// resultisTarget records where a RESULTIS inside a VALOF/FLOATVALOF
// body should park its value (spec §4.1): a nested VALOF's RESULTIS
// feeds the enclosing expression, not the function's return value, so
// it must not jump to the function epilogue.
type resultisTarget struct {
	temp       string
	afterLabel string
	isFloat    bool
}

// funcGen is the per-function-body compilation state.
type funcGen struct {
	g          *Generator
	name       string
	className  string
	metrics    *symbols.FunctionMetrics
	isFunction bool
	returnType types.VarType

	frameMgr   *frame.Manager
	intCache   *regmgr.Manager
	floatCache *regmgr.Manager

	promotedReg map[string]string
	varIsFloat  map[string]bool

	stream        *instruction.Stream
	epilogueLabel string

	resultisTargets []resultisTarget
	endcaseLabels   []string
	nextTemp        int
}

// GenerateFunctionLike compiles one function/routine/method body
// (spec §4.7): prologue → parameter binding → body → epilogue.
func (g *Generator) GenerateFunctionLike(name, className string, params []*ast.ParamDecl, body ast.Statement, returnType types.VarType, isFunction bool) (*instruction.Stream, error) {
	mangled := mangledName(className, name)
	m := g.metrics[mangled]
	if m == nil {
		m = symbols.NewFunctionMetrics(mangled)
	}

	fg := &funcGen{
		g: g, name: mangled, className: className, metrics: m,
		isFunction: isFunction, returnType: returnType,
		frameMgr:    frame.NewManager(g.cfg, mangled),
		promotedReg: map[string]string{},
		varIsFloat:  map[string]bool{},
		stream:      instruction.NewStream(),
	}
	fg.epilogueLabel = g.labels.Fresh() + "_epilogue"

	bodyBlock := asBlock(body)

	allVars := collectVariableNames(bodyBlock)
	for _, p := range params {
		allVars[p.Name] = true
		fg.varIsFloat[p.Name] = p.Type.IsFloat()
	}
	for varName, t := range m.VarTypes {
		allVars[varName] = true
		fg.varIsFloat[varName] = t.IsFloat()
	}

	if m.AccessesGlobals {
		fg.frameMgr.MarkUsesGlobalPointers()
	}

	promoted := fg.choosePromotions(bodyBlock, allVars)
	fg.promotedReg = promoted
	for _, reg := range promoted {
		fg.frameMgr.ForceSaveRegister(reg)
	}

	nonPromotedInt, nonPromotedFloat := 0, 0
	for varName := range allVars {
		if _, ok := promoted[varName]; ok {
			continue
		}
		if fg.varIsFloat[varName] {
			nonPromotedFloat++
		} else {
			nonPromotedInt++
		}
	}
	// maxExprDepth upper-bounds the synthetic expression temps the
	// statement/expression dispatcher will invent at run time (spec
	// §4.7); these never appear in allVars because they don't exist
	// until code generation actually walks the expression tree.
	depth := maxExprDepth(bodyBlock)
	fg.frameMgr.ReserveSpillArea(nonPromotedInt + depth + nonPromotedFloat + depth)
	fg.intCache = regmgr.NewManagerWithSlotBase(varCacheInt, fg.frameMgr, 0)
	fg.floatCache = regmgr.NewManagerWithSlotBase(varCacheFloat, fg.frameMgr, nonPromotedInt+depth)

	prologue, err := fg.frameMgr.GeneratePrologue()
	if err != nil {
		return nil, ccerrors.WrapInternal(ccerrors.PhaseCodegen, mangled, err)
	}
	fg.stream.EmitAll(prologue)

	if err := fg.bindParameters(params); err != nil {
		return nil, err
	}
	if err := fg.genStatement(bodyBlock); err != nil {
		return nil, err
	}

	fg.stream.DefineLabel(fg.epilogueLabel)
	epilogue, err := fg.frameMgr.GenerateEpilogue()
	if err != nil {
		return nil, ccerrors.WrapInternal(ccerrors.PhaseCodegen, mangled, err)
	}
	fg.stream.EmitAll(epilogue)

	optimized := arm64.NewPeepholeOptimizer().Optimize(fg.stream.Instructions())
	fg.stream = instruction.NewStream()
	fg.stream.EmitAll(optimized)

	if err := arm64.ValidateStream(fg.stream.Instructions()); err != nil {
		return nil, ccerrors.WrapInternal(ccerrors.PhaseCodegen, mangled, err)
	}

	return fg.stream, nil
}

func asBlock(s ast.Statement) *ast.BlockStatement {
	if b, ok := s.(*ast.BlockStatement); ok {
		return b
	}
	return &ast.BlockStatement{Statements: []ast.Statement{s}}
}

// choosePromotions runs cfg.Build → liveness.Analyze → a
// restricted-pool regalloc.Allocate over the body to decide which
// variables earn a dedicated callee-saved register for the function's
// whole lifetime (spec §F). Everything not chosen here falls back to
// the LRU cache tier.
func (fg *funcGen) choosePromotions(body *ast.BlockStatement, allVars map[string]bool) map[string]string {
	g := cfg.Build(body)
	live := liveness.Analyze(g)
	calls := callSitePositions(g)
	floatVars := map[string]bool{}
	for name := range allVars {
		floatVars[name] = fg.varIsFloat[name]
	}
	intervals := regalloc.BuildIntervals(g, live, floatVars, func(pos int) bool { return calls[pos] })

	alloc := regalloc.NewAllocator(promotionPool())
	alloc.Allocate(intervals)

	promoted := map[string]string{}
	for _, iv := range intervals {
		if iv.Reg != "" {
			promoted[iv.Name] = iv.Reg
		}
	}
	return promoted
}

// callSitePositions mirrors BuildIntervals' own statement numbering so
// the isCallSite closure lines up with the positions it assigns
// live-range endpoints to.
func callSitePositions(g *cfg.Graph) map[int]bool {
	out := map[int]bool{}
	pos := 0
	for _, b := range g.Blocks {
		n := len(b.Statements)
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			if i < len(b.Statements) && statementContainsCall(b.Statements[i]) {
				out[pos] = true
			}
			pos++
		}
	}
	return out
}

func (fg *funcGen) bindParameters(params []*ast.ParamDecl) error {
	intIdx, floatIdx := 0, 0
	for _, p := range params {
		isFloat := p.Type.IsFloat()
		var argReg string
		if isFloat {
			argReg = fmt.Sprintf("D%d", floatIdx)
			floatIdx++
		} else {
			argReg = fmt.Sprintf("X%d", intIdx)
			intIdx++
		}
		if dest, ok := fg.promotedReg[p.Name]; ok {
			if dest != argReg {
				fg.moveReg(dest, argReg, isFloat)
			}
			continue
		}
		mgr := fg.intCache
		if isFloat {
			mgr = fg.floatCache
		}
		reg, _, spill := mgr.AcquireForVariable(p.Name)
		if spill != nil {
			fg.stream.Emit(*spill)
		}
		if reg != argReg {
			fg.moveReg(reg, argReg, isFloat)
		}
		mgr.MarkDirty(reg, true)
	}
	return nil
}

func (fg *funcGen) moveReg(dst, src string, isFloat bool) {
	if isFloat {
		fg.stream.Emit(arm64.FmovDReg(dst, src))
	} else {
		fg.stream.Emit(arm64.MovReg(dst, src))
	}
}

func (fg *funcGen) cacheFor(name string) *regmgr.Manager {
	if fg.varIsFloat[name] {
		return fg.floatCache
	}
	return fg.intCache
}

// readVariable makes name's current value available in a register and
// returns it (spec §4.7 "variable access").
func (fg *funcGen) readVariable(name string) (string, error) {
	if reg, ok := fg.promotedReg[name]; ok {
		return reg, nil
	}
	mgr := fg.cacheFor(name)
	wasSpilled := mgr.IsSpilled(name)
	reg, hit, spill := mgr.AcquireForVariable(name)
	if spill != nil {
		fg.stream.Emit(*spill)
	}
	if !hit && wasSpilled {
		offset, ok := mgr.SlotOffset(name)
		if !ok {
			return "", ccerrors.NewInternal(ccerrors.PhaseCodegen, fg.name, "no spill slot recorded for %q", name)
		}
		if fg.varIsFloat[name] {
			fg.stream.Emit(arm64.LdrFPImm(reg, "FP", offset))
		} else {
			fg.stream.Emit(arm64.LdrImm(reg, "FP", offset))
		}
	}
	return reg, nil
}

// writeVariable stores valueReg as name's new current value.
func (fg *funcGen) writeVariable(name, valueReg string) error {
	isFloat := fg.varIsFloat[name]
	if reg, ok := fg.promotedReg[name]; ok {
		if reg != valueReg {
			fg.moveReg(reg, valueReg, isFloat)
		}
		return nil
	}
	mgr := fg.cacheFor(name)
	reg, _, spill := mgr.AcquireForVariable(name)
	if spill != nil {
		fg.stream.Emit(*spill)
	}
	if reg != valueReg {
		fg.moveReg(reg, valueReg, isFloat)
	}
	mgr.MarkDirty(reg, true)
	return nil
}

// newTemp invents a fresh synthetic variable name for one expression
// intermediate, routed through the same cache-tier machinery as a
// real source-level local (spec §4.7: this is what lets arbitrarily
// nested expressions share two scratch registers per class without
// clobbering a sibling subexpression's still-needed result).
func (fg *funcGen) newTemp(isFloat bool) string {
	name := fmt.Sprintf("$t%d", fg.nextTemp)
	fg.nextTemp++
	fg.varIsFloat[name] = isFloat
	return name
}

// beforeCall writes back every dirty cached variable and drops the
// cache tier's bindings, since X14/X15/D12/D13 are ordinary AAPCS64
// caller-saved registers and any BL/BLR may clobber them (spec §J).
func (fg *funcGen) beforeCall() {
	fg.stream.EmitAll(fg.intCache.FlushDirty())
	fg.stream.EmitAll(fg.floatCache.FlushDirty())
	fg.intCache.InvalidateCallerSavedRegisters()
	fg.floatCache.InvalidateCallerSavedRegisters()
}
