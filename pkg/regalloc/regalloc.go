// Package regalloc implements linear-scan register allocation over
// AArch64 register pools (spec §3 LiveInterval, §F).
//
// Design: adapted from the teacher's pkg/codegen/regalloc Allocator
// (Poletto & Sarkar linear scan, Wimmer & Mössenböck spill policy) —
// kept the same numbering/sort/scan-and-expire shape, replaced the
// ir.Value/ssa.Function value model with variable-name keyed
// LiveInterval records sourced from pkg/liveness, and replaced the
// generic Config.Available list with AAPCS64-aware integer/float
// register pools that give call-crossing intervals a callee-saved
// register first (spec §F). Intervals are never split.
package regalloc

import (
	"sort"

	"github.com/GriffinCanCode/bcplc/pkg/cfg"
	"github.com/GriffinCanCode/bcplc/pkg/liveness"
)

// LiveInterval is the spec §3 record: one variable's live range, the
// register or spill slot it ends up bound to, and the call sites
// within its range (which make the allocator prefer a callee-saved
// register; the interval itself is not split).
type LiveInterval struct {
	Name       string
	Start, End int // instruction positions, inclusive
	IsFloat    bool
	Reg        string // "" until allocated
	Spilled    bool
	SpillSlot  int
	CallSites  []int // positions of calls within [Start, End]
}

// Pool names the AAPCS64 register classes the allocator draws from
// (spec §A, §J): X9-X15 scratch/caller-saved temporaries first, then
// X19-X28 callee-saved temporaries for long-lived values that cross
// call sites, mirroring the teacher's Config.Available/CalleeSaved
// split.
type Pool struct {
	CallerSavedInt   []string
	CalleeSavedInt   []string
	CallerSavedFloat []string
	CalleeSavedFloat []string
}

// DefaultPool is the standard AAPCS64 allocation order: exhaust
// caller-saved scratch registers first (cheapest — no save/restore),
// fall back to callee-saved ones for intervals that survive a call.
func DefaultPool() Pool {
	return Pool{
		CallerSavedInt:   []string{"X9", "X10", "X11", "X12", "X13", "X14", "X15"},
		CalleeSavedInt:   []string{"X19", "X20", "X21", "X22", "X23", "X24", "X25", "X26", "X27", "X28"},
		CallerSavedFloat: []string{"D0", "D1", "D2", "D3", "D4", "D5", "D6", "D7"},
		CalleeSavedFloat: []string{"D8", "D9", "D10", "D11", "D12", "D13", "D14", "D15"},
	}
}

// Allocator runs linear scan over a set of intervals built from a
// liveness.Result.
type Allocator struct {
	pool          Pool
	intervals     []*LiveInterval
	active        []*LiveInterval
	freeInt       []string
	freeFloat     []string
	nextSpillSlot int
}

// NewAllocator constructs an allocator with the given register pool.
func NewAllocator(pool Pool) *Allocator {
	a := &Allocator{pool: pool}
	a.freeInt = append(append([]string{}, pool.CallerSavedInt...), pool.CalleeSavedInt...)
	a.freeFloat = append(append([]string{}, pool.CallerSavedFloat...), pool.CalleeSavedFloat...)
	return a
}

// BuildIntervals derives LiveInterval records from a liveness.Result
// over cfg blocks, numbering instructions in block order (spec §3).
// floatVars names the variables whose storage class is FLOAT/FPAIR.
func BuildIntervals(g *cfg.Graph, live *liveness.Result, floatVars map[string]bool, isCallSite func(pos int) bool) []*LiveInterval {
	starts := map[string]int{}
	ends := map[string]int{}
	pos := 0
	order := map[string][]int{}
	for _, b := range g.Blocks {
		for name := range live.Blocks[b].In {
			if _, ok := starts[name]; !ok {
				starts[name] = pos
			}
			ends[name] = pos
		}
		n := len(b.Statements)
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			for name := range live.Blocks[b].Out {
				if _, ok := starts[name]; !ok {
					starts[name] = pos
				}
				ends[name] = pos
			}
			pos++
		}
		_ = order
	}
	var out []*LiveInterval
	for name, start := range starts {
		li := &LiveInterval{Name: name, Start: start, End: ends[name], IsFloat: floatVars[name], SpillSlot: -1}
		if isCallSite != nil {
			for p := start; p <= ends[name]; p++ {
				if isCallSite(p) {
					li.CallSites = append(li.CallSites, p)
				}
			}
		}
		out = append(out, li)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// Allocate runs the scan-and-expire linear-scan algorithm (spec §F).
func (a *Allocator) Allocate(intervals []*LiveInterval) {
	a.intervals = intervals
	for _, iv := range intervals {
		a.expireOld(iv)
		pool, free := a.poolFor(iv)
		if len(free) == 0 {
			a.spillAtInterval(iv)
			continue
		}
		prefersCalleeSaved := len(iv.CallSites) > 0
		reg := a.pickRegister(pool, free, prefersCalleeSaved)
		iv.Reg = reg
		a.removeFree(iv.IsFloat, reg)
		a.active = append(a.active, iv)
		sort.Slice(a.active, func(i, j int) bool { return a.active[i].End < a.active[j].End })
	}
}

func (a *Allocator) poolFor(iv *LiveInterval) (Pool, []string) {
	if iv.IsFloat {
		return a.pool, a.freeFloat
	}
	return a.pool, a.freeInt
}

// pickRegister prefers a callee-saved register when the interval
// spans a call site (avoids caller-saved spill/reload around every
// call), otherwise prefers caller-saved to keep callee-saved registers
// available for longer-lived values (spec §F, §J).
func (a *Allocator) pickRegister(pool Pool, free []string, preferCalleeSaved bool) string {
	isCalleeSaved := func(r string) bool {
		for _, c := range pool.CalleeSavedInt {
			if c == r {
				return true
			}
		}
		for _, c := range pool.CalleeSavedFloat {
			if c == r {
				return true
			}
		}
		return false
	}
	if preferCalleeSaved {
		for _, r := range free {
			if isCalleeSaved(r) {
				return r
			}
		}
	}
	for _, r := range free {
		if !isCalleeSaved(r) {
			return r
		}
	}
	return free[0]
}

func (a *Allocator) removeFree(isFloat bool, reg string) {
	list := &a.freeInt
	if isFloat {
		list = &a.freeFloat
	}
	for i, r := range *list {
		if r == reg {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return
		}
	}
}

func (a *Allocator) addFree(isFloat bool, reg string) {
	if isFloat {
		a.freeFloat = append(a.freeFloat, reg)
	} else {
		a.freeInt = append(a.freeInt, reg)
	}
}

// expireOld retires active intervals that have ended before iv
// starts, returning their registers to the free pool.
func (a *Allocator) expireOld(iv *LiveInterval) {
	var still []*LiveInterval
	for _, act := range a.active {
		if act.End < iv.Start {
			if !act.Spilled {
				a.addFree(act.IsFloat, act.Reg)
			}
			continue
		}
		still = append(still, act)
	}
	a.active = still
}

// spillAtInterval implements the Wimmer & Mössenböck policy: when no
// free register exists, spill whichever active interval (including
// possibly iv itself) has the longest remaining lifetime — that
// frees the register for the most instructions, minimizing total
// spill traffic.
func (a *Allocator) spillAtInterval(iv *LiveInterval) {
	var sameClass []*LiveInterval
	for _, act := range a.active {
		if act.IsFloat == iv.IsFloat && !act.Spilled {
			sameClass = append(sameClass, act)
		}
	}
	if len(sameClass) == 0 {
		a.assignSpillSlot(iv)
		return
	}
	longest := sameClass[0]
	for _, act := range sameClass[1:] {
		if act.End > longest.End {
			longest = act
		}
	}
	if longest.End > iv.End {
		iv.Reg = longest.Reg
		longest.Spilled = false
		a.assignSpillSlot(longest)
		for i, act := range a.active {
			if act == longest {
				a.active = append(a.active[:i], a.active[i+1:]...)
				break
			}
		}
		a.active = append(a.active, iv)
		sort.Slice(a.active, func(i, j int) bool { return a.active[i].End < a.active[j].End })
		return
	}
	a.assignSpillSlot(iv)
}

func (a *Allocator) assignSpillSlot(iv *LiveInterval) {
	iv.Spilled = true
	iv.Reg = ""
	iv.SpillSlot = a.nextSpillSlot
	a.nextSpillSlot++
}

// SpillSlotCount reports how many 8-byte spill slots were consumed —
// pkg/frame uses this to size the spill area (spec §G).
func (a *Allocator) SpillSlotCount() int { return a.nextSpillSlot }
