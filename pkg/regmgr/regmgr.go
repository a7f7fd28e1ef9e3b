// Package regmgr implements the runtime register-manager policy the
// code generator consults while emitting one function body (spec §J):
// LRU variable-to-register caching with dirty-bit spill-on-eviction,
// pinning, and caller-saved-register invalidation across call sites.
//
// Design: ported line-for-line in spirit from the original
// RegisterManager::acquire_reg_for_variable /
// reset_caller_saved_registers (original_source/rm_*.cpp) — LRU list +
// map + dirty flag — replacing std::list/std::unordered_map with Go
// slices/maps and returning spill instructions for the caller to emit
// via pkg/instruction rather than writing through a code-generator
// back-reference.
package regmgr

import (
	"github.com/GriffinCanCode/bcplc/pkg/codegen/arm64"
	"github.com/GriffinCanCode/bcplc/pkg/frame"
	"github.com/GriffinCanCode/bcplc/pkg/instruction"
)

// status of one physical register.
type status int

const (
	free status = iota
	inUseVariable
	inUseScratch
)

type regState struct {
	st      status
	boundTo string
	dirty   bool
}

// Manager is the per-function register-allocation runtime.
type Manager struct {
	variableRegs []string // candidate registers for variable caching (caller-saved scratch pool)
	scratchRegs  []string // same pool, viewed as the "reset on call" set

	registers map[string]*regState

	variableToReg map[string]string
	lruOrder      []string // front = most recently used

	pinned         map[string]bool
	spilledVars    map[string]bool
	frameMgr       *frame.Manager
	spillSlotOf    map[string]int
	nextSpillSlot  int
	slotBase       int // added so multiple Managers (e.g. one per register class) can share one frame.Manager's spill area without colliding
}

// NewManager returns a register manager over the given candidate
// register pool (typically X9-X15, the AAPCS64 scratch registers),
// backed by frameMgr for spill-slot offsets.
func NewManager(variableRegs []string, frameMgr *frame.Manager) *Manager {
	return NewManagerWithSlotBase(variableRegs, frameMgr, 0)
}

// NewManagerWithSlotBase is NewManager with the spill-slot numbering
// starting at slotBase instead of 0, so a caller running separate int
// and float register managers against the same frame.Manager can give
// each its own disjoint slice of the spill area (spec §J: the pool
// split is per register class, but the underlying frame spill area is
// one contiguous region sized by pkg/codegen's deep variable walk).
func NewManagerWithSlotBase(variableRegs []string, frameMgr *frame.Manager, slotBase int) *Manager {
	m := &Manager{
		variableRegs:  variableRegs,
		scratchRegs:   variableRegs,
		registers:     map[string]*regState{},
		variableToReg: map[string]string{},
		pinned:        map[string]bool{},
		spilledVars:   map[string]bool{},
		frameMgr:      frameMgr,
		spillSlotOf:   map[string]int{},
		slotBase:      slotBase,
	}
	for _, r := range variableRegs {
		m.registers[r] = &regState{st: free}
	}
	return m
}

// AcquireForVariable returns the register bound to variableName,
// allocating and possibly spilling a victim if needed. The second
// return is true on a cache hit. spill receives any spill
// instruction generated as a side effect (nil if none).
func (m *Manager) AcquireForVariable(variableName string) (reg string, hit bool, spill *instruction.Instruction) {
	if r, ok := m.variableToReg[variableName]; ok {
		m.touchLRU(variableName)
		return r, true, nil
	}

	if r := m.findFree(); r != "" {
		m.registers[r] = &regState{st: inUseVariable, boundTo: variableName}
		m.variableToReg[variableName] = r
		m.lruOrder = append([]string{variableName}, m.lruOrder...)
		delete(m.spilledVars, variableName)
		return r, false, nil
	}

	vi := len(m.lruOrder) - 1
	for vi > 0 && m.pinned[m.variableToReg[m.lruOrder[vi]]] {
		vi--
	}
	victimVar := m.lruOrder[vi]
	m.lruOrder = append(m.lruOrder[:vi], m.lruOrder[vi+1:]...)
	victimReg := m.variableToReg[victimVar]

	var spillInstr *instruction.Instruction
	if m.registers[victimReg].dirty {
		spillInstr = m.generateSpill(victimReg, victimVar)
		m.registers[victimReg].dirty = false
	}
	delete(m.variableToReg, victimVar)
	m.spilledVars[victimVar] = true

	m.registers[victimReg] = &regState{st: inUseVariable, boundTo: variableName}
	m.variableToReg[variableName] = victimReg
	m.lruOrder = append([]string{variableName}, m.lruOrder...)
	delete(m.spilledVars, variableName)

	return victimReg, false, spillInstr
}

func (m *Manager) generateSpill(reg, variableName string) *instruction.Instruction {
	slot, ok := m.spillSlotOf[variableName]
	if !ok {
		slot = m.nextSpillSlot
		m.nextSpillSlot++
		m.spillSlotOf[variableName] = slot
	}
	offset, err := m.frameMgr.GetSpillOffset(m.slotBase + slot)
	if err != nil {
		return nil
	}
	var i instruction.Instruction
	if arm64.IsFPRegister(reg) {
		i = arm64.StrFPImm(reg, "FP", offset)
	} else {
		i = arm64.StrImm(reg, "FP", offset)
	}
	return &i
}

func (m *Manager) touchLRU(variableName string) {
	for i, v := range m.lruOrder {
		if v == variableName {
			m.lruOrder = append(m.lruOrder[:i], m.lruOrder[i+1:]...)
			break
		}
	}
	m.lruOrder = append([]string{variableName}, m.lruOrder...)
}

func (m *Manager) findFree() string {
	for _, r := range m.variableRegs {
		if m.pinned[r] {
			continue
		}
		if m.registers[r].st == free {
			return r
		}
	}
	return ""
}

// MarkDirty flags reg as holding a value not yet written back to its
// frame slot.
func (m *Manager) MarkDirty(reg string, dirty bool) {
	if rs, ok := m.registers[reg]; ok {
		rs.dirty = dirty
	}
}

// IsDirty reports reg's dirty flag.
func (m *Manager) IsDirty(reg string) bool {
	rs, ok := m.registers[reg]
	return ok && rs.dirty
}

// PinRegister excludes reg from allocation (used while a scratch
// register is borrowed for instruction sequencing, e.g. argument
// shuffling before a call). A pinned register is never handed out
// fresh, and is evicted only when every other bound register is
// pinned too.
func (m *Manager) PinRegister(reg string) { m.pinned[reg] = true }

// UnpinRegister re-admits reg to the allocation pool.
func (m *Manager) UnpinRegister(reg string) { delete(m.pinned, reg) }

// IsPinned reports whether reg is currently pinned.
func (m *Manager) IsPinned(reg string) bool { return m.pinned[reg] }

// ReleaseRegister frees reg unconditionally, severing any variable
// binding without spilling (the caller has already ensured the value
// is no longer needed, e.g. at scope exit).
func (m *Manager) ReleaseRegister(reg string) {
	if rs, ok := m.registers[reg]; ok {
		if rs.boundTo != "" {
			delete(m.variableToReg, rs.boundTo)
			for i, v := range m.lruOrder {
				if v == rs.boundTo {
					m.lruOrder = append(m.lruOrder[:i], m.lruOrder[i+1:]...)
					break
				}
			}
		}
		m.registers[reg] = &regState{st: free}
	}
}

// InvalidateCallerSavedRegisters clears every variable binding in the
// scratch pool (spec §J: a BL/BLR clobbers all caller-saved registers,
// so the cache must not trust their contents afterward). Pinned
// registers are left untouched — a pin means the caller is actively
// relying on that register surviving the call, which only holds for
// registers the call sequence itself does not clobber.
func (m *Manager) InvalidateCallerSavedRegisters() {
	for _, reg := range m.scratchRegs {
		if m.pinned[reg] {
			continue
		}
		rs := m.registers[reg]
		if rs.boundTo != "" {
			delete(m.variableToReg, rs.boundTo)
			if _, ok := m.spillSlotOf[rs.boundTo]; ok {
				m.spilledVars[rs.boundTo] = true
			}
			for i, v := range m.lruOrder {
				if v == rs.boundTo {
					m.lruOrder = append(m.lruOrder[:i], m.lruOrder[i+1:]...)
					break
				}
			}
		}
		m.registers[reg] = &regState{st: free}
	}
}

// GetDirtyVariableRegisters returns the registers currently holding an
// unwritten-back variable value (used when a block boundary forces a
// full writeback, e.g. before a loop back-edge).
func (m *Manager) GetDirtyVariableRegisters() []string {
	var out []string
	for reg, rs := range m.registers {
		if rs.st == inUseVariable && rs.dirty {
			out = append(out, reg)
		}
	}
	return out
}

// IsSpilled reports whether variableName's only home is its frame
// spill slot right now (no live register binding).
func (m *Manager) IsSpilled(variableName string) bool { return m.spilledVars[variableName] }

// SlotOffset returns the frame offset variableName was last spilled
// to, if it has ever been spilled (the slot is assigned lazily, on
// first eviction, not at bind time).
func (m *Manager) SlotOffset(variableName string) (int, bool) {
	slot, ok := m.spillSlotOf[variableName]
	if !ok {
		return 0, false
	}
	off, err := m.frameMgr.GetSpillOffset(m.slotBase + slot)
	if err != nil {
		return 0, false
	}
	return off, true
}

// FlushDirty writes back every live, dirty binding without evicting
// it (spec §J: a call site must not trust stale memory for a variable
// still cached in a caller-saved register, but the binding itself
// stays valid until InvalidateCallerSavedRegisters drops it).
func (m *Manager) FlushDirty() []instruction.Instruction {
	var out []instruction.Instruction
	for reg, rs := range m.registers {
		if rs.st == inUseVariable && rs.dirty {
			if i := m.generateSpill(reg, rs.boundTo); i != nil {
				out = append(out, *i)
			}
			rs.dirty = false
		}
	}
	return out
}
