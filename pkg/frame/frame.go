// Package frame implements the AAPCS64 call-frame manager (spec §G):
// local/spill layout, prologue/epilogue generation, and the canary
// guards spec §6 requires. Grounded directly on the original
// CallFrameManager::generate_prologue/generate_epilogue algorithm
// (original_source/cf_generate_prologue.cpp, cf_generate_epilogue.cpp),
// re-expressed with pkg/codegen/arm64's binary encoders in place of
// the original's Encoder:: text-producing calls.
package frame

import (
	"sort"

	"github.com/GriffinCanCode/bcplc/pkg/ccerrors"
	"github.com/GriffinCanCode/bcplc/pkg/codegen/arm64"
	"github.com/GriffinCanCode/bcplc/pkg/config"
	"github.com/GriffinCanCode/bcplc/pkg/instruction"
)

// CanarySize is the width in bytes of one canary slot.
const CanarySize = 8

const stpImmediateLimit = 504 // 7-bit signed immediate scaled by 8: -512..504
const minimumFrameContent = 16 // saved FP+LR

// localDecl is one local variable's name and storage size in bytes.
type localDecl struct {
	name string
	size int
}

// Manager lays out and generates the prologue/epilogue for one
// function's stack frame.
type Manager struct {
	cfg config.Config

	functionName string
	locals       []localDecl
	localsSize   int

	calleeSaved   []string // register names forced to be saved, e.g. by regalloc
	usesGlobals   bool     // forces X19/X28 save (spec: global-pointer-bearing functions)
	spillAreaSize int      // bytes, set by ReserveSpillArea once regalloc reports its slot count

	variableOffsets map[string]int // FP-relative offsets, filled by GeneratePrologue
	nextSpillOffset int

	prologueGenerated bool
	finalFrameSize    int
}

// NewManager returns a frame manager for one function/routine body.
func NewManager(cfg config.Config, functionName string) *Manager {
	return &Manager{cfg: cfg, functionName: functionName, variableOffsets: map[string]int{}}
}

// AddLocal registers a local variable needing sizeBytes of frame
// storage (8 for scalars/PAIR-family, 32 for FOCT).
func (m *Manager) AddLocal(name string, sizeBytes int) {
	m.locals = append(m.locals, localDecl{name: name, size: sizeBytes})
	m.localsSize += sizeBytes
}

// HasLocal reports whether name was registered via AddLocal (spec
// §G cf_has_local).
func (m *Manager) HasLocal(name string) bool {
	for _, l := range m.locals {
		if l.name == name {
			return true
		}
	}
	return false
}

// ForceSaveRegister adds reg to the callee-saved save list even if the
// register allocator never assigned it (used for X19/X28 when the
// function accesses globals through a dedicated base register).
func (m *Manager) ForceSaveRegister(reg string) {
	for _, r := range m.calleeSaved {
		if r == reg {
			return
		}
	}
	m.calleeSaved = append(m.calleeSaved, reg)
}

// MarkUsesGlobalPointers forces X19 and X28 into the save list, per
// the original generator's unconditional block for global-pointer
// bearing functions.
func (m *Manager) MarkUsesGlobalPointers() {
	m.usesGlobals = true
}

// ReserveSpillArea records how many 8-byte spill slots the register
// allocator needs; must be called before GeneratePrologue.
func (m *Manager) ReserveSpillArea(slotCount int) {
	m.spillAreaSize = slotCount * 8
}

// IsFloatVariable reports whether a saved register name denotes a
// D-register (float/FP home), mirroring cf_is_float_variable.
func IsFloatVariable(reg string) bool { return arm64.IsFPRegister(reg) }

func align16(n int) int {
	if n%16 == 0 {
		return n
	}
	return n + (16 - n%16)
}

// GeneratePrologue computes the final frame layout and emits the
// prologue instruction sequence. This is the one place offsets are
// assigned; GetOffset is only valid after this call (spec §G, §8 S1).
func (m *Manager) GeneratePrologue() ([]instruction.Instruction, error) {
	if m.prologueGenerated {
		return nil, ccerrors.NewInternal(ccerrors.PhaseFrame, m.functionName, "prologue already generated")
	}
	if m.usesGlobals {
		m.ForceSaveRegister("X19")
		m.ForceSaveRegister("X28")
	}
	sort.Strings(m.calleeSaved)

	calleeSavedSize := len(m.calleeSaved) * 8
	canarySpace := 0
	if m.cfg.EnableStackCanaries {
		canarySpace = 2 * CanarySize
	}
	required := m.localsSize + calleeSavedSize + minimumFrameContent + canarySpace + m.spillAreaSize
	m.finalFrameSize = align16(required)

	currentOffset := 16
	if m.cfg.EnableStackCanaries {
		currentOffset += 2 * CanarySize
	}
	m.variableOffsets = map[string]int{}
	for _, l := range m.locals {
		m.variableOffsets[l.name] = currentOffset
		currentOffset += l.size
	}
	for _, reg := range m.calleeSaved {
		if _, ok := m.variableOffsets[reg]; !ok {
			m.variableOffsets[reg] = currentOffset
			currentOffset += 8
		}
	}
	m.nextSpillOffset = currentOffset

	upperCanaryOffset := 16
	lowerCanaryOffset := 16 + CanarySize

	var out []instruction.Instruction
	if m.finalFrameSize <= stpImmediateLimit {
		out = append(out, arm64.STPPreIndex("FP", "LR", "SP", -m.finalFrameSize))
	} else {
		out = append(out, arm64.SubImm("SP", "SP", m.finalFrameSize))
		out = append(out, arm64.STPOffset("FP", "LR", "SP", 0))
	}
	out = append(out, arm64.MovFPSP())

	if m.cfg.EnableStackCanaries {
		out = append(out, arm64.MovzMovkAbs64("X9", config.UpperCanaryValue)...)
		out = append(out, arm64.StrImm("X9", "FP", upperCanaryOffset))
		out = append(out, arm64.MovzMovkAbs64("X9", config.LowerCanaryValue)...)
		out = append(out, arm64.StrImm("X9", "FP", lowerCanaryOffset))
	}

	for _, reg := range m.calleeSaved {
		offset := m.variableOffsets[reg]
		if arm64.IsFPRegister(reg) {
			out = append(out, arm64.StrFPImm(reg, "FP", offset))
		} else {
			out = append(out, arm64.StrImm(reg, "FP", offset))
		}
	}

	m.prologueGenerated = true
	return out, nil
}

// GenerateEpilogue restores callee-saved registers, checks the
// canaries, deallocates the frame via MOV SP,FP (the JIT-safe form
// that avoids a large immediate, per the original's explicit
// comment), and returns. Canary-mismatch handlers branch to BRK.
func (m *Manager) GenerateEpilogue() ([]instruction.Instruction, error) {
	if !m.prologueGenerated {
		return nil, ccerrors.NewInternal(ccerrors.PhaseFrame, m.functionName, "epilogue requested before prologue")
	}
	var out []instruction.Instruction
	for _, reg := range m.calleeSaved {
		offset := m.variableOffsets[reg]
		if arm64.IsFPRegister(reg) {
			out = append(out, arm64.LdrFPImm(reg, "FP", offset))
		} else {
			out = append(out, arm64.LdrImm(reg, "FP", offset))
		}
	}

	if m.cfg.EnableStackCanaries {
		upperCanaryOffset := 16
		lowerCanaryOffset := 16 + CanarySize

		out = append(out, arm64.LdrImm("X10", "FP", upperCanaryOffset))
		out = append(out, arm64.MovzMovkAbs64("X11", config.UpperCanaryValue)...)
		out = append(out, arm64.CmpReg("X10", "X11"))
		out = append(out, arm64.BCond("ne", m.functionName+"_stackprot_upper"))

		out = append(out, arm64.LdrImm("X10", "FP", lowerCanaryOffset))
		out = append(out, arm64.MovzMovkAbs64("X11", config.LowerCanaryValue)...)
		out = append(out, arm64.CmpReg("X10", "X11"))
		out = append(out, arm64.BCond("ne", m.functionName+"_stackprot_lower"))
	}

	out = append(out, arm64.AddImm("SP", "FP", 0)) // MOV SP,FP (ADD alias; ORR would write XZR)
	out = append(out, arm64.LdrImm("FP", "SP", 0))
	out = append(out, arm64.LdrImm("LR", "SP", 8))
	out = append(out, arm64.AddImm("SP", "SP", 16))
	out = append(out, arm64.Ret())

	if m.cfg.EnableStackCanaries {
		out = append(out, instruction.Label(m.functionName+"_stackprot_upper"))
		out = append(out, arm64.Brk(0))
		out = append(out, instruction.Label(m.functionName+"_stackprot_lower"))
		out = append(out, arm64.Brk(0))
	}
	return out, nil
}

// GetOffset returns a variable or saved-register's FP-relative frame
// offset. Valid only after GeneratePrologue.
func (m *Manager) GetOffset(name string) (int, error) {
	if !m.prologueGenerated {
		return 0, ccerrors.NewInternal(ccerrors.PhaseFrame, m.functionName, "GetOffset before prologue is sealed")
	}
	off, ok := m.variableOffsets[name]
	if !ok {
		return 0, ccerrors.NewInternal(ccerrors.PhaseFrame, m.functionName, "no frame slot for %q", name)
	}
	return off, nil
}

// GetSpillOffset returns the FP-relative offset of the nth spill slot
// (0-indexed), assigned immediately after locals and saved registers.
func (m *Manager) GetSpillOffset(slot int) (int, error) {
	if !m.prologueGenerated {
		return 0, ccerrors.NewInternal(ccerrors.PhaseFrame, m.functionName, "GetSpillOffset before prologue is sealed")
	}
	return m.nextSpillOffset + slot*8, nil
}

// FrameSize returns the final, 16-byte-aligned frame size.
func (m *Manager) FrameSize() int { return m.finalFrameSize }
