// Package veneer implements the label manager and veneer manager
// (spec §4, "Veneer and Label Manager"): fresh-label generation,
// forward-reference bookkeeping, and the trampoline sequence that
// brings an external runtime symbol into BL range.
//
// Design: grounded on the teacher's pkg/codegen/arm64 Generator's
// label-counter convention (sequential L<n> names) and the linker
// package's symbol-table shape, adapted to emit binary trampolines via
// pkg/codegen/arm64 instead of text labels. github.com/google/uuid
// tags each LabelManager instance with a per-compilation-unit id so
// that linking multiple compiled units never collides their L<n>
// label names (spec §4 "Labels are unique strings").
package veneer

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/GriffinCanCode/bcplc/pkg/ccerrors"
	"github.com/GriffinCanCode/bcplc/pkg/codegen/arm64"
	"github.com/GriffinCanCode/bcplc/pkg/instruction"
)

// LabelManager generates fresh labels and tracks their final byte
// offsets once the instruction stream is laid out.
type LabelManager struct {
	unitTag  string // short per-compilation-unit disambiguator
	counter  int
	offsets  map[string]int
	runtime  map[string]bool // names recognised as runtime-ABI functions (spec §6)
}

// NewLabelManager returns a label manager tagged with a fresh
// per-compilation-unit id, so `L0` from one compiled unit can never
// collide with `L0` from another when both are linked together.
func NewLabelManager() *LabelManager {
	tag := uuid.New().String()[:8]
	return &LabelManager{unitTag: tag, offsets: map[string]int{}, runtime: defaultRuntimeNames()}
}

func defaultRuntimeNames() map[string]bool {
	names := []string{
		"GETVEC", "FGETVEC", "BCPL_ALLOC_WORDS", "BCPL_ALLOC_CHARS",
		"BCPL_LIST_GET_NTH", "BCPL_FREE_LIST", "returnNodeToFreelist",
		"WRITEF", "WRITEF1", "WRITEF2", "WRITEF3", "WRITEF4", "WRITEF5", "WRITEF6", "WRITEF7",
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// Fresh returns a new unique label name, "L<unitTag>_<n>".
func (lm *LabelManager) Fresh() string {
	name := "L" + lm.unitTag + "_" + strconv.Itoa(lm.counter)
	lm.counter++
	return name
}

// IsRuntimeFunction reports whether name is one of the fixed runtime
// ABI symbols the core calls by name (spec §6).
func (lm *LabelManager) IsRuntimeFunction(name string) bool { return lm.runtime[name] }

// RecordOffset publishes a label's final byte offset after linking.
func (lm *LabelManager) RecordOffset(label string, offset int) { lm.offsets[label] = offset }

// Offset returns a previously recorded label offset.
func (lm *LabelManager) Offset(label string) (int, bool) {
	off, ok := lm.offsets[label]
	return off, ok
}

// VeneerManager emits a trampoline per external runtime symbol
// reachable from the emitted code: load the absolute address via
// MOVZ/MOVK (at most four instructions) into a scratch register, then
// BR. The sequence is not padded to a fixed length. A direct
// `BL NAME_veneer` from user code is then always in 26-bit branch
// range regardless of how far the real symbol ends up after linking
// (spec §4).
type VeneerManager struct {
	labels    *LabelManager
	addresses map[string]uint64 // symbol name -> absolute address (set once known, e.g. by the loader)
	published map[string]bool
}

// NewVeneerManager returns a veneer manager sharing lm's label space.
func NewVeneerManager(lm *LabelManager) *VeneerManager {
	return &VeneerManager{labels: lm, addresses: map[string]uint64{}, published: map[string]bool{}}
}

// SetSymbolAddress records the absolute address a veneer for name
// should trampoline to, once the linker/loader resolves it.
func (vm *VeneerManager) SetSymbolAddress(name string, addr uint64) {
	vm.addresses[name] = addr
}

// VeneerLabel returns the "NAME_veneer" label a BL should target for
// an external symbol.
func VeneerLabel(name string) string { return name + "_veneer" }

// EmitTrampoline builds the instruction sequence for one veneer:
// MOVZ/MOVK (up to 4 instructions, one per 16-bit chunk) loading the
// absolute address into X16 (the AAPCS64 IP0 scratch register,
// conventionally used for veneers/PLT-style stubs) followed by BR X16.
func (vm *VeneerManager) EmitTrampoline(symbolName string) ([]instruction.Instruction, error) {
	addr, ok := vm.addresses[symbolName]
	if !ok {
		return nil, ccerrors.NewInternal(ccerrors.PhaseVeneer, symbolName, "no resolved address for veneer target")
	}
	label := VeneerLabel(symbolName)
	out := []instruction.Instruction{instruction.Label(label)}
	out = append(out, arm64.MovzMovkAbs64("X16", addr)...)
	out = append(out, arm64.BR("X16"))
	vm.published[label] = true
	return out, nil
}

// IsPublished reports whether a veneer for symbolName has already been
// emitted into the veneer region (the manager only emits one
// trampoline per distinct external symbol, no matter how many call
// sites reference it).
func (vm *VeneerManager) IsPublished(symbolName string) bool {
	return vm.published[VeneerLabel(symbolName)]
}

// ResolveCallTarget decides, for a call to name, whether to target the
// veneer label or fall back to an X19-relative runtime-table load
// (spec §4.7 step 4: "prefer the veneer label, else load the address
// from [X19, #offset] into a scratch register and BLR it").
// runtimeTableOffset is the byte offset in the X19-relative runtime
// function table, used only when no veneer is available yet.
func (vm *VeneerManager) ResolveCallTarget(name string, runtimeTableOffset int, hasVeneer bool) (label string, loadFromTable bool, offset int) {
	if hasVeneer {
		return VeneerLabel(name), false, 0
	}
	return "", true, runtimeTableOffset
}
