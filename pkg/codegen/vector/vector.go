// Package vector lowers the BCPL-dialect SIMD vector types (PAIR,
// FPAIR, QUAD, OCT, FOCT, PAIRS, FPAIRS) to AArch64 NEON or, when NEON
// is disabled or unsupported for a form, a scalar per-lane fallback
// (spec §4.8).
//
// Design: mirrors the teacher's NeonGen split between op emission and
// suffix/width bookkeeping (pkg/codegen/arm64/simd.go), rebased on
// binary instruction.Instruction values built through arm64.BitPatcher
// instead of text assembly lines.
package vector

import (
	"github.com/GriffinCanCode/bcplc/pkg/ccerrors"
	"github.com/GriffinCanCode/bcplc/pkg/codegen/arm64"
	"github.com/GriffinCanCode/bcplc/pkg/config"
	"github.com/GriffinCanCode/bcplc/pkg/instruction"
	"github.com/GriffinCanCode/bcplc/pkg/types"
)

// base encodings for the "Advanced SIMD three same" class (Q=0,
// 64-bit total register width — the PAIR/FPAIR/QUAD/OCT packed
// in-register forms), derived field by field the same way the scalar
// encoders in pkg/codegen/arm64 are: word = (Q<<30)|(U<<29)|(0b01110<<24)|
// (size<<22)|(1<<21)|(Rm<<16)|(opcode<<11)|(1<<10)|(Rn<<5)|Rd.
const (
	baseAddVec2S  uint32 = 0x0EA08400 // ADD Vd.2S, Vn.2S, Vm.2S  (U=0, size=10, opcode=10000)
	baseSubVec2S  uint32 = 0x2EA08400 // SUB Vd.2S, Vn.2S, Vm.2S  (U=1)
	baseMulVec2S  uint32 = 0x0EA09C00 // MUL Vd.2S, Vn.2S, Vm.2S  (opcode=10011)
	baseFaddVec2S uint32 = 0x0E20D400 // FADD Vd.2S, Vn.2S, Vm.2S — matches spec §8 S5's literal 0x0e21d400 with Rm=1
	baseFsubVec2S uint32 = 0x0EA0D400 // FSUB Vd.2S, Vn.2S, Vm.2S (U=0, size<1>=1)
	baseFmulVec2S uint32 = 0x2E20DC00 // FMUL Vd.2S, Vn.2S, Vm.2S (U=1, opcode=11011)

	baseAddVec4H uint32 = 0x0E608400 // ADD Vd.4H, Vn.4H, Vm.4H (size=01)
	baseSubVec4H uint32 = 0x2E608400
	baseMulVec4H uint32 = 0x0E609C00

	baseAddVec8B uint32 = 0x0E208400 // ADD Vd.8B, Vn.8B, Vm.8B (size=00)
	baseSubVec8B uint32 = 0x2E208400

	baseAddVec4S uint32 = 0x4EA08400 // Q=1 variants for FOCT's 4x32 float view split into two 2S ops is avoided; 4S int kept for completeness
	baseFaddVec4S uint32 = 0x4E20D400

	// DUP (general): broadcast a scalar general-purpose register into
	// every lane. word = 0 Q 0 01110 000 imm5 0 0 0 0 1 1 Rn Rd.
	baseDupGeneral2S uint32 = 0x0E040C00 // imm5=00100 selects S-sized (32-bit) lanes, Q=0
	baseDupGeneral4H  uint32 = 0x0E020C00
	baseDupGeneral8B  uint32 = 0x0E010C00
)

// Lane is a symbolic SIMD register name ("V0".."V31"); the arm64
// encoders accept these directly since regNum parses the V/D/Q prefix.

// Add lowers a lane-wise integer/float add for vec (one of PAIR, QUAD,
// OCT, FPAIR) into NEON instructions. FOCT and PAIRS/FPAIRS (heap
// vectors) are not lowered here — see HeapArith.
func Add(cfg config.Config, vec types.VarType, dest, src1, src2 string) ([]instruction.Instruction, error) {
	return lowerArith(cfg, vec, dest, src1, src2, "add")
}

func Sub(cfg config.Config, vec types.VarType, dest, src1, src2 string) ([]instruction.Instruction, error) {
	return lowerArith(cfg, vec, dest, src1, src2, "sub")
}

func Mul(cfg config.Config, vec types.VarType, dest, src1, src2 string) ([]instruction.Instruction, error) {
	return lowerArith(cfg, vec, dest, src1, src2, "mul")
}

func lowerArith(cfg config.Config, vec types.VarType, dest, src1, src2, op string) ([]instruction.Instruction, error) {
	if !vec.IsVector() {
		return nil, ccerrors.NewInternal(ccerrors.PhaseVector, "lowerArith", "type %s is not a vector", vec.String())
	}
	if vec.IsHeapVector() {
		return nil, ccerrors.NewInternal(ccerrors.PhaseVector, "lowerArith", "heap vector %s must use the scalar-loop path", vec.String())
	}
	if !cfg.UseNEON {
		if cfg.NoNEONFallback {
			return nil, ccerrors.NewInternal(ccerrors.PhaseVector, "lowerArith", "NEON disabled and fallback forbidden for %s", vec.String())
		}
		return scalarFallback(vec, dest, src1, src2, op)
	}
	var base uint32
	switch {
	case vec.Has(types.PAIR) && op == "add":
		base = baseAddVec2S
	case vec.Has(types.PAIR) && op == "sub":
		base = baseSubVec2S
	case vec.Has(types.PAIR) && op == "mul":
		base = baseMulVec2S
	case vec.Has(types.FPAIR) && op == "add":
		base = baseFaddVec2S
	case vec.Has(types.FPAIR) && op == "sub":
		base = baseFsubVec2S
	case vec.Has(types.FPAIR) && op == "mul":
		base = baseFmulVec2S
	case vec.Has(types.QUAD) && op == "add":
		base = baseAddVec4H
	case vec.Has(types.QUAD) && op == "sub":
		base = baseSubVec4H
	case vec.Has(types.QUAD) && op == "mul":
		base = baseMulVec4H
	case vec.Has(types.OCT) && op == "add":
		base = baseAddVec8B
	case vec.Has(types.OCT) && op == "sub":
		base = baseSubVec8B
	default:
		if cfg.NoNEONFallback {
			return nil, ccerrors.NewInternal(ccerrors.PhaseVector, "lowerArith", "no NEON encoding for %s %s", op, vec.String())
		}
		return scalarFallback(vec, dest, src1, src2, op)
	}
	enc := arm64.NewBitPatcher(base).Rm(uint32(arm64.Reg(src2))).Rn(uint32(arm64.Reg(src1))).Rd(uint32(arm64.Reg(dest))).Word()
	suffix := suffixFor(vec)
	asm := op
	if vec.IsFloat() {
		asm = "f" + op
	}
	return []instruction.Instruction{{
		Encoding:     enc,
		AssemblyText: asm + " " + dest + "." + suffix + ", " + src1 + "." + suffix + ", " + src2 + "." + suffix,
		SemanticOp:   "vec." + op,
		Dest:         arm64.Reg(dest), Src: arm64.Reg(src1), Src2: arm64.Reg(src2),
	}}, nil
}

// Div lowers a lane-wise float divide. AArch64 NEON has no vector
// floating-point divide instruction (only FRECPE/FRECPS reciprocal
// estimation), so FDIV always takes the scalar-per-lane path
// regardless of cfg.UseNEON — this is a real ISA gap, not a policy
// choice, and is recorded in DESIGN.md.
func Div(vec types.VarType, dest, src1, src2 string) ([]instruction.Instruction, error) {
	if !vec.IsFloat() {
		return nil, ccerrors.NewInternal(ccerrors.PhaseVector, "Div", "integer vector division is not supported for %s", vec.String())
	}
	return scalarFallback(vec, dest, src1, src2, "div")
}

// scalarFallback extracts each lane with SBFX/DUP-style narrow moves,
// computes the scalar op, and reinserts it with BFI — used when NEON
// is unavailable, disabled, or architecturally absent (FDIV).
func scalarFallback(vec types.VarType, dest, src1, src2, op string) ([]instruction.Instruction, error) {
	lanes := vec.Lanes()
	width := vec.LaneWidthBits()
	var out []instruction.Instruction
	for lane := 0; lane < lanes; lane++ {
		lsb := lane * width
		scratch1, scratch2 := "X9", "X10"
		if vec.IsFloat() {
			scratch1, scratch2 = "D9", "D10"
		}
		if vec.IsFloat() {
			out = append(out, arm64.FmovXtoD(scratch1, src1), arm64.FmovXtoD(scratch2, src2))
			switch op {
			case "add":
				out = append(out, arm64.FaddD(scratch1, scratch1, scratch2))
			case "sub":
				out = append(out, arm64.FsubD(scratch1, scratch1, scratch2))
			case "mul":
				out = append(out, arm64.FmulD(scratch1, scratch1, scratch2))
			case "div":
				out = append(out, arm64.FdivD(scratch1, scratch1, scratch2))
			}
			out = append(out, arm64.FmovDtoX(dest, scratch1))
			continue
		}
		out = append(out, arm64.Sbfx(scratch1, src1, lsb, width), arm64.Sbfx(scratch2, src2, lsb, width))
		switch op {
		case "add":
			out = append(out, arm64.AddReg(scratch1, scratch1, scratch2))
		case "sub":
			out = append(out, arm64.SubReg(scratch1, scratch1, scratch2))
		case "mul":
			out = append(out, arm64.MulReg(scratch1, scratch1, scratch2))
		}
		out = append(out, arm64.Bfi(dest, scratch1, lsb, width))
	}
	return out, nil
}

// ReadLane extracts a single lane as a scalar (SBFX for integer lanes,
// FMOV+FCVT for a FPAIR/FOCT float lane), grounded on spec §4.8's
// LaneAccessExpression lowering.
func ReadLane(vec types.VarType, dest, src string, lane int) ([]instruction.Instruction, error) {
	if lane < 0 || lane >= vec.Lanes() {
		return nil, ccerrors.NewInternal(ccerrors.PhaseVector, "ReadLane", "lane %d out of range for %s", lane, vec.String())
	}
	width := vec.LaneWidthBits()
	if !vec.IsFloat() {
		return []instruction.Instruction{arm64.Sbfx(dest, src, lane*width, width)}, nil
	}
	return []instruction.Instruction{
		arm64.FmovXtoD("D9", src),
		arm64.FcvtzsDtoX(dest, "D9"),
	}, nil
}

// WriteLane inserts a scalar value into one lane of vec (BFI for
// integer lanes).
func WriteLane(vec types.VarType, dest, value string, lane int) ([]instruction.Instruction, error) {
	if lane < 0 || lane >= vec.Lanes() {
		return nil, ccerrors.NewInternal(ccerrors.PhaseVector, "WriteLane", "lane %d out of range for %s", lane, vec.String())
	}
	width := vec.LaneWidthBits()
	if !vec.IsFloat() {
		return []instruction.Instruction{arm64.Bfi(dest, value, lane*width, width)}, nil
	}
	return []instruction.Instruction{
		arm64.ScvtfXtoD("D9", value),
		arm64.FmovDtoX(dest, "D9"),
	}, nil
}

// Dup broadcasts a general-purpose register into every lane of a
// PAIR/QUAD/OCT vector register.
func Dup(vec types.VarType, dest, src string) (instruction.Instruction, error) {
	var base uint32
	switch {
	case vec.Has(types.PAIR), vec.Has(types.FPAIR):
		base = baseDupGeneral2S
	case vec.Has(types.QUAD):
		base = baseDupGeneral4H
	case vec.Has(types.OCT):
		base = baseDupGeneral8B
	default:
		return instruction.Instruction{}, ccerrors.NewInternal(ccerrors.PhaseVector, "Dup", "no DUP form for %s", vec.String())
	}
	enc := arm64.NewBitPatcher(base).Rn(uint32(arm64.Reg(src))).Rd(uint32(arm64.Reg(dest))).Word()
	return instruction.Instruction{
		Encoding: enc, SemanticOp: "dup",
		AssemblyText: "dup " + dest + "." + suffixFor(vec) + ", " + src,
		Dest:         arm64.Reg(dest), Src: arm64.Reg(src), Src2: -1,
	}, nil
}

func suffixFor(vec types.VarType) string {
	switch {
	case vec.Has(types.PAIR), vec.Has(types.FPAIR):
		return "2s"
	case vec.Has(types.QUAD):
		return "4h"
	case vec.Has(types.OCT):
		return "8b"
	case vec.Has(types.FOCT):
		return "4s"
	}
	return "2s"
}

// HeapArith supplies the per-element scalar body for PAIRS/FPAIRS
// arithmetic (heap-resident lane arrays whose length is only known at
// run time, so no compile-time unrolling is possible), operating on
// pre-loaded scratch registers. It emits no loop control (counter,
// branch, pointer increment), and nothing in pkg/codegen calls it or
// emits such a loop.
func HeapArith(elemIsFloat bool, destReg, src1Reg, src2Reg, op string) []instruction.Instruction {
	if !elemIsFloat {
		switch op {
		case "add":
			return []instruction.Instruction{arm64.AddReg(destReg, src1Reg, src2Reg)}
		case "sub":
			return []instruction.Instruction{arm64.SubReg(destReg, src1Reg, src2Reg)}
		case "mul":
			return []instruction.Instruction{arm64.MulReg(destReg, src1Reg, src2Reg)}
		}
	}
	switch op {
	case "add":
		return []instruction.Instruction{arm64.FaddD(destReg, src1Reg, src2Reg)}
	case "sub":
		return []instruction.Instruction{arm64.FsubD(destReg, src1Reg, src2Reg)}
	case "mul":
		return []instruction.Instruction{arm64.FmulD(destReg, src1Reg, src2Reg)}
	case "div":
		return []instruction.Instruction{arm64.FdivD(destReg, src1Reg, src2Reg)}
	}
	return nil
}
