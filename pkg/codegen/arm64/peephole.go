// Package arm64 - ARM64-specific peephole optimizations.
//
// Design: adapted from the teacher's string-pattern-over-assembly-text
// PeepholeOptimizer to match directly against []instruction.Instruction
// (SemanticOp/Dest/Src/Src2, as encode.go's encoders fill them in)
// instead of re-tokenizing AssemblyText, and to respect
// instruction.Instruction.PeepholeExempt the way
// pkg/codegen's heap-allocation call sites rely on.
package arm64

import "github.com/GriffinCanCode/bcplc/pkg/instruction"

// PeepholeOptimizer folds small, provably-redundant instruction pairs
// out of a function's finished stream.
type PeepholeOptimizer struct{}

func NewPeepholeOptimizer() *PeepholeOptimizer {
	return &PeepholeOptimizer{}
}

// Optimize returns a new instruction slice with redundant adjacent
// instructions removed. A label pseudo-instruction is never removed
// and a PeepholeExempt instruction is never folded, since both mark a
// point the surrounding code relies on being preserved exactly.
func (po *PeepholeOptimizer) Optimize(stream []instruction.Instruction) []instruction.Instruction {
	out := make([]instruction.Instruction, 0, len(stream))
	i := 0
	for i < len(stream) {
		if i+1 < len(stream) {
			if keep, ok := po.foldPair(stream[i], stream[i+1]); ok {
				out = append(out, keep)
				i += 2
				continue
			}
		}
		out = append(out, stream[i])
		i++
	}
	return out
}

// foldPair reports whether one instruction of the pair (a, b) is
// redundant, returning the one to keep: the first of a mov/fmov swap,
// or the label after a branch that targets it.
func (po *PeepholeOptimizer) foldPair(a, b instruction.Instruction) (instruction.Instruction, bool) {
	if a.PeepholeExempt || b.PeepholeExempt {
		return instruction.Instruction{}, false
	}

	// mov X, Y immediately followed by mov Y, X: after the first move
	// X already holds Y's value, so the second move copies back what
	// Y still contains and can go; the first move stays.
	if isMoveOp(a.SemanticOp) && a.SemanticOp == b.SemanticOp &&
		a.Dest == b.Src && a.Src == b.Dest && a.Dest != a.Src {
		return a, true
	}

	// An unconditional branch to the label immediately following it:
	// the branch goes, the label stays for any other branch to it.
	if a.SemanticOp == "b" && b.IsLabelDefinition && a.TargetLabel == b.TargetLabel {
		return b, true
	}

	return instruction.Instruction{}, false
}

func isMoveOp(op string) bool {
	switch op {
	case "mov.reg", "mov", "fmov.reg":
		return true
	}
	return false
}

// OptimizeRedundantSelfMoves drops any single mov/fmov whose Dest
// equals Src — a register moved to itself, regardless of what
// surrounds it. Distinct from the pairwise fold above since it needs
// no neighbor to be dead code.
func (po *PeepholeOptimizer) OptimizeRedundantSelfMoves(stream []instruction.Instruction) []instruction.Instruction {
	out := make([]instruction.Instruction, 0, len(stream))
	for _, ins := range stream {
		if !ins.IsLabelDefinition && !ins.PeepholeExempt && isMoveOp(ins.SemanticOp) && ins.Dest == ins.Src {
			continue
		}
		out = append(out, ins)
	}
	return out
}
