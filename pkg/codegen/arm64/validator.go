// Package arm64 - assembly validation and correctness verification.
//
// Design: adapted from the teacher's regex-over-assembly-text
// Validator to operate directly on []instruction.Instruction's
// decoded SemanticOp/Dest/Src/Src2 fields instead of re-parsing
// AssemblyText, since this package's encoders (encode.go) already
// fill those fields in at emission time and this Generator never
// produces raw assembly text as its primary output.
package arm64

import (
	"fmt"
	"strings"

	"github.com/GriffinCanCode/bcplc/pkg/instruction"
)

const spReg = 31

var calleeSavedRegs = map[int]bool{
	19: true, 20: true, 21: true, 22: true, 23: true,
	24: true, 25: true, 26: true, 27: true, 28: true,
	29: true, 30: true, // FP/LR
}

// ValidationError is one finding against an instruction at stream
// index Index.
type ValidationError struct {
	Index   int
	Message string
	Op      string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("instruction %d (%s): %s", e.Index, e.Op, e.Message)
}

// Validator accumulates errors and warnings found while walking one
// function's instruction stream.
type Validator struct {
	errors []ValidationError
	warns  []ValidationError
}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate runs every check over one function's instruction stream
// (label pseudo-instructions are skipped; they carry no decoded
// operands).
func (v *Validator) Validate(stream []instruction.Instruction) error {
	v.validateCalleeSavedBalance(stream)
	v.validateStackBalance(stream)
	v.detectRedundantMoves(stream)
	v.validateNoImmediateDestination(stream)

	if len(v.errors) > 0 {
		return v.formatErrors()
	}
	return nil
}

func (v *Validator) Errors() []ValidationError   { return v.errors }
func (v *Validator) Warnings() []ValidationError { return v.warns }

// validateCalleeSavedBalance checks that every callee-saved register
// written via stp.pre in a prologue is restored, via a matching
// ldp.post or an SP-based ldr, before the stream's final RET (spec §G:
// the AAPCS64 contract pkg/frame's prologue/epilogue pair implements;
// pkg/frame reloads FP/LR with two ldr from [SP]).
func (v *Validator) validateCalleeSavedBalance(stream []instruction.Instruction) {
	saved := map[int]int{} // register -> save count not yet matched by a restore
	for i, ins := range stream {
		if ins.IsLabelDefinition {
			continue
		}
		switch ins.SemanticOp {
		case "stp.pre":
			if calleeSavedRegs[ins.Dest] {
				saved[ins.Dest]++
			}
			if calleeSavedRegs[ins.Src2] {
				saved[ins.Src2]++
			}
		case "ldp.post":
			if calleeSavedRegs[ins.Dest] && saved[ins.Dest] > 0 {
				saved[ins.Dest]--
			}
			if calleeSavedRegs[ins.Src2] && saved[ins.Src2] > 0 {
				saved[ins.Src2]--
			}
		case "ldr":
			if ins.Src == spReg && calleeSavedRegs[ins.Dest] && saved[ins.Dest] > 0 {
				saved[ins.Dest]--
			}
		case "ret":
			outstanding := 0
			for _, n := range saved {
				outstanding += n
			}
			if outstanding > 0 {
				v.addError(i, ins.SemanticOp, fmt.Sprintf("%d callee-saved register save(s) not restored before RET", outstanding))
			}
		}
	}
}

// validateStackBalance checks that SP-adjusting sub.imm/add.imm pairs
// balance within one function (a rough proxy for "the prologue's
// frame-size subtraction has a matching epilogue addition").
func (v *Validator) validateStackBalance(stream []instruction.Instruction) {
	adjustments := 0
	for i, ins := range stream {
		if ins.IsLabelDefinition {
			continue
		}
		switch ins.SemanticOp {
		case "sub.imm":
			if ins.Dest == spReg {
				adjustments++
			}
		case "add.imm":
			if ins.Dest == spReg {
				adjustments--
			}
		case "ret":
			if adjustments > 0 {
				v.addWarn(i, ins.SemanticOp, fmt.Sprintf("stack pointer adjusted %d more time(s) down than up before RET", adjustments))
			}
			adjustments = 0
		}
	}
}

// detectRedundantMoves flags a mov/fmov whose source and destination
// are the same physical register — always a no-op, and usually a sign
// a caller forgot the `reg != scratch` guard materializeInto-style
// call sites use elsewhere in this module.
func (v *Validator) detectRedundantMoves(stream []instruction.Instruction) {
	for i, ins := range stream {
		if ins.IsLabelDefinition {
			continue
		}
		if !strings.HasPrefix(ins.SemanticOp, "mov") && ins.SemanticOp != "fmov.reg" {
			continue
		}
		if ins.Dest >= 0 && ins.Dest == ins.Src {
			v.addWarn(i, ins.SemanticOp, fmt.Sprintf("redundant move: register %d moved to itself", ins.Dest))
		}
	}
}

// validateNoImmediateDestination is a sanity check that the encoder
// never decoded Dest as -1 for an instruction whose SemanticOp
// implies a destination register (catches an encoder bug rather than
// a code-generation bug, but it is cheap to check alongside the rest).
func (v *Validator) validateNoImmediateDestination(stream []instruction.Instruction) {
	destOps := map[string]bool{
		"add": true, "add.imm": true, "sub": true, "sub.imm": true,
		"mul": true, "and": true, "orr": true, "eor": true, "ldr": true,
	}
	for i, ins := range stream {
		if ins.IsLabelDefinition || !destOps[ins.SemanticOp] {
			continue
		}
		if ins.Dest < 0 {
			v.addError(i, ins.SemanticOp, "instruction with a destination-bearing opcode decoded Dest as -1")
		}
	}
}

func (v *Validator) addError(idx int, op, msg string) {
	v.errors = append(v.errors, ValidationError{Index: idx, Op: op, Message: msg})
}

func (v *Validator) addWarn(idx int, op, msg string) {
	v.warns = append(v.warns, ValidationError{Index: idx, Op: op, Message: msg})
}

func (v *Validator) formatErrors() error {
	var sb strings.Builder
	sb.WriteString("instruction stream validation failed:\n")
	for _, err := range v.errors {
		sb.WriteString("  " + err.Error() + "\n")
	}
	return fmt.Errorf("%s", sb.String())
}

// ValidateStream is the package-level entry point
// pkg/codegen.Generator can call once a function body's stream is
// fully emitted.
func ValidateStream(stream []instruction.Instruction) error {
	return NewValidator().Validate(stream)
}
