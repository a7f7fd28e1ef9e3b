// Package ccerrors defines the compiler's two error classes (spec
// §7): semantic errors, which accumulate into a list and never abort
// compilation below function granularity, and internal invariant
// failures, which are fatal and propagate to the top-level driver.
//
// Design: internal invariant failures use github.com/pkg/errors so a
// stack trace travels with them to the driver (the teacher's own
// error paths are bare fmt.Errorf with no wrapping story, and the
// spec requires the internal/semantic distinction explicitly —
// see DESIGN.md).
package ccerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Phase names the compilation phase an error originated in, used for
// log correlation (pkg/logger-style structured fields).
type Phase string

const (
	PhaseAnalysis  Phase = "analysis"
	PhaseSuperCall Phase = "supercall"
	PhaseLiveness  Phase = "liveness"
	PhaseRegalloc  Phase = "regalloc"
	PhaseFrame     Phase = "frame"
	PhaseCodegen   Phase = "codegen"
	PhaseVector    Phase = "vector"
	PhaseVeneer    Phase = "veneer"
)

// SemanticError is a recoverable diagnostic collected during
// analysis; compilation continues so additional diagnostics can
// surface.
type SemanticError struct {
	Phase    Phase
	Function string
	Message  string
}

func (e *SemanticError) Error() string {
	if e.Function != "" {
		return fmt.Sprintf("%s: %s: %s", e.Phase, e.Function, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Phase, e.Message)
}

// Diagnostics accumulates SemanticErrors across a compilation unit.
type Diagnostics struct {
	Errors []*SemanticError
}

// Add appends one diagnostic.
func (d *Diagnostics) Add(phase Phase, function, format string, args ...any) {
	d.Errors = append(d.Errors, &SemanticError{
		Phase:    phase,
		Function: function,
		Message:  fmt.Sprintf(format, args...),
	})
}

// HasErrors reports whether any diagnostic was recorded.
func (d *Diagnostics) HasErrors() bool { return len(d.Errors) > 0 }

// InternalError wraps an invariant failure detected mid-compilation
// (e.g. a symbol-resolution miss in code generation, an offset query
// before the prologue is sealed, an exhausted scratch-register pool).
// These abort compilation of the current function.
type InternalError struct {
	Phase    Phase
	Function string
	cause    error
}

func (e *InternalError) Error() string {
	if e.Function != "" {
		return fmt.Sprintf("internal error in %s (%s): %v", e.Function, e.Phase, e.cause)
	}
	return fmt.Sprintf("internal error (%s): %v", e.Phase, e.cause)
}

func (e *InternalError) Unwrap() error { return e.cause }

// NewInternal builds an InternalError from a format string, attaching
// a stack trace via github.com/pkg/errors so the top-level driver can
// print it for a bug report.
func NewInternal(phase Phase, function, format string, args ...any) *InternalError {
	return &InternalError{
		Phase:    phase,
		Function: function,
		cause:    errors.Errorf(format, args...),
	}
}

// WrapInternal attaches phase/function context to an existing error
// without discarding its stack trace.
func WrapInternal(phase Phase, function string, err error) *InternalError {
	return &InternalError{Phase: phase, Function: function, cause: errors.WithStack(err)}
}
