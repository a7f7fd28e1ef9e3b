// Command bcplc drives the compiler back-end pipeline this module
// implements: semantic analysis, SUPER-call desugaring, CFG/liveness,
// register allocation, call-frame layout, AArch64 code generation,
// and veneer/label resolution (spec §1). It replaces the teacher's
// flag-less cmd/typthon/main.go stub with a cobra-based driver.
//
// This back-end's input is an already-parsed *ast.Program — the
// lexer/parser that would turn BCPL source into one is an external
// collaborator this module does not implement (spec's explicit
// Non-goals). Lacking that front end, "compile" and "jit" run the
// pipeline against a bundled internal/testutil fixture program
// selected by --fixture, rather than against an arbitrary source
// file; this is documented rather than faked with a stub parser.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/bcplc/internal/testutil"
	"github.com/GriffinCanCode/bcplc/pkg/analysis"
	"github.com/GriffinCanCode/bcplc/pkg/ast"
	"github.com/GriffinCanCode/bcplc/pkg/ccerrors"
	"github.com/GriffinCanCode/bcplc/pkg/codegen"
	"github.com/GriffinCanCode/bcplc/pkg/config"
	"github.com/GriffinCanCode/bcplc/pkg/logger"
	"github.com/GriffinCanCode/bcplc/pkg/supercall"
	"github.com/GriffinCanCode/bcplc/pkg/symbols"
)

var (
	fixtureName    string
	noNEON         bool
	noBoundsChecks bool
	noCanaries     bool
	jitMode        bool
	verbose        bool
)

func fixtureProgram(name string) (*ast.Program, *symbols.ClassTable, error) {
	switch name {
	case "square":
		return testutil.SquareProgram(), symbols.NewClassTable(), nil
	case "sumTo":
		return testutil.CountdownProgram(), symbols.NewClassTable(), nil
	case "shapes":
		return &ast.Program{}, testutil.ShapeClassHierarchy(), nil
	}
	return nil, nil, fmt.Errorf("unknown fixture %q (want square, sumTo, or shapes)", name)
}

func buildConfig() config.Config {
	c := config.Default()
	c.UseNEON = !noNEON
	c.EnableBoundsChecks = !noBoundsChecks
	c.EnableStackCanaries = !noCanaries
	c.JIT = jitMode
	return c
}

// runPipeline takes a fixture through analysis, SUPER-call
// desugaring, and code generation, returning one CompiledFunction per
// function/routine/method (spec §4.7).
func runPipeline(cfg config.Config) ([]*codegen.CompiledFunction, error) {
	prog, ct, err := fixtureProgram(fixtureName)
	if err != nil {
		return nil, err
	}

	diags := &ccerrors.Diagnostics{}
	st := symbols.NewSymbolTable()
	az := analysis.New(st, ct, diags)

	logger.LogPhase("analysis")
	metrics := az.Analyze(prog)
	if diags.HasErrors() {
		return nil, fmt.Errorf("semantic analysis failed: %v", diags.Errors)
	}
	logger.LogPhaseComplete("analysis")

	logger.LogPhase("supercall")
	supercall.Transform(prog, ct, diags)
	if diags.HasErrors() {
		return nil, fmt.Errorf("SUPER-call desugaring failed: %v", diags.Errors)
	}
	logger.LogPhaseComplete("supercall")

	logger.LogPhase("codegen")
	gen := codegen.New(cfg, st, ct, metrics, diags)
	out, err := gen.GenerateProgram(prog)
	if err != nil {
		return nil, fmt.Errorf("code generation failed: %w", err)
	}
	return out, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bcplc",
		Short: "BCPL/AArch64 compiler back-end driver",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := logger.DefaultConfig()
			if verbose {
				cfg.Level = logger.LevelDebug
			}
			return logger.Init(cfg)
		},
	}
	root.PersistentFlags().StringVar(&fixtureName, "fixture", "sumTo", "bundled demo program: square, sumTo, or shapes")
	root.PersistentFlags().BoolVar(&noNEON, "no-neon", false, "disable the NEON vector fast path")
	root.PersistentFlags().BoolVar(&noBoundsChecks, "bounds-checks", false, "disable vector/char bounds checks (inverted: default on)")
	root.PersistentFlags().BoolVar(&noCanaries, "stack-canaries", false, "disable stack canary emission (inverted: default on)")
	root.PersistentFlags().BoolVar(&jitMode, "jit", false, "tag calls for JIT-mode runtime-table resolution instead of object-file relocation")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")

	root.AddCommand(newCompileCmd(), newJITCmd(), newDisasmHintCmd())
	return root
}

func newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile",
		Short: "Run the pipeline in object-emission mode and report instruction counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := buildConfig()
			cfg.JIT = false
			funcs, err := runPipeline(cfg)
			if err != nil {
				return err
			}
			for _, f := range funcs {
				fmt.Printf("%-24s %d instructions\n", f.Name, f.Stream.Len())
			}
			return nil
		},
	}
}

func newJITCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "jit",
		Short: "Run the pipeline in JIT mode (veneer/runtime-table call resolution)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := buildConfig()
			cfg.JIT = true
			funcs, err := runPipeline(cfg)
			if err != nil {
				return err
			}
			for _, f := range funcs {
				fmt.Printf("%-24s %d instructions (JIT)\n", f.Name, f.Stream.Len())
			}
			return nil
		},
	}
}

func newDisasmHintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm-hint",
		Short: "Print each emitted instruction's AssemblyText hint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := buildConfig()
			funcs, err := runPipeline(cfg)
			if err != nil {
				return err
			}
			for _, f := range funcs {
				fmt.Printf("; %s\n", f.Name)
				for _, ins := range f.Stream.Instructions() {
					if ins.IsLabelDefinition {
						fmt.Printf("%s:\n", ins.TargetLabel)
						continue
					}
					fmt.Printf("    %-40s ; %08x\n", ins.AssemblyText, ins.Encoding)
				}
			}
			return nil
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
