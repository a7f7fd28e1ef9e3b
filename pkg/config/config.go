// Package config holds compiler-wide switches threaded explicitly
// through the pipeline as a value (spec §9 "replace singletons with a
// per-compilation Context value"), rather than read from globals.
package config

// Config controls optional compiler behavior. The zero value turns
// every option off (no NEON, no canaries, no bounds checks); Default
// returns the checked configuration.
type Config struct {
	// UseNEON selects the NEON fast path for vector code generation;
	// when false the vector generator uses its scalar fallback for
	// PAIR/FPAIR/QUAD/OCT. FOCT/PAIRS/FPAIRS are rejected by the
	// vector generator either way.
	UseNEON bool

	// NoNEONFallback, when true, makes an unsupported NEON lowering an
	// abort instead of a silent scalar fallback (spec §7).
	NoNEONFallback bool

	// EnableStackCanaries toggles prologue/epilogue canary emission
	// (spec §3, §4.5).
	EnableStackCanaries bool

	// EnableBoundsChecks is set by the CLI's --bounds-checks flag.
	// pkg/codegen does not read it: no length-vs-index check is
	// emitted before vector element reads or character indirection,
	// whatever its value.
	EnableBoundsChecks bool

	// JIT selects in-process JIT attribute tagging on call
	// instructions vs. plain relocation-based object emission.
	JIT bool
}

// Default returns the configuration used when the CLI supplies no
// flags: canaries and bounds checks on, NEON on, strict on unsupported
// NEON forms off (scalar fallback is silent by default).
func Default() Config {
	return Config{
		UseNEON:             true,
		NoNEONFallback:      false,
		EnableStackCanaries: true,
		EnableBoundsChecks:  true,
		JIT:                 false,
	}
}

// Stack canary constants (spec §6) — bit-exact, emitted by the
// prologue and matched by the epilogue.
const (
	UpperCanaryValue uint64 = 0x1122334455667788
	LowerCanaryValue uint64 = 0xAABBCCDDEEFF0011
)
