package codegen

import (
	"fmt"

	"github.com/GriffinCanCode/bcplc/pkg/codegen/arm64"
)

// dataLabel returns a deduplicated label for one literal payload
// (spec §4.7: actual byte-layout emission for string/table literals is
// a DataGenerator-style component out of this package's scope — it
// only registers what must be materialized and emits the
// ADRP+ADD/lo12 address computation a linker-side emitter can resolve
// against).
func (g *Generator) dataLabel(kind, content string) string {
	key := kind + "\x00" + content
	if l, ok := g.stringLabels[key]; ok {
		return l
	}
	l := fmt.Sprintf("L_data_%s_%d", kind, g.nextDataLabel)
	g.nextDataLabel++
	g.stringLabels[key] = l
	return l
}

func (g *Generator) runtimeTableOffset(name string) int {
	if off, ok := g.runtimeTableSlot[name]; ok {
		return off
	}
	off := g.nextRuntimeTableOff
	g.runtimeTableSlot[name] = off
	g.nextRuntimeTableOff += 8
	return off
}

// emitRuntimeCall routes a call to a named runtime-ABI function (spec
// §J's JIT call-sequencing plan): outside JIT mode this is always a
// direct BL; in JIT mode, a published veneer is called directly and
// everything else is resolved through the X19-relative runtime
// function table pkg/veneer.ResolveCallTarget describes.
func (fg *funcGen) emitRuntimeCall(name string) error {
	if fg.g.cfg.JIT && fg.g.labels.IsRuntimeFunction(name) {
		if fg.g.veneers.IsPublished(name) {
			label, loadFromTable, offset := fg.g.veneers.ResolveCallTarget(name, fg.g.runtimeTableOffset(name), true)
			if !loadFromTable {
				fg.stream.Emit(arm64.BL(label))
				return nil
			}
			fg.stream.Emit(arm64.LdrImm("X16", runtimeTableReg, offset))
			fg.stream.Emit(arm64.BLR("X16"))
			return nil
		}
		offset := fg.g.runtimeTableOffset(name)
		fg.stream.Emit(arm64.LdrImm("X16", runtimeTableReg, offset))
		fg.stream.Emit(arm64.BLR("X16"))
		return nil
	}
	fg.stream.Emit(arm64.BL(name))
	return nil
}
