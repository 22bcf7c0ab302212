package transform

import (
	"github.com/viant/ilcore/ilast"
	"github.com/viant/ilcore/structurer"
)

// StructurePass runs the control-flow structurer over every BlockContainer
// in a function: if/else recovery from branch+fallthrough pairs
// (structurer.RecoverIfElse) runs first, since until it folds a block's
// stray conditional branch into its terminating IfInstruction, the
// terminator-only successor view structurer.SortBlocks and
// structurer.FindLoops read cannot see the conditional edge at all. Block
// reordering and natural-loop recovery (structurer.FindLoops +
// structurer.RewriteLoop) then run over the now-structured terminators.
// This pass runs first in the pipeline, before any block-local idiom pass
// gets a look at the tree. It is idempotent: RewriteLoop builds a fresh
// nested BlockContainer for each recovered loop, and a later fixpoint
// iteration is what recurses the same structuring into it.
type StructurePass struct{}

func (StructurePass) Name() string     { return "ControlFlowStructuring" }
func (StructurePass) Idempotent() bool { return true }

func (p StructurePass) Run(ctx Context, fn *ilast.ILFunction) (int, error) {
	if !ctx.Settings.ControlFlowStructuring {
		return 0, nil
	}
	rewrites := 0
	for _, container := range allBlockContainers(fn.Body) {
		if container.EntryPoint == nil {
			continue
		}

		for _, block := range container.Blocks() {
			ok, err := structurer.RecoverIfElse(container, block)
			if err != nil {
				return rewrites, err
			}
			if ok {
				rewrites++
			}
		}

		if err := structurer.SortBlocks(container); err != nil {
			return rewrites, err
		}

		loops, err := structurer.FindLoops(container)
		if err != nil {
			return rewrites, err
		}
		for _, loop := range loops {
			ok, err := structurer.RewriteLoop(container, loop)
			if err != nil {
				return rewrites, err
			}
			if ok {
				rewrites++
			}
		}
	}
	return rewrites, nil
}
