package structurer

import "github.com/viant/ilcore/ilast"

// SortBlocks reorders container's blocks into reverse-postorder and drops
// unreachable ones. The mutation itself lives in ilast (it must go through
// the single structural-mutation API); this is the structuring-pass entry
// point callers in this package use so the whole recovery pipeline — loops,
// if/else, switch normalization, then reordering — reads as one package.
func SortBlocks(container *ilast.Instruction) error {
	return ilast.SortBlocks(container)
}
