// Package structurer recovers high-level control-flow shapes from a
// reducible BlockContainer's block graph (spec §4.E): natural loops via
// dominator back-edges, if/else from branch+fallthrough pairs, and switch
// normalization from disjoint integer label sets. Every function here
// leaves the container unchanged if the shape it looks for isn't present.
package structurer

import "github.com/viant/ilcore/ilast"

// dominators computes, for each block reachable from entry, the set of
// blocks that dominate it (every path from entry to the block passes
// through them), via the standard iterative data-flow fixed point.
func dominators(entry *ilast.Instruction, blocks []*ilast.Instruction) map[*ilast.Instruction]map[*ilast.Instruction]bool {
	all := make(map[*ilast.Instruction]bool, len(blocks))
	for _, b := range blocks {
		all[b] = true
	}

	dom := make(map[*ilast.Instruction]map[*ilast.Instruction]bool, len(blocks))
	for _, b := range blocks {
		if b == entry {
			dom[b] = map[*ilast.Instruction]bool{entry: true}
		} else {
			dom[b] = cloneSet(all)
		}
	}

	predecessors := buildPredecessors(blocks)

	changed := true
	for changed {
		changed = false
		for _, b := range blocks {
			if b == entry {
				continue
			}
			var newDom map[*ilast.Instruction]bool
			for _, p := range predecessors[b] {
				if newDom == nil {
					newDom = cloneSet(dom[p])
					continue
				}
				newDom = intersect(newDom, dom[p])
			}
			if newDom == nil {
				newDom = map[*ilast.Instruction]bool{}
			}
			newDom[b] = true
			if !setEqual(newDom, dom[b]) {
				dom[b] = newDom
				changed = true
			}
		}
	}
	return dom
}

func buildPredecessors(blocks []*ilast.Instruction) map[*ilast.Instruction][]*ilast.Instruction {
	preds := make(map[*ilast.Instruction][]*ilast.Instruction)
	for _, b := range blocks {
		for _, s := range blockSuccessors(b) {
			preds[s] = append(preds[s], b)
		}
	}
	return preds
}

func blockSuccessors(block *ilast.Instruction) []*ilast.Instruction {
	term := block.Terminator()
	if term == nil {
		return nil
	}
	var out []*ilast.Instruction
	collectBranchTargets(term, &out)
	return out
}

func collectBranchTargets(n *ilast.Instruction, out *[]*ilast.Instruction) {
	if n.Kind == ilast.KindBranch && n.TargetBlock != nil {
		*out = append(*out, n.TargetBlock)
		return
	}
	for _, c := range n.Children() {
		collectBranchTargets(c, out)
	}
}

func cloneSet(s map[*ilast.Instruction]bool) map[*ilast.Instruction]bool {
	out := make(map[*ilast.Instruction]bool, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

func intersect(a, b map[*ilast.Instruction]bool) map[*ilast.Instruction]bool {
	out := make(map[*ilast.Instruction]bool)
	for k := range a {
		if b[k] {
			out[k] = true
		}
	}
	return out
}

func setEqual(a, b map[*ilast.Instruction]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// Loop is a natural loop: header dominates every block in Body, and at
// least one back-edge runs from a block in Body to header.
type Loop struct {
	Header *ilast.Instruction
	Body   map[*ilast.Instruction]bool
}

// FindLoops detects every natural loop in container by locating back edges
// (an edge b->h where h dominates b) and growing each header's body
// backward through predecessors, per spec §4.E ("natural-loop detection via
// dominator back-edges").
func FindLoops(container *ilast.Instruction) ([]*Loop, error) {
	if container.Kind != ilast.KindBlockContainer {
		return nil, errStructurer("FindLoops", container.Kind)
	}
	entry := container.EntryPoint
	if entry == nil {
		return nil, nil
	}
	blocks := container.Blocks()
	dom := dominators(entry, blocks)
	preds := buildPredecessors(blocks)

	var loops []*Loop
	for _, b := range blocks {
		for _, succ := range blockSuccessors(b) {
			if !dom[b][succ] {
				continue // not a back edge
			}
			header := succ
			body := map[*ilast.Instruction]bool{header: true, b: true}
			stack := []*ilast.Instruction{b}
			for len(stack) > 0 {
				cur := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				for _, p := range preds[cur] {
					if !body[p] {
						body[p] = true
						stack = append(stack, p)
					}
				}
			}
			loops = append(loops, &Loop{Header: header, Body: body})
		}
	}
	return loops, nil
}

// RewriteLoop turns a detected natural loop into an explicit structured
// loop: loop.Body's blocks are extracted out of container into a freshly
// built nested BlockContainer rooted at loop.Header, wrapped in a single
// LoopInstruction that takes the nested container's place at the header's
// old position — the same "high-level construct replaces the region it was
// recognized in" discipline transform.LockPass and transform.UsingPass use
// for their own recovered resources. A Branch from inside the body back to
// loop.Header needs no rewrite (header still lives in the nested
// container, so reaching it again is the loop's next iteration); a Branch
// that leaves the body becomes a Leave targeting the nested container,
// since that is the only node in the tree whose exit means "stop
// iterating" without also skipping whatever follows the loop in container.
func RewriteLoop(container *ilast.Instruction, loop *Loop) (bool, error) {
	if container.Kind != ilast.KindBlockContainer {
		return false, errStructurer("RewriteLoop", container.Kind)
	}
	if loop == nil || loop.Header == nil || len(loop.Body) == 0 {
		return false, nil
	}
	if loop.Header.Parent() != container {
		return false, nil // already rewritten, or belongs to a different container
	}

	var bodyBlocks []*ilast.Instruction
	for _, b := range container.Blocks() {
		if loop.Body[b] {
			bodyBlocks = append(bodyBlocks, b)
		}
	}
	if len(bodyBlocks) != len(loop.Body) {
		return false, nil // a body block isn't a direct child of container
	}
	insertAt := bodyBlocks[0].ChildIndex()

	for _, b := range bodyBlocks {
		if err := ilast.DetachChild(b); err != nil {
			return false, err
		}
	}

	// container now holds only the blocks outside the loop: safe to
	// redirect their entry edges before the body is nested under wrapper,
	// so this walk never touches the body's own internal back edge.
	wrapper := ilast.NewBlock()
	redirectEntryBranches(container, loop.Header, wrapper)
	if container.EntryPoint == loop.Header {
		container.EntryPoint = nil
	}

	inner := ilast.NewBlockContainer()
	for _, b := range bodyBlocks {
		if err := ilast.AppendChild(inner, b); err != nil {
			return false, err
		}
	}
	inner.EntryPoint = loop.Header

	for _, b := range bodyBlocks {
		redirectExitBranches(b, loop.Body, inner)
	}

	if err := ilast.SortBlocks(inner); err != nil {
		return false, err
	}

	loopStmt := ilast.New(ilast.KindLoopInstruction)
	if err := ilast.AppendChild(loopStmt, inner); err != nil {
		return false, err
	}
	if err := ilast.AppendChild(wrapper, loopStmt); err != nil {
		return false, err
	}
	if err := ilast.AttachChild(container, wrapper, insertAt); err != nil {
		return false, err
	}
	return true, nil
}

// redirectExitBranches retargets every Branch under b whose TargetBlock
// falls outside body into a Leave targeting inner, since those blocks no
// longer share a BlockContainer with their old target.
func redirectExitBranches(b *ilast.Instruction, body map[*ilast.Instruction]bool, inner *ilast.Instruction) {
	for n := range b.DescendantsAndSelf {
		if n.Kind != ilast.KindBranch || n.TargetBlock == nil {
			continue
		}
		if body[n.TargetBlock] {
			continue
		}
		n.TargetBlock = nil
		n.Kind = ilast.KindLeave
		n.TargetContainer = inner
		n.InvalidateFlags()
	}
}

// redirectEntryBranches retargets every Branch still in container (outside
// the newly built loop) that used to jump straight into the loop's old
// header to jump to wrapper instead, since header itself has moved into
// the nested container and is no longer reachable from container directly.
func redirectEntryBranches(container, oldHeader, wrapper *ilast.Instruction) {
	for _, b := range container.Blocks() {
		for n := range b.DescendantsAndSelf {
			if n.Kind == ilast.KindBranch && n.TargetBlock == oldHeader {
				n.TargetBlock = wrapper
				n.InvalidateFlags()
			}
		}
	}
}
