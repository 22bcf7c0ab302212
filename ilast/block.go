package ilast

import "fmt"

// NewBlock creates a detached, empty Block. Its instructions (including its
// terminator) are attached as ordinary children via the mutation API.
func NewBlock() *Instruction {
	return New(KindBlock)
}

// Terminator returns a block's last instruction, or nil if the block is
// still empty. A well-formed block's terminator is always one of Branch,
// Leave, Return, Throw, Rethrow, IfInstruction or SwitchInstruction.
func (n *Instruction) Terminator() *Instruction {
	if n.Kind != KindBlock || len(n.children) == 0 {
		return nil
	}
	return n.children[len(n.children)-1]
}

// NewBlockContainer creates a detached, empty BlockContainer. entryPoint is
// set once the first block is attached.
func NewBlockContainer() *Instruction {
	return New(KindBlockContainer)
}

// Blocks returns a container's direct Block children, in their current
// (possibly stale) order. Use SortBlocks to restore reverse-postorder.
func (n *Instruction) Blocks() []*Instruction {
	return n.children
}

// successors returns the blocks a block's terminator can branch to,
// resolved within the same container (Leave targets a container, not a
// block, and so is not a successor for this purpose).
func successors(block *Instruction) []*Instruction {
	term := block.Terminator()
	if term == nil {
		return nil
	}
	switch term.Kind {
	case KindBranch:
		if term.TargetBlock != nil {
			return []*Instruction{term.TargetBlock}
		}
	case KindIfInstruction:
		var out []*Instruction
		for _, c := range term.children[1:] {
			out = append(out, blockLeaves(c)...)
		}
		return out
	case KindSwitchInstruction:
		var out []*Instruction
		for _, section := range term.children {
			out = append(out, blockLeaves(section)...)
		}
		return out
	}
	return nil
}

// blockLeaves finds the Branch targets reachable by following an
// expression-position subtree (e.g. an IfInstruction arm that is itself a
// nested branch/block reference) down to its Branch leaves.
func blockLeaves(n *Instruction) []*Instruction {
	if n.Kind == KindBranch && n.TargetBlock != nil {
		return []*Instruction{n.TargetBlock}
	}
	var out []*Instruction
	for _, c := range n.children {
		out = append(out, blockLeaves(c)...)
	}
	return out
}

// SortBlocks reorders container's blocks into reverse-postorder starting
// from EntryPoint and drops any block unreachable from it, per spec §4.E
// ("block reordering via reverse-postorder sort"). Reordering changes each
// surviving block's ChildIndex but not its identity; dropped blocks are
// detached (their parent becomes nil).
func SortBlocks(container *Instruction) error {
	if container.Kind != KindBlockContainer {
		return fmt.Errorf("ilast: SortBlocks called on %s, want BlockContainer", container.Kind)
	}
	entry := container.EntryPoint
	if entry == nil {
		return fmt.Errorf("ilast: SortBlocks: container has no entry point")
	}

	visited := make(map[*Instruction]bool)
	var postorder []*Instruction
	var visit func(b *Instruction)
	visit = func(b *Instruction) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, s := range successors(b) {
			visit(s)
		}
		postorder = append(postorder, b)
	}
	visit(entry)

	ordered := make([]*Instruction, len(postorder))
	for i, b := range postorder {
		ordered[len(postorder)-1-i] = b
	}

	var unreachable []*Instruction
	for _, b := range container.children {
		if !visited[b] {
			unreachable = append(unreachable, b)
		}
	}

	for _, b := range unreachable {
		if err := DetachChild(b); err != nil {
			return err
		}
	}
	for i, b := range ordered {
		b.childIndex = i
	}
	container.children = ordered
	return nil
}
