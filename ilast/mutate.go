package ilast

// This file is the single structural-mutation API for the IL tree (spec
// §4.B). Every pass that reshapes the tree — attaching, detaching,
// replacing or reordering nodes — must go through these functions rather
// than poking at Instruction.children directly: they are what keeps
// parent/child edges (invariant 1), the single-owner rule (invariant 2),
// cached flow-flags (invariant 3) and Variable use-counts (invariant 4)
// consistent.

// adjustVariableCounts walks subtree and adds delta to the LoadCount or
// StoreCount of every Variable it references, used when a subtree is
// attached (delta=+1) or detached (delta=-1).
func adjustVariableCounts(subtree *Instruction, delta int) {
	for n := range subtree.DescendantsAndSelf {
		if n.Variable == nil {
			continue
		}
		switch n.Kind {
		case KindLdLoc, KindLdLoca:
			n.Variable.LoadCount += delta
		case KindStLoc:
			n.Variable.StoreCount += delta
		}
	}
}

// AttachChild inserts child at position index among parent's children.
// child must currently be detached (parent == nil); attaching an
// already-attached node is an InvariantViolation — detach it first.
func AttachChild(parent, child *Instruction, index int) error {
	if child.parent != nil {
		return newInvariantViolation("single-parent",
			"attempted to attach %s which is already a child of %s", child.Kind, child.parent.Kind)
	}
	if index < 0 || index > len(parent.children) {
		return newInvariantViolation("index-range",
			"attach index %d out of range [0,%d] for parent %s", index, len(parent.children), parent.Kind)
	}

	parent.children = append(parent.children, nil)
	copy(parent.children[index+1:], parent.children[index:])
	parent.children[index] = child
	child.parent = parent

	for i := index; i < len(parent.children); i++ {
		parent.children[i].childIndex = i
	}

	adjustVariableCounts(child, +1)
	parent.InvalidateFlags()
	return nil
}

// AppendChild attaches child as parent's new last child.
func AppendChild(parent, child *Instruction) error {
	return AttachChild(parent, child, len(parent.children))
}

// DetachChild removes child from its parent's children, leaving child
// detached (Parent() == nil, ChildIndex() == -1) and reusable as the
// argument to a later AttachChild. It is an InvariantViolation to detach a
// node that has no parent.
func DetachChild(child *Instruction) error {
	parent := child.parent
	if parent == nil {
		return newInvariantViolation("detached-before-attach",
			"attempted to detach %s which has no parent", child.Kind)
	}
	index := child.childIndex

	adjustVariableCounts(child, -1)

	parent.children = append(parent.children[:index], parent.children[index+1:]...)
	for i := index; i < len(parent.children); i++ {
		parent.children[i].childIndex = i
	}

	child.parent = nil
	child.childIndex = -1

	parent.InvalidateFlags()
	return nil
}

// ReplaceWith detaches old and attaches replacement in its former position
// under the same parent. old must currently be attached; replacement must
// currently be detached.
func ReplaceWith(old, replacement *Instruction) error {
	parent := old.parent
	if parent == nil {
		return newInvariantViolation("detached-before-attach",
			"attempted to replace %s which has no parent", old.Kind)
	}
	index := old.childIndex
	if err := DetachChild(old); err != nil {
		return err
	}
	return AttachChild(parent, replacement, index)
}

// InsertBefore attaches newNode as sibling's immediate predecessor under
// sibling's parent.
func InsertBefore(sibling, newNode *Instruction) error {
	parent := sibling.parent
	if parent == nil {
		return newInvariantViolation("detached-before-attach",
			"attempted to insert before %s which has no parent", sibling.Kind)
	}
	return AttachChild(parent, newNode, sibling.childIndex)
}

// RemoveAt detaches and returns parent's i'th child.
func RemoveAt(parent *Instruction, i int) (*Instruction, error) {
	child := parent.Child(i)
	if child == nil {
		return nil, newInvariantViolation("index-range",
			"remove index %d out of range [0,%d) for parent %s", i, len(parent.children), parent.Kind)
	}
	if err := DetachChild(child); err != nil {
		return nil, err
	}
	return child, nil
}
