// Package ilast defines the in-memory IL instruction tree ("ILAst") that the
// transform pipeline mutates: a tagged-union instruction node with typed
// child slots, flow-flag derivation, and a single structural-mutation API
// that keeps parent/child edges and variable use-counts consistent.
package ilast

import (
	"fmt"

	"github.com/viant/ilcore/typesystem"
)

// Instruction is the single node type for the IL tree. Kind selects which of
// the kind-specific fields below are meaningful; everything else is the zero
// value. Children are owned exclusively by their parent: a node appears in
// exactly one children slice at a time (spec invariant 2).
type Instruction struct {
	Kind Kind

	parent     *Instruction
	childIndex int
	children   []*Instruction

	flags      Flags
	flagsValid bool

	// Variable access (LdLoc, LdLoca, StLoc)
	Variable *Variable

	// Constants
	ValueI4 int32
	ValueStr string

	// Type-system bindings (Call/CallVirt/NewObj -> Method; Box/Unbox/NewArr/IsInst -> Type)
	Method *typesystem.Method
	Type   *typesystem.Type
	Field  *typesystem.Field

	// Arithmetic/comparison operator text, e.g. "+", "==", "!=".
	Operator string

	// Branch/Leave targets.
	TargetBlock     *Instruction // Branch target (a Block)
	TargetContainer *Instruction // Leave target (a BlockContainer)

	// BlockContainer
	EntryPoint *Instruction

	// Block
	IncomingEdgeCount int

	// SwitchSection
	Labels []int64 // nil means "default" (the complement of all other sections)

	// LockInstruction / UsingInstruction carry the guarded resource expression
	// as Resource and the guarded body as the sole child (Child(0)).
	Resource *Instruction

	// Comment
	Text string
}

// New creates a detached leaf instruction of the given kind.
func New(kind Kind) *Instruction {
	return &Instruction{Kind: kind, childIndex: -1}
}

// Parent returns the owning node, or nil for the function root.
func (n *Instruction) Parent() *Instruction { return n.parent }

// ChildIndex returns the index at which this node is held by its parent, or
// -1 if detached.
func (n *Instruction) ChildIndex() int { return n.childIndex }

// Children returns the node's direct children. Callers must not mutate the
// returned slice; use the mutation API instead.
func (n *Instruction) Children() []*Instruction { return n.children }

// Child returns the i'th child, or nil if out of range.
func (n *Instruction) Child(i int) *Instruction {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// ChildCount returns the number of direct children.
func (n *Instruction) ChildCount() int { return len(n.children) }

// Flags returns the node's flow-flags, recomputing and caching them if
// stale. Recomputation reads the children's Flags(), so stale descendants
// are recomputed along the way; ancestors are not touched.
func (n *Instruction) Flags() Flags {
	if !n.flagsValid {
		n.flags = deriveFlags(n)
		n.flagsValid = true
	}
	return n.flags
}

// InvalidateFlags marks this node's cached flags (and all ancestors', since
// flags are derived bottom-up) as stale. Called automatically by the
// mutation API; passes that set fields directly (ValueI4, Operator, ...)
// without going through it must call this themselves.
func (n *Instruction) InvalidateFlags() {
	for cur := n; cur != nil; cur = cur.parent {
		if !cur.flagsValid {
			return // already invalidated up to the root
		}
		cur.flagsValid = false
	}
}

// Descendants yields every node strictly below n, in pre-order.
func (n *Instruction) Descendants(yield func(*Instruction) bool) {
	for _, c := range n.children {
		if !yield(c) {
			return
		}
		stop := false
		c.Descendants(func(d *Instruction) bool {
			if !yield(d) {
				stop = true
				return false
			}
			return true
		})
		if stop {
			return
		}
	}
}

// DescendantsAndSelf yields n followed by Descendants(n), in pre-order.
func (n *Instruction) DescendantsAndSelf(yield func(*Instruction) bool) {
	if !yield(n) {
		return
	}
	n.Descendants(yield)
}

// Root walks up to the outermost ancestor (the ILFunction's body container).
func (n *Instruction) Root() *Instruction {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

func (n *Instruction) String() string {
	switch n.Kind {
	case KindLdLoc, KindLdLoca, KindStLoc:
		name := "?"
		if n.Variable != nil {
			name = n.Variable.Name
		}
		return fmt.Sprintf("%s(%s)", n.Kind, name)
	case KindLdcI4:
		return fmt.Sprintf("LdcI4(%d)", n.ValueI4)
	case KindLdStr:
		return fmt.Sprintf("LdStr(%q)", n.ValueStr)
	default:
		return n.Kind.String()
	}
}
