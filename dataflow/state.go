// Package dataflow implements the generic forward fixed-point analysis
// framework of spec §4.D: a join-semilattice State type threaded through
// an ILAst tree by an Engine that knows the traversal rule for every
// control-flow-bearing Kind (If/Switch/TryCatch/TryFinally/TryFault,
// Block/BlockContainer worklist iteration), so individual analyses (reaching
// definitions, null-state, capture analysis) only implement State and a
// per-instruction Transfer function.
package dataflow

import "github.com/viant/ilcore/ilast"

// State is a join-semilattice value an Engine propagates along control
// flow. Implementations are typically pointer types so ReplaceWith can
// mutate one slot in place.
type State[T any] interface {
	// LessOrEqual reports whether the receiver is subsumed by other (⊑).
	LessOrEqual(other T) bool
	// Clone returns an independent copy.
	Clone() T
	// ReplaceWith overwrites the receiver's contents with other's.
	ReplaceWith(other T)
	// Join computes the least upper bound of the receiver and other,
	// mutating the receiver in place (⊔).
	Join(other T)
	// Meet computes the greatest lower bound, mutating the receiver in
	// place (⊓) — used at TryCatch handler entry, where the incoming state
	// is only as certain as every instruction within the try region agrees.
	Meet(other T)
	// IsUnreachable reports whether the state represents dead code.
	IsUnreachable() bool
	// MarkUnreachable sets the state to the unreachable (bottom) value.
	MarkUnreachable()
}

// Transfer computes the outgoing state after executing instruction n, given
// its incoming state. Most analyses only care about specific Kinds and
// return in unchanged for everything else.
type Transfer[T State[T]] func(n *ilast.Instruction, in T) T
