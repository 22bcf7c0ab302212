package dataflow

import (
	"fmt"

	"github.com/viant/ilcore/ilast"
)

// Engine runs a forward fixed-point analysis with state type T over an
// ILAst tree rooted at a BlockContainer.
type Engine[T State[T]] struct {
	Transfer Transfer[T]
	Bottom   func() T
}

// Result holds, for each Block visited, the state on entry to that block
// (before its first instruction runs).
type Result[T State[T]] struct {
	EntryStates map[*ilast.Instruction]T
}

// Run analyzes container starting from entry (bound to container's
// EntryPoint's in-state), iterating the block worklist to a fixed point.
// It returns the per-block entry states; callers that also want
// per-instruction states can re-run Transfer along a block's children with
// the corresponding entry state.
func (e *Engine[T]) Run(container *ilast.Instruction, entry T) (*Result[T], error) {
	if container.Kind != ilast.KindBlockContainer {
		return nil, fmt.Errorf("dataflow: Run called on %s, want BlockContainer", container.Kind)
	}
	blocks := container.Blocks()
	entryStates := make(map[*ilast.Instruction]T, len(blocks))
	for _, b := range blocks {
		entryStates[b] = e.Bottom()
	}
	if container.EntryPoint != nil {
		entryStates[container.EntryPoint] = entry
	}

	worklist := make([]*ilast.Instruction, len(blocks))
	copy(worklist, blocks)
	queued := make(map[*ilast.Instruction]bool, len(blocks))
	for _, b := range blocks {
		queued[b] = true
	}

	for len(worklist) > 0 {
		b := worklist[0]
		worklist = worklist[1:]
		queued[b] = false

		out, err := e.runBlock(b, entryStates[b].Clone())
		if err != nil {
			return nil, err
		}
		for _, succ := range blockSuccessors(b) {
			cur, ok := entryStates[succ]
			if !ok {
				continue
			}
			if out.LessOrEqual(cur) {
				continue
			}
			cur.Join(out)
			entryStates[succ] = cur
			if !queued[succ] {
				worklist = append(worklist, succ)
				queued[succ] = true
			}
		}
	}

	return &Result[T]{EntryStates: entryStates}, nil
}

// runBlock threads state through one block's straight-line instructions
// (including any nested If/Switch/Try constructs), returning the state at
// the block's terminator.
func (e *Engine[T]) runBlock(block *ilast.Instruction, in T) (T, error) {
	state := in
	for i := 0; i < block.ChildCount(); i++ {
		var err error
		state, err = e.runInstruction(block.Child(i), state)
		if err != nil {
			return state, err
		}
		if state.IsUnreachable() {
			break
		}
	}
	return state, nil
}

// runInstruction applies Transfer to n and recurses into composite control
// constructs per spec §4.D's per-Kind traversal rules.
func (e *Engine[T]) runInstruction(n *ilast.Instruction, in T) (T, error) {
	switch n.Kind {
	case ilast.KindIfInstruction:
		if n.ChildCount() != 3 {
			return in, fmt.Errorf("dataflow: malformed IfInstruction")
		}
		condState, err := e.runInstruction(n.Child(0), in)
		if err != nil {
			return condState, err
		}
		trueIn := condState.Clone()
		falseIn := condState.Clone()
		trueOut, err := e.runInstruction(n.Child(1), trueIn)
		if err != nil {
			return trueOut, err
		}
		falseOut, err := e.runInstruction(n.Child(2), falseIn)
		if err != nil {
			return falseOut, err
		}
		joined := trueOut.Clone()
		joined.Join(falseOut)
		return e.Transfer(n, joined), nil

	case ilast.KindSwitchInstruction:
		var joined T
		first := true
		for _, section := range n.Children() {
			sectionIn := in.Clone()
			out, err := e.runInstruction(section, sectionIn)
			if err != nil {
				return out, err
			}
			if first {
				joined = out
				first = false
			} else {
				joined.Join(out)
			}
		}
		if first {
			joined = in.Clone()
		}
		return e.Transfer(n, joined), nil

	case ilast.KindTryCatch:
		if n.ChildCount() == 0 {
			return in, fmt.Errorf("dataflow: malformed TryCatch")
		}
		tryOut, err := e.runInstruction(n.Child(0), in.Clone())
		if err != nil {
			return tryOut, err
		}
		// Handlers see a state no more certain than any point within the try
		// region could have produced: meet the try's exit state with its
		// entry, since an exception may interrupt the try at any point.
		handlerIn := tryOut.Clone()
		handlerIn.Meet(in)
		joined := tryOut.Clone()
		for _, handler := range n.Children()[1:] {
			handlerOut, err := e.runInstruction(handler, handlerIn.Clone())
			if err != nil {
				return handlerOut, err
			}
			joined.Join(handlerOut)
		}
		return e.Transfer(n, joined), nil

	case ilast.KindTryFinally:
		if n.ChildCount() != 2 {
			return in, fmt.Errorf("dataflow: malformed TryFinally")
		}
		tryOut, err := e.runInstruction(n.Child(0), in.Clone())
		if err != nil {
			return tryOut, err
		}
		finallyOut, err := e.runInstruction(n.Child(1), tryOut.Clone())
		if err != nil {
			return finallyOut, err
		}
		return e.Transfer(n, finallyOut), nil

	case ilast.KindTryFault:
		if n.ChildCount() != 2 {
			return in, fmt.Errorf("dataflow: malformed TryFault")
		}
		tryOut, err := e.runInstruction(n.Child(0), in.Clone())
		if err != nil {
			return tryOut, err
		}
		// The fault handler only runs on the exceptional path; it never
		// contributes to the normal-completion state.
		return e.Transfer(n, tryOut), nil

	default:
		out := e.Transfer(n, in)
		for _, c := range n.Children() {
			var err error
			out, err = e.runInstruction(c, out)
			if err != nil {
				return out, err
			}
		}
		return out, nil
	}
}

// blockSuccessors returns the blocks directly reachable from block's
// terminator within the same container.
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
