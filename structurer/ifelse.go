package structurer

import "github.com/viant/ilcore/ilast"

// RecoverIfElse rewrites a block ending in a conditional branch followed by
// an unconditional Branch into a single IfInstruction whose arms branch to
// the two distinct targets, the shape spec §4.E calls "if/else recovery
// from branch+fallthrough patterns". It does not look at where the two
// targets lead or whether they rejoin. It reports whether
// it matched and rewrote anything; on a non-match the container is left
// byte-identical.
func RecoverIfElse(container *ilast.Instruction, block *ilast.Instruction) (bool, error) {
	if container.Kind != ilast.KindBlockContainer {
		return false, errStructurer("RecoverIfElse", container.Kind)
	}
	term := block.Terminator()
	if term == nil || term.Kind != ilast.KindBranch {
		return false, nil
	}
	// A conditional branch is represented as an IfInstruction whose true-arm
	// is a Branch and whose false-arm is empty (falls through) — the
	// canonical IL-tree-builder output before structuring. Only a block
	// whose second-to-last instruction is such an IfInstruction with an
	// empty false arm is eligible.
	if block.ChildCount() < 2 {
		return false, nil
	}
	cond := block.Child(block.ChildCount() - 2)
	if cond.Kind != ilast.KindIfInstruction || cond.ChildCount() != 3 {
		return false, nil
	}
	trueArm, falseArm := cond.Child(1), cond.Child(2)
	if falseArm.ChildCount() != 0 {
		return false, nil // already structured, or not a candidate
	}

	var trueTarget *ilast.Instruction
	if trueArm.ChildCount() == 1 && trueArm.Child(0).Kind == ilast.KindBranch {
		trueTarget = trueArm.Child(0).TargetBlock
	}
	fallthroughTarget := term.TargetBlock
	if trueTarget == nil || fallthroughTarget == nil {
		return false, nil
	}
	if trueTarget == fallthroughTarget {
		return false, nil // condition is vacuous, not an if/else
	}

	// Build the replacement: If(condExpr) { goto trueTarget } else { goto fallthroughTarget }
	newTrue := ilast.NewBlock()
	newTrueBranch := ilast.New(ilast.KindBranch)
	newTrueBranch.TargetBlock = trueTarget
	if err := ilast.AppendChild(newTrue, newTrueBranch); err != nil {
		return false, err
	}
	newFalse := ilast.NewBlock()
	newFalseBranch := ilast.New(ilast.KindBranch)
	newFalseBranch.TargetBlock = fallthroughTarget
	if err := ilast.AppendChild(newFalse, newFalseBranch); err != nil {
		return false, err
	}

	condExprIdx := 0
	condExpr := cond.Child(condExprIdx)
	if _, err := ilast.RemoveAt(cond, condExprIdx); err != nil {
		return false, err
	}

	newIf := ilast.New(ilast.KindIfInstruction)
	if err := ilast.AppendChild(newIf, condExpr); err != nil {
		return false, err
	}
	if err := ilast.AppendChild(newIf, newTrue); err != nil {
		return false, err
	}
	if err := ilast.AppendChild(newIf, newFalse); err != nil {
		return false, err
	}

	if err := ilast.ReplaceWith(cond, newIf); err != nil {
		return false, err
	}
	if _, err := ilast.RemoveAt(block, block.ChildCount()-1); err != nil {
		return false, err
	}
	return true, nil
}
