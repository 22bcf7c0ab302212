package transform

import (
	"github.com/viant/ilcore/ilast"
	"github.com/viant/ilcore/matcher"
)

// UsingPass recognizes `stloc resource(value); try { body } finally {
// if (resource != null) resource.Dispose(); }` and rewrites it to
// UsingInstruction(value, body), the same shape as LockPass but guarding a
// Dispose() call on a single-definition variable instead of a Monitor
// enter/exit pair.
type UsingPass struct{}

func (UsingPass) Name() string     { return "UsingRecovery" }
func (UsingPass) Idempotent() bool { return false }

func (p UsingPass) Run(ctx Context, fn *ilast.ILFunction) (int, error) {
	if !ctx.Settings.UsingStatement {
		return 0, nil
	}
	rewrites := 0
	for _, container := range allBlockContainers(fn.Body) {
		for _, block := range container.Blocks() {
			n, err := p.rewriteBlock(block)
			if err != nil {
				return rewrites, err
			}
			rewrites += n
		}
	}
	return rewrites, nil
}

func (UsingPass) rewriteBlock(block *ilast.Instruction) (int, error) {
	rewrites := 0
	for i := block.ChildCount() - 1; i >= 1; i-- {
		tf := block.Child(i)
		if tf.Kind != ilast.KindTryFinally {
			continue
		}
		storeStmt := block.Child(i - 1)
		var resource *ilast.Variable
		var value *ilast.Instruction
		if !matcher.MatchStLoc(storeStmt, &resource, &value) || !resource.IsSingleAssign() {
			continue
		}
		if tf.ChildCount() != 2 {
			continue
		}
		tryBody, finallyBody := tf.Child(0), tf.Child(1)
		disposeBlock, ok := soleBlock(finallyBody)
		if !ok || disposeBlock.ChildCount() != 1 {
			continue
		}
		guard := disposeBlock.Child(0)
		var cond, trueArm, falseArm *ilast.Instruction
		var disposeVar *ilast.Variable
		if matcher.MatchIfInstruction(guard, &cond, &trueArm, &falseArm) {
			var left, right *ilast.Instruction
			if !matcher.MatchCompNotEquals(cond, &left, &right) {
				continue
			}
			if !matcher.MatchLdLoc(left, &disposeVar) {
				if !matcher.MatchLdLoc(right, &disposeVar) {
					continue
				}
			}
			if disposeVar != resource || falseArm.ChildCount() != 0 || trueArm.ChildCount() != 1 {
				continue
			}
			guard = trueArm.Child(0)
		}
		var disposeMethod interface{}
		var disposeArgs []*ilast.Instruction
		if !matchCallLike(guard, "Dispose", &disposeMethod, &disposeArgs) {
			continue
		}

		if _, err := ilast.RemoveAt(tryBody.Parent(), tryBody.ChildIndex()); err != nil {
			return rewrites, err
		}
		using := ilast.New(ilast.KindUsingInstruction)
		if err := ilast.DetachChild(value); err != nil {
			return rewrites, err
		}
		for idx := i; idx >= i-1; idx-- {
			if _, err := ilast.RemoveAt(block, idx); err != nil {
				return rewrites, err
			}
		}
		using.Resource = value
		if err := ilast.AppendChild(using, tryBody); err != nil {
			return rewrites, err
		}
		if err := ilast.AttachChild(block, using, i-1); err != nil {
			return rewrites, err
		}
		rewrites++
	}
	return rewrites, nil
}
