package structurer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/ilcore/ilast"
)

// buildIfElseFixture builds a block ending in `if (cond) branch trueTarget;
// branch fallthroughTarget` — the canonical pre-structuring shape: an
// IfInstruction with an empty false arm immediately followed by an
// unconditional Branch to the fallthrough block.
func buildIfElseFixture() (container, block, trueTarget, fallthroughTarget *ilast.Instruction) {
	trueTarget = ilast.NewBlock()
	fallthroughTarget = ilast.NewBlock()

	block = ilast.NewBlock()
	cond := ilast.New(ilast.KindLdcI4)
	trueArm := ilast.New(ilast.KindBlock)
	condBranch := ilast.New(ilast.KindBranch)
	condBranch.TargetBlock = trueTarget
	_ = ilast.AppendChild(trueArm, condBranch)
	falseArm := ilast.New(ilast.KindBlock)
	ifInstr := ilast.New(ilast.KindIfInstruction)
	_ = ilast.AppendChild(ifInstr, cond)
	_ = ilast.AppendChild(ifInstr, trueArm)
	_ = ilast.AppendChild(ifInstr, falseArm)
	_ = ilast.AppendChild(block, ifInstr)

	term := ilast.New(ilast.KindBranch)
	term.TargetBlock = fallthroughTarget
	_ = ilast.AppendChild(block, term)

	container = ilast.NewBlockContainer()
	_ = ilast.AppendChild(container, block)
	_ = ilast.AppendChild(container, trueTarget)
	_ = ilast.AppendChild(container, fallthroughTarget)
	container.EntryPoint = block
	return
}

func TestRecoverIfElseRewritesBranchFallthroughPair(t *testing.T) {
	container, block, trueTarget, fallthroughTarget := buildIfElseFixture()

	ok, err := RecoverIfElse(container, block)
	assert.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 1, block.ChildCount())
	newIf := block.Child(0)
	assert.Equal(t, ilast.KindIfInstruction, newIf.Kind)
	assert.Equal(t, 3, newIf.ChildCount())

	newTrue, newFalse := newIf.Child(1), newIf.Child(2)
	assert.Equal(t, 1, newTrue.ChildCount())
	assert.Same(t, trueTarget, newTrue.Child(0).TargetBlock)
	assert.Equal(t, 1, newFalse.ChildCount())
	assert.Same(t, fallthroughTarget, newFalse.Child(0).TargetBlock)
}

func TestRecoverIfElseIgnoresBlockWithoutTrailingBranch(t *testing.T) {
	block := ilast.NewBlock()
	ret := ilast.New(ilast.KindReturn)
	_ = ilast.AppendChild(block, ret)
	container := ilast.NewBlockContainer()
	_ = ilast.AppendChild(container, block)
	container.EntryPoint = block

	ok, err := RecoverIfElse(container, block)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestRecoverIfElseIgnoresVacuousCondition(t *testing.T) {
	target := ilast.NewBlock()
	block := ilast.NewBlock()
	cond := ilast.New(ilast.KindLdcI4)
	trueArm := ilast.New(ilast.KindBlock)
	condBranch := ilast.New(ilast.KindBranch)
	condBranch.TargetBlock = target
	_ = ilast.AppendChild(trueArm, condBranch)
	falseArm := ilast.New(ilast.KindBlock)
	ifInstr := ilast.New(ilast.KindIfInstruction)
	_ = ilast.AppendChild(ifInstr, cond)
	_ = ilast.AppendChild(ifInstr, trueArm)
	_ = ilast.AppendChild(ifInstr, falseArm)
	_ = ilast.AppendChild(block, ifInstr)

	term := ilast.New(ilast.KindBranch)
	term.TargetBlock = target // same as the true arm: vacuous
	_ = ilast.AppendChild(block, term)

	container := ilast.NewBlockContainer()
	_ = ilast.AppendChild(container, block)
	_ = ilast.AppendChild(container, target)
	container.EntryPoint = block

	ok, err := RecoverIfElse(container, block)
	assert.NoError(t, err)
	assert.False(t, ok)
}
