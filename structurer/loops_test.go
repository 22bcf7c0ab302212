package structurer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/ilcore/ilast"
)

// buildLoopFixture builds: entry -branch-> header; header -if-> {bodyBlk,
// exit}; bodyBlk -branch-> header (the back edge). This is the minimal
// shape with a distinct loop tail (bodyBlk != header), which is what
// FindLoops' backward predecessor walk is built to recognize.
func buildLoopFixture() (container, entry, header, bodyBlk, exit *ilast.Instruction) {
	entry = ilast.NewBlock()
	header = ilast.NewBlock()
	bodyBlk = ilast.NewBlock()
	exit = ilast.NewBlock()

	entryBranch := ilast.New(ilast.KindBranch)
	entryBranch.TargetBlock = header
	_ = ilast.AppendChild(entry, entryBranch)

	cond := ilast.New(ilast.KindLdcI4)
	trueArm := ilast.New(ilast.KindBranch)
	trueArm.TargetBlock = bodyBlk
	falseArm := ilast.New(ilast.KindBranch)
	falseArm.TargetBlock = exit
	ifInstr := ilast.New(ilast.KindIfInstruction)
	_ = ilast.AppendChild(ifInstr, cond)
	_ = ilast.AppendChild(ifInstr, trueArm)
	_ = ilast.AppendChild(ifInstr, falseArm)
	_ = ilast.AppendChild(header, ifInstr)

	backEdge := ilast.New(ilast.KindBranch)
	backEdge.TargetBlock = header
	_ = ilast.AppendChild(bodyBlk, backEdge)

	ret := ilast.New(ilast.KindReturn)
	_ = ilast.AppendChild(exit, ret)

	container = ilast.NewBlockContainer()
	_ = ilast.AppendChild(container, entry)
	_ = ilast.AppendChild(container, header)
	_ = ilast.AppendChild(container, bodyBlk)
	_ = ilast.AppendChild(container, exit)
	container.EntryPoint = entry
	return
}

func TestFindLoopsDetectsBackEdge(t *testing.T) {
	container, _, header, bodyBlk, _ := buildLoopFixture()

	loops, err := FindLoops(container)
	assert.NoError(t, err)
	assert.Len(t, loops, 1)
	assert.Same(t, header, loops[0].Header)
	assert.Len(t, loops[0].Body, 2)
	assert.True(t, loops[0].Body[header])
	assert.True(t, loops[0].Body[bodyBlk])
}

func TestFindLoopsNoBackEdgeIsEmpty(t *testing.T) {
	entry := ilast.NewBlock()
	exit := ilast.NewBlock()
	branch := ilast.New(ilast.KindBranch)
	branch.TargetBlock = exit
	_ = ilast.AppendChild(entry, branch)
	ret := ilast.New(ilast.KindReturn)
	_ = ilast.AppendChild(exit, ret)

	container := ilast.NewBlockContainer()
	_ = ilast.AppendChild(container, entry)
	_ = ilast.AppendChild(container, exit)
	container.EntryPoint = entry

	loops, err := FindLoops(container)
	assert.NoError(t, err)
	assert.Empty(t, loops)
}

func TestRewriteLoopNestsBodyAndRedirectsEdges(t *testing.T) {
	container, entry, header, bodyBlk, exit := buildLoopFixture()

	loops, err := FindLoops(container)
	assert.NoError(t, err)
	assert.Len(t, loops, 1)

	ok, err := RewriteLoop(container, loops[0])
	assert.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 3, container.ChildCount())
	assert.Same(t, entry, container.Child(0))
	assert.Same(t, exit, container.Child(2))

	wrapper := container.Child(1)
	assert.Equal(t, ilast.KindBlock, wrapper.Kind)
	assert.Equal(t, 1, wrapper.ChildCount())

	loopStmt := wrapper.Child(0)
	assert.Equal(t, ilast.KindLoopInstruction, loopStmt.Kind)
	assert.Equal(t, 1, loopStmt.ChildCount())

	inner := loopStmt.Child(0)
	assert.Equal(t, ilast.KindBlockContainer, inner.Kind)
	assert.Same(t, header, inner.EntryPoint)
	assert.ElementsMatch(t, []*ilast.Instruction{header, bodyBlk}, inner.Blocks())

	// entry's Branch now targets wrapper, not the relocated header.
	entryBranch := entry.Child(0)
	assert.Equal(t, ilast.KindBranch, entryBranch.Kind)
	assert.Same(t, wrapper, entryBranch.TargetBlock)

	// the back edge inside the body is untouched: still a Branch to header.
	backEdge := bodyBlk.Child(0)
	assert.Equal(t, ilast.KindBranch, backEdge.Kind)
	assert.Same(t, header, backEdge.TargetBlock)

	// the exit edge out of the loop becomes a Leave targeting inner.
	ifInstr := header.Child(0)
	falseArm := ifInstr.Child(2)
	assert.Equal(t, ilast.KindLeave, falseArm.Kind)
	assert.Same(t, inner, falseArm.TargetContainer)

	// the loop-internal branch stays a Branch to the body block.
	trueArm := ifInstr.Child(1)
	assert.Equal(t, ilast.KindBranch, trueArm.Kind)
	assert.Same(t, bodyBlk, trueArm.TargetBlock)
}

func TestRewriteLoopIgnoresAlreadyRewrittenLoop(t *testing.T) {
	container, _, header, bodyBlk, _ := buildLoopFixture()
	loop := &Loop{Header: header, Body: map[*ilast.Instruction]bool{header: true, bodyBlk: true}}

	ok, err := RewriteLoop(container, loop)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = RewriteLoop(container, loop)
	assert.NoError(t, err)
	assert.False(t, ok)
}
