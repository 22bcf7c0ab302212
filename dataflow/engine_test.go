package dataflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/ilcore/ilast"
)

// varSet is a minimal join-semilattice State: the set of local-variable
// names known to be stored on every path reaching this program point
// (Join = union of "maybe assigned somewhere", used here only to exercise
// the engine's traversal rules, not to model true definite-assignment
// precisely).
type varSet struct {
	names       map[string]bool
	unreachable bool
}

func newVarSet() *varSet { return &varSet{names: map[string]bool{}} }

func (s *varSet) LessOrEqual(other *varSet) bool {
	for n := range s.names {
		if !other.names[n] {
			return false
		}
	}
	return true
}

func (s *varSet) Clone() *varSet {
	c := &varSet{names: make(map[string]bool, len(s.names)), unreachable: s.unreachable}
	for n := range s.names {
		c.names[n] = true
	}
	return c
}

func (s *varSet) ReplaceWith(other *varSet) {
	s.names = other.Clone().names
	s.unreachable = other.unreachable
}

func (s *varSet) Join(other *varSet) {
	for n := range other.names {
		s.names[n] = true
	}
	s.unreachable = s.unreachable && other.unreachable
}

func (s *varSet) Meet(other *varSet) {
	for n := range s.names {
		if !other.names[n] {
			delete(s.names, n)
		}
	}
	s.unreachable = s.unreachable || other.unreachable
}

func (s *varSet) IsUnreachable() bool { return s.unreachable }
func (s *varSet) MarkUnreachable()    { s.unreachable = true }

func stLocTransfer(n *ilast.Instruction, in *varSet) *varSet {
	if n.Kind == ilast.KindStLoc && n.Variable != nil {
		in.names[n.Variable.Name] = true
	}
	return in
}

func TestEngineIfJoinsBothArms(t *testing.T) {
	container := ilast.NewBlockContainer()
	entry := ilast.NewBlock()

	x := ilast.NewVariable(ilast.VariableKindLocal, 0, nil)
	x.Name = "x"
	y := ilast.NewVariable(ilast.VariableKindLocal, 1, nil)
	y.Name = "y"

	mkStLoc := func(v *ilast.Variable) *ilast.Instruction {
		n := ilast.New(ilast.KindStLoc)
		n.Variable = v
		lit := ilast.New(ilast.KindLdcI4)
		_ = ilast.AppendChild(n, lit)
		return n
	}

	trueArm := ilast.NewBlock()
	_ = ilast.AppendChild(trueArm, mkStLoc(x))
	falseArm := ilast.NewBlock()
	_ = ilast.AppendChild(falseArm, mkStLoc(y))

	cond := ilast.New(ilast.KindLdcI4)
	ifNode := ilast.New(ilast.KindIfInstruction)
	_ = ilast.AppendChild(ifNode, cond)
	_ = ilast.AppendChild(ifNode, trueArm)
	_ = ilast.AppendChild(ifNode, falseArm)
	_ = ilast.AppendChild(entry, ifNode)

	_ = ilast.AppendChild(container, entry)
	container.EntryPoint = entry

	engine := &Engine[*varSet]{
		Transfer: stLocTransfer,
		Bottom:   newVarSet,
	}
	result, err := engine.Run(container, newVarSet())
	assert.NoError(t, err)

	out, err := engine.runInstruction(entry.Child(0), result.EntryStates[entry].Clone())
	assert.NoError(t, err)
	assert.True(t, out.names["x"], "x assigned on the true arm should be visible after the join")
	assert.True(t, out.names["y"], "y assigned on the false arm should be visible after the join")
}

func TestEngineTryFaultOnlyPropagatesTryPath(t *testing.T) {
	container := ilast.NewBlockContainer()
	entry := ilast.NewBlock()

	x := ilast.NewVariable(ilast.VariableKindLocal, 0, nil)
	x.Name = "x"
	z := ilast.NewVariable(ilast.VariableKindLocal, 1, nil)
	z.Name = "z"

	mkStLoc := func(v *ilast.Variable) *ilast.Instruction {
		n := ilast.New(ilast.KindStLoc)
		n.Variable = v
		lit := ilast.New(ilast.KindLdcI4)
		_ = ilast.AppendChild(n, lit)
		return n
	}

	tryBody := ilast.NewBlock()
	_ = ilast.AppendChild(tryBody, mkStLoc(x))
	faultBody := ilast.NewBlock()
	_ = ilast.AppendChild(faultBody, mkStLoc(z))

	tf := ilast.New(ilast.KindTryFault)
	_ = ilast.AppendChild(tf, tryBody)
	_ = ilast.AppendChild(tf, faultBody)
	_ = ilast.AppendChild(entry, tf)

	_ = ilast.AppendChild(container, entry)
	container.EntryPoint = entry

	engine := &Engine[*varSet]{Transfer: stLocTransfer, Bottom: newVarSet}
	result, err := engine.Run(container, newVarSet())
	assert.NoError(t, err)

	out, err := engine.runInstruction(entry.Child(0), result.EntryStates[entry].Clone())
	assert.NoError(t, err)
	assert.True(t, out.names["x"])
	assert.False(t, out.names["z"], "the fault handler only runs on the exceptional path and must not contribute to normal-completion state")
}
