package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/ilcore/ilast"
)

func buildLdcAdd(left, right int32) *ilast.Instruction {
	add := ilast.New(ilast.KindArithmetic)
	add.Operator = "+"
	l := ilast.New(ilast.KindLdcI4)
	l.ValueI4 = left
	r := ilast.New(ilast.KindLdcI4)
	r.ValueI4 = right
	_ = ilast.AppendChild(add, l)
	_ = ilast.AppendChild(add, r)
	return add
}

func TestMatchIdenticalShapeIsEqual(t *testing.T) {
	a := buildLdcAdd(1, 2)
	b := buildLdcAdd(1, 2)
	assert.True(t, Match(a, b))
}

func TestMatchDifferingConstantIsNotEqual(t *testing.T) {
	a := buildLdcAdd(1, 2)
	b := buildLdcAdd(1, 3)
	assert.False(t, Match(a, b))
}

func TestMatchDifferingShapeIsNotEqual(t *testing.T) {
	a := buildLdcAdd(1, 2)
	b := ilast.New(ilast.KindLdcI4)
	b.ValueI4 = 1
	assert.False(t, Match(a, b))
}

func TestMatchSameVariableIdentityRequired(t *testing.T) {
	v1 := ilast.NewVariable(ilast.VariableKindLocal, 0, nil)
	v2 := ilast.NewVariable(ilast.VariableKindLocal, 1, nil)

	ld1 := ilast.New(ilast.KindLdLoc)
	ld1.Variable = v1
	ld2 := ilast.New(ilast.KindLdLoc)
	ld2.Variable = v2

	assert.False(t, Match(ld1, ld2), "LdLoc nodes binding distinct Variables must not be considered equal")

	ld1Again := ilast.New(ilast.KindLdLoc)
	ld1Again.Variable = v1
	assert.True(t, Match(ld1, ld1Again))
}

func TestMatchSameNodeIsEqualToItself(t *testing.T) {
	a := buildLdcAdd(1, 2)
	assert.True(t, Match(a, a))
}

func TestMatchNilArgumentsAreNeverEqualUnlessBothNil(t *testing.T) {
	a := buildLdcAdd(1, 2)
	assert.False(t, Match(a, nil))
	assert.False(t, Match(nil, a))
	assert.True(t, Match(nil, nil))
}
