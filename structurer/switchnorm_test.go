package structurer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/ilcore/ilast"
)

func newSwitch(sections ...*ilast.Instruction) *ilast.Instruction {
	sw := ilast.New(ilast.KindSwitchInstruction)
	selector := ilast.New(ilast.KindLdcI4)
	_ = ilast.AppendChild(sw, selector)
	for _, s := range sections {
		_ = ilast.AppendChild(sw, s)
	}
	return sw
}

func newSection(labels ...int64) *ilast.Instruction {
	s := ilast.New(ilast.KindSwitchSection)
	s.Labels = labels
	return s
}

func TestNormalizeSwitchDisjointIsValid(t *testing.T) {
	sw := newSwitch(newSection(0, 1), newSection(2), newSection())
	assert.NoError(t, NormalizeSwitch(sw))
}

func TestNormalizeSwitchOverlapIsRejected(t *testing.T) {
	sw := newSwitch(newSection(0, 1), newSection(1, 2))
	err := NormalizeSwitch(sw)
	assert.Error(t, err)
	var labelErr *LabelSetError
	assert.ErrorAs(t, err, &labelErr)
}

func TestNormalizeSwitchDuplicateDefaultIsRejected(t *testing.T) {
	sw := newSwitch(newSection(), newSection())
	err := NormalizeSwitch(sw)
	assert.Error(t, err)
}

func TestCoversRangeWithDefaultAlwaysCovers(t *testing.T) {
	sw := newSwitch(newSection(0), newSection())
	assert.True(t, CoversRange(sw, 0, 100))
}

func TestCoversRangeWithoutDefaultRequiresFullRange(t *testing.T) {
	sw := newSwitch(newSection(0, 1, 2))
	assert.True(t, CoversRange(sw, 0, 2))
	assert.False(t, CoversRange(sw, 0, 3))
}
