package structurer

import (
	"fmt"

	"golang.org/x/tools/container/intsets"

	"github.com/viant/ilcore/ilast"
)

// NormalizeSwitch checks a SwitchInstruction's sections for the label-set
// invariant spec §8 tests: no label appears in more than one non-default
// section, and at most one section is the default (nil Labels). It does not
// check that the labels cover the selector type's range (CoversRange checks
// a given range), does not add a missing default section, and leaves the
// switch unchanged.
//
// It reports a *LabelSetError if two sections' labels overlap or a second
// default is found; that is malformed input (spec §7's MalformedMetadata),
// not a structuring failure.
func NormalizeSwitch(sw *ilast.Instruction) error {
	if sw.Kind != ilast.KindSwitchInstruction {
		return fmt.Errorf("structurer: NormalizeSwitch called on %s, want SwitchInstruction", sw.Kind)
	}

	if sw.ChildCount() == 0 {
		return fmt.Errorf("structurer: SwitchInstruction has no selector")
	}

	seen := &intsets.Sparse{}
	var defaultSection *ilast.Instruction
	for _, section := range sw.Children()[1:] {
		if section.Kind != ilast.KindSwitchSection {
			return fmt.Errorf("structurer: switch child %s is not a SwitchSection", section.Kind)
		}
		if section.Labels == nil {
			if defaultSection != nil {
				return &LabelSetError{Reason: "more than one default section"}
			}
			defaultSection = section
			continue
		}
		for _, label := range section.Labels {
			v := int(label)
			if seen.Has(v) {
				return &LabelSetError{Reason: fmt.Sprintf("label %d appears in more than one section", label)}
			}
			seen.Insert(v)
		}
	}
	return nil
}

// LabelSetError reports a malformed switch label-set: an overlap between
// sections, or more than one default.
type LabelSetError struct {
	Reason string
}

func (e *LabelSetError) Error() string { return "structurer: malformed switch label set: " + e.Reason }

// CoversRange reports whether the union of a switch's explicit section
// labels plus its default section (if present) accounts for every value in
// [lo, hi] — the "disjoint partition of the integer range" check spec §4.E
// and §8 require of a fully normalized switch.
func CoversRange(sw *ilast.Instruction, lo, hi int64) bool {
	if sw.Kind != ilast.KindSwitchInstruction {
		return false
	}
	if sw.ChildCount() == 0 {
		return false
	}
	hasDefault := false
	covered := &intsets.Sparse{}
	for _, section := range sw.Children()[1:] {
		if section.Labels == nil {
			hasDefault = true
			continue
		}
		for _, label := range section.Labels {
			covered.Insert(int(label))
		}
	}
	if hasDefault {
		return true
	}
	for v := lo; v <= hi; v++ {
		if !covered.Has(int(v)) {
			return false
		}
	}
	return true
}
