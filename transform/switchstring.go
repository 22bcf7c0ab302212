package transform

import (
	"github.com/viant/ilcore/ilast"
	"github.com/viant/ilcore/matcher"
	"github.com/viant/ilcore/structurer"
)

// SwitchOnStringPass recognizes three compiler lowerings of a C#-style
// switch over a string value (spec §4.F), tried in this order on each
// block: cascading-ifs, legacy dictionary (TryGetValue), Roslyn hash. The
// legacy non-generic Hashtable lowering is not recognized. The cascading-ifs
// recognizer builds a new SwitchInstruction whose selector is a synthesized
// StringToInt(v, literals) node, sections keyed by literal ordinal, after
// checking for at least 3 comparisons against one variable, no duplicate
// literal, and a label set NormalizeSwitch accepts; the other two replace
// the selector of an existing switch with StringToInt(v). No recognizer
// checks that the blocks involved are single-entry. On a failed match the
// block is left untouched.
type SwitchOnStringPass struct{}

func (SwitchOnStringPass) Name() string     { return "SwitchOnStringRecovery" }
func (SwitchOnStringPass) Idempotent() bool { return true }

func (p SwitchOnStringPass) Run(ctx Context, fn *ilast.ILFunction) (int, error) {
	if !ctx.Settings.SwitchStatementOnString {
		return 0, nil
	}
	rewrites := 0
	for _, container := range allBlockContainers(fn.Body) {
		for _, block := range container.Blocks() {
			if ok, err := recognizeCascadingIfs(block); err != nil {
				return rewrites, err
			} else if ok {
				rewrites++
				continue
			}
			if ok, err := recognizeDictionaryDispatch(block); err != nil {
				return rewrites, err
			} else if ok {
				rewrites++
				continue
			}
			if ok, err := recognizeRoslynHashShape(block); err != nil {
				return rewrites, err
			} else if ok {
				rewrites++
			}
		}
	}
	return rewrites, nil
}

// caseMapping is one recovered (literal, target) pair, plus the default
// target once all cases are exhausted.
type caseMapping struct {
	literal string
	target  *ilast.Instruction
}

// recognizeCascadingIfs matches a run of
//
//	if (string.op_Equality(v, "lit1")) goto case1;
//	if (string.op_Equality(v, "lit2")) goto case2;
//	...
//	goto defaultCase;
//
// requiring at least 3 literal comparisons against the same variable v, all
// expressed as the block's trailing IfInstructions each with an empty false
// arm, terminated by an unconditional Branch to the default target.
func recognizeCascadingIfs(block *ilast.Instruction) (bool, error) {
	term := block.Terminator()
	if term == nil || term.Kind != ilast.KindBranch {
		return false, nil
	}
	defaultTarget := term.TargetBlock
	if defaultTarget == nil {
		return false, nil
	}

	var mappings []caseMapping
	var switchVar *ilast.Variable
	idx := block.ChildCount() - 2
	for idx >= 0 {
		ifNode := block.Child(idx)
		var cond, trueArm, falseArm *ilast.Instruction
		if !matcher.MatchIfInstruction(ifNode, &cond, &trueArm, &falseArm) || falseArm.ChildCount() != 0 {
			break
		}
		var left, right *ilast.Instruction
		if !matcher.MatchCompEquals(cond, &left, &right) {
			break
		}
		v, lit, ok := stringEqualityOperands(left, right)
		if !ok {
			break
		}
		if switchVar == nil {
			switchVar = v
		} else if switchVar != v {
			break
		}
		if trueArm.ChildCount() != 1 {
			break
		}
		var target *ilast.Instruction
		if !matcher.MatchBranch(trueArm.Child(0), &target) {
			break
		}
		mappings = append([]caseMapping{{literal: lit, target: target}}, mappings...)
		idx--
	}

	if len(mappings) < 3 {
		return false, nil
	}
	if duplicateLiteral(mappings) {
		return false, nil
	}

	sw := buildSwitchInstruction(switchVar, mappings, defaultTarget)
	if err := structurer.NormalizeSwitch(sw); err != nil {
		return false, nil
	}

	firstIdx := idx + 1
	for i := block.ChildCount() - 1; i >= firstIdx; i-- {
		if _, err := ilast.RemoveAt(block, i); err != nil {
			return false, err
		}
	}
	if err := ilast.AppendChild(block, sw); err != nil {
		return false, err
	}
	return true, nil
}

func stringEqualityOperands(left, right *ilast.Instruction) (v *ilast.Variable, literal string, ok bool) {
	if matcher.MatchLdLoc(left, &v) {
		if matcher.MatchLdStr(right, &literal) {
			return v, literal, true
		}
	}
	if matcher.MatchLdLoc(right, &v) {
		if matcher.MatchLdStr(left, &literal) {
			return v, literal, true
		}
	}
	return nil, "", false
}

func duplicateLiteral(mappings []caseMapping) bool {
	seen := make(map[string]bool, len(mappings))
	for _, m := range mappings {
		if seen[m.literal] {
			return true
		}
		seen[m.literal] = true
	}
	return false
}

// buildSwitchInstruction synthesizes SwitchInstruction(StringToInt(v,
// literals), sections...), one section per distinct target (cases sharing a
// target are merged into one section's label set), plus a default section.
func buildSwitchInstruction(v *ilast.Variable, mappings []caseMapping, defaultTarget *ilast.Instruction) *ilast.Instruction {
	literals := make([]string, len(mappings))
	for i, m := range mappings {
		literals[i] = m.literal
	}

	selector := ilast.New(ilast.KindStringToInt)
	ldLoc := ilast.New(ilast.KindLdLoc)
	ldLoc.Variable = v
	_ = ilast.AppendChild(selector, ldLoc)
	selector.ValueStr = joinLiterals(literals)

	sw := ilast.New(ilast.KindSwitchInstruction)
	_ = ilast.AppendChild(sw, selector)

	targetToOrdinals := map[*ilast.Instruction][]int64{}
	order := []*ilast.Instruction{}
	for i, m := range mappings {
		if _, seen := targetToOrdinals[m.target]; !seen {
			order = append(order, m.target)
		}
		targetToOrdinals[m.target] = append(targetToOrdinals[m.target], int64(i))
	}
	for _, target := range order {
		section := ilast.New(ilast.KindSwitchSection)
		section.Labels = targetToOrdinals[target]
		branch := ilast.New(ilast.KindBranch)
		branch.TargetBlock = target
		_ = ilast.AppendChild(section, branch)
		_ = ilast.AppendChild(sw, section)
	}

	defaultSection := ilast.New(ilast.KindSwitchSection)
	defaultSection.Labels = nil
	defaultBranch := ilast.New(ilast.KindBranch)
	defaultBranch.TargetBlock = defaultTarget
	_ = ilast.AppendChild(defaultSection, defaultBranch)
	_ = ilast.AppendChild(sw, defaultSection)

	return sw
}

func joinLiterals(literals []string) string {
	out := ""
	for i, l := range literals {
		if i > 0 {
			out += "\x00"
		}
		out += l
	}
	return out
}
