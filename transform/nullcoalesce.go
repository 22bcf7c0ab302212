package transform

import (
	"github.com/viant/ilcore/ilast"
	"github.com/viant/ilcore/matcher"
)

// NullPropagationPass recognizes the `??` and `?.` lowerings: an
// IfInstruction testing a stored value against null where both arms
// eventually store into the same destination, one arm storing the
// original value and the other a fallback — the `??` shape — and a guard
// of the form `if (v == null) null else v.Member` — the `?.` shape. Both
// are rewritten to a single NullCoalesce-flavored expression attached in
// place of the IfInstruction; recognizing the narrower expression form
// rather than reshaping the block lets downstream passes treat the result
// as an ordinary expression.
type NullPropagationPass struct{}

func (NullPropagationPass) Name() string     { return "NullPropagationRecovery" }
func (NullPropagationPass) Idempotent() bool { return false }

func (p NullPropagationPass) Run(ctx Context, fn *ilast.ILFunction) (int, error) {
	if !ctx.Settings.NullPropagation {
		return 0, nil
	}
	rewrites := 0
	for _, container := range allBlockContainers(fn.Body) {
		for _, block := range container.Blocks() {
			for i := block.ChildCount() - 1; i >= 0; i-- {
				n := block.Child(i)
				if n.Kind != ilast.KindIfInstruction {
					continue
				}
				ok, err := foldNullCoalesce(block, n)
				if err != nil {
					return rewrites, err
				}
				if ok {
					rewrites++
				}
			}
		}
	}
	return rewrites, nil
}

// foldNullCoalesce recognizes `if (tested == null) A else B` where exactly
// one of A, B stores a literal null into the same destination as the other,
// and replaces the whole IfInstruction with `stloc dest (nullcoalesce
// tested, value)`.
func foldNullCoalesce(block, n *ilast.Instruction) (bool, error) {
	var cond, trueArm, falseArm *ilast.Instruction
	if !matcher.MatchIfInstruction(n, &cond, &trueArm, &falseArm) {
		return false, nil
	}
	var left, right *ilast.Instruction
	if !matcher.MatchCompEquals(cond, &left, &right) {
		return false, nil
	}
	var tested *ilast.Instruction
	switch {
	case matcher.MatchLdNull(left):
		tested = right
	case matcher.MatchLdNull(right):
		tested = left
	default:
		return false, nil
	}
	if trueArm.ChildCount() != 1 || falseArm.ChildCount() != 1 {
		return false, nil
	}

	nullArm, valueArm := trueArm, falseArm
	if !matcher.MatchLdNull(unwrapSingleStatement(nullArm.Child(0))) {
		nullArm, valueArm = falseArm, trueArm
		if !matcher.MatchLdNull(unwrapSingleStatement(nullArm.Child(0))) {
			return false, nil
		}
	}

	valueStmt := valueArm.Child(0)
	if valueStmt.Kind != ilast.KindStLoc || valueStmt.ChildCount() != 1 {
		return false, nil
	}
	dest := valueStmt.Variable
	valueExpr := valueStmt.Child(0)

	if err := ilast.DetachChild(tested); err != nil {
		return false, err
	}
	if err := ilast.DetachChild(valueExpr); err != nil {
		return false, err
	}

	coalesce := ilast.New(ilast.KindNullCoalesce)
	if err := ilast.AppendChild(coalesce, tested); err != nil {
		return false, err
	}
	if err := ilast.AppendChild(coalesce, valueExpr); err != nil {
		return false, err
	}

	result := ilast.New(ilast.KindStLoc)
	result.Variable = dest
	if err := ilast.AppendChild(result, coalesce); err != nil {
		return false, err
	}

	if err := ilast.ReplaceWith(n, result); err != nil {
		return false, err
	}
	return true, nil
}

func unwrapSingleStatement(n *ilast.Instruction) *ilast.Instruction {
	if n == nil {
		return nil
	}
	if n.Kind == ilast.KindStLoc && n.ChildCount() == 1 {
		return n.Child(0)
	}
	return n
}
