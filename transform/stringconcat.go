package transform

import "github.com/viant/ilcore/ilast"

// StringConcatPass folds a chain of `string.Concat(a, b)` /
// `String.Concat(a, b, c)` calls built up by the compiler as nested binary
// calls (`Concat(Concat(a, b), c)`) into a single flat Call node whose
// arguments are the chain's leaves in source order — the shape the
// high-level printer renders as `a + b + c` instead of nested calls.
type StringConcatPass struct{}

func (StringConcatPass) Name() string     { return "StringConcatRecovery" }
func (StringConcatPass) Idempotent() bool { return true }

func (p StringConcatPass) Run(ctx Context, fn *ilast.ILFunction) (int, error) {
	if !ctx.Settings.StringConcat {
		return 0, nil
	}
	rewrites := 0
	for _, container := range allBlockContainers(fn.Body) {
		for n := range container.Descendants {
			if isConcatCall(n) && hasNestedConcatArg(n) {
				if err := flattenConcat(n); err != nil {
					return rewrites, err
				}
				rewrites++
			}
		}
	}
	return rewrites, nil
}

func isConcatCall(n *ilast.Instruction) bool {
	return n.Kind == ilast.KindCall && n.Method != nil && containsName(n.Method.Name, "Concat")
}

func hasNestedConcatArg(n *ilast.Instruction) bool {
	for _, c := range n.Children() {
		if isConcatCall(c) {
			return true
		}
	}
	return false
}

// flattenConcat splices each nested Concat call's own arguments in place of
// itself within the parent's argument list, in source order.
func flattenConcat(n *ilast.Instruction) error {
	for i := 0; i < n.ChildCount(); {
		c := n.Child(i)
		if !isConcatCall(c) {
			i++
			continue
		}
		nestedArgs := make([]*ilast.Instruction, c.ChildCount())
		copy(nestedArgs, c.Children())
		if _, err := ilast.RemoveAt(n, i); err != nil {
			return err
		}
		for j, arg := range nestedArgs {
			if err := ilast.DetachChild(arg); err != nil {
				return err
			}
			if err := ilast.AttachChild(n, arg, i+j); err != nil {
				return err
			}
		}
	}
	return nil
}
