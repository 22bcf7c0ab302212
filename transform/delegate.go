package transform

import (
	"github.com/viant/ilcore/ilast"
	"github.com/viant/ilcore/matcher"
	"github.com/viant/ilcore/typesystem"
)

// DelegateConstructionPass recognizes `newobj SomeDelegate(target, ldftn
// Method)` and replaces it in place with a single DelegateRef node carrying
// the bound method and the target expression, the form the printer needs to
// render `new Action(target.Foo)` instead of a raw two-argument constructor
// call over an opaque method pointer.
type DelegateConstructionPass struct{}

func (DelegateConstructionPass) Name() string     { return "DelegateConstructionRecovery" }
func (DelegateConstructionPass) Idempotent() bool { return false }

func (p DelegateConstructionPass) Run(ctx Context, fn *ilast.ILFunction) (int, error) {
	if !ctx.Settings.DelegateConstruction {
		return 0, nil
	}
	var matches []*ilast.Instruction
	for _, container := range allBlockContainers(fn.Body) {
		for n := range container.Descendants {
			if n.Kind != ilast.KindNewObj || n.ChildCount() != 2 {
				continue
			}
			if n.Method == nil || !isDelegateType(n.Method.DeclaringType) {
				continue
			}
			var method *typesystem.Method
			if !matcher.MatchLdFtn(n.Child(1), &method) {
				continue
			}
			matches = append(matches, n)
		}
	}

	rewrites := 0
	for _, n := range matches {
		var method *typesystem.Method
		matcher.MatchLdFtn(n.Child(1), &method)
		target := n.Child(0)

		if err := ilast.DetachChild(target); err != nil {
			return rewrites, err
		}
		ref := ilast.New(ilast.KindDelegateRef)
		ref.Method = method
		if err := ilast.AppendChild(ref, target); err != nil {
			return rewrites, err
		}
		if err := ilast.ReplaceWith(n, ref); err != nil {
			return rewrites, err
		}
		rewrites++
	}
	return rewrites, nil
}

// isDelegateType reports whether t (or an ancestor in its Extends chain)
// is System.MulticastDelegate, the CLR's common base for every delegate type.
func isDelegateType(t *typesystem.Type) bool {
	for cur := t; cur != nil; cur = cur.Extends {
		if cur.QualifiedName() == "System.MulticastDelegate" {
			return true
		}
	}
	return false
}
