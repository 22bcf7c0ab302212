package transform

import (
	"github.com/viant/ilcore/ilast"
	"github.com/viant/ilcore/matcher"
	"github.com/viant/ilcore/typesystem"
)

// TupleDeconstructPass recognizes a run of field-reads off a single
// ValueTuple-typed local — `stloc t(value); stloc a(ldobj(ldflda Item1
// (ldloc t))); stloc b(ldobj(ldflda Item2 (ldloc t)))` — immediately
// following that local's single assignment, and folds it into a single
// TupleDeconstruct node carrying the tuple-valued expression and the
// destination variables, eliminating the temporary the same way
// InlinedInitializerPass eliminates its object-initializer temporary.
type TupleDeconstructPass struct{}

func (TupleDeconstructPass) Name() string     { return "TupleDeconstructRecovery" }
func (TupleDeconstructPass) Idempotent() bool { return false }

func (p TupleDeconstructPass) Run(ctx Context, fn *ilast.ILFunction) (int, error) {
	if !ctx.Settings.Tuples {
		return 0, nil
	}
	rewrites := 0
	for _, container := range allBlockContainers(fn.Body) {
		for _, block := range container.Blocks() {
			for i := 0; i < block.ChildCount(); i++ {
				ok, err := tryFoldTupleDeconstruct(block, i)
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

// tryFoldTupleDeconstruct folds the tuple-store-plus-item-reads run starting
// at block.Child(i), if present, into a single TupleDeconstruct node.
func tryFoldTupleDeconstruct(block *ilast.Instruction, i int) (bool, error) {
	tupleVar, consumed, ok := matchTupleStore(block, i)
	if !ok {
		return false, nil
	}
	if !tupleVar.IsSingleAssign() || tupleVar.LoadCount != consumed {
		// the tuple local is reused or escapes beyond these item reads.
		return false, nil
	}

	storeStmt := block.Child(i)
	var value *ilast.Instruction
	matcher.MatchStLoc(storeStmt, &tupleVar, &value)

	dests := make([]*ilast.Variable, 0, consumed)
	for j := i + 1; j <= i+consumed; j++ {
		var dest *ilast.Variable
		var fieldValue *ilast.Instruction
		matcher.MatchStLoc(block.Child(j), &dest, &fieldValue)
		dests = append(dests, dest)
	}

	if err := ilast.DetachChild(value); err != nil {
		return false, err
	}
	for j := i + consumed; j >= i; j-- {
		if _, err := ilast.RemoveAt(block, j); err != nil {
			return false, err
		}
	}

	deconstruct := ilast.New(ilast.KindTupleDeconstruct)
	if err := ilast.AppendChild(deconstruct, value); err != nil {
		return false, err
	}
	for _, dest := range dests {
		marker := ilast.New(ilast.KindStLoc)
		marker.Variable = dest
		if err := ilast.AppendChild(deconstruct, marker); err != nil {
			return false, err
		}
	}

	if err := ilast.AttachChild(block, deconstruct, i); err != nil {
		return false, err
	}
	return true, nil
}

// matchTupleStore reports whether a run starting at index i is a tuple
// local's assignment followed immediately by ≥2 Item-field reads off it
// into distinct destination variables.
func matchTupleStore(block *ilast.Instruction, i int) (tupleVar *ilast.Variable, consumed int, ok bool) {
	var value *ilast.Instruction
	if !matcher.MatchStLoc(block.Child(i), &tupleVar, &value) {
		return nil, 0, false
	}
	count := 0
	for j := i + 1; j < block.ChildCount(); j++ {
		var dest *ilast.Variable
		var fieldValue *ilast.Instruction
		if !matcher.MatchStLoc(block.Child(j), &dest, &fieldValue) {
			break
		}
		var fieldAddr *ilast.Instruction
		var fieldType *typesystem.Type
		if !matcher.MatchLdObj(fieldValue, &fieldAddr, &fieldType) {
			break
		}
		if fieldAddr.Kind != ilast.KindLdFlda {
			break
		}
		instance := fieldAddr.Child(0)
		var v *ilast.Variable
		if !matcher.MatchLdLoc(instance, &v) || v != tupleVar {
			break
		}
		count++
	}
	if count < 2 {
		return nil, 0, false
	}
	return tupleVar, count, true
}
