package transform

import (
	"github.com/viant/ilcore/ilast"
	"github.com/viant/ilcore/matcher"
	"github.com/viant/ilcore/typesystem"
)

// InlinedInitializerPass folds `stloc tmp(newobj T(...)); stfld
// Field(ldloc tmp, value); ...; stloc dest(ldloc tmp)` runs — a
// compiler-introduced temporary used only to populate an object's fields
// before handing it to its final destination — into a single
// `stloc dest (newobj T(...) <field-inits>)`, appending each field store as
// a child of the NewObj with its instance operand dropped (the NewObj is
// now its own implicit instance), eliminating the temporary entirely.
// Requires tmp to be single-assign and used only by the field-store run and
// the final copy (LoadCount == len(fieldStores)+1).
type InlinedInitializerPass struct{}

func (InlinedInitializerPass) Name() string     { return "InlinedInitializerRecovery" }
func (InlinedInitializerPass) Idempotent() bool { return false }

func (p InlinedInitializerPass) Run(ctx Context, fn *ilast.ILFunction) (int, error) {
	if !ctx.Settings.InlinedInitializer {
		return 0, nil
	}
	rewrites := 0
	for _, container := range allBlockContainers(fn.Body) {
		for _, block := range container.Blocks() {
			for i := 0; i < block.ChildCount(); i++ {
				consumed, err := tryFoldInlinedInit(block, i)
				if err != nil {
					return rewrites, err
				}
				if consumed > 0 {
					rewrites++
					i += consumed - 1
				}
			}
		}
	}
	return rewrites, nil
}

func tryFoldInlinedInit(block *ilast.Instruction, i int) (int, error) {
	var tmp *ilast.Variable
	var ctor *ilast.Instruction
	if !matcher.MatchStLoc(block.Child(i), &tmp, &ctor) || ctor.Kind != ilast.KindNewObj {
		return 0, nil
	}
	if !tmp.IsSingleAssign() {
		return 0, nil
	}

	fieldStoreCount := 0
	j := i + 1
	for ; j < block.ChildCount(); j++ {
		stmt := block.Child(j)
		var addr, value *ilast.Instruction
		var fieldType *typesystem.Type
		if !matcher.MatchStObj(stmt, &addr, &value, &fieldType) {
			break
		}
		if addr.Kind != ilast.KindLdFlda || addr.ChildCount() != 1 {
			break
		}
		var v *ilast.Variable
		if !matcher.MatchLdLoc(addr.Child(0), &v) || v != tmp {
			break
		}
		fieldStoreCount++
	}
	if fieldStoreCount == 0 {
		return 0, nil
	}
	if j >= block.ChildCount() {
		return 0, nil
	}
	var dest *ilast.Variable
	var finalValue *ilast.Instruction
	if !matcher.MatchStLoc(block.Child(j), &dest, &finalValue) {
		return 0, nil
	}
	var finalSource *ilast.Variable
	if !matcher.MatchLdLoc(finalValue, &finalSource) || finalSource != tmp {
		return 0, nil
	}
	if tmp.LoadCount != fieldStoreCount+1 {
		return 0, nil // tmp escapes somewhere this run doesn't account for
	}

	fieldStmts := make([]*ilast.Instruction, fieldStoreCount)
	for k := 0; k < fieldStoreCount; k++ {
		fieldStmts[k] = block.Child(i + 1 + k)
	}

	if err := ilast.DetachChild(ctor); err != nil {
		return 0, err
	}

	fieldInits := make([]*ilast.Instruction, 0, fieldStoreCount)
	for _, stmt := range fieldStmts {
		var addr, value *ilast.Instruction
		var fieldType *typesystem.Type
		matcher.MatchStObj(stmt, &addr, &value, &fieldType)
		if err := ilast.DetachChild(addr); err != nil {
			return 0, err
		}
		if err := ilast.DetachChild(value); err != nil {
			return 0, err
		}
		if err := ilast.DetachChild(addr.Child(0)); err != nil {
			return 0, err
		}
		marker := ilast.New(ilast.KindStObj)
		if err := ilast.AppendChild(marker, addr); err != nil {
			return 0, err
		}
		if err := ilast.AppendChild(marker, value); err != nil {
			return 0, err
		}
		fieldInits = append(fieldInits, marker)
	}

	for k := j; k >= i; k-- {
		if _, err := ilast.RemoveAt(block, k); err != nil {
			return 0, err
		}
	}

	for _, marker := range fieldInits {
		if err := ilast.AppendChild(ctor, marker); err != nil {
			return 0, err
		}
	}

	result := ilast.New(ilast.KindStLoc)
	result.Variable = dest
	if err := ilast.AppendChild(result, ctor); err != nil {
		return 0, err
	}
	if err := ilast.AttachChild(block, result, i); err != nil {
		return 0, err
	}
	return j - i + 1, nil
}
