package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/ilcore/ilasm"
	"github.com/viant/ilcore/ilast"
)

// TestTupleDeconstructMarksItemFieldRun exercises: stloc t(newobj ...);
// stloc a(ldobj(ldflda Item1(ldloc t))); stloc b(ldobj(ldflda Item2(ldloc
// t))) — a run of ≥2 Item-field reads off the same tuple local. Expected: a
// single TupleDeconstruct node replacing all three statements, carrying the
// tuple source expression and the two destination variables.
func TestTupleDeconstructMarksItemFieldRun(t *testing.T) {
	src := `(method M (params)
	  (locals t a b)
	  (block entry
	    (stloc t (newobj Ctor))
	    (stloc a (ldobj (ldflda Item1 (ldloc t))))
	    (stloc b (ldobj (ldflda Item2 (ldloc t))))))`

	forms, err := ilasm.Parse(src)
	assert.NoError(t, err)
	fn, err := ilasm.BuildFunction(forms[0])
	assert.NoError(t, err)

	pass := TupleDeconstructPass{}
	n, err := pass.Run(Context{Ctx: context.Background(), Settings: Settings{Tuples: true}}, fn)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)

	entry := fn.Body.EntryPoint
	assert.Equal(t, 1, entry.ChildCount())

	deconstruct := entry.Child(0)
	assert.Equal(t, ilast.KindTupleDeconstruct, deconstruct.Kind)
	assert.Equal(t, 3, deconstruct.ChildCount())
	assert.Equal(t, ilast.KindNewObj, deconstruct.Child(0).Kind)
	assert.Equal(t, ilast.KindStLoc, deconstruct.Child(1).Kind)
	assert.Equal(t, "a", deconstruct.Child(1).Variable.Name)
	assert.Equal(t, ilast.KindStLoc, deconstruct.Child(2).Kind)
	assert.Equal(t, "b", deconstruct.Child(2).Variable.Name)
}

func TestTupleDeconstructIgnoresSingleFieldRead(t *testing.T) {
	src := `(method M (params)
	  (locals t a)
	  (block entry
	    (stloc t (newobj Ctor))
	    (stloc a (ldobj (ldflda Item1 (ldloc t))))))`

	forms, err := ilasm.Parse(src)
	assert.NoError(t, err)
	fn, err := ilasm.BuildFunction(forms[0])
	assert.NoError(t, err)

	pass := TupleDeconstructPass{}
	n, err := pass.Run(Context{Ctx: context.Background(), Settings: Settings{Tuples: true}}, fn)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}
