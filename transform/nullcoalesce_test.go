package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/ilcore/ilasm"
	"github.com/viant/ilcore/ilast"
)

// TestNullPropagationRecognizesOptionalChain exercises the `?.` shape:
// if (v == null) dest = null; else dest = v.M();
func TestNullPropagationRecognizesOptionalChain(t *testing.T) {
	src := `(method M (params v)
	  (locals dest)
	  (block entry
	    (if (comp.eq (ldloc v) (ldnull))
	      (then (stloc dest (ldnull)))
	      (else (stloc dest (callvirt M (ldloc v)))))))`

	forms, err := ilasm.Parse(src)
	assert.NoError(t, err)
	fn, err := ilasm.BuildFunction(forms[0])
	assert.NoError(t, err)

	pass := NullPropagationPass{}
	n, err := pass.Run(Context{Ctx: context.Background(), Settings: Settings{NullPropagation: true}}, fn)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)

	entry := fn.Body.EntryPoint
	result := entry.Child(0)
	assert.Equal(t, ilast.KindStLoc, result.Kind)
	assert.Equal(t, "dest", result.Variable.Name)
	assert.Equal(t, 1, result.ChildCount())

	coalesce := result.Child(0)
	assert.Equal(t, ilast.KindNullCoalesce, coalesce.Kind)
	assert.Equal(t, 2, coalesce.ChildCount())
	assert.Equal(t, ilast.KindLdLoc, coalesce.Child(0).Kind)
	assert.Equal(t, "v", coalesce.Child(0).Variable.Name)
	assert.Equal(t, ilast.KindCallVirt, coalesce.Child(1).Kind)
}

func TestNullPropagationIgnoresOrdinaryIfElse(t *testing.T) {
	src := `(method M (params v)
	  (locals dest)
	  (block entry
	    (if (comp.eq (ldloc v) (ldc.i4 0))
	      (then (stloc dest (ldc.i4 1)))
	      (else (stloc dest (ldc.i4 2))))))`

	forms, err := ilasm.Parse(src)
	assert.NoError(t, err)
	fn, err := ilasm.BuildFunction(forms[0])
	assert.NoError(t, err)

	pass := NullPropagationPass{}
	n, err := pass.Run(Context{Ctx: context.Background(), Settings: Settings{NullPropagation: true}}, fn)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}
