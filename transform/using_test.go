package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/ilcore/ilasm"
	"github.com/viant/ilcore/ilast"
)

// TestUsingRecoversGuardedDispose exercises: stloc resource(newobj Ctor());
// try { Foo(); } finally { if (resource != null) resource.Dispose(); }.
// Expected: UsingInstruction(resource, Foo()), resource eliminated as a
// separate local reference.
func TestUsingRecoversGuardedDispose(t *testing.T) {
	src := `(method M (params)
	  (locals resource)
	  (block entry
	    (stloc resource (newobj Ctor))
	    (tryfinally
	      (try
	        (call Foo))
	      (finally
	        (if (comp.ne (ldloc resource) (ldnull))
	          (then (call Dispose (ldloc resource)))
	          (else))))))`

	forms, err := ilasm.Parse(src)
	assert.NoError(t, err)
	fn, err := ilasm.BuildFunction(forms[0])
	assert.NoError(t, err)

	pass := UsingPass{}
	n, err := pass.Run(Context{Ctx: context.Background(), Settings: Settings{UsingStatement: true}}, fn)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)

	entry := fn.Body.EntryPoint
	assert.Equal(t, 1, entry.ChildCount())
	using := entry.Child(0)
	assert.Equal(t, ilast.KindUsingInstruction, using.Kind)
	assert.NotNil(t, using.Resource)
	assert.Equal(t, ilast.KindNewObj, using.Resource.Kind)
	assert.Equal(t, 1, using.ChildCount())
	assert.Equal(t, "Foo", using.Child(0).Child(0).Method.Name)
}

func TestUsingDisabledLeavesTreeUntouched(t *testing.T) {
	src := `(method M (params)
	  (locals resource)
	  (block entry
	    (stloc resource (newobj Ctor))
	    (tryfinally
	      (try
	        (call Foo))
	      (finally
	        (if (comp.ne (ldloc resource) (ldnull))
	          (then (call Dispose (ldloc resource)))
	          (else))))))`

	forms, err := ilasm.Parse(src)
	assert.NoError(t, err)
	fn, err := ilasm.BuildFunction(forms[0])
	assert.NoError(t, err)

	pass := UsingPass{}
	n, err := pass.Run(Context{Ctx: context.Background(), Settings: Settings{UsingStatement: false}}, fn)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)

	entry := fn.Body.EntryPoint
	assert.Equal(t, 2, entry.ChildCount())
	assert.Equal(t, ilast.KindTryFinally, entry.Child(1).Kind)
}
