package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/ilcore/ilasm"
	"github.com/viant/ilcore/ilast"
	"github.com/viant/ilcore/typesystem"
)

var multicastDelegateType = &typesystem.Type{Name: "MulticastDelegate", Package: "System"}

// TestDelegateConstructionMarksTwoArgNewObjOfDelegateType exercises
// `newobj SomeDelegate(target, ldftn Method)` where SomeDelegate extends
// System.MulticastDelegate. Expected: the NewObj is replaced in place by a
// DelegateRef node carrying the bound method and the detached target.
func TestDelegateConstructionMarksTwoArgNewObjOfDelegateType(t *testing.T) {
	src := `(method M (params target)
	  (locals d)
	  (block entry
	    (stloc d (newobj ActionCtor (ldloc target) (ldftn DoWork)))))`

	forms, err := ilasm.Parse(src)
	assert.NoError(t, err)
	fn, err := ilasm.BuildFunction(forms[0])
	assert.NoError(t, err)

	entry := fn.Body.EntryPoint
	stloc := entry.Child(0)
	newObj := stloc.Child(0)
	assert.Equal(t, ilast.KindNewObj, newObj.Kind)
	newObj.Method.DeclaringType = &typesystem.Type{
		Name: "Action", Package: "System", Extends: multicastDelegateType,
	}

	pass := DelegateConstructionPass{}
	n, err := pass.Run(Context{Ctx: context.Background(), Settings: Settings{DelegateConstruction: true}}, fn)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)

	ref := stloc.Child(0)
	assert.Equal(t, ilast.KindDelegateRef, ref.Kind)
	assert.Equal(t, "DoWork", ref.Method.Name)
	assert.Equal(t, 1, ref.ChildCount())
	assert.Equal(t, ilast.KindLdLoc, ref.Child(0).Kind)
	assert.Equal(t, "target", ref.Child(0).Variable.Name)
}

func TestDelegateConstructionIgnoresOrdinaryTwoArgNewObj(t *testing.T) {
	src := `(method M (params a b)
	  (locals)
	  (block entry
	    (call UsePoint (newobj PointCtor (ldloc a) (ldloc b)))))`

	forms, err := ilasm.Parse(src)
	assert.NoError(t, err)
	fn, err := ilasm.BuildFunction(forms[0])
	assert.NoError(t, err)

	entry := fn.Body.EntryPoint
	newObj := entry.Child(0).Child(0)
	newObj.Method.DeclaringType = &typesystem.Type{Name: "Point", Package: "System.Drawing"}

	pass := DelegateConstructionPass{}
	n, err := pass.Run(Context{Ctx: context.Background(), Settings: Settings{DelegateConstruction: true}}, fn)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDelegateConstructionSkipsWhenDisabled(t *testing.T) {
	src := `(method M (params target)
	  (locals d)
	  (block entry
	    (stloc d (newobj ActionCtor (ldloc target) (ldftn DoWork)))))`

	forms, err := ilasm.Parse(src)
	assert.NoError(t, err)
	fn, err := ilasm.BuildFunction(forms[0])
	assert.NoError(t, err)

	entry := fn.Body.EntryPoint
	newObj := entry.Child(0).Child(0)
	newObj.Method.DeclaringType = &typesystem.Type{
		Name: "Action", Package: "System", Extends: multicastDelegateType,
	}

	pass := DelegateConstructionPass{}
	n, err := pass.Run(Context{Ctx: context.Background()}, fn)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, ilast.KindNewObj, entry.Child(0).Child(0).Kind)
}
