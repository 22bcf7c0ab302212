package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/ilcore/ilasm"
	"github.com/viant/ilcore/ilast"
)

// TestStringConcatFlattensNestedChain exercises the compiler's nested
// Concat(Concat(a, b), c) lowering of `a + b + c`, expecting a single
// flat Concat call over the three leaves in source order.
func TestStringConcatFlattensNestedChain(t *testing.T) {
	src := `(method M (params a b c)
	  (locals)
	  (block entry
	    (call Concat (call Concat (ldloc a) (ldloc b)) (ldloc c))))`

	forms, err := ilasm.Parse(src)
	assert.NoError(t, err)
	fn, err := ilasm.BuildFunction(forms[0])
	assert.NoError(t, err)

	pass := StringConcatPass{}
	n, err := pass.Run(Context{Ctx: context.Background(), Settings: Settings{StringConcat: true}}, fn)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)

	entry := fn.Body.EntryPoint
	call := entry.Child(0)
	assert.Equal(t, ilast.KindCall, call.Kind)
	assert.Equal(t, 3, call.ChildCount())
	assert.Equal(t, "a", call.Child(0).Variable.Name)
	assert.Equal(t, "b", call.Child(1).Variable.Name)
	assert.Equal(t, "c", call.Child(2).Variable.Name)
}

func TestStringConcatIgnoresFlatCall(t *testing.T) {
	src := `(method M (params a b)
	  (locals)
	  (block entry
	    (call Concat (ldloc a) (ldloc b))))`

	forms, err := ilasm.Parse(src)
	assert.NoError(t, err)
	fn, err := ilasm.BuildFunction(forms[0])
	assert.NoError(t, err)

	pass := StringConcatPass{}
	n, err := pass.Run(Context{Ctx: context.Background(), Settings: Settings{StringConcat: true}}, fn)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}
