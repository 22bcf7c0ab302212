package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/ilcore/ilasm"
	"github.com/viant/ilcore/ilast"
)

// TestForEachRecognizesMoveNextGuard exercises the enumerator-protocol
// lowering: a block ending in `if (enumerator.MoveNext() != 0) { Body(); }`.
// Expected: the terminating If is replaced by a ForEachInstruction wrapping
// the true arm as its body, with the MoveNext() call as Resource.
func TestForEachRecognizesMoveNextGuard(t *testing.T) {
	src := `(method M (params)
	  (locals)
	  (block entry
	    (nop)
	    (if (comp.ne (callvirt MoveNext) (ldc.i4 0))
	      (then (call Body))
	      (else))))`

	forms, err := ilasm.Parse(src)
	assert.NoError(t, err)
	fn, err := ilasm.BuildFunction(forms[0])
	assert.NoError(t, err)

	pass := ForEachPass{}
	n, err := pass.Run(Context{Ctx: context.Background(), Settings: Settings{ForEachStatement: true}}, fn)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)

	entry := fn.Body.EntryPoint
	forEach := entry.Child(1)
	assert.Equal(t, ilast.KindForEachInstruction, forEach.Kind)
	assert.NotNil(t, forEach.Resource)
	assert.Equal(t, ilast.KindCallVirt, forEach.Resource.Kind)
	assert.Equal(t, "MoveNext", forEach.Resource.Method.Name)
	assert.Equal(t, 1, forEach.ChildCount())
}

func TestForEachIgnoresUnrelatedGuard(t *testing.T) {
	src := `(method M (params)
	  (locals)
	  (block entry
	    (if (comp.eq (ldc.i4 1) (ldc.i4 1))
	      (then (call Body))
	      (else))))`

	forms, err := ilasm.Parse(src)
	assert.NoError(t, err)
	fn, err := ilasm.BuildFunction(forms[0])
	assert.NoError(t, err)

	pass := ForEachPass{}
	n, err := pass.Run(Context{Ctx: context.Background(), Settings: Settings{ForEachStatement: true}}, fn)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}
