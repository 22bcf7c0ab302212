package ilasm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/ilcore/ilast"
)

func TestBuildFunction(t *testing.T) {
	tests := []struct {
		description string
		src         string
		assert      func(t *testing.T, fn *ilast.ILFunction)
	}{
		{
			description: "params and locals are bound by name",
			src: `(method Sum (params a b) (locals total)
			  (block entry
			    (stloc total (arith + (ldloc a) (ldloc b)))
			    (return (ldloc total))))`,
			assert: func(t *testing.T, fn *ilast.ILFunction) {
				assert.Equal(t, 2, len(fn.Parameters))
				assert.Equal(t, 1, len(fn.Locals))
				assert.Equal(t, "total", fn.Locals[0].Name)
				assert.Equal(t, 1, fn.Locals[0].StoreCount)
				assert.Equal(t, 1, fn.Locals[0].LoadCount)
			},
		},
		{
			description: "if/then/else builds a 3-child IfInstruction",
			src: `(method Max (params a b)
			  (block entry
			    (if (comp.eq (ldloc a) (ldloc b))
			      (then (return (ldloc a)))
			      (else (return (ldloc b))))))`,
			assert: func(t *testing.T, fn *ilast.ILFunction) {
				ifNode := fn.Body.EntryPoint.Child(0)
				assert.Equal(t, ilast.KindIfInstruction, ifNode.Kind)
				assert.Equal(t, 3, ifNode.ChildCount())
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			forms, err := Parse(tc.src)
			assert.NoError(t, err)
			assert.Len(t, forms, 1)
			fn, err := BuildFunction(forms[0])
			assert.NoError(t, err)
			tc.assert(t, fn)
		})
	}
}

func TestBuildFunctionUndeclaredVariable(t *testing.T) {
	forms, err := Parse(`(method Bad (block entry (ldloc missing)))`)
	assert.NoError(t, err)
	_, err = BuildFunction(forms[0])
	assert.Error(t, err)
}

func TestLexUnterminatedString(t *testing.T) {
	_, err := Lex(`(ldstr "unterminated`)
	assert.Error(t, err)
}
