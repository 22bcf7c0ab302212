package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"

	"github.com/viant/ilcore/ilasm"
	"github.com/viant/ilcore/ilast"
)

// TestDecompileFunctionLockFixture runs the full fixed pass order over the
// spec's worked lock-recovery example end to end, snapshotting the step
// trace and the resulting tree the same way the teacher's fixture_test.go
// snapshots interpreter output per test case.
func TestDecompileFunctionLockFixture(t *testing.T) {
	src := `(method M (params x)
	  (locals obj flag)
	  (block entry
	    (stloc obj (ldloc x))
	    (stloc flag (ldc.i4 0))
	    (tryfinally
	      (try
	        (call Enter (ldloc obj) (ldloca flag))
	        (call Foo))
	      (finally
	        (if (ldloc flag)
	          (then (call Exit (ldloc obj)))
	          (else))))))`

	forms, err := ilasm.Parse(src)
	assert.NoError(t, err)
	fn, err := ilasm.BuildFunction(forms[0])
	assert.NoError(t, err)

	driver := NewDriver(DefaultSettings(), func(string) string { return "" })
	steps, err := driver.DecompileFunction(context.Background(), fn)
	assert.NoError(t, err)

	snaps.MatchSnapshot(t, "lock_fixture_steps", formatSteps(steps))
	snaps.MatchSnapshot(t, "lock_fixture_tree", dumpTree(fn.Body))
}

// TestDecompileModuleIsolatesFailures feeds one well-formed function through
// DecompileModule and checks that the module run reports no failures and
// records its steps; no failing function is part of this run.
func TestDecompileModuleIsolatesFailures(t *testing.T) {
	okSrc := `(method Ok (params)
	  (locals)
	  (block entry (call Foo)))`
	forms, err := ilasm.Parse(okSrc)
	assert.NoError(t, err)
	ok, err := ilasm.BuildFunction(forms[0])
	assert.NoError(t, err)

	driver := NewDriver(DefaultSettings(), func(string) string { return "" })
	result := driver.DecompileModule(context.Background(), []*ilast.ILFunction{ok})

	assert.Empty(t, result.Failed)
	assert.NotEmpty(t, result.Steps)
}

func formatSteps(steps []Step) string {
	var b strings.Builder
	for _, s := range steps {
		fmt.Fprintf(&b, "%s: rewrites=%d err=%v\n", s.Pass, s.Rewrites, s.Err)
	}
	return b.String()
}

func dumpTree(n *ilast.Instruction) string {
	var b strings.Builder
	var walk func(n *ilast.Instruction, depth int)
	walk = func(n *ilast.Instruction, depth int) {
		fmt.Fprintf(&b, "%s%s\n", strings.Repeat("  ", depth), n.String())
		for _, c := range n.Children() {
			walk(c, depth+1)
		}
	}
	walk(n, 0)
	return b.String()
}
