// Package transform holds the idiom-recognizing passes that turn
// low-level IL shapes into high-level constructs (spec §4.F): lock
// recovery, switch-on-string, using-statement recovery, foreach recovery,
// null-coalescing, string-concatenation, tuple deconstruction, delegate
// construction, inlined-initializer recovery and XML-doc attachment. Each
// pass leaves the tree byte-identical when its pattern doesn't fully match,
// and each is gated by a pipeline.Settings field so a disabled recovery
// always surfaces the lower-level construct instead.
//
// The Pass/Pipeline shape here is grounded on the optimization-pass
// interface pattern found elsewhere in the example pack (an
// OptimizationPass run over a mutable unit, composed by an ordered
// OptimizationPipeline), adapted from a single linear optimizer pipeline to
// one that also tracks which passes are safe to rerun to a fixpoint.
package transform

import (
	"context"
	"fmt"

	"github.com/viant/ilcore/ilast"
)

// Context carries the per-run configuration a Pass consults: whether it is
// enabled, and a cancellation signal polled between blocks.
type Context struct {
	Ctx      context.Context
	Settings Settings
}

// Settings is the subset of pipeline settings the transform tier reads.
// pipeline.Settings carries the same fields and projects them into this
// struct (pipeline's transformSettings), so transform never imports
// pipeline (which imports transform).
type Settings struct {
	ControlFlowStructuring  bool
	LockStatement           bool
	UsingStatement          bool
	SwitchStatementOnString bool
	ForEachStatement        bool
	NullPropagation         bool
	Tuples                  bool
	DelegateConstruction    bool
	InlinedInitializer      bool
	StringConcat            bool
}

// Pass recognizes one idiom within a function and rewrites matching
// occurrences in place. Run reports how many rewrites it made; zero is not
// an error, it means the pattern wasn't present.
type Pass interface {
	Name() string
	// Idempotent reports whether re-running this pass on its own prior
	// output is safe and may still find new work (true for passes whose
	// rewrite can expose a second instance of the same pattern).
	Idempotent() bool
	Run(ctx Context, fn *ilast.ILFunction) (rewrites int, err error)
}

// Pipeline runs an ordered list of passes over a function, re-running each
// idempotent pass to a fixpoint (spec §4.F: "some passes are safe to rerun
// and are repeated until fixpoint") before moving to the next.
type Pipeline struct {
	passes []Pass
}

// NewPipeline builds a pipeline running passes in the given order.
func NewPipeline(passes ...Pass) *Pipeline {
	return &Pipeline{passes: passes}
}

// Step records one pass invocation's outcome, consumed by pipeline.Driver
// for observability.
type Step struct {
	Pass     string
	Rewrites int
	Err      error
}

// Run executes every pass over fn in order, returning one Step per pass
// invocation (idempotent passes may contribute more than one Step, one per
// fixpoint iteration).
func (p *Pipeline) Run(ctx Context, fn *ilast.ILFunction) ([]Step, error) {
	var steps []Step
	for _, pass := range p.passes {
		if err := ctx.Ctx.Err(); err != nil {
			return steps, fmt.Errorf("transform: cancelled before pass %s: %w", pass.Name(), err)
		}
		for {
			n, err := pass.Run(ctx, fn)
			steps = append(steps, Step{Pass: pass.Name(), Rewrites: n, Err: err})
			if err != nil {
				return steps, fmt.Errorf("transform: pass %s: %w", pass.Name(), err)
			}
			if n == 0 || !pass.Idempotent() {
				break
			}
		}
	}
	return steps, nil
}
