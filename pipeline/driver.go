package pipeline

import (
	"context"
	"errors"

	"github.com/viant/ilcore/ilast"
	"github.com/viant/ilcore/transform"
)

// Driver owns the fixed transform-pass order and runs it over one or many
// functions, isolating each method's failure from the rest (spec §1:
// "per-method decompilation failure is isolated").
type Driver struct {
	Settings Settings
	pipeline *transform.Pipeline
}

// XmlDocLookup resolves a method's doc-comment-ID to its XML documentation
// text. See transform.XmlDocPass.Lookup.
type XmlDocLookup func(docCommentID string) string

// NewDriver builds a Driver with the spec's fixed pass ordering: control-
// flow structuring first (if/else and loop recovery, block reordering —
// every later pass assumes containers are already structured), then
// block-local peephole recognizers (lock, using), then the pattern
// families that benefit from running after those have simplified their
// regions (switch-on-string, foreach, null-propagation), then the lighter
// expression-level passes, with XML-doc attachment last since it only
// decorates the already-settled tree.
func NewDriver(settings Settings, xmlDocLookup XmlDocLookup) *Driver {
	return &Driver{
		Settings: settings,
		pipeline: transform.NewPipeline(
			transform.StructurePass{},
			transform.LockPass{},
			transform.UsingPass{},
			transform.SwitchOnStringPass{},
			transform.ForEachPass{},
			transform.NullPropagationPass{},
			transform.TupleDeconstructPass{},
			transform.InlinedInitializerPass{},
			transform.DelegateConstructionPass{},
			transform.StringConcatPass{},
			transform.XmlDocPass{Lookup: xmlDocLookup, Enabled: settings.ShowXmlDocumentation},
		),
	}
}

// DecompileFunction runs the pass pipeline over fn, returning the Steps
// recorded (even on failure, so callers can see how far the pipeline got)
// and a *Error describing the first failure, if any.
func (d *Driver) DecompileFunction(ctx context.Context, fn *ilast.ILFunction) ([]Step, error) {
	methodName := "<unknown>"
	if fn.Method != nil {
		methodName = fn.Method.QualifiedName()
	}

	transformSteps, err := d.pipeline.Run(transform.Context{Ctx: ctx, Settings: d.Settings.transformSettings()}, fn)
	steps := make([]Step, len(transformSteps))
	for i, s := range transformSteps {
		steps[i] = Step{Method: methodName, Pass: s.Pass, Rewrites: s.Rewrites, Err: s.Err}
	}
	if err == nil {
		return steps, nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return steps, &Error{Kind: KindCancelled, Method: methodName, Err: err}
	}
	var invariant *ilast.InvariantViolation
	if errors.As(err, &invariant) {
		return steps, &Error{Kind: KindInvariantViolation, Method: methodName, Err: err}
	}

	failingPass := ""
	if len(steps) > 0 {
		failingPass = steps[len(steps)-1].Pass
	}
	return steps, &Error{Kind: KindTransformFailure, Method: methodName, Pass: failingPass, Err: err}
}

// DecompileModule runs DecompileFunction over every function, collecting
// per-method failures without aborting the batch: spec §1 requires whole-
// module decompilation to isolate one method's failure from the rest.
type ModuleResult struct {
	Steps  []Step
	Failed map[string]error // method qualified name -> error
}

func (d *Driver) DecompileModule(ctx context.Context, fns []*ilast.ILFunction) *ModuleResult {
	result := &ModuleResult{Failed: make(map[string]error)}
	for _, fn := range fns {
		steps, err := d.DecompileFunction(ctx, fn)
		result.Steps = append(result.Steps, steps...)
		if err != nil {
			methodName := "<unknown>"
			if fn.Method != nil {
				methodName = fn.Method.QualifiedName()
			}
			result.Failed[methodName] = err
		}
	}
	return result
}
