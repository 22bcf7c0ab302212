package transform

import (
	"github.com/viant/ilcore/ilast"
	"github.com/viant/ilcore/matcher"
)

// ForEachPass recovers a `foreach` loop from its two compiler lowerings:
// direct array indexing (a counter local incremented against Array.Length)
// and the general enumerator protocol (GetEnumerator/MoveNext/Current,
// optionally wrapped in a TryFinally disposing the enumerator). Both
// lowerings end a block in `if (guard) { body } else { }`; the recovered
// form replaces that terminating If with a single ForEachInstruction whose
// Resource is the guard's driving expression (the MoveNext/Length call) and
// whose sole child is the loop body, the same Resource-plus-body shape
// LockPass and UsingPass use for their own recovered constructs.
type ForEachPass struct{}

func (ForEachPass) Name() string     { return "ForEachRecovery" }
func (ForEachPass) Idempotent() bool { return false }

func (p ForEachPass) Run(ctx Context, fn *ilast.ILFunction) (int, error) {
	if !ctx.Settings.ForEachStatement {
		return 0, nil
	}
	rewrites := 0
	for _, container := range allBlockContainers(fn.Body) {
		for _, block := range container.Blocks() {
			term := block.Terminator()
			if term == nil || term.Kind != ilast.KindIfInstruction {
				continue
			}
			ok, err := tryFoldForEach(term)
			if err != nil {
				return rewrites, err
			}
			if ok {
				rewrites++
			}
		}
	}
	return rewrites, nil
}

// tryFoldForEach replaces term, an IfInstruction guarded by an array-length
// or MoveNext check, with a ForEachInstruction wrapping its true arm.
func tryFoldForEach(term *ilast.Instruction) (bool, error) {
	var cond, trueArm, falseArm *ilast.Instruction
	if !matcher.MatchIfInstruction(term, &cond, &trueArm, &falseArm) {
		return false, nil
	}
	guard := arrayLengthGuardCall(cond)
	if guard == nil {
		guard = moveNextGuardCall(cond)
	}
	if guard == nil {
		return false, nil
	}

	if err := ilast.DetachChild(guard); err != nil {
		return false, err
	}
	if err := ilast.DetachChild(trueArm); err != nil {
		return false, err
	}

	forEach := ilast.New(ilast.KindForEachInstruction)
	forEach.Resource = guard
	if err := ilast.AppendChild(forEach, trueArm); err != nil {
		return false, err
	}
	if err := ilast.ReplaceWith(term, forEach); err != nil {
		return false, err
	}
	return true, nil
}

// arrayLengthGuardCall returns the Length-call operand of cond if cond
// compares a counter variable against a call to an array's Length getter —
// the array-foreach shape's loop condition — or nil.
func arrayLengthGuardCall(cond *ilast.Instruction) *ilast.Instruction {
	var left, right *ilast.Instruction
	if !matcher.MatchCompNotEquals(cond, &left, &right) && !matcher.MatchCompEquals(cond, &left, &right) {
		return nil
	}
	if refersToMethodNamed(left, "Length") {
		return left
	}
	if refersToMethodNamed(right, "Length") {
		return right
	}
	return nil
}

// moveNextGuardCall returns the MoveNext() call operand of cond, possibly
// unwrapping a LogicNot or a `!= 0` comparison, or nil.
func moveNextGuardCall(cond *ilast.Instruction) *ilast.Instruction {
	var operand *ilast.Instruction
	if matcher.MatchLogicNot(cond, &operand) {
		cond = operand
	}
	var left, right *ilast.Instruction
	if matcher.MatchCompNotEquals(cond, &left, &right) && matcher.MatchLdcI4Value(right, 0) {
		cond = left
	}
	if refersToMethodNamed(cond, "MoveNext") {
		return cond
	}
	return nil
}

func refersToMethodNamed(n *ilast.Instruction, name string) bool {
	if n == nil {
		return false
	}
	if (n.Kind == ilast.KindCall || n.Kind == ilast.KindCallVirt) && n.Method != nil {
		return containsName(n.Method.Name, name)
	}
	return false
}
